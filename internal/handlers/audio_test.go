package handlers

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/giacomoverdi/voice-notes-transcriber/internal/constants"
	"github.com/giacomoverdi/voice-notes-transcriber/internal/models"
	"github.com/giacomoverdi/voice-notes-transcriber/internal/repository"
	"github.com/giacomoverdi/voice-notes-transcriber/internal/storage"
)

const audioPayload = "0123456789abcdefghij"

type audioTestEnv struct {
	router *gin.Engine
	note   *models.Note
}

func setupAudioTestEnv(t *testing.T) *audioTestEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Note{}))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	userRepo := repository.NewUserRepository(db)
	noteRepo := repository.NewNoteRepository(db)

	user := &models.User{Email: "alice@example.com", IsActive: true}
	require.NoError(t, userRepo.Create(user))

	store, err := storage.NewLocal(t.TempDir())
	require.NoError(t, err)
	locator, err := store.Put(context.Background(), user.ID+"/memo.mp3", strings.NewReader(audioPayload), "audio/mpeg")
	require.NoError(t, err)

	note := &models.Note{
		UserID:           user.ID,
		Title:            "memo",
		OriginalFilename: "memo.mp3",
		AudioURL:         locator,
		Metadata:         models.NoteMetadata{ContentType: "audio/mpeg", Size: int64(len(audioPayload))},
	}
	require.NoError(t, noteRepo.Create(note))

	handler := NewAudioHandler(noteRepo, store)

	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set(constants.ContextKeyUserID, user.ID)
		c.Next()
	})
	r.GET("/api/audio/:id/stream", handler.Stream)
	r.GET("/api/audio/:id/download", handler.Download)

	return &audioTestEnv{router: r, note: note}
}

func (env *audioTestEnv) stream(t *testing.T, rangeHeader string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/api/audio/"+env.note.ID+"/stream", nil)
	if rangeHeader != "" {
		req.Header.Set("Range", rangeHeader)
	}
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	return w
}

func TestAudioHandler_StreamFull(t *testing.T) {
	env := setupAudioTestEnv(t)

	w := env.stream(t, "")
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, audioPayload, w.Body.String())
	require.Equal(t, "audio/mpeg", w.Header().Get("Content-Type"))
	require.Equal(t, "bytes", w.Header().Get("Accept-Ranges"))
}

func TestAudioHandler_StreamRange(t *testing.T) {
	env := setupAudioTestEnv(t)

	w := env.stream(t, "bytes=2-5")
	require.Equal(t, http.StatusPartialContent, w.Code)
	require.Equal(t, "2345", w.Body.String())
	require.Equal(t, fmt.Sprintf("bytes 2-5/%d", len(audioPayload)), w.Header().Get("Content-Range"))
	require.Equal(t, "4", w.Header().Get("Content-Length"))
}

func TestAudioHandler_StreamOpenEndedRange(t *testing.T) {
	env := setupAudioTestEnv(t)

	w := env.stream(t, "bytes=15-")
	require.Equal(t, http.StatusPartialContent, w.Code)
	require.Equal(t, "fghij", w.Body.String())
	require.Equal(t, fmt.Sprintf("bytes 15-19/%d", len(audioPayload)), w.Header().Get("Content-Range"))
}

func TestAudioHandler_StreamSuffixRange(t *testing.T) {
	env := setupAudioTestEnv(t)

	w := env.stream(t, "bytes=-3")
	require.Equal(t, http.StatusPartialContent, w.Code)
	require.Equal(t, "hij", w.Body.String())
}

func TestAudioHandler_StreamRangeOutOfBounds(t *testing.T) {
	env := setupAudioTestEnv(t)

	w := env.stream(t, "bytes=999-")
	require.Equal(t, http.StatusRequestedRangeNotSatisfiable, w.Code)
	require.Equal(t, fmt.Sprintf("bytes */%d", len(audioPayload)), w.Header().Get("Content-Range"))
}

func TestAudioHandler_StreamRangeClampedToSize(t *testing.T) {
	env := setupAudioTestEnv(t)

	w := env.stream(t, "bytes=18-999")
	require.Equal(t, http.StatusPartialContent, w.Code)
	require.Equal(t, "ij", w.Body.String())
	require.Equal(t, fmt.Sprintf("bytes 18-19/%d", len(audioPayload)), w.Header().Get("Content-Range"))
}

func TestAudioHandler_Download(t *testing.T) {
	env := setupAudioTestEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/api/audio/"+env.note.ID+"/download", nil)
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, audioPayload, w.Body.String())
	require.Equal(t, `attachment; filename="memo.mp3"`, w.Header().Get("Content-Disposition"))
}

func TestAudioHandler_UnknownNote(t *testing.T) {
	env := setupAudioTestEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/api/audio/no-such-note/stream", nil)
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusNotFound, w.Code)
}
