package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	apierrors "github.com/giacomoverdi/voice-notes-transcriber/internal/errors"
	"github.com/giacomoverdi/voice-notes-transcriber/internal/middleware"
	"github.com/giacomoverdi/voice-notes-transcriber/internal/models"
	"github.com/giacomoverdi/voice-notes-transcriber/internal/repository"
	"github.com/giacomoverdi/voice-notes-transcriber/internal/storage"
)

// AudioHandler streams stored note audio back to its owner.
type AudioHandler struct {
	noteRepo repository.NoteRepository
	store    storage.Storage
}

// NewAudioHandler creates a new AudioHandler.
func NewAudioHandler(noteRepo repository.NoteRepository, store storage.Storage) *AudioHandler {
	return &AudioHandler{
		noteRepo: noteRepo,
		store:    store,
	}
}

// Stream serves the note's audio, honoring single byte-range requests so
// browser players can seek.
func (h *AudioHandler) Stream(c *gin.Context) {
	note, ok := h.loadNote(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	reader, size, err := h.store.Get(ctx, note.AudioURL)
	if err != nil {
		apierrors.NotFound(c, "Audio not found")
		return
	}

	contentType := note.Metadata.ContentType
	if contentType == "" {
		contentType = "audio/mpeg"
	}
	c.Header("Accept-Ranges", "bytes")
	c.Header("Cache-Control", "private, max-age=3600")

	rangeHeader := c.GetHeader("Range")
	if rangeHeader == "" {
		defer reader.Close()
		c.DataFromReader(http.StatusOK, size, contentType, reader, nil)
		return
	}
	reader.Close()

	start, end, err := parseRangeHeader(rangeHeader, size)
	if err != nil {
		c.Header("Content-Range", fmt.Sprintf("bytes */%d", size))
		c.Status(http.StatusRequestedRangeNotSatisfiable)
		return
	}

	ranged, err := h.store.GetRange(ctx, note.AudioURL, start, end)
	if err != nil {
		apierrors.InternalError(c, "Failed to read audio")
		return
	}
	defer ranged.Close()

	c.Header("Content-Range", fmt.Sprintf("bytes %d-%d/%d", start, end, size))
	c.DataFromReader(http.StatusPartialContent, end-start+1, contentType, ranged, nil)
}

// Download serves the full file as an attachment.
func (h *AudioHandler) Download(c *gin.Context) {
	note, ok := h.loadNote(c)
	if !ok {
		return
	}

	reader, size, err := h.store.Get(c.Request.Context(), note.AudioURL)
	if err != nil {
		apierrors.NotFound(c, "Audio not found")
		return
	}
	defer reader.Close()

	contentType := note.Metadata.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	filename := note.OriginalFilename
	if filename == "" {
		filename = "audio"
	}

	c.DataFromReader(http.StatusOK, size, contentType, reader, map[string]string{
		"Content-Disposition": fmt.Sprintf("attachment; filename=%q", filename),
	})
}

func (h *AudioHandler) loadNote(c *gin.Context) (*models.Note, bool) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		apierrors.Unauthorized(c, "")
		return nil, false
	}

	note, err := h.noteRepo.FindByID(c.Param("id"), userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			apierrors.NotFound(c, "Note not found")
		} else {
			apierrors.InternalError(c, "Failed to load note")
		}
		return nil, false
	}
	return note, true
}

// parseRangeHeader handles a single "bytes=start-end" range. Suffix ranges
// ("bytes=-500") request the trailing bytes.
func parseRangeHeader(header string, size int64) (int64, int64, error) {
	spec, ok := strings.CutPrefix(header, "bytes=")
	if !ok || strings.Contains(spec, ",") {
		return 0, 0, fmt.Errorf("unsupported range: %s", header)
	}

	startStr, endStr, ok := strings.Cut(spec, "-")
	if !ok {
		return 0, 0, fmt.Errorf("malformed range: %s", header)
	}

	if startStr == "" {
		// Suffix range.
		n, err := strconv.ParseInt(endStr, 10, 64)
		if err != nil || n <= 0 {
			return 0, 0, fmt.Errorf("malformed range: %s", header)
		}
		if n > size {
			n = size
		}
		return size - n, size - 1, nil
	}

	start, err := strconv.ParseInt(startStr, 10, 64)
	if err != nil || start < 0 || start >= size {
		return 0, 0, fmt.Errorf("range out of bounds: %s", header)
	}

	end := size - 1
	if endStr != "" {
		end, err = strconv.ParseInt(endStr, 10, 64)
		if err != nil || end < start {
			return 0, 0, fmt.Errorf("malformed range: %s", header)
		}
		if end > size-1 {
			end = size - 1
		}
	}
	return start, end, nil
}
