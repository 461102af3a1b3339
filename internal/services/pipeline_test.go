package services

import (
	"context"
	"encoding/base64"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/giacomoverdi/voice-notes-transcriber/internal/media"
	"github.com/giacomoverdi/voice-notes-transcriber/internal/models"
	"github.com/giacomoverdi/voice-notes-transcriber/internal/repository"
	"github.com/giacomoverdi/voice-notes-transcriber/internal/storage"
)

type fakeTranscriber struct {
	result *TranscriptionResult
	err    error
	calls  int
}

func (f *fakeTranscriber) Transcribe(ctx context.Context, audioPath, language string) (*TranscriptionResult, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

type fakeSummarizer struct {
	summary string
	items   []models.ActionItem
}

func (f *fakeSummarizer) GenerateSummary(ctx context.Context, text string) (string, error) {
	return f.summary, nil
}

func (f *fakeSummarizer) ExtractActionItems(ctx context.Context, text string) ([]models.ActionItem, error) {
	return f.items, nil
}

type fakeWorkspace struct {
	createdPages int
	failCreate   bool
}

func (f *fakeWorkspace) CreatePage(ctx context.Context, creds models.NotionCredentials, note *models.Note) (string, error) {
	if f.failCreate {
		return "", errors.New("notion unavailable")
	}
	f.createdPages++
	return "page-1", nil
}

func (f *fakeWorkspace) UpdatePage(ctx context.Context, creds models.NotionCredentials, pageID string, note *models.Note) error {
	return nil
}

func (f *fakeWorkspace) ArchivePage(ctx context.Context, creds models.NotionCredentials, pageID string) error {
	return nil
}

func (f *fakeWorkspace) VerifyIntegration(ctx context.Context, apiKey, databaseID string) (string, error) {
	return "Voice Notes", nil
}

type fakeMailer struct {
	registrations []string
	noAudio       []string
	confirmations [][]AttachmentResult
}

func (f *fakeMailer) SendRegistrationPrompt(ctx context.Context, to string) error {
	f.registrations = append(f.registrations, to)
	return nil
}

func (f *fakeMailer) SendNoAudioError(ctx context.Context, to string) error {
	f.noAudio = append(f.noAudio, to)
	return nil
}

func (f *fakeMailer) SendProcessingConfirmation(ctx context.Context, to string, results []AttachmentResult) error {
	f.confirmations = append(f.confirmations, results)
	return nil
}

func (f *fakeMailer) SendVerificationEmail(ctx context.Context, to, token string) error {
	return nil
}

func (f *fakeMailer) SendPasswordResetEmail(ctx context.Context, to, token string) error {
	return nil
}

func (f *fakeMailer) VerifySignature(body []byte, signature string) bool {
	return signature == "valid"
}

type pipelineTestEnv struct {
	db          *gorm.DB
	pipeline    *Pipeline
	users       repository.UserRepository
	notes       repository.NoteRepository
	mailer      *fakeMailer
	transcriber *fakeTranscriber
	workspace   *fakeWorkspace
}

func setupPipelineTestEnv(t *testing.T) *pipelineTestEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Note{}, &models.Category{}))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	for _, cat := range models.DefaultCategories() {
		c := cat
		require.NoError(t, db.Create(&c).Error)
	}

	store, err := storage.NewLocal(t.TempDir())
	require.NoError(t, err)

	users := repository.NewUserRepository(db)
	notes := repository.NewNoteRepository(db)
	categories := repository.NewCategoryRepository(db)

	mailer := &fakeMailer{}
	workspace := &fakeWorkspace{}
	transcriber := &fakeTranscriber{
		result: &TranscriptionResult{
			Text:     "We had a meeting to discuss the project agenda and schedule a follow up call with the team.",
			Language: "en",
			Duration: 42,
			Model:    "whisper-1",
		},
	}
	summarizer := &fakeSummarizer{
		summary: "Team meeting about the project schedule.",
		items:   []models.ActionItem{{Task: "Send the agenda", Priority: "high"}},
	}
	analyzer := NewTextAnalyzer()

	pipeline := NewPipeline(
		users, notes, categories,
		store, media.NewProber("ffprobe-not-installed", "ffmpeg-not-installed"),
		transcriber, summarizer, NewCategorizer(analyzer), analyzer,
		workspace, mailer,
	)

	return &pipelineTestEnv{
		db:          db,
		pipeline:    pipeline,
		users:       users,
		notes:       notes,
		mailer:      mailer,
		transcriber: transcriber,
		workspace:   workspace,
	}
}

func (env *pipelineTestEnv) createUser(t *testing.T, email string) *models.User {
	t.Helper()
	user := &models.User{
		Email:    email,
		IsActive: true,
		Settings: models.DefaultSettings(),
	}
	require.NoError(t, env.users.Create(user))
	return user
}

func audioEmail(from string, names ...string) InboundEmail {
	email := InboundEmail{
		From:     from,
		Subject:  "Morning memo",
		TextBody: "sent from my phone",
	}
	for _, name := range names {
		email.Attachments = append(email.Attachments, Attachment{
			Name:          name,
			Content:       base64.StdEncoding.EncodeToString([]byte("fake audio bytes")),
			ContentType:   "audio/mpeg",
			ContentLength: 16,
		})
	}
	return email
}

func TestPipeline_ProcessesAudioAttachment(t *testing.T) {
	env := setupPipelineTestEnv(t)
	user := env.createUser(t, "alice@example.com")

	report, err := env.pipeline.ProcessInbound(context.Background(), audioEmail("alice@example.com", "memo.mp3"))
	require.NoError(t, err)
	require.Len(t, report.Results, 1)
	require.NoError(t, report.Results[0].Err)
	require.NotEmpty(t, report.Results[0].NoteID)

	note, err := env.notes.FindByID(report.Results[0].NoteID, user.ID)
	require.NoError(t, err)
	require.Equal(t, "Morning memo", note.Title)
	require.Equal(t, "memo.mp3", note.OriginalFilename)
	require.NotEmpty(t, note.Transcription)
	require.Equal(t, "Team meeting about the project schedule.", note.Summary)
	require.Equal(t, "meeting", note.Categories[0])
	require.Equal(t, "en", note.Language)
	require.Equal(t, 42, note.Duration)
	require.NotNil(t, note.ProcessedAt)
	require.Len(t, note.ActionItems, 1)

	// Exactly one confirmation email.
	require.Len(t, env.mailer.confirmations, 1)
	require.Empty(t, env.mailer.registrations)

	// Usage counters updated.
	updated, err := env.users.FindByID(user.ID)
	require.NoError(t, err)
	require.Equal(t, 1, updated.Usage.TotalNotes)
	require.Equal(t, 42, updated.Usage.TotalDuration)
}

func TestPipeline_UnknownSenderGetsRegistrationPrompt(t *testing.T) {
	env := setupPipelineTestEnv(t)

	report, err := env.pipeline.ProcessInbound(context.Background(), audioEmail("stranger@example.com", "memo.mp3"))
	require.NoError(t, err)
	require.True(t, report.RegistrationSent)
	require.Empty(t, report.Results)

	// The account exists but is inactive until claimed.
	user, err := env.users.FindByEmail("stranger@example.com")
	require.NoError(t, err)
	require.False(t, user.IsActive)

	require.Equal(t, []string{"stranger@example.com"}, env.mailer.registrations)
	require.Zero(t, env.transcriber.calls)
}

// flakyUserRepo simulates a store that errors on lookup.
type flakyUserRepo struct {
	repository.UserRepository
	lookupErr error
	creates   int
}

func (f *flakyUserRepo) FindByEmail(email string) (*models.User, error) {
	return nil, f.lookupErr
}

func (f *flakyUserRepo) Create(user *models.User) error {
	f.creates++
	return f.UserRepository.Create(user)
}

func TestPipeline_SenderLookupErrorSurfaces(t *testing.T) {
	env := setupPipelineTestEnv(t)
	env.createUser(t, "alice@example.com")

	// A transient lookup failure must not be mistaken for an unknown
	// sender and turned into a duplicate insert.
	flaky := &flakyUserRepo{UserRepository: env.users, lookupErr: errors.New("connection reset")}
	env.pipeline.users = flaky

	_, err := env.pipeline.ProcessInbound(context.Background(), audioEmail("alice@example.com", "memo.mp3"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "connection reset")
	require.Zero(t, flaky.creates)
	require.Empty(t, env.mailer.registrations)
}

func TestPipeline_NoAudioAttachments(t *testing.T) {
	env := setupPipelineTestEnv(t)
	env.createUser(t, "alice@example.com")

	email := InboundEmail{
		From:    "alice@example.com",
		Subject: "just text",
		Attachments: []Attachment{
			{Name: "report.pdf", Content: base64.StdEncoding.EncodeToString([]byte("pdf")), ContentType: "application/pdf"},
		},
	}
	report, err := env.pipeline.ProcessInbound(context.Background(), email)
	require.NoError(t, err)
	require.True(t, report.NoAudio)

	require.Equal(t, []string{"alice@example.com"}, env.mailer.noAudio)
	require.Zero(t, env.transcriber.calls)
}

func TestPipeline_AttachmentFailureIsIsolated(t *testing.T) {
	env := setupPipelineTestEnv(t)
	user := env.createUser(t, "alice@example.com")

	email := audioEmail("alice@example.com", "good.mp3")
	email.Attachments = append(email.Attachments, Attachment{
		Name:        "broken.mp3",
		Content:     "%%% not base64 %%%",
		ContentType: "audio/mpeg",
	})

	report, err := env.pipeline.ProcessInbound(context.Background(), email)
	require.NoError(t, err)
	require.Len(t, report.Results, 2)
	require.NoError(t, report.Results[0].Err)
	require.Error(t, report.Results[1].Err)

	// The failure still produced exactly one confirmation email covering both.
	require.Len(t, env.mailer.confirmations, 1)
	require.Len(t, env.mailer.confirmations[0], 2)

	// Only the successful attachment counts toward usage.
	updated, err := env.users.FindByID(user.ID)
	require.NoError(t, err)
	require.Equal(t, 1, updated.Usage.TotalNotes)
}

func TestPipeline_TranscriptionErrorRecordedOnNote(t *testing.T) {
	env := setupPipelineTestEnv(t)
	user := env.createUser(t, "alice@example.com")
	env.transcriber.err = errors.New("whisper unavailable")

	report, err := env.pipeline.ProcessInbound(context.Background(), audioEmail("alice@example.com", "memo.mp3"))
	require.NoError(t, err)
	require.Len(t, report.Results, 1)
	require.Error(t, report.Results[0].Err)

	// The note survives with the error in its metadata.
	note, err := env.notes.FindByID(report.Results[0].NoteID, user.ID)
	require.NoError(t, err)
	require.Contains(t, note.Metadata.Error, "whisper unavailable")
	require.Nil(t, note.ProcessedAt)
	require.Empty(t, note.Transcription)
}

func TestPipeline_SyncsToNotionWhenEnabled(t *testing.T) {
	env := setupPipelineTestEnv(t)
	user := env.createUser(t, "alice@example.com")
	user.Settings.NotionSync = true
	user.NotionCredentials = &models.NotionCredentials{APIKey: "secret", DatabaseID: "db-1"}
	require.NoError(t, env.users.Update(user))

	report, err := env.pipeline.ProcessInbound(context.Background(), audioEmail("alice@example.com", "memo.mp3"))
	require.NoError(t, err)
	require.NoError(t, report.Results[0].Err)
	require.Equal(t, 1, env.workspace.createdPages)

	note, err := env.notes.FindByID(report.Results[0].NoteID, user.ID)
	require.NoError(t, err)
	require.Equal(t, "page-1", note.NotionPageID)
	require.NotNil(t, note.NotionSyncedAt)
}

func TestPipeline_NotionFailureDoesNotFailAttachment(t *testing.T) {
	env := setupPipelineTestEnv(t)
	user := env.createUser(t, "alice@example.com")
	user.Settings.NotionSync = true
	user.NotionCredentials = &models.NotionCredentials{APIKey: "secret", DatabaseID: "db-1"}
	require.NoError(t, env.users.Update(user))
	env.workspace.failCreate = true

	report, err := env.pipeline.ProcessInbound(context.Background(), audioEmail("alice@example.com", "memo.mp3"))
	require.NoError(t, err)
	require.NoError(t, report.Results[0].Err)

	note, err := env.notes.FindByID(report.Results[0].NoteID, user.ID)
	require.NoError(t, err)
	require.Empty(t, note.NotionPageID)
	require.NotNil(t, note.ProcessedAt)
}
