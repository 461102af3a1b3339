package services

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/giacomoverdi/voice-notes-transcriber/internal/media"
	"github.com/giacomoverdi/voice-notes-transcriber/internal/models"
	"github.com/giacomoverdi/voice-notes-transcriber/internal/repository"
	"github.com/giacomoverdi/voice-notes-transcriber/internal/storage"
	"github.com/giacomoverdi/voice-notes-transcriber/internal/utils"
)

// audioContentTypes is the whitelist of attachment MIME types treated as
// voice notes.
var audioContentTypes = map[string]bool{
	"audio/mpeg":  true,
	"audio/mp3":   true,
	"audio/wav":   true,
	"audio/x-wav": true,
	"audio/mp4":   true,
	"audio/x-m4a": true,
	"audio/ogg":   true,
	"audio/webm":  true,
	"audio/flac":  true,
}

// IsAudioContentType reports whether an attachment qualifies for processing.
func IsAudioContentType(contentType string) bool {
	return audioContentTypes[strings.ToLower(contentType)]
}

// Attachment is one file from the inbound email payload.
type Attachment struct {
	Name          string `json:"Name"`
	Content       string `json:"Content"`
	ContentType   string `json:"ContentType"`
	ContentLength int64  `json:"ContentLength"`
}

// InboundEmail is the provider's inbound webhook payload.
type InboundEmail struct {
	From        string       `json:"From"`
	Subject     string       `json:"Subject"`
	TextBody    string       `json:"TextBody"`
	Attachments []Attachment `json:"Attachments"`
}

// AttachmentResult records the outcome for one attachment. A failed
// attachment never aborts its siblings.
type AttachmentResult struct {
	Filename string `json:"filename"`
	NoteID   string `json:"noteId,omitempty"`
	Duration int    `json:"duration,omitempty"`
	Err      error  `json:"-"`
}

// InboundReport summarizes one processed inbound email.
type InboundReport struct {
	RegistrationSent bool
	NoAudio          bool
	Results          []AttachmentResult
}

// Pipeline runs the inbound email flow: resolve sender, store attachments,
// transcribe, enrich, persist, notify.
type Pipeline struct {
	users      repository.UserRepository
	notes      repository.NoteRepository
	categories repository.CategoryRepository

	store       storage.Storage
	prober      *media.Prober
	transcriber Transcriber
	summarizer  Summarizer
	categorizer *Categorizer
	analyzer    *TextAnalyzer
	workspace   WorkspaceSync
	mailer      Mailer
}

func NewPipeline(
	users repository.UserRepository,
	notes repository.NoteRepository,
	categories repository.CategoryRepository,
	store storage.Storage,
	prober *media.Prober,
	transcriber Transcriber,
	summarizer Summarizer,
	categorizer *Categorizer,
	analyzer *TextAnalyzer,
	workspace WorkspaceSync,
	mailer Mailer,
) *Pipeline {
	return &Pipeline{
		users:       users,
		notes:       notes,
		categories:  categories,
		store:       store,
		prober:      prober,
		transcriber: transcriber,
		summarizer:  summarizer,
		categorizer: categorizer,
		analyzer:    analyzer,
		workspace:   workspace,
		mailer:      mailer,
	}
}

// ProcessInbound handles one inbound email end to end. Adapter failures are
// isolated per attachment; exactly one outbound email goes back to the
// sender on every path.
func (p *Pipeline) ProcessInbound(ctx context.Context, email InboundEmail) (*InboundReport, error) {
	sender := strings.ToLower(strings.TrimSpace(email.From))
	slog.Info("Processing inbound email",
		"from", sender,
		"subject", email.Subject,
		"attachments", len(email.Attachments),
	)

	user, created, err := p.resolveUser(sender)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve sender: %w", err)
	}
	if created {
		if err := p.mailer.SendRegistrationPrompt(ctx, sender); err != nil {
			slog.Error("Failed to send registration email", "to", sender, "error", err)
		}
		return &InboundReport{RegistrationSent: true}, nil
	}

	var audio []Attachment
	for _, att := range email.Attachments {
		if IsAudioContentType(att.ContentType) {
			audio = append(audio, att)
		}
	}
	if len(audio) == 0 {
		slog.Warn("No audio attachments found", "from", sender)
		if err := p.mailer.SendNoAudioError(ctx, sender); err != nil {
			slog.Error("Failed to send no-audio email", "to", sender, "error", err)
		}
		return &InboundReport{NoAudio: true}, nil
	}

	results := make([]AttachmentResult, 0, len(audio))
	for _, att := range audio {
		result := p.processAttachment(ctx, user, email, att)
		if result.Err != nil {
			slog.Error("Error processing attachment", "filename", att.Name, "error", result.Err)
		}
		results = append(results, result)
	}

	if err := p.mailer.SendProcessingConfirmation(ctx, sender, results); err != nil {
		slog.Error("Failed to send confirmation email", "to", sender, "error", err)
	}

	// Usage counters reflect only what actually processed.
	var succeeded, totalDuration int
	for _, r := range results {
		if r.Err == nil {
			succeeded++
			totalDuration += r.Duration
		}
	}
	if succeeded > 0 {
		user.IncrementUsage(succeeded, totalDuration)
		if err := p.users.Update(user); err != nil {
			slog.Error("Failed to update usage counters", "user_id", user.ID, "error", err)
		}
	}

	return &InboundReport{Results: results}, nil
}

// resolveUser finds the sender or auto-provisions an inactive account that
// must be verified before notes are processed for it.
func (p *Pipeline) resolveUser(email string) (*models.User, bool, error) {
	user, err := p.users.FindByEmail(email)
	if err == nil {
		return user, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, fmt.Errorf("failed to look up sender: %w", err)
	}

	user = &models.User{
		Email:      email,
		IsActive:   false,
		IsVerified: false,
		Settings:   models.DefaultSettings(),
	}
	if err := p.users.Create(user); err != nil {
		return nil, false, err
	}
	slog.Info("Auto-provisioned user from inbound email", "email", email)
	return user, true, nil
}

// processAttachment stores one attachment, creates its note, and runs the
// transcription sub-flow. Every failure is folded into the result.
func (p *Pipeline) processAttachment(ctx context.Context, user *models.User, email InboundEmail, att Attachment) AttachmentResult {
	result := AttachmentResult{Filename: att.Name}

	payload, err := base64.StdEncoding.DecodeString(att.Content)
	if err != nil {
		result.Err = fmt.Errorf("failed to decode attachment: %w", err)
		return result
	}

	key := fmt.Sprintf("%s/%s_%s", user.ID, uuid.New().String(), utils.SanitizeFilename(att.Name))
	locator, err := p.store.Put(ctx, key, bytes.NewReader(payload), att.ContentType)
	if err != nil {
		result.Err = fmt.Errorf("failed to upload audio: %w", err)
		return result
	}

	scratch, err := p.store.DownloadToScratch(ctx, locator)
	if err != nil {
		result.Err = fmt.Errorf("failed to download audio for processing: %w", err)
		return result
	}
	defer func() {
		if err := os.Remove(scratch); err != nil && !os.IsNotExist(err) {
			slog.Warn("Failed to clean up scratch file", "path", scratch)
		}
	}()

	duration := p.prober.Duration(ctx, scratch)

	title := email.Subject
	if title == "" {
		title = "Voice Note - " + time.Now().Format("2006-01-02")
	}
	now := time.Now()
	note := &models.Note{
		UserID:           user.ID,
		Title:            title,
		OriginalFilename: att.Name,
		AudioURL:         locator,
		Duration:         int(duration + 0.5),
		EmailSubject:     email.Subject,
		EmailBody:        email.TextBody,
		Metadata: models.NoteMetadata{
			ContentType: att.ContentType,
			Size:        att.ContentLength,
			UploadedAt:  &now,
		},
	}
	if err := p.notes.Create(note); err != nil {
		result.Err = fmt.Errorf("failed to create note: %w", err)
		return result
	}
	result.NoteID = note.ID
	result.Duration = note.Duration

	if err := p.transcribeNote(ctx, user, note, scratch); err != nil {
		result.Err = err
		return result
	}

	// Recognition can refine the probed duration.
	result.Duration = note.Duration
	return result
}

// transcribeNote runs recognition, enrichment and the single result write.
// A transcription failure is persisted into the note's metadata so the note
// stays visible with an error marker.
func (p *Pipeline) transcribeNote(ctx context.Context, user *models.User, note *models.Note, audioPath string) error {
	// Explicit user preference beats auto-detection.
	language := user.Settings.Language

	// Recognition works best on 16kHz mono; fall back to the original file
	// when ffmpeg is unavailable.
	if processed, err := p.prober.Normalize(ctx, audioPath); err == nil {
		defer os.Remove(processed)
		audioPath = processed
	} else {
		slog.Warn("Audio normalization failed, using original", "note_id", note.ID, "error", err)
	}

	tr, err := p.transcriber.Transcribe(ctx, audioPath, language)
	if err != nil {
		note.Metadata.Error = err.Error()
		if updateErr := p.notes.Update(note); updateErr != nil {
			slog.Error("Failed to record transcription error", "note_id", note.ID, "error", updateErr)
		}
		return err
	}

	// Summary and action items are independent derivations of the same
	// transcript, so they run together.
	var (
		wg          sync.WaitGroup
		summary     string
		summaryErr  error
		actionItems []models.ActionItem
		actionsErr  error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		summary, summaryErr = p.summarizer.GenerateSummary(ctx, tr.Text)
	}()
	go func() {
		defer wg.Done()
		actionItems, actionsErr = p.summarizer.ExtractActionItems(ctx, tr.Text)
	}()
	wg.Wait()

	if summaryErr != nil {
		slog.Error("Summary generation failed", "note_id", note.ID, "error", summaryErr)
	}
	if actionsErr != nil {
		slog.Error("Action item extraction failed", "note_id", note.ID, "error", actionsErr)
	}

	categories := p.categorizer.Categorize(tr.Text, summary)
	tags := p.analyzer.ExtractTags(tr.Text)

	now := time.Now()
	note.Transcription = tr.Text
	note.Summary = summary
	note.ActionItems = actionItems
	note.Categories = categories
	note.Tags = tags
	note.Language = tr.Language
	if tr.Duration > 0 {
		note.Duration = int(tr.Duration + 0.5)
	}
	note.ProcessedAt = &now
	note.Metadata.TranscriptionModel = tr.Model
	note.Metadata.Segments = tr.Segments

	if err := p.notes.Update(note); err != nil {
		return fmt.Errorf("failed to persist transcription results: %w", err)
	}

	if err := p.categories.IncrementUsage(categories); err != nil {
		slog.Warn("Failed to bump category usage", "error", err)
	}

	// Workspace sync is a best-effort mirror, never a correctness
	// requirement; failures are logged and swallowed.
	if user.HasNotionIntegration() {
		p.SyncToWorkspace(ctx, user, note)
	}

	slog.Info("Transcription completed", "note_id", note.ID)
	return nil
}

// SyncToWorkspace mirrors the note to the user's Notion database. Errors
// are swallowed after logging.
func (p *Pipeline) SyncToWorkspace(ctx context.Context, user *models.User, note *models.Note) {
	if user.NotionCredentials == nil {
		slog.Warn("Notion credentials not configured", "user_id", user.ID)
		return
	}

	pageID, err := p.workspace.CreatePage(ctx, *user.NotionCredentials, note)
	if err != nil {
		slog.Error("Notion sync failed", "note_id", note.ID, "error", err)
		return
	}

	now := time.Now()
	note.NotionPageID = pageID
	note.NotionSyncedAt = &now
	if err := p.notes.Update(note); err != nil {
		slog.Error("Failed to persist Notion page reference", "note_id", note.ID, "error", err)
	}
}
