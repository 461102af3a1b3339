package dto

import (
	"time"

	"github.com/giacomoverdi/voice-notes-transcriber/internal/models"
	"github.com/giacomoverdi/voice-notes-transcriber/internal/utils"
)

// Note status values derived from processing state.
const (
	NoteStatusProcessing = "processing"
	NoteStatusCompleted  = "completed"
	NoteStatusFailed     = "failed"
)

// NoteDTO represents a note in API responses.
type NoteDTO struct {
	ID               string              `json:"id"`
	Title            string              `json:"title"`
	OriginalFilename string              `json:"originalFilename,omitempty"`
	AudioURL         string              `json:"audioUrl"`
	Transcription    string              `json:"transcription"`
	Summary          string              `json:"summary"`
	ActionItems      []models.ActionItem `json:"actionItems"`
	Categories       []string            `json:"categories"`
	Tags             []string            `json:"tags"`
	Language         string              `json:"language,omitempty"`
	Duration         int                 `json:"duration"`
	Status           string              `json:"status"`
	Error            string              `json:"error,omitempty"`
	IsArchived       bool                `json:"isArchived"`
	IsFavorite       bool                `json:"isFavorite"`
	NotionPageID     string              `json:"notionPageId,omitempty"`
	NotionSyncedAt   *time.Time          `json:"notionSyncedAt,omitempty"`
	ProcessedAt      *time.Time          `json:"processedAt,omitempty"`
	CreatedAt        time.Time           `json:"createdAt"`
	UpdatedAt        time.Time           `json:"updatedAt"`
}

// NoteStatus derives the lifecycle state from processing markers.
func NoteStatus(note *models.Note) string {
	switch {
	case note.Metadata.Error != "":
		return NoteStatusFailed
	case note.ProcessedAt == nil:
		return NoteStatusProcessing
	default:
		return NoteStatusCompleted
	}
}

// ToNoteDTO converts a note to its API representation.
func ToNoteDTO(note *models.Note) NoteDTO {
	dto := NoteDTO{
		ID:               note.ID,
		Title:            note.Title,
		OriginalFilename: note.OriginalFilename,
		AudioURL:         note.AudioURL,
		Transcription:    note.Transcription,
		Summary:          note.Summary,
		ActionItems:      note.ActionItems,
		Categories:       note.Categories,
		Tags:             note.Tags,
		Language:         note.Language,
		Duration:         note.Duration,
		Status:           NoteStatus(note),
		Error:            note.Metadata.Error,
		IsArchived:       note.IsArchived,
		IsFavorite:       note.IsFavorite,
		NotionPageID:     note.NotionPageID,
		NotionSyncedAt:   note.NotionSyncedAt,
		ProcessedAt:      note.ProcessedAt,
		CreatedAt:        note.CreatedAt,
		UpdatedAt:        note.UpdatedAt,
	}
	if dto.ActionItems == nil {
		dto.ActionItems = []models.ActionItem{}
	}
	if dto.Categories == nil {
		dto.Categories = []string{}
	}
	if dto.Tags == nil {
		dto.Tags = []string{}
	}
	return dto
}

// ToNoteDTOs converts a slice of notes.
func ToNoteDTOs(notes []models.Note) []NoteDTO {
	dtos := make([]NoteDTO, len(notes))
	for i := range notes {
		dtos[i] = ToNoteDTO(&notes[i])
	}
	return dtos
}

// NotesListResponse is the paginated list envelope.
type NotesListResponse struct {
	Notes      []NoteDTO                `json:"notes"`
	Pagination utils.PaginationResponse `json:"pagination"`
}

// UpdateNoteRequest is a partial note update; nil fields are left unchanged.
type UpdateNoteRequest struct {
	Title      *string   `json:"title"`
	Summary    *string   `json:"summary"`
	Tags       *[]string `json:"tags"`
	Categories *[]string `json:"categories"`
}
