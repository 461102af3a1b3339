package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ActionItemPriority string

const (
	PriorityHigh   ActionItemPriority = "high"
	PriorityMedium ActionItemPriority = "medium"
	PriorityLow    ActionItemPriority = "low"
)

// ActionItem is one extracted task from a transcript.
type ActionItem struct {
	Task     string             `json:"task"`
	Priority ActionItemPriority `json:"priority"`
	Deadline *time.Time         `json:"deadline,omitempty"`
}

// TranscriptSegment is one recognized span with its confidence.
type TranscriptSegment struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
}

// NoteMetadata is the open metadata bag on a note. Processing errors are
// recorded here so a failed note stays visible instead of disappearing.
type NoteMetadata struct {
	ContentType        string              `json:"contentType,omitempty"`
	Size               int64               `json:"size,omitempty"`
	UploadedAt         *time.Time          `json:"uploadedAt,omitempty"`
	TranscriptionModel string              `json:"transcriptionModel,omitempty"`
	Segments           []TranscriptSegment `json:"segments,omitempty"`
	Error              string              `json:"error,omitempty"`
}

type Note struct {
	ID               string         `gorm:"type:uuid;primaryKey" json:"id"`
	UserID           string         `gorm:"type:uuid;index;not null" json:"user_id"`
	Title            string         `gorm:"type:varchar(255);not null" json:"title"`
	OriginalFilename string         `gorm:"type:varchar(255);not null" json:"original_filename"`
	AudioURL         string         `gorm:"type:varchar(512);not null" json:"audio_url"`
	Transcription    string         `gorm:"type:text" json:"transcription"`
	Summary          string         `gorm:"type:text" json:"summary"`
	ActionItems      []ActionItem   `gorm:"serializer:json;type:text" json:"action_items"`
	Categories       []string       `gorm:"serializer:json;type:text" json:"categories"`
	Tags             []string       `gorm:"serializer:json;type:text" json:"tags"`
	Language         string         `gorm:"type:varchar(10)" json:"language"`
	Duration         int            `json:"duration"`
	Metadata         NoteMetadata   `gorm:"serializer:json;type:text" json:"metadata"`
	NotionPageID     string         `gorm:"type:varchar(255)" json:"notion_page_id"`
	NotionSyncedAt   *time.Time     `json:"notion_synced_at"`
	IsArchived       bool           `gorm:"default:false;index" json:"is_archived"`
	IsFavorite       bool           `gorm:"default:false" json:"is_favorite"`
	ProcessedAt      *time.Time     `json:"processed_at"`
	EmailSubject     string         `gorm:"type:varchar(255)" json:"email_subject"`
	EmailBody        string         `gorm:"type:text" json:"email_body"`
	CreatedAt        time.Time      `gorm:"index" json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
	DeletedAt        gorm.DeletedAt `gorm:"index" json:"-"`

	// Relations
	User User `gorm:"foreignKey:UserID" json:"-"`
}

func (n *Note) BeforeCreate(tx *gorm.DB) error {
	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	return nil
}

// HasTranscription reports whether processing has produced text yet.
func (n *Note) HasTranscription() bool {
	return n.Transcription != ""
}
