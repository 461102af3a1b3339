package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-resty/resty/v2"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/giacomoverdi/voice-notes-transcriber/internal/models"
)

const (
	notionBaseURL = "https://api.notion.com/v1"
	notionVersion = "2022-06-28"
)

// WorkspaceSync mirrors notes into an external page-database product.
type WorkspaceSync interface {
	CreatePage(ctx context.Context, creds models.NotionCredentials, note *models.Note) (string, error)
	UpdatePage(ctx context.Context, creds models.NotionCredentials, pageID string, note *models.Note) error
	ArchivePage(ctx context.Context, creds models.NotionCredentials, pageID string) error
	VerifyIntegration(ctx context.Context, apiKey, databaseID string) (string, error)
}

// NotionService talks to the Notion REST API. Clients are per-token and
// cached so repeated syncs for the same user reuse connections.
type NotionService struct {
	clients *lru.Cache[string, *resty.Client]
}

func NewNotionService() (*NotionService, error) {
	cache, err := lru.New[string, *resty.Client](64)
	if err != nil {
		return nil, err
	}
	return &NotionService{clients: cache}, nil
}

func (s *NotionService) client(apiKey string) *resty.Client {
	if c, ok := s.clients.Get(apiKey); ok {
		return c
	}
	c := resty.New().
		SetBaseURL(notionBaseURL).
		SetAuthToken(apiKey).
		SetHeader("Notion-Version", notionVersion).
		SetTimeout(30 * time.Second)
	s.clients.Add(apiKey, c)
	return c
}

type notionError struct {
	Message string `json:"message"`
}

type notionPage struct {
	ID string `json:"id"`
}

type notionDatabase struct {
	Title []struct {
		PlainText string `json:"plain_text"`
	} `json:"title"`
}

// CreatePage mirrors a note as a new page in the user's database.
func (s *NotionService) CreatePage(ctx context.Context, creds models.NotionCredentials, note *models.Note) (string, error) {
	body := map[string]interface{}{
		"parent":     map[string]string{"database_id": creds.DatabaseID},
		"properties": pageProperties(note),
		"children":   pageContent(note),
	}

	var page notionPage
	var apiErr notionError
	resp, err := s.client(creds.APIKey).R().
		SetContext(ctx).
		SetBody(body).
		SetResult(&page).
		SetError(&apiErr).
		Post("/pages")
	if err != nil {
		return "", fmt.Errorf("notion create page: %w", err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("notion create page: %s", apiErr.Message)
	}

	slog.Info("Notion page created", "page_id", page.ID, "note_id", note.ID)
	return page.ID, nil
}

// UpdatePage pushes the mutable note fields onto an existing page.
func (s *NotionService) UpdatePage(ctx context.Context, creds models.NotionCredentials, pageID string, note *models.Note) error {
	body := map[string]interface{}{
		"properties": pageProperties(note),
	}

	var apiErr notionError
	resp, err := s.client(creds.APIKey).R().
		SetContext(ctx).
		SetBody(body).
		SetError(&apiErr).
		Patch("/pages/" + pageID)
	if err != nil {
		return fmt.Errorf("notion update page: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("notion update page: %s", apiErr.Message)
	}
	return nil
}

// ArchivePage marks the mirrored page archived. Used when the note is deleted.
func (s *NotionService) ArchivePage(ctx context.Context, creds models.NotionCredentials, pageID string) error {
	var apiErr notionError
	resp, err := s.client(creds.APIKey).R().
		SetContext(ctx).
		SetBody(map[string]bool{"archived": true}).
		SetError(&apiErr).
		Patch("/pages/" + pageID)
	if err != nil {
		return fmt.Errorf("notion archive page: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("notion archive page: %s", apiErr.Message)
	}
	return nil
}

// VerifyIntegration checks the credentials by reading the database and
// returns its display name.
func (s *NotionService) VerifyIntegration(ctx context.Context, apiKey, databaseID string) (string, error) {
	var db notionDatabase
	var apiErr notionError
	resp, err := s.client(apiKey).R().
		SetContext(ctx).
		SetResult(&db).
		SetError(&apiErr).
		Get("/databases/" + databaseID)
	if err != nil {
		return "", fmt.Errorf("notion verify: %w", err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("notion verify: %s", apiErr.Message)
	}
	if len(db.Title) == 0 {
		return "Untitled", nil
	}
	return db.Title[0].PlainText, nil
}

func richText(content string) []map[string]interface{} {
	// Notion caps rich_text blocks at 2000 characters, not bytes.
	if runes := []rune(content); len(runes) > 2000 {
		content = string(runes[:2000])
	}
	return []map[string]interface{}{
		{"text": map[string]string{"content": content}},
	}
}

func pageProperties(note *models.Note) map[string]interface{} {
	title := note.Title
	if title == "" {
		title = "Untitled Voice Note"
	}
	multiSelect := make([]map[string]string, 0, len(note.Categories))
	for _, cat := range note.Categories {
		multiSelect = append(multiSelect, map[string]string{"name": cat})
	}
	return map[string]interface{}{
		"Title":      map[string]interface{}{"title": richText(title)},
		"Summary":    map[string]interface{}{"rich_text": richText(note.Summary)},
		"Categories": map[string]interface{}{"multi_select": multiSelect},
		"Duration":   map[string]interface{}{"number": note.Duration},
		"Date":       map[string]interface{}{"date": map[string]string{"start": note.CreatedAt.Format(time.RFC3339)}},
	}
}

func pageContent(note *models.Note) []map[string]interface{} {
	summary := note.Summary
	if summary == "" {
		summary = "No summary available"
	}
	transcription := note.Transcription
	if transcription == "" {
		transcription = "No transcription available"
	}

	blocks := []map[string]interface{}{
		heading("Summary"),
		paragraph(summary),
	}

	if len(note.ActionItems) > 0 {
		blocks = append(blocks, heading("Action Items"))
		for _, item := range note.ActionItems {
			blocks = append(blocks, map[string]interface{}{
				"type": "to_do",
				"to_do": map[string]interface{}{
					"rich_text": richText(item.Task),
					"checked":   false,
				},
			})
		}
	}

	blocks = append(blocks,
		map[string]interface{}{"type": "divider", "divider": map[string]interface{}{}},
		heading("Full Transcription"),
		paragraph(transcription),
	)
	return blocks
}

func heading(text string) map[string]interface{} {
	return map[string]interface{}{
		"type":      "heading_2",
		"heading_2": map[string]interface{}{"rich_text": richText(text)},
	}
}

func paragraph(text string) map[string]interface{} {
	return map[string]interface{}{
		"type":      "paragraph",
		"paragraph": map[string]interface{}{"rich_text": richText(text)},
	}
}
