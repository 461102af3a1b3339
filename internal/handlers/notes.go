package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/giacomoverdi/voice-notes-transcriber/internal/dto"
	apierrors "github.com/giacomoverdi/voice-notes-transcriber/internal/errors"
	"github.com/giacomoverdi/voice-notes-transcriber/internal/middleware"
	"github.com/giacomoverdi/voice-notes-transcriber/internal/models"
	"github.com/giacomoverdi/voice-notes-transcriber/internal/repository"
	"github.com/giacomoverdi/voice-notes-transcriber/internal/services"
	"github.com/giacomoverdi/voice-notes-transcriber/internal/utils"
)

// NoteHandler coordinates note CRUD and search endpoints.
type NoteHandler struct {
	noteRepo     repository.NoteRepository
	userRepo     repository.UserRepository
	categoryRepo repository.CategoryRepository
	workspace    services.WorkspaceSync
}

// NewNoteHandler creates a new NoteHandler.
func NewNoteHandler(noteRepo repository.NoteRepository, userRepo repository.UserRepository, categoryRepo repository.CategoryRepository, workspace services.WorkspaceSync) *NoteHandler {
	return &NoteHandler{
		noteRepo:     noteRepo,
		userRepo:     userRepo,
		categoryRepo: categoryRepo,
		workspace:    workspace,
	}
}

// List returns the user's notes, newest first by default.
func (h *NoteHandler) List(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		apierrors.Unauthorized(c, "")
		return
	}

	params := utils.GetPaginationParams(c)
	filter := repository.NoteFilter{
		UserID:   userID,
		Archived: c.Query("archived") == "true",
		SortBy:   c.Query("sortBy"),
		Order:    c.Query("order"),
		Page:     params.Page,
		Limit:    params.Limit,
	}
	if v := c.Query("favorite"); v != "" {
		fav, err := strconv.ParseBool(v)
		if err == nil {
			filter.Favorite = &fav
		}
	}
	if v := c.Query("category"); v != "" {
		filter.Categories = []string{v}
	}

	notes, total, err := h.noteRepo.List(filter)
	if err != nil {
		apierrors.InternalError(c, "Failed to list notes")
		return
	}

	c.JSON(http.StatusOK, dto.NotesListResponse{
		Notes:      dto.ToNoteDTOs(notes),
		Pagination: utils.NewPaginationResponse(total, params),
	})
}

// Search filters notes by text query, categories, tags and a date window.
func (h *NoteHandler) Search(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		apierrors.Unauthorized(c, "")
		return
	}

	params := utils.GetPaginationParams(c)
	filter := repository.NoteFilter{
		UserID:     userID,
		Query:      strings.TrimSpace(c.Query("q")),
		Categories: splitParam(c.Query("categories")),
		Tags:       splitParam(c.Query("tags")),
		Page:       params.Page,
		Limit:      params.Limit,
	}
	if t, ok := parseDateParam(c.Query("startDate")); ok {
		filter.DateFrom = &t
	}
	if t, ok := parseDateParam(c.Query("endDate")); ok {
		filter.DateTo = &t
	}

	notes, total, err := h.noteRepo.List(filter)
	if err != nil {
		apierrors.InternalError(c, "Failed to search notes")
		return
	}

	c.JSON(http.StatusOK, dto.NotesListResponse{
		Notes:      dto.ToNoteDTOs(notes),
		Pagination: utils.NewPaginationResponse(total, params),
	})
}

// Stats aggregates the user's note activity.
func (h *NoteHandler) Stats(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		apierrors.Unauthorized(c, "")
		return
	}

	stats, err := h.noteRepo.Stats(userID)
	if err != nil {
		apierrors.InternalError(c, "Failed to compute stats")
		return
	}

	c.JSON(http.StatusOK, stats)
}

// Categories returns the controlled vocabulary, system entries first.
func (h *NoteHandler) Categories(c *gin.Context) {
	categories, err := h.categoryRepo.List()
	if err != nil {
		apierrors.InternalError(c, "Failed to list categories")
		return
	}

	c.JSON(http.StatusOK, gin.H{"categories": categories})
}

// Get returns a single note owned by the caller.
func (h *NoteHandler) Get(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		apierrors.Unauthorized(c, "")
		return
	}

	note, err := h.findOwnedNote(c, c.Param("id"), userID)
	if err != nil {
		return
	}

	c.JSON(http.StatusOK, dto.ToNoteDTO(note))
}

// Update applies a partial edit and mirrors it to Notion when the note is
// already synced.
func (h *NoteHandler) Update(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		apierrors.Unauthorized(c, "")
		return
	}

	var req dto.UpdateNoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	note, err := h.findOwnedNote(c, c.Param("id"), userID)
	if err != nil {
		return
	}

	if req.Title != nil {
		note.Title = *req.Title
	}
	if req.Summary != nil {
		note.Summary = *req.Summary
	}
	if req.Tags != nil {
		note.Tags = *req.Tags
	}
	if req.Categories != nil {
		note.Categories = *req.Categories
	}

	if err := h.noteRepo.Update(note); err != nil {
		apierrors.InternalError(c, "Failed to update note")
		return
	}

	if note.NotionPageID != "" {
		h.mirrorToNotion(c, userID, note)
	}

	c.JSON(http.StatusOK, dto.ToNoteDTO(note))
}

// Delete soft deletes a note and archives its Notion page best effort.
func (h *NoteHandler) Delete(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		apierrors.Unauthorized(c, "")
		return
	}

	note, err := h.findOwnedNote(c, c.Param("id"), userID)
	if err != nil {
		return
	}

	if err := h.noteRepo.Delete(note.ID, userID); err != nil {
		apierrors.InternalError(c, "Failed to delete note")
		return
	}

	if note.NotionPageID != "" {
		if user, err := h.userRepo.FindByID(userID); err == nil && user.HasNotionIntegration() {
			if err := h.workspace.ArchivePage(c.Request.Context(), *user.NotionCredentials, note.NotionPageID); err != nil {
				slog.Warn("Failed to archive Notion page", "note_id", note.ID, "error", err)
			}
		}
	}

	c.JSON(http.StatusOK, gin.H{"message": "Note deleted"})
}

// ToggleFavorite flips the favorite flag.
func (h *NoteHandler) ToggleFavorite(c *gin.Context) {
	h.toggleFlag(c, func(note *models.Note) *bool {
		return &note.IsFavorite
	})
}

// ToggleArchive flips the archived flag.
func (h *NoteHandler) ToggleArchive(c *gin.Context) {
	h.toggleFlag(c, func(note *models.Note) *bool {
		return &note.IsArchived
	})
}

// SyncToNotion pushes a note to the user's Notion database on demand,
// creating the page if none exists yet.
func (h *NoteHandler) SyncToNotion(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		apierrors.Unauthorized(c, "")
		return
	}

	note, err := h.findOwnedNote(c, c.Param("id"), userID)
	if err != nil {
		return
	}

	user, err := h.userRepo.FindByID(userID)
	if err != nil {
		apierrors.InternalError(c, "Failed to load user")
		return
	}
	if !user.HasNotionIntegration() {
		apierrors.BadRequest(c, "Notion is not connected")
		return
	}

	if note.NotionPageID != "" {
		if err := h.workspace.UpdatePage(c.Request.Context(), *user.NotionCredentials, note.NotionPageID, note); err != nil {
			apierrors.InternalError(c, "Failed to sync note to Notion")
			return
		}
	} else {
		pageID, err := h.workspace.CreatePage(c.Request.Context(), *user.NotionCredentials, note)
		if err != nil {
			apierrors.InternalError(c, "Failed to sync note to Notion")
			return
		}
		note.NotionPageID = pageID
	}

	now := time.Now()
	note.NotionSyncedAt = &now
	if err := h.noteRepo.Update(note); err != nil {
		apierrors.InternalError(c, "Failed to update note")
		return
	}

	c.JSON(http.StatusOK, dto.ToNoteDTO(note))
}

func (h *NoteHandler) toggleFlag(c *gin.Context, flag func(*models.Note) *bool) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		apierrors.Unauthorized(c, "")
		return
	}

	note, err := h.findOwnedNote(c, c.Param("id"), userID)
	if err != nil {
		return
	}

	f := flag(note)
	*f = !*f
	if err := h.noteRepo.Update(note); err != nil {
		apierrors.InternalError(c, "Failed to update note")
		return
	}

	c.JSON(http.StatusOK, dto.ToNoteDTO(note))
}

// findOwnedNote loads the note or writes the error response itself.
func (h *NoteHandler) findOwnedNote(c *gin.Context, id, userID string) (*models.Note, error) {
	note, err := h.noteRepo.FindByID(id, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			apierrors.NotFound(c, "Note not found")
		} else {
			apierrors.InternalError(c, "Failed to load note")
		}
		return nil, err
	}
	return note, nil
}

func (h *NoteHandler) mirrorToNotion(c *gin.Context, userID string, note *models.Note) {
	user, err := h.userRepo.FindByID(userID)
	if err != nil || !user.HasNotionIntegration() {
		return
	}
	if err := h.workspace.UpdatePage(c.Request.Context(), *user.NotionCredentials, note.NotionPageID, note); err != nil {
		slog.Warn("Failed to mirror note to Notion", "note_id", note.ID, "error", err)
	}
}

func splitParam(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseDateParam(value string) (time.Time, bool) {
	if value == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, value); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
