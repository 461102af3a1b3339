package repository

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/giacomoverdi/voice-notes-transcriber/internal/database"
	"github.com/giacomoverdi/voice-notes-transcriber/internal/models"
	"github.com/giacomoverdi/voice-notes-transcriber/internal/utils"
)

// GormNoteRepository is a GORM implementation of NoteRepository
type GormNoteRepository struct {
	db *gorm.DB
}

// NewNoteRepository creates a new NoteRepository
func NewNoteRepository(db *gorm.DB) NoteRepository {
	return &GormNoteRepository{db: db}
}

// Create creates a new note
func (r *GormNoteRepository) Create(note *models.Note) error {
	return r.db.Create(note).Error
}

// FindByID finds a note by ID scoped to its owner
func (r *GormNoteRepository) FindByID(id, userID string) (*models.Note, error) {
	var note models.Note
	if err := r.db.Where("id = ? AND user_id = ?", id, userID).First(&note).Error; err != nil {
		return nil, err
	}
	return &note, nil
}

// Columns permitted in ORDER BY, guarding against injection through sortBy.
var sortableColumns = map[string]bool{
	"created_at": true,
	"updated_at": true,
	"title":      true,
	"duration":   true,
}

// List retrieves notes with filtering and pagination
func (r *GormNoteRepository) List(filter NoteFilter) ([]models.Note, int64, error) {
	query := r.db.Model(&models.Note{}).
		Where("user_id = ?", filter.UserID).
		Where("is_archived = ?", filter.Archived)

	if filter.Favorite != nil {
		query = query.Where("is_favorite = ?", *filter.Favorite)
	}

	if filter.Query != "" {
		q := "%" + strings.ToLower(filter.Query) + "%"
		query = query.Where(
			"LOWER(title) LIKE ? OR LOWER(transcription) LIKE ? OR LOWER(summary) LIKE ?",
			q, q, q,
		)
	}

	// Categories and tags are stored as JSON arrays in a text column, so a
	// quoted-token LIKE runs identically on postgres and sqlite.
	for _, cat := range filter.Categories {
		query = query.Where("categories LIKE ?", fmt.Sprintf(`%%"%s"%%`, cat))
	}
	for _, tag := range filter.Tags {
		query = query.Where("tags LIKE ?", fmt.Sprintf(`%%"%s"%%`, tag))
	}

	if filter.DateFrom != nil {
		query = query.Where("created_at >= ?", *filter.DateFrom)
	}
	if filter.DateTo != nil {
		query = query.Where("created_at <= ?", *filter.DateTo)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	sortBy := filter.SortBy
	if !sortableColumns[sortBy] {
		sortBy = "created_at"
	}
	order := "DESC"
	if strings.EqualFold(filter.Order, "asc") {
		order = "ASC"
	}
	query = query.Order(fmt.Sprintf("%s %s", sortBy, order))

	if filter.Page > 0 && filter.Limit > 0 {
		query = query.Scopes(database.Paginate(utils.PaginationParams{
			Offset: (filter.Page - 1) * filter.Limit,
			Limit:  filter.Limit,
		}))
	}

	var notes []models.Note
	if err := query.Find(&notes).Error; err != nil {
		return nil, 0, err
	}

	return notes, total, nil
}

// Update persists changes to a note
func (r *GormNoteRepository) Update(note *models.Note) error {
	return r.db.Save(note).Error
}

// Delete soft deletes a note
func (r *GormNoteRepository) Delete(id, userID string) error {
	result := r.db.Where("id = ? AND user_id = ?", id, userID).Delete(&models.Note{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Stats aggregates note counts, duration and category usage for a user
func (r *GormNoteRepository) Stats(userID string) (*NoteStats, error) {
	stats := &NoteStats{}

	type overview struct {
		Total    int64
		Duration *int64
	}
	var o overview
	err := r.db.Model(&models.Note{}).
		Where("user_id = ?", userID).
		Select("COUNT(id) AS total, SUM(duration) AS duration").
		Scan(&o).Error
	if err != nil {
		return nil, err
	}
	stats.TotalNotes = o.Total
	if o.Duration != nil {
		stats.TotalDuration = *o.Duration
	}

	weekAgo := time.Now().AddDate(0, 0, -7)
	err = r.db.Model(&models.Note{}).
		Where("user_id = ? AND created_at >= ?", userID, weekAgo).
		Count(&stats.LastWeek).Error
	if err != nil {
		return nil, err
	}

	// Category labels live inside a JSON column; count them in memory
	// instead of depending on a database-specific unnest.
	var notes []models.Note
	if err := r.db.Select("categories").Where("user_id = ?", userID).Find(&notes).Error; err != nil {
		return nil, err
	}
	counts := map[string]int{}
	for _, n := range notes {
		for _, c := range n.Categories {
			counts[c]++
		}
	}
	for cat, count := range counts {
		stats.Categories = append(stats.Categories, CategoryCount{Category: cat, Count: count})
	}
	sort.Slice(stats.Categories, func(i, j int) bool {
		if stats.Categories[i].Count != stats.Categories[j].Count {
			return stats.Categories[i].Count > stats.Categories[j].Count
		}
		return stats.Categories[i].Category < stats.Categories[j].Category
	})

	return stats, nil
}
