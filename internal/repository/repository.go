package repository

import (
	"time"

	"github.com/giacomoverdi/voice-notes-transcriber/internal/models"
)

// UserRepository defines the interface for user data access
type UserRepository interface {
	// Create creates a new user
	Create(user *models.User) error

	// FindByID finds a user by ID
	FindByID(id string) (*models.User, error)

	// FindByEmail finds a user by email address
	FindByEmail(email string) (*models.User, error)

	// FindByVerificationToken finds a user by email verification token
	FindByVerificationToken(token string) (*models.User, error)

	// FindByResetToken finds a user by an unexpired password reset token
	FindByResetToken(token string) (*models.User, error)

	// Update persists changes to a user
	Update(user *models.User) error
}

// NoteFilter holds filtering options for listing and searching notes
type NoteFilter struct {
	UserID     string
	Query      string
	Categories []string
	Tags       []string
	Archived   bool
	Favorite   *bool
	DateFrom   *time.Time
	DateTo     *time.Time
	SortBy     string
	Order      string
	Page       int
	Limit      int
}

// CategoryCount is a per-label note count in the stats response.
type CategoryCount struct {
	Category string `json:"category"`
	Count    int    `json:"count"`
}

// NoteStats aggregates a user's note activity.
type NoteStats struct {
	TotalNotes    int64           `json:"totalNotes"`
	TotalDuration int64           `json:"totalDuration"`
	LastWeek      int64           `json:"lastWeek"`
	Categories    []CategoryCount `json:"categories"`
}

// NoteRepository defines the interface for note data access
type NoteRepository interface {
	// Create creates a new note
	Create(note *models.Note) error

	// FindByID finds a note by ID scoped to its owner
	FindByID(id, userID string) (*models.Note, error)

	// List retrieves notes with filtering and pagination
	List(filter NoteFilter) ([]models.Note, int64, error)

	// Update persists changes to a note
	Update(note *models.Note) error

	// Delete soft deletes a note
	Delete(id, userID string) error

	// Stats aggregates note counts, duration and category usage for a user
	Stats(userID string) (*NoteStats, error)
}

// CategoryRepository defines the interface for category data access
type CategoryRepository interface {
	// List returns all categories, system entries first
	List() ([]models.Category, error)

	// FindBySlug finds a category by slug
	FindBySlug(slug string) (*models.Category, error)

	// IncrementUsage bumps the usage counter for the given slugs
	IncrementUsage(slugs []string) error
}
