package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/giacomoverdi/voice-notes-transcriber/internal/utils"
)

// Category is a controlled vocabulary entry. System categories are shared;
// user-owned ones carry a UserID.
type Category struct {
	ID          string         `gorm:"type:uuid;primaryKey" json:"id"`
	Name        string         `gorm:"type:varchar(100);uniqueIndex;not null" json:"name"`
	Slug        string         `gorm:"type:varchar(100);uniqueIndex;not null" json:"slug"`
	Color       string         `gorm:"type:varchar(20);default:'#6366f1'" json:"color"`
	Icon        string         `gorm:"type:varchar(10)" json:"icon"`
	Description string         `gorm:"type:text" json:"description"`
	IsSystem    bool           `gorm:"default:false" json:"is_system"`
	UserID      *string        `gorm:"type:uuid" json:"user_id,omitempty"`
	UsageCount  int            `gorm:"default:0" json:"usage_count"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

func (c *Category) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	if c.Slug == "" {
		c.Slug = utils.Slugify(c.Name)
	}
	return nil
}

// DefaultCategories is the seed set, in fixed order.
func DefaultCategories() []Category {
	return []Category{
		{Name: "Meeting", Slug: "meeting", Icon: "👥", Color: "#3b82f6", IsSystem: true},
		{Name: "Idea", Slug: "idea", Icon: "💡", Color: "#eab308", IsSystem: true},
		{Name: "Todo", Slug: "todo", Icon: "✅", Color: "#ef4444", IsSystem: true},
		{Name: "Personal", Slug: "personal", Icon: "👤", Color: "#10b981", IsSystem: true},
		{Name: "Work", Slug: "work", Icon: "💼", Color: "#8b5cf6", IsSystem: true},
		{Name: "Learning", Slug: "learning", Icon: "📚", Color: "#6366f1", IsSystem: true},
		{Name: "Finance", Slug: "finance", Icon: "💰", Color: "#10b981", IsSystem: true},
		{Name: "Health", Slug: "health", Icon: "🏃", Color: "#ec4899", IsSystem: true},
		{Name: "General", Slug: "general", Icon: "📌", Color: "#6b7280", IsSystem: true},
	}
}
