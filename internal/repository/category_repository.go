package repository

import (
	"gorm.io/gorm"

	"github.com/giacomoverdi/voice-notes-transcriber/internal/models"
)

// GormCategoryRepository is a GORM implementation of CategoryRepository
type GormCategoryRepository struct {
	db *gorm.DB
}

// NewCategoryRepository creates a new CategoryRepository
func NewCategoryRepository(db *gorm.DB) CategoryRepository {
	return &GormCategoryRepository{db: db}
}

// List returns all categories, system entries first
func (r *GormCategoryRepository) List() ([]models.Category, error) {
	var categories []models.Category
	if err := r.db.Order("is_system DESC, name ASC").Find(&categories).Error; err != nil {
		return nil, err
	}
	return categories, nil
}

// FindBySlug finds a category by slug
func (r *GormCategoryRepository) FindBySlug(slug string) (*models.Category, error) {
	var category models.Category
	if err := r.db.Where("slug = ?", slug).First(&category).Error; err != nil {
		return nil, err
	}
	return &category, nil
}

// IncrementUsage bumps the usage counter for the given slugs
func (r *GormCategoryRepository) IncrementUsage(slugs []string) error {
	if len(slugs) == 0 {
		return nil
	}
	return r.db.Model(&models.Category{}).
		Where("slug IN ?", slugs).
		UpdateColumn("usage_count", gorm.Expr("usage_count + 1")).Error
}
