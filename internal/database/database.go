package database

import (
	"fmt"
	"log/slog"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/giacomoverdi/voice-notes-transcriber/internal/config"
	"github.com/giacomoverdi/voice-notes-transcriber/internal/models"
)

var DB *gorm.DB

func Connect(cfg *config.Config) error {
	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.DBHost,
		cfg.DBPort,
		cfg.DBUser,
		cfg.DBPassword,
		cfg.DBName,
		cfg.DBSSLMode,
	)

	var err error
	DB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	slog.Info("Database connection established")
	return nil
}

func Migrate() error {
	slog.Info("Running database migrations")
	err := DB.AutoMigrate(
		&models.User{},
		&models.Note{},
		&models.Category{},
	)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	slog.Info("Database migrations completed")
	return nil
}

// SeedCategories inserts the system category vocabulary. Existing slugs are
// left untouched so reruns are safe.
func SeedCategories(db *gorm.DB) error {
	for _, cat := range models.DefaultCategories() {
		var existing models.Category
		err := db.Where("slug = ?", cat.Slug).First(&existing).Error
		if err == nil {
			continue
		}
		if err != gorm.ErrRecordNotFound {
			return fmt.Errorf("failed to check category %s: %w", cat.Slug, err)
		}
		c := cat
		if err := db.Create(&c).Error; err != nil {
			return fmt.Errorf("failed to seed category %s: %w", cat.Slug, err)
		}
	}
	return nil
}

func GetDB() *gorm.DB {
	return DB
}

// SetDB sets the database instance (used for testing)
func SetDB(db *gorm.DB) {
	DB = db
}
