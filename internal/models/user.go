package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// UserSettings is the per-user preference bag stored as JSON.
type UserSettings struct {
	AutoTranscribe     bool   `json:"autoTranscribe"`
	EmailNotifications bool   `json:"emailNotifications"`
	DailySummary       bool   `json:"dailySummary"`
	NotionSync         bool   `json:"notionSync"`
	Language           string `json:"language"`
	Timezone           string `json:"timezone"`
}

// DefaultSettings are applied to registered and auto-provisioned users alike.
func DefaultSettings() UserSettings {
	return UserSettings{
		AutoTranscribe:     true,
		EmailNotifications: true,
		DailySummary:       false,
		NotionSync:         false,
		Language:           "",
		Timezone:           "UTC",
	}
}

// MonthlyUsage is one month's rollup inside the usage counter bag.
type MonthlyUsage struct {
	Notes    int `json:"notes"`
	Duration int `json:"duration"`
}

// UserUsage tracks cumulative note counts and audio duration.
type UserUsage struct {
	TotalNotes    int                     `json:"totalNotes"`
	TotalDuration int                     `json:"totalDuration"`
	LastActivity  *time.Time              `json:"lastActivity"`
	MonthlyUsage  map[string]MonthlyUsage `json:"monthlyUsage"`
}

// NotionCredentials holds a user's workspace integration secrets.
type NotionCredentials struct {
	APIKey       string `json:"apiKey"`
	DatabaseID   string `json:"databaseId"`
	DatabaseName string `json:"databaseName"`
}

type User struct {
	ID                   string             `gorm:"type:uuid;primaryKey" json:"id"`
	Email                string             `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	PasswordHash         string             `gorm:"type:varchar(255)" json:"-"`
	Name                 string             `gorm:"type:varchar(255)" json:"name"`
	IsActive             bool               `json:"is_active"`
	IsVerified           bool               `json:"is_verified"`
	VerificationToken    string             `gorm:"type:varchar(255)" json:"-"`
	ResetPasswordToken   string             `gorm:"type:varchar(255)" json:"-"`
	ResetPasswordExpires *time.Time         `json:"-"`
	Settings             UserSettings       `gorm:"serializer:json;type:text" json:"settings"`
	Usage                UserUsage          `gorm:"serializer:json;type:text" json:"usage"`
	NotionCredentials    *NotionCredentials `gorm:"serializer:json;type:text" json:"-"`
	LastLoginAt          *time.Time         `json:"last_login_at"`
	CreatedAt            time.Time          `json:"created_at"`
	UpdatedAt            time.Time          `json:"updated_at"`
	DeletedAt            gorm.DeletedAt     `gorm:"index" json:"-"`

	// Relations
	Notes []Note `gorm:"foreignKey:UserID" json:"-"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	return nil
}

// HasNotionIntegration reports whether the user can mirror notes to Notion.
func (u *User) HasNotionIntegration() bool {
	return u.Settings.NotionSync && u.NotionCredentials != nil && u.NotionCredentials.APIKey != ""
}

// IncrementUsage adds n notes and the given duration (seconds) to the
// cumulative counters, including the current month's rollup.
func (u *User) IncrementUsage(n, duration int) {
	now := time.Now()
	u.Usage.TotalNotes += n
	u.Usage.TotalDuration += duration
	u.Usage.LastActivity = &now

	month := now.Format("2006-01")
	if u.Usage.MonthlyUsage == nil {
		u.Usage.MonthlyUsage = map[string]MonthlyUsage{}
	}
	m := u.Usage.MonthlyUsage[month]
	m.Notes += n
	m.Duration += duration
	u.Usage.MonthlyUsage[month] = m
}
