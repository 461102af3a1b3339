package dto

import (
	"time"

	"github.com/giacomoverdi/voice-notes-transcriber/internal/models"
)

// NotionStatusDTO exposes integration state without the API key.
type NotionStatusDTO struct {
	Connected    bool   `json:"connected"`
	DatabaseName string `json:"databaseName,omitempty"`
}

// UserDTO represents a user in API responses.
type UserDTO struct {
	ID          string              `json:"id"`
	Email       string              `json:"email"`
	Name        string              `json:"name"`
	IsVerified  bool                `json:"isVerified"`
	Settings    models.UserSettings `json:"settings"`
	Usage       models.UserUsage    `json:"usage"`
	Notion      NotionStatusDTO     `json:"notion"`
	LastLoginAt *time.Time          `json:"lastLoginAt,omitempty"`
	CreatedAt   time.Time           `json:"createdAt"`
}

// ToUserDTO converts a user to its API representation.
func ToUserDTO(user *models.User) UserDTO {
	dto := UserDTO{
		ID:          user.ID,
		Email:       user.Email,
		Name:        user.Name,
		IsVerified:  user.IsVerified,
		Settings:    user.Settings,
		Usage:       user.Usage,
		LastLoginAt: user.LastLoginAt,
		CreatedAt:   user.CreatedAt,
	}
	if user.NotionCredentials != nil {
		dto.Notion = NotionStatusDTO{
			Connected:    true,
			DatabaseName: user.NotionCredentials.DatabaseName,
		}
	}
	return dto
}

// AuthResponse carries the user together with a signed bearer token.
type AuthResponse struct {
	User  UserDTO `json:"user"`
	Token string  `json:"token"`
}

// RegisterRequest is the signup payload.
type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
	Name     string `json:"name"`
}

// LoginRequest is the login payload.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// ForgotPasswordRequest asks for a reset link.
type ForgotPasswordRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// ResetPasswordRequest carries the replacement password.
type ResetPasswordRequest struct {
	Password string `json:"password" binding:"required"`
}

// UpdateSettingsRequest is a partial settings update; nil fields are left
// unchanged.
type UpdateSettingsRequest struct {
	AutoTranscribe     *bool   `json:"autoTranscribe"`
	EmailNotifications *bool   `json:"emailNotifications"`
	DailySummary       *bool   `json:"dailySummary"`
	NotionSync         *bool   `json:"notionSync"`
	Language           *string `json:"language"`
	Timezone           *string `json:"timezone"`
}

// Apply merges the request onto an existing settings bag.
func (r UpdateSettingsRequest) Apply(settings models.UserSettings) models.UserSettings {
	if r.AutoTranscribe != nil {
		settings.AutoTranscribe = *r.AutoTranscribe
	}
	if r.EmailNotifications != nil {
		settings.EmailNotifications = *r.EmailNotifications
	}
	if r.DailySummary != nil {
		settings.DailySummary = *r.DailySummary
	}
	if r.NotionSync != nil {
		settings.NotionSync = *r.NotionSync
	}
	if r.Language != nil {
		settings.Language = *r.Language
	}
	if r.Timezone != nil {
		settings.Timezone = *r.Timezone
	}
	return settings
}

// ConnectNotionRequest carries workspace integration credentials.
type ConnectNotionRequest struct {
	APIKey     string `json:"apiKey" binding:"required"`
	DatabaseID string `json:"databaseId" binding:"required"`
}
