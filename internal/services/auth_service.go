package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/giacomoverdi/voice-notes-transcriber/internal/constants"
	"github.com/giacomoverdi/voice-notes-transcriber/internal/models"
	"github.com/giacomoverdi/voice-notes-transcriber/internal/repository"
	"github.com/giacomoverdi/voice-notes-transcriber/internal/utils"
)

var (
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrAccountInactive    = errors.New("account is not active")
	ErrPasswordTooShort   = errors.New("password too short")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidToken       = errors.New("invalid or expired token")
)

// AuthService handles registration, login and account lifecycle.
type AuthService struct {
	userRepo  repository.UserRepository
	mailer    Mailer
	workspace WorkspaceSync

	jwtSecret    []byte
	jwtExpiresIn time.Duration
}

// NewAuthService creates a new AuthService.
func NewAuthService(userRepo repository.UserRepository, mailer Mailer, workspace WorkspaceSync, jwtSecret string, jwtExpiresIn time.Duration) *AuthService {
	return &AuthService{
		userRepo:     userRepo,
		mailer:       mailer,
		workspace:    workspace,
		jwtSecret:    []byte(jwtSecret),
		jwtExpiresIn: jwtExpiresIn,
	}
}

// RegisterInput represents the required information to create a new account.
type RegisterInput struct {
	Email    string
	Password string
	Name     string
}

// Register creates a new account, or claims an inactive account that was
// auto-provisioned from an inbound email.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*models.User, string, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" {
		return nil, "", fmt.Errorf("email is required")
	}
	if len(input.Password) < constants.MinPasswordLength {
		return nil, "", ErrPasswordTooShort
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", fmt.Errorf("failed to hash password: %w", err)
	}

	verificationToken, err := utils.GenerateToken()
	if err != nil {
		return nil, "", fmt.Errorf("failed to generate verification token: %w", err)
	}

	user, err := s.userRepo.FindByEmail(email)
	switch {
	case err == nil:
		if user.IsActive {
			return nil, "", ErrEmailTaken
		}
		// Inbound processing created this account; registration claims it.
		user.Name = input.Name
		user.PasswordHash = string(hashedPassword)
		user.IsActive = true
		user.IsVerified = false
		user.VerificationToken = verificationToken
		if err := s.userRepo.Update(user); err != nil {
			return nil, "", fmt.Errorf("failed to claim account: %w", err)
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		user = &models.User{
			Email:             email,
			Name:              input.Name,
			PasswordHash:      string(hashedPassword),
			IsActive:          true,
			IsVerified:        false,
			VerificationToken: verificationToken,
			Settings:          models.DefaultSettings(),
		}
		if err := s.userRepo.Create(user); err != nil {
			return nil, "", fmt.Errorf("failed to create user: %w", err)
		}
	default:
		return nil, "", fmt.Errorf("failed to check email: %w", err)
	}

	if err := s.mailer.SendVerificationEmail(ctx, user.Email, verificationToken); err != nil {
		slog.Error("Failed to send verification email", "email", user.Email, "error", err)
	}

	token, err := s.issueToken(user)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// LoginInput holds the credentials for authentication.
type LoginInput struct {
	Email    string
	Password string
}

// Login verifies credentials and returns the authenticated user with a
// signed token.
func (s *AuthService) Login(input LoginInput) (*models.User, string, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))

	user, err := s.userRepo.FindByEmail(email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", fmt.Errorf("failed to find user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		return nil, "", ErrInvalidCredentials
	}

	if !user.IsActive {
		return nil, "", ErrAccountInactive
	}

	now := time.Now()
	user.LastLoginAt = &now
	if err := s.userRepo.Update(user); err != nil {
		slog.Warn("Failed to stamp last login", "user_id", user.ID, "error", err)
	}

	token, err := s.issueToken(user)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// VerifyEmail consumes a verification token and marks the account verified.
func (s *AuthService) VerifyEmail(token string) (*models.User, error) {
	user, err := s.userRepo.FindByVerificationToken(token)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	user.IsVerified = true
	user.IsActive = true
	user.VerificationToken = ""
	if err := s.userRepo.Update(user); err != nil {
		return nil, fmt.Errorf("failed to verify email: %w", err)
	}
	return user, nil
}

// ForgotPassword issues a reset token valid for one hour. A missing account
// is not reported back to the caller.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.userRepo.FindByEmail(email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return fmt.Errorf("failed to find user: %w", err)
	}

	token, err := utils.GenerateToken()
	if err != nil {
		return fmt.Errorf("failed to generate reset token: %w", err)
	}

	expires := time.Now().Add(time.Hour)
	user.ResetPasswordToken = token
	user.ResetPasswordExpires = &expires
	if err := s.userRepo.Update(user); err != nil {
		return fmt.Errorf("failed to store reset token: %w", err)
	}

	if err := s.mailer.SendPasswordResetEmail(ctx, user.Email, token); err != nil {
		slog.Error("Failed to send password reset email", "email", user.Email, "error", err)
	}
	return nil
}

// ResetPassword consumes a reset token and replaces the password.
func (s *AuthService) ResetPassword(token, newPassword string) error {
	if len(newPassword) < constants.MinPasswordLength {
		return ErrPasswordTooShort
	}

	user, err := s.userRepo.FindByResetToken(token)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrInvalidToken
		}
		return fmt.Errorf("failed to find user: %w", err)
	}
	if user.ResetPasswordExpires == nil || time.Now().After(*user.ResetPasswordExpires) {
		return ErrInvalidToken
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	user.PasswordHash = string(hashedPassword)
	user.ResetPasswordToken = ""
	user.ResetPasswordExpires = nil
	if err := s.userRepo.Update(user); err != nil {
		return fmt.Errorf("failed to reset password: %w", err)
	}
	return nil
}

// GetUser retrieves a user by ID.
func (s *AuthService) GetUser(id string) (*models.User, error) {
	user, err := s.userRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return user, nil
}

// UpdateSettings persists an already merged settings bag.
func (s *AuthService) UpdateSettings(userID string, settings models.UserSettings) (*models.User, error) {
	user, err := s.GetUser(userID)
	if err != nil {
		return nil, err
	}
	user.Settings = settings
	if err := s.userRepo.Update(user); err != nil {
		return nil, fmt.Errorf("failed to update settings: %w", err)
	}
	return user, nil
}

// ConnectNotion verifies the integration against the live API before
// storing credentials and enabling sync.
func (s *AuthService) ConnectNotion(ctx context.Context, userID, apiKey, databaseID string) (*models.User, error) {
	user, err := s.GetUser(userID)
	if err != nil {
		return nil, err
	}

	databaseName, err := s.workspace.VerifyIntegration(ctx, apiKey, databaseID)
	if err != nil {
		return nil, fmt.Errorf("notion verification failed: %w", err)
	}

	user.NotionCredentials = &models.NotionCredentials{
		APIKey:       apiKey,
		DatabaseID:   databaseID,
		DatabaseName: databaseName,
	}
	user.Settings.NotionSync = true
	if err := s.userRepo.Update(user); err != nil {
		return nil, fmt.Errorf("failed to store notion credentials: %w", err)
	}
	return user, nil
}

// issueToken signs a bearer token for the user.
func (s *AuthService) issueToken(user *models.User) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":   user.ID,
		"email": user.Email,
		"iat":   now.Unix(),
		"exp":   now.Add(s.jwtExpiresIn).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// ParseToken validates a bearer token and returns the user ID it carries.
func (s *AuthService) ParseToken(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil || !token.Valid {
		return "", ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", ErrInvalidToken
	}
	sub, ok := claims["sub"].(string)
	if !ok || sub == "" {
		return "", ErrInvalidToken
	}
	return sub, nil
}
