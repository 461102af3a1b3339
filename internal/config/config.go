package config

import (
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Database
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// HTTP
	Port        string
	GinMode     string
	FrontendURL string

	// Auth
	JWTSecret    string
	JWTExpiresIn time.Duration

	// Storage
	ForceLocalStorage bool
	LocalStoragePath  string
	S3Bucket          string
	S3Region          string
	S3Endpoint        string
	S3AccessKeyID     string
	S3SecretAccessKey string

	// OpenAI
	OpenAIAPIKey       string
	TranscriptionModel string
	CompletionModel    string

	// Postmark
	PostmarkServerToken   string
	PostmarkFromEmail     string
	PostmarkInboundAddr   string
	PostmarkWebhookSecret string
	WebhookVerifyDisabled bool
}

func Load() *Config {
	// Best-effort: in containers the environment is already populated.
	if err := godotenv.Load(); err == nil {
		slog.Info("Loaded environment from .env file")
	}

	return &Config{
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "voicenotes"),
		DBPassword: getEnv("DB_PASSWORD", "voicenotes"),
		DBName:     getEnv("DB_NAME", "voice_notes"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		Port:        getEnv("PORT", "8080"),
		GinMode:     getEnv("GIN_MODE", "debug"),
		FrontendURL: getEnv("FRONTEND_URL", "http://localhost:3000"),

		JWTSecret:    getEnv("JWT_SECRET", "default-secret-key-change-me"),
		JWTExpiresIn: getEnvDuration("JWT_EXPIRES_IN", 7*24*time.Hour),

		ForceLocalStorage: getEnvBool("FORCE_LOCAL_STORAGE", false),
		LocalStoragePath:  getEnv("LOCAL_STORAGE_PATH", "./uploads"),
		S3Bucket:          getEnv("S3_BUCKET_NAME", ""),
		S3Region:          getEnv("AWS_REGION", "us-east-1"),
		S3Endpoint:        getEnv("S3_ENDPOINT", ""),
		S3AccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
		S3SecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),

		OpenAIAPIKey:       getEnv("OPENAI_API_KEY", ""),
		TranscriptionModel: getEnv("TRANSCRIPTION_MODEL", "whisper-1"),
		CompletionModel:    getEnv("COMPLETION_MODEL", "gpt-4o"),

		PostmarkServerToken:   getEnv("POSTMARK_SERVER_TOKEN", ""),
		PostmarkFromEmail:     getEnv("POSTMARK_FROM_EMAIL", "noreply@voicenotes.app"),
		PostmarkInboundAddr:   getEnv("POSTMARK_INBOUND_ADDRESS", ""),
		PostmarkWebhookSecret: getEnv("POSTMARK_WEBHOOK_TOKEN", ""),
		WebhookVerifyDisabled: getEnvBool("WEBHOOK_VERIFY_DISABLED", false),
	}
}

// IsS3Enabled reports whether the object-store backend should be used.
// Forcing local storage wins regardless of configured S3 credentials.
func (c *Config) IsS3Enabled() bool {
	if c.ForceLocalStorage {
		return false
	}
	return c.S3AccessKeyID != "" && c.S3Bucket != ""
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value == "true" || value == "1"
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		slog.Warn("Invalid duration in environment, using default", "key", key, "value", value)
		return defaultValue
	}
	return d
}
