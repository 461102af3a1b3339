package main

import (
	"context"
	"log"
	"log/slog"
	"os"

	"github.com/gin-gonic/gin"

	"github.com/giacomoverdi/voice-notes-transcriber/internal/config"
	"github.com/giacomoverdi/voice-notes-transcriber/internal/database"
	"github.com/giacomoverdi/voice-notes-transcriber/internal/handlers"
	"github.com/giacomoverdi/voice-notes-transcriber/internal/media"
	"github.com/giacomoverdi/voice-notes-transcriber/internal/middleware"
	"github.com/giacomoverdi/voice-notes-transcriber/internal/repository"
	"github.com/giacomoverdi/voice-notes-transcriber/internal/services"
	"github.com/giacomoverdi/voice-notes-transcriber/internal/storage"
)

func main() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	// Load configuration
	cfg := config.Load()

	// Set Gin mode
	gin.SetMode(cfg.GinMode)

	// Connect to database
	if err := database.Connect(cfg); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// Run migrations and seed the category vocabulary
	if err := database.Migrate(); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	if err := database.SeedCategories(database.GetDB()); err != nil {
		log.Fatalf("Failed to seed categories: %v", err)
	}

	// Pick the audio storage backend
	var store storage.Storage
	if cfg.IsS3Enabled() {
		s3Store, err := storage.NewS3(context.Background(), cfg)
		if err != nil {
			log.Fatalf("Failed to initialize S3 storage: %v", err)
		}
		store = s3Store
		slog.Info("Using S3 audio storage", "bucket", cfg.S3Bucket)
	} else {
		localStore, err := storage.NewLocal(cfg.LocalStoragePath)
		if err != nil {
			log.Fatalf("Failed to initialize local storage: %v", err)
		}
		store = localStore
		slog.Info("Using local audio storage", "path", cfg.LocalStoragePath)
	}

	// Repositories
	db := database.GetDB()
	userRepo := repository.NewUserRepository(db)
	noteRepo := repository.NewNoteRepository(db)
	categoryRepo := repository.NewCategoryRepository(db)

	// Services
	mailer := services.NewPostmarkService(cfg)
	notion, err := services.NewNotionService()
	if err != nil {
		log.Fatalf("Failed to initialize Notion client: %v", err)
	}
	analyzer := services.NewTextAnalyzer()
	categorizer := services.NewCategorizer(analyzer)
	transcriber := services.NewOpenAITranscriber(cfg.OpenAIAPIKey, cfg.TranscriptionModel)
	summarizer := services.NewAIService(cfg.OpenAIAPIKey, cfg.CompletionModel)
	prober := media.NewProber("ffprobe", "ffmpeg")

	pipeline := services.NewPipeline(
		userRepo, noteRepo, categoryRepo,
		store, prober, transcriber, summarizer, categorizer, analyzer,
		notion, mailer,
	)
	authService := services.NewAuthService(userRepo, mailer, notion, cfg.JWTSecret, cfg.JWTExpiresIn)

	// Handlers
	authHandler := handlers.NewAuthHandler(authService)
	noteHandler := handlers.NewNoteHandler(noteRepo, userRepo, categoryRepo, notion)
	audioHandler := handlers.NewAudioHandler(noteRepo, store)
	webhookHandler := handlers.NewWebhookHandler(pipeline, mailer, cfg.WebhookVerifyDisabled)

	r := gin.Default()

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "ok",
			"message": "Voice Notes API is running",
		})
	})

	// API routes
	api := r.Group("/api")
	{
		// Auth routes (public unless noted)
		auth := api.Group("/auth")
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
			auth.GET("/verify-email/:token", authHandler.VerifyEmail)
			auth.POST("/forgot-password", authHandler.ForgotPassword)
			auth.POST("/reset-password/:token", authHandler.ResetPassword)
			auth.GET("/me", middleware.RequireAuth(authService), authHandler.Me)
			auth.PUT("/settings", middleware.RequireAuth(authService), authHandler.UpdateSettings)
			auth.POST("/notion", middleware.RequireAuth(authService), authHandler.ConnectNotion)
		}

		// Note routes (protected)
		notes := api.Group("/notes")
		notes.Use(middleware.RequireAuth(authService))
		{
			notes.GET("", noteHandler.List)
			notes.GET("/search", noteHandler.Search)
			notes.GET("/stats", noteHandler.Stats)
			notes.GET("/categories", noteHandler.Categories)
			notes.GET("/:id", noteHandler.Get)
			notes.PUT("/:id", noteHandler.Update)
			notes.DELETE("/:id", noteHandler.Delete)
			notes.POST("/:id/favorite", noteHandler.ToggleFavorite)
			notes.POST("/:id/archive", noteHandler.ToggleArchive)
			notes.POST("/:id/sync-notion", noteHandler.SyncToNotion)
		}

		// Audio routes (protected)
		audio := api.Group("/audio")
		audio.Use(middleware.RequireAuth(authService))
		{
			audio.GET("/:id/stream", audioHandler.Stream)
			audio.GET("/:id/download", audioHandler.Download)
		}

		// Inbound email webhook (signature-verified, not bearer-authed)
		api.POST("/webhook/inbound", webhookHandler.Inbound)
		api.GET("/webhook/health", webhookHandler.Health)
	}

	addr := ":" + cfg.Port
	slog.Info("Server starting", "addr", addr)
	if err := r.Run(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
