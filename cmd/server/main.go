package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"visahub/internal/adapters/http/middleware"
	"visahub/internal/adapters/http/routes"
	"visahub/internal/adapters/persistence/models"
	"visahub/internal/adapters/persistence/repositories"
	"visahub/internal/config"
	"visahub/internal/core/services"
	"visahub/internal/pkg/storage"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// @title VisaHub API
// @version 1.0
// @description Work permit onboarding and payment verification backend
// @BasePath /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ Failed to load configuration: %v", err)
	}

	// Structured logger for background workers and outbound dispatch
	var zapLogger *zap.Logger
	if cfg.IsDev() {
		zapLogger, err = zap.NewDevelopment()
	} else {
		zapLogger, err = zap.NewProduction()
	}
	if err != nil {
		log.Fatalf("❌ Failed to initialize logger: %v", err)
	}
	defer zapLogger.Sync()
	sugar := zapLogger.Sugar()

	// Connect to database
	db, err := config.ConnectDatabase(cfg)
	if err != nil {
		log.Fatalf("❌ Failed to connect to database: %v", err)
	}
	defer config.CloseDatabase(db)

	// Run migrations
	if err := models.AutoMigrate(db); err != nil {
		log.Fatalf("❌ Failed to run migrations: %v", err)
	}
	log.Println("✅ Database migrations completed")

	// Local upload store
	store, err := storage.New(cfg.Upload.BaseDir, cfg.Upload.BaseURL)
	if err != nil {
		log.Fatalf("❌ Failed to initialize upload store: %v", err)
	}

	// Background cleanup of expired codes and sessions
	cleanup := services.NewCleanupService(
		repositories.NewVerificationRepository(db),
		repositories.NewSessionRepository(db),
		sugar,
	)
	cleanup.Start()
	defer cleanup.Stop()

	// Create Fiber app
	app := fiber.New(fiber.Config{
		AppName:      "VisaHub API",
		ErrorHandler: middleware.ErrorHandler(cfg),
		BodyLimit:    12 * 1024 * 1024,
	})

	// Setup middleware and routes
	middleware.Setup(app, cfg)
	routes.Setup(app, db, cfg, store, sugar)

	// Graceful shutdown
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit

		log.Println("🛑 Shutting down server...")
		if err := app.Shutdown(); err != nil {
			log.Printf("❌ Server shutdown error: %v", err)
		}
	}()

	// Start server
	log.Printf("🚀 Server starting on port %s [MODE: %s]", cfg.Port, cfg.AppMode)
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatalf("❌ Server failed to start: %v", err)
	}

	log.Println("✅ Server stopped gracefully")
}
