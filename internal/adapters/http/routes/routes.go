package routes

import (
	"visahub/internal/adapters/http/handlers"
	"visahub/internal/adapters/http/middleware"
	"visahub/internal/adapters/persistence/repositories"
	"visahub/internal/config"
	"visahub/internal/core/services"
	"visahub/internal/pkg/storage"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Setup wires repositories, services and handlers and registers all routes
func Setup(app *fiber.App, db *gorm.DB, cfg *config.Config, store *storage.Store, logger *zap.SugaredLogger) {
	// ==================== Repositories ====================
	userRepo := repositories.NewUserRepository(db)
	passportRepo := repositories.NewPassportRepository(db)
	paymentRepo := repositories.NewPaymentRepository(db)
	verificationRepo := repositories.NewVerificationRepository(db)
	sessionRepo := repositories.NewSessionRepository(db)

	// ==================== Services ====================
	mailer := services.NewBrevoMailer(cfg.Email, logger)
	verificationService := services.NewVerificationService(verificationRepo, userRepo, mailer, logger)
	authService := services.NewAuthService(userRepo, sessionRepo, verificationService, cfg)
	userService := services.NewUserService(userRepo, verificationService)
	passportService := services.NewPassportService(passportRepo, userRepo)
	paymentService := services.NewPaymentService(paymentRepo, userRepo)
	adminService := services.NewAdminService(userRepo, paymentRepo)

	// ==================== Handlers ====================
	healthHandler := handlers.NewHealthHandler(db, cfg)
	authHandler := handlers.NewAuthHandler(authService, cfg)
	userHandler := handlers.NewUserHandler(userService, store, cfg)
	passportHandler := handlers.NewPassportHandler(passportService, store)
	paymentHandler := handlers.NewPaymentHandler(paymentService)
	adminHandler := handlers.NewAdminHandler(adminService, userService, passportService, paymentService)

	// ==================== Public routes ====================
	app.Get("/", healthHandler.Root)
	app.Get("/health", healthHandler.HealthCheck)
	app.Static("/uploads", store.BaseDir())

	api := app.Group("/api/v1")
	api.Get("/", healthHandler.APIInfo)

	auth := api.Group("/auth")
	auth.Post("/signup", middleware.AuthRateLimiter(), authHandler.Signup)
	auth.Post("/login", middleware.AuthRateLimiter(), authHandler.Login)
	auth.Post("/verify-email", middleware.AuthRateLimiter(), authHandler.VerifyEmail)
	auth.Post("/resend-otp", middleware.StrictRateLimiter(), authHandler.ResendOTP)
	auth.Post("/logout", middleware.AuthMiddleware(cfg), authHandler.Logout)

	// Public passport lookups for employers and the labor department
	api.Post("/passports/verify", passportHandler.Verify)
	api.Post("/passports/verify-labor", passportHandler.VerifyLabor)

	// ==================== Authenticated routes ====================
	authed := api.Group("", middleware.AuthMiddleware(cfg))

	users := authed.Group("/users")
	users.Get("/profile", userHandler.GetProfile)
	users.Put("/personal-info", userHandler.UpdatePersonalInfo)
	users.Put("/contact-info", userHandler.UpdateContactInfo)
	users.Post("/upload-photo", userHandler.UploadPhoto)

	passports := authed.Group("/passports")
	passports.Post("/", passportHandler.Upsert)
	passports.Get("/", passportHandler.Get)
	passports.Post("/upload", passportHandler.UploadImage)
	passports.Post("/upload-payment-screenshot", passportHandler.UploadPaymentScreenshot)

	payments := authed.Group("/payments")
	payments.Get("/my-status", paymentHandler.MyStatus)
	payments.Post("/submit-proof", paymentHandler.SubmitProof)

	// ==================== Admin routes ====================
	admin := api.Group("/admin", middleware.AuthMiddleware(cfg), middleware.AdminOnly())
	admin.Get("/users", adminHandler.ListUsers)
	admin.Get("/users/:id", adminHandler.GetUser)
	admin.Put("/users/:id", adminHandler.UpdateUser)
	admin.Delete("/users/:id", adminHandler.DeleteUser)
	admin.Put("/users/:id/set-amount", adminHandler.SetAmount)
	admin.Put("/users/:id/set-token", adminHandler.SetToken)
	admin.Put("/payments/:id/approve", adminHandler.ApprovePayment)
	admin.Put("/payments/:id/reject", adminHandler.RejectPayment)
	admin.Get("/stats", adminHandler.GetStats)
}
