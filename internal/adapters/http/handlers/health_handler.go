package handlers

import (
	"time"

	"visahub/internal/config"
	"visahub/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// HealthHandler handles health check and service info endpoints
type HealthHandler struct {
	db        *gorm.DB
	cfg       *config.Config
	startedAt time.Time
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(db *gorm.DB, cfg *config.Config) *HealthHandler {
	return &HealthHandler{
		db:        db,
		cfg:       cfg,
		startedAt: time.Now(),
	}
}

// Root returns a simple service banner
func (h *HealthHandler) Root(c *fiber.Ctx) error {
	return response.Success(c, "VisaHub API is running", fiber.Map{
		"service": "visahub-api",
		"version": "1.0.0",
	})
}

// HealthCheck reports service and database health
// @Summary Health check
// @Tags Health
// @Produce json
// @Success 200 {object} response.Response
// @Failure 503 {object} response.Response
// @Router /health [get]
func (h *HealthHandler) HealthCheck(c *fiber.Ctx) error {
	dbStatus := "up"
	if err := config.HealthCheck(h.db); err != nil {
		dbStatus = "down"
	}

	data := fiber.Map{
		"status":   "ok",
		"mode":     h.cfg.AppMode,
		"uptime":   time.Since(h.startedAt).Round(time.Second).String(),
		"database": dbStatus,
	}

	if dbStatus == "down" {
		data["status"] = "degraded"
		return c.Status(fiber.StatusServiceUnavailable).JSON(response.Response{
			Success: false,
			Message: "Service degraded",
			Data:    data,
		})
	}

	return response.Success(c, "Service healthy", data)
}

// APIInfo lists the exposed route groups
func (h *HealthHandler) APIInfo(c *fiber.Ctx) error {
	return response.Success(c, "", fiber.Map{
		"name":    "VisaHub API",
		"version": "1.0.0",
		"endpoints": fiber.Map{
			"auth":      "/api/v1/auth",
			"users":     "/api/v1/users",
			"passports": "/api/v1/passports",
			"payments":  "/api/v1/payments",
			"admin":     "/api/v1/admin",
			"health":    "/health",
		},
	})
}
