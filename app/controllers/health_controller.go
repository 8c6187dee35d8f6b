package controllers

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// HealthController answers liveness probes. It reports store connectivity
// alongside but stays 200 as long as the process serves requests.
type HealthController struct {
	db *gorm.DB
}

func NewHealthController(db *gorm.DB) *HealthController {
	return &HealthController{db: db}
}

// HandleHealth is GET /health.
func (hc *HealthController) HandleHealth(c *fiber.Ctx) error {
	dbStatus := "ok"
	if hc.db == nil {
		dbStatus = "not_configured"
	} else if sqlDB, err := hc.db.DB(); err != nil || sqlDB.Ping() != nil {
		dbStatus = "unreachable"
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status":   "healthy",
		"service":  "monobridge",
		"database": dbStatus,
	})
}
