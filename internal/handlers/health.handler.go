package handlers

import (
	"context"
	"time"

	"opsflow/config"
	"opsflow/internal/database"

	"github.com/gofiber/fiber/v2"
)

const healthTimeout = 2 * time.Second

// HealthHandler answers 503 when postgres is unreachable so the load balancer drains the
// instance; a cache outage only degrades it.
func HealthHandler(router fiber.Router, config config.Config, db database.DB) {
	router.Get("/health", func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), healthTimeout)
		defer cancel()

		health := db.Health(ctx)

		status := "ok"
		code := fiber.StatusOK
		if !health.OK() {
			status = "unavailable"
			code = fiber.StatusServiceUnavailable
		} else if health.Cache == "down" {
			status = "degraded"
		}

		return c.Status(code).JSON(fiber.Map{
			"status":       status,
			"version":      config.GeneralVersion,
			"service":      "opsflow_api",
			"dependencies": health,
		})
	})
}
