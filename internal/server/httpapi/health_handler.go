package httpapi

import (
	"context"
	"time"

	"github.com/dmitrijs2005/gamestarter/internal/logging"
	"github.com/gofiber/fiber/v2"
)

const readinessTimeout = time.Second

// healthHandler serves liveness and readiness probes.
type healthHandler struct {
	db     Pinger
	logger logging.Logger
}

func (h *healthHandler) Root(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"service": "gamestarter", "status": "running"})
}

// Health is the liveness probe.
func (h *healthHandler) Health(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "ok"})
}

// Ready pings the database. The ping error is logged, never returned.
func (h *healthHandler) Ready(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), readinessTimeout)
	defer cancel()
	if err := h.db.PingContext(ctx); err != nil {
		h.logger.Warn(c.UserContext(), "readiness check failed", "error", err)
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "not_ready"})
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "ready"})
}
