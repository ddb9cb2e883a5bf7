package handler

import (
	"context"

	"github.com/gofiber/fiber/v2"
)

type HealthHandler struct {
	dbCheck func(ctx context.Context) error
}

// NewHealthHandler creates a health handler; dbCheck may be nil when
// no database is wired (tests).
func NewHealthHandler(dbCheck func(ctx context.Context) error) *HealthHandler {
	return &HealthHandler{dbCheck: dbCheck}
}

type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
}

func (h *HealthHandler) Health(c *fiber.Ctx) error {
	return c.JSON(HealthResponse{
		Status:  "ok",
		Version: "0.1.0",
	})
}

func (h *HealthHandler) Ready(c *fiber.Ctx) error {
	if h.dbCheck != nil {
		if err := h.dbCheck(c.Context()); err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(HealthResponse{
				Status: "unavailable",
			})
		}
	}
	return c.JSON(HealthResponse{
		Status: "ready",
	})
}
