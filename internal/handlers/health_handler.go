package handlers

import (
	"time"

	"clinicbook/internal/database"
	"clinicbook/internal/dto"

	"github.com/gofiber/fiber/v2"
)

type HealthHandler struct {
	storeDriver string
}

func NewHealthHandler(storeDriver string) *HealthHandler {
	return &HealthHandler{storeDriver: storeDriver}
}

func (h *HealthHandler) Check(c *fiber.Ctx) error {
	storeStatus := "ok (" + h.storeDriver + ")"
	if h.storeDriver == "postgres" {
		if err := database.Ping(); err != nil {
			storeStatus = "unhealthy: " + err.Error()
		}
	}

	return c.JSON(dto.HealthResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Store:     storeStatus,
	})
}
