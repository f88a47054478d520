package handlers

import (
	"clinicbook/internal/dto"
	"clinicbook/internal/services"

	"github.com/gofiber/fiber/v2"
)

type AvailabilityHandler struct {
	availability *services.AvailabilityService
}

func NewAvailabilityHandler(availability *services.AvailabilityService) *AvailabilityHandler {
	return &AvailabilityHandler{availability: availability}
}

// Get returns the free slots for ?doctorId=...&date=YYYY-MM-DD.
// Malformed input yields an empty slot list, mirroring the service.
func (h *AvailabilityHandler) Get(c *fiber.Ctx) error {
	doctorID := c.Query("doctorId")
	date := c.Query("date")

	slots, err := h.availability.DoctorAvailability(c.Context(), doctorID, date)
	if err != nil {
		return internalError(c)
	}

	return c.JSON(dto.AvailabilityResponse{
		DoctorID: doctorID,
		Date:     date,
		Slots:    slots,
	})
}
