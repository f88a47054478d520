package handlers

import (
	"errors"

	"clinicbook/internal/dto"
	"clinicbook/internal/services"

	"github.com/gofiber/fiber/v2"
)

type DoctorHandler struct {
	doctorService *services.DoctorService
}

func NewDoctorHandler(doctorService *services.DoctorService) *DoctorHandler {
	return &DoctorHandler{doctorService: doctorService}
}

func (h *DoctorHandler) List(c *fiber.Ctx) error {
	doctors, err := h.doctorService.ListDoctors(c.Context())
	if err != nil {
		return internalError(c)
	}
	return c.JSON(doctors)
}

func (h *DoctorHandler) Get(c *fiber.Ctx) error {
	doctor, err := h.doctorService.DoctorByID(c.Context(), c.Params("id"))
	if err != nil {
		if errors.Is(err, services.ErrDoctorNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
				Error: true, Message: "Doctor not found",
			})
		}
		return internalError(c)
	}
	return c.JSON(doctor)
}
