package handlers

import (
	"errors"

	"clinicbook/internal/booking"
	"clinicbook/internal/dto"
	"clinicbook/internal/middleware"
	"clinicbook/internal/models"
	"clinicbook/internal/services"

	"github.com/gofiber/fiber/v2"
)

type AppointmentHandler struct {
	appointments *services.AppointmentService
	availability *services.AvailabilityService
}

func NewAppointmentHandler(appointments *services.AppointmentService, availability *services.AvailabilityService) *AppointmentHandler {
	return &AppointmentHandler{appointments: appointments, availability: availability}
}

// Create books an appointment from a raw dateTime. PatientID defaults
// to the authenticated user. A 409 carries the refreshed slot list for
// the requested day so the client can retry immediately.
func (h *AppointmentHandler) Create(c *fiber.Ctx) error {
	var req dto.CreateAppointmentRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	if req.PatientID == "" {
		userID, err := middleware.CurrentUserID(c)
		if err != nil {
			return unauthorized(c)
		}
		req.PatientID = userID.String()
	}

	appt, err := h.appointments.Create(c.Context(), &req)
	if err != nil {
		if errors.Is(err, services.ErrSlotTaken) {
			return h.conflict(c, req.DoctorID, req.DateTime)
		}
		if errors.Is(err, services.ErrMissingFields) || errors.Is(err, services.ErrInvalidStatus) {
			return badRequest(c, err.Error())
		}
		return internalError(c)
	}

	return c.Status(fiber.StatusCreated).JSON(appt)
}

// BookSlot runs a full booking flow: fetch availability for the date,
// verify the chosen slot is still free, then submit. This is the
// endpoint the booking form drives.
func (h *AppointmentHandler) BookSlot(c *fiber.Ctx) error {
	userID, err := middleware.CurrentUserID(c)
	if err != nil {
		return unauthorized(c)
	}

	var req dto.BookSlotRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	flow := booking.NewFlow(h.availability, h.appointments)
	if err := flow.SelectSchedule(c.Context(), req.DoctorID, req.Date); err != nil {
		return internalError(c)
	}
	if flow.State() == booking.StateNoSlots {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(dto.ConflictResponse{
			Error:          true,
			Message:        "No slots available for this date",
			AvailableSlots: []string{},
		})
	}

	appt, err := flow.Submit(c.Context(), userID.String(), req.Slot, req.Reason)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrSlotTaken):
			// ConflictRetry: the flow already refreshed the slot list.
			return c.Status(fiber.StatusConflict).JSON(dto.ConflictResponse{
				Error:          true,
				Message:        "This time slot was just booked. Please select another.",
				AvailableSlots: flow.Slots(),
			})
		case errors.Is(err, booking.ErrSlotUnavailable):
			return c.Status(fiber.StatusUnprocessableEntity).JSON(dto.ConflictResponse{
				Error:          true,
				Message:        err.Error(),
				AvailableSlots: flow.Slots(),
			})
		case errors.Is(err, services.ErrMissingFields):
			return badRequest(c, err.Error())
		default:
			return internalError(c)
		}
	}

	return c.Status(fiber.StatusCreated).JSON(appt)
}

// List returns the caller's appointments; ?userId= and ?role= override
// the token's identity, matching the listAppointmentsForUser contract.
func (h *AppointmentHandler) List(c *fiber.Ctx) error {
	userID := c.Query("userId")
	role := c.Query("role")

	if userID == "" {
		uid, err := middleware.CurrentUserID(c)
		if err != nil {
			return unauthorized(c)
		}
		userID = uid.String()
	}
	if role == "" {
		r, err := middleware.CurrentUserRole(c)
		if err != nil {
			return unauthorized(c)
		}
		role = r
	}

	appts, err := h.appointments.ListForUser(c.Context(), userID, role)
	if err != nil {
		if errors.Is(err, services.ErrInvalidRole) {
			return badRequest(c, err.Error())
		}
		return internalError(c)
	}

	if appts == nil {
		appts = []models.Appointment{}
	}
	return c.JSON(appts)
}

func (h *AppointmentHandler) Update(c *fiber.Ctx) error {
	var patch dto.UpdateAppointmentRequest
	if err := c.BodyParser(&patch); err != nil {
		return badRequest(c, "Invalid request body")
	}

	appt, err := h.appointments.Update(c.Context(), c.Params("id"), &patch)
	if err != nil {
		return h.mapAppointmentError(c, err)
	}
	return c.JSON(appt)
}

func (h *AppointmentHandler) Cancel(c *fiber.Ctx) error {
	appt, err := h.appointments.Cancel(c.Context(), c.Params("id"))
	if err != nil {
		return h.mapAppointmentError(c, err)
	}
	return c.JSON(appt)
}

func (h *AppointmentHandler) Delete(c *fiber.Ctx) error {
	if err := h.appointments.Delete(c.Context(), c.Params("id")); err != nil {
		return h.mapAppointmentError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Appointment deleted"})
}

func (h *AppointmentHandler) conflict(c *fiber.Ctx, doctorID, dateTime string) error {
	date := dateTime
	if len(date) > 10 {
		date = date[:10]
	}
	slots, err := h.availability.DoctorAvailability(c.Context(), doctorID, date)
	if err != nil {
		slots = []string{}
	}
	return c.Status(fiber.StatusConflict).JSON(dto.ConflictResponse{
		Error:          true,
		Message:        "This time slot was just booked. Please select another.",
		AvailableSlots: slots,
	})
}

func (h *AppointmentHandler) mapAppointmentError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrAppointmentNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
			Error: true, Message: "Appointment not found",
		})
	case errors.Is(err, services.ErrInvalidStatus):
		return badRequest(c, err.Error())
	default:
		return internalError(c)
	}
}
