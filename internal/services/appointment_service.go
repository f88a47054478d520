package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"clinicbook/internal/cache"
	"clinicbook/internal/dto"
	"clinicbook/internal/models"
	"clinicbook/internal/store"

	"github.com/google/uuid"
)

var (
	ErrMissingFields       = errors.New("patientId, doctorId and dateTime are required")
	ErrSlotTaken           = errors.New("slot already booked")
	ErrAppointmentNotFound = errors.New("appointment not found")
	ErrInvalidStatus       = errors.New("invalid appointment status")
)

type AppointmentService struct {
	appts store.AppointmentStore
	cache *cache.SlotCache

	// doctorLocks serializes check-then-insert per doctor so that two
	// concurrent bookings for the same slot cannot both pass the
	// conflict scan.
	mu          sync.Mutex
	doctorLocks map[string]*sync.Mutex
}

func NewAppointmentService(appts store.AppointmentStore, slotCache *cache.SlotCache) *AppointmentService {
	return &AppointmentService{
		appts:       appts,
		cache:       slotCache,
		doctorLocks: make(map[string]*sync.Mutex),
	}
}

func (s *AppointmentService) lockDoctor(doctorID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.doctorLocks[doctorID]
	if !ok {
		l = &sync.Mutex{}
		s.doctorLocks[doctorID] = l
	}
	return l
}

// Create books an appointment. Inside the per-doctor critical section
// it re-scans for an existing non-Cancelled appointment at the exact
// same dateTime string and rejects the booking with ErrSlotTaken if one
// exists: at most one non-Cancelled appointment per (doctor, dateTime).
func (s *AppointmentService) Create(ctx context.Context, req *dto.CreateAppointmentRequest) (*models.Appointment, error) {
	if req.PatientID == "" || req.DoctorID == "" || req.DateTime == "" {
		return nil, ErrMissingFields
	}

	status := req.Status
	if status == "" {
		status = models.StatusScheduled
	}
	if !validStatus(status) {
		return nil, ErrInvalidStatus
	}

	lock := s.lockDoctor(req.DoctorID)
	lock.Lock()
	defer lock.Unlock()

	taken, err := s.appts.ExistsActiveAt(ctx, req.DoctorID, req.DateTime)
	if err != nil {
		return nil, fmt.Errorf("conflict check failed: %w", err)
	}
	if taken {
		return nil, ErrSlotTaken
	}

	appt := models.Appointment{
		ID:        uuid.New(),
		PatientID: req.PatientID,
		DoctorID:  req.DoctorID,
		DateTime:  req.DateTime,
		Reason:    req.Reason,
		Status:    status,
	}

	if err := s.appts.Create(ctx, &appt); err != nil {
		return nil, fmt.Errorf("failed to create appointment: %w", err)
	}

	s.cache.Invalidate(ctx, appt.DoctorID, datePrefix(appt.DateTime))
	return &appt, nil
}

// ListForUser returns the user's appointments, most recent dateTime
// first. Entries whose dateTime does not parse compare as equal and
// keep their relative order.
func (s *AppointmentService) ListForUser(ctx context.Context, userID, role string) ([]models.Appointment, error) {
	if userID == "" {
		return nil, errors.New("user id is required")
	}

	var (
		out []models.Appointment
		err error
	)
	switch role {
	case models.RolePatient:
		out, err = s.appts.ListByPatient(ctx, userID)
	case models.RoleDoctor:
		out, err = s.appts.ListByDoctor(ctx, userID)
	default:
		return nil, ErrInvalidRole
	}
	if err != nil {
		return nil, err
	}

	sort.SliceStable(out, func(i, j int) bool {
		ti, erri := time.Parse(time.RFC3339, out[i].DateTime)
		tj, errj := time.Parse(time.RFC3339, out[j].DateTime)
		if erri != nil || errj != nil {
			return false
		}
		return ti.After(tj)
	})
	return out, nil
}

// Update merges a partial patch into the appointment. Status is only
// touched when the patch carries one.
func (s *AppointmentService) Update(ctx context.Context, id string, patch *dto.UpdateAppointmentRequest) (*models.Appointment, error) {
	appt, err := s.appts.ByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrAppointmentNotFound
		}
		return nil, err
	}

	oldDate := datePrefix(appt.DateTime)

	if patch.DateTime != nil {
		appt.DateTime = *patch.DateTime
	}
	if patch.Reason != nil {
		appt.Reason = *patch.Reason
	}
	if patch.Status != nil {
		if !validStatus(*patch.Status) {
			return nil, ErrInvalidStatus
		}
		appt.Status = *patch.Status
	}

	if err := s.appts.Save(ctx, appt); err != nil {
		return nil, fmt.Errorf("failed to update appointment: %w", err)
	}

	s.cache.Invalidate(ctx, appt.DoctorID, oldDate)
	if d := datePrefix(appt.DateTime); d != oldDate {
		s.cache.Invalidate(ctx, appt.DoctorID, d)
	}
	return appt, nil
}

// Cancel soft-deletes: the record stays, status becomes Cancelled and
// the slot frees up. Cancelling an already-Cancelled appointment is an
// idempotent no-op apart from the updatedAt stamp.
func (s *AppointmentService) Cancel(ctx context.Context, id string) (*models.Appointment, error) {
	status := models.StatusCancelled
	return s.Update(ctx, id, &dto.UpdateAppointmentRequest{Status: &status})
}

// Delete removes the record entirely. Cancellation is the normal path;
// this exists for cleanup.
func (s *AppointmentService) Delete(ctx context.Context, id string) error {
	appt, err := s.appts.ByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrAppointmentNotFound
		}
		return err
	}

	if err := s.appts.Delete(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrAppointmentNotFound
		}
		return err
	}

	s.cache.Invalidate(ctx, appt.DoctorID, datePrefix(appt.DateTime))
	return nil
}

func validStatus(status string) bool {
	switch status {
	case models.StatusScheduled, models.StatusCancelled, models.StatusCompleted:
		return true
	}
	return false
}

// datePrefix returns the YYYY-MM-DD prefix of an ISO-8601 string.
func datePrefix(dateTime string) string {
	if len(dateTime) < 10 {
		return dateTime
	}
	return dateTime[:10]
}
