// Package booking models one booking attempt as an explicit state
// machine: pick a doctor and date, see the free slots, submit one. A
// conflict at submit time (someone else took the slot) re-fetches
// availability instead of failing the attempt outright.
package booking

import (
	"context"
	"errors"
	"fmt"

	"clinicbook/internal/dto"
	"clinicbook/internal/models"
	"clinicbook/internal/services"
)

type State int

const (
	StateIdle State = iota
	StateFetchingSlots
	StateSlotsReady
	StateNoSlots
	StateSubmitting
	StateBooked
	StateConflictRetry
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateFetchingSlots:
		return "FetchingSlots"
	case StateSlotsReady:
		return "SlotsReady"
	case StateNoSlots:
		return "NoSlots"
	case StateSubmitting:
		return "Submitting"
	case StateBooked:
		return "Booked"
	case StateConflictRetry:
		return "ConflictRetry"
	case StateFailed:
		return "Failed"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

var (
	ErrNotReady        = errors.New("no slot selection in progress")
	ErrSlotUnavailable = errors.New("selected slot is not in the available list")
)

// SlotSource yields free slots for a doctor on a date.
type SlotSource interface {
	DoctorAvailability(ctx context.Context, doctorID, date string) ([]string, error)
}

// Booker persists the appointment; it must return
// services.ErrSlotTaken when the slot was booked concurrently.
type Booker interface {
	Create(ctx context.Context, req *dto.CreateAppointmentRequest) (*models.Appointment, error)
}

// Flow is a single booking attempt. It is not safe for concurrent use;
// create one per attempt.
type Flow struct {
	source SlotSource
	booker Booker

	state     State
	doctorID  string
	date      string
	available []string
	appt      *models.Appointment
}

func NewFlow(source SlotSource, booker Booker) *Flow {
	return &Flow{source: source, booker: booker, state: StateIdle}
}

func (f *Flow) State() State { return f.state }

func (f *Flow) Slots() []string { return f.available }

func (f *Flow) Appointment() *models.Appointment { return f.appt }

// SelectSchedule fetches availability for a doctor and date and moves
// the flow to SlotsReady or NoSlots.
func (f *Flow) SelectSchedule(ctx context.Context, doctorID, date string) error {
	f.state = StateFetchingSlots
	f.doctorID = doctorID
	f.date = date

	slots, err := f.source.DoctorAvailability(ctx, doctorID, date)
	if err != nil {
		f.state = StateFailed
		return err
	}

	f.settleSlots(slots)
	return nil
}

// Submit books the chosen slot for the patient. On a concurrent
// conflict the flow passes through ConflictRetry, refreshes the slot
// list, returns to SlotsReady (or NoSlots) and surfaces
// services.ErrSlotTaken so the caller can offer a retry.
func (f *Flow) Submit(ctx context.Context, patientID, slot, reason string) (*models.Appointment, error) {
	if f.state != StateSlotsReady {
		return nil, ErrNotReady
	}
	if !contains(f.available, slot) {
		return nil, ErrSlotUnavailable
	}

	f.state = StateSubmitting
	req := &dto.CreateAppointmentRequest{
		PatientID: patientID,
		DoctorID:  f.doctorID,
		DateTime:  SlotDateTime(f.date, slot),
		Reason:    reason,
	}

	appt, err := f.booker.Create(ctx, req)
	if errors.Is(err, services.ErrSlotTaken) {
		f.state = StateConflictRetry
		if slots, ferr := f.source.DoctorAvailability(ctx, f.doctorID, f.date); ferr == nil {
			f.settleSlots(slots)
		}
		return nil, err
	}
	if err != nil {
		f.state = StateFailed
		return nil, err
	}

	f.state = StateBooked
	f.appt = appt
	return appt, nil
}

func (f *Flow) settleSlots(slots []string) {
	f.available = slots
	if len(slots) == 0 {
		f.state = StateNoSlots
	} else {
		f.state = StateSlotsReady
	}
}

// SlotDateTime renders the stored dateTime string for a date and slot,
// matching the format bookings have always used.
func SlotDateTime(date, slot string) string {
	return date + "T" + slot + ":00.000Z"
}

func contains(list []string, val string) bool {
	for _, item := range list {
		if item == val {
			return true
		}
	}
	return false
}
