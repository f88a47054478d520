package services

import (
	"context"
	"log/slog"
	"regexp"
	"time"

	"clinicbook/internal/cache"
	"clinicbook/internal/store"
)

// SlotTemplate is the fixed clinical day: 14 half-hour starts with a
// lunch gap between 11:30 and 13:00. Availability is always a subset of
// this list, in this order.
var SlotTemplate = []string{
	"09:00", "09:30", "10:00", "10:30", "11:00", "11:30",
	"13:00", "13:30", "14:00", "14:30", "15:00", "15:30", "16:00", "16:30",
}

var dateFormat = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

type AvailabilityService struct {
	appts store.AppointmentStore
	cache *cache.SlotCache
}

func NewAvailabilityService(appts store.AppointmentStore, slotCache *cache.SlotCache) *AvailabilityService {
	return &AvailabilityService{appts: appts, cache: slotCache}
}

// DoctorAvailability computes the free slots for a doctor on a date
// (YYYY-MM-DD). Malformed input yields an empty list, not an error.
// Weekends (judged at UTC midnight of the date) have no availability.
// Only Scheduled appointments block a slot; a cancelled appointment
// frees it again.
func (s *AvailabilityService) DoctorAvailability(ctx context.Context, doctorID, date string) ([]string, error) {
	if doctorID == "" || !dateFormat.MatchString(date) {
		slog.Warn("availability request with malformed input", "doctor_id", doctorID, "date", date)
		return []string{}, nil
	}

	day, err := time.Parse("2006-01-02", date)
	if err != nil {
		slog.Warn("availability request with invalid date", "date", date)
		return []string{}, nil
	}
	if wd := day.Weekday(); wd == time.Saturday || wd == time.Sunday {
		return []string{}, nil
	}

	if slots, ok := s.cache.Get(ctx, doctorID, date); ok {
		return slots, nil
	}

	booked, err := s.bookedTimes(ctx, doctorID, date)
	if err != nil {
		return nil, err
	}

	out := make([]string, 0, len(SlotTemplate))
	for _, slot := range SlotTemplate {
		if !booked[slot] {
			out = append(out, slot)
		}
	}

	s.cache.Set(ctx, doctorID, date, out)
	return out, nil
}

// bookedTimes extracts the HH:mm (UTC) of every Scheduled appointment
// for the doctor on the date. Appointments whose dateTime does not
// parse are skipped, not fatal.
func (s *AvailabilityService) bookedTimes(ctx context.Context, doctorID, date string) (map[string]bool, error) {
	appts, err := s.appts.ListScheduledForDoctorDate(ctx, doctorID, date)
	if err != nil {
		return nil, err
	}

	booked := make(map[string]bool, len(appts))
	for _, a := range appts {
		t, err := time.Parse(time.RFC3339, a.DateTime)
		if err != nil {
			slog.Warn("skipping appointment with unparsable dateTime",
				"appointment_id", a.ID.String(), "date_time", a.DateTime)
			continue
		}
		booked[t.UTC().Format("15:04")] = true
	}
	return booked, nil
}
