package dto

type CreateAppointmentRequest struct {
	PatientID string `json:"patientId"`
	DoctorID  string `json:"doctorId"`
	DateTime  string `json:"dateTime"`
	Reason    string `json:"reason"`
	Status    string `json:"status,omitempty"`
}

// UpdateAppointmentRequest is a partial patch; nil fields are left
// untouched, in particular Status.
type UpdateAppointmentRequest struct {
	DateTime *string `json:"dateTime,omitempty"`
	Reason   *string `json:"reason,omitempty"`
	Status   *string `json:"status,omitempty"`
}

// BookSlotRequest is the booking-form shape: a calendar date plus one
// of the half-hour template slots.
type BookSlotRequest struct {
	DoctorID string `json:"doctorId"`
	Date     string `json:"date"`
	Slot     string `json:"slot"`
	Reason   string `json:"reason"`
}

type AvailabilityResponse struct {
	DoctorID string   `json:"doctorId"`
	Date     string   `json:"date"`
	Slots    []string `json:"slots"`
}

// ConflictResponse is returned with 409 when a slot was taken between
// the availability check and the booking write; it carries the
// refreshed slot list so the client can retry without another round
// trip.
type ConflictResponse struct {
	Error          bool     `json:"error"`
	Message        string   `json:"message"`
	AvailableSlots []string `json:"available_slots"`
}
