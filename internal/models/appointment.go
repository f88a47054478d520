package models

import (
	"time"

	"github.com/google/uuid"
)

// Appointment statuses. Completed exists in the lifecycle but nothing
// sets it automatically.
const (
	StatusScheduled = "Scheduled"
	StatusCancelled = "Cancelled"
	StatusCompleted = "Completed"
)

// Appointment links a patient and a doctor to a half-hour slot.
// PatientID and DoctorID are weak references to users; DateTime is kept
// as the raw ISO-8601 string so slot conflicts are exact string equality
// and date filtering is prefix matching.
type Appointment struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	PatientID string    `gorm:"size:36;not null;index" json:"patientId"`
	DoctorID  string    `gorm:"size:36;not null;index" json:"doctorId"`
	DateTime  string    `gorm:"size:64;not null;index" json:"dateTime"`
	Reason    string    `gorm:"size:500" json:"reason,omitempty"`
	Status    string    `gorm:"size:20;not null;default:'Scheduled'" json:"status"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
