package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User roles. Role is fixed at registration but editable through the
// profile endpoint; appointments referencing the old role are not
// re-validated (known data-integrity gap, surfaced via warning log).
const (
	RolePatient = "patient"
	RoleDoctor  = "doctor"
)

func ValidRole(role string) bool {
	return role == RolePatient || role == RoleDoctor
}

// User is a registered account, patient or doctor. Username is the
// login identifier and is email-shaped by convention.
type User struct {
	ID        uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Username  string         `gorm:"not null;size:255;uniqueIndex" json:"username"`
	Password  string         `gorm:"not null" json:"-"`
	Name      string         `gorm:"size:255" json:"name"`
	Role      string         `gorm:"size:20;not null" json:"role"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}
