package store

import (
	"context"
	"errors"

	"clinicbook/internal/models"

	"github.com/google/uuid"
)

// ErrNotFound is returned by every implementation when a lookup misses,
// so callers never depend on driver-specific errors.
var ErrNotFound = errors.New("record not found")

// UserStore holds registered accounts keyed by id.
type UserStore interface {
	Create(ctx context.Context, u *models.User) error
	ByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	ByUsername(ctx context.Context, username string) (*models.User, error)
	ListByRole(ctx context.Context, role string) ([]models.User, error)
	Update(ctx context.Context, u *models.User) error
}

// AppointmentStore holds all appointments as a flat collection.
//
// DateTime values are raw ISO-8601 strings: ExistsActiveAt matches them
// byte for byte, ListScheduledForDoctorDate matches by date prefix.
type AppointmentStore interface {
	Create(ctx context.Context, a *models.Appointment) error
	ByID(ctx context.Context, id string) (*models.Appointment, error)
	ListByPatient(ctx context.Context, patientID string) ([]models.Appointment, error)
	ListByDoctor(ctx context.Context, doctorID string) ([]models.Appointment, error)
	// ListScheduledForDoctorDate returns Scheduled appointments for the
	// doctor whose dateTime string starts with date (YYYY-MM-DD).
	ListScheduledForDoctorDate(ctx context.Context, doctorID, date string) ([]models.Appointment, error)
	// ExistsActiveAt reports whether a non-Cancelled appointment exists
	// for the doctor at exactly this dateTime string.
	ExistsActiveAt(ctx context.Context, doctorID, dateTime string) (bool, error)
	Save(ctx context.Context, a *models.Appointment) error
	Delete(ctx context.Context, id string) error
}

// RefreshTokenStore holds opaque refresh tokens by hash.
type RefreshTokenStore interface {
	Create(ctx context.Context, rt *models.RefreshToken) error
	ByHash(ctx context.Context, tokenHash string) (*models.RefreshToken, error)
	Revoke(ctx context.Context, id uuid.UUID) error
	RevokeByHash(ctx context.Context, tokenHash string) error
	PurgeExpired(ctx context.Context) (int64, error)
}
