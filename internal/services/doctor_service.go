package services

import (
	"context"
	"errors"

	"clinicbook/internal/dto"
	"clinicbook/internal/models"
	"clinicbook/internal/store"

	"github.com/google/uuid"
)

var ErrDoctorNotFound = errors.New("doctor not found")

type DoctorService struct {
	users store.UserStore
}

func NewDoctorService(users store.UserStore) *DoctorService {
	return &DoctorService{users: users}
}

// ListDoctors returns every doctor account, secret fields stripped.
func (s *DoctorService) ListDoctors(ctx context.Context) ([]dto.UserResponse, error) {
	doctors, err := s.users.ListByRole(ctx, models.RoleDoctor)
	if err != nil {
		return nil, err
	}
	out := make([]dto.UserResponse, 0, len(doctors))
	for i := range doctors {
		out = append(out, *toUserResponse(&doctors[i]))
	}
	return out, nil
}

// DoctorByID returns the doctor with this id, or ErrDoctorNotFound when
// the id is unknown, malformed, or belongs to a non-doctor account.
func (s *DoctorService) DoctorByID(ctx context.Context, id string) (*dto.UserResponse, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, ErrDoctorNotFound
	}
	user, err := s.users.ByID(ctx, uid)
	if err != nil || user.Role != models.RoleDoctor {
		return nil, ErrDoctorNotFound
	}
	return toUserResponse(user), nil
}
