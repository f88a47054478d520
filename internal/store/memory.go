package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"clinicbook/internal/models"

	"github.com/google/uuid"
)

// MemoryUserStore is an in-memory UserStore for local development and
// tests. Values are copied on the way in and out so callers never share
// state with the store.
type MemoryUserStore struct {
	mu    sync.RWMutex
	users map[uuid.UUID]models.User
}

func NewMemoryUserStore() *MemoryUserStore {
	return &MemoryUserStore{users: make(map[uuid.UUID]models.User)}
}

func (s *MemoryUserStore) Create(_ context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now
	s.users[u.ID] = *u
	return nil
}

func (s *MemoryUserStore) ByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &u, nil
}

func (s *MemoryUserStore) ByUsername(_ context.Context, username string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.Username == username {
			out := u
			return &out, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryUserStore) ListByRole(_ context.Context, role string) ([]models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.User
	for _, u := range s.users {
		if u.Role == role {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *MemoryUserStore) Update(_ context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[u.ID]; !ok {
		return ErrNotFound
	}
	u.UpdatedAt = time.Now().UTC()
	s.users[u.ID] = *u
	return nil
}

// MemoryAppointmentStore is an in-memory AppointmentStore.
type MemoryAppointmentStore struct {
	mu    sync.RWMutex
	appts map[uuid.UUID]models.Appointment
}

func NewMemoryAppointmentStore() *MemoryAppointmentStore {
	return &MemoryAppointmentStore{appts: make(map[uuid.UUID]models.Appointment)}
}

func (s *MemoryAppointmentStore) Create(_ context.Context, a *models.Appointment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	a.CreatedAt = now
	a.UpdatedAt = now
	s.appts[a.ID] = *a
	return nil
}

func (s *MemoryAppointmentStore) ByID(_ context.Context, id string) (*models.Appointment, error) {
	aid, err := uuid.Parse(id)
	if err != nil {
		return nil, ErrNotFound
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.appts[aid]
	if !ok {
		return nil, ErrNotFound
	}
	return &a, nil
}

func (s *MemoryAppointmentStore) ListByPatient(_ context.Context, patientID string) ([]models.Appointment, error) {
	return s.filter(func(a models.Appointment) bool { return a.PatientID == patientID }), nil
}

func (s *MemoryAppointmentStore) ListByDoctor(_ context.Context, doctorID string) ([]models.Appointment, error) {
	return s.filter(func(a models.Appointment) bool { return a.DoctorID == doctorID }), nil
}

func (s *MemoryAppointmentStore) ListScheduledForDoctorDate(_ context.Context, doctorID, date string) ([]models.Appointment, error) {
	return s.filter(func(a models.Appointment) bool {
		return a.DoctorID == doctorID &&
			a.Status == models.StatusScheduled &&
			strings.HasPrefix(a.DateTime, date)
	}), nil
}

func (s *MemoryAppointmentStore) ExistsActiveAt(_ context.Context, doctorID, dateTime string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, a := range s.appts {
		if a.DoctorID == doctorID && a.DateTime == dateTime && a.Status != models.StatusCancelled {
			return true, nil
		}
	}
	return false, nil
}

func (s *MemoryAppointmentStore) Save(_ context.Context, a *models.Appointment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.appts[a.ID]; !ok {
		return ErrNotFound
	}
	a.UpdatedAt = time.Now().UTC()
	s.appts[a.ID] = *a
	return nil
}

func (s *MemoryAppointmentStore) Delete(_ context.Context, id string) error {
	aid, err := uuid.Parse(id)
	if err != nil {
		return ErrNotFound
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.appts[aid]; !ok {
		return ErrNotFound
	}
	delete(s.appts, aid)
	return nil
}

func (s *MemoryAppointmentStore) filter(keep func(models.Appointment) bool) []models.Appointment {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Appointment
	for _, a := range s.appts {
		if keep(a) {
			out = append(out, a)
		}
	}
	return out
}

// MemoryRefreshTokenStore is an in-memory RefreshTokenStore.
type MemoryRefreshTokenStore struct {
	mu     sync.RWMutex
	tokens map[uuid.UUID]models.RefreshToken
}

func NewMemoryRefreshTokenStore() *MemoryRefreshTokenStore {
	return &MemoryRefreshTokenStore{tokens: make(map[uuid.UUID]models.RefreshToken)}
}

func (s *MemoryRefreshTokenStore) Create(_ context.Context, rt *models.RefreshToken) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rt.CreatedAt = time.Now().UTC()
	s.tokens[rt.ID] = *rt
	return nil
}

func (s *MemoryRefreshTokenStore) ByHash(_ context.Context, tokenHash string) (*models.RefreshToken, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, rt := range s.tokens {
		if rt.TokenHash == tokenHash {
			out := rt
			return &out, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryRefreshTokenStore) Revoke(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rt, ok := s.tokens[id]
	if !ok {
		return ErrNotFound
	}
	rt.Revoked = true
	s.tokens[id] = rt
	return nil
}

func (s *MemoryRefreshTokenStore) RevokeByHash(_ context.Context, tokenHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, rt := range s.tokens {
		if rt.TokenHash == tokenHash {
			rt.Revoked = true
			s.tokens[id] = rt
		}
	}
	return nil
}

func (s *MemoryRefreshTokenStore) PurgeExpired(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var purged int64
	now := time.Now()
	for id, rt := range s.tokens {
		if rt.Revoked || rt.ExpiresAt.Before(now) {
			delete(s.tokens, id)
			purged++
		}
	}
	return purged, nil
}
