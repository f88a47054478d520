package store

import (
	"context"
	"errors"
	"time"

	"clinicbook/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormUserStore implements UserStore on a users table.
type GormUserStore struct {
	db *gorm.DB
}

func NewGormUserStore(db *gorm.DB) *GormUserStore {
	return &GormUserStore{db: db}
}

func (s *GormUserStore) Create(ctx context.Context, u *models.User) error {
	return s.db.WithContext(ctx).Create(u).Error
}

func (s *GormUserStore) ByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var u models.User
	if err := s.db.WithContext(ctx).First(&u, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

func (s *GormUserStore) ByUsername(ctx context.Context, username string) (*models.User, error) {
	var u models.User
	if err := s.db.WithContext(ctx).Where("username = ?", username).First(&u).Error; err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

func (s *GormUserStore) ListByRole(ctx context.Context, role string) ([]models.User, error) {
	var users []models.User
	err := s.db.WithContext(ctx).Where("role = ?", role).Order("name").Find(&users).Error
	return users, err
}

func (s *GormUserStore) Update(ctx context.Context, u *models.User) error {
	return s.db.WithContext(ctx).Save(u).Error
}

// GormAppointmentStore implements AppointmentStore on an appointments table.
type GormAppointmentStore struct {
	db *gorm.DB
}

func NewGormAppointmentStore(db *gorm.DB) *GormAppointmentStore {
	return &GormAppointmentStore{db: db}
}

func (s *GormAppointmentStore) Create(ctx context.Context, a *models.Appointment) error {
	return s.db.WithContext(ctx).Create(a).Error
}

func (s *GormAppointmentStore) ByID(ctx context.Context, id string) (*models.Appointment, error) {
	aid, err := uuid.Parse(id)
	if err != nil {
		return nil, ErrNotFound
	}
	var a models.Appointment
	if err := s.db.WithContext(ctx).First(&a, "id = ?", aid).Error; err != nil {
		return nil, translate(err)
	}
	return &a, nil
}

func (s *GormAppointmentStore) ListByPatient(ctx context.Context, patientID string) ([]models.Appointment, error) {
	var out []models.Appointment
	err := s.db.WithContext(ctx).Where("patient_id = ?", patientID).Find(&out).Error
	return out, err
}

func (s *GormAppointmentStore) ListByDoctor(ctx context.Context, doctorID string) ([]models.Appointment, error) {
	var out []models.Appointment
	err := s.db.WithContext(ctx).Where("doctor_id = ?", doctorID).Find(&out).Error
	return out, err
}

func (s *GormAppointmentStore) ListScheduledForDoctorDate(ctx context.Context, doctorID, date string) ([]models.Appointment, error) {
	var out []models.Appointment
	err := s.db.WithContext(ctx).
		Where("doctor_id = ? AND status = ? AND date_time LIKE ?", doctorID, models.StatusScheduled, date+"%").
		Find(&out).Error
	return out, err
}

func (s *GormAppointmentStore) ExistsActiveAt(ctx context.Context, doctorID, dateTime string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Appointment{}).
		Where("doctor_id = ? AND date_time = ? AND status <> ?", doctorID, dateTime, models.StatusCancelled).
		Count(&count).Error
	return count > 0, err
}

func (s *GormAppointmentStore) Save(ctx context.Context, a *models.Appointment) error {
	a.UpdatedAt = time.Now().UTC()
	return s.db.WithContext(ctx).Save(a).Error
}

func (s *GormAppointmentStore) Delete(ctx context.Context, id string) error {
	aid, err := uuid.Parse(id)
	if err != nil {
		return ErrNotFound
	}
	res := s.db.WithContext(ctx).Delete(&models.Appointment{}, "id = ?", aid)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// GormRefreshTokenStore implements RefreshTokenStore on a refresh_tokens table.
type GormRefreshTokenStore struct {
	db *gorm.DB
}

func NewGormRefreshTokenStore(db *gorm.DB) *GormRefreshTokenStore {
	return &GormRefreshTokenStore{db: db}
}

func (s *GormRefreshTokenStore) Create(ctx context.Context, rt *models.RefreshToken) error {
	return s.db.WithContext(ctx).Create(rt).Error
}

func (s *GormRefreshTokenStore) ByHash(ctx context.Context, tokenHash string) (*models.RefreshToken, error) {
	var rt models.RefreshToken
	if err := s.db.WithContext(ctx).Where("token_hash = ?", tokenHash).First(&rt).Error; err != nil {
		return nil, translate(err)
	}
	return &rt, nil
}

func (s *GormRefreshTokenStore) Revoke(ctx context.Context, id uuid.UUID) error {
	return s.db.WithContext(ctx).Model(&models.RefreshToken{}).
		Where("id = ?", id).Update("revoked", true).Error
}

func (s *GormRefreshTokenStore) RevokeByHash(ctx context.Context, tokenHash string) error {
	return s.db.WithContext(ctx).Model(&models.RefreshToken{}).
		Where("token_hash = ?", tokenHash).Update("revoked", true).Error
}

func (s *GormRefreshTokenStore) PurgeExpired(ctx context.Context) (int64, error) {
	res := s.db.WithContext(ctx).
		Where("expires_at < ? OR revoked = true", time.Now()).
		Delete(&models.RefreshToken{})
	return res.RowsAffected, res.Error
}

func translate(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
