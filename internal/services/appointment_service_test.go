package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"clinicbook/internal/dto"
	"clinicbook/internal/models"
	"clinicbook/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAppointmentFixture() *AppointmentService {
	return NewAppointmentService(store.NewMemoryAppointmentStore(), nil)
}

func createReq(patientID, doctorID, dateTime string) *dto.CreateAppointmentRequest {
	return &dto.CreateAppointmentRequest{
		PatientID: patientID,
		DoctorID:  doctorID,
		DateTime:  dateTime,
		Reason:    "checkup",
	}
}

func TestCreateAppointment(t *testing.T) {
	svc := newAppointmentFixture()

	appt, err := svc.Create(context.Background(), createReq("pat-1", "doc-1", "2025-03-11T09:00:00.000Z"))
	require.NoError(t, err)

	assert.NotEqual(t, "", appt.ID.String())
	assert.Equal(t, "pat-1", appt.PatientID)
	assert.Equal(t, "doc-1", appt.DoctorID)
	assert.Equal(t, models.StatusScheduled, appt.Status)
	assert.False(t, appt.CreatedAt.IsZero())
}

func TestCreateAppointment_MissingFields(t *testing.T) {
	svc := newAppointmentFixture()

	cases := []*dto.CreateAppointmentRequest{
		createReq("", "doc-1", "2025-03-11T09:00:00.000Z"),
		createReq("pat-1", "", "2025-03-11T09:00:00.000Z"),
		createReq("pat-1", "doc-1", ""),
	}
	for _, req := range cases {
		_, err := svc.Create(context.Background(), req)
		assert.ErrorIs(t, err, ErrMissingFields)
	}
}

func TestCreateAppointment_InvalidStatus(t *testing.T) {
	svc := newAppointmentFixture()

	req := createReq("pat-1", "doc-1", "2025-03-11T09:00:00.000Z")
	req.Status = "Pending"
	_, err := svc.Create(context.Background(), req)
	assert.ErrorIs(t, err, ErrInvalidStatus)
}

func TestCreateAppointment_Conflict(t *testing.T) {
	svc := newAppointmentFixture()
	ctx := context.Background()

	_, err := svc.Create(ctx, createReq("pat-1", "doc-1", "2025-03-11T09:00:00.000Z"))
	require.NoError(t, err)

	// Same doctor, same exact dateTime: rejected regardless of patient.
	_, err = svc.Create(ctx, createReq("pat-2", "doc-1", "2025-03-11T09:00:00.000Z"))
	assert.ErrorIs(t, err, ErrSlotTaken)

	// Different slot is fine.
	_, err = svc.Create(ctx, createReq("pat-2", "doc-1", "2025-03-11T09:30:00.000Z"))
	assert.NoError(t, err)

	// Same slot with another doctor is fine too.
	_, err = svc.Create(ctx, createReq("pat-2", "doc-2", "2025-03-11T09:00:00.000Z"))
	assert.NoError(t, err)
}

func TestCreateAppointment_CancelledDoesNotBlock(t *testing.T) {
	svc := newAppointmentFixture()
	ctx := context.Background()

	appt, err := svc.Create(ctx, createReq("pat-1", "doc-1", "2025-03-11T09:00:00.000Z"))
	require.NoError(t, err)

	_, err = svc.Cancel(ctx, appt.ID.String())
	require.NoError(t, err)

	_, err = svc.Create(ctx, createReq("pat-2", "doc-1", "2025-03-11T09:00:00.000Z"))
	assert.NoError(t, err)
}

func TestCreateAppointment_ConcurrentSameSlot(t *testing.T) {
	svc := newAppointmentFixture()

	const attempts = 20
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		conflicts int
	)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Create(context.Background(), createReq("pat-1", "doc-1", "2025-03-11T09:00:00.000Z"))
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case err == ErrSlotTaken:
				conflicts++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded, "exactly one booking should win the slot")
	assert.Equal(t, attempts-1, conflicts)
}

func TestListForUser(t *testing.T) {
	svc := newAppointmentFixture()
	ctx := context.Background()

	_, err := svc.Create(ctx, createReq("pat-1", "doc-1", "2025-03-11T09:00:00.000Z"))
	require.NoError(t, err)
	_, err = svc.Create(ctx, createReq("pat-1", "doc-2", "2025-03-12T10:00:00.000Z"))
	require.NoError(t, err)
	_, err = svc.Create(ctx, createReq("pat-2", "doc-1", "2025-03-10T11:00:00.000Z"))
	require.NoError(t, err)

	patientAppts, err := svc.ListForUser(ctx, "pat-1", models.RolePatient)
	require.NoError(t, err)
	require.Len(t, patientAppts, 2)
	// Most recent dateTime first.
	assert.Equal(t, "2025-03-12T10:00:00.000Z", patientAppts[0].DateTime)
	assert.Equal(t, "2025-03-11T09:00:00.000Z", patientAppts[1].DateTime)

	doctorAppts, err := svc.ListForUser(ctx, "doc-1", models.RoleDoctor)
	require.NoError(t, err)
	assert.Len(t, doctorAppts, 2)

	_, err = svc.ListForUser(ctx, "pat-1", "admin")
	assert.ErrorIs(t, err, ErrInvalidRole)
}

func TestListForUser_UnparsableDateTimesKeepOrder(t *testing.T) {
	svc := newAppointmentFixture()
	ctx := context.Background()

	_, err := svc.Create(ctx, createReq("pat-1", "doc-1", "garbage-a"))
	require.NoError(t, err)
	_, err = svc.Create(ctx, createReq("pat-1", "doc-1", "garbage-b"))
	require.NoError(t, err)

	appts, err := svc.ListForUser(ctx, "pat-1", models.RolePatient)
	require.NoError(t, err)
	assert.Len(t, appts, 2)
}

func TestUpdateAppointment(t *testing.T) {
	svc := newAppointmentFixture()
	ctx := context.Background()

	appt, err := svc.Create(ctx, createReq("pat-1", "doc-1", "2025-03-11T09:00:00.000Z"))
	require.NoError(t, err)
	created := appt.UpdatedAt

	time.Sleep(5 * time.Millisecond)

	newTime := "2025-03-11T13:00:00.000Z"
	newReason := "follow-up"
	updated, err := svc.Update(ctx, appt.ID.String(), &dto.UpdateAppointmentRequest{
		DateTime: &newTime,
		Reason:   &newReason,
	})
	require.NoError(t, err)

	assert.Equal(t, newTime, updated.DateTime)
	assert.Equal(t, newReason, updated.Reason)
	// Untouched fields survive the patch.
	assert.Equal(t, models.StatusScheduled, updated.Status)
	assert.Equal(t, "pat-1", updated.PatientID)
	assert.True(t, updated.UpdatedAt.After(created))
}

func TestUpdateAppointment_InvalidStatus(t *testing.T) {
	svc := newAppointmentFixture()
	ctx := context.Background()

	appt, err := svc.Create(ctx, createReq("pat-1", "doc-1", "2025-03-11T09:00:00.000Z"))
	require.NoError(t, err)

	bad := "NoShow"
	_, err = svc.Update(ctx, appt.ID.String(), &dto.UpdateAppointmentRequest{Status: &bad})
	assert.ErrorIs(t, err, ErrInvalidStatus)
}

func TestUpdateAppointment_NotFound(t *testing.T) {
	svc := newAppointmentFixture()

	reason := "x"
	_, err := svc.Update(context.Background(), "3e0c45a1-9d3b-4a88-9a3e-000000000000", &dto.UpdateAppointmentRequest{Reason: &reason})
	assert.ErrorIs(t, err, ErrAppointmentNotFound)
}

func TestCancelAppointment_Idempotent(t *testing.T) {
	svc := newAppointmentFixture()
	ctx := context.Background()

	appt, err := svc.Create(ctx, createReq("pat-1", "doc-1", "2025-03-11T09:00:00.000Z"))
	require.NoError(t, err)

	first, err := svc.Cancel(ctx, appt.ID.String())
	require.NoError(t, err)
	assert.Equal(t, models.StatusCancelled, first.Status)

	second, err := svc.Cancel(ctx, appt.ID.String())
	require.NoError(t, err)
	assert.Equal(t, models.StatusCancelled, second.Status)

	// The record is still listed; cancellation is not deletion.
	appts, err := svc.ListForUser(ctx, "pat-1", models.RolePatient)
	require.NoError(t, err)
	assert.Len(t, appts, 1)
}

func TestDeleteAppointment(t *testing.T) {
	svc := newAppointmentFixture()
	ctx := context.Background()

	appt, err := svc.Create(ctx, createReq("pat-1", "doc-1", "2025-03-11T09:00:00.000Z"))
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, appt.ID.String()))

	appts, err := svc.ListForUser(ctx, "pat-1", models.RolePatient)
	require.NoError(t, err)
	assert.Empty(t, appts)

	assert.ErrorIs(t, svc.Delete(ctx, appt.ID.String()), ErrAppointmentNotFound)
}
