package handlers_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"clinicbook/internal/config"
	"clinicbook/internal/dto"
	"clinicbook/internal/handlers"
	"clinicbook/internal/models"
	"clinicbook/internal/routes"
	"clinicbook/internal/services"
	"clinicbook/internal/store"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestApp(t *testing.T) *fiber.App {
	t.Helper()

	cfg := &config.Config{
		StoreDriver:      "memory",
		JWTSecret:        "test-secret",
		JWTAccessExpiry:  15 * time.Minute,
		JWTRefreshExpiry: 24 * time.Hour,
		CORSOrigins:      "*",
	}

	users := store.NewMemoryUserStore()
	appts := store.NewMemoryAppointmentStore()
	tokens := store.NewMemoryRefreshTokenStore()

	authService := services.NewAuthService(users, tokens, cfg)
	doctorService := services.NewDoctorService(users)
	availabilityService := services.NewAvailabilityService(appts, nil)
	appointmentService := services.NewAppointmentService(appts, nil)

	app := fiber.New()
	routes.Setup(app, cfg,
		handlers.NewAuthHandler(authService),
		handlers.NewDoctorHandler(doctorService),
		handlers.NewAvailabilityHandler(availabilityService),
		handlers.NewAppointmentHandler(appointmentService, availabilityService),
		handlers.NewHealthHandler(cfg.StoreDriver),
	)
	return app
}

func doJSON(t *testing.T, app *fiber.App, method, path, token string, body any) *http.Response {
	t.Helper()

	var buf io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		buf = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func register(t *testing.T, app *fiber.App, username, role string) dto.UserResponse {
	t.Helper()
	resp := doJSON(t, app, http.MethodPost, "/api/auth/register", "", dto.RegisterRequest{
		Username: username,
		Password: "secret1",
		Name:     "Test User",
		Role:     role,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	return decode[dto.UserResponse](t, resp)
}

func login(t *testing.T, app *fiber.App, username, role string) dto.AuthResponse {
	t.Helper()
	resp := doJSON(t, app, http.MethodPost, "/api/auth/login", "", dto.LoginRequest{
		Username: username,
		Password: "secret1",
		Role:     role,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	return decode[dto.AuthResponse](t, resp)
}

func TestAPI_Health(t *testing.T) {
	app := newTestApp(t)

	resp := doJSON(t, app, http.MethodGet, "/api/health", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	health := decode[dto.HealthResponse](t, resp)
	assert.Equal(t, "ok", health.Status)
}

func TestAPI_AuthFlow(t *testing.T) {
	app := newTestApp(t)

	register(t, app, "patient1@test.com", models.RolePatient)

	// Duplicate username.
	resp := doJSON(t, app, http.MethodPost, "/api/auth/register", "", dto.RegisterRequest{
		Username: "patient1@test.com", Password: "secret1", Name: "X", Role: models.RolePatient,
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	// Wrong role is a 401, same as bad credentials.
	resp = doJSON(t, app, http.MethodPost, "/api/auth/login", "", dto.LoginRequest{
		Username: "patient1@test.com", Password: "secret1", Role: models.RoleDoctor,
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	auth := login(t, app, "patient1@test.com", models.RolePatient)

	resp = doJSON(t, app, http.MethodGet, "/api/auth/me", auth.AccessToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	me := decode[dto.UserResponse](t, resp)
	assert.Equal(t, "patient1@test.com", me.Username)
}

func TestAPI_ProtectedRoutesRequireToken(t *testing.T) {
	app := newTestApp(t)

	resp := doJSON(t, app, http.MethodGet, "/api/doctors", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = doJSON(t, app, http.MethodGet, "/api/doctors", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestAPI_DoctorsAndAvailability(t *testing.T) {
	app := newTestApp(t)

	doctor := register(t, app, "doctor1@test.com", models.RoleDoctor)
	register(t, app, "patient1@test.com", models.RolePatient)
	auth := login(t, app, "patient1@test.com", models.RolePatient)

	resp := doJSON(t, app, http.MethodGet, "/api/doctors", auth.AccessToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	doctors := decode[[]dto.UserResponse](t, resp)
	require.Len(t, doctors, 1)
	assert.Equal(t, doctor.ID, doctors[0].ID)

	resp = doJSON(t, app, http.MethodGet, "/api/doctors/"+doctor.ID.String(), auth.AccessToken, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = doJSON(t, app, http.MethodGet, "/api/doctors/"+patientLikeUUID, auth.AccessToken, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	// Tuesday: full template. Saturday: nothing.
	resp = doJSON(t, app, http.MethodGet, "/api/availability?doctorId="+doctor.ID.String()+"&date=2025-03-11", auth.AccessToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	avail := decode[dto.AvailabilityResponse](t, resp)
	assert.Equal(t, services.SlotTemplate, avail.Slots)

	resp = doJSON(t, app, http.MethodGet, "/api/availability?doctorId="+doctor.ID.String()+"&date=2025-03-08", auth.AccessToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	avail = decode[dto.AvailabilityResponse](t, resp)
	assert.Empty(t, avail.Slots)
}

const patientLikeUUID = "3e0c45a1-9d3b-4a88-9a3e-000000000000"

func TestAPI_AppointmentLifecycle(t *testing.T) {
	app := newTestApp(t)

	doctor := register(t, app, "doctor1@test.com", models.RoleDoctor)
	register(t, app, "patient1@test.com", models.RolePatient)
	auth := login(t, app, "patient1@test.com", models.RolePatient)

	// Create without patientId: defaults to the token subject.
	resp := doJSON(t, app, http.MethodPost, "/api/appointments", auth.AccessToken, dto.CreateAppointmentRequest{
		DoctorID: doctor.ID.String(),
		DateTime: "2025-03-11T09:00:00.000Z",
		Reason:   "checkup",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	appt := decode[models.Appointment](t, resp)
	assert.Equal(t, auth.User.ID.String(), appt.PatientID)
	assert.Equal(t, models.StatusScheduled, appt.Status)

	// Same slot again: 409 with the refreshed free slots.
	resp = doJSON(t, app, http.MethodPost, "/api/appointments", auth.AccessToken, dto.CreateAppointmentRequest{
		DoctorID: doctor.ID.String(),
		DateTime: "2025-03-11T09:00:00.000Z",
	})
	require.Equal(t, http.StatusConflict, resp.StatusCode)
	conflict := decode[dto.ConflictResponse](t, resp)
	assert.True(t, conflict.Error)
	assert.NotContains(t, conflict.AvailableSlots, "09:00")
	assert.Contains(t, conflict.AvailableSlots, "09:30")

	// List for the patient.
	resp = doJSON(t, app, http.MethodGet, "/api/appointments", auth.AccessToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	list := decode[[]models.Appointment](t, resp)
	require.Len(t, list, 1)

	// Cancel, then the slot frees up.
	resp = doJSON(t, app, http.MethodPost, "/api/appointments/"+appt.ID.String()+"/cancel", auth.AccessToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	cancelled := decode[models.Appointment](t, resp)
	assert.Equal(t, models.StatusCancelled, cancelled.Status)

	resp = doJSON(t, app, http.MethodGet, "/api/availability?doctorId="+doctor.ID.String()+"&date=2025-03-11", auth.AccessToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	avail := decode[dto.AvailabilityResponse](t, resp)
	assert.Contains(t, avail.Slots, "09:00")

	// Unknown appointment.
	resp = doJSON(t, app, http.MethodPost, "/api/appointments/"+patientLikeUUID+"/cancel", auth.AccessToken, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAPI_BookingFlowEndpoint(t *testing.T) {
	app := newTestApp(t)

	doctor := register(t, app, "doctor1@test.com", models.RoleDoctor)
	register(t, app, "patient1@test.com", models.RolePatient)
	auth := login(t, app, "patient1@test.com", models.RolePatient)

	resp := doJSON(t, app, http.MethodPost, "/api/bookings", auth.AccessToken, dto.BookSlotRequest{
		DoctorID: doctor.ID.String(),
		Date:     "2025-03-11",
		Slot:     "13:00",
		Reason:   "follow-up",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	appt := decode[models.Appointment](t, resp)
	assert.Equal(t, "2025-03-11T13:00:00.000Z", appt.DateTime)

	// The slot is no longer offered, so a second attempt is rejected
	// before submit with the remaining slots attached.
	resp = doJSON(t, app, http.MethodPost, "/api/bookings", auth.AccessToken, dto.BookSlotRequest{
		DoctorID: doctor.ID.String(),
		Date:     "2025-03-11",
		Slot:     "13:00",
	})
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	conflict := decode[dto.ConflictResponse](t, resp)
	assert.NotContains(t, conflict.AvailableSlots, "13:00")

	// Weekends offer no slots at all.
	resp = doJSON(t, app, http.MethodPost, "/api/bookings", auth.AccessToken, dto.BookSlotRequest{
		DoctorID: doctor.ID.String(),
		Date:     "2025-03-08",
		Slot:     "09:00",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}

func TestAPI_UpdateProfile(t *testing.T) {
	app := newTestApp(t)

	register(t, app, "patient1@test.com", models.RolePatient)
	auth := login(t, app, "patient1@test.com", models.RolePatient)

	resp := doJSON(t, app, http.MethodPut, "/api/users/me", auth.AccessToken, dto.UpdateProfileRequest{
		Name:     "New Name",
		Username: "patient1@test.com",
		Role:     models.RolePatient,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	user := decode[dto.UserResponse](t, resp)
	assert.Equal(t, "New Name", user.Name)
}
