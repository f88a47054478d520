package routes

import (
	"time"

	"clinicbook/internal/config"
	"clinicbook/internal/handlers"
	"clinicbook/internal/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
)

func Setup(
	app *fiber.App,
	cfg *config.Config,
	authHandler *handlers.AuthHandler,
	doctorHandler *handlers.DoctorHandler,
	availabilityHandler *handlers.AvailabilityHandler,
	appointmentHandler *handlers.AppointmentHandler,
	healthHandler *handlers.HealthHandler,
) {
	api := app.Group("/api")

	// General API rate limiter: 60 req/min per IP
	api.Use(limiter.New(limiter.Config{
		Max:               60,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	}))

	api.Get("/health", healthHandler.Check)

	// Public auth endpoints get a stricter limit: 10 req/min per IP
	auth := api.Group("/auth")
	auth.Use(limiter.New(limiter.Config{
		Max:               10,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	}))
	auth.Post("/register", authHandler.Register)
	auth.Post("/login", authHandler.Login)
	auth.Post("/refresh", authHandler.Refresh)

	// Session endpoints (JWT required)
	api.Post("/auth/logout", middleware.JWTProtected(cfg), authHandler.Logout)
	api.Get("/auth/me", middleware.JWTProtected(cfg), authHandler.Me)
	api.Put("/users/me", middleware.JWTProtected(cfg), authHandler.UpdateProfile)

	// Everything below requires a session.
	protected := api.Group("", middleware.JWTProtected(cfg))

	protected.Get("/doctors", doctorHandler.List)
	protected.Get("/doctors/:id", doctorHandler.Get)

	protected.Get("/availability", availabilityHandler.Get)

	protected.Post("/appointments", appointmentHandler.Create)
	protected.Get("/appointments", appointmentHandler.List)
	protected.Patch("/appointments/:id", appointmentHandler.Update)
	protected.Post("/appointments/:id/cancel", appointmentHandler.Cancel)
	protected.Delete("/appointments/:id", appointmentHandler.Delete)

	// Booking-form flow: date + slot instead of a raw dateTime.
	protected.Post("/bookings", appointmentHandler.BookSlot)
}
