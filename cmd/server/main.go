package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	sentryfiber "github.com/getsentry/sentry-go/fiber"
	"github.com/joho/godotenv"

	"clinicbook/internal/cache"
	"clinicbook/internal/config"
	"clinicbook/internal/database"
	"clinicbook/internal/dto"
	"clinicbook/internal/handlers"
	"clinicbook/internal/jobs"
	"clinicbook/internal/logging"
	"clinicbook/internal/middleware"
	"clinicbook/internal/models"
	"clinicbook/internal/routes"
	"clinicbook/internal/services"
	"clinicbook/internal/store"

	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
)

func main() {
	_ = godotenv.Load()

	// Structured logging (JSON to stdout)
	logging.Setup()

	cfg := config.Load()

	if cfg.JWTSecret == "" {
		slog.Error("JWT_SECRET environment variable is required")
		os.Exit(1)
	}

	// Stores
	var (
		userStore  store.UserStore
		apptStore  store.AppointmentStore
		tokenStore store.RefreshTokenStore
	)

	var pgLogHandler *logging.PGHandler
	cleanupDone := make(chan struct{})

	switch cfg.StoreDriver {
	case "memory":
		slog.Warn("using in-memory store; data will not survive a restart")
		userStore = store.NewMemoryUserStore()
		apptStore = store.NewMemoryAppointmentStore()
		tokenStore = store.NewMemoryRefreshTokenStore()
	case "postgres":
		if err := database.Connect(cfg); err != nil {
			slog.Error("database connection failed", "error", err)
			os.Exit(1)
		}
		if err := database.Migrate(); err != nil {
			slog.Error("migration failed", "error", err)
			os.Exit(1)
		}

		// PostgreSQL log handler (ERROR+ async batch)
		pgLogHandler = logging.NewPGHandler(database.DB)
		slog.SetDefault(slog.New(logging.NewMultiHandler(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
			pgLogHandler,
		)))

		// Log cleanup (30-day retention)
		logging.StartCleanup(database.DB, cleanupDone)

		userStore = store.NewGormUserStore(database.DB)
		apptStore = store.NewGormAppointmentStore(database.DB)
		tokenStore = store.NewGormRefreshTokenStore(database.DB)
	default:
		slog.Error("unknown STORE_DRIVER", "driver", cfg.StoreDriver)
		os.Exit(1)
	}

	// Availability cache (no-op when REDIS_ADDR is unset)
	slotCache := cache.New(cfg.RedisAddr, cfg.RedisPassword, cfg.AvailCacheTTL)
	if slotCache != nil {
		slog.Info("availability cache enabled", "addr", cfg.RedisAddr, "ttl", cfg.AvailCacheTTL)
	}

	// Services
	authService := services.NewAuthService(userStore, tokenStore, cfg)
	doctorService := services.NewDoctorService(userStore)
	availabilityService := services.NewAvailabilityService(apptStore, slotCache)
	appointmentService := services.NewAppointmentService(apptStore, slotCache)

	if cfg.SeedDemoData {
		seedDemoUsers(authService)
	}

	// Handlers
	authHandler := handlers.NewAuthHandler(authService)
	doctorHandler := handlers.NewDoctorHandler(doctorService)
	availabilityHandler := handlers.NewAvailabilityHandler(availabilityService)
	appointmentHandler := handlers.NewAppointmentHandler(appointmentService, availabilityService)
	healthHandler := handlers.NewHealthHandler(cfg.StoreDriver)

	// Sentry error tracking
	if dsn := os.Getenv("SENTRY_DSN"); dsn != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              dsn,
			EnableTracing:    true,
			TracesSampleRate: 0.2,
			Environment:      os.Getenv("APP_ENV"),
		}); err != nil {
			slog.Error("sentry init failed", "error", err)
		} else {
			defer sentry.Flush(2 * time.Second)
		}
	}

	// Fiber app
	app := fiber.New(fiber.Config{
		BodyLimit:    1 * 1024 * 1024,
		ErrorHandler: customErrorHandler,
	})

	// Sentry middleware
	app.Use(sentryfiber.New(sentryfiber.Options{
		Repanic:         true,
		WaitForDelivery: false,
	}))

	// Global middleware
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "${time} | ${status} | ${latency} | ${ip} | ${method} | ${path}\n",
	}))
	app.Use(middleware.CORS(cfg))
	app.Use(func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("X-XSS-Protection", "1; mode=block")
		return c.Next()
	})

	// Routes
	routes.Setup(app, cfg, authHandler, doctorHandler, availabilityHandler, appointmentHandler, healthHandler)

	// Nightly refresh token purge
	tokenPurge := jobs.Start(tokenStore)

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("server starting", "port", cfg.Port, "store", cfg.StoreDriver)
		if err := app.Listen(":" + cfg.Port); err != nil {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	<-quit
	slog.Info("shutting down server...")

	tokenPurge.Stop()
	close(cleanupDone)
	if pgLogHandler != nil {
		pgLogHandler.Stop()
	}
	sentry.Flush(2 * time.Second)

	if err := app.Shutdown(); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	if err := slotCache.Close(); err != nil {
		slog.Error("cache close error", "error", err)
	}

	if database.DB != nil {
		if sqlDB, err := database.DB.DB(); err == nil {
			if err := sqlDB.Close(); err != nil {
				slog.Error("database close error", "error", err)
			}
		}
	}

	slog.Info("server stopped")
}

// seedDemoUsers creates the demo patient and doctor accounts.
// Already-registered usernames are skipped.
func seedDemoUsers(auth *services.AuthService) {
	ctx := context.Background()
	demo := []dto.RegisterRequest{
		{Username: "patient1@test.com", Password: "password123", Name: "John Doe", Role: models.RolePatient},
		{Username: "doctor1@test.com", Password: "password123", Name: "Dr. Alice Smith", Role: models.RoleDoctor},
	}
	for _, req := range demo {
		if _, err := auth.Register(ctx, &req); err != nil {
			if errors.Is(err, services.ErrUsernameTaken) {
				continue
			}
			slog.Error("demo seed failed", "username", req.Username, "error", err)
			continue
		}
		slog.Info("demo user seeded", "username", req.Username, "role", req.Role)
	}
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal server error"
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	// Only expose error details for client errors (4xx), not server errors (5xx)
	if code >= 500 {
		slog.Error("unhandled server error", "method", c.Method(), "path", c.Path(), "error", err.Error())
		message = "Internal server error"
	}

	return c.Status(code).JSON(fiber.Map{
		"error":   true,
		"message": message,
	})
}
