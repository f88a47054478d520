package jobs

import (
	"context"
	"log/slog"

	"clinicbook/internal/store"

	"github.com/robfig/cron/v3"
)

// Start schedules the nightly purge of expired and revoked refresh
// tokens. The returned cron can be stopped on shutdown.
func Start(tokens store.RefreshTokenStore) *cron.Cron {
	c := cron.New()
	_, err := c.AddFunc("@daily", func() {
		purged, err := tokens.PurgeExpired(context.Background())
		if err != nil {
			slog.Error("refresh token purge failed", "error", err)
			return
		}
		if purged > 0 {
			slog.Info("refresh token purge completed", "purged", purged)
		}
	})
	if err != nil {
		slog.Error("failed to schedule refresh token purge", "error", err)
	}
	c.Start()
	return c
}
