package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// SlotCache caches computed availability per (doctor, date) in Redis.
// A nil *SlotCache is a valid no-op cache, so callers never branch on
// whether caching is enabled.
type SlotCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func New(addr, password string, ttl time.Duration) *SlotCache {
	if addr == "" {
		return nil
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
	})
	return &SlotCache{rdb: rdb, ttl: ttl}
}

// NewWithClient wraps an existing client; used by tests.
func NewWithClient(rdb *redis.Client, ttl time.Duration) *SlotCache {
	return &SlotCache{rdb: rdb, ttl: ttl}
}

func key(doctorID, date string) string {
	return fmt.Sprintf("avail:%s:%s", doctorID, date)
}

func (c *SlotCache) Get(ctx context.Context, doctorID, date string) ([]string, bool) {
	if c == nil {
		return nil, false
	}
	raw, err := c.rdb.Get(ctx, key(doctorID, date)).Bytes()
	if err != nil {
		return nil, false
	}
	var slots []string
	if err := json.Unmarshal(raw, &slots); err != nil {
		return nil, false
	}
	return slots, true
}

func (c *SlotCache) Set(ctx context.Context, doctorID, date string, slots []string) {
	if c == nil {
		return
	}
	raw, err := json.Marshal(slots)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, key(doctorID, date), raw, c.ttl).Err(); err != nil {
		slog.Warn("slot cache set failed", "error", err)
	}
}

// Invalidate drops the cached slots for a doctor/date; called on every
// appointment mutation so stale availability never outlives a booking.
func (c *SlotCache) Invalidate(ctx context.Context, doctorID, date string) {
	if c == nil {
		return
	}
	if err := c.rdb.Del(ctx, key(doctorID, date)).Err(); err != nil {
		slog.Warn("slot cache invalidate failed", "error", err)
	}
}

func (c *SlotCache) Close() error {
	if c == nil {
		return nil
	}
	return c.rdb.Close()
}
