package gateway

import (
	"context"
	"log/slog"
	"time"

	"gateway-service/internal/metrics"
)

// Janitor periodically reclaims memory: expired dedup records, the dedup
// capacity backstop, and metadata of idle empty rooms. It is an explicit
// background task with its own cancellation; tests call Tick directly.
type Janitor struct {
	dedup         *DedupCache
	rooms         *Rooms
	interval      time.Duration
	idleThreshold time.Duration
	logger        *slog.Logger
}

func NewJanitor(dedup *DedupCache, rooms *Rooms, interval, idleThreshold time.Duration, logger *slog.Logger) *Janitor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Janitor{
		dedup:         dedup,
		rooms:         rooms,
		interval:      interval,
		idleThreshold: idleThreshold,
		logger:        logger,
	}
}

// Run ticks on a fixed interval until the context is cancelled. A slow tick
// never blocks the next one's scheduling beyond the ticker's coalescing.
func (j *Janitor) Run(ctx context.Context) {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	j.logger.Info("janitor started", "interval", j.interval, "idleThreshold", j.idleThreshold)
	for {
		select {
		case <-ticker.C:
			j.Tick(time.Now())
		case <-ctx.Done():
			j.logger.Info("janitor stopped")
			return
		}
	}
}

// Tick runs one cleanup pass. Each sub-step is isolated: a failure in one is
// logged and never aborts the remaining steps or crashes the loop.
func (j *Janitor) Tick(now time.Time) {
	expired := j.step("dedup_expiry", func() int { return j.dedup.EvictExpired(now) })
	capped := j.step("dedup_cap", func() int { return j.dedup.EnforceCap() })
	rooms := j.step("room_eviction", func() int { return j.rooms.EvictIdle(j.idleThreshold, now) })

	metrics.DedupEvicted.Add(float64(expired + capped))
	metrics.RoomsEvicted.Add(float64(rooms))
	j.logger.Info("janitor tick",
		"dedupExpired", expired,
		"dedupCapped", capped,
		"roomsEvicted", rooms,
	)
}

func (j *Janitor) step(name string, fn func() int) (n int) {
	defer func() {
		if r := recover(); r != nil {
			j.logger.Error("janitor step failed", "step", name, "panic", r)
			n = 0
		}
	}()
	return fn()
}
