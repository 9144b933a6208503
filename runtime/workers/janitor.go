package workers

import (
	"context"
	"log/slog"
	"time"

	"streamchat/contract"
	"streamchat/runtime"
	"streamchat/telemetry"
)

var _ contract.Worker = (*Janitor)(nil)

// Janitor evicts rooms a fixed retention period after their stream
// ended. Closing the room takes the room's own mutex, so eviction never
// races an in-flight operation; once closed, later calls fail NotFound.
type Janitor struct {
	log       *slog.Logger
	registry  *runtime.Registry
	metrics   *telemetry.Metrics
	retention time.Duration
	interval  time.Duration
}

func NewJanitor(log *slog.Logger, registry *runtime.Registry, metrics *telemetry.Metrics,
	retention, interval time.Duration) *Janitor {
	return &Janitor{log: log, registry: registry, metrics: metrics, retention: retention, interval: interval}
}

func (w *Janitor) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Debug("context done, stopping janitor")
			return nil
		case <-ticker.C:
			w.sweep()
		}
	}
}

func (w *Janitor) sweep() {
	now := time.Now().UTC()
	for _, cr := range w.registry.Rooms() {
		if !cr.Expired(w.retention, now) {
			continue
		}
		cr.Close()
		w.registry.Remove(cr.ID())
		w.log.Info("room evicted", "room", cr.ID())
	}
	if w.metrics != nil {
		w.metrics.LiveRooms.Set(float64(w.registry.Len()))
	}
}
