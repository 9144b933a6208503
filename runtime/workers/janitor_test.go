package workers

import (
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"streamchat/domain"
	"streamchat/room"
	"streamchat/runtime"
	"streamchat/telemetry"
)

func TestJanitor_EvictsExpiredRooms(t *testing.T) {
	req := require.New(t)
	registry := runtime.NewRegistry()
	host := domain.Identity{ID: "host-1"}

	// Given: one ended room past retention and one still live
	ended := room.New(uuid.NewString(), "over", host, domain.DefaultSettings())
	_, err := ended.Start(host.ID)
	req.NoError(err)
	_, err = ended.End(host.ID)
	req.NoError(err)

	live := room.New(uuid.NewString(), "running", host, domain.DefaultSettings())
	_, err = live.Start(host.ID)
	req.NoError(err)

	req.NoError(registry.Add(ended))
	req.NoError(registry.Add(live))

	w := NewJanitor(slog.Default(), registry, telemetry.New(), 0, time.Hour)

	// When: a sweep runs with zero retention
	w.sweep()

	// Then: only the ended room is gone, and it rejects late calls
	req.Equal(1, registry.Len())
	_, err = registry.Get(live.ID())
	req.NoError(err)
	_, err = registry.Get(ended.ID())
	req.Equal(domain.KindNotFound, domain.KindOf(err))
	_, err = ended.Start(host.ID)
	req.Equal(domain.KindNotFound, domain.KindOf(err))
}

func TestJanitor_KeepsRoomsWithinRetention(t *testing.T) {
	req := require.New(t)
	registry := runtime.NewRegistry()
	host := domain.Identity{ID: "host-1"}

	ended := room.New(uuid.NewString(), "over", host, domain.DefaultSettings())
	_, err := ended.Start(host.ID)
	req.NoError(err)
	_, err = ended.End(host.ID)
	req.NoError(err)
	req.NoError(registry.Add(ended))

	w := NewJanitor(slog.Default(), registry, telemetry.New(), time.Hour, time.Hour)
	w.sweep()

	req.Equal(1, registry.Len())
}
