// Package sink holds the EventSink implementations the fan-out worker
// drives: archival, the review index and metrics. Sinks are independent
// and best-effort, a failure in one never blocks another.
package sink

import (
	"context"
	"log/slog"

	"streamchat/contract"
	"streamchat/domain/event"
)

var _ contract.EventSink = (*ArchiveSink)(nil)

// ArchiveSink mirrors committed messages into the durable archive.
// Moderation events re-store the same message id, overwriting the
// snapshot with the post-action state.
type ArchiveSink struct {
	archive contract.Archive
	log     *slog.Logger
}

func NewArchiveSink(archive contract.Archive, log *slog.Logger) *ArchiveSink {
	return &ArchiveSink{archive: archive, log: log}
}

func (s *ArchiveSink) Consume(_ context.Context, e event.DomainEvent) error {
	switch evt := e.(type) {
	case event.MessageSent:
		return s.archive.Store(evt.Message)
	case event.MessageAutoFlagged:
		return s.archive.Store(evt.Message)
	case event.MessageModerated:
		return s.archive.Store(evt.Message)
	case event.ReactionUpdated:
		return s.archive.Store(evt.Message)
	case event.MessagePinned:
		return s.archive.Store(evt.Message)
	default:
		return nil
	}
}
