package workers

import (
	"context"
	"log/slog"
	"time"

	"streamchat/contract"
	"streamchat/domain/event"
)

var _ contract.Worker = (*EventFanout)(nil)

// EventFanout drains the engine's event channel and pushes every event
// to all registered sinks. Delivery is best-effort with no ordering or
// retry guarantees across sinks: a slow sink is cut off at the timeout
// and a failing one is logged. It is not a message broker.
type EventFanout struct {
	log         *slog.Logger
	events      <-chan event.DomainEvent
	sinks       []contract.EventSink
	sinkTimeout time.Duration
}

func NewEventFanout(log *slog.Logger, events <-chan event.DomainEvent,
	sinkTimeout time.Duration, sinks ...contract.EventSink) *EventFanout {
	return &EventFanout{log: log, events: events, sinks: sinks, sinkTimeout: sinkTimeout}
}

func (w *EventFanout) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			w.log.Debug("context done, stopping fanout")
			return nil
		case evt, ok := <-w.events:
			if !ok {
				return nil
			}
			w.fanout(ctx, evt)
		}
	}
}

func (w *EventFanout) fanout(ctx context.Context, evt event.DomainEvent) {
	for _, sink := range w.sinks {
		sinkCtx, cancel := context.WithTimeout(ctx, w.sinkTimeout)
		if err := sink.Consume(sinkCtx, evt); err != nil {
			w.log.Warn("sink failed", "event", evt.Name(), "room", evt.RoomID(), "err", err)
		}
		cancel()
	}
}
