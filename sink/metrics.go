package sink

import (
	"context"

	"streamchat/contract"
	"streamchat/domain"
	"streamchat/domain/event"
	"streamchat/telemetry"
)

var _ contract.EventSink = (*MetricsSink)(nil)

// MetricsSink translates domain events into prometheus counters.
type MetricsSink struct {
	metrics *telemetry.Metrics
}

func NewMetricsSink(metrics *telemetry.Metrics) *MetricsSink {
	return &MetricsSink{metrics: metrics}
}

func (s *MetricsSink) Consume(_ context.Context, e event.DomainEvent) error {
	switch evt := e.(type) {
	case event.MessageSent:
		s.metrics.MessagesTotal.Inc()
	case event.MessageAutoFlagged:
		s.metrics.FlaggedTotal.Inc()
	case event.ReactionUpdated:
		s.metrics.ReactionsTotal.Inc()
	case event.PollCreated:
		s.metrics.PollsTotal.Inc()
	case event.PollVote:
		s.metrics.VotesTotal.Inc()
	case event.MessageModerated:
		s.metrics.ModerationActions.WithLabelValues(string(evt.Action)).Inc()
		if evt.Action == domain.ActionBan {
			s.metrics.BansTotal.Inc()
		}
	}
	return nil
}
