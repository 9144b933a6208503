package sink

import (
	"context"
	"log/slog"

	"streamchat/contract"
	"streamchat/domain"
	"streamchat/domain/event"
	"streamchat/repositories"
)

var _ contract.EventSink = (*SearchSink)(nil)

// SearchSink feeds the moderator review index. Only messages needing
// human eyes land here: auto-flagged ones and ones a moderator warned
// about. Deletions and bans remove the need for review, so they are not
// indexed.
type SearchSink struct {
	index *repositories.ReviewIndex
	log   *slog.Logger
}

func NewSearchSink(index *repositories.ReviewIndex, log *slog.Logger) *SearchSink {
	return &SearchSink{index: index, log: log}
}

func (s *SearchSink) Consume(_ context.Context, e event.DomainEvent) error {
	switch evt := e.(type) {
	case event.MessageAutoFlagged:
		return s.index.Index(evt.Message, evt.Screening.Reasons())
	case event.MessageModerated:
		if evt.Action != domain.ActionWarn {
			return nil
		}
		return s.index.Index(evt.Message, []string{"moderator:" + evt.Reason})
	default:
		return nil
	}
}
