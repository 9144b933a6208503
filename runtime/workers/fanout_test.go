package workers

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"streamchat/domain"
	"streamchat/domain/event"
	"streamchat/mocks"
)

func TestEventFanout_DeliversToAllSinks(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	events := make(chan event.DomainEvent, 4)
	evt := event.StreamStarted{Stream: domain.Stream{ID: "room-1"}}

	first := mocks.NewMockEventSink(ctrl)
	second := mocks.NewMockEventSink(ctrl)
	delivered := make(chan struct{}, 2)
	for _, sink := range []*mocks.MockEventSink{first, second} {
		sink.EXPECT().
			Consume(gomock.Any(), evt).
			DoAndReturn(func(context.Context, event.DomainEvent) error {
				delivered <- struct{}{}
				return nil
			}).
			Times(1)
	}

	fanout := NewEventFanout(slog.Default(), events, time.Second, first, second)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = fanout.Run(ctx) }()

	// When: one event is published
	events <- evt

	// Then: both sinks received it
	for i := 0; i < 2; i++ {
		select {
		case <-delivered:
		case <-time.After(time.Second):
			req.Fail("sink did not receive the event")
		}
	}
}

func TestEventFanout_FailingSinkDoesNotBlockOthers(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	events := make(chan event.DomainEvent, 4)
	evt := event.StreamStarted{Stream: domain.Stream{ID: "room-1"}}

	failing := mocks.NewMockEventSink(ctrl)
	failing.EXPECT().
		Consume(gomock.Any(), evt).
		Return(errors.New("sink down")).
		Times(1)

	healthy := mocks.NewMockEventSink(ctrl)
	delivered := make(chan struct{}, 1)
	healthy.EXPECT().
		Consume(gomock.Any(), evt).
		DoAndReturn(func(context.Context, event.DomainEvent) error {
			delivered <- struct{}{}
			return nil
		}).
		Times(1)

	fanout := NewEventFanout(slog.Default(), events, time.Second, failing, healthy)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = fanout.Run(ctx) }()

	events <- evt

	select {
	case <-delivered:
	case <-time.After(time.Second):
		req.Fail("healthy sink starved by the failing one")
	}
}

func TestEventFanout_StopsOnClosedChannel(t *testing.T) {
	req := require.New(t)

	events := make(chan event.DomainEvent)
	fanout := NewEventFanout(slog.Default(), events, time.Second)

	done := make(chan error, 1)
	go func() { done <- fanout.Run(context.Background()) }()

	close(events)

	select {
	case err := <-done:
		req.NoError(err)
	case <-time.After(time.Second):
		req.Fail("fanout did not stop on channel close")
	}
}
