package runtime

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"streamchat/contract"
	"streamchat/domain"
	"streamchat/domain/event"
	"streamchat/room"
)

// Engine is the exposed operation surface of the chat core. Every call
// resolves the room through the registry, runs under that room's
// serialization, and publishes the resulting events onto the engine's
// buffered channel for the fan-out worker. Publication is
// fire-and-forget; a full channel drops with a warning rather than
// blocking a room operation.
type Engine struct {
	log             *slog.Logger
	registry        *Registry
	screener        contract.Screener
	directory       contract.Directory
	validate        *validator.Validate
	events          chan event.DomainEvent
	classifyTimeout time.Duration

	timerMu    sync.Mutex
	pollTimers map[uuid.UUID]*time.Timer
}

func NewEngine(log *slog.Logger, registry *Registry, screener contract.Screener,
	directory contract.Directory, classifyTimeout time.Duration, bufferSize int) *Engine {
	return &Engine{
		log:             log,
		registry:        registry,
		screener:        screener,
		directory:       directory,
		validate:        validator.New(),
		events:          make(chan event.DomainEvent, bufferSize),
		classifyTimeout: classifyTimeout,
		pollTimers:      make(map[uuid.UUID]*time.Timer),
	}
}

// Events is the stream the fan-out worker drains.
func (e *Engine) Events() <-chan event.DomainEvent { return e.events }

// Shutdown stops outstanding poll timers. Rooms themselves are
// ephemeral state and need no draining beyond this.
func (e *Engine) Shutdown() {
	e.timerMu.Lock()
	defer e.timerMu.Unlock()
	for id, t := range e.pollTimers {
		t.Stop()
		delete(e.pollTimers, id)
	}
}

type CreateStreamRequest struct {
	Title    string          `validate:"required,max=140"`
	Host     domain.Identity `validate:"-"`
	Settings *domain.SettingsPatch
}

// CreateStream builds a room in the preparing state and registers it.
func (e *Engine) CreateStream(req CreateStreamRequest) (domain.Stream, error) {
	if err := e.check(req); err != nil {
		return domain.Stream{}, err
	}
	if req.Host.ID == "" {
		return domain.Stream{}, domain.InvalidInput("host identity is required")
	}
	settings := domain.DefaultSettings()
	if req.Settings != nil {
		req.Settings.Apply(&settings)
	}
	cr := room.New(uuid.NewString(), req.Title, req.Host, settings)
	if err := e.registry.Add(cr); err != nil {
		return domain.Stream{}, err
	}
	snap := cr.Stream()
	e.publish(event.StreamCreated{Stream: snap, At: snap.CreatedAt})
	e.log.Info("stream created", "room", snap.ID, "host", req.Host.ID)
	return snap, nil
}

func (e *Engine) StartStream(roomID, userID string) (domain.Stream, error) {
	cr, err := e.registry.Get(roomID)
	if err != nil {
		return domain.Stream{}, err
	}
	events, err := cr.Start(userID)
	if err != nil {
		return domain.Stream{}, err
	}
	e.publish(events...)
	return cr.Stream(), nil
}

func (e *Engine) EndStream(roomID, userID string) (domain.Stream, error) {
	cr, err := e.registry.Get(roomID)
	if err != nil {
		return domain.Stream{}, err
	}
	events, err := cr.End(userID)
	if err != nil {
		return domain.Stream{}, err
	}
	e.stopTimersFor(events)
	e.publish(events...)
	return cr.Stream(), nil
}

func (e *Engine) UpdateSettings(roomID, userID string, patch domain.SettingsPatch) (domain.Settings, error) {
	cr, err := e.registry.Get(roomID)
	if err != nil {
		return domain.Settings{}, err
	}
	settings, events, err := cr.UpdateSettings(patch, userID)
	if err != nil {
		return domain.Settings{}, err
	}
	e.publish(events...)
	return settings, nil
}

func (e *Engine) AddModerator(roomID, byID, userID string) error {
	cr, err := e.registry.Get(roomID)
	if err != nil {
		return err
	}
	return cr.AddModerator(byID, userID)
}

type SendMessageRequest struct {
	RoomID  string          `validate:"required"`
	Author  domain.Identity `validate:"-"`
	Content string          `validate:"required,max=500"`
	Type    domain.MessageType
}

// SendMessage commits the message under the room lock, classifies the
// content outside it, then applies the verdict in a second short
// serialized step. On classifier timeout or error the message stays
// pending: screening is best-effort and never a hard gate on delivery.
func (e *Engine) SendMessage(ctx context.Context, req SendMessageRequest) (domain.Message, error) {
	if err := e.check(req); err != nil {
		return domain.Message{}, err
	}
	if req.Author.ID == "" {
		return domain.Message{}, domain.InvalidInput("author identity is required")
	}
	if !domain.ValidMessageType(req.Type) {
		return domain.Message{}, domain.InvalidInput("unknown message type %q", req.Type)
	}
	cr, err := e.registry.Get(req.RoomID)
	if err != nil {
		return domain.Message{}, err
	}

	// Follower/subscriber lookups hit an external collaborator, so they
	// resolve before entering the room's critical section.
	hostID, settings := cr.GateInfo()
	gate := room.Gate{Follower: true, Subscriber: true}
	if settings.FollowersOnly {
		gate.Follower = e.directory.IsFollower(req.Author.ID, hostID)
	}
	if settings.SubscribersOnly {
		gate.Subscriber = e.directory.IsSubscriber(req.Author.ID, hostID)
	}

	msg, err := cr.AppendPending(req.Author, req.Content, req.Type, gate)
	if err != nil {
		return domain.Message{}, err
	}

	var verdict domain.Screening
	screened := false
	if settings.ModerationEnabled {
		sctx, cancel := context.WithTimeout(ctx, e.classifyTimeout)
		verdict, err = e.screener.Screen(sctx, req.Content)
		cancel()
		if err != nil {
			e.log.Warn("screening failed, committing as pending", "room", req.RoomID, "err", err)
		} else {
			screened = true
		}
	}

	events := cr.ApplyScreening(msg.ID, verdict, screened)
	e.publish(events...)
	for _, evt := range events {
		if sent, ok := evt.(event.MessageSent); ok {
			return sent.Message, nil
		}
	}
	return msg, nil
}

func (e *Engine) React(roomID string, messageID uuid.UUID, userID, reaction string) (domain.Message, error) {
	cr, err := e.registry.Get(roomID)
	if err != nil {
		return domain.Message{}, err
	}
	msg, events, err := cr.React(messageID, userID, reaction)
	if err != nil {
		return domain.Message{}, err
	}
	e.publish(events...)
	return msg, nil
}

func (e *Engine) PinMessage(roomID string, messageID uuid.UUID, moderatorID string) (domain.Message, error) {
	cr, err := e.registry.Get(roomID)
	if err != nil {
		return domain.Message{}, err
	}
	msg, events, err := cr.Pin(messageID, moderatorID)
	if err != nil {
		return domain.Message{}, err
	}
	e.publish(events...)
	return msg, nil
}

type CreatePollRequest struct {
	RoomID    string   `validate:"required"`
	CreatorID string   `validate:"required"`
	Question  string   `validate:"required,max=200"`
	Options   []string `validate:"min=2,dive,required,max=100"`
	Settings  domain.PollSettings
}

// CreatePoll opens a poll and arms its auto-end timer. The timer and a
// manual end race safely: whichever applies first wins, the loser is a
// no-op inside the room's serialization.
func (e *Engine) CreatePoll(req CreatePollRequest) (domain.Poll, error) {
	if err := e.check(req); err != nil {
		return domain.Poll{}, err
	}
	cr, err := e.registry.Get(req.RoomID)
	if err != nil {
		return domain.Poll{}, err
	}
	poll, events, err := cr.CreatePoll(req.CreatorID, req.Question, req.Options, req.Settings)
	if err != nil {
		return domain.Poll{}, err
	}
	e.publish(events...)

	if req.Settings.Duration > 0 {
		pollID := poll.ID
		timer := time.AfterFunc(req.Settings.Duration, func() {
			expired := cr.ExpirePoll(pollID)
			e.publish(expired...)
			e.dropTimer(pollID)
		})
		e.timerMu.Lock()
		e.pollTimers[pollID] = timer
		e.timerMu.Unlock()
	}
	return poll, nil
}

func (e *Engine) Vote(roomID string, pollID uuid.UUID, userID string, optionIDs []uuid.UUID) (domain.Poll, error) {
	cr, err := e.registry.Get(roomID)
	if err != nil {
		return domain.Poll{}, err
	}
	poll, events, err := cr.Vote(pollID, userID, optionIDs)
	if err != nil {
		return domain.Poll{}, err
	}
	e.publish(events...)
	return poll, nil
}

func (e *Engine) EndPoll(roomID string, pollID uuid.UUID, moderatorID string) (domain.PollResult, error) {
	cr, err := e.registry.Get(roomID)
	if err != nil {
		return domain.PollResult{}, err
	}
	result, events, err := cr.EndPoll(pollID, moderatorID)
	if err != nil {
		return domain.PollResult{}, err
	}
	e.dropTimer(pollID)
	e.publish(events...)
	return result, nil
}

func (e *Engine) ModerateMessage(roomID string, messageID uuid.UUID, moderatorID string,
	action domain.ModerationAction, reason string) (domain.Message, error) {
	cr, err := e.registry.Get(roomID)
	if err != nil {
		return domain.Message{}, err
	}
	msg, events, err := cr.Moderate(messageID, moderatorID, action, reason)
	if err != nil {
		return domain.Message{}, err
	}
	e.publish(events...)
	return msg, nil
}

func (e *Engine) Stats(roomID string) (domain.Stats, error) {
	cr, err := e.registry.Get(roomID)
	if err != nil {
		return domain.Stats{}, err
	}
	return cr.Stats(), nil
}

func (e *Engine) Messages(roomID string, limit, offset int) ([]domain.Message, error) {
	cr, err := e.registry.Get(roomID)
	if err != nil {
		return nil, err
	}
	return cr.Messages(limit, offset)
}

func (e *Engine) publish(events ...event.DomainEvent) {
	for _, evt := range events {
		select {
		case e.events <- evt:
		default:
			e.log.Warn("event channel full, dropping event", "event", evt.Name(), "room", evt.RoomID())
		}
	}
}

func (e *Engine) check(req any) error {
	if err := e.validate.Struct(req); err != nil {
		return domain.InvalidInput("%v", err)
	}
	return nil
}

func (e *Engine) dropTimer(pollID uuid.UUID) {
	e.timerMu.Lock()
	defer e.timerMu.Unlock()
	if t, ok := e.pollTimers[pollID]; ok {
		t.Stop()
		delete(e.pollTimers, pollID)
	}
}

// stopTimersFor cancels the timers of polls that just ended with the
// stream. The timers would be harmless no-ops either way.
func (e *Engine) stopTimersFor(events []event.DomainEvent) {
	for _, evt := range events {
		if ended, ok := evt.(event.PollEnded); ok {
			e.dropTimer(ended.Poll.ID)
		}
	}
}
