// Package room implements the per-broadcast chat room: a lifecycle state
// machine over messages, reactions, pins and polls. Every mutating entry
// point runs under the room's own mutex, so concurrent callers on one
// room serialize while different rooms proceed in parallel. Operations
// validate fully before mutating and return the events to publish; the
// caller emits them after the lock is released.
package room

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"streamchat/domain"
	"streamchat/domain/event"
)

type lastSend struct {
	at  time.Time
	msg uuid.UUID
}

// ChatRoom owns one Stream and all chat state attached to it. It is
// created by the host action and evicted from memory a retention period
// after the stream ends.
type ChatRoom struct {
	mu sync.Mutex

	stream   domain.Stream
	messages []*domain.Message
	byID     map[uuid.UUID]*domain.Message

	moderators map[string]struct{}
	banned     map[string]struct{}
	warnings   map[string]int
	lastSends  map[string]lastSend

	polls  map[uuid.UUID]*domain.Poll
	pinned *uuid.UUID

	totalReactions  int
	totalPolls      int
	deletedMessages int
	warnEvents      int
	banCount        int

	closed bool
	now    func() time.Time
}

// New builds a room in the preparing state with the host seeded as the
// implicit first moderator.
func New(id, title string, host domain.Identity, settings domain.Settings) *ChatRoom {
	r := &ChatRoom{
		stream: domain.Stream{
			ID:        id,
			Title:     title,
			Host:      host,
			Status:    domain.StatusPreparing,
			Settings:  settings,
			CreatedAt: time.Now().UTC(),
		},
		byID:       make(map[uuid.UUID]*domain.Message),
		moderators: map[string]struct{}{host.ID: {}},
		banned:     make(map[string]struct{}),
		warnings:   make(map[string]int),
		lastSends:  make(map[string]lastSend),
		polls:      make(map[uuid.UUID]*domain.Poll),
		now:        func() time.Time { return time.Now().UTC() },
	}
	return r
}

func (r *ChatRoom) ID() string { return r.stream.ID }

// Stream returns a snapshot of the owned stream.
func (r *ChatRoom) Stream() domain.Stream {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stream
}

// IsModerator reports room-scoped moderator membership; the host is a
// member since creation.
func (r *ChatRoom) IsModerator(userID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.moderators[userID]
	return ok
}

// Gate is the outcome of the external follower/subscriber checks,
// resolved by the caller before entering the room's critical section.
type Gate struct {
	Follower   bool
	Subscriber bool
}

// GateInfo exposes what the caller needs to resolve a Gate without
// holding the room lock across external calls.
func (r *ChatRoom) GateInfo() (hostID string, settings domain.Settings) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stream.Host.ID, r.stream.Settings
}

// Start moves preparing -> live. Fails when the stream is already live
// or ended. Only the host or a moderator may start the show.
func (r *ChatRoom) Start(userID string) ([]event.DomainEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.open(); err != nil {
		return nil, err
	}
	if _, ok := r.moderators[userID]; !ok {
		return nil, domain.Forbidden("user %s may not start stream %s", userID, r.stream.ID)
	}
	switch r.stream.Status {
	case domain.StatusLive:
		return nil, domain.InvalidState("stream %s is already live", r.stream.ID)
	case domain.StatusEnded:
		return nil, domain.InvalidState("stream %s has ended", r.stream.ID)
	}
	now := r.now()
	r.stream.Status = domain.StatusLive
	r.stream.StartTime = &now
	return []event.DomainEvent{event.StreamStarted{Stream: r.stream, At: now}}, nil
}

// End is terminal: live (or preparing) -> ended. Any poll still active
// is ended on the spot so its timer becomes a no-op later.
func (r *ChatRoom) End(userID string) ([]event.DomainEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.open(); err != nil {
		return nil, err
	}
	if _, ok := r.moderators[userID]; !ok {
		return nil, domain.Forbidden("user %s may not end stream %s", userID, r.stream.ID)
	}
	if r.stream.Status == domain.StatusEnded {
		return nil, domain.InvalidState("stream %s has already ended", r.stream.ID)
	}
	now := r.now()
	r.stream.Status = domain.StatusEnded
	r.stream.EndTime = &now

	var events []event.DomainEvent
	for _, p := range r.polls {
		if p.Status == domain.PollActive {
			events = append(events, r.endPollLocked(p))
		}
	}
	events = append(events, event.StreamEnded{Stream: r.stream, Stats: r.statsLocked(), At: now})
	return events, nil
}

// AppendPending runs the policy gauntlet and commits the message with
// moderationStatus pending. Screening happens outside the lock; the
// caller applies the verdict through ApplyScreening afterwards.
func (r *ChatRoom) AppendPending(author domain.Identity, content string, mtype domain.MessageType, gate Gate) (domain.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.open(); err != nil {
		return domain.Message{}, err
	}
	if err := r.liveLocked(); err != nil {
		return domain.Message{}, err
	}
	if !r.stream.Settings.ChatEnabled {
		return domain.Message{}, domain.Forbidden("chat is disabled in room %s", r.stream.ID)
	}
	if _, ok := r.banned[author.ID]; ok {
		return domain.Message{}, domain.Forbidden("user %s is banned from room %s", author.ID, r.stream.ID)
	}
	if r.stream.Settings.SlowMode {
		if last, ok := r.lastSends[author.ID]; ok {
			// The anchor is the author's most recent non-deleted message.
			if m, exists := r.byID[last.msg]; exists && !m.IsDeleted {
				if wait := r.stream.Settings.SlowModeInterval - r.now().Sub(last.at); wait > 0 {
					return domain.Message{}, domain.RateLimited("slow mode: retry in %s", wait.Round(time.Second))
				}
			}
		}
	}
	if r.stream.Settings.FollowersOnly && !gate.Follower {
		return domain.Message{}, domain.Forbidden("room %s is followers-only", r.stream.ID)
	}
	if r.stream.Settings.SubscribersOnly && !gate.Subscriber {
		return domain.Message{}, domain.Forbidden("room %s is subscribers-only", r.stream.ID)
	}

	now := r.now()
	msg := &domain.Message{
		ID:        uuid.New(),
		RoomID:    r.stream.ID,
		Author:    author,
		Content:   content,
		Type:      mtype,
		Status:    domain.ModerationPending,
		CreatedAt: now,
	}
	r.messages = append(r.messages, msg)
	r.byID[msg.ID] = msg
	r.lastSends[author.ID] = lastSend{at: now, msg: msg.ID}
	return msg.Clone(), nil
}

// ApplyScreening records the advisory verdict on a committed message and
// returns the events of the completed send. MessageSent is emitted here,
// after classification, so subscribers only ever see fully committed
// sends. A deleted message (ban raced the classifier) keeps its status.
func (r *ChatRoom) ApplyScreening(msgID uuid.UUID, sc domain.Screening, screened bool) []event.DomainEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.byID[msgID]
	if !ok {
		return nil
	}
	flagged := false
	if screened && sc.Flagged && m.Status == domain.ModerationPending {
		m.Status = domain.ModerationFlagged
		m.FlagReasons = sc.Reasons()
		flagged = true
	}
	events := []event.DomainEvent{event.MessageSent{Room: r.stream.ID, Message: m.Clone()}}
	if flagged {
		events = append(events, event.MessageAutoFlagged{Room: r.stream.ID, Message: m.Clone(), Screening: sc})
	}
	return events
}

// React toggles a (user, type) reaction: sending the identical pair
// again removes it, round-tripping the message to its original state.
func (r *ChatRoom) React(msgID uuid.UUID, userID, reaction string) (domain.Message, []event.DomainEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.open(); err != nil {
		return domain.Message{}, nil, err
	}
	if err := r.liveLocked(); err != nil {
		return domain.Message{}, nil, err
	}
	m, ok := r.byID[msgID]
	if !ok || m.IsDeleted {
		return domain.Message{}, nil, domain.NotFound("message %s not found in room %s", msgID, r.stream.ID)
	}
	added := true
	for i, re := range m.Reactions {
		if re.UserID == userID && re.Type == reaction {
			m.Reactions = append(m.Reactions[:i], m.Reactions[i+1:]...)
			r.totalReactions--
			added = false
			break
		}
	}
	if added {
		m.Reactions = append(m.Reactions, domain.Reaction{UserID: userID, Type: reaction, At: r.now()})
		r.totalReactions++
	}
	snap := m.Clone()
	evt := event.ReactionUpdated{Room: r.stream.ID, Message: snap, UserID: userID, Type: reaction, Added: added}
	return snap, []event.DomainEvent{evt}, nil
}

// Pin features a single message; pinning clears whatever was pinned
// before so at most one pin exists per room.
func (r *ChatRoom) Pin(msgID uuid.UUID, moderatorID string) (domain.Message, []event.DomainEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.open(); err != nil {
		return domain.Message{}, nil, err
	}
	if err := r.liveLocked(); err != nil {
		return domain.Message{}, nil, err
	}
	if _, ok := r.moderators[moderatorID]; !ok {
		return domain.Message{}, nil, domain.Forbidden("user %s is not a moderator of room %s", moderatorID, r.stream.ID)
	}
	m, ok := r.byID[msgID]
	if !ok || m.IsDeleted {
		return domain.Message{}, nil, domain.NotFound("message %s not found in room %s", msgID, r.stream.ID)
	}
	var unpinned *uuid.UUID
	if r.pinned != nil && *r.pinned != msgID {
		if prev, ok := r.byID[*r.pinned]; ok {
			prev.IsPinned = false
		}
		id := *r.pinned
		unpinned = &id
	}
	m.IsPinned = true
	r.pinned = &msgID
	snap := m.Clone()
	evt := event.MessagePinned{Room: r.stream.ID, Message: snap, PinnedBy: moderatorID, Unpinned: unpinned}
	return snap, []event.DomainEvent{evt}, nil
}

// UpdateSettings merges a partial patch. Unlike content operations it is
// allowed in any lifecycle state so hosts can configure before the show.
func (r *ChatRoom) UpdateSettings(patch domain.SettingsPatch, userID string) (domain.Settings, []event.DomainEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.open(); err != nil {
		return domain.Settings{}, nil, err
	}
	if _, ok := r.moderators[userID]; !ok {
		return domain.Settings{}, nil, domain.Forbidden("user %s is not a moderator of room %s", userID, r.stream.ID)
	}
	patch.Apply(&r.stream.Settings)
	evt := event.StreamSettingsUpdated{Room: r.stream.ID, Settings: r.stream.Settings, UpdatedBy: userID, At: r.now()}
	return r.stream.Settings, []event.DomainEvent{evt}, nil
}

// AddModerator grows the moderator set. The set is additive for the
// lifetime of the stream.
func (r *ChatRoom) AddModerator(byID, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.open(); err != nil {
		return err
	}
	if _, ok := r.moderators[byID]; !ok {
		return domain.Forbidden("user %s is not a moderator of room %s", byID, r.stream.ID)
	}
	r.moderators[userID] = struct{}{}
	return nil
}

// Stats snapshots the aggregate counters.
func (r *ChatRoom) Stats() domain.Stats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.statsLocked()
}

func (r *ChatRoom) statsLocked() domain.Stats {
	return domain.Stats{
		Status:          r.stream.Status,
		TotalMessages:   len(r.messages),
		TotalReactions:  r.totalReactions,
		TotalPolls:      r.totalPolls,
		DeletedMessages: r.deletedMessages,
		WarnedUsers:     r.warnEvents,
		BannedUsers:     r.banCount,
		StartTime:       r.stream.StartTime,
		EndTime:         r.stream.EndTime,
	}
}

// Messages pages through the ordered log, oldest first. Deleted messages
// are included; their status says so.
func (r *ChatRoom) Messages(limit, offset int) ([]domain.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if limit < 0 || offset < 0 {
		return nil, domain.InvalidInput("limit and offset must not be negative")
	}
	if limit == 0 {
		limit = defaultPageSize
	}
	if offset >= len(r.messages) {
		return nil, nil
	}
	end := offset + limit
	if end > len(r.messages) {
		end = len(r.messages)
	}
	out := make([]domain.Message, 0, end-offset)
	for _, m := range r.messages[offset:end] {
		out = append(out, m.Clone())
	}
	return out, nil
}

const defaultPageSize = 50

// Expired reports whether the room finished its retention period and
// may be evicted.
func (r *ChatRoom) Expired(retention time.Duration, now time.Time) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stream.Status != domain.StatusEnded || r.stream.EndTime == nil {
		return false
	}
	return now.Sub(*r.stream.EndTime) >= retention
}

// Close marks the room evicted. Taking the room mutex here is what
// guarantees no in-flight operation races the eviction; every later
// call fails NotFound.
func (r *ChatRoom) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
}

func (r *ChatRoom) open() error {
	if r.closed {
		return domain.NotFound("room %s no longer exists", r.stream.ID)
	}
	return nil
}

func (r *ChatRoom) liveLocked() error {
	switch r.stream.Status {
	case domain.StatusLive:
		return nil
	case domain.StatusEnded:
		return domain.InvalidState("stream %s has ended", r.stream.ID)
	default:
		return domain.InvalidState("stream %s is not live", r.stream.ID)
	}
}
