package room

import (
	"github.com/google/uuid"

	"streamchat/domain"
	"streamchat/domain/event"
)

// CreatePoll opens a timed poll. Only moderators may create one and a
// poll needs at least two options. The caller arms the auto-end timer
// for Settings.Duration; the timer routes back through ExpirePoll.
func (r *ChatRoom) CreatePoll(creatorID, question string, options []string, settings domain.PollSettings) (domain.Poll, []event.DomainEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.open(); err != nil {
		return domain.Poll{}, nil, err
	}
	if err := r.liveLocked(); err != nil {
		return domain.Poll{}, nil, err
	}
	if _, ok := r.moderators[creatorID]; !ok {
		return domain.Poll{}, nil, domain.Forbidden("user %s is not a moderator of room %s", creatorID, r.stream.ID)
	}
	if len(options) < 2 {
		return domain.Poll{}, nil, domain.InvalidInput("a poll needs at least 2 options, got %d", len(options))
	}

	p := &domain.Poll{
		ID:        uuid.New(),
		RoomID:    r.stream.ID,
		CreatorID: creatorID,
		Question:  question,
		Options:   make([]domain.PollOption, len(options)),
		Settings:  settings,
		Status:    domain.PollActive,
		CreatedAt: r.now(),
	}
	for i, text := range options {
		p.Options[i] = domain.PollOption{
			ID:     uuid.New(),
			Text:   text,
			Voters: make(map[string]struct{}),
		}
	}
	r.polls[p.ID] = p
	r.totalPolls++
	snap := p.Clone()
	return snap, []event.DomainEvent{event.PollCreated{Room: r.stream.ID, Poll: snap}}, nil
}

// Vote records the user's choices. Options the user already voted for
// are silently skipped so client retries never double count. Without
// multiple choice a second vote fails AlreadyVoted.
func (r *ChatRoom) Vote(pollID uuid.UUID, userID string, optionIDs []uuid.UUID) (domain.Poll, []event.DomainEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.open(); err != nil {
		return domain.Poll{}, nil, err
	}
	if err := r.liveLocked(); err != nil {
		return domain.Poll{}, nil, err
	}
	p, ok := r.polls[pollID]
	if !ok {
		return domain.Poll{}, nil, domain.NotFound("poll %s not found in room %s", pollID, r.stream.ID)
	}
	if p.Status != domain.PollActive {
		return domain.Poll{}, nil, domain.InvalidState("poll %s is not active", pollID)
	}
	if len(optionIDs) == 0 {
		return domain.Poll{}, nil, domain.InvalidInput("no option selected")
	}
	if !p.Settings.MultipleChoice {
		if len(optionIDs) > 1 {
			return domain.Poll{}, nil, domain.InvalidInput("poll %s is single choice", pollID)
		}
		if p.HasVoted(userID) {
			return domain.Poll{}, nil, domain.AlreadyVoted("user %s already voted in poll %s", userID, pollID)
		}
	}
	// Validate every option before touching any tally.
	for _, id := range optionIDs {
		if p.Option(id) == nil {
			return domain.Poll{}, nil, domain.InvalidInput("option %s does not belong to poll %s", id, pollID)
		}
	}

	changed := false
	for _, id := range optionIDs {
		opt := p.Option(id)
		if _, dup := opt.Voters[userID]; dup {
			continue
		}
		opt.Voters[userID] = struct{}{}
		opt.Votes++
		p.TotalVotes++
		changed = true
	}
	snap := p.Clone()
	if !changed {
		// Idempotent re-vote: no tally moved, no event fires.
		return snap, nil, nil
	}
	return snap, []event.DomainEvent{event.PollVote{Room: r.stream.ID, Poll: snap, UserID: userID}}, nil
}

// EndPoll is the explicit moderator end. Ending an already-ended poll
// returns the existing result and fires nothing.
func (r *ChatRoom) EndPoll(pollID uuid.UUID, moderatorID string) (domain.PollResult, []event.DomainEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.open(); err != nil {
		return domain.PollResult{}, nil, err
	}
	if _, ok := r.moderators[moderatorID]; !ok {
		return domain.PollResult{}, nil, domain.Forbidden("user %s is not a moderator of room %s", moderatorID, r.stream.ID)
	}
	p, ok := r.polls[pollID]
	if !ok {
		return domain.PollResult{}, nil, domain.NotFound("poll %s not found in room %s", pollID, r.stream.ID)
	}
	if p.Status == domain.PollEnded {
		return p.Results(), nil, nil
	}
	evt := r.endPollLocked(p)
	return p.Results(), []event.DomainEvent{evt}, nil
}

// ExpirePoll is the timer path. It is a no-op when the poll already
// ended by explicit action, so the timer firing late never double-ends.
func (r *ChatRoom) ExpirePoll(pollID uuid.UUID) []event.DomainEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil
	}
	p, ok := r.polls[pollID]
	if !ok || p.Status == domain.PollEnded {
		return nil
	}
	return []event.DomainEvent{r.endPollLocked(p)}
}

// Poll returns a snapshot of one poll.
func (r *ChatRoom) Poll(pollID uuid.UUID) (domain.Poll, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.polls[pollID]
	if !ok {
		return domain.Poll{}, domain.NotFound("poll %s not found in room %s", pollID, r.stream.ID)
	}
	return p.Clone(), nil
}

func (r *ChatRoom) endPollLocked(p *domain.Poll) event.DomainEvent {
	now := r.now()
	p.Status = domain.PollEnded
	p.EndTime = &now
	return event.PollEnded{Room: r.stream.ID, Poll: p.Clone(), Result: p.Results()}
}
