package room

import (
	"github.com/google/uuid"

	"streamchat/domain"
	"streamchat/domain/event"
)

// Moderate applies a human moderation action to a message.
//
//	delete: status deleted, deletedMessages++
//	warn:   status flagged, author's warning count++ and warnedUsers++
//	        (warnedUsers counts warn events, not distinct users)
//	ban:    the triggering message is deleted and the author joins the
//	        banned set; earlier messages stay untouched
//
// Deleted is terminal: acting on an already-deleted message fails.
func (r *ChatRoom) Moderate(msgID uuid.UUID, moderatorID string, action domain.ModerationAction, reason string) (domain.Message, []event.DomainEvent, error) {
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
	if !ok {
		return domain.Message{}, nil, domain.NotFound("message %s not found in room %s", msgID, r.stream.ID)
	}

	switch action {
	case domain.ActionDelete:
		if m.IsDeleted {
			return domain.Message{}, nil, domain.InvalidState("message %s is already deleted", msgID)
		}
		r.deleteMessageLocked(m)
		r.deletedMessages++
	case domain.ActionWarn:
		if m.IsDeleted {
			return domain.Message{}, nil, domain.InvalidState("message %s is already deleted", msgID)
		}
		m.Status = domain.ModerationFlagged
		r.warnings[m.Author.ID]++
		r.warnEvents++
	case domain.ActionBan:
		if m.IsDeleted {
			return domain.Message{}, nil, domain.InvalidState("message %s is already deleted", msgID)
		}
		r.deleteMessageLocked(m)
		if _, banned := r.banned[m.Author.ID]; !banned {
			r.banned[m.Author.ID] = struct{}{}
			r.banCount++
		}
	default:
		return domain.Message{}, nil, domain.InvalidInput("unknown moderation action %q", action)
	}

	m.Moderation = &domain.ModerationRecord{
		Action:      action,
		Reason:      reason,
		ModeratorID: moderatorID,
		At:          r.now(),
	}
	snap := m.Clone()
	evt := event.MessageModerated{Room: r.stream.ID, Message: snap, Action: action, Reason: reason, By: moderatorID}
	return snap, []event.DomainEvent{evt}, nil
}

// IsBanned reports whether the user is in the room's banned set.
func (r *ChatRoom) IsBanned(userID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.banned[userID]
	return ok
}

// Warnings returns the warn-event count of one user.
func (r *ChatRoom) Warnings(userID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.warnings[userID]
}

func (r *ChatRoom) deleteMessageLocked(m *domain.Message) {
	m.IsDeleted = true
	m.Status = domain.ModerationDeleted
	if m.IsPinned {
		m.IsPinned = false
		if r.pinned != nil && *r.pinned == m.ID {
			r.pinned = nil
		}
	}
}
