package domain

import (
	"time"

	"github.com/google/uuid"
)

type MessageType string

const (
	MessageText  MessageType = "text"
	MessageImage MessageType = "image"
	MessageLink  MessageType = "link"
	MessageEmoji MessageType = "emoji"
)

// ValidMessageType reports whether t is one of the accepted wire values.
func ValidMessageType(t MessageType) bool {
	switch t {
	case MessageText, MessageImage, MessageLink, MessageEmoji:
		return true
	}
	return false
}

// ModerationStatus moves only forward: pending -> {approved|flagged} -> deleted.
// Deleted is terminal.
type ModerationStatus string

const (
	ModerationPending  ModerationStatus = "pending"
	ModerationApproved ModerationStatus = "approved"
	ModerationFlagged  ModerationStatus = "flagged"
	ModerationDeleted  ModerationStatus = "deleted"
)

// ModerationAction is a human moderator verb applied to a message.
type ModerationAction string

const (
	ActionDelete ModerationAction = "delete"
	ActionWarn   ModerationAction = "warn"
	ActionBan    ModerationAction = "ban"
)

// ModerationRecord is stamped on a message when a human action lands.
type ModerationRecord struct {
	Action      ModerationAction `json:"action"`
	Reason      string           `json:"reason"`
	ModeratorID string           `json:"moderator_id"`
	At          time.Time        `json:"at"`
}

// Reaction is a (user, type) pair on a message. Toggling the same pair
// removes it; reactions are idempotent per user per type, not additive.
type Reaction struct {
	UserID string    `json:"user_id"`
	Type   string    `json:"type"`
	At     time.Time `json:"at"`
}

// Message is a chat entry. Messages are never physically removed;
// "delete" flips IsDeleted and the status, preserving audit history.
type Message struct {
	ID          uuid.UUID         `json:"id"`
	RoomID      string            `json:"room_id"`
	Author      Identity          `json:"author"`
	Content     string            `json:"content"`
	Type        MessageType       `json:"type"`
	Reactions   []Reaction        `json:"reactions,omitempty"`
	IsPinned    bool              `json:"is_pinned"`
	IsDeleted   bool              `json:"is_deleted"`
	Status      ModerationStatus  `json:"status"`
	Moderation  *ModerationRecord `json:"moderation,omitempty"`
	FlagReasons []string          `json:"flag_reasons,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
}

// Clone returns a deep copy safe to hand to event sinks while the room
// keeps mutating the original.
func (m *Message) Clone() Message {
	out := *m
	if m.Reactions != nil {
		out.Reactions = make([]Reaction, len(m.Reactions))
		copy(out.Reactions, m.Reactions)
	}
	if m.FlagReasons != nil {
		out.FlagReasons = make([]string, len(m.FlagReasons))
		copy(out.FlagReasons, m.FlagReasons)
	}
	if m.Moderation != nil {
		rec := *m.Moderation
		out.Moderation = &rec
	}
	return out
}
