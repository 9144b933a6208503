// Package event defines the domain events a room pushes to subscribed
// viewers. Each event carries the room id and the full updated entity so
// sinks never have to read room state back.
package event

import (
	"time"

	"github.com/google/uuid"

	"streamchat/domain"
)

// DomainEvent is anything the fan-out can route to a room's subscribers.
type DomainEvent interface {
	RoomID() string
	Name() string
}

type StreamCreated struct {
	Stream domain.Stream
	At     time.Time
}

func (e StreamCreated) RoomID() string { return e.Stream.ID }
func (e StreamCreated) Name() string   { return "streamCreated" }

type StreamStarted struct {
	Stream domain.Stream
	At     time.Time
}

func (e StreamStarted) RoomID() string { return e.Stream.ID }
func (e StreamStarted) Name() string   { return "streamStarted" }

type StreamEnded struct {
	Stream domain.Stream
	Stats  domain.Stats
	At     time.Time
}

func (e StreamEnded) RoomID() string { return e.Stream.ID }
func (e StreamEnded) Name() string   { return "streamEnded" }

type StreamSettingsUpdated struct {
	Room      string
	Settings  domain.Settings
	UpdatedBy string
	At        time.Time
}

func (e StreamSettingsUpdated) RoomID() string { return e.Room }
func (e StreamSettingsUpdated) Name() string   { return "streamSettingsUpdated" }

type MessageSent struct {
	Room    string
	Message domain.Message
}

func (e MessageSent) RoomID() string { return e.Room }
func (e MessageSent) Name() string   { return "messageSent" }

// MessageAutoFlagged fires when automatic screening marks a message for
// human review. It rides alongside MessageSent, never instead of it.
type MessageAutoFlagged struct {
	Room      string
	Message   domain.Message
	Screening domain.Screening
}

func (e MessageAutoFlagged) RoomID() string { return e.Room }
func (e MessageAutoFlagged) Name() string   { return "messageAutoFlagged" }

type ReactionUpdated struct {
	Room    string
	Message domain.Message
	UserID  string
	Type    string
	Added   bool
}

func (e ReactionUpdated) RoomID() string { return e.Room }
func (e ReactionUpdated) Name() string   { return "reactionUpdated" }

type MessagePinned struct {
	Room     string
	Message  domain.Message
	PinnedBy string
	// Unpinned is the previously pinned message id, when a pin was replaced.
	Unpinned *uuid.UUID
}

func (e MessagePinned) RoomID() string { return e.Room }
func (e MessagePinned) Name() string   { return "messagePinned" }

type MessageModerated struct {
	Room    string
	Message domain.Message
	Action  domain.ModerationAction
	Reason  string
	By      string
}

func (e MessageModerated) RoomID() string { return e.Room }
func (e MessageModerated) Name() string   { return "messageModerated" }

type PollCreated struct {
	Room string
	Poll domain.Poll
}

func (e PollCreated) RoomID() string { return e.Room }
func (e PollCreated) Name() string   { return "pollCreated" }

type PollVote struct {
	Room   string
	Poll   domain.Poll
	UserID string
}

func (e PollVote) RoomID() string { return e.Room }
func (e PollVote) Name() string   { return "pollVote" }

// PollEnded fires exactly once per poll, whether the timer or a
// moderator got there first.
type PollEnded struct {
	Room   string
	Poll   domain.Poll
	Result domain.PollResult
}

func (e PollEnded) RoomID() string { return e.Room }
func (e PollEnded) Name() string   { return "pollEnded" }
