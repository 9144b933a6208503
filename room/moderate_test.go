package room

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"streamchat/domain"
	"streamchat/domain/event"
)

func TestModerate_Delete(t *testing.T) {
	req := require.New(t)
	r := newLiveRoom(t, domain.DefaultSettings())
	msg := commit(t, r, viewer, "off topic")

	// When: a moderator deletes the message
	snap, events, err := r.Moderate(msg.ID, host.ID, domain.ActionDelete, "off topic")
	req.NoError(err)
	req.True(snap.IsDeleted)
	req.Equal(domain.ModerationDeleted, snap.Status)
	req.Equal(domain.ActionDelete, snap.Moderation.Action)
	req.Equal(host.ID, snap.Moderation.ModeratorID)
	req.Len(events, 1)

	// Then: the message stays in the log with its deleted status
	msgs, err := r.Messages(0, 0)
	req.NoError(err)
	req.Len(msgs, 1)
	req.True(msgs[0].IsDeleted)
	req.Equal(1, r.Stats().DeletedMessages)
}

func TestModerate_DeletedIsTerminal(t *testing.T) {
	req := require.New(t)
	r := newLiveRoom(t, domain.DefaultSettings())
	msg := commit(t, r, viewer, "off topic")

	_, _, err := r.Moderate(msg.ID, host.ID, domain.ActionDelete, "first")
	req.NoError(err)

	// Every further action on the deleted message fails.
	for _, action := range []domain.ModerationAction{domain.ActionDelete, domain.ActionWarn, domain.ActionBan} {
		_, _, err := r.Moderate(msg.ID, host.ID, action, "again")
		req.Equal(domain.KindInvalidState, domain.KindOf(err), "action %s", action)
	}
}

func TestModerate_Warn(t *testing.T) {
	req := require.New(t)
	r := newLiveRoom(t, domain.DefaultSettings())
	first := commit(t, r, viewer, "borderline")
	second := commit(t, r, viewer, "borderline again")

	// When: the same author is warned twice
	snap, _, err := r.Moderate(first.ID, host.ID, domain.ActionWarn, "tone it down")
	req.NoError(err)
	req.Equal(domain.ModerationFlagged, snap.Status)
	req.False(snap.IsDeleted)

	_, _, err = r.Moderate(second.ID, host.ID, domain.ActionWarn, "last warning")
	req.NoError(err)

	// Then: warnings accumulate per author and per event
	req.Equal(2, r.Warnings(viewer.ID))
	req.Equal(2, r.Stats().WarnedUsers)

	// And: a warned user may still chat
	_, err = r.AppendPending(viewer, "understood", domain.MessageText, openG)
	req.NoError(err)
}

func TestModerate_Ban(t *testing.T) {
	req := require.New(t)
	r := newLiveRoom(t, domain.DefaultSettings())
	earlier := commit(t, r, viewer, "fine message")
	offending := commit(t, r, viewer, "offending message")

	// When: the author is banned off the offending message
	snap, events, err := r.Moderate(offending.ID, host.ID, domain.ActionBan, "abuse")
	req.NoError(err)
	req.True(snap.IsDeleted)
	req.Equal(domain.ActionBan, events[0].(event.MessageModerated).Action)

	// Then: the author is banned and cannot send
	req.True(r.IsBanned(viewer.ID))
	_, err = r.AppendPending(viewer, "let me back in", domain.MessageText, openG)
	req.Equal(domain.KindForbidden, domain.KindOf(err))

	// And: earlier messages stay untouched
	msgs, err := r.Messages(0, 0)
	req.NoError(err)
	req.Equal(earlier.ID, msgs[0].ID)
	req.False(msgs[0].IsDeleted)

	req.Equal(1, r.Stats().BannedUsers)
}

func TestModerate_DoubleBanCountsOnce(t *testing.T) {
	req := require.New(t)
	r := newLiveRoom(t, domain.DefaultSettings())
	first := commit(t, r, viewer, "bad one")
	second := commit(t, r, viewer, "bad two")

	_, _, err := r.Moderate(first.ID, host.ID, domain.ActionBan, "abuse")
	req.NoError(err)
	_, _, err = r.Moderate(second.ID, host.ID, domain.ActionBan, "abuse")
	req.NoError(err)

	req.Equal(1, r.Stats().BannedUsers)
}

func TestModerate_BanDeletedPinClearsPin(t *testing.T) {
	req := require.New(t)
	r := newLiveRoom(t, domain.DefaultSettings())
	msg := commit(t, r, viewer, "pin me")

	_, _, err := r.Pin(msg.ID, host.ID)
	req.NoError(err)

	// When: the pinned message is deleted
	snap, _, err := r.Moderate(msg.ID, host.ID, domain.ActionDelete, "gone")
	req.NoError(err)
	req.False(snap.IsPinned)

	// Then: the slot is free for the next pin
	other := commit(t, r, viewer, "new pin")
	pinned, events, err := r.Pin(other.ID, host.ID)
	req.NoError(err)
	req.True(pinned.IsPinned)
	req.Nil(events[0].(event.MessagePinned).Unpinned)
}

func TestModerate_Authorization(t *testing.T) {
	req := require.New(t)
	r := newLiveRoom(t, domain.DefaultSettings())
	msg := commit(t, r, viewer, "hello")

	// A non-moderator may not act.
	_, _, err := r.Moderate(msg.ID, viewer.ID, domain.ActionDelete, "self delete")
	req.Equal(domain.KindForbidden, domain.KindOf(err))

	// Unknown messages and unknown verbs are rejected.
	_, _, err = r.Moderate(uuid.New(), host.ID, domain.ActionDelete, "ghost")
	req.Equal(domain.KindNotFound, domain.KindOf(err))
	_, _, err = r.Moderate(msg.ID, host.ID, domain.ModerationAction("nuke"), "typo")
	req.Equal(domain.KindInvalidInput, domain.KindOf(err))
}
