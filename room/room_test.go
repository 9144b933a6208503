package room

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/stretchr/testify/require"

	"streamchat/domain"
	"streamchat/domain/event"
)

var (
	host   = domain.Identity{ID: "host-1", DisplayName: "Host"}
	viewer = domain.Identity{ID: "viewer-1", DisplayName: "Viewer"}
	openG  = Gate{Follower: true, Subscriber: true}
)

func newLiveRoom(t *testing.T, settings domain.Settings) *ChatRoom {
	t.Helper()
	r := New(uuid.NewString(), "Launch show", host, settings)
	_, err := r.Start(host.ID)
	require.NoError(t, err)
	return r
}

func commit(t *testing.T, r *ChatRoom, author domain.Identity, content string) domain.Message {
	t.Helper()
	msg, err := r.AppendPending(author, content, domain.MessageText, openG)
	require.NoError(t, err)
	events := r.ApplyScreening(msg.ID, domain.Screening{}, false)
	require.NotEmpty(t, events)
	return msg
}

func TestRoom_Lifecycle(t *testing.T) {
	req := require.New(t)
	r := New(uuid.NewString(), "Launch show", host, domain.DefaultSettings())

	// Given: a fresh room in preparing state
	req.Equal(domain.StatusPreparing, r.Stream().Status)

	// When: the host starts the stream
	events, err := r.Start(host.ID)
	req.NoError(err)
	req.Len(events, 1)
	req.Equal("streamStarted", events[0].Name())
	req.Equal(domain.StatusLive, r.Stream().Status)

	// Then: starting twice fails
	_, err = r.Start(host.ID)
	req.Equal(domain.KindInvalidState, domain.KindOf(err))

	// When: the host ends the stream
	events, err = r.End(host.ID)
	req.NoError(err)
	ended, ok := events[len(events)-1].(event.StreamEnded)
	req.True(ok)
	req.NotNil(ended.Stream.EndTime)
	req.Equal(domain.StatusEnded, r.Stream().Status)

	// Then: ending twice fails and the room accepts no new messages
	_, err = r.End(host.ID)
	req.Equal(domain.KindInvalidState, domain.KindOf(err))
	_, err = r.AppendPending(viewer, "too late", domain.MessageText, openG)
	req.Equal(domain.KindInvalidState, domain.KindOf(err))
}

func TestRoom_StartRequiresModerator(t *testing.T) {
	req := require.New(t)
	r := New(uuid.NewString(), "Launch show", host, domain.DefaultSettings())

	_, err := r.Start(viewer.ID)
	req.Equal(domain.KindForbidden, domain.KindOf(err))
}

func TestRoom_EndFromPreparing(t *testing.T) {
	req := require.New(t)

	// Given: a show cancelled before going live
	r := New(uuid.NewString(), "Cancelled show", host, domain.DefaultSettings())

	events, err := r.End(host.ID)
	req.NoError(err)
	req.Len(events, 1)
	req.Equal(domain.StatusEnded, r.Stream().Status)
}

func TestRoom_SendBeforeLive(t *testing.T) {
	req := require.New(t)
	r := New(uuid.NewString(), "Launch show", host, domain.DefaultSettings())

	_, err := r.AppendPending(viewer, "early bird", domain.MessageText, openG)
	req.Equal(domain.KindInvalidState, domain.KindOf(err))
}

func TestRoom_SendChatDisabled(t *testing.T) {
	req := require.New(t)
	settings := domain.DefaultSettings()
	settings.ChatEnabled = false
	r := newLiveRoom(t, settings)

	_, err := r.AppendPending(viewer, "anyone here?", domain.MessageText, openG)
	req.Equal(domain.KindForbidden, domain.KindOf(err))
}

func TestRoom_SendFollowerGate(t *testing.T) {
	req := require.New(t)
	settings := domain.DefaultSettings()
	settings.FollowersOnly = true
	r := newLiveRoom(t, settings)

	// Given: a non-follower
	_, err := r.AppendPending(viewer, "hello", domain.MessageText, Gate{Follower: false, Subscriber: true})
	req.Equal(domain.KindForbidden, domain.KindOf(err))

	// When: the same user follows
	_, err = r.AppendPending(viewer, "hello", domain.MessageText, openG)
	req.NoError(err)
}

func TestRoom_SendSubscriberGate(t *testing.T) {
	req := require.New(t)
	settings := domain.DefaultSettings()
	settings.SubscribersOnly = true
	r := newLiveRoom(t, settings)

	_, err := r.AppendPending(viewer, "hello", domain.MessageText, Gate{Follower: true, Subscriber: false})
	req.Equal(domain.KindForbidden, domain.KindOf(err))
}

func TestRoom_SlowMode(t *testing.T) {
	req := require.New(t)
	settings := domain.DefaultSettings()
	settings.SlowMode = true
	settings.SlowModeInterval = 5 * time.Second
	r := newLiveRoom(t, settings)

	// Given: a controllable clock
	base := time.Now().UTC()
	clock := base
	r.now = func() time.Time { return clock }

	// When: the first message lands at t=0
	first := commit(t, r, viewer, "first")
	req.Equal(domain.ModerationPending, first.Status)

	// Then: a retry at t=3s is rate limited
	clock = base.Add(3 * time.Second)
	_, err := r.AppendPending(viewer, "second", domain.MessageText, openG)
	req.Equal(domain.KindRateLimited, domain.KindOf(err))

	// And: t=6s passes the interval
	clock = base.Add(6 * time.Second)
	_, err = r.AppendPending(viewer, "second", domain.MessageText, openG)
	req.NoError(err)
}

func TestRoom_SlowModeAnchorDeleted(t *testing.T) {
	req := require.New(t)
	settings := domain.DefaultSettings()
	settings.SlowMode = true
	settings.SlowModeInterval = time.Minute
	r := newLiveRoom(t, settings)

	// Given: the author's anchor message is deleted by a moderator
	msg := commit(t, r, viewer, "spam")
	_, _, err := r.Moderate(msg.ID, host.ID, domain.ActionDelete, "spam")
	req.NoError(err)

	// Then: the next send is not rate limited against the deleted anchor
	_, err = r.AppendPending(viewer, "apology", domain.MessageText, openG)
	req.NoError(err)
}

func TestRoom_SlowModeDoesNotGateModeratorsOut(t *testing.T) {
	req := require.New(t)
	settings := domain.DefaultSettings()
	settings.SlowMode = true
	settings.SlowModeInterval = time.Minute
	r := newLiveRoom(t, settings)

	// Slow mode applies per author; two different users are independent.
	commit(t, r, viewer, "first")
	_, err := r.AppendPending(host, "host reply", domain.MessageText, openG)
	req.NoError(err)
}

func TestRoom_ApplyScreeningFlags(t *testing.T) {
	req := require.New(t)
	r := newLiveRoom(t, domain.DefaultSettings())

	msg, err := r.AppendPending(viewer, "buy now!!!", domain.MessageText, openG)
	req.NoError(err)

	// When: the screener flags the message
	verdict := domain.Screening{
		Classification: domain.Classification{SpamScore: 0.8, SpamReasons: []string{"spam:pattern"}},
		Flagged:        true,
		Action:         domain.RecommendFlag,
	}
	events := r.ApplyScreening(msg.ID, verdict, true)

	// Then: MessageSent fires first, MessageAutoFlagged rides alongside
	req.Len(events, 2)
	sent, ok := events[0].(event.MessageSent)
	req.True(ok)
	req.Equal(domain.ModerationFlagged, sent.Message.Status)
	flaggedEvt, ok := events[1].(event.MessageAutoFlagged)
	req.True(ok)
	req.Equal([]string{"spam:pattern"}, flaggedEvt.Message.FlagReasons)
}

func TestRoom_ApplyScreeningUnscreenedStaysPending(t *testing.T) {
	req := require.New(t)
	r := newLiveRoom(t, domain.DefaultSettings())

	msg, err := r.AppendPending(viewer, "hello", domain.MessageText, openG)
	req.NoError(err)

	// When: the classifier timed out and no verdict is available
	events := r.ApplyScreening(msg.ID, domain.Screening{}, false)

	req.Len(events, 1)
	sent := events[0].(event.MessageSent)
	req.Equal(domain.ModerationPending, sent.Message.Status)
}

func TestRoom_ReactionToggle(t *testing.T) {
	req := require.New(t)
	r := newLiveRoom(t, domain.DefaultSettings())
	msg := commit(t, r, viewer, "great show")

	// When: a user reacts
	snap, events, err := r.React(msg.ID, "fan-7", "heart")
	req.NoError(err)
	req.Len(snap.Reactions, 1)
	req.True(events[0].(event.ReactionUpdated).Added)

	// Then: the identical reaction removes it again
	snap, events, err = r.React(msg.ID, "fan-7", "heart")
	req.NoError(err)
	req.Empty(snap.Reactions)
	req.False(events[0].(event.ReactionUpdated).Added)

	// And: the counters round-trip to zero
	req.Zero(r.Stats().TotalReactions)
}

func TestRoom_ReactDifferentTypesAccumulate(t *testing.T) {
	req := require.New(t)
	r := newLiveRoom(t, domain.DefaultSettings())
	msg := commit(t, r, viewer, "great show")

	_, _, err := r.React(msg.ID, "fan-7", "heart")
	req.NoError(err)
	snap, _, err := r.React(msg.ID, "fan-7", "laugh")
	req.NoError(err)
	req.Len(snap.Reactions, 2)
}

func TestRoom_ReactUnknownMessage(t *testing.T) {
	req := require.New(t)
	r := newLiveRoom(t, domain.DefaultSettings())

	_, _, err := r.React(uuid.New(), "fan-7", "heart")
	req.Equal(domain.KindNotFound, domain.KindOf(err))
}

func TestRoom_PinReplacesPrevious(t *testing.T) {
	req := require.New(t)
	r := newLiveRoom(t, domain.DefaultSettings())
	first := commit(t, r, viewer, "pin me")
	second := commit(t, r, viewer, "no, me")

	// When: the host pins the first message
	snap, _, err := r.Pin(first.ID, host.ID)
	req.NoError(err)
	req.True(snap.IsPinned)

	// Then: pinning the second unpins the first
	snap, events, err := r.Pin(second.ID, host.ID)
	req.NoError(err)
	req.True(snap.IsPinned)
	pinned := events[0].(event.MessagePinned)
	req.NotNil(pinned.Unpinned)
	req.Equal(first.ID, *pinned.Unpinned)

	msgs, err := r.Messages(0, 0)
	req.NoError(err)
	req.False(msgs[0].IsPinned)
	req.True(msgs[1].IsPinned)
}

func TestRoom_PinRequiresModerator(t *testing.T) {
	req := require.New(t)
	r := newLiveRoom(t, domain.DefaultSettings())
	msg := commit(t, r, viewer, "pin me")

	_, _, err := r.Pin(msg.ID, viewer.ID)
	req.Equal(domain.KindForbidden, domain.KindOf(err))
}

func TestRoom_UpdateSettingsMergesPatch(t *testing.T) {
	req := require.New(t)
	r := newLiveRoom(t, domain.DefaultSettings())

	// When: only slow mode fields are patched
	settings, events, err := r.UpdateSettings(domain.SettingsPatch{
		SlowMode:         lo.ToPtr(true),
		SlowModeInterval: lo.ToPtr(10 * time.Second),
	}, host.ID)
	req.NoError(err)
	req.Len(events, 1)

	// Then: untouched fields keep their prior value
	req.True(settings.SlowMode)
	req.Equal(10*time.Second, settings.SlowModeInterval)
	req.True(settings.ChatEnabled)
	req.True(settings.ModerationEnabled)
}

func TestRoom_UpdateSettingsRequiresModerator(t *testing.T) {
	req := require.New(t)
	r := newLiveRoom(t, domain.DefaultSettings())

	_, _, err := r.UpdateSettings(domain.SettingsPatch{SlowMode: lo.ToPtr(true)}, viewer.ID)
	req.Equal(domain.KindForbidden, domain.KindOf(err))
}

func TestRoom_AddModerator(t *testing.T) {
	req := require.New(t)
	r := newLiveRoom(t, domain.DefaultSettings())

	// Given: a viewer is not a moderator
	req.False(r.IsModerator(viewer.ID))
	req.Error(r.AddModerator(viewer.ID, "someone"))

	// When: the host promotes the viewer
	req.NoError(r.AddModerator(host.ID, viewer.ID))

	// Then: the viewer may moderate
	req.True(r.IsModerator(viewer.ID))
	msg := commit(t, r, host, "test")
	_, _, err := r.Pin(msg.ID, viewer.ID)
	req.NoError(err)
}

func TestRoom_MessagesPagination(t *testing.T) {
	req := require.New(t)
	r := newLiveRoom(t, domain.DefaultSettings())
	for i := 0; i < 5; i++ {
		commit(t, r, viewer, "message")
	}

	page, err := r.Messages(2, 0)
	req.NoError(err)
	req.Len(page, 2)

	page, err = r.Messages(2, 4)
	req.NoError(err)
	req.Len(page, 1)

	page, err = r.Messages(2, 10)
	req.NoError(err)
	req.Empty(page)

	_, err = r.Messages(-1, 0)
	req.Equal(domain.KindInvalidInput, domain.KindOf(err))
}

func TestRoom_ExpiredAndClose(t *testing.T) {
	req := require.New(t)
	r := newLiveRoom(t, domain.DefaultSettings())

	// Given: a live room never expires
	req.False(r.Expired(time.Minute, time.Now().Add(time.Hour)))

	_, err := r.End(host.ID)
	req.NoError(err)

	endTime := *r.Stream().EndTime
	req.False(r.Expired(time.Minute, endTime.Add(30*time.Second)))
	req.True(r.Expired(time.Minute, endTime.Add(2*time.Minute)))

	// When: the janitor closes the room
	r.Close()

	// Then: every later operation fails NotFound
	_, err = r.AppendPending(viewer, "ghost", domain.MessageText, openG)
	req.Equal(domain.KindNotFound, domain.KindOf(err))
	_, err = r.Start(host.ID)
	req.Equal(domain.KindNotFound, domain.KindOf(err))
}

func TestRoom_StatsSnapshot(t *testing.T) {
	req := require.New(t)
	r := newLiveRoom(t, domain.DefaultSettings())

	msg := commit(t, r, viewer, "one")
	commit(t, r, viewer, "two")
	_, _, err := r.React(msg.ID, "fan-7", "heart")
	req.NoError(err)
	_, _, err = r.Moderate(msg.ID, host.ID, domain.ActionDelete, "off topic")
	req.NoError(err)

	stats := r.Stats()
	req.Equal(domain.StatusLive, stats.Status)
	req.Equal(2, stats.TotalMessages)
	req.Equal(1, stats.TotalReactions)
	req.Equal(1, stats.DeletedMessages)
	req.NotNil(stats.StartTime)
	req.Nil(stats.EndTime)
}
