// Package domain contains the core concepts of the live-broadcast chat
// system: streams, messages, polls and their rules. It performs no I/O.
package domain

import "time"

// StreamStatus is the lifecycle state of a broadcast.
// Transitions: preparing --start--> live --end--> ended.
// A stream may also be ended from preparing (show cancelled before air).
type StreamStatus string

const (
	StatusPreparing StreamStatus = "preparing"
	StatusLive      StreamStatus = "live"
	StatusEnded     StreamStatus = "ended"
)

// Identity carries the denormalized display fields of a user so that
// events and message snapshots are self-contained.
type Identity struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	AvatarURL   string `json:"avatar_url,omitempty"`
}

// Settings are the per-room policy knobs. SlowModeInterval only applies
// when SlowMode is set.
type Settings struct {
	ChatEnabled       bool          `json:"chat_enabled"`
	ModerationEnabled bool          `json:"moderation_enabled"`
	SlowMode          bool          `json:"slow_mode"`
	SlowModeInterval  time.Duration `json:"slow_mode_interval"`
	FollowersOnly     bool          `json:"followers_only"`
	SubscribersOnly   bool          `json:"subscribers_only"`
}

// DefaultSettings is the policy a fresh room starts with.
func DefaultSettings() Settings {
	return Settings{
		ChatEnabled:       true,
		ModerationEnabled: true,
		SlowModeInterval:  5 * time.Second,
	}
}

// SettingsPatch is a partial update: nil fields keep their prior value.
type SettingsPatch struct {
	ChatEnabled       *bool          `json:"chat_enabled,omitempty"`
	ModerationEnabled *bool          `json:"moderation_enabled,omitempty"`
	SlowMode          *bool          `json:"slow_mode,omitempty"`
	SlowModeInterval  *time.Duration `json:"slow_mode_interval,omitempty"`
	FollowersOnly     *bool          `json:"followers_only,omitempty"`
	SubscribersOnly   *bool          `json:"subscribers_only,omitempty"`
}

// Apply merges the patch into s.
func (p SettingsPatch) Apply(s *Settings) {
	if p.ChatEnabled != nil {
		s.ChatEnabled = *p.ChatEnabled
	}
	if p.ModerationEnabled != nil {
		s.ModerationEnabled = *p.ModerationEnabled
	}
	if p.SlowMode != nil {
		s.SlowMode = *p.SlowMode
	}
	if p.SlowModeInterval != nil {
		s.SlowModeInterval = *p.SlowModeInterval
	}
	if p.FollowersOnly != nil {
		s.FollowersOnly = *p.FollowersOnly
	}
	if p.SubscribersOnly != nil {
		s.SubscribersOnly = *p.SubscribersOnly
	}
}

// Stream is the broadcast a chat room is attached to. It is owned
// exclusively by its room and mutated only through room operations.
type Stream struct {
	ID        string       `json:"id"`
	Title     string       `json:"title"`
	Host      Identity     `json:"host"`
	Status    StreamStatus `json:"status"`
	StartTime *time.Time   `json:"start_time,omitempty"`
	EndTime   *time.Time   `json:"end_time,omitempty"`
	Settings  Settings     `json:"settings"`
	CreatedAt time.Time    `json:"created_at"`
}

// Stats are the aggregate counters of a room. WarnedUsers counts warn
// events, not distinct warned users; the distinction is deliberate and
// kept from the original accounting.
type Stats struct {
	Status          StreamStatus `json:"status"`
	TotalMessages   int          `json:"total_messages"`
	TotalReactions  int          `json:"total_reactions"`
	TotalPolls      int          `json:"total_polls"`
	DeletedMessages int          `json:"deleted_messages"`
	WarnedUsers     int          `json:"warned_users"`
	BannedUsers     int          `json:"banned_users"`
	StartTime       *time.Time   `json:"start_time,omitempty"`
	EndTime         *time.Time   `json:"end_time,omitempty"`
}
