package domain

import (
	"math"
	"time"

	"github.com/google/uuid"
)

type PollStatus string

const (
	PollActive PollStatus = "active"
	PollEnded  PollStatus = "ended"
)

// PollSettings governs one poll. Duration arms the auto-end timer;
// a zero Duration means the poll only ends by explicit moderator action.
type PollSettings struct {
	MultipleChoice bool          `json:"multiple_choice"`
	Anonymous      bool          `json:"anonymous"`
	Duration       time.Duration `json:"duration"`
	ShowResults    bool          `json:"show_results"`
}

// PollOption holds a live tally. Voters is the set of user ids that
// picked this option; it is what makes re-votes idempotent.
type PollOption struct {
	ID     uuid.UUID           `json:"id"`
	Text   string              `json:"text"`
	Votes  int                 `json:"votes"`
	Voters map[string]struct{} `json:"-"`
}

// Poll is a timed question attached to a room. After Status flips to
// ended the poll is immutable.
type Poll struct {
	ID         uuid.UUID    `json:"id"`
	RoomID     string       `json:"room_id"`
	CreatorID  string       `json:"creator_id"`
	Question   string       `json:"question"`
	Options    []PollOption `json:"options"`
	Settings   PollSettings `json:"settings"`
	Status     PollStatus   `json:"status"`
	TotalVotes int          `json:"total_votes"`
	CreatedAt  time.Time    `json:"created_at"`
	EndTime    *time.Time   `json:"end_time,omitempty"`
}

// HasVoted reports whether the user picked any option of the poll.
func (p *Poll) HasVoted(userID string) bool {
	for i := range p.Options {
		if _, ok := p.Options[i].Voters[userID]; ok {
			return true
		}
	}
	return false
}

// Option returns the option with the given id, or nil.
func (p *Poll) Option(id uuid.UUID) *PollOption {
	for i := range p.Options {
		if p.Options[i].ID == id {
			return &p.Options[i]
		}
	}
	return nil
}

// Clone returns a deep copy safe for event payloads. Voter sets are
// omitted when the poll is anonymous.
func (p *Poll) Clone() Poll {
	out := *p
	out.Options = make([]PollOption, len(p.Options))
	for i, opt := range p.Options {
		c := opt
		if p.Settings.Anonymous {
			c.Voters = nil
		} else {
			c.Voters = make(map[string]struct{}, len(opt.Voters))
			for v := range opt.Voters {
				c.Voters[v] = struct{}{}
			}
		}
		out.Options[i] = c
	}
	if p.EndTime != nil {
		t := *p.EndTime
		out.EndTime = &t
	}
	return out
}

// OptionResult is the final tally of one option once the poll ended.
type OptionResult struct {
	ID      uuid.UUID `json:"id"`
	Text    string    `json:"text"`
	Votes   int       `json:"votes"`
	Percent int       `json:"percent"`
}

// PollResult is the payload computed when a poll ends.
type PollResult struct {
	PollID     uuid.UUID      `json:"poll_id"`
	Question   string         `json:"question"`
	TotalVotes int            `json:"total_votes"`
	Options    []OptionResult `json:"options"`
	EndedAt    time.Time      `json:"ended_at"`
}

// Results computes per-option percentages, rounded, 0% on an empty poll.
func (p *Poll) Results() PollResult {
	res := PollResult{
		PollID:     p.ID,
		Question:   p.Question,
		TotalVotes: p.TotalVotes,
		Options:    make([]OptionResult, len(p.Options)),
	}
	if p.EndTime != nil {
		res.EndedAt = *p.EndTime
	}
	for i, opt := range p.Options {
		pct := 0
		if p.TotalVotes > 0 {
			pct = int(math.Round(float64(opt.Votes) / float64(p.TotalVotes) * 100))
		}
		res.Options[i] = OptionResult{ID: opt.ID, Text: opt.Text, Votes: opt.Votes, Percent: pct}
	}
	return res
}
