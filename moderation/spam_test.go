package moderation

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSpamScore_Signals(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		score   float64
		reasons []string
	}{
		{
			name:  "clean message",
			text:  "really enjoying the stream tonight everyone",
			score: 0,
		},
		{
			name:    "known pattern",
			text:    "buy now and get cheap followers today",
			score:   spamPatternWeight,
			reasons: []string{"spam:pattern"},
		},
		{
			name:    "too short",
			text:    "hi",
			score:   spamShortWeight,
			reasons: []string{"spam:too_short"},
		},
		{
			name:    "low uniqueness",
			text:    "sub sub sub sub",
			score:   spamUniquenessWeight,
			reasons: []string{"spam:low_uniqueness"},
		},
		{
			name:    "shouting",
			text:    "STOP SCAMMING EVERYONE NOW",
			score:   spamUppercaseWeight,
			reasons: []string{"spam:uppercase"},
		},
		{
			name:    "character flood",
			text:    "aaaaaaaaaaaa",
			score:   spamPatternWeight + spamShortWeight,
			reasons: []string{"spam:pattern", "spam:too_short"},
		},
		{
			name:    "stacked signals",
			text:    "FREE MONEY FREE MONEY FREE MONEY",
			score:   1, // pattern + uniqueness + uppercase, clamped
			reasons: []string{"spam:pattern", "spam:low_uniqueness", "spam:uppercase"},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := require.New(t)
			score, reasons := spamScoreOf(tc.text)
			req.InDelta(tc.score, score, 0.001)
			req.Equal(tc.reasons, reasons)
		})
	}
}

func TestSpamScore_LinkFlood(t *testing.T) {
	req := require.New(t)

	// A couple of links is fine, a wall of them is not.
	score, _ := spamScoreOf("check https://a.example and https://b.example later folks")
	req.Zero(score)

	score, reasons := spamScoreOf("https://a.example https://b.example https://c.example join fast")
	req.InDelta(spamPatternWeight, score, 0.001)
	req.Equal([]string{"spam:pattern"}, reasons)
}
