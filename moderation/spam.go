package moderation

import (
	"regexp"
	"strings"
	"unicode"
)

// Spam scoring is a sum of weighted partial signals, clamped to [0,1].
// Each signal contributes independently so a short all-caps message with
// a known pattern lands well above the review threshold.
const (
	spamPatternWeight    = 0.6
	spamShortWeight      = 0.2
	spamUniquenessWeight = 0.3
	spamUppercaseWeight  = 0.3

	minWordCount       = 3
	minUniquenessRatio = 0.5
	maxUppercaseRatio  = 0.7
	minLettersForCaps  = 8
)

var spamPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(free|cheap)\s+(money|gifts?|followers|subs)\b`),
	regexp.MustCompile(`(?i)\bclick\s+(here|this|my)\b`),
	regexp.MustCompile(`(?i)\b(buy|order)\s+now\b`),
	regexp.MustCompile(`(?i)\bvisit\s+my\s+(channel|profile|page)\b`),
	regexp.MustCompile(`(?i)\bgiveaway\s+winner\b`),
	regexp.MustCompile(`(?s)(https?://\S+.*){3,}`),
	regexp.MustCompile(`(.)\1{7,}`),
}

// spamScoreOf evaluates the spam heuristics over the raw message text.
func spamScoreOf(text string) (float64, []string) {
	var score float64
	var reasons []string

	for _, p := range spamPatterns {
		if p.MatchString(text) {
			score += spamPatternWeight
			reasons = append(reasons, "spam:pattern")
			break
		}
	}

	words := strings.Fields(text)
	if len(words) < minWordCount {
		score += spamShortWeight
		reasons = append(reasons, "spam:too_short")
	}

	if ratio, ok := uniquenessRatio(words); ok && ratio < minUniquenessRatio {
		score += spamUniquenessWeight
		reasons = append(reasons, "spam:low_uniqueness")
	}

	if ratio, ok := uppercaseRatio(text); ok && ratio > maxUppercaseRatio {
		score += spamUppercaseWeight
		reasons = append(reasons, "spam:uppercase")
	}

	return clamp(score), reasons
}

// uniquenessRatio is distinct words over total words; repetition like
// "sub sub sub sub" drives it towards zero. Needs enough words to mean
// anything.
func uniquenessRatio(words []string) (float64, bool) {
	if len(words) < minWordCount {
		return 0, false
	}
	distinct := make(map[string]struct{}, len(words))
	for _, w := range words {
		distinct[strings.ToLower(w)] = struct{}{}
	}
	return float64(len(distinct)) / float64(len(words)), true
}

func uppercaseRatio(text string) (float64, bool) {
	var letters, upper int
	for _, r := range text {
		if unicode.IsLetter(r) {
			letters++
			if unicode.IsUpper(r) {
				upper++
			}
		}
	}
	if letters < minLettersForCaps {
		return 0, false
	}
	return float64(upper) / float64(letters), true
}
