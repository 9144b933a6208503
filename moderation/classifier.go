// Package moderation implements the automatic content screening that
// runs on every send: a keyword toxicity classifier, pattern/heuristic
// spam scoring, a fixed decision table and a bounded verdict cache.
// Screening is advisory; it marks messages for human review and never
// blocks delivery.
package moderation

import (
	"bufio"
	"bytes"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"
	"unicode"

	"github.com/abadojack/whatlanggo"
	goahocorasick "github.com/anknown/ahocorasick"

	"streamchat/domain"
)

//go:embed dict/*.txt
var dictFS embed.FS

const (
	// toxicityGain scales keyword density into a score: one flagged
	// term in an eight word message crosses the review threshold.
	toxicityGain = 4.0

	fallbackLanguage = "en"
)

// KeywordClassifier scores toxicity by matching a per-language term
// dictionary with an Aho-Corasick automaton over normalized text, and
// spam through the heuristics in spam.go. Classify is side-effect-free
// and safe to call concurrently.
type KeywordClassifier struct {
	machines map[string]*goahocorasick.Machine
	log      *slog.Logger
}

// NewKeywordClassifier builds one automaton per embedded dictionary.
// Dictionary terms go through the same normalization as message text so
// leet-speak variants of a term still match.
func NewKeywordClassifier(log *slog.Logger) (*KeywordClassifier, error) {
	machines := make(map[string]*goahocorasick.Machine)
	entries, err := fs.ReadDir(dictFS, "dict")
	if err != nil {
		return nil, fmt.Errorf("reading dictionaries: %w", err)
	}
	for _, entry := range entries {
		lang := strings.TrimSuffix(entry.Name(), ".txt")
		words, err := loadDictionary("dict/" + entry.Name())
		if err != nil {
			return nil, err
		}
		patterns := make([][]rune, 0, len(words))
		for _, w := range words {
			if norm := normalizeRunes([]rune(w)); len(norm) > 0 {
				patterns = append(patterns, norm)
			}
		}
		m := new(goahocorasick.Machine)
		if err := m.Build(patterns); err != nil {
			return nil, fmt.Errorf("building %s automaton: %w", lang, err)
		}
		machines[lang] = m
		log.Info("toxicity dictionary loaded", "lang", lang, "terms", len(patterns))
	}
	if _, ok := machines[fallbackLanguage]; !ok {
		return nil, fmt.Errorf("missing fallback dictionary %q", fallbackLanguage)
	}
	return &KeywordClassifier{machines: machines, log: log}, nil
}

// Classify produces independent toxicity and spam scores in [0,1].
func (c *KeywordClassifier) Classify(text string) domain.Classification {
	info := whatlanggo.Detect(text)
	lang := info.Lang.Iso6391()
	machine, ok := c.machines[lang]
	if !ok {
		machine = c.machines[fallbackLanguage]
		lang = fallbackLanguage
	}

	var toxicWords []string
	norm := normalizeRunes([]rune(text))
	if len(norm) > 0 {
		for _, span := range machine.MultiPatternSearch(norm, false) {
			toxicWords = append(toxicWords, string(span.Word))
		}
	}

	words := len(strings.Fields(text))
	toxicity := 0.0
	if words > 0 && len(toxicWords) > 0 {
		toxicity = clamp(float64(len(toxicWords)) / float64(words) * toxicityGain)
	}

	spamScore, spamReasons := spamScoreOf(text)
	return domain.Classification{
		ToxicityScore: toxicity,
		ToxicWords:    toxicWords,
		SpamScore:     spamScore,
		SpamReasons:   spamReasons,
		Language:      lang,
	}
}

func loadDictionary(path string) ([]string, error) {
	raw, err := dictFS.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	var words []string
	scanner := bufio.NewScanner(bytes.NewReader(raw))
	for scanner.Scan() {
		if w := strings.TrimSpace(scanner.Text()); w != "" {
			words = append(words, w)
		}
	}
	return words, scanner.Err()
}

// normalizeRunes lowercases, maps common leet-speak substitutions back
// to letters and strips punctuation, spacing and symbols so "B.4.d" and
// "bad" normalize identically.
func normalizeRunes(input []rune) []rune {
	out := make([]rune, 0, len(input))
	for _, r := range input {
		clean := simplifyRune(r)
		if isNoise(clean) {
			continue
		}
		out = append(out, unicode.ToLower(clean))
	}
	return out
}

func simplifyRune(r rune) rune {
	switch r {
	case '4', '@':
		return 'a'
	case '3', '€':
		return 'e'
	case '1', '!', '|':
		return 'i'
	case '0':
		return 'o'
	case '5', '$':
		return 's'
	default:
		return r
	}
}

func isNoise(r rune) bool {
	return unicode.IsPunct(r) || unicode.IsSpace(r) || unicode.IsSymbol(r)
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
