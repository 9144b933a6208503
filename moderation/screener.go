package moderation

import (
	"context"
	"log/slog"
	"time"

	"streamchat/contract"
	"streamchat/domain"
)

// Score thresholds of the decision table. A message is flagged for
// human review when either sub-score crosses reviewThreshold.
const (
	reviewThreshold  = 0.5
	monitorThreshold = 0.25

	defaultCacheTTL  = 5 * time.Minute
	defaultCacheSize = 4096
)

// Screener wraps a Classifier with caching and the recommendation
// decision table. The caller bounds Screen with a context deadline;
// when it expires mid-classification the caller commits the message as
// pending rather than blocking the sender (fail-open, an availability
// over completeness tradeoff).
type Screener struct {
	classifier contract.Classifier
	cache      *verdictCache
	log        *slog.Logger
}

var _ contract.Screener = (*Screener)(nil)

func NewScreener(classifier contract.Classifier, log *slog.Logger) *Screener {
	return &Screener{
		classifier: classifier,
		cache:      newVerdictCache(defaultCacheTTL, defaultCacheSize),
		log:        log,
	}
}

// Screen classifies text and derives the advisory verdict. Cached
// verdicts are returned without recomputation.
func (s *Screener) Screen(ctx context.Context, text string) (domain.Screening, error) {
	key := contentHash(text)
	if verdict, ok := s.cache.get(key); ok {
		return verdict, nil
	}

	// Classification runs off the calling goroutine so a slow
	// classifier can be abandoned at the deadline.
	done := make(chan domain.Classification, 1)
	go func() {
		done <- s.classifier.Classify(text)
	}()

	select {
	case <-ctx.Done():
		s.log.Warn("classification abandoned", "err", ctx.Err())
		return domain.Screening{}, ctx.Err()
	case c := <-done:
		verdict := verdictOf(c)
		s.cache.put(key, verdict)
		return verdict, nil
	}
}

// verdictOf applies the fixed decision table:
// both toxic and spam -> reject, toxic -> review, spam -> flag,
// borderline either -> monitor, otherwise approve.
func verdictOf(c domain.Classification) domain.Screening {
	var action domain.RecommendedAction
	switch {
	case c.ToxicityScore >= reviewThreshold && c.SpamScore >= reviewThreshold:
		action = domain.RecommendReject
	case c.ToxicityScore >= reviewThreshold:
		action = domain.RecommendReview
	case c.SpamScore >= reviewThreshold:
		action = domain.RecommendFlag
	case c.ToxicityScore >= monitorThreshold || c.SpamScore >= monitorThreshold:
		action = domain.RecommendMonitor
	default:
		action = domain.RecommendApprove
	}
	return domain.Screening{
		Classification: c,
		Flagged:        c.ToxicityScore >= reviewThreshold || c.SpamScore >= reviewThreshold,
		Action:         action,
	}
}
