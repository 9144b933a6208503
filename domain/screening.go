package domain

// Classification is the raw output of the content classifier:
// independent toxicity and spam scores in [0,1] with their evidence.
// It is a pure function of the text and safe to cache by content hash.
type Classification struct {
	ToxicityScore float64  `json:"toxicity_score"`
	ToxicWords    []string `json:"toxic_words,omitempty"`
	SpamScore     float64  `json:"spam_score"`
	SpamReasons   []string `json:"spam_reasons,omitempty"`
	Language      string   `json:"language,omitempty"`
}

// RecommendedAction is derived from the classification by a fixed
// decision table; it is advisory and never blocks delivery.
type RecommendedAction string

const (
	RecommendApprove RecommendedAction = "approve"
	RecommendMonitor RecommendedAction = "monitor"
	RecommendFlag    RecommendedAction = "flag"
	RecommendReview  RecommendedAction = "review"
	RecommendReject  RecommendedAction = "reject"
)

// Screening is the verdict applied to a freshly sent message.
// Flagged marks the message for human review; the message stays visible.
type Screening struct {
	Classification
	Flagged bool              `json:"flagged"`
	Action  RecommendedAction `json:"action"`
}

// Reasons aggregates the evidence for the flag, toxic words first.
func (s Screening) Reasons() []string {
	out := make([]string, 0, len(s.ToxicWords)+len(s.SpamReasons))
	for _, w := range s.ToxicWords {
		out = append(out, "toxic:"+w)
	}
	out = append(out, s.SpamReasons...)
	return out
}
