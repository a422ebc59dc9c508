package scoring

import (
	"closer-insights-go/internal/rubric"
	"closer-insights-go/internal/types"
)

// FallbackFeedback marks every phase of a result produced without a usable reply.
const FallbackFeedback = "Unable to analyze"

const fallbackSummary = "Analysis failed: the reasoning service did not return a usable assessment. Please retry."

// Fallback is the zero-score result for the phases retained by policy.
func Fallback(policy rubric.Policy) types.ScoringResult {
	retained := policy.Retained()
	scores := make([]types.PhaseScore, 0, len(retained))
	for _, phase := range retained {
		scores = append(scores, types.PhaseScore{
			Phase:        phase,
			Score:        0,
			Feedback:     FallbackFeedback,
			Highlights:   []string{},
			Improvements: []string{},
			Quotes:       []types.Quote{},
		})
	}
	return types.ScoringResult{
		OverallScore:       0,
		Scores:             scores,
		ObjectionsDetected: []types.Objection{},
		Summary:            fallbackSummary,
	}
}

// IsFallback reports whether r came from Fallback.
func IsFallback(r types.ScoringResult) bool {
	if len(r.Scores) == 0 {
		return false
	}
	for _, s := range r.Scores {
		if s.Feedback != FallbackFeedback || s.Score != 0 {
			return false
		}
	}
	return true
}
