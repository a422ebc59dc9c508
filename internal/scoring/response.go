package scoring

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"

	"closer-insights-go/internal/llm"
	"closer-insights-go/internal/rubric"
	"closer-insights-go/internal/types"
)

// ErrInvalidResponse wraps every reason a reply was rejected.
var ErrInvalidResponse = errors.New("invalid reasoning service response")

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidResponse, fmt.Sprintf(format, args...))
}

type scoringPayload struct {
	Scores             []phasePayload     `json:"scores"`
	ObjectionsDetected []ObjectionPayload `json:"objections_detected"`
	Summary            *string            `json:"summary"`
}

type phasePayload struct {
	Phase        *string        `json:"phase"`
	Score        *float64       `json:"score"`
	Feedback     *string        `json:"feedback"`
	Highlights   []string       `json:"highlights"`
	Improvements []string       `json:"improvements"`
	Quotes       []quotePayload `json:"quotes"`
}

type quotePayload struct {
	Text      *string         `json:"text"`
	Sentiment *string         `json:"sentiment"`
	Timestamp json.RawMessage `json:"timestamp"`
}

// ObjectionPayload is the wire form of one objection, shared by phase scoring and
// standalone objection extraction.
type ObjectionPayload struct {
	Objection     *string  `json:"objection"`
	Category      *string  `json:"category"`
	HandlingScore *float64 `json:"handling_score"`
	UsedAAA       *bool    `json:"used_aaa"`
	RepResponse   *string  `json:"rep_response"`
	OutcomeAfter  *string  `json:"outcome_after"`
}

// Validate checks the closed enums and ranges and converts to the domain type.
func (o ObjectionPayload) Validate() (types.Objection, error) {
	if o.Objection == nil || strings.TrimSpace(*o.Objection) == "" {
		return types.Objection{}, invalid("objection text missing")
	}
	if o.Category == nil || !types.ObjectionCategory(*o.Category).Valid() {
		return types.Objection{}, invalid("objection %q: bad category", *o.Objection)
	}
	if o.HandlingScore == nil || !inRange(*o.HandlingScore) {
		return types.Objection{}, invalid("objection %q: handling_score missing or outside 0-100", *o.Objection)
	}
	if o.OutcomeAfter == nil || !types.Outcome(*o.OutcomeAfter).Valid() {
		return types.Objection{}, invalid("objection %q: bad outcome_after", *o.Objection)
	}
	out := types.Objection{
		Objection:     strings.TrimSpace(*o.Objection),
		Category:      types.ObjectionCategory(*o.Category),
		HandlingScore: *o.HandlingScore,
		OutcomeAfter:  types.Outcome(*o.OutcomeAfter),
	}
	if o.UsedAAA != nil {
		out.UsedAAA = *o.UsedAAA
	}
	if o.RepResponse != nil {
		out.RepResponse = strings.TrimSpace(*o.RepResponse)
	}
	return out, nil
}

// ValidateObjections converts a list, failing on the first bad entry. A nil input
// yields an empty slice.
func ValidateObjections(in []ObjectionPayload) ([]types.Objection, error) {
	out := make([]types.Objection, 0, len(in))
	for i, o := range in {
		obj, err := o.Validate()
		if err != nil {
			return nil, fmt.Errorf("objection %d: %w", i, err)
		}
		out = append(out, obj)
	}
	return out, nil
}

// ParseResult extracts and validates a scoring reply against the policy of the call.
// OverallScore is left at zero; the caller computes it.
func ParseResult(raw string, policy rubric.Policy) (types.ScoringResult, error) {
	body, ok := llm.ExtractJSON(raw)
	if !ok {
		return types.ScoringResult{}, invalid("no JSON object found")
	}

	var payload scoringPayload
	if err := json.Unmarshal([]byte(body), &payload); err != nil {
		return types.ScoringResult{}, invalid("decode: %v", err)
	}
	if payload.Summary == nil {
		return types.ScoringResult{}, invalid("summary missing")
	}

	seen := make(map[types.Phase]bool, len(payload.Scores))
	scores := make([]types.PhaseScore, 0, len(payload.Scores))
	for i, p := range payload.Scores {
		ps, err := p.validate(policy)
		if err != nil {
			return types.ScoringResult{}, fmt.Errorf("scores[%d]: %w", i, err)
		}
		if seen[ps.Phase] {
			return types.ScoringResult{}, invalid("phase %s scored twice", ps.Phase)
		}
		seen[ps.Phase] = true
		scores = append(scores, ps)
	}
	for _, phase := range policy.Retained() {
		if !seen[phase] {
			return types.ScoringResult{}, invalid("phase %s not scored", phase)
		}
	}

	objections, err := ValidateObjections(payload.ObjectionsDetected)
	if err != nil {
		return types.ScoringResult{}, err
	}

	return types.ScoringResult{
		Scores:             orderByPhase(scores),
		ObjectionsDetected: objections,
		Summary:            strings.TrimSpace(*payload.Summary),
	}, nil
}

func (p phasePayload) validate(policy rubric.Policy) (types.PhaseScore, error) {
	if p.Phase == nil {
		return types.PhaseScore{}, invalid("phase missing")
	}
	phase := types.Phase(*p.Phase)
	if !phase.Valid() {
		return types.PhaseScore{}, invalid("unknown phase %q", *p.Phase)
	}
	if policy.Excludes(phase) {
		return types.PhaseScore{}, invalid("phase %s is not scored for %s calls", phase, policy.Context)
	}
	if p.Score == nil || !inRange(*p.Score) {
		return types.PhaseScore{}, invalid("phase %s: score missing or outside 0-100", phase)
	}
	if p.Feedback == nil {
		return types.PhaseScore{}, invalid("phase %s: feedback missing", phase)
	}

	quotes := make([]types.Quote, 0, len(p.Quotes))
	for _, q := range p.Quotes {
		if q.Text == nil || q.Sentiment == nil {
			return types.PhaseScore{}, invalid("phase %s: quote needs text and sentiment", phase)
		}
		sentiment := types.Sentiment(*q.Sentiment)
		if !sentiment.Valid() {
			return types.PhaseScore{}, invalid("phase %s: bad sentiment %q", phase, *q.Sentiment)
		}
		quotes = append(quotes, types.Quote{
			Text:      *q.Text,
			Sentiment: sentiment,
			Timestamp: timestamp(q.Timestamp),
		})
	}

	return types.PhaseScore{
		Phase:        phase,
		Score:        *p.Score,
		Feedback:     strings.TrimSpace(*p.Feedback),
		Highlights:   nonNil(p.Highlights),
		Improvements: nonNil(p.Improvements),
		Quotes:       quotes,
	}, nil
}

// timestamp accepts "mm:ss" strings or a number of seconds.
func timestamp(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	var secs float64
	if err := json.Unmarshal(raw, &secs); err == nil && secs >= 0 {
		total := int(secs)
		return fmt.Sprintf("%02d:%02d", total/60, total%60)
	}
	return ""
}

func inRange(v float64) bool {
	return !math.IsNaN(v) && v >= 0 && v <= 100
}

func nonNil(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}

func orderByPhase(scores []types.PhaseScore) []types.PhaseScore {
	byPhase := make(map[types.Phase]types.PhaseScore, len(scores))
	for _, s := range scores {
		byPhase[s.Phase] = s
	}
	out := make([]types.PhaseScore, 0, len(scores))
	for _, p := range types.AllPhases {
		if s, ok := byPhase[p]; ok {
			out = append(out, s)
		}
	}
	return out
}
