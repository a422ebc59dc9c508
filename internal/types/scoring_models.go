// internal/types/scoring_models.go
package types

import "strings"

// Phase is one of the eight CLOSER stages.
type Phase string

const (
	PhaseOpening           Phase = "opening"
	PhaseClarify           Phase = "clarify"
	PhaseLabel             Phase = "label"
	PhaseOverview          Phase = "overview"
	PhaseSellVacation      Phase = "sell_vacation"
	PhasePricePresentation Phase = "price_presentation"
	PhaseExplain           Phase = "explain"
	PhaseReinforce         Phase = "reinforce"
)

// AllPhases lists the phases in call order.
var AllPhases = []Phase{
	PhaseOpening,
	PhaseClarify,
	PhaseLabel,
	PhaseOverview,
	PhaseSellVacation,
	PhasePricePresentation,
	PhaseExplain,
	PhaseReinforce,
}

// Valid reports whether p is one of the eight known ids.
func (p Phase) Valid() bool {
	for _, known := range AllPhases {
		if p == known {
			return true
		}
	}
	return false
}

// --------------------------------------------
// Per-phase scoring
// --------------------------------------------

type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNegative Sentiment = "negative"
	SentimentNeutral  Sentiment = "neutral"
)

func (s Sentiment) Valid() bool {
	return s == SentimentPositive || s == SentimentNegative || s == SentimentNeutral
}

type Quote struct {
	Text      string    `json:"text"`
	Sentiment Sentiment `json:"sentiment"`
	Timestamp string    `json:"timestamp,omitempty"`
}

type PhaseScore struct {
	Phase        Phase    `json:"phase"`
	Score        float64  `json:"score"` // 0–100
	Feedback     string   `json:"feedback"`
	Highlights   []string `json:"highlights"`
	Improvements []string `json:"improvements"`
	Quotes       []Quote  `json:"quotes"`
}

// ScoringResult is the assessment of one call. OverallScore is always computed
// locally from Scores.
type ScoringResult struct {
	OverallScore       float64      `json:"overall_score"`
	Scores             []PhaseScore `json:"scores"`
	ObjectionsDetected []Objection  `json:"objections_detected"`
	Summary            string       `json:"summary"`
}

// --------------------------------------------
// Objections
// --------------------------------------------

type ObjectionCategory string

const (
	CategoryPrice           ObjectionCategory = "price"
	CategoryTiming          ObjectionCategory = "timing"
	CategoryPartnerApproval ObjectionCategory = "partner_approval"
	CategoryChildReadiness  ObjectionCategory = "child_readiness"
	CategoryCompetitor      ObjectionCategory = "competitor"
	CategoryTrust           ObjectionCategory = "trust"
	CategorySchedule        ObjectionCategory = "schedule"
	CategoryOther           ObjectionCategory = "other"
)

var AllObjectionCategories = []ObjectionCategory{
	CategoryPrice,
	CategoryTiming,
	CategoryPartnerApproval,
	CategoryChildReadiness,
	CategoryCompetitor,
	CategoryTrust,
	CategorySchedule,
	CategoryOther,
}

// ObjectionCategoryList joins every category name with sep, in declaration order.
func ObjectionCategoryList(sep string) string {
	names := make([]string, 0, len(AllObjectionCategories))
	for _, c := range AllObjectionCategories {
		names = append(names, string(c))
	}
	return strings.Join(names, sep)
}

func (c ObjectionCategory) Valid() bool {
	for _, known := range AllObjectionCategories {
		if c == known {
			return true
		}
	}
	return false
}

type Outcome string

const (
	OutcomeHandledWell   Outcome = "handled_well"
	OutcomeHandledPoorly Outcome = "handled_poorly"
	OutcomeUnresolved    Outcome = "unresolved"
)

func (o Outcome) Valid() bool {
	return o == OutcomeHandledWell || o == OutcomeHandledPoorly || o == OutcomeUnresolved
}

type Objection struct {
	Objection     string            `json:"objection"`
	Category      ObjectionCategory `json:"category"`
	HandlingScore float64           `json:"handling_score"` // 0–100
	UsedAAA       bool              `json:"used_aaa"`
	RepResponse   string            `json:"rep_response"`
	OutcomeAfter  Outcome           `json:"outcome_after"`
}
