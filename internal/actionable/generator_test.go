package actionable

import (
	"strings"
	"testing"

	"closer-insights-go/internal/aggregator"
	"closer-insights-go/internal/rubric"
	"closer-insights-go/internal/scoring"
	"closer-insights-go/internal/script"
	"closer-insights-go/internal/types"
)

func scores(values map[types.Phase]float64) []types.PhaseScore {
	out := []types.PhaseScore{}
	for _, p := range types.AllPhases {
		if v, ok := values[p]; ok {
			out = append(out, types.PhaseScore{Phase: p, Score: v, Feedback: "ok"})
		}
	}
	return out
}

func TestGenerateCoachesWeakestPhase(t *testing.T) {
	t.Parallel()

	result := types.ScoringResult{
		OverallScore: 62,
		Scores: scores(map[types.Phase]float64{
			types.PhaseOpening:  80,
			types.PhaseOverview: 35,
			types.PhaseExplain:  50,
		}),
	}
	card := Generate(result, rubric.For(types.ContextNewLead), script.Default())

	if card.Phase != types.PhaseOverview {
		t.Fatalf("phase: got %q want overview", card.Phase)
	}
	if !strings.Contains(card.Insight, "35%") {
		t.Fatalf("insight: %q", card.Insight)
	}
	if !strings.Contains(card.Impact, "20%") {
		t.Fatalf("impact: %q", card.Impact)
	}
}

func TestGenerateFallbackCard(t *testing.T) {
	t.Parallel()

	policy := rubric.For(types.ContextWarmLead)
	card := Generate(scoring.Fallback(policy), policy, nil)
	if !strings.Contains(card.Action, "Re-score") {
		t.Fatalf("action: %q", card.Action)
	}
}

func TestGenerateAAACard(t *testing.T) {
	t.Parallel()

	result := types.ScoringResult{
		Scores: scores(map[types.Phase]float64{types.PhaseOpening: 90, types.PhaseExplain: 75}),
		ObjectionsDetected: []types.Objection{
			{Objection: "too expensive", Category: types.CategoryPrice, OutcomeAfter: types.OutcomeUnresolved},
		},
	}
	card := Generate(result, rubric.For(types.ContextNewLead), nil)
	if card.Phase != types.PhaseExplain || !strings.Contains(card.Insight, "1 objection") {
		t.Fatalf("card: %+v", card)
	}
}

func TestGenerateMaintainCard(t *testing.T) {
	t.Parallel()

	result := types.ScoringResult{
		OverallScore: 88,
		Scores:       scores(map[types.Phase]float64{types.PhaseOpening: 90, types.PhaseReinforce: 85}),
	}
	card := Generate(result, rubric.For(types.ContextNewLead), nil)
	if card.Phase != "" || !strings.Contains(card.Insight, "88%") {
		t.Fatalf("card: %+v", card)
	}
}

func TestForTeam(t *testing.T) {
	t.Parallel()

	empty := ForTeam(aggregator.ObjectionReport{})
	if !strings.Contains(empty.Insight, "No objections") {
		t.Fatalf("empty: %+v", empty)
	}

	report := aggregator.ObjectionReport{Categories: []aggregator.CategoryStats{
		{Category: types.CategoryPrice, Count: 10, SuccessRate: 60},
		{Category: types.CategoryTrust, Count: 4, SuccessRate: 25},
	}}
	card := ForTeam(report)
	if !strings.Contains(card.Insight, "trust") {
		t.Fatalf("card: %+v", card)
	}
}
