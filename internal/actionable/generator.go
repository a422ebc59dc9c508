// Package actionable turns a scored call into one coaching card for the rep's manager.
package actionable

import (
	"fmt"
	"math"

	"closer-insights-go/internal/aggregator"
	"closer-insights-go/internal/rubric"
	"closer-insights-go/internal/scoring"
	"closer-insights-go/internal/script"
	"closer-insights-go/internal/types"
)

// CoachingThreshold is the phase score below which a card asks for coaching.
const CoachingThreshold = 60.0

type ActionCard struct {
	Phase   types.Phase `json:"phase,omitempty"`
	Insight string      `json:"insight"`
	Action  string      `json:"action"`
	Impact  string      `json:"impact"`
}

// Generate picks the weakest retained phase and, when it is below the threshold,
// coaches it with the approved phrasing from the reference script.
func Generate(result types.ScoringResult, policy rubric.Policy, ref *script.Script) ActionCard {
	if scoring.IsFallback(result) {
		return ActionCard{
			Insight: "Automated analysis was unavailable for this call",
			Action:  "Re-score the call once the reasoning service is healthy, or review it manually",
			Impact:  "No coaching signal until the call is scored",
		}
	}

	weakest, ok := weakestPhase(result.Scores, policy)
	if ok && weakest.Score < CoachingThreshold {
		def, _ := rubric.Lookup(weakest.Phase)
		action := fmt.Sprintf("Coach the %s phase", def.Name)
		if lines := ref.Phase(weakest.Phase).ExactScript; len(lines) > 0 {
			action += fmt.Sprintf(". Practise the approved line: %q", lines[0])
		} else if len(weakest.Improvements) > 0 && weakest.Improvements[0] != "" {
			action += ". " + weakest.Improvements[0]
		}
		return ActionCard{
			Phase:   weakest.Phase,
			Insight: fmt.Sprintf("Weakest phase: %s (%.0f%%)", def.Name, weakest.Score),
			Action:  action,
			Impact:  fmt.Sprintf("%s carries %.0f%% of the overall score", def.Name, rubric.Weights[weakest.Phase]*100),
		}
	}

	if missed := missedAAA(result.ObjectionsDetected); missed > 0 {
		return ActionCard{
			Phase:   types.PhaseExplain,
			Insight: fmt.Sprintf("%d objection(s) handled without Acknowledge, Associate, Ask", missed),
			Action:  "Role-play the AAA pattern on the objections raised in this call",
			Impact:  "Better objection handling moves more calls to a decision",
		}
	}

	return ActionCard{
		Insight: fmt.Sprintf("Solid call, overall %.0f%%", result.OverallScore),
		Action:  "Keep following the script and share this call as an example",
		Impact:  "Low immediate intervention",
	}
}

// ForTeam summarises an objection report into one card for the whole team.
func ForTeam(report aggregator.ObjectionReport) ActionCard {
	var worst *aggregator.CategoryStats
	for i := range report.Categories {
		c := &report.Categories[i]
		if worst == nil || c.SuccessRate < worst.SuccessRate {
			worst = c
		}
	}
	if worst == nil {
		return ActionCard{
			Insight: "No objections recorded yet",
			Action:  "Monitor and collect more calls",
			Impact:  "Low immediate intervention",
		}
	}
	return ActionCard{
		Phase:   types.PhaseExplain,
		Insight: fmt.Sprintf("%s objections are handled well only %.0f%% of the time (%d seen)", worst.Category, worst.SuccessRate, worst.Count),
		Action:  fmt.Sprintf("Run a team session on %s objections using the AAA pattern (current AAA rate %.0f%%)", worst.Category, worst.AAARate),
		Impact:  "Raise conversion on the most commonly lost objection",
	}
}

func weakestPhase(scores []types.PhaseScore, policy rubric.Policy) (types.PhaseScore, bool) {
	best := types.PhaseScore{Score: math.Inf(1)}
	found := false
	for _, s := range scores {
		if policy.Excludes(s.Phase) {
			continue
		}
		if s.Score < best.Score {
			best = s
			found = true
		}
	}
	return best, found
}

func missedAAA(objections []types.Objection) int {
	n := 0
	for _, o := range objections {
		if !o.UsedAAA && o.OutcomeAfter != types.OutcomeHandledWell {
			n++
		}
	}
	return n
}
