package aggregator

import (
	"math"

	"closer-insights-go/internal/rubric"
	"closer-insights-go/internal/types"
)

// Overall is the score of record for a call: the weighted mean over the phases that
// were actually scored, renormalized so excluded phases never drag the average down.
// Rounded to one decimal; 0 when nothing was scored.
func Overall(scores []types.PhaseScore) float64 {
	var sum, weights float64
	for _, s := range scores {
		w, ok := rubric.Weights[s.Phase]
		if !ok {
			continue
		}
		sum += s.Score * w
		weights += w
	}
	if weights == 0 {
		return 0
	}
	return round1(sum / weights)
}

// PhaseAverages reduces many results to a mean score per phase. Phases that were
// never scored are absent.
func PhaseAverages(results []types.ScoringResult) map[types.Phase]float64 {
	total := map[types.Phase]float64{}
	count := map[types.Phase]int{}
	for _, r := range results {
		for _, s := range r.Scores {
			total[s.Phase] += s.Score
			count[s.Phase]++
		}
	}
	out := make(map[types.Phase]float64, len(total))
	for p, t := range total {
		out[p] = round1(t / float64(count[p]))
	}
	return out
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// rate returns part/whole, 0 for an empty whole.
func rate(part, whole int) float64 {
	if whole == 0 {
		return 0
	}
	return float64(part) / float64(whole)
}
