package aggregator

import (
	"sort"
	"strings"
	"unicode/utf8"

	"closer-insights-go/internal/types"
)

// normalizedObjectionLen caps the grouping key of TopObjections.
const normalizedObjectionLen = 80

// CallObjections ties extracted objections to the call and rep they came from.
type CallObjections struct {
	CallID     string            `json:"call_id"`
	RepName    string            `json:"rep_name"`
	Objections []types.Objection `json:"objections"`
}

type CategoryStats struct {
	Category         types.ObjectionCategory `json:"category"`
	Count            int                     `json:"count"`
	SuccessRate      float64                 `json:"success_rate"`
	AAARate          float64                 `json:"aaa_rate"`
	AvgHandlingScore float64                 `json:"avg_handling_score"`
}

type RepStats struct {
	RepName          string  `json:"rep_name"`
	Calls            int     `json:"calls"`
	Objections       int     `json:"objections"`
	SuccessRate      float64 `json:"success_rate"`
	AAARate          float64 `json:"aaa_rate"`
	AvgHandlingScore float64 `json:"avg_handling_score"`
}

type ObjectionCount struct {
	Objection string                  `json:"objection"`
	Category  types.ObjectionCategory `json:"category"`
	Count     int                     `json:"count"`
}

type TopResponse struct {
	CallID        string                  `json:"call_id"`
	RepName       string                  `json:"rep_name"`
	Objection     string                  `json:"objection"`
	Category      types.ObjectionCategory `json:"category"`
	RepResponse   string                  `json:"rep_response"`
	HandlingScore float64                 `json:"handling_score"`
}

// ObjectionReport bundles every rollup the dashboard needs.
type ObjectionReport struct {
	TotalObjections int              `json:"total_objections"`
	Categories      []CategoryStats  `json:"categories"`
	Reps            []RepStats       `json:"reps"`
	TopObjections   []ObjectionCount `json:"top_objections"`
	TopResponses    []TopResponse    `json:"top_responses"`
}

// BuildObjectionReport runs all rollups over the same input.
func BuildObjectionReport(calls []CallObjections, topN int) ObjectionReport {
	total := 0
	for _, c := range calls {
		total += len(c.Objections)
	}
	return ObjectionReport{
		TotalObjections: total,
		Categories:      CategoryBreakdown(calls),
		Reps:            RepBreakdown(calls),
		TopObjections:   TopObjections(calls, topN),
		TopResponses:    TopResponses(calls, topN),
	}
}

type tally struct {
	count, handledWell, aaa int
	scoreSum                float64
}

func (t *tally) add(o types.Objection) {
	t.count++
	if o.OutcomeAfter == types.OutcomeHandledWell {
		t.handledWell++
	}
	if o.UsedAAA {
		t.aaa++
	}
	t.scoreSum += o.HandlingScore
}

func (t tally) avg() float64 {
	if t.count == 0 {
		return 0
	}
	return round1(t.scoreSum / float64(t.count))
}

// CategoryBreakdown counts objections per category, most frequent first. Categories
// with no objections are omitted; an empty input gives an empty slice.
func CategoryBreakdown(calls []CallObjections) []CategoryStats {
	tallies := map[types.ObjectionCategory]*tally{}
	for _, c := range calls {
		for _, o := range c.Objections {
			t, ok := tallies[o.Category]
			if !ok {
				t = &tally{}
				tallies[o.Category] = t
			}
			t.add(o)
		}
	}
	out := make([]CategoryStats, 0, len(tallies))
	for cat, t := range tallies {
		out = append(out, CategoryStats{
			Category:         cat,
			Count:            t.count,
			SuccessRate:      round1(rate(t.handledWell, t.count) * 100),
			AAARate:          round1(rate(t.aaa, t.count) * 100),
			AvgHandlingScore: t.avg(),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Category < out[j].Category
	})
	return out
}

// RepBreakdown rolls objection handling up per salesperson. Calls without a rep name
// are grouped under "unknown".
func RepBreakdown(calls []CallObjections) []RepStats {
	type repTally struct {
		tally
		calls int
	}
	tallies := map[string]*repTally{}
	for _, c := range calls {
		name := strings.TrimSpace(c.RepName)
		if name == "" {
			name = "unknown"
		}
		t, ok := tallies[name]
		if !ok {
			t = &repTally{}
			tallies[name] = t
		}
		t.calls++
		for _, o := range c.Objections {
			t.add(o)
		}
	}
	out := make([]RepStats, 0, len(tallies))
	for name, t := range tallies {
		out = append(out, RepStats{
			RepName:          name,
			Calls:            t.calls,
			Objections:       t.count,
			SuccessRate:      round1(rate(t.handledWell, t.count) * 100),
			AAARate:          round1(rate(t.aaa, t.count) * 100),
			AvgHandlingScore: t.avg(),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].AvgHandlingScore != out[j].AvgHandlingScore {
			return out[i].AvgHandlingScore > out[j].AvgHandlingScore
		}
		return out[i].RepName < out[j].RepName
	})
	return out
}

// TopObjections groups objections by a lowercase, whitespace-collapsed, truncated
// form of their text and returns the n most frequent.
func TopObjections(calls []CallObjections, n int) []ObjectionCount {
	index := map[string]int{}
	var out []ObjectionCount
	for _, c := range calls {
		for _, o := range c.Objections {
			key := NormalizeObjection(o.Objection)
			if key == "" {
				continue
			}
			i, ok := index[key]
			if !ok {
				i = len(out)
				index[key] = i
				out = append(out, ObjectionCount{Objection: key, Category: o.Category})
			}
			out[i].Count++
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	return limit(out, n)
}

// TopResponses returns the n highest scoring rep responses.
func TopResponses(calls []CallObjections, n int) []TopResponse {
	out := []TopResponse{}
	for _, c := range calls {
		for _, o := range c.Objections {
			if strings.TrimSpace(o.RepResponse) == "" {
				continue
			}
			out = append(out, TopResponse{
				CallID:        c.CallID,
				RepName:       c.RepName,
				Objection:     o.Objection,
				Category:      o.Category,
				RepResponse:   o.RepResponse,
				HandlingScore: o.HandlingScore,
			})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].HandlingScore > out[j].HandlingScore })
	return limit(out, n)
}

// NormalizeObjection is the grouping key used by TopObjections.
func NormalizeObjection(s string) string {
	s = strings.Join(strings.Fields(strings.ToLower(s)), " ")
	if utf8.RuneCountInString(s) > normalizedObjectionLen {
		s = string([]rune(s)[:normalizedObjectionLen])
	}
	return strings.TrimSpace(s)
}

func limit[T any](in []T, n int) []T {
	if in == nil {
		in = []T{}
	}
	if n > 0 && len(in) > n {
		return in[:n]
	}
	return in
}
