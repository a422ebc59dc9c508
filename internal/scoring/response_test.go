package scoring

import (
	"errors"
	"strings"
	"testing"

	"closer-insights-go/internal/rubric"
	"closer-insights-go/internal/types"
)

func TestParseResultRejects(t *testing.T) {
	t.Parallel()

	full := rubric.For(types.ContextNewLead)
	tests := []struct {
		name string
		raw  string
	}{
		{"no json", "I am unable to comply"},
		{"score above range", strings.Replace(validReply(types.AllPhases, 80), `"score": 80`, `"score": 101`, 1)},
		{"negative score", strings.Replace(validReply(types.AllPhases, 80), `"score": 80`, `"score": -1`, 1)},
		{"missing score", strings.Replace(validReply(types.AllPhases, 80), `"score": 80, `, ``, 1)},
		{"missing feedback", strings.Replace(validReply(types.AllPhases, 80), `"feedback": "ok", `, ``, 1)},
		{"unknown phase", strings.Replace(validReply(types.AllPhases, 80), `"opening"`, `"rapport"`, 1)},
		{"missing phase", validReply(types.AllPhases[1:], 80)},
		{"duplicate phase", validReply(append([]types.Phase{types.PhaseOpening}, types.AllPhases...), 80)},
		{"bad sentiment", strings.Replace(validReply(types.AllPhases, 80), `"positive"`, `"happy"`, 1)},
		{"missing summary", strings.Replace(validReply(types.AllPhases, 80), `, "summary": "fine"`, ``, 1)},
		{"bad objection category", strings.Replace(validReply(types.AllPhases, 80), `"objections_detected": []`,
			`"objections_detected": [{"objection": "too pricey", "category": "money", "handling_score": 50, "used_aaa": false, "rep_response": "", "outcome_after": "unresolved"}]`, 1)},
		{"bad objection outcome", strings.Replace(validReply(types.AllPhases, 80), `"objections_detected": []`,
			`"objections_detected": [{"objection": "too pricey", "category": "price", "handling_score": 50, "used_aaa": false, "rep_response": "", "outcome_after": "maybe"}]`, 1)},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := ParseResult(tt.raw, full)
			if !errors.Is(err, ErrInvalidResponse) {
				t.Fatalf("got err %v, want ErrInvalidResponse", err)
			}
		})
	}
}

func TestParseResultAcceptsEmbeddedObject(t *testing.T) {
	t.Parallel()

	raw := "Here is the assessment:\n" + validReply(types.AllPhases, 40) + "\nLet me know if you need more."
	got, err := ParseResult(raw, rubric.For(types.ContextNewLead))
	if err != nil {
		t.Fatalf("ParseResult: %v", err)
	}
	if got.OverallScore != 0 {
		t.Fatalf("ParseResult must not set the overall score")
	}
	for i, s := range got.Scores {
		if s.Phase != types.AllPhases[i] {
			t.Fatalf("scores not in phase order: %v at %d", s.Phase, i)
		}
	}
}

func TestParseResultNumericTimestamp(t *testing.T) {
	t.Parallel()

	raw := strings.Replace(validReply(types.AllPhases, 80), `"timestamp": "00:01"`, `"timestamp": 75`, 1)
	got, err := ParseResult(raw, rubric.For(types.ContextNewLead))
	if err != nil {
		t.Fatalf("ParseResult: %v", err)
	}
	if ts := got.Scores[0].Quotes[0].Timestamp; ts != "01:15" {
		t.Fatalf("timestamp: got %q want 01:15", ts)
	}
}

func TestParseResultObjections(t *testing.T) {
	t.Parallel()

	raw := strings.Replace(validReply(types.AllPhases, 80), `"objections_detected": []`,
		`"objections_detected": [{"objection": " Too expensive ", "category": "price", "handling_score": 65, "used_aaa": true, "rep_response": "I hear you", "outcome_after": "handled_well"}]`, 1)
	got, err := ParseResult(raw, rubric.For(types.ContextNewLead))
	if err != nil {
		t.Fatalf("ParseResult: %v", err)
	}
	want := types.Objection{
		Objection:     "Too expensive",
		Category:      types.CategoryPrice,
		HandlingScore: 65,
		UsedAAA:       true,
		RepResponse:   "I hear you",
		OutcomeAfter:  types.OutcomeHandledWell,
	}
	if len(got.ObjectionsDetected) != 1 || got.ObjectionsDetected[0] != want {
		t.Fatalf("objections: got %+v want %+v", got.ObjectionsDetected, want)
	}
}
