package rubric

import (
	"math"
	"reflect"
	"strings"
	"testing"

	"closer-insights-go/internal/types"
)

func TestWeightsCoverAllPhasesAndSumToOne(t *testing.T) {
	t.Parallel()

	sum := 0.0
	for _, p := range types.AllPhases {
		w, ok := Weights[p]
		if !ok {
			t.Fatalf("missing weight for %s", p)
		}
		if _, ok := Lookup(p); !ok {
			t.Fatalf("missing definition for %s", p)
		}
		sum += w
	}
	if math.Abs(sum-1.0) > 1e-9 {
		t.Fatalf("weights sum mismatch: got %v want 1.0", sum)
	}
}

func TestPolicyTable(t *testing.T) {
	t.Parallel()

	cases := []struct {
		ctx      types.CallContext
		excluded []types.Phase
		adapted  []types.Phase
	}{
		{types.ContextNewLead, nil, nil},
		{types.ContextBookedCall, nil, []types.Phase{types.PhaseClarify}},
		{types.ContextWarmLead, []types.Phase{types.PhaseClarify, types.PhaseLabel, types.PhaseOverview}, []types.Phase{types.PhaseOpening, types.PhaseSellVacation}},
		{types.ContextFollowUp, []types.Phase{types.PhaseClarify, types.PhaseLabel, types.PhaseOverview}, []types.Phase{types.PhaseOpening, types.PhaseSellVacation}},
	}
	for _, tc := range cases {
		p := For(tc.ctx)
		if !reflect.DeepEqual(p.Excluded, tc.excluded) {
			t.Fatalf("%s excluded mismatch: got %v want %v", tc.ctx, p.Excluded, tc.excluded)
		}
		if got, want := len(p.Retained()), len(types.AllPhases)-len(tc.excluded); got != want {
			t.Fatalf("%s retained count mismatch: got %d want %d", tc.ctx, got, want)
		}
		for _, phase := range tc.adapted {
			base, _ := Lookup(phase)
			if p.Criteria(phase) == base.Criteria {
				t.Fatalf("%s: %s criteria not adapted", tc.ctx, phase)
			}
		}
		if p.ContextDescription == "" {
			t.Fatalf("%s: empty context description", tc.ctx)
		}
	}
}

func TestBookedCallClarifyForbidsPenalisingBookingQuestions(t *testing.T) {
	t.Parallel()

	text := For(types.ContextBookedCall).Criteria(types.PhaseClarify)
	if !strings.Contains(text, "Do NOT penalise") {
		t.Fatalf("booked clarify text missing the no-penalty rule: %q", text)
	}
}

func TestWarmAndFollowUpDifferInWording(t *testing.T) {
	t.Parallel()

	warm := For(types.ContextWarmLead)
	follow := For(types.ContextFollowUp)
	if !reflect.DeepEqual(warm.Excluded, follow.Excluded) {
		t.Fatalf("warm and follow-up must exclude the same phases")
	}
	if warm.Criteria(types.PhaseOpening) == follow.Criteria(types.PhaseOpening) {
		t.Fatal("follow-up opening should emphasise recap, not continuity")
	}
	if !strings.Contains(strings.ToLower(follow.Criteria(types.PhaseReinforce)), "decision") {
		t.Fatal("follow-up reinforce should focus on the decision")
	}
}

func TestUnknownContextGetsFullRubric(t *testing.T) {
	t.Parallel()

	p := For(types.CallContext("mystery"))
	if got, want := p.Context, types.ContextNewLead; got != want {
		t.Fatalf("context mismatch: got %q want %q", got, want)
	}
	if len(p.Excluded) != 0 {
		t.Fatalf("expected no exclusions, got %v", p.Excluded)
	}
}
