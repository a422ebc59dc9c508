package rubric

import "closer-insights-go/internal/types"

// Policy is the call-context rule set consumed by prompt construction and by the
// score aggregator. The two must always read the same Policy for a call.
type Policy struct {
	Context            types.CallContext
	Excluded           []types.Phase
	Adapted            map[types.Phase]string
	ContextDescription string
}

var continuityExcluded = []types.Phase{types.PhaseClarify, types.PhaseLabel, types.PhaseOverview}

// For returns the policy of a call context. Unknown contexts get the full rubric.
func For(ctx types.CallContext) Policy {
	switch ctx {
	case types.ContextBookedCall:
		return Policy{
			Context: ctx,
			Adapted: map[types.Phase]string{
				types.PhaseClarify: "The customer booked this call through a form that already captured the child's year group, subjects and current grades. Score how well the rep confirms and builds on those booking answers and digs into motivation. Do NOT penalise the rep for not asking questions whose answers were captured at booking.",
			},
			ContextDescription: "Booked call: the customer scheduled this call in advance and pre-briefed their situation in the booking form.",
		}
	case types.ContextWarmLead:
		return Policy{
			Context:  ctx,
			Excluded: append([]types.Phase(nil), continuityExcluded...),
			Adapted: map[types.Phase]string{
				types.PhaseOpening:      "This is a continuation of an ongoing conversation. Score how well the rep re-engages: references the previous conversation, confirms nothing material has changed and sets today's agenda. Do NOT expect a full re-introduction.",
				types.PhaseSellVacation: "Discovery already happened in earlier conversations. Score how well the rep ties the outcome back to goals the customer shared previously, referencing them explicitly, rather than re-discovering them.",
			},
			ContextDescription: "Warm lead: the rep and customer have spoken before; discovery and problem labeling were done in an earlier conversation.",
		}
	case types.ContextFollowUp:
		return Policy{
			Context:  ctx,
			Excluded: append([]types.Phase(nil), continuityExcluded...),
			Adapted: map[types.Phase]string{
				types.PhaseOpening:      "This is a follow-up call. Score how well the rep opens with a concise recap of the last call and the decision that was pending, then moves straight to the purpose of today's call.",
				types.PhaseSellVacation: "Score how crisply the rep recaps the agreed outcome and why it matters to this customer, as a bridge to closing. Fresh discovery is not expected.",
				types.PhaseReinforce:    "The goal of a follow-up is a decision. Score how directly the rep asks for the decision, handles what held the customer back last time and locks in next steps.",
			},
			ContextDescription: "Follow-up: a previous sales conversation ended without a decision; this call exists to recap and close.",
		}
	default:
		return Policy{
			Context:            types.ContextNewLead,
			ContextDescription: "New lead: first contact with this customer; every phase of the methodology is expected.",
		}
	}
}

// Excludes reports whether p is left out for this context.
func (p Policy) Excludes(phase types.Phase) bool {
	for _, ex := range p.Excluded {
		if ex == phase {
			return true
		}
	}
	return false
}

// Retained lists the scored phases in call order.
func (p Policy) Retained() []types.Phase {
	out := make([]types.Phase, 0, len(types.AllPhases))
	for _, phase := range types.AllPhases {
		if !p.Excludes(phase) {
			out = append(out, phase)
		}
	}
	return out
}

// Criteria returns the rubric text for a phase, adapted when the context asks for it.
func (p Policy) Criteria(phase types.Phase) string {
	if text, ok := p.Adapted[phase]; ok {
		return text
	}
	if d, ok := definitions[phase]; ok {
		return d.Criteria
	}
	return ""
}
