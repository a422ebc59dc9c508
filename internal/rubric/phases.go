// Package rubric holds the CLOSER phase definitions, the phase weight table and the
// call-context policy that decides which phases are scored.
package rubric

import "closer-insights-go/internal/types"

// Definition is the rubric for one phase.
type Definition struct {
	Phase    types.Phase
	Name     string
	Criteria string
	Required []string
	RedFlags []string
}

// Weights sum to 1.0 over the full phase set.
var Weights = map[types.Phase]float64{
	types.PhaseOverview:          0.20,
	types.PhaseSellVacation:      0.15,
	types.PhasePricePresentation: 0.15,
	types.PhaseClarify:           0.12,
	types.PhaseOpening:           0.10,
	types.PhaseExplain:           0.10,
	types.PhaseReinforce:         0.10,
	types.PhaseLabel:             0.08,
}

var definitions = map[types.Phase]Definition{
	types.PhaseOpening: {
		Phase:    types.PhaseOpening,
		Name:     "Opening",
		Criteria: "Warm, confident introduction. The rep states their name and the company, builds brief rapport and sets an agenda for the call so the customer knows what to expect.",
		Required: []string{"rep name and company stated", "rapport question or comment", "agenda or purpose of the call set"},
		RedFlags: []string{"launching into the pitch without an introduction", "no agenda", "apologising for calling"},
	},
	types.PhaseClarify: {
		Phase:    types.PhaseClarify,
		Name:     "Clarify",
		Criteria: "Discovery. The rep asks open questions about the child's year group, subjects, current grades, target grades and what prompted the enquiry, and listens before pitching.",
		Required: []string{"year group and subject established", "current vs target grade explored", "reason for reaching out now"},
		RedFlags: []string{"closed yes/no questions only", "talking over the customer", "pitching before discovery"},
	},
	types.PhaseLabel: {
		Phase:    types.PhaseLabel,
		Name:     "Label",
		Criteria: "The rep labels the problem back to the customer in their own words and gets explicit agreement that this is the problem to solve.",
		Required: []string{"problem restated in the customer's words", "customer confirms the label"},
		RedFlags: []string{"no summary of the problem", "labeling a problem the customer never raised"},
	},
	types.PhaseOverview: {
		Phase:    types.PhaseOverview,
		Name:     "Overview",
		Criteria: "The rep reviews past attempts to fix the problem (tutors, apps, school support) and why they did not work, creating the gap the offer fills.",
		Required: []string{"past solutions explored", "why they fell short", "pain of the status quo acknowledged"},
		RedFlags: []string{"skipping past attempts", "criticising the customer's past choices"},
	},
	types.PhaseSellVacation: {
		Phase:    types.PhaseSellVacation,
		Name:     "Sell the outcome",
		Criteria: "The rep sells the destination rather than the features: the confidence, grades and future options the child gains, tied back to what the customer said they want.",
		Required: []string{"outcome described in the customer's terms", "link to the stated goal", "credibility of the teacher referenced"},
		RedFlags: []string{"feature dumping", "generic claims with no link to the customer's goal"},
	},
	types.PhasePricePresentation: {
		Phase:    types.PhasePricePresentation,
		Name:     "Price presentation",
		Criteria: "Price is presented confidently using the approved tiers, anchored to value, followed by silence or a direct question rather than justification.",
		Required: []string{"approved tier prices quoted correctly", "value anchored before price", "clear recommendation of a tier"},
		RedFlags: []string{"inventing prices or discounts", "apologising for the price", "rambling after stating the price"},
	},
	types.PhaseExplain: {
		Phase:    types.PhaseExplain,
		Name:     "Explain (objections)",
		Criteria: "Objections are handled with Acknowledge, Associate, Ask: acknowledge the concern, associate it with others who felt the same and succeeded, then ask a question that moves forward.",
		Required: []string{"objection acknowledged", "association with a similar customer", "forward-moving question"},
		RedFlags: []string{"arguing with the customer", "ignoring the objection", "discounting immediately"},
	},
	types.PhaseReinforce: {
		Phase:    types.PhaseReinforce,
		Name:     "Reinforce / close",
		Criteria: "The rep asks for the decision, confirms next steps (payment, start date, onboarding) and reinforces the decision so the customer leaves confident.",
		Required: []string{"direct ask for the sale", "next steps confirmed", "decision reinforced"},
		RedFlags: []string{"no ask", "vague follow-up with no date", "leaving the decision open-ended"},
	},
}

// Lookup returns the base definition of a phase.
func Lookup(p types.Phase) (Definition, bool) {
	d, ok := definitions[p]
	return d, ok
}

// ScoreScale is the rubric for turning a 1–5 judgement into a percentage.
const ScoreScale = `Score each phase on a 1–5 scale, then convert to a percentage:
1 = 20 (missing or harmful)
2 = 40 (attempted, major gaps)
3 = 60 (adequate, several gaps)
4 = 80 (strong, minor gaps)
5 = 100 (textbook execution)
Intermediate percentages are allowed when execution sits between two levels.`
