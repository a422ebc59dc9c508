package scoring

import (
	"fmt"
	"strings"

	"closer-insights-go/internal/rubric"
	"closer-insights-go/internal/script"
	"closer-insights-go/internal/transcript"
	"closer-insights-go/internal/types"
)

// BuildSystemPrompt embeds the retained-phase rubric and the reference script.
func BuildSystemPrompt(policy rubric.Policy, ref *script.Script) string {
	retained := policy.Retained()

	var b strings.Builder
	b.WriteString(`You are an expert sales call analyst for an online tutoring company.
You score sales calls against the CLOSER methodology: Opening, Clarify, Label, Overview, Sell the outcome, Price presentation, Explain (objections), Reinforce.
Use ONLY the transcript as evidence. Quotes must be copied verbatim from the transcript.

`)
	b.WriteString("CALL CONTEXT:\n" + policy.ContextDescription + "\n\n")

	b.WriteString("PHASES TO SCORE:\n")
	for _, phase := range retained {
		def, _ := rubric.Lookup(phase)
		fmt.Fprintf(&b, "\n## %s (%s), weight %.0f%%\n", def.Name, phase, rubric.Weights[phase]*100)
		b.WriteString("Criteria: " + policy.Criteria(phase) + "\n")
		if len(def.Required) > 0 {
			b.WriteString("Required elements:\n")
			for _, r := range def.Required {
				b.WriteString("  - " + r + "\n")
			}
		}
		if len(def.RedFlags) > 0 {
			b.WriteString("Red flags:\n")
			for _, r := range def.RedFlags {
				b.WriteString("  - " + r + "\n")
			}
		}
	}

	if len(policy.Excluded) > 0 {
		names := make([]string, 0, len(policy.Excluded))
		for _, p := range policy.Excluded {
			names = append(names, string(p))
		}
		b.WriteString("\nNOT SCORED FOR THIS CALL CONTEXT (do not score or penalise): " + strings.Join(names, ", ") + "\n")
	}

	b.WriteString("\nSCORING SCALE:\n" + rubric.ScoreScale + "\n")

	if ref != nil {
		if text := ref.ReferenceText(retained); text != "" {
			b.WriteString("\nREFERENCE SCRIPT (approved language; every improvement you suggest must use this phrasing, prices and credentials, never invent your own):\n")
			b.WriteString(text)
		}
	}

	b.WriteString(`
OBJECTIONS:
List every objection the customer raised. Categories: ` + types.ObjectionCategoryList(", ") + `.
used_aaa is true only when the rep Acknowledged, Associated and Asked.

Respond with a single JSON object and nothing else.`)
	return b.String()
}

// BuildUserPrompt renders the transcript and the response template limited to the
// retained phases.
func BuildUserPrompt(segments []types.TranscriptSegment, policy rubric.Policy) string {
	retained := policy.Retained()

	var b strings.Builder
	b.WriteString("TRANSCRIPT:\n")
	b.WriteString(transcript.Render(segments))
	b.WriteString("\nReturn ONLY valid JSON (no markdown, no commentary) matching this template exactly:\n")
	b.WriteString("{\n  \"scores\": [\n")
	for i, phase := range retained {
		fmt.Fprintf(&b, `    {"phase": "%s", "score": 0, "feedback": "", "highlights": [""], "improvements": [""], "quotes": [{"text": "", "sentiment": "positive|negative|neutral", "timestamp": "mm:ss"}]}`, phase)
		if i < len(retained)-1 {
			b.WriteString(",")
		}
		b.WriteString("\n")
	}
	b.WriteString("  ],\n")
	b.WriteString(`  "objections_detected": [{"objection": "", "category": "` + types.ObjectionCategoryList("|") + `", "handling_score": 0, "used_aaa": false, "rep_response": "", "outcome_after": "handled_well|handled_poorly|unresolved"}],` + "\n")
	b.WriteString("  \"summary\": \"\"\n}\n\n")

	names := make([]string, 0, len(retained))
	for _, p := range retained {
		names = append(names, string(p))
	}
	b.WriteString("Rules:\n")
	b.WriteString("- Score exactly these phases, each once: " + strings.Join(names, ", ") + ".\n")
	b.WriteString("- score is a percentage from 0 to 100.\n")
	b.WriteString("- objections_detected is an empty array when the customer raised none.\n")
	return b.String()
}
