package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
)

var templatePhase = regexp.MustCompile(`"phase"\s*:\s*"([a-z_]+)"`)

// MockClient returns deterministic replies for offline demos (USE_MOCK_LLM=true).
// Phase scoring replies echo the phases listed in the prompt's response template.
type MockClient struct{}

func NewMockClient() *MockClient { return &MockClient{} }

func (MockClient) Complete(ctx context.Context, req Request) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	switch req.Task {
	case TaskPhaseScoring:
		return mockScoring(req.User)
	case TaskObjectionExtraction:
		return mockObjections, nil
	}
	return "", fmt.Errorf("mock llm: unsupported task %q", req.Task)
}

func mockScoring(userPrompt string) (string, error) {
	seen := map[string]bool{}
	scores := []map[string]any{}
	for i, m := range templatePhase.FindAllStringSubmatch(userPrompt, -1) {
		phase := m[1]
		if seen[phase] {
			continue
		}
		seen[phase] = true
		scores = append(scores, map[string]any{
			"phase":        phase,
			"score":        60 + (i%3)*10,
			"feedback":     "Mock assessment of " + phase + ".",
			"highlights":   []string{"Followed the approved structure"},
			"improvements": []string{"Use more of the customer's own words"},
			"quotes": []map[string]any{
				{"text": "Thanks for making the time today.", "sentiment": "positive", "timestamp": "00:05"},
			},
		})
	}
	out, err := json.Marshal(map[string]any{
		"overall_score": 0,
		"scores":        scores,
		"objections_detected": []map[string]any{
			{
				"objection":      "It sounds expensive",
				"category":       "price",
				"handling_score": 70,
				"used_aaa":       true,
				"rep_response":   "That makes sense, a lot of parents felt the same at first.",
				"outcome_after":  "handled_well",
			},
		},
		"summary": "Mock analysis: solid structure with room to personalise the outcome.",
	})
	if err != nil {
		return "", fmt.Errorf("mock llm: %w", err)
	}
	return string(out), nil
}

const mockObjections = `{
  "objections": [
    {
      "objection": "It sounds expensive",
      "category": "price",
      "handling_score": 70,
      "used_aaa": true,
      "rep_response": "That makes sense, a lot of parents felt the same at first. What would make it feel worth it?",
      "outcome_after": "handled_well"
    },
    {
      "objection": "I need to check with my partner",
      "category": "partner_approval",
      "handling_score": 45,
      "used_aaa": false,
      "rep_response": "No problem, I'll call back next week.",
      "outcome_after": "unresolved"
    }
  ]
}`
