// Package script loads the reference sales script: approved phrasing, pricing and
// teacher credentials used to steer prompts. It is prompt content, never config.
package script

import (
	_ "embed"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"closer-insights-go/internal/types"
)

//go:embed default_script.yaml
var defaultScriptYAML []byte

type Teacher struct {
	Name        string   `yaml:"name" json:"name"`
	Credentials []string `yaml:"credentials" json:"credentials"`
}

type CourseDetails struct {
	Teacher  Teacher `yaml:"teacher" json:"teacher"`
	Schedule string  `yaml:"schedule" json:"schedule"`
}

type Tier struct {
	Price       string   `yaml:"price" json:"price"`
	Description string   `yaml:"description" json:"description"`
	Features    []string `yaml:"features" json:"features"`
}

type PhaseScript struct {
	ExactScript      []string `yaml:"exact_script" json:"exact_script"`
	CommonObjections []string `yaml:"common_objections" json:"common_objections,omitempty"`
}

type Script struct {
	CourseDetails CourseDetails               `yaml:"course_details" json:"course_details"`
	Pricing       map[string]Tier             `yaml:"pricing" json:"pricing"`
	CloserPhases  map[types.Phase]PhaseScript `yaml:"closer_phases" json:"closer_phases"`
}

// Default returns the embedded script.
func Default() *Script {
	s, err := Parse(defaultScriptYAML)
	if err != nil {
		panic(fmt.Sprintf("embedded reference script: %v", err))
	}
	return s
}

// Load reads a YAML or JSON script. An empty path yields the embedded default.
func Load(path string) (*Script, error) {
	if strings.TrimSpace(path) == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read reference script: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML; JSON documents are valid YAML and decode the same way.
func Parse(data []byte) (*Script, error) {
	var s Script
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decode reference script: %w", err)
	}
	for phase := range s.CloserPhases {
		if !phase.Valid() {
			return nil, fmt.Errorf("reference script: unknown phase %q", phase)
		}
	}
	return &s, nil
}

// Phase returns the approved phrasing for one phase.
func (s *Script) Phase(p types.Phase) PhaseScript {
	if s == nil {
		return PhaseScript{}
	}
	return s.CloserPhases[p]
}

// ReferenceText renders the script block embedded in the system prompt, limited to
// the given phases.
func (s *Script) ReferenceText(phases []types.Phase) string {
	if s == nil {
		return ""
	}
	var b strings.Builder

	t := s.CourseDetails.Teacher
	if t.Name != "" || len(t.Credentials) > 0 {
		b.WriteString("TEACHER: " + t.Name + "\n")
		for _, c := range t.Credentials {
			b.WriteString("  - " + c + "\n")
		}
	}
	if s.CourseDetails.Schedule != "" {
		b.WriteString("SCHEDULE: " + s.CourseDetails.Schedule + "\n")
	}

	if len(s.Pricing) > 0 {
		b.WriteString("PRICING (quote exactly, never invent discounts):\n")
		tiers := make([]string, 0, len(s.Pricing))
		for name := range s.Pricing {
			tiers = append(tiers, name)
		}
		sort.Strings(tiers)
		for _, name := range tiers {
			tier := s.Pricing[name]
			fmt.Fprintf(&b, "  - %s: %s", name, tier.Price)
			if tier.Description != "" {
				b.WriteString(" (" + tier.Description + ")")
			}
			b.WriteString("\n")
		}
	}

	for _, p := range phases {
		ps := s.CloserPhases[p]
		if len(ps.ExactScript) == 0 && len(ps.CommonObjections) == 0 {
			continue
		}
		fmt.Fprintf(&b, "APPROVED PHRASING [%s]:\n", p)
		for _, line := range ps.ExactScript {
			b.WriteString("  \"" + line + "\"\n")
		}
		for _, o := range ps.CommonObjections {
			b.WriteString("  common objection: " + o + "\n")
		}
	}
	return b.String()
}
