package speaker

import (
	_ "embed"
	"fmt"
	"os"
	"regexp"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"closer-insights-go/internal/types"
)

//go:embed patterns.yaml
var defaultPatternsYAML []byte

// patternFile mirrors patterns.yaml.
type patternFile struct {
	LabelTokens        []string                `yaml:"label_tokens"`
	RepLabelWords      []string                `yaml:"rep_label_words"`
	ProspectLabelWords []string                `yaml:"prospect_label_words"`
	RepIndicators      []string                `yaml:"rep_indicators"`
	ProspectIndicators []string                `yaml:"prospect_indicators"`
	Sniff              sniffFile               `yaml:"sniff"`
	Directional        map[string]indicatorSet `yaml:"directional"`
}

type sniffFile struct {
	ProspectFirst []string `yaml:"prospect_first"`
	SelfIntro     []string `yaml:"self_intro"`
}

type indicatorSet struct {
	RepIndicators      []string `yaml:"rep_indicators"`
	ProspectIndicators []string `yaml:"prospect_indicators"`
}

type compiledSet struct {
	rep      []*regexp.Regexp
	prospect []*regexp.Regexp
}

// Patterns holds the compiled attribution tables. It is read-only after
// construction and safe to share.
type Patterns struct {
	labelLine          *regexp.Regexp
	repLabelWords      []string
	prospectLabelWords []string
	base               compiledSet
	directional        map[types.CallDirection]compiledSet
	prospectFirst      []*regexp.Regexp
	selfIntro          []*regexp.Regexp
}

var (
	defaultOnce     sync.Once
	defaultPatterns *Patterns
)

// Default returns the embedded tables.
func Default() *Patterns {
	defaultOnce.Do(func() {
		p, err := Parse(defaultPatternsYAML)
		if err != nil {
			panic(fmt.Sprintf("embedded speaker patterns: %v", err))
		}
		defaultPatterns = p
	})
	return defaultPatterns
}

// Load reads tables from a YAML file. An empty path yields the embedded defaults.
func Load(path string) (*Patterns, error) {
	if strings.TrimSpace(path) == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read speaker patterns: %w", err)
	}
	return Parse(data)
}

// Parse compiles tables from YAML.
func Parse(data []byte) (*Patterns, error) {
	var file patternFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("decode speaker patterns: %w", err)
	}
	if len(file.LabelTokens) == 0 {
		return nil, fmt.Errorf("speaker patterns: label_tokens is empty")
	}

	labelLine, err := regexp.Compile(`(?i)^(` + strings.Join(file.LabelTokens, "|") + `)\s*:\s*(.*)$`)
	if err != nil {
		return nil, fmt.Errorf("compile label tokens: %w", err)
	}

	p := &Patterns{
		labelLine:          labelLine,
		repLabelWords:      lowerAll(file.RepLabelWords),
		prospectLabelWords: lowerAll(file.ProspectLabelWords),
		directional:        map[types.CallDirection]compiledSet{},
	}
	if p.base, err = compileSet(indicatorSet{RepIndicators: file.RepIndicators, ProspectIndicators: file.ProspectIndicators}); err != nil {
		return nil, err
	}
	for name, set := range file.Directional {
		dir, err := types.ParseCallDirection(name)
		if err != nil || dir == types.DirectionUnknown {
			return nil, fmt.Errorf("speaker patterns: unknown direction %q", name)
		}
		compiled, err := compileSet(set)
		if err != nil {
			return nil, fmt.Errorf("direction %s: %w", name, err)
		}
		p.directional[dir] = compiled
	}
	if p.prospectFirst, err = compileAll(file.Sniff.ProspectFirst); err != nil {
		return nil, fmt.Errorf("sniff prospect_first: %w", err)
	}
	if p.selfIntro, err = compileAll(file.Sniff.SelfIntro); err != nil {
		return nil, fmt.Errorf("sniff self_intro: %w", err)
	}
	return p, nil
}

// MatchLabelLine splits "TOKEN: text" into label and text when the line opens with
// a known role token.
func (p *Patterns) MatchLabelLine(line string) (label, text string, ok bool) {
	m := p.labelLine.FindStringSubmatch(line)
	if m == nil {
		return "", "", false
	}
	return strings.TrimSpace(m[1]), strings.TrimSpace(m[2]), true
}

// ProspectSpeaksFirst decides the opening party of an unlabeled transcript from its
// first line: greeting or interest phrasing without a self-introduction means the
// prospect opened the call.
func (p *Patterns) ProspectSpeaksFirst(firstLine string) bool {
	text := normalizeText(firstLine)
	if anyMatch(p.selfIntro, text) {
		return false
	}
	return anyMatch(p.prospectFirst, text)
}

// ContentScore is the content pass for one segment: +10 per rep indicator that
// matches, -10 per prospect indicator.
func (p *Patterns) ContentScore(text string, dir types.CallDirection) int {
	text = normalizeText(text)
	score := p.base.score(text)
	if set, ok := p.directional[dir]; ok {
		score += set.score(text)
	}
	return score
}

// LabelBias is the explicit label pass: +100 when the digit-stripped label names a
// rep role, -100 when it names a prospect role. Rep words win when a label has both.
func (p *Patterns) LabelBias(label string) int {
	l := strings.ToLower(stripDigits(label))
	for _, w := range p.repLabelWords {
		if strings.Contains(l, w) {
			return labelWeight
		}
	}
	for _, w := range p.prospectLabelWords {
		if strings.Contains(l, w) {
			return -labelWeight
		}
	}
	return 0
}

func (s compiledSet) score(text string) int {
	score := 0
	for _, re := range s.rep {
		if re.MatchString(text) {
			score += contentWeight
		}
	}
	for _, re := range s.prospect {
		if re.MatchString(text) {
			score -= contentWeight
		}
	}
	return score
}

func compileSet(set indicatorSet) (compiledSet, error) {
	rep, err := compileAll(set.RepIndicators)
	if err != nil {
		return compiledSet{}, fmt.Errorf("rep_indicators: %w", err)
	}
	prospect, err := compileAll(set.ProspectIndicators)
	if err != nil {
		return compiledSet{}, fmt.Errorf("prospect_indicators: %w", err)
	}
	return compiledSet{rep: rep, prospect: prospect}, nil
}

func compileAll(exprs []string) ([]*regexp.Regexp, error) {
	out := make([]*regexp.Regexp, 0, len(exprs))
	for _, expr := range exprs {
		re, err := regexp.Compile("(?i)" + expr)
		if err != nil {
			return nil, fmt.Errorf("compile %q: %w", expr, err)
		}
		out = append(out, re)
	}
	return out, nil
}

func anyMatch(res []*regexp.Regexp, text string) bool {
	for _, re := range res {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}

func lowerAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.ToLower(strings.TrimSpace(s)); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func stripDigits(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return -1
		}
		return r
	}, s)
}

// normalizeText folds typographic apostrophes so the tables only need ASCII quotes.
func normalizeText(s string) string {
	return strings.NewReplacer("’", "'", "‘", "'").Replace(strings.TrimSpace(s))
}
