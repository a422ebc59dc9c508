// Package transcript turns pasted transcripts and ASR output into ordered segments.
package transcript

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"closer-insights-go/internal/speaker"
	"closer-insights-go/internal/types"
)

// Format is the layout detected in a raw transcript.
type Format string

const (
	FormatEmpty       Format = "empty"
	FormatTimestamped Format = "timestamped"
	FormatLabeled     Format = "labeled"
	FormatUnlabeled   Format = "unlabeled"
)

// Synthetic labels for unlabeled transcripts. They carry role words so the
// resolver's label pass keeps the sniffed order.
const (
	SyntheticRepLabel      = "Rep"
	SyntheticProspectLabel = "Prospect"
)

// "[12:34] Name (Role): text" or "[01:02:03] Label: text"
var timestampedLine = regexp.MustCompile(`^\[(\d{1,2}:\d{2}(?::\d{2})?)\]\s*([^:()]+?)\s*(?:\(([^)]*)\))?\s*:\s*(.*)$`)

var sentence = regexp.MustCompile(`[^.!?]+[.!?]*`)

// ParseText splits a raw transcript into raw segments. Lines that do not open a new
// utterance inside a recognized format continue the previous segment. Empty input
// yields no segments.
func ParseText(raw string, patterns *speaker.Patterns) ([]types.RawSegment, Format) {
	if patterns == nil {
		patterns = speaker.Default()
	}
	lines := splitLines(raw)
	if len(lines) == 0 {
		return []types.RawSegment{}, FormatEmpty
	}

	format := detect(lines, patterns)
	switch format {
	case FormatTimestamped, FormatLabeled:
		return parseDialogue(lines, format, patterns), format
	default:
		return parseUnlabeled(lines, patterns), format
	}
}

func detect(lines []string, patterns *speaker.Patterns) Format {
	for _, line := range lines {
		if timestampedLine.MatchString(line) {
			return FormatTimestamped
		}
	}
	for _, line := range lines {
		if _, _, ok := patterns.MatchLabelLine(line); ok {
			return FormatLabeled
		}
	}
	return FormatUnlabeled
}

func parseDialogue(lines []string, format Format, patterns *speaker.Patterns) []types.RawSegment {
	var out []types.RawSegment
	lastStart := 0.0
	for _, line := range lines {
		if format == FormatTimestamped {
			if m := timestampedLine.FindStringSubmatch(line); m != nil {
				start, err := parseClock(m[1])
				if err != nil {
					start = lastStart
				}
				lastStart = start
				out = append(out, types.RawSegment{
					RawLabel:  mergeLabel(m[2], m[3]),
					Text:      strings.TrimSpace(m[4]),
					StartTime: start,
				})
				continue
			}
		}
		if label, text, ok := patterns.MatchLabelLine(line); ok {
			out = append(out, types.RawSegment{RawLabel: label, Text: text, StartTime: lastStart})
			continue
		}
		if len(out) == 0 {
			// preamble before the first speaker line; resolved positionally
			out = append(out, types.RawSegment{Text: line, StartTime: lastStart})
			continue
		}
		out[len(out)-1].Text = joinText(out[len(out)-1].Text, line)
	}
	return out
}

func parseUnlabeled(lines []string, patterns *speaker.Patterns) []types.RawSegment {
	if len(lines) == 1 {
		lines = splitSentences(lines[0])
	}
	labels := [2]string{SyntheticRepLabel, SyntheticProspectLabel}
	if patterns.ProspectSpeaksFirst(lines[0]) {
		labels = [2]string{SyntheticProspectLabel, SyntheticRepLabel}
	}
	out := make([]types.RawSegment, 0, len(lines))
	for i, line := range lines {
		out = append(out, types.RawSegment{RawLabel: labels[i%2], Text: line})
	}
	return out
}

// Normalize parses and resolves a raw transcript in one step.
func Normalize(raw string, resolver *speaker.Resolver, dir types.CallDirection) []types.TranscriptSegment {
	if resolver == nil {
		resolver = speaker.NewResolver(nil)
	}
	segments, _ := ParseText(raw, resolver.Patterns())
	if len(segments) == 0 {
		return []types.TranscriptSegment{}
	}
	return speaker.Apply(segments, resolver.ResolveDirected(segments, dir))
}

// Render formats segments as "[mm:ss] ROLE: text" lines.
func Render(segments []types.TranscriptSegment) string {
	var b strings.Builder
	for _, seg := range segments {
		total := int(seg.StartTime)
		fmt.Fprintf(&b, "[%02d:%02d] %s: %s\n", total/60, total%60, strings.ToUpper(string(seg.Speaker)), seg.Text)
	}
	return b.String()
}

func mergeLabel(name, role string) string {
	name = strings.TrimSpace(name)
	role = strings.TrimSpace(role)
	switch {
	case role == "":
		return name
	case name == "":
		return role
	default:
		return name + " (" + role + ")"
	}
}

// parseClock accepts MM:SS and HH:MM:SS.
func parseClock(s string) (float64, error) {
	parts := strings.Split(s, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, fmt.Errorf("bad timestamp %q", s)
	}
	total := 0
	for _, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return 0, fmt.Errorf("bad timestamp %q: %w", s, err)
		}
		total = total*60 + n
	}
	return float64(total), nil
}

func splitLines(raw string) []string {
	raw = strings.ReplaceAll(raw, "\r\n", "\n")
	var out []string
	for _, line := range strings.Split(raw, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return out
}

func splitSentences(text string) []string {
	var out []string
	for _, s := range sentence.FindAllString(text, -1) {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return []string{strings.TrimSpace(text)}
	}
	return out
}

func joinText(prev, next string) string {
	if prev == "" {
		return next
	}
	return prev + " " + next
}
