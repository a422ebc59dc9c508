package llm

import (
	"encoding/json"
	"regexp"
	"strings"
)

var fencedBlock = regexp.MustCompile("(?s)```(?:json|JSON)?\\s*\\n?(.*?)```")

// ExtractJSON recovers a JSON object from model output: the whole text when it is
// already valid JSON, else the first fenced code block holding valid JSON, else the
// first balanced {...} span.
func ExtractJSON(s string) (string, bool) {
	s = strings.TrimSpace(strings.ReplaceAll(s, "\r\n", "\n"))
	if s == "" {
		return "", false
	}
	if isObject(s) {
		return s, true
	}
	for _, m := range fencedBlock.FindAllStringSubmatch(s, -1) {
		if candidate := strings.TrimSpace(m[1]); isObject(candidate) {
			return candidate, true
		}
	}
	if span := firstObject(s); span != "" && json.Valid([]byte(span)) {
		return span, true
	}
	return "", false
}

func isObject(s string) bool {
	return strings.HasPrefix(s, "{") && json.Valid([]byte(s))
}

// firstObject returns the first balanced {...} span, skipping braces inside strings.
func firstObject(s string) string {
	start := strings.Index(s, "{")
	if start == -1 {
		return ""
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return strings.TrimSpace(s[start : i+1])
			}
		}
	}
	return ""
}
