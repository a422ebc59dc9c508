package transcript

import (
	"strings"
	"testing"

	"closer-insights-go/internal/speaker"
	"closer-insights-go/internal/types"
)

func TestParseTimestampedDialogueMergesContinuations(t *testing.T) {
	t.Parallel()

	raw := strings.Join([]string{
		"[00:00] John (Agent): Hi, this is John from MyEdSpace.",
		"How are you today?",
		"[00:07] Maria (Parent): Good thanks, my son is in year 11.",
		"",
		"[01:02:03] Maria (Parent): He needs help with maths.",
		"  and physics maybe  ",
	}, "\n")

	segments, format := ParseText(raw, nil)
	if got, want := format, FormatTimestamped; got != want {
		t.Fatalf("format mismatch: got %q want %q", got, want)
	}
	if got, want := len(segments), 3; got != want {
		t.Fatalf("segment count mismatch: got %d want %d", got, want)
	}
	if got, want := segments[0].RawLabel, "John (Agent)"; got != want {
		t.Fatalf("label mismatch: got %q want %q", got, want)
	}
	if got, want := segments[0].Text, "Hi, this is John from MyEdSpace. How are you today?"; got != want {
		t.Fatalf("continuation mismatch: got %q want %q", got, want)
	}
	if got, want := segments[1].StartTime, 7.0; got != want {
		t.Fatalf("mm:ss mismatch: got %v want %v", got, want)
	}
	if got, want := segments[2].StartTime, 3723.0; got != want {
		t.Fatalf("hh:mm:ss mismatch: got %v want %v", got, want)
	}
	if got, want := segments[2].Text, "He needs help with maths. and physics maybe"; got != want {
		t.Fatalf("text mismatch: got %q want %q", got, want)
	}
}

func TestParseLabeledDialogue(t *testing.T) {
	t.Parallel()

	raw := "Call notes from Tuesday\nSPEAKER 1: hello there\nspeaker b: hi\nagent: ok so\nlet me explain\nUSER: sure"
	segments, format := ParseText(raw, nil)
	if got, want := format, FormatLabeled; got != want {
		t.Fatalf("format mismatch: got %q want %q", got, want)
	}
	wantLabels := []string{"", "SPEAKER 1", "speaker b", "agent", "USER"}
	if got, want := len(segments), len(wantLabels); got != want {
		t.Fatalf("segment count mismatch: got %d want %d", got, want)
	}
	for i, label := range wantLabels {
		if segments[i].RawLabel != label {
			t.Fatalf("segment %d label mismatch: got %q want %q", i, segments[i].RawLabel, label)
		}
	}
	if got, want := segments[3].Text, "ok so let me explain"; got != want {
		t.Fatalf("continuation mismatch: got %q want %q", got, want)
	}
}

func TestNormalizeLabeledScenario(t *testing.T) {
	t.Parallel()

	raw := "REP: Hi this is John from MyEdSpace.\nPARENT: Hi, I'm calling about the math program.\n"
	segments := Normalize(raw, nil, types.DirectionUnknown)

	if got, want := len(segments), 2; got != want {
		t.Fatalf("segment count mismatch: got %d want %d", got, want)
	}
	if segments[0].Speaker != types.RoleRep || segments[1].Speaker != types.RoleProspect {
		t.Fatalf("unexpected roles: %q, %q", segments[0].Speaker, segments[1].Speaker)
	}
	if segments[0].EndTime != segments[0].StartTime {
		t.Fatalf("untimed segments should have end == start, got %+v", segments[0])
	}
}

func TestNormalizeUnlabeledSniff(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		raw  string
		want []types.Role
	}{
		{
			name: "greeting opens as prospect",
			raw:  "Hi there\nI'm interested in your program\n",
			want: []types.Role{types.RoleProspect, types.RoleRep},
		},
		{
			name: "self introduction opens as rep",
			raw:  "Hello, this is Dana from MyEdSpace\nOh hi\nSo tell me about your child",
			want: []types.Role{types.RoleRep, types.RoleProspect, types.RoleRep},
		},
		{
			name: "neutral first line defaults to rep",
			raw:  "Thanks for your time\nNo problem",
			want: []types.Role{types.RoleRep, types.RoleProspect},
		},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			for run := 0; run < 2; run++ {
				segments := Normalize(tc.raw, nil, types.DirectionUnknown)
				if got, want := len(segments), len(tc.want); got != want {
					t.Fatalf("segment count mismatch: got %d want %d", got, want)
				}
				for i, role := range tc.want {
					if segments[i].Speaker != role {
						t.Fatalf("segment %d role mismatch: got %q want %q", i, segments[i].Speaker, role)
					}
				}
			}
		})
	}
}

func TestParseSingleFreeformLineSplitsSentences(t *testing.T) {
	t.Parallel()

	segments, format := ParseText("Good morning. Who am I speaking with? It's Sam.", nil)
	if got, want := format, FormatUnlabeled; got != want {
		t.Fatalf("format mismatch: got %q want %q", got, want)
	}
	if got, want := len(segments), 3; got != want {
		t.Fatalf("segment count mismatch: got %d want %d", got, want)
	}
	if got, want := segments[1].Text, "Who am I speaking with?"; got != want {
		t.Fatalf("sentence mismatch: got %q want %q", got, want)
	}
}

func TestParseEmptyInput(t *testing.T) {
	t.Parallel()

	segments, format := ParseText(" \n\t\n", nil)
	if format != FormatEmpty {
		t.Fatalf("format mismatch: got %q want %q", format, FormatEmpty)
	}
	if segments == nil || len(segments) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", segments)
	}
	if out := Normalize("", speaker.NewResolver(nil), types.DirectionUnknown); len(out) != 0 {
		t.Fatalf("expected no segments, got %d", len(out))
	}
}

func TestRender(t *testing.T) {
	t.Parallel()

	out := Render([]types.TranscriptSegment{
		{Speaker: types.RoleRep, Text: "Hello", StartTime: 5},
		{Speaker: types.RoleProspect, Text: "Hi", StartTime: 125.6},
	})
	want := "[00:05] REP: Hello\n[02:05] PROSPECT: Hi\n"
	if out != want {
		t.Fatalf("render mismatch:\n got %q\nwant %q", out, want)
	}
}
