package transcript

import (
	"encoding/json"
	"testing"

	"closer-insights-go/internal/types"
)

func TestFromASRFlipsOnLongPause(t *testing.T) {
	t.Parallel()

	res := types.ASRResult{Segments: []types.ASRSegment{
		{Start: 0, End: 2, Text: "Hi, this is Lee from MyEdSpace."},
		{Start: 2, End: 4, Text: "Is now a good time?"},
		{Start: 6, End: 8, Text: "Yes, go ahead."},
		{Start: 8, End: 9, Text: "Thanks."},
	}}
	segments := FromASR(res)

	want := []types.Role{types.RoleRep, types.RoleRep, types.RoleProspect, types.RoleProspect}
	if got := len(segments); got != len(want) {
		t.Fatalf("segment count mismatch: got %d want %d", got, len(want))
	}
	flips := 0
	for i := range segments {
		if segments[i].Speaker != want[i] {
			t.Fatalf("segment %d role mismatch: got %q want %q", i, segments[i].Speaker, want[i])
		}
		if i > 0 && segments[i].Speaker != segments[i-1].Speaker {
			flips++
		}
	}
	if flips != 1 {
		t.Fatalf("expected exactly one flip, got %d", flips)
	}
}

func TestFromASRPauseAtThresholdDoesNotFlip(t *testing.T) {
	t.Parallel()

	segments := FromASR(types.ASRResult{Segments: []types.ASRSegment{
		{Start: 0, End: 1, Text: "one"},
		{Start: 2.5, End: 3, Text: "two"},
		{Start: 3, End: 3, Text: "   "},
	}})
	if got, want := len(segments), 2; got != want {
		t.Fatalf("segment count mismatch: got %d want %d", got, want)
	}
	if segments[1].Speaker != types.RoleRep {
		t.Fatalf("a 1.5s pause must not flip, got %q", segments[1].Speaker)
	}
}

func TestFromASRWithoutSegmentsSplitsSentences(t *testing.T) {
	t.Parallel()

	segments := FromASR(types.ASRResult{Text: "Hello there! How can I help? I need a tutor."})
	want := []struct {
		role types.Role
		text string
	}{
		{types.RoleRep, "Hello there!"},
		{types.RoleProspect, "How can I help?"},
		{types.RoleRep, "I need a tutor."},
	}
	if got := len(segments); got != len(want) {
		t.Fatalf("segment count mismatch: got %d want %d", got, len(want))
	}
	for i, w := range want {
		if segments[i].Speaker != w.role || segments[i].Text != w.text {
			t.Fatalf("segment %d mismatch: got %+v want %+v", i, segments[i], w)
		}
	}

	if empty := FromASR(types.ASRResult{}); len(empty) != 0 {
		t.Fatalf("expected no segments, got %d", len(empty))
	}
}

func TestFromASRDecodedFullTextPayload(t *testing.T) {
	t.Parallel()

	var res types.ASRResult
	body := `{"segments": [], "full_text": "Hi, this is Sam. My son needs help.", "duration": 4}`
	if err := json.Unmarshal([]byte(body), &res); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	segments := FromASR(res)
	if got, want := len(segments), 2; got != want {
		t.Fatalf("segment count mismatch: got %d want %d", got, want)
	}
	if got, want := segments[1].Text, "My son needs help."; got != want {
		t.Fatalf("second segment mismatch: got %q want %q", got, want)
	}
}
