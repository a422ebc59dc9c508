package types

import (
	"encoding/json"
	"testing"
)

func TestASRResultAcceptsFullText(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		body string
		want string
	}{
		{"text", `{"segments": [], "text": "hello there", "duration": 3}`, "hello there"},
		{"full_text", `{"segments": [], "full_text": "hello there", "duration": 3}`, "hello there"},
		{"text wins", `{"text": "primary", "full_text": "secondary"}`, "primary"},
	}
	for _, tc := range cases {
		var got ASRResult
		if err := json.Unmarshal([]byte(tc.body), &got); err != nil {
			t.Fatalf("%s: unmarshal: %v", tc.name, err)
		}
		if got.Text != tc.want {
			t.Fatalf("%s: text mismatch: got %q want %q", tc.name, got.Text, tc.want)
		}
	}
}

func TestASRResultKeepsSegmentsAndDuration(t *testing.T) {
	t.Parallel()

	var got ASRResult
	body := `{"segments": [{"start": 0, "end": 1.5, "text": "Hi"}], "full_text": "Hi", "duration": 1.5}`
	if err := json.Unmarshal([]byte(body), &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(got.Segments) != 1 || got.Segments[0].End != 1.5 {
		t.Fatalf("segments mismatch: %+v", got.Segments)
	}
	if got.Duration != 1.5 {
		t.Fatalf("duration mismatch: got %v want 1.5", got.Duration)
	}
}

func TestObjectionCategoryList(t *testing.T) {
	t.Parallel()

	want := "price|timing|partner_approval|child_readiness|competitor|trust|schedule|other"
	if got := ObjectionCategoryList("|"); got != want {
		t.Fatalf("category list mismatch:\n got %q\nwant %q", got, want)
	}
}
