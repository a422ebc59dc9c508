package objections

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"closer-insights-go/internal/llm"
	"closer-insights-go/internal/metrics"
	"closer-insights-go/internal/scoring"
	"closer-insights-go/internal/types"
)

type fakeClient struct {
	mu      sync.Mutex
	replies []string
	errs    []error
	calls   int
}

func (f *fakeClient) Complete(ctx context.Context, req llm.Request) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.calls
	f.calls++
	if req.Task != llm.TaskObjectionExtraction {
		return "", errors.New("unexpected task")
	}
	var err error
	if i < len(f.errs) {
		err = f.errs[i]
	}
	if i < len(f.replies) {
		return f.replies[i], err
	}
	return "", err
}

func newTestClassifier(c llm.Client) *Classifier {
	return NewClassifier(c, NewCache(time.Hour),
		WithRetryPolicy(scoring.RetryPolicy{MaxAttempts: 3, Step: time.Millisecond, AttemptTimeout: time.Second}),
		WithMetrics(metrics.NewMetrics(nil)),
	)
}

func segments() []types.TranscriptSegment {
	return []types.TranscriptSegment{
		{Speaker: types.RoleRep, Text: "It's 80 pounds a month."},
		{Speaker: types.RoleProspect, Text: "That's a lot, I need to check with my husband."},
	}
}

const twoObjections = `{"objections": [
  {"objection": "That's a lot", "category": "price", "handling_score": 40, "used_aaa": false, "rep_response": "It's good value", "outcome_after": "handled_poorly"},
  {"objection": "I need to check with my husband", "category": "partner_approval", "handling_score": 70, "used_aaa": true, "rep_response": "Totally understand, many parents decide together. When could we all talk?", "outcome_after": "unresolved"}
]}`

func TestClassifyParsesAndCaches(t *testing.T) {
	t.Parallel()

	c := &fakeClient{replies: []string{twoObjections}}
	cl := newTestClassifier(c)

	got, err := cl.Classify(context.Background(), "call-1", segments())
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if len(got) != 2 || got[1].Category != types.CategoryPartnerApproval || !got[1].UsedAAA {
		t.Fatalf("unexpected objections: %+v", got)
	}

	again, err := cl.Classify(context.Background(), "call-1", segments())
	if err != nil || len(again) != 2 {
		t.Fatalf("cached Classify: %v %v", again, err)
	}
	if c.calls != 1 {
		t.Fatalf("service calls: got %d want 1", c.calls)
	}
}

func TestClassifyZeroObjections(t *testing.T) {
	t.Parallel()

	c := &fakeClient{replies: []string{`{"objections": []}`}}
	cl := newTestClassifier(c)

	got, err := cl.Classify(context.Background(), "call-quiet", segments())
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Fatalf("got %v, want empty non-nil slice", got)
	}
	if _, ok := cl.Cache().Get("call-quiet"); !ok {
		t.Fatalf("empty result was not cached")
	}
}

func TestClassifyRetriesInvalidReply(t *testing.T) {
	t.Parallel()

	c := &fakeClient{replies: []string{
		`{"objections": [{"objection": "pricey", "category": "cost", "handling_score": 10, "used_aaa": false, "rep_response": "", "outcome_after": "unresolved"}]}`,
		"```json\n" + twoObjections + "\n```",
	}}
	got, err := newTestClassifier(c).Classify(context.Background(), "call-2", segments())
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if len(got) != 2 || c.calls != 2 {
		t.Fatalf("got %d objections after %d calls", len(got), c.calls)
	}
}

func TestClassifyFailureIsNotCached(t *testing.T) {
	t.Parallel()

	c := &fakeClient{replies: []string{"nope", "still nope", `{"objections": "none"}`}}
	cl := newTestClassifier(c)

	_, err := cl.Classify(context.Background(), "call-3", segments())
	if !errors.Is(err, scoring.ErrInvalidResponse) {
		t.Fatalf("err: got %v want ErrInvalidResponse", err)
	}
	if c.calls != 3 {
		t.Fatalf("calls: got %d want 3", c.calls)
	}
	if _, ok := cl.Cache().Get("call-3"); ok {
		t.Fatalf("failure was cached")
	}
}

func TestClassifyPermanentError(t *testing.T) {
	t.Parallel()

	c := &fakeClient{errs: []error{&llm.StatusError{Code: 403, Message: "forbidden"}}}
	_, err := newTestClassifier(c).Classify(context.Background(), "call-4", segments())
	if !llm.IsPermanent(err) {
		t.Fatalf("err: got %v want permanent status error", err)
	}
	if c.calls != 1 {
		t.Fatalf("calls: got %d want 1", c.calls)
	}
}

func TestClassifyRequiresObjectionsKey(t *testing.T) {
	t.Parallel()

	if _, err := parse(`{"items": []}`); !errors.Is(err, scoring.ErrInvalidResponse) {
		t.Fatalf("err: got %v", err)
	}
}

func TestClassifyWithMockClient(t *testing.T) {
	t.Parallel()

	got, err := newTestClassifier(llm.NewMockClient()).Classify(context.Background(), "demo", segments())
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if len(got) == 0 {
		t.Fatalf("mock returned no objections")
	}
}
