// Package objections extracts and categorises the objections raised in a call,
// caching the result per call id.
package objections

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"closer-insights-go/internal/llm"
	"closer-insights-go/internal/logger"
	"closer-insights-go/internal/metrics"
	"closer-insights-go/internal/scoring"
	"closer-insights-go/internal/transcript"
	"closer-insights-go/internal/types"
)

type Classifier struct {
	client  llm.Client
	cache   *Cache
	retry   scoring.RetryPolicy
	log     *logger.Logger
	metrics *metrics.Metrics
}

type Option func(*Classifier)

func WithRetryPolicy(p scoring.RetryPolicy) Option { return func(c *Classifier) { c.retry = p } }

func WithLogger(l *logger.Logger) Option {
	return func(c *Classifier) {
		if l != nil {
			c.log = l
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Classifier) {
		if m != nil {
			c.metrics = m
		}
	}
}

// NewClassifier uses cache for results; a nil cache gets a default one.
func NewClassifier(client llm.Client, cache *Cache, opts ...Option) *Classifier {
	if cache == nil {
		cache = NewCache(DefaultTTL)
	}
	c := &Classifier{
		client:  client,
		cache:   cache,
		retry:   scoring.DefaultRetryPolicy(),
		log:     logger.Discard(),
		metrics: metrics.DefaultMetrics,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Classifier) Cache() *Cache { return c.cache }

// Classify returns the objections raised in the call. A call with no objections
// yields an empty, non-nil slice. Failures are returned and not cached.
func (c *Classifier) Classify(ctx context.Context, callID string, segments []types.TranscriptSegment) ([]types.Objection, error) {
	log := c.log.WithField("call_id", callID)

	if callID != "" {
		if cached, ok := c.cache.Get(callID); ok {
			c.metrics.ObjectionCacheHits.Inc()
			log.Debug("objections served from cache")
			return cached, nil
		}
		c.metrics.ObjectionCacheMisses.Inc()
	}

	if len(segments) == 0 {
		out := []types.Objection{}
		if callID != "" {
			c.cache.Put(callID, out)
		}
		return out, nil
	}

	req := llm.Request{
		Task:        llm.TaskObjectionExtraction,
		System:      systemPrompt(),
		User:        userPrompt(segments),
		Temperature: scoring.DefaultTemperature,
		JSONMode:    true,
	}

	var result []types.Objection
	err := c.retry.Do(ctx, func(actx context.Context, _ int) error {
		raw, err := scoring.Complete(actx, c.client, req, c.metrics)
		if err != nil {
			return err
		}
		parsed, err := parse(raw)
		if err != nil {
			c.metrics.LLMAttempts.WithLabelValues(string(req.Task), "invalid").Inc()
			return err
		}
		result = parsed
		return nil
	}, func(err error, attempt int, wait time.Duration) {
		log.WithError(err).WithFields(logrus.Fields{"attempt": attempt, "wait": wait}).Warn("objection extraction failed, retrying")
	})
	if err != nil {
		c.metrics.ObjectionFailures.Inc()
		return nil, fmt.Errorf("classify objections for call %q: %w", callID, err)
	}

	if callID != "" {
		c.cache.Put(callID, result)
	}
	log.WithField("objections", len(result)).Info("objections classified")
	return result, nil
}

type payload struct {
	Objections *[]scoring.ObjectionPayload `json:"objections"`
}

func parse(raw string) ([]types.Objection, error) {
	body, ok := llm.ExtractJSON(raw)
	if !ok {
		return nil, fmt.Errorf("%w: no JSON object found", scoring.ErrInvalidResponse)
	}
	var p payload
	if err := json.Unmarshal([]byte(body), &p); err != nil {
		return nil, fmt.Errorf("%w: decode: %v", scoring.ErrInvalidResponse, err)
	}
	if p.Objections == nil {
		return nil, fmt.Errorf("%w: objections missing", scoring.ErrInvalidResponse)
	}
	return scoring.ValidateObjections(*p.Objections)
}

func systemPrompt() string {
	return `You analyse sales calls for an online tutoring company and extract every objection the customer (PROSPECT) raised.

For each objection report:
- objection: the concern in the customer's words, one sentence
- category: one of ` + types.ObjectionCategoryList(", ") + `
- handling_score: 0-100, how well the rep handled it
- used_aaa: true only if the rep Acknowledged the concern, Associated it with other parents who felt the same, and Asked a question to move forward
- rep_response: the rep's reply, quoted or closely paraphrased
- outcome_after: handled_well, handled_poorly or unresolved

Category guide:
- price: cost, affordability, value for money
- timing: "not now", wants to wait for a later term
- partner_approval: needs to ask a spouse or another decision maker
- child_readiness: doubts the child will engage or is ready
- competitor: already has a tutor or is comparing providers
- trust: doubts results, legitimacy or online format
- schedule: class times clash with other commitments
- other: anything else

Respond with a single JSON object and nothing else.`
}

func userPrompt(segments []types.TranscriptSegment) string {
	return "TRANSCRIPT:\n" + transcript.Render(segments) + `
Return ONLY valid JSON in this shape (use an empty array when there are no objections):
{"objections": [{"objection": "", "category": "` + types.ObjectionCategoryList("|") + `", "handling_score": 0, "used_aaa": false, "rep_response": "", "outcome_after": "handled_well|handled_poorly|unresolved"}]}
`
}
