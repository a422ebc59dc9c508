// Package scoring turns a normalized transcript into a validated CLOSER assessment.
// It never fails: when the reasoning service cannot produce a usable reply the caller
// gets the fallback result.
package scoring

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"closer-insights-go/internal/aggregator"
	"closer-insights-go/internal/llm"
	"closer-insights-go/internal/logger"
	"closer-insights-go/internal/metrics"
	"closer-insights-go/internal/rubric"
	"closer-insights-go/internal/script"
	"closer-insights-go/internal/types"
)

const DefaultTemperature = 0.2

type Scorer struct {
	client      llm.Client
	retry       RetryPolicy
	temperature float64
	log         *logger.Logger
	metrics     *metrics.Metrics
}

type Option func(*Scorer)

func WithRetryPolicy(p RetryPolicy) Option { return func(s *Scorer) { s.retry = p } }

func WithTemperature(t float64) Option { return func(s *Scorer) { s.temperature = t } }

func WithLogger(l *logger.Logger) Option {
	return func(s *Scorer) {
		if l != nil {
			s.log = l
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Scorer) {
		if m != nil {
			s.metrics = m
		}
	}
}

func NewScorer(client llm.Client, opts ...Option) *Scorer {
	s := &Scorer{
		client:      client,
		retry:       DefaultRetryPolicy(),
		temperature: DefaultTemperature,
		log:         logger.Discard(),
		metrics:     metrics.DefaultMetrics,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Score assesses one call. The returned OverallScore is always computed locally from
// the validated phase scores.
func (s *Scorer) Score(ctx context.Context, segments []types.TranscriptSegment, callCtx types.CallContext, ref *script.Script) types.ScoringResult {
	policy := rubric.For(callCtx)
	log := s.log.WithFields(logrus.Fields{"call_context": policy.Context, "segments": len(segments)})

	if len(segments) == 0 {
		log.Warn("empty transcript, returning fallback")
		s.metrics.ScoringFallbacks.Inc()
		return Fallback(policy)
	}

	req := llm.Request{
		Task:        llm.TaskPhaseScoring,
		System:      BuildSystemPrompt(policy, ref),
		User:        BuildUserPrompt(segments, policy),
		Temperature: s.temperature,
		JSONMode:    true,
	}

	var result types.ScoringResult
	err := s.retry.Do(ctx, func(actx context.Context, attempt int) error {
		raw, err := Complete(actx, s.client, req, s.metrics)
		if err != nil {
			return err
		}
		parsed, err := ParseResult(raw, policy)
		if err != nil {
			s.metrics.LLMAttempts.WithLabelValues(string(req.Task), "invalid").Inc()
			return err
		}
		result = parsed
		return nil
	}, func(err error, attempt int, wait time.Duration) {
		log.WithError(err).WithFields(logrus.Fields{"attempt": attempt, "wait": wait}).Warn("scoring attempt failed, retrying")
	})
	if err != nil {
		log.WithError(err).Error("scoring failed, returning fallback")
		s.metrics.ScoringFallbacks.Inc()
		return Fallback(policy)
	}

	result.OverallScore = aggregator.Overall(result.Scores)
	s.metrics.OverallScore.Observe(result.OverallScore)
	log.WithField("overall_score", result.OverallScore).Info("call scored")
	return result
}

// Complete performs one reasoning service call and records its latency and
// transport outcome.
func Complete(ctx context.Context, client llm.Client, req llm.Request, m *metrics.Metrics) (string, error) {
	start := time.Now()
	raw, err := client.Complete(ctx, req)
	m.LLMLatency.WithLabelValues(string(req.Task)).Observe(time.Since(start).Seconds())
	if err != nil {
		m.LLMAttempts.WithLabelValues(string(req.Task), "error").Inc()
		return "", err
	}
	m.LLMAttempts.WithLabelValues(string(req.Task), "ok").Inc()
	return raw, nil
}
