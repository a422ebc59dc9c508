// Package processor runs one call end to end: transcript, scoring, objections and
// the coaching card.
package processor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"closer-insights-go/internal/actionable"
	"closer-insights-go/internal/logger"
	"closer-insights-go/internal/objections"
	"closer-insights-go/internal/rubric"
	"closer-insights-go/internal/scoring"
	"closer-insights-go/internal/script"
	"closer-insights-go/internal/speaker"
	"closer-insights-go/internal/transcript"
	"closer-insights-go/internal/types"
)

// ErrNoTranscript means the call carried neither text, ASR output nor a recording.
var ErrNoTranscript = errors.New("call has no transcript, asr result or audio url")

// Call is one unit of work. Exactly one of Transcript, ASR and AudioURL is used, in
// that order of preference.
type Call struct {
	CallID      string              `json:"call_id"`
	RepName     string              `json:"rep_name,omitempty"`
	CallContext types.CallContext   `json:"call_context,omitempty"`
	Direction   types.CallDirection `json:"direction,omitempty"`
	Transcript  string              `json:"transcript,omitempty"`
	ASR         *types.ASRResult    `json:"asr,omitempty"`
	AudioURL    string              `json:"audio_url,omitempty"`
}

// Report is returned by /score and stored for /results.
type Report struct {
	CallID         string                    `json:"call_id"`
	RepName        string                    `json:"rep_name,omitempty"`
	CallContext    types.CallContext         `json:"call_context"`
	Segments       []types.TranscriptSegment `json:"segments"`
	Result         types.ScoringResult       `json:"result"`
	Fallback       bool                      `json:"fallback"`
	Objections     []types.Objection         `json:"objections"`
	ObjectionError string                    `json:"objection_error,omitempty"`
	ActionCard     actionable.ActionCard     `json:"action_card"`
	ScoredAt       time.Time                 `json:"scored_at"`
	DurationMs     int64                     `json:"duration_ms"`
}

// Transcriber turns a recording into timed segments.
type Transcriber interface {
	Transcribe(ctx context.Context, audioURL string) (types.ASRResult, error)
}

type Processor struct {
	scorer      *scoring.Scorer
	classifier  *objections.Classifier
	resolver    *speaker.Resolver
	transcriber Transcriber
	script      *script.Script
	log         *logger.Logger
}

type Option func(*Processor)

func WithResolver(r *speaker.Resolver) Option { return func(p *Processor) { p.resolver = r } }

func WithTranscriber(t Transcriber) Option { return func(p *Processor) { p.transcriber = t } }

func WithScript(s *script.Script) Option { return func(p *Processor) { p.script = s } }

func WithLogger(l *logger.Logger) Option {
	return func(p *Processor) {
		if l != nil {
			p.log = l
		}
	}
}

func New(scorer *scoring.Scorer, classifier *objections.Classifier, opts ...Option) *Processor {
	p := &Processor{
		scorer:     scorer,
		classifier: classifier,
		resolver:   speaker.NewResolver(nil),
		script:     script.Default(),
		log:        logger.Discard(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Process scores one call. It fails only when no transcript can be obtained; scoring
// problems surface as a fallback result and objection problems as ObjectionError.
func (p *Processor) Process(ctx context.Context, call Call) (Report, error) {
	start := time.Now()
	if call.CallID == "" {
		call.CallID = uuid.New().String()
	}
	if call.CallContext == "" {
		call.CallContext = types.ContextNewLead
	}
	log := p.log.WithCall(call.CallID)

	segments, err := p.segments(ctx, call)
	if err != nil {
		log.WithError(err).Error("no transcript")
		return Report{}, err
	}

	rep := Report{
		CallID:      call.CallID,
		RepName:     call.RepName,
		CallContext: call.CallContext,
		Segments:    segments,
	}

	var (
		g      errgroup.Group
		objErr error
	)
	g.Go(func() error {
		rep.Result = p.scorer.Score(ctx, segments, call.CallContext, p.script)
		return nil
	})
	if p.classifier != nil {
		g.Go(func() error {
			rep.Objections, objErr = p.classifier.Classify(ctx, call.CallID, segments)
			return nil
		})
	}
	_ = g.Wait()

	if objErr != nil {
		log.WithError(objErr).Warn("objection classification failed")
		rep.ObjectionError = objErr.Error()
	}
	if rep.Objections == nil {
		rep.Objections = []types.Objection{}
	}

	rep.Fallback = scoring.IsFallback(rep.Result)
	rep.ActionCard = actionable.Generate(rep.Result, rubric.For(call.CallContext), p.script)
	rep.ScoredAt = time.Now().UTC()
	rep.DurationMs = time.Since(start).Milliseconds()

	log.WithField("overall_score", rep.Result.OverallScore).WithField("duration_ms", rep.DurationMs).Info("call processed")
	return rep, nil
}

func (p *Processor) segments(ctx context.Context, call Call) ([]types.TranscriptSegment, error) {
	switch {
	case strings.TrimSpace(call.Transcript) != "":
		return transcript.Normalize(call.Transcript, p.resolver, call.Direction), nil
	case call.ASR != nil:
		return transcript.FromASR(*call.ASR), nil
	case call.AudioURL != "":
		if p.transcriber == nil {
			return nil, fmt.Errorf("audio url given but no transcriber configured")
		}
		res, err := p.transcriber.Transcribe(ctx, call.AudioURL)
		if err != nil {
			return nil, fmt.Errorf("transcription: %w", err)
		}
		return transcript.FromASR(res), nil
	}
	return nil, ErrNoTranscript
}

// CallFromRecord validates an imported row.
func CallFromRecord(r types.CallRecord) (Call, error) {
	cc, err := types.ParseCallContext(r.CallContext)
	if err != nil {
		return Call{}, err
	}
	dir, err := types.ParseCallDirection(r.Direction)
	if err != nil {
		return Call{}, err
	}
	return Call{
		CallID:      r.CallID,
		RepName:     r.RepName,
		CallContext: cc,
		Direction:   dir,
		Transcript:  r.Transcript,
		AudioURL:    r.AudioURL,
	}, nil
}
