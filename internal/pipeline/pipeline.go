// Package pipeline is the background scoring queue. Calls wait in a pending set and
// a poll loop dispatches them while fewer than the in-flight limit are running.
package pipeline

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"closer-insights-go/internal/logger"
	"closer-insights-go/internal/metrics"
	"closer-insights-go/internal/processor"
)

const (
	DefaultMaxInFlight  = 2
	DefaultPollInterval = 5 * time.Second
)

type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusDone       Status = "done"
	StatusFailed     Status = "failed"
)

// ErrEmptyCallID is returned by Enqueue for calls without an id.
var ErrEmptyCallID = errors.New("call id required")

// ErrScoringExhausted marks a call whose report is the fallback result because
// every scoring attempt failed.
var ErrScoringExhausted = errors.New("scoring exhausted all attempts")

// Handler processes one dequeued call.
type Handler func(ctx context.Context, call processor.Call) (processor.Report, error)

// Job is the externally visible state of one queued call.
type Job struct {
	CallID     string    `json:"call_id"`
	Status     Status    `json:"status"`
	Error      string    `json:"error,omitempty"`
	EnqueuedAt time.Time `json:"enqueued_at"`
	FinishedAt time.Time `json:"finished_at,omitempty"`
}

type Queue struct {
	mu         sync.Mutex
	pending    map[string]processor.Call
	order      []string
	processing map[string]bool
	jobs       map[string]*Job

	sem         *semaphore.Weighted
	interval    time.Duration
	handle      Handler
	onDone      func(processor.Report)
	onFailure   func(callID string, err error)
	log         *logger.Logger
	metrics     *metrics.Metrics
	wg          sync.WaitGroup
	maxInFlight int64
}

type Option func(*Queue)

func WithMaxInFlight(n int) Option {
	return func(q *Queue) {
		if n > 0 {
			q.maxInFlight = int64(n)
		}
	}
}

func WithPollInterval(d time.Duration) Option {
	return func(q *Queue) {
		if d > 0 {
			q.interval = d
		}
	}
}

// OnDone receives every successful report. Fallback reports are failures and go
// to OnFailure instead.
func OnDone(fn func(processor.Report)) Option { return func(q *Queue) { q.onDone = fn } }

// OnFailure is told about every call that ends in StatusFailed.
func OnFailure(fn func(callID string, err error)) Option {
	return func(q *Queue) { q.onFailure = fn }
}

func WithLogger(l *logger.Logger) Option {
	return func(q *Queue) {
		if l != nil {
			q.log = l
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(q *Queue) {
		if m != nil {
			q.metrics = m
		}
	}
}

func New(handle Handler, opts ...Option) *Queue {
	q := &Queue{
		pending:     make(map[string]processor.Call),
		processing:  make(map[string]bool),
		jobs:        make(map[string]*Job),
		interval:    DefaultPollInterval,
		handle:      handle,
		log:         logger.Discard(),
		metrics:     metrics.DefaultMetrics,
		maxInFlight: DefaultMaxInFlight,
	}
	for _, opt := range opts {
		opt(q)
	}
	q.sem = semaphore.NewWeighted(q.maxInFlight)
	return q
}

// Enqueue adds a call. A call already pending or processing is left alone and
// Enqueue reports false; finished calls may be queued again.
func (q *Queue) Enqueue(call processor.Call) (bool, error) {
	if call.CallID == "" {
		return false, ErrEmptyCallID
	}
	q.mu.Lock()
	defer q.mu.Unlock()

	if _, ok := q.pending[call.CallID]; ok || q.processing[call.CallID] {
		return false, nil
	}
	q.pending[call.CallID] = call
	q.order = append(q.order, call.CallID)
	q.jobs[call.CallID] = &Job{CallID: call.CallID, Status: StatusPending, EnqueuedAt: time.Now().UTC()}
	q.metrics.QueuePending.Set(float64(len(q.pending)))
	return true, nil
}

// Job returns a snapshot of the call's queue state.
func (q *Queue) Job(callID string) (Job, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	j, ok := q.jobs[callID]
	if !ok {
		return Job{}, false
	}
	return *j, true
}

// Counts returns the pending and in-flight sizes.
func (q *Queue) Counts() (pending, inFlight int) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending), len(q.processing)
}

// Run polls until ctx is done, then waits for in-flight calls to finish. Calls
// already dispatched are not cancelled with ctx.
func (q *Queue) Run(ctx context.Context) {
	q.log.WithField("interval", q.interval).WithField("max_in_flight", q.maxInFlight).Info("queue started")
	ticker := time.NewTicker(q.interval)
	defer ticker.Stop()

	q.Dispatch(ctx)
	for {
		select {
		case <-ctx.Done():
			q.wg.Wait()
			q.log.Info("queue stopped")
			return
		case <-ticker.C:
			q.Dispatch(ctx)
		}
	}
}

// Dispatch starts as many pending calls, oldest first, as the in-flight limit
// allows and returns how many it started. Started calls keep ctx's values but
// outlive its cancellation.
func (q *Queue) Dispatch(ctx context.Context) int {
	workCtx := context.WithoutCancel(ctx)
	started := 0
	for ctx.Err() == nil {
		if !q.sem.TryAcquire(1) {
			break
		}
		call, ok := q.next()
		if !ok {
			q.sem.Release(1)
			break
		}
		started++
		q.wg.Add(1)
		go q.work(workCtx, call)
	}
	return started
}

// Wait blocks until every dispatched call has finished.
func (q *Queue) Wait() { q.wg.Wait() }

func (q *Queue) next() (processor.Call, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for len(q.order) > 0 {
		id := q.order[0]
		q.order = q.order[1:]
		call, ok := q.pending[id]
		if !ok {
			continue
		}
		delete(q.pending, id)
		q.processing[id] = true
		q.jobs[id].Status = StatusProcessing
		q.metrics.QueuePending.Set(float64(len(q.pending)))
		q.metrics.QueueInFlight.Set(float64(len(q.processing)))
		return call, true
	}
	return processor.Call{}, false
}

func (q *Queue) work(ctx context.Context, call processor.Call) {
	defer q.wg.Done()
	defer q.sem.Release(1)

	log := q.log.WithCall(call.CallID)
	rep, err := q.handle(ctx, call)
	if err == nil && rep.Fallback {
		err = ErrScoringExhausted
	}

	q.mu.Lock()
	delete(q.processing, call.CallID)
	job := q.jobs[call.CallID]
	job.FinishedAt = time.Now().UTC()
	if err != nil {
		job.Status = StatusFailed
		job.Error = err.Error()
	} else {
		job.Status = StatusDone
	}
	q.metrics.QueueInFlight.Set(float64(len(q.processing)))
	q.metrics.QueueProcessed.WithLabelValues(string(job.Status)).Inc()
	q.mu.Unlock()

	if err != nil {
		log.WithError(err).Error("queued call failed")
		if q.onFailure != nil {
			q.onFailure(call.CallID, err)
		}
		return
	}
	log.Info("queued call done")
	if q.onDone != nil {
		q.onDone(rep)
	}
}
