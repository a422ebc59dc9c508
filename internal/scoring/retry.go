package scoring

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"

	"closer-insights-go/internal/llm"
)

// RetryPolicy bounds the calls made for one reasoning task. Attempts are sequential;
// the wait before attempt n+1 is Step × n.
type RetryPolicy struct {
	MaxAttempts    int
	Step           time.Duration
	AttemptTimeout time.Duration
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:    3,
		Step:           time.Second,
		AttemptTimeout: 60 * time.Second,
	}
}

// Budget is the longest Do can run when every attempt times out: MaxAttempts
// attempt timeouts plus the waits between them. Zero means unbounded.
func (p RetryPolicy) Budget() time.Duration {
	if p.AttemptTimeout <= 0 {
		return 0
	}
	attempts := max(p.MaxAttempts, 1)
	total := time.Duration(attempts) * p.AttemptTimeout
	for n := 1; n < attempts; n++ {
		total += p.Step * time.Duration(n)
	}
	return total
}

// linearBackOff waits Step, 2×Step, 3×Step...
type linearBackOff struct {
	step time.Duration
	n    int
}

func (b *linearBackOff) NextBackOff() time.Duration {
	b.n++
	return b.step * time.Duration(b.n)
}

func (b *linearBackOff) Reset() { b.n = 0 }

// Notify is called after a failed attempt that will be retried.
type Notify func(err error, attempt int, wait time.Duration)

// Do runs op until it succeeds, the attempt budget is spent, ctx ends, or op fails
// with a permanent gateway error. The returned error is the last attempt's.
func (p RetryPolicy) Do(ctx context.Context, op func(ctx context.Context, attempt int) error, notify Notify) error {
	attempt := 0
	operation := func() error {
		attempt++
		actx := ctx
		if p.AttemptTimeout > 0 {
			var cancel context.CancelFunc
			actx, cancel = context.WithTimeout(ctx, p.AttemptTimeout)
			defer cancel()
		}
		err := op(actx, attempt)
		if err != nil && llm.IsPermanent(err) {
			return backoff.Permanent(err)
		}
		return err
	}

	var b backoff.BackOff = &backoff.StopBackOff{}
	if p.MaxAttempts > 1 {
		b = backoff.WithMaxRetries(&linearBackOff{step: p.Step}, uint64(p.MaxAttempts-1))
	}
	return backoff.RetryNotify(operation, backoff.WithContext(b, ctx), func(err error, wait time.Duration) {
		if notify != nil {
			notify(err, attempt, wait)
		}
	})
}
