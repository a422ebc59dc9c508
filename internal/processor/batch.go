package processor

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// BatchItem is the outcome of one call in a batch. Error is set instead of Report
// when the call could not be processed.
type BatchItem struct {
	CallID string  `json:"call_id"`
	Report *Report `json:"report,omitempty"`
	Error  string  `json:"error,omitempty"`
}

// ProcessBatch runs calls with at most limit in flight. Results keep input order and
// one bad call never stops the others.
func (p *Processor) ProcessBatch(ctx context.Context, calls []Call, limit int) []BatchItem {
	if limit < 1 {
		limit = 1
	}
	out := make([]BatchItem, len(calls))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, call := range calls {
		g.Go(func() error {
			rep, err := p.Process(gctx, call)
			if err != nil {
				out[i] = BatchItem{CallID: call.CallID, Error: err.Error()}
				return nil
			}
			out[i] = BatchItem{CallID: rep.CallID, Report: &rep}
			return nil
		})
	}
	_ = g.Wait()
	return out
}
