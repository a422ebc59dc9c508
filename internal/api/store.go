package api

import (
	"sync"

	"closer-insights-go/internal/aggregator"
	"closer-insights-go/internal/processor"
)

// Store keeps the latest report per call in memory.
type Store struct {
	mu      sync.RWMutex
	reports map[string]processor.Report
	order   []string
}

func NewStore() *Store {
	return &Store{reports: make(map[string]processor.Report)}
}

// Put saves rep, replacing an earlier report for the same call.
func (s *Store) Put(rep processor.Report) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.reports[rep.CallID]; !ok {
		s.order = append(s.order, rep.CallID)
	}
	s.reports[rep.CallID] = rep
}

func (s *Store) Get(callID string) (processor.Report, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rep, ok := s.reports[callID]
	return rep, ok
}

// List returns reports in first-stored order.
func (s *Store) List() []processor.Report {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]processor.Report, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.reports[id])
	}
	return out
}

// ObjectionCalls is the input of the objection rollups.
func (s *Store) ObjectionCalls() []aggregator.CallObjections {
	reports := s.List()
	out := make([]aggregator.CallObjections, 0, len(reports))
	for _, r := range reports {
		out = append(out, aggregator.CallObjections{
			CallID:     r.CallID,
			RepName:    r.RepName,
			Objections: r.Objections,
		})
	}
	return out
}
