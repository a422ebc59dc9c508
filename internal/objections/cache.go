package objections

import (
	"context"
	"sync"
	"time"

	"closer-insights-go/internal/types"
)

const DefaultTTL = 24 * time.Hour

type entry struct {
	objections []types.Objection
	expires    time.Time
}

// Cache holds extracted objections per call id. Entries expire after the TTL; expired
// entries are dropped on read and by Sweep.
type Cache struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]entry
}

func NewCache(ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]entry),
	}
}

// SetClock replaces the time source. Tests only.
func (c *Cache) SetClock(now func() time.Time) {
	c.mu.Lock()
	c.now = now
	c.mu.Unlock()
}

func (c *Cache) Get(callID string) ([]types.Objection, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[callID]
	if !ok {
		return nil, false
	}
	if !c.now().Before(e.expires) {
		delete(c.entries, callID)
		return nil, false
	}
	return clone(e.objections), true
}

func (c *Cache) Put(callID string, objections []types.Objection) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[callID] = entry{objections: clone(objections), expires: c.now().Add(c.ttl)}
}

func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Sweep removes every expired entry and returns how many were removed.
func (c *Cache) Sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	n := 0
	for id, e := range c.entries {
		if !now.Before(e.expires) {
			delete(c.entries, id)
			n++
		}
	}
	return n
}

// Run sweeps on every tick until ctx is done. onSweep, when set, receives the
// number of entries removed by each sweep. A non-positive interval disables the
// janitor; expired entries are then only dropped on read.
func (c *Cache) Run(ctx context.Context, interval time.Duration, onSweep func(evicted int)) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n := c.Sweep()
			if onSweep != nil {
				onSweep(n)
			}
		}
	}
}

func clone(in []types.Objection) []types.Objection {
	out := make([]types.Objection, len(in))
	copy(out, in)
	return out
}
