package feed

import (
	"context"
	"sync"
	"time"
)

// Record is an explicit cache value: the payload plus when it was fetched.
// Freshness is a pure function of the record, a clock reading and a TTL, so
// the policy is testable without any I/O.
type Record struct {
	FetchedAt time.Time
	Payload   *Payload
}

// Fresh reports whether the record can still be served at time now under
// the given TTL.  An empty record is never fresh.
func (r Record) Fresh(now time.Time, ttl time.Duration) bool {
	return r.Payload != nil && now.Sub(r.FetchedAt) < ttl
}

// Cache deduplicates feed fetches inside the TTL window.  Both the poll
// loop and on-demand bot commands go through it, so a /status right after a
// poll reuses the same payload instead of hitting the feed twice.
type Cache struct {
	ttl   time.Duration
	now   func() time.Time
	fetch func(ctx context.Context) (*Payload, error)

	mu  sync.Mutex
	rec Record
}

// NewCache wraps a fetch function with a TTL window.
func NewCache(ttl time.Duration, fetch func(ctx context.Context) (*Payload, error)) *Cache {
	return &Cache{ttl: ttl, now: time.Now, fetch: fetch}
}

// GetOrRefresh returns the cached payload while it is fresh, otherwise
// fetches and caches a new one.  force bypasses the freshness check.  On a
// fetch failure the stale record is not returned; the error propagates so
// the cycle can degrade explicitly.
func (c *Cache) GetOrRefresh(ctx context.Context, force bool) (*Payload, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !force && c.rec.Fresh(c.now(), c.ttl) {
		return c.rec.Payload, nil
	}
	p, err := c.fetch(ctx)
	if err != nil {
		return nil, err
	}
	c.rec = Record{FetchedAt: c.now(), Payload: p}
	return p, nil
}
