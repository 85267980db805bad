package ratelimit

import (
	"context"
	"sync"
	"time"
)

// sweepThreshold bounds map growth: once the store holds this many keys,
// expired windows are evicted on the next Take.
const sweepThreshold = 10000

type entry struct {
	count       int
	windowStart time.Time
	window      time.Duration
}

func (e *entry) expired(now time.Time) bool {
	return now.Sub(e.windowStart) >= e.window
}

// MemoryStore is a process-local, in-memory counter store. State is lost
// on restart, which is an accepted limitation for single-instance
// deployments; use RedisStore to share quotas across instances.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]*entry
	now     func() time.Time
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]*entry),
		now:     time.Now,
	}
}

// Take implements Store with exact fixed-window semantics: the count
// resets whenever the window has elapsed, and a rejected call does not
// increment the counter.
func (s *MemoryStore) Take(ctx context.Context, key string, limit int, window time.Duration) (Decision, error) {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.entries) >= sweepThreshold {
		s.sweep(now)
	}

	e, ok := s.entries[key]
	if !ok || e.expired(now) {
		e = &entry{count: 0, windowStart: now, window: window}
		s.entries[key] = e
	}

	resetIn := e.windowStart.Add(window).Sub(now)

	if e.count >= limit {
		return Decision{Allowed: false, Remaining: 0, ResetInSeconds: resetSeconds(resetIn)}, nil
	}

	e.count++
	return Decision{
		Allowed:        true,
		Remaining:      limit - e.count,
		ResetInSeconds: resetSeconds(resetIn),
	}, nil
}

// sweep evicts entries whose own window has expired. Each entry carries
// its window so counters for long-window endpoints survive sweeps
// triggered by short-window traffic. Caller holds the lock.
func (s *MemoryStore) sweep(now time.Time) {
	for k, e := range s.entries {
		if e.expired(now) {
			delete(s.entries, k)
		}
	}
}
