package ratelimit

import (
	"context"
	"fmt"
	"testing"
	"time"
)

func newTestStore(start time.Time) (*MemoryStore, *time.Time) {
	now := start
	store := NewMemoryStore()
	store.now = func() time.Time { return now }
	return store, &now
}

func TestMemoryStore_AllowsUpToLimit(t *testing.T) {
	store, _ := newTestStore(time.Unix(1000, 0))
	ctx := context.Background()

	limit := 5
	for i := 1; i <= limit; i++ {
		decision, err := store.Take(ctx, "chat:user-1", limit, time.Minute)
		if err != nil {
			t.Fatalf("Take returned error: %v", err)
		}
		if !decision.Allowed {
			t.Fatalf("call %d: expected allowed", i)
		}
		if decision.Remaining != limit-i {
			t.Errorf("call %d: remaining = %d, want %d", i, decision.Remaining, limit-i)
		}
	}
}

func TestMemoryStore_RejectsOverLimit(t *testing.T) {
	store, _ := newTestStore(time.Unix(1000, 0))
	ctx := context.Background()

	limit := 3
	for i := 0; i < limit; i++ {
		store.Take(ctx, "chat:user-1", limit, time.Minute)
	}

	decision, err := store.Take(ctx, "chat:user-1", limit, time.Minute)
	if err != nil {
		t.Fatalf("Take returned error: %v", err)
	}
	if decision.Allowed {
		t.Error("expected rejection after limit reached")
	}
	if decision.Remaining != 0 {
		t.Errorf("remaining = %d, want 0", decision.Remaining)
	}
	if decision.ResetInSeconds <= 0 {
		t.Errorf("reset = %d, want > 0", decision.ResetInSeconds)
	}
}

func TestMemoryStore_RejectionDoesNotConsumeWindow(t *testing.T) {
	store, now := newTestStore(time.Unix(1000, 0))
	ctx := context.Background()

	limit := 2
	store.Take(ctx, "chat:user-1", limit, time.Minute)
	store.Take(ctx, "chat:user-1", limit, time.Minute)
	store.Take(ctx, "chat:user-1", limit, time.Minute) // rejected

	// Rejected calls must not advance the window anchor: the window still
	// expires a minute after the first call.
	*now = now.Add(time.Minute)
	decision, _ := store.Take(ctx, "chat:user-1", limit, time.Minute)
	if !decision.Allowed {
		t.Error("expected fresh window after waiting out the original window")
	}
	if decision.Remaining != limit-1 {
		t.Errorf("remaining = %d, want %d", decision.Remaining, limit-1)
	}
}

func TestMemoryStore_WindowReset(t *testing.T) {
	store, now := newTestStore(time.Unix(1000, 0))
	ctx := context.Background()

	limit := 5
	for i := 0; i < limit; i++ {
		store.Take(ctx, "analysis:user-1", limit, time.Minute)
	}

	*now = now.Add(61 * time.Second)
	decision, _ := store.Take(ctx, "analysis:user-1", limit, time.Minute)
	if !decision.Allowed {
		t.Fatal("expected allowed in fresh window")
	}
	if decision.Remaining != limit-1 {
		t.Errorf("remaining = %d, want %d", decision.Remaining, limit-1)
	}
}

func TestMemoryStore_KeysAreIndependent(t *testing.T) {
	store, _ := newTestStore(time.Unix(1000, 0))
	ctx := context.Background()

	limit := 1
	store.Take(ctx, "chat:user-1", limit, time.Minute)

	decision, _ := store.Take(ctx, "chat:user-2", limit, time.Minute)
	if !decision.Allowed {
		t.Error("user-2 should not share user-1's window")
	}
	decision, _ = store.Take(ctx, "analysis:user-1", limit, time.Minute)
	if !decision.Allowed {
		t.Error("endpoints should have independent budgets for the same user")
	}
}

func TestMemoryStore_SweepKeepsLiveLongerWindows(t *testing.T) {
	store, now := newTestStore(time.Unix(1000, 0))
	ctx := context.Background()

	// Exhaust a long-window budget.
	longWindow := 5 * time.Minute
	store.Take(ctx, "analysis:user-1", 2, longWindow)
	store.Take(ctx, "analysis:user-1", 2, longWindow)

	// Grow the store past the sweep threshold with short-window keys.
	for i := 0; i < sweepThreshold; i++ {
		store.Take(ctx, fmt.Sprintf("chat:user-%d", i), 10, time.Minute)
	}

	// The short windows have expired, the long window has not. The next
	// Take sweeps; the live long-window counter must survive it.
	*now = now.Add(2 * time.Minute)
	store.Take(ctx, "chat:user-0", 10, time.Minute)

	decision, _ := store.Take(ctx, "analysis:user-1", 2, longWindow)
	if decision.Allowed {
		t.Fatalf("long-window counter was evicted mid-window: %+v", decision)
	}
	if decision.ResetInSeconds != 3*60 {
		t.Errorf("ResetInSeconds = %d, want %d", decision.ResetInSeconds, 3*60)
	}
}

func TestMemoryStore_SweepEvictsExpiredEntries(t *testing.T) {
	store, now := newTestStore(time.Unix(1000, 0))
	ctx := context.Background()

	for i := 0; i < sweepThreshold; i++ {
		store.Take(ctx, fmt.Sprintf("chat:user-%d", i), 10, time.Minute)
	}

	*now = now.Add(2 * time.Minute)
	store.Take(ctx, "chat:user-0", 10, time.Minute)

	store.mu.Lock()
	size := len(store.entries)
	store.mu.Unlock()
	if size != 1 {
		t.Errorf("store holds %d entries after sweep, want 1", size)
	}
}

type failingStore struct{}

func (failingStore) Take(ctx context.Context, key string, limit int, window time.Duration) (Decision, error) {
	return Decision{}, fmt.Errorf("store down")
}

func TestLimiter_FailsOpenOnStoreError(t *testing.T) {
	limiter := NewLimiter(failingStore{}, map[string]Policy{
		EndpointChat: {MaxRequests: 10, Window: time.Minute},
	})

	decision := limiter.Check(context.Background(), "user-1", EndpointChat)
	if !decision.Allowed {
		t.Error("limiter must fail open when the store errors")
	}
}

func TestLimiter_UnknownEndpointAllowed(t *testing.T) {
	limiter := NewLimiter(NewMemoryStore(), map[string]Policy{})

	decision := limiter.Check(context.Background(), "user-1", "unknown")
	if !decision.Allowed {
		t.Error("endpoints without a policy are not limited")
	}
}

func TestResetSeconds_RoundsUp(t *testing.T) {
	cases := []struct {
		in   time.Duration
		want int
	}{
		{0, 0},
		{-time.Second, 0},
		{500 * time.Millisecond, 1},
		{time.Second, 1},
		{1500 * time.Millisecond, 2},
		{time.Minute, 60},
	}
	for _, tc := range cases {
		if got := resetSeconds(tc.in); got != tc.want {
			t.Errorf("resetSeconds(%v) = %d, want %d", tc.in, got, tc.want)
		}
	}
}
