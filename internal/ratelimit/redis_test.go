package ratelimit

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)

	host, port, err := net.SplitHostPort(mr.Addr())
	if err != nil {
		t.Fatalf("SplitHostPort: %v", err)
	}
	store, err := NewRedisStore(host, port)
	if err != nil {
		t.Fatalf("NewRedisStore: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store, mr
}

func TestRedisStore_AllowsUpToLimit(t *testing.T) {
	store, _ := newTestRedisStore(t)
	ctx := context.Background()

	limit := 3
	for i := 1; i <= limit; i++ {
		decision, err := store.Take(ctx, "ratelimit:chat:user-1", limit, time.Minute)
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

	decision, err := store.Take(ctx, "ratelimit:chat:user-1", limit, time.Minute)
	if err != nil {
		t.Fatalf("Take returned error: %v", err)
	}
	if decision.Allowed {
		t.Error("expected rejection after limit reached")
	}
	if decision.ResetInSeconds <= 0 {
		t.Errorf("reset = %d, want > 0", decision.ResetInSeconds)
	}
}

func TestRedisStore_WindowReset(t *testing.T) {
	store, mr := newTestRedisStore(t)
	ctx := context.Background()

	limit := 2
	for i := 0; i < limit; i++ {
		store.Take(ctx, "ratelimit:analysis:user-1", limit, time.Minute)
	}

	mr.FastForward(61 * time.Second)

	decision, err := store.Take(ctx, "ratelimit:analysis:user-1", limit, time.Minute)
	if err != nil {
		t.Fatalf("Take returned error: %v", err)
	}
	if !decision.Allowed {
		t.Fatal("expected allowed in fresh window")
	}
	if decision.Remaining != limit-1 {
		t.Errorf("remaining = %d, want %d", decision.Remaining, limit-1)
	}
}

func TestRedisStore_RepairsMissingExpiry(t *testing.T) {
	store, mr := newTestRedisStore(t)
	ctx := context.Background()

	key := "ratelimit:chat:user-1"
	limit := 2
	window := time.Minute
	for i := 0; i < limit; i++ {
		store.Take(ctx, key, limit, window)
	}

	// Drop the key's expiry, as if the Expire after the first increment
	// had failed. Without repair the counter would never reset and the
	// user would stay rate-limited forever.
	raw := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer raw.Close()
	if err := raw.Persist(ctx, key).Err(); err != nil {
		t.Fatalf("Persist: %v", err)
	}

	decision, err := store.Take(ctx, key, limit, window)
	if err != nil {
		t.Fatalf("Take returned error: %v", err)
	}
	if decision.Allowed {
		t.Error("expected rejection while over the limit")
	}
	if mr.TTL(key) <= 0 {
		t.Fatal("expiry was not re-anchored on the orphaned counter")
	}

	mr.FastForward(window + time.Second)
	decision, err = store.Take(ctx, key, limit, window)
	if err != nil {
		t.Fatalf("Take returned error: %v", err)
	}
	if !decision.Allowed {
		t.Error("counter must reset once the repaired window elapses")
	}
}
