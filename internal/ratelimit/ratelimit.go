// Package ratelimit applies a fixed-window request quota per user per
// endpoint. Counters live in a pluggable Store; the default store is
// process-local, so under horizontal scaling the quota is enforced
// per-instance rather than globally.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/ChiFungHillmanChan/Nutritrack-sub000/internal/logger"
)

// Endpoint names used as rate limit keys.
const (
	EndpointChat     = "chat"
	EndpointAnalysis = "analysis"
)

// Policy is a fixed-window quota: at most MaxRequests per Window.
type Policy struct {
	MaxRequests int
	Window      time.Duration
}

// Decision is the outcome of a quota check. ResetInSeconds is the time
// remaining until the current window expires, rounded up.
type Decision struct {
	Allowed        bool
	Remaining      int
	ResetInSeconds int
}

// Store tracks request counts per key within a fixed window.
type Store interface {
	// Take records one request against key and reports whether it fits
	// within limit for the current window.
	Take(ctx context.Context, key string, limit int, window time.Duration) (Decision, error)
}

// Limiter checks per-endpoint quotas for a user.
type Limiter struct {
	store    Store
	policies map[string]Policy
}

// NewLimiter creates a limiter with the given per-endpoint policies.
func NewLimiter(store Store, policies map[string]Policy) *Limiter {
	return &Limiter{store: store, policies: policies}
}

// Check applies the endpoint's policy to the user. It never fails: if the
// store is unreachable the request is allowed, since dropping traffic on a
// limiter outage would be worse than briefly over-admitting.
func (l *Limiter) Check(ctx context.Context, userID, endpoint string) Decision {
	policy, ok := l.policies[endpoint]
	if !ok || policy.MaxRequests <= 0 {
		return Decision{Allowed: true}
	}

	key := fmt.Sprintf("ratelimit:%s:%s", endpoint, userID)
	decision, err := l.store.Take(ctx, key, policy.MaxRequests, policy.Window)
	if err != nil {
		logger.Error("rate limit store unavailable, allowing request", "error", err, "endpoint", endpoint)
		return Decision{Allowed: true, Remaining: policy.MaxRequests}
	}
	return decision
}

// resetSeconds converts the remaining window to whole seconds, rounding up
// so a client that waits the reported time always lands in a fresh window.
func resetSeconds(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	secs := int(d / time.Second)
	if d%time.Second != 0 {
		secs++
	}
	return secs
}
