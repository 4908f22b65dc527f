package redis

import (
	"context"
	"fmt"
	"time"

	"clinic-code-service/internal/domain/ports/adapter"
)

var _ adapter.RateLimiter = (*RateLimiter)(nil)

// RateLimiter is the redis-backed fixed-window counter. Counters are shared
// across service instances, so the limit holds in a scaled-out deployment.
type RateLimiter struct {
	client RedisClient
	window time.Duration
	max    int
}

func NewRateLimiter(client RedisClient, window time.Duration, maxAttempts int) *RateLimiter {
	return &RateLimiter{client: client, window: window, max: maxAttempts}
}

func (r *RateLimiter) Check(ctx context.Context, identity string) (adapter.Decision, error) {
	key := verifyKey(identity)

	count, err := r.client.Incr(ctx, key)
	if err != nil {
		return adapter.Decision{}, err
	}
	if count == 1 {
		if err := r.client.Expire(ctx, key, r.window); err != nil {
			return adapter.Decision{}, err
		}
	}

	if count > int64(r.max) {
		ttl, err := r.client.PTTL(ctx, key)
		if err != nil || ttl < 0 {
			// Key lost its TTL (or PTTL failed); fall back to a full window
			// so the caller still gets a usable retry hint.
			ttl = r.window
		}
		return adapter.Decision{Allowed: false, RetryAfter: ttl}, nil
	}
	return adapter.Decision{Allowed: true}, nil
}

func verifyKey(identity string) string {
	return fmt.Sprintf("hospital_code_verify:%s", identity)
}
