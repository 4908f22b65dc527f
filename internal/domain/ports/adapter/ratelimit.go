package adapter

import (
	"context"
	"time"
)

// Decision is the answer of a rate limiter for one attempt.
type Decision struct {
	Allowed    bool
	RetryAfter time.Duration // time until the identity's window resets; zero when allowed
}

// RateLimiter is the hex port for attempt throttling. Identity is an opaque
// key; callers derive it (typically from the client network address).
//
// Check mutates limiter state: every call consumes one attempt slot unless
// the identity is already over its limit. Implementations must make the
// read-check-write on a single identity atomic.
type RateLimiter interface {
	Check(ctx context.Context, identity string) (Decision, error)
}
