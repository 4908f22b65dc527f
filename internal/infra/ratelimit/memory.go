package ratelimit

import (
	"context"
	"sync"
	"time"

	"clinic-code-service/internal/domain/ports/adapter"
)

// Default fixed-window policy for hospital-code verification.
const (
	DefaultWindow      = 15 * time.Minute
	DefaultMaxAttempts = 5
)

var _ adapter.RateLimiter = (*MemoryLimiter)(nil)

type record struct {
	count   int
	resetAt time.Time
}

// MemoryLimiter is a process-local fixed-window counter keyed by identity.
// It is an explicitly constructed instance, not package state: callers own
// its lifecycle. Counters are not shared across processes, so running
// several instances multiplies the effective limit; deployments that scale
// out should use the redis-backed limiter instead.
type MemoryLimiter struct {
	mu      sync.Mutex
	records map[string]*record
	window  time.Duration
	max     int
	now     func() time.Time
}

func NewMemoryLimiter(window time.Duration, maxAttempts int) *MemoryLimiter {
	if window <= 0 {
		window = DefaultWindow
	}
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	return &MemoryLimiter{
		records: make(map[string]*record),
		window:  window,
		max:     maxAttempts,
		now:     time.Now,
	}
}

// Check consumes one attempt slot for identity. The read-check-write on a
// record happens under one lock so two concurrent requests cannot both slip
// past the limit.
func (l *MemoryLimiter) Check(_ context.Context, identity string) (adapter.Decision, error) {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	r, ok := l.records[identity]
	if !ok || now.After(r.resetAt) {
		l.records[identity] = &record{count: 1, resetAt: now.Add(l.window)}
		return adapter.Decision{Allowed: true}, nil
	}
	if r.count >= l.max {
		return adapter.Decision{Allowed: false, RetryAfter: r.resetAt.Sub(now)}, nil
	}
	r.count++
	return adapter.Decision{Allowed: true}, nil
}

// Run prunes expired records periodically until ctx is cancelled, keeping
// the map from growing without bound across distinct identities.
func (l *MemoryLimiter) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = l.window
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.sweep()
		}
	}
}

func (l *MemoryLimiter) sweep() {
	now := l.now()
	l.mu.Lock()
	defer l.mu.Unlock()
	for identity, r := range l.records {
		if now.After(r.resetAt) {
			delete(l.records, identity)
		}
	}
}
