package collect

import (
	"sync"
	"time"
)

// RateLimiter enforces a minimum wall-clock gap between successive outbound
// calls attributed to one external source. Each run owns its own limiter;
// the mutex keeps it safe when the orchestrator dispatches runs that share
// one (which the default wiring does not).
type RateLimiter struct {
	mu       sync.Mutex
	interval time.Duration
	last     time.Time
}

// NewRateLimiter creates a limiter with the given minimum spacing. A
// negative interval is clamped to zero.
func NewRateLimiter(minInterval time.Duration) *RateLimiter {
	if minInterval < 0 {
		minInterval = 0
	}
	return &RateLimiter{interval: minInterval}
}

// Wait blocks until at least the configured interval has elapsed since the
// previous call to Wait on this limiter. The first call never blocks.
func (r *RateLimiter) Wait() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.last.IsZero() {
		if elapsed := time.Since(r.last); elapsed < r.interval {
			time.Sleep(r.interval - elapsed)
		}
	}
	r.last = time.Now()
}
