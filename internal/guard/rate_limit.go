package guard

import (
	"sync"
	"time"
)

// DefaultRateInterval is the minimum spacing between allowed calls per user.
const DefaultRateInterval = 300 * time.Millisecond

// RateLimiter enforces a minimum interval between allowed calls per user.
// The timestamp is recorded on every call, allowed or not, so a burst
// collapses to a single allowed call per interval.
type RateLimiter struct {
	mu       sync.Mutex
	lastSeen map[int64]time.Time
	interval time.Duration
	now      func() time.Time
}

// NewRateLimiter creates a RateLimiter with the given minimum interval.
// A non-positive interval falls back to DefaultRateInterval.
func NewRateLimiter(interval time.Duration) *RateLimiter {
	if interval <= 0 {
		interval = DefaultRateInterval
	}
	return &RateLimiter{
		lastSeen: make(map[int64]time.Time),
		interval: interval,
		now:      time.Now,
	}
}

// Allow reports whether at least the minimum interval has elapsed since the
// last call for this user.
func (r *RateLimiter) Allow(userID int64) bool {
	now := r.now()

	r.mu.Lock()
	defer r.mu.Unlock()

	last, ok := r.lastSeen[userID]
	r.lastSeen[userID] = now
	if ok && now.Sub(last) < r.interval {
		return false
	}
	return true
}
