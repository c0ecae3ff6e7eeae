package flow

import (
	"sync"
	"time"
)

// RateLimiter gates an action behind a per-user cooldown. It tracks the last
// successful acquire per user and denies attempts inside the cooldown window.
type RateLimiter struct {
	mu       sync.Mutex
	cooldown time.Duration
	last     map[string]time.Time
	now      func() time.Time
}

// NewRateLimiter creates a RateLimiter with the given cooldown.
func NewRateLimiter(cooldown time.Duration) *RateLimiter {
	return &RateLimiter{
		cooldown: cooldown,
		last:     make(map[string]time.Time),
		now:      time.Now,
	}
}

// TryAcquire attempts to pass the gate. On success it records the acquire
// time and returns (0, true). Inside the cooldown it returns the remaining
// wait and false without updating the timestamp.
func (rl *RateLimiter) TryAcquire(userID string) (time.Duration, bool) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	if last, ok := rl.last[userID]; ok {
		if elapsed := now.Sub(last); elapsed < rl.cooldown {
			return rl.cooldown - elapsed, false
		}
	}
	rl.last[userID] = now
	return 0, true
}

// Cleanup drops entries older than twice the cooldown to bound memory.
func (rl *RateLimiter) Cleanup() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := rl.now().Add(-2 * rl.cooldown)
	for userID, last := range rl.last {
		if last.Before(cutoff) {
			delete(rl.last, userID)
		}
	}
}
