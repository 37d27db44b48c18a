package portal

import (
	"sync"
	"time"
)

// RateLimiter is a fixed-window counter per client. A zero limit disables it.
type RateLimiter struct {
	mu        sync.Mutex
	perClient map[string]*clientRate
	limit     int
	window    time.Duration
	now       func() time.Time
	lastSweep time.Time
}

type clientRate struct {
	count       int
	windowStart time.Time
}

func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	if limit <= 0 {
		return &RateLimiter{limit: 0}
	}
	return &RateLimiter{
		perClient: map[string]*clientRate{},
		limit:     limit,
		window:    window,
		now:       time.Now,
	}
}

func (r *RateLimiter) Allow(client string) (bool, time.Duration) {
	if r == nil || r.limit == 0 {
		return true, 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.now()
	r.sweepLocked(now)
	state, ok := r.perClient[client]
	if !ok {
		state = &clientRate{windowStart: now}
		r.perClient[client] = state
	}
	if now.Sub(state.windowStart) >= r.window {
		state.windowStart = now
		state.count = 0
	}
	if state.count >= r.limit {
		return false, state.windowStart.Add(r.window).Sub(now)
	}
	state.count++
	return true, 0
}

// sweepLocked drops clients whose window has ended, at most once per window.
func (r *RateLimiter) sweepLocked(now time.Time) {
	if now.Sub(r.lastSweep) < r.window {
		return
	}
	r.lastSweep = now
	for client, state := range r.perClient {
		if now.Sub(state.windowStart) >= r.window {
			delete(r.perClient, client)
		}
	}
}
