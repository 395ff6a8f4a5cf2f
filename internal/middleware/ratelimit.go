package middleware

import (
	"sync"
	"time"
)

// RateLimiter allows at most limit calls per key within a sliding window.
// The server keys it by user id, falling back to the remote address.
type RateLimiter struct {
	limit  int
	window time.Duration

	mu   sync.Mutex
	hits map[string][]time.Time

	stop     chan struct{}
	stopOnce sync.Once
}

// NewRateLimiter creates a limiter and starts its sweeper.
func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	rl := &RateLimiter{
		limit:  limit,
		window: window,
		hits:   make(map[string][]time.Time),
		stop:   make(chan struct{}),
	}
	go rl.sweep()
	return rl
}

// Allow records a call for key and reports whether it is within the limit.
func (r *RateLimiter) Allow(key string) bool {
	now := time.Now()

	r.mu.Lock()
	defer r.mu.Unlock()

	recent := pruneBefore(r.hits[key], now.Add(-r.window))
	if len(recent) >= r.limit {
		r.hits[key] = recent
		return false
	}
	r.hits[key] = append(recent, now)
	return true
}

// Close stops the sweeper. Allow keeps working afterwards.
func (r *RateLimiter) Close() {
	r.stopOnce.Do(func() { close(r.stop) })
}

func (r *RateLimiter) sweep() {
	ticker := time.NewTicker(r.window)
	defer ticker.Stop()
	for {
		select {
		case <-r.stop:
			return
		case <-ticker.C:
			r.evict()
		}
	}
}

// evict drops keys with no calls inside the window.
func (r *RateLimiter) evict() {
	cutoff := time.Now().Add(-r.window)

	r.mu.Lock()
	defer r.mu.Unlock()
	for key, times := range r.hits {
		if recent := pruneBefore(times, cutoff); len(recent) > 0 {
			r.hits[key] = recent
		} else {
			delete(r.hits, key)
		}
	}
}

// pruneBefore returns the suffix of times after cutoff. times is ascending.
func pruneBefore(times []time.Time, cutoff time.Time) []time.Time {
	for i, t := range times {
		if t.After(cutoff) {
			return times[i:]
		}
	}
	return nil
}
