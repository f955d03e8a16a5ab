package dashboard

import (
	"sync"
	"time"
)

// pruneThreshold is the bucket count above which expired buckets are swept.
const pruneThreshold = 4096

// RateLimiter is a fixed-window limiter keyed by an arbitrary string,
// normally the client IP.
type RateLimiter struct {
	rate    int
	window  time.Duration
	buckets map[string]*bucket
	mu      sync.Mutex
}

type bucket struct {
	tokens  int
	resetAt time.Time
}

// NewRateLimiter allows rate requests per key per window.
func NewRateLimiter(rate int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		rate:    rate,
		window:  window,
		buckets: make(map[string]*bucket),
	}
}

// Allow consumes a token for key. The first request of a window always
// succeeds and starts the window.
func (rl *RateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	b, ok := rl.buckets[key]
	if !ok || !now.Before(b.resetAt) {
		if !ok && len(rl.buckets) >= pruneThreshold {
			rl.pruneLocked(now)
		}
		rl.buckets[key] = &bucket{tokens: rl.rate - 1, resetAt: now.Add(rl.window)}
		return true
	}
	if b.tokens <= 0 {
		return false
	}
	b.tokens--
	return true
}

func (rl *RateLimiter) pruneLocked(now time.Time) {
	for k, b := range rl.buckets {
		if !now.Before(b.resetAt) {
			delete(rl.buckets, k)
		}
	}
}

// retryAfterSeconds is the window length rounded up to whole seconds.
func (rl *RateLimiter) retryAfterSeconds() int {
	secs := int((rl.window + time.Second - 1) / time.Second)
	if secs < 1 {
		return 1
	}
	return secs
}
