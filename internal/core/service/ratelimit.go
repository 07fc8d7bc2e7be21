package service

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiterRegistry manages one token-bucket limiter per caller address.
type RateLimiterRegistry struct {
	mu       sync.RWMutex
	limiters map[string]*rate.Limiter
	limit    rate.Limit
	burst    int
}

// NewRateLimiterRegistry creates a registry handing out limiters that allow
// perSecond events per second with the given burst.
func NewRateLimiterRegistry(perSecond float64, burst int) *RateLimiterRegistry {
	if burst < 1 {
		burst = 1
	}
	return &RateLimiterRegistry{
		limiters: make(map[string]*rate.Limiter),
		limit:    rate.Limit(perSecond),
		burst:    burst,
	}
}

// Allow reports whether key may proceed now, consuming one token.
func (r *RateLimiterRegistry) Allow(key string) bool {
	return r.GetOrCreate(key).Allow()
}

// GetOrCreate retrieves an existing rate limiter or creates a new one.
func (r *RateLimiterRegistry) GetOrCreate(key string) *rate.Limiter {
	r.mu.RLock()
	limiter, exists := r.limiters[key]
	r.mu.RUnlock()

	if exists {
		return limiter
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// Double-check after acquiring write lock
	if limiter, exists := r.limiters[key]; exists {
		return limiter
	}

	limiter = rate.NewLimiter(r.limit, r.burst)
	r.limiters[key] = limiter

	return limiter
}

// Prune drops limiters whose bucket has refilled completely. Such callers
// are indistinguishable from new ones, so the memory can be reclaimed.
// Returns the number of limiters removed.
func (r *RateLimiterRegistry) Prune(now time.Time) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for key, l := range r.limiters {
		if l.TokensAt(now) >= float64(r.burst) {
			delete(r.limiters, key)
			removed++
		}
	}
	return removed
}

// Delete removes the limiter for key.
func (r *RateLimiterRegistry) Delete(key string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.limiters, key)
}

// Len returns the number of tracked limiters.
func (r *RateLimiterRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.limiters)
}
