package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type visitor struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// IPLimiter keeps a token bucket per client key.
type IPLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	rps      rate.Limit
	burst    int
	now      func() time.Time
}

func NewIPLimiter(rps float64, burst int) *IPLimiter {
	return &IPLimiter{
		visitors: make(map[string]*visitor),
		rps:      rate.Limit(rps),
		burst:    burst,
		now:      time.Now,
	}
}

// Allow reports whether one more request from key fits its bucket.
func (l *IPLimiter) Allow(key string) bool {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	v, ok := l.visitors[key]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(l.rps, l.burst)}
		l.visitors[key] = v
	}
	v.lastAccess = now
	return v.limiter.AllowN(now, 1)
}

// Cleanup drops buckets idle for longer than maxIdle and returns how many
// were removed.
func (l *IPLimiter) Cleanup(maxIdle time.Duration) int {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	removed := 0
	for key, v := range l.visitors {
		if now.Sub(v.lastAccess) > maxIdle {
			delete(l.visitors, key)
			removed++
		}
	}
	return removed
}

// Len returns the number of tracked keys.
func (l *IPLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.visitors)
}
