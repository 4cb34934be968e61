// Package ratelimit implements per-client token buckets for the upload endpoint.
package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Limiter manages one token bucket per client key.
type Limiter struct {
	mu       sync.Mutex
	limiters map[string]*entry
	rate     rate.Limit
	burst    int
	now      func() time.Time
}

type entry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// Config holds rate limiter configuration.
type Config struct {
	// RequestsPerMinute is the sustained rate per client; zero or less disables limiting.
	RequestsPerMinute int
	// Burst defaults to RequestsPerMinute.
	Burst int
}

// DefaultConfig allows ten uploads per minute per client.
func DefaultConfig() Config {
	return Config{RequestsPerMinute: 10}
}

// New creates a new Limiter.
func New(cfg Config) *Limiter {
	r := rate.Inf
	if cfg.RequestsPerMinute > 0 {
		r = rate.Every(time.Minute / time.Duration(cfg.RequestsPerMinute))
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = cfg.RequestsPerMinute
	}
	if burst <= 0 {
		burst = 1
	}
	return &Limiter{
		limiters: make(map[string]*entry),
		rate:     r,
		burst:    burst,
		now:      time.Now,
	}
}

// Allow reports whether the client identified by key may proceed now.
func (l *Limiter) Allow(key string) bool {
	if key == "" {
		key = "unknown"
	}
	now := l.now()
	l.mu.Lock()
	e, ok := l.limiters[key]
	if !ok {
		e = &entry{limiter: rate.NewLimiter(l.rate, l.burst)}
		l.limiters[key] = e
	}
	e.lastSeen = now
	l.mu.Unlock()
	return e.limiter.AllowN(now, 1)
}

// Prune forgets clients idle for longer than idle and returns how many were removed.
func (l *Limiter) Prune(idle time.Duration) int {
	cutoff := l.now().Add(-idle)
	l.mu.Lock()
	defer l.mu.Unlock()
	removed := 0
	for key, e := range l.limiters {
		if e.lastSeen.Before(cutoff) {
			delete(l.limiters, key)
			removed++
		}
	}
	return removed
}

// Len returns the number of tracked clients.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.limiters)
}
