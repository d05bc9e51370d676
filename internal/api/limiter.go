package api

import (
	"sync"
	"time"
)

// IntervalLimiter admits at most one request per fixed interval. Each
// server owns one; the zero last-time means the first request is always
// admitted.
type IntervalLimiter struct {
	mu   sync.Mutex
	min  time.Duration
	last time.Time
}

// NewIntervalLimiter builds a limiter with the given minimum interval.
func NewIntervalLimiter(min time.Duration) *IntervalLimiter {
	return &IntervalLimiter{min: min}
}

// Allow reports whether a request at the given instant may proceed and
// records it if so.
func (l *IntervalLimiter) Allow(now time.Time) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.last.IsZero() && now.Sub(l.last) < l.min {
		return false
	}
	l.last = now
	return true
}
