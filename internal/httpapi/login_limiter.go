package httpapi

import (
	"sync"
	"time"
)

const (
	loginWindow      = 5 * time.Minute
	loginMaxAttempts = 10
)

// loginLimiter is a sliding-window attempt counter keyed by client ip and
// username. Keys whose attempts have all aged out are dropped.
type loginLimiter struct {
	mu      sync.Mutex
	window  time.Duration
	max     int
	entries map[string][]time.Time
}

func newLoginLimiter() *loginLimiter {
	return &loginLimiter{
		window:  loginWindow,
		max:     loginMaxAttempts,
		entries: make(map[string][]time.Time),
	}
}

func (l *loginLimiter) Allow(key string, now time.Time) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	recent := l.recentLocked(key, now)
	if len(recent) >= l.max {
		return false
	}
	l.entries[key] = append(recent, now)
	return true
}

func (l *loginLimiter) recentLocked(key string, now time.Time) []time.Time {
	cutoff := now.Add(-l.window)
	ts := l.entries[key]
	i := 0
	for i < len(ts) && !ts[i].After(cutoff) {
		i++
	}
	ts = ts[i:]
	if len(ts) == 0 {
		delete(l.entries, key)
		return nil
	}
	l.entries[key] = ts
	return ts
}
