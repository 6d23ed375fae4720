package server

import (
	"sync"
	"time"
)

// loginRateLimiter keeps a sliding window of failed sign-ins per key. Once a
// key reaches the failure limit inside the window it is locked out for a
// fixed period. A nil limiter allows everything.
type loginRateLimiter struct {
	limit   int
	window  time.Duration
	lockout time.Duration

	mu        sync.Mutex
	failures  map[string][]time.Time
	lockedTil map[string]time.Time
	lastSweep time.Time
}

func newLoginRateLimiter(limit int, window, lockout time.Duration) *loginRateLimiter {
	if limit <= 0 || window <= 0 || lockout <= 0 {
		return nil
	}
	return &loginRateLimiter{
		limit:     limit,
		window:    window,
		lockout:   lockout,
		failures:  make(map[string][]time.Time),
		lockedTil: make(map[string]time.Time),
	}
}

// Check returns how long key must wait before trying again. Zero means the
// attempt may proceed.
func (l *loginRateLimiter) Check(key string, now time.Time) time.Duration {
	if l == nil {
		return 0
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.sweep(now)

	until, ok := l.lockedTil[key]
	if !ok {
		return 0
	}
	if !now.Before(until) {
		delete(l.lockedTil, key)
		return 0
	}
	return until.Sub(now)
}

// RegisterFailure records a failed attempt and reports whether it started a
// lockout.
func (l *loginRateLimiter) RegisterFailure(key string, now time.Time) bool {
	if l == nil {
		return false
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.sweep(now)

	recent := recentFailures(l.failures[key], now.Add(-l.window))
	recent = append(recent, now)
	if len(recent) < l.limit {
		l.failures[key] = recent
		return false
	}
	delete(l.failures, key)
	l.lockedTil[key] = now.Add(l.lockout)
	return true
}

// Reset forgets key after a successful sign-in.
func (l *loginRateLimiter) Reset(key string) {
	if l == nil {
		return
	}
	l.mu.Lock()
	delete(l.failures, key)
	delete(l.lockedTil, key)
	l.mu.Unlock()
}

// sweep drops expired state at most once per window. Caller holds mu.
func (l *loginRateLimiter) sweep(now time.Time) {
	if now.Sub(l.lastSweep) < l.window {
		return
	}
	l.lastSweep = now
	cutoff := now.Add(-l.window)
	for key, times := range l.failures {
		if kept := recentFailures(times, cutoff); len(kept) > 0 {
			l.failures[key] = kept
		} else {
			delete(l.failures, key)
		}
	}
	for key, until := range l.lockedTil {
		if !now.Before(until) {
			delete(l.lockedTil, key)
		}
	}
}

// recentFailures filters times in place, keeping those after cutoff.
func recentFailures(times []time.Time, cutoff time.Time) []time.Time {
	kept := times[:0]
	for _, t := range times {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	return kept
}
