package server

import (
	"testing"
	"time"
)

func TestLoginRateLimiterLockout(t *testing.T) {
	start := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	type step struct {
		at       time.Duration
		fail     bool
		wantLock bool
		wantWait time.Duration
	}
	tests := []struct {
		name  string
		limit int
		steps []step
	}{
		{
			name:  "third failure locks for the full period",
			limit: 3,
			steps: []step{
				{at: 0, fail: true},
				{at: 0, fail: true},
				{at: 0, fail: true, wantLock: true},
				{at: time.Minute, wantWait: 4 * time.Minute},
				{at: 5 * time.Minute},
			},
		},
		{
			name:  "failures outside the window do not accumulate",
			limit: 2,
			steps: []step{
				{at: 0, fail: true},
				{at: 2 * time.Minute, fail: true},
				{at: 2 * time.Minute},
			},
		},
		{
			name:  "window slides with the oldest failure",
			limit: 3,
			steps: []step{
				{at: 0, fail: true},
				{at: 40 * time.Second, fail: true},
				{at: 70 * time.Second, fail: true},
				{at: 90 * time.Second, fail: true, wantLock: true},
				{at: 91 * time.Second, wantWait: 5*time.Minute - time.Second},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := newLoginRateLimiter(tt.limit, time.Minute, 5*time.Minute)
			const key = "127.0.0.1|admin@acme.io"
			for i, st := range tt.steps {
				now := start.Add(st.at)
				if st.fail {
					if got := l.RegisterFailure(key, now); got != st.wantLock {
						t.Fatalf("step %d: RegisterFailure=%v want %v", i, got, st.wantLock)
					}
					continue
				}
				if got := l.Check(key, now); got != st.wantWait {
					t.Fatalf("step %d: Check=%v want %v", i, got, st.wantWait)
				}
			}
		})
	}
}

func TestLoginRateLimiterResetAndSweep(t *testing.T) {
	l := newLoginRateLimiter(1, time.Minute, time.Hour)
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	if !l.RegisterFailure("a", now) {
		t.Fatal("expected single failure to lock with limit 1")
	}
	l.Reset("a")
	if wait := l.Check("a", now); wait != 0 {
		t.Fatalf("expected reset key to pass, got wait %v", wait)
	}

	l.RegisterFailure("b", now)
	l.Check("c", now.Add(2*time.Hour))
	if len(l.lockedTil) != 0 || len(l.failures) != 0 {
		t.Fatalf("expected sweep to drop expired state, got %d locks %d failures", len(l.lockedTil), len(l.failures))
	}
}

func TestLoginRateLimiterNilIsPermissive(t *testing.T) {
	var l *loginRateLimiter
	if l.Check("k", time.Now()) != 0 || l.RegisterFailure("k", time.Now()) {
		t.Fatal("nil limiter must allow everything")
	}
	l.Reset("k")
	if newLoginRateLimiter(0, time.Minute, time.Minute) != nil {
		t.Fatal("expected disabled limiter for a zero limit")
	}
}
