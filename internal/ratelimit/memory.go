package ratelimit

import (
	"context"
	"sync"
	"time"
)

type entry struct {
	count   int
	resetAt time.Time
}

// MemoryLimiter is a fixed-window counter held in a process-local map.
// Counters do not survive a restart and are not shared across instances;
// acceptable for a single-instance deployment only.
type MemoryLimiter struct {
	mu        sync.Mutex
	entries   map[string]*entry
	window    time.Duration
	ceiling   int
	nextSweep time.Time
	now       func() time.Time
}

func NewMemoryLimiter(window time.Duration, ceiling int) *MemoryLimiter {
	return &MemoryLimiter{
		entries: make(map[string]*entry),
		window:  window,
		ceiling: ceiling,
		now:     time.Now,
	}
}

func (l *MemoryLimiter) Consume(_ context.Context, key string) (Decision, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.sweep(now)

	e, ok := l.entries[key]
	if !ok || !now.Before(e.resetAt) {
		e = &entry{count: 1, resetAt: now.Add(l.window)}
		l.entries[key] = e
		return Decision{Allowed: true, Remaining: l.ceiling - 1, ResetAt: e.resetAt}, nil
	}

	if e.count >= l.ceiling {
		return Decision{Allowed: false, Remaining: 0, ResetAt: e.resetAt}, nil
	}

	e.count++
	return Decision{Allowed: true, Remaining: l.ceiling - e.count, ResetAt: e.resetAt}, nil
}

func (l *MemoryLimiter) Reset(_ context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.entries, key)
	return nil
}

// sweep drops elapsed windows so keys seen once (a typical failed login)
// do not accumulate forever. Runs at most once per window, under the
// lock the caller already holds.
func (l *MemoryLimiter) sweep(now time.Time) {
	if now.Before(l.nextSweep) {
		return
	}
	for key, e := range l.entries {
		if !now.Before(e.resetAt) {
			delete(l.entries, key)
		}
	}
	l.nextSweep = now.Add(l.window)
}
