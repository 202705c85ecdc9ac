// Package ratelimit bounds login attempts per client with an in-memory
// fixed-window counter.
//
// State lives in process memory and is lost on restart. It is only correct
// for a single-process deployment; a horizontally scaled setup needs a
// shared limiter behind the same Limiter interface.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Limiter decides whether another attempt for key is allowed right now.
type Limiter interface {
	Allow(key string) bool
}

type window struct {
	start time.Time
	count int
}

// FixedWindow allows up to limit attempts per key in each window. The
// window for a key opens at its first attempt and resets once it has fully
// elapsed.
type FixedWindow struct {
	mu      sync.Mutex
	limit   int
	window  time.Duration
	now     func() time.Time
	windows map[string]*window
}

// Option customises a FixedWindow.
type Option func(*FixedWindow)

// WithClock replaces the time source.
func WithClock(now func() time.Time) Option {
	return func(l *FixedWindow) { l.now = now }
}

func NewFixedWindow(limit int, per time.Duration, opts ...Option) *FixedWindow {
	l := &FixedWindow{
		limit:   limit,
		window:  per,
		now:     time.Now,
		windows: make(map[string]*window),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Allow records an attempt for key and reports whether it fits in the
// current window. Rejected attempts are not counted.
func (l *FixedWindow) Allow(key string) bool {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	w, ok := l.windows[key]
	if !ok || now.Sub(w.start) >= l.window {
		l.windows[key] = &window{start: now, count: 1}
		return l.limit > 0
	}
	if w.count >= l.limit {
		return false
	}
	w.count++
	return true
}

// Sweep drops windows that have fully elapsed and returns how many were
// removed.
func (l *FixedWindow) Sweep() int {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	removed := 0
	for key, w := range l.windows {
		if now.Sub(w.start) >= l.window {
			delete(l.windows, key)
			removed++
		}
	}
	return removed
}

// Len is the number of tracked keys.
func (l *FixedWindow) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.windows)
}

// Run sweeps expired windows every interval until ctx is done.
func (l *FixedWindow) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.Sweep()
		}
	}
}
