// Package ratelimit throttles rapid mutating actions from one caller.
package ratelimit

import (
	"sync"
	"time"
)

// Window allows at most max actions per key within any rolling period.
// It satisfies echo's middleware.RateLimiterStore.
type Window struct {
	max    int
	period time.Duration
	now    func() time.Time

	mu        sync.Mutex
	events    map[string][]time.Time
	lastSweep time.Time
}

// NewWindow creates a Window allowing max actions per period.
func NewWindow(max int, period time.Duration) *Window {
	return &Window{
		max:    max,
		period: period,
		now:    time.Now,
		events: map[string][]time.Time{},
	}
}

// Allow records an action for key and reports whether it is within the limit.
// Rejected actions are not recorded.
func (w *Window) Allow(key string) (bool, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	now := w.now()
	cutoff := now.Add(-w.period)
	if now.Sub(w.lastSweep) >= w.period {
		w.sweep(cutoff)
		w.lastSweep = now
	}

	recent := w.events[key][:0]
	for _, at := range w.events[key] {
		if at.After(cutoff) {
			recent = append(recent, at)
		}
	}

	if len(recent) >= w.max {
		w.events[key] = recent
		return false, nil
	}
	w.events[key] = append(recent, now)
	return true, nil
}

// sweep forgets keys whose newest action is outside the window.
func (w *Window) sweep(cutoff time.Time) {
	for key, times := range w.events {
		if len(times) == 0 || !times[len(times)-1].After(cutoff) {
			delete(w.events, key)
		}
	}
}
