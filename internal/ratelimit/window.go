// Package ratelimit guards mnemonic and PIN verification against online
// guessing: a fixed number of attempts per identity inside a sliding window.
package ratelimit

import (
	"sync"
	"time"
)

// Window counts attempts per key over a sliding time window. Idle keys are
// swept opportunistically on each call, so memory stays bounded by the set
// of recently active identities.
type Window struct {
	mu       sync.Mutex
	limit    int
	window   time.Duration
	attempts map[string][]time.Time
	now      func() time.Time
}

// NewWindow allows at most limit attempts per key within window.
func NewWindow(limit int, window time.Duration) *Window {
	return &Window{
		limit:    limit,
		window:   window,
		attempts: make(map[string][]time.Time),
		now:      time.Now,
	}
}

// Allow records one attempt for key and reports whether it is within the
// limit. The check and the record are one critical section, so concurrent
// guesses cannot sneak past the limit together.
func (w *Window) Allow(key string) bool {
	now := w.now()
	cutoff := now.Add(-w.window)

	w.mu.Lock()
	defer w.mu.Unlock()

	kept := w.attempts[key][:0]
	for _, t := range w.attempts[key] {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}

	if len(kept) >= w.limit {
		w.attempts[key] = kept
		w.sweepLocked(cutoff)
		return false
	}

	w.attempts[key] = append(kept, now)
	w.sweepLocked(cutoff)
	return true
}

// Reset clears the attempt history for key, e.g. after a successful
// verification.
func (w *Window) Reset(key string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.attempts, key)
}

func (w *Window) sweepLocked(cutoff time.Time) {
	for k, times := range w.attempts {
		if len(times) == 0 || !times[len(times)-1].After(cutoff) {
			delete(w.attempts, k)
		}
	}
}
