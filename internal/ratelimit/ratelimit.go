// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package ratelimit enforces per-actor quotas on translation work with
// fixed-window counting: a window of duration W holds a counter, TryAdmit
// increments it, and the counter resets when the window elapses. The
// approximation is deliberate and documented: an actor can burst up to 2Q
// across a window boundary. Counters live in process memory only; a
// restart resets quotas, which is an accepted trade-off since admission is
// advisory throttling, not a security boundary.
package ratelimit

import (
	"sync"
	"time"
)

// Default limiter configuration.
const (
	DefaultQuota  = 60
	DefaultWindow = time.Minute
)

// Limiter is a fixed-window counter per actor. Contention is scoped to a
// single actor's key; actors never serialize against each other beyond the
// brief map access.
type Limiter struct {
	quota  int64
	window time.Duration

	mu      sync.RWMutex
	windows map[string]*window

	now func() time.Time // test seam
}

type window struct {
	mu    sync.Mutex
	start time.Time
	count int64
}

// New creates a limiter admitting quota units per actor per window.
func New(quota int64, windowDur time.Duration) *Limiter {
	if quota <= 0 {
		quota = DefaultQuota
	}
	if windowDur <= 0 {
		windowDur = DefaultWindow
	}
	return &Limiter{
		quota:   quota,
		window:  windowDur,
		windows: make(map[string]*window),
		now:     time.Now,
	}
}

// TryAdmit reports whether actor may proceed with weight units of work.
// A refusal does not consume quota.
func (l *Limiter) TryAdmit(actor string, weight int64) bool {
	if weight <= 0 {
		weight = 1
	}

	w := l.windowFor(actor)

	w.mu.Lock()
	defer w.mu.Unlock()

	now := l.now()
	if now.Sub(w.start) >= l.window {
		w.start = now
		w.count = 0
	}

	if w.count+weight > l.quota {
		return false
	}
	w.count += weight
	return true
}

// Remaining returns the units still admissible for actor in the current
// window. Informational only; racing callers may still be refused.
func (l *Limiter) Remaining(actor string) int64 {
	w := l.windowFor(actor)

	w.mu.Lock()
	defer w.mu.Unlock()

	if l.now().Sub(w.start) >= l.window {
		return l.quota
	}
	remaining := l.quota - w.count
	if remaining < 0 {
		return 0
	}
	return remaining
}

// Sweep drops windows that have been idle for at least one full window,
// bounding memory across many one-off actors. Returns the number removed.
func (l *Limiter) Sweep() int {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	removed := 0
	for actor, w := range l.windows {
		w.mu.Lock()
		stale := now.Sub(w.start) >= 2*l.window
		w.mu.Unlock()
		if stale {
			delete(l.windows, actor)
			removed++
		}
	}
	return removed
}

// windowFor returns the actor's window, creating it if needed.
func (l *Limiter) windowFor(actor string) *window {
	l.mu.RLock()
	w, ok := l.windows[actor]
	l.mu.RUnlock()
	if ok {
		return w
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	// Double-check after acquiring write lock
	if w, ok = l.windows[actor]; ok {
		return w
	}
	w = &window{start: l.now().Add(-2 * l.window)} // first TryAdmit starts the window
	l.windows[actor] = w
	return w
}
