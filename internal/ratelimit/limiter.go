// VenueScout - Venue Discovery and Recommendation Service
// Copyright 2026 VenueScout contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/venuescout/venuescout

// Package ratelimit implements per-identifier admission control with a true
// sliding window. Unlike fixed-window counters, bursts aligned to a window
// boundary cannot double the effective rate: every check evaluates the exact
// set of timestamps inside the trailing window.
//
// The limiter is process-local and advisory. State is not shared across
// instances and a restart resets all counters; the enforced policy is
// best-effort fair use, not a security boundary.
package ratelimit

import (
	"math"
	"sync"
	"time"
)

// Result is the outcome of an admission check.
type Result struct {
	// Allowed reports whether the request was admitted.
	Allowed bool

	// Remaining is the number of admissions left in the current window.
	Remaining int

	// ResetAt is when the oldest counted admission ages out of the window.
	ResetAt time.Time

	// RetryAfter is how long the caller should wait before retrying.
	// Zero when Allowed.
	RetryAfter time.Duration
}

// RetryAfterSeconds returns RetryAfter rounded up to whole seconds, suitable
// for a Retry-After response header. Returns 0 when the request was allowed.
func (r Result) RetryAfterSeconds() int {
	if r.Allowed || r.RetryAfter <= 0 {
		return 0
	}
	return int(math.Ceil(r.RetryAfter.Seconds()))
}

// record holds the admission timestamps for one identifier. The window is
// remembered from the last check so the sweeper can decide staleness without
// knowing per-route policy.
type record struct {
	timestamps []time.Time
	window     time.Duration
}

// Limiter is a thread-safe sliding-window rate limiter keyed by identifier.
// Identifiers are fully independent; the admission gateway composes a scope
// (route name or "global") with a client key to form them.
type Limiter struct {
	mu      sync.Mutex
	records map[string]*record

	allowed int64
	denied  int64
}

// Stats is a snapshot of limiter counters.
type Stats struct {
	Allowed     int64 `json:"allowed"`
	Denied      int64 `json:"denied"`
	Identifiers int   `json:"identifiers"`
}

// NewLimiter creates an empty sliding-window limiter.
func NewLimiter() *Limiter {
	return &Limiter{
		records: make(map[string]*record),
	}
}

// Check performs an admission check for identifier under the given limit and
// window. Timestamps older than the window are discarded first; if fewer than
// limit remain the request is admitted and the current time recorded.
func (l *Limiter) Check(identifier string, limit int, window time.Duration) Result {
	now := time.Now()
	cutoff := now.Add(-window)

	l.mu.Lock()
	defer l.mu.Unlock()

	rec, exists := l.records[identifier]
	if !exists {
		rec = &record{}
		l.records[identifier] = rec
	}
	rec.window = window

	// Discard timestamps that have aged out of the window. Timestamps are
	// appended in order, so the survivors are a suffix.
	keep := 0
	for keep < len(rec.timestamps) && !rec.timestamps[keep].After(cutoff) {
		keep++
	}
	rec.timestamps = rec.timestamps[keep:]

	if len(rec.timestamps) >= limit {
		// A non-positive limit denies before any timestamp is recorded.
		resetAt := now.Add(window)
		if len(rec.timestamps) > 0 {
			resetAt = rec.timestamps[0].Add(window)
		}
		l.denied++
		return Result{
			Allowed:    false,
			Remaining:  0,
			ResetAt:    resetAt,
			RetryAfter: resetAt.Sub(now),
		}
	}

	rec.timestamps = append(rec.timestamps, now)
	l.allowed++

	return Result{
		Allowed:   true,
		Remaining: limit - len(rec.timestamps),
		ResetAt:   rec.timestamps[0].Add(window),
	}
}

// Len returns the number of tracked identifiers.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.records)
}

// Clear removes all identifiers and resets nothing else; counters persist.
func (l *Limiter) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.records = make(map[string]*record)
}

// CleanupExpired removes identifiers whose every timestamp has aged out of
// that identifier's window. Called by the background sweeper to bound memory
// under sustained low traffic. Returns the number of identifiers removed.
func (l *Limiter) CleanupExpired() int {
	now := time.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	removed := 0
	for id, rec := range l.records {
		cutoff := now.Add(-rec.window)

		live := false
		for _, ts := range rec.timestamps {
			if ts.After(cutoff) {
				live = true
				break
			}
		}
		if !live {
			delete(l.records, id)
			removed++
		}
	}
	return removed
}

// Stats returns a snapshot of limiter counters.
func (l *Limiter) Stats() Stats {
	l.mu.Lock()
	defer l.mu.Unlock()
	return Stats{
		Allowed:     l.allowed,
		Denied:      l.denied,
		Identifiers: len(l.records),
	}
}
