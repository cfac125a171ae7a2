// VenueScout - Venue Discovery and Recommendation Service
// Copyright 2026 VenueScout contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/venuescout/venuescout

// Package retry wraps a single remote call with bounded exponential-backoff
// retry. The retrier is a pure decorator: it knows nothing about caching or
// rate limiting, and provider adapters compose it around their network call.
//
// Failures are retried only when they match an explicit allow-list (transient
// HTTP status codes and transport-level error categories). Everything else
// propagates immediately without consuming an attempt budget; a catch-all
// retry condition would mask permanent failures as transient ones.
package retry

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/venuescout/venuescout/internal/logging"
)

// maxJitter is the upper bound of the random delay added to each backoff
// step. Jitter prevents thundering-herd retries when many callers fail
// simultaneously against the same upstream outage.
const maxJitter = 100 * time.Millisecond

// Config controls retry behavior for one logical call.
type Config struct {
	// MaxAttempts is the total number of invocations, including the first.
	// Default: 3
	MaxAttempts int

	// InitialDelay is the backoff before the first retry.
	// Default: 500ms
	InitialDelay time.Duration

	// MaxDelay caps each individual backoff step.
	// Default: 10s
	MaxDelay time.Duration

	// RetryableStatuses is the HTTP status allow-list. A nil slice means the
	// default list (429, 500, 502, 503, 504); an empty non-nil slice disables
	// status-based retry entirely.
	RetryableStatuses []int
}

// DefaultConfig returns the retry configuration used by provider adapters
// unless overridden per adapter.
func DefaultConfig() Config {
	return Config{
		MaxAttempts:  3,
		InitialDelay: 500 * time.Millisecond,
		MaxDelay:     10 * time.Second,
	}
}

func (c Config) withDefaults() Config {
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 3
	}
	if c.InitialDelay <= 0 {
		c.InitialDelay = 500 * time.Millisecond
	}
	if c.MaxDelay <= 0 {
		c.MaxDelay = 10 * time.Second
	}
	return c
}

// exponential implements backoff.BackOff with the delay formula
// min(initialDelay * 2^i + jitter(0..100ms), maxDelay) for attempt i.
type exponential struct {
	initial time.Duration
	max     time.Duration
	attempt int

	mu  sync.Mutex
	rng *rand.Rand
}

func newExponential(initial, max time.Duration) *exponential {
	return &exponential{
		initial: initial,
		max:     max,
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// NextBackOff returns the delay before the next retry.
func (b *exponential) NextBackOff() time.Duration {
	b.mu.Lock()
	defer b.mu.Unlock()

	delay := b.initial << b.attempt
	if delay <= 0 || delay > b.max {
		// Shift overflow or past the cap; jitter no longer matters.
		b.attempt++
		return b.max
	}

	delay += time.Duration(b.rng.Int63n(int64(maxJitter) + 1))
	if delay > b.max {
		delay = b.max
	}

	b.attempt++
	return delay
}

// Reset restarts the backoff sequence.
func (b *exponential) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.attempt = 0
}

// Do invokes op until it succeeds, fails permanently, or the attempt budget
// is exhausted. The context is honored during backoff waits; cancellation
// surfaces as the context error.
//
// Guarantees:
//   - A non-retryable error is returned after exactly one invocation.
//   - Given k retryable failures then success with MaxAttempts > k, the
//     success value is returned after exactly k+1 invocations.
//   - On exhaustion the last error is returned unchanged in kind.
func Do[T any](ctx context.Context, cfg Config, op func() (T, error)) (T, error) {
	cfg = cfg.withDefaults()

	wrapped := func() (T, error) {
		v, err := op()
		if err != nil && !IsRetryable(err, cfg.RetryableStatuses) {
			return v, backoff.Permanent(err)
		}
		return v, err
	}

	b := backoff.WithContext(
		backoff.WithMaxRetries(
			newExponential(cfg.InitialDelay, cfg.MaxDelay),
			uint64(cfg.MaxAttempts-1),
		),
		ctx,
	)

	notify := func(err error, delay time.Duration) {
		logging.Debug().Err(err).Dur("delay", delay).Msg("retrying after transient failure")
	}

	return backoff.RetryNotifyWithData(wrapped, b, notify)
}
