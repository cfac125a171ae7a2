// VenueScout - Venue Discovery and Recommendation Service
// Copyright 2026 VenueScout contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/venuescout/venuescout

package providers

import (
	"errors"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/venuescout/venuescout/internal/metrics"
	"github.com/venuescout/venuescout/internal/retry"
)

var (
	// ErrQuotaExceeded marks a provider daily-cap or quota rejection. It is
	// surfaced as a distinct "try later" condition; the orchestrator treats
	// it as a failed query rather than aborting the pass.
	ErrQuotaExceeded = errors.New("provider quota exceeded")

	// ErrProviderUnavailable marks an adapter that is disabled or missing
	// credentials.
	ErrProviderUnavailable = errors.New("provider unavailable")
)

// classifyProviderError buckets a terminal adapter failure into the error
// taxonomy (transient, permanent, quota) for metrics, and counts circuit
// breaker rejections and retry exhaustions separately.
func classifyProviderError(provider string, err error) {
	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		metrics.CircuitBreakerRejections.WithLabelValues(provider).Inc()
		metrics.ProviderErrors.WithLabelValues(provider, "transient").Inc()
	case errors.Is(err, ErrQuotaExceeded):
		metrics.ProviderErrors.WithLabelValues(provider, "quota").Inc()
	case retry.IsRetryable(err, nil):
		// Still transient in kind; the retry budget ran out.
		metrics.RetryExhaustions.WithLabelValues(provider).Inc()
		metrics.ProviderErrors.WithLabelValues(provider, "transient").Inc()
	default:
		metrics.ProviderErrors.WithLabelValues(provider, "permanent").Inc()
	}
}
