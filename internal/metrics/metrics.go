// VenueScout - Venue Discovery and Recommendation Service
// Copyright 2026 VenueScout contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/venuescout/venuescout

// Package metrics exposes Prometheus collectors for the resilience layer:
// cache efficiency per domain, admission control decisions, retry behavior,
// provider call latency and failures, and search pass outcomes.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Cache Metrics

	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "venuescout_cache_hits_total",
			Help: "Total cache hits per logical cache domain",
		},
		[]string{"domain"},
	)

	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "venuescout_cache_misses_total",
			Help: "Total cache misses per logical cache domain",
		},
		[]string{"domain"},
	)

	CacheEvictions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "venuescout_cache_evictions_total",
			Help: "Total cache evictions (LRU and expiry) per logical cache domain",
		},
		[]string{"domain"},
	)

	CacheSize = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "venuescout_cache_entries",
			Help: "Current number of live cache entries per logical cache domain",
		},
		[]string{"domain"},
	)

	// Rate Limiter Metrics

	RateLimitDecisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "venuescout_ratelimit_decisions_total",
			Help: "Admission decisions per scope and outcome",
		},
		[]string{"scope", "outcome"}, // outcome: "allowed", "rejected"
	)

	RateLimitIdentifiers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "venuescout_ratelimit_identifiers",
			Help: "Number of identifiers currently tracked by the limiter",
		},
	)

	// Retry Metrics

	RetryAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "venuescout_retry_attempts_total",
			Help: "Retry attempts per provider",
		},
		[]string{"provider"},
	)

	RetryExhaustions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "venuescout_retry_exhaustions_total",
			Help: "Calls that exhausted their retry budget per provider",
		},
		[]string{"provider"},
	)

	// Provider Metrics

	ProviderRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "venuescout_provider_request_duration_seconds",
			Help:    "Upstream provider call duration in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"provider", "operation"},
	)

	ProviderErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "venuescout_provider_errors_total",
			Help: "Upstream provider failures per provider and error class",
		},
		[]string{"provider", "class"}, // class: "transient", "permanent", "quota"
	)

	// Circuit Breaker Metrics

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "venuescout_circuit_breaker_state",
			Help: "Circuit breaker state per provider (0=closed, 1=half-open, 2=open)",
		},
		[]string{"provider"},
	)

	CircuitBreakerRejections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "venuescout_circuit_breaker_rejections_total",
			Help: "Calls rejected by an open circuit per provider",
		},
		[]string{"provider"},
	)

	// Search Orchestration Metrics

	SearchPassDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "venuescout_search_pass_duration_seconds",
			Help:    "Duration of a full orchestration pass in seconds",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
	)

	SearchVenuesReturned = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "venuescout_search_venues_returned",
			Help:    "Number of venues returned per orchestration pass",
			Buckets: []float64{0, 1, 3, 5, 10, 15, 25},
		},
	)

	SearchQueryFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "venuescout_search_query_failures_total",
			Help: "Individual query failures absorbed by the orchestrator",
		},
	)

	// API Metrics

	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "venuescout_api_requests_total",
			Help: "Total API requests",
		},
		[]string{"method", "route", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "venuescout_api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "route"},
	)
)

// RecordAPIRequest updates the API counters for one completed request.
func RecordAPIRequest(method, route string, statusCode int, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, route, strconv.Itoa(statusCode)).Inc()
	APIRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordProviderCall updates the provider histogram for one upstream call.
func RecordProviderCall(provider, operation string, duration time.Duration) {
	ProviderRequestDuration.WithLabelValues(provider, operation).Observe(duration.Seconds())
}
