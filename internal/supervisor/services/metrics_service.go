// VenueScout - Venue Discovery and Recommendation Service
// Copyright 2026 VenueScout contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/venuescout/venuescout

package services

import (
	"context"
	"time"

	"github.com/venuescout/venuescout/internal/cache"
	"github.com/venuescout/venuescout/internal/metrics"
	"github.com/venuescout/venuescout/internal/ratelimit"
)

// CacheStatsFunc snapshots one cache domain's counters.
type CacheStatsFunc func() cache.Stats

// MetricsExportService periodically mirrors cache and limiter counters into
// Prometheus collectors. The stores keep plain int64 counters internally;
// this service converts each snapshot into counter deltas and gauge sets.
type MetricsExportService struct {
	interval time.Duration
	caches   map[string]CacheStatsFunc
	limiter  *ratelimit.Limiter

	lastCache map[string]cache.Stats
}

// NewMetricsExportService creates the exporter.
func NewMetricsExportService(interval time.Duration, caches map[string]CacheStatsFunc, limiter *ratelimit.Limiter) *MetricsExportService {
	if interval <= 0 {
		interval = 15 * time.Second
	}
	return &MetricsExportService{
		interval:  interval,
		caches:    caches,
		limiter:   limiter,
		lastCache: make(map[string]cache.Stats, len(caches)),
	}
}

// Serve implements suture.Service.
func (s *MetricsExportService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.export()
		}
	}
}

func (s *MetricsExportService) export() {
	for domain, fn := range s.caches {
		now := fn()
		last := s.lastCache[domain]

		metrics.CacheHits.WithLabelValues(domain).Add(float64(now.Hits - last.Hits))
		metrics.CacheMisses.WithLabelValues(domain).Add(float64(now.Misses - last.Misses))
		metrics.CacheEvictions.WithLabelValues(domain).Add(float64(now.Evictions - last.Evictions))
		metrics.CacheSize.WithLabelValues(domain).Set(float64(now.Size))

		s.lastCache[domain] = now
	}

	if s.limiter != nil {
		metrics.RateLimitIdentifiers.Set(float64(s.limiter.Stats().Identifiers))
	}
}

// String implements fmt.Stringer for supervisor logs.
func (s *MetricsExportService) String() string {
	return "metrics-exporter"
}
