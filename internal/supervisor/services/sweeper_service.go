// VenueScout - Venue Discovery and Recommendation Service
// Copyright 2026 VenueScout contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/venuescout/venuescout

package services

import (
	"context"
	"time"

	"github.com/venuescout/venuescout/internal/logging"
)

// SweepFunc removes expired entries from one store and reports how many it
// removed. Both cache.LRU.CleanupExpired and ratelimit.Limiter.CleanupExpired
// satisfy it via method values.
type SweepFunc func() int

// SweeperService runs a sweep function at a fixed interval until the
// supervisor cancels it.
type SweeperService struct {
	name     string
	interval time.Duration
	sweep    SweepFunc
}

// NewSweeperService creates a periodic sweeper.
func NewSweeperService(name string, interval time.Duration, sweep SweepFunc) *SweeperService {
	if interval <= 0 {
		interval = time.Minute
	}
	return &SweeperService{name: name, interval: interval, sweep: sweep}
}

// Serve implements suture.Service.
func (s *SweeperService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if removed := s.sweep(); removed > 0 {
				logging.Debug().Str("sweeper", s.name).Int("removed", removed).Msg("sweep complete")
			}
		}
	}
}

// String implements fmt.Stringer for supervisor logs.
func (s *SweeperService) String() string {
	return s.name
}
