// VenueScout - Venue Discovery and Recommendation Service
// Copyright 2026 VenueScout contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/venuescout/venuescout

package providers

import (
	"context"
	"fmt"

	"github.com/venuescout/venuescout/internal/logging"
	"github.com/venuescout/venuescout/internal/models"
)

// GeocoderChain tries each configured geocoder in order until one resolves
// the location. Providers report their own availability, so a chain built
// from partially configured adapters degrades instead of failing.
type GeocoderChain struct {
	geocoders []Geocoder
}

// NewGeocoderChain creates a fallback chain over the given geocoders.
func NewGeocoderChain(geocoders ...Geocoder) *GeocoderChain {
	return &GeocoderChain{geocoders: geocoders}
}

// Name returns the chain's name.
func (c *GeocoderChain) Name() string {
	return "chain"
}

// IsAvailable returns true when at least one geocoder is available.
func (c *GeocoderChain) IsAvailable() bool {
	for _, g := range c.geocoders {
		if g.IsAvailable() {
			return true
		}
	}
	return false
}

// Geocode resolves the location via the first geocoder that succeeds.
func (c *GeocoderChain) Geocode(ctx context.Context, location string) (*models.GeocodedLocation, error) {
	var lastErr error

	for _, g := range c.geocoders {
		if !g.IsAvailable() {
			continue
		}

		geo, err := g.Geocode(ctx, location)
		if err != nil {
			logging.Ctx(ctx).Debug().Err(err).Str("provider", g.Name()).Str("location", location).Msg("geocoder failed")
			lastErr = err
			continue
		}
		return geo, nil
	}

	if lastErr != nil {
		return nil, fmt.Errorf("all geocoders failed for %q: %w", location, lastErr)
	}
	return nil, fmt.Errorf("no geocoder available: %w", ErrProviderUnavailable)
}
