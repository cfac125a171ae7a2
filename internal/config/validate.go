// VenueScout - Venue Discovery and Recommendation Service
// Copyright 2026 VenueScout contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/venuescout/venuescout

package config

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// validate is the process-wide validator instance. validator caches struct
// metadata, so a single instance is both safe and cheaper.
var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the configuration for structural and semantic errors.
// Struct tags cover ranges and enumerations; hand checks cover the rules
// that span fields, chiefly "an enabled keyed provider needs its key".
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	checks := []func() error{
		c.validateDurations,
		c.validateProviders,
	}
	for _, check := range checks {
		if err := check(); err != nil {
			return err
		}
	}

	return nil
}

func (c *Config) validateDurations() error {
	durations := map[string]int64{
		"server.timeout":          int64(c.Server.Timeout),
		"cache.geocode.ttl":       int64(c.Cache.Geocode.TTL),
		"cache.places.ttl":        int64(c.Cache.Places.TTL),
		"cache.enrich.ttl":        int64(c.Cache.Enrich.TTL),
		"cache.sweepinterval":     int64(c.Cache.SweepInterval),
		"ratelimit.globalwindow":  int64(c.RateLimit.GlobalWindow),
		"ratelimit.searchwindow":  int64(c.RateLimit.SearchWindow),
		"ratelimit.sweepinterval": int64(c.RateLimit.SweepInterval),
		"retry.initialdelay":      int64(c.Retry.InitialDelay),
		"retry.maxdelay":          int64(c.Retry.MaxDelay),
		"providers.timeout":       int64(c.Providers.Timeout),
	}

	for name, d := range durations {
		if d <= 0 {
			return fmt.Errorf("%s must be positive", name)
		}
	}

	if c.Retry.MaxDelay < c.Retry.InitialDelay {
		return fmt.Errorf("retry.maxdelay must be >= retry.initialdelay")
	}

	return nil
}

// validateProviders enforces credential presence for enabled keyed adapters
// and that at least one adapter exists per required capability. These are
// hard misconfigurations: the only error class that is allowed to abort
// startup rather than degrade.
func (c *Config) validateProviders() error {
	p := &c.Providers

	keyed := []struct {
		name    string
		enabled bool
		apiKey  string
	}{
		{"locationiq", p.LocationIQ.Enabled, p.LocationIQ.APIKey},
		{"googleplaces", p.GooglePlaces.Enabled, p.GooglePlaces.APIKey},
		{"foursquare", p.Foursquare.Enabled, p.Foursquare.APIKey},
		{"openai", p.OpenAI.Enabled, p.OpenAI.APIKey},
	}
	for _, kp := range keyed {
		if kp.enabled && kp.apiKey == "" {
			return fmt.Errorf("providers.%s is enabled but has no API key", kp.name)
		}
	}

	if !p.Nominatim.Enabled && !p.LocationIQ.Enabled {
		return fmt.Errorf("at least one geocoding provider must be enabled")
	}
	if !p.GooglePlaces.Enabled && !p.Foursquare.Enabled {
		return fmt.Errorf("at least one place search provider must be enabled")
	}

	if p.Nominatim.Enabled && p.Nominatim.RequestsPerSecond <= 0 {
		return fmt.Errorf("providers.nominatim.requestspersecond must be positive")
	}

	return nil
}
