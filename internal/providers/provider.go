// VenueScout - Venue Discovery and Recommendation Service
// Copyright 2026 VenueScout contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/venuescout/venuescout

// Package providers implements the upstream adapters: geocoding, place
// search, knowledge enrichment, and inference. Each adapter owns a plain
// HTTP client and composes the retrier around its network call, inside any
// outbound rate limit and outside nothing else; caching is layered on via
// decorators so the adapters themselves stay stateless.
package providers

import (
	"context"

	"github.com/venuescout/venuescout/internal/models"
)

// Geocoder resolves a free-text location string to coordinates.
type Geocoder interface {
	// Geocode returns the best match for the location string.
	// Returns nil and an error if resolution fails.
	Geocode(ctx context.Context, location string) (*models.GeocodedLocation, error)

	// Name returns the provider name for logging and metrics.
	Name() string

	// IsAvailable checks if the provider is properly configured.
	IsAvailable() bool
}

// PlaceSearcher finds venue candidates for a query around a point.
type PlaceSearcher interface {
	// SearchPlaces returns candidates for the query within radiusMeters of
	// the location. An empty slice with a nil error means nothing matched.
	SearchPlaces(ctx context.Context, query string, location models.Coordinates, radiusMeters int) ([]models.VenueCandidate, error)

	// Name returns the provider name for logging and metrics.
	Name() string

	// IsAvailable checks if the provider is properly configured.
	IsAvailable() bool

	// SerializeQueries reports whether the upstream usage policy mandates
	// serialized, throttled access instead of parallel fan-out.
	SerializeQueries() bool
}

// Enricher attaches a short description to a venue by name.
type Enricher interface {
	// Describe returns a one-paragraph description for the venue name, or
	// an empty string when the knowledge source has nothing.
	Describe(ctx context.Context, venueName string) (string, error)

	// Name returns the provider name for logging and metrics.
	Name() string

	// IsAvailable checks if the provider is properly configured.
	IsAvailable() bool
}

// Ranker orders venue candidates for an occasion and explains the ordering.
type Ranker interface {
	// Rank returns the candidates reordered by fit for the occasion, with
	// RankReason filled in. On failure the caller keeps the original order.
	Rank(ctx context.Context, occasion string, venues []models.VenueCandidate) ([]models.VenueCandidate, error)

	// Name returns the provider name for logging and metrics.
	Name() string

	// IsAvailable checks if the provider is properly configured.
	IsAvailable() bool
}
