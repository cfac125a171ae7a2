// VenueScout - Venue Discovery and Recommendation Service
// Copyright 2026 VenueScout contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/venuescout/venuescout

package providers

import (
	"context"
	"fmt"
	"strings"

	"github.com/venuescout/venuescout/internal/cache"
	"github.com/venuescout/venuescout/internal/logging"
	"github.com/venuescout/venuescout/internal/models"
)

// radiusBucketMeters coarsens the search radius for cache keying so nearby
// radii share an entry instead of each spending upstream quota.
const radiusBucketMeters = 100

// normalizeTerm lowercases free text and collapses interior whitespace so
// trivially different spellings of the same place hit the same cache entry.
func normalizeTerm(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

// CachedGeocoder decorates a Geocoder with an expiring LRU cache. Only
// successful resolutions are cached; failures always reach the upstream on
// the next attempt.
type CachedGeocoder struct {
	inner Geocoder
	cache *cache.LRU[*models.GeocodedLocation]
}

// NewCachedGeocoder wraps the geocoder with the given cache.
func NewCachedGeocoder(inner Geocoder, c *cache.LRU[*models.GeocodedLocation]) *CachedGeocoder {
	return &CachedGeocoder{inner: inner, cache: c}
}

// Name returns the decorated provider's name.
func (g *CachedGeocoder) Name() string { return g.inner.Name() }

// IsAvailable reports the decorated provider's availability.
func (g *CachedGeocoder) IsAvailable() bool { return g.inner.IsAvailable() }

// Geocode returns a cached resolution when present, otherwise delegates and
// caches the result.
func (g *CachedGeocoder) Geocode(ctx context.Context, location string) (*models.GeocodedLocation, error) {
	key := cache.GenerateKey("geocode", map[string]string{
		"provider": g.inner.Name(),
		"location": normalizeTerm(location),
	})
	if geo, ok := g.cache.Get(key); ok {
		logging.Ctx(ctx).Debug().Str("provider", g.inner.Name()).Str("location", location).Msg("geocode cache hit")
		return geo, nil
	}

	geo, err := g.inner.Geocode(ctx, location)
	if err != nil {
		return nil, err
	}
	g.cache.Set(key, geo)
	return geo, nil
}

// CachedPlaceSearcher decorates a PlaceSearcher with an expiring LRU cache.
// Empty result sets are cached too: a query that matched nothing a minute
// ago will match nothing now, and repeating it burns upstream quota.
type CachedPlaceSearcher struct {
	inner PlaceSearcher
	cache *cache.LRU[[]models.VenueCandidate]
}

// NewCachedPlaceSearcher wraps the searcher with the given cache.
func NewCachedPlaceSearcher(inner PlaceSearcher, c *cache.LRU[[]models.VenueCandidate]) *CachedPlaceSearcher {
	return &CachedPlaceSearcher{inner: inner, cache: c}
}

// Name returns the decorated provider's name.
func (s *CachedPlaceSearcher) Name() string { return s.inner.Name() }

// IsAvailable reports the decorated provider's availability.
func (s *CachedPlaceSearcher) IsAvailable() bool { return s.inner.IsAvailable() }

// SerializeQueries reports the decorated provider's fan-out policy.
func (s *CachedPlaceSearcher) SerializeQueries() bool { return s.inner.SerializeQueries() }

// SearchPlaces returns cached candidates when present, otherwise delegates
// and caches the result.
func (s *CachedPlaceSearcher) SearchPlaces(ctx context.Context, query string, location models.Coordinates, radiusMeters int) ([]models.VenueCandidate, error) {
	key := cache.GenerateKey("places", map[string]interface{}{
		"provider": s.inner.Name(),
		"query":    normalizeTerm(query),
		"lat":      fmt.Sprintf("%.4f", location.Lat),
		"lng":      fmt.Sprintf("%.4f", location.Lng),
		"radius":   radiusMeters / radiusBucketMeters,
	})
	if venues, ok := s.cache.Get(key); ok {
		logging.Ctx(ctx).Debug().Str("provider", s.inner.Name()).Str("query", query).Msg("places cache hit")
		return venues, nil
	}

	venues, err := s.inner.SearchPlaces(ctx, query, location, radiusMeters)
	if err != nil {
		return nil, err
	}
	s.cache.Set(key, venues)
	return venues, nil
}

// CachedEnricher decorates an Enricher with an expiring LRU cache. Empty
// descriptions are cached as well, for the same quota reason as empty
// search results.
type CachedEnricher struct {
	inner Enricher
	cache *cache.LRU[string]
}

// NewCachedEnricher wraps the enricher with the given cache.
func NewCachedEnricher(inner Enricher, c *cache.LRU[string]) *CachedEnricher {
	return &CachedEnricher{inner: inner, cache: c}
}

// Name returns the decorated provider's name.
func (e *CachedEnricher) Name() string { return e.inner.Name() }

// IsAvailable reports the decorated provider's availability.
func (e *CachedEnricher) IsAvailable() bool { return e.inner.IsAvailable() }

// Describe returns a cached description when present, otherwise delegates
// and caches the result.
func (e *CachedEnricher) Describe(ctx context.Context, venueName string) (string, error) {
	key := cache.GenerateKey("enrich", map[string]string{
		"provider": e.inner.Name(),
		"venue":    venueName,
	})
	if desc, ok := e.cache.Get(key); ok {
		return desc, nil
	}

	desc, err := e.inner.Describe(ctx, venueName)
	if err != nil {
		return "", err
	}
	e.cache.Set(key, desc)
	return desc, nil
}
