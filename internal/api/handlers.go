// VenueScout - Venue Discovery and Recommendation Service
// Copyright 2026 VenueScout contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/venuescout/venuescout

package api

import (
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"

	"github.com/venuescout/venuescout/internal/cache"
	"github.com/venuescout/venuescout/internal/logging"
	"github.com/venuescout/venuescout/internal/models"
	"github.com/venuescout/venuescout/internal/providers"
	"github.com/venuescout/venuescout/internal/ratelimit"
	"github.com/venuescout/venuescout/internal/search"
)

// CacheStatsFunc snapshots one cache domain's counters.
type CacheStatsFunc func() cache.Stats

// Handler serves the search endpoints.
type Handler struct {
	validate     *validator.Validate
	geocoder     providers.Geocoder
	orchestrator *search.Orchestrator
	searchers    []providers.PlaceSearcher
	limiter      *ratelimit.Limiter
	cacheStats   map[string]CacheStatsFunc
}

// NewHandler creates the API handler.
func NewHandler(geocoder providers.Geocoder, orchestrator *search.Orchestrator, searchers []providers.PlaceSearcher, limiter *ratelimit.Limiter, cacheStats map[string]CacheStatsFunc) *Handler {
	return &Handler{
		validate:     validator.New(validator.WithRequiredStructEnabled()),
		geocoder:     geocoder,
		orchestrator: orchestrator,
		searchers:    searchers,
		limiter:      limiter,
		cacheStats:   cacheStats,
	}
}

// Search handles POST /api/v1/search. A free-text location is geocoded
// before orchestration; explicit coordinates skip that step.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	var req models.SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		rw.BadRequest("malformed request body")
		return
	}

	if err := h.validate.Struct(&req); err != nil {
		rw.ValidationFailed("invalid search request", validationDetails(err))
		return
	}
	if req.Coordinates == nil && req.Location == "" {
		rw.BadRequest("either coordinates or location is required")
		return
	}

	if req.Coordinates == nil {
		geo, err := h.geocoder.Geocode(r.Context(), req.Location)
		if err != nil {
			if errors.Is(err, providers.ErrProviderUnavailable) {
				rw.ServiceUnavailable("no geocoding provider configured")
				return
			}
			logging.Ctx(r.Context()).Warn().Err(err).Str("location", req.Location).Msg("geocoding failed")
			rw.BadRequest("could not resolve location: " + req.Location)
			return
		}
		req.Coordinates = &geo.Coordinates
	}

	result, err := h.orchestrator.Search(r.Context(), &req)
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("search pass failed")
		rw.InternalError("search failed")
		return
	}
	rw.Success(result)
}

// searchStats is the GET /api/v1/search/stats payload.
type searchStats struct {
	Caches    map[string]cache.Stats `json:"caches"`
	RateLimit ratelimit.Stats        `json:"rate_limit"`
}

// SearchStats handles GET /api/v1/search/stats.
func (h *Handler) SearchStats(w http.ResponseWriter, r *http.Request) {
	stats := searchStats{
		Caches:    make(map[string]cache.Stats, len(h.cacheStats)),
		RateLimit: h.limiter.Stats(),
	}
	for name, fn := range h.cacheStats {
		stats.Caches[name] = fn()
	}
	NewResponseWriter(w, r).Success(stats)
}

// Health handles GET /health. Process liveness only.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	NewResponseWriter(w, r).Success(map[string]string{"status": "ok"})
}

// Ready handles GET /ready. Ready means at least one place search provider
// is configured; a service that can only return empty results is not ready.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	available := make(map[string]bool, len(h.searchers))
	anyReady := false
	for _, s := range h.searchers {
		available[s.Name()] = s.IsAvailable()
		if s.IsAvailable() {
			anyReady = true
		}
	}

	rw := NewResponseWriter(w, r)
	if !anyReady {
		rw.ErrorWithDetails(http.StatusServiceUnavailable, ErrCodeServiceUnavailable,
			"no place search provider available", available)
		return
	}
	rw.Success(map[string]interface{}{
		"status":    "ready",
		"providers": available,
	})
}

// validationDetails flattens validator errors into field -> constraint.
func validationDetails(err error) map[string]string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return map[string]string{"request": err.Error()}
	}
	details := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		details[fe.Field()] = fe.Tag()
	}
	return details
}
