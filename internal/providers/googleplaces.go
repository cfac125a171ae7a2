// VenueScout - Venue Discovery and Recommendation Service
// Copyright 2026 VenueScout contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/venuescout/venuescout

package providers

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/venuescout/venuescout/internal/config"
	"github.com/venuescout/venuescout/internal/metrics"
	"github.com/venuescout/venuescout/internal/models"
	"github.com/venuescout/venuescout/internal/retry"
)

// GooglePlacesSearcher implements PlaceSearcher using the Google Places
// Text Search API. Quota rejections arrive as a 200 response with an
// OVER_QUERY_LIMIT status and are mapped to ErrQuotaExceeded.
type GooglePlacesSearcher struct {
	client   *http.Client
	baseURL  string
	apiKey   string
	retryCfg retry.Config
	cb       *gobreaker.CircuitBreaker[[]models.VenueCandidate]
}

type googlePlacesResponse struct {
	Status       string              `json:"status"`
	ErrorMessage string              `json:"error_message"`
	Results      []googlePlaceResult `json:"results"`
}

type googlePlaceResult struct {
	PlaceID          string   `json:"place_id"`
	Name             string   `json:"name"`
	FormattedAddress string   `json:"formatted_address"`
	Rating           float64  `json:"rating"`
	UserRatingsTotal int      `json:"user_ratings_total"`
	Types            []string `json:"types"`
	PriceLevel       int      `json:"price_level"`
	Geometry         struct {
		Location struct {
			Lat float64 `json:"lat"`
			Lng float64 `json:"lng"`
		} `json:"location"`
	} `json:"geometry"`
	Photos []struct {
		PhotoReference string `json:"photo_reference"`
	} `json:"photos"`
}

// NewGooglePlacesSearcher creates a Google Places adapter from configuration.
func NewGooglePlacesSearcher(cfg config.GooglePlacesConfig, timeout time.Duration, retryCfg retry.Config) *GooglePlacesSearcher {
	return &GooglePlacesSearcher{
		client:   &http.Client{Timeout: timeout},
		baseURL:  cfg.BaseURL,
		apiKey:   cfg.APIKey,
		retryCfg: retryCfg,
		cb:       newBreaker[[]models.VenueCandidate]("googleplaces"),
	}
}

// Name returns the provider name.
func (p *GooglePlacesSearcher) Name() string {
	return "googleplaces"
}

// IsAvailable returns true when an API key is configured.
func (p *GooglePlacesSearcher) IsAvailable() bool {
	return p.baseURL != "" && p.apiKey != ""
}

// SerializeQueries reports that Google Places tolerates parallel fan-out.
func (p *GooglePlacesSearcher) SerializeQueries() bool {
	return false
}

// SearchPlaces returns candidates for the query near the location.
func (p *GooglePlacesSearcher) SearchPlaces(ctx context.Context, query string, location models.Coordinates, radiusMeters int) ([]models.VenueCandidate, error) {
	if !p.IsAvailable() {
		return nil, ErrProviderUnavailable
	}

	start := time.Now()
	venues, err := retry.Do(ctx, p.retryCfg, func() ([]models.VenueCandidate, error) {
		metrics.RetryAttempts.WithLabelValues(p.Name()).Inc()
		return p.cb.Execute(func() ([]models.VenueCandidate, error) {
			return p.query(ctx, query, location, radiusMeters)
		})
	})
	metrics.RecordProviderCall(p.Name(), "search", time.Since(start))

	if err != nil {
		classifyProviderError(p.Name(), err)
		return nil, fmt.Errorf("google places search %q: %w", query, err)
	}
	return venues, nil
}

func (p *GooglePlacesSearcher) query(ctx context.Context, query string, location models.Coordinates, radiusMeters int) ([]models.VenueCandidate, error) {
	q := url.Values{}
	q.Set("query", query)
	q.Set("location", fmt.Sprintf("%f,%f", location.Lat, location.Lng))
	q.Set("radius", strconv.Itoa(radiusMeters))
	q.Set("key", p.apiKey)

	reqURL := fmt.Sprintf("%s/textsearch/json?%s", p.baseURL, q.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to query google places: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, retry.NewHTTPError(p.Name(), resp.StatusCode, string(body))
	}

	var payload googlePlacesResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode google places response: %w", err)
	}

	// The API reports most failures in-band with a 200 status code.
	switch payload.Status {
	case "OK", "ZERO_RESULTS":
	case "OVER_QUERY_LIMIT":
		return nil, fmt.Errorf("%w: %s", ErrQuotaExceeded, payload.ErrorMessage)
	default:
		return nil, fmt.Errorf("google places status %s: %s", payload.Status, payload.ErrorMessage)
	}

	venues := make([]models.VenueCandidate, 0, len(payload.Results))
	for _, r := range payload.Results {
		v := models.VenueCandidate{
			Identity: "google:" + r.PlaceID,
			Name:     r.Name,
			Address:  r.FormattedAddress,
			Location: models.Coordinates{
				Lat: r.Geometry.Location.Lat,
				Lng: r.Geometry.Location.Lng,
			},
			Rating:      r.Rating,
			RatingCount: r.UserRatingsTotal,
			Categories:  r.Types,
			PriceLevel:  r.PriceLevel,
			Provider:    p.Name(),
		}
		if len(r.Photos) > 0 {
			v.PhotoURL = fmt.Sprintf("%s/photo?maxwidth=800&photo_reference=%s&key=%s",
				p.baseURL, r.Photos[0].PhotoReference, p.apiKey)
		}
		venues = append(venues, v)
	}
	return venues, nil
}
