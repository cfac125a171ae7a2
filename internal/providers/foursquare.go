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

// FoursquareSearcher implements PlaceSearcher using the Foursquare Places
// v3 search endpoint. The free tier throttles aggressively, so queries are
// serialized by the orchestrator.
type FoursquareSearcher struct {
	client   *http.Client
	baseURL  string
	apiKey   string
	retryCfg retry.Config
	cb       *gobreaker.CircuitBreaker[[]models.VenueCandidate]
}

type foursquareResponse struct {
	Results []foursquareResult `json:"results"`
}

type foursquareResult struct {
	FsqID  string  `json:"fsq_id"`
	Name   string  `json:"name"`
	Rating float64 `json:"rating"`
	Stats  struct {
		TotalRatings int `json:"total_ratings"`
	} `json:"stats"`
	Price    int `json:"price"`
	Location struct {
		FormattedAddress string `json:"formatted_address"`
	} `json:"location"`
	Geocodes struct {
		Main struct {
			Latitude  float64 `json:"latitude"`
			Longitude float64 `json:"longitude"`
		} `json:"main"`
	} `json:"geocodes"`
	Categories []struct {
		Name string `json:"name"`
	} `json:"categories"`
	Photos []struct {
		Prefix string `json:"prefix"`
		Suffix string `json:"suffix"`
	} `json:"photos"`
}

// NewFoursquareSearcher creates a Foursquare adapter from configuration.
func NewFoursquareSearcher(cfg config.FoursquareConfig, timeout time.Duration, retryCfg retry.Config) *FoursquareSearcher {
	return &FoursquareSearcher{
		client:   &http.Client{Timeout: timeout},
		baseURL:  cfg.BaseURL,
		apiKey:   cfg.APIKey,
		retryCfg: retryCfg,
		cb:       newBreaker[[]models.VenueCandidate]("foursquare"),
	}
}

// Name returns the provider name.
func (p *FoursquareSearcher) Name() string {
	return "foursquare"
}

// IsAvailable returns true when an API key is configured.
func (p *FoursquareSearcher) IsAvailable() bool {
	return p.baseURL != "" && p.apiKey != ""
}

// SerializeQueries reports that Foursquare queries must be issued one at a
// time with a pause between them.
func (p *FoursquareSearcher) SerializeQueries() bool {
	return true
}

// SearchPlaces returns candidates for the query near the location.
func (p *FoursquareSearcher) SearchPlaces(ctx context.Context, query string, location models.Coordinates, radiusMeters int) ([]models.VenueCandidate, error) {
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
		return nil, fmt.Errorf("foursquare search %q: %w", query, err)
	}
	return venues, nil
}

func (p *FoursquareSearcher) query(ctx context.Context, query string, location models.Coordinates, radiusMeters int) ([]models.VenueCandidate, error) {
	q := url.Values{}
	q.Set("query", query)
	q.Set("ll", fmt.Sprintf("%f,%f", location.Lat, location.Lng))
	q.Set("radius", strconv.Itoa(radiusMeters))
	q.Set("limit", "20")
	q.Set("fields", "fsq_id,name,location,geocodes,categories,rating,stats,price,photos")

	reqURL := fmt.Sprintf("%s/places/search?%s", p.baseURL, q.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", p.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to query foursquare: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, retry.NewHTTPError(p.Name(), resp.StatusCode, string(body))
	}

	var payload foursquareResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode foursquare response: %w", err)
	}

	venues := make([]models.VenueCandidate, 0, len(payload.Results))
	for _, r := range payload.Results {
		v := models.VenueCandidate{
			Identity: "foursquare:" + r.FsqID,
			Name:     r.Name,
			Address:  r.Location.FormattedAddress,
			Location: models.Coordinates{
				Lat: r.Geocodes.Main.Latitude,
				Lng: r.Geocodes.Main.Longitude,
			},
			// Foursquare rates on a 0-10 scale; normalize to 0-5.
			Rating:      r.Rating / 2,
			RatingCount: r.Stats.TotalRatings,
			PriceLevel:  r.Price,
			Provider:    p.Name(),
		}
		for _, c := range r.Categories {
			v.Categories = append(v.Categories, c.Name)
		}
		if len(r.Photos) > 0 {
			v.PhotoURL = r.Photos[0].Prefix + "original" + r.Photos[0].Suffix
		}
		venues = append(venues, v)
	}
	return venues, nil
}
