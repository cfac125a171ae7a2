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

// LocationIQGeocoder implements Geocoder using the LocationIQ forward
// geocoding endpoint. Keyed; the response format mirrors Nominatim.
type LocationIQGeocoder struct {
	client   *http.Client
	baseURL  string
	apiKey   string
	retryCfg retry.Config
	cb       *gobreaker.CircuitBreaker[*models.GeocodedLocation]
}

type locationIQResult struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

// NewLocationIQGeocoder creates a LocationIQ adapter from configuration.
func NewLocationIQGeocoder(cfg config.LocationIQConfig, timeout time.Duration, retryCfg retry.Config) *LocationIQGeocoder {
	return &LocationIQGeocoder{
		client:   &http.Client{Timeout: timeout},
		baseURL:  cfg.BaseURL,
		apiKey:   cfg.APIKey,
		retryCfg: retryCfg,
		cb:       newBreaker[*models.GeocodedLocation]("locationiq"),
	}
}

// Name returns the provider name.
func (p *LocationIQGeocoder) Name() string {
	return "locationiq"
}

// IsAvailable returns true when an API key is configured.
func (p *LocationIQGeocoder) IsAvailable() bool {
	return p.baseURL != "" && p.apiKey != ""
}

// Geocode resolves the location string to its best match.
func (p *LocationIQGeocoder) Geocode(ctx context.Context, location string) (*models.GeocodedLocation, error) {
	if !p.IsAvailable() {
		return nil, ErrProviderUnavailable
	}

	start := time.Now()
	geo, err := retry.Do(ctx, p.retryCfg, func() (*models.GeocodedLocation, error) {
		metrics.RetryAttempts.WithLabelValues(p.Name()).Inc()
		return p.cb.Execute(func() (*models.GeocodedLocation, error) {
			return p.query(ctx, location)
		})
	})
	metrics.RecordProviderCall(p.Name(), "geocode", time.Since(start))

	if err != nil {
		classifyProviderError(p.Name(), err)
		return nil, fmt.Errorf("locationiq geocode %q: %w", location, err)
	}
	return geo, nil
}

func (p *LocationIQGeocoder) query(ctx context.Context, location string) (*models.GeocodedLocation, error) {
	q := url.Values{}
	q.Set("key", p.apiKey)
	q.Set("q", location)
	q.Set("format", "json")
	q.Set("limit", "1")

	reqURL := fmt.Sprintf("%s/search?%s", p.baseURL, q.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to query locationiq: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, retry.NewHTTPError(p.Name(), resp.StatusCode, string(body))
	}

	var results []locationIQResult
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return nil, fmt.Errorf("failed to decode locationiq response: %w", err)
	}
	if len(results) == 0 {
		return nil, fmt.Errorf("no match for location %q", location)
	}

	lat, err := strconv.ParseFloat(results[0].Lat, 64)
	if err != nil {
		return nil, fmt.Errorf("malformed latitude %q: %w", results[0].Lat, err)
	}
	lng, err := strconv.ParseFloat(results[0].Lon, 64)
	if err != nil {
		return nil, fmt.Errorf("malformed longitude %q: %w", results[0].Lon, err)
	}

	return &models.GeocodedLocation{
		Coordinates: models.Coordinates{Lat: lat, Lng: lng},
		DisplayName: results[0].DisplayName,
		Provider:    p.Name(),
	}, nil
}
