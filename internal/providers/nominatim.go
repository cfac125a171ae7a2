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
	"golang.org/x/time/rate"

	"github.com/venuescout/venuescout/internal/config"
	"github.com/venuescout/venuescout/internal/metrics"
	"github.com/venuescout/venuescout/internal/models"
	"github.com/venuescout/venuescout/internal/retry"
)

// NominatimGeocoder implements Geocoder using the OpenStreetMap Nominatim
// service. Keyless, but the usage policy mandates at most one request per
// second, so every call waits on an outbound limiter before being issued.
type NominatimGeocoder struct {
	client   *http.Client
	baseURL  string
	limiter  *rate.Limiter
	retryCfg retry.Config
	cb       *gobreaker.CircuitBreaker[*models.GeocodedLocation]
}

// nominatimResult is one entry of the Nominatim search response. Coordinates
// arrive as strings.
type nominatimResult struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

// NewNominatimGeocoder creates a Nominatim adapter from configuration.
func NewNominatimGeocoder(cfg config.NominatimConfig, timeout time.Duration, retryCfg retry.Config) *NominatimGeocoder {
	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = 1
	}

	return &NominatimGeocoder{
		client:   &http.Client{Timeout: timeout},
		baseURL:  cfg.BaseURL,
		limiter:  rate.NewLimiter(rate.Limit(rps), 1),
		retryCfg: retryCfg,
		cb:       newBreaker[*models.GeocodedLocation]("nominatim"),
	}
}

// Name returns the provider name.
func (p *NominatimGeocoder) Name() string {
	return "nominatim"
}

// IsAvailable returns true when a base URL is configured (no key required).
func (p *NominatimGeocoder) IsAvailable() bool {
	return p.baseURL != ""
}

// Geocode resolves the location string to its best match.
func (p *NominatimGeocoder) Geocode(ctx context.Context, location string) (*models.GeocodedLocation, error) {
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
		return nil, fmt.Errorf("nominatim geocode %q: %w", location, err)
	}
	return geo, nil
}

func (p *NominatimGeocoder) query(ctx context.Context, location string) (*models.GeocodedLocation, error) {
	// Honor the usage policy before touching the network.
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("q", location)
	q.Set("format", "json")
	q.Set("limit", "1")

	reqURL := fmt.Sprintf("%s/search?%s", p.baseURL, q.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	// Nominatim requires an identifying User-Agent.
	req.Header.Set("User-Agent", "venuescout/1.0")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to query nominatim: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, retry.NewHTTPError(p.Name(), resp.StatusCode, string(body))
	}

	var results []nominatimResult
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return nil, fmt.Errorf("failed to decode nominatim response: %w", err)
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
