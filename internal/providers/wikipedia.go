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
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/venuescout/venuescout/internal/config"
	"github.com/venuescout/venuescout/internal/metrics"
	"github.com/venuescout/venuescout/internal/retry"
)

// WikipediaEnricher implements Enricher using the Wikipedia REST page
// summary endpoint. A missing page is the common case and is not an error:
// Describe returns an empty string for it.
type WikipediaEnricher struct {
	client   *http.Client
	baseURL  string
	limiter  *rate.Limiter
	retryCfg retry.Config
	cb       *gobreaker.CircuitBreaker[string]
}

type wikipediaSummary struct {
	Extract string `json:"extract"`
}

// NewWikipediaEnricher creates a Wikipedia adapter from configuration.
func NewWikipediaEnricher(cfg config.WikipediaConfig, timeout time.Duration, retryCfg retry.Config) *WikipediaEnricher {
	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = 1
	}

	return &WikipediaEnricher{
		client:   &http.Client{Timeout: timeout},
		baseURL:  cfg.BaseURL,
		limiter:  rate.NewLimiter(rate.Limit(rps), 1),
		retryCfg: retryCfg,
		cb:       newBreaker[string]("wikipedia"),
	}
}

// Name returns the provider name.
func (p *WikipediaEnricher) Name() string {
	return "wikipedia"
}

// IsAvailable returns true when a base URL is configured (no key required).
func (p *WikipediaEnricher) IsAvailable() bool {
	return p.baseURL != ""
}

// Describe returns a short description for the venue name, or an empty
// string when Wikipedia has no matching page.
func (p *WikipediaEnricher) Describe(ctx context.Context, venueName string) (string, error) {
	if !p.IsAvailable() {
		return "", ErrProviderUnavailable
	}

	start := time.Now()
	extract, err := retry.Do(ctx, p.retryCfg, func() (string, error) {
		metrics.RetryAttempts.WithLabelValues(p.Name()).Inc()
		return p.cb.Execute(func() (string, error) {
			return p.query(ctx, venueName)
		})
	})
	metrics.RecordProviderCall(p.Name(), "describe", time.Since(start))

	if err != nil {
		classifyProviderError(p.Name(), err)
		return "", fmt.Errorf("wikipedia summary %q: %w", venueName, err)
	}
	return extract, nil
}

func (p *WikipediaEnricher) query(ctx context.Context, venueName string) (string, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return "", err
	}

	reqURL := fmt.Sprintf("%s/page/summary/%s", p.baseURL, url.PathEscape(venueName))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "venuescout/1.0")

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to query wikipedia: %w", err)
	}
	defer resp.Body.Close()

	// No page for this title. Expected for most venues.
	if resp.StatusCode == http.StatusNotFound {
		return "", nil
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", retry.NewHTTPError(p.Name(), resp.StatusCode, string(body))
	}

	var summary wikipediaSummary
	if err := json.NewDecoder(resp.Body).Decode(&summary); err != nil {
		return "", fmt.Errorf("failed to decode wikipedia response: %w", err)
	}
	return summary.Extract, nil
}
