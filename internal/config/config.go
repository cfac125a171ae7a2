// VenueScout - Venue Discovery and Recommendation Service
// Copyright 2026 VenueScout contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/venuescout/venuescout

// Package config loads and validates VenueScout configuration via Koanf v2
// with layered sources: built-in defaults, an optional YAML file, then
// environment variables (highest priority).
package config

import "time"

// Config is the root configuration, assembled by the composition root and
// passed by handle into components. No component reads globals.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Logging   LoggingConfig   `koanf:"logging"`
	Cache     CacheConfig     `koanf:"cache"`
	RateLimit RateLimitConfig `koanf:"ratelimit"`
	Retry     RetryConfig     `koanf:"retry"`
	Providers ProvidersConfig `koanf:"providers"`
	Search    SearchConfig    `koanf:"search"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host    string        `koanf:"host"`
	Port    int           `koanf:"port" validate:"min=1,max=65535"`
	Timeout time.Duration `koanf:"timeout"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn error fatal disabled"`
	Format string `koanf:"format" validate:"oneof=json console"`
	Caller bool   `koanf:"caller"`
}

// CacheDomainConfig sizes one logical cache domain. Domains are tuned
// independently because upstream data volatility differs: geocoding results
// are near-immutable, place search results go stale within the hour.
type CacheDomainConfig struct {
	Capacity int           `koanf:"capacity" validate:"min=1"`
	TTL      time.Duration `koanf:"ttl"`
}

// CacheConfig holds per-domain cache policies and the sweep interval shared
// by all domains.
type CacheConfig struct {
	Geocode       CacheDomainConfig `koanf:"geocode"`
	Places        CacheDomainConfig `koanf:"places"`
	Enrich        CacheDomainConfig `koanf:"enrich"`
	SweepInterval time.Duration     `koanf:"sweepinterval"`
}

// RateLimitConfig holds inbound admission control settings. The global gate
// applies to every API request per client; the search gate additionally
// guards the orchestration route.
type RateLimitConfig struct {
	Disabled      bool          `koanf:"disabled"`
	GlobalLimit   int           `koanf:"globallimit" validate:"min=1"`
	GlobalWindow  time.Duration `koanf:"globalwindow"`
	SearchLimit   int           `koanf:"searchlimit" validate:"min=1"`
	SearchWindow  time.Duration `koanf:"searchwindow"`
	SweepInterval time.Duration `koanf:"sweepinterval"`
}

// RetryConfig holds the default retry policy for provider calls. Individual
// adapters may narrow the retryable status list.
type RetryConfig struct {
	MaxAttempts  int           `koanf:"maxattempts" validate:"min=1,max=10"`
	InitialDelay time.Duration `koanf:"initialdelay"`
	MaxDelay     time.Duration `koanf:"maxdelay"`
}

// NominatimConfig configures the keyless OSM geocoder. Its usage policy
// mandates at most one request per second, so calls are serialized.
type NominatimConfig struct {
	Enabled           bool    `koanf:"enabled"`
	BaseURL           string  `koanf:"baseurl"`
	RequestsPerSecond float64 `koanf:"requestspersecond"`
}

// LocationIQConfig configures the keyed geocoding fallback.
type LocationIQConfig struct {
	Enabled bool   `koanf:"enabled"`
	BaseURL string `koanf:"baseurl"`
	APIKey  string `koanf:"apikey"`
}

// GooglePlacesConfig configures the Google Places text search adapter.
type GooglePlacesConfig struct {
	Enabled bool   `koanf:"enabled"`
	BaseURL string `koanf:"baseurl"`
	APIKey  string `koanf:"apikey"`
}

// FoursquareConfig configures the Foursquare place search adapter.
type FoursquareConfig struct {
	Enabled bool   `koanf:"enabled"`
	BaseURL string `koanf:"baseurl"`
	APIKey  string `koanf:"apikey"`
}

// WikipediaConfig configures the keyless knowledge enrichment adapter.
type WikipediaConfig struct {
	Enabled           bool    `koanf:"enabled"`
	BaseURL           string  `koanf:"baseurl"`
	RequestsPerSecond float64 `koanf:"requestspersecond"`
}

// OpenAIConfig configures the inference (ranking) adapter.
type OpenAIConfig struct {
	Enabled   bool   `koanf:"enabled"`
	APIKey    string `koanf:"apikey"`
	BaseURL   string `koanf:"baseurl"`
	Model     string `koanf:"model"`
	MaxTokens int    `koanf:"maxtokens"`
}

// ProvidersConfig groups all upstream adapter settings.
type ProvidersConfig struct {
	// Timeout applies to every provider HTTP client.
	Timeout time.Duration `koanf:"timeout"`

	Nominatim    NominatimConfig    `koanf:"nominatim"`
	LocationIQ   LocationIQConfig   `koanf:"locationiq"`
	GooglePlaces GooglePlacesConfig `koanf:"googleplaces"`
	Foursquare   FoursquareConfig   `koanf:"foursquare"`
	Wikipedia    WikipediaConfig    `koanf:"wikipedia"`
	OpenAI       OpenAIConfig       `koanf:"openai"`
}

// SearchConfig holds orchestration policy.
type SearchConfig struct {
	// MaxResults caps the merged result set to bound ranking cost.
	MaxResults int `koanf:"maxresults" validate:"min=1,max=100"`

	// FilterFloor skips the quality filter entirely when filtering would
	// leave fewer than this many candidates.
	FilterFloor int `koanf:"filterfloor" validate:"min=0"`

	// MaxQueries bounds the fan-out width per pass.
	MaxQueries int `koanf:"maxqueries" validate:"min=1,max=16"`

	// InterQueryDelay is the pause between serialized queries against
	// rate-sensitive providers.
	InterQueryDelay time.Duration `koanf:"interquerydelay"`

	// DefaultRadiusMeters applies when the request omits a radius.
	DefaultRadiusMeters int `koanf:"defaultradiusmeters" validate:"min=1"`
}

// defaultConfig returns a Config with all defaults applied. These are
// overridden by config file and environment variables.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:    "0.0.0.0",
			Port:    8480,
			Timeout: 30 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
		Cache: CacheConfig{
			// Geocoding is near-immutable: long TTL, small capacity.
			Geocode: CacheDomainConfig{Capacity: 1000, TTL: 24 * time.Hour},
			// Place search data goes stale quickly: short TTL, larger capacity.
			Places: CacheDomainConfig{Capacity: 5000, TTL: 30 * time.Minute},
			Enrich: CacheDomainConfig{Capacity: 2000, TTL: 6 * time.Hour},

			SweepInterval: time.Minute,
		},
		RateLimit: RateLimitConfig{
			Disabled:      false,
			GlobalLimit:   100,
			GlobalWindow:  time.Minute,
			SearchLimit:   10,
			SearchWindow:  time.Minute,
			SweepInterval: time.Minute,
		},
		Retry: RetryConfig{
			MaxAttempts:  3,
			InitialDelay: 500 * time.Millisecond,
			MaxDelay:     10 * time.Second,
		},
		Providers: ProvidersConfig{
			Timeout: 10 * time.Second,
			Nominatim: NominatimConfig{
				Enabled: true,
				BaseURL: "https://nominatim.openstreetmap.org",
				// Nominatim usage policy: max 1 req/s
				RequestsPerSecond: 1,
			},
			LocationIQ: LocationIQConfig{
				Enabled: false,
				BaseURL: "https://us1.locationiq.com/v1",
			},
			GooglePlaces: GooglePlacesConfig{
				Enabled: false,
				BaseURL: "https://maps.googleapis.com/maps/api/place",
			},
			Foursquare: FoursquareConfig{
				Enabled: false,
				BaseURL: "https://api.foursquare.com/v3",
			},
			Wikipedia: WikipediaConfig{
				Enabled:           true,
				BaseURL:           "https://en.wikipedia.org/api/rest_v1",
				RequestsPerSecond: 5,
			},
			OpenAI: OpenAIConfig{
				Enabled:   false,
				Model:     "gpt-4o-mini",
				MaxTokens: 1024,
			},
		},
		Search: SearchConfig{
			MaxResults:          15,
			FilterFloor:         5,
			MaxQueries:          5,
			InterQueryDelay:     250 * time.Millisecond,
			DefaultRadiusMeters: 2000,
		},
	}
}
