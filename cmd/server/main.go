// VenueScout - Venue Discovery and Recommendation Service
// Copyright 2026 VenueScout contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/venuescout/venuescout

// Command server runs the VenueScout HTTP service under a supervisor tree.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/venuescout/venuescout/internal/api"
	"github.com/venuescout/venuescout/internal/cache"
	"github.com/venuescout/venuescout/internal/config"
	"github.com/venuescout/venuescout/internal/logging"
	"github.com/venuescout/venuescout/internal/models"
	"github.com/venuescout/venuescout/internal/providers"
	"github.com/venuescout/venuescout/internal/ratelimit"
	"github.com/venuescout/venuescout/internal/retry"
	"github.com/venuescout/venuescout/internal/search"
	"github.com/venuescout/venuescout/internal/supervisor"
	"github.com/venuescout/venuescout/internal/supervisor/services"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("addr", fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)).
		Msg("Starting VenueScout")

	// Cache domains. Geocoding is near-immutable, place data goes stale.
	geocodeCache := cache.NewLRU[*models.GeocodedLocation](cfg.Cache.Geocode.Capacity, cfg.Cache.Geocode.TTL)
	placesCache := cache.NewLRU[[]models.VenueCandidate](cfg.Cache.Places.Capacity, cfg.Cache.Places.TTL)
	enrichCache := cache.NewLRU[string](cfg.Cache.Enrich.Capacity, cfg.Cache.Enrich.TTL)

	geocoder := buildGeocoder(cfg, geocodeCache)
	searchers := buildSearchers(cfg, placesCache)
	enricher := buildEnricher(cfg, enrichCache)
	ranker := buildRanker(cfg)

	orchestrator := search.New(cfg.Search, searchers, enricher, ranker)

	limiter := ratelimit.NewLimiter()
	gateway := api.NewGateway(limiter, cfg.RateLimit)
	cacheStats := map[string]api.CacheStatsFunc{
		"geocode": geocodeCache.Stats,
		"places":  placesCache.Stats,
		"enrich":  enrichCache.Stats,
	}
	handler := api.NewHandler(geocoder, orchestrator, searchers, limiter, cacheStats)
	router := api.NewRouter(handler, gateway, cfg.RateLimit)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router.Setup(),
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
	}

	tree := supervisor.NewTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())

	tree.AddMaintenanceService(services.NewSweeperService("geocode-cache-sweeper", cfg.Cache.SweepInterval, geocodeCache.CleanupExpired))
	tree.AddMaintenanceService(services.NewSweeperService("places-cache-sweeper", cfg.Cache.SweepInterval, placesCache.CleanupExpired))
	tree.AddMaintenanceService(services.NewSweeperService("enrich-cache-sweeper", cfg.Cache.SweepInterval, enrichCache.CleanupExpired))
	tree.AddMaintenanceService(services.NewSweeperService("ratelimit-sweeper", cfg.RateLimit.SweepInterval, limiter.CleanupExpired))
	tree.AddMaintenanceService(services.NewMetricsExportService(0, map[string]services.CacheStatsFunc{
		"geocode": geocodeCache.Stats,
		"places":  placesCache.Stats,
		"enrich":  enrichCache.Stats,
	}, limiter))

	tree.AddAPIService(services.NewHTTPServerService(server, supervisor.DefaultTreeConfig().ShutdownTimeout))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	errCh := tree.ServeBackground(ctx)
	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	for _, svc := range unstopped {
		logging.Warn().Str("service", svc.Name).Msg("Service failed to stop within timeout")
	}

	logging.Info().Msg("VenueScout stopped gracefully")
}

// buildGeocoder assembles the geocoding fallback chain with caching layered
// on top, so every geocoder in the chain shares one cache domain.
func buildGeocoder(cfg *config.Config, c *cache.LRU[*models.GeocodedLocation]) providers.Geocoder {
	var chain []providers.Geocoder
	if cfg.Providers.Nominatim.Enabled {
		chain = append(chain, providers.NewNominatimGeocoder(cfg.Providers.Nominatim, cfg.Providers.Timeout, retryConfig(cfg)))
	}
	if cfg.Providers.LocationIQ.Enabled {
		chain = append(chain, providers.NewLocationIQGeocoder(cfg.Providers.LocationIQ, cfg.Providers.Timeout, retryConfig(cfg)))
	}
	return providers.NewCachedGeocoder(providers.NewGeocoderChain(chain...), c)
}

// buildSearchers assembles the place search adapters, each behind the shared
// places cache.
func buildSearchers(cfg *config.Config, c *cache.LRU[[]models.VenueCandidate]) []providers.PlaceSearcher {
	var searchers []providers.PlaceSearcher
	if cfg.Providers.GooglePlaces.Enabled {
		searchers = append(searchers, providers.NewCachedPlaceSearcher(
			providers.NewGooglePlacesSearcher(cfg.Providers.GooglePlaces, cfg.Providers.Timeout, retryConfig(cfg)), c))
	}
	if cfg.Providers.Foursquare.Enabled {
		searchers = append(searchers, providers.NewCachedPlaceSearcher(
			providers.NewFoursquareSearcher(cfg.Providers.Foursquare, cfg.Providers.Timeout, retryConfig(cfg)), c))
	}
	return searchers
}

func buildEnricher(cfg *config.Config, c *cache.LRU[string]) providers.Enricher {
	if !cfg.Providers.Wikipedia.Enabled {
		return nil
	}
	return providers.NewCachedEnricher(
		providers.NewWikipediaEnricher(cfg.Providers.Wikipedia, cfg.Providers.Timeout, retryConfig(cfg)), c)
}

func buildRanker(cfg *config.Config) providers.Ranker {
	if !cfg.Providers.OpenAI.Enabled {
		return nil
	}
	return providers.NewOpenAIRanker(cfg.Providers.OpenAI, cfg.Providers.Timeout, retryConfig(cfg))
}

func retryConfig(cfg *config.Config) retry.Config {
	return retry.Config{
		MaxAttempts:  cfg.Retry.MaxAttempts,
		InitialDelay: cfg.Retry.InitialDelay,
		MaxDelay:     cfg.Retry.MaxDelay,
	}
}
