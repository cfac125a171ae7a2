// VenueScout - Venue Discovery and Recommendation Service
// Copyright 2026 VenueScout contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/venuescout/venuescout

package providers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/venuescout/venuescout/internal/cache"
	"github.com/venuescout/venuescout/internal/config"
	"github.com/venuescout/venuescout/internal/models"
	"github.com/venuescout/venuescout/internal/retry"
)

// fastRetry keeps test retries near-instant.
func fastRetry(maxAttempts int) retry.Config {
	return retry.Config{
		MaxAttempts:  maxAttempts,
		InitialDelay: time.Millisecond,
		MaxDelay:     5 * time.Millisecond,
	}
}

func TestNominatimGeocoder_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("q"); got != "Lisbon" {
			t.Errorf("query = %q, want Lisbon", got)
		}
		if ua := r.Header.Get("User-Agent"); ua == "" {
			t.Error("missing User-Agent header")
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"lat":"38.7223","lon":"-9.1393","display_name":"Lisbon, Portugal"}]`))
	}))
	defer srv.Close()

	g := NewNominatimGeocoder(config.NominatimConfig{
		Enabled:           true,
		BaseURL:           srv.URL,
		RequestsPerSecond: 100,
	}, time.Second, fastRetry(1))

	geo, err := g.Geocode(context.Background(), "Lisbon")
	if err != nil {
		t.Fatalf("Geocode() error = %v", err)
	}
	if geo.Coordinates.Lat != 38.7223 || geo.Coordinates.Lng != -9.1393 {
		t.Errorf("coordinates = %+v", geo.Coordinates)
	}
	if geo.Provider != "nominatim" {
		t.Errorf("provider = %q", geo.Provider)
	}
}

func TestNominatimGeocoder_NoMatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	g := NewNominatimGeocoder(config.NominatimConfig{
		BaseURL:           srv.URL,
		RequestsPerSecond: 100,
	}, time.Second, fastRetry(1))

	if _, err := g.Geocode(context.Background(), "nowhere at all"); err == nil {
		t.Fatal("expected error for empty result set")
	}
}

func TestNominatimGeocoder_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`[{"lat":"1.5","lon":"2.5","display_name":"x"}]`))
	}))
	defer srv.Close()

	g := NewNominatimGeocoder(config.NominatimConfig{
		BaseURL:           srv.URL,
		RequestsPerSecond: 1000,
	}, time.Second, fastRetry(3))

	geo, err := g.Geocode(context.Background(), "x")
	if err != nil {
		t.Fatalf("Geocode() error = %v", err)
	}
	if geo.Coordinates.Lat != 1.5 {
		t.Errorf("lat = %v", geo.Coordinates.Lat)
	}
	if got := calls.Load(); got != 3 {
		t.Errorf("upstream calls = %d, want 3", got)
	}
}

func TestLocationIQGeocoder_RequiresKey(t *testing.T) {
	g := NewLocationIQGeocoder(config.LocationIQConfig{BaseURL: "http://example.invalid"}, time.Second, fastRetry(1))
	if g.IsAvailable() {
		t.Error("IsAvailable() = true without key")
	}
	if _, err := g.Geocode(context.Background(), "x"); !errors.Is(err, ErrProviderUnavailable) {
		t.Errorf("error = %v, want ErrProviderUnavailable", err)
	}
}

func TestLocationIQGeocoder_SendsKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("key"); got != "secret" {
			t.Errorf("key = %q", got)
		}
		_, _ = w.Write([]byte(`[{"lat":"51.5","lon":"-0.1","display_name":"London"}]`))
	}))
	defer srv.Close()

	g := NewLocationIQGeocoder(config.LocationIQConfig{BaseURL: srv.URL, APIKey: "secret"}, time.Second, fastRetry(1))
	geo, err := g.Geocode(context.Background(), "London")
	if err != nil {
		t.Fatalf("Geocode() error = %v", err)
	}
	if geo.DisplayName != "London" {
		t.Errorf("display name = %q", geo.DisplayName)
	}
}

func TestGooglePlaces_MapsResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{
			"status": "OK",
			"results": [{
				"place_id": "abc123",
				"name": "Cafe Central",
				"formatted_address": "1 Main St",
				"rating": 4.5,
				"user_ratings_total": 210,
				"types": ["cafe", "restaurant"],
				"price_level": 2,
				"geometry": {"location": {"lat": 48.2, "lng": 16.37}},
				"photos": [{"photo_reference": "ref1"}]
			}]
		}`))
	}))
	defer srv.Close()

	s := NewGooglePlacesSearcher(config.GooglePlacesConfig{BaseURL: srv.URL, APIKey: "k"}, time.Second, fastRetry(1))
	venues, err := s.SearchPlaces(context.Background(), "cafe", models.Coordinates{Lat: 48.2, Lng: 16.37}, 2000)
	if err != nil {
		t.Fatalf("SearchPlaces() error = %v", err)
	}
	if len(venues) != 1 {
		t.Fatalf("len(venues) = %d", len(venues))
	}

	v := venues[0]
	if v.Identity != "google:abc123" {
		t.Errorf("identity = %q", v.Identity)
	}
	if v.Rating != 4.5 || v.RatingCount != 210 {
		t.Errorf("rating = %v/%d", v.Rating, v.RatingCount)
	}
	if v.PhotoURL == "" {
		t.Error("photo URL not mapped")
	}
	if v.Provider != "googleplaces" {
		t.Errorf("provider = %q", v.Provider)
	}
}

func TestGooglePlaces_ZeroResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"status": "ZERO_RESULTS", "results": []}`))
	}))
	defer srv.Close()

	s := NewGooglePlacesSearcher(config.GooglePlacesConfig{BaseURL: srv.URL, APIKey: "k"}, time.Second, fastRetry(1))
	venues, err := s.SearchPlaces(context.Background(), "nothing", models.Coordinates{}, 1000)
	if err != nil {
		t.Fatalf("SearchPlaces() error = %v", err)
	}
	if len(venues) != 0 {
		t.Errorf("len(venues) = %d, want 0", len(venues))
	}
}

func TestGooglePlaces_QuotaExceeded(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"status": "OVER_QUERY_LIMIT", "error_message": "daily cap reached"}`))
	}))
	defer srv.Close()

	s := NewGooglePlacesSearcher(config.GooglePlacesConfig{BaseURL: srv.URL, APIKey: "k"}, time.Second, fastRetry(3))
	_, err := s.SearchPlaces(context.Background(), "cafe", models.Coordinates{}, 1000)
	if !errors.Is(err, ErrQuotaExceeded) {
		t.Fatalf("error = %v, want ErrQuotaExceeded", err)
	}
}

func TestFoursquare_MapsAndNormalizes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "fsq-key" {
			t.Errorf("Authorization = %q", got)
		}
		_, _ = w.Write([]byte(`{
			"results": [{
				"fsq_id": "xyz",
				"name": "Wine Bar",
				"rating": 9.0,
				"stats": {"total_ratings": 55},
				"price": 3,
				"location": {"formatted_address": "2 High St"},
				"geocodes": {"main": {"latitude": 52.52, "longitude": 13.4}},
				"categories": [{"name": "Wine Bar"}],
				"photos": [{"prefix": "https://img.example/", "suffix": "/1.jpg"}]
			}]
		}`))
	}))
	defer srv.Close()

	s := NewFoursquareSearcher(config.FoursquareConfig{BaseURL: srv.URL, APIKey: "fsq-key"}, time.Second, fastRetry(1))
	venues, err := s.SearchPlaces(context.Background(), "wine", models.Coordinates{Lat: 52.52, Lng: 13.4}, 1500)
	if err != nil {
		t.Fatalf("SearchPlaces() error = %v", err)
	}
	if len(venues) != 1 {
		t.Fatalf("len(venues) = %d", len(venues))
	}

	v := venues[0]
	if v.Identity != "foursquare:xyz" {
		t.Errorf("identity = %q", v.Identity)
	}
	if v.Rating != 4.5 {
		t.Errorf("rating = %v, want 4.5 (normalized from 9.0)", v.Rating)
	}
	if v.PhotoURL != "https://img.example/original/1.jpg" {
		t.Errorf("photo = %q", v.PhotoURL)
	}
	if !s.SerializeQueries() {
		t.Error("SerializeQueries() = false, want true")
	}
}

func TestWikipediaEnricher_Describe(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/page/summary/Known%20Venue", "/page/summary/Known Venue":
			_, _ = w.Write([]byte(`{"extract": "A well known venue."}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	e := NewWikipediaEnricher(config.WikipediaConfig{
		BaseURL:           srv.URL,
		RequestsPerSecond: 100,
	}, time.Second, fastRetry(1))

	desc, err := e.Describe(context.Background(), "Known Venue")
	if err != nil {
		t.Fatalf("Describe() error = %v", err)
	}
	if desc != "A well known venue." {
		t.Errorf("description = %q", desc)
	}

	// A missing page is not an error.
	desc, err = e.Describe(context.Background(), "No Such Venue")
	if err != nil {
		t.Fatalf("Describe() error = %v", err)
	}
	if desc != "" {
		t.Errorf("description = %q, want empty", desc)
	}
}

func TestGeocoderChain_FallsBack(t *testing.T) {
	failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer failing.Close()
	working := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`[{"lat":"40.4","lon":"-3.7","display_name":"Madrid"}]`))
	}))
	defer working.Close()

	first := NewNominatimGeocoder(config.NominatimConfig{BaseURL: failing.URL, RequestsPerSecond: 100}, time.Second, fastRetry(1))
	second := NewLocationIQGeocoder(config.LocationIQConfig{BaseURL: working.URL, APIKey: "k"}, time.Second, fastRetry(1))
	unavailable := NewLocationIQGeocoder(config.LocationIQConfig{}, time.Second, fastRetry(1))

	chain := NewGeocoderChain(unavailable, first, second)
	if !chain.IsAvailable() {
		t.Fatal("IsAvailable() = false")
	}

	geo, err := chain.Geocode(context.Background(), "Madrid")
	if err != nil {
		t.Fatalf("Geocode() error = %v", err)
	}
	if geo.Provider != "locationiq" {
		t.Errorf("provider = %q, want fallback locationiq", geo.Provider)
	}
}

func TestGeocoderChain_AllFail(t *testing.T) {
	chain := NewGeocoderChain(NewLocationIQGeocoder(config.LocationIQConfig{}, time.Second, fastRetry(1)))
	if _, err := chain.Geocode(context.Background(), "x"); !errors.Is(err, ErrProviderUnavailable) {
		t.Errorf("error = %v, want ErrProviderUnavailable", err)
	}
}

func TestCachedGeocoder_SecondCallServedFromCache(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		_, _ = w.Write([]byte(`[{"lat":"59.33","lon":"18.07","display_name":"Stockholm"}]`))
	}))
	defer srv.Close()

	inner := NewNominatimGeocoder(config.NominatimConfig{BaseURL: srv.URL, RequestsPerSecond: 100}, time.Second, fastRetry(1))
	g := NewCachedGeocoder(inner, cache.NewLRU[*models.GeocodedLocation](10, time.Minute))

	for i := 0; i < 3; i++ {
		geo, err := g.Geocode(context.Background(), "Stockholm")
		if err != nil {
			t.Fatalf("Geocode() error = %v", err)
		}
		if geo.DisplayName != "Stockholm" {
			t.Errorf("display name = %q", geo.DisplayName)
		}
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("upstream calls = %d, want 1", got)
	}
}

func TestCachedPlaceSearcher_CachesEmptyResults(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		_, _ = w.Write([]byte(`{"status": "ZERO_RESULTS", "results": []}`))
	}))
	defer srv.Close()

	inner := NewGooglePlacesSearcher(config.GooglePlacesConfig{BaseURL: srv.URL, APIKey: "k"}, time.Second, fastRetry(1))
	s := NewCachedPlaceSearcher(inner, cache.NewLRU[[]models.VenueCandidate](10, time.Minute))

	loc := models.Coordinates{Lat: 1, Lng: 2}
	for i := 0; i < 2; i++ {
		venues, err := s.SearchPlaces(context.Background(), "nothing", loc, 1000)
		if err != nil {
			t.Fatalf("SearchPlaces() error = %v", err)
		}
		if len(venues) != 0 {
			t.Errorf("len(venues) = %d", len(venues))
		}
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("upstream calls = %d, want 1 (empty result should be cached)", got)
	}
}

func TestCachedPlaceSearcher_KeyVariesWithParams(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		_, _ = w.Write([]byte(`{"status": "OK", "results": []}`))
	}))
	defer srv.Close()

	inner := NewGooglePlacesSearcher(config.GooglePlacesConfig{BaseURL: srv.URL, APIKey: "k"}, time.Second, fastRetry(1))
	s := NewCachedPlaceSearcher(inner, cache.NewLRU[[]models.VenueCandidate](10, time.Minute))

	ctx := context.Background()
	_, _ = s.SearchPlaces(ctx, "cafe", models.Coordinates{Lat: 1, Lng: 2}, 1000)
	_, _ = s.SearchPlaces(ctx, "cafe", models.Coordinates{Lat: 1, Lng: 2}, 2000)
	_, _ = s.SearchPlaces(ctx, "bar", models.Coordinates{Lat: 1, Lng: 2}, 1000)

	if got := calls.Load(); got != 3 {
		t.Errorf("upstream calls = %d, want 3 distinct keys", got)
	}
}

func TestCachedGeocoder_NormalizesLocationForKeying(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		_, _ = w.Write([]byte(`[{"lat":"40.71","lon":"-74.00","display_name":"New York"}]`))
	}))
	defer srv.Close()

	inner := NewNominatimGeocoder(config.NominatimConfig{BaseURL: srv.URL, RequestsPerSecond: 100}, time.Second, fastRetry(1))
	g := NewCachedGeocoder(inner, cache.NewLRU[*models.GeocodedLocation](10, time.Minute))

	for _, spelling := range []string{"New York", "new york", "  NEW   YORK  "} {
		if _, err := g.Geocode(context.Background(), spelling); err != nil {
			t.Fatalf("Geocode(%q) error = %v", spelling, err)
		}
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("upstream calls = %d, want 1 (spellings should share a key)", got)
	}
}

func TestCachedPlaceSearcher_BucketsNearbyParams(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		_, _ = w.Write([]byte(`{"status": "OK", "results": []}`))
	}))
	defer srv.Close()

	inner := NewGooglePlacesSearcher(config.GooglePlacesConfig{BaseURL: srv.URL, APIKey: "k"}, time.Second, fastRetry(1))
	s := NewCachedPlaceSearcher(inner, cache.NewLRU[[]models.VenueCandidate](10, time.Minute))

	ctx := context.Background()
	// Same query spelled differently, coordinates within rounding
	// precision, radii inside one bucket: one upstream call.
	_, _ = s.SearchPlaces(ctx, "Cafe", models.Coordinates{Lat: 1.00001, Lng: 2.00001}, 1000)
	_, _ = s.SearchPlaces(ctx, "  cafe ", models.Coordinates{Lat: 1.00004, Lng: 2.00004}, 1050)
	if got := calls.Load(); got != 1 {
		t.Fatalf("upstream calls = %d, want 1 (near-identical params should share a key)", got)
	}

	// A coordinate shift beyond the fourth decimal is a different key.
	_, _ = s.SearchPlaces(ctx, "cafe", models.Coordinates{Lat: 1.001, Lng: 2.00001}, 1000)
	if got := calls.Load(); got != 2 {
		t.Errorf("upstream calls = %d, want 2 after coordinate shift", got)
	}
}

func TestApplyRanking(t *testing.T) {
	venues := []models.VenueCandidate{
		{Identity: "a", Name: "Alpha"},
		{Identity: "b", Name: "Beta"},
		{Identity: "c", Name: "Gamma"},
	}

	t.Run("reorders and annotates", func(t *testing.T) {
		ranked, err := applyRanking(venues, `[{"index":2,"reason":"best fit"},{"index":3,"reason":"close second"},{"index":1,"reason":"too loud"}]`)
		if err != nil {
			t.Fatalf("applyRanking() error = %v", err)
		}
		if ranked[0].Identity != "b" || ranked[1].Identity != "c" || ranked[2].Identity != "a" {
			t.Errorf("order = %v, %v, %v", ranked[0].Identity, ranked[1].Identity, ranked[2].Identity)
		}
		if ranked[0].RankReason != "best fit" {
			t.Errorf("reason = %q", ranked[0].RankReason)
		}
	})

	t.Run("strips code fence", func(t *testing.T) {
		ranked, err := applyRanking(venues, "```json\n[{\"index\":1,\"reason\":\"r\"},{\"index\":2,\"reason\":\"r\"},{\"index\":3,\"reason\":\"r\"}]\n```")
		if err != nil {
			t.Fatalf("applyRanking() error = %v", err)
		}
		if len(ranked) != 3 {
			t.Errorf("len = %d", len(ranked))
		}
	})

	t.Run("skipped venues keep order at tail", func(t *testing.T) {
		ranked, err := applyRanking(venues, `[{"index":3,"reason":"top"}]`)
		if err != nil {
			t.Fatalf("applyRanking() error = %v", err)
		}
		if ranked[0].Identity != "c" || ranked[1].Identity != "a" || ranked[2].Identity != "b" {
			t.Errorf("order = %v, %v, %v", ranked[0].Identity, ranked[1].Identity, ranked[2].Identity)
		}
	})

	t.Run("out of range and duplicate indices ignored", func(t *testing.T) {
		ranked, err := applyRanking(venues, `[{"index":9,"reason":"x"},{"index":1,"reason":"a"},{"index":1,"reason":"dup"}]`)
		if err != nil {
			t.Fatalf("applyRanking() error = %v", err)
		}
		if len(ranked) != 3 {
			t.Fatalf("len = %d", len(ranked))
		}
		if ranked[0].Identity != "a" || ranked[0].RankReason != "a" {
			t.Errorf("head = %+v", ranked[0])
		}
	})

	t.Run("malformed answer is an error", func(t *testing.T) {
		if _, err := applyRanking(venues, "I cannot rank these."); err == nil {
			t.Error("expected error for non-JSON answer")
		}
	})

	t.Run("no matching indices is an error", func(t *testing.T) {
		if _, err := applyRanking(venues, `[{"index":0,"reason":"x"}]`); err == nil {
			t.Error("expected error when nothing matched")
		}
	})
}

func TestOpenAIRanker_UnavailableWithoutKey(t *testing.T) {
	r := NewOpenAIRanker(config.OpenAIConfig{}, time.Second, fastRetry(1))
	if r.IsAvailable() {
		t.Error("IsAvailable() = true without key")
	}
	if _, err := r.Rank(context.Background(), "date night", []models.VenueCandidate{{Name: "a"}, {Name: "b"}}); !errors.Is(err, ErrProviderUnavailable) {
		t.Errorf("error = %v, want ErrProviderUnavailable", err)
	}
}

func TestOpenAIRanker_ShortListsPassThrough(t *testing.T) {
	r := NewOpenAIRanker(config.OpenAIConfig{APIKey: "k"}, time.Second, fastRetry(1))
	venues := []models.VenueCandidate{{Name: "only"}}
	ranked, err := r.Rank(context.Background(), "brunch", venues)
	if err != nil {
		t.Fatalf("Rank() error = %v", err)
	}
	if len(ranked) != 1 || ranked[0].Name != "only" {
		t.Errorf("ranked = %+v", ranked)
	}
}
