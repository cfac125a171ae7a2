// VenueScout - Venue Discovery and Recommendation Service
// Copyright 2026 VenueScout contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/venuescout/venuescout

package cache

import (
	"fmt"
	"sync"
	"testing"
	"time"
)

func TestLRU_BasicOperations(t *testing.T) {
	c := NewLRU[string](3, time.Minute)

	c.Set("a", "1")
	c.Set("b", "2")
	c.Set("c", "3")

	for _, key := range []string{"a", "b", "c"} {
		if _, found := c.Get(key); !found {
			t.Errorf("Expected to find key %q", key)
		}
	}

	if c.Len() != 3 {
		t.Errorf("Expected len 3, got %d", c.Len())
	}

	if v, found := c.Get("a"); !found || v != "1" {
		t.Errorf("Expected ('1', true), got (%q, %v)", v, found)
	}
}

func TestLRU_MissOnUnknownKey(t *testing.T) {
	c := NewLRU[int](10, time.Minute)

	if _, found := c.Get("missing"); found {
		t.Error("Expected miss for unknown key")
	}

	stats := c.Stats()
	if stats.Misses != 1 {
		t.Errorf("Expected 1 miss, got %d", stats.Misses)
	}
}

func TestLRU_EvictsLeastRecentlyAccessed(t *testing.T) {
	c := NewLRU[int](3, time.Minute)

	c.Set("a", 1)
	c.Set("b", 2)
	c.Set("c", 3)

	// Access 'a' to make it most recently used
	c.Get("a")

	// Inserting a new key at capacity must evict 'b' (globally oldest access)
	c.Set("d", 4)

	if _, found := c.Get("b"); found {
		t.Error("Expected 'b' to be evicted")
	}
	for _, key := range []string{"a", "c", "d"} {
		if _, found := c.Get(key); !found {
			t.Errorf("Expected %q to survive eviction", key)
		}
	}
}

func TestLRU_GetRefreshesRecencyRank(t *testing.T) {
	const capacity = 5
	c := NewLRU[int](capacity, time.Minute)

	c.Set("keep", 0)
	for i := 0; i < capacity-1; i++ {
		c.Set(fmt.Sprintf("fill-%d", i), i)
	}

	// Refresh "keep", then insert capacity new keys. The refreshed key must
	// not be the first to go.
	c.Get("keep")
	c.Set("extra-0", 100)

	if _, found := c.Get("keep"); !found {
		t.Error("Expected refreshed key to survive the next eviction")
	}
}

func TestLRU_OverwriteDoesNotEvict(t *testing.T) {
	c := NewLRU[int](2, time.Minute)

	c.Set("a", 1)
	c.Set("b", 2)
	c.Set("a", 10) // overwrite at capacity

	if c.Len() != 2 {
		t.Errorf("Expected len 2 after overwrite, got %d", c.Len())
	}
	if v, found := c.Get("a"); !found || v != 10 {
		t.Errorf("Expected overwritten value 10, got (%d, %v)", v, found)
	}
	if _, found := c.Get("b"); !found {
		t.Error("Overwrite must not evict another key")
	}
}

func TestLRU_TTLExpiry(t *testing.T) {
	c := NewLRU[[2]float64](10, 100*time.Millisecond)

	c.Set("loc:nyc", [2]float64{40.71, -74.0})

	// t=50ms: still live
	time.Sleep(50 * time.Millisecond)
	if v, found := c.Get("loc:nyc"); !found || v[0] != 40.71 {
		t.Fatalf("Expected live entry at t=50ms, got (%v, %v)", v, found)
	}

	// t=150ms: absent, counted as miss
	time.Sleep(100 * time.Millisecond)
	if _, found := c.Get("loc:nyc"); found {
		t.Error("Expected expired entry to be absent at t=150ms")
	}

	stats := c.Stats()
	if stats.Misses == 0 {
		t.Error("Expected expiry to be counted as a miss")
	}
	if stats.Evictions == 0 {
		t.Error("Expected expiry removal to be counted as an eviction")
	}
}

func TestLRU_SetWithTTLOverridesDefault(t *testing.T) {
	c := NewLRU[string](10, time.Hour)

	c.SetWithTTL("short", "v", 30*time.Millisecond)
	c.Set("long", "v")

	time.Sleep(50 * time.Millisecond)

	if _, found := c.Get("short"); found {
		t.Error("Expected short-TTL entry to expire")
	}
	if _, found := c.Get("long"); !found {
		t.Error("Expected default-TTL entry to survive")
	}
}

func TestLRU_Has(t *testing.T) {
	c := NewLRU[int](2, 30*time.Millisecond)

	c.Set("a", 1)
	if !c.Has("a") {
		t.Error("Expected Has to report live entry")
	}
	if c.Has("b") {
		t.Error("Expected Has to report absent entry")
	}

	time.Sleep(50 * time.Millisecond)
	if c.Has("a") {
		t.Error("Expected Has to report expired entry as absent")
	}

	// Has must not count toward hit/miss stats
	if s := c.Stats(); s.Hits != 0 || s.Misses != 0 {
		t.Errorf("Expected Has to leave counters untouched, got %+v", s)
	}
}

func TestLRU_CleanupExpired(t *testing.T) {
	c := NewLRU[int](10, time.Minute)

	c.SetWithTTL("x", 1, 10*time.Millisecond)
	c.SetWithTTL("y", 2, 10*time.Millisecond)
	c.Set("z", 3)

	time.Sleep(30 * time.Millisecond)

	removed := c.CleanupExpired()
	if removed != 2 {
		t.Errorf("Expected sweep to remove 2 entries, got %d", removed)
	}
	if c.Len() != 1 {
		t.Errorf("Expected 1 live entry after sweep, got %d", c.Len())
	}
}

func TestLRU_Clear(t *testing.T) {
	c := NewLRU[int](10, time.Minute)

	c.Set("a", 1)
	c.Set("b", 2)
	c.Clear()

	if c.Len() != 0 {
		t.Errorf("Expected empty cache after Clear, got %d entries", c.Len())
	}
	if _, found := c.Get("a"); found {
		t.Error("Expected cleared entry to be absent")
	}
}

func TestLRU_Delete(t *testing.T) {
	c := NewLRU[int](10, time.Minute)

	c.Set("a", 1)

	if !c.Delete("a") {
		t.Error("Expected Delete to return true for existing key")
	}
	if c.Delete("a") {
		t.Error("Expected Delete to return false for missing key")
	}
}

func TestLRU_StatsHitRate(t *testing.T) {
	c := NewLRU[int](10, time.Minute)

	c.Set("a", 1)
	c.Get("a")       // hit
	c.Get("a")       // hit
	c.Get("missing") // miss

	s := c.Stats()
	if s.Hits != 2 || s.Misses != 1 {
		t.Fatalf("Expected 2 hits / 1 miss, got %d / %d", s.Hits, s.Misses)
	}
	want := 2.0 / 3.0
	if diff := s.HitRate - want; diff > 0.001 || diff < -0.001 {
		t.Errorf("Expected hit rate %.3f, got %.3f", want, s.HitRate)
	}
}

func TestLRU_CapacityNeverExceeded(t *testing.T) {
	const capacity = 8
	c := NewLRU[int](capacity, time.Minute)

	for i := 0; i < capacity*4; i++ {
		c.Set(fmt.Sprintf("key-%d", i), i)
		if c.Len() > capacity {
			t.Fatalf("Capacity exceeded: %d > %d", c.Len(), capacity)
		}
	}
}

func TestLRU_ConcurrentAccess(t *testing.T) {
	c := NewLRU[int](100, time.Minute)

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				key := fmt.Sprintf("key-%d", i%50)
				c.Set(key, g*1000+i)
				c.Get(key)
				c.Has(key)
			}
		}(g)
	}
	wg.Wait()

	if c.Len() > 100 {
		t.Errorf("Capacity exceeded under concurrency: %d", c.Len())
	}
}

func TestGenerateKey_Deterministic(t *testing.T) {
	type params struct {
		Location string  `json:"location"`
		Radius   float64 `json:"radius"`
	}

	k1 := GenerateKey("geocode", params{Location: "new york", Radius: 500})
	k2 := GenerateKey("geocode", params{Location: "new york", Radius: 500})
	k3 := GenerateKey("geocode", params{Location: "boston", Radius: 500})

	if k1 != k2 {
		t.Error("Expected identical params to produce identical keys")
	}
	if k1 == k3 {
		t.Error("Expected different params to produce different keys")
	}
}
