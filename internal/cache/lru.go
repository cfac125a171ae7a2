// VenueScout - Venue Discovery and Recommendation Service
// Copyright 2026 VenueScout contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/venuescout/venuescout

// Package cache provides a thread-safe expiring LRU cache used to memoize
// upstream provider responses. Each logical cache domain (geocoding, place
// search, enrichment) owns its own instance with independent capacity and TTL
// policy, because upstream data volatility differs per domain.
package cache

import (
	"sync"
	"time"
)

// entry is a node in the recency list. The list is ordered by last access:
// head.next is the most recently used entry, tail.prev the least.
type entry[V any] struct {
	key            string
	value          V
	prev           *entry[V]
	next           *entry[V]
	expiresAt      time.Time
	lastAccessedAt time.Time
}

// LRU is a thread-safe Least Recently Used cache with per-entry TTL.
//
// Key properties:
//   - O(1) Get, Set, Delete and eviction via doubly-linked list + hashmap
//   - An entry is never returned once its TTL has elapsed relative to the
//     call time; expired entries are deleted on access and counted as misses
//   - Get refreshes recency; the LRU policy ranks on access, not insertion
//   - At most capacity live entries exist; inserting a new key at capacity
//     evicts exactly the least recently accessed entry first
//
// Cache operations never fail. A miss is indistinguishable from "never
// cached"; callers must always be able to fall back to the upstream call.
type LRU[V any] struct {
	mu sync.RWMutex

	// capacity is the maximum number of live entries.
	capacity int

	// defaultTTL applies to Set; SetWithTTL overrides per entry.
	defaultTTL time.Duration

	// items maps keys to list nodes for O(1) lookup.
	items map[string]*entry[V]

	// head and tail are sentinel nodes for the recency list.
	head *entry[V]
	tail *entry[V]

	hits      int64
	misses    int64
	evictions int64
}

// Stats is a point-in-time snapshot of cache counters.
type Stats struct {
	Hits      int64   `json:"hits"`
	Misses    int64   `json:"misses"`
	Evictions int64   `json:"evictions"`
	Size      int     `json:"size"`
	HitRate   float64 `json:"hit_rate"`
}

// NewLRU creates an expiring LRU cache with the given capacity and default
// TTL. Non-positive arguments fall back to safe defaults.
func NewLRU[V any](capacity int, defaultTTL time.Duration) *LRU[V] {
	if capacity <= 0 {
		capacity = 1000
	}
	if defaultTTL <= 0 {
		defaultTTL = 5 * time.Minute
	}

	c := &LRU[V]{
		capacity:   capacity,
		defaultTTL: defaultTTL,
		items:      make(map[string]*entry[V], capacity),
		head:       &entry[V]{},
		tail:       &entry[V]{},
	}

	c.head.next = c.tail
	c.tail.prev = c.head

	return c
}

// Get retrieves a value by key. Returns the zero value and false on a miss.
// A hit refreshes the entry's recency rank. An entry whose TTL has elapsed is
// removed as a side effect and reported as a miss.
func (c *LRU[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero V

	e, exists := c.items[key]
	if !exists {
		c.misses++
		return zero, false
	}

	now := time.Now()
	if now.After(e.expiresAt) {
		c.removeEntry(e)
		c.misses++
		c.evictions++
		return zero, false
	}

	e.lastAccessedAt = now
	c.moveToFront(e)
	c.hits++
	return e.value, true
}

// Has reports whether a live entry exists for key without refreshing its
// recency rank or touching the hit/miss counters.
func (c *LRU[V]) Has(key string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, exists := c.items[key]
	return exists && !time.Now().After(e.expiresAt)
}

// Set stores a value under key with the cache's default TTL.
func (c *LRU[V]) Set(key string, value V) {
	c.SetWithTTL(key, value, c.defaultTTL)
}

// SetWithTTL stores a value under key with an explicit TTL. Overwriting an
// existing key refreshes its recency and expiry without evicting. Inserting a
// new key at capacity evicts exactly one entry, the least recently accessed.
func (c *LRU[V]) SetWithTTL(key string, value V, ttl time.Duration) {
	if ttl <= 0 {
		ttl = c.defaultTTL
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()

	if e, exists := c.items[key]; exists {
		e.value = value
		e.expiresAt = now.Add(ttl)
		e.lastAccessedAt = now
		c.moveToFront(e)
		return
	}

	if len(c.items) >= c.capacity {
		c.evictOldest()
	}

	e := &entry[V]{
		key:            key,
		value:          value,
		expiresAt:      now.Add(ttl),
		lastAccessedAt: now,
	}
	c.addToFront(e)
	c.items[key] = e
}

// Delete removes an entry by key. Returns true if an entry was removed.
func (c *LRU[V]) Delete(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, exists := c.items[key]; exists {
		c.removeEntry(e)
		return true
	}
	return false
}

// Len returns the current number of live entries.
func (c *LRU[V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Clear removes all entries. Counters are preserved.
func (c *LRU[V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = make(map[string]*entry[V], c.capacity)
	c.head.next = c.tail
	c.tail.prev = c.head
}

// CleanupExpired removes every entry whose TTL has elapsed, independent of
// access patterns. Called by the background sweeper to bound worst-case
// memory between accesses. Returns the number of entries removed.
func (c *LRU[V]) CleanupExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	removed := 0

	for e := c.tail.prev; e != c.head; {
		prev := e.prev
		if now.After(e.expiresAt) {
			c.removeEntry(e)
			c.evictions++
			removed++
		}
		e = prev
	}

	return removed
}

// Stats returns a snapshot of the cache counters.
func (c *LRU[V]) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	s := Stats{
		Hits:      c.hits,
		Misses:    c.misses,
		Evictions: c.evictions,
		Size:      len(c.items),
	}
	if total := s.Hits + s.Misses; total > 0 {
		s.HitRate = float64(s.Hits) / float64(total)
	}
	return s
}

// Internal methods (must be called with lock held)

func (c *LRU[V]) addToFront(e *entry[V]) {
	e.prev = c.head
	e.next = c.head.next
	c.head.next.prev = e
	c.head.next = e
}

func (c *LRU[V]) moveToFront(e *entry[V]) {
	e.prev.next = e.next
	e.next.prev = e.prev
	c.addToFront(e)
}

func (c *LRU[V]) removeEntry(e *entry[V]) {
	e.prev.next = e.next
	e.next.prev = e.prev
	delete(c.items, e.key)
}

// evictOldest removes the entry with the globally oldest lastAccessedAt,
// which by list invariant is tail.prev.
func (c *LRU[V]) evictOldest() {
	oldest := c.tail.prev
	if oldest == c.head {
		return
	}
	c.removeEntry(oldest)
	c.evictions++
}
