// Tidewatch - Live Maritime Conditions Map
// Copyright 2026 Tidewatch contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tidewatch/tidewatch

// Package cache provides the TTL + capacity bounded response cache for the
// pull-based sources. Keys are normalized with KeyFor so that viewports
// rounding to the same one-decimal-degree box share an entry.
package cache

import (
	"sync"
	"time"

	"github.com/tidewatch/tidewatch/internal/geo"
	"github.com/tidewatch/tidewatch/internal/metrics"
)

// DefaultTTL is used when New is given a non-positive TTL.
const DefaultTTL = 10 * time.Minute

// DefaultCapacity is used when New is given a non-positive capacity.
const DefaultCapacity = 128

// entry is one cached payload. Freshness and eviction order both key off
// insertedAt; there is no access-time tracking (insertion order, not LRU).
type entry struct {
	payload    interface{}
	insertedAt time.Time
}

// ResponseCache is a thread-safe response cache with TTL freshness and a
// hard capacity bound. When full, Put evicts the entry with the smallest
// insertedAt. Cached payloads are treated as immutable by all callers.
type ResponseCache struct {
	mu       sync.RWMutex
	entries  map[string]entry
	ttl      time.Duration
	capacity int

	// now is swappable in tests.
	now func() time.Time

	hits      int64
	misses    int64
	evictions int64
}

// New creates a ResponseCache with the given TTL and capacity.
// Non-positive values fall back to the defaults.
func New(ttl time.Duration, capacity int) *ResponseCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &ResponseCache{
		entries:  make(map[string]entry),
		ttl:      ttl,
		capacity: capacity,
		now:      time.Now,
	}
}

// KeyFor builds the cache key for a source kind and viewport. The box is
// rounded to one decimal degree per coordinate, so nearby viewports from a
// panning client collapse onto the same key.
func KeyFor(sourceKind string, box geo.BoundingBox) string {
	return sourceKind + ":" + box.Key()
}

// Get returns the cached payload for key if present and fresh.
// Expired entries are removed on read.
func (c *ResponseCache) Get(key string) (interface{}, bool) {
	c.mu.RLock()
	e, found := c.entries[key]
	c.mu.RUnlock()

	if !found {
		c.mu.Lock()
		c.misses++
		c.mu.Unlock()
		return nil, false
	}

	if c.now().Sub(e.insertedAt) >= c.ttl {
		c.mu.Lock()
		// Re-check under the write lock; another goroutine may have
		// refreshed the entry between the two lock acquisitions.
		if cur, ok := c.entries[key]; ok && cur.insertedAt.Equal(e.insertedAt) {
			delete(c.entries, key)
		}
		c.misses++
		metrics.CacheEntries.Set(float64(len(c.entries)))
		c.mu.Unlock()
		return nil, false
	}

	c.mu.Lock()
	c.hits++
	c.mu.Unlock()
	return e.payload, true
}

// Put stores a payload under key, refreshing insertedAt on overwrite.
// When the cache is at capacity and the key is absent, the entry with the
// smallest insertedAt is evicted first. Expired entries still count toward
// capacity until read or evicted.
func (c *ResponseCache) Put(key string, payload interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; !exists && len(c.entries) >= c.capacity {
		c.evictOldestLocked()
	}

	c.entries[key] = entry{payload: payload, insertedAt: c.now()}
	metrics.CacheEntries.Set(float64(len(c.entries)))
}

// evictOldestLocked removes the entry with the smallest insertedAt.
// Linear scan; the cache is small (default 128 entries).
func (c *ResponseCache) evictOldestLocked() {
	var oldestKey string
	var oldestAt time.Time
	first := true
	for k, e := range c.entries {
		if first || e.insertedAt.Before(oldestAt) {
			oldestKey = k
			oldestAt = e.insertedAt
			first = false
		}
	}
	if !first {
		delete(c.entries, oldestKey)
		c.evictions++
		metrics.CacheEvictions.Inc()
	}
}

// Len returns the number of entries currently held, expired or not.
func (c *ResponseCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Stats returns cumulative hit, miss and eviction counts.
func (c *ResponseCache) Stats() (hits, misses, evictions int64) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.hits, c.misses, c.evictions
}

// HitRate returns the fraction of lookups served from cache, 0 when no
// lookups have happened yet.
func (c *ResponseCache) HitRate() float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	total := c.hits + c.misses
	if total == 0 {
		return 0
	}
	return float64(c.hits) / float64(total)
}
