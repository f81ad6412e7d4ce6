// Geowatch - Live Telemetry Fusion and Geographic Visualization
// Copyright 2026 Geowatch Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/geowatch/geowatch

package tiles

import (
	"sync"
	"time"

	"github.com/geowatch/geowatch/internal/metrics"
)

// docEntry is a node of the cache's doubly-linked recency list.
type docEntry struct {
	key       string
	value     []byte
	prev      *docEntry
	next      *docEntry
	expiresAt time.Time
}

// docCache is a thread-safe LRU cache for tile documents with TTL support.
// O(1) Get, Add, and eviction via a doubly-linked list plus a hashmap.
type docCache struct {
	mu sync.Mutex

	capacity int
	ttl      time.Duration

	items map[string]*docEntry

	// head.next is the most recently used, tail.prev the least.
	head *docEntry
	tail *docEntry
}

func newDocCache(capacity int, ttl time.Duration) *docCache {
	if capacity <= 0 {
		capacity = 512
	}
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}

	c := &docCache{
		capacity: capacity,
		ttl:      ttl,
		items:    make(map[string]*docEntry, capacity),
		head:     &docEntry{},
		tail:     &docEntry{},
	}
	c.head.next = c.tail
	c.tail.prev = c.head

	return c
}

// Get retrieves a document. Found entries are moved to the front.
// Expired entries are removed lazily and reported as misses.
func (c *docCache) Get(key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, exists := c.items[key]
	if !exists {
		metrics.TileCacheMisses.Inc()
		return nil, false
	}

	if time.Now().After(entry.expiresAt) {
		c.removeEntry(entry)
		metrics.TileCacheMisses.Inc()
		metrics.TileCacheEvictions.Inc()
		return nil, false
	}

	c.moveToFront(entry)
	metrics.TileCacheHits.Inc()
	return entry.value, true
}

// Add inserts or refreshes a document, evicting the least recently used
// entries when over capacity.
func (c *docCache) Add(key string, value []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	expiresAt := time.Now().Add(c.ttl)

	if entry, exists := c.items[key]; exists {
		entry.value = value
		entry.expiresAt = expiresAt
		c.moveToFront(entry)
		return
	}

	entry := &docEntry{key: key, value: value, expiresAt: expiresAt}
	c.addToFront(entry)
	c.items[key] = entry

	for len(c.items) > c.capacity {
		c.evictOldest()
	}

	metrics.TileCacheSize.Set(float64(len(c.items)))
}

// Len returns the current number of cached documents.
func (c *docCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Internal methods, lock held by caller.

func (c *docCache) addToFront(entry *docEntry) {
	entry.prev = c.head
	entry.next = c.head.next
	c.head.next.prev = entry
	c.head.next = entry
}

func (c *docCache) moveToFront(entry *docEntry) {
	entry.prev.next = entry.next
	entry.next.prev = entry.prev
	c.addToFront(entry)
}

func (c *docCache) removeEntry(entry *docEntry) {
	entry.prev.next = entry.next
	entry.next.prev = entry.prev
	delete(c.items, entry.key)
	metrics.TileCacheSize.Set(float64(len(c.items)))
}

func (c *docCache) evictOldest() {
	oldest := c.tail.prev
	if oldest == c.head {
		return
	}
	c.removeEntry(oldest)
	metrics.TileCacheEvictions.Inc()
}
