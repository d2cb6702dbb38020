// Package cache holds the dashboard's short-lived profile cache.
package cache

import (
	"sync"
	"time"

	"github.com/examshaala/examshaala-portal/internal/models"
)

// entry wraps a cached profile with expiry and insertion order tracking.
type entry struct {
	profile   models.UserProfile
	expiry    time.Time
	insertIdx int64
}

// ProfileCache caches profiles by UID so repeated dashboard renders do not
// round-trip to the document store. Thread-safe with sync.RWMutex.
type ProfileCache struct {
	mu         sync.RWMutex
	items      map[string]entry
	ttl        time.Duration
	maxEntries int
	nextIdx    int64
}

// New creates a new ProfileCache with the given TTL and max entry count.
func New(ttl time.Duration, maxEntries int) *ProfileCache {
	return &ProfileCache{
		items:      make(map[string]entry),
		ttl:        ttl,
		maxEntries: maxEntries,
	}
}

// Get returns a copy of the cached profile if found and not expired.
func (c *ProfileCache) Get(uid string) (*models.UserProfile, bool) {
	c.mu.RLock()
	e, ok := c.items[uid]
	c.mu.RUnlock()

	if !ok {
		return nil, false
	}

	if time.Now().After(e.expiry) {
		// Expired: remove lazily
		c.mu.Lock()
		if e2, ok2 := c.items[uid]; ok2 && time.Now().After(e2.expiry) {
			delete(c.items, uid)
		}
		c.mu.Unlock()
		return nil, false
	}

	p := e.profile
	return &p, true
}

// Set stores a copy of p. Evicts the oldest entry if at capacity.
func (c *ProfileCache) Set(p *models.UserProfile) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e := entry{
		profile:   *p,
		expiry:    time.Now().Add(c.ttl),
		insertIdx: c.nextIdx,
	}
	c.nextIdx++

	// If key already exists, update in place (no capacity change)
	if _, exists := c.items[p.ID]; exists {
		c.items[p.ID] = e
		return
	}

	if len(c.items) >= c.maxEntries {
		c.evictOldest()
	}

	c.items[p.ID] = e
}

// Invalidate drops the entry for uid.
func (c *ProfileCache) Invalidate(uid string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, uid)
}

// Len returns the number of entries, including expired ones not yet removed.
func (c *ProfileCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// evictOldest removes the entry with the lowest insertIdx. Must be called with mu held.
func (c *ProfileCache) evictOldest() {
	var oldestKey string
	var oldestIdx int64 = -1

	for key, e := range c.items {
		if oldestIdx == -1 || e.insertIdx < oldestIdx {
			oldestIdx = e.insertIdx
			oldestKey = key
		}
	}

	if oldestKey != "" {
		delete(c.items, oldestKey)
	}
}
