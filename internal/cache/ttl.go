// Package cache provides a small in-memory TTL cache used by the registry
// client for reference-data responses.
package cache

import (
	"sync"
	"time"
)

type entry struct {
	value     []byte
	expiresAt time.Time
}

// TTL is a concurrency-safe expiring key/value cache.
type TTL struct {
	mu      sync.Mutex
	entries map[string]entry
	now     func() time.Time
}

// New returns an empty cache.
func New() *TTL {
	return &TTL{
		entries: make(map[string]entry),
		now:     time.Now,
	}
}

// Get returns the cached value for key, or false if absent or expired.
// Expired entries are removed on access.
func (c *TTL) Get(key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if c.now().After(e.expiresAt) {
		delete(c.entries, key)
		return nil, false
	}
	return e.value, true
}

// Set stores value under key for ttl. Non-positive ttl stores nothing.
func (c *TTL) Set(key string, value []byte, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = entry{value: value, expiresAt: c.now().Add(ttl)}
}

// Delete removes key if present.
func (c *TTL) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

// Purge drops all expired entries and reports how many were removed.
func (c *TTL) Purge() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := 0
	cutoff := c.now()
	for k, e := range c.entries {
		if cutoff.After(e.expiresAt) {
			delete(c.entries, k)
			n++
		}
	}
	return n
}

// Len reports the number of entries, expired or not.
func (c *TTL) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
