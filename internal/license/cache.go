package license

import (
	"sync"
	"time"
)

// cacheEntry is a full ValidationResult snapshot with its expiry bookkeeping.
// Cached results are replayed as-is, never re-evaluated.
type cacheEntry struct {
	result    ValidationResult
	cachedAt  time.Time
	expiresAt time.Time
	hitCount  int
}

// ValidationCache memoizes validation results keyed by the envelope's
// content identity (public key thumbprint + checksum). Expiry is advisory
// and checked on read; a background sweep reclaims memory for entries that
// are never read again.
type ValidationCache struct {
	entries   map[string]cacheEntry
	mutex     sync.RWMutex
	ttl       time.Duration
	maxSize   int
	hitCount  int64
	missCount int64
	stopChan  chan struct{}
	stopOnce  sync.Once
}

// NewValidationCache creates a validation cache with the given entry TTL and
// a bound on total entries.
func NewValidationCache(ttl time.Duration, maxSize int) *ValidationCache {
	cache := &ValidationCache{
		entries:  make(map[string]cacheEntry),
		ttl:      ttl,
		maxSize:  maxSize,
		stopChan: make(chan struct{}),
	}

	go cache.cleanup()

	return cache
}

// Get retrieves a cached validation result. The returned snapshot is a copy;
// callers cannot mutate cache state through it.
func (c *ValidationCache) Get(key string) (*ValidationResult, bool) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	entry, exists := c.entries[key]
	if !exists || time.Now().After(entry.expiresAt) {
		c.missCount++
		return nil, false
	}

	entry.hitCount++
	c.entries[key] = entry
	c.hitCount++

	result := entry.result
	return &result, true
}

// Set stores a validation result snapshot. Concurrent writers racing on the
// same key simply overwrite each other; the computation is deterministic in
// the input bytes, so last-write-wins is harmless.
func (c *ValidationCache) Set(key string, result ValidationResult) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if c.maxSize <= 0 {
		return
	}

	if len(c.entries) >= c.maxSize {
		c.evictOldest()
	}

	c.entries[key] = cacheEntry{
		result:    result,
		cachedAt:  time.Now(),
		expiresAt: time.Now().Add(c.ttl),
	}
}

// Invalidate removes a single entry.
func (c *ValidationCache) Invalidate(key string) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	delete(c.entries, key)
}

// Clear removes all entries.
func (c *ValidationCache) Clear() {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.entries = make(map[string]cacheEntry)
}

// Stats returns cache counters for monitoring endpoints.
func (c *ValidationCache) Stats() map[string]interface{} {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	totalRequests := c.hitCount + c.missCount
	hitRatio := float64(0)
	if totalRequests > 0 {
		hitRatio = float64(c.hitCount) / float64(totalRequests)
	}

	return map[string]interface{}{
		"entries":     len(c.entries),
		"max_size":    c.maxSize,
		"hit_count":   c.hitCount,
		"miss_count":  c.missCount,
		"hit_ratio":   hitRatio,
		"ttl_seconds": c.ttl.Seconds(),
	}
}

func (c *ValidationCache) evictOldest() {
	var oldestKey string
	var oldestTime time.Time

	for key, entry := range c.entries {
		if oldestKey == "" || entry.cachedAt.Before(oldestTime) {
			oldestKey = key
			oldestTime = entry.cachedAt
		}
	}

	if oldestKey != "" {
		delete(c.entries, oldestKey)
	}
}

// Stop terminates the background sweep goroutine. Safe to call more than
// once.
func (c *ValidationCache) Stop() {
	c.stopOnce.Do(func() {
		close(c.stopChan)
	})
}

func (c *ValidationCache) cleanup() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.mutex.Lock()
			now := time.Now()
			for key, entry := range c.entries {
				if now.After(entry.expiresAt) {
					delete(c.entries, key)
				}
			}
			c.mutex.Unlock()
		case <-c.stopChan:
			return
		}
	}
}
