package forecast

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"github.com/wonny/areascore/internal/contracts"
)

// MemoryCache is an in-process ResultCache with a fixed TTL.
// Used when Redis is disabled and the pipeline runs repeatedly in one process.
// ⭐ SSOT: 프로세스 내 예측 캐시는 이 구조체에서만
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	ttl     time.Duration
	clock   clockwork.Clock
	log     zerolog.Logger
}

type memoryEntry struct {
	result   contracts.ForecastResult
	storedAt time.Time
}

// CacheStats represents cache statistics
type CacheStats struct {
	TotalCount int `json:"total_count"`
	FreshCount int `json:"fresh_count"`
	StaleCount int `json:"stale_count"`
}

// NewMemoryCache creates a new memory cache. A nil clock uses the real clock.
func NewMemoryCache(ttl time.Duration, clock clockwork.Clock, log zerolog.Logger) *MemoryCache {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &MemoryCache{
		entries: make(map[string]memoryEntry),
		ttl:     ttl,
		clock:   clock,
		log:     log.With().Str("component", "forecast.memcache").Logger(),
	}
}

// Get returns a fresh cached forecast; stale entries are misses
func (c *MemoryCache) Get(_ context.Context, fingerprint string) (contracts.ForecastResult, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[fingerprint]
	if !ok || c.clock.Since(e.storedAt) > c.ttl {
		return contracts.ForecastResult{}, false
	}
	return e.result, true
}

// Set stores a forecast
func (c *MemoryCache) Set(_ context.Context, fingerprint string, result contracts.ForecastResult) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[fingerprint] = memoryEntry{result: result, storedAt: c.clock.Now()}
}

// Len returns the number of entries, stale included
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.entries)
}

// CleanStale removes expired entries and returns how many were removed
func (c *MemoryCache) CleanStale() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	count := 0
	for fp, e := range c.entries {
		if c.clock.Since(e.storedAt) > c.ttl {
			delete(c.entries, fp)
			count++
		}
	}

	if count > 0 {
		c.log.Info().Int("count", count).Msg("cleaned stale forecasts from cache")
	}
	return count
}

// Stats returns cache statistics
func (c *MemoryCache) Stats() CacheStats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	stats := CacheStats{TotalCount: len(c.entries)}
	for _, e := range c.entries {
		if c.clock.Since(e.storedAt) > c.ttl {
			stats.StaleCount++
		}
	}
	stats.FreshCount = stats.TotalCount - stats.StaleCount
	return stats
}
