package forecast

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/wonny/areascore/internal/contracts"
	"github.com/wonny/areascore/pkg/redis"
)

// RedisCache stores forecasts in Redis keyed by input fingerprint.
// Failures are logged and treated as misses.
type RedisCache struct {
	cache *redis.Cache
	log   zerolog.Logger
}

// NewRedisCache creates a Redis-backed result cache
func NewRedisCache(client *redis.Client, log zerolog.Logger) *RedisCache {
	return &RedisCache{
		cache: redis.NewCache(client, redis.KeyPrefix),
		log:   log.With().Str("component", "forecast.cache").Logger(),
	}
}

// Get returns a cached forecast
func (c *RedisCache) Get(ctx context.Context, fingerprint string) (contracts.ForecastResult, bool) {
	var res contracts.ForecastResult
	found, err := c.cache.Get(ctx, redis.ForecastKey(fingerprint), &res)
	if err != nil {
		c.log.Warn().Err(err).Msg("forecast cache read failed")
		return contracts.ForecastResult{}, false
	}
	return res, found
}

// Set stores a forecast for a day
func (c *RedisCache) Set(ctx context.Context, fingerprint string, result contracts.ForecastResult) {
	if err := c.cache.Set(ctx, redis.ForecastKey(fingerprint), result, redis.TTLDaily); err != nil {
		c.log.Warn().Err(err).Msg("forecast cache write failed")
	}
}
