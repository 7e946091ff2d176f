package pipeline

import (
	"context"

	"github.com/wonny/areascore/internal/contracts"
	"github.com/wonny/areascore/internal/forecast"
	"github.com/wonny/areascore/internal/observability"
)

// meteredCache counts forecast cache hits and misses
type meteredCache struct {
	inner   forecast.ResultCache
	metrics *observability.Metrics
}

// MeteredCache wraps a forecast cache with hit/miss counters.
// A nil metrics returns the cache unchanged.
func MeteredCache(inner forecast.ResultCache, m *observability.Metrics) forecast.ResultCache {
	if m == nil {
		return inner
	}
	return &meteredCache{inner: inner, metrics: m}
}

func (c *meteredCache) Get(ctx context.Context, fingerprint string) (contracts.ForecastResult, bool) {
	res, ok := c.inner.Get(ctx, fingerprint)
	if ok {
		c.metrics.ForecastCache.WithLabelValues("hit").Inc()
	} else {
		c.metrics.ForecastCache.WithLabelValues("miss").Inc()
	}
	return res, ok
}

func (c *meteredCache) Set(ctx context.Context, fingerprint string, result contracts.ForecastResult) {
	c.inner.Set(ctx, fingerprint, result)
}
