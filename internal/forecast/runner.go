package forecast

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/wonny/areascore/internal/contracts"
)

// SeriesInput is one series to forecast together with its typed key
type SeriesInput struct {
	Key    contracts.ForecastKey
	Scope  string // district/region display name
	Series contracts.TimeSeries
}

// ResultCache memoises forecasts by input fingerprint
type ResultCache interface {
	Get(ctx context.Context, fingerprint string) (contracts.ForecastResult, bool)
	Set(ctx context.Context, fingerprint string, result contracts.ForecastResult)
}

// Runner forecasts many series in parallel.
// Each series is independent, so the result does not depend on worker count.
type Runner struct {
	engine  *Engine
	cache   ResultCache
	workers int
	log     zerolog.Logger
}

// NewRunner creates a runner; workers < 1 runs sequentially
func NewRunner(engine *Engine, workers int, log zerolog.Logger) *Runner {
	if workers < 1 {
		workers = 1
	}
	return &Runner{
		engine:  engine,
		workers: workers,
		log:     log.With().Str("component", "forecast.runner").Logger(),
	}
}

// WithCache enables result memoisation
func (r *Runner) WithCache(cache ResultCache) *Runner {
	r.cache = cache
	return r
}

// ForecastAll forecasts every input with its metric policy.
// The only error is context cancellation.
// ⭐ SSOT: 시계열 묶음 예측은 여기서만
func (r *Runner) ForecastAll(ctx context.Context, inputs []SeriesInput, horizon int, generatedAt time.Time) (*contracts.ForecastSet, error) {
	horizon = normalizeHorizon(horizon)
	results := make([]contracts.ForecastResult, len(inputs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)

	for i := range inputs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = r.forecastOne(gctx, inputs[i], horizon)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("forecast batch: %w", err)
	}

	set := contracts.NewForecastSet(generatedAt, horizon)
	empty := 0
	for _, res := range results {
		if _, dup := set.Get(res.Key); dup {
			r.log.Warn().Str("key", res.Key.String()).Msg("duplicate forecast key, keeping last")
		}
		if res.IsEmpty() {
			empty++
		}
		set.Put(res)
	}

	r.log.Info().
		Int("series", len(inputs)).
		Int("forecasts", set.Len()).
		Int("empty", empty).
		Int("horizon", horizon).
		Msg("forecasts generated")

	return set, nil
}

func (r *Runner) forecastOne(ctx context.Context, in SeriesInput, horizon int) contracts.ForecastResult {
	policy := PolicyFor(in.Key.Metric)

	var fp string
	if r.cache != nil {
		fp = Fingerprint(in, horizon, policy)
		if cached, ok := r.cache.Get(ctx, fp); ok {
			return cached
		}
	}

	res := r.engine.ForecastWithPolicy(in.Series, horizon, policy)
	res.Key = in.Key
	res.Scope = in.Scope

	if r.cache != nil {
		r.cache.Set(ctx, fp, res)
	}
	return res
}

// Fingerprint hashes everything a forecast depends on
func Fingerprint(in SeriesInput, horizon int, policy Policy) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s|%s|%d|%s\n", in.Key.String(), in.Scope, horizon, policy.String())
	for _, p := range in.Series.Points {
		fmt.Fprintf(&b, "%s=%.10g\n", p.Period.Format(contracts.PeriodLayout), p.Value)
	}

	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}
