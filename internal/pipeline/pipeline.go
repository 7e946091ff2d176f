package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/wonny/areascore/internal/contracts"
	"github.com/wonny/areascore/internal/forecast"
	"github.com/wonny/areascore/internal/observability"
	"github.com/wonny/areascore/internal/scoring"
	"github.com/wonny/areascore/internal/signals"
	"github.com/wonny/areascore/internal/timeseries"
	"github.com/wonny/areascore/pkg/logger"
)

// ErrNoForecastStore is returned when a run asks to reuse stored forecasts
// but no store is configured
var ErrNoForecastStore = errors.New("no forecast store configured")

// Deps are the collaborators of a pipeline. Stores, publisher, validator,
// metrics and clock are optional.
type Deps struct {
	Features     contracts.FeatureSource
	Observations contracts.ObservationSource

	Series    *timeseries.Builder
	Forecasts *forecast.Runner
	Validator *forecast.Validator
	Subscores *signals.Builder
	Scorer    *scoring.Scorer

	ScoreStore    contracts.ScoreStore
	ForecastStore contracts.ForecastStore
	Publisher     contracts.ScorePublisher

	Metrics *observability.Metrics
	Clock   clockwork.Clock
	Logger  *logger.Logger
}

// Pipeline coordinates one scoring run
// ⭐ SSOT: 파이프라인 조율은 여기서만
type Pipeline struct {
	deps Deps

	mu     sync.RWMutex
	latest *RunResult
}

// RunConfig holds configuration for a pipeline run
type RunConfig struct {
	RunID          string // empty generates a UUID
	Horizon        int
	Weights        contracts.Weights
	OutputDir      string // empty skips EXPORT
	ForecastOnly   bool   // stop after FORECAST
	ReuseForecasts bool   // read the stored forecast set instead of forecasting
	DryRun         bool   // skip PERSIST and PUBLISH
}

// RunResult holds the results of a complete pipeline run
type RunResult struct {
	RunID           string                  `json:"run_id"`
	StartedAt       time.Time               `json:"started_at"`
	Success         bool                    `json:"success"`
	Error           string                  `json:"error,omitempty"`
	Stages          []contracts.StageResult `json:"stages"`
	Forecasts       *contracts.ForecastSet  `json:"-"`
	Scores          *contracts.ScoreSet     `json:"-"`
	ForecastSummary forecast.Summary        `json:"forecast_summary"`
	ScoringSummary  *scoring.Summary        `json:"scoring_summary,omitempty"`
	ForecastIssues  []forecast.Issue        `json:"forecast_issues,omitempty"`
	Artifacts       []string                `json:"artifacts,omitempty"`
	Duration        time.Duration           `json:"duration"`
}

// CompletedStages returns the stages that ran successfully
func (r *RunResult) CompletedStages() []contracts.Stage {
	var out []contracts.Stage
	for _, s := range r.Stages {
		if s.Success && !s.Skipped {
			out = append(out, s.Stage)
		}
	}
	return out
}

// New creates a pipeline. Missing clock defaults to the real clock.
func New(deps Deps) *Pipeline {
	if deps.Clock == nil {
		deps.Clock = clockwork.NewRealClock()
	}
	return &Pipeline{deps: deps}
}

// Latest returns the most recent successful run, or nil
func (p *Pipeline) Latest() *RunResult {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.latest
}

// loaded carries LOAD output to the later stages
type loaded struct {
	features     *contracts.FeatureSet
	observations map[int][]contracts.Observation // by seriesPlans index
}

// Run executes LOAD → SERIES → FORECAST → SUBSCORES → COMPOSITE →
// PERSIST → PUBLISH → EXPORT. The result is returned even on failure.
func (p *Pipeline) Run(ctx context.Context, cfg RunConfig) (*RunResult, error) {
	start := p.deps.Clock.Now()
	if cfg.RunID == "" {
		cfg.RunID = uuid.NewString()
	}

	result := &RunResult{
		RunID:     cfg.RunID,
		StartedAt: start,
		Stages:    make([]contracts.StageResult, 0, len(contracts.AllStages())),
	}
	log := p.deps.Logger.WithRun(cfg.RunID)

	log.WithFields(map[string]interface{}{
		"horizon":         cfg.Horizon,
		"forecast_only":   cfg.ForecastOnly,
		"reuse_forecasts": cfg.ReuseForecasts,
		"dry_run":         cfg.DryRun,
		"output_dir":      cfg.OutputDir,
	}).Info("Starting pipeline run")

	err := p.run(ctx, cfg, result, log)

	result.Duration = p.deps.Clock.Since(start)
	result.Success = err == nil
	if err != nil {
		result.Error = err.Error()
	}
	p.recordRun(result)

	if err != nil {
		log.WithError(err).Error("Pipeline run failed")
		return result, err
	}

	p.mu.Lock()
	p.latest = result
	p.mu.Unlock()

	log.WithFields(map[string]interface{}{
		"duration": result.Duration.String(),
		"stages":   len(result.CompletedStages()),
	}).Info("Pipeline run completed")
	return result, nil
}

func (p *Pipeline) run(ctx context.Context, cfg RunConfig, result *RunResult, log *logger.Logger) error {
	// LOAD
	var in loaded
	err := p.stage(ctx, result, contracts.StageLoad, func() (int, int, error) {
		var err error
		in, err = p.load(ctx, cfg.ReuseForecasts)
		if err != nil {
			return 0, 0, err
		}
		n := 0
		for _, obs := range in.observations {
			n += len(obs)
		}
		return n, in.features.Len(), nil
	})
	if err != nil {
		return err
	}
	idx := contracts.NewAreaIndex(in.features.Areas)

	// SERIES
	var inputs []forecast.SeriesInput
	if cfg.ReuseForecasts {
		p.skip(result, contracts.StageSeries, "reusing stored forecasts")
	} else {
		err = p.stage(ctx, result, contracts.StageSeries, func() (int, int, error) {
			total := 0
			for i, plan := range seriesPlans {
				obs := in.observations[i]
				total += len(obs)
				inputs = append(inputs, buildInputs(p.deps.Series, plan, obs, idx)...)
			}
			return total, len(inputs), nil
		})
		if err != nil {
			return err
		}
	}

	// FORECAST
	err = p.stage(ctx, result, contracts.StageForecast, func() (int, int, error) {
		set, err := p.forecast(ctx, cfg, inputs, result.StartedAt)
		if err != nil {
			return len(inputs), 0, err
		}
		result.Forecasts = set
		result.ForecastSummary = forecast.Summarize(set)
		if p.deps.Validator != nil {
			result.ForecastIssues = p.deps.Validator.Check(set)
			if len(result.ForecastIssues) > 0 {
				log.WithField("issues", len(result.ForecastIssues)).Warn("Forecast set has structural issues")
			}
		}
		return len(inputs), set.Len(), nil
	})
	if err != nil {
		return err
	}

	if !cfg.ForecastOnly {
		// SUBSCORES
		var subscores []contracts.AreaSubscores
		err = p.stage(ctx, result, contracts.StageSubscores, func() (int, int, error) {
			var err error
			subscores, err = p.deps.Subscores.Build(ctx, in.features, result.Forecasts)
			return in.features.Len(), len(subscores), err
		})
		if err != nil {
			return err
		}

		// COMPOSITE
		err = p.stage(ctx, result, contracts.StageComposite, func() (int, int, error) {
			set := p.deps.Scorer.Score(subscores, cfg.Weights)
			set.Stamp(cfg.RunID, result.StartedAt)
			summary := scoring.Summarize(set)
			result.Scores = set
			result.ScoringSummary = &summary
			return len(subscores), len(set.Records), nil
		})
		if err != nil {
			return err
		}
	}

	// PERSIST
	if cfg.DryRun || (p.deps.ScoreStore == nil && p.deps.ForecastStore == nil) {
		p.skip(result, contracts.StagePersist, "storage disabled")
	} else {
		err = p.stage(ctx, result, contracts.StagePersist, func() (int, int, error) {
			return p.persist(ctx, cfg, result)
		})
		if err != nil {
			return err
		}
	}

	// PUBLISH
	if cfg.DryRun || p.deps.Publisher == nil || result.Scores == nil {
		p.skip(result, contracts.StagePublish, "publisher disabled")
	} else {
		err = p.stage(ctx, result, contracts.StagePublish, func() (int, int, error) {
			n := len(result.Scores.Records)
			if err := p.deps.Publisher.PublishScores(ctx, result.Scores); err != nil {
				return n, 0, err
			}
			if p.deps.Metrics != nil {
				p.deps.Metrics.EventsPublished.Add(float64(n))
			}
			return n, n, nil
		})
		if err != nil {
			return err
		}
	}

	// EXPORT
	if cfg.OutputDir == "" {
		p.skip(result, contracts.StageExport, "no output directory")
		return nil
	}
	return p.stage(ctx, result, contracts.StageExport, func() (int, int, error) {
		paths, err := Export(cfg.OutputDir, result, log)
		result.Artifacts = paths
		return 0, len(paths), err
	})
}

// load reads the Feature Set and, unless forecasts are reused, every
// observation table the series plans need
func (p *Pipeline) load(ctx context.Context, skipObservations bool) (loaded, error) {
	fs, err := p.deps.Features.LoadFeatures(ctx)
	if err != nil {
		return loaded{}, fmt.Errorf("failed to load features: %w", err)
	}
	if fs == nil {
		fs = &contracts.FeatureSet{}
	}

	out := loaded{
		features:     fs,
		observations: make(map[int][]contracts.Observation, len(seriesPlans)),
	}
	if skipObservations || p.deps.Observations == nil {
		return out, nil
	}

	for i, plan := range seriesPlans {
		obs, err := p.deps.Observations.LoadObservations(ctx, plan.table, plan.value, plan.dims)
		if err != nil {
			return loaded{}, fmt.Errorf("failed to load %s.%s: %w", plan.table, plan.value, err)
		}
		out.observations[i] = obs
	}
	return out, nil
}

func (p *Pipeline) forecast(ctx context.Context, cfg RunConfig, inputs []forecast.SeriesInput, at time.Time) (*contracts.ForecastSet, error) {
	if cfg.ReuseForecasts {
		if p.deps.ForecastStore == nil {
			return nil, ErrNoForecastStore
		}
		set, err := p.deps.ForecastStore.LoadLatest(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to load stored forecasts: %w", err)
		}
		return set, nil
	}

	set, err := p.deps.Forecasts.ForecastAll(ctx, inputs, cfg.Horizon, at)
	if err != nil {
		return nil, err
	}

	if p.deps.Metrics != nil {
		for _, r := range set.Results {
			if r.IsEmpty() {
				p.deps.Metrics.EmptyForecasts.WithLabelValues(string(r.Key.Metric)).Inc()
				continue
			}
			p.deps.Metrics.ForecastsTotal.WithLabelValues(string(r.Key.Metric), string(r.ModelType)).Inc()
		}
	}
	return set, nil
}

// persist replaces the stored sets. Reused forecasts are not written back.
func (p *Pipeline) persist(ctx context.Context, cfg RunConfig, result *RunResult) (int, int, error) {
	written := 0
	if p.deps.ForecastStore != nil && !cfg.ReuseForecasts && result.Forecasts != nil {
		if err := p.deps.ForecastStore.SaveForecasts(ctx, cfg.RunID, result.Forecasts); err != nil {
			return 0, written, err
		}
		written += result.Forecasts.Len()
	}
	if p.deps.ScoreStore != nil && result.Scores != nil {
		if err := p.deps.ScoreStore.SaveScoreSet(ctx, result.Scores); err != nil {
			return 0, written, err
		}
		written += len(result.Scores.Records)
	}
	return written, written, nil
}

// stage runs fn as one named stage and records its outcome
func (p *Pipeline) stage(ctx context.Context, result *RunResult, stage contracts.Stage, fn func() (in, out int, err error)) error {
	if err := ctx.Err(); err != nil {
		result.Stages = append(result.Stages, contracts.StageResult{Stage: stage, Error: err.Error()})
		return fmt.Errorf("%s: %w", stage, err)
	}

	t0 := p.deps.Clock.Now()
	in, out, err := fn()
	d := p.deps.Clock.Since(t0)

	sr := contracts.StageResult{
		Stage:       stage,
		Success:     err == nil,
		InputCount:  in,
		OutputCount: out,
		Duration:    d.Milliseconds(),
	}
	if err != nil {
		sr.Error = err.Error()
	}
	result.Stages = append(result.Stages, sr)

	if p.deps.Metrics != nil {
		p.deps.Metrics.StageDuration.WithLabelValues(stage.String()).Observe(d.Seconds())
	}

	log := p.deps.Logger.WithRun(result.RunID).WithFields(map[string]interface{}{
		"stage":  stage.String(),
		"input":  in,
		"output": out,
		"ms":     d.Milliseconds(),
	})
	if err != nil {
		log.WithError(err).Error("Stage failed")
		return fmt.Errorf("%s failed: %w", stage, err)
	}
	log.Info(stage.Description())
	return nil
}

func (p *Pipeline) skip(result *RunResult, stage contracts.Stage, reason string) {
	result.Stages = append(result.Stages, contracts.StageResult{
		Stage:   stage,
		Success: true,
		Skipped: true,
	})
	p.deps.Logger.WithRun(result.RunID).WithFields(map[string]interface{}{
		"stage":  stage.String(),
		"reason": reason,
	}).Debug("Stage skipped")
}

func (p *Pipeline) recordRun(result *RunResult) {
	m := p.deps.Metrics
	if m == nil {
		return
	}

	outcome := "success"
	if !result.Success {
		outcome = "error"
	}
	m.RunsTotal.WithLabelValues(outcome).Inc()
	m.RunDuration.Observe(result.Duration.Seconds())
	if !result.Success {
		return
	}

	m.LastRunTimestamp.Set(float64(result.StartedAt.Unix()))
	if result.ScoringSummary != nil {
		m.AreasScored.Set(float64(result.ScoringSummary.AreasScored))
		m.OutliersFlagged.Set(float64(result.ScoringSummary.OutlierCount))
	}
}

// LatestScores returns the score set of the latest run, or nil
func (p *Pipeline) LatestScores() *contracts.ScoreSet {
	if r := p.Latest(); r != nil {
		return r.Scores
	}
	return nil
}

// LatestForecasts returns the forecast set of the latest run, or nil
func (p *Pipeline) LatestForecasts() *contracts.ForecastSet {
	if r := p.Latest(); r != nil {
		return r.Forecasts
	}
	return nil
}
