package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/areascore/internal/contracts"
	"github.com/wonny/areascore/internal/dataset"
	"github.com/wonny/areascore/internal/forecast"
	"github.com/wonny/areascore/internal/observability"
	"github.com/wonny/areascore/internal/pipeline"
	"github.com/wonny/areascore/internal/publish"
	"github.com/wonny/areascore/internal/scoreconfig"
	"github.com/wonny/areascore/internal/scoring"
	"github.com/wonny/areascore/internal/signals"
	"github.com/wonny/areascore/internal/timeseries"
	"github.com/wonny/areascore/pkg/config"
	"github.com/wonny/areascore/pkg/database"
	"github.com/wonny/areascore/pkg/httputil"
	"github.com/wonny/areascore/pkg/logger"
	"github.com/wonny/areascore/pkg/redis"
)

// memoryCacheTTL bounds in-process forecast reuse without Redis
const memoryCacheTTL = 6 * time.Hour

// app holds every wired dependency of one CLI invocation
// ⭐ SSOT: 의존성 조립은 여기서만
type app struct {
	cfg         *config.Config
	log         *logger.Logger
	scoring     *scoreconfig.Config
	scoringYAML []byte

	db        *database.DB
	redis     *redis.Client
	publisher *publish.KafkaPublisher
	metrics   *observability.Metrics

	files         *dataset.FileSource
	staged        *dataset.PostgresSource
	scoreStore    contracts.ScoreStore
	forecastStore contracts.ForecastStore

	memCache *forecast.MemoryCache

	pipeline *pipeline.Pipeline
}

// newApp loads configuration and wires the pipeline. Storage, cache and
// publisher are connected only when configured.
func newApp(ctx context.Context) (*app, error) {
	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if verbose {
		cfg.LogLevel = "debug"
	}
	if outputDir != "" {
		cfg.Data.OutputDir = outputDir
	}
	if scoringConfig != "" {
		cfg.Scoring.ConfigPath = scoringConfig
	}

	// 2. Initialize logger
	log := logger.New(cfg)

	a := &app{cfg: cfg, log: log}

	// 3. Scoring parameters
	a.scoring, a.scoringYAML, err = scoreconfig.LoadOrDefault(cfg.Scoring.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load scoring config: %w", err)
	}
	for _, w := range scoreconfig.Warn(a.scoring) {
		log.WithField("code", w.Code).Warn(w.Message)
	}

	if cfg.MetricsEnabled {
		a.metrics = observability.NewMetrics()
	}

	// 4. Storage
	if cfg.StorageEnabled {
		a.db, err = database.Open(ctx, cfg.Database, database.Options{Migrate: true})
		if err != nil {
			return nil, fmt.Errorf("open database: %w", err)
		}
		a.staged = dataset.NewPostgresSource(a.db.Pool)
		a.scoreStore = scoring.NewRepository(a.db.Pool)
		a.forecastStore = forecast.NewRepository(a.db.Pool)
		log.Info("Connected to database")
	}

	// 5. Forecast runner with optional cache
	engine := forecast.NewEngine(log.Zerolog())
	runner := forecast.NewRunner(engine, cfg.Scoring.Workers, log.Zerolog())

	a.redis, err = redis.New(ctx, cfg)
	if err != nil {
		a.close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	if a.redis.Enabled() {
		runner.WithCache(pipeline.MeteredCache(forecast.NewRedisCache(a.redis, log.Zerolog()), a.metrics))
		log.Info("Forecast cache enabled")
	} else {
		a.memCache = forecast.NewMemoryCache(memoryCacheTTL, nil, log.Zerolog())
		runner.WithCache(pipeline.MeteredCache(a.memCache, a.metrics))
	}

	// 6. Inputs
	a.files = dataset.NewFileSource(cfg.Data, httputil.New(cfg, log), log).WithMetrics(a.metrics)
	var features contracts.FeatureSource = a.files
	var observations contracts.ObservationSource = a.files
	if cfg.Data.Source == config.SourceDatabase {
		features = a.staged
		observations = a.staged
	}

	// 7. Publisher
	var publisher contracts.ScorePublisher
	if cfg.Kafka.Enabled() {
		a.publisher, err = publish.NewKafkaPublisher(cfg.Kafka, log)
		if err != nil {
			a.close()
			return nil, fmt.Errorf("create publisher: %w", err)
		}
		publisher = a.publisher
	}

	// 8. Pipeline
	a.pipeline = pipeline.New(pipeline.Deps{
		Features:      features,
		Observations:  observations,
		Series:        timeseries.NewBuilder(log),
		Forecasts:     runner,
		Validator:     forecast.NewValidator(engine, log.Zerolog()),
		Subscores:     signals.NewDefaultBuilder(a.scoring.SignalParams(), log),
		Scorer:        scoring.NewScorer(a.scoring.Detector(), a.scoring.DetectorColumns(), log),
		ScoreStore:    a.scoreStore,
		ForecastStore: a.forecastStore,
		Publisher:     publisher,
		Metrics:       a.metrics,
		Logger:        log,
	})

	return a, nil
}

// runConfig returns the base run configuration.
// A scoring file's horizon overrides FORECAST_HORIZON.
func (a *app) runConfig() pipeline.RunConfig {
	horizon := a.cfg.Scoring.Horizon
	if a.scoringYAML != nil {
		horizon = a.scoring.Forecast.HorizonMonths
	}
	return pipeline.RunConfig{
		Horizon:   horizon,
		Weights:   a.scoring.Weights,
		OutputDir: a.cfg.Data.OutputDir,
	}
}

// close releases connections in reverse order
func (a *app) close() {
	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			a.log.WithError(err).Warn("Failed to close publisher")
		}
	}
	if a.redis != nil {
		a.redis.Close()
	}
	if a.db != nil {
		a.db.Close()
	}
}
