package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/areascore/internal/pipeline"
	"github.com/wonny/areascore/pkg/logger"
)

// DefaultScoringSchedule runs at 03:00 on the 1st of each month (with seconds)
const DefaultScoringSchedule = "0 0 3 1 * *"

// DefaultScoringTimeout bounds one scheduled scoring attempt
const DefaultScoringTimeout = 2 * time.Hour

// Runner runs one pipeline pass
type Runner interface {
	Run(ctx context.Context, cfg pipeline.RunConfig) (*pipeline.RunResult, error)
}

// ScoringJob runs the full scoring pipeline on a schedule
type ScoringJob struct {
	runner   Runner
	template pipeline.RunConfig
	schedule string
	timeout  time.Duration
	logger   *logger.Logger
}

// NewScoringJob creates a new scoring job. An empty schedule uses the monthly default.
func NewScoringJob(runner Runner, template pipeline.RunConfig, schedule string, log *logger.Logger) *ScoringJob {
	if schedule == "" {
		schedule = DefaultScoringSchedule
	}
	return &ScoringJob{
		runner:   runner,
		template: template,
		schedule: schedule,
		timeout:  DefaultScoringTimeout,
		logger:   log,
	}
}

// WithTimeout overrides the per-attempt timeout (0 = unbounded)
func (j *ScoringJob) WithTimeout(d time.Duration) *ScoringJob {
	j.timeout = d
	return j
}

// Name returns the job name
func (j *ScoringJob) Name() string {
	return "monthly_scoring"
}

// Schedule returns the cron schedule
func (j *ScoringJob) Schedule() string {
	return j.schedule
}

// Timeout bounds each attempt of the run
func (j *ScoringJob) Timeout() time.Duration {
	return j.timeout
}

// Run executes the scoring pipeline
func (j *ScoringJob) Run(ctx context.Context) error {
	j.logger.Info("Starting scheduled scoring run")

	// 매 실행마다 새 run ID
	cfg := j.template
	cfg.RunID = ""

	result, err := j.runner.Run(ctx, cfg)
	if err != nil {
		return fmt.Errorf("scoring run: %w", err)
	}

	fields := map[string]interface{}{
		"run_id":    result.RunID,
		"duration":  result.Duration.String(),
		"forecasts": result.ForecastSummary.TotalForecasts,
	}
	if result.ScoringSummary != nil {
		fields["areas"] = result.ScoringSummary.AreasScored
		fields["outliers"] = result.ScoringSummary.OutlierCount
	}
	j.logger.WithFields(fields).Info("Scheduled scoring run completed")

	return nil
}
