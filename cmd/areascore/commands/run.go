package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/wonny/areascore/internal/pipeline"
	"github.com/wonny/areascore/internal/scoreconfig"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "전체 파이프라인 실행",
	Long: `LOAD → SERIES → FORECAST → SUBSCORES → COMPOSITE → PERSIST → PUBLISH → EXPORT

Storage, cache and Kafka are used only when configured.

Example:
  go run ./cmd/areascore run
  go run ./cmd/areascore run --dry-run --top 20`,
	RunE: runPipeline,
}

// scoreCmd re-scores using the stored forecast set
var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "저장된 예측으로 점수만 재산출",
	Long: `Skips series building and forecasting and reads the latest stored
forecast set instead. Requires STORAGE_ENABLED=true.

Example:
  go run ./cmd/areascore score --scoring-config configs/montreal.yaml`,
	RunE: runScore,
}

// forecastCmd stops after the forecast stage
var forecastCmd = &cobra.Command{
	Use:   "forecast",
	Short: "예측만 실행",
	Long: `Builds series and forecasts every rent, vacancy and housing starts series.
Scores are not computed.

Subcommands:
  validate - 예측 구조 검사 및 홀드아웃 백테스트

Example:
  go run ./cmd/areascore forecast
  go run ./cmd/areascore forecast validate --holdout 6`,
	RunE: runForecast,
}

var forecastValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "예측 구조 검사 및 백테스트",
	RunE:  runForecastValidate,
}

var (
	runDryRun bool
	runTop    int
	holdout   int
)

func init() {
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(scoreCmd)
	rootCmd.AddCommand(forecastCmd)
	forecastCmd.AddCommand(forecastValidateCmd)

	// Flags
	for _, c := range []*cobra.Command{runCmd, scoreCmd, forecastCmd} {
		c.Flags().BoolVar(&runDryRun, "dry-run", false, "skip persist and publish")
	}
	runCmd.Flags().IntVar(&runTop, "top", 10, "areas to print (0 = all)")
	scoreCmd.Flags().IntVar(&runTop, "top", 10, "areas to print (0 = all)")
	forecastValidateCmd.Flags().IntVar(&holdout, "holdout", 6, "months hidden from each series")
}

func runPipeline(cmd *cobra.Command, args []string) error {
	return execute(cmd, func(rc *pipeline.RunConfig) {})
}

func runScore(cmd *cobra.Command, args []string) error {
	return execute(cmd, func(rc *pipeline.RunConfig) { rc.ReuseForecasts = true })
}

func runForecast(cmd *cobra.Command, args []string) error {
	return execute(cmd, func(rc *pipeline.RunConfig) { rc.ForecastOnly = true })
}

// execute runs one pipeline pass with the shared flags applied
func execute(cmd *cobra.Command, mutate func(rc *pipeline.RunConfig)) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	rc := a.runConfig()
	rc.RunID = uuid.NewString()
	rc.DryRun = runDryRun
	mutate(&rc)

	if err := logSnapshot(ctx, a, rc.RunID); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	result, err := a.pipeline.Run(ctx, rc)
	if result != nil {
		printRunResult(out, result)
		if result.Scores != nil {
			fmt.Fprintln(out)
			printScores(out, result.Scores, runTop)
		}
	}
	return err
}

// logSnapshot records which scoring configuration a run used
func logSnapshot(ctx context.Context, a *app, runID string) error {
	snap, err := scoreconfig.NewRunSnapshot(a.scoring, a.scoringYAML, runID, time.Now())
	if err != nil {
		return fmt.Errorf("hash scoring config: %w", err)
	}
	a.log.WithContext(ctx).WithRun(snap.RunID).WithFields(map[string]interface{}{
		"config_id":   snap.ConfigID,
		"config_hash": snap.ConfigHash,
	}).Info("Scoring configuration loaded")
	return nil
}

func runForecastValidate(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	out := cmd.OutOrStdout()

	// 1. Structural check over a fresh forecast set
	rc := a.runConfig()
	rc.ForecastOnly = true
	rc.DryRun = true
	rc.OutputDir = ""
	result, err := a.pipeline.Run(ctx, rc)
	if err != nil {
		return err
	}
	printHeader(out, "Forecast Structure")
	printIssues(out, result.ForecastIssues)

	// 2. Holdout accuracy
	results, err := a.pipeline.Backtest(ctx, holdout)
	if err != nil {
		return err
	}
	printHeader(out, fmt.Sprintf("Backtest (holdout %d months)", holdout))
	printBacktest(out, results)

	if len(result.ForecastIssues) > 0 {
		return fmt.Errorf("%d forecast issues", len(result.ForecastIssues))
	}
	return nil
}
