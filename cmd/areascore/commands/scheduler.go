package commands

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/areascore/internal/api"
	"github.com/wonny/areascore/internal/scheduler"
	"github.com/wonny/areascore/internal/scheduler/jobs"
)

// schedulerCmd represents the scheduler command
var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "스케줄러 관리",
	Long: `스케줄러를 시작하거나 작업을 관리합니다.

Subcommands:
  start   - 스케줄러 시작
  list    - 등록된 작업 목록
  run     - 특정 작업 즉시 실행
  status  - 작업 실행 상태 조회

Example:
  go run ./cmd/areascore scheduler start
  go run ./cmd/areascore scheduler list
  go run ./cmd/areascore scheduler run monthly_scoring`,
}

var (
	schedulerStartCmd = &cobra.Command{
		Use:   "start",
		Short: "스케줄러 시작",
		Long: `스케줄러를 시작하고 등록된 모든 작업을 스케줄합니다.

등록되는 작업:
- monthly_scoring: SCORING_SCHEDULE (기본 매월 1일 03:00)
- artifact_cleanup: 매일 04:00 (중단된 export 임시 파일 정리)
- cache_cleanup: 매시 정각 (Redis 미사용 시 메모리 예측 캐시 정리)

METRICS_ENABLED=true이면 METRICS_PORT에서 /metrics를 제공합니다.
스케줄러는 Ctrl+C로 종료할 수 있습니다.`,
		RunE: runScheduler,
	}

	schedulerListCmd = &cobra.Command{
		Use:   "list",
		Short: "등록된 작업 목록",
		RunE:  listJobs,
	}

	schedulerRunCmd = &cobra.Command{
		Use:   "run [job_name]",
		Short: "특정 작업 즉시 실행",
		Args:  cobra.ExactArgs(1),
		RunE:  runJob,
	}

	schedulerStatusCmd = &cobra.Command{
		Use:   "status",
		Short: "작업 실행 상태 조회",
		RunE:  showStatus,
	}
)

func init() {
	rootCmd.AddCommand(schedulerCmd)
	schedulerCmd.AddCommand(schedulerStartCmd)
	schedulerCmd.AddCommand(schedulerListCmd)
	schedulerCmd.AddCommand(schedulerRunCmd)
	schedulerCmd.AddCommand(schedulerStatusCmd)
}

// staleArtifactAge is how old a temp artifact must be before cleanup
const staleArtifactAge = 24 * time.Hour

func runScheduler(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "=== areascore Scheduler ===")

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	sched, err := initScheduler(a)
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}

	// Metrics endpoint
	metricsDone := make(chan error, 1)
	if a.cfg.MetricsEnabled {
		metricsServer := api.NewMetricsServer(a.cfg, a.log)
		go func() {
			metricsDone <- metricsServer.Run(ctx)
		}()
	}

	sched.Start()

	fmt.Fprintln(out, "\n✅ Scheduler started successfully")
	printJobs(out, sched)
	fmt.Fprintln(out, "\nPress Ctrl+C to stop")

	// Wait for interrupt signal or a failed metrics listener
	var runErr error
	select {
	case <-ctx.Done():
	case runErr = <-metricsDone:
	}

	fmt.Fprintln(out, "\nShutting down scheduler...")
	sched.Stop()
	stop()

	if runErr == nil && a.cfg.MetricsEnabled {
		runErr = <-metricsDone
	}

	fmt.Fprintln(out, "Scheduler stopped")
	return runErr
}

func listJobs(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.close()

	sched, err := initScheduler(a)
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}

	printJobs(cmd.OutOrStdout(), sched)
	return nil
}

func runJob(cmd *cobra.Command, args []string) error {
	jobName := args[0]
	out := cmd.OutOrStdout()

	fmt.Fprintf(out, "Running job: %s\n", jobName)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	sched, err := initScheduler(a)
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}

	result, err := sched.RunJobSync(ctx, jobName)
	if err != nil {
		return fmt.Errorf("run job: %w", err)
	}

	if !result.Success {
		printFailure(out, fmt.Sprintf("%s failed after %s: %s", jobName, result.Duration, result.Error))
		return fmt.Errorf("job %s failed", jobName)
	}
	printSuccess(out, fmt.Sprintf("%s completed in %s", jobName, result.Duration))
	return nil
}

func showStatus(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.close()

	sched, err := initScheduler(a)
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}

	out := cmd.OutOrStdout()
	stats := sched.GetJobStats()

	fmt.Fprintln(out, "Job Statistics:")
	fmt.Fprintln(out)

	for _, jobName := range sched.GetAllJobs() {
		stat := stats[jobName]
		fmt.Fprintf(out, "📊 %s\n", jobName)
		fmt.Fprintf(out, "   Schedule: %s\n", stat.Schedule)
		fmt.Fprintf(out, "   Total Runs: %d\n", stat.TotalRuns)
		fmt.Fprintf(out, "   Success: %d (%.1f%%)\n", stat.SuccessCount, stat.SuccessRate*100)
		fmt.Fprintf(out, "   Failures: %d\n", stat.FailureCount)

		if stat.LastRun != nil {
			fmt.Fprintf(out, "   Last Run: %s\n", stat.LastRun.Format("2006-01-02 15:04:05"))
		}

		if stat.LastSuccess != nil {
			fmt.Fprintf(out, "   Last Success: %s\n", stat.LastSuccess.Format("2006-01-02 15:04:05"))
		}

		if stat.LastFailure != nil {
			fmt.Fprintf(out, "   Last Failure: %s\n", stat.LastFailure.Format("2006-01-02 15:04:05"))
		}

		fmt.Fprintln(out)
	}

	return nil
}

// initScheduler registers the scoring and cleanup jobs
func initScheduler(a *app) (*scheduler.Scheduler, error) {
	sched := scheduler.New(a.log)

	scoringJob := jobs.NewScoringJob(a.pipeline, a.runConfig(), a.cfg.Scoring.Schedule, a.log)
	if err := sched.AddJob(scoringJob); err != nil {
		return nil, err
	}

	if a.cfg.Data.OutputDir != "" {
		cleanup := jobs.NewArtifactCleanupJob(a.cfg.Data.OutputDir, staleArtifactAge, nil, a.log)
		if err := sched.AddJob(cleanup); err != nil {
			return nil, err
		}
	}

	if a.memCache != nil {
		if err := sched.AddJob(jobs.NewCacheCleanupJob(a.memCache, a.log)); err != nil {
			return nil, err
		}
	}

	return sched, nil
}

func printJobs(w io.Writer, sched *scheduler.Scheduler) {
	fmt.Fprintln(w, "\nRegistered jobs:")
	for _, jobName := range sched.GetAllJobs() {
		line := fmt.Sprintf("  - %s", jobName)
		if next, err := sched.NextRun(jobName); err == nil && !next.IsZero() {
			line += fmt.Sprintf(" (next: %s)", next.Format("2006-01-02 15:04:05"))
		}
		fmt.Fprintln(w, line)
	}
}
