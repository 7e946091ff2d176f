package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/wonny/areascore/internal/api"
	"github.com/wonny/areascore/internal/api/handlers"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "조회 API 서버 시작",
	Long: `REST API 서버를 시작합니다.

The latest in-process run is served first; otherwise the latest stored
score and forecast sets (STORAGE_ENABLED=true).

Endpoints:
  GET  /healthz
  GET  /metrics                  - METRICS_ENABLED=true
  GET  /api/v1/scores            - ?quantile=5&outliers=exclude|only&limit=20
  GET  /api/v1/scores/{area_id}
  GET  /api/v1/forecasts         - ?metric=average_rent&area=verdun
  GET  /api/v1/summary

Example:
  go run ./cmd/areascore serve
  go run ./cmd/areascore serve --port 8080 --with-scheduler`,
	RunE: runServe,
}

var (
	servePort     string
	withScheduler bool
)

func init() {
	rootCmd.AddCommand(serveCmd)

	// Flags
	serveCmd.Flags().StringVar(&servePort, "port", "", "API 서버 포트 (default PORT)")
	serveCmd.Flags().BoolVar(&withScheduler, "with-scheduler", false, "run the monthly scoring job in-process")
}

func runServe(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "=== areascore API Server ===")

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	if servePort != "" {
		a.cfg.Port = servePort
	}

	source := handlers.NewResultSource(a.pipeline, a.scoreStore, a.forecastStore)
	server := api.NewAPIServer(a.cfg, handlers.NewScoreHandler(source, a.log), a.log)

	if withScheduler {
		sched, err := initScheduler(a)
		if err != nil {
			return fmt.Errorf("init scheduler: %w", err)
		}
		sched.Start()
		defer sched.Stop()
		printJobs(out, sched)
	}

	fmt.Fprintf(out, "\n✅ Server running on http://localhost:%s\n", a.cfg.Port)
	fmt.Fprintln(out, "Press Ctrl+C to stop")

	// Blocks until Ctrl+C, then shuts down gracefully
	if err := server.Run(ctx); err != nil {
		return err
	}

	a.log.Info("Server stopped")
	return nil
}
