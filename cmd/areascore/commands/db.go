package commands

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/areascore/pkg/config"
	"github.com/wonny/areascore/pkg/database"
)

// dbCmd represents the db command
var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "PostgreSQL 관리",
	Long: `데이터베이스 연결을 점검하거나 scoring 스키마를 생성합니다.

Subcommands:
  health   - Ping, Health Check, Connection Pool 통계
  migrate  - scoring 스키마 생성 (idempotent)

Example:
  go run ./cmd/areascore db health
  go run ./cmd/areascore db migrate`,
}

var (
	dbHealthCmd = &cobra.Command{
		Use:   "health",
		Short: "PostgreSQL 연결 테스트",
		RunE:  runDBHealth,
	}

	dbMigrateCmd = &cobra.Command{
		Use:   "migrate",
		Short: "scoring 스키마 생성",
		RunE:  runDBMigrate,
	}
)

func init() {
	rootCmd.AddCommand(dbCmd)
	dbCmd.AddCommand(dbHealthCmd)
	dbCmd.AddCommand(dbMigrateCmd)
}

// connect opens the database regardless of STORAGE_ENABLED
func connect(cmd *cobra.Command, migrate bool) (*database.DB, error) {
	out := cmd.OutOrStdout()

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if cfg.Database.URL == "" {
		return nil, fmt.Errorf("DATABASE_URL is not set")
	}
	printKeyValue(out, "ENV", cfg.Env)
	printKeyValue(out, "Database", maskPassword(cfg.Database.URL))

	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()

	db, err := database.Open(ctx, cfg.Database, database.Options{Migrate: migrate})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return db, nil
}

func runDBHealth(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	printHeader(out, "Database Connection Test")

	db, err := connect(cmd, false)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Second)
	defer cancel()

	status, err := db.HealthCheck(ctx)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}

	fmt.Fprintln(out, singleLine)
	printKeyValue(out, "Healthy", fmt.Sprintf("%v", status.Healthy))
	printKeyValue(out, "Response", status.ResponseTime.String())
	printKeyValue(out, "Max Conns", fmt.Sprintf("%d", status.Stats.MaxConns))
	printKeyValue(out, "Total Conns", fmt.Sprintf("%d", status.Stats.TotalConns))
	printKeyValue(out, "Idle Conns", fmt.Sprintf("%d", status.Stats.IdleConns))
	printKeyValue(out, "Acquired", fmt.Sprintf("%d", status.Stats.AcquiredConns))
	printKeyValue(out, "Schema", schemaLine(status.Schema))
	if run := status.LatestRun; run != nil {
		printKeyValue(out, "Latest Run", fmt.Sprintf("%s (%s)", run.RunID, run.ScoredAt.Format("2006-01-02 15:04")))
	}
	fmt.Fprintln(out)

	if !status.Healthy {
		printFailure(out, status.Error)
		return fmt.Errorf("database unhealthy")
	}
	printSuccess(out, "Database is healthy")
	if !status.Schema.Ready {
		printWarning(out, "run `areascore db migrate` to create the scoring tables")
	}
	return nil
}

// schemaLine summarises the scoring table check
func schemaLine(s database.SchemaStatus) string {
	if s.Ready {
		return "ready"
	}
	return "missing " + strings.Join(s.Missing, ", ")
}

func runDBMigrate(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	printHeader(out, "Schema Migration")

	db, err := connect(cmd, true)
	if err != nil {
		return err
	}
	defer db.Close()

	fmt.Fprintln(out)
	printSuccess(out, "scoring schema is up to date")
	return nil
}

// maskPassword hides the password in a database URL for display
func maskPassword(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return "***"
	}
	return u.Redacted()
}
