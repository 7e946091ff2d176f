package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/areascore/pkg/config"
)

// ApplicationName tags areascore sessions in pg_stat_activity
const ApplicationName = "areascore"

// defaultPingTimeout bounds the connect check when Options leaves it unset
const defaultPingTimeout = 5 * time.Second

// DB is the scoring store's connection pool
// ⭐ SSOT: DB 연결은 이 패키지에서만 생성
type DB struct {
	Pool *pgxpool.Pool
}

// Options controls what Open does after the pool is created
type Options struct {
	// Migrate applies the scoring schema once connected
	Migrate bool

	// PingTimeout bounds the connectivity check (default 5s)
	PingTimeout time.Duration
}

// Open connects to Postgres, verifies the connection and, with
// Options.Migrate, creates the scoring schema.
// ⭐ SSOT: 유일하게 pgxpool.NewWithConfig()를 호출하는 함수
func Open(ctx context.Context, cfg config.DatabaseConfig, opts Options) (*DB, error) {
	poolConfig, err := poolConfigFor(cfg)
	if err != nil {
		return nil, err
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	db := &DB{Pool: pool}

	timeout := opts.PingTimeout
	if timeout <= 0 {
		timeout = defaultPingTimeout
	}
	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if opts.Migrate {
		if err := db.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, err
		}
	}

	return db, nil
}

// poolConfigFor maps the env settings onto a pgx pool config
func poolConfigFor(cfg config.DatabaseConfig) (*pgxpool.Config, error) {
	if cfg.URL == "" {
		return nil, errors.New("database URL is empty")
	}
	if cfg.MaxConns > 0 && cfg.MinConns > cfg.MaxConns {
		return nil, fmt.Errorf("min conns %d exceeds max conns %d", cfg.MinConns, cfg.MaxConns)
	}

	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}

	if cfg.MaxConns > 0 {
		poolConfig.MaxConns = int32(cfg.MaxConns)
	}
	if cfg.MinConns > 0 {
		poolConfig.MinConns = int32(cfg.MinConns)
	}
	if cfg.MaxConnLifetime > 0 {
		poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	}
	if cfg.MaxConnIdleTime > 0 {
		poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime
	}
	poolConfig.ConnConfig.RuntimeParams["application_name"] = ApplicationName

	return poolConfig, nil
}

// Close closes the connection pool; safe to call twice
func (db *DB) Close() {
	if db.Pool != nil {
		db.Pool.Close()
	}
}

// HealthStatus describes the connection, the scoring schema and the latest run
type HealthStatus struct {
	Healthy      bool          `json:"healthy"`
	Timestamp    time.Time     `json:"timestamp"`
	ResponseTime time.Duration `json:"response_time"`
	Error        string        `json:"error,omitempty"`
	Stats        PoolStats     `json:"stats"`
	Schema       SchemaStatus  `json:"schema"`
	LatestRun    *RunInfo      `json:"latest_run,omitempty"`
}

// SchemaStatus reports which scoring tables exist
type SchemaStatus struct {
	Ready   bool     `json:"ready"`
	Missing []string `json:"missing,omitempty"`
}

// RunInfo identifies the most recently persisted score set
type RunInfo struct {
	RunID    string    `json:"run_id"`
	ScoredAt time.Time `json:"scored_at"`
}

// HealthCheck pings the database, checks the scoring tables and reads the
// latest score run. A missing schema is reported, not returned as an error.
func (db *DB) HealthCheck(ctx context.Context) (*HealthStatus, error) {
	status := &HealthStatus{Timestamp: time.Now()}

	start := time.Now()
	if err := db.Pool.Ping(ctx); err != nil {
		status.Error = err.Error()
		return status, err
	}
	status.ResponseTime = time.Since(start)
	status.Stats = db.Stats()

	missing, err := db.missingTables(ctx)
	if err != nil {
		status.Error = err.Error()
		return status, err
	}
	status.Schema = SchemaStatus{Ready: len(missing) == 0, Missing: missing}

	if status.Schema.Ready {
		run, err := db.latestRun(ctx)
		if err != nil {
			status.Error = err.Error()
			return status, err
		}
		status.LatestRun = run
	}

	status.Healthy = true
	return status, nil
}

// missingTables lists scoring tables absent from the database
func (db *DB) missingTables(ctx context.Context) ([]string, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT table_name FROM information_schema.tables WHERE table_schema = $1`, SchemaName)
	if err != nil {
		return nil, fmt.Errorf("failed to list scoring tables: %w", err)
	}
	present, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("failed to list scoring tables: %w", err)
	}
	return diffTables(ScoringTables, present), nil
}

// latestRun returns the newest score run, nil when none was persisted
func (db *DB) latestRun(ctx context.Context) (*RunInfo, error) {
	var run RunInfo
	err := db.Pool.QueryRow(ctx,
		`SELECT run_id, scored_at FROM scoring.score_runs ORDER BY scored_at DESC LIMIT 1`,
	).Scan(&run.RunID, &run.ScoredAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read latest score run: %w", err)
	}
	return &run, nil
}

// diffTables returns the wanted tables not in present, in wanted order
func diffTables(wanted, present []string) []string {
	seen := make(map[string]bool, len(present))
	for _, name := range present {
		seen[name] = true
	}
	var missing []string
	for _, name := range wanted {
		if !seen[name] {
			missing = append(missing, name)
		}
	}
	return missing
}

// PoolStats represents connection pool statistics
type PoolStats struct {
	AcquireCount         int64         `json:"acquire_count"`
	AcquireDuration      time.Duration `json:"acquire_duration"`
	AcquiredConns        int32         `json:"acquired_conns"`
	CanceledAcquireCount int64         `json:"canceled_acquire_count"`
	IdleConns            int32         `json:"idle_conns"`
	MaxConns             int32         `json:"max_conns"`
	TotalConns           int32         `json:"total_conns"`
}

// Stats returns the current pool statistics
func (db *DB) Stats() PoolStats {
	stats := db.Pool.Stat()
	return PoolStats{
		AcquireCount:         stats.AcquireCount(),
		AcquireDuration:      stats.AcquireDuration(),
		AcquiredConns:        stats.AcquiredConns(),
		CanceledAcquireCount: stats.CanceledAcquireCount(),
		IdleConns:            stats.IdleConns(),
		MaxConns:             stats.MaxConns(),
		TotalConns:           stats.TotalConns(),
	}
}
