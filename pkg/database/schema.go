package database

import (
	"context"
	"fmt"
)

// SchemaName is the Postgres schema holding every scoring table
const SchemaName = "scoring"

// ScoringTables lists the tables EnsureSchema creates
var ScoringTables = []string{
	"areas", "area_features", "observations",
	"forecasts", "forecast_points",
	"score_runs", "scores",
}

// schemaStatements creates the scoring schema. Every statement is idempotent.
// ⭐ SSOT: 테이블 정의는 여기서만
var schemaStatements = []string{
	`CREATE SCHEMA IF NOT EXISTS scoring`,

	// 입력 (PostgresSource)
	`CREATE TABLE IF NOT EXISTS scoring.areas (
		area_id   TEXT PRIMARY KEY,
		area_name TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS scoring.area_features (
		area_id TEXT NOT NULL REFERENCES scoring.areas(area_id) ON DELETE CASCADE,
		feature TEXT NOT NULL,
		value   DOUBLE PRECISION,
		PRIMARY KEY (area_id, feature)
	)`,
	`CREATE TABLE IF NOT EXISTS scoring.observations (
		id           BIGSERIAL PRIMARY KEY,
		source_table TEXT NOT NULL,
		metric       TEXT NOT NULL,
		observed_on  DATE NOT NULL,
		dimensions   JSONB NOT NULL DEFAULT '{}'::jsonb,
		value        DOUBLE PRECISION NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_observations_table_metric
		ON scoring.observations (source_table, metric, observed_on)`,

	// 예측
	`CREATE TABLE IF NOT EXISTS scoring.forecasts (
		run_id         TEXT NOT NULL,
		area           TEXT NOT NULL,
		segment        TEXT NOT NULL DEFAULT '',
		metric         TEXT NOT NULL,
		scope          TEXT NOT NULL DEFAULT '',
		model_type     TEXT NOT NULL,
		confidence     DOUBLE PRECISION NOT NULL,
		rmse           DOUBLE PRECISION NOT NULL DEFAULT 0,
		trend_factor   DOUBLE PRECISION NOT NULL DEFAULT 0,
		current_value  DOUBLE PRECISION NOT NULL DEFAULT 0,
		history_length INTEGER NOT NULL DEFAULT 0,
		generated_at   TIMESTAMPTZ NOT NULL,
		PRIMARY KEY (metric, area, segment)
	)`,
	`CREATE TABLE IF NOT EXISTS scoring.forecast_points (
		area       TEXT NOT NULL,
		segment    TEXT NOT NULL DEFAULT '',
		metric     TEXT NOT NULL,
		step       INTEGER NOT NULL,
		period     TEXT NOT NULL,
		yhat       DOUBLE PRECISION NOT NULL,
		yhat_lower DOUBLE PRECISION NOT NULL,
		yhat_upper DOUBLE PRECISION NOT NULL,
		PRIMARY KEY (metric, area, segment, step)
	)`,

	// 점수
	`CREATE TABLE IF NOT EXISTS scoring.score_runs (
		run_id    TEXT PRIMARY KEY,
		scored_at TIMESTAMPTZ NOT NULL,
		weights   JSONB NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS scoring.scores (
		run_id        TEXT NOT NULL REFERENCES scoring.score_runs(run_id) ON DELETE CASCADE,
		area_id       TEXT NOT NULL,
		area_name     TEXT NOT NULL DEFAULT '',
		growth        DOUBLE PRECISION NOT NULL,
		supply        DOUBLE PRECISION NOT NULL,
		tension       DOUBLE PRECISION NOT NULL,
		accessibility DOUBLE PRECISION NOT NULL,
		returns       DOUBLE PRECISION NOT NULL,
		total         DOUBLE PRECISION NOT NULL,
		quantile      SMALLINT NOT NULL,
		is_outlier    BOOLEAN NOT NULL DEFAULT FALSE,
		scored_at     TIMESTAMPTZ NOT NULL,
		PRIMARY KEY (run_id, area_id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_scores_total ON scoring.scores (total DESC)`,
}

// EnsureSchema creates the scoring tables when missing
func (db *DB) EnsureSchema(ctx context.Context) error {
	for i, stmt := range schemaStatements {
		if _, err := db.Pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema statement %d: %w", i, err)
		}
	}
	return nil
}
