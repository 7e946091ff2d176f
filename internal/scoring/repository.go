package scoring

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/areascore/internal/contracts"
)

// ErrNoScores is returned when nothing has been stored yet
var ErrNoScores = errors.New("no score set stored")

// Repository handles score persistence
// ⭐ SSOT: 점수 저장/조회는 여기서만
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new scoring repository
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// SaveScoreSet replaces the stored scores with this run's set
func (r *Repository) SaveScoreSet(ctx context.Context, set *contracts.ScoreSet) error {
	weightsJSON, err := json.Marshal(set.Weights)
	if err != nil {
		return fmt.Errorf("failed to marshal weights: %w", err)
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, "DELETE FROM scoring.scores"); err != nil {
		return fmt.Errorf("failed to delete old scores: %w", err)
	}
	if _, err := tx.Exec(ctx, "DELETE FROM scoring.score_runs"); err != nil {
		return fmt.Errorf("failed to delete old runs: %w", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO scoring.score_runs (run_id, scored_at, weights)
		VALUES ($1, $2, $3)`,
		set.RunID, set.ScoredAt, weightsJSON,
	)
	if err != nil {
		return fmt.Errorf("failed to insert score run: %w", err)
	}

	rows := make([][]interface{}, len(set.Records))
	for i, rec := range set.Records {
		rows[i] = []interface{}{
			set.RunID, rec.AreaID, rec.AreaName,
			rec.Subscores.Growth, rec.Subscores.Supply, rec.Subscores.Tension,
			rec.Subscores.Accessibility, rec.Subscores.Returns,
			rec.Total, rec.Quantile, rec.IsOutlier, rec.ScoredAt,
		}
	}

	_, err = tx.CopyFrom(ctx,
		pgx.Identifier{"scoring", "scores"},
		[]string{
			"run_id", "area_id", "area_name",
			"growth", "supply", "tension", "accessibility", "returns",
			"total", "quantile", "is_outlier", "scored_at",
		},
		pgx.CopyFromRows(rows),
	)
	if err != nil {
		return fmt.Errorf("failed to copy scores: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// LoadLatest returns the stored score set
func (r *Repository) LoadLatest(ctx context.Context) (*contracts.ScoreSet, error) {
	set := &contracts.ScoreSet{}
	var weightsJSON []byte

	err := r.pool.QueryRow(ctx, `
		SELECT run_id, scored_at, weights
		FROM scoring.score_runs
		ORDER BY scored_at DESC
		LIMIT 1`,
	).Scan(&set.RunID, &set.ScoredAt, &weightsJSON)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNoScores
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get score run: %w", err)
	}

	if err := json.Unmarshal(weightsJSON, &set.Weights); err != nil {
		return nil, fmt.Errorf("failed to unmarshal weights: %w", err)
	}

	rows, err := r.pool.Query(ctx, `
		SELECT
			run_id, area_id, area_name,
			growth, supply, tension, accessibility, returns,
			total, quantile, is_outlier, scored_at
		FROM scoring.scores
		WHERE run_id = $1
		ORDER BY total DESC, area_id ASC`,
		set.RunID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query scores: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		set.Records = append(set.Records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return set, nil
}

// GetArea returns the stored record of one area
func (r *Repository) GetArea(ctx context.Context, areaID string) (contracts.ScoreRecord, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT
			run_id, area_id, area_name,
			growth, supply, tension, accessibility, returns,
			total, quantile, is_outlier, scored_at
		FROM scoring.scores
		WHERE area_id = $1`,
		areaID,
	)

	rec, err := scanRecord(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return contracts.ScoreRecord{}, fmt.Errorf("area %s: %w", areaID, ErrNoScores)
	}
	return rec, err
}

func scanRecord(row pgx.Row) (contracts.ScoreRecord, error) {
	var rec contracts.ScoreRecord
	err := row.Scan(
		&rec.RunID, &rec.AreaID, &rec.AreaName,
		&rec.Subscores.Growth, &rec.Subscores.Supply, &rec.Subscores.Tension,
		&rec.Subscores.Accessibility, &rec.Subscores.Returns,
		&rec.Total, &rec.Quantile, &rec.IsOutlier, &rec.ScoredAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return rec, err
		}
		return rec, fmt.Errorf("failed to scan score row: %w", err)
	}
	return rec, nil
}
