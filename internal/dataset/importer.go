package dataset

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/wonny/areascore/internal/contracts"
)

// ImportFeatures replaces the staged feature table with fs
func (s *PostgresSource) ImportFeatures(ctx context.Context, fs *contracts.FeatureSet) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	// area_features는 CASCADE로 함께 삭제
	if _, err := tx.Exec(ctx, "DELETE FROM scoring.areas"); err != nil {
		return fmt.Errorf("failed to delete old areas: %w", err)
	}

	batch := &pgx.Batch{}
	for _, a := range fs.Areas {
		batch.Queue(`INSERT INTO scoring.areas (area_id, area_name) VALUES ($1, $2)`, a.ID, a.Name)
		for _, name := range contracts.KnownFeatures {
			v, ok := a.Feature(name).Value()
			if !ok {
				continue
			}
			batch.Queue(`
				INSERT INTO scoring.area_features (area_id, feature, value)
				VALUES ($1, $2, $3)`,
				a.ID, string(name), v,
			)
		}
	}

	if err := execBatch(ctx, tx, batch); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// ImportObservations replaces the staged rows of one table metric
func (s *PostgresSource) ImportObservations(ctx context.Context, table contracts.ObservationTable, metric string, obs []contracts.Observation) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		"DELETE FROM scoring.observations WHERE source_table = $1 AND metric = $2",
		string(table), metric,
	); err != nil {
		return fmt.Errorf("failed to delete old observations: %w", err)
	}

	rows := make([][]interface{}, 0, len(obs))
	for _, o := range obs {
		dims, err := json.Marshal(o.Dimensions)
		if err != nil {
			return fmt.Errorf("failed to marshal dimensions: %w", err)
		}
		rows = append(rows, []interface{}{string(table), metric, o.Date, dims, o.Value})
	}

	if _, err := tx.CopyFrom(ctx,
		pgx.Identifier{"scoring", "observations"},
		[]string{"source_table", "metric", "observed_on", "dimensions", "value"},
		pgx.CopyFromRows(rows),
	); err != nil {
		return fmt.Errorf("failed to copy observations: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func execBatch(ctx context.Context, tx pgx.Tx, batch *pgx.Batch) error {
	br := tx.SendBatch(ctx, batch)
	for i := 0; i < batch.Len(); i++ {
		if _, err := br.Exec(); err != nil {
			br.Close()
			return fmt.Errorf("failed to insert row %d: %w", i, err)
		}
	}
	if err := br.Close(); err != nil {
		return fmt.Errorf("failed to close batch: %w", err)
	}
	return nil
}
