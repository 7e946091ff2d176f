package dataset

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/areascore/internal/contracts"
)

// PostgresSource loads inputs already staged in the scoring schema:
// scoring.area_features (long format) and scoring.observations
// ⭐ SSOT: DB 입력 로딩은 여기서만
type PostgresSource struct {
	pool *pgxpool.Pool
}

// NewPostgresSource creates a new database-backed source
func NewPostgresSource(pool *pgxpool.Pool) *PostgresSource {
	return &PostgresSource{pool: pool}
}

// LoadFeatures pivots (area, feature, value) rows into a Feature Set.
// Unknown feature names are ignored.
func (s *PostgresSource) LoadFeatures(ctx context.Context) (*contracts.FeatureSet, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT a.area_id, a.area_name, f.feature, f.value
		FROM scoring.areas a
		LEFT JOIN scoring.area_features f ON f.area_id = a.area_id
		ORDER BY a.area_id, f.feature`)
	if err != nil {
		return nil, fmt.Errorf("failed to query features: %w", err)
	}
	defer rows.Close()

	known := make(map[contracts.FeatureName]bool, len(contracts.KnownFeatures))
	for _, name := range contracts.KnownFeatures {
		known[name] = true
	}

	fs := &contracts.FeatureSet{}
	index := make(map[string]int)
	for rows.Next() {
		var (
			areaID, areaName string
			feature          *string
			value            *float64
		)
		if err := rows.Scan(&areaID, &areaName, &feature, &value); err != nil {
			return nil, fmt.Errorf("failed to scan feature row: %w", err)
		}

		i, ok := index[areaID]
		if !ok {
			i = len(fs.Areas)
			index[areaID] = i
			fs.Areas = append(fs.Areas, contracts.Area{
				ID:       areaID,
				Name:     areaName,
				Features: make(map[contracts.FeatureName]float64),
			})
		}

		if feature == nil || value == nil {
			continue
		}
		name := contracts.FeatureName(*feature)
		if !known[name] {
			continue
		}
		if v, ok := contracts.FloatSignal(*value).Value(); ok {
			fs.Areas[i].Features[name] = v
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return fs, nil
}

// LoadObservations reads one metric of a staged table
func (s *PostgresSource) LoadObservations(ctx context.Context, table contracts.ObservationTable, valueColumn string, dimensions []string) ([]contracts.Observation, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT observed_on, dimensions, value
		FROM scoring.observations
		WHERE source_table = $1 AND metric = $2
		ORDER BY observed_on`,
		string(table), valueColumn,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query observations: %w", err)
	}
	defer rows.Close()

	var out []contracts.Observation
	for rows.Next() {
		var (
			observedOn time.Time
			dimsJSON   []byte
			value      float64
		)
		if err := rows.Scan(&observedOn, &dimsJSON, &value); err != nil {
			return nil, fmt.Errorf("failed to scan observation row: %w", err)
		}

		var all map[string]string
		if len(dimsJSON) > 0 {
			if err := json.Unmarshal(dimsJSON, &all); err != nil {
				return nil, fmt.Errorf("failed to unmarshal dimensions: %w", err)
			}
		}

		dims := make(map[string]string, len(dimensions))
		for _, d := range dimensions {
			dims[d] = all[d]
		}

		out = append(out, contracts.Observation{
			Date:       observedOn.UTC(),
			Dimensions: dims,
			Value:      value,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return out, nil
}
