package forecast

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/areascore/internal/contracts"
)

// Repository forecast 데이터 저장소
// ⭐ SSOT: 예측 결과 저장/조회는 여기서만
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new forecast repository
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// SaveForecasts replaces the stored forecast set with this run's forecasts
func (r *Repository) SaveForecasts(ctx context.Context, runID string, set *contracts.ForecastSet) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, "DELETE FROM scoring.forecast_points"); err != nil {
		return fmt.Errorf("failed to delete old forecast points: %w", err)
	}
	if _, err := tx.Exec(ctx, "DELETE FROM scoring.forecasts"); err != nil {
		return fmt.Errorf("failed to delete old forecasts: %w", err)
	}

	batch := &pgx.Batch{}
	for _, res := range set.Sorted() {
		batch.Queue(`
			INSERT INTO scoring.forecasts (
				run_id, area, segment, metric, scope, model_type, confidence,
				rmse, trend_factor, current_value, history_length, generated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
			runID, res.Key.Area, res.Key.Segment, string(res.Key.Metric), res.Scope,
			string(res.ModelType), res.Confidence, res.Diagnostics.RMSE,
			res.Diagnostics.TrendFactor, res.CurrentValue, res.HistoryLength, set.GeneratedAt,
		)

		for i, p := range res.Points {
			batch.Queue(`
				INSERT INTO scoring.forecast_points (
					area, segment, metric, step, period, yhat, yhat_lower, yhat_upper
				) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
				res.Key.Area, res.Key.Segment, string(res.Key.Metric), i+1,
				p.Period, p.YHat, p.Lower, p.Upper,
			)
		}
	}

	br := tx.SendBatch(ctx, batch)
	for i := 0; i < batch.Len(); i++ {
		if _, err := br.Exec(); err != nil {
			br.Close()
			return fmt.Errorf("failed to insert forecast row %d: %w", i, err)
		}
	}
	if err := br.Close(); err != nil {
		return fmt.Errorf("failed to close batch: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// LoadLatest reads the stored forecast set
func (r *Repository) LoadLatest(ctx context.Context) (*contracts.ForecastSet, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT area, segment, metric, scope, model_type, confidence,
		       rmse, trend_factor, current_value, history_length, generated_at
		FROM scoring.forecasts
		ORDER BY metric, area, segment`)
	if err != nil {
		return nil, fmt.Errorf("failed to query forecasts: %w", err)
	}
	defer rows.Close()

	var generatedAt time.Time
	results := make(map[contracts.ForecastKey]contracts.ForecastResult)
	for rows.Next() {
		var res contracts.ForecastResult
		var metric, model string
		if err := rows.Scan(
			&res.Key.Area, &res.Key.Segment, &metric, &res.Scope, &model, &res.Confidence,
			&res.Diagnostics.RMSE, &res.Diagnostics.TrendFactor, &res.CurrentValue,
			&res.HistoryLength, &generatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan forecast: %w", err)
		}
		res.Key.Metric = contracts.Metric(metric)
		res.ModelType = contracts.ModelType(model)
		res.Points = []contracts.ForecastPoint{}
		results[res.Key] = res
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate forecasts: %w", err)
	}

	pointRows, err := r.pool.Query(ctx, `
		SELECT area, segment, metric, period, yhat, yhat_lower, yhat_upper
		FROM scoring.forecast_points
		ORDER BY metric, area, segment, step`)
	if err != nil {
		return nil, fmt.Errorf("failed to query forecast points: %w", err)
	}
	defer pointRows.Close()

	horizon := 0
	for pointRows.Next() {
		var key contracts.ForecastKey
		var metric string
		var p contracts.ForecastPoint
		if err := pointRows.Scan(&key.Area, &key.Segment, &metric, &p.Period, &p.YHat, &p.Lower, &p.Upper); err != nil {
			return nil, fmt.Errorf("failed to scan forecast point: %w", err)
		}
		key.Metric = contracts.Metric(metric)

		res, ok := results[key]
		if !ok {
			continue
		}
		res.Points = append(res.Points, p)
		results[key] = res
		if len(res.Points) > horizon {
			horizon = len(res.Points)
		}
	}
	if err := pointRows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate forecast points: %w", err)
	}

	set := contracts.NewForecastSet(generatedAt, horizon)
	for _, res := range results {
		set.Put(res)
	}
	return set, nil
}
