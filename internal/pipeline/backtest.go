package pipeline

import (
	"context"
	"errors"

	"github.com/wonny/areascore/internal/contracts"
	"github.com/wonny/areascore/internal/forecast"
)

// ErrNoValidator is returned by Backtest when no validator is configured
var ErrNoValidator = errors.New("no forecast validator configured")

// Backtest loads the observation tables, builds every series and scores a
// holdout forecast for each one. Series too short for the holdout are omitted.
func (p *Pipeline) Backtest(ctx context.Context, holdout int) ([]forecast.BacktestResult, error) {
	if p.deps.Validator == nil {
		return nil, ErrNoValidator
	}

	in, err := p.load(ctx, false)
	if err != nil {
		return nil, err
	}
	idx := contracts.NewAreaIndex(in.features.Areas)

	var results []forecast.BacktestResult
	for i, plan := range seriesPlans {
		for _, input := range buildInputs(p.deps.Series, plan, in.observations[i], idx) {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			res, ok := p.deps.Validator.Backtest(input.Series, input.Key.Metric, holdout)
			if !ok {
				continue
			}
			res.Key = input.Key.String()
			results = append(results, res)
		}
	}

	p.deps.Logger.WithFields(map[string]interface{}{
		"holdout": holdout,
		"series":  len(results),
	}).Info("Backtest completed")
	return results, nil
}
