package signals

import (
	"github.com/wonny/areascore/internal/contracts"
	"github.com/wonny/areascore/pkg/logger"
)

const (
	// rentReference is the monthly rent that maps to 60 points
	rentReference = 2000.0

	// returnsHorizon is the forecast step (months) used for rent growth
	returnsHorizon = 12
)

// ReturnsCalculator scores rental yield potential from the current rent
// level and its forecast growth
// ⭐ SSOT: 수익성 점수 계산은 여기서만
type ReturnsCalculator struct {
	logger *logger.Logger
}

// NewReturnsCalculator creates a new returns calculator
func NewReturnsCalculator(log *logger.Logger) *ReturnsCalculator {
	return &ReturnsCalculator{
		logger: log,
	}
}

// Name returns the subscore dimension
func (c *ReturnsCalculator) Name() contracts.Subscore {
	return contracts.SubscoreReturns
}

// Calculate starts at Neutral, blends in the rent level (×0.6 + ×0.2) and
// the 12-month forecast rent growth (×0.8 + ×0.2)
func (c *ReturnsCalculator) Calculate(area contracts.Area, in RunInputs) float64 {
	score := Neutral

	rent := mapSignal(area.Feature(contracts.FeatureAvgRent), func(v float64) float64 {
		return clampScore(v / rentReference * 60)
	})
	score = fold(score, rent, 0.6, 0.2)

	growth := mapSignal(c.forecastGrowth(area, in.Forecasts), func(g float64) float64 {
		return clampScore(g * 10)
	})
	score = fold(score, growth, 0.8, 0.2)

	return clampScore(score)
}

// forecastGrowth is the forecast rent change (%) from the current value to
// the 12-month step, or the last step of a shorter forecast
func (c *ReturnsCalculator) forecastGrowth(area contracts.Area, forecasts *contracts.ForecastSet) contracts.Signal[float64] {
	res, ok := forecasts.Lookup(area.ID, contracts.MetricAverageRent)
	if !ok || res.CurrentValue <= 0 {
		return contracts.Missing[float64]()
	}
	point, ok := res.AtHorizon(returnsHorizon)
	if !ok {
		return contracts.Missing[float64]()
	}
	return contracts.FloatSignal((point.YHat - res.CurrentValue) / res.CurrentValue * 100)
}
