package signals

import (
	"github.com/wonny/areascore/internal/contracts"
	"github.com/wonny/areascore/pkg/logger"
)

// startsSaturation is the mean monthly housing starts at which the
// pipeline impact reaches zero
const startsSaturation = 500.0

// SupplyCalculator scores supply pressure: fewer permits and a thinner
// construction pipeline score higher
// ⭐ SSOT: 공급 점수 계산은 여기서만
type SupplyCalculator struct {
	logger       *logger.Logger
	startsRegion string
}

// NewSupplyCalculator creates a new supply calculator
func NewSupplyCalculator(log *logger.Logger, startsRegion string) *SupplyCalculator {
	return &SupplyCalculator{
		logger:       log,
		startsRegion: contracts.NormalizeAreaKey(startsRegion),
	}
}

// Name returns the subscore dimension
func (c *SupplyCalculator) Name() contracts.Subscore {
	return contracts.SubscoreSupply
}

// Calculate starts at Neutral, blends in inverted permits (×0.3 + ×0.4)
// and the housing-starts impact (×0.7 + ×0.3)
func (c *SupplyCalculator) Calculate(area contracts.Area, in RunInputs) float64 {
	score := Neutral

	permits := mapSignal(in.Scalers.Score(contracts.FeaturePermitsCount, area), func(v float64) float64 {
		return 100 - v
	})
	score = fold(score, permits, 0.3, 0.4)

	score = score*0.7 + orNeutral(c.startsImpact(area, in.Forecasts))*0.3

	return clampScore(score)
}

// startsImpact maps the mean forecast housing starts to 0~100, preferring
// the area's own forecast over the citywide one
func (c *SupplyCalculator) startsImpact(area contracts.Area, forecasts *contracts.ForecastSet) contracts.Signal[float64] {
	res, ok := forecasts.Lookup(area.ID, contracts.MetricHousingStarts)
	if !ok && c.startsRegion != "" {
		res, ok = forecasts.Lookup(c.startsRegion, contracts.MetricHousingStarts)
	}
	if !ok {
		return contracts.Missing[float64]()
	}

	mean, ok := res.MeanYHat()
	if !ok {
		return contracts.Missing[float64]()
	}
	return contracts.FloatSignal(clampScore(100 - mean/startsSaturation*100))
}
