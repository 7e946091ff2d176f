package forecast

import (
	"fmt"
	"math"

	"github.com/wonny/areascore/internal/contracts"
)

// Strategy selects how a metric is forecast
type Strategy string

const (
	StrategyAuto     Strategy = "auto"     // by history length
	StrategyLinear   Strategy = "linear"   // always linear trend
	StrategySeasonal Strategy = "seasonal" // seasonal naive, linear below one season
)

// Policy is the per-metric forecasting rule
type Policy struct {
	Strategy Strategy
	Min      contracts.Signal[float64] // floor for yhat and lower bound
	Max      contracts.Signal[float64] // ceiling for yhat and both bounds
	// BoundUpper also floors the upper band at Min
	BoundUpper bool
}

// PolicyFor returns the forecasting rule of a metric
// vacancy_rate: linear only, clamped to 0~15%
// housing_starts: seasonal, never negative
func PolicyFor(metric contracts.Metric) Policy {
	switch metric {
	case contracts.MetricVacancyRate:
		return Policy{
			Strategy:   StrategyLinear,
			Min:        contracts.Present(0.0),
			Max:        contracts.Present(15.0),
			BoundUpper: true,
		}
	case contracts.MetricHousingStarts:
		return Policy{
			Strategy: StrategySeasonal,
			Min:      contracts.Present(0.0),
		}
	default:
		return Policy{Strategy: StrategyAuto}
	}
}

// String renders the policy for fingerprints and logs
func (p Policy) String() string {
	lo, hasLo := p.Min.Value()
	hi, hasHi := p.Max.Value()
	return fmt.Sprintf("%s|%t:%g|%t:%g|%t", p.Strategy, hasLo, lo, hasHi, hi, p.BoundUpper)
}

// ForecastWithPolicy runs the policy's strategy and applies its bounds
func (e *Engine) ForecastWithPolicy(series contracts.TimeSeries, horizon int, policy Policy) contracts.ForecastResult {
	var result contracts.ForecastResult
	switch policy.Strategy {
	case StrategyLinear:
		result = e.LinearTrend(series, horizon)
	case StrategySeasonal:
		result = e.SeasonalNaive(series, horizon)
	default:
		result = e.Forecast(series, horizon)
	}

	policy.apply(result.Points)
	return result
}

func (p Policy) apply(points []contracts.ForecastPoint) {
	lo, hasLo := p.Min.Value()
	hi, hasHi := p.Max.Value()
	if !hasLo && !hasHi {
		return
	}

	bound := func(v float64) float64 {
		if hasHi {
			v = math.Min(hi, v)
		}
		if hasLo {
			v = math.Max(lo, v)
		}
		return v
	}

	for i := range points {
		points[i].YHat = bound(points[i].YHat)
		points[i].Lower = bound(points[i].Lower)
		if p.BoundUpper {
			points[i].Upper = bound(points[i].Upper)
		} else if hasHi {
			points[i].Upper = math.Min(hi, points[i].Upper)
		}
	}
}
