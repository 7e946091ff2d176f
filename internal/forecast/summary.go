package forecast

import (
	"math"
	"time"

	"github.com/wonny/areascore/internal/contracts"
)

// Summary describes a forecast set
type Summary struct {
	GeneratedAt    time.Time                   `json:"generation_date"`
	Horizon        int                         `json:"forecast_horizon_months"`
	TotalForecasts int                         `json:"total_forecasts"`
	EmptyForecasts int                         `json:"empty_forecasts"`
	ByMetric       map[contracts.Metric]int    `json:"metrics"`
	ByModel        map[contracts.ModelType]int `json:"model_types"`
	ConfidenceMin  float64                     `json:"confidence_min"`
	ConfidenceMax  float64                     `json:"confidence_max"`
	ConfidenceMean float64                     `json:"confidence_mean"`
}

// Summarize aggregates counts and confidence over non-empty forecasts
func Summarize(set *contracts.ForecastSet) Summary {
	s := Summary{
		ByMetric: make(map[contracts.Metric]int),
		ByModel:  make(map[contracts.ModelType]int),
	}
	if set == nil {
		return s
	}

	s.GeneratedAt = set.GeneratedAt
	s.Horizon = set.Horizon
	s.TotalForecasts = set.Len()

	lo, hi, sum, n := math.Inf(1), math.Inf(-1), 0.0, 0
	for _, r := range set.Results {
		s.ByMetric[r.Key.Metric]++
		if r.IsEmpty() {
			s.EmptyForecasts++
			continue
		}
		s.ByModel[r.ModelType]++
		lo = math.Min(lo, r.Confidence)
		hi = math.Max(hi, r.Confidence)
		sum += r.Confidence
		n++
	}

	if n > 0 {
		s.ConfidenceMin = lo
		s.ConfidenceMax = hi
		s.ConfidenceMean = round2(sum / float64(n))
	}
	return s
}
