package signals

import (
	"math"

	"github.com/wonny/areascore/internal/contracts"
)

// MinMax rescales a column to [0, 1] using the range seen when fitted
type MinMax struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
	N   int     `json:"n"` // values seen while fitting
}

// FitMinMax fits over the present values
func FitMinMax(values []contracts.Signal[float64]) MinMax {
	m := MinMax{Min: math.Inf(1), Max: math.Inf(-1)}
	for _, s := range values {
		v, ok := s.Value()
		if !ok {
			continue
		}
		m.Min = math.Min(m.Min, v)
		m.Max = math.Max(m.Max, v)
		m.N++
	}
	return m
}

// Transform maps v into [0, 1]; a constant column maps to 0
func (m MinMax) Transform(v float64) float64 {
	if m.N == 0 {
		return 0
	}
	span := m.Max - m.Min
	if span == 0 {
		return 0
	}
	return (v - m.Min) / span
}

// Scalers holds the per-run min-max parameters of every scaled feature.
// Built fresh for each run and passed down explicitly; never shared
// between runs over different area sets.
type Scalers struct {
	byFeature map[contracts.FeatureName]MinMax
}

// scaledFeatures are the columns normalized across areas
var scaledFeatures = []contracts.FeatureName{
	contracts.FeaturePopulation,
	contracts.FeatureIncomeMedian,
	contracts.FeatureConstructionValue,
	contracts.FeaturePermitsCount,
}

// FitScalers fits one MinMax per scaled feature over the given areas
func FitScalers(areas []contracts.Area) Scalers {
	s := Scalers{byFeature: make(map[contracts.FeatureName]MinMax, len(scaledFeatures))}
	for _, name := range scaledFeatures {
		values := make([]contracts.Signal[float64], len(areas))
		for i, a := range areas {
			values[i] = a.Feature(name)
		}
		if m := FitMinMax(values); m.N > 0 {
			s.byFeature[name] = m
		}
	}
	return s
}

// Get returns the fitted scaler of a feature
func (s Scalers) Get(name contracts.FeatureName) (MinMax, bool) {
	m, ok := s.byFeature[name]
	return m, ok
}

// Score returns the area's feature min-max scaled to 0~100, or Missing
func (s Scalers) Score(name contracts.FeatureName, area contracts.Area) contracts.Signal[float64] {
	m, ok := s.byFeature[name]
	if !ok {
		return contracts.Missing[float64]()
	}
	return mapSignal(area.Feature(name), func(v float64) float64 {
		return m.Transform(v) * 100
	})
}
