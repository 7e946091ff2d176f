package signals

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/areascore/internal/contracts"
	"github.com/wonny/areascore/pkg/logger"
)

func area(id string, features map[contracts.FeatureName]float64) contracts.Area {
	return contracts.Area{ID: id, Name: id, Features: features}
}

func flatForecast(areaID, segment string, metric contracts.Metric, current float64, yhat ...float64) contracts.ForecastResult {
	points := make([]contracts.ForecastPoint, len(yhat))
	for i, v := range yhat {
		points[i] = contracts.ForecastPoint{YHat: v, Lower: v, Upper: v}
	}
	return contracts.ForecastResult{
		Key:          contracts.ForecastKey{Area: areaID, Segment: segment, Metric: metric},
		Points:       points,
		CurrentValue: current,
	}
}

func repeat(v float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func TestFitMinMax(t *testing.T) {
	m := FitMinMax([]contracts.Signal[float64]{
		contracts.Present(10.0),
		contracts.Missing[float64](),
		contracts.Present(30.0),
	})
	assert.Equal(t, 2, m.N)
	assert.Equal(t, 0.0, m.Transform(10))
	assert.Equal(t, 0.5, m.Transform(20))
	assert.Equal(t, 1.0, m.Transform(30))

	constant := FitMinMax([]contracts.Signal[float64]{contracts.Present(7.0), contracts.Present(7.0)})
	assert.Equal(t, 0.0, constant.Transform(7))
}

func TestScalers_MissingColumn(t *testing.T) {
	s := FitScalers([]contracts.Area{area("a", nil), area("b", nil)})
	_, ok := s.Get(contracts.FeaturePopulation)
	assert.False(t, ok)
	assert.False(t, s.Score(contracts.FeaturePopulation, area("a", nil)).IsPresent())
}

func TestGrowthCalculator(t *testing.T) {
	areas := []contracts.Area{
		area("a", map[contracts.FeatureName]float64{
			contracts.FeaturePopulation: 100, contracts.FeatureIncomeMedian: 50000, contracts.FeatureConstructionValue: 10,
		}),
		area("b", map[contracts.FeatureName]float64{
			contracts.FeaturePopulation: 200, contracts.FeatureIncomeMedian: 70000, contracts.FeatureConstructionValue: 30,
		}),
		area("c", map[contracts.FeatureName]float64{
			contracts.FeatureIncomeMedian: 65000, contracts.FeatureConstructionValue: 25,
		}),
	}
	in := RunInputs{Scalers: FitScalers(areas)}
	calc := NewGrowthCalculator(logger.NewNop())

	assert.InDelta(t, 0.0, calc.Calculate(areas[0], in), 1e-9)
	assert.InDelta(t, 100.0, calc.Calculate(areas[1], in), 1e-9)
	// population missing → 0.4·50 + 0.3·75 + 0.3·75
	assert.InDelta(t, 65.0, calc.Calculate(areas[2], in), 1e-9)
}

func TestSupplyCalculator(t *testing.T) {
	areas := []contracts.Area{
		area("a", map[contracts.FeatureName]float64{contracts.FeaturePermitsCount: 10}),
		area("b", map[contracts.FeatureName]float64{contracts.FeaturePermitsCount: 30}),
		area("c", nil),
	}
	calc := NewSupplyCalculator(logger.NewNop(), "Montreal Island")

	t.Run("no forecasts", func(t *testing.T) {
		in := RunInputs{Scalers: FitScalers(areas)}
		assert.InDelta(t, 53.5, calc.Calculate(areas[0], in), 1e-9)
		assert.InDelta(t, 25.5, calc.Calculate(areas[1], in), 1e-9)
		assert.InDelta(t, Neutral, calc.Calculate(areas[2], in), 1e-9)
	})

	t.Run("citywide starts forecast", func(t *testing.T) {
		set := contracts.NewForecastSet(time.Now(), 12)
		set.Put(flatForecast("montreal_island", "", contracts.MetricHousingStarts, 100, repeat(100, 12)...))
		in := RunInputs{Scalers: FitScalers(areas), Forecasts: set}

		// impact = 100 - 100/500·100 = 80
		assert.InDelta(t, 62.5, calc.Calculate(areas[0], in), 1e-9)
	})

	t.Run("area forecast wins over citywide", func(t *testing.T) {
		set := contracts.NewForecastSet(time.Now(), 12)
		set.Put(flatForecast("montreal_island", "", contracts.MetricHousingStarts, 100, repeat(100, 12)...))
		set.Put(flatForecast("a", "", contracts.MetricHousingStarts, 600, repeat(600, 12)...))
		in := RunInputs{Scalers: FitScalers(areas), Forecasts: set}

		// impact clamps to 0
		assert.InDelta(t, 38.5, calc.Calculate(areas[0], in), 1e-9)
	})
}

func TestTensionCalculator(t *testing.T) {
	calc := NewTensionCalculator(logger.NewNop())

	tests := []struct {
		name     string
		features map[contracts.FeatureName]float64
		want     float64
	}{
		{"no data", nil, 50},
		{"vacancy only", map[contracts.FeatureName]float64{contracts.FeatureVacancyRate: 2}, 43},
		{"vacancy and growth", map[contracts.FeatureName]float64{
			contracts.FeatureVacancyRate: 2, contracts.FeatureRentGrowth: 2.5,
		}, 40.1},
		{"negative growth ignored", map[contracts.FeatureName]float64{
			contracts.FeatureVacancyRate: 2, contracts.FeatureRentGrowth: -1,
		}, 43},
		{"high vacancy floors at zero", map[contracts.FeatureName]float64{contracts.FeatureVacancyRate: 10}, 25},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, calc.Calculate(area("x", tt.features), RunInputs{}), 1e-9)
		})
	}
}

func TestAccessibilityCalculator(t *testing.T) {
	center := contracts.Present(GeoPoint{Lat: 45.5, Lon: -73.6})
	calc := NewAccessibilityCalculator(logger.NewNop(), center)

	tests := []struct {
		name     string
		features map[contracts.FeatureName]float64
		want     float64
	}{
		{"precomputed score clamped", map[contracts.FeatureName]float64{contracts.FeatureAccessibilityScore: 120}, 100},
		{"precomputed score wins", map[contracts.FeatureName]float64{
			contracts.FeatureAccessibilityScore: 70, contracts.FeatureDistanceToCBD: 3,
		}, 70},
		{"distance", map[contracts.FeatureName]float64{contracts.FeatureDistanceToCBD: 15}, 50},
		{"far distance floors", map[contracts.FeatureName]float64{contracts.FeatureDistanceToCBD: 45}, 0},
		{"centroid", map[contracts.FeatureName]float64{
			contracts.FeatureCentroidLat: 45.6, contracts.FeatureCentroidLon: -73.6,
		}, 100 - 11.1/30*100},
		{"no data", nil, 50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, calc.Calculate(area("x", tt.features), RunInputs{}), 1e-6)
		})
	}

	t.Run("centroid without configured centre", func(t *testing.T) {
		noCenter := NewAccessibilityCalculator(logger.NewNop(), contracts.Missing[GeoPoint]())
		a := area("x", map[contracts.FeatureName]float64{
			contracts.FeatureCentroidLat: 45.6, contracts.FeatureCentroidLon: -73.6,
		})
		assert.Equal(t, Neutral, noCenter.Calculate(a, RunInputs{}))
	})
}

func TestReturnsCalculator(t *testing.T) {
	calc := NewReturnsCalculator(logger.NewNop())
	a := area("a", map[contracts.FeatureName]float64{contracts.FeatureAvgRent: 1000})

	t.Run("rent only", func(t *testing.T) {
		// 50·0.6 + 30·0.2
		assert.InDelta(t, 36.0, calc.Calculate(a, RunInputs{}), 1e-9)
	})

	t.Run("rent and 12 month growth", func(t *testing.T) {
		set := contracts.NewForecastSet(time.Now(), 12)
		yhat := repeat(1010, 12)
		yhat[11] = 1020
		set.Put(flatForecast("a", "1_bedroom", contracts.MetricAverageRent, 1000, yhat...))

		// growth 2% → 20; 36·0.8 + 20·0.2
		assert.InDelta(t, 32.8, calc.Calculate(a, RunInputs{Forecasts: set}), 1e-9)
	})

	t.Run("short forecast uses last step", func(t *testing.T) {
		set := contracts.NewForecastSet(time.Now(), 3)
		set.Put(flatForecast("a", "1_bedroom", contracts.MetricAverageRent, 1000, 1010, 1030, 1050))

		assert.InDelta(t, 38.8, calc.Calculate(a, RunInputs{Forecasts: set}), 1e-9)
	})

	t.Run("non-positive current value ignored", func(t *testing.T) {
		set := contracts.NewForecastSet(time.Now(), 3)
		set.Put(flatForecast("a", "1_bedroom", contracts.MetricAverageRent, 0, 1010, 1030, 1050))

		assert.InDelta(t, 36.0, calc.Calculate(a, RunInputs{Forecasts: set}), 1e-9)
	})
}

func TestBuilder_AllMissingIsNeutral(t *testing.T) {
	b := NewDefaultBuilder(Params{StartsRegion: "montreal_island"}, logger.NewNop())
	fs := &contracts.FeatureSet{Areas: []contracts.Area{area("a", nil), area("b", nil)}}

	out, err := b.Build(context.Background(), fs, nil)
	require.NoError(t, err)
	require.Len(t, out, 2)

	for _, row := range out {
		for _, v := range row.Subscores.Values() {
			assert.InDelta(t, Neutral, v, 1e-9)
		}
	}
}

func TestBuilder_BoundsAndOrder(t *testing.T) {
	b := NewDefaultBuilder(Params{}, logger.NewNop())
	fs := &contracts.FeatureSet{Areas: []contracts.Area{
		area("z", map[contracts.FeatureName]float64{
			contracts.FeaturePopulation: 1e9, contracts.FeatureVacancyRate: -20, contracts.FeatureRentGrowth: 400,
			contracts.FeatureAvgRent: 1e6, contracts.FeatureDistanceToCBD: -5,
		}),
		area("a", map[contracts.FeatureName]float64{
			contracts.FeaturePopulation: 0, contracts.FeaturePermitsCount: 1e6,
		}),
	}}

	out, err := b.Build(context.Background(), fs, nil)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "z", out[0].AreaID)
	assert.Equal(t, "a", out[1].AreaID)

	for _, row := range out {
		for _, v := range row.Subscores.Values() {
			assert.GreaterOrEqual(t, v, 0.0)
			assert.LessOrEqual(t, v, 100.0)
		}
	}
}

func TestBuilder_Errors(t *testing.T) {
	b := NewDefaultBuilder(Params{}, logger.NewNop())

	_, err := b.Build(context.Background(), nil, nil)
	assert.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = b.Build(ctx, &contracts.FeatureSet{Areas: []contracts.Area{area("a", nil)}}, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestBuilder_Calculators(t *testing.T) {
	calcs := NewDefaultBuilder(Params{}, logger.NewNop()).Calculators()
	require.Len(t, calcs, len(contracts.AllSubscores))
	for i, c := range calcs {
		assert.Equal(t, contracts.AllSubscores[i], c.Name())
	}
}

func TestCoverage(t *testing.T) {
	fs := &contracts.FeatureSet{Areas: []contracts.Area{
		area("a", map[contracts.FeatureName]float64{contracts.FeatureAvgRent: 900}),
		area("b", map[contracts.FeatureName]float64{contracts.FeatureAvgRent: 1100, contracts.FeatureVacancyRate: 2}),
	}}
	cov := Coverage(fs)
	assert.Equal(t, 2, cov[contracts.FeatureAvgRent])
	assert.Equal(t, 1, cov[contracts.FeatureVacancyRate])
	assert.Equal(t, 0, cov[contracts.FeaturePopulation])
}
