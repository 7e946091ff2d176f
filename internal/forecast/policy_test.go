package forecast

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/areascore/internal/contracts"
)

func TestPolicyFor(t *testing.T) {
	assert.Equal(t, StrategyAuto, PolicyFor(contracts.MetricAverageRent).Strategy)
	assert.Equal(t, StrategyLinear, PolicyFor(contracts.MetricVacancyRate).Strategy)
	assert.Equal(t, StrategySeasonal, PolicyFor(contracts.MetricHousingStarts).Strategy)
}

func TestForecastWithPolicy_VacancyBounded(t *testing.T) {
	values := []float64{3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14}
	res := newTestEngine().ForecastWithPolicy(monthly(jan2024, values...), 12, PolicyFor(contracts.MetricVacancyRate))

	// twelve points would pick seasonal naive; vacancy always trends
	assert.Equal(t, contracts.ModelLinearTrend, res.ModelType)
	require.Len(t, res.Points, 12)
	assert.Equal(t, 15.0, res.Points[0].YHat)
	for _, p := range res.Points {
		assert.LessOrEqual(t, p.YHat, 15.0)
		assert.LessOrEqual(t, p.Upper, 15.0)
		assert.GreaterOrEqual(t, p.Lower, 0.0)
	}
}

func TestForecastWithPolicy_StartsNonNegative(t *testing.T) {
	values := []float64{1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 100}
	res := newTestEngine().ForecastWithPolicy(monthly(jan2024, values...), 12, PolicyFor(contracts.MetricHousingStarts))

	assert.Equal(t, contracts.ModelSeasonalNaive, res.ModelType)
	require.Len(t, res.Points, 12)
	assert.Equal(t, 0.0, res.Points[0].Lower, "wide band floored at zero")
	assert.Greater(t, res.Points[0].Upper, 1.0, "upper band is not floored")
	for _, p := range res.Points {
		assert.GreaterOrEqual(t, p.YHat, 0.0)
	}
}

func TestForecastWithPolicy_StartsShortHistoryTrends(t *testing.T) {
	res := newTestEngine().ForecastWithPolicy(monthly(jan2024, 30, 20, 10, 5), 3, PolicyFor(contracts.MetricHousingStarts))

	assert.Equal(t, contracts.ModelLinearTrend, res.ModelType)
	for _, p := range res.Points {
		assert.GreaterOrEqual(t, p.YHat, 0.0)
		assert.GreaterOrEqual(t, p.Lower, 0.0)
	}
}

func TestPolicy_String(t *testing.T) {
	assert.NotEqual(t,
		PolicyFor(contracts.MetricVacancyRate).String(),
		PolicyFor(contracts.MetricHousingStarts).String())
}
