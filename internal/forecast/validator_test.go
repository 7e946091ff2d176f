package forecast

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/areascore/internal/contracts"
)

func TestValidator_CheckCleanSet(t *testing.T) {
	engine := newTestEngine()
	set := contracts.NewForecastSet(time.Now(), 12)

	res := engine.Forecast(monthly(jan2024, 1, 2, 3, 5, 8, 13, 21, 34, 55, 89, 144, 233, 377), 12)
	res.Key = contracts.ForecastKey{Area: "a", Metric: contracts.MetricAverageRent}
	set.Put(res)

	assert.Empty(t, NewValidator(engine, zerolog.Nop()).Check(set))
}

func TestValidator_CheckFindsProblems(t *testing.T) {
	set := contracts.NewForecastSet(time.Now(), 3)
	set.Put(contracts.ForecastResult{
		Key:        contracts.ForecastKey{Area: "a", Metric: contracts.MetricVacancyRate},
		Confidence: 1.5,
		Points: []contracts.ForecastPoint{
			{Period: "2025-01", YHat: 2, Lower: 1, Upper: 3},
			{Period: "2025-03", YHat: 2, Lower: 2.5, Upper: 3},
			{Period: "garbage", YHat: 2, Lower: 1, Upper: 3},
		},
	})

	issues := NewValidator(newTestEngine(), zerolog.Nop()).Check(set)
	require.Len(t, issues, 4)

	messages := make([]string, len(issues))
	for i, is := range issues {
		messages[i] = is.Message
	}
	assert.Contains(t, messages, "band does not contain point estimate")
	assert.Contains(t, messages, "period labels are not consecutive months")
}

func TestValidator_Backtest(t *testing.T) {
	v := NewValidator(newTestEngine(), zerolog.Nop())

	res, ok := v.Backtest(monthly(jan2024, 10, 20, 30, 40, 50, 60, 70, 80, 90, 100), contracts.MetricAverageRent, 2)
	require.True(t, ok)
	assert.Equal(t, contracts.ModelLinearTrend, res.ModelType)
	assert.Equal(t, 2, res.Holdout)
	assert.InDelta(t, 0.0, res.MAE, 1e-9)
	assert.InDelta(t, 0.0, res.MAPE, 1e-9)
	assert.Equal(t, 1.0, res.Coverage)
}

func TestValidator_BacktestNotEnoughHistory(t *testing.T) {
	v := NewValidator(newTestEngine(), zerolog.Nop())

	_, ok := v.Backtest(monthly(jan2024, 10, 20, 30), contracts.MetricAverageRent, 2)
	assert.False(t, ok, "one training point cannot be forecast")

	_, ok = v.Backtest(monthly(jan2024, 10, 20, 30), contracts.MetricAverageRent, 3)
	assert.False(t, ok)
}

func TestSummarize(t *testing.T) {
	set := contracts.NewForecastSet(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), 12)
	set.Put(contracts.ForecastResult{
		Key: contracts.ForecastKey{Area: "a", Metric: contracts.MetricAverageRent}, ModelType: contracts.ModelSeasonalNaive,
		Confidence: 0.9, Points: []contracts.ForecastPoint{{YHat: 1}},
	})
	set.Put(contracts.ForecastResult{
		Key: contracts.ForecastKey{Area: "b", Metric: contracts.MetricAverageRent}, ModelType: contracts.ModelLinearTrend,
		Confidence: 0.3, Points: []contracts.ForecastPoint{{YHat: 1}},
	})
	set.Put(contracts.ForecastResult{
		Key: contracts.ForecastKey{Area: "c", Metric: contracts.MetricVacancyRate}, ModelType: contracts.ModelLinearTrend,
		Points: []contracts.ForecastPoint{},
	})

	s := Summarize(set)
	assert.Equal(t, 3, s.TotalForecasts)
	assert.Equal(t, 1, s.EmptyForecasts)
	assert.Equal(t, 2, s.ByMetric[contracts.MetricAverageRent])
	assert.Equal(t, 1, s.ByModel[contracts.ModelSeasonalNaive])
	assert.Equal(t, 1, s.ByModel[contracts.ModelLinearTrend])
	assert.Equal(t, 0.3, s.ConfidenceMin)
	assert.Equal(t, 0.9, s.ConfidenceMax)
	assert.Equal(t, 0.6, s.ConfidenceMean)

	empty := Summarize(nil)
	assert.Equal(t, 0, empty.TotalForecasts)
}
