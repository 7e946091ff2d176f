package timeseries

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/areascore/internal/contracts"
	"github.com/wonny/areascore/pkg/logger"
)

func day(year int, month time.Month, d int) time.Time {
	return time.Date(year, month, d, 0, 0, 0, 0, time.UTC)
}

func obs(date time.Time, district string, value float64) contracts.Observation {
	return contracts.Observation{
		Date:       date,
		Dimensions: map[string]string{"district": district},
		Value:      value,
	}
}

func TestBuilder_MonthlyMean(t *testing.T) {
	b := NewBuilder(logger.NewNop())

	observations := []contracts.Observation{
		obs(day(2024, 1, 3), "Verdun", 100),
		obs(day(2024, 1, 28), "Verdun", 200),
		obs(day(2024, 2, 10), "Verdun", 110),
		// March missing: dropped, not interpolated
		obs(day(2024, 4, 1), "Verdun", 130),
		obs(day(2024, 5, 1), "Verdun", 140),
	}

	series := b.Build(observations, []string{"district"})
	require.Len(t, series, 1)

	ts := series[0]
	assert.Equal(t, contracts.GroupKey{"Verdun"}, ts.Key)
	assert.Equal(t, []float64{150, 110, 130, 140}, ts.Values())
	assert.Equal(t, day(2024, 1, 1), ts.Points[0].Period)
	assert.Equal(t, day(2024, 4, 1), ts.Points[2].Period)
}

func TestBuilder_DropsShortSeries(t *testing.T) {
	b := NewBuilder(logger.NewNop())

	var observations []contracts.Observation
	for m := 1; m <= 4; m++ {
		observations = append(observations, obs(day(2024, time.Month(m), 1), "Anjou", float64(m)))
	}
	for m := 1; m <= 3; m++ {
		observations = append(observations, obs(day(2024, time.Month(m), 1), "Lachine", float64(m)))
	}

	series := b.Build(observations, []string{"district"})
	require.Len(t, series, 1)
	assert.Equal(t, "Anjou", series[0].Key.String())
}

func TestBuilder_NoDimensionsIsOverall(t *testing.T) {
	b := NewBuilder(logger.NewNop())

	var observations []contracts.Observation
	for m := 1; m <= 6; m++ {
		observations = append(observations,
			obs(day(2023, time.Month(m), 1), "A", 10),
			obs(day(2023, time.Month(m), 15), "B", 20),
		)
	}

	series := b.Build(observations, nil)
	require.Len(t, series, 1)
	assert.Equal(t, contracts.OverallKey, series[0].Key.String())
	assert.Equal(t, 6, series[0].Len())
	assert.Equal(t, 15.0, series[0].Points[0].Value)
}

func TestBuilder_NoSeriesIsSilent(t *testing.T) {
	b := NewBuilder(logger.NewNop())

	assert.Empty(t, b.Build(nil, []string{"district"}))
	assert.Empty(t, b.Build([]contracts.Observation{obs(day(2024, 1, 1), "A", math.NaN())}, nil))
}

func TestBuilder_DeterministicOrder(t *testing.T) {
	b := NewBuilder(logger.NewNop())

	var observations []contracts.Observation
	for _, d := range []string{"Verdun", "Anjou", "Outremont"} {
		for m := 1; m <= 4; m++ {
			observations = append(observations, obs(day(2024, time.Month(m), 1), d, 1))
		}
	}

	series := b.Build(observations, []string{"district"})
	require.Len(t, series, 3)
	assert.Equal(t, "Anjou", series[0].Key.String())
	assert.Equal(t, "Outremont", series[1].Key.String())
	assert.Equal(t, "Verdun", series[2].Key.String())
}

func TestBuilder_MultipleDimensions(t *testing.T) {
	b := NewBuilder(logger.NewNop())

	var observations []contracts.Observation
	for m := 1; m <= 4; m++ {
		for _, bt := range []string{"1 bedroom", "2 bedroom"} {
			observations = append(observations, contracts.Observation{
				Date:       day(2024, time.Month(m), 1),
				Dimensions: map[string]string{"district": "Verdun", "bedroom_type": bt},
				Value:      1000,
			})
		}
	}

	series := b.Build(observations, []string{"district", "bedroom_type"})
	require.Len(t, series, 2)
	assert.Equal(t, contracts.GroupKey{"Verdun", "1 bedroom"}, series[0].Key)
}

func TestSumByDate(t *testing.T) {
	mk := func(region, dwelling string, v float64) contracts.Observation {
		return contracts.Observation{
			Date:       day(2024, 6, 1),
			Dimensions: map[string]string{"region": region, "dwelling_type": dwelling},
			Value:      v,
		}
	}

	out := SumByDate([]contracts.Observation{
		mk("Laval", "Single", 50),
		mk("Laval", "Apartment", 200),
		mk("Montreal Island", "Row", 40),
	}, []string{"region"})

	require.Len(t, out, 2)
	assert.Equal(t, 250.0, out[0].Value)
	assert.Equal(t, "Laval", out[0].Dimensions["region"])
	_, hasDwelling := out[0].Dimensions["dwelling_type"]
	assert.False(t, hasDwelling)
	assert.Equal(t, 40.0, out[1].Value)
}
