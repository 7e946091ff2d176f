package pipeline

import (
	"github.com/wonny/areascore/internal/contracts"
	"github.com/wonny/areascore/internal/dataset"
	"github.com/wonny/areascore/internal/forecast"
	"github.com/wonny/areascore/internal/timeseries"
)

// seriesPlan describes how one metric's observations become forecast inputs.
// The first dimension is the area scope, the second (if any) the segment.
type seriesPlan struct {
	table  contracts.ObservationTable
	value  string
	metric contracts.Metric
	dims   []string
	sum    bool // collapse rows sharing dims and date by summing
}

// seriesPlans lists every forecasted metric
// ⭐ SSOT: 어떤 관측치로 어떤 시계열을 만드는지는 여기서만
var seriesPlans = []seriesPlan{
	{
		table:  contracts.TableRental,
		value:  dataset.ValueAverageRent,
		metric: contracts.MetricAverageRent,
		dims:   []string{dataset.DimDistrict, dataset.DimBedroomType},
	},
	{
		table:  contracts.TableRental,
		value:  dataset.ValueVacancyRate,
		metric: contracts.MetricVacancyRate,
		dims:   []string{dataset.DimDistrict},
	},
	{
		table:  contracts.TableHousingStarts,
		value:  dataset.ValueHousingStarts,
		metric: contracts.MetricHousingStarts,
		dims:   []string{dataset.DimRegion},
		sum:    true,
	},
}

// buildInputs turns one plan's observations into keyed forecast inputs.
// Scope names resolve to area IDs through idx; unmatched scopes keep their
// normalized name so region-level lookups still work.
func buildInputs(b *timeseries.Builder, plan seriesPlan, obs []contracts.Observation, idx *contracts.AreaIndex) []forecast.SeriesInput {
	if plan.sum {
		obs = timeseries.SumByDate(obs, plan.dims)
	}

	series := b.Build(obs, plan.dims)
	inputs := make([]forecast.SeriesInput, 0, len(series))
	for _, ts := range series {
		scope := ts.Key.Part(0)
		area, _ := idx.Resolve(scope)
		inputs = append(inputs, forecast.SeriesInput{
			Key: contracts.ForecastKey{
				Area:    area,
				Segment: ts.Key.Part(1),
				Metric:  plan.metric,
			},
			Scope:  scope,
			Series: ts,
		})
	}
	return inputs
}
