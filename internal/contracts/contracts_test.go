package contracts

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignal(t *testing.T) {
	present := Present(3.5)
	v, ok := present.Value()
	assert.True(t, ok)
	assert.Equal(t, 3.5, v)
	assert.Equal(t, 3.5, present.Or(50))

	missing := Missing[float64]()
	assert.False(t, missing.IsPresent())
	assert.Equal(t, 50.0, missing.Or(50))

	assert.False(t, FloatSignal(math.NaN()).IsPresent())
	assert.False(t, FloatSignal(math.Inf(1)).IsPresent())
	assert.True(t, FloatSignal(0).IsPresent())
}

func TestSignal_JSONNull(t *testing.T) {
	var payload struct {
		A Signal[float64] `json:"a"`
		B Signal[float64] `json:"b"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a": 12.5, "b": null}`), &payload))
	assert.Equal(t, 12.5, payload.A.Or(0))
	assert.False(t, payload.B.IsPresent())

	data, err := json.Marshal(payload)
	require.NoError(t, err)
	assert.JSONEq(t, `{"a": 12.5, "b": null}`, string(data))
}

func TestArea_Feature(t *testing.T) {
	area := Area{
		ID:   "a1",
		Name: "Le Plateau",
		Features: map[FeatureName]float64{
			FeaturePopulation:  1000,
			FeatureVacancyRate: math.NaN(),
		},
	}

	assert.True(t, area.Feature(FeaturePopulation).IsPresent())
	assert.False(t, area.Feature(FeatureVacancyRate).IsPresent())
	assert.False(t, area.Feature(FeatureAvgRent).IsPresent())
}

func TestAreaIndex_Resolve(t *testing.T) {
	idx := NewAreaIndex([]Area{
		{ID: "PLT", Name: "Le Plateau Mont Royal"},
		{ID: "VM", Name: "Ville Marie"},
	})

	id, ok := idx.Resolve("Ville Marie")
	assert.True(t, ok)
	assert.Equal(t, "VM", id)

	id, ok = idx.Resolve("plt")
	assert.True(t, ok)
	assert.Equal(t, "PLT", id)

	id, ok = idx.Resolve("Montreal Island")
	assert.False(t, ok)
	assert.Equal(t, "montreal_island", id)
}

func TestGroupKey_String(t *testing.T) {
	assert.Equal(t, "overall", GroupKey{}.String())
	assert.Equal(t, "Verdun_2 bedroom", GroupKey{"Verdun", "2 bedroom"}.String())
	assert.Equal(t, "", GroupKey{"Verdun"}.Part(3))
}

func TestForecastResult_ExportID(t *testing.T) {
	tests := []struct {
		name   string
		result ForecastResult
		want   string
	}{
		{
			name: "rent with segment",
			result: ForecastResult{
				Key:   ForecastKey{Area: "vrd", Segment: "3+ bedroom", Metric: MetricAverageRent},
				Scope: "Verdun",
			},
			want: "Verdun_3plus_bedroom",
		},
		{
			name: "vacancy",
			result: ForecastResult{
				Key:   ForecastKey{Area: "vrd", Metric: MetricVacancyRate},
				Scope: "Verdun",
			},
			want: "vacancy_Verdun",
		},
		{
			name: "starts without scope",
			result: ForecastResult{
				Key: ForecastKey{Area: "montreal_island", Metric: MetricHousingStarts},
			},
			want: "starts_montreal_island",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.result.ExportID())
		})
	}
}

func TestForecastSet_Lookup(t *testing.T) {
	set := NewForecastSet(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), 12)
	point := []ForecastPoint{{Period: "2025-02", YHat: 1}}

	set.Put(ForecastResult{Key: ForecastKey{Area: "a1", Segment: "2 bedroom", Metric: MetricAverageRent}, Points: point})
	set.Put(ForecastResult{Key: ForecastKey{Area: "a1", Segment: "1 bedroom", Metric: MetricAverageRent}, Points: point})
	set.Put(ForecastResult{Key: ForecastKey{Area: "a1", Segment: "0 bachelor", Metric: MetricAverageRent}})
	set.Put(ForecastResult{Key: ForecastKey{Area: "a2", Metric: MetricVacancyRate}, Points: point})

	got, ok := set.Lookup("a1", MetricAverageRent)
	require.True(t, ok)
	assert.Equal(t, "1 bedroom", got.Key.Segment, "empty forecasts are skipped, smallest segment wins")

	_, ok = set.Lookup("a1", MetricVacancyRate)
	assert.False(t, ok)

	var nilSet *ForecastSet
	_, ok = nilSet.Lookup("a1", MetricAverageRent)
	assert.False(t, ok)
}

func TestForecastResult_AtHorizon(t *testing.T) {
	r := ForecastResult{Points: []ForecastPoint{{YHat: 1}, {YHat: 2}, {YHat: 3}}}

	p, ok := r.AtHorizon(2)
	require.True(t, ok)
	assert.Equal(t, 2.0, p.YHat)

	p, ok = r.AtHorizon(12)
	require.True(t, ok)
	assert.Equal(t, 3.0, p.YHat)

	mean, ok := r.MeanYHat()
	require.True(t, ok)
	assert.Equal(t, 2.0, mean)
}

func TestWeights(t *testing.T) {
	w := DefaultWeights()
	assert.InDelta(t, 1.0, w.Sum(), 1e-9)

	scaled := Weights{Growth: 1, Supply: 1, Tension: 1, Accessibility: 1, Returns: 1}.Scale(5)
	assert.Equal(t, 0.2, scaled.Growth)
	assert.Equal(t, 0.2, scaled.Returns)
}

func TestSubscoreSet_Get(t *testing.T) {
	s := SubscoreSet{Growth: 1, Supply: 2, Tension: 3, Accessibility: 4, Returns: 5}
	for i, name := range AllSubscores {
		assert.Equal(t, float64(i+1), s.Get(name))
	}
	assert.True(t, math.IsNaN(s.Get("unknown")))

	name, ok := ParseSubscore("tension")
	assert.True(t, ok)
	assert.Equal(t, SubscoreTension, name)
}

func TestStages(t *testing.T) {
	assert.Len(t, AllStages(), 8)
	assert.True(t, IsValidStage("FORECAST"))
	assert.False(t, IsValidStage("S0_DATA_QUALITY"))
}
