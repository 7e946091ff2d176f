package contracts

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// ModelType tags the strategy that produced a forecast
type ModelType string

const (
	ModelLinearTrend   ModelType = "linear_trend"
	ModelSeasonalNaive ModelType = "seasonal_naive"
)

// Metric is the forecasted quantity
type Metric string

const (
	MetricAverageRent   Metric = "average_rent"
	MetricVacancyRate   Metric = "vacancy_rate"
	MetricHousingStarts Metric = "housing_starts"
)

// Valid reports whether m is a known metric
func (m Metric) Valid() bool {
	switch m {
	case MetricAverageRent, MetricVacancyRate, MetricHousingStarts:
		return true
	default:
		return false
	}
}

// ForecastKey identifies one forecast by area and metric
// ⭐ SSOT: 예측 결과와 지역의 연결은 이 키로만 (문자열 부분 일치 금지)
type ForecastKey struct {
	Area    string `json:"area"`              // resolved area ID, or normalized scope name
	Segment string `json:"segment,omitempty"` // e.g. bedroom type
	Metric  Metric `json:"metric"`
}

// String renders a stable composite key
func (k ForecastKey) String() string {
	if k.Segment == "" {
		return fmt.Sprintf("%s:%s", k.Metric, k.Area)
	}
	return fmt.Sprintf("%s:%s:%s", k.Metric, k.Area, k.Segment)
}

// ForecastPoint is one projected period
type ForecastPoint struct {
	Period string  `json:"date"` // YYYY-MM
	YHat   float64 `json:"yhat"`
	Lower  float64 `json:"yhat_lower"`
	Upper  float64 `json:"yhat_upper"`
}

// ForecastDiagnostics carries solver diagnostics
type ForecastDiagnostics struct {
	RMSE        float64 `json:"rmse,omitempty"`         // linear_trend
	TrendFactor float64 `json:"trend_factor,omitempty"` // seasonal_naive
}

// ForecastResult is the projection of one series
type ForecastResult struct {
	Key           ForecastKey         `json:"key"`
	Scope         string              `json:"scope,omitempty"` // district/region display name
	Points        []ForecastPoint     `json:"forecast"`
	Confidence    float64             `json:"confidence"`
	ModelType     ModelType           `json:"model_type"`
	Diagnostics   ForecastDiagnostics `json:"diagnostics"`
	CurrentValue  float64             `json:"current_value"`
	HistoryLength int                 `json:"history_length"`
}

// IsEmpty reports whether the forecast has no points
func (r ForecastResult) IsEmpty() bool {
	return len(r.Points) == 0
}

// AtHorizon returns the point h steps ahead (1-based), or the last point
// when the forecast is shorter
func (r ForecastResult) AtHorizon(h int) (ForecastPoint, bool) {
	if len(r.Points) == 0 || h < 1 {
		return ForecastPoint{}, false
	}
	if h > len(r.Points) {
		h = len(r.Points)
	}
	return r.Points[h-1], true
}

// MeanYHat returns the average point estimate
func (r ForecastResult) MeanYHat() (float64, bool) {
	if len(r.Points) == 0 {
		return 0, false
	}
	sum := 0.0
	for _, p := range r.Points {
		sum += p.YHat
	}
	return sum / float64(len(r.Points)), true
}

// ExportID renders the flat identifier used by downstream exports
// (e.g. "Ahuntsic_2plus_bedroom", "vacancy_Ahuntsic", "starts_Montreal")
func (r ForecastResult) ExportID() string {
	scope := r.Scope
	if scope == "" {
		scope = r.Key.Area
	}

	var id string
	switch r.Key.Metric {
	case MetricVacancyRate:
		id = "vacancy_" + scope
	case MetricHousingStarts:
		id = "starts_" + scope
	default:
		id = scope
		if r.Key.Segment != "" {
			id += "_" + r.Key.Segment
		}
	}
	return strings.NewReplacer(" ", "_", "+", "plus").Replace(id)
}

// ForecastSet holds all forecasts of one run
type ForecastSet struct {
	GeneratedAt time.Time                      `json:"generated_at"`
	Horizon     int                            `json:"horizon"`
	Results     map[ForecastKey]ForecastResult `json:"-"`
}

// NewForecastSet creates an empty set
func NewForecastSet(generatedAt time.Time, horizon int) *ForecastSet {
	return &ForecastSet{
		GeneratedAt: generatedAt,
		Horizon:     horizon,
		Results:     make(map[ForecastKey]ForecastResult),
	}
}

// Put stores a result under its key
func (s *ForecastSet) Put(r ForecastResult) {
	s.Results[r.Key] = r
}

// Len returns the number of forecasts
func (s *ForecastSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Results)
}

// Get returns the forecast for an exact key
func (s *ForecastSet) Get(key ForecastKey) (ForecastResult, bool) {
	if s == nil {
		return ForecastResult{}, false
	}
	r, ok := s.Results[key]
	return r, ok
}

// Lookup returns the non-empty forecast of a metric for an area.
// When several segments exist the lexicographically smallest wins.
func (s *ForecastSet) Lookup(area string, metric Metric) (ForecastResult, bool) {
	if s == nil {
		return ForecastResult{}, false
	}

	var best ForecastResult
	found := false
	for key, r := range s.Results {
		if key.Area != area || key.Metric != metric || r.IsEmpty() {
			continue
		}
		if !found || key.Segment < best.Key.Segment {
			best = r
			found = true
		}
	}
	return best, found
}

// Sorted returns the results ordered by key
func (s *ForecastSet) Sorted() []ForecastResult {
	if s == nil {
		return nil
	}
	out := make([]ForecastResult, 0, len(s.Results))
	for _, r := range s.Results {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Key.String() < out[j].Key.String()
	})
	return out
}
