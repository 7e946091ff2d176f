package contracts

import (
	"strings"
	"time"
)

// OverallKey is the label of the single series built without grouping dimensions
const OverallKey = "overall"

// PeriodLayout is the label format of a monthly period
const PeriodLayout = "2006-01"

// Observation is one raw (date, group, value) row
type Observation struct {
	Date       time.Time         `json:"date"`
	Dimensions map[string]string `json:"dimensions,omitempty"`
	Value      float64           `json:"value"`
}

// GroupKey is the ordered tuple of dimension values identifying a series
type GroupKey []string

// String joins the components, or returns "overall" for the empty tuple
func (k GroupKey) String() string {
	if len(k) == 0 {
		return OverallKey
	}
	return strings.Join(k, "_")
}

// Part returns component i, or "" when out of range
func (k GroupKey) Part(i int) string {
	if i < 0 || i >= len(k) {
		return ""
	}
	return k[i]
}

// SeriesPoint is one monthly aggregate
type SeriesPoint struct {
	Period time.Time `json:"period"` // first day of the month, UTC
	Value  float64   `json:"value"`
}

// TimeSeries is a strictly increasing monthly series for one group
type TimeSeries struct {
	Key    GroupKey      `json:"key"`
	Points []SeriesPoint `json:"points"`
}

// Len returns the number of points
func (ts TimeSeries) Len() int {
	return len(ts.Points)
}

// Values returns the point values in order
func (ts TimeSeries) Values() []float64 {
	values := make([]float64, len(ts.Points))
	for i, p := range ts.Points {
		values[i] = p.Value
	}
	return values
}

// Last returns the most recent point
func (ts TimeSeries) Last() (SeriesPoint, bool) {
	if len(ts.Points) == 0 {
		return SeriesPoint{}, false
	}
	return ts.Points[len(ts.Points)-1], true
}

// MonthStart truncates t to the first instant of its month in UTC
func MonthStart(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}
