package timeseries

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/wonny/areascore/internal/contracts"
	"github.com/wonny/areascore/pkg/logger"
)

// MinSeriesLength is the shortest series forwarded to the forecast engine
const MinSeriesLength = 4

// keySep joins group components into a map key; never appears in labels
const keySep = "\x1f"

// Builder reshapes raw observations into monthly series per group key
type Builder struct {
	logger    *logger.Logger
	minLength int
}

// NewBuilder creates a new series builder
func NewBuilder(log *logger.Logger) *Builder {
	return &Builder{
		logger:    log,
		minLength: MinSeriesLength,
	}
}

type monthAcc struct {
	sum   float64
	count int
}

type group struct {
	key    contracts.GroupKey
	months map[time.Time]*monthAcc
}

// Build groups observations by the given dimensions, resamples each group to
// calendar months by mean and drops groups shorter than MinSeriesLength.
// No dimensions collapses everything into the single "overall" series.
// ⭐ SSOT: 관측치 → 월별 시계열 변환은 여기서만
func (b *Builder) Build(observations []contracts.Observation, dimensions []string) []contracts.TimeSeries {
	groups := make(map[string]*group)

	skipped := 0
	for _, obs := range observations {
		if math.IsNaN(obs.Value) || math.IsInf(obs.Value, 0) || obs.Date.IsZero() {
			skipped++
			continue
		}

		key := groupKeyOf(obs, dimensions)
		id := strings.Join(key, keySep)

		g, ok := groups[id]
		if !ok {
			g = &group{key: key, months: make(map[time.Time]*monthAcc)}
			groups[id] = g
		}

		month := contracts.MonthStart(obs.Date)
		acc, ok := g.months[month]
		if !ok {
			acc = &monthAcc{}
			g.months[month] = acc
		}
		acc.sum += obs.Value
		acc.count++
	}

	ids := make([]string, 0, len(groups))
	for id := range groups {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	series := make([]contracts.TimeSeries, 0, len(ids))
	dropped := 0
	for _, id := range ids {
		ts := groups[id].toSeries()
		if ts.Len() < b.minLength {
			dropped++
			continue
		}
		series = append(series, ts)
	}

	b.logger.WithFields(map[string]interface{}{
		"dimensions":   dimensions,
		"observations": len(observations),
		"skipped":      skipped,
		"groups":       len(groups),
		"series":       len(series),
		"too_short":    dropped,
	}).Debug("Time series built")

	return series
}

// toSeries emits the non-empty months in chronological order
func (g *group) toSeries() contracts.TimeSeries {
	months := make([]time.Time, 0, len(g.months))
	for m := range g.months {
		months = append(months, m)
	}
	sort.Slice(months, func(i, j int) bool { return months[i].Before(months[j]) })

	points := make([]contracts.SeriesPoint, 0, len(months))
	for _, m := range months {
		acc := g.months[m]
		points = append(points, contracts.SeriesPoint{
			Period: m,
			Value:  acc.sum / float64(acc.count),
		})
	}

	return contracts.TimeSeries{Key: g.key, Points: points}
}

// groupKeyOf extracts the ordered dimension values; an empty dimension list
// yields the empty tuple
func groupKeyOf(obs contracts.Observation, dimensions []string) contracts.GroupKey {
	key := make(contracts.GroupKey, len(dimensions))
	for i, dim := range dimensions {
		key[i] = obs.Dimensions[dim]
	}
	return key
}

// SumByDate collapses observations sharing the same dimension values and
// date into one observation carrying their sum, e.g. housing starts across
// dwelling types. Output keeps only the given dimensions.
func SumByDate(observations []contracts.Observation, dimensions []string) []contracts.Observation {
	type bucket struct {
		obs contracts.Observation
	}

	buckets := make(map[string]*bucket)
	order := make([]string, 0)

	for _, obs := range observations {
		if math.IsNaN(obs.Value) || math.IsInf(obs.Value, 0) {
			continue
		}

		key := groupKeyOf(obs, dimensions)
		id := strings.Join(key, keySep) + keySep + obs.Date.UTC().Format(time.RFC3339)

		b, ok := buckets[id]
		if !ok {
			dims := make(map[string]string, len(dimensions))
			for i, dim := range dimensions {
				dims[dim] = key[i]
			}
			b = &bucket{obs: contracts.Observation{Date: obs.Date, Dimensions: dims}}
			buckets[id] = b
			order = append(order, id)
		}
		b.obs.Value += obs.Value
	}

	out := make([]contracts.Observation, 0, len(order))
	for _, id := range order {
		out = append(out, buckets[id].obs)
	}
	return out
}
