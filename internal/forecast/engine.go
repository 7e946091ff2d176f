package forecast

import (
	"math"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/stat"

	"github.com/wonny/areascore/internal/contracts"
)

const (
	// DefaultHorizon is the number of months projected when none is given
	DefaultHorizon = 12

	// SeasonLength is the seasonal-naive cycle in months
	SeasonLength = 12

	// MinTrendPoints is the shortest series the linear trend will fit
	MinTrendPoints = 3

	// z95 scales the band to a 95% interval
	z95 = 1.96

	linearConfidenceMin   = 0.1
	linearConfidenceMax   = 0.95
	seasonalConfidenceMin = 0.1
	seasonalConfidenceMax = 0.9

	// seasonalConfidenceShort is reported when fewer than two seasons exist
	seasonalConfidenceShort = 0.5
)

// Engine projects monthly series forward.
// Stateless: one Engine may serve concurrent calls.
type Engine struct {
	log zerolog.Logger
}

// NewEngine creates a new forecast engine
func NewEngine(log zerolog.Logger) *Engine {
	return &Engine{
		log: log.With().Str("component", "forecast.engine").Logger(),
	}
}

// Forecast picks the strategy by history length:
// 12+ points → seasonal naive, otherwise linear trend.
// Never fails; short input degrades to the empty result.
// ⭐ SSOT: 모델 선택 규칙은 여기서만
func (e *Engine) Forecast(series contracts.TimeSeries, horizon int) contracts.ForecastResult {
	series = sanitize(series)
	if series.Len() >= SeasonLength {
		return e.SeasonalNaive(series, horizon)
	}
	return e.LinearTrend(series, horizon)
}

// LinearTrend fits a least-squares line over the point index and extends it
// horizon steps. Band = ±1.96·RMSE, confidence = R² clamped to [0.1, 0.95].
func (e *Engine) LinearTrend(series contracts.TimeSeries, horizon int) contracts.ForecastResult {
	series = sanitize(series)
	horizon = normalizeHorizon(horizon)
	result := baseResult(series, contracts.ModelLinearTrend)

	n := series.Len()
	if n < MinTrendPoints {
		e.log.Debug().
			Str("series", series.Key.String()).
			Int("points", n).
			Msg("not enough history for linear trend")
		return result
	}

	y := series.Values()
	x := make([]float64, n)
	for i := range x {
		x[i] = float64(i)
	}

	alpha, beta := stat.LinearRegression(x, y, nil, false)

	ssRes := 0.0
	for i := range y {
		r := y[i] - (alpha + beta*x[i])
		ssRes += r * r
	}
	rmse := math.Sqrt(ssRes / float64(n))

	r2 := 0.0
	if totalSumOfSquares(y) > 0 {
		r2 = stat.RSquared(x, y, nil, alpha, beta)
	}

	last, _ := series.Last()
	width := z95 * rmse
	points := make([]contracts.ForecastPoint, horizon)
	for i := 0; i < horizon; i++ {
		yhat := alpha + beta*float64(n+i)
		points[i] = contracts.ForecastPoint{
			Period: periodLabel(last, i),
			YHat:   round2(yhat),
			Lower:  round2(yhat - width),
			Upper:  round2(yhat + width),
		}
	}

	result.Points = points
	result.Confidence = round2(clamp(r2, linearConfidenceMin, linearConfidenceMax))
	result.Diagnostics.RMSE = round2(rmse)
	return result
}

// SeasonalNaive repeats the last 12 observations, compounding the
// year-over-year trend factor once per reproduced season.
// Band = ±1.96·population std of the full history.
// Falls back to LinearTrend below one full season.
func (e *Engine) SeasonalNaive(series contracts.TimeSeries, horizon int) contracts.ForecastResult {
	series = sanitize(series)
	n := series.Len()
	if n < SeasonLength {
		return e.LinearTrend(series, horizon)
	}

	horizon = normalizeHorizon(horizon)
	result := baseResult(series, contracts.ModelSeasonalNaive)

	values := series.Values()
	template := values[n-SeasonLength:]

	trendFactor := 1.0
	confidence := seasonalConfidenceShort
	if n >= 2*SeasonLength {
		previous := values[n-2*SeasonLength : n-SeasonLength]

		if prevMean := stat.Mean(previous, nil); prevMean > 0 {
			trendFactor = stat.Mean(template, nil) / prevMean
		}

		// Zero-variance windows leave the correlation undefined; the
		// pattern is then treated as fully stable.
		corr := stat.Correlation(template, previous, nil)
		if math.IsNaN(corr) {
			confidence = seasonalConfidenceMax
		} else {
			confidence = clamp(math.Abs(corr), seasonalConfidenceMin, seasonalConfidenceMax)
		}
	}

	_, volatility := stat.PopMeanStdDev(values, nil)
	width := z95 * volatility

	last, _ := series.Last()
	points := make([]contracts.ForecastPoint, horizon)
	for i := 0; i < horizon; i++ {
		yhat := template[i%SeasonLength] * math.Pow(trendFactor, float64(1+i/SeasonLength))
		points[i] = contracts.ForecastPoint{
			Period: periodLabel(last, i),
			YHat:   round2(yhat),
			Lower:  round2(yhat - width),
			Upper:  round2(yhat + width),
		}
	}

	result.Points = points
	result.Confidence = round2(confidence)
	result.Diagnostics.TrendFactor = round2(trendFactor)
	return result
}

// baseResult is the empty, zero-confidence result for a series
func baseResult(series contracts.TimeSeries, model contracts.ModelType) contracts.ForecastResult {
	result := contracts.ForecastResult{
		Points:        []contracts.ForecastPoint{},
		ModelType:     model,
		HistoryLength: series.Len(),
	}
	if last, ok := series.Last(); ok {
		result.CurrentValue = round2(last.Value)
	}
	return result
}

// sanitize drops non-finite points
func sanitize(series contracts.TimeSeries) contracts.TimeSeries {
	clean := true
	for _, p := range series.Points {
		if math.IsNaN(p.Value) || math.IsInf(p.Value, 0) {
			clean = false
			break
		}
	}
	if clean {
		return series
	}

	points := make([]contracts.SeriesPoint, 0, len(series.Points))
	for _, p := range series.Points {
		if !math.IsNaN(p.Value) && !math.IsInf(p.Value, 0) {
			points = append(points, p)
		}
	}
	return contracts.TimeSeries{Key: series.Key, Points: points}
}

func normalizeHorizon(h int) int {
	if h <= 0 {
		return DefaultHorizon
	}
	return h
}

// periodLabel returns the month i+1 steps after the last observation
func periodLabel(last contracts.SeriesPoint, i int) string {
	return contracts.MonthStart(last.Period).AddDate(0, i+1, 0).Format(contracts.PeriodLayout)
}

func totalSumOfSquares(y []float64) float64 {
	mean := stat.Mean(y, nil)
	ss := 0.0
	for _, v := range y {
		ss += (v - mean) * (v - mean)
	}
	return ss
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
