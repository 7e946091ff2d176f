package forecast

import (
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog"

	"github.com/wonny/areascore/internal/contracts"
)

// =============================================================================
// Forecast Validator
// =============================================================================

// Issue is one structural problem in a forecast
type Issue struct {
	Key     string `json:"key"`
	Step    int    `json:"step,omitempty"`
	Message string `json:"message"`
}

// BacktestResult compares a holdout forecast with what actually happened
type BacktestResult struct {
	Key       string              `json:"key"`
	ModelType contracts.ModelType `json:"model_type"`
	Holdout   int                 `json:"holdout"`
	MAE       float64             `json:"mae"`
	MAPE      float64             `json:"mape"`     // percent, over non-zero actuals
	Coverage  float64             `json:"coverage"` // share of actuals inside the band
}

// Validator checks forecast structure and holdout accuracy
// ⭐ SSOT: 예측 vs 실제 검증 로직
type Validator struct {
	engine *Engine
	log    zerolog.Logger
}

// NewValidator creates a new validator
func NewValidator(engine *Engine, log zerolog.Logger) *Validator {
	return &Validator{
		engine: engine,
		log:    log.With().Str("component", "forecast.validator").Logger(),
	}
}

// Check reports band ordering, finiteness and label continuity problems
func (v *Validator) Check(set *contracts.ForecastSet) []Issue {
	var issues []Issue
	for _, r := range set.Sorted() {
		issues = append(issues, checkResult(r)...)
	}

	v.log.Debug().
		Int("forecasts", set.Len()).
		Int("issues", len(issues)).
		Msg("forecast set checked")
	return issues
}

func checkResult(r contracts.ForecastResult) []Issue {
	key := r.Key.String()
	var issues []Issue

	if r.Confidence < 0 || r.Confidence > 1 {
		issues = append(issues, Issue{Key: key, Message: fmt.Sprintf("confidence %.3f outside [0,1]", r.Confidence)})
	}

	var prev time.Time
	for i, p := range r.Points {
		step := i + 1
		for _, v := range []float64{p.YHat, p.Lower, p.Upper} {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				issues = append(issues, Issue{Key: key, Step: step, Message: "non-finite value"})
				break
			}
		}
		if p.Lower > p.YHat || p.YHat > p.Upper {
			issues = append(issues, Issue{Key: key, Step: step, Message: "band does not contain point estimate"})
		}

		period, err := time.Parse(contracts.PeriodLayout, p.Period)
		if err != nil {
			issues = append(issues, Issue{Key: key, Step: step, Message: fmt.Sprintf("bad period label %q", p.Period)})
			continue
		}
		if i > 0 && !period.Equal(prev.AddDate(0, 1, 0)) {
			issues = append(issues, Issue{Key: key, Step: step, Message: "period labels are not consecutive months"})
		}
		prev = period
	}

	return issues
}

// Backtest hides the last holdout points, forecasts them with the policy of
// the metric and scores the forecast against the hidden actuals.
// Returns false when the remaining history cannot produce a forecast.
func (v *Validator) Backtest(series contracts.TimeSeries, metric contracts.Metric, holdout int) (BacktestResult, bool) {
	series = sanitize(series)
	if holdout <= 0 || holdout >= series.Len() {
		return BacktestResult{}, false
	}

	cut := series.Len() - holdout
	train := contracts.TimeSeries{Key: series.Key, Points: series.Points[:cut]}
	actual := series.Points[cut:]

	res := v.engine.ForecastWithPolicy(train, holdout, PolicyFor(metric))
	if res.IsEmpty() {
		return BacktestResult{}, false
	}

	var absErr, pctErr float64
	pctN, inside := 0, 0
	for i, a := range actual {
		p := res.Points[i]
		diff := math.Abs(p.YHat - a.Value)
		absErr += diff
		if a.Value != 0 {
			pctErr += diff / math.Abs(a.Value) * 100
			pctN++
		}
		if a.Value >= p.Lower && a.Value <= p.Upper {
			inside++
		}
	}

	out := BacktestResult{
		Key:       series.Key.String(),
		ModelType: res.ModelType,
		Holdout:   holdout,
		MAE:       round2(absErr / float64(holdout)),
		Coverage:  round2(float64(inside) / float64(holdout)),
	}
	if pctN > 0 {
		out.MAPE = round2(pctErr / float64(pctN))
	}
	return out, true
}
