package pipeline

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/wonny/areascore/internal/contracts"
	"github.com/wonny/areascore/internal/scoring"
	"github.com/wonny/areascore/pkg/logger"
)

// Artifact file names
const (
	ScoresFile          = "scores.json"
	ScoringSummaryFile  = "scoring_summary.json"
	ForecastsFile       = "forecasts.json"
	ForecastSummaryFile = "forecast_summary.json"
)

// ScoreExport is one area in scores.json; values are rounded to one decimal
type ScoreExport struct {
	AreaID      string           `json:"area_id"`
	AreaName    string           `json:"area_name"`
	Scores      ScoreValueExport `json:"scores"`
	Quantile    int              `json:"quantile"`
	IsOutlier   bool             `json:"is_outlier"`
	LastUpdated time.Time        `json:"last_updated"`
}

// ScoreValueExport holds the rounded subscores and total
type ScoreValueExport struct {
	Growth        float64 `json:"growth"`
	Supply        float64 `json:"supply"`
	Tension       float64 `json:"tension"`
	Accessibility float64 `json:"accessibility"`
	Returns       float64 `json:"returns"`
	Total         float64 `json:"total"`
}

// ScoringSummaryExport is scoring_summary.json
type ScoringSummaryExport struct {
	RunID       string    `json:"run_id"`
	ScoringDate time.Time `json:"scoring_date"`
	scoring.Summary
}

// ForecastExport is one entry of forecasts.json, keyed by its export ID
type ForecastExport struct {
	Scope        string                    `json:"scope"`
	Segment      string                    `json:"segment,omitempty"`
	AreaKey      string                    `json:"area_key"`
	Metric       contracts.Metric          `json:"metric"`
	CurrentValue float64                   `json:"current_value"`
	Forecast     []contracts.ForecastPoint `json:"forecast"`
	Confidence   float64                   `json:"confidence"`
	ModelType    contracts.ModelType       `json:"model_type"`
	RMSE         float64                   `json:"rmse,omitempty"`
	TrendFactor  float64                   `json:"trend_factor,omitempty"`
}

// ExportScores maps a score set to its artifact rows, in ranked order
func ExportScores(set *contracts.ScoreSet) []ScoreExport {
	ranked := set.Ranked()
	out := make([]ScoreExport, len(ranked))
	for i, r := range ranked {
		out[i] = ScoreExport{
			AreaID:   r.AreaID,
			AreaName: r.AreaName,
			Scores: ScoreValueExport{
				Growth:        round1(r.Subscores.Growth),
				Supply:        round1(r.Subscores.Supply),
				Tension:       round1(r.Subscores.Tension),
				Accessibility: round1(r.Subscores.Accessibility),
				Returns:       round1(r.Subscores.Returns),
				Total:         round1(r.Total),
			},
			Quantile:    r.Quantile,
			IsOutlier:   r.IsOutlier,
			LastUpdated: r.ScoredAt,
		}
	}
	return out
}

// ExportForecasts keys every forecast by its flat export ID.
// Colliding IDs keep the first forecast in key order; the keys of the
// dropped forecasts are returned.
func ExportForecasts(set *contracts.ForecastSet) (map[string]ForecastExport, []contracts.ForecastKey) {
	out := make(map[string]ForecastExport, set.Len())
	var dropped []contracts.ForecastKey
	for _, r := range set.Sorted() {
		id := r.ExportID()
		if _, exists := out[id]; exists {
			dropped = append(dropped, r.Key)
			continue
		}
		out[id] = ForecastExport{
			Scope:        r.Scope,
			Segment:      r.Key.Segment,
			AreaKey:      r.Key.Area,
			Metric:       r.Key.Metric,
			CurrentValue: r.CurrentValue,
			Forecast:     r.Points,
			Confidence:   r.Confidence,
			ModelType:    r.ModelType,
			RMSE:         r.Diagnostics.RMSE,
			TrendFactor:  r.Diagnostics.TrendFactor,
		}
	}
	return out, dropped
}

// Export writes the run artifacts into dir and returns their paths.
// Score files are written only when the run scored areas.
func Export(dir string, result *RunResult, log *logger.Logger) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output dir: %w", err)
	}

	var written []string
	write := func(name string, v interface{}) error {
		path := filepath.Join(dir, name)
		if err := writeJSON(path, v); err != nil {
			return err
		}
		written = append(written, path)
		return nil
	}

	if result.Forecasts != nil {
		forecasts, dropped := ExportForecasts(result.Forecasts)
		for _, key := range dropped {
			r, _ := result.Forecasts.Get(key)
			log.WithFields(map[string]interface{}{
				"key":       key.String(),
				"export_id": r.ExportID(),
			}).Warn("forecast export id collision, keeping first")
		}
		if err := write(ForecastsFile, forecasts); err != nil {
			return written, err
		}
		if err := write(ForecastSummaryFile, result.ForecastSummary); err != nil {
			return written, err
		}
	}

	if result.Scores != nil {
		if err := write(ScoresFile, ExportScores(result.Scores)); err != nil {
			return written, err
		}
		summary := scoringSummaryExport(result)
		if err := write(ScoringSummaryFile, summary); err != nil {
			return written, err
		}
	}

	return written, nil
}

func scoringSummaryExport(result *RunResult) ScoringSummaryExport {
	s := ScoringSummaryExport{
		RunID:       result.RunID,
		ScoringDate: result.StartedAt,
	}
	if result.ScoringSummary != nil {
		s.Summary = *result.ScoringSummary
	} else {
		s.Summary = scoring.Summarize(result.Scores)
	}
	return s
}

// writeJSON writes through a temp file so readers never see a partial artifact
func writeJSON(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", filepath.Base(path), err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to rename %s: %w", tmp, err)
	}
	return nil
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
