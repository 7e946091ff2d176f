package scoring

import (
	"math"

	"github.com/wonny/areascore/internal/contracts"
	"github.com/wonny/areascore/pkg/logger"
)

// Scorer composes subscores into totals, quantile tiers and outlier flags
// ⭐ SSOT: 종합 점수/분위/이상치 로직은 여기서만
type Scorer struct {
	detector OutlierDetector
	columns  []contracts.Subscore // detector input columns
	logger   *logger.Logger
}

// NewScorer creates a new scorer. A nil detector uses the default
// isolation forest; empty columns use all five subscores.
func NewScorer(detector OutlierDetector, columns []contracts.Subscore, logger *logger.Logger) *Scorer {
	if detector == nil {
		detector = DefaultIsolationForest()
	}
	if len(columns) == 0 {
		columns = contracts.AllSubscores
	}
	return &Scorer{
		detector: detector,
		columns:  columns,
		logger:   logger,
	}
}

// Columns returns the subscores fed to the outlier detector
func (s *Scorer) Columns() []contracts.Subscore {
	return s.columns
}

// Score builds one record per area, in input order. The returned set
// carries the weights actually applied; run identity is left to the caller.
func (s *Scorer) Score(subscores []contracts.AreaSubscores, weights contracts.Weights) *contracts.ScoreSet {
	applied, fallback := NormalizeWeights(weights)
	if fallback {
		s.logger.WithFields(map[string]interface{}{
			"growth":        weights.Growth,
			"supply":        weights.Supply,
			"tension":       weights.Tension,
			"accessibility": weights.Accessibility,
			"returns":       weights.Returns,
		}).Warn("Invalid weights, using defaults")
	}

	records := make([]contracts.ScoreRecord, len(subscores))
	totals := make([]float64, len(subscores))
	for i, row := range subscores {
		totals[i] = clampTotal(dot(row.Subscores, applied))
		records[i] = contracts.ScoreRecord{
			AreaID:    row.AreaID,
			AreaName:  row.AreaName,
			Subscores: row.Subscores,
			Total:     totals[i],
		}
	}

	quantiles := AssignQuantiles(totals, QuantileBuckets)
	outliers := s.detectOutliers(subscores)
	outlierCount := 0
	for i := range records {
		records[i].Quantile = quantiles[i]
		records[i].IsOutlier = outliers[i]
		if outliers[i] {
			outlierCount++
		}
	}

	s.logger.WithFields(map[string]interface{}{
		"areas":    len(records),
		"outliers": outlierCount,
		"fallback": fallback,
	}).Info("Composite scoring completed")

	return &contracts.ScoreSet{
		Weights: applied,
		Records: records,
	}
}

// detectOutliers runs the detector over the configured subscore columns
func (s *Scorer) detectOutliers(subscores []contracts.AreaSubscores) []bool {
	flags := make([]bool, len(subscores))
	if len(s.columns) < 2 || len(subscores) < 2 {
		return flags
	}

	rows := make([][]float64, len(subscores))
	for i, row := range subscores {
		rows[i] = make([]float64, len(s.columns))
		for j, col := range s.columns {
			rows[i][j] = row.Subscores.Get(col)
		}
	}

	detected := s.detector.Detect(rows)
	if len(detected) != len(rows) {
		s.logger.WithFields(map[string]interface{}{
			"rows":  len(rows),
			"flags": len(detected),
		}).Warn("Outlier detector returned wrong row count, ignoring")
		return flags
	}
	return detected
}

// clampTotal bounds a total to [0, 100]
func clampTotal(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(0, math.Min(100, v))
}
