package scoring

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/wonny/areascore/internal/contracts"
)

// TotalStats describes the distribution of composite totals
type TotalStats struct {
	Mean float64 `json:"mean"`
	Std  float64 `json:"std"` // sample standard deviation
	Min  float64 `json:"min"`
	Max  float64 `json:"max"`
}

// Summary is the run-level scoring report
type Summary struct {
	AreasScored          int                  `json:"areas_scored"`
	Total                TotalStats           `json:"total_score_stats"`
	QuantileDistribution map[int]int          `json:"quantile_distribution"`
	OutlierCount         int                  `json:"outliers_detected"`
	WeightsUsed          contracts.Weights    `json:"weights_used"`
	Components           []contracts.Subscore `json:"score_components"`
}

// Summarize reports on a scored set
func Summarize(set *contracts.ScoreSet) Summary {
	s := Summary{
		QuantileDistribution: make(map[int]int),
		Components:           contracts.AllSubscores,
	}
	if set == nil {
		return s
	}
	s.WeightsUsed = set.Weights
	s.AreasScored = len(set.Records)
	if s.AreasScored == 0 {
		return s
	}

	totals := make([]float64, len(set.Records))
	s.Total.Min = math.Inf(1)
	s.Total.Max = math.Inf(-1)
	for i, r := range set.Records {
		totals[i] = r.Total
		s.Total.Min = math.Min(s.Total.Min, r.Total)
		s.Total.Max = math.Max(s.Total.Max, r.Total)
		s.QuantileDistribution[r.Quantile]++
		if r.IsOutlier {
			s.OutlierCount++
		}
	}

	s.Total.Mean, s.Total.Std = stat.MeanStdDev(totals, nil)
	if math.IsNaN(s.Total.Std) {
		s.Total.Std = 0
	}
	return s
}
