package signals

import (
	"github.com/wonny/areascore/internal/contracts"
	"github.com/wonny/areascore/pkg/logger"
)

const (
	growthPopulationWeight   = 0.4
	growthIncomeWeight       = 0.3
	growthConstructionWeight = 0.3
)

// GrowthCalculator scores demographic and economic momentum
// ⭐ SSOT: 성장 점수 계산은 여기서만
type GrowthCalculator struct {
	logger *logger.Logger
}

// NewGrowthCalculator creates a new growth calculator
func NewGrowthCalculator(log *logger.Logger) *GrowthCalculator {
	return &GrowthCalculator{
		logger: log,
	}
}

// Name returns the subscore dimension
func (c *GrowthCalculator) Name() contracts.Subscore {
	return contracts.SubscoreGrowth
}

// Calculate = 0.4·population + 0.3·income + 0.3·construction,
// each min-max scaled across the run, Neutral when missing
func (c *GrowthCalculator) Calculate(area contracts.Area, in RunInputs) float64 {
	population := orNeutral(in.Scalers.Score(contracts.FeaturePopulation, area))
	income := orNeutral(in.Scalers.Score(contracts.FeatureIncomeMedian, area))
	construction := orNeutral(in.Scalers.Score(contracts.FeatureConstructionValue, area))

	score := growthPopulationWeight*population +
		growthIncomeWeight*income +
		growthConstructionWeight*construction

	return clampScore(score)
}
