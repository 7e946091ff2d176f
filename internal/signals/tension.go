package signals

import (
	"math"

	"github.com/wonny/areascore/internal/contracts"
	"github.com/wonny/areascore/pkg/logger"
)

const (
	// vacancyCeiling is the vacancy rate (%) at which tension bottoms out
	vacancyCeiling = 5.0

	// rentGrowthCeiling is the annual rent growth (%) that saturates tension
	rentGrowthCeiling = 5.0
)

// TensionCalculator scores market tightness: low vacancy and positive rent
// growth score higher
// ⭐ SSOT: 시장 긴장도 계산은 여기서만
type TensionCalculator struct {
	logger *logger.Logger
}

// NewTensionCalculator creates a new tension calculator
func NewTensionCalculator(log *logger.Logger) *TensionCalculator {
	return &TensionCalculator{
		logger: log,
	}
}

// Name returns the subscore dimension
func (c *TensionCalculator) Name() contracts.Subscore {
	return contracts.SubscoreTension
}

// Calculate starts at Neutral, blends in vacancy (×0.5 + ×0.3) and,
// only when positive, rent growth (×0.7 + ×0.2)
func (c *TensionCalculator) Calculate(area contracts.Area, _ RunInputs) float64 {
	score := Neutral

	vacancy := mapSignal(area.Feature(contracts.FeatureVacancyRate), func(v float64) float64 {
		return math.Max(0, 100-v/vacancyCeiling*100)
	})
	score = fold(score, vacancy, 0.5, 0.3)

	growth := area.Feature(contracts.FeatureRentGrowth)
	if g, ok := growth.Value(); ok && g > 0 {
		score = score*0.7 + math.Min(100, g/rentGrowthCeiling*100)*0.2
	}

	return clampScore(score)
}
