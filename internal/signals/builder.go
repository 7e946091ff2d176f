package signals

import (
	"context"
	"fmt"

	"github.com/wonny/areascore/internal/contracts"
	"github.com/wonny/areascore/pkg/logger"
)

// Builder runs the five subscore calculators over a feature set
// ⭐ SSOT: 서브스코어 생성 오케스트레이션은 여기서만
type Builder struct {
	growth        *GrowthCalculator
	supply        *SupplyCalculator
	tension       *TensionCalculator
	accessibility *AccessibilityCalculator
	returns       *ReturnsCalculator

	logger *logger.Logger
}

// NewBuilder creates a new subscore builder
func NewBuilder(
	growth *GrowthCalculator,
	supply *SupplyCalculator,
	tension *TensionCalculator,
	accessibility *AccessibilityCalculator,
	returns *ReturnsCalculator,
	logger *logger.Logger,
) *Builder {
	return &Builder{
		growth:        growth,
		supply:        supply,
		tension:       tension,
		accessibility: accessibility,
		returns:       returns,
		logger:        logger,
	}
}

// NewDefaultBuilder wires the standard calculators from params
func NewDefaultBuilder(params Params, log *logger.Logger) *Builder {
	return NewBuilder(
		NewGrowthCalculator(log),
		NewSupplyCalculator(log, params.StartsRegion),
		NewTensionCalculator(log),
		NewAccessibilityCalculator(log, params.CityCenter),
		NewReturnsCalculator(log),
		log,
	)
}

// Calculators returns the calculators in canonical subscore order
func (b *Builder) Calculators() []Calculator {
	return []Calculator{b.growth, b.supply, b.tension, b.accessibility, b.returns}
}

// Build scores every area. Scalers are fitted once over this feature set;
// forecasts may be nil. Output order follows the input order.
func (b *Builder) Build(ctx context.Context, fs *contracts.FeatureSet, forecasts *contracts.ForecastSet) ([]contracts.AreaSubscores, error) {
	if fs == nil {
		return nil, fmt.Errorf("feature set is nil")
	}

	b.logger.WithFields(map[string]interface{}{
		"area_count":     fs.Len(),
		"forecast_count": forecasts.Len(),
	}).Info("Starting subscore calculation")

	in := RunInputs{
		Scalers:   FitScalers(fs.Areas),
		Forecasts: forecasts,
	}

	out := make([]contracts.AreaSubscores, 0, fs.Len())
	for _, area := range fs.Areas {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		out = append(out, contracts.AreaSubscores{
			AreaID:   area.ID,
			AreaName: area.Name,
			Subscores: contracts.SubscoreSet{
				Growth:        b.growth.Calculate(area, in),
				Supply:        b.supply.Calculate(area, in),
				Tension:       b.tension.Calculate(area, in),
				Accessibility: b.accessibility.Calculate(area, in),
				Returns:       b.returns.Calculate(area, in),
			},
		})
	}

	b.logger.WithFields(map[string]interface{}{
		"total":    len(out),
		"coverage": Coverage(fs),
	}).Info("Subscore calculation completed")

	return out, nil
}

// Coverage counts, per known feature, the areas carrying a present value
func Coverage(fs *contracts.FeatureSet) map[contracts.FeatureName]int {
	cov := make(map[contracts.FeatureName]int, len(contracts.KnownFeatures))
	for _, name := range contracts.KnownFeatures {
		cov[name] = 0
	}
	if fs == nil {
		return cov
	}
	for _, a := range fs.Areas {
		for _, name := range contracts.KnownFeatures {
			if a.Feature(name).IsPresent() {
				cov[name]++
			}
		}
	}
	return cov
}
