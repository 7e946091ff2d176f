package signals

import (
	"math"

	"github.com/wonny/areascore/internal/contracts"
	"github.com/wonny/areascore/pkg/logger"
)

const (
	// accessibilityDecayKm is the distance to the centre at which the score reaches zero
	accessibilityDecayKm = 30.0

	// kmPerDegree approximates one degree of arc at city scale
	kmPerDegree = 111.0
)

// AccessibilityCalculator scores proximity to the city centre
// ⭐ SSOT: 접근성 점수 계산은 여기서만
type AccessibilityCalculator struct {
	logger *logger.Logger
	center contracts.Signal[GeoPoint]
}

// NewAccessibilityCalculator creates a new accessibility calculator
func NewAccessibilityCalculator(log *logger.Logger, center contracts.Signal[GeoPoint]) *AccessibilityCalculator {
	return &AccessibilityCalculator{
		logger: log,
		center: center,
	}
}

// Name returns the subscore dimension
func (c *AccessibilityCalculator) Name() contracts.Subscore {
	return contracts.SubscoreAccessibility
}

// Calculate uses, in order: a precomputed accessibility score, the
// distance to the centre, the centroid distance to the configured centre.
// With none of them the area is Neutral.
func (c *AccessibilityCalculator) Calculate(area contracts.Area, _ RunInputs) float64 {
	if v, ok := area.Feature(contracts.FeatureAccessibilityScore).Value(); ok {
		return clampScore(v)
	}

	dist := area.Feature(contracts.FeatureDistanceToCBD)
	if !dist.IsPresent() {
		dist = c.centroidDistance(area)
	}
	if d, ok := dist.Value(); ok {
		return clampScore(100 - d/accessibilityDecayKm*100)
	}

	return Neutral
}

// centroidDistance is the planar distance in km from the area centroid to
// the configured centre
func (c *AccessibilityCalculator) centroidDistance(area contracts.Area) contracts.Signal[float64] {
	center, ok := c.center.Value()
	if !ok {
		return contracts.Missing[float64]()
	}
	lat, okLat := area.Feature(contracts.FeatureCentroidLat).Value()
	lon, okLon := area.Feature(contracts.FeatureCentroidLon).Value()
	if !okLat || !okLon {
		return contracts.Missing[float64]()
	}

	deg := math.Hypot(lat-center.Lat, lon-center.Lon)
	return contracts.FloatSignal(deg * kmPerDegree)
}
