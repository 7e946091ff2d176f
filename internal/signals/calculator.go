package signals

import (
	"github.com/wonny/areascore/internal/contracts"
)

// RunInputs is the shared, read-only context of one scoring run
type RunInputs struct {
	Scalers   Scalers
	Forecasts *contracts.ForecastSet // may be nil
}

// Calculator scores one dimension of one area on 0~100.
// Implementations are pure: the same area and inputs give the same score,
// and missing data never fails, it degrades toward Neutral.
type Calculator interface {
	Name() contracts.Subscore
	Calculate(area contracts.Area, in RunInputs) float64
}

// GeoPoint is a latitude/longitude pair in degrees
type GeoPoint struct {
	Lat float64 `json:"lat" yaml:"lat"`
	Lon float64 `json:"lon" yaml:"lon"`
}

// Params are the city-specific constants of the calculators
type Params struct {
	// CityCenter enables the centroid fallback of accessibility
	CityCenter contracts.Signal[GeoPoint]

	// StartsRegion is the area key of the citywide housing-starts forecast
	// used when an area has none of its own (e.g. "montreal_island")
	StartsRegion string
}
