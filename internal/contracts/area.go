package contracts

import (
	"sort"
	"strings"
)

// FeatureName identifies a numeric column of the Feature Set
type FeatureName string

const (
	FeaturePopulation         FeatureName = "population"
	FeatureIncomeMedian       FeatureName = "income_median"
	FeatureConstructionValue  FeatureName = "recent_construction_value"
	FeaturePermitsCount       FeatureName = "permits_count"
	FeatureVacancyRate        FeatureName = "vacancy_rate"         // percent
	FeatureRentGrowth         FeatureName = "rent_growth"          // percent per year
	FeatureAvgRent            FeatureName = "avg_rent"             // currency per month
	FeatureAccessibilityScore FeatureName = "accessibility_score"  // 0~100
	FeatureDistanceToCBD      FeatureName = "distance_to_cbd"      // km
	FeatureCentroidLat        FeatureName = "centroid_lat"
	FeatureCentroidLon        FeatureName = "centroid_lon"
)

// KnownFeatures lists every feature the subscore calculators read
var KnownFeatures = []FeatureName{
	FeaturePopulation,
	FeatureIncomeMedian,
	FeatureConstructionValue,
	FeaturePermitsCount,
	FeatureVacancyRate,
	FeatureRentGrowth,
	FeatureAvgRent,
	FeatureAccessibilityScore,
	FeatureDistanceToCBD,
	FeatureCentroidLat,
	FeatureCentroidLon,
}

// Area is one scored geographic unit
// Immutable for the duration of a run
type Area struct {
	ID         string                  `json:"area_id"`
	Name       string                  `json:"area_name"`
	Features   map[FeatureName]float64 `json:"features,omitempty"`
	Attributes map[string]string       `json:"attributes,omitempty"` // categorical columns
}

// Feature returns the named feature as a Signal
func (a Area) Feature(name FeatureName) Signal[float64] {
	v, ok := a.Features[name]
	if !ok {
		return Missing[float64]()
	}
	return FloatSignal(v)
}

// FeatureSet is the row-per-area input table
type FeatureSet struct {
	Areas []Area `json:"areas"`
}

// Len returns the number of areas
func (fs *FeatureSet) Len() int {
	if fs == nil {
		return 0
	}
	return len(fs.Areas)
}

// Columns returns the feature names present on at least one area, sorted
func (fs *FeatureSet) Columns() []FeatureName {
	seen := make(map[FeatureName]bool)
	for _, a := range fs.Areas {
		for name := range a.Features {
			seen[name] = true
		}
	}

	cols := make([]FeatureName, 0, len(seen))
	for name := range seen {
		cols = append(cols, name)
	}
	sort.Slice(cols, func(i, j int) bool { return cols[i] < cols[j] })
	return cols
}

// NormalizeAreaKey lowercases a name and replaces spaces with underscores
func NormalizeAreaKey(name string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), " ", "_")
}

// AreaIndex resolves district/region names to area identifiers
type AreaIndex struct {
	byKey map[string]string
}

// NewAreaIndex indexes areas by normalized ID and normalized name
func NewAreaIndex(areas []Area) *AreaIndex {
	idx := &AreaIndex{byKey: make(map[string]string, len(areas)*2)}
	for _, a := range areas {
		idx.byKey[NormalizeAreaKey(a.ID)] = a.ID
	}
	// Names never shadow an exact ID match
	for _, a := range areas {
		key := NormalizeAreaKey(a.Name)
		if _, exists := idx.byKey[key]; !exists && key != "" {
			idx.byKey[key] = a.ID
		}
	}
	return idx
}

// Resolve returns the area ID for a scope name, or the normalized scope
// itself when no area matches
func (idx *AreaIndex) Resolve(scope string) (string, bool) {
	key := NormalizeAreaKey(scope)
	if idx != nil {
		if id, ok := idx.byKey[key]; ok {
			return id, true
		}
	}
	return key, false
}
