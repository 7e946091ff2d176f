package dataset

import (
	"math"
	"strconv"
	"strings"

	"github.com/wonny/areascore/internal/contracts"
)

// Canonical non-feature column names
const (
	ColumnAreaID   = "area_id"
	ColumnAreaName = "area_name"
	ColumnDate     = "date"
	ColumnYear     = "year"
	ColumnMonth    = "month"

	DimDistrict    = "district"
	DimBedroomType = "bedroom_type"
	DimRegion      = "region"

	ValueAverageRent   = "average_rent"
	ValueVacancyRate   = "vacancy_rate"
	ValueHousingStarts = "housing_starts"
)

// columnAliases lists the accepted spellings of each canonical column,
// most preferred first
// ⭐ SSOT: 컬럼 별칭 탐색 규칙은 여기서만
var columnAliases = map[string][]string{
	ColumnAreaID:   {"area_id", "id", "geo_code", "code"},
	ColumnAreaName: {"area_name", "name", "district_name", "nom"},
	ColumnDate:     {"date", "survey_date", "period", "month_start"},
	ColumnYear:     {"year"},
	ColumnMonth:    {"month"},

	DimDistrict:    {"district", "district_name", "arrondissement"},
	DimBedroomType: {"bedroom_type", "unit_type", "bedrooms"},
	DimRegion:      {"region", "cma", "geography"},

	ValueAverageRent:   {"average_rent", "avg_rent"},
	ValueVacancyRate:   {"vacancy_rate", "vacancy"}, // also the vacancy feature
	ValueHousingStarts: {"housing_starts", "starts"},

	string(contracts.FeaturePopulation):         {"population", "pop_total"},
	string(contracts.FeatureIncomeMedian):       {"income_median", "median_income"},
	string(contracts.FeatureConstructionValue):  {"recent_construction_value", "construction_value"},
	string(contracts.FeaturePermitsCount):       {"permits_count", "permits"},
	string(contracts.FeatureRentGrowth):         {"rent_growth", "rent_change_1yr"},
	string(contracts.FeatureAvgRent):            {"avg_rent", "average_rent"},
	string(contracts.FeatureAccessibilityScore): {"accessibility_score", "accessibility"},
	string(contracts.FeatureDistanceToCBD):      {"distance_to_cbd", "distance_cbd_km"},
	string(contracts.FeatureCentroidLat):        {"centroid_lat", "lat", "latitude"},
	string(contracts.FeatureCentroidLon):        {"centroid_lon", "lon", "lng", "longitude"},
}

// ResolveColumn finds the header holding a canonical column.
// Exact alias matches win; otherwise the first unclaimed header containing
// the canonical name is used. Claimed headers are skipped in both passes.
func ResolveColumn(headers []string, canonical string, claimed map[string]bool) (string, bool) {
	aliases := columnAliases[canonical]
	if len(aliases) == 0 {
		aliases = []string{canonical}
	}

	for _, alias := range aliases {
		for _, h := range headers {
			if h == alias && !claimed[h] {
				return h, true
			}
		}
	}

	for _, h := range headers {
		if !claimed[h] && strings.Contains(h, canonical) {
			return h, true
		}
	}
	return "", false
}

// parseNumber reads a numeric cell; blanks, NaN and garbage are missing
func parseNumber(cell string) contracts.Signal[float64] {
	cell = strings.TrimSpace(cell)
	if cell == "" {
		return contracts.Missing[float64]()
	}
	v, err := strconv.ParseFloat(cell, 64)
	if err != nil || math.IsNaN(v) {
		return contracts.Missing[float64]()
	}
	return contracts.FloatSignal(v)
}
