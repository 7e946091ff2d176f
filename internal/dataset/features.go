package dataset

import (
	"errors"
	"fmt"

	"github.com/wonny/areascore/internal/contracts"
)

// ErrNoAreaColumn is returned when neither an id nor a name column exists
var ErrNoAreaColumn = errors.New("no area_id or area_name column")

// FeatureStats reports how a table was mapped to a Feature Set
type FeatureStats struct {
	Rows       int
	Areas      int
	Duplicates int
	Skipped    int                              // rows without an area id
	Columns    map[contracts.FeatureName]string // feature → source header
}

// ToFeatureSet maps a table onto the known features. Unknown columns are
// kept as area attributes; unparsable numeric cells are absent.
func ToFeatureSet(t *Table) (*contracts.FeatureSet, FeatureStats, error) {
	stats := FeatureStats{
		Rows:    len(t.Rows),
		Columns: make(map[contracts.FeatureName]string),
	}

	claimed := make(map[string]bool)
	idCol, hasID := ResolveColumn(t.Headers, ColumnAreaID, claimed)
	if hasID {
		claimed[idCol] = true
	}
	nameCol, hasName := ResolveColumn(t.Headers, ColumnAreaName, claimed)
	if hasName {
		claimed[nameCol] = true
	}
	if !hasID && !hasName {
		return nil, stats, ErrNoAreaColumn
	}
	if !hasID {
		idCol = nameCol
	}

	for _, name := range contracts.KnownFeatures {
		if col, ok := ResolveColumn(t.Headers, string(name), claimed); ok {
			stats.Columns[name] = col
			claimed[col] = true
		}
	}

	fs := &contracts.FeatureSet{Areas: make([]contracts.Area, 0, len(t.Rows))}
	seen := make(map[string]bool, len(t.Rows))
	for _, row := range t.Rows {
		id := row[idCol]
		if id == "" {
			stats.Skipped++
			continue
		}
		if seen[id] {
			stats.Duplicates++
			continue
		}
		seen[id] = true

		area := contracts.Area{
			ID:       id,
			Name:     id,
			Features: make(map[contracts.FeatureName]float64),
		}
		if hasName && row[nameCol] != "" {
			area.Name = row[nameCol]
		}

		for name, col := range stats.Columns {
			if v, ok := parseNumber(row[col]).Value(); ok {
				area.Features[name] = v
			}
		}

		for _, h := range t.Headers {
			if claimed[h] || row[h] == "" {
				continue
			}
			if area.Attributes == nil {
				area.Attributes = make(map[string]string)
			}
			area.Attributes[h] = row[h]
		}

		fs.Areas = append(fs.Areas, area)
	}

	stats.Areas = len(fs.Areas)
	if stats.Areas == 0 && stats.Rows > 0 {
		return nil, stats, fmt.Errorf("no rows carry an area id in column %q", idCol)
	}
	return fs, stats, nil
}
