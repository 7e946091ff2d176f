package dataset

import (
	"errors"
	"strconv"
	"time"

	"github.com/wonny/areascore/internal/contracts"
)

// ErrNoDateColumn is returned when a table has no date, period or year column
var ErrNoDateColumn = errors.New("no date or year column")

// dateLayouts are tried in order on date cells
var dateLayouts = []string{
	"2006-01-02",
	"2006-01",
	time.RFC3339,
	"2006/01/02",
	"2006-01-02 15:04:05",
}

// ObservationStats reports how a table was mapped to observations
type ObservationStats struct {
	Rows        int
	Kept        int
	BadDate     int
	BadValue    int
	ValueColumn string            // source header, empty when absent
	Dimensions  map[string]string // dimension → source header
}

// ToObservations extracts one value column with its dimensions.
// A missing value column yields no observations (treated as absent input);
// a missing dimension column leaves that dimension empty.
// Yearly rows (year column only) are dated January 1st.
func ToObservations(t *Table, valueColumn string, dimensions []string) ([]contracts.Observation, ObservationStats, error) {
	stats := ObservationStats{
		Rows:       len(t.Rows),
		Dimensions: make(map[string]string, len(dimensions)),
	}

	claimed := make(map[string]bool)
	dateCol, hasDate := ResolveColumn(t.Headers, ColumnDate, claimed)
	if hasDate {
		claimed[dateCol] = true
	}
	yearCol, hasYear := "", false
	monthCol, hasMonth := "", false
	if !hasDate {
		yearCol, hasYear = ResolveColumn(t.Headers, ColumnYear, claimed)
		if !hasYear {
			return nil, stats, ErrNoDateColumn
		}
		claimed[yearCol] = true
		if monthCol, hasMonth = ResolveColumn(t.Headers, ColumnMonth, claimed); hasMonth {
			claimed[monthCol] = true
		}
	}

	for _, dim := range dimensions {
		if col, ok := ResolveColumn(t.Headers, dim, claimed); ok {
			stats.Dimensions[dim] = col
			claimed[col] = true
		}
	}

	valueCol, ok := ResolveColumn(t.Headers, valueColumn, claimed)
	if !ok {
		return nil, stats, nil
	}
	stats.ValueColumn = valueCol

	out := make([]contracts.Observation, 0, len(t.Rows))
	for _, row := range t.Rows {
		var date time.Time
		var dateOK bool
		if hasDate {
			date, dateOK = parseDate(row[dateCol])
		} else {
			date, dateOK = yearMonthDate(row[yearCol], row[monthCol], hasMonth)
		}
		if !dateOK {
			stats.BadDate++
			continue
		}

		v, ok := parseNumber(row[valueCol]).Value()
		if !ok {
			stats.BadValue++
			continue
		}

		dims := make(map[string]string, len(dimensions))
		for _, dim := range dimensions {
			if col, ok := stats.Dimensions[dim]; ok {
				dims[dim] = row[col]
			} else {
				dims[dim] = ""
			}
		}

		out = append(out, contracts.Observation{
			Date:       date,
			Dimensions: dims,
			Value:      v,
		})
	}

	stats.Kept = len(out)
	return out, stats, nil
}

func parseDate(cell string) (time.Time, bool) {
	if cell == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, cell); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

func yearMonthDate(yearCell, monthCell string, hasMonth bool) (time.Time, bool) {
	year, err := strconv.Atoi(yearCell)
	if err != nil || year < 1 {
		return time.Time{}, false
	}
	month := 1
	if hasMonth && monthCell != "" {
		m, err := strconv.Atoi(monthCell)
		if err != nil || m < 1 || m > 12 {
			return time.Time{}, false
		}
		month = m
	}
	return time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC), true
}
