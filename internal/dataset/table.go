package dataset

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"path"
	"strconv"
	"strings"
)

// Row represents a single table row with column name to value mapping.
// Column names are lowercased and trimmed.
type Row map[string]string

// Table is a parsed input file: ordered headers plus rows
type Table struct {
	Headers []string
	Rows    []Row
}

// ParseTable picks the decoder from the file extension: .json is JSON,
// anything else is CSV
func ParseTable(name string, data []byte) (*Table, error) {
	ext := strings.ToLower(path.Ext(strings.SplitN(name, "?", 2)[0]))
	if ext == ".json" {
		return ParseJSON(name, data)
	}
	return ParseCSV(name, data)
}

// ParseCSV reads CSV bytes. The first row is treated as headers.
func ParseCSV(name string, data []byte) (*Table, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.TrimLeadingSpace = true
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("csv: parse %s: %w", name, err)
	}

	if len(records) == 0 {
		return nil, fmt.Errorf("csv: %s is empty (no header row)", name)
	}

	headers := make([]string, len(records[0]))
	for i, h := range records[0] {
		headers[i] = normalizeHeader(h)
	}
	if len(headers) > 0 {
		headers[0] = normalizeHeader(strings.TrimPrefix(records[0][0], "\ufeff"))
	}

	rows := make([]Row, 0, len(records)-1)
	for i, record := range records[1:] {
		if len(record) != len(headers) {
			return nil, fmt.Errorf("csv: row %d has %d columns, expected %d", i+2, len(record), len(headers))
		}
		row := make(Row, len(headers))
		for j, h := range headers {
			row[h] = strings.TrimSpace(record[j])
		}
		rows = append(rows, row)
	}

	return &Table{Headers: headers, Rows: rows}, nil
}

// ParseJSON reads either an array of flat objects or an object wrapping
// one under "areas", "records" or "data"
func ParseJSON(name string, data []byte) (*Table, error) {
	var objects []map[string]interface{}
	if err := json.Unmarshal(data, &objects); err != nil {
		var wrapped map[string]json.RawMessage
		if werr := json.Unmarshal(data, &wrapped); werr != nil {
			return nil, fmt.Errorf("json: parse %s: %w", name, err)
		}
		found := false
		for _, key := range []string{"areas", "records", "data"} {
			raw, ok := wrapped[key]
			if !ok {
				continue
			}
			if err := json.Unmarshal(raw, &objects); err != nil {
				return nil, fmt.Errorf("json: parse %s.%s: %w", name, key, err)
			}
			found = true
			break
		}
		if !found {
			return nil, fmt.Errorf("json: %s has no row array", name)
		}
	}

	seen := make(map[string]bool)
	var headers []string
	rows := make([]Row, 0, len(objects))
	for _, obj := range objects {
		row := make(Row, len(obj))
		for k, v := range obj {
			h := normalizeHeader(k)
			row[h] = jsonScalar(v)
			if !seen[h] {
				seen[h] = true
				headers = append(headers, h)
			}
		}
		rows = append(rows, row)
	}

	return &Table{Headers: headers, Rows: rows}, nil
}

// jsonScalar renders a decoded JSON value as cell text; nested values are dropped
func jsonScalar(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return ""
	}
}

func normalizeHeader(h string) string {
	return strings.ToLower(strings.TrimSpace(h))
}
