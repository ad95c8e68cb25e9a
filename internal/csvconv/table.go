package csvconv

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

var (
	// ErrEmptyTable is returned for CSV input without a header row.
	ErrEmptyTable = errors.New("csv table has no header")
	// ErrDuplicateHeader is returned when two columns share a name.
	ErrDuplicateHeader = errors.New("duplicate csv header")
)

// missingValues are the cells pandas reads as NA by default.
var missingValues = map[string]bool{
	"": true, "#N/A": true, "#N/A N/A": true, "#NA": true, "-1.#IND": true, "-1.#QNAN": true,
	"-NaN": true, "-nan": true, "1.#IND": true, "1.#QNAN": true, "<NA>": true, "N/A": true,
	"NA": true, "NULL": true, "NaN": true, "None": true, "n/a": true, "nan": true, "null": true,
}

// Table is a CSV test table with typed columns.
type Table struct {
	Header []string
	// Columns holds one typed value per row for each header.
	Columns map[string][]any
	rows    int
}

// Len returns the number of data rows.
func (t *Table) Len() int { return t.rows }

// Has reports whether the table has a column.
func (t *Table) Has(col string) bool {
	_, ok := t.Columns[col]
	return ok
}

// ReadTable parses CSV with a header row. Each column gets a single type
// inferred from its non-missing cells: bool, int, float, or string.
// Missing cells (empty, NaN, NA, null and the like) become nil.
func ReadTable(r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse csv: %w", err)
	}
	if len(records) == 0 {
		return nil, ErrEmptyTable
	}

	header := make([]string, len(records[0]))
	seen := make(map[string]bool, len(header))
	for i, h := range records[0] {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if h == "" && i == 0 {
			h = "index"
		}
		if seen[h] {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateHeader, h)
		}
		seen[h] = true
		header[i] = h
	}

	t := &Table{Header: header, Columns: make(map[string][]any, len(header)), rows: len(records) - 1}
	for i, h := range header {
		raw := make([]string, 0, t.rows)
		for _, rec := range records[1:] {
			cell := ""
			if i < len(rec) {
				cell = strings.TrimSpace(rec[i])
			}
			raw = append(raw, cell)
		}
		t.Columns[h] = typeColumn(raw)
	}
	return t, nil
}

type kind int

const (
	kindEmpty kind = iota
	kindBool
	kindInt
	kindFloat
	kindString
)

func cellKind(s string) kind {
	if isMissing(s) {
		return kindEmpty
	}
	if strings.EqualFold(s, "true") || strings.EqualFold(s, "false") {
		return kindBool
	}
	if _, err := strconv.ParseInt(s, 10, 64); err == nil {
		return kindInt
	}
	if _, err := strconv.ParseFloat(s, 64); err == nil {
		return kindFloat
	}
	return kindString
}

func isMissing(s string) bool {
	return missingValues[s]
}

// columnKind promotes int to float; any other mix falls back to string.
func columnKind(raw []string) kind {
	k := kindEmpty
	for _, s := range raw {
		c := cellKind(s)
		switch {
		case c == kindEmpty || c == k:
		case k == kindEmpty:
			k = c
		case (k == kindInt && c == kindFloat) || (k == kindFloat && c == kindInt):
			k = kindFloat
		default:
			return kindString
		}
	}
	return k
}

func typeColumn(raw []string) []any {
	k := columnKind(raw)
	out := make([]any, len(raw))
	for i, s := range raw {
		if isMissing(s) {
			continue
		}
		switch k {
		case kindBool:
			out[i] = strings.EqualFold(s, "true")
		case kindInt:
			n, _ := strconv.ParseInt(s, 10, 64)
			out[i] = int(n)
		case kindFloat:
			f, _ := strconv.ParseFloat(s, 64)
			if !math.IsNaN(f) {
				out[i] = f
			}
		default:
			out[i] = s
		}
	}
	return out
}

// Select returns the rows at the given indices as a new table.
func (t *Table) Select(rows []int) *Table {
	sub := &Table{Header: t.Header, Columns: make(map[string][]any, len(t.Columns)), rows: len(rows)}
	for col, values := range t.Columns {
		picked := make([]any, len(rows))
		for i, r := range rows {
			picked[i] = values[r]
		}
		sub.Columns[col] = picked
	}
	return sub
}

// cellString renders a value the way it appears in info text.
func cellString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	default:
		return fmt.Sprint(x)
	}
}
