// Package spreadsheet turns the tax authority's XLSX test vectors into the
// CSV test tables read by package csvconv.
package spreadsheet

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"gettsimarchive/internal/logging"
)

const (
	minYear = 2000
	maxYear = 2100
)

var (
	// ErrSheetNotFound is returned when the configured sheet does not exist.
	ErrSheetNotFound = errors.New("sheet not found")
	// ErrNoHeader is returned when the header row is missing or empty.
	ErrNoHeader = errors.New("header row not found")
)

// Options configures one conversion.
type Options struct {
	Year   int
	Name   string
	OutDir string
	Layout Layout
}

// Validate checks the options.
func (o Options) Validate() error {
	if o.Year < minYear || o.Year > maxYear {
		return fmt.Errorf("year %d outside %d-%d", o.Year, minYear, maxYear)
	}
	if o.Name == "" {
		return fmt.Errorf("test name required")
	}
	if o.Layout.HeaderRow < 1 {
		return fmt.Errorf("header row must be >= 1, got %d", o.Layout.HeaderRow)
	}
	return nil
}

// Convert reads the workbook at path and writes <OutDir>/<Name>.csv.
// It returns the written path.
func Convert(path string, opts Options) (string, error) {
	if err := opts.Validate(); err != nil {
		return "", err
	}

	wb, err := excelize.OpenFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to open workbook: %w", err)
	}
	defer wb.Close()

	sheet := opts.Layout.Sheet
	sheets := wb.GetSheetList()
	if sheet == "" && len(sheets) > 0 {
		sheet = sheets[0]
	}
	if !contains(sheets, sheet) {
		return "", fmt.Errorf("%w: %q", ErrSheetNotFound, sheet)
	}

	rows, err := wb.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return "", fmt.Errorf("failed to read sheet %q: %w", sheet, err)
	}
	table, err := Transform(rows, opts)
	if err != nil {
		return "", fmt.Errorf("%s: %w", path, err)
	}

	out := filepath.Join(opts.OutDir, opts.Name+".csv")
	if err := writeCSV(out, table); err != nil {
		return "", err
	}
	logging.Get(logging.CategoryConvert).Infow("converted workbook",
		"workbook", path, "sheet", sheet, "year", opts.Year, "cases", len(table)-1, "csv", out)
	return out, nil
}

// idColumns lead every CSV record and are generated, never copied.
var idColumns = []string{"", "hh_id", "tu_id", "p_id", "jahr"}

type sourceColumn struct {
	index int
	col   Column
}

// Transform maps raw sheet rows to CSV records, header first. Every data
// row becomes a one-person household.
func Transform(rows [][]string, opts Options) ([][]string, error) {
	hr := opts.Layout.HeaderRow
	if len(rows) < hr || isBlank(rows[hr-1]) {
		return nil, fmt.Errorf("%w: row %d", ErrNoHeader, hr)
	}
	header := rows[hr-1]

	byHeader := make(map[string]Column, len(opts.Layout.Columns))
	for _, c := range opts.Layout.Columns {
		byHeader[c.Header] = c
	}

	var sources []sourceColumn
	provided := map[string]bool{}
	for i, h := range header {
		h = strings.TrimSpace(h)
		if h == "" {
			continue
		}
		col, ok := byHeader[h]
		if !ok {
			col = Column{Header: h, Name: h}
		}
		if contains(idColumns, col.Name) || provided[col.Name] {
			logging.Get(logging.CategoryConvert).Warnw("skipping duplicate sheet column", "header", h, "column", col.Name)
			continue
		}
		sources = append(sources, sourceColumn{index: i, col: col})
		provided[col.Name] = true
	}

	var defaults []string
	for name := range opts.Layout.Defaults {
		if !provided[name] {
			defaults = append(defaults, name)
		}
	}
	sort.Strings(defaults)
	hasChildren := hasColumn(sources, "kinderfreibeträge")
	addHatKinder := !provided["hat_kinder"]

	out := [][]string{append(append([]string{}, idColumns...), names(sources)...)}
	out[0] = append(out[0], defaults...)
	if addHatKinder {
		out[0] = append(out[0], "hat_kinder")
	}

	year := strconv.Itoa(opts.Year)
	n := 0
	for r := hr; r < len(rows); r++ {
		row := rows[r]
		if isBlank(row) {
			continue
		}
		id := strconv.Itoa(n)
		rec := []string{id, id, id, id, year}
		var kinder float64
		for _, s := range sources {
			raw := ""
			if s.index < len(row) {
				raw = strings.TrimSpace(row[s.index])
			}
			v, err := convertCell(raw, s.col)
			if err != nil {
				return nil, fmt.Errorf("row %d, column %s: %w", r+1, s.col.Header, err)
			}
			if s.col.Name == "kinderfreibeträge" && raw != "" {
				kinder, _ = strconv.ParseFloat(decimalPoint(raw), 64)
			}
			rec = append(rec, v)
		}
		for _, name := range defaults {
			rec = append(rec, opts.Layout.Defaults[name])
		}
		if addHatKinder {
			rec = append(rec, pyBool(hasChildren && kinder > 0))
		}
		out = append(out, rec)
		n++
	}
	return out, nil
}

func convertCell(raw string, col Column) (string, error) {
	if raw == "" {
		return "", nil
	}
	if col.Scale == 0 && col.Period == "" && col.Type == "" {
		if _, err := strconv.ParseFloat(decimalPoint(raw), 64); err == nil {
			return decimalPoint(raw), nil
		}
		return raw, nil
	}
	v, err := strconv.ParseFloat(decimalPoint(raw), 64)
	if err != nil {
		return "", fmt.Errorf("not a number: %q", raw)
	}
	if col.Type == "bool" {
		return pyBool(v != 0), nil
	}
	if col.Scale != 0 {
		v /= col.Scale
	}
	if col.Period == "year" {
		v /= 12
	}
	return strconv.FormatFloat(v, 'f', -1, 64), nil
}

// decimalPoint turns a German decimal comma into a dot.
func decimalPoint(raw string) string {
	return strings.ReplaceAll(raw, ",", ".")
}

// pyBool spells booleans the way the CSV test tables do.
func pyBool(b bool) string {
	if b {
		return "True"
	}
	return "False"
}

func writeCSV(path string, records [][]string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create csv: %w", err)
	}
	w := csv.NewWriter(file)
	if err := w.WriteAll(records); err != nil {
		file.Close()
		return fmt.Errorf("failed to write csv: %w", err)
	}
	return file.Close()
}

func names(sources []sourceColumn) []string {
	out := make([]string, 0, len(sources))
	for _, s := range sources {
		out = append(out, s.col.Name)
	}
	return out
}

func hasColumn(sources []sourceColumn, name string) bool {
	for _, s := range sources {
		if s.col.Name == name {
			return true
		}
	}
	return false
}

func isBlank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
