// Package csvconv converts CSV test tables into YAML test fixtures.
//
// One CSV file holds the test cases of one test name (the file stem). Rows
// are split by tax year when a "jahr" column exists and then by household,
// producing one fixture per household:
//
//	<out>/<name>/<year>/hh_id_<id>.yaml
package csvconv

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gettsimarchive/internal/fixture"
	"gettsimarchive/internal/logging"
)

const (
	yearColumn       = "jahr"
	householdColumn  = "hh_id"
	unknownHousehold = "hh_id_unknown"
)

// Converter turns CSV test tables into fixtures.
type Converter struct {
	Roles         map[string]Roles
	NoteColumns   []string
	SourceColumns []string
	// OutDir is the fixture root, usually the test data directory.
	OutDir string
	// Progress receives one "Writing to <path>" line per fixture. May be nil.
	Progress io.Writer
}

// NewConverter returns a converter with the default role and info tables.
func NewConverter(outDir string) *Converter {
	return &Converter{
		Roles:         DefaultRoles(),
		NoteColumns:   DefaultNoteColumns(),
		SourceColumns: DefaultSourceColumns(),
		OutDir:        outDir,
	}
}

// Case is one converted household.
type Case struct {
	// Year is empty for tables without a year column.
	Year    string
	Key     string
	Fixture *fixture.Fixture
}

// Path returns where the case is written below root.
func (c Case) Path(root, name string) string {
	if c.Year == "" {
		return filepath.Join(root, name, c.Key+".yaml")
	}
	return filepath.Join(root, name, c.Year, c.Key+".yaml")
}

// Build splits a table into per-household fixtures.
func (c *Converter) Build(name string, t *Table) ([]Case, error) {
	roles := c.Roles[name]
	for _, col := range concat(roles.Provided, roles.Assumed, roles.Outputs) {
		if !t.Has(col) {
			return nil, fmt.Errorf("%s: missing column %q", name, col)
		}
	}

	if !t.Has(yearColumn) {
		return c.buildYear(name, "", t, roles), nil
	}

	var cases []Case
	for _, g := range groupBy(t, yearColumn) {
		cases = append(cases, c.buildYear(name, cellString(g.value), t.Select(g.rows), roles)...)
	}
	return cases, nil
}

func (c *Converter) buildYear(name, year string, t *Table, roles Roles) []Case {
	if !t.Has(householdColumn) {
		return []Case{{Year: year, Key: unknownHousehold, Fixture: c.fixture(t, roles)}}
	}
	var cases []Case
	for _, g := range groupBy(t, householdColumn) {
		cases = append(cases, Case{
			Year:    year,
			Key:     "hh_id_" + cellString(g.value),
			Fixture: c.fixture(t.Select(g.rows), roles),
		})
	}
	return cases
}

func (c *Converter) fixture(t *Table, roles Roles) *fixture.Fixture {
	f := fixture.New()
	f.Info.Note = c.infoText(t, c.NoteColumns)
	f.Info.Source = c.infoText(t, c.SourceColumns)
	fill := func(section string, cols []string) {
		tree := f.Section(section)
		for _, col := range cols {
			tree[col] = t.Columns[col]
		}
		f.Order[section] = append([]string(nil), cols...)
	}
	fill(fixture.SectionProvided, roles.Provided)
	fill(fixture.SectionAssumed, roles.Assumed)
	fill(fixture.SectionOutputs, roles.Outputs)
	return f
}

// infoText joins the first-row values of the listed columns, in table
// column order, with blank lines.
func (c *Converter) infoText(t *Table, columns []string) string {
	if t.Len() == 0 {
		return ""
	}
	wanted := make(map[string]bool, len(columns))
	for _, col := range columns {
		wanted[col] = true
	}
	var parts []string
	for _, col := range t.Header {
		if !wanted[col] {
			continue
		}
		if s := cellString(t.Columns[col][0]); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, "\n\n")
}

// Write saves cases as fixtures below OutDir and returns the written paths.
func (c *Converter) Write(name string, cases []Case) ([]string, error) {
	log := logging.Get(logging.CategoryConvert)
	paths := make([]string, 0, len(cases))
	for _, cs := range cases {
		path := cs.Path(c.OutDir, name)
		if c.Progress != nil {
			fmt.Fprintf(c.Progress, "Writing to %s\n", path)
		}
		if err := fixture.Save(path, cs.Fixture, fixture.SaveOptions{}); err != nil {
			return paths, err
		}
		log.Debugw("wrote fixture", "test", name, "year", cs.Year, "case", cs.Key, "path", path)
		paths = append(paths, path)
	}
	return paths, nil
}

// ConvertFile converts one CSV file. The test name is the file stem.
func (c *Converter) ConvertFile(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open csv: %w", err)
	}
	defer file.Close()

	t, err := ReadTable(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	if _, ok := c.Roles[name]; !ok {
		logging.Get(logging.CategoryConvert).Warnw("no column roles for test, writing empty sections", "test", name)
	}
	cases, err := c.Build(name, t)
	if err != nil {
		return nil, err
	}
	return c.Write(name, cases)
}

// ConvertAll converts every file and returns all written paths.
func (c *Converter) ConvertAll(paths []string) ([]string, error) {
	var written []string
	for _, p := range paths {
		out, err := c.ConvertFile(p)
		written = append(written, out...)
		if err != nil {
			return written, err
		}
	}
	return written, nil
}

// ListCSV lists the *.csv files directly inside each directory. Missing
// directories are skipped.
func ListCSV(dirs ...string) ([]string, error) {
	var out []string
	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		matches, err := filepath.Glob(filepath.Join(dir, "*.csv"))
		if err != nil {
			return nil, err
		}
		sort.Strings(matches)
		out = append(out, matches...)
	}
	return out, nil
}

type group struct {
	value any
	rows  []int
}

// groupBy splits row indices by the value of col in ascending order. Rows
// with an empty cell are dropped.
func groupBy(t *Table, col string) []group {
	index := map[string]int{}
	var groups []group
	for i, v := range t.Columns[col] {
		if v == nil {
			continue
		}
		key := cellString(v)
		gi, ok := index[key]
		if !ok {
			gi = len(groups)
			index[key] = gi
			groups = append(groups, group{value: v})
		}
		groups[gi].rows = append(groups[gi].rows, i)
	}
	sort.SliceStable(groups, func(i, j int) bool {
		return less(groups[i].value, groups[j].value)
	})
	return groups
}

func less(a, b any) bool {
	switch x := a.(type) {
	case int:
		if y, ok := b.(int); ok {
			return x < y
		}
	case float64:
		if y, ok := b.(float64); ok {
			return x < y
		}
	}
	return cellString(a) < cellString(b)
}

func concat(lists ...[]string) []string {
	var out []string
	for _, l := range lists {
		out = append(out, l...)
	}
	return out
}
