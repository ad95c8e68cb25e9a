package sim

import (
	"fmt"
	"sort"
)

// Table is the output of stage 3: one labelled column per target, rows in
// ascending p_id order.
type Table struct {
	PID    []float64
	Labels []string
	// Values holds one column per label.
	Values [][]float64
}

// Shape returns rows and columns, the p_id index excluded.
func (t *Table) Shape() [2]int {
	return [2]int{len(t.PID), len(t.Labels)}
}

// Column returns the values for a label.
func (t *Table) Column(label string) ([]float64, bool) {
	for i, l := range t.Labels {
		if l == label {
			return t.Values[i], true
		}
	}
	return nil, false
}

// Format labels the raw results and reorders rows by p_id.
func Format(p *Processed, raw *RawResults) (*Table, error) {
	type entry struct {
		label string
		name  string
	}
	entries := make([]entry, 0, len(p.Targets))
	seen := map[string]string{}
	for name, label := range p.Targets {
		if other, dup := seen[label]; dup {
			return nil, fmt.Errorf("label %q used by %q and %q", label, other, name)
		}
		seen[label] = name
		entries = append(entries, entry{label: label, name: name})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].label < entries[j].label })

	pid := p.Inputs[PIDColumn]
	t := &Table{
		PID:    make([]float64, len(p.ByPID)),
		Labels: make([]string, len(entries)),
		Values: make([][]float64, len(entries)),
	}
	for i, r := range p.ByPID {
		t.PID[i] = pid[r]
	}
	for j, e := range entries {
		src, ok := raw.Columns[e.name]
		if !ok {
			return nil, fmt.Errorf("%w: no result for %q", ErrUnknownTarget, e.name)
		}
		col := make([]float64, len(p.ByPID))
		for i, r := range p.ByPID {
			col[i] = src[r]
		}
		t.Labels[j] = e.label
		t.Values[j] = col
	}
	return t, nil
}
