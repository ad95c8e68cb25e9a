package sim

import (
	"context"
	"fmt"
	"sort"
	"time"

	"gettsimarchive/internal/qname"
)

// PIDColumn is the qualified name of the person id input.
const PIDColumn = "p_id"

// Columns is the columnar data a run reads. household.Frame implements it.
type Columns interface {
	Len() int
	Column(name string) []float64
}

// Source says where an input comes from: a data column or a constant.
type Source struct {
	Column   string
	Constant float64
	IsConst  bool
}

// Col maps an input to a data column.
func Col(name string) Source { return Source{Column: name} }

// Const maps an input to a constant.
func Const(v float64) Source { return Source{Constant: v, IsConst: true} }

// Mapper maps qualified input names to their sources.
type Mapper map[string]Source

// Targets maps qualified target names to output labels.
type Targets map[string]string

// TargetsFromTree flattens a nested target tree whose leaves are labels.
func TargetsFromTree(tree map[string]any) (Targets, error) {
	out := Targets{}
	for name, v := range qname.Flatten(tree) {
		label, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("target %q: label must be a string, got %T", name, v)
		}
		out[name] = label
	}
	return out, nil
}

// Names returns the target names sorted.
func (t Targets) Names() []string { return qname.SortedKeys(t) }

// PolicyFunc returns the policy functions in force on a date.
type PolicyFunc func(date time.Time) ([]Function, error)

// Processed is the output of stage 1.
type Processed struct {
	Graph   *Graph
	Order   []string
	Inputs  map[string][]float64
	Targets Targets
	// ByPID lists row indices in ascending p_id order.
	ByPID []int
	rowOf map[int64]int
	rows  int
}

// Rows returns the number of person rows.
func (p *Processed) Rows() int { return p.rows }

// Prepare maps the data onto the policy inputs and builds the DAG pruned
// to the targets.
func Prepare(ctx context.Context, data Columns, mapper Mapper, targets Targets, policy PolicyFunc, date time.Time) (*Processed, error) {
	if len(targets) == 0 {
		return nil, fmt.Errorf("%w: no targets", ErrUnknownTarget)
	}
	funcs, err := policy(date)
	if err != nil {
		return nil, fmt.Errorf("failed to load policy for %s: %w", date.Format(time.DateOnly), err)
	}
	full, err := NewGraph(funcs)
	if err != nil {
		return nil, err
	}
	_, mapped := mapper[PIDColumn]
	if !mapped {
		return nil, fmt.Errorf("%w: %q has no mapping", ErrMissingInput, PIDColumn)
	}
	g, err := full.Prune(targets.Names(), func(name string) bool {
		_, ok := mapper[name]
		return ok
	})
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	n := data.Len()
	needed := append(g.Roots(), PIDColumn)
	for _, t := range targets.Names() {
		if _, isFunc := g.Function(t); !isFunc {
			needed = append(needed, t)
		}
	}
	inputs := make(map[string][]float64, len(needed))
	for _, name := range needed {
		if _, done := inputs[name]; done {
			continue
		}
		src, ok := mapper[name]
		if !ok {
			return nil, fmt.Errorf("%w: %q has no mapping", ErrMissingInput, name)
		}
		if src.IsConst {
			col := make([]float64, n)
			for i := range col {
				col[i] = src.Constant
			}
			inputs[name] = col
			continue
		}
		col := data.Column(src.Column)
		if col == nil {
			return nil, fmt.Errorf("%w: %q maps to unknown column %q", ErrMissingInput, name, src.Column)
		}
		inputs[name] = col
	}

	pid := inputs[PIDColumn]
	byPID := make([]int, n)
	for i := range byPID {
		byPID[i] = i
	}
	sort.Slice(byPID, func(a, b int) bool { return pid[byPID[a]] < pid[byPID[b]] })
	rowOf := make(map[int64]int, n)
	for _, r := range byPID {
		id := int64(pid[r])
		if _, dup := rowOf[id]; dup {
			return nil, fmt.Errorf("%w: %d", ErrDuplicateID, id)
		}
		rowOf[id] = r
	}

	return &Processed{
		Graph:   g,
		Order:   g.TopologicalOrder(),
		Inputs:  inputs,
		Targets: targets,
		ByPID:   byPID,
		rowOf:   rowOf,
		rows:    n,
	}, nil
}
