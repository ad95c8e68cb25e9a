package sim

import (
	"context"
	"fmt"
	"sort"

	"gettsimarchive/internal/logging"
)

// RawResults is the output of stage 2: target columns in input row order.
type RawResults struct {
	Columns map[string][]float64
}

// grouping lists rows by group key, members in ascending p_id order. Sums
// always run in this order, so results do not depend on the input row
// order or on how a backend splits the work.
type grouping struct {
	keys    []float64
	starts  []int // len(keys)+1 offsets into members
	members []int
}

func buildGrouping(p *Processed, key []float64, skipNegative bool) *grouping {
	rows := make([]int, 0, len(p.ByPID))
	for _, r := range p.ByPID {
		if skipNegative && key[r] < 0 {
			continue
		}
		rows = append(rows, r)
	}
	// ByPID order is kept inside each group.
	sort.SliceStable(rows, func(a, b int) bool { return key[rows[a]] < key[rows[b]] })

	g := &grouping{members: rows}
	for i, r := range rows {
		if i == 0 || key[r] != key[rows[i-1]] {
			g.keys = append(g.keys, key[r])
			g.starts = append(g.starts, i)
		}
	}
	g.starts = append(g.starts, len(rows))
	return g
}

func (g *grouping) len() int { return len(g.keys) }

func (g *grouping) group(k int) []int { return g.members[g.starts[k]:g.starts[k+1]] }

// Compute evaluates the prepared graph on a backend.
func Compute(ctx context.Context, p *Processed, backend Backend) (*RawResults, error) {
	log := logging.Get(logging.CategorySim)
	n := p.rows
	cols := make(map[string][]float64, len(p.Inputs)+len(p.Order))
	for k, v := range p.Inputs {
		cols[k] = v
	}

	groups := map[string]*grouping{}
	groupFor := func(col string, pointer bool) *grouping {
		key := col
		if pointer {
			key = "->" + col
		}
		if g, ok := groups[key]; ok {
			return g
		}
		g := buildGrouping(p, cols[col], pointer)
		groups[key] = g
		return g
	}

	for _, name := range p.Order {
		fn, _ := p.Graph.Function(name)
		args := make([][]float64, len(fn.Inputs))
		for i, in := range fn.Inputs {
			args[i] = cols[in]
		}
		out := make([]float64, n)

		var err error
		switch fn.Kind {
		case Row:
			err = backend.For(ctx, n, func(lo, hi int) {
				buf := make([]float64, len(args))
				for i := lo; i < hi; i++ {
					for j, a := range args {
						buf[j] = a[i]
					}
					out[i] = fn.Eval(buf)
				}
			})
		case GroupSum, GroupCount:
			g := groupFor(fn.Group, false)
			err = backend.For(ctx, g.len(), func(lo, hi int) {
				for k := lo; k < hi; k++ {
					members := g.group(k)
					var sum float64
					if fn.Kind == GroupCount {
						sum = float64(len(members))
					} else {
						for _, r := range members {
							sum += args[0][r]
						}
					}
					for _, r := range members {
						out[r] = sum
					}
				}
			})
		case PointerSum:
			g := groupFor(fn.Group, true)
			err = backend.For(ctx, g.len(), func(lo, hi int) {
				for k := lo; k < hi; k++ {
					target, ok := p.rowOf[int64(g.keys[k])]
					if !ok {
						continue
					}
					var sum float64
					for _, r := range g.group(k) {
						sum += args[0][r]
					}
					out[target] = sum
				}
			})
		default:
			err = fmt.Errorf("function %q: unsupported kind %s", name, fn.Kind)
		}
		if err != nil {
			return nil, fmt.Errorf("compute %s: %w", name, err)
		}
		cols[name] = out
	}

	raw := &RawResults{Columns: make(map[string][]float64, len(p.Targets))}
	for _, t := range p.Targets.Names() {
		raw.Columns[t] = cols[t]
	}
	log.Debugw("computed graph", "backend", backend.Name(), "functions", len(p.Order), "rows", n, "groupings", len(groups))
	return raw, nil
}
