package sim

import (
	"container/heap"
	"fmt"
	"sort"
)

// Graph is an immutable, validated DAG of policy functions. Names that no
// function produces are roots and must be supplied as data.
//
// It is safe for concurrent read access.
type Graph struct {
	byName map[string]int
	funcs  []Function // canonical order (by name)

	outgoing [][]int // by canonical index, sorted ascending
	incoming [][]int
	indeg    []int

	roots []string // sorted
}

// NewGraph builds and validates a graph. It rejects empty or duplicate
// names, invalid function shapes, self-dependencies and cycles.
func NewGraph(funcs []Function) (*Graph, error) {
	if len(funcs) == 0 {
		return nil, invalidf("no functions")
	}

	sorted := make([]Function, len(funcs))
	copy(sorted, funcs)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })

	byName := make(map[string]int, len(sorted))
	for i, f := range sorted {
		if err := f.validate(); err != nil {
			return nil, err
		}
		if _, exists := byName[f.Name]; exists {
			return nil, invalidf("duplicate function name: %q", f.Name)
		}
		byName[f.Name] = i
	}

	outgoing := make([][]int, len(sorted))
	incoming := make([][]int, len(sorted))
	indeg := make([]int, len(sorted))
	rootSet := map[string]struct{}{}
	for to, f := range sorted {
		seen := map[int]struct{}{}
		for _, dep := range f.Dependencies() {
			if dep == f.Name {
				return nil, invalidf("self-dependency: %q", f.Name)
			}
			from, ok := byName[dep]
			if !ok {
				rootSet[dep] = struct{}{}
				continue
			}
			if _, dup := seen[from]; dup {
				continue
			}
			seen[from] = struct{}{}
			outgoing[from] = append(outgoing[from], to)
			incoming[to] = append(incoming[to], from)
			indeg[to]++
		}
	}
	for i := range outgoing {
		sort.Ints(outgoing[i])
		sort.Ints(incoming[i])
	}

	roots := make([]string, 0, len(rootSet))
	for r := range rootSet {
		roots = append(roots, r)
	}
	sort.Strings(roots)

	g := &Graph{
		byName:   byName,
		funcs:    sorted,
		outgoing: outgoing,
		incoming: incoming,
		indeg:    indeg,
		roots:    roots,
	}
	if err := g.validateAcyclic(); err != nil {
		return nil, err
	}
	return g, nil
}

// Len returns the number of functions.
func (g *Graph) Len() int { return len(g.funcs) }

// Function returns a function by name.
func (g *Graph) Function(name string) (Function, bool) {
	i, ok := g.byName[name]
	if !ok {
		return Function{}, false
	}
	return g.funcs[i], true
}

// Roots returns the data inputs the graph reads, sorted.
func (g *Graph) Roots() []string {
	return append([]string(nil), g.roots...)
}

// TopologicalOrder returns a deterministic topological ordering of function names.
func (g *Graph) TopologicalOrder() []string {
	order := g.topoOrderIndices()
	names := make([]string, 0, len(order))
	for _, idx := range order {
		names = append(names, g.funcs[idx].Name)
	}
	return names
}

// Prune returns the subgraph of functions needed for targets. A target that
// is neither a function nor a root of the full graph is rejected, unless
// isInput reports it as a data column.
func (g *Graph) Prune(targets []string, isInput func(string) bool) (*Graph, error) {
	keep := make([]bool, len(g.funcs))
	var stack []int
	for _, t := range targets {
		if i, ok := g.byName[t]; ok {
			if !keep[i] {
				keep[i] = true
				stack = append(stack, i)
			}
			continue
		}
		if isInput == nil || !isInput(t) {
			return nil, fmt.Errorf("%w: %q", ErrUnknownTarget, t)
		}
	}
	for len(stack) > 0 {
		u := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, p := range g.incoming[u] {
			if !keep[p] {
				keep[p] = true
				stack = append(stack, p)
			}
		}
	}

	var funcs []Function
	for i, f := range g.funcs {
		if keep[i] {
			funcs = append(funcs, f)
		}
	}
	if len(funcs) == 0 {
		return &Graph{byName: map[string]int{}}, nil
	}
	return NewGraph(funcs)
}

func (g *Graph) validateAcyclic() error {
	order := g.topoOrderIndices()
	if len(order) == len(g.funcs) {
		return nil
	}
	return cycleError(g.findCycleDeterministic())
}

type intMinHeap []int

func (h intMinHeap) Len() int           { return len(h) }
func (h intMinHeap) Less(i, j int) bool { return h[i] < h[j] }
func (h intMinHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *intMinHeap) Push(x any)        { *h = append(*h, x.(int)) }
func (h *intMinHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

// topoOrderIndices runs Kahn's algorithm with a min-heap ready queue.
func (g *Graph) topoOrderIndices() []int {
	indeg := make([]int, len(g.indeg))
	copy(indeg, g.indeg)

	ready := &intMinHeap{}
	for i := range indeg {
		if indeg[i] == 0 {
			heap.Push(ready, i)
		}
	}

	out := make([]int, 0, len(indeg))
	for ready.Len() > 0 {
		n := heap.Pop(ready).(int)
		out = append(out, n)
		for _, m := range g.outgoing[n] {
			indeg[m]--
			if indeg[m] == 0 {
				heap.Push(ready, m)
			}
		}
	}
	return out
}

// findCycleDeterministic returns one stable cycle witness, first node repeated at the end.
func (g *Graph) findCycleDeterministic() []string {
	const (
		white = 0
		gray  = 1
		black = 2
	)

	color := make([]int, len(g.funcs))
	parent := make([]int, len(g.funcs))
	for i := range parent {
		parent[i] = -1
	}

	var cycle []int
	var dfs func(u int) bool
	dfs = func(u int) bool {
		color[u] = gray
		for _, v := range g.outgoing[u] {
			if color[v] == white {
				parent[v] = u
				if dfs(v) {
					return true
				}
				continue
			}
			if color[v] == gray {
				cycle = append(cycle, v)
				for cur := u; cur != -1 && cur != v; cur = parent[cur] {
					cycle = append(cycle, cur)
				}
				cycle = append(cycle, v)
				return true
			}
		}
		color[u] = black
		return false
	}

	for i := range g.funcs {
		if color[i] == white && dfs(i) {
			break
		}
	}

	out := make([]string, 0, len(cycle))
	for i := len(cycle) - 1; i >= 0; i-- {
		out = append(out, g.funcs[cycle[i]].Name)
	}
	return out
}
