package sim

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func add(name string, inputs ...string) Function {
	return Function{Name: name, Kind: Row, Inputs: inputs, Eval: func(a []float64) float64 {
		var s float64
		for _, v := range a {
			s += v
		}
		return s
	}}
}

func TestNewGraphOrderAndRoots(t *testing.T) {
	g, err := NewGraph([]Function{
		add("d", "b", "c"),
		add("c", "a"),
		add("b", "a", "x"),
		add("a", "x"),
	})
	require.NoError(t, err)
	assert.Equal(t, 4, g.Len())
	assert.Equal(t, []string{"x"}, g.Roots())
	assert.Equal(t, []string{"a", "b", "c", "d"}, g.TopologicalOrder())
}

func TestTopologicalOrderIgnoresInputOrder(t *testing.T) {
	funcs := []Function{add("z", "m"), add("m", "in"), add("k", "in"), add("b", "k", "z")}
	want := []string{"k", "m", "z", "b"}
	for i := 0; i < len(funcs); i++ {
		rotated := append(append([]Function{}, funcs[i:]...), funcs[:i]...)
		g, err := NewGraph(rotated)
		require.NoError(t, err)
		assert.Equal(t, want, g.TopologicalOrder())
	}
}

func TestNewGraphRejects(t *testing.T) {
	cases := map[string]struct {
		funcs []Function
		kind  error
	}{
		"empty":          {nil, ErrInvalidGraph},
		"duplicate":      {[]Function{add("a", "x"), add("a", "y")}, ErrInvalidGraph},
		"self":           {[]Function{add("a", "a")}, ErrInvalidGraph},
		"no eval":        {[]Function{{Name: "a", Kind: Row, Inputs: []string{"x"}}}, ErrInvalidGraph},
		"group no col":   {[]Function{{Name: "a", Kind: GroupSum, Inputs: []string{"x"}}}, ErrInvalidGraph},
		"count inputs":   {[]Function{{Name: "a", Kind: GroupCount, Inputs: []string{"x"}, Group: "g"}}, ErrInvalidGraph},
		"unnamed":        {[]Function{add("", "x")}, ErrInvalidGraph},
		"cycle":          {[]Function{add("a", "b"), add("b", "c"), add("c", "a")}, ErrCycle},
		"cycle via root": {[]Function{add("a", "x", "b"), add("b", "a")}, ErrCycle},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := NewGraph(tc.funcs)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tc.kind), "got %v", err)
			var ge *GraphError
			assert.True(t, errors.As(err, &ge))
		})
	}
}

func TestCycleWitnessIsStable(t *testing.T) {
	funcs := []Function{add("a", "c"), add("b", "a"), add("c", "b"), add("d", "x")}
	_, err := NewGraph(funcs)
	require.Error(t, err)
	first := err.Error()
	for i := 0; i < 5; i++ {
		_, err := NewGraph([]Function{funcs[3], funcs[2], funcs[0], funcs[1]})
		require.Error(t, err)
		assert.Equal(t, first, err.Error())
	}
	assert.Contains(t, first, "a -> b -> c -> a")
}

func TestPrune(t *testing.T) {
	g, err := NewGraph([]Function{
		add("a", "x"),
		add("b", "a"),
		add("c", "y"),
		add("d", "b", "c"),
	})
	require.NoError(t, err)

	p, err := g.Prune([]string{"b"}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, p.TopologicalOrder())
	assert.Equal(t, []string{"x"}, p.Roots())

	_, err = g.Prune([]string{"nope"}, nil)
	assert.ErrorIs(t, err, ErrUnknownTarget)

	p, err = g.Prune([]string{"y"}, func(name string) bool { return name == "y" })
	require.NoError(t, err)
	assert.Zero(t, p.Len())
	assert.Empty(t, p.TopologicalOrder())
}
