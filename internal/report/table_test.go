package report

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTable(t *testing.T) {
	table := NewTable("Test Table", "Col1", "Column 2")
	table.AddRow("Row1Col1", "x")
	table.AddDivider()
	table.AddRow("y")

	view := table.Render(Plain())
	t.Logf("View:\n%s", view)

	lines := strings.Split(strings.TrimRight(view, "\n"), "\n")
	require.Len(t, lines, 6)
	assert.Equal(t, "Test Table", lines[0])
	assert.Contains(t, lines[1], "Col1")
	assert.Contains(t, lines[1], "|")
	assert.Equal(t, strings.Repeat("-", lipgloss.Width(lines[1])), lines[2])
	assert.Contains(t, lines[3], "Row1Col1")
	assert.Equal(t, lines[2], lines[4])
	for _, l := range lines[1:] {
		assert.Equal(t, lipgloss.Width(lines[1]), lipgloss.Width(l), "line %q", l)
	}
}

func TestTableEmpty(t *testing.T) {
	assert.Equal(t, "Only\n", NewTable("Only").Render(Plain()))
	table := NewTable("", "A")
	assert.Equal(t, table.String(), table.Render(Plain()))
}

func TestThousands(t *testing.T) {
	cases := map[int]string{
		0:       "0",
		999:     "999",
		1000:    "1,000",
		32767:   "32,767",
		1048576: "1,048,576",
		-4096:   "-4,096",
	}
	for in, want := range cases {
		assert.Equal(t, want, Thousands(in))
	}
}

func TestSpeedup(t *testing.T) {
	f := func(v float64) *float64 { return &v }
	assert.Equal(t, "2.00x", Speedup(f(2), f(1)))
	assert.Equal(t, "1.00x", Speedup(f(1), f(1)))
	assert.Equal(t, "1/2.00x", Speedup(f(1), f(2)))
	assert.Equal(t, "N/A", Speedup(nil, f(1)))
	assert.Equal(t, "N/A", Speedup(f(1), f(0)))
	assert.Equal(t, "FAILED", Seconds(nil))
	assert.Equal(t, "1.2346", Seconds(f(1.23456)))
	assert.Equal(t, "12.3", MB(f(12.34)))
}

func TestBanner(t *testing.T) {
	assert.Equal(t, "===\nabc\n===", Banner("abc", 3))
}
