package report

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Table is a static table with a title and a header row.
type Table struct {
	Title   string
	Headers []string
	Rows    [][]string
	// Dividers holds row indices that are preceded by a divider line.
	Dividers map[int]bool
}

// NewTable creates a table with the given title and headers.
func NewTable(title string, headers ...string) *Table {
	return &Table{
		Title:    title,
		Headers:  headers,
		Rows:     make([][]string, 0),
		Dividers: map[int]bool{},
	}
}

// AddRow adds a row to the table. Missing cells render empty.
func (t *Table) AddRow(row ...string) {
	t.Rows = append(t.Rows, row)
}

// AddDivider puts a divider line before the next row.
func (t *Table) AddDivider() {
	t.Dividers[len(t.Rows)] = true
}

// Render draws the table. A table without headers renders its title only.
func (t *Table) Render(styles Styles) string {
	var sb strings.Builder

	if t.Title != "" {
		sb.WriteString(styles.Title.Render(t.Title))
		sb.WriteString("\n")
	}
	if len(t.Headers) == 0 {
		return sb.String()
	}

	widths := make([]int, len(t.Headers))
	for i, h := range t.Headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range t.Rows {
		for i, cell := range row {
			if i < len(widths) {
				widths[i] = max(widths[i], lipgloss.Width(cell))
			}
		}
	}
	total := len(widths) - 1
	for i := range widths {
		widths[i] += 2
		total += widths[i]
	}

	headerStyle := styles.Bold.Padding(0, 1)
	cellStyle := styles.Body.Padding(0, 1)
	divider := styles.Muted.Render(strings.Repeat("-", total)) + "\n"

	line := func(cells []string, style lipgloss.Style) {
		for i := range widths {
			cell := ""
			if i < len(cells) {
				cell = cells[i]
			}
			sb.WriteString(style.Width(widths[i]).Render(cell))
			if i < len(widths)-1 {
				sb.WriteString(styles.Muted.Render("|"))
			}
		}
		sb.WriteString("\n")
	}

	line(t.Headers, headerStyle)
	sb.WriteString(divider)
	for i, row := range t.Rows {
		if i > 0 && t.Dividers[i] {
			sb.WriteString(divider)
		}
		line(row, cellStyle)
	}
	if t.Dividers[len(t.Rows)] && len(t.Rows) > 0 {
		sb.WriteString(divider)
	}
	return sb.String()
}

// String renders the table with Plain styles.
func (t *Table) String() string { return t.Render(Plain()) }
