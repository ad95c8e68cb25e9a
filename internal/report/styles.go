// Package report renders the fixed-width tables printed by the benchmark
// and comparison commands.
package report

import (
	"io"

	"github.com/charmbracelet/lipgloss"
)

var (
	accent  = lipgloss.Color("#8BC34A")
	muted   = lipgloss.Color("#6b7a90")
	warning = lipgloss.Color("#FFC107")
	danger  = lipgloss.Color("#e53935")
)

// Styles holds the styles a table is rendered with.
type Styles struct {
	Title   lipgloss.Style
	Bold    lipgloss.Style
	Body    lipgloss.Style
	Muted   lipgloss.Style
	Success lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style
}

// Plain returns unstyled output for files and pipes.
func Plain() Styles {
	s := lipgloss.NewStyle()
	return Styles{Title: s, Bold: s, Body: s, Muted: s, Success: s, Warning: s, Error: s}
}

// ForWriter returns colored styles when w is a terminal. Colors degrade to
// plain text otherwise.
func ForWriter(w io.Writer) Styles {
	r := lipgloss.NewRenderer(w)
	return Styles{
		Title:   r.NewStyle().Bold(true).Foreground(accent),
		Bold:    r.NewStyle().Bold(true),
		Body:    r.NewStyle(),
		Muted:   r.NewStyle().Foreground(muted),
		Success: r.NewStyle().Foreground(accent),
		Warning: r.NewStyle().Foreground(warning),
		Error:   r.NewStyle().Foreground(danger).Bold(true),
	}
}
