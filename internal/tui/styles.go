package tui

import (
	"github.com/charmbracelet/lipgloss"
)

// Styles holds the lipgloss styles for the watch view.
type Styles struct {
	Title    lipgloss.Style
	Scenario lipgloss.Style

	// State badges
	StateRunning  lipgloss.Style
	StatePaused   lipgloss.Style
	StateFinished lipgloss.Style

	// Progress bars
	BarFilled lipgloss.Style
	BarEmpty  lipgloss.Style

	// Runner rows
	RunnerName lipgloss.Style
	RunnerKind lipgloss.Style
	Value      lipgloss.Style
	Evicted    lipgloss.Style

	Muted lipgloss.Style
	Error lipgloss.Style
}

// DefaultStyles returns the default style configuration.
func DefaultStyles() Styles {
	return Styles{
		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("252")),
		Scenario: lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")),

		// Subtle colors, matching terminal defaults
		StateRunning: lipgloss.NewStyle().
			Foreground(lipgloss.Color("71")), // Muted green
		StatePaused: lipgloss.NewStyle().
			Foreground(lipgloss.Color("179")), // Muted yellow
		StateFinished: lipgloss.NewStyle().
			Foreground(lipgloss.Color("243")), // Gray

		BarFilled: lipgloss.NewStyle().
			Foreground(lipgloss.Color("75")),
		BarEmpty: lipgloss.NewStyle().
			Foreground(lipgloss.Color("238")),

		RunnerName: lipgloss.NewStyle().
			Foreground(lipgloss.Color("252")),
		RunnerKind: lipgloss.NewStyle().
			Foreground(lipgloss.Color("243")),
		Value: lipgloss.NewStyle().
			Foreground(lipgloss.Color("114")),
		Evicted: lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Strikethrough(true),

		Muted: lipgloss.NewStyle().
			Foreground(lipgloss.Color("243")),
		Error: lipgloss.NewStyle().
			Foreground(lipgloss.Color("167")),
	}
}
