// Package theme holds the colours and text styles shared by every screen.
package theme

import "charm.land/lipgloss/v2"

// Palette. Diagrams in the exported document stay black on white; these
// colours only apply to the terminal.
var (
	Primary   = lipgloss.Color("#3B82F6")
	Secondary = lipgloss.Color("#0EA5E9")
	Accent    = lipgloss.Color("#F59E0B")
	Success   = lipgloss.Color("#10B981")
	Error     = lipgloss.Color("#EF4444")
	Text      = lipgloss.Color("#E5E7EB")
	TextDim   = lipgloss.Color("#9CA3AF")
	Border    = lipgloss.Color("#374151")
)

var (
	Title    = lipgloss.NewStyle().Bold(true).Foreground(Primary)
	Hint     = lipgloss.NewStyle().Italic(true).Foreground(TextDim)
	Card     = lipgloss.NewStyle().Padding(0, 1).Border(lipgloss.RoundedBorder()).BorderForeground(Border)
	Selected = lipgloss.NewStyle().Bold(true).Foreground(Primary)

	Unselected = lipgloss.NewStyle().Foreground(Text)
)

// Diagram states in the worksheet view.
var (
	Done    = lipgloss.NewStyle().Bold(true).Foreground(Success)
	Waiting = lipgloss.NewStyle().Foreground(Accent)
	Failed  = lipgloss.NewStyle().Bold(true).Foreground(Error)
)
