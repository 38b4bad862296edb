package tui

import "github.com/charmbracelet/lipgloss"

// Styles shared between the board and detail screens. Both render single-line
// headers, so none of these carry margins.
var (
	// TitleStyle marks the application title in the header line.
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("62")) // Purple

	// ErrorStyle is used for error messages and toasts.
	ErrorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")). // Red
			Bold(true)

	// HelpStyle dims the key hint line under the title.
	HelpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")) // Dark gray
)
