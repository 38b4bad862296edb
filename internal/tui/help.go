package tui

import (
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/lipgloss"
)

var helpOverlayStyle = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(lipgloss.Color("62")).
	Padding(1, 2).
	MarginTop(1)

// HelpModel renders the full key binding reference. The board shows it in
// place of the columns; the two header lines above stay on screen.
type HelpModel struct {
	help   help.Model
	keymap KeyMap
}

// NewHelpModel creates the help overlay for the given bindings.
func NewHelpModel(keymap KeyMap) HelpModel {
	h := help.New()
	h.ShowAll = true
	return HelpModel{help: h, keymap: keymap}
}

// View renders the overlay sized to the terminal width.
func (m HelpModel) View(width int) string {
	m.help.Width = width - 6 // border and horizontal padding
	return helpOverlayStyle.Render(m.help.View(m.keymap))
}
