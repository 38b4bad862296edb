package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"
	"github.com/pkg/browser"
	"github.com/robby/roadmap/internal/board"
	"github.com/robby/roadmap/internal/domain"
	"github.com/robby/roadmap/internal/locale"
)

// Layout constants
const (
	leftPanelRatio = 0.35 // Left panel takes 35% of width
	minLeftWidth   = 30
	maxLeftWidth   = 50
	headerHeight   = 1
	footerHeight   = 1
	borderSize     = 2 // Top + bottom border
)

// Detail view styles
var (
	detailTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("205"))

	detailLabelStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("241"))

	detailValueStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("252"))

	panelBorderStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("240"))

	focusedPanelBorderStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("205"))

	scrollIndicatorStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("205"))

	upVoteStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("34"))

	downVoteStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))
)

// DetailModel renders one roadmap item in a split-screen layout: metadata on
// the left, the description in a scrollable viewport on the right.
type DetailModel struct {
	item domain.Item
	spec board.ColumnSpec
	tr   locale.Translator

	viewport viewport.Model

	width  int
	height int
}

// NewDetailModel creates a detail view for one item.
func NewDetailModel(item domain.Item, tr locale.Translator) DetailModel {
	vp := viewport.New(40, 10) // Will be resized in WindowSizeMsg
	vp.MouseWheelEnabled = true
	vp.MouseWheelDelta = 3

	spec, _ := board.SpecFor(item.Status)

	m := DetailModel{
		item:     item,
		spec:     spec,
		tr:       tr,
		viewport: vp,
	}
	m.updateViewportContent()
	return m
}

// Init initializes the detail model.
func (m DetailModel) Init() tea.Cmd {
	return tea.WindowSize()
}

// Update handles messages
func (m DetailModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resizeComponents()
		return m, nil

	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case tea.MouseMsg:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}

	return m, nil
}

// resizeComponents calculates and sets component dimensions
func (m *DetailModel) resizeComponents() {
	leftWidth := int(float64(m.width) * leftPanelRatio)
	if leftWidth < minLeftWidth {
		leftWidth = minLeftWidth
	}
	if leftWidth > maxLeftWidth {
		leftWidth = maxLeftWidth
	}

	rightWidth := m.width - leftWidth - 3 // 3 = gap between panels
	if rightWidth < 30 {
		rightWidth = 30
	}

	contentHeight := m.height - headerHeight - footerHeight - borderSize
	if contentHeight < 10 {
		contentHeight = 10
	}

	m.viewport.Width = rightWidth - borderSize - 2 // -2 for padding
	m.viewport.Height = contentHeight - borderSize

	// Re-wrap the description for the new width
	m.updateViewportContent()
}

// handleKeyPress processes keyboard input
func (m DetailModel) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "q", "esc", "enter":
		return m, func() tea.Msg { return closeDetailMsg{} }
	case "o":
		if m.item.URL != "" {
			_ = browser.OpenURL(m.item.URL)
		}
	case "j", "down":
		m.viewport.LineDown(1)
	case "k", "up":
		m.viewport.LineUp(1)
	case "ctrl+d":
		m.viewport.HalfViewDown()
	case "ctrl+u":
		m.viewport.HalfViewUp()
	case "g":
		m.viewport.GotoTop()
	case "G":
		m.viewport.GotoBottom()
	}

	return m, nil
}

// View renders the split-screen detail view
func (m DetailModel) View() string {
	width := m.width
	height := m.height
	if width == 0 {
		width = 100
	}
	if height == 0 {
		height = 30
	}

	leftWidth := int(float64(width) * leftPanelRatio)
	if leftWidth < minLeftWidth {
		leftWidth = minLeftWidth
	}
	if leftWidth > maxLeftWidth {
		leftWidth = maxLeftWidth
	}
	rightWidth := width - leftWidth - 1 // 1 char gap

	contentHeight := height - headerHeight - footerHeight
	if contentHeight < 10 {
		contentHeight = 10
	}

	header := m.renderHeader()

	leftContent := m.renderLeftPanel(leftWidth - borderSize)
	leftPanel := panelBorderStyle.
		Width(leftWidth - borderSize).
		Height(contentHeight - borderSize).
		Render(leftContent)

	rightContent := m.renderRightPanel()
	rightPanel := focusedPanelBorderStyle.
		Width(rightWidth - borderSize).
		Height(contentHeight - borderSize).
		Render(rightContent)

	panels := lipgloss.JoinHorizontal(lipgloss.Top, leftPanel, " ", rightPanel)

	footer := m.renderFooter(width)

	return lipgloss.JoinVertical(lipgloss.Left, header, panels, footer)
}

// renderHeader renders the top help bar
func (m DetailModel) renderHeader() string {
	parts := []string{"[q]back", "[o]open", "[j/k]scroll", "[g/G]top/bottom"}
	return dimStyle.Render(strings.Join(parts, " "))
}

// renderFooter renders the bottom status bar
func (m DetailModel) renderFooter(width int) string {
	left := ""
	if m.item.URL != "" {
		left = m.item.URL
	}

	right := ""
	if m.item.Description != "" {
		if m.viewport.AtTop() && m.viewport.AtBottom() {
			right = ""
		} else if m.viewport.AtTop() {
			right = "TOP"
		} else if m.viewport.AtBottom() {
			right = "END"
		} else {
			right = fmt.Sprintf("%d%%", int(m.viewport.ScrollPercent()*100))
		}
	}

	padding := width - lipgloss.Width(left) - lipgloss.Width(right) - 2
	if padding < 1 {
		padding = 1
	}

	return dimStyle.Render(left) + strings.Repeat(" ", padding) + dimStyle.Render(right)
}

// renderLeftPanel renders the item metadata panel
func (m DetailModel) renderLeftPanel(width int) string {
	var b strings.Builder

	statusStyle := detailLabelStyle
	if m.spec.Accent != "" {
		statusStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(m.spec.Accent))
	}
	b.WriteString(statusStyle.Render(m.tr.T(m.spec.LabelKey)))
	b.WriteString("\n\n")

	title := wordwrap.String(m.item.DisplayTitle(), width-2)
	b.WriteString(detailTitleStyle.Render(title))
	b.WriteString("\n\n")

	b.WriteString(detailLabelStyle.Render("Votes: "))
	b.WriteString(detailValueStyle.Render(fmt.Sprintf("%d", m.item.VoteScore())))
	if m.item.VotesUp != nil && m.item.VotesDown != nil {
		b.WriteString("  ")
		b.WriteString(upVoteStyle.Render(fmt.Sprintf("▲%d", *m.item.VotesUp)))
		b.WriteString(" ")
		b.WriteString(downVoteStyle.Render(fmt.Sprintf("▼%d", *m.item.VotesDown)))
	}
	b.WriteString("\n")

	b.WriteString(detailLabelStyle.Render("Comments: "))
	b.WriteString(detailValueStyle.Render(fmt.Sprintf("%d", m.item.Comments)))
	b.WriteString("\n")

	if m.item.Author != "" {
		b.WriteString(detailLabelStyle.Render("Author: "))
		b.WriteString(detailValueStyle.Render(m.item.Author))
		b.WriteString("\n")
	}

	if len(m.item.Labels) > 0 {
		b.WriteString(detailLabelStyle.Render("Labels: "))
		labels := strings.Join(m.item.Labels, ", ")
		if len(labels) > width-10 {
			labels = labels[:width-13] + "..."
		}
		b.WriteString(detailValueStyle.Render(labels))
		b.WriteString("\n")
	}

	if !m.item.CreatedAt.IsZero() {
		b.WriteString(detailLabelStyle.Render("Created: "))
		b.WriteString(detailValueStyle.Render(m.item.CreatedAt.String()))
		b.WriteString("\n")
	}

	if m.item.ShippedAt != nil {
		b.WriteString(detailLabelStyle.Render("Shipped: "))
		b.WriteString(detailValueStyle.Render(m.item.ShippedAt.String()))
		b.WriteString("\n")
	}

	return b.String()
}

// renderRightPanel renders the description panel with viewport
func (m DetailModel) renderRightPanel() string {
	var b strings.Builder

	title := "Description"
	scrollHint := ""
	if m.item.Description != "" && m.viewport.TotalLineCount() > m.viewport.Height {
		if m.viewport.AtTop() {
			scrollHint = " ↓"
		} else if m.viewport.AtBottom() {
			scrollHint = " ↑"
		} else {
			scrollHint = " ↕"
		}
	}

	b.WriteString(detailLabelStyle.Render(title))
	b.WriteString(scrollIndicatorStyle.Render(scrollHint))
	b.WriteString("\n")

	if m.item.Description == "" {
		b.WriteString("\n")
		b.WriteString(dimStyle.Render("No description"))
		return b.String()
	}

	b.WriteString(m.viewport.View())

	return b.String()
}

// updateViewportContent wraps the description for the current viewport width.
func (m *DetailModel) updateViewportContent() {
	wrapWidth := m.viewport.Width - 2
	if wrapWidth < 30 {
		wrapWidth = 30
	}

	wrapped := wordwrap.String(m.item.Description, wrapWidth)
	m.viewport.SetContent(detailValueStyle.Render(wrapped))
}
