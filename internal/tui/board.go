package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/pkg/browser"
	"github.com/robby/roadmap/internal/board"
	"github.com/robby/roadmap/internal/domain"
	"github.com/robby/roadmap/internal/locale"
	"github.com/robby/roadmap/internal/platform"
	"github.com/robby/roadmap/internal/store"
	"github.com/robby/roadmap/internal/sync"
)

// Layout constants
const (
	minColumnWidth = 20
	maxColumnWidth = 35
	headerLines    = 1  // Single header line with title + status
	pageJumpSize   = 10 // Number of items to jump with Ctrl+D/U
)

// Styles for the board view - base styles without width/height (set dynamically)
var (
	cardStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))
)

// sortNames maps sort orders to their status-bar labels.
var sortNames = map[board.Sort]string{
	board.SortFeed:    "feed",
	board.SortVotes:   "votes",
	board.SortCreated: "newest",
}

// BoardModel renders the four roadmap columns and drives sync cycles from
// user input, the polling timer and push signals.
type BoardModel struct {
	// Dependencies
	store  *store.Store
	syncer *sync.Syncer
	tr     locale.Translator
	ctx    context.Context

	// UI components
	keymap      KeyMap
	help        HelpModel
	spinner     spinner.Model
	filterInput textinput.Model

	// Refresh triggers
	interval time.Duration
	signals  <-chan platform.UpdateSignal

	// Board state
	columns        []board.Column  // Full projection in column order
	visible        [][]domain.Item // Filtered items per column
	order          board.Sort
	version        store.Version
	selectedColumn int
	columnOffset   int   // Horizontal scroll offset (first visible column index)
	selectedItem   []int // Per-column selected item index
	scrollOffset   []int // Per-column scroll offset

	// View state
	width      int
	height     int
	showHelp   bool
	filterMode bool
	filterText string
	syncing    bool
	errorToast string
}

// NewBoardModel creates a board over the shared store. The notifier may be
// nil when no push channel is wired.
func NewBoardModel(s *store.Store, syncer *sync.Syncer, tr locale.Translator, interval time.Duration, notifier platform.Notifier, ctx context.Context) BoardModel {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	ti := textinput.New()
	ti.Placeholder = "Filter..."
	ti.Prompt = "/ "

	var signals <-chan platform.UpdateSignal
	if notifier != nil {
		ch, _ := notifier.Subscribe()
		signals = ch
	}

	m := BoardModel{
		store:        s,
		syncer:       syncer,
		tr:           tr,
		ctx:          ctx,
		keymap:       DefaultKeyMap(),
		help:         NewHelpModel(DefaultKeyMap()),
		spinner:      sp,
		filterInput:  ti,
		interval:     interval,
		signals:      signals,
		selectedItem: make([]int, len(board.Specs())),
		scrollOffset: make([]int, len(board.Specs())),
		syncing:      true,
	}
	(&m).rebuild()
	return m
}

// Init starts the spinner, the first sync cycle and the refresh triggers.
func (m BoardModel) Init() tea.Cmd {
	cmds := []tea.Cmd{
		m.spinner.Tick,
		tea.WindowSize(),
		m.syncCmd("startup"),
	}
	if m.interval > 0 {
		cmds = append(cmds, m.tickCmd())
	}
	if m.signals != nil {
		cmds = append(cmds, m.waitForPush())
	}
	return tea.Batch(cmds...)
}

// Update handles messages
func (m BoardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case syncedMsg:
		m.syncing = false
		switch {
		case errors.Is(msg.err, sync.ErrSuperseded):
			// A fresher cycle already landed; nothing to show.
		case msg.err != nil:
			m.errorToast = fmt.Sprintf("Sync failed: %v", msg.err)
		default:
			m.errorToast = ""
		}
		(&m).rebuild()
		return m, nil

	case syncTickMsg:
		m.syncing = true
		return m, tea.Batch(m.syncCmd("timer"), m.tickCmd())

	case pushMsg:
		m.syncing = true
		return m, tea.Batch(m.syncCmd(msg.origin), m.waitForPush())

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		return m.handleKeyPress(msg)
	}

	return m, nil
}

// handleKeyPress processes keyboard input
func (m BoardModel) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Global quit
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}

	// Help overlay
	if m.showHelp {
		if msg.String() == "?" || msg.String() == "q" || msg.String() == "esc" {
			m.showHelp = false
		}
		return m, nil
	}

	// Filter mode
	if m.filterMode {
		switch msg.String() {
		case "enter":
			m.filterMode = false
			m.filterText = m.filterInput.Value()
			(&m).applyFilter()
			return m, nil
		case "esc":
			m.filterMode = false
			m.filterInput.SetValue(m.filterText)
			return m, nil
		default:
			var cmd tea.Cmd
			m.filterInput, cmd = m.filterInput.Update(msg)
			return m, cmd
		}
	}

	// Normal navigation
	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "?":
		m.showHelp = true
	case "/":
		m.filterMode = true
		m.filterInput.Focus()
	case "h", "left":
		if m.selectedColumn > 0 {
			m.selectedColumn--
			(&m).adjustColumnScroll()
		}
	case "l", "right":
		if m.selectedColumn < len(m.columns)-1 {
			m.selectedColumn++
			(&m).adjustColumnScroll()
		}
	case "j", "down":
		(&m).moveSelection(1)
	case "k", "up":
		(&m).moveSelection(-1)
	case "g":
		(&m).jumpToItem(0)
	case "G":
		(&m).jumpToItem(-1)
	case "ctrl+d":
		(&m).moveSelection(pageJumpSize)
	case "ctrl+u":
		(&m).moveSelection(-pageJumpSize)
	case "s":
		m.order = (m.order + 1) % 3
		(&m).rebuild()
	case "o":
		if item, ok := m.getSelectedItem(); ok && item.URL != "" {
			_ = browser.OpenURL(item.URL)
		}
	case "r":
		m.syncing = true
		m.errorToast = ""
		return m, m.syncCmd("manual")
	case "enter":
		if item, ok := m.getSelectedItem(); ok {
			return m, func() tea.Msg { return openDetailMsg{item: item} }
		}
	}

	return m, nil
}

// View renders the board - fills entire terminal exactly
func (m BoardModel) View() string {
	// Use sensible defaults if dimensions not yet set
	width := m.width
	height := m.height
	if width == 0 {
		width = 80
	}
	if height == 0 {
		height = 24
	}

	var sections []string

	// === HEADER (title + status) ===
	sections = append(sections, m.renderHeader(width))

	// === SECOND HEADER LINE (navigation hints + position) ===
	sections = append(sections, m.renderSecondHeader(width))

	// === FILTER INPUT (if active) ===
	if m.filterMode {
		sections = append(sections, m.filterInput.View())
	}

	// Board height: total minus header, second header and optional filter line
	boardHeight := height - 2
	if m.filterMode {
		boardHeight--
	}
	if boardHeight < 5 {
		boardHeight = 5
	}

	// === MAIN CONTENT ===
	var mainContent string
	if m.showHelp {
		helpContent := m.help.View(width)
		helpLines := strings.Split(helpContent, "\n")
		if len(helpLines) > boardHeight {
			helpLines = helpLines[:boardHeight]
		}
		mainContent = strings.Join(helpLines, "\n")
	} else if m.syncing && m.totalItems() == 0 {
		loadingMsg := m.spinner.View() + " Syncing roadmap..."
		mainContent = lipgloss.Place(width, boardHeight, lipgloss.Center, lipgloss.Center, loadingMsg)
	} else {
		mainContent = m.renderBoard(width, boardHeight)
	}
	sections = append(sections, mainContent)

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// renderHeader renders a single header line with title on left and status on right
func (m BoardModel) renderHeader(width int) string {
	title := "Roadmap"

	var statusParts []string

	if m.syncing {
		statusParts = append(statusParts, m.spinner.View()+"syncing")
	}

	statusParts = append(statusParts, fmt.Sprintf("%d items", m.totalItems()))
	statusParts = append(statusParts, "sort:"+sortNames[m.order])

	if m.filterText != "" {
		statusParts = append(statusParts, fmt.Sprintf("/%s", m.filterText))
	}

	if !m.version.SyncedAt.IsZero() {
		statusParts = append(statusParts, "synced "+relativeTime(m.version.SyncedAt))
	}

	statusParts = append(statusParts, "[?]help")

	status := strings.Join(statusParts, " | ")

	padding := width - len(title) - lipgloss.Width(status) - 2
	if padding < 1 {
		padding = 1
	}

	return TitleStyle.Render(title) + strings.Repeat(" ", padding) + dimStyle.Render(status)
}

// renderSecondHeader renders navigation hints and position info
func (m BoardModel) renderSecondHeader(width int) string {
	left := "h/l:col j/k:item s:sort o:open enter:view r:refresh"

	right := ""
	if m.errorToast != "" {
		right = ErrorStyle.Render(m.errorToast)
	} else if len(m.columns) > 0 {
		items := m.visible[m.selectedColumn]
		colPos := fmt.Sprintf("col %d/%d", m.selectedColumn+1, len(m.columns))
		if len(items) > 0 {
			right = fmt.Sprintf("%s | item %d/%d", colPos, m.selectedItem[m.selectedColumn]+1, len(items))
		} else {
			right = colPos
		}
	}

	padding := width - len(left) - lipgloss.Width(right) - 2
	if padding < 1 {
		padding = 1
	}

	return HelpStyle.Render(left) + strings.Repeat(" ", padding) + right
}

// renderBoard renders the roadmap columns within the given dimensions.
// Implements horizontal scrolling (carousel) when columns overflow.
func (m BoardModel) renderBoard(totalWidth, totalHeight int) string {
	numCols := len(m.columns)
	if numCols == 0 {
		return ""
	}

	// lipgloss borders add 2 lines, so content height is totalHeight - 2
	colContentHeight := totalHeight - 2
	if colContentHeight < 3 {
		colContentHeight = 3
	}

	maxVisibleCols := totalWidth / minColumnWidth
	if maxVisibleCols < 1 {
		maxVisibleCols = 1
	}

	visibleCols := maxVisibleCols
	if visibleCols > numCols {
		visibleCols = numCols
	}

	colWidth := totalWidth / visibleCols
	if colWidth > maxColumnWidth {
		colWidth = maxColumnWidth
	}
	if colWidth < minColumnWidth {
		colWidth = minColumnWidth
	}

	// Content width inside column (minus border and padding: 2 border + 2 padding = 4)
	innerWidth := colWidth - 4
	if innerWidth < 10 {
		innerWidth = 10
	}

	// Header and subtitle occupy the top two lines of each column
	maxCardLines := colContentHeight - 2
	if maxCardLines < 1 {
		maxCardLines = 1
	}

	startCol := m.columnOffset
	endCol := startCol + visibleCols
	if endCol > numCols {
		endCol = numCols
		startCol = endCol - visibleCols
		if startCol < 0 {
			startCol = 0
		}
	}

	columnViews := make([]string, 0, visibleCols)

	if startCol > 0 {
		indicator := lipgloss.NewStyle().
			Width(2).
			Height(colContentHeight+2).
			Foreground(lipgloss.Color("205")).
			Align(lipgloss.Center, lipgloss.Center).
			Render("◀")
		columnViews = append(columnViews, indicator)
	}

	for i := startCol; i < endCol; i++ {
		isSelected := i == m.selectedColumn
		columnViews = append(columnViews, m.renderColumn(i, isSelected, colWidth, colContentHeight, innerWidth, maxCardLines))
	}

	if endCol < numCols {
		indicator := lipgloss.NewStyle().
			Width(2).
			Height(colContentHeight+2).
			Foreground(lipgloss.Color("205")).
			Align(lipgloss.Center, lipgloss.Center).
			Render("▶")
		columnViews = append(columnViews, indicator)
	}

	return lipgloss.JoinHorizontal(lipgloss.Top, columnViews...)
}

// renderColumn renders a single column with proper sizing.
// innerHeight is the content area height, not including the border.
func (m BoardModel) renderColumn(colIdx int, selected bool, width, innerHeight, innerWidth, maxCardLines int) string {
	col := m.columns[colIdx]
	items := m.visible[colIdx]
	spec := col.Spec

	headerText := fmt.Sprintf("%s (%d)", col.Label, len(items))
	if len(headerText) > innerWidth {
		headerText = headerText[:innerWidth-1] + "…"
	}
	subtitle := col.Subtitle
	if len(subtitle) > innerWidth {
		subtitle = subtitle[:innerWidth-1] + "…"
	}

	scrollOffset := m.scrollOffset[colIdx]
	selectedIdx := m.selectedItem[colIdx]

	cardSlots := maxCardLines
	if cardSlots < 1 {
		cardSlots = 1
	}

	needUpIndicator := scrollOffset > 0
	availableSlots := cardSlots
	if needUpIndicator {
		availableSlots--
	}

	endIdx := scrollOffset + availableSlots
	if endIdx > len(items) {
		endIdx = len(items)
	}

	needDownIndicator := false
	if endIdx < len(items) {
		needDownIndicator = true
		availableSlots--
		endIdx = scrollOffset + availableSlots
		if endIdx > len(items) {
			endIdx = len(items)
		}
	}

	headerStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color(spec.Accent))
	selectedItemStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color(spec.Glow))
	itemStyle := cardStyle
	if spec.Text != "" {
		itemStyle = lipgloss.NewStyle().Foreground(lipgloss.Color(spec.Text))
	}

	var lines []string
	lines = append(lines, headerStyle.Render(headerText))
	lines = append(lines, dimStyle.Render(subtitle))

	if needUpIndicator {
		lines = append(lines, dimStyle.Render(fmt.Sprintf("↑ %d more", scrollOffset)))
	}

	for i := scrollOffset; i < endIdx; i++ {
		itemText := m.formatItemText(items[i], innerWidth-2) // 2 for "> " or "  " prefix
		if selected && i == selectedIdx {
			lines = append(lines, selectedItemStyle.Render("> "+itemText))
		} else {
			lines = append(lines, itemStyle.Render("  "+itemText))
		}
	}

	remaining := len(items) - endIdx
	if needDownIndicator && remaining > 0 {
		lines = append(lines, dimStyle.Render(fmt.Sprintf("↓ %d more", remaining)))
	}

	if len(items) == 0 {
		lines = append(lines, dimStyle.Render("(empty)"))
	}

	content := strings.Join(lines, "\n")

	borderColor := lipgloss.Color("240")
	if selected {
		borderColor = lipgloss.Color(spec.Accent)
	}

	// Width includes border (2) + padding (2); Height sets the content area,
	// the border adds 2 more lines. MaxHeight would truncate the border.
	colStyle := lipgloss.NewStyle().
		Width(width - 2).
		Height(innerHeight).
		Padding(0, 1).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(borderColor)

	return colStyle.Render(content)
}

// formatItemText formats an item for display with max width.
// Right-aligns the vote score.
func (m BoardModel) formatItemText(item domain.Item, maxWidth int) string {
	title := item.DisplayTitle()
	suffix := fmt.Sprintf("▲%d", item.VoteScore())

	// Leave room for suffix + 1 space gap
	availableForTitle := maxWidth - lipgloss.Width(suffix) - 1
	if availableForTitle < 5 {
		availableForTitle = 5
	}

	if len(title) > availableForTitle {
		title = title[:availableForTitle-1] + "…"
	}

	padding := maxWidth - len(title) - lipgloss.Width(suffix)
	if padding < 1 {
		padding = 1
	}

	return title + strings.Repeat(" ", padding) + dimStyle.Render(suffix)
}

// rebuild re-projects the columns from the current store state.
func (m *BoardModel) rebuild() {
	set, version := m.store.Current()
	m.columns = board.Project(set, m.tr, m.order)
	m.version = version
	m.applyFilter()
}

// applyFilter recomputes the visible items per column.
func (m *BoardModel) applyFilter() {
	m.visible = make([][]domain.Item, len(m.columns))
	needle := strings.ToLower(m.filterText)

	for idx, col := range m.columns {
		if needle == "" {
			m.visible[idx] = col.Items
			continue
		}
		filtered := make([]domain.Item, 0, len(col.Items))
		for _, item := range col.Items {
			if matchesFilter(item, needle) {
				filtered = append(filtered, item)
			}
		}
		m.visible[idx] = filtered
	}

	// Reset scroll and clamp selection so a shrunken column never points
	// past its last item.
	for idx := range m.visible {
		m.scrollOffset[idx] = 0
		if m.selectedItem[idx] >= len(m.visible[idx]) {
			if len(m.visible[idx]) > 0 {
				m.selectedItem[idx] = len(m.visible[idx]) - 1
			} else {
				m.selectedItem[idx] = 0
			}
		}
	}
}

// matchesFilter reports whether the item matches a lowercased needle.
func matchesFilter(item domain.Item, needle string) bool {
	if strings.Contains(strings.ToLower(item.DisplayTitle()), needle) {
		return true
	}
	if strings.Contains(strings.ToLower(item.Description), needle) {
		return true
	}
	for _, label := range item.Labels {
		if strings.Contains(strings.ToLower(label), needle) {
			return true
		}
	}
	return false
}

// moveSelection moves the item selection up or down by delta
func (m *BoardModel) moveSelection(delta int) {
	items := m.visible[m.selectedColumn]
	if len(items) == 0 {
		return
	}

	newIdx := m.selectedItem[m.selectedColumn] + delta
	if newIdx < 0 {
		newIdx = 0
	}
	if newIdx >= len(items) {
		newIdx = len(items) - 1
	}

	m.selectedItem[m.selectedColumn] = newIdx
	m.adjustScroll()
}

// jumpToItem jumps to a specific item index. Use -1 to jump to the last item.
func (m *BoardModel) jumpToItem(idx int) {
	items := m.visible[m.selectedColumn]
	if len(items) == 0 {
		return
	}

	if idx < 0 || idx >= len(items) {
		idx = len(items) - 1
	}

	m.selectedItem[m.selectedColumn] = idx
	m.adjustScroll()
}

// adjustScroll ensures the selected item is visible
func (m *BoardModel) adjustScroll() {
	colIdx := m.selectedColumn
	selectedIdx := m.selectedItem[colIdx]
	scrollOffset := m.scrollOffset[colIdx]

	contentHeight := m.height - headerLines - 2 // 2 for column borders
	if m.filterMode {
		contentHeight--
	}
	cardsHeight := contentHeight - 4 // header + subtitle + potential scroll indicators
	if cardsHeight < 3 {
		cardsHeight = 3
	}

	if selectedIdx < scrollOffset {
		m.scrollOffset[colIdx] = selectedIdx
	}
	if selectedIdx >= scrollOffset+cardsHeight {
		m.scrollOffset[colIdx] = selectedIdx - cardsHeight + 1
	}
}

// adjustColumnScroll ensures the selected column is visible (horizontal carousel)
func (m *BoardModel) adjustColumnScroll() {
	if len(m.columns) == 0 || m.width == 0 {
		return
	}

	visibleCols := m.width / minColumnWidth
	if visibleCols < 1 {
		visibleCols = 1
	}
	if visibleCols > len(m.columns) {
		visibleCols = len(m.columns)
	}

	if m.selectedColumn < m.columnOffset {
		m.columnOffset = m.selectedColumn
	}
	if m.selectedColumn >= m.columnOffset+visibleCols {
		m.columnOffset = m.selectedColumn - visibleCols + 1
	}
}

// getSelectedItem returns the currently selected item.
func (m BoardModel) getSelectedItem() (domain.Item, bool) {
	items := m.visible[m.selectedColumn]
	if len(items) == 0 {
		return domain.Item{}, false
	}

	idx := m.selectedItem[m.selectedColumn]
	if idx >= len(items) {
		idx = 0
	}
	return items[idx], true
}

// totalItems counts the visible items across all columns.
func (m BoardModel) totalItems() int {
	total := 0
	for _, items := range m.visible {
		total += len(items)
	}
	return total
}

// syncCmd runs one sync cycle off the UI goroutine.
func (m BoardModel) syncCmd(origin string) tea.Cmd {
	return func() tea.Msg {
		res, err := m.syncer.SyncOnce(m.ctx)
		return syncedMsg{origin: origin, result: res, err: err}
	}
}

// tickCmd schedules the next polling cycle.
func (m BoardModel) tickCmd() tea.Cmd {
	return tea.Tick(m.interval, func(time.Time) tea.Msg {
		return syncTickMsg{}
	})
}

// waitForPush blocks on the platform bus until the next update signal.
func (m BoardModel) waitForPush() tea.Cmd {
	return func() tea.Msg {
		sig, ok := <-m.signals
		if !ok {
			return nil
		}
		return pushMsg{origin: sig.Origin}
	}
}

// relativeTime renders a timestamp as a compact age.
func relativeTime(t time.Time) string {
	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	}
}
