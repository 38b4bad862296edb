package tui

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/robby/roadmap/internal/locale"
	"github.com/robby/roadmap/internal/platform"
	"github.com/robby/roadmap/internal/store"
	"github.com/robby/roadmap/internal/sync"
)

// AppScreen represents the different screens in the application flow.
type AppScreen int

const (
	ScreenBoard AppScreen = iota
	ScreenDetail
)

// AppModel is the root Bubble Tea model. The board is the home screen; the
// detail view overlays it and returns to the same board state on close.
type AppModel struct {
	currentScreen AppScreen
	currentModel  tea.Model
	err           error

	// Cached to preserve selection and scroll state across screens
	boardModel *BoardModel
	tr         locale.Translator
}

// NewAppModel wires the board over the shared store and syncer. The notifier
// may be nil when no push channel is configured.
func NewAppModel(s *store.Store, syncer *sync.Syncer, tr locale.Translator, interval time.Duration, notifier platform.Notifier, ctx context.Context) AppModel {
	boardModel := NewBoardModel(s, syncer, tr, interval, notifier, ctx)
	return AppModel{
		currentScreen: ScreenBoard,
		currentModel:  boardModel,
		boardModel:    &boardModel,
		tr:            tr,
	}
}

// Init initializes the app model.
func (m AppModel) Init() tea.Cmd {
	return m.boardModel.Init()
}

// Update handles messages and transitions between screens.
func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}

	case ErrorMsg:
		m.err = msg.Err
		return m, nil

	case openDetailMsg:
		m.currentScreen = ScreenDetail
		detailModel := NewDetailModel(msg.item, m.tr)
		m.currentModel = detailModel
		return m, detailModel.Init()

	case closeDetailMsg:
		m.currentScreen = ScreenBoard
		m.currentModel = *m.boardModel
		// Request window size to ensure proper rendering
		return m, tea.WindowSize()

	case syncedMsg, syncTickMsg, pushMsg:
		// Sync traffic always lands on the board, even while the detail
		// view is on screen, so the refresh chain never stalls.
		updated, cmd := m.boardModel.Update(msg)
		if bm, ok := updated.(BoardModel); ok {
			m.boardModel = &bm
		}
		if m.currentScreen == ScreenBoard {
			m.currentModel = *m.boardModel
		}
		return m, cmd
	}

	// Delegate to current screen's model
	if m.currentModel != nil {
		var cmd tea.Cmd
		m.currentModel, cmd = m.currentModel.Update(msg)
		// Keep boardModel in sync so sync results land even while the
		// detail view is on screen
		if m.currentScreen == ScreenBoard {
			if bm, ok := m.currentModel.(BoardModel); ok {
				m.boardModel = &bm
			}
		}
		return m, cmd
	}

	return m, nil
}

// View renders the current screen.
func (m AppModel) View() string {
	if m.err != nil {
		return ErrorStyle.Render(fmt.Sprintf("Error: %v\n\nPress Ctrl+C to quit", m.err))
	}

	if m.currentModel != nil {
		return m.currentModel.View()
	}

	return ""
}
