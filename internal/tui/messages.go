// Package tui provides Bubble Tea models for the interactive roadmap board.
package tui

import (
	"github.com/robby/roadmap/internal/domain"
	"github.com/robby/roadmap/internal/sync"
)

// ErrorMsg is emitted when a fatal error occurs.
type ErrorMsg struct {
	Err error
}

// syncedMsg reports the outcome of one sync cycle started from the UI.
type syncedMsg struct {
	origin string
	result sync.Result
	err    error
}

// syncTickMsg fires when the polling interval elapses.
type syncTickMsg struct{}

// pushMsg fires when the platform bus signals that the feed changed.
type pushMsg struct {
	origin string
}

// openDetailMsg is emitted when the user opens an item's detail view.
type openDetailMsg struct {
	item domain.Item
}

// closeDetailMsg is emitted when the detail view is dismissed.
type closeDetailMsg struct{}
