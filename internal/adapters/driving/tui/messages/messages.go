// Package messages defines Bubbletea message types for the TUI.
// Messages represent events and commands that flow through the Elm architecture.
package messages

import (
	"time"

	"github.com/custodia-labs/triage/internal/core/domain"
	"github.com/custodia-labs/triage/internal/core/ports/driving"
)

// ViewChanged is sent when navigating between views.
type ViewChanged struct {
	View ViewType
}

// ViewType identifies which view is currently active.
type ViewType int

const (
	// ViewMenu is the main navigation menu.
	ViewMenu ViewType = iota
	// ViewAsk is the question input and answer view.
	ViewAsk
	// ViewDocuments lists ingested documents.
	ViewDocuments
	// ViewLogs lists recent routing decisions.
	ViewLogs
	// ViewHelp is the help/keybindings view.
	ViewHelp
)

// String returns the string representation of the view type.
func (v ViewType) String() string {
	switch v {
	case ViewMenu:
		return "menu"
	case ViewAsk:
		return "ask"
	case ViewDocuments:
		return "documents"
	case ViewLogs:
		return "logs"
	case ViewHelp:
		return "help"
	default:
		return "unknown"
	}
}

// AskCompleted carries an answer back to the model.
type AskCompleted struct {
	Question string
	Result   *domain.AskResult
	Elapsed  time.Duration
	Err      error
}

// DocumentScoped asks the ask view to restrict retrieval to one document.
type DocumentScoped struct {
	DocID string
}

// DocumentsLoaded carries the list of ingested documents.
type DocumentsLoaded struct {
	Documents []driving.DocumentSummary
	Err       error
}

// DocumentDeleted signals a document was removed from the index.
type DocumentDeleted struct {
	DocID string
	Err   error
}

// LogsLoaded carries recent decision log entries, newest first.
type LogsLoaded struct {
	Entries []domain.LogEntry
	Err     error
}

// ErrorOccurred signals that an error happened.
type ErrorOccurred struct {
	Err error
}

// Quit signals the application should exit.
type Quit struct{}
