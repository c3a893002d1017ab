package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/triage/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/triage/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/triage/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/triage/internal/adapters/driving/tui/views/ask"
	"github.com/custodia-labs/triage/internal/adapters/driving/tui/views/documents"
	"github.com/custodia-labs/triage/internal/adapters/driving/tui/views/logs"
	"github.com/custodia-labs/triage/internal/adapters/driving/tui/views/menu"
)

// App is the main TUI application following the Elm architecture.
// It implements tea.Model for use with Bubbletea.
type App struct {
	ports  *Ports
	ctx    context.Context
	styles *styles.Styles

	menuView      *menu.View
	askView       *ask.View
	documentsView *documents.View
	logsView      *logs.View

	// currentView tracks which view is active.
	currentView messages.ViewType

	err error

	width  int
	height int
	ready  bool
}

// Ensure App implements tea.Model.
var _ tea.Model = (*App)(nil)

// NewApp creates a new TUI application with the given ports.
func NewApp(ports *Ports) (*App, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("creating app: %w", err)
	}

	s := styles.DefaultStyles()
	km := keymap.DefaultKeyMap()

	return &App{
		ports:         ports,
		ctx:           context.Background(),
		styles:        s,
		menuView:      menu.NewView(s, ports.Documents != nil, ports.Logs != nil),
		askView:       ask.NewView(s, km, ports.Ask),
		documentsView: documents.NewView(s, ports.Documents),
		logsView:      logs.NewView(s, ports.Logs),
		currentView:   messages.ViewMenu,
	}, nil
}

// WithContext sets the context used for service calls.
func (a *App) WithContext(ctx context.Context) *App {
	a.ctx = ctx
	a.askView.WithContext(ctx)
	a.documentsView.WithContext(ctx)
	a.logsView.WithContext(ctx)
	return a
}

// Init implements tea.Model.
func (a *App) Init() tea.Cmd {
	return tea.SetWindowTitle("triage")
}

// Update implements tea.Model.
//
//nolint:gocyclo // central message handler requires complexity
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.SetDimensions(msg.Width, msg.Height)
		return a, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return a, tea.Quit
		}
		switch a.currentView {
		case messages.ViewMenu:
			a.menuView, cmd = a.menuView.Update(msg)
		case messages.ViewAsk:
			a.askView, cmd = a.askView.Update(msg)
		case messages.ViewDocuments:
			a.documentsView, cmd = a.documentsView.Update(msg)
		case messages.ViewLogs:
			a.logsView, cmd = a.logsView.Update(msg)
		case messages.ViewHelp:
			if msg.Type == tea.KeyEsc {
				a.currentView = messages.ViewMenu
			}
		}
		return a, cmd

	case messages.ViewChanged:
		a.currentView = msg.View
		switch msg.View {
		case messages.ViewAsk:
			return a, a.askView.Init()
		case messages.ViewDocuments:
			return a, a.documentsView.Init()
		case messages.ViewLogs:
			return a, a.logsView.Init()
		case messages.ViewMenu, messages.ViewHelp:
		}
		return a, nil

	case messages.AskCompleted:
		a.err = msg.Err
		a.askView, cmd = a.askView.Update(msg)
		return a, cmd

	case messages.DocumentScoped:
		a.currentView = messages.ViewAsk
		a.askView.Reset()
		return a, a.askView.SetDocument(msg.DocID)

	case messages.DocumentsLoaded, messages.DocumentDeleted:
		a.documentsView, cmd = a.documentsView.Update(msg)
		return a, cmd

	case messages.LogsLoaded:
		a.logsView, cmd = a.logsView.Update(msg)
		return a, cmd

	case messages.ErrorOccurred:
		a.err = msg.Err
		switch a.currentView {
		case messages.ViewAsk:
			a.askView, cmd = a.askView.Update(msg)
		case messages.ViewDocuments:
			a.documentsView, cmd = a.documentsView.Update(msg)
		case messages.ViewMenu, messages.ViewLogs, messages.ViewHelp:
		}
		return a, cmd

	case messages.Quit:
		return a, tea.Quit
	}

	// Spinner ticks and cursor blinks go to the active view.
	if a.currentView == messages.ViewAsk {
		a.askView, cmd = a.askView.Update(msg)
	}
	return a, cmd
}

// View implements tea.Model.
func (a *App) View() string {
	if !a.ready {
		return "Initialising..."
	}

	switch a.currentView {
	case messages.ViewAsk:
		return a.askView.View()
	case messages.ViewDocuments:
		return a.documentsView.View()
	case messages.ViewLogs:
		return a.logsView.View()
	case messages.ViewHelp:
		return a.viewHelp()
	default:
		return a.menuView.View()
	}
}

func (a *App) viewHelp() string {
	return a.styles.Title.Render("Help") + `

Navigation:
  esc         Back to Menu
  ctrl+c      Quit

Ask:
  (type)      Enter a question
  enter       Route and answer it
  tab         Force an agent: auto, RETRIEVAL, WEB, PAPER
  ctrl+x      Clear the document scope
  n           New question
  ↑/↓, j/k    Scroll the answer

Documents:
  enter       Ask about a document or delete it
  r           Reload

Decision log:
  enter       Show decision details
  r           Reload

` + a.styles.Help.Render("[esc] back to menu")
}

// Run starts the TUI and blocks until it exits.
func (a *App) Run() error {
	p := tea.NewProgram(a, tea.WithAltScreen(), tea.WithContext(a.ctx))
	_, err := p.Run()
	return err
}

// CurrentView returns the current view type.
func (a *App) CurrentView() messages.ViewType {
	return a.currentView
}

// Err returns the last error that occurred.
func (a *App) Err() error {
	return a.err
}

// Ready returns whether the app has been initialised.
func (a *App) Ready() bool {
	return a.ready
}

// SetDimensions sets the terminal dimensions on every view.
func (a *App) SetDimensions(width, height int) {
	a.width = width
	a.height = height
	a.ready = true
	a.menuView.SetDimensions(width, height)
	a.askView.SetDimensions(width, height)
	a.documentsView.SetDimensions(width, height)
	a.logsView.SetDimensions(width, height)
}
