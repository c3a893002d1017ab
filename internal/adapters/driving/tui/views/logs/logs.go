// Package logs provides the decision log view for the TUI.
package logs

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/triage/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/triage/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/triage/internal/core/domain"
	"github.com/custodia-labs/triage/internal/core/ports/driving"
)

// DefaultLimit is how many decisions the view loads.
const DefaultLimit = 50

// ErrNoLogService indicates that no decision log service was provided.
var ErrNoLogService = errors.New("decision log service not available")

// View lists recent routing decisions, newest first.
type View struct {
	styles     *styles.Styles
	logService driving.DecisionLogService
	ctx        context.Context

	entries      []domain.LogEntry
	selected     int
	scrollOffset int
	expanded     bool
	loading      bool
	err          error
	width        int
	height       int
}

// NewView creates a new decision log view.
func NewView(s *styles.Styles, logService driving.DecisionLogService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	return &View{
		styles:     s,
		logService: logService,
		ctx:        context.Background(),
		width:      80,
		height:     24,
	}
}

// WithContext sets the context for the view.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// Init loads the most recent decisions.
func (v *View) Init() tea.Cmd {
	v.loading = true
	v.expanded = false
	return v.loadLogs()
}

func (v *View) loadLogs() tea.Cmd {
	svc := v.logService
	ctx := v.ctx
	return func() tea.Msg {
		if svc == nil {
			return messages.LogsLoaded{Err: ErrNoLogService}
		}
		entries, err := svc.Recent(ctx, DefaultLimit)
		return messages.LogsLoaded{Entries: entries, Err: err}
	}
}

// Update handles messages for the log view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case messages.LogsLoaded:
		v.loading = false
		v.err = msg.Err
		if msg.Err == nil {
			v.entries = msg.Entries
			v.selected = 0
			v.scrollOffset = 0
		}
		return v, nil

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)
	}
	return v, nil
}

func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	switch msg.String() {
	case "esc":
		if v.expanded {
			v.expanded = false
			return v, nil
		}
		return v, func() tea.Msg {
			return messages.ViewChanged{View: messages.ViewMenu}
		}
	case "up", "k":
		if v.selected > 0 {
			v.selected--
			v.adjustScroll()
		}
	case "down", "j":
		if v.selected < len(v.entries)-1 {
			v.selected++
			v.adjustScroll()
		}
	case "enter":
		if len(v.entries) > 0 {
			v.expanded = !v.expanded
		}
	case "r":
		v.loading = true
		return v, v.loadLogs()
	}
	return v, nil
}

func (v *View) adjustScroll() {
	visible := v.visibleItemCount()
	if v.selected < v.scrollOffset {
		v.scrollOffset = v.selected
	} else if v.selected >= v.scrollOffset+visible {
		v.scrollOffset = v.selected - visible + 1
	}
}

func (v *View) visibleItemCount() int {
	return max(v.height-8, 1)
}

// View renders the decision log.
func (v *View) View() string {
	var b strings.Builder
	b.WriteString(v.styles.Title.Render(fmt.Sprintf("Decision log (%d)", len(v.entries))))
	b.WriteString("\n\n")

	switch {
	case v.loading:
		b.WriteString(v.styles.Muted.Render("Loading decisions..."))
	case v.err != nil:
		b.WriteString(v.styles.Error.Render("Error: " + v.err.Error()))
	case len(v.entries) == 0:
		b.WriteString(v.styles.Muted.Render("No decisions logged yet."))
	case v.expanded:
		b.WriteString(v.renderDetail(&v.entries[v.selected]))
	default:
		visible := v.visibleItemCount()
		for i := v.scrollOffset; i < len(v.entries) && i < v.scrollOffset+visible; i++ {
			b.WriteString(v.renderEntry(i, &v.entries[i]))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n\n")
	b.WriteString(v.styles.Help.Render("[↑/↓] navigate  [enter] details  [r] reload  [esc] back"))
	return b.String()
}

func (v *View) renderEntry(index int, e *domain.LogEntry) string {
	ts := time.Unix(e.Timestamp, 0).Local().Format("01-02 15:04")
	input := e.Input
	maxInput := max(v.width-32, 10)
	if r := []rune(input); len(r) > maxInput {
		input = string(r[:maxInput-3]) + "..."
	}

	if index == v.selected {
		return v.styles.Selected.Render(fmt.Sprintf("> %s %-10s %s", ts, e.Decision, input))
	}
	line := "  " + v.styles.Muted.Render(ts) + " " + v.styles.AgentBadge(e.Decision) + " " + v.styles.Normal.Render(input)
	if e.Trace.HasError() {
		line += v.styles.Error.Render(" !")
	}
	return line
}

func (v *View) renderDetail(e *domain.LogEntry) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s\n\n", v.styles.AgentBadge(e.Decision),
		v.styles.Muted.Render(time.Unix(e.Timestamp, 0).Local().Format(time.RFC1123)))
	fmt.Fprintf(&b, "%s %s\n", v.styles.Subtitle.Render("Input:"), e.Input)
	fmt.Fprintf(&b, "%s %s\n", v.styles.Subtitle.Render("Rationale:"), e.Rationale)

	t := e.Trace
	if t.Query != "" && t.Query != e.Input {
		fmt.Fprintf(&b, "%s %s\n", v.styles.Subtitle.Render("Query:"), t.Query)
	}
	switch {
	case len(t.RetrievedDocs) > 0:
		fmt.Fprintf(&b, "%s %d chunks (%s)\n", v.styles.Subtitle.Render("Context:"), len(t.RetrievedDocs), t.RetrieverFilter)
	case len(t.Sources) > 0:
		fmt.Fprintf(&b, "%s %d results via %s\n", v.styles.Subtitle.Render("Sources:"), len(t.Sources), t.SearchEngine)
	case len(t.Papers) > 0:
		fmt.Fprintf(&b, "%s %d papers for %q\n", v.styles.Subtitle.Render("Papers:"), len(t.Papers), t.SearchQuery)
	}
	if t.Duration > 0 {
		fmt.Fprintf(&b, "%s %.2fs\n", v.styles.Subtitle.Render("Took:"), t.Duration)
	}
	if t.HasError() {
		b.WriteString(v.styles.Error.Render("Error: " + t.Error))
		b.WriteString("\n")
	}
	return b.String()
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
}

// Entries returns the loaded decisions.
func (v *View) Entries() []domain.LogEntry {
	return v.entries
}

// SelectedIndex returns the selected entry index.
func (v *View) SelectedIndex() int {
	return v.selected
}

// Expanded reports whether the detail panel is open.
func (v *View) Expanded() bool {
	return v.expanded
}

// Err returns the last error.
func (v *View) Err() error {
	return v.err
}
