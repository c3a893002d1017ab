// Package ask provides the question and answer view for the TUI.
package ask

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/triage/internal/adapters/driving/tui/components/input"
	"github.com/custodia-labs/triage/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/triage/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/triage/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/triage/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/triage/internal/core/domain"
	"github.com/custodia-labs/triage/internal/core/ports/driving"
)

// agentCycle is the order tab steps through; the empty kind means routed.
var agentCycle = []domain.AgentKind{"", domain.AgentRetrieval, domain.AgentWeb, domain.AgentPaper}

// reservedLines covers header, input, scope line and status bar.
const reservedLines = 9

// View represents the ask view with input, answer pane, and status bar.
type View struct {
	styles    *styles.Styles
	keymap    *keymap.KeyMap
	input     *input.QuestionInput
	answer    viewport.Model
	statusbar *status.Bar

	askService driving.AskService
	ctx        context.Context

	agentIdx int
	docScope string
	question string
	result   *domain.AskResult

	width      int
	height     int
	ready      bool
	err        error
	focusInput bool // true = typing, false = reading the answer
}

// NewView creates a new ask view.
func NewView(s *styles.Styles, km *keymap.KeyMap, askService driving.AskService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	return &View{
		styles:     s,
		keymap:     km,
		input:      input.NewQuestionInput(s),
		answer:     viewport.New(80, 24-reservedLines),
		statusbar:  status.NewBar(s, km),
		askService: askService,
		ctx:        context.Background(),
		width:      80,
		height:     24,
		focusInput: true,
	}
}

// WithContext sets the context for the view.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// Init initialises the view.
func (v *View) Init() tea.Cmd {
	return v.input.Init()
}

// Update handles messages for the ask view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)

	case messages.AskCompleted:
		v.handleAskCompleted(msg)
		return v, nil

	case messages.ErrorOccurred:
		v.setError(msg.Err)
		return v, nil
	}

	var cmds []tea.Cmd
	var cmd tea.Cmd
	v.statusbar, cmd = v.statusbar.Update(msg)
	cmds = append(cmds, cmd)
	if v.focusInput {
		v.input, cmd = v.input.Update(msg)
		cmds = append(cmds, cmd)
	}
	return v, tea.Batch(cmds...)
}

func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	if msg.Type == tea.KeyEsc {
		return v, func() tea.Msg {
			return messages.ViewChanged{View: messages.ViewMenu}
		}
	}

	if v.statusbar.State() == status.StateThinking {
		return v, nil
	}

	switch {
	case keymap.Matches(msg.String(), v.keymap.CycleAgent):
		v.agentIdx = (v.agentIdx + 1) % len(agentCycle)
		return v, nil
	case keymap.Matches(msg.String(), v.keymap.ClearScope):
		v.docScope = ""
		return v, nil
	}

	if v.focusInput {
		if msg.Type == tea.KeyEnter {
			question := strings.TrimSpace(v.input.Value())
			if question == "" {
				return v, nil
			}
			v.question = question
			v.err = nil
			v.focusInput = false
			v.input.Blur()
			return v, tea.Batch(v.statusbar.StartThinking(), v.performAsk(question))
		}
		var cmd tea.Cmd
		v.input, cmd = v.input.Update(msg)
		return v, cmd
	}

	if keymap.Matches(msg.String(), v.keymap.NewQuestion) {
		v.focusInput = true
		v.input.SetValue("")
		return v, v.input.Focus()
	}

	var cmd tea.Cmd
	v.answer, cmd = v.answer.Update(msg)
	return v, cmd
}

// performAsk returns a command that answers question off the UI loop.
func (v *View) performAsk(question string) tea.Cmd {
	q := domain.Query{
		Text:        question,
		DocumentID:  v.docScope,
		ForcedAgent: string(v.ForcedAgent()),
	}
	svc := v.askService
	ctx := v.ctx

	return func() tea.Msg {
		if svc == nil {
			return messages.AskCompleted{Question: question, Err: ErrNoAskService}
		}
		start := time.Now()
		result, err := svc.Ask(ctx, q)
		return messages.AskCompleted{
			Question: question,
			Result:   result,
			Elapsed:  time.Since(start),
			Err:      err,
		}
	}
}

func (v *View) handleAskCompleted(msg messages.AskCompleted) {
	if msg.Err != nil {
		v.focusInput = true
		v.input.Focus()
		v.setError(msg.Err)
		return
	}

	v.err = nil
	v.result = msg.Result
	v.answer.SetContent(v.renderAnswer(msg.Result))
	v.answer.GotoTop()
	v.statusbar.SetAnswered(msg.Result.AgentUsed, msg.Elapsed, msg.Result.Trace.Error)
}

func (v *View) setError(err error) {
	v.err = err
	v.statusbar.SetState(status.StateError)
	v.statusbar.SetMessage(err.Error())
}

// renderAnswer lays out the answer and whatever the trace offers as evidence.
func (v *View) renderAnswer(r *domain.AskResult) string {
	textWidth := v.width - 4
	if textWidth < 20 {
		textWidth = 20
	}
	wrap := lipgloss.NewStyle().Width(textWidth)

	var b strings.Builder
	b.WriteString(v.styles.AgentBadge(r.AgentUsed))
	if r.Rationale != "" {
		b.WriteString(" " + v.styles.Muted.Render(r.Rationale))
	}
	b.WriteString("\n\n")
	b.WriteString(v.styles.Answer.Render(wrap.Render(r.Answer)))
	b.WriteString("\n")

	t := r.Trace
	if len(t.Sources) > 0 {
		b.WriteString("\n" + v.styles.Subtitle.Render("Sources") + "\n")
		for i, src := range t.Sources {
			fmt.Fprintf(&b, "  %d. %s %s\n", i+1, src.Title, v.styles.Muted.Render(src.Link))
		}
	}
	if len(t.Papers) > 0 {
		b.WriteString("\n" + v.styles.Subtitle.Render("Papers") + "\n")
		for i := range t.Papers {
			p := &t.Papers[i]
			fmt.Fprintf(&b, "  %d. %s %s\n", i+1, p.Title, v.styles.Muted.Render("("+p.Published+") "+p.URL))
		}
	}
	if len(t.RetrievedDocs) > 0 {
		b.WriteString("\n" + v.styles.Muted.Render(fmt.Sprintf("Context: %d chunks, filter %s", len(t.RetrievedDocs), t.RetrieverFilter)) + "\n")
	}
	if t.Error != "" {
		b.WriteString("\n" + v.styles.Error.Render("Error: "+t.Error) + "\n")
	}
	return b.String()
}

// View renders the ask view.
func (v *View) View() string {
	if !v.ready {
		return "Initialising..."
	}

	sections := make([]string, 0, 10)
	sections = append(sections, v.styles.Title.Render("Triage"), "", v.input.View(), v.renderScope(), "")

	if v.err != nil {
		sections = append(sections, v.styles.Error.Render("Error: "+v.err.Error()), "")
	}

	if v.result != nil {
		sections = append(sections, v.styles.Muted.Render("Q: "+v.question), v.answer.View())
	}

	sections = append(sections, "", v.statusbar.View())
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (v *View) renderScope() string {
	scope := "all documents"
	if v.docScope != "" {
		scope = v.docScope
	}
	return v.styles.Muted.Render("agent ") + v.styles.AgentBadge(v.ForcedAgent()) +
		v.styles.Muted.Render("  scope "+scope)
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true

	v.input.SetWidth(width)
	v.statusbar.SetWidth(width)
	v.answer.Width = width
	v.answer.Height = max(height-reservedLines, 3)
	if v.result != nil {
		v.answer.SetContent(v.renderAnswer(v.result))
	}
}

// SetDocument restricts retrieval to docID and focuses the input.
func (v *View) SetDocument(docID string) tea.Cmd {
	v.docScope = docID
	v.agentIdx = 0
	v.focusInput = true
	return v.input.Focus()
}

// ForcedAgent returns the agent override, empty when routing is automatic.
func (v *View) ForcedAgent() domain.AgentKind {
	return agentCycle[v.agentIdx]
}

// DocumentScope returns the document filter, if any.
func (v *View) DocumentScope() string {
	return v.docScope
}

// Result returns the last answer.
func (v *View) Result() *domain.AskResult {
	return v.result
}

// Err returns the current error, if any.
func (v *View) Err() error {
	return v.err
}

// InputFocused returns whether the input has focus.
func (v *View) InputFocused() bool {
	return v.focusInput
}

// Ready returns whether the view is ready to render.
func (v *View) Ready() bool {
	return v.ready
}

// StatusState exposes the status bar state.
func (v *View) StatusState() status.State {
	return v.statusbar.State()
}

// Reset returns the view to input mode, keeping the document scope.
func (v *View) Reset() {
	v.focusInput = true
	v.input.Focus()
	v.input.SetValue("")
	v.result = nil
	v.question = ""
	v.err = nil
	v.statusbar.Clear()
}
