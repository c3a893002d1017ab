// Package documents provides the ingested documents view for the TUI.
package documents

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/triage/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/triage/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/triage/internal/core/ports/driving"
)

// ErrNoDocumentService indicates that no document service was provided.
var ErrNoDocumentService = errors.New("document service not available")

// ActionOption represents a document action.
type ActionOption int

const (
	ActionAsk ActionOption = iota
	ActionDelete
	ActionCancel
)

// View is the documents list view.
type View struct {
	styles          *styles.Styles
	documentService driving.DocumentService
	ctx             context.Context

	documents    []driving.DocumentSummary
	selected     int
	width        int
	height       int
	ready        bool
	err          error
	loading      bool
	notice       string
	showingMenu  bool
	menuSelected ActionOption
	scrollOffset int
}

// NewView creates a new documents view.
func NewView(s *styles.Styles, documentService driving.DocumentService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	return &View{
		styles:          s,
		documentService: documentService,
		ctx:             context.Background(),
		width:           80,
		height:          24,
	}
}

// WithContext sets the context for the view.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// Init loads the document list.
func (v *View) Init() tea.Cmd {
	v.loading = true
	v.showingMenu = false
	return v.loadDocuments()
}

func (v *View) loadDocuments() tea.Cmd {
	svc := v.documentService
	ctx := v.ctx
	return func() tea.Msg {
		if svc == nil {
			return messages.DocumentsLoaded{Err: ErrNoDocumentService}
		}
		docs, err := svc.List(ctx)
		return messages.DocumentsLoaded{Documents: docs, Err: err}
	}
}

func (v *View) deleteDocument(docID string) tea.Cmd {
	svc := v.documentService
	ctx := v.ctx
	return func() tea.Msg {
		if svc == nil {
			return messages.DocumentDeleted{DocID: docID, Err: ErrNoDocumentService}
		}
		return messages.DocumentDeleted{DocID: docID, Err: svc.Delete(ctx, docID)}
	}
}

// Update handles messages for the documents view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		if v.showingMenu {
			return v.handleMenuKeyMsg(msg)
		}
		return v.handleKeyMsg(msg)

	case messages.DocumentsLoaded:
		v.loading = false
		if msg.Err != nil {
			v.err = msg.Err
			return v, nil
		}
		v.err = nil
		v.documents = msg.Documents
		if v.selected >= len(v.documents) {
			v.selected = max(len(v.documents)-1, 0)
		}
		v.adjustScroll()
		return v, nil

	case messages.DocumentDeleted:
		if msg.Err != nil {
			v.err = msg.Err
			return v, nil
		}
		v.notice = "Deleted " + msg.DocID
		v.loading = true
		return v, v.loadDocuments()

	case messages.ErrorOccurred:
		v.err = msg.Err
		return v, nil
	}

	return v, nil
}

func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if v.selected > 0 {
			v.selected--
			v.adjustScroll()
		}
	case "down", "j":
		if v.selected < len(v.documents)-1 {
			v.selected++
			v.adjustScroll()
		}
	case "enter":
		if len(v.documents) > 0 {
			v.showingMenu = true
			v.menuSelected = ActionAsk
		}
	case "esc":
		return v, func() tea.Msg {
			return messages.ViewChanged{View: messages.ViewMenu}
		}
	case "r":
		v.notice = ""
		v.loading = true
		return v, v.loadDocuments()
	}

	return v, nil
}

func (v *View) handleMenuKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if v.menuSelected > ActionAsk {
			v.menuSelected--
		}
	case "down", "j":
		if v.menuSelected < ActionCancel {
			v.menuSelected++
		}
	case "enter":
		return v.handleMenuSelect()
	case "esc":
		v.showingMenu = false
	}

	return v, nil
}

func (v *View) handleMenuSelect() (*View, tea.Cmd) {
	v.showingMenu = false
	doc := v.SelectedDocument()
	if doc == nil {
		return v, nil
	}
	docID := doc.DocID

	switch v.menuSelected {
	case ActionAsk:
		return v, func() tea.Msg {
			return messages.DocumentScoped{DocID: docID}
		}
	case ActionDelete:
		return v, v.deleteDocument(docID)
	case ActionCancel:
	}
	return v, nil
}

// adjustScroll keeps the selected item visible.
func (v *View) adjustScroll() {
	visibleItems := v.visibleItemCount()
	if v.selected < v.scrollOffset {
		v.scrollOffset = v.selected
	} else if v.selected >= v.scrollOffset+visibleItems {
		v.scrollOffset = v.selected - visibleItems + 1
	}
}

func (v *View) visibleItemCount() int {
	// Reserve lines for title, notice, help, and padding
	return max(v.height-8, 1)
}

// View renders the documents view.
func (v *View) View() string {
	var b strings.Builder

	b.WriteString(v.styles.Title.Render(fmt.Sprintf("Documents (%d)", len(v.documents))))
	b.WriteString("\n\n")

	switch {
	case v.loading:
		b.WriteString(v.styles.Muted.Render("Loading documents..."))
	case v.err != nil:
		b.WriteString(v.styles.Error.Render("Error: " + v.err.Error()))
	case len(v.documents) == 0:
		b.WriteString(v.styles.Muted.Render("No documents ingested. Use 'triage ingest' or the watch directory."))
	case v.showingMenu:
		b.WriteString(v.renderActionMenu())
		return b.String()
	default:
		if v.notice != "" {
			b.WriteString(v.styles.Success.Render(v.notice))
			b.WriteString("\n\n")
		}
		visibleItems := v.visibleItemCount()
		for i := v.scrollOffset; i < len(v.documents) && i < v.scrollOffset+visibleItems; i++ {
			b.WriteString(v.renderDocument(i, &v.documents[i]))
			b.WriteString("\n")
		}
		if len(v.documents) > visibleItems {
			b.WriteString(v.styles.Muted.Render(fmt.Sprintf("  [%d-%d of %d]",
				v.scrollOffset+1,
				min(v.scrollOffset+visibleItems, len(v.documents)),
				len(v.documents))))
		}
	}

	b.WriteString("\n\n")
	b.WriteString(v.styles.Help.Render("[↑/↓] navigate  [enter] actions  [r] reload  [esc] back"))
	return b.String()
}

func (v *View) renderDocument(index int, doc *driving.DocumentSummary) string {
	indicator := "  "
	if index == v.selected {
		indicator = "> "
	}

	name := doc.Filename
	if name == "" {
		name = doc.DocID
	}
	maxNameLen := max(v.width/2-4, 10)
	if r := []rune(name); len(r) > maxNameLen {
		name = string(r[:maxNameLen-3]) + "..."
	}

	detail := fmt.Sprintf("%s  %d chunks", doc.DocID, doc.ChunkCount)
	if doc.State != "" {
		detail += "  " + doc.State.String()
	}

	if index == v.selected {
		return v.styles.Selected.Render(fmt.Sprintf("%s%-*s  %s", indicator, maxNameLen, name, detail))
	}
	return v.styles.Normal.Render(fmt.Sprintf("%s%-*s  ", indicator, maxNameLen, name)) +
		v.styles.Muted.Render(detail)
}

func (v *View) renderActionMenu() string {
	var b strings.Builder

	if doc := v.SelectedDocument(); doc != nil {
		b.WriteString(v.styles.Subtitle.Render("Actions for: " + doc.DocID))
		b.WriteString("\n\n")
	}

	options := []struct {
		action ActionOption
		label  string
	}{
		{ActionAsk, "Ask about this document"},
		{ActionDelete, "Delete from index"},
		{ActionCancel, "Cancel"},
	}
	for _, opt := range options {
		if v.menuSelected == opt.action {
			b.WriteString(v.styles.Selected.Render("> " + opt.label))
		} else {
			b.WriteString(v.styles.Normal.Render("  " + opt.label))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(v.styles.Help.Render("[↑/↓] navigate  [enter] select  [esc] cancel"))
	return b.String()
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true
}

// Documents returns the current list of documents.
func (v *View) Documents() []driving.DocumentSummary {
	return v.documents
}

// SelectedIndex returns the currently selected document index.
func (v *View) SelectedIndex() int {
	return v.selected
}

// SelectedDocument returns the currently selected document.
func (v *View) SelectedDocument() *driving.DocumentSummary {
	if v.selected < len(v.documents) {
		return &v.documents[v.selected]
	}
	return nil
}

// IsShowingMenu returns true if the action menu is visible.
func (v *View) IsShowingMenu() bool {
	return v.showingMenu
}

// Err returns the last error.
func (v *View) Err() error {
	return v.err
}
