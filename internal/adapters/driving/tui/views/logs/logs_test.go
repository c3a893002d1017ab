package logs

import (
	"context"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/triage/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/triage/internal/core/domain"
)

type mockLogService struct {
	entries   []domain.LogEntry
	lastLimit int
}

func (m *mockLogService) Recent(_ context.Context, limit int) ([]domain.LogEntry, error) {
	m.lastLimit = limit
	return m.entries, nil
}

func testEntries() []domain.LogEntry {
	return []domain.LogEntry{
		{
			Timestamp: 1767225600, Decision: domain.AgentWeb, Rationale: "Rule: web search keywords",
			Input: "latest news on fusion", Trace: domain.Trace{Query: "latest news on fusion", SearchEngine: "duckduckgo", Sources: []domain.SourceSummary{{Title: "t"}}},
		},
		{
			Timestamp: 1767225500, Decision: domain.AgentRetrieval, Rationale: "Default: RETRIEVAL",
			Input: "summarise the report", Trace: domain.Trace{Error: "embedding service unavailable"},
		},
	}
}

func loadedView(t *testing.T, svc *mockLogService) *View {
	t.Helper()
	v := NewView(nil, svc)
	v.SetDimensions(100, 30)
	cmd := v.Init()
	require.NotNil(t, cmd)
	v.Update(cmd())
	return v
}

func TestView_LoadsRecentDecisions(t *testing.T) {
	svc := &mockLogService{entries: testEntries()}
	v := loadedView(t, svc)

	assert.Equal(t, DefaultLimit, svc.lastLimit)
	assert.Len(t, v.Entries(), 2)
	out := v.View()
	assert.Contains(t, out, "Decision log (2)")
	assert.Contains(t, out, "latest news on fusion")
	assert.Contains(t, out, "[RETRIEVAL]")
}

func TestView_Empty(t *testing.T) {
	v := loadedView(t, &mockLogService{})

	assert.Contains(t, v.View(), "No decisions logged yet.")
}

func TestView_NoService(t *testing.T) {
	v := NewView(nil, nil)
	v.Update(v.Init()())

	assert.ErrorIs(t, v.Err(), ErrNoLogService)
}

func TestView_ExpandDetail(t *testing.T) {
	v := loadedView(t, &mockLogService{entries: testEntries()})

	v.Update(tea.KeyMsg{Type: tea.KeyDown})
	v.Update(tea.KeyMsg{Type: tea.KeyEnter})

	require.True(t, v.Expanded())
	out := v.View()
	assert.Contains(t, out, "Default: RETRIEVAL")
	assert.Contains(t, out, "Error: embedding service unavailable")

	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.Nil(t, cmd, "esc closes the detail first")
	assert.False(t, v.Expanded())

	_, cmd = v.Update(tea.KeyMsg{Type: tea.KeyEsc})
	require.NotNil(t, cmd)
	assert.Equal(t, messages.ViewChanged{View: messages.ViewMenu}, cmd())
}

func TestView_WebDetail(t *testing.T) {
	v := loadedView(t, &mockLogService{entries: testEntries()})

	v.Update(tea.KeyMsg{Type: tea.KeyEnter})

	assert.Contains(t, v.View(), "1 results via duckduckgo")
}

func TestView_Reload(t *testing.T) {
	svc := &mockLogService{}
	v := loadedView(t, svc)
	svc.entries = testEntries()

	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'r'}})
	require.NotNil(t, cmd)
	v.Update(cmd())

	assert.Len(t, v.Entries(), 2)
}
