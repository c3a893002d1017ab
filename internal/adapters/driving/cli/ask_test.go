package cli

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/triage/internal/core/domain"
)

func TestAskCmd_RequiresQuestion(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	_, err := execute("", "ask")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "requires at least 1 arg(s)")
}

func TestAskCmd_JoinsArgsAndPassesFlags(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()

	out, err := execute("", "ask", "what", "is", "in", "the", "report", "--doc", "upload_1_abcd", "--agent", "pdf_rag")

	require.NoError(t, err)
	assert.Equal(t, "what is in the report", ts.ask.last.Text)
	assert.Equal(t, "upload_1_abcd", ts.ask.last.DocumentID)
	assert.Equal(t, "pdf_rag", ts.ask.last.ForcedAgent)
	assert.Contains(t, out, "[WEB]")
	assert.Contains(t, out, "Rule: web search keywords")
	assert.Contains(t, out, "Mock answer")
}

func TestAskCmd_JSONOutput(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.ask.result.Trace = domain.Trace{Query: "news", ResultsCount: domain.IntPtr(0)}

	out, err := execute("", "ask", "latest news", "--json")

	require.NoError(t, err)
	var got map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "WEB", got["agent_used"])
	assert.Equal(t, "Mock answer", got["answer"])
	trace := got["trace"].(map[string]any)
	assert.Equal(t, float64(0), trace["results_count"])
}

func TestAskCmd_ServiceError(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.ask.err = domain.ErrInvalidInput

	_, err := execute("", "ask", "  ")

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Contains(t, err.Error(), "ask failed")
}

func TestAskCmd_ServiceNotConfigured(t *testing.T) {
	SetServices(Services{})

	_, err := execute("", "ask", "hello")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "ask service not configured")
}

func TestRenderAnswer(t *testing.T) {
	tests := []struct {
		name     string
		result   domain.AskResult
		contains []string
		absent   []string
	}{
		{
			name: "web sources",
			result: domain.AskResult{
				Answer: "It rained.", AgentUsed: domain.AgentWeb, Rationale: "Rule: web search keywords",
				Trace: domain.Trace{
					Sources:  []domain.SourceSummary{{Position: 1, Title: "Weather", Link: "https://w.example"}},
					Duration: 1.5,
				},
			},
			contains: []string{"[WEB]", "It rained.", "Sources", "1. Weather", "https://w.example", "took 1.50s"},
			absent:   []string{"Papers", "Context", "Error:"},
		},
		{
			name: "papers",
			result: domain.AskResult{
				Answer: "Read these.", AgentUsed: domain.AgentPaper,
				Trace: domain.Trace{Papers: []domain.Paper{{Title: "Attention", Published: "2017-06-12", URL: "http://arxiv.org/abs/1706.03762"}}},
			},
			contains: []string{"[PAPER]", "Papers", "1. Attention (2017-06-12)"},
			absent:   []string{"Sources"},
		},
		{
			name: "retrieval context",
			result: domain.AskResult{
				Answer: "Section 2 says so.", AgentUsed: domain.AgentRetrieval,
				Trace: domain.Trace{
					RetrievedDocs:   []domain.RetrievedDoc{{DocID: "d"}, {DocID: "d"}},
					RetrieverFilter: domain.DocFilter("d"),
				},
			},
			contains: []string{"[RETRIEVAL]", "Context", "2 chunks, filter doc_id:d"},
		},
		{
			name: "degraded answer",
			result: domain.AskResult{
				Answer: "Web search failed", AgentUsed: domain.AgentWeb,
				Trace: domain.Trace{Error: "rate limited"},
			},
			contains: []string{"Error:", "rate limited"},
			absent:   []string{"took"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			renderAnswer(&buf, &tt.result)
			for _, s := range tt.contains {
				assert.Contains(t, buf.String(), s)
			}
			for _, s := range tt.absent {
				assert.NotContains(t, buf.String(), s)
			}
		})
	}
}
