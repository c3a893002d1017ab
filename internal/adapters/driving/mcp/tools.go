package mcp

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/triage/internal/adapters/driving/httpapi"
	"github.com/custodia-labs/triage/internal/core/domain"
	"github.com/custodia-labs/triage/internal/core/ports/driving"
)

// AskInput is the input schema for the ask tool.
type AskInput struct {
	Text       string `json:"text" jsonschema:"the question to answer"`
	DocumentID string `json:"document_id,omitempty" jsonschema:"restrict document retrieval to this doc id"`
	Agent      string `json:"agent,omitempty" jsonschema:"force an agent instead of routing: RETRIEVAL, WEB or PAPER"`
}

// AskOutput is the output schema for the ask tool.
type AskOutput struct {
	Answer        string         `json:"answer"`
	AgentUsed     string         `json:"agent_used"`
	Rationale     string         `json:"rationale"`
	Sources       []SourceOutput `json:"sources,omitempty"`
	Papers        []PaperOutput  `json:"papers,omitempty"`
	ContextChunks int            `json:"context_chunks,omitempty"`
	Error         string         `json:"error,omitempty"`
}

// SourceOutput is one web result used for an answer.
type SourceOutput struct {
	Title   string `json:"title"`
	Link    string `json:"link"`
	Snippet string `json:"snippet,omitempty"`
}

// PaperOutput is one arXiv paper used for an answer.
type PaperOutput struct {
	Title     string   `json:"title"`
	Authors   []string `json:"authors,omitempty"`
	Published string   `json:"published"`
	URL       string   `json:"url"`
}

// IngestInput is the input schema for the ingest_pdf tool.
type IngestInput struct {
	Path  string `json:"path" jsonschema:"absolute path of a PDF on the server's filesystem"`
	DocID string `json:"doc_id,omitempty" jsonschema:"document id to ingest under (generated if empty)"`
	Async bool   `json:"async,omitempty" jsonschema:"queue the ingestion and return immediately"`
}

// IngestOutput is the output schema for the ingest_pdf tool.
type IngestOutput struct {
	DocID       string `json:"doc_id"`
	Status      string `json:"status"`
	ChunksCount int    `json:"chunks_count,omitempty"`
	Message     string `json:"message"`
}

// StatusInput is the input schema for the ingestion_status tool.
type StatusInput struct {
	DocID string `json:"doc_id" jsonschema:"document id returned by ingest_pdf"`
}

// StatusOutput is the output schema for the ingestion_status tool.
type StatusOutput struct {
	DocID      string `json:"doc_id"`
	State      string `json:"state"`
	Message    string `json:"message"`
	ChunkCount int    `json:"chunk_count,omitempty"`
	Filename   string `json:"filename,omitempty"`
	UpdatedAt  string `json:"updated_at"`
}

// DocumentsInput is the input schema for the list_documents tool.
type DocumentsInput struct{}

// DocumentsOutput is the output schema for the list_documents tool.
type DocumentsOutput struct {
	Documents []DocumentOutput `json:"documents"`
	Count     int              `json:"count"`
}

// DocumentOutput is one ingested document.
type DocumentOutput struct {
	DocID      string `json:"doc_id"`
	ChunkCount int    `json:"chunk_count"`
	Filename   string `json:"filename,omitempty"`
	State      string `json:"state,omitempty"`
}

// DeleteInput is the input schema for the delete_document tool.
type DeleteInput struct {
	DocID string `json:"doc_id" jsonschema:"document id to remove from the index"`
}

// DeleteOutput is the output schema for the delete_document tool.
type DeleteOutput struct {
	DocID   string `json:"doc_id"`
	Deleted bool   `json:"deleted"`
}

// LogsInput is the input schema for the decision_logs tool.
type LogsInput struct {
	Limit int `json:"limit,omitempty" jsonschema:"maximum number of entries to return (default 100)"`
}

// LogsOutput is the output schema for the decision_logs tool.
type LogsOutput struct {
	Logs  []LogOutput `json:"logs"`
	Count int         `json:"count"`
}

// LogOutput is one routing decision.
type LogOutput struct {
	Timestamp int64  `json:"timestamp"`
	Decision  string `json:"decision"`
	Rationale string `json:"rationale"`
	Input     string `json:"input"`
	Error     string `json:"error,omitempty"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "ask",
		Description: "Answer a question by routing it to uploaded documents, web search or arXiv",
	}, s.handleAsk)

	if s.ports.Ingestion != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "ingest_pdf",
			Description: "Ingest a PDF so questions can be answered from it",
		}, s.handleIngest)

		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "ingestion_status",
			Description: "Report the progress of a background PDF ingestion",
		}, s.handleIngestionStatus)
	}

	if s.ports.Documents != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "list_documents",
			Description: "List ingested documents with their chunk counts",
		}, s.handleListDocuments)

		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "delete_document",
			Description: "Remove a document and its chunks from the index",
		}, s.handleDeleteDocument)
	}

	if s.ports.Logs != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "decision_logs",
			Description: "List recent routing decisions, newest first",
		}, s.handleDecisionLogs)
	}
}

// handleAsk handles the ask tool invocation.
func (s *Server) handleAsk(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AskInput,
) (*mcp.CallToolResult, AskOutput, error) {
	result, err := s.ports.Ask.Ask(ctx, domain.Query{
		Text:        input.Text,
		DocumentID:  input.DocumentID,
		ForcedAgent: input.Agent,
	})
	if err != nil {
		return nil, AskOutput{}, err
	}

	t := result.Trace
	output := AskOutput{
		Answer:        result.Answer,
		AgentUsed:     result.AgentUsed.String(),
		Rationale:     result.Rationale,
		ContextChunks: len(t.RetrievedDocs),
		Error:         t.Error,
	}
	for _, src := range t.Sources {
		output.Sources = append(output.Sources, SourceOutput{Title: src.Title, Link: src.Link, Snippet: src.Snippet})
	}
	for i := range t.Papers {
		p := &t.Papers[i]
		output.Papers = append(output.Papers, PaperOutput{Title: p.Title, Authors: p.Authors, Published: p.Published, URL: p.URL})
	}

	return nil, output, nil
}

// handleIngest handles the ingest_pdf tool invocation.
func (s *Server) handleIngest(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input IngestInput,
) (*mcp.CallToolResult, IngestOutput, error) {
	path := strings.TrimSpace(input.Path)
	if !strings.EqualFold(filepath.Ext(path), ".pdf") {
		return nil, IngestOutput{}, fmt.Errorf("%w: %q is not a PDF", domain.ErrInvalidInput, path)
	}
	if info, err := os.Stat(path); err != nil || info.IsDir() {
		return nil, IngestOutput{}, fmt.Errorf("%w: cannot read %q", domain.ErrInvalidInput, path)
	}

	docID := strings.TrimSpace(input.DocID)
	if docID == "" {
		docID = httpapi.NewDocID("mcp", time.Now().Unix())
	}

	if input.Async {
		if err := s.ports.Ingestion.Submit(ctx, path, docID, filepath.Base(path)); err != nil {
			return nil, IngestOutput{}, err
		}
		return nil, IngestOutput{
			DocID:   docID,
			Status:  string(domain.IngestionProcessing),
			Message: "Ingestion queued. Poll ingestion_status for progress.",
		}, nil
	}

	res := s.ports.Ingestion.Ingest(ctx, path, docID)
	return nil, IngestOutput{
		DocID:       docID,
		Status:      string(res.Status),
		ChunksCount: res.ChunksCount,
		Message:     res.Message,
	}, nil
}

// handleIngestionStatus handles the ingestion_status tool invocation.
func (s *Server) handleIngestionStatus(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input StatusInput,
) (*mcp.CallToolResult, StatusOutput, error) {
	st, err := s.ports.Ingestion.Status(ctx, strings.TrimSpace(input.DocID))
	if err != nil {
		return nil, StatusOutput{}, err
	}
	return nil, statusOutput(st), nil
}

// handleListDocuments handles the list_documents tool invocation.
func (s *Server) handleListDocuments(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ DocumentsInput,
) (*mcp.CallToolResult, DocumentsOutput, error) {
	docs, err := s.ports.Documents.List(ctx)
	if err != nil {
		return nil, DocumentsOutput{}, err
	}
	output := DocumentsOutput{
		Documents: make([]DocumentOutput, len(docs)),
		Count:     len(docs),
	}
	for i, d := range docs {
		output.Documents[i] = documentOutput(d)
	}
	return nil, output, nil
}

// handleDeleteDocument handles the delete_document tool invocation.
func (s *Server) handleDeleteDocument(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input DeleteInput,
) (*mcp.CallToolResult, DeleteOutput, error) {
	docID := strings.TrimSpace(input.DocID)
	if docID == "" {
		return nil, DeleteOutput{}, fmt.Errorf("%w: doc_id is required", domain.ErrInvalidInput)
	}
	if err := s.ports.Documents.Delete(ctx, docID); err != nil {
		return nil, DeleteOutput{}, err
	}
	return nil, DeleteOutput{DocID: docID, Deleted: true}, nil
}

// handleDecisionLogs handles the decision_logs tool invocation.
func (s *Server) handleDecisionLogs(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input LogsInput,
) (*mcp.CallToolResult, LogsOutput, error) {
	entries, err := s.ports.Logs.Recent(ctx, input.Limit)
	if err != nil {
		return nil, LogsOutput{}, err
	}

	output := LogsOutput{
		Logs:  make([]LogOutput, len(entries)),
		Count: len(entries),
	}
	for i := range entries {
		output.Logs[i] = logOutput(&entries[i])
	}
	return nil, output, nil
}

func statusOutput(st *domain.UploadStatus) StatusOutput {
	return StatusOutput{
		DocID:      st.DocID,
		State:      st.State.String(),
		Message:    st.Message,
		ChunkCount: st.ChunkCount,
		Filename:   st.Filename,
		UpdatedAt:  st.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func documentOutput(d driving.DocumentSummary) DocumentOutput {
	return DocumentOutput{
		DocID:      d.DocID,
		ChunkCount: d.ChunkCount,
		Filename:   d.Filename,
		State:      string(d.State),
	}
}

func logOutput(e *domain.LogEntry) LogOutput {
	return LogOutput{
		Timestamp: e.Timestamp,
		Decision:  e.Decision.String(),
		Rationale: e.Rationale,
		Input:     e.Input,
		Error:     e.Trace.Error,
	}
}
