package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	// uriScheme is the custom URI scheme for triage resources.
	uriScheme = "triage://"

	uploadsPrefix = uriScheme + "uploads/"
)

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	if s.ports.Logs != nil {
		s.server.AddResource(&mcp.Resource{
			URI:         uriScheme + "logs",
			Name:        "decision-logs",
			Description: "Most recent routing decisions, newest first",
			MIMEType:    "application/json",
		}, s.handleLogsResource)
	}

	if s.ports.Documents != nil {
		s.server.AddResource(&mcp.Resource{
			URI:         uriScheme + "documents",
			Name:        "documents",
			Description: "Ingested documents and their chunk counts",
			MIMEType:    "application/json",
		}, s.handleDocumentsResource)
	}

	if s.ports.Ingestion != nil {
		s.server.AddResourceTemplate(&mcp.ResourceTemplate{
			URITemplate: uploadsPrefix + "{docId}",
			Name:        "upload-status",
			Description: "Ingestion status of an uploaded document",
			MIMEType:    "application/json",
		}, s.handleUploadStatusResource)
	}
}

// handleLogsResource returns the most recent decisions.
func (s *Server) handleLogsResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	entries, err := s.ports.Logs.Recent(ctx, 0)
	if err != nil {
		return nil, fmt.Errorf("reading decision log: %w", err)
	}

	logs := make([]LogOutput, len(entries))
	for i := range entries {
		logs[i] = logOutput(&entries[i])
	}
	return jsonResource(req.Params.URI, logs)
}

// handleDocumentsResource lists ingested documents.
func (s *Server) handleDocumentsResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	docs, err := s.ports.Documents.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing documents: %w", err)
	}
	out := make([]DocumentOutput, len(docs))
	for i, d := range docs {
		out[i] = documentOutput(d)
	}
	return jsonResource(req.Params.URI, out)
}

// handleUploadStatusResource returns the status of one ingestion.
func (s *Server) handleUploadStatusResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	docID := extractDocID(req.Params.URI)
	if docID == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	st, err := s.ports.Ingestion.Status(ctx, docID)
	if err != nil {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}
	return jsonResource(req.Params.URI, statusOutput(st))
}

func jsonResource(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling resource: %w", err)
	}
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// extractDocID extracts the doc id from triage://uploads/{docId}.
func extractDocID(uri string) string {
	if !strings.HasPrefix(uri, uploadsPrefix) {
		return ""
	}
	id := strings.TrimPrefix(uri, uploadsPrefix)
	if id == "" || strings.Contains(id, "/") {
		return ""
	}
	return id
}
