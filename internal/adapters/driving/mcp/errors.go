// Package mcp provides an MCP (Model Context Protocol) server adapter for triage.
// It lets AI assistants route questions, ingest PDFs and read the decision log.
package mcp

import "errors"

// ErrMissingAskService is returned when the ask service is not provided.
var ErrMissingAskService = errors.New("mcp: ask service is required")
