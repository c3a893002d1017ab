package mcp

import (
	"github.com/custodia-labs/triage/internal/core/ports/driving"
)

// Ports holds the services the MCP server exposes. Only Ask is required;
// the tools and resources of a nil service are not registered.
type Ports struct {
	Ask       driving.AskService
	Ingestion driving.IngestionService
	Documents driving.DocumentService
	Logs      driving.DecisionLogService
}

// Validate reports a missing ask service.
func (p *Ports) Validate() error {
	if p == nil || p.Ask == nil {
		return ErrMissingAskService
	}
	return nil
}
