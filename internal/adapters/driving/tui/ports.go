// Package tui provides an interactive terminal user interface for triage.
// It implements a driving adapter following hexagonal architecture principles.
package tui

import (
	"github.com/custodia-labs/triage/internal/core/ports/driving"
)

// Ports aggregates the driving ports used by the TUI.
type Ports struct {
	// Ask routes and answers questions. Required.
	Ask driving.AskService

	// Documents lists and deletes ingested documents. Optional.
	Documents driving.DocumentService

	// Logs reads the decision log. Optional.
	Logs driving.DecisionLogService
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p == nil || p.Ask == nil {
		return ErrMissingAskService
	}
	return nil
}
