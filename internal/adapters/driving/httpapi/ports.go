package httpapi

import (
	"errors"

	"github.com/custodia-labs/triage/internal/core/ports/driving"
)

// Errors returned by Ports.Validate.
var (
	ErrMissingAskService       = errors.New("httpapi: ask service is required")
	ErrMissingIngestionService = errors.New("httpapi: ingestion service is required")
	ErrMissingDocumentService  = errors.New("httpapi: document service is required")
	ErrMissingLogService       = errors.New("httpapi: decision log service is required")
)

// Ports aggregates the driving ports served over HTTP.
type Ports struct {
	Ask       driving.AskService
	Ingestion driving.IngestionService
	Documents driving.DocumentService
	Logs      driving.DecisionLogService
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	switch {
	case p.Ask == nil:
		return ErrMissingAskService
	case p.Ingestion == nil:
		return ErrMissingIngestionService
	case p.Documents == nil:
		return ErrMissingDocumentService
	case p.Logs == nil:
		return ErrMissingLogService
	}
	return nil
}
