package driving

import (
	"context"

	"github.com/custodia-labs/triage/internal/core/domain"
)

// DocumentService manages the set of ingested documents.
type DocumentService interface {
	// List returns a summary of every indexed document.
	List(ctx context.Context) ([]DocumentSummary, error)

	// Delete removes a document's chunks and status.
	// Returns ErrNotFound if the document has no chunks and no status.
	Delete(ctx context.Context, docID string) error
}

// DocumentSummary describes one ingested document.
type DocumentSummary struct {
	// DocID is the document identifier.
	DocID string `json:"doc_id"`

	// ChunkCount is the number of chunks held in the index.
	ChunkCount int `json:"chunk_count"`

	// Filename is the original upload name, when known.
	Filename string `json:"filename,omitempty"`

	// State is the last ingestion state, when known.
	State domain.IngestionState `json:"state,omitempty"`
}
