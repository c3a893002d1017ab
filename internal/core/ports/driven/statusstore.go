package driven

import (
	"context"

	"github.com/custodia-labs/triage/internal/core/domain"
)

// StatusStore persists ingestion progress keyed by document ID.
type StatusStore interface {
	// Put creates or replaces the status for status.DocID.
	Put(ctx context.Context, status domain.UploadStatus) error

	// Get returns the status for a document, or ErrNotFound.
	Get(ctx context.Context, docID string) (*domain.UploadStatus, error)

	// List returns all statuses, most recently updated first.
	List(ctx context.Context) ([]domain.UploadStatus, error)

	// Delete removes the status for a document. Missing IDs are not an error.
	Delete(ctx context.Context, docID string) error
}
