package driving

import (
	"context"

	"github.com/custodia-labs/triage/internal/core/domain"
)

// IngestionService turns PDF files into indexed chunks.
type IngestionService interface {
	// Ingest runs the pipeline synchronously. Failures are reported in the result.
	Ingest(ctx context.Context, path, docID string) domain.IngestResult

	// Submit queues a background ingestion and returns immediately.
	// A doc ID already in flight returns ErrAlreadyExists.
	Submit(ctx context.Context, path, docID, filename string) error

	// Status returns the progress of a submitted or finished ingestion.
	Status(ctx context.Context, docID string) (*domain.UploadStatus, error)

	// Close stops accepting work and waits for queued jobs to finish.
	Close() error
}
