package driven

import (
	"context"

	"github.com/custodia-labs/triage/internal/core/domain"
)

// DocumentIndex stores embedded chunks and answers similarity queries.
// It has no metadata pre-filtering; callers post-filter Search results.
type DocumentIndex interface {
	// Add inserts chunks atomically. Every chunk must carry an embedding of the
	// index dimensionality, otherwise nothing is added and ErrInvalidInput is returned.
	Add(ctx context.Context, chunks []domain.Chunk) error

	// Replace swaps every chunk of docID for chunks in one step. Chunks are
	// validated as for Add; on error the document's existing chunks are kept.
	Replace(ctx context.Context, docID string, chunks []domain.Chunk) error

	// Search returns up to k chunks ordered by decreasing cosine similarity.
	Search(ctx context.Context, vector []float32, k int) ([]domain.ScoredChunk, error)

	// DeleteDocument removes every chunk of a document and reports how many were removed.
	DeleteDocument(ctx context.Context, docID string) (int, error)

	// Count returns the number of chunks held.
	Count() int

	// Documents returns the distinct document IDs held, sorted.
	Documents() []string

	// ChunkCount returns the number of chunks held for one document.
	ChunkCount(docID string) int
}
