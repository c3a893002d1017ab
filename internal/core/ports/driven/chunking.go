package driven

import (
	"context"

	"github.com/custodia-labs/triage/internal/core/domain"
)

// ChunkStage is one step of turning extracted text into chunks. The first
// stage is handed nil and creates chunks; later stages rewrite them.
type ChunkStage interface {
	Name() string
	Process(ctx context.Context, doc *domain.Document, chunks []domain.Chunk) ([]domain.Chunk, error)
}

// Chunker produces the chunks ingestion embeds and indexes. An empty
// result means the document had no usable text.
type Chunker interface {
	Chunk(ctx context.Context, doc *domain.Document) ([]domain.Chunk, error)
}
