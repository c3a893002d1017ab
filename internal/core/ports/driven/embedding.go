package driven

import "context"

// EmbeddingService turns text into vectors for the DocumentIndex. Query
// vectors and chunk vectors must come from the same model, so a running
// process holds exactly one of these (see services.LazyEmbedder).
//
// Providers: ollama (all-minilm by default) and openai.
type EmbeddingService interface {
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch embeds texts in one request, preserving order.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions is the vector length produced by the model.
	Dimensions() int

	ModelName() string

	// Ping checks the provider is reachable without embedding anything.
	Ping(ctx context.Context) error

	Close() error
}
