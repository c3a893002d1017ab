package driven

import (
	"context"

	"github.com/custodia-labs/triage/internal/core/domain"
)

// ProviderValidator checks that a provider built from settings answers.
// Settings that name no provider pass.
type ProviderValidator interface {
	ValidateEmbedding(ctx context.Context, settings *domain.EmbeddingSettings) error
	ValidateLLM(ctx context.Context, settings *domain.LLMSettings) error
}
