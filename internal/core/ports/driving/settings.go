package driving

import (
	"context"

	"github.com/custodia-labs/triage/internal/core/domain"
)

// SettingsService reads and writes the persisted configuration.
type SettingsService interface {
	// Get returns the stored settings with environment overrides applied.
	Get() (*domain.AppSettings, error)

	Save(settings *domain.AppSettings) error

	SetEmbeddingProvider(provider domain.AIProvider, model, apiKey string) error
	SetLLMProvider(provider domain.AIProvider, model, apiKey string) error
	SetWebBackend(backend domain.WebBackend, apiKey string) error

	// Validate checks that the settings are internally consistent.
	Validate() error

	GetDefaults() domain.AppSettings

	// ValidateEmbeddingConfig and ValidateLLMConfig ping the stored
	// providers. Unconfigured providers pass.
	ValidateEmbeddingConfig(ctx context.Context) error
	ValidateLLMConfig(ctx context.Context) error
}
