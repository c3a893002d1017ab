package ai

import (
	"context"
	"time"

	"github.com/custodia-labs/triage/internal/core/domain"
	"github.com/custodia-labs/triage/internal/core/ports/driven"
)

var _ driven.ProviderValidator = (*Validator)(nil)

// pinger is the part of an embedding or LLM service the validator needs.
type pinger interface {
	Ping(ctx context.Context) error
	Close() error
}

// Validator builds a provider from settings and pings it, so the settings
// commands reject a bad key as soon as it is entered.
type Validator struct {
	timeout time.Duration
}

// NewValidator returns a Validator that waits pingTimeout per provider.
func NewValidator() *Validator {
	return &Validator{timeout: pingTimeout}
}

// ValidateEmbedding pings the configured embedding provider.
func (v *Validator) ValidateEmbedding(ctx context.Context, settings *domain.EmbeddingSettings) error {
	svc, err := CreateEmbeddingService(settings)
	if err != nil || svc == nil {
		return err
	}
	return v.ping(ctx, svc)
}

// ValidateLLM pings the configured LLM provider.
func (v *Validator) ValidateLLM(ctx context.Context, settings *domain.LLMSettings) error {
	svc, err := CreateLLMService(settings)
	if err != nil || svc == nil {
		return err
	}
	return v.ping(ctx, svc)
}

func (v *Validator) ping(ctx context.Context, svc pinger) error {
	defer svc.Close()

	ctx, cancel := context.WithTimeout(ctx, v.timeout)
	defer cancel()
	return svc.Ping(ctx)
}
