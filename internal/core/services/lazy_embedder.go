package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/custodia-labs/triage/internal/core/domain"
	"github.com/custodia-labs/triage/internal/core/ports/driven"
	"github.com/custodia-labs/triage/internal/logger"
)

// Ensure LazyEmbedder implements the interface.
var _ driven.EmbeddingService = (*LazyEmbedder)(nil)

// EmbedderFactory builds the underlying embedding service.
type EmbedderFactory func(ctx context.Context) (driven.EmbeddingService, error)

// LazyEmbedder defers creating the embedding service until first use.
// A built service is kept for the life of the process. Configuration errors
// (domain.ErrConfiguration, or no provider at all) are cached too; any other
// factory failure is returned and the next call tries again.
type LazyEmbedder struct {
	factory EmbedderFactory

	mu    sync.Mutex
	ready atomic.Bool
	svc   driven.EmbeddingService
	err   error
}

// NewLazyEmbedder wraps factory. A nil factory yields ErrEmbeddingUnavailable on use.
func NewLazyEmbedder(factory EmbedderFactory) *LazyEmbedder {
	return &LazyEmbedder{factory: factory}
}

// Get returns the underlying service, creating it if no earlier call has.
// The factory runs detached from the caller's cancellation.
func (l *LazyEmbedder) Get(ctx context.Context) (driven.EmbeddingService, error) {
	if l.ready.Load() {
		return l.svc, nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.ready.Load() {
		return l.svc, nil
	}
	if l.err != nil {
		return nil, l.err
	}

	if l.factory == nil {
		l.err = fmt.Errorf("%w: no embedding provider configured", domain.ErrEmbeddingUnavailable)
		return nil, l.err
	}

	done := logger.Timed("embedder init")
	svc, err := l.factory(context.WithoutCancel(ctx))
	done()
	if err == nil && svc == nil {
		l.err = fmt.Errorf("%w: no embedding provider configured", domain.ErrEmbeddingUnavailable)
		return nil, l.err
	}
	if err != nil {
		logger.Warn("embedder init failed: %v", err)
		if errors.Is(err, domain.ErrConfiguration) {
			l.err = err
		}
		return nil, err
	}

	l.svc = svc
	l.ready.Store(true)
	return svc, nil
}

// Embed generates an embedding for a single text.
func (l *LazyEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	svc, err := l.Get(ctx)
	if err != nil {
		return nil, err
	}
	return svc.Embed(ctx, text)
}

// EmbedBatch generates embeddings for multiple texts.
func (l *LazyEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	svc, err := l.Get(ctx)
	if err != nil {
		return nil, err
	}
	return svc.EmbedBatch(ctx, texts)
}

// Dimensions returns 0 until the service has been created.
func (l *LazyEmbedder) Dimensions() int {
	if svc := l.loaded(); svc != nil {
		return svc.Dimensions()
	}
	return 0
}

// ModelName returns an empty string until the service has been created.
func (l *LazyEmbedder) ModelName() string {
	if svc := l.loaded(); svc != nil {
		return svc.ModelName()
	}
	return ""
}

// Ping creates the service if needed and checks it is reachable.
func (l *LazyEmbedder) Ping(ctx context.Context) error {
	svc, err := l.Get(ctx)
	if err != nil {
		return err
	}
	return svc.Ping(ctx)
}

// Close releases the underlying service if it was created.
func (l *LazyEmbedder) Close() error {
	if svc := l.loaded(); svc != nil {
		return svc.Close()
	}
	return nil
}

// Initialised reports whether the factory has run successfully.
func (l *LazyEmbedder) Initialised() bool {
	return l.loaded() != nil
}

// loaded returns the service without triggering creation.
func (l *LazyEmbedder) loaded() driven.EmbeddingService {
	if !l.ready.Load() {
		return nil
	}
	return l.svc
}
