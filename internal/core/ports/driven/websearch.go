package driven

import (
	"context"

	"github.com/custodia-labs/triage/internal/core/domain"
)

// WebSearcher runs a live web search.
type WebSearcher interface {
	// Search returns at most n organic results for the query.
	Search(ctx context.Context, query string, n int) ([]domain.WebResult, error)

	// Name identifies the backing engine in traces (e.g. "google", "duckduckgo").
	Name() string
}
