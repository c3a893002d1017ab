package driven

import (
	"context"

	"github.com/custodia-labs/triage/internal/core/domain"
)

// PaperSearcher queries an academic paper index.
type PaperSearcher interface {
	// Search returns papers matching the query, in the order the index ranked them.
	Search(ctx context.Context, query domain.PaperQuery) ([]domain.Paper, error)
}
