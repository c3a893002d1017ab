package driving

import (
	"context"

	"github.com/custodia-labs/triage/internal/core/domain"
)

// DefaultLogLimit is the number of entries returned when no limit is given.
const DefaultLogLimit = 100

// DecisionLogService exposes the decision log to callers.
type DecisionLogService interface {
	// Recent returns up to limit entries, most recent first.
	// A zero limit means DefaultLogLimit; a negative limit returns ErrInvalidInput.
	Recent(ctx context.Context, limit int) ([]domain.LogEntry, error)
}
