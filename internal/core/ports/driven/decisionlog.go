package driven

import (
	"context"

	"github.com/custodia-labs/triage/internal/core/domain"
)

// DecisionLog is an append-only record of routing decisions.
type DecisionLog interface {
	// Record appends one entry.
	Record(ctx context.Context, entry domain.LogEntry) error

	// Tail returns up to limit entries, most recent first.
	Tail(ctx context.Context, limit int) ([]domain.LogEntry, error)

	// AppendRaw appends a model-routing audit record to the raw trail.
	AppendRaw(ctx context.Context, raw domain.RawDecision) error
}
