package driving

import (
	"context"

	"github.com/custodia-labs/triage/internal/core/domain"
)

// DecisionEngine picks exactly one agent for a query.
// Decide is total: it never fails and always returns a decision.
type DecisionEngine interface {
	Decide(ctx context.Context, q domain.Query) domain.Decision
}

// Answerer produces an answer for one agent kind.
// Failures are reported in the answer text and the trace's error field,
// never as a Go error.
type Answerer interface {
	// Kind returns the agent this answerer serves.
	Kind() domain.AgentKind

	// Answer returns the synthesized answer and its trace.
	Answer(ctx context.Context, q domain.Query) (string, domain.Trace)
}

// AskService routes a query, answers it, and records the decision.
type AskService interface {
	// Ask returns an error only for invalid input such as blank text.
	Ask(ctx context.Context, q domain.Query) (*domain.AskResult, error)
}
