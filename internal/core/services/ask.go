package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/custodia-labs/triage/internal/core/domain"
	"github.com/custodia-labs/triage/internal/core/ports/driven"
	"github.com/custodia-labs/triage/internal/core/ports/driving"
	"github.com/custodia-labs/triage/internal/logger"
)

// Ensure AskService implements the interface.
var _ driving.AskService = (*AskService)(nil)

// MessageNoAgent is the answer when a decision names no registered answerer.
const MessageNoAgent = "No agent chosen"

// AskService routes a query to one answerer and records the outcome.
type AskService struct {
	engine    driving.DecisionEngine
	answerers map[domain.AgentKind]driving.Answerer
	log       driven.DecisionLog
	now       func() time.Time
}

// NewAskService creates an ask service. Answerers are keyed by Kind; a later
// answerer for the same kind replaces an earlier one. log may be nil.
func NewAskService(engine driving.DecisionEngine, log driven.DecisionLog, answerers ...driving.Answerer) *AskService {
	byKind := make(map[domain.AgentKind]driving.Answerer, len(answerers))
	for _, a := range answerers {
		byKind[a.Kind()] = a
	}
	return &AskService{
		engine:    engine,
		answerers: byKind,
		log:       log,
		now:       time.Now,
	}
}

// Ask decides, answers and logs one query.
func (s *AskService) Ask(ctx context.Context, q domain.Query) (*domain.AskResult, error) {
	q.Text = strings.TrimSpace(q.Text)
	if q.Text == "" {
		return nil, fmt.Errorf("%w: query text is required", domain.ErrInvalidInput)
	}
	q.DocumentID = strings.TrimSpace(q.DocumentID)

	decision := s.engine.Decide(ctx, q)
	logger.Info("ask: %s (%s)", decision.Agent, decision.Rationale)

	answer, trace := s.dispatch(ctx, decision, q)

	s.record(ctx, domain.LogEntry{
		Timestamp: s.now().Unix(),
		Decision:  decision.Agent,
		Rationale: decision.Rationale,
		Input:     q.Text,
		Trace:     trace,
	})

	return &domain.AskResult{
		Answer:    answer,
		AgentUsed: decision.Agent,
		Rationale: decision.Rationale,
		Trace:     trace,
	}, nil
}

func (s *AskService) dispatch(ctx context.Context, d domain.Decision, q domain.Query) (string, domain.Trace) {
	answerer, ok := s.answerers[d.Agent]
	if !ok {
		logger.Warn("ask: no answerer registered for %q", d.Agent)
		return MessageNoAgent, domain.Trace{}
	}

	done := logger.Timed("answer " + string(d.Agent))
	defer done()
	return answerer.Answer(ctx, q)
}

// record appends to the decision log. A failed write never fails the query.
func (s *AskService) record(ctx context.Context, entry domain.LogEntry) {
	if s.log == nil {
		return
	}
	if err := s.log.Record(ctx, entry); err != nil {
		logger.Error("decision log write failed: %v", err)
	}
}
