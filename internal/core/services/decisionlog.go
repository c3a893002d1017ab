package services

import (
	"context"
	"fmt"

	"github.com/custodia-labs/triage/internal/core/domain"
	"github.com/custodia-labs/triage/internal/core/ports/driven"
	"github.com/custodia-labs/triage/internal/core/ports/driving"
)

// Ensure DecisionLogService implements the interface.
var _ driving.DecisionLogService = (*DecisionLogService)(nil)

// DecisionLogService reads the decision log.
type DecisionLogService struct {
	log driven.DecisionLog
}

// NewDecisionLogService creates a new decision log service.
func NewDecisionLogService(log driven.DecisionLog) *DecisionLogService {
	return &DecisionLogService{log: log}
}

// Recent returns up to limit entries, most recent first.
func (s *DecisionLogService) Recent(ctx context.Context, limit int) ([]domain.LogEntry, error) {
	if limit < 0 {
		return nil, fmt.Errorf("%w: limit must not be negative", domain.ErrInvalidInput)
	}
	if limit == 0 {
		limit = driving.DefaultLogLimit
	}
	entries, err := s.log.Tail(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("read decision log: %w", err)
	}
	if entries == nil {
		entries = []domain.LogEntry{}
	}
	return entries, nil
}
