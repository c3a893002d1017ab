package tui

import (
	"context"

	"github.com/custodia-labs/triage/internal/core/domain"
	"github.com/custodia-labs/triage/internal/core/ports/driving"
)

type mockAskService struct {
	result *domain.AskResult
	err    error
	last   domain.Query
}

func (m *mockAskService) Ask(_ context.Context, q domain.Query) (*domain.AskResult, error) {
	m.last = q
	if m.err != nil {
		return nil, m.err
	}
	return m.result, nil
}

type mockDocumentService struct {
	docs    []driving.DocumentSummary
	deleted []string
}

func (m *mockDocumentService) List(context.Context) ([]driving.DocumentSummary, error) {
	return m.docs, nil
}

func (m *mockDocumentService) Delete(_ context.Context, docID string) error {
	m.deleted = append(m.deleted, docID)
	return nil
}

type mockLogService struct {
	entries []domain.LogEntry
}

func (m *mockLogService) Recent(context.Context, int) ([]domain.LogEntry, error) {
	return m.entries, nil
}
