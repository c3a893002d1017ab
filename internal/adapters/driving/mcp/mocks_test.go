package mcp

import (
	"context"
	"fmt"

	"github.com/custodia-labs/triage/internal/core/domain"
	"github.com/custodia-labs/triage/internal/core/ports/driving"
)

// mockAskService is a mock implementation of driving.AskService.
type mockAskService struct {
	result *domain.AskResult
	err    error
	last   domain.Query
}

func (m *mockAskService) Ask(_ context.Context, q domain.Query) (*domain.AskResult, error) {
	m.last = q
	return m.result, m.err
}

// mockIngestionService is a mock implementation of driving.IngestionService.
type mockIngestionService struct {
	result    domain.IngestResult
	submitErr error
	statuses  map[string]*domain.UploadStatus
	ingested  []string
	submitted []string
	docIDs    []string
}

func (m *mockIngestionService) Ingest(_ context.Context, path, docID string) domain.IngestResult {
	m.ingested = append(m.ingested, path)
	m.docIDs = append(m.docIDs, docID)
	return m.result
}

func (m *mockIngestionService) Submit(_ context.Context, path, docID, _ string) error {
	if m.submitErr != nil {
		return m.submitErr
	}
	m.submitted = append(m.submitted, path)
	m.docIDs = append(m.docIDs, docID)
	return nil
}

func (m *mockIngestionService) Status(_ context.Context, docID string) (*domain.UploadStatus, error) {
	if st, ok := m.statuses[docID]; ok {
		return st, nil
	}
	return nil, fmt.Errorf("%w: upload status %s", domain.ErrNotFound, docID)
}

func (m *mockIngestionService) Close() error { return nil }

// mockLogService is a mock implementation of driving.DecisionLogService.
type mockLogService struct {
	entries   []domain.LogEntry
	err       error
	lastLimit int
}

func (m *mockLogService) Recent(_ context.Context, limit int) ([]domain.LogEntry, error) {
	m.lastLimit = limit
	return m.entries, m.err
}

// mockDocumentService is a mock implementation of driving.DocumentService.
type mockDocumentService struct {
	docs      []driving.DocumentSummary
	listErr   error
	deleteErr error
	deleted   []string
}

func (m *mockDocumentService) List(_ context.Context) ([]driving.DocumentSummary, error) {
	return m.docs, m.listErr
}

func (m *mockDocumentService) Delete(_ context.Context, docID string) error {
	if m.deleteErr != nil {
		return m.deleteErr
	}
	m.deleted = append(m.deleted, docID)
	return nil
}
