package httpapi

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/custodia-labs/triage/internal/core/domain"
	"github.com/custodia-labs/triage/internal/core/ports/driving"
)

// mockAskService records the last query.
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
	if strings.TrimSpace(q.Text) == "" {
		return nil, fmt.Errorf("%w: query text is required", domain.ErrInvalidInput)
	}
	return m.result, nil
}

// mockIngestionService records ingest and submit calls.
type mockIngestionService struct {
	mu        sync.Mutex
	result    domain.IngestResult
	submitErr error
	statuses  map[string]*domain.UploadStatus
	ingested  []string
	submitted []string
	filenames []string
}

func (m *mockIngestionService) Ingest(_ context.Context, path, _ string) domain.IngestResult {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ingested = append(m.ingested, path)
	return m.result
}

func (m *mockIngestionService) Submit(_ context.Context, path, _, filename string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.submitErr != nil {
		return m.submitErr
	}
	m.submitted = append(m.submitted, path)
	m.filenames = append(m.filenames, filename)
	return nil
}

func (m *mockIngestionService) Status(_ context.Context, docID string) (*domain.UploadStatus, error) {
	if st, ok := m.statuses[docID]; ok {
		return st, nil
	}
	return nil, fmt.Errorf("%w: upload status %s", domain.ErrNotFound, docID)
}

func (m *mockIngestionService) Close() error { return nil }

// mockDocumentService serves a fixed list.
type mockDocumentService struct {
	docs    []driving.DocumentSummary
	deleted []string
}

func (m *mockDocumentService) List(_ context.Context) ([]driving.DocumentSummary, error) {
	return m.docs, nil
}

func (m *mockDocumentService) Delete(_ context.Context, docID string) error {
	for _, d := range m.docs {
		if d.DocID == docID {
			m.deleted = append(m.deleted, docID)
			return nil
		}
	}
	return fmt.Errorf("%w: document %s", domain.ErrNotFound, docID)
}

// mockLogService returns entries and records the limit.
type mockLogService struct {
	entries   []domain.LogEntry
	lastLimit int
}

func (m *mockLogService) Recent(_ context.Context, limit int) ([]domain.LogEntry, error) {
	if limit < 0 {
		return nil, fmt.Errorf("%w: limit must not be negative", domain.ErrInvalidInput)
	}
	m.lastLimit = limit
	return m.entries, nil
}
