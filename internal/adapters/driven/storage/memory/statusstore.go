package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/custodia-labs/triage/internal/core/domain"
	"github.com/custodia-labs/triage/internal/core/ports/driven"
)

// Ensure StatusStore implements the interface.
var _ driven.StatusStore = (*StatusStore)(nil)

// StatusStore is an in-memory implementation of driven.StatusStore.
// Records are lost on restart.
type StatusStore struct {
	mu       sync.RWMutex
	statuses map[string]domain.UploadStatus
}

// NewStatusStore creates a new in-memory upload status store.
func NewStatusStore() *StatusStore {
	return &StatusStore{
		statuses: make(map[string]domain.UploadStatus),
	}
}

// Put stores or replaces the status for status.DocID.
func (s *StatusStore) Put(_ context.Context, status domain.UploadStatus) error {
	if status.DocID == "" {
		return fmt.Errorf("%w: status has no doc id", domain.ErrInvalidInput)
	}
	if status.UpdatedAt.IsZero() {
		status.UpdatedAt = time.Now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.statuses[status.DocID] = status
	return nil
}

// Get retrieves the status for a document.
func (s *StatusStore) Get(_ context.Context, docID string) (*domain.UploadStatus, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	status, ok := s.statuses[docID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &status, nil
}

// List returns every status, most recently updated first.
func (s *StatusStore) List(_ context.Context) ([]domain.UploadStatus, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.UploadStatus, 0, len(s.statuses))
	for _, status := range s.statuses {
		result = append(result, status)
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].UpdatedAt.Equal(result[j].UpdatedAt) {
			return result[i].UpdatedAt.After(result[j].UpdatedAt)
		}
		return result[i].DocID < result[j].DocID
	})
	return result, nil
}

// Delete removes the status for a document. Missing records are ignored.
func (s *StatusStore) Delete(_ context.Context, docID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.statuses, docID)
	return nil
}
