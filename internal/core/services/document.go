package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/custodia-labs/triage/internal/core/domain"
	"github.com/custodia-labs/triage/internal/core/ports/driven"
	"github.com/custodia-labs/triage/internal/core/ports/driving"
	"github.com/custodia-labs/triage/internal/logger"
)

// Ensure DocumentService implements the interface.
var _ driving.DocumentService = (*DocumentService)(nil)

// DocumentService lists and removes ingested documents.
type DocumentService struct {
	index    driven.DocumentIndex
	statuses driven.StatusStore
}

// NewDocumentService creates a new document service. statuses may be nil.
func NewDocumentService(index driven.DocumentIndex, statuses driven.StatusStore) *DocumentService {
	return &DocumentService{
		index:    index,
		statuses: statuses,
	}
}

// List returns every document that has chunks in the index or a recorded
// upload status, sorted by ID.
func (s *DocumentService) List(ctx context.Context) ([]driving.DocumentSummary, error) {
	byID := make(map[string]*driving.DocumentSummary)
	for _, id := range s.index.Documents() {
		byID[id] = &driving.DocumentSummary{DocID: id, ChunkCount: s.index.ChunkCount(id)}
	}

	if s.statuses != nil {
		statuses, err := s.statuses.List(ctx)
		if err != nil {
			return nil, fmt.Errorf("list upload statuses: %w", err)
		}
		for _, st := range statuses {
			summary, ok := byID[st.DocID]
			if !ok {
				summary = &driving.DocumentSummary{DocID: st.DocID}
				byID[st.DocID] = summary
			}
			summary.Filename = st.Filename
			summary.State = st.State
		}
	}

	out := make([]driving.DocumentSummary, 0, len(byID))
	for _, summary := range byID {
		out = append(out, *summary)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].DocID < out[j].DocID
	})
	return out, nil
}

// Delete removes a document's chunks and its upload status.
func (s *DocumentService) Delete(ctx context.Context, docID string) error {
	docID = strings.TrimSpace(docID)
	if docID == "" {
		return fmt.Errorf("%w: document id is required", domain.ErrInvalidInput)
	}

	removed, err := s.index.DeleteDocument(ctx, docID)
	if err != nil {
		return fmt.Errorf("delete chunks: %w", err)
	}

	hadStatus := false
	if s.statuses != nil {
		if _, err := s.statuses.Get(ctx, docID); err == nil {
			hadStatus = true
		} else if !errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("get upload status: %w", err)
		}
		if hadStatus {
			if err := s.statuses.Delete(ctx, docID); err != nil {
				return fmt.Errorf("delete upload status: %w", err)
			}
		}
	}

	if removed == 0 && !hadStatus {
		return fmt.Errorf("%w: document %s", domain.ErrNotFound, docID)
	}
	logger.Info("deleted %s (%d chunks)", docID, removed)
	return nil
}
