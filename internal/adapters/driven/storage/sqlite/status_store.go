package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/custodia-labs/triage/internal/core/domain"
	"github.com/custodia-labs/triage/internal/core/ports/driven"
)

// statusStore implements driven.StatusStore.
type statusStore struct {
	store *Store
}

var _ driven.StatusStore = (*statusStore)(nil)

// Timestamps are stored as fixed-width UTC strings so they sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// Put stores or replaces the status for status.DocID.
func (s *statusStore) Put(ctx context.Context, status domain.UploadStatus) error {
	if status.DocID == "" {
		return fmt.Errorf("%w: status has no doc id", domain.ErrInvalidInput)
	}
	if status.UpdatedAt.IsZero() {
		status.UpdatedAt = time.Now()
	}

	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO upload_status (doc_id, state, message, chunk_count, filename, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(doc_id) DO UPDATE SET
			state = excluded.state,
			message = excluded.message,
			chunk_count = excluded.chunk_count,
			filename = COALESCE(excluded.filename, upload_status.filename),
			updated_at = excluded.updated_at
	`, status.DocID, string(status.State), status.Message, status.ChunkCount,
		nullString(status.Filename), status.UpdatedAt.UTC().Format(timeLayout))
	if err != nil {
		return fmt.Errorf("saving upload status: %w", err)
	}
	return nil
}

// Get retrieves the status for a document.
func (s *statusStore) Get(ctx context.Context, docID string) (*domain.UploadStatus, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT doc_id, state, message, chunk_count, filename, updated_at
		FROM upload_status WHERE doc_id = ?
	`, docID)

	status, err := scanStatus(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return status, nil
}

// List returns every status, most recently updated first.
func (s *statusStore) List(ctx context.Context) ([]domain.UploadStatus, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT doc_id, state, message, chunk_count, filename, updated_at
		FROM upload_status
		ORDER BY updated_at DESC, doc_id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("querying upload status: %w", err)
	}
	defer rows.Close()

	var statuses []domain.UploadStatus //nolint:prealloc // size unknown from query
	for rows.Next() {
		status, err := scanStatus(rows)
		if err != nil {
			return nil, err
		}
		statuses = append(statuses, *status)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating upload status: %w", err)
	}
	return statuses, nil
}

// Delete removes the status for a document. Missing records are ignored.
func (s *statusStore) Delete(ctx context.Context, docID string) error {
	_, err := s.store.db.ExecContext(ctx, "DELETE FROM upload_status WHERE doc_id = ?", docID)
	if err != nil {
		return fmt.Errorf("deleting upload status: %w", err)
	}
	return nil
}

// MessageInterrupted replaces the message of ingestions cut short by a restart.
const MessageInterrupted = "interrupted by restart"

// FailInterrupted marks every non-terminal status as failed. It runs once at
// startup: no ingestion survives a restart, so rows still in processing or
// embedding belong to a previous process. Returns the number of rows changed.
func (s *Store) FailInterrupted(ctx context.Context) (int, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE upload_status
		SET state = ?, message = ?, updated_at = ?
		WHERE state NOT IN (?, ?)
	`, string(domain.IngestionFailed), MessageInterrupted, time.Now().UTC().Format(timeLayout),
		string(domain.IngestionCompleted), string(domain.IngestionFailed))
	if err != nil {
		return 0, fmt.Errorf("failing interrupted uploads: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failing interrupted uploads: %w", err)
	}
	return int(n), nil
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanStatus(row scanner) (*domain.UploadStatus, error) {
	var status domain.UploadStatus
	var state, updatedAt string
	var filename sql.NullString
	if err := row.Scan(&status.DocID, &state, &status.Message, &status.ChunkCount,
		&filename, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning upload status: %w", err)
	}

	status.State = domain.IngestionState(state)
	status.Filename = filename.String
	t, err := time.Parse(timeLayout, updatedAt)
	if err != nil {
		return nil, fmt.Errorf("parsing updated_at %q: %w", updatedAt, err)
	}
	status.UpdatedAt = t
	return &status, nil
}
