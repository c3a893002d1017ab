package domain

import "time"

// IngestionState is the lifecycle stage of a document ingestion.
type IngestionState string

// Ingestion states. Only the ingestion pipeline writes the terminal states.
const (
	IngestionProcessing IngestionState = "processing"
	IngestionEmbedding  IngestionState = "embedding"
	IngestionCompleted  IngestionState = "completed"
	IngestionFailed     IngestionState = "failed"
)

// IsValid returns true if the state is recognised.
func (s IngestionState) IsValid() bool {
	switch s {
	case IngestionProcessing, IngestionEmbedding, IngestionCompleted, IngestionFailed:
		return true
	default:
		return false
	}
}

// IsTerminal returns true once ingestion has finished, successfully or not.
func (s IngestionState) IsTerminal() bool {
	return s == IngestionCompleted || s == IngestionFailed
}

// String returns the string representation.
func (s IngestionState) String() string {
	return string(s)
}

// UploadStatus tracks a document through background ingestion.
type UploadStatus struct {
	DocID      string         `json:"doc_id"`
	State      IngestionState `json:"state"`
	Message    string         `json:"message"`
	ChunkCount int            `json:"chunk_count,omitempty"`
	Filename   string         `json:"filename,omitempty"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

// IngestStatus is the outcome of a synchronous ingestion.
type IngestStatus string

// Ingestion outcomes.
const (
	IngestSuccess IngestStatus = "success"
	IngestError   IngestStatus = "error"
)

// IngestResult reports what a synchronous ingestion did.
type IngestResult struct {
	Status      IngestStatus `json:"status"`
	ChunksCount int          `json:"chunks_count,omitempty"`
	Message     string       `json:"message"`
}

// OK returns true if ingestion succeeded.
func (r IngestResult) OK() bool {
	return r.Status == IngestSuccess
}
