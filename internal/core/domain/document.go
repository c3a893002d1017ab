package domain

import (
	"fmt"
	"time"
)

// ProvenancePDFUpload tags chunks that came from an uploaded PDF.
const ProvenancePDFUpload = "pdf_upload"

// Document represents a source document after text extraction.
type Document struct {
	// ID is the caller-assigned document identifier.
	ID string

	// Title is the human-readable title.
	Title string

	// Path is where the source file was read from.
	Path string

	// Content is the full extracted text before chunking.
	Content string

	// Metadata contains arbitrary key-value pairs.
	Metadata map[string]any

	// CreatedAt is when the document was extracted.
	CreatedAt time.Time
}

// Chunk is the atomic unit of embedding and retrieval.
// Chunks are immutable once created; the index owns them until the
// owning document is deleted.
type Chunk struct {
	// ID is "{document_id}_chunk_{sequence}".
	ID string

	// DocumentID links to the owning Document.
	DocumentID string

	// Sequence is the zero-based position within the document.
	Sequence int

	// Content is the text content of this chunk.
	Content string

	// Provenance records where the text came from.
	Provenance string

	// Embedding is the vector representation for similarity search.
	Embedding []float32

	// Metadata contains chunk-specific key-value pairs.
	Metadata map[string]any
}

// ChunkID builds the identifier for the chunk at sequence within documentID.
func ChunkID(documentID string, sequence int) string {
	return fmt.Sprintf("%s_chunk_%d", documentID, sequence)
}

// ScoredChunk is a chunk returned by similarity search.
type ScoredChunk struct {
	Chunk Chunk

	// Similarity is the cosine similarity to the query (-1 to 1).
	Similarity float64
}
