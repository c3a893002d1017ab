package memory

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/custodia-labs/triage/internal/core/domain"
	"github.com/custodia-labs/triage/internal/core/ports/driven"
)

// Ensure DocumentIndex implements the interface.
var _ driven.DocumentIndex = (*DocumentIndex)(nil)

// DocumentIndex is an in-memory vector index over document chunks.
// Search is exhaustive cosine similarity. The vector dimensionality is fixed
// by the constructor or, when zero, by the first successful Add.
type DocumentIndex struct {
	mu         sync.RWMutex
	dimensions int
	chunks     []indexedChunk
	byDoc      map[string]int
}

type indexedChunk struct {
	chunk domain.Chunk
	norm  float64
}

// NewDocumentIndex creates an empty index. Pass 0 to take the dimensionality
// from the first added chunk.
func NewDocumentIndex(dimensions int) *DocumentIndex {
	return &DocumentIndex{
		dimensions: dimensions,
		byDoc:      make(map[string]int),
	}
}

// Add inserts chunks atomically: either every chunk is added or none is.
func (idx *DocumentIndex) Add(_ context.Context, chunks []domain.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	prepared, dims, err := idx.prepare(chunks, "")
	if err != nil {
		return err
	}
	idx.dimensions = dims
	idx.chunks = append(idx.chunks, prepared...)
	for _, c := range chunks {
		idx.byDoc[c.DocumentID]++
	}
	return nil
}

// Replace drops the chunks of docID and appends chunks under one write lock.
// Validation happens before anything is removed, so a rejected batch leaves
// the document as it was. An empty batch removes the document.
func (idx *DocumentIndex) Replace(_ context.Context, docID string, chunks []domain.Chunk) error {
	if docID == "" {
		return fmt.Errorf("%w: document id is required", domain.ErrInvalidInput)
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	var prepared []indexedChunk
	dims := idx.dimensions
	if len(chunks) > 0 {
		var err error
		if prepared, dims, err = idx.prepare(chunks, docID); err != nil {
			return err
		}
	}

	idx.remove(docID)
	idx.dimensions = dims
	idx.chunks = append(idx.chunks, prepared...)
	if len(prepared) > 0 {
		idx.byDoc[docID] = len(prepared)
	}
	return nil
}

// prepare validates chunks against the index dimensionality. When docID is
// set every chunk must belong to it. Callers hold the write lock.
func (idx *DocumentIndex) prepare(chunks []domain.Chunk, docID string) ([]indexedChunk, int, error) {
	dims := idx.dimensions
	if dims == 0 {
		dims = len(chunks[0].Embedding)
	}

	prepared := make([]indexedChunk, 0, len(chunks))
	for i, c := range chunks {
		if c.DocumentID == "" {
			return nil, 0, fmt.Errorf("%w: chunk %d has no document id", domain.ErrInvalidInput, i)
		}
		if docID != "" && c.DocumentID != docID {
			return nil, 0, fmt.Errorf("%w: chunk %s belongs to %s, not %s",
				domain.ErrInvalidInput, c.ID, c.DocumentID, docID)
		}
		if len(c.Embedding) == 0 {
			return nil, 0, fmt.Errorf("%w: chunk %s has no embedding", domain.ErrInvalidInput, c.ID)
		}
		if len(c.Embedding) != dims {
			return nil, 0, fmt.Errorf("%w: chunk %s has %d dimensions, index expects %d",
				domain.ErrInvalidInput, c.ID, len(c.Embedding), dims)
		}
		prepared = append(prepared, indexedChunk{chunk: c, norm: norm(c.Embedding)})
	}
	return prepared, dims, nil
}

// Search returns up to k chunks ordered by decreasing cosine similarity.
// Ties keep insertion order.
func (idx *DocumentIndex) Search(_ context.Context, vector []float32, k int) ([]domain.ScoredChunk, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	if k <= 0 || len(idx.chunks) == 0 {
		return nil, nil
	}
	if len(vector) != idx.dimensions {
		return nil, fmt.Errorf("%w: query has %d dimensions, index expects %d",
			domain.ErrInvalidInput, len(vector), idx.dimensions)
	}

	qnorm := norm(vector)
	results := make([]domain.ScoredChunk, len(idx.chunks))
	for i, ic := range idx.chunks {
		results[i] = domain.ScoredChunk{
			Chunk:      ic.chunk,
			Similarity: cosine(vector, qnorm, ic.chunk.Embedding, ic.norm),
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Similarity > results[j].Similarity
	})

	if len(results) > k {
		results = results[:k]
	}
	return results, nil
}

// DeleteDocument removes every chunk of docID.
func (idx *DocumentIndex) DeleteDocument(_ context.Context, docID string) (int, error) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	return idx.remove(docID), nil
}

// remove drops the chunks of docID and returns how many there were.
// Callers hold the write lock.
func (idx *DocumentIndex) remove(docID string) int {
	removed := idx.byDoc[docID]
	if removed == 0 {
		return 0
	}

	kept := idx.chunks[:0]
	for _, ic := range idx.chunks {
		if ic.chunk.DocumentID != docID {
			kept = append(kept, ic)
		}
	}
	// Clear the tail so removed chunks can be collected.
	for i := len(kept); i < len(idx.chunks); i++ {
		idx.chunks[i] = indexedChunk{}
	}
	idx.chunks = kept
	delete(idx.byDoc, docID)
	return removed
}

// Count returns the number of chunks held.
func (idx *DocumentIndex) Count() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.chunks)
}

// Documents returns the distinct document IDs held, sorted.
func (idx *DocumentIndex) Documents() []string {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	ids := make([]string, 0, len(idx.byDoc))
	for id := range idx.byDoc {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// ChunkCount returns the number of chunks held for one document.
func (idx *DocumentIndex) ChunkCount(docID string) int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.byDoc[docID]
}

// Dimensions returns the fixed vector size, or 0 before the first add.
func (idx *DocumentIndex) Dimensions() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.dimensions
}

func norm(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}

// cosine returns 0 when either vector has zero length.
func cosine(a []float32, anorm float64, b []float32, bnorm float64) float64 {
	if anorm == 0 || bnorm == 0 {
		return 0
	}
	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	return dot / (anorm * bnorm)
}
