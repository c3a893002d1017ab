// Package chunker splits extracted document text into overlapping windows.
package chunker

import (
	"context"
	"strings"
	"unicode"

	"github.com/custodia-labs/triage/internal/core/domain"
	"github.com/custodia-labs/triage/internal/core/ports/driven"
)

var _ driven.ChunkStage = (*Processor)(nil)

// DefaultChunkSize is the default number of characters per chunk.
const DefaultChunkSize = 1000

// DefaultChunkOverlap is the default number of overlapping characters.
const DefaultChunkOverlap = 200

// MetadataProvenance is the document metadata key copied onto each chunk.
const MetadataProvenance = "provenance"

// Processor splits document content into chunks of at most chunkSize
// characters, each sharing up to overlap characters with its predecessor.
// A window is cut at the last whitespace in its second half when one exists,
// so words are rarely split.
type Processor struct {
	chunkSize int
	overlap   int
}

// Option configures the chunker processor.
type Option func(*Processor)

// WithChunkSize sets the chunk size in characters.
func WithChunkSize(size int) Option {
	return func(p *Processor) {
		if size > 0 {
			p.chunkSize = size
		}
	}
}

// WithOverlap sets the overlap between chunks in characters.
func WithOverlap(overlap int) Option {
	return func(p *Processor) {
		if overlap >= 0 {
			p.overlap = overlap
		}
	}
}

// New creates a new chunker processor with the given options.
func New(opts ...Option) *Processor {
	p := &Processor{
		chunkSize: DefaultChunkSize,
		overlap:   DefaultChunkOverlap,
	}

	for _, opt := range opts {
		opt(p)
	}

	if p.overlap >= p.chunkSize {
		p.overlap = p.chunkSize / 4
	}

	return p
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "chunker"
}

// ChunkSize returns the configured window size.
func (p *Processor) ChunkSize() int {
	return p.chunkSize
}

// Overlap returns the configured overlap.
func (p *Processor) Overlap() int {
	return p.overlap
}

// Process splits doc.Content into chunks numbered from zero.
// Input chunks are ignored; this processor creates new chunks.
func (p *Processor) Process(ctx context.Context, doc *domain.Document, _ []domain.Chunk) ([]domain.Chunk, error) {
	texts := p.Split(doc.Content)
	if len(texts) == 0 {
		return nil, nil
	}

	provenance, _ := doc.Metadata[MetadataProvenance].(string)

	chunks := make([]domain.Chunk, 0, len(texts))
	for _, text := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		seq := len(chunks)
		chunks = append(chunks, domain.Chunk{
			ID:         domain.ChunkID(doc.ID, seq),
			DocumentID: doc.ID,
			Sequence:   seq,
			Content:    text,
			Provenance: provenance,
			Metadata:   make(map[string]any),
		})
	}
	return chunks, nil
}

// Split returns the chunk texts for content. Windows that are only
// whitespace are dropped.
func (p *Processor) Split(content string) []string {
	runes := []rune(content)
	n := len(runes)
	if n == 0 {
		return nil
	}

	texts := make([]string, 0, n/(p.chunkSize-p.overlap)+1)
	start := 0
	for start < n {
		end := start + p.chunkSize
		if end >= n {
			end = n
		} else if cut := lastSpace(runes, start+p.chunkSize/2, end); cut > start {
			end = cut
		}

		if text := strings.TrimSpace(string(runes[start:end])); text != "" {
			texts = append(texts, text)
		}
		if end == n {
			break
		}

		next := end - p.overlap
		if next <= start {
			next = end
		}
		start = next
	}
	return texts
}

// lastSpace returns the index just after the last whitespace rune in
// runes[from:to], or -1.
func lastSpace(runes []rune, from, to int) int {
	for i := to - 1; i >= from; i-- {
		if unicode.IsSpace(runes[i]) {
			return i + 1
		}
	}
	return -1
}
