// Package postprocessors turns extracted documents into indexable chunks.
package postprocessors

import (
	"context"
	"errors"
	"fmt"

	"github.com/custodia-labs/triage/internal/core/domain"
	"github.com/custodia-labs/triage/internal/core/ports/driven"
	"github.com/custodia-labs/triage/internal/logger"
)

var _ driven.Chunker = (*Pipeline)(nil)

// ErrNilDocument is returned when the pipeline is given no document.
var ErrNilDocument = errors.New("document is nil")

// Pipeline runs chunk stages in order.
type Pipeline struct {
	processors []driven.ChunkStage
}

// NewPipeline returns a pipeline running processors in the given order.
func NewPipeline(processors ...driven.ChunkStage) *Pipeline {
	return &Pipeline{
		processors: processors,
	}
}

// Chunk runs doc through every stage. A stage error stops the pipeline
// and is wrapped with the stage name.
func (p *Pipeline) Chunk(ctx context.Context, doc *domain.Document) ([]domain.Chunk, error) {
	if doc == nil {
		return nil, ErrNilDocument
	}

	var chunks []domain.Chunk
	for _, processor := range p.processors {
		var err error
		chunks, err = processor.Process(ctx, doc, chunks)
		if err != nil {
			return nil, fmt.Errorf("processor %s: %w", processor.Name(), err)
		}
		logger.Debug("postprocess %s: %s -> %d chunks", doc.ID, processor.Name(), len(chunks))
	}

	return chunks, nil
}

// Add appends a processor to the pipeline.
func (p *Pipeline) Add(processor driven.ChunkStage) {
	p.processors = append(p.processors, processor)
}

// Len returns the number of processors in the pipeline.
func (p *Pipeline) Len() int {
	return len(p.processors)
}

// Names returns the processor names in execution order.
func (p *Pipeline) Names() []string {
	names := make([]string, len(p.processors))
	for i, proc := range p.processors {
		names[i] = proc.Name()
	}
	return names
}
