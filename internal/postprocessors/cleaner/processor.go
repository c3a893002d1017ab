// Package cleaner tidies chunk text produced from layout-preserving extraction.
package cleaner

import (
	"context"
	"regexp"
	"strings"

	"github.com/custodia-labs/triage/internal/core/domain"
	"github.com/custodia-labs/triage/internal/core/ports/driven"
)

var _ driven.ChunkStage = (*Processor)(nil)

var (
	// pdftotext -layout pads columns with runs of spaces.
	spaceRun = regexp.MustCompile(`[ \t\f\v]{2,}`)
	blankRun = regexp.MustCompile(`\n{3,}`)
)

// Processor collapses padding whitespace, drops chunks left empty and
// renumbers the survivors so sequences stay dense.
type Processor struct{}

// New creates a cleaner.
func New() *Processor {
	return &Processor{}
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "cleaner"
}

// Process cleans chunks in place and renumbers them.
func (p *Processor) Process(_ context.Context, doc *domain.Document, chunks []domain.Chunk) ([]domain.Chunk, error) {
	out := chunks[:0]
	for _, c := range chunks {
		c.Content = Clean(c.Content)
		if c.Content == "" {
			continue
		}
		c.Sequence = len(out)
		c.ID = domain.ChunkID(doc.ID, c.Sequence)
		out = append(out, c)
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out, nil
}

// Clean normalises line endings, squeezes space runs and blank lines.
func Clean(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = spaceRun.ReplaceAllString(s, " ")
	s = blankRun.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}
