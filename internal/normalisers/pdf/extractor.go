// Package pdf extracts text from PDF files using poppler's pdftotext.
package pdf

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/custodia-labs/triage/internal/core/domain"
	"github.com/custodia-labs/triage/internal/core/ports/driven"
)

// Ensure Extractor implements the interface.
var _ driven.TextExtractor = (*Extractor)(nil)

// ToolName is the poppler binary the extractor shells out to.
const ToolName = "pdftotext"

// ErrPDFToolNotFound indicates pdftotext is not installed.
var ErrPDFToolNotFound = errors.New("pdftotext not found in PATH")

// CommandRunner runs an external command and returns its stdout.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// execRunner runs commands with os/exec.
type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	if _, err := exec.LookPath(name); err != nil {
		return nil, ErrPDFToolNotFound
	}
	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("%w: %s", err, msg)
		}
		return nil, err
	}
	return out, nil
}

// Extractor turns a PDF on disk into plain text.
type Extractor struct {
	runner CommandRunner
}

// New creates an extractor that runs the pdftotext binary.
func New() *Extractor {
	return &Extractor{runner: execRunner{}}
}

// NewWithRunner creates an extractor with a custom command runner.
func NewWithRunner(runner CommandRunner) *Extractor {
	return &Extractor{runner: runner}
}

// Extract returns the layout-preserving text of the PDF at path.
// Blank output is returned as-is; callers decide whether that is an error.
func (e *Extractor) Extract(ctx context.Context, path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrExtraction, err)
	}
	f.Close()

	out, err := e.runner.Run(ctx, ToolName, "-layout", "-enc", "UTF-8", path, "-")
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		if errors.Is(err, ErrPDFToolNotFound) {
			return "", fmt.Errorf("%w: %w. %s", domain.ErrExtraction, err, InstallInstructions())
		}
		return "", fmt.Errorf("%w: pdftotext failed: %v", domain.ErrExtraction, err)
	}

	return strings.ToValidUTF8(string(out), ""), nil
}

// CheckAvailable reports whether pdftotext is on PATH.
func CheckAvailable() error {
	if _, err := exec.LookPath(ToolName); err != nil {
		return ErrPDFToolNotFound
	}
	return nil
}

// InstallInstructions explains how to install pdftotext.
func InstallInstructions() string {
	return "Install pdftotext (poppler): brew install poppler (macOS) or apt install poppler-utils (Debian/Ubuntu)"
}
