// Package watch submits PDFs dropped into a directory for background ingestion.
package watch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/triage/internal/core/domain"
	"github.com/custodia-labs/triage/internal/core/ports/driving"
	"github.com/custodia-labs/triage/internal/logger"
)

// DefaultDebounce is how long a file must stay quiet before it is submitted.
const DefaultDebounce = 500 * time.Millisecond

// DocIDPrefix prefixes the doc id of every watched file.
const DocIDPrefix = "watch_"

// Watcher watches one directory for new or rewritten PDFs.
type Watcher struct {
	dir       string
	ingestion driving.IngestionService
	debounce  time.Duration
	fs        *fsnotify.Watcher

	mu      sync.Mutex
	pending map[string]time.Time
}

// New creates a watcher on dir, creating the directory if needed.
func New(dir string, ingestion driving.IngestionService, debounce time.Duration) (*Watcher, error) {
	if ingestion == nil {
		return nil, fmt.Errorf("%w: ingestion service is required", domain.ErrInvalidInput)
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create watch dir: %w", err)
	}

	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := fs.Add(dir); err != nil {
		_ = fs.Close()
		return nil, fmt.Errorf("watch %s: %w", dir, err)
	}

	return &Watcher{
		dir:       dir,
		ingestion: ingestion,
		debounce:  debounce,
		fs:        fs,
		pending:   make(map[string]time.Time),
	}, nil
}

// DocID returns the doc id used for a watched file.
func DocID(path string) string {
	return DocIDPrefix + filepath.Base(path)
}

// Run submits PDFs already in the directory, then processes events until
// ctx is cancelled. The underlying watcher is closed on return.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.fs.Close()

	logger.Info("watch: %s", w.dir)
	if err := w.scan(ctx); err != nil {
		logger.Warn("watch: initial scan: %v", err)
	}

	ticker := time.NewTicker(w.debounce / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			w.handleEvent(event, time.Now())

		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watch: %v", err)

		case now := <-ticker.C:
			w.flush(ctx, now)
		}
	}
}

// handleEvent marks a PDF as pending. It reports whether the event was kept.
func (w *Watcher) handleEvent(event fsnotify.Event, now time.Time) bool {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return false
	}
	if !isPDF(event.Name) {
		return false
	}
	info, err := os.Stat(event.Name)
	if err != nil || !info.Mode().IsRegular() {
		return false
	}

	w.mu.Lock()
	w.pending[event.Name] = now
	w.mu.Unlock()
	return true
}

// flush submits files that have been quiet for the debounce period.
func (w *Watcher) flush(ctx context.Context, now time.Time) {
	w.mu.Lock()
	var ready []string
	for path, changed := range w.pending {
		if now.Sub(changed) >= w.debounce {
			ready = append(ready, path)
			delete(w.pending, path)
		}
	}
	w.mu.Unlock()

	for _, path := range ready {
		w.submit(ctx, path)
	}
}

func (w *Watcher) scan(ctx context.Context) error {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return err
	}
	for _, e := range entries {
		path := filepath.Join(w.dir, e.Name())
		if e.Type().IsRegular() && isPDF(path) {
			w.submit(ctx, path)
		}
	}
	return nil
}

func (w *Watcher) submit(ctx context.Context, path string) {
	docID := DocID(path)
	err := w.ingestion.Submit(ctx, path, docID, filepath.Base(path))
	switch {
	case err == nil:
		logger.Info("watch: queued %s as %s", filepath.Base(path), docID)
	case errors.Is(err, domain.ErrAlreadyExists):
		logger.Debug("watch: %s already in flight", docID)
	default:
		logger.Warn("watch: submit %s: %v", path, err)
	}
}

func isPDF(path string) bool {
	base := filepath.Base(path)
	return !strings.HasPrefix(base, ".") && strings.EqualFold(filepath.Ext(base), ".pdf")
}
