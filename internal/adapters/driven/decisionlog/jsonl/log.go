// Package jsonl persists routing decisions as append-only JSON Lines files.
package jsonl

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/custodia-labs/triage/internal/core/domain"
	"github.com/custodia-labs/triage/internal/core/ports/driven"
)

// Ensure Log implements the interface.
var _ driven.DecisionLog = (*Log)(nil)

// maxLineSize bounds a single log line. Traces carry full paper summaries.
const maxLineSize = 4 * 1024 * 1024

// Log writes one JSON object per line. Appends are serialised so
// concurrent requests never interleave partial lines.
type Log struct {
	mu      sync.Mutex
	path    string
	rawPath string
}

// New creates a log writing entries to path and raw routing calls to rawPath.
// An empty rawPath disables the raw audit trail. Files and parent
// directories are created on first write.
func New(path, rawPath string) *Log {
	return &Log{path: path, rawPath: rawPath}
}

// Path returns the decision log file path.
func (l *Log) Path() string {
	return l.path
}

// Record appends one entry.
func (l *Log) Record(_ context.Context, entry domain.LogEntry) error {
	return l.append(l.path, entry)
}

// AppendRaw appends one model routing record to the raw audit trail.
func (l *Log) AppendRaw(_ context.Context, raw domain.RawDecision) error {
	if l.rawPath == "" {
		return nil
	}
	return l.append(l.rawPath, raw)
}

func (l *Log) append(path string, v any) error {
	line, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding log entry: %w", err)
	}
	line = append(line, '\n')

	l.mu.Lock()
	defer l.mu.Unlock()

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating log directory: %w", err)
		}
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("opening decision log: %w", err)
	}
	if _, err := f.Write(line); err != nil {
		f.Close()
		return fmt.Errorf("writing decision log: %w", err)
	}
	return f.Close()
}

// Tail returns up to limit entries, most recent first. A missing file
// yields no entries; malformed lines are skipped. limit <= 0 returns all.
func (l *Log) Tail(ctx context.Context, limit int) ([]domain.LogEntry, error) {
	l.mu.Lock()
	data, err := os.ReadFile(l.path)
	l.mu.Unlock()
	if os.IsNotExist(err) {
		return []domain.LogEntry{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading decision log: %w", err)
	}

	var entries []domain.LogEntry
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var entry domain.LogEntry
		if err := json.Unmarshal(line, &entry); err != nil {
			continue
		}
		entries = append(entries, entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scanning decision log: %w", err)
	}

	// Most recent first.
	for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
		entries[i], entries[j] = entries[j], entries[i]
	}
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	if entries == nil {
		entries = []domain.LogEntry{}
	}
	return entries, nil
}
