// Package logger provides leveled logging for triage.
// Debug, Info and Warn lines are written only in verbose mode (--verbose);
// Error lines are always written. Output defaults to stderr.
package logger

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

var (
	mu      sync.RWMutex
	verbose bool
	output  io.Writer = os.Stderr
)

// SetVerbose enables or disables verbose logging.
func SetVerbose(v bool) {
	mu.Lock()
	defer mu.Unlock()
	verbose = v
}

// IsVerbose returns true if verbose mode is enabled.
func IsVerbose() bool {
	mu.RLock()
	defer mu.RUnlock()
	return verbose
}

// SetOutput sets the output writer. Useful for testing.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
}

func logf(always bool, level, format string, args ...any) {
	mu.RLock()
	defer mu.RUnlock()
	if always || verbose {
		fmt.Fprintf(output, "["+level+"] "+format+"\n", args...)
	}
}

// Debug prints a message if verbose mode is enabled.
func Debug(format string, args ...any) { logf(false, "DEBUG", format, args...) }

// Info prints an informational message if verbose mode is enabled.
func Info(format string, args ...any) { logf(false, "INFO", format, args...) }

// Warn prints a warning message if verbose mode is enabled.
func Warn(format string, args ...any) { logf(false, "WARN", format, args...) }

// Error prints a message regardless of verbose mode.
func Error(format string, args ...any) { logf(true, "ERROR", format, args...) }

// Section prints a section header if verbose mode is enabled.
func Section(name string) {
	mu.RLock()
	defer mu.RUnlock()
	if verbose {
		fmt.Fprintf(output, "\n=== %s ===\n", name)
	}
}

// Timed logs how long an operation took at debug level. Use with defer:
//
//	defer logger.Timed("embed batch")()
func Timed(name string) func() {
	start := time.Now()
	return func() {
		Debug("%s took %s", name, time.Since(start).Round(time.Millisecond))
	}
}

// Writer returns an io.Writer that logs each written line at info level.
// It adapts libraries that want a writer (such as HTTP request loggers).
func Writer() io.Writer {
	return lineWriter{}
}

type lineWriter struct{}

func (lineWriter) Write(p []byte) (int, error) {
	for _, line := range bytes.Split(bytes.TrimRight(p, "\n"), []byte("\n")) {
		if len(line) > 0 {
			Info("%s", line)
		}
	}
	return len(p), nil
}
