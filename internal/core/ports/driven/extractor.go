package driven

import "context"

// TextExtractor pulls plain text out of a document file on disk.
type TextExtractor interface {
	// Extract returns the text content of the file at path.
	// Unreadable files and files with no text return an error wrapping ErrExtraction.
	Extract(ctx context.Context, path string) (string, error)
}
