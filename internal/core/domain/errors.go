package domain

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates an entity already exists.
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// Configuration Errors.

	// ErrConfiguration indicates a required setting or credential is missing.
	ErrConfiguration = errors.New("configuration error")

	// ErrLLMUnavailable indicates the LLM service is not configured.
	// Answer synthesis and model-based routing are disabled.
	ErrLLMUnavailable = errors.New("LLM service unavailable")

	// ErrEmbeddingUnavailable indicates the embedding service is not configured.
	// Document ingestion and retrieval are disabled without embeddings.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrSearchUnavailable indicates no web or paper search backend is configured.
	ErrSearchUnavailable = errors.New("search backend unavailable")

	// Pipeline Errors.

	// ErrExtraction indicates a source document was unreadable or yielded no text.
	ErrExtraction = errors.New("extraction failed")

	// ErrUpstream indicates a remote service failed, timed out or returned 5xx.
	ErrUpstream = errors.New("upstream service error")

	// ErrRateLimited indicates the API rate limit was exceeded.
	ErrRateLimited = errors.New("rate limited")

	// ErrEmptyResult indicates a search or retrieval matched nothing.
	ErrEmptyResult = errors.New("no results")
)

// HTTPStatusError classifies a non-2xx response from a remote service.
// 429 wraps ErrRateLimited, 5xx wraps ErrUpstream and everything else
// wraps ErrInvalidInput so it is not retried.
func HTTPStatusError(service string, status int, body string) error {
	switch {
	case status == 429:
		return fmt.Errorf("%w: %s returned status %d: %s", ErrRateLimited, service, status, body)
	case status >= 500:
		return fmt.Errorf("%w: %s returned status %d: %s", ErrUpstream, service, status, body)
	default:
		return fmt.Errorf("%w: %s returned status %d: %s", ErrInvalidInput, service, status, body)
	}
}

// IsRetryable reports whether an outbound call that failed with err is
// worth another attempt. Caller cancellation is never retried.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, ErrUpstream) || errors.Is(err, ErrRateLimited) {
		return true
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	// Transport failures (refused connections, resets, timeouts) surface as net.Error.
	var netErr net.Error
	return errors.As(err, &netErr)
}
