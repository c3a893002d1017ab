// Package retry runs outbound calls with a bounded number of attempts.
package retry

import (
	"context"
	"time"

	"github.com/custodia-labs/triage/internal/core/domain"
	"github.com/custodia-labs/triage/internal/logger"
)

// Default policy values.
const (
	DefaultAttempts = 3
	DefaultDelay    = 2 * time.Second
)

// Policy controls how Do retries.
type Policy struct {
	// Attempts is the total number of calls, including the first.
	Attempts int

	// Delay is the fixed wait between attempts.
	Delay time.Duration

	// Retryable decides whether an error is worth another attempt.
	// Defaults to domain.IsRetryable.
	Retryable func(error) bool

	// Name labels retry log lines.
	Name string
}

// DefaultPolicy returns 3 attempts with a 2 second delay.
func DefaultPolicy(name string) Policy {
	return Policy{
		Attempts: DefaultAttempts,
		Delay:    DefaultDelay,
		Name:     name,
	}
}

// FromSettings builds a policy from configured retry settings. Zero values
// keep the defaults; a negative delay disables the pause between attempts.
func FromSettings(name string, s domain.RetrySettings) Policy {
	p := DefaultPolicy(name)
	if s.Attempts > 0 {
		p.Attempts = s.Attempts
	}
	switch {
	case s.Delay > 0:
		p.Delay = s.Delay
	case s.Delay < 0:
		p.Delay = 0
	}
	return p
}

// Do calls fn until it succeeds, returns a non-retryable error, runs out of
// attempts, or ctx is done. The last error is returned unchanged.
func Do[T any](ctx context.Context, p Policy, fn func(context.Context) (T, error)) (T, error) {
	attempts := p.Attempts
	if attempts < 1 {
		attempts = 1
	}
	retryable := p.Retryable
	if retryable == nil {
		retryable = domain.IsRetryable
	}

	var zero T
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		result, err := fn(ctx)
		if err == nil {
			return result, nil
		}
		lastErr = err

		if attempt == attempts || !retryable(err) {
			break
		}

		logger.Debug("retry %s: attempt %d/%d failed: %v", p.Name, attempt, attempts, err)

		if p.Delay > 0 {
			timer := time.NewTimer(p.Delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return zero, ctx.Err()
			case <-timer.C:
			}
		} else if ctx.Err() != nil {
			return zero, ctx.Err()
		}
	}
	return zero, lastErr
}

// Run is Do for calls with no result.
func Run(ctx context.Context, p Policy, fn func(context.Context) error) error {
	_, err := Do(ctx, p, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}
