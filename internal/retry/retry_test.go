package retry

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/triage/internal/core/domain"
)

func fastPolicy(attempts int) Policy {
	return Policy{Attempts: attempts, Delay: time.Millisecond, Name: "test"}
}

func TestDo_SucceedsFirstTime(t *testing.T) {
	calls := 0
	got, err := Do(context.Background(), fastPolicy(3), func(context.Context) (string, error) {
		calls++
		return "ok", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "ok", got)
	assert.Equal(t, 1, calls)
}

func TestDo_RetriesUpstreamThenSucceeds(t *testing.T) {
	calls := 0
	got, err := Do(context.Background(), fastPolicy(3), func(context.Context) (int, error) {
		calls++
		if calls < 3 {
			return 0, fmt.Errorf("call: %w", domain.ErrUpstream)
		}
		return 42, nil
	})

	require.NoError(t, err)
	assert.Equal(t, 42, got)
	assert.Equal(t, 3, calls)
}

func TestDo_StopsAfterAttempts(t *testing.T) {
	calls := 0
	_, err := Do(context.Background(), fastPolicy(3), func(context.Context) (int, error) {
		calls++
		return 0, domain.ErrRateLimited
	})

	require.ErrorIs(t, err, domain.ErrRateLimited)
	assert.Equal(t, 3, calls)
}

func TestDo_DoesNotRetryValidationErrors(t *testing.T) {
	calls := 0
	_, err := Do(context.Background(), fastPolicy(3), func(context.Context) (int, error) {
		calls++
		return 0, domain.ErrInvalidInput
	})

	require.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Equal(t, 1, calls)
}

func TestDo_CustomRetryable(t *testing.T) {
	sentinel := errors.New("flaky")
	p := fastPolicy(2)
	p.Retryable = func(err error) bool { return errors.Is(err, sentinel) }

	calls := 0
	_, err := Do(context.Background(), p, func(context.Context) (int, error) {
		calls++
		return 0, sentinel
	})

	require.ErrorIs(t, err, sentinel)
	assert.Equal(t, 2, calls)
}

func TestDo_ContextCancelledDuringDelay(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := Policy{Attempts: 5, Delay: time.Hour}

	calls := 0
	done := make(chan error, 1)
	go func() {
		_, err := Do(ctx, p, func(context.Context) (int, error) {
			calls++
			return 0, domain.ErrUpstream
		})
		done <- err
	}()

	cancel()
	select {
	case err := <-done:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("Do did not return after cancellation")
	}
	assert.Equal(t, 1, calls)
}

func TestDo_ZeroAttemptsRunsOnce(t *testing.T) {
	calls := 0
	err := Run(context.Background(), Policy{}, func(context.Context) error {
		calls++
		return domain.ErrUpstream
	})

	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestFromSettings(t *testing.T) {
	tests := []struct {
		name         string
		settings     domain.RetrySettings
		wantAttempts int
		wantDelay    time.Duration
	}{
		{name: "configured", settings: domain.RetrySettings{Attempts: 5, Delay: time.Second}, wantAttempts: 5, wantDelay: time.Second},
		{name: "zero value keeps defaults", settings: domain.RetrySettings{}, wantAttempts: DefaultAttempts, wantDelay: DefaultDelay},
		{name: "negative delay disables backoff", settings: domain.RetrySettings{Delay: -1}, wantAttempts: DefaultAttempts, wantDelay: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := FromSettings("llm", tt.settings)
			assert.Equal(t, tt.wantAttempts, p.Attempts)
			assert.Equal(t, tt.wantDelay, p.Delay)
			assert.Equal(t, "llm", p.Name)
		})
	}
}
