package resilience_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sixlayer/ace/resilience"
)

func TestRetry_SucceedsWithoutRetryingOnFirstSuccess(t *testing.T) {
	calls := 0
	err := resilience.Retry(context.Background(), resilience.DefaultRetryConfig(), func() error {
		calls++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestRetry_RetriesUpToMaxAttemptsThenFails(t *testing.T) {
	calls := 0
	boom := errors.New("transient")
	cfg := &resilience.RetryConfig{MaxAttempts: 3, InitialDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond, BackoffFactor: 2}

	err := resilience.Retry(context.Background(), cfg, func() error {
		calls++
		return boom
	})
	assert.Error(t, err)
	assert.Equal(t, 3, calls)
}

func TestRetry_StopsOnContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	err := resilience.Retry(ctx, resilience.DefaultRetryConfig(), func() error {
		calls++
		return errors.New("boom")
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRetryWithCircuitBreaker_SkipsCallWhenOpen(t *testing.T) {
	cb := resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{FailureThreshold: 1, ResetTimeout: time.Minute})
	cfg := &resilience.RetryConfig{MaxAttempts: 1, InitialDelay: time.Millisecond, MaxDelay: time.Millisecond, BackoffFactor: 1}

	calls := 0
	failing := func() error { calls++; return errors.New("boom") }

	_ = resilience.RetryWithCircuitBreaker(context.Background(), cfg, cb, failing)
	require.Equal(t, resilience.StateOpen, cb.State())

	err := resilience.RetryWithCircuitBreaker(context.Background(), cfg, cb, failing)
	assert.Error(t, err)
	assert.Equal(t, 1, calls, "the circuit should have rejected the second call before invoking fn")
}
