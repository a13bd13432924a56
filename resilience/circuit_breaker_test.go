package resilience_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sixlayer/ace/resilience"
)

func TestCircuitBreaker_OpensAfterThreshold(t *testing.T) {
	cb := resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{FailureThreshold: 2})

	assert.True(t, cb.CanExecute())
	cb.RecordFailure()
	assert.Equal(t, resilience.StateClosed, cb.State())
	cb.RecordFailure()
	assert.Equal(t, resilience.StateOpen, cb.State())
	assert.False(t, cb.CanExecute())
}

func TestCircuitBreaker_HalfOpenAfterResetTimeout(t *testing.T) {
	cb := resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{FailureThreshold: 1, ResetTimeout: 10 * time.Millisecond})
	cb.RecordFailure()
	require.Equal(t, resilience.StateOpen, cb.State())

	time.Sleep(15 * time.Millisecond)
	assert.True(t, cb.CanExecute())
	assert.Equal(t, resilience.StateHalfOpen, cb.State())
}

func TestCircuitBreaker_HalfOpenSuccessCloses(t *testing.T) {
	cb := resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{FailureThreshold: 1, ResetTimeout: 10 * time.Millisecond})
	cb.RecordFailure()
	time.Sleep(15 * time.Millisecond)
	require.True(t, cb.CanExecute())

	cb.RecordSuccess()
	assert.Equal(t, resilience.StateClosed, cb.State())
}

func TestCircuitBreaker_HalfOpenFailureReopens(t *testing.T) {
	cb := resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{FailureThreshold: 1, ResetTimeout: 10 * time.Millisecond})
	cb.RecordFailure()
	time.Sleep(15 * time.Millisecond)
	require.True(t, cb.CanExecute())

	cb.RecordFailure()
	assert.Equal(t, resilience.StateOpen, cb.State())
}
