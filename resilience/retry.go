// Package resilience provides the retry and circuit-breaker primitives
// wrapping the LLM client (spec.md §6.1: "must retry on transient
// failures"). Adapted from the teacher's own resilience/retry.go and
// resilience/circuit_breaker.go, retargeted from gomind's core package to
// this repo's apperr taxonomy.
package resilience

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/sixlayer/ace/apperr"
)

// RetryConfig configures retry behavior.
type RetryConfig struct {
	MaxAttempts   int
	InitialDelay  time.Duration
	MaxDelay      time.Duration
	BackoffFactor float64
	JitterEnabled bool
}

// DefaultRetryConfig provides sensible defaults.
func DefaultRetryConfig() *RetryConfig {
	return &RetryConfig{
		MaxAttempts:   3,
		InitialDelay:  500 * time.Millisecond,
		MaxDelay:      10 * time.Second,
		BackoffFactor: 2.0,
		JitterEnabled: true,
	}
}

// Retry executes fn with exponential-backoff-with-jitter retry, stopping
// early on ctx cancellation. Only errors satisfying apperr.IsRetryable are
// worth calling this with — callers are expected to have already decided
// that before wrapping.
func Retry(ctx context.Context, config *RetryConfig, fn func() error) error {
	if config == nil {
		config = DefaultRetryConfig()
	}

	var lastErr error
	delay := config.InitialDelay

	for attempt := 1; attempt <= config.MaxAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
		}

		if attempt == config.MaxAttempts {
			break
		}

		if attempt > 1 {
			delay = time.Duration(float64(delay) * config.BackoffFactor)
			if delay > config.MaxDelay {
				delay = config.MaxDelay
			}
		}

		if config.JitterEnabled {
			jitter := time.Duration(float64(delay) * 0.1 * math.Sin(float64(attempt)))
			delay += jitter
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}

	return fmt.Errorf("resilience: max retry attempts (%d) exceeded for %v: %w", config.MaxAttempts, lastErr, apperr.ErrExternalFailure)
}

// RetryWithCircuitBreaker combines Retry with a CircuitBreaker gate, used
// by llmclient.Retrying around the underlying Client.Complete call.
func RetryWithCircuitBreaker(ctx context.Context, config *RetryConfig, cb *CircuitBreaker, fn func() error) error {
	return Retry(ctx, config, func() error {
		if !cb.CanExecute() {
			return fmt.Errorf("resilience: circuit %q open: %w", cb.Name(), apperr.ErrExternalFailure)
		}

		err := fn()
		if err != nil {
			cb.RecordFailure()
			return err
		}

		cb.RecordSuccess()
		return nil
	})
}
