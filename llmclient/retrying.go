package llmclient

import (
	"context"
	"fmt"

	"github.com/sixlayer/ace/apperr"
	"github.com/sixlayer/ace/resilience"
)

// Retrying wraps a Client with bounded exponential-backoff retry and a
// circuit breaker, satisfying spec.md §6.1's "must retry on transient
// failures" requirement. Grounded on resilience.RetryWithCircuitBreaker,
// itself adapted from the teacher's resilience package.
type Retrying struct {
	inner   Client
	retry   *resilience.RetryConfig
	breaker *resilience.CircuitBreaker
}

// NewRetrying wraps inner with the given retry config and circuit
// breaker. A nil retry config falls back to resilience.DefaultRetryConfig.
func NewRetrying(inner Client, retry *resilience.RetryConfig, breaker *resilience.CircuitBreaker) *Retrying {
	if breaker == nil {
		breaker = resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{Name: "llmclient"})
	}
	return &Retrying{inner: inner, retry: retry, breaker: breaker}
}

func (r *Retrying) Complete(ctx context.Context, systemPrompt, userMessage string, opts Options) (string, error) {
	var result string
	err := resilience.RetryWithCircuitBreaker(ctx, r.retry, r.breaker, func() error {
		out, err := r.inner.Complete(ctx, systemPrompt, userMessage, opts)
		if err != nil {
			return fmt.Errorf("%w: %v", apperr.ErrExternalFailure, err)
		}
		result = out
		return nil
	})
	if err != nil {
		return "", err
	}
	return result, nil
}
