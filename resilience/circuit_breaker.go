package resilience

import (
	"sync"
	"time"

	"github.com/sixlayer/ace/pkg/logger"
)

// CircuitState is the state of a CircuitBreaker.
type CircuitState int

const (
	StateClosed CircuitState = iota
	StateOpen
	StateHalfOpen
)

func (s CircuitState) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// CircuitBreakerConfig tunes failure threshold and recovery timing.
// Trimmed from the teacher's circuit_breaker.go: this repo has one
// consumer (the LLM client) rather than many named breakers across a
// service mesh, so the metrics-collector plumbing and per-error-type
// classification hooks are dropped.
type CircuitBreakerConfig struct {
	Name             string
	FailureThreshold int
	ResetTimeout     time.Duration
	HalfOpenMaxCalls int
	Logger           logger.Logger
}

// CircuitBreaker trips open after FailureThreshold consecutive failures,
// rejecting calls until ResetTimeout elapses, then allows a bounded number
// of half-open probe calls before fully closing or re-opening.
type CircuitBreaker struct {
	mu sync.Mutex

	name             string
	failureThreshold int
	resetTimeout     time.Duration
	halfOpenMaxCalls int
	log              logger.Logger

	state           CircuitState
	consecutiveFail int
	halfOpenCalls   int
	openedAt        time.Time
}

// NewCircuitBreaker constructs a breaker, defaulting unset fields to the
// teacher's conventional values (threshold 5, reset 30s).
func NewCircuitBreaker(cfg CircuitBreakerConfig) *CircuitBreaker {
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = 5
	}
	if cfg.ResetTimeout <= 0 {
		cfg.ResetTimeout = 30 * time.Second
	}
	if cfg.HalfOpenMaxCalls <= 0 {
		cfg.HalfOpenMaxCalls = 1
	}
	if cfg.Logger == nil {
		cfg.Logger = &logger.NoOpLogger{}
	}
	return &CircuitBreaker{
		name:             cfg.Name,
		failureThreshold: cfg.FailureThreshold,
		resetTimeout:     cfg.ResetTimeout,
		halfOpenMaxCalls: cfg.HalfOpenMaxCalls,
		log:              cfg.Logger,
		state:            StateClosed,
	}
}

func (cb *CircuitBreaker) Name() string { return cb.name }

// CanExecute reports whether a call may proceed, transitioning
// Open->HalfOpen once ResetTimeout has elapsed.
func (cb *CircuitBreaker) CanExecute() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case StateClosed:
		return true
	case StateOpen:
		if time.Since(cb.openedAt) >= cb.resetTimeout {
			cb.transitionTo(StateHalfOpen)
			cb.halfOpenCalls = 0
			return true
		}
		return false
	case StateHalfOpen:
		if cb.halfOpenCalls >= cb.halfOpenMaxCalls {
			return false
		}
		cb.halfOpenCalls++
		return true
	default:
		return false
	}
}

// RecordSuccess closes the circuit from half-open, or resets the
// consecutive-failure counter while closed.
func (cb *CircuitBreaker) RecordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.consecutiveFail = 0
	if cb.state == StateHalfOpen {
		cb.transitionTo(StateClosed)
	}
}

// RecordFailure increments the failure count and opens the circuit once
// the threshold is reached, or immediately re-opens from half-open.
func (cb *CircuitBreaker) RecordFailure() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.state == StateHalfOpen {
		cb.transitionTo(StateOpen)
		return
	}
	cb.consecutiveFail++
	if cb.consecutiveFail >= cb.failureThreshold {
		cb.transitionTo(StateOpen)
	}
}

// State reports the current circuit state.
func (cb *CircuitBreaker) State() CircuitState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

// transitionTo must be called with cb.mu held.
func (cb *CircuitBreaker) transitionTo(to CircuitState) {
	from := cb.state
	if from == to {
		return
	}
	cb.state = to
	if to == StateOpen {
		cb.openedAt = time.Now()
	}
	if to == StateClosed {
		cb.consecutiveFail = 0
	}
	cb.log.Warn("circuit breaker state change", "name", cb.name, "from", from.String(), "to", to.String())
}
