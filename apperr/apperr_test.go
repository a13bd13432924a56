package apperr_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sixlayer/ace/apperr"
)

func TestWrap_UnwrapsToSentinel(t *testing.T) {
	err := apperr.Wrap("ledger.Consume", "budget", "corr-1", apperr.ErrBudgetExhausted)
	assert.True(t, errors.Is(err, apperr.ErrBudgetExhausted))
	assert.Contains(t, err.Error(), "ledger.Consume")
	assert.Contains(t, err.Error(), "corr-1")
}

func TestIsRetryable_OnlyExternalFailure(t *testing.T) {
	assert.True(t, apperr.IsRetryable(apperr.Wrap("llmclient.Complete", "transient", "", apperr.ErrExternalFailure)))
	assert.False(t, apperr.IsRetryable(apperr.Wrap("validate.Schema", "schema", "", apperr.ErrSchemaInvalid)))
}

func TestIsInvariantViolation(t *testing.T) {
	assert.True(t, apperr.IsInvariantViolation(apperr.Wrap("validate.Invariant", "subpar_gate", "", apperr.ErrInvariantViolation)))
	assert.False(t, apperr.IsInvariantViolation(apperr.Wrap("validate.FSM", "fsm", "", apperr.ErrIllegalTransition)))
}

func TestIsBudgetExhausted(t *testing.T) {
	assert.True(t, apperr.IsBudgetExhausted(apperr.Wrap("ledger.Consume", "tokens", "", apperr.ErrBudgetExhausted)))
	assert.False(t, apperr.IsBudgetExhausted(apperr.Wrap("ledger.Consume", "tokens", "", apperr.ErrTokenInvalid)))
}

func TestTaxonomyError_FallsBackToMessage(t *testing.T) {
	err := &apperr.TaxonomyError{Message: "no op or err set"}
	assert.Equal(t, "no op or err set", err.Error())
}
