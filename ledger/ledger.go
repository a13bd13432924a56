// Package ledger implements the per-episode mutable accounting described
// in spec.md §3.4/§4.5: budget counters, active write-authorization
// tokens, and open tool directives. A Ledger belongs to exactly one
// episode and is mutated only by that episode's runner goroutine (spec.md
// §5's single-threaded-per-episode scheduling model) — the mutex here
// guards against accidental cross-goroutine reads (e.g. a concurrent
// snapshot from an observability hook), not concurrent writers.
//
// Grounded on the teacher's resilience/circuit_breaker.go for the
// monotone-counter-plus-mutex shape, and on original_source's ledger
// concepts referenced from orchestrator/runner.py and tools/base.go's
// token lifecycle.
package ledger

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sixlayer/ace/apperr"
)

// BudgetKind names one of the four counted resources.
type BudgetKind string

const (
	BudgetTokens   BudgetKind = "tokens"
	BudgetToolCall BudgetKind = "tool_calls"
	BudgetWallTime BudgetKind = "wall_time_seconds"
	BudgetRisk     BudgetKind = "risk"
)

// Budgets holds the allocated ceiling and consumed-so-far counter for
// each of the four resource kinds.
type Budgets struct {
	Allocated map[BudgetKind]float64
	Consumed  map[BudgetKind]float64
}

func newBudgets() Budgets {
	return Budgets{
		Allocated: make(map[BudgetKind]float64),
		Consumed:  make(map[BudgetKind]float64),
	}
}

// ActiveToken is a scoped, count-limited write authorization (spec.md
// §3.4). UsesRemaining decreases monotonically and never resets.
type ActiveToken struct {
	TokenID       uuid.UUID
	Scope         string
	IssuedAt      time.Time
	ExpiresAt     time.Time
	MaxUses       int
	UsesRemaining int
	IssuerLayer   string
	Revoked       bool
}

// IsValid reports the derived validity property from spec.md §3.4: not
// expired, has remaining uses, and not revoked.
func (t ActiveToken) IsValid(now time.Time) bool {
	return !t.Revoked && now.Before(t.ExpiresAt) && t.UsesRemaining > 0
}

// OpenDirective tracks an in-flight TaskDirective awaiting its matching
// TaskResult.
type OpenDirective struct {
	TaskID          string
	DirectivePacketID uuid.UUID
	IssuedAt        time.Time
	TimeoutAt       time.Time
}

// Snapshot is a read-only view of ledger state for audit/observability
// (spec.md §4.5 "snapshot() → read-only view").
type Snapshot struct {
	Budgets         Budgets
	ActiveTokens    map[uuid.UUID]ActiveToken
	OpenDirectives  map[string]OpenDirective

	// ApprovedOverrunEscalations is the count of operator-approved
	// overruns not yet consumed. Gate 3's ruleBudgetCeiling reads this to
	// let the one approved charge through instead of rejecting the
	// packet before Consume ever gets a chance to honor the approval.
	ApprovedOverrunEscalations int
}

// Ledger is the per-episode accounting object.
type Ledger struct {
	mu sync.Mutex

	budgets        Budgets
	activeTokens   map[uuid.UUID]ActiveToken
	openDirectives map[string]OpenDirective

	approvedOverrunEscalations int
}

// New constructs an empty Ledger; call Allocate to set budget ceilings.
func New() *Ledger {
	return &Ledger{
		budgets:        newBudgets(),
		activeTokens:   make(map[uuid.UUID]ActiveToken),
		openDirectives: make(map[string]OpenDirective),
	}
}

// Allocate sets the allocated ceiling for each budget kind. Calling it
// again adds to the existing ceiling.
func (l *Ledger) Allocate(allocations map[BudgetKind]float64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for kind, amount := range allocations {
		l.budgets.Allocated[kind] += amount
	}
}

// Consume charges amount against kind's consumed counter. It returns
// apperr.ErrBudgetExhausted (without mutating state) if the charge would
// push consumed above allocated and no approved overrun escalation has
// been recorded via ApproveOverrun; an approved overrun is consumed
// (one-shot) to let exactly the triggering charge through.
func (l *Ledger) Consume(kind BudgetKind, amount float64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	projected := l.budgets.Consumed[kind] + amount
	if projected > l.budgets.Allocated[kind] {
		if l.approvedOverrunEscalations > 0 {
			l.approvedOverrunEscalations--
			l.budgets.Consumed[kind] = projected
			return nil
		}
		return fmt.Errorf("ledger: consuming %.2f %s would exceed allocated %.2f: %w",
			amount, kind, l.budgets.Allocated[kind], apperr.ErrBudgetExhausted)
	}
	l.budgets.Consumed[kind] = projected
	return nil
}

// ApproveOverrun records one approved Escalation permitting the next
// over-budget Consume call for any kind to proceed (spec.md §4.3 rule 4,
// §7 BudgetExhausted "recoverable via Escalation approval").
func (l *Ledger) ApproveOverrun() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.approvedOverrunEscalations++
}

// IssueToken mints a new ActiveToken with the given scope, expiry, and
// use count, issued by issuerLayer (spec.md invariant rule 5: issuer must
// be L5, or L1 override — enforced by the caller, not here).
func (l *Ledger) IssueToken(scope string, expiresAt time.Time, maxUses int, issuerLayer string) uuid.UUID {
	l.mu.Lock()
	defer l.mu.Unlock()

	id := uuid.New()
	l.activeTokens[id] = ActiveToken{
		TokenID:       id,
		Scope:         scope,
		IssuedAt:      time.Now().UTC(),
		ExpiresAt:     expiresAt,
		MaxUses:       maxUses,
		UsesRemaining: maxUses,
		IssuerLayer:   issuerLayer,
	}
	return id
}

// TokenUseResult classifies the outcome of UseToken.
type TokenUseResult string

const (
	TokenUseOK       TokenUseResult = "ok"
	TokenUseInvalid  TokenUseResult = "invalid"
	TokenUseExhausted TokenUseResult = "exhausted"
	TokenUseExpired  TokenUseResult = "expired"
)

// UseToken consumes one use of tokenID if it is currently valid, per
// spec.md §4.5's use_token contract. uses_remaining decreases
// monotonically and never recovers.
func (l *Ledger) UseToken(tokenID uuid.UUID) TokenUseResult {
	l.mu.Lock()
	defer l.mu.Unlock()

	tok, ok := l.activeTokens[tokenID]
	if !ok || tok.Revoked {
		return TokenUseInvalid
	}
	now := time.Now().UTC()
	if !now.Before(tok.ExpiresAt) {
		return TokenUseExpired
	}
	if tok.UsesRemaining <= 0 {
		return TokenUseExhausted
	}
	tok.UsesRemaining--
	l.activeTokens[tokenID] = tok
	return TokenUseOK
}

// RevokeToken marks a token permanently invalid.
func (l *Ledger) RevokeToken(tokenID uuid.UUID) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if tok, ok := l.activeTokens[tokenID]; ok {
		tok.Revoked = true
		l.activeTokens[tokenID] = tok
	}
}

// TokenValid reports IsValid for tokenID, used by gate 3 rule 5.
func (l *Ledger) TokenValid(tokenID uuid.UUID) (ActiveToken, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	tok, ok := l.activeTokens[tokenID]
	if !ok {
		return ActiveToken{}, false
	}
	return tok, tok.IsValid(time.Now().UTC())
}

// OpenDirectiveFor opens a directive for taskID, returning an error if one
// is already open under the same task_id (spec.md §4.5: "duplicate").
func (l *Ledger) OpenDirectiveFor(taskID string, directivePacketID uuid.UUID, timeout time.Duration) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, exists := l.openDirectives[taskID]; exists {
		return fmt.Errorf("ledger: directive for task_id %q already open", taskID)
	}
	now := time.Now().UTC()
	l.openDirectives[taskID] = OpenDirective{
		TaskID:            taskID,
		DirectivePacketID: directivePacketID,
		IssuedAt:          now,
		TimeoutAt:         now.Add(timeout),
	}
	return nil
}

// CloseDirective closes the open directive matching taskID. Spec.md §3.4
// invariant: "a directive closes only on a matching TaskResult with equal
// task_id" — callers must already have verified the TaskResult's task_id
// equals taskID before calling this.
func (l *Ledger) CloseDirective(taskID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, exists := l.openDirectives[taskID]; !exists {
		return fmt.Errorf("ledger: no open directive for task_id %q", taskID)
	}
	delete(l.openDirectives, taskID)
	return nil
}

// IsDirectiveOpen reports whether taskID currently has an open directive.
func (l *Ledger) IsDirectiveOpen(taskID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, exists := l.openDirectives[taskID]
	return exists
}

// Snapshot returns a deep-enough read-only copy of ledger state.
func (l *Ledger) Snapshot() Snapshot {
	l.mu.Lock()
	defer l.mu.Unlock()

	allocated := make(map[BudgetKind]float64, len(l.budgets.Allocated))
	for k, v := range l.budgets.Allocated {
		allocated[k] = v
	}
	consumed := make(map[BudgetKind]float64, len(l.budgets.Consumed))
	for k, v := range l.budgets.Consumed {
		consumed[k] = v
	}
	tokens := make(map[uuid.UUID]ActiveToken, len(l.activeTokens))
	for k, v := range l.activeTokens {
		tokens[k] = v
	}
	directives := make(map[string]OpenDirective, len(l.openDirectives))
	for k, v := range l.openDirectives {
		directives[k] = v
	}

	return Snapshot{
		Budgets:                    Budgets{Allocated: allocated, Consumed: consumed},
		ActiveTokens:               tokens,
		OpenDirectives:             directives,
		ApprovedOverrunEscalations: l.approvedOverrunEscalations,
	}
}
