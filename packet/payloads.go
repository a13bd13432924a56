package packet

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/sixlayer/ace/vocab"
)

// Payload is implemented by each of the nine typed payload variants.
// Grounded on original_source/src/omen/schemas/packets/__init__.py's
// tagged-union of nine packet classes (spec Design Notes "Polymorphism").
//
// Validate checks the payload's own required-field and enum-membership
// rules (spec.md §4.1(a)/(b)) — the part of gate 1 that is specific to
// each payload's shape, as opposed to Header/MCP's envelope-wide checks.
type Payload interface {
	PacketType() vocab.PacketType
	Validate() error
}

// ObservationSource names where an observation came from.
type ObservationSource struct {
	SourceType  string                 `json:"source_type"`
	SourceID    string                 `json:"source_id"`
	QueryParams map[string]interface{} `json:"query_params,omitempty"`
}

// ObservationPayload carries sensory data entering the cognitive system,
// exclusively from the vat boundary (L6) per spec glossary.
type ObservationPayload struct {
	Source          ObservationSource      `json:"source"`
	ObservationType string                 `json:"observation_type"`
	ObservedAt      time.Time              `json:"observed_at"`
	Content         map[string]interface{} `json:"content"`
	RawRef          string                 `json:"raw_ref,omitempty"`
	ContentHash     string                 `json:"content_hash,omitempty"`
}

func (ObservationPayload) PacketType() vocab.PacketType { return vocab.PacketObservation }

func (p ObservationPayload) Validate() error {
	if p.ObservationType == "" {
		return fmt.Errorf("observation: observation_type is required")
	}
	if p.ObservedAt.IsZero() {
		return fmt.Errorf("observation: observed_at is required")
	}
	if p.Content == nil {
		return fmt.Errorf("observation: content is required")
	}
	return nil
}

// BeliefUpdatePayload carries a change to the shared world/self model.
type BeliefUpdatePayload struct {
	BeliefKey    string      `json:"belief_key"`
	PreviousValue interface{} `json:"previous_value,omitempty"`
	NewValue      interface{} `json:"new_value"`
	Rationale     string      `json:"rationale"`
	Contradicts   []string    `json:"contradicts,omitempty"`
}

func (BeliefUpdatePayload) PacketType() vocab.PacketType { return vocab.PacketBeliefUpdate }

func (p BeliefUpdatePayload) Validate() error {
	if p.BeliefKey == "" {
		return fmt.Errorf("belief_update: belief_key is required")
	}
	if p.NewValue == nil {
		return fmt.Errorf("belief_update: new_value is required")
	}
	if p.Rationale == "" {
		return fmt.Errorf("belief_update: rationale is required")
	}
	return nil
}

// DecisionPayload carries an action decision and the discriminator
// (Outcome) the runner's choose_next uses to pick a template edge.
type DecisionPayload struct {
	DecisionScope string                `json:"decision_scope"`
	Outcome       vocab.DecisionOutcome `json:"outcome"`
	Rationale     string                `json:"rationale"`
	ChosenAction  string                `json:"chosen_action,omitempty"`
	Alternatives  []string              `json:"alternatives,omitempty"`
}

func (DecisionPayload) PacketType() vocab.PacketType { return vocab.PacketDecision }

func (p DecisionPayload) Validate() error {
	if p.DecisionScope == "" {
		return fmt.Errorf("decision: decision_scope is required")
	}
	if !p.Outcome.Valid() {
		return fmt.Errorf("decision: outcome %q is not a recognized DecisionOutcome", p.Outcome)
	}
	if p.Rationale == "" {
		return fmt.Errorf("decision: rationale is required")
	}
	return nil
}

// VerificationPlanPayload describes how a prior or pending decision will be
// independently checked. Gate 3 rule 2 matches VerificationTarget against
// a Decision's DecisionScope.
type VerificationPlanPayload struct {
	VerificationTarget string   `json:"verification_target"`
	Method             string   `json:"method"`
	Steps              []string `json:"steps"`
}

func (VerificationPlanPayload) PacketType() vocab.PacketType { return vocab.PacketVerificationPlan }

func (p VerificationPlanPayload) Validate() error {
	if p.VerificationTarget == "" {
		return fmt.Errorf("verification_plan: verification_target is required")
	}
	if p.Method == "" {
		return fmt.Errorf("verification_plan: method is required")
	}
	if len(p.Steps) == 0 {
		return fmt.Errorf("verification_plan: steps must be non-empty")
	}
	return nil
}

// ToolAuthorizationPayload grants scoped, count-limited permission to
// invoke WRITE/MIXED tools. Mirrors ledger.ActiveToken's issued shape.
type ToolAuthorizationPayload struct {
	TokenID   uuid.UUID `json:"token_id"`
	Scope     string    `json:"scope"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
	MaxUses   int       `json:"max_uses"`
}

func (ToolAuthorizationPayload) PacketType() vocab.PacketType { return vocab.PacketToolAuthorizationToken }

func (p ToolAuthorizationPayload) Validate() error {
	if p.TokenID == uuid.Nil {
		return fmt.Errorf("tool_authorization_token: token_id is required")
	}
	if p.Scope == "" {
		return fmt.Errorf("tool_authorization_token: scope is required")
	}
	if p.IssuedAt.IsZero() {
		return fmt.Errorf("tool_authorization_token: issued_at is required")
	}
	if p.ExpiresAt.IsZero() {
		return fmt.Errorf("tool_authorization_token: expires_at is required")
	}
	if p.MaxUses <= 0 {
		return fmt.Errorf("tool_authorization_token: max_uses must be positive")
	}
	return nil
}

// TaskDirectivePayload commands L6 to execute a tool action. WRITE/MIXED
// directives must cite AuthorizationTokenID (gate 3 rule 5).
type TaskDirectivePayload struct {
	TaskID                string           `json:"task_id"`
	ToolName              string           `json:"tool_name"`
	Params                map[string]interface{} `json:"params,omitempty"`
	ToolSafety            vocab.ToolSafety `json:"tool_safety"`
	AuthorizationTokenID  *uuid.UUID       `json:"authorization_token_id,omitempty"`
	TimeoutSeconds        int              `json:"timeout_seconds"`
}

func (TaskDirectivePayload) PacketType() vocab.PacketType { return vocab.PacketTaskDirective }

func (p TaskDirectivePayload) Validate() error {
	if p.TaskID == "" {
		return fmt.Errorf("task_directive: task_id is required")
	}
	if p.ToolName == "" {
		return fmt.Errorf("task_directive: tool_name is required")
	}
	if !p.ToolSafety.Valid() {
		return fmt.Errorf("task_directive: tool_safety %q is not a recognized ToolSafety", p.ToolSafety)
	}
	if p.TimeoutSeconds <= 0 {
		return fmt.Errorf("task_directive: timeout_seconds must be positive")
	}
	return nil
}

// TaskResultStatus reports tool execution outcome.
type TaskResultStatus string

const (
	TaskResultSuccess TaskResultStatus = "SUCCESS"
	TaskResultFailure TaskResultStatus = "FAILURE"
)

func (s TaskResultStatus) Valid() bool {
	switch s {
	case TaskResultSuccess, TaskResultFailure:
		return true
	default:
		return false
	}
}

// TaskResultPayload reports the outcome of a TaskDirective, closing the
// ledger's open directive with the matching TaskID.
type TaskResultPayload struct {
	TaskID            string           `json:"task_id"`
	Status            TaskResultStatus `json:"status"`
	Data              interface{}      `json:"data,omitempty"`
	Error             string           `json:"error,omitempty"`
	TokensConsumed    int              `json:"tokens_consumed"`
	ToolCallsConsumed int              `json:"tool_calls_consumed"`
	ExecutionTimeMs    float64          `json:"execution_time_ms"`
}

func (TaskResultPayload) PacketType() vocab.PacketType { return vocab.PacketTaskResult }

func (p TaskResultPayload) Validate() error {
	if p.TaskID == "" {
		return fmt.Errorf("task_result: task_id is required")
	}
	if !p.Status.Valid() {
		return fmt.Errorf("task_result: status %q is not a recognized TaskResultStatus", p.Status)
	}
	return nil
}

// EscalationPayload hands control to a human operator or otherwise halts
// forward autonomous progress.
type EscalationPayload struct {
	Reason          string `json:"reason"`
	EscalationScope string `json:"escalation_scope"`
	Approved        bool   `json:"approved"`
	ApprovedBy      string `json:"approved_by,omitempty"`
}

func (EscalationPayload) PacketType() vocab.PacketType { return vocab.PacketEscalation }

func (p EscalationPayload) Validate() error {
	if p.Reason == "" {
		return fmt.Errorf("escalation: reason is required")
	}
	if p.EscalationScope == "" {
		return fmt.Errorf("escalation: escalation_scope is required")
	}
	return nil
}

// IntegrityAlertPayload is the sole user-visible escalation envelope for
// validator rejections and external cancellation (spec §7 propagation
// policy).
type IntegrityAlertPayload struct {
	Severity        vocab.Severity `json:"severity"`
	ViolationKind   string         `json:"violation_kind"`
	Detail          string         `json:"detail"`
	RejectedPacketID *uuid.UUID    `json:"rejected_packet_id,omitempty"`
}

func (IntegrityAlertPayload) PacketType() vocab.PacketType { return vocab.PacketIntegrityAlert }

func (p IntegrityAlertPayload) Validate() error {
	if !p.Severity.Valid() {
		return fmt.Errorf("integrity_alert: severity %q is not a recognized Severity", p.Severity)
	}
	if p.ViolationKind == "" {
		return fmt.Errorf("integrity_alert: violation_kind is required")
	}
	return nil
}
