package packet

import (
	"fmt"
	"time"

	"github.com/sixlayer/ace/vocab"
)

// MCP is the Mandatory Compliance Payload: the policy envelope attached to
// every consequential packet, gating downstream routing and action
// (spec §3.2 "MCP envelope"). Grounded on
// original_source/src/omen/schemas/mcp.py's field groups.
type MCP struct {
	Intent     Intent     `json:"intent"`
	Stakes     Stakes     `json:"stakes"`
	Quality    Quality    `json:"quality"`
	Budgets    Budgets    `json:"budgets"`
	Epistemics Epistemics `json:"epistemics"`
	Evidence   Evidence   `json:"evidence"`
	Routing    Routing    `json:"routing"`
}

// Intent names what the packet is trying to accomplish and at what scope.
type Intent struct {
	Summary string `json:"summary"`
	Scope   string `json:"scope"`
}

// Stakes carries the four independently-rated stakes components plus the
// collapsed stakes_level (spec invariant i: stakes_level = monotone max).
type Stakes struct {
	Impact          vocab.StakesLevel `json:"impact"`
	Irreversibility vocab.StakesLevel `json:"irreversibility"`
	Uncertainty     vocab.StakesLevel `json:"uncertainty"`
	Adversariality  vocab.StakesLevel `json:"adversariality"`
	StakesLevel     vocab.StakesLevel `json:"stakes_level"`
}

// Recomputed returns the Stakes with StakesLevel set to the monotone maximum
// of its four components. Validators use this to check invariant (i)
// without mutating the packet under inspection.
func (s Stakes) Recomputed() Stakes {
	s.StakesLevel = vocab.MaxStakes(s.Impact, s.Irreversibility, s.Uncertainty, s.Adversariality)
	return s
}

// DefinitionOfDone states the textual completion criteria and a checklist.
type DefinitionOfDone struct {
	Text   string   `json:"text"`
	Checks []string `json:"checks"`
}

// Quality carries the output quality bar and how completion is judged.
type Quality struct {
	QualityTier              vocab.QualityTier              `json:"quality_tier"`
	SatisficingMode          bool                            `json:"satisficing_mode"`
	DefinitionOfDone         DefinitionOfDone                `json:"definition_of_done"`
	VerificationRequirement  vocab.VerificationRequirement   `json:"verification_requirement"`
}

// RiskBudget bounds acceptable loss for the episode.
type RiskBudget struct {
	Envelope string  `json:"envelope"`
	MaxLoss  float64 `json:"max_loss"`
}

// Budgets carries the episode's resource ceilings (spec invariant iii: all
// non-negative).
type Budgets struct {
	TokenBudget        int        `json:"token_budget"`
	ToolCallBudget      int        `json:"tool_call_budget"`
	TimeBudgetSeconds   int        `json:"time_budget_seconds"`
	RiskBudget          RiskBudget `json:"risk_budget"`
}

func (b Budgets) Validate() error {
	if b.TokenBudget < 0 || b.ToolCallBudget < 0 || b.TimeBudgetSeconds < 0 {
		return fmt.Errorf("packet: budgets must be non-negative")
	}
	if b.RiskBudget.MaxLoss < 0 {
		return fmt.Errorf("packet: risk_budget.max_loss must be non-negative")
	}
	return nil
}

// Epistemics carries the claim's epistemic status, confidence, and
// freshness requirements.
type Epistemics struct {
	Status                  vocab.EpistemicStatus `json:"status"`
	Confidence               float64               `json:"confidence"`
	CalibrationNote          string                `json:"calibration_note,omitempty"`
	FreshnessClass           vocab.FreshnessClass  `json:"freshness_class"`
	StaleIfOlderThanSeconds  int                   `json:"stale_if_older_than_seconds"`
	Assumptions              []string              `json:"assumptions,omitempty"`
}

func (e Epistemics) Validate() error {
	if !e.Status.Valid() {
		return fmt.Errorf("packet: epistemics.status %q invalid", e.Status)
	}
	if e.Confidence < 0 || e.Confidence > 1 {
		return fmt.Errorf("packet: epistemics.confidence %v must be in [0,1]", e.Confidence)
	}
	if !e.FreshnessClass.Valid() {
		return fmt.Errorf("packet: epistemics.freshness_class %q invalid", e.FreshnessClass)
	}
	return nil
}

// EvidenceRef links a claim to the tool output (or other source) that
// grounds it. Grounded on original_source/src/omen/tools/base.py's
// EvidenceRef dataclass.
type EvidenceRef struct {
	RefType          vocab.EvidenceRefType `json:"ref_type"`
	RefID            string                `json:"ref_id"`
	Timestamp        time.Time             `json:"timestamp"`
	ReliabilityScore float64               `json:"reliability_score"`
}

// Evidence carries the refs backing a packet's claims, or an explicit
// reason why none are cited.
type Evidence struct {
	Refs                  []EvidenceRef `json:"refs,omitempty"`
	EvidenceAbsentReason  string        `json:"evidence_absent_reason,omitempty"`
}

// Routing carries the task classification and current tool substrate
// health. Gate 1 checks that tools_state is a known value; the runner
// fills it from the compilation context when a packet leaves it empty.
// No gate compares it with the episode's current tools state.
type Routing struct {
	TaskClass  vocab.TaskClass  `json:"task_class"`
	ToolsState vocab.ToolsState `json:"tools_state"`
}

// Validate runs the MCP-internal invariants from spec §3.2: stakes_level
// consistency (i), OBSERVED-requires-evidence (ii), non-negative budgets
// (iii), and confidence range (iv). It does not perform cross-packet
// checks (grounding freshness, budget ceilings) — those belong to the
// three gates in package validate.
func (m MCP) Validate() error {
	if recomputed := m.Stakes.Recomputed(); recomputed.StakesLevel != m.Stakes.StakesLevel {
		return fmt.Errorf("packet: mcp.stakes.stakes_level %s does not equal monotone max of components (%s)",
			m.Stakes.StakesLevel, recomputed.StakesLevel)
	}
	if err := m.Budgets.Validate(); err != nil {
		return err
	}
	if err := m.Epistemics.Validate(); err != nil {
		return err
	}
	if m.Epistemics.Status == vocab.EpistemicObserved {
		if len(m.Evidence.Refs) == 0 && m.Evidence.EvidenceAbsentReason == "" {
			return fmt.Errorf("packet: epistemics.status=OBSERVED requires evidence.refs or evidence_absent_reason")
		}
	}
	if !m.Routing.ToolsState.Valid() {
		return fmt.Errorf("packet: routing.tools_state %q invalid", m.Routing.ToolsState)
	}
	if !m.Quality.VerificationRequirement.Valid() {
		return fmt.Errorf("packet: quality.verification_requirement %q invalid", m.Quality.VerificationRequirement)
	}
	return nil
}
