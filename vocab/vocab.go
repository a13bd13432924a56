// Package vocab defines the closed enumerated vocabulary shared by every
// packet, policy, and validator in the orchestrator. Nothing outside this
// package may introduce a new member of these sets at runtime: they are the
// fixed vocabulary the constitutional gates reason over.
package vocab

import (
	"encoding/json"
	"fmt"
)

// StakesLevel is the monotone ordering LOW < MEDIUM < HIGH < CRITICAL used
// both as a component rating and as the collapsed overall stakes_level.
type StakesLevel int

const (
	StakesLow StakesLevel = iota
	StakesMedium
	StakesHigh
	StakesCritical
)

func (s StakesLevel) String() string {
	switch s {
	case StakesLow:
		return "LOW"
	case StakesMedium:
		return "MEDIUM"
	case StakesHigh:
		return "HIGH"
	case StakesCritical:
		return "CRITICAL"
	default:
		return "UNKNOWN"
	}
}

// ParseStakesLevel parses the wire representation of a StakesLevel.
func ParseStakesLevel(s string) (StakesLevel, error) {
	switch s {
	case "LOW":
		return StakesLow, nil
	case "MEDIUM":
		return StakesMedium, nil
	case "HIGH":
		return StakesHigh, nil
	case "CRITICAL":
		return StakesCritical, nil
	default:
		return 0, fmt.Errorf("vocab: unknown stakes level %q", s)
	}
}

// MarshalJSON renders a StakesLevel as its wire string (e.g. "HIGH") rather
// than its ordinal, matching the original Python enum's serialization.
func (s StakesLevel) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON parses a StakesLevel from its wire string.
func (s *StakesLevel) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}
	parsed, err := ParseStakesLevel(str)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// MaxStakes returns the monotone maximum of a set of stakes levels, used to
// derive mcp.Stakes.StakesLevel from its four components (spec invariant i).
func MaxStakes(levels ...StakesLevel) StakesLevel {
	max := StakesLow
	for _, l := range levels {
		if l > max {
			max = l
		}
	}
	return max
}

// QualityTier ranks the minimum acceptable output quality for an episode.
type QualityTier int

const (
	QualitySubpar QualityTier = iota
	QualityPar
	QualitySuperb
)

func (q QualityTier) String() string {
	switch q {
	case QualitySubpar:
		return "SUBPAR"
	case QualityPar:
		return "PAR"
	case QualitySuperb:
		return "SUPERB"
	default:
		return "UNKNOWN"
	}
}

func ParseQualityTier(s string) (QualityTier, error) {
	switch s {
	case "SUBPAR":
		return QualitySubpar, nil
	case "PAR":
		return QualityPar, nil
	case "SUPERB":
		return QualitySuperb, nil
	default:
		return 0, fmt.Errorf("vocab: unknown quality tier %q", s)
	}
}

func (q QualityTier) MarshalJSON() ([]byte, error) {
	return json.Marshal(q.String())
}

func (q *QualityTier) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}
	parsed, err := ParseQualityTier(str)
	if err != nil {
		return err
	}
	*q = parsed
	return nil
}

// Less reports whether q ranks below other — used by the compiler's
// min_tier constraint check (spec §4.4).
func (q QualityTier) Less(other QualityTier) bool { return q < other }

// EpistemicStatus classifies how a claim was arrived at.
type EpistemicStatus string

const (
	EpistemicObserved EpistemicStatus = "OBSERVED"
	EpistemicDerived  EpistemicStatus = "DERIVED"
	EpistemicInferred EpistemicStatus = "INFERRED"
	EpistemicAssumed  EpistemicStatus = "ASSUMED"
)

func (e EpistemicStatus) Valid() bool {
	switch e {
	case EpistemicObserved, EpistemicDerived, EpistemicInferred, EpistemicAssumed:
		return true
	default:
		return false
	}
}

// FreshnessClass bounds how old evidence is allowed to be for a given claim.
type FreshnessClass string

const (
	FreshnessRealtime    FreshnessClass = "REALTIME"
	FreshnessOperational FreshnessClass = "OPERATIONAL"
	FreshnessStrategic   FreshnessClass = "STRATEGIC"
	FreshnessArchival    FreshnessClass = "ARCHIVAL"
)

func (f FreshnessClass) Valid() bool {
	switch f {
	case FreshnessRealtime, FreshnessOperational, FreshnessStrategic, FreshnessArchival:
		return true
	default:
		return false
	}
}

// VerificationRequirement states whether a claim needs independent checking
// before it may back an ACT decision.
type VerificationRequirement string

const (
	VerificationOptional  VerificationRequirement = "OPTIONAL"
	VerificationRequired  VerificationRequirement = "REQUIRED"
	VerificationMandatory VerificationRequirement = "MANDATORY"
)

func (v VerificationRequirement) Valid() bool {
	switch v {
	case VerificationOptional, VerificationRequired, VerificationMandatory:
		return true
	default:
		return false
	}
}

// ToolsState describes the health of the tool execution substrate.
type ToolsState string

const (
	ToolsOK      ToolsState = "TOOLS_OK"
	ToolsPartial ToolsState = "TOOLS_PARTIAL"
	ToolsDown    ToolsState = "TOOLS_DOWN"
)

func (t ToolsState) Valid() bool {
	switch t {
	case ToolsOK, ToolsPartial, ToolsDown:
		return true
	default:
		return false
	}
}

// ToolSafety classifies the side-effect profile of a tool or directive.
type ToolSafety string

const (
	ToolSafetyRead  ToolSafety = "READ"
	ToolSafetyWrite ToolSafety = "WRITE"
	ToolSafetyMixed ToolSafety = "MIXED"
)

func (t ToolSafety) Valid() bool {
	switch t {
	case ToolSafetyRead, ToolSafetyWrite, ToolSafetyMixed:
		return true
	default:
		return false
	}
}

// LayerSource identifies the emitting layer of the reasoning hierarchy, or
// the supervisory integrity principal.
type LayerSource string

const (
	L1        LayerSource = "1"
	L2        LayerSource = "2"
	L3        LayerSource = "3"
	L4        LayerSource = "4"
	L5        LayerSource = "5"
	L6        LayerSource = "6"
	Integrity LayerSource = "INTEGRITY"
)

func (l LayerSource) Valid() bool {
	switch l {
	case L1, L2, L3, L4, L5, L6, Integrity:
		return true
	default:
		return false
	}
}

// Order returns the hierarchy position used by bus routing: lower numbers
// are higher in the hierarchy, Integrity is always 0 (sees/directs all).
func (l LayerSource) Order() int {
	switch l {
	case Integrity:
		return 0
	case L1:
		return 1
	case L2:
		return 2
	case L3:
		return 3
	case L4:
		return 4
	case L5:
		return 5
	case L6:
		return 6
	default:
		return 99
	}
}

// FSMState is a node of the episode state machine (spec §3.1, §4.2).
type FSMState string

const (
	StateIdle      FSMState = "IDLE"
	StatePerceive  FSMState = "PERCEIVE"
	StateOrient    FSMState = "ORIENT"
	StateDecide    FSMState = "DECIDE"
	StateVerify    FSMState = "VERIFY"
	StateAuthorize FSMState = "AUTHORIZE"
	StateExecute   FSMState = "EXECUTE"
	StateReport    FSMState = "REPORT"
	StateEscalate  FSMState = "ESCALATE"
	StateSafemode  FSMState = "SAFEMODE"
	StateComplete  FSMState = "COMPLETE"
)

func (f FSMState) Valid() bool {
	switch f {
	case StateIdle, StatePerceive, StateOrient, StateDecide, StateVerify,
		StateAuthorize, StateExecute, StateReport, StateEscalate, StateSafemode, StateComplete:
		return true
	default:
		return false
	}
}

// PacketType tags the nine canonical payload variants.
type PacketType string

const (
	PacketObservation           PacketType = "Observation"
	PacketBeliefUpdate          PacketType = "BeliefUpdate"
	PacketDecision              PacketType = "Decision"
	PacketVerificationPlan      PacketType = "VerificationPlan"
	PacketToolAuthorizationToken PacketType = "ToolAuthorizationToken"
	PacketTaskDirective         PacketType = "TaskDirective"
	PacketTaskResult            PacketType = "TaskResult"
	PacketEscalation            PacketType = "Escalation"
	PacketIntegrityAlert        PacketType = "IntegrityAlert"
)

func (p PacketType) Valid() bool {
	switch p {
	case PacketObservation, PacketBeliefUpdate, PacketDecision, PacketVerificationPlan,
		PacketToolAuthorizationToken, PacketTaskDirective, PacketTaskResult,
		PacketEscalation, PacketIntegrityAlert:
		return true
	default:
		return false
	}
}

// FSMTarget returns the FSM state a packet of this type implies, per the
// fixed mapping in spec §4.2. IntegrityAlert maps to SAFEMODE; gate 2
// (validate.FSM) allows it to fire from any state.
func (p PacketType) FSMTarget() (FSMState, bool) {
	switch p {
	case PacketObservation:
		return StatePerceive, true
	case PacketBeliefUpdate:
		return StateOrient, true
	case PacketDecision:
		return StateDecide, true
	case PacketVerificationPlan:
		return StateVerify, true
	case PacketToolAuthorizationToken:
		return StateAuthorize, true
	case PacketTaskDirective:
		return StateExecute, true
	case PacketTaskResult:
		return StateReport, true
	case PacketEscalation:
		return StateEscalate, true
	case PacketIntegrityAlert:
		return StateSafemode, true
	default:
		return "", false
	}
}

// DecisionOutcome is the discriminator carried by a Decision payload that
// choose_next uses to pick a template edge.
type DecisionOutcome string

const (
	OutcomeAct         DecisionOutcome = "ACT"
	OutcomeVerifyFirst DecisionOutcome = "VERIFY_FIRST"
	OutcomeEscalate    DecisionOutcome = "ESCALATE"
	OutcomeDefer       DecisionOutcome = "DEFER"
)

func (d DecisionOutcome) Valid() bool {
	switch d {
	case OutcomeAct, OutcomeVerifyFirst, OutcomeEscalate, OutcomeDefer:
		return true
	default:
		return false
	}
}

// TaskClass and EvidenceRefType round out the routing/evidence vocabulary
// referenced by the MCP envelope and original_source's evidence refs.
type TaskClass string

const (
	TaskClassLookup    TaskClass = "LOOKUP"
	TaskClassAnalysis  TaskClass = "ANALYSIS"
	TaskClassWrite     TaskClass = "WRITE"
	TaskClassSafety    TaskClass = "SAFETY"
)

type EvidenceRefType string

const (
	EvidenceToolOutput EvidenceRefType = "tool_output"
	EvidenceDocument    EvidenceRefType = "document"
	EvidenceUserInput   EvidenceRefType = "user_input"
	EvidencePriorBelief EvidenceRefType = "prior_belief"
)

// Severity is used by IntegrityAlert payloads.
type Severity string

const (
	SeverityLow      Severity = "LOW"
	SeverityMedium   Severity = "MEDIUM"
	SeverityHigh     Severity = "HIGH"
	SeverityCritical Severity = "CRITICAL"
)

func (s Severity) Valid() bool {
	switch s {
	case SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical:
		return true
	default:
		return false
	}
}
