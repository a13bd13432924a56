package validate

import (
	"fmt"
	"strings"
	"time"

	"github.com/sixlayer/ace/ledger"
	"github.com/sixlayer/ace/packet"
	"github.com/sixlayer/ace/vocab"
)

// History gives the invariant validator read access to the episode's
// packet log, needed by rule 2 (prior VerificationPlan/Escalation lookup).
// Rule 6 (layer contract) is checked through EmissionWhitelist instead.
type History interface {
	// Preceding reports whether a packet of packetType matching predicate
	// appears earlier in the same correlation_id's history.
	Preceding(packetType vocab.PacketType, predicate func(packet.Packet) bool) bool
}

// EmissionWhitelist reports whether source may emit packetType (spec.md
// §4.7's table). Implemented by layer.Contract; declared here as an
// interface to avoid validate depending on layer.
type EmissionWhitelist interface {
	Allowed(source vocab.LayerSource, packetType vocab.PacketType) bool
}

// Invariant runs gate 3's six cross-policy rules (spec.md §4.3) against p,
// using led for budget/token state and hist for correlation-id history.
// The charges a packet would make are read from the payload's own
// accounting fields (e.g. TaskResultPayload's TokensConsumed) and checked
// against led.Snapshot, so gate 3 can reject before any ledger mutation
// actually occurs, preserving spec.md's "Consume... does not mutate
// state" on rejection.
func Invariant(p packet.Packet, led *ledger.Ledger, hist History, wl EmissionWhitelist) Result {
	if !wl.Allowed(p.Header.LayerSource, p.Header.PacketType) {
		return fail(fmt.Sprintf("layer %s is not permitted to emit %s", p.Header.LayerSource, p.Header.PacketType))
	}

	switch payload := p.Payload.(type) {
	case packet.TaskDirectivePayload:
		if err := ruleSubparGate(p, payload); err != "" {
			return fail(err)
		}
		if err := ruleWriteAuthorization(payload, led); err != "" {
			return fail(err)
		}

	case packet.DecisionPayload:
		if err := ruleHighStakesVerification(p, payload, hist); err != "" {
			return fail(err)
		}

	case packet.TaskResultPayload:
		if err := ruleBudgetCeiling(payload, led); err != "" {
			return fail(err)
		}
	}

	if err := ruleGrounding(p); err != "" {
		return fail(err)
	}

	return ok()
}

// rule 1: SUBPAR gate.
func ruleSubparGate(p packet.Packet, payload packet.TaskDirectivePayload) string {
	if (payload.ToolSafety == vocab.ToolSafetyWrite || payload.ToolSafety == vocab.ToolSafetyMixed) &&
		p.MCP.Quality.QualityTier == vocab.QualitySubpar {
		return "TaskDirective with tool_safety WRITE/MIXED may not carry quality_tier=SUBPAR"
	}
	return ""
}

// rule 2: HIGH/CRITICAL verification.
func ruleHighStakesVerification(p packet.Packet, payload packet.DecisionPayload, hist History) string {
	if payload.Outcome != vocab.OutcomeAct {
		return ""
	}
	level := p.MCP.Stakes.StakesLevel
	if level != vocab.StakesHigh && level != vocab.StakesCritical {
		return ""
	}
	if hist == nil {
		return "stakes HIGH/CRITICAL ACT decision requires prior VerificationPlan or Escalation, but no history available"
	}
	precededByPlan := hist.Preceding(vocab.PacketVerificationPlan, func(prior packet.Packet) bool {
		vp, ok := prior.Payload.(packet.VerificationPlanPayload)
		return ok && vp.VerificationTarget == payload.DecisionScope
	})
	if precededByPlan {
		return ""
	}
	precededByEscalation := hist.Preceding(vocab.PacketEscalation, func(packet.Packet) bool { return true })
	if precededByEscalation {
		return ""
	}
	return "stakes HIGH/CRITICAL ACT decision not preceded by a matching VerificationPlan or an Escalation"
}

// rule 3: Grounding.
func ruleGrounding(p packet.Packet) string {
	if p.MCP.Epistemics.Status != vocab.EpistemicObserved {
		return ""
	}
	staleWindow := time.Duration(p.MCP.Epistemics.StaleIfOlderThanSeconds) * time.Second
	for _, ref := range p.MCP.Evidence.Refs {
		if ref.RefType != vocab.EvidenceToolOutput {
			continue
		}
		age := p.Header.CreatedAt.Sub(ref.Timestamp)
		if age >= 0 && age <= staleWindow {
			return ""
		}
	}
	return "OBSERVED packet requires a tool_output evidence ref within stale_if_older_than_seconds of created_at"
}

// rule 4: Budget ceiling. An operator-approved overrun escalation
// (spec.md §4.3 rule 4, §7) lets exactly one over-budget charge through —
// mirrors Ledger.Consume's own one-shot allowance so gate 3 doesn't
// reject a packet that Consume would go on to accept.
func ruleBudgetCeiling(payload packet.TaskResultPayload, led *ledger.Ledger) string {
	snap := led.Snapshot()
	overrunsRemaining := snap.ApprovedOverrunEscalations
	check := func(kind ledger.BudgetKind, amount float64) string {
		if amount <= 0 {
			return ""
		}
		if snap.Budgets.Consumed[kind]+amount > snap.Budgets.Allocated[kind] {
			if overrunsRemaining > 0 {
				overrunsRemaining--
				return ""
			}
			return fmt.Sprintf("accounting %v additional %s would exceed allocated budget without an approved overrun escalation", amount, kind)
		}
		return ""
	}
	if msg := check(ledger.BudgetTokens, float64(payload.TokensConsumed)); msg != "" {
		return msg
	}
	if msg := check(ledger.BudgetToolCall, float64(payload.ToolCallsConsumed)); msg != "" {
		return msg
	}
	return ""
}

// rule 5: Write authorization.
func ruleWriteAuthorization(payload packet.TaskDirectivePayload, led *ledger.Ledger) string {
	if payload.ToolSafety != vocab.ToolSafetyWrite && payload.ToolSafety != vocab.ToolSafetyMixed {
		return ""
	}
	if payload.AuthorizationTokenID == nil {
		return "TaskDirective with tool_safety WRITE/MIXED must cite an authorization_token_id"
	}
	tok, valid := led.TokenValid(*payload.AuthorizationTokenID)
	if !valid {
		return "authorization_token_id does not resolve to a currently valid token"
	}
	if tok.IssuerLayer != string(vocab.L5) && tok.IssuerLayer != string(vocab.L1) {
		return "authorization token issuer must be L5 (or L1 override)"
	}
	if tok.Scope != "" && tok.Scope != payload.ToolName && !strings.HasPrefix(payload.ToolName, tok.Scope+".") {
		return fmt.Sprintf("authorization token scope %q does not cover tool %q", tok.Scope, payload.ToolName)
	}
	return ""
}
