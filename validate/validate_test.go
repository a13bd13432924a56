package validate_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sixlayer/ace/ledger"
	"github.com/sixlayer/ace/packet"
	"github.com/sixlayer/ace/validate"
	"github.com/sixlayer/ace/vocab"
)

type fakeWhitelist struct{}

func (fakeWhitelist) Allowed(source vocab.LayerSource, pt vocab.PacketType) bool {
	if source == vocab.L6 {
		return pt == vocab.PacketObservation || pt == vocab.PacketTaskResult || pt == vocab.PacketBeliefUpdate
	}
	if source == vocab.L5 {
		return true
	}
	return false
}

type fakeHistory struct {
	preceded bool
}

func (f fakeHistory) Preceding(pt vocab.PacketType, predicate func(packet.Packet) bool) bool {
	return f.preceded
}

func baseMCP() packet.MCP {
	return packet.MCP{
		Stakes: packet.Stakes{StakesLevel: vocab.StakesLow},
		Quality: packet.Quality{
			QualityTier:             vocab.QualityPar,
			VerificationRequirement: vocab.VerificationOptional,
		},
		Budgets:    packet.Budgets{},
		Epistemics: packet.Epistemics{Status: vocab.EpistemicDerived, FreshnessClass: vocab.FreshnessOperational},
		Routing:    packet.Routing{TaskClass: vocab.TaskClassLookup, ToolsState: vocab.ToolsOK},
	}
}

func TestSchema_RejectsDiscriminatorMismatch(t *testing.T) {
	h := packet.NewHeader(vocab.PacketDecision, vocab.L4, uuid.New())
	p := packet.Packet{Header: h, MCP: baseMCP(), Payload: packet.ObservationPayload{ObservationType: "x", ObservedAt: time.Now(), Content: map[string]interface{}{}}}
	res := validate.Schema(p, nil)
	assert.False(t, res.OK)
}

func TestFSM_IdleToPerceiveLegal(t *testing.T) {
	h := packet.NewHeader(vocab.PacketObservation, vocab.L6, uuid.New())
	p := packet.Packet{Header: h, MCP: baseMCP(), Payload: packet.ObservationPayload{ObservationType: "x", ObservedAt: time.Now(), Content: map[string]interface{}{}}}
	res, next := validate.FSM(vocab.StateIdle, p)
	require.True(t, res.OK)
	assert.Equal(t, vocab.StatePerceive, next)
}

func TestFSM_DecideToAuthorizeIllegal(t *testing.T) {
	h := packet.NewHeader(vocab.PacketToolAuthorizationToken, vocab.L5, uuid.New())
	p := packet.Packet{Header: h, MCP: baseMCP(), Payload: packet.ToolAuthorizationPayload{TokenID: uuid.New(), MaxUses: 1}}
	res, _ := validate.FSM(vocab.StateDecide, p)
	assert.False(t, res.OK)
}

func TestFSM_IntegrityAlertForcesSafemodeFromAnyState(t *testing.T) {
	h := packet.NewHeader(vocab.PacketIntegrityAlert, vocab.Integrity, uuid.New())
	p := packet.Packet{Header: h, MCP: baseMCP(), Payload: packet.IntegrityAlertPayload{Severity: vocab.SeverityHigh, ViolationKind: "schema"}}
	res, next := validate.FSM(vocab.StateExecute, p)
	require.True(t, res.OK)
	assert.Equal(t, vocab.StateSafemode, next)
}

func TestInvariant_SubparGateRejectsWriteAtSubpar(t *testing.T) {
	led := ledger.New()
	h := packet.NewHeader(vocab.PacketTaskDirective, vocab.L5, uuid.New())
	mcp := baseMCP()
	mcp.Quality.QualityTier = vocab.QualitySubpar
	p := packet.Packet{Header: h, MCP: mcp, Payload: packet.TaskDirectivePayload{ToolName: "orders.update", ToolSafety: vocab.ToolSafetyWrite}}
	res := validate.Invariant(p, led, fakeHistory{}, fakeWhitelist{})
	assert.False(t, res.OK)
}

func TestInvariant_WriteRequiresToken(t *testing.T) {
	led := ledger.New()
	h := packet.NewHeader(vocab.PacketTaskDirective, vocab.L5, uuid.New())
	mcp := baseMCP()
	p := packet.Packet{Header: h, MCP: mcp, Payload: packet.TaskDirectivePayload{ToolName: "orders.update", ToolSafety: vocab.ToolSafetyWrite}}
	res := validate.Invariant(p, led, fakeHistory{}, fakeWhitelist{})
	assert.False(t, res.OK)
}

func TestInvariant_WriteWithValidTokenAccepted(t *testing.T) {
	led := ledger.New()
	tokenID := led.IssueToken("orders", time.Now().Add(time.Hour), 1, string(vocab.L5))
	h := packet.NewHeader(vocab.PacketTaskDirective, vocab.L5, uuid.New())
	mcp := baseMCP()
	p := packet.Packet{
		Header: h, MCP: mcp,
		Payload: packet.TaskDirectivePayload{ToolName: "orders.update", ToolSafety: vocab.ToolSafetyWrite, AuthorizationTokenID: &tokenID},
	}
	res := validate.Invariant(p, led, fakeHistory{}, fakeWhitelist{})
	assert.True(t, res.OK)
}

func TestInvariant_HighStakesActWithoutVerificationRejected(t *testing.T) {
	led := ledger.New()
	h := packet.NewHeader(vocab.PacketDecision, vocab.L5, uuid.New())
	mcp := baseMCP()
	mcp.Stakes.StakesLevel = vocab.StakesCritical
	p := packet.Packet{Header: h, MCP: mcp, Payload: packet.DecisionPayload{DecisionScope: "order:1", Outcome: vocab.OutcomeAct}}
	res := validate.Invariant(p, led, fakeHistory{preceded: false}, fakeWhitelist{})
	assert.False(t, res.OK)
}

func TestInvariant_LayerContractRejectsUnlistedEmitter(t *testing.T) {
	led := ledger.New()
	h := packet.NewHeader(vocab.PacketDecision, vocab.L6, uuid.New())
	p := packet.Packet{Header: h, MCP: baseMCP(), Payload: packet.DecisionPayload{DecisionScope: "x", Outcome: vocab.OutcomeAct}}
	res := validate.Invariant(p, led, fakeHistory{preceded: true}, fakeWhitelist{})
	assert.False(t, res.OK)
}

func TestInvariant_BudgetCeilingRejectsOverBudgetWithoutApproval(t *testing.T) {
	led := ledger.New()
	led.Allocate(map[ledger.BudgetKind]float64{ledger.BudgetTokens: 10})
	h := packet.NewHeader(vocab.PacketTaskResult, vocab.L6, uuid.New())
	p := packet.Packet{Header: h, MCP: baseMCP(), Payload: packet.TaskResultPayload{TaskID: "t1", Status: packet.TaskResultSuccess, TokensConsumed: 20}}
	res := validate.Invariant(p, led, fakeHistory{}, fakeWhitelist{})
	assert.False(t, res.OK)
}

func TestInvariant_BudgetCeilingAllowsOneOverageAfterApprovedEscalation(t *testing.T) {
	led := ledger.New()
	led.Allocate(map[ledger.BudgetKind]float64{ledger.BudgetTokens: 10})
	led.ApproveOverrun()
	h := packet.NewHeader(vocab.PacketTaskResult, vocab.L6, uuid.New())
	p := packet.Packet{Header: h, MCP: baseMCP(), Payload: packet.TaskResultPayload{TaskID: "t1", Status: packet.TaskResultSuccess, TokensConsumed: 20}}
	res := validate.Invariant(p, led, fakeHistory{}, fakeWhitelist{})
	assert.True(t, res.OK)

	require.NoError(t, led.Consume(ledger.BudgetTokens, 20))

	p2 := packet.Packet{Header: packet.NewHeader(vocab.PacketTaskResult, vocab.L6, uuid.New()), MCP: baseMCP(),
		Payload: packet.TaskResultPayload{TaskID: "t2", Status: packet.TaskResultSuccess, TokensConsumed: 5}}
	res2 := validate.Invariant(p2, led, fakeHistory{}, fakeWhitelist{})
	assert.False(t, res2.OK, "the one-shot approval must not cover a second overage")
}
