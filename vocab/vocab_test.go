package vocab_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sixlayer/ace/vocab"
)

func TestStakesLevel_JSONRoundTrip(t *testing.T) {
	data, err := json.Marshal(vocab.StakesHigh)
	require.NoError(t, err)
	assert.Equal(t, `"HIGH"`, string(data))

	var s vocab.StakesLevel
	require.NoError(t, json.Unmarshal(data, &s))
	assert.Equal(t, vocab.StakesHigh, s)
}

func TestStakesLevel_UnmarshalUnknownErrors(t *testing.T) {
	var s vocab.StakesLevel
	assert.Error(t, json.Unmarshal([]byte(`"NOPE"`), &s))
}

func TestMaxStakes_ReturnsMonotoneMax(t *testing.T) {
	got := vocab.MaxStakes(vocab.StakesLow, vocab.StakesCritical, vocab.StakesMedium)
	assert.Equal(t, vocab.StakesCritical, got)
}

func TestMaxStakes_EmptyDefaultsToLow(t *testing.T) {
	assert.Equal(t, vocab.StakesLow, vocab.MaxStakes())
}

func TestQualityTier_Less(t *testing.T) {
	assert.True(t, vocab.QualitySubpar.Less(vocab.QualityPar))
	assert.False(t, vocab.QualitySuperb.Less(vocab.QualityPar))
}

func TestLayerSource_Order(t *testing.T) {
	assert.Equal(t, 0, vocab.Integrity.Order())
	assert.Less(t, vocab.L1.Order(), vocab.L6.Order())
}

func TestPacketType_FSMTarget(t *testing.T) {
	target, ok := vocab.PacketTaskResult.FSMTarget()
	assert.True(t, ok)
	assert.Equal(t, vocab.StateReport, target)

	_, ok = vocab.PacketType("Nonsense").FSMTarget()
	assert.False(t, ok)
}

func TestPacketType_FSMTarget_NoneTargetsComplete(t *testing.T) {
	// By construction no packet type maps to COMPLETE: reaching it is the
	// runner's job when a step is declared an exit step, not something any
	// single emitted packet can claim.
	for _, pt := range []vocab.PacketType{
		vocab.PacketObservation, vocab.PacketBeliefUpdate, vocab.PacketDecision,
		vocab.PacketVerificationPlan, vocab.PacketToolAuthorizationToken,
		vocab.PacketTaskDirective, vocab.PacketTaskResult, vocab.PacketEscalation,
		vocab.PacketIntegrityAlert,
	} {
		target, ok := pt.FSMTarget()
		require.True(t, ok)
		assert.NotEqual(t, vocab.StateComplete, target, "packet type %s must not target COMPLETE", pt)
	}
}

func TestEnumValidators(t *testing.T) {
	assert.True(t, vocab.EpistemicObserved.Valid())
	assert.False(t, vocab.EpistemicStatus("BOGUS").Valid())

	assert.True(t, vocab.ToolsOK.Valid())
	assert.False(t, vocab.ToolsState("BOGUS").Valid())

	assert.True(t, vocab.ToolSafetyWrite.Valid())
	assert.False(t, vocab.ToolSafety("BOGUS").Valid())

	assert.True(t, vocab.StateComplete.Valid())
	assert.False(t, vocab.FSMState("BOGUS").Valid())

	assert.True(t, vocab.OutcomeAct.Valid())
	assert.False(t, vocab.DecisionOutcome("BOGUS").Valid())
}
