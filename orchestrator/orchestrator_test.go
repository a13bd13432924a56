package orchestrator_test

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sixlayer/ace/config"
	"github.com/sixlayer/ace/llmclient"
	"github.com/sixlayer/ace/orchestrator"
	"github.com/sixlayer/ace/packet"
	"github.com/sixlayer/ace/template"
	"github.com/sixlayer/ace/tool"
	"github.com/sixlayer/ace/vocab"
)

func fenced(p packet.Packet) string {
	data, err := json.Marshal(p)
	if err != nil {
		panic(err)
	}
	return fmt.Sprintf("```json\n%s\n```", data)
}

func newPacket(packetType vocab.PacketType, source vocab.LayerSource, mcp packet.MCP, payload packet.Payload) packet.Packet {
	return packet.Packet{Header: packet.NewHeader(packetType, source, uuid.New()), MCP: mcp, Payload: payload}
}

func lowStakesMCP() packet.MCP {
	return packet.MCP{
		Intent:     packet.Intent{Summary: "look something up", Scope: "test"},
		Stakes:     packet.Stakes{StakesLevel: vocab.StakesLow}.Recomputed(),
		Quality:    packet.Quality{QualityTier: vocab.QualityPar, VerificationRequirement: vocab.VerificationOptional},
		Budgets:    packet.Budgets{TokenBudget: 1000, ToolCallBudget: 5, TimeBudgetSeconds: 60},
		Epistemics: packet.Epistemics{Status: vocab.EpistemicDerived, FreshnessClass: vocab.FreshnessOperational},
		Routing:    packet.Routing{ToolsState: vocab.ToolsOK},
	}
}

// scriptedClient scripts TemplateA's six-step grounding loop, mirroring
// runner_test.go's fixture.
func scriptedClient() *llmclient.Mock {
	mcp := lowStakesMCP()

	observation := newPacket(vocab.PacketObservation, vocab.L6, mcp, packet.ObservationPayload{
		ObservationType: "lookup", ObservedAt: time.Now().UTC(), Content: map[string]interface{}{"q": "weather"},
	})
	belief := newPacket(vocab.PacketBeliefUpdate, vocab.L3, mcp, packet.BeliefUpdatePayload{
		BeliefKey: "weather", NewValue: "sunny", Rationale: "observed",
	})
	decision := newPacket(vocab.PacketDecision, vocab.L5, mcp, packet.DecisionPayload{
		DecisionScope: "respond", Outcome: vocab.OutcomeAct, Rationale: "low stakes, answer directly",
	})
	directive := newPacket(vocab.PacketTaskDirective, vocab.L6, mcp, packet.TaskDirectivePayload{
		TaskID: "t1", ToolName: "clock", ToolSafety: vocab.ToolSafetyRead, TimeoutSeconds: 10,
	})
	result := newPacket(vocab.PacketTaskResult, vocab.L6, mcp, packet.TaskResultPayload{
		TaskID: "t1", Status: packet.TaskResultSuccess, TokensConsumed: 10, ToolCallsConsumed: 1,
	})
	complete := newPacket(vocab.PacketTaskResult, vocab.L6, mcp, packet.TaskResultPayload{
		TaskID: "t1", Status: packet.TaskResultSuccess,
	})

	return llmclient.NewMock(
		fenced(observation),
		fenced(belief),
		fenced(decision),
		fenced(directive),
		fenced(result),
		fenced(complete),
	)
}

type allowAllWhitelist struct{}

func (allowAllWhitelist) Allowed(vocab.LayerSource, vocab.PacketType) bool { return true }

func newOrchestrator(t *testing.T, client llmclient.Client) *orchestrator.Orchestrator {
	t.Helper()
	catalog := template.NewCatalog()

	cfg, err := config.New()
	require.NoError(t, err)

	o, err := orchestrator.New(catalog, client, tool.NewRegistry(), allowAllWhitelist{}, cfg, nil)
	require.NoError(t, err)
	return o
}

func TestOrchestrator_RunTemplate_CompletesAndIsRetrievable(t *testing.T) {
	o := newOrchestrator(t, scriptedClient())

	res, err := o.RunTemplate(context.Background(), "A-grounding-loop", orchestrator.RunOptions{
		StakesLevel: vocab.StakesLow, QualityTier: vocab.QualityPar,
	})
	require.NoError(t, err)
	assert.True(t, res.Success, "errors: %v", res.Errors)
	assert.Equal(t, vocab.StateComplete, res.FinalState)

	rec, ok := o.GetEpisode(res.CorrelationID)
	require.True(t, ok)
	assert.Equal(t, "A-grounding-loop", rec.TemplateID)
	assert.Equal(t, res.StepCount, len(rec.StepEvents))

	listed := o.ListEpisodes("A-grounding-loop", 0)
	require.Len(t, listed, 1)
	assert.Equal(t, res.CorrelationID, listed[0].CorrelationID)

	listedOther := o.ListEpisodes("B-verify-first", 0)
	assert.Empty(t, listedOther)
}

func TestOrchestrator_RunTemplate_UnknownTemplateErrors(t *testing.T) {
	o := newOrchestrator(t, scriptedClient())

	_, err := o.RunTemplate(context.Background(), "no-such-template", orchestrator.RunOptions{})
	assert.Error(t, err)
}

func TestOrchestrator_GetEpisode_UnknownReturnsFalse(t *testing.T) {
	o := newOrchestrator(t, scriptedClient())

	_, ok := o.GetEpisode(uuid.New())
	assert.False(t, ok)
}

func TestOrchestrator_Cancel_NoInFlightEpisodeErrors(t *testing.T) {
	o := newOrchestrator(t, scriptedClient())

	err := o.Cancel(uuid.New())
	assert.Error(t, err)
}

func TestOrchestrator_Cancel_AfterCompletionNoLongerTracksRunner(t *testing.T) {
	o := newOrchestrator(t, scriptedClient())

	res, err := o.RunTemplate(context.Background(), "A-grounding-loop", orchestrator.RunOptions{})
	require.NoError(t, err)

	// The runner is removed from the in-flight map once RunTemplate
	// returns, so cancelling a completed episode is a no-op error rather
	// than reaching back into a finished run.
	err = o.Cancel(res.CorrelationID)
	assert.Error(t, err)
}
