package template

import "github.com/sixlayer/ace/vocab"

// Canonical templates referenced by spec.md §8's seed tests. Real
// deployments load templates from YAML via Catalog.LoadYAML; these constants
// give the runner something to compile immediately and act as the
// fixtures the seed tests exercise.

// TemplateA is the "grounding loop": PERCEIVE -> ORIENT -> DECIDE(ACT) ->
// EXECUTE -> REPORT -> COMPLETE, used by spec.md §8 scenario 1.
func TemplateA() EpisodeTemplate {
	return EpisodeTemplate{
		TemplateID:  "A-grounding-loop",
		IntentClass: "lookup",
		Constraints: Constraints{MinTier: vocab.QualitySubpar, AllowedToolsStates: []vocab.ToolsState{vocab.ToolsOK}},
		Steps: []Step{
			{StepID: "perceive", OwnerLayer: vocab.L6, FSMState: vocab.StatePerceive, PacketType: vocab.PacketObservation, NextSteps: []string{"orient"}},
			{StepID: "orient", OwnerLayer: vocab.L3, FSMState: vocab.StateOrient, PacketType: vocab.PacketBeliefUpdate, NextSteps: []string{"decide"}},
			{StepID: "decide", OwnerLayer: vocab.L5, FSMState: vocab.StateDecide, PacketType: vocab.PacketDecision, NextSteps: []string{"execute"}},
			{StepID: "execute", OwnerLayer: vocab.L6, FSMState: vocab.StateExecute, PacketType: vocab.PacketTaskDirective, NextSteps: []string{"report"}},
			{StepID: "report", OwnerLayer: vocab.L6, FSMState: vocab.StateReport, PacketType: vocab.PacketTaskResult, NextSteps: []string{"complete"}},
			{StepID: "complete", OwnerLayer: vocab.L6, FSMState: vocab.StateComplete, PacketType: vocab.PacketTaskResult, NextSteps: nil},
		},
		EntryStep: "perceive",
		ExitSteps: []string{"complete"},
	}
}

// TemplateB is the "verify-first" flow: DECIDE may loop back through
// VERIFY before a second DECIDE, guarded by the Decision.outcome
// discriminator (spec.md §8 scenario 2, §9's loop-edge allowance).
func TemplateB() EpisodeTemplate {
	return EpisodeTemplate{
		TemplateID:  "B-verify-first",
		IntentClass: "analysis",
		Constraints: Constraints{MinTier: vocab.QualityPar, AllowedToolsStates: []vocab.ToolsState{vocab.ToolsOK, vocab.ToolsPartial}},
		Steps: []Step{
			{StepID: "perceive", OwnerLayer: vocab.L6, FSMState: vocab.StatePerceive, PacketType: vocab.PacketObservation, NextSteps: []string{"orient"}},
			{StepID: "orient", OwnerLayer: vocab.L3, FSMState: vocab.StateOrient, PacketType: vocab.PacketBeliefUpdate, NextSteps: []string{"decide"}},
			{StepID: "decide", OwnerLayer: vocab.L5, FSMState: vocab.StateDecide, PacketType: vocab.PacketDecision,
				NextSteps: []string{"verify", "execute", "escalate"},
				Bindings: map[string]string{
					"next:VERIFY_FIRST": "verify",
					"next:ACT":          "execute",
					"next:ESCALATE":     "escalate",
				}},
			// verify->decide is the back-edge that closes the loop; the
			// LoopEdge tolerance belongs on the step that owns it, not on
			// decide (the forward-edge step the cycle merely passes through).
			{StepID: "verify", OwnerLayer: vocab.L5, FSMState: vocab.StateVerify, PacketType: vocab.PacketVerificationPlan, NextSteps: []string{"decide"}, LoopEdge: true},
			{StepID: "execute", OwnerLayer: vocab.L6, FSMState: vocab.StateExecute, PacketType: vocab.PacketTaskDirective, NextSteps: []string{"report"}},
			{StepID: "report", OwnerLayer: vocab.L6, FSMState: vocab.StateReport, PacketType: vocab.PacketTaskResult, NextSteps: []string{"complete"}},
			{StepID: "escalate", OwnerLayer: vocab.L5, FSMState: vocab.StateEscalate, PacketType: vocab.PacketEscalation, NextSteps: []string{"complete"}},
			{StepID: "complete", OwnerLayer: vocab.L6, FSMState: vocab.StateComplete, PacketType: vocab.PacketTaskResult, NextSteps: nil},
		},
		EntryStep: "perceive",
		ExitSteps: []string{"complete"},
	}
}

// TemplateD is the "write act" flow: L5 issues a ToolAuthorizationToken
// before a WRITE TaskDirective (spec.md §8 scenario 3).
func TemplateD() EpisodeTemplate {
	return EpisodeTemplate{
		TemplateID:  "D-write-act",
		IntentClass: "write",
		Constraints: Constraints{MinTier: vocab.QualityPar, AllowedToolsStates: []vocab.ToolsState{vocab.ToolsOK}, WriteAllowed: true},
		Steps: []Step{
			{StepID: "perceive", OwnerLayer: vocab.L6, FSMState: vocab.StatePerceive, PacketType: vocab.PacketObservation, NextSteps: []string{"orient"}},
			{StepID: "orient", OwnerLayer: vocab.L3, FSMState: vocab.StateOrient, PacketType: vocab.PacketBeliefUpdate, NextSteps: []string{"decide"}},
			{StepID: "decide", OwnerLayer: vocab.L5, FSMState: vocab.StateDecide, PacketType: vocab.PacketDecision, NextSteps: []string{"authorize"}},
			{StepID: "authorize", OwnerLayer: vocab.L5, FSMState: vocab.StateAuthorize, PacketType: vocab.PacketToolAuthorizationToken, NextSteps: []string{"execute"}},
			{StepID: "execute", OwnerLayer: vocab.L6, FSMState: vocab.StateExecute, PacketType: vocab.PacketTaskDirective, NextSteps: []string{"report"}},
			{StepID: "report", OwnerLayer: vocab.L6, FSMState: vocab.StateReport, PacketType: vocab.PacketTaskResult, NextSteps: []string{"complete"}},
			{StepID: "complete", OwnerLayer: vocab.L6, FSMState: vocab.StateComplete, PacketType: vocab.PacketTaskResult, NextSteps: nil},
		},
		EntryStep: "perceive",
		ExitSteps: []string{"complete"},
	}
}

// TemplateF tolerates TOOLS_PARTIAL (spec.md §8 scenario 6: "Degraded
// tools").
func TemplateF() EpisodeTemplate {
	t := TemplateA()
	t.TemplateID = "F-degraded-tools"
	t.Constraints.AllowedToolsStates = []vocab.ToolsState{vocab.ToolsOK, vocab.ToolsPartial}
	return t
}
