// Package template implements the declarative episode template and its
// compiler (spec.md §3.5, §4.4): a DAG of typed step emissions by named
// layers, instantiated against a runtime context into a CompiledEpisode.
//
// The acyclicity check is grounded on
// orchestration/workflow_dag.go's DFS cycle detection, adapted from
// dependency-edges to the forward next_steps edges this spec's DAG uses,
// with an explicit allowance for loop edges carrying a discriminator.
package template

import "github.com/sixlayer/ace/vocab"

// Constraints gates whether a template may compile against a given
// CompilationContext (spec.md §3.5, §4.4).
type Constraints struct {
	MinTier          vocab.QualityTier
	AllowedToolsStates []vocab.ToolsState
	WriteAllowed     bool
}

func (c Constraints) allowsToolsState(state vocab.ToolsState) bool {
	if len(c.AllowedToolsStates) == 0 {
		return true
	}
	for _, s := range c.AllowedToolsStates {
		if s == state {
			return true
		}
	}
	return false
}

// Step is one node of the template DAG: an emission of packetType by
// ownerLayer, with Bindings giving `${symbol}` substitutions resolved at
// compile time into concrete MCP defaults (spec.md §4.4b).
type Step struct {
	StepID      string
	OwnerLayer  vocab.LayerSource
	FSMState    vocab.FSMState
	PacketType  vocab.PacketType
	NextSteps   []string
	Bindings    map[string]string
	// LoopEdge, when true, marks a next_steps edge back to an earlier
	// step as an explicit discriminator-guarded loop (spec.md §9) rather
	// than an uncontrolled cycle the compiler must reject.
	LoopEdge bool
}

// EpisodeTemplate is the declarative recipe (spec.md §3.5).
type EpisodeTemplate struct {
	TemplateID  string
	IntentClass string
	Constraints Constraints
	Steps       []Step
	EntryStep   string
	ExitSteps   []string
}

func (t EpisodeTemplate) stepByID(id string) (Step, bool) {
	for _, s := range t.Steps {
		if s.StepID == id {
			return s, true
		}
	}
	return Step{}, false
}
