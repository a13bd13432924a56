package template

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/sixlayer/ace/vocab"
)

// CompilationContext carries the runtime parameters a template is
// instantiated against (spec.md §4.4).
type CompilationContext struct {
	StakesLevel    vocab.StakesLevel
	QualityTier    vocab.QualityTier
	TokenBudget    int
	ToolCallBudget int
	TimeBudgetSeconds int
	ToolsState     vocab.ToolsState
	FreshnessClass vocab.FreshnessClass
	CampaignID     *uuid.UUID
}

// CompiledStep is a Step with its bindings resolved into concrete string
// values, ready for packet synthesis.
type CompiledStep struct {
	Step
	ResolvedBindings map[string]string
}

// CompiledEpisode is a template instantiated against a CompilationContext:
// a fresh correlation_id plus the resolved step graph, kept as a snapshot
// for audit reconstruction (spec.md §4.4c).
type CompiledEpisode struct {
	TemplateID    string
	CorrelationID uuid.UUID
	CampaignID    *uuid.UUID
	Context       CompilationContext
	Steps         map[string]CompiledStep
	EntryStep     string
	ExitSteps     []string
}

// CompilationErrorKind enumerates the compiler's failure modes (spec.md
// §4.4's CompilationError).
type CompilationErrorKind string

const (
	KindConstraintViolation CompilationErrorKind = "constraint_violation"
	KindUnknownBinding      CompilationErrorKind = "unknown_binding"
	KindCyclicDAG           CompilationErrorKind = "cyclic_dag"
	KindDanglingStep        CompilationErrorKind = "dangling_step"
)

// CompilationError reports a rejected compilation.
type CompilationError struct {
	Kind   CompilationErrorKind
	Detail string
}

func (e *CompilationError) Error() string {
	return fmt.Sprintf("template: compilation failed (%s): %s", e.Kind, e.Detail)
}

// knownBindingSymbols are the substitution symbols the compiler resolves;
// anything else in a `${...}` placeholder is an unknown_binding error
// (spec.md §4.4b: "simple substitution... no general expression
// evaluation").
var knownBindingSymbols = map[string]func(CompilationContext) string{
	"stakes_level": func(c CompilationContext) string { return c.StakesLevel.String() },
	"quality_tier": func(c CompilationContext) string { return c.QualityTier.String() },
	"token_budget": func(c CompilationContext) string { return strconv.Itoa(c.TokenBudget) },
	"tool_call_budget": func(c CompilationContext) string { return strconv.Itoa(c.ToolCallBudget) },
	"time_budget_seconds": func(c CompilationContext) string { return strconv.Itoa(c.TimeBudgetSeconds) },
	"tools_state": func(c CompilationContext) string { return string(c.ToolsState) },
	"freshness_class": func(c CompilationContext) string { return string(c.FreshnessClass) },
}

// Compile checks t's constraints against ctx, validates the DAG's
// structural invariants (spec.md §3.5), resolves bindings, and produces a
// CompiledEpisode. Compile is deterministic given identical (t, ctx) apart
// from the fresh CorrelationID (spec.md §8 "Idempotence").
func Compile(t EpisodeTemplate, ctx CompilationContext) (*CompiledEpisode, error) {
	if ctx.QualityTier.Less(t.Constraints.MinTier) {
		return nil, &CompilationError{Kind: KindConstraintViolation,
			Detail: fmt.Sprintf("context quality_tier %s below template min_tier %s", ctx.QualityTier, t.Constraints.MinTier)}
	}
	if !t.Constraints.allowsToolsState(ctx.ToolsState) {
		return nil, &CompilationError{Kind: KindConstraintViolation,
			Detail: fmt.Sprintf("context tools_state %s not in template's allowed set", ctx.ToolsState)}
	}
	if t.Constraints.WriteAllowed {
		// WriteAllowed asserts the template MAY need writes; nothing in
		// ctx currently forbids writes outright, so there is no further
		// check here beyond the constraint having been declared — a
		// future write-forbidding context flag would gate here.
	}

	if _, ok := t.stepByID(t.EntryStep); !ok {
		return nil, &CompilationError{Kind: KindDanglingStep, Detail: fmt.Sprintf("entry_step %q not found in steps", t.EntryStep)}
	}
	for _, exit := range t.ExitSteps {
		if _, ok := t.stepByID(exit); !ok {
			return nil, &CompilationError{Kind: KindDanglingStep, Detail: fmt.Sprintf("exit_step %q not found in steps", exit)}
		}
	}
	for _, s := range t.Steps {
		for _, next := range s.NextSteps {
			if _, ok := t.stepByID(next); !ok {
				return nil, &CompilationError{Kind: KindDanglingStep, Detail: fmt.Sprintf("step %q has next_steps entry %q not found in steps", s.StepID, next)}
			}
		}
	}

	if err := checkAcyclic(t); err != nil {
		return nil, err
	}

	compiledSteps := make(map[string]CompiledStep, len(t.Steps))
	for _, s := range t.Steps {
		resolved, err := resolveBindings(s.Bindings, ctx)
		if err != nil {
			return nil, err
		}
		compiledSteps[s.StepID] = CompiledStep{Step: s, ResolvedBindings: resolved}
	}

	return &CompiledEpisode{
		TemplateID:    t.TemplateID,
		CorrelationID: uuid.New(),
		CampaignID:    ctx.CampaignID,
		Context:       ctx,
		Steps:         compiledSteps,
		EntryStep:     t.EntryStep,
		ExitSteps:     t.ExitSteps,
	}, nil
}

func resolveBindings(bindings map[string]string, ctx CompilationContext) (map[string]string, error) {
	resolved := make(map[string]string, len(bindings))
	for key, raw := range bindings {
		value, err := substitute(raw, ctx)
		if err != nil {
			return nil, err
		}
		resolved[key] = value
	}
	return resolved, nil
}

func substitute(raw string, ctx CompilationContext) (string, error) {
	if !strings.Contains(raw, "${") {
		return raw, nil
	}
	out := raw
	for strings.Contains(out, "${") {
		start := strings.Index(out, "${")
		end := strings.Index(out[start:], "}")
		if end == -1 {
			return "", &CompilationError{Kind: KindUnknownBinding, Detail: fmt.Sprintf("unterminated binding in %q", raw)}
		}
		end += start
		symbol := out[start+2 : end]
		resolver, known := knownBindingSymbols[symbol]
		if !known {
			return "", &CompilationError{Kind: KindUnknownBinding, Detail: fmt.Sprintf("unknown binding symbol %q", symbol)}
		}
		out = out[:start] + resolver(ctx) + out[end+1:]
	}
	return out, nil
}

// checkAcyclic walks next_steps edges with DFS, grounded on
// orchestration/workflow_dag.go's hasCycleDFS. A back-edge to a step
// already on the recursion stack is only tolerated when marked
// Step.LoopEdge — an unmarked back-edge is the "unbounded cycle" spec.md
// §3.5/§9 requires the compiler to reject.
func checkAcyclic(t EpisodeTemplate) error {
	visited := make(map[string]bool)
	onStack := make(map[string]bool)

	var visit func(id string) error
	visit = func(id string) error {
		visited[id] = true
		onStack[id] = true

		step, _ := t.stepByID(id)
		for _, next := range step.NextSteps {
			if onStack[next] {
				if step.LoopEdge {
					continue
				}
				return &CompilationError{Kind: KindCyclicDAG,
					Detail: fmt.Sprintf("unguarded cycle: step %q -> %q (mark the edge LoopEdge if it is an intentional discriminator-guarded loop)", id, next)}
			}
			if !visited[next] {
				if err := visit(next); err != nil {
					return err
				}
			}
		}

		onStack[id] = false
		return nil
	}

	for _, s := range t.Steps {
		if !visited[s.StepID] {
			if err := visit(s.StepID); err != nil {
				return err
			}
		}
	}
	return nil
}
