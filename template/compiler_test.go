package template_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sixlayer/ace/template"
	"github.com/sixlayer/ace/vocab"
)

func baseContext() template.CompilationContext {
	return template.CompilationContext{
		StakesLevel:       vocab.StakesLow,
		QualityTier:       vocab.QualityPar,
		TokenBudget:       1000,
		ToolCallBudget:    5,
		TimeBudgetSeconds: 60,
		ToolsState:        vocab.ToolsOK,
		FreshnessClass:    vocab.FreshnessOperational,
	}
}

func TestCompile_TemplateA_Succeeds(t *testing.T) {
	ce, err := template.Compile(template.TemplateA(), baseContext())
	require.NoError(t, err)
	assert.Equal(t, "perceive", ce.EntryStep)
	assert.Len(t, ce.Steps, 6)
}

func TestCompile_Idempotent_SameShapeDifferentCorrelationID(t *testing.T) {
	ce1, err := template.Compile(template.TemplateA(), baseContext())
	require.NoError(t, err)
	ce2, err := template.Compile(template.TemplateA(), baseContext())
	require.NoError(t, err)

	assert.NotEqual(t, ce1.CorrelationID, ce2.CorrelationID)
	assert.Equal(t, len(ce1.Steps), len(ce2.Steps))
	assert.Equal(t, ce1.EntryStep, ce2.EntryStep)
}

func TestCompile_RejectsToolsDownAgainstToolsOKRequirement(t *testing.T) {
	ctx := baseContext()
	ctx.ToolsState = vocab.ToolsDown
	_, err := template.Compile(template.TemplateA(), ctx)
	require.Error(t, err)
	var cErr *template.CompilationError
	require.ErrorAs(t, err, &cErr)
	assert.Equal(t, template.KindConstraintViolation, cErr.Kind)
}

func TestCompile_RejectsBelowMinTier(t *testing.T) {
	tmpl := template.TemplateA()
	tmpl.Constraints.MinTier = vocab.QualitySuperb
	ctx := baseContext()
	ctx.QualityTier = vocab.QualityPar
	_, err := template.Compile(tmpl, ctx)
	require.Error(t, err)
}

func TestCompile_RejectsUnguardedCycle(t *testing.T) {
	tmpl := template.TemplateA()
	// Turn decide->execute->decide into an unguarded back-edge.
	for i, s := range tmpl.Steps {
		if s.StepID == "execute" {
			tmpl.Steps[i].NextSteps = []string{"decide"}
		}
	}
	_, err := template.Compile(tmpl, baseContext())
	require.Error(t, err)
	var cErr *template.CompilationError
	require.ErrorAs(t, err, &cErr)
	assert.Equal(t, template.KindCyclicDAG, cErr.Kind)
}

func TestCompile_AllowsLoopEdgeCycle(t *testing.T) {
	_, err := template.Compile(template.TemplateB(), baseContext())
	require.NoError(t, err)
}

func TestCompile_RejectsDanglingStep(t *testing.T) {
	tmpl := template.TemplateA()
	tmpl.EntryStep = "does-not-exist"
	_, err := template.Compile(tmpl, baseContext())
	require.Error(t, err)
	var cErr *template.CompilationError
	require.ErrorAs(t, err, &cErr)
	assert.Equal(t, template.KindDanglingStep, cErr.Kind)
}

func TestCompile_ResolvesKnownBindings(t *testing.T) {
	tmpl := template.TemplateA()
	for i, s := range tmpl.Steps {
		if s.StepID == "decide" {
			tmpl.Steps[i].Bindings = map[string]string{"summary": "stakes=${stakes_level}"}
		}
	}
	ctx := baseContext()
	ce, err := template.Compile(tmpl, ctx)
	require.NoError(t, err)
	assert.Equal(t, "stakes=LOW", ce.Steps["decide"].ResolvedBindings["summary"])
}

func TestCompile_RejectsUnknownBinding(t *testing.T) {
	tmpl := template.TemplateA()
	for i, s := range tmpl.Steps {
		if s.StepID == "decide" {
			tmpl.Steps[i].Bindings = map[string]string{"summary": "${bogus_symbol}"}
		}
	}
	_, err := template.Compile(tmpl, baseContext())
	require.Error(t, err)
	var cErr *template.CompilationError
	require.ErrorAs(t, err, &cErr)
	assert.Equal(t, template.KindUnknownBinding, cErr.Kind)
}

func TestCatalog_LoadYAML(t *testing.T) {
	cat := template.NewCatalog()
	data := []byte(`
templates:
  - template_id: Z-custom
    intent_class: lookup
    constraints:
      min_tier: PAR
      allowed_tools_states: [TOOLS_OK]
      write_allowed: false
    entry_step: perceive
    exit_steps: [complete]
    steps:
      - step_id: perceive
        owner_layer: "6"
        fsm_state: PERCEIVE
        packet_type: Observation
        next_steps: [complete]
      - step_id: complete
        owner_layer: "4"
        fsm_state: COMPLETE
        packet_type: TaskResult
`)
	require.NoError(t, cat.LoadYAML(data))
	tmpl, ok := cat.Get("Z-custom")
	require.True(t, ok)
	assert.Equal(t, "perceive", tmpl.EntryStep)
}
