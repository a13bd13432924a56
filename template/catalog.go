package template

import (
	"fmt"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/sixlayer/ace/vocab"
)

// yamlTemplate mirrors EpisodeTemplate's shape for declarative authoring,
// grounded on orchestration/catalog.go's pattern of loading workflow
// definitions from YAML (SPEC_FULL.md §11's domain-stack table: yaml.v3
// wired here as the template authoring format).
type yamlTemplate struct {
	TemplateID  string `yaml:"template_id"`
	IntentClass string `yaml:"intent_class"`
	Constraints struct {
		MinTier            string   `yaml:"min_tier"`
		AllowedToolsStates []string `yaml:"allowed_tools_states"`
		WriteAllowed       bool     `yaml:"write_allowed"`
	} `yaml:"constraints"`
	Steps []struct {
		StepID     string            `yaml:"step_id"`
		OwnerLayer string            `yaml:"owner_layer"`
		FSMState   string            `yaml:"fsm_state"`
		PacketType string            `yaml:"packet_type"`
		NextSteps  []string          `yaml:"next_steps"`
		Bindings   map[string]string `yaml:"bindings"`
		LoopEdge   bool              `yaml:"loop_edge"`
	} `yaml:"steps"`
	EntryStep string   `yaml:"entry_step"`
	ExitSteps []string `yaml:"exit_steps"`
}

// Catalog holds a named set of EpisodeTemplates, loaded from YAML or
// registered programmatically (the canonical A/B/D/F templates are
// registered this way by NewCatalog).
type Catalog struct {
	mu        sync.RWMutex
	templates map[string]EpisodeTemplate
}

// NewCatalog returns a Catalog pre-populated with the canonical templates.
func NewCatalog() *Catalog {
	c := &Catalog{templates: make(map[string]EpisodeTemplate)}
	for _, t := range []EpisodeTemplate{TemplateA(), TemplateB(), TemplateD(), TemplateF()} {
		c.templates[t.TemplateID] = t
	}
	return c
}

// Get returns the template registered under id.
func (c *Catalog) Get(id string) (EpisodeTemplate, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	t, ok := c.templates[id]
	return t, ok
}

// Register adds or replaces a template.
func (c *Catalog) Register(t EpisodeTemplate) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.templates[t.TemplateID] = t
}

// LoadYAML parses one or more EpisodeTemplate definitions from data and
// registers each.
func (c *Catalog) LoadYAML(data []byte) error {
	var doc struct {
		Templates []yamlTemplate `yaml:"templates"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("template: parsing catalog YAML: %w", err)
	}
	for _, yt := range doc.Templates {
		t, err := fromYAML(yt)
		if err != nil {
			return err
		}
		c.Register(t)
	}
	return nil
}

func fromYAML(yt yamlTemplate) (EpisodeTemplate, error) {
	minTier, err := vocab.ParseQualityTier(yt.Constraints.MinTier)
	if err != nil {
		return EpisodeTemplate{}, fmt.Errorf("template %q: %w", yt.TemplateID, err)
	}

	var allowed []vocab.ToolsState
	for _, s := range yt.Constraints.AllowedToolsStates {
		ts := vocab.ToolsState(s)
		if !ts.Valid() {
			return EpisodeTemplate{}, fmt.Errorf("template %q: invalid tools_state %q", yt.TemplateID, s)
		}
		allowed = append(allowed, ts)
	}

	steps := make([]Step, 0, len(yt.Steps))
	for _, ys := range yt.Steps {
		pt := vocab.PacketType(ys.PacketType)
		if !pt.Valid() {
			return EpisodeTemplate{}, fmt.Errorf("template %q step %q: invalid packet_type %q", yt.TemplateID, ys.StepID, ys.PacketType)
		}
		owner := vocab.LayerSource(ys.OwnerLayer)
		if !owner.Valid() {
			return EpisodeTemplate{}, fmt.Errorf("template %q step %q: invalid owner_layer %q", yt.TemplateID, ys.StepID, ys.OwnerLayer)
		}
		fsmState := vocab.FSMState(ys.FSMState)
		if !fsmState.Valid() {
			return EpisodeTemplate{}, fmt.Errorf("template %q step %q: invalid fsm_state %q", yt.TemplateID, ys.StepID, ys.FSMState)
		}
		steps = append(steps, Step{
			StepID:     ys.StepID,
			OwnerLayer: owner,
			FSMState:   fsmState,
			PacketType: pt,
			NextSteps:  ys.NextSteps,
			Bindings:   ys.Bindings,
			LoopEdge:   ys.LoopEdge,
		})
	}

	return EpisodeTemplate{
		TemplateID:  yt.TemplateID,
		IntentClass: yt.IntentClass,
		Constraints: Constraints{MinTier: minTier, AllowedToolsStates: allowed, WriteAllowed: yt.Constraints.WriteAllowed},
		Steps:       steps,
		EntryStep:   yt.EntryStep,
		ExitSteps:   yt.ExitSteps,
	}, nil
}
