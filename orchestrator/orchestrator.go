// Package orchestrator exposes the top-level API of spec.md §6.3:
// RunTemplate, GetEpisode, ListEpisodes, Cancel. It owns the episode
// store and, for each run, wires a fresh Ledger and Runner so concurrent
// episodes never share mutable state (spec.md §5: "provided each owns a
// disjoint ledger and a disjoint episode-scoped bus subscription set").
package orchestrator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sixlayer/ace/bus"
	"github.com/sixlayer/ace/config"
	"github.com/sixlayer/ace/layer"
	"github.com/sixlayer/ace/ledger"
	"github.com/sixlayer/ace/llmclient"
	"github.com/sixlayer/ace/pkg/logger"
	"github.com/sixlayer/ace/runner"
	"github.com/sixlayer/ace/template"
	"github.com/sixlayer/ace/tool"
	"github.com/sixlayer/ace/validate"
	"github.com/sixlayer/ace/vocab"
)

// EpisodeRecord is the stored, queryable record of one run (spec.md §6.3
// get_episode/list_episodes).
type EpisodeRecord struct {
	CorrelationID uuid.UUID
	TemplateID    string
	Result        runner.Result
	StepEvents    []runner.StepEvent
}

// RunOptions parameterizes run_template; zero values fall back to the
// Orchestrator's configured defaults.
type RunOptions struct {
	StakesLevel       vocab.StakesLevel
	QualityTier       vocab.QualityTier
	TokenBudget       int
	ToolCallBudget    int
	TimeBudgetSeconds int
	CampaignID        *uuid.UUID
}

// Orchestrator wires the catalog, LLM client, tool registry, and emission
// whitelist into runnable episodes, and tracks every episode it has run.
type Orchestrator struct {
	catalog   *template.Catalog
	client    llmclient.Client
	tools     *tool.Registry
	whitelist validate.EmissionWhitelist
	cfg       *config.OrchestratorConfig
	log       logger.Logger

	mu        sync.RWMutex
	episodes  map[uuid.UUID]*EpisodeRecord
	runners   map[uuid.UUID]*runner.Runner
}

// New constructs an Orchestrator. cfg/log may be nil to take defaults.
func New(catalog *template.Catalog, client llmclient.Client, tools *tool.Registry, whitelist validate.EmissionWhitelist, cfg *config.OrchestratorConfig, log logger.Logger) (*Orchestrator, error) {
	if cfg == nil {
		var err error
		cfg, err = config.New()
		if err != nil {
			return nil, fmt.Errorf("orchestrator: default config: %w", err)
		}
	}
	if log == nil {
		log = &logger.NoOpLogger{}
	}
	return &Orchestrator{
		catalog:   catalog,
		client:    client,
		tools:     tools,
		whitelist: whitelist,
		cfg:       cfg,
		log:       log,
		episodes:  make(map[uuid.UUID]*EpisodeRecord),
		runners:   make(map[uuid.UUID]*runner.Runner),
	}, nil
}

// RunTemplate compiles templateID against opts and drives it to
// completion, recording the result for later retrieval.
func (o *Orchestrator) RunTemplate(ctx context.Context, templateID string, opts RunOptions) (runner.Result, error) {
	tmpl, ok := o.catalog.Get(templateID)
	if !ok {
		return runner.Result{}, fmt.Errorf("orchestrator: unknown template_id %q", templateID)
	}

	cctx := o.resolveContext(opts)
	ce, err := template.Compile(tmpl, cctx)
	if err != nil {
		return runner.Result{}, err
	}

	led := ledger.New()
	led.Allocate(map[ledger.BudgetKind]float64{
		ledger.BudgetTokens:   float64(cctx.TokenBudget),
		ledger.BudgetToolCall: float64(cctx.ToolCallBudget),
		ledger.BudgetWallTime: float64(cctx.TimeBudgetSeconds),
	})

	pool := layer.NewPool(o.client)
	nb := bus.NewNorthbound()
	r := runner.New(pool, led, nb, o.tools, o.whitelist, o.log)

	o.mu.Lock()
	o.runners[ce.CorrelationID] = r
	o.mu.Unlock()

	var events []runner.StepEvent
	deadline := time.Duration(cctx.TimeBudgetSeconds) * time.Second
	runCtx := ctx
	var cancel context.CancelFunc
	if deadline > 0 {
		runCtx, cancel = context.WithTimeout(ctx, deadline)
		defer cancel()
	}

	result := r.Run(runCtx, ce, func(e runner.StepEvent) { events = append(events, e) })

	o.mu.Lock()
	o.episodes[ce.CorrelationID] = &EpisodeRecord{
		CorrelationID: ce.CorrelationID,
		TemplateID:    templateID,
		Result:        result,
		StepEvents:    events,
	}
	delete(o.runners, ce.CorrelationID)
	o.mu.Unlock()

	return result, nil
}

func (o *Orchestrator) resolveContext(opts RunOptions) template.CompilationContext {
	cctx := template.CompilationContext{
		StakesLevel:       opts.StakesLevel,
		QualityTier:       opts.QualityTier,
		TokenBudget:       opts.TokenBudget,
		ToolCallBudget:    opts.ToolCallBudget,
		TimeBudgetSeconds: opts.TimeBudgetSeconds,
		ToolsState:        vocab.ToolsOK,
		FreshnessClass:    vocab.FreshnessOperational,
		CampaignID:        opts.CampaignID,
	}
	if cctx.TokenBudget == 0 {
		cctx.TokenBudget = o.cfg.DefaultTokenBudget
	}
	if cctx.ToolCallBudget == 0 {
		cctx.ToolCallBudget = o.cfg.DefaultToolCallBudget
	}
	if cctx.TimeBudgetSeconds == 0 {
		cctx.TimeBudgetSeconds = o.cfg.DefaultTimeBudgetSeconds
	}
	if cctx.StakesLevel == 0 {
		cctx.StakesLevel = o.cfg.DefaultStakesFloor
	}
	if cctx.QualityTier == 0 {
		cctx.QualityTier = o.cfg.DefaultQualityFloor
	}
	return cctx
}

// GetEpisode returns the stored record for correlationID, if any.
func (o *Orchestrator) GetEpisode(correlationID uuid.UUID) (*EpisodeRecord, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	rec, ok := o.episodes[correlationID]
	return rec, ok
}

// ListEpisodes returns stored records, optionally filtered by templateID,
// most-recently-completed first, capped at limit (0 means unlimited).
func (o *Orchestrator) ListEpisodes(templateID string, limit int) []*EpisodeRecord {
	o.mu.RLock()
	defer o.mu.RUnlock()

	var out []*EpisodeRecord
	for _, rec := range o.episodes {
		if templateID != "" && rec.TemplateID != templateID {
			continue
		}
		out = append(out, rec)
	}
	sortByCompletedDesc(out)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func sortByCompletedDesc(recs []*EpisodeRecord) {
	for i := 1; i < len(recs); i++ {
		for j := i; j > 0 && recs[j-1].Result.CompletedAt.Before(recs[j].Result.CompletedAt); j-- {
			recs[j-1], recs[j] = recs[j], recs[j-1]
		}
	}
}

// Cancel signals the in-flight runner for correlationID to stop at its
// next check point (spec.md §5 "Cancellation"). Returns an error if no
// running episode matches correlationID.
func (o *Orchestrator) Cancel(correlationID uuid.UUID) error {
	o.mu.RLock()
	r, ok := o.runners[correlationID]
	o.mu.RUnlock()
	if !ok {
		return fmt.Errorf("orchestrator: no in-flight episode for correlation_id %s", correlationID)
	}
	r.Cancel()
	return nil
}
