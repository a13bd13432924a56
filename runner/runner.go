// Package runner drives a single compiled episode through its step loop
// (spec.md §4.8): assemble input, invoke the owning layer, run each
// emitted packet through the three validation gates, apply it to the
// ledger, publish it on the northbound bus, advance the FSM, and choose
// the next step. Grounded on the pseudocode in spec.md §4.8 and on
// original_source/src/omen/orchestrator/runner.py's step-loop shape.
package runner

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/sixlayer/ace/apperr"
	"github.com/sixlayer/ace/bus"
	"github.com/sixlayer/ace/layer"
	"github.com/sixlayer/ace/ledger"
	"github.com/sixlayer/ace/packet"
	"github.com/sixlayer/ace/pkg/logger"
	"github.com/sixlayer/ace/template"
	"github.com/sixlayer/ace/tool"
	"github.com/sixlayer/ace/validate"
	"github.com/sixlayer/ace/vocab"
)

// StepEvent is emitted once per completed step, for observability hooks
// (e.g. persisting the episode, or UI progress).
type StepEvent struct {
	StepID    string
	State     vocab.FSMState
	Packets   []packet.Packet
	Rejected  bool
	Timestamp time.Time
}

// Result is the outcome of running one episode to completion (spec.md
// §6.3's EpisodeResult, minus the fields the orchestrator layer adds).
type Result struct {
	CorrelationID   uuid.UUID
	TemplateID      string
	Success         bool
	StepCount       int
	StepsCompleted  []string
	PacketsEmitted  []packet.Packet
	FinalState      vocab.FSMState
	BudgetConsumed  map[ledger.BudgetKind]float64
	Errors          []string
	StartedAt       time.Time
	CompletedAt     time.Time
}

func (r Result) DurationSeconds() float64 {
	return r.CompletedAt.Sub(r.StartedAt).Seconds()
}

// history is the runner's in-memory episode packet log, satisfying both
// validate.PacketLookup and validate.History.
type history struct {
	byID  map[string]packet.Packet
	order []packet.Packet
}

func newHistory() *history {
	return &history{byID: make(map[string]packet.Packet)}
}

func (h *history) record(p packet.Packet) {
	h.byID[p.Header.PacketID.String()] = p
	h.order = append(h.order, p)
}

func (h *history) Lookup(id string) (packet.Packet, bool) {
	p, ok := h.byID[id]
	return p, ok
}

func (h *history) Preceding(packetType vocab.PacketType, predicate func(packet.Packet) bool) bool {
	for _, p := range h.order {
		if p.Header.PacketType == packetType && predicate(p) {
			return true
		}
	}
	return false
}

// Runner executes one compiled episode at a time; it is not safe for
// concurrent use by multiple goroutines on the same instance (spec.md §5:
// "a single episode is single-threaded, cooperatively stepped") — run
// concurrent episodes via separate Runner instances, each with its own
// Ledger and bus subscription set.
type Runner struct {
	Pool       *layer.Pool
	Ledger     *ledger.Ledger
	Northbound *bus.Northbound
	Tools      *tool.Registry
	Whitelist  validate.EmissionWhitelist
	Logger     logger.Logger

	cancelled atomic.Bool
	mu        sync.Mutex
}

// New constructs a Runner. log may be nil, in which case a NoOpLogger is
// used (teacher's NoOpLogger fallback pattern, core/config.go-adjacent).
func New(pool *layer.Pool, led *ledger.Ledger, nb *bus.Northbound, tools *tool.Registry, whitelist validate.EmissionWhitelist, log logger.Logger) *Runner {
	if log == nil {
		log = &logger.NoOpLogger{}
	}
	return &Runner{Pool: pool, Ledger: led, Northbound: nb, Tools: tools, Whitelist: whitelist, Logger: log}
}

// Cancel sets the cancellation flag, checked between steps and before
// each LLM call (spec.md §5 "Cancellation").
func (r *Runner) Cancel() {
	r.cancelled.Store(true)
}

// Run drives ce to completion, invoking onStep (if non-nil) after every
// step.
func (r *Runner) Run(ctx context.Context, ce *template.CompiledEpisode, onStep func(StepEvent)) Result {
	startedAt := time.Now().UTC()
	hist := newHistory()

	state := vocab.StateIdle
	stepID := ce.EntryStep
	var stepsCompleted []string
	var allPackets []packet.Packet
	var errs []string
	success := true

	for stepID != "" && state != vocab.StateComplete && state != vocab.StateSafemode {
		if r.cancelled.Load() {
			r.recordCancellation(ctx, hist, &state)
			errs = append(errs, "episode cancelled externally")
			success = false
			break
		}

		step, ok := ce.Steps[stepID]
		if !ok {
			errs = append(errs, fmt.Sprintf("runner: step %q not found in compiled episode", stepID))
			success = false
			break
		}

		if isExitStep(ce, stepID) {
			// A declared exit_step is a terminal marker (spec.md §3.5
			// exit_steps[]): it ends the episode without emitting a
			// packet of its own — FSMTarget's fixed per-packet-type
			// mapping has no entry that targets COMPLETE directly, so
			// completion is the runner recognizing the graph's exit
			// rather than a validated transition.
			stepsCompleted = append(stepsCompleted, stepID)
			state = vocab.StateComplete
			if onStep != nil {
				onStep(StepEvent{StepID: stepID, State: state, Timestamp: time.Now().UTC()})
			}
			break
		}

		input := r.assembleInput(hist, step)

		if r.cancelled.Load() {
			r.recordCancellation(ctx, hist, &state)
			errs = append(errs, "episode cancelled externally")
			success = false
			break
		}

		output, err := r.Pool.Invoke(ctx, step.OwnerLayer, input, step.PacketType)
		if err != nil {
			errs = append(errs, err.Error())
			r.rejectAndSafemode(hist, apperr.ErrExternalFailure, "layer invocation failed: "+err.Error(), nil)
			state = vocab.StateSafemode
			break
		}

		rejected := false
		var decisionOutcome vocab.DecisionOutcome
		if len(output.Packets) == 0 {
			// An unparseable reply, or one holding no packet of the step's
			// type, counts as a schema violation.
			r.rejectAndSafemode(hist, apperr.ErrSchemaInvalid,
				fmt.Sprintf("layer %s reply yielded no %s packet", step.OwnerLayer, step.PacketType), nil)
			rejected = true
			state = vocab.StateSafemode
		}
		for i := range output.Packets {
			p := &output.Packets[i]
			applyStepDefaults(p, step, ce.Context)

			gate1 := validate.Schema(*p, hist)
			if !gate1.OK {
				r.rejectAndSafemode(hist, apperr.ErrSchemaInvalid, joinErrs(gate1.Errors), &p.Header.PacketID)
				rejected = true
				state = vocab.StateSafemode
				break
			}

			gate2, target := validate.FSM(state, *p)
			if !gate2.OK {
				r.rejectAndSafemode(hist, apperr.ErrIllegalTransition, joinErrs(gate2.Errors), &p.Header.PacketID)
				rejected = true
				state = vocab.StateSafemode
				break
			}

			gate3 := validate.Invariant(*p, r.Ledger, hist, r.Whitelist)
			if !gate3.OK {
				r.rejectAndSafemode(hist, apperr.ErrInvariantViolation, joinErrs(gate3.Errors), &p.Header.PacketID)
				rejected = true
				state = vocab.StateSafemode
				break
			}

			if err := r.applyToLedger(*p); err != nil {
				r.rejectAndSafemode(hist, apperr.ErrBudgetExhausted, err.Error(), &p.Header.PacketID)
				rejected = true
				state = vocab.StateSafemode
				break
			}

			r.Northbound.Publish(*p, nil)
			hist.record(*p)
			allPackets = append(allPackets, *p)
			state = target

			if dp, ok := p.Payload.(packet.DecisionPayload); ok {
				decisionOutcome = dp.Outcome
			}
		}

		stepsCompleted = append(stepsCompleted, stepID)
		if onStep != nil {
			onStep(StepEvent{StepID: stepID, State: state, Packets: output.Packets, Rejected: rejected, Timestamp: time.Now().UTC()})
		}

		if rejected {
			success = false
			break
		}

		next, err := chooseNext(step, decisionOutcome)
		if err != nil {
			errs = append(errs, err.Error())
			success = false
			break
		}
		stepID = next
	}

	if state != vocab.StateComplete && state != vocab.StateSafemode && stepID == "" {
		// Ran out of next_steps without reaching an exit/SAFEMODE state:
		// template_inconsistency (spec.md §4.8 "choose_next... If no edge
		// matches, the runner terminates with template_inconsistency").
		errs = append(errs, apperr.ErrTemplateInconsistency.Error())
		success = false
	}
	if state == vocab.StateSafemode {
		success = false
	}

	return Result{
		CorrelationID:  ce.CorrelationID,
		TemplateID:     ce.TemplateID,
		Success:        success,
		StepCount:      len(stepsCompleted),
		StepsCompleted: stepsCompleted,
		PacketsEmitted: allPackets,
		FinalState:     state,
		BudgetConsumed: r.Ledger.Snapshot().Budgets.Consumed,
		Errors:         errs,
		StartedAt:      startedAt,
		CompletedAt:    time.Now().UTC(),
	}
}

func (r *Runner) assembleInput(hist *history, step template.CompiledStep) layer.Input {
	recent := hist.order
	if len(recent) > 20 {
		recent = recent[len(recent)-20:]
	}
	promptContext := make(map[string]interface{}, len(step.ResolvedBindings))
	for k, v := range step.ResolvedBindings {
		promptContext[k] = v
	}
	return layer.Input{
		RecentPackets:  append([]packet.Packet(nil), recent...),
		LedgerSnapshot: r.Ledger.Snapshot(),
		ToolsState:     vocab.ToolsOK,
		PromptContext:  promptContext,
	}
}

// applyStepDefaults fills in zero-valued MCP fields (stakes, quality tier,
// budgets, tools state) of the emitted packet from the compilation
// context, per spec.md §4.8 "apply step.mcp_defaults as fallbacks on
// missing MCP fields". The step's resolved bindings are not consulted.
func applyStepDefaults(p *packet.Packet, step template.CompiledStep, ctx template.CompilationContext) {
	if p.MCP.Stakes.StakesLevel == 0 && ctx.StakesLevel != 0 {
		p.MCP.Stakes.Impact = ctx.StakesLevel
		p.MCP.Stakes.Irreversibility = ctx.StakesLevel
		p.MCP.Stakes.Uncertainty = ctx.StakesLevel
		p.MCP.Stakes.Adversariality = ctx.StakesLevel
		p.MCP.Stakes.StakesLevel = ctx.StakesLevel
	}
	if p.MCP.Quality.QualityTier == 0 && ctx.QualityTier != 0 {
		p.MCP.Quality.QualityTier = ctx.QualityTier
	}
	if p.MCP.Budgets.TokenBudget == 0 {
		p.MCP.Budgets.TokenBudget = ctx.TokenBudget
	}
	if p.MCP.Budgets.ToolCallBudget == 0 {
		p.MCP.Budgets.ToolCallBudget = ctx.ToolCallBudget
	}
	if p.MCP.Budgets.TimeBudgetSeconds == 0 {
		p.MCP.Budgets.TimeBudgetSeconds = ctx.TimeBudgetSeconds
	}
	if p.MCP.Routing.ToolsState == "" {
		p.MCP.Routing.ToolsState = ctx.ToolsState
	}
}

// applyToLedger charges/mutates the ledger per packet payload type (spec.md
// §4.8 "ledger.apply"): TaskDirective opens a directive and (if WRITE/MIXED)
// expects a prior ToolAuthorizationToken; TaskResult closes it and charges
// consumed budgets; ToolAuthorizationToken issues a token.
func (r *Runner) applyToLedger(p packet.Packet) error {
	switch payload := p.Payload.(type) {
	case packet.TaskDirectivePayload:
		return r.Ledger.OpenDirectiveFor(payload.TaskID, p.Header.PacketID, time.Duration(payload.TimeoutSeconds)*time.Second)
	case packet.TaskResultPayload:
		if err := r.Ledger.CloseDirective(payload.TaskID); err != nil {
			return err
		}
		if payload.TokensConsumed > 0 {
			if err := r.Ledger.Consume(ledger.BudgetTokens, float64(payload.TokensConsumed)); err != nil {
				return err
			}
		}
		if payload.ToolCallsConsumed > 0 {
			if err := r.Ledger.Consume(ledger.BudgetToolCall, float64(payload.ToolCallsConsumed)); err != nil {
				return err
			}
		}
	case packet.ToolAuthorizationPayload:
		r.Ledger.IssueToken(payload.Scope, payload.ExpiresAt, payload.MaxUses, string(p.Header.LayerSource))
	case packet.EscalationPayload:
		if payload.Approved {
			r.Ledger.ApproveOverrun()
		}
	}
	return nil
}

// rejectAndSafemode synthesizes a local IntegrityAlert (spec.md §4.8
// "handle_rejection"), pushes it through gate 1 only, and publishes it
// northbound.
func (r *Runner) rejectAndSafemode(hist *history, kind error, detail string, rejectedPacketID *uuid.UUID) {
	severity := vocab.SeverityHigh
	if kind == apperr.ErrInvariantViolation {
		severity = vocab.SeverityCritical
	}
	alert := synthesizeAlert(severity, kind.Error(), detail, rejectedPacketID)
	if gate1 := validate.Schema(alert, hist); gate1.OK {
		r.Northbound.Publish(alert, nil)
		hist.record(alert)
	}
	r.Logger.Error("episode rejected", "kind", kind.Error(), "detail", detail)
}

func (r *Runner) recordCancellation(_ context.Context, hist *history, state *vocab.FSMState) {
	alert := synthesizeAlert(vocab.SeverityMedium, "external_cancel", "episode cancelled via Cancel()", nil)
	r.Northbound.Publish(alert, nil)
	hist.record(alert)
	*state = vocab.StateSafemode
}

func synthesizeAlert(severity vocab.Severity, violationKind, detail string, rejectedPacketID *uuid.UUID) packet.Packet {
	h := packet.NewHeader(vocab.PacketIntegrityAlert, vocab.Integrity, uuid.New())
	return packet.Packet{
		Header: h,
		MCP: packet.MCP{
			Quality:    packet.Quality{VerificationRequirement: vocab.VerificationOptional},
			Epistemics: packet.Epistemics{Status: vocab.EpistemicDerived, FreshnessClass: vocab.FreshnessOperational},
			Routing:    packet.Routing{ToolsState: vocab.ToolsOK},
		},
		Payload: packet.IntegrityAlertPayload{
			Severity:         severity,
			ViolationKind:    violationKind,
			Detail:           detail,
			RejectedPacketID: rejectedPacketID,
		},
	}
}

// chooseNext selects step's next step, keyed by the emitted Decision's
// outcome when step has multiple next_steps (spec.md §4.8 "choose_next").
func chooseNext(step template.CompiledStep, outcome vocab.DecisionOutcome) (string, error) {
	if len(step.NextSteps) == 0 {
		return "", nil
	}
	if len(step.NextSteps) == 1 {
		return step.NextSteps[0], nil
	}
	// Multiple edges: the edge is read from the step binding keyed
	// "next:<outcome>" (resolved at compile time); the order of
	// next_steps is not consulted.
	key := fmt.Sprintf("next:%s", outcome)
	if target, ok := step.ResolvedBindings[key]; ok {
		return target, nil
	}
	return "", fmt.Errorf("runner: step %q has multiple next_steps but no edge matches outcome %q: %w",
		step.StepID, outcome, apperr.ErrTemplateInconsistency)
}

func isExitStep(ce *template.CompiledEpisode, stepID string) bool {
	for _, exit := range ce.ExitSteps {
		if exit == stepID {
			return true
		}
	}
	return false
}

func joinErrs(errs []string) string {
	out := ""
	for i, e := range errs {
		if i > 0 {
			out += "; "
		}
		out += e
	}
	return out
}
