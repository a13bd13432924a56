// Package tool defines the L6 vat-boundary interface: the mechanism by
// which task prosecution touches external reality. Every observation
// entering the system should trace back to a tool execution.
//
// Grounded on original_source/src/omen/tools/base.py, re-expressed as a
// Go interface plus a registry in the style of the teacher's
// core/tool.go naming (Tool, Execute, Registry) — the teacher's own
// BaseTool is an HTTP-server-facing component (capability discovery,
// JSON schema endpoints) that doesn't fit an in-process vat boundary,
// so this package is authored fresh rather than adapted from it.
package tool

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/sixlayer/ace/vocab"
)

// EvidenceRef links a tool's output back to its grounding in reality,
// referenced from an ObservationPayload or BeliefUpdatePayload.
type EvidenceRef struct {
	RefID            string    `json:"ref_id"`
	RefType          string    `json:"ref_type"`
	ToolName         string    `json:"tool_name"`
	Timestamp        time.Time `json:"timestamp"`
	ReliabilityScore float64   `json:"reliability_score"`
	RawData          interface{} `json:"raw_data,omitempty"`
}

func newEvidenceRef(toolName string, rawData interface{}) EvidenceRef {
	return EvidenceRef{
		RefID:            "ev_" + uuid.New().String()[:12],
		RefType:          "tool_output",
		ToolName:         toolName,
		Timestamp:        time.Now().UTC(),
		ReliabilityScore: 0.95,
		RawData:          rawData,
	}
}

// Result is the outcome of a tool execution.
type Result struct {
	Success        bool
	Data           interface{}
	Error          string
	EvidenceRef    *EvidenceRef
	ExecutionTime  time.Duration
}

// OK builds a successful result carrying an evidence reference.
func OK(data interface{}, toolName string, rawData interface{}) Result {
	if rawData == nil {
		rawData = data
	}
	ref := newEvidenceRef(toolName, rawData)
	return Result{Success: true, Data: data, EvidenceRef: &ref}
}

// Fail builds a failed result.
func Fail(err string) Result {
	return Result{Success: false, Error: err}
}

// Tool is the executable unit L6 dispatches TaskDirectivePayloads to.
type Tool interface {
	Name() string
	Description() string
	Safety() vocab.ToolSafety
	Execute(ctx context.Context, params map[string]interface{}) (Result, error)
}

// BaseTool supplies the READ default safety classification; concrete
// tools embed it and override Safety() when they have side effects.
type BaseTool struct{}

// Safety defaults every tool to READ unless a concrete tool overrides it.
func (BaseTool) Safety() vocab.ToolSafety { return vocab.ToolSafetyRead }
