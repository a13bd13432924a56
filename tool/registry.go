package tool

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sixlayer/ace/ledger"
	"github.com/sixlayer/ace/vocab"
)

// UnauthorizedToolError is returned when a WRITE/MIXED tool is invoked
// without a valid authorization token, or the token's scope doesn't
// cover the tool (spec.md §4.3 gate 3 rule 5).
type UnauthorizedToolError struct {
	ToolName string
	Reason   string
}

func (e *UnauthorizedToolError) Error() string {
	return fmt.Sprintf("tool: %q unauthorized: %s", e.ToolName, e.Reason)
}

// NotFoundError is returned when the requested tool isn't registered.
type NotFoundError struct {
	ToolName string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("tool: not found: %q", e.ToolName)
}

// Registry holds the tools available to a running episode and gates
// execution of WRITE/MIXED tools on a valid ledger-issued token.
// Grounded on original_source/src/omen/tools/registry.py's ToolRegistry.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]Tool
}

// NewRegistry constructs an empty tool registry.
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]Tool)}
}

// Register adds t, replacing any existing tool of the same name.
func (r *Registry) Register(t Tool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tools[t.Name()] = t
}

// Unregister removes and returns the tool named name, if present.
func (r *Registry) Unregister(name string) (Tool, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tools[name]
	if ok {
		delete(r.tools, name)
	}
	return t, ok
}

// Get returns the tool named name, if registered.
func (r *Registry) Get(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tools[name]
	return t, ok
}

// List returns every registered tool.
func (r *Registry) List() []Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Tool, 0, len(r.tools))
	for _, t := range r.tools {
		out = append(out, t)
	}
	return out
}

// Descriptions formats the registered tools for LLM prompt context, one
// line per tool, non-READ tools annotated with their safety class.
func (r *Registry) Descriptions() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var b strings.Builder
	b.WriteString("Available tools:\n")
	for _, t := range r.tools {
		note := ""
		if t.Safety() != vocab.ToolSafetyRead {
			note = fmt.Sprintf(" [%s]", t.Safety())
		}
		fmt.Fprintf(&b, "  - %s%s: %s\n", t.Name(), note, t.Description())
	}
	return b.String()
}

// Execute runs toolName with params, checking ledger-backed authorization
// for non-READ tools: tokenID must name a currently-valid token in led
// whose scope matches toolName (exact match or dotted-prefix match, e.g.
// scope "fs.write" authorizes tool "fs.write.append"), and one use is
// consumed from it. READ tools require no token.
func (r *Registry) Execute(ctx context.Context, toolName string, params map[string]interface{}, tokenID *uuid.UUID, led *ledger.Ledger) (Result, error) {
	t, ok := r.Get(toolName)
	if !ok {
		return Result{}, &NotFoundError{ToolName: toolName}
	}

	if t.Safety() != vocab.ToolSafetyRead {
		if tokenID == nil {
			return Result{}, &UnauthorizedToolError{ToolName: toolName, Reason: "no authorization token provided"}
		}
		tok, valid := led.TokenValid(*tokenID)
		if !valid {
			return Result{}, &UnauthorizedToolError{ToolName: toolName, Reason: "token invalid, expired, revoked, or exhausted"}
		}
		if !scopeCovers(tok.Scope, toolName) {
			return Result{}, &UnauthorizedToolError{ToolName: toolName, Reason: fmt.Sprintf("token scope %q does not cover tool %q", tok.Scope, toolName)}
		}
		if res := led.UseToken(*tokenID); res != ledger.TokenUseOK {
			return Result{}, &UnauthorizedToolError{ToolName: toolName, Reason: fmt.Sprintf("token use rejected: %s", res)}
		}
	}

	start := time.Now()
	result, err := t.Execute(ctx, params)
	result.ExecutionTime = time.Since(start)
	if err != nil {
		return Fail(err.Error()), nil
	}
	return result, nil
}

func scopeCovers(scope, toolName string) bool {
	if scope == toolName {
		return true
	}
	return strings.HasPrefix(toolName, scope+".")
}
