package llmclient

import (
	"context"
	"fmt"
	"sync"
)

// Mock is a scripted test double for Client, analogous to the teacher's
// ai/providers/mock fake — not a mocking-framework generated stub, a
// hand-rolled one, matching the teacher's own test style.
type Mock struct {
	mu      sync.Mutex
	replies []string
	calls   []Call
	err     error
}

// Call records one Complete invocation for test assertions.
type Call struct {
	SystemPrompt string
	UserMessage  string
	Options      Options
}

// NewMock returns a Mock that yields replies in order, one per call;
// calling Complete more times than there are replies repeats the last one.
func NewMock(replies ...string) *Mock {
	return &Mock{replies: replies}
}

// WithError makes every subsequent Complete call fail with err.
func (m *Mock) WithError(err error) *Mock {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
	return m
}

func (m *Mock) Complete(ctx context.Context, systemPrompt, userMessage string, opts Options) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls = append(m.calls, Call{SystemPrompt: systemPrompt, UserMessage: userMessage, Options: opts})

	if m.err != nil {
		return "", m.err
	}
	if len(m.replies) == 0 {
		return "", fmt.Errorf("llmclient: mock has no scripted replies")
	}

	idx := len(m.calls) - 1
	if idx >= len(m.replies) {
		idx = len(m.replies) - 1
	}
	reply := m.replies[idx]

	if opts.OnUsage != nil {
		promptTokens := len(systemPrompt)/4 + len(userMessage)/4
		completionTokens := len(reply) / 4
		opts.OnUsage(promptTokens, completionTokens, promptTokens+completionTokens)
	}

	return reply, nil
}

// Calls returns every recorded Complete invocation, for test assertions.
func (m *Mock) Calls() []Call {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Call, len(m.calls))
	copy(out, m.calls)
	return out
}
