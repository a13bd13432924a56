// Package llmclient defines the LLM completion contract consumed by the
// layer pool (spec.md §6.1), grounded on ai/client.go's OpenAIClient
// shape but trimmed to a single Complete method — this repo has no need
// for ai.Client's broader embedding/streaming surface since layers only
// ever do one-shot structured completions.
package llmclient

import "context"

// UsageCallback reports token usage after a completion so a caller can
// charge the episode's token budget (spec.md §6.1: "expose token-usage
// telemetry via a callback"). layer.Pool.Invoke does not set it.
type UsageCallback func(promptTokens, completionTokens, totalTokens int)

// Options configures a single Complete call.
type Options struct {
	Model       string
	Temperature float32
	MaxTokens   int
	OnUsage     UsageCallback
}

// Client is the LLM completion contract.
type Client interface {
	Complete(ctx context.Context, systemPrompt, userMessage string, opts Options) (string, error)
}
