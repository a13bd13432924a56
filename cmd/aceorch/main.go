// Command aceorch wires up an orchestrator against the canonical template
// catalog and runs one episode to completion, printing the result.
// Grounded on core/cmd/example/main.go's shape: construct the pieces by
// hand, initialize, run, report.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/sixlayer/ace/config"
	"github.com/sixlayer/ace/layer"
	"github.com/sixlayer/ace/llmclient"
	"github.com/sixlayer/ace/orchestrator"
	"github.com/sixlayer/ace/pkg/logger"
	"github.com/sixlayer/ace/resilience"
	"github.com/sixlayer/ace/template"
	"github.com/sixlayer/ace/tool"
	"github.com/sixlayer/ace/vocab"
)

func main() {
	log_ := logger.NewDefaultLogger()

	cfg, err := config.New(
		config.WithDefaultStakesFloor(vocab.StakesLow),
		config.WithDefaultQualityFloor(vocab.QualityPar),
	)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	// No real provider is wired in this example; swap llmInner for an
	// actual provider client satisfying llmclient.Client to talk to a real
	// model. Retrying still applies backoff and circuit-breaking around it.
	llmInner := llmclient.NewMock(demoReply())
	breaker := resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
		Name:             "aceorch-llm",
		FailureThreshold: cfg.Resilience.CircuitThreshold,
		ResetTimeout:     cfg.Resilience.CircuitResetTimeout,
		HalfOpenMaxCalls: 1,
		Logger:           log_,
	})
	llm := llmclient.NewRetrying(llmInner, &resilience.RetryConfig{
		MaxAttempts:   cfg.Resilience.MaxAttempts,
		InitialDelay:  cfg.Resilience.InitialInterval,
		MaxDelay:      cfg.Resilience.MaxInterval,
		BackoffFactor: 2.0,
		JitterEnabled: true,
	}, breaker)

	tools := tool.NewRegistry()
	tools.Register(&tool.Clock{})
	tools.Register(&tool.FileRead{})
	tools.Register(&tool.FileWrite{})

	catalog := template.NewCatalog()

	orch, err := orchestrator.New(catalog, llm, tools, layer.DefaultContract(), cfg, log_)
	if err != nil {
		log.Fatalf("orchestrator: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	result, err := orch.RunTemplate(ctx, "A-grounding-loop", orchestrator.RunOptions{
		StakesLevel: vocab.StakesLow,
		QualityTier: vocab.QualityPar,
	})
	if err != nil {
		log.Fatalf("run_template: %v", err)
	}

	out, _ := json.MarshalIndent(result, "", "  ")
	fmt.Println(string(out))
}

// demoReply is a placeholder single-shot reply; a real run scripts one
// reply per step or points llmInner at a live provider instead.
func demoReply() string {
	return "```json\n{}\n```"
}
