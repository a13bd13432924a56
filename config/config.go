// Package config holds the orchestrator's tunables: default episode
// budgets, default stakes/quality floors, LLM-call resilience tuning, and
// log level. Grounded on core/config.go's three-layer priority (defaults <
// environment variables < functional options), trimmed of the HTTP,
// Kubernetes, CORS, and discovery fields that don't apply to this domain.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/sixlayer/ace/vocab"
)

// ResilienceConfig tunes the retry/circuit-breaker wrapper around the LLM
// client (llmclient.Retrying).
type ResilienceConfig struct {
	MaxAttempts         int           `json:"max_attempts" env:"ACE_RETRY_MAX_ATTEMPTS" default:"3"`
	InitialInterval     time.Duration `json:"initial_interval" env:"ACE_RETRY_INITIAL_INTERVAL" default:"500ms"`
	MaxInterval         time.Duration `json:"max_interval" env:"ACE_RETRY_MAX_INTERVAL" default:"10s"`
	CircuitThreshold    int           `json:"circuit_threshold" env:"ACE_CIRCUIT_THRESHOLD" default:"5"`
	CircuitResetTimeout time.Duration `json:"circuit_reset_timeout" env:"ACE_CIRCUIT_RESET_TIMEOUT" default:"30s"`
}

// OrchestratorConfig is the top-level configuration for a running
// orchestrator instance.
type OrchestratorConfig struct {
	DefaultTokenBudget       int                        `json:"default_token_budget" env:"ACE_DEFAULT_TOKEN_BUDGET" default:"4000"`
	DefaultToolCallBudget    int                        `json:"default_tool_call_budget" env:"ACE_DEFAULT_TOOL_CALL_BUDGET" default:"10"`
	DefaultTimeBudgetSeconds int                        `json:"default_time_budget_seconds" env:"ACE_DEFAULT_TIME_BUDGET_SECONDS" default:"120"`
	DefaultStakesFloor       vocab.StakesLevel          `json:"default_stakes_floor"`
	DefaultQualityFloor      vocab.QualityTier          `json:"default_quality_floor"`
	LogLevel                 string                    `json:"log_level" env:"ACE_LOG_LEVEL" default:"info"`
	Resilience                ResilienceConfig          `json:"resilience"`
}

// Option mutates a Config during construction, applied after environment
// variables so explicit code always wins (core/config.go's priority order).
type Option func(*OrchestratorConfig) error

// New builds an OrchestratorConfig: defaults, then environment variable
// overrides, then functional options, matching core/config.go's NewConfig.
func New(opts ...Option) (*OrchestratorConfig, error) {
	cfg := &OrchestratorConfig{
		DefaultTokenBudget:       4000,
		DefaultToolCallBudget:    10,
		DefaultTimeBudgetSeconds: 120,
		DefaultStakesFloor:       vocab.StakesLow,
		DefaultQualityFloor:      vocab.QualityPar,
		LogLevel:                 "info",
		Resilience: ResilienceConfig{
			MaxAttempts:         3,
			InitialInterval:     500 * time.Millisecond,
			MaxInterval:         10 * time.Second,
			CircuitThreshold:    5,
			CircuitResetTimeout: 30 * time.Second,
		},
	}

	applyEnvOverrides(cfg)

	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, fmt.Errorf("config: applying option: %w", err)
		}
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *OrchestratorConfig) {
	if v := os.Getenv("ACE_DEFAULT_TOKEN_BUDGET"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.DefaultTokenBudget = n
		}
	}
	if v := os.Getenv("ACE_DEFAULT_TOOL_CALL_BUDGET"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.DefaultToolCallBudget = n
		}
	}
	if v := os.Getenv("ACE_DEFAULT_TIME_BUDGET_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.DefaultTimeBudgetSeconds = n
		}
	}
	if v := os.Getenv("ACE_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("ACE_RETRY_MAX_ATTEMPTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Resilience.MaxAttempts = n
		}
	}
	if v := os.Getenv("ACE_CIRCUIT_THRESHOLD"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Resilience.CircuitThreshold = n
		}
	}
	if v := os.Getenv("ACE_RETRY_INITIAL_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Resilience.InitialInterval = d
		}
	}
	if v := os.Getenv("ACE_RETRY_MAX_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Resilience.MaxInterval = d
		}
	}
	if v := os.Getenv("ACE_CIRCUIT_RESET_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Resilience.CircuitResetTimeout = d
		}
	}
}

// WithDefaultBudgets overrides the three default episode budget ceilings.
func WithDefaultBudgets(tokenBudget, toolCallBudget, timeBudgetSeconds int) Option {
	return func(c *OrchestratorConfig) error {
		if tokenBudget < 0 || toolCallBudget < 0 || timeBudgetSeconds < 0 {
			return fmt.Errorf("config: default budgets must be non-negative")
		}
		c.DefaultTokenBudget = tokenBudget
		c.DefaultToolCallBudget = toolCallBudget
		c.DefaultTimeBudgetSeconds = timeBudgetSeconds
		return nil
	}
}

// WithDefaultStakesFloor sets the minimum stakes level applied when an
// inbound episode request does not specify one.
func WithDefaultStakesFloor(level vocab.StakesLevel) Option {
	return func(c *OrchestratorConfig) error {
		c.DefaultStakesFloor = level
		return nil
	}
}

// WithDefaultQualityFloor sets the minimum quality tier applied when an
// inbound episode request does not specify one.
func WithDefaultQualityFloor(tier vocab.QualityTier) Option {
	return func(c *OrchestratorConfig) error {
		c.DefaultQualityFloor = tier
		return nil
	}
}

// WithLogLevel sets the orchestrator's log level ("debug", "info", "warn",
// "error").
func WithLogLevel(level string) Option {
	return func(c *OrchestratorConfig) error {
		c.LogLevel = level
		return nil
	}
}

// WithResilience overrides the LLM client retry/circuit-breaker tuning.
func WithResilience(r ResilienceConfig) Option {
	return func(c *OrchestratorConfig) error {
		if r.MaxAttempts < 1 {
			return fmt.Errorf("config: resilience.max_attempts must be at least 1")
		}
		c.Resilience = r
		return nil
	}
}
