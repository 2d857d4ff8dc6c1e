package core

import (
	"fmt"
	"strings"
	"time"
)

const (
	DefaultSearchLimit          = 10
	DefaultClosestLimit         = 5
	DefaultRecentLimit          = 10
	FallbackRecentLimit         = 5
	DefaultMaxNegotiationRounds = 3
	DefaultRelayTimeout         = 10 * time.Second
	DefaultTerminalTTL          = 24 * time.Hour
	DefaultSweepInterval        = time.Minute
	DefaultCarrierBaseURL       = "https://mobile.fmcsa.dot.gov/qc/services"
)

type AuthConfig struct {
	Token string `koanf:"token" mapstructure:"token"`
}

type WorkflowConfig struct {
	URL     string        `koanf:"url" mapstructure:"url"`
	APIKey  string        `koanf:"api_key" mapstructure:"api_key"`
	Timeout time.Duration `koanf:"timeout" mapstructure:"timeout"`
}

type NegotiationConfig struct {
	WebhookURL string `koanf:"webhook_url" mapstructure:"webhook_url"`
	APIKey     string `koanf:"api_key" mapstructure:"api_key"`
	MaxRounds  int    `koanf:"max_rounds" mapstructure:"max_rounds"`
	// ReopenOnStart moves a complete session back to pending when a new
	// round is started on the same handle. Off by default.
	ReopenOnStart           bool `koanf:"reopen_on_start" mapstructure:"reopen_on_start"`
	PropagateDispatchErrors bool `koanf:"propagate_dispatch_errors" mapstructure:"propagate_dispatch_errors"`
}

type CarrierConfig struct {
	BaseURL string `koanf:"base_url" mapstructure:"base_url"`
	APIKey  string `koanf:"api_key" mapstructure:"api_key"`
}

type RetentionConfig struct {
	TerminalTTL   time.Duration `koanf:"terminal_ttl" mapstructure:"terminal_ttl"`
	PendingTTL    time.Duration `koanf:"pending_ttl" mapstructure:"pending_ttl"`
	SweepInterval time.Duration `koanf:"sweep_interval" mapstructure:"sweep_interval"`
}

type Config struct {
	ServiceName string            `koanf:"service_name" mapstructure:"service_name"`
	Auth        AuthConfig        `koanf:"auth" mapstructure:"auth"`
	Workflow    WorkflowConfig    `koanf:"workflow" mapstructure:"workflow"`
	Negotiation NegotiationConfig `koanf:"negotiation" mapstructure:"negotiation"`
	Carrier     CarrierConfig     `koanf:"carrier" mapstructure:"carrier"`
	Retention   RetentionConfig   `koanf:"retention" mapstructure:"retention"`
}

func DefaultConfig() Config {
	return Config{
		ServiceName: "loadrelay",
		Workflow: WorkflowConfig{
			Timeout: DefaultRelayTimeout,
		},
		Negotiation: NegotiationConfig{
			MaxRounds: DefaultMaxNegotiationRounds,
		},
		Carrier: CarrierConfig{
			BaseURL: DefaultCarrierBaseURL,
		},
		Retention: RetentionConfig{
			TerminalTTL:   DefaultTerminalTTL,
			SweepInterval: DefaultSweepInterval,
		},
	}
}

func (c Config) Validate() error {
	if c.Workflow.Timeout < 0 {
		return fmt.Errorf("core: workflow.timeout must not be negative")
	}
	if c.Negotiation.MaxRounds < 0 {
		return fmt.Errorf("core: negotiation.max_rounds must not be negative")
	}
	if c.Retention.TerminalTTL < 0 || c.Retention.PendingTTL < 0 {
		return fmt.Errorf("core: retention ttl must not be negative")
	}
	if c.Retention.SweepInterval < 0 {
		return fmt.Errorf("core: retention.sweep_interval must not be negative")
	}
	return nil
}

// withFallbacks fills settings that have no meaningful zero value.
func (c Config) withFallbacks() Config {
	if strings.TrimSpace(c.ServiceName) == "" {
		c.ServiceName = "loadrelay"
	}
	if c.Workflow.Timeout <= 0 {
		c.Workflow.Timeout = DefaultRelayTimeout
	}
	if c.Negotiation.MaxRounds <= 0 {
		c.Negotiation.MaxRounds = DefaultMaxNegotiationRounds
	}
	if strings.TrimSpace(c.Carrier.BaseURL) == "" {
		c.Carrier.BaseURL = DefaultCarrierBaseURL
	}
	return c
}

func (c Config) RetentionPolicy() RetentionPolicy {
	return RetentionPolicy{
		TerminalTTL: c.Retention.TerminalTTL,
		PendingTTL:  c.Retention.PendingTTL,
	}
}
