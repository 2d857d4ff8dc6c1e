package core

import (
	"context"
	"errors"
	"testing"
	"time"
)

type fixedConfigProvider struct {
	cfg Config
	err error
}

func (p *fixedConfigProvider) Load(context.Context, Config) (Config, error) {
	return p.cfg, p.err
}

type fixedOptionsResolver struct {
	cfg Config
}

func (r *fixedOptionsResolver) Resolve(Config, Config, Config) (Config, error) {
	return r.cfg, nil
}

func TestNewService_DefaultDependencies(t *testing.T) {
	svc, err := NewService(Config{})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	deps := svc.Dependencies()
	if deps.Logger == nil {
		t.Fatalf("expected default logger")
	}
	if deps.ConfigProvider == nil || deps.OptionsResolver == nil {
		t.Fatalf("expected default config provider and options resolver")
	}
	if deps.LoadRepository == nil || deps.JobStore == nil || deps.SessionStore == nil || deps.Relay == nil {
		t.Fatalf("expected default stores and relay")
	}
	if deps.NegotiationLedger != nil || deps.EventRecorder != nil {
		t.Fatalf("expected no durable collaborators by default")
	}
	cfg := svc.Config()
	if cfg.ServiceName != "loadrelay" {
		t.Fatalf("expected default service_name=loadrelay, got %q", cfg.ServiceName)
	}
	if cfg.Negotiation.MaxRounds != DefaultMaxNegotiationRounds || cfg.Workflow.Timeout != DefaultRelayTimeout {
		t.Fatalf("unexpected defaults %#v", cfg)
	}
}

func TestNewService_RuntimeConfigWins(t *testing.T) {
	runtime := Config{
		Workflow:    WorkflowConfig{URL: "https://runtime.example/hook"},
		Negotiation: NegotiationConfig{ReopenOnStart: true},
	}
	svc, err := NewService(runtime, WithConfigProvider(NewCfgxConfigProvider(StaticRawConfigLoader{Values: map[string]any{
		"workflow": map[string]any{"url": "https://loaded.example/hook", "api_key": "loaded-key"},
	}})))
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	cfg := svc.Config()
	if cfg.Workflow.URL != "https://runtime.example/hook" {
		t.Fatalf("expected runtime url to win, got %q", cfg.Workflow.URL)
	}
	if !cfg.Negotiation.ReopenOnStart {
		t.Fatalf("expected runtime reopen flag")
	}
}

func TestNewService_WithOverrides(t *testing.T) {
	resolved := DefaultConfig()
	resolved.ServiceName = "resolved"
	resolver := &fixedOptionsResolver{cfg: resolved}
	relay := &recordingRelay{}
	ledger := &memoryLedger{}

	svc, err := NewService(Config{ServiceName: "runtime"},
		WithOptionsResolver(resolver),
		WithConfigProvider(&fixedConfigProvider{cfg: DefaultConfig()}),
		WithRelay(relay),
		WithNegotiationLedger(ledger),
	)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	if svc.Config().ServiceName != "resolved" {
		t.Fatalf("expected resolver output, got %q", svc.Config().ServiceName)
	}
	deps := svc.Dependencies()
	if deps.Relay != relay || deps.NegotiationLedger != ledger {
		t.Fatalf("expected overridden collaborators")
	}
}

func TestNewService_ConfigProviderError(t *testing.T) {
	_, err := NewService(Config{}, WithConfigProvider(&fixedConfigProvider{err: errors.New("boom")}))
	if err == nil {
		t.Fatalf("expected config provider error")
	}
}

func TestNewService_InvalidRuntimeConfig(t *testing.T) {
	_, err := NewService(Config{Retention: RetentionConfig{TerminalTTL: -time.Second}})
	if err == nil {
		t.Fatalf("expected negative ttl to be rejected")
	}
}

func TestConfigToLayerMap_OmitsZeroValues(t *testing.T) {
	layer := ConfigToLayerMap(Config{Auth: AuthConfig{Token: "t"}}, false)
	if _, ok := layer["workflow"]; ok {
		t.Fatalf("expected empty workflow section to be omitted")
	}
	auth, ok := layer["auth"].(map[string]any)
	if !ok || auth["token"] != "t" {
		t.Fatalf("expected auth token in layer, got %#v", layer)
	}
	full := ConfigToLayerMap(DefaultConfig(), true)
	retention := full["retention"].(map[string]any)
	if retention["terminal_ttl"] != DefaultTerminalTTL {
		t.Fatalf("expected default terminal ttl in full layer, got %#v", retention)
	}
}

func TestService_Sweeper(t *testing.T) {
	svc := newTestService(t, testConfig())
	sweeper := svc.Sweeper()
	if sweeper.Policy.TerminalTTL != DefaultTerminalTTL || sweeper.Interval != DefaultSweepInterval {
		t.Fatalf("unexpected sweeper settings %#v", sweeper)
	}
	if sweeper.Jobs == nil || sweeper.Sessions == nil {
		t.Fatalf("expected sweeper bound to service stores")
	}
}
