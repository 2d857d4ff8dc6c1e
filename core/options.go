package core

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/goliatone/go-config/cfgx"
	opts "github.com/goliatone/go-options"
	"github.com/google/uuid"
)

type ConfigProvider interface {
	Load(ctx context.Context, defaults Config) (Config, error)
}

type RawConfigLoader interface {
	LoadRaw(ctx context.Context) (map[string]any, error)
}

type OptionsResolver interface {
	Resolve(defaults Config, loaded Config, runtime Config) (Config, error)
}

type serviceBuilder struct {
	runtimeConfig   Config
	logger          Logger
	loggerProvider  LoggerProvider
	metricsRecorder MetricsRecorder
	configProvider  ConfigProvider
	optionsResolver OptionsResolver
	loadRepository  LoadRepository
	jobStore        JobStore
	sessionStore    SessionStore
	ledger          NegotiationLedger
	eventRecorder   EventRecorder
	relay           Relay
	clock           Clock
	newHandle       HandleGenerator
}

type Option func(*serviceBuilder)

func WithLogger(logger Logger) Option {
	return func(b *serviceBuilder) {
		b.logger = logger
	}
}

func WithLoggerProvider(provider LoggerProvider) Option {
	return func(b *serviceBuilder) {
		b.loggerProvider = provider
	}
}

func WithMetricsRecorder(recorder MetricsRecorder) Option {
	return func(b *serviceBuilder) {
		b.metricsRecorder = recorder
	}
}

func WithConfigProvider(provider ConfigProvider) Option {
	return func(b *serviceBuilder) {
		b.configProvider = provider
	}
}

func WithOptionsResolver(resolver OptionsResolver) Option {
	return func(b *serviceBuilder) {
		b.optionsResolver = resolver
	}
}

func WithLoadRepository(repo LoadRepository) Option {
	return func(b *serviceBuilder) {
		b.loadRepository = repo
	}
}

func WithJobStore(store JobStore) Option {
	return func(b *serviceBuilder) {
		b.jobStore = store
	}
}

func WithSessionStore(store SessionStore) Option {
	return func(b *serviceBuilder) {
		b.sessionStore = store
	}
}

func WithNegotiationLedger(ledger NegotiationLedger) Option {
	return func(b *serviceBuilder) {
		b.ledger = ledger
	}
}

func WithEventRecorder(recorder EventRecorder) Option {
	return func(b *serviceBuilder) {
		b.eventRecorder = recorder
	}
}

func WithRelay(relay Relay) Option {
	return func(b *serviceBuilder) {
		b.relay = relay
	}
}

func WithClock(clock Clock) Option {
	return func(b *serviceBuilder) {
		b.clock = clock
	}
}

func WithHandleGenerator(generator HandleGenerator) Option {
	return func(b *serviceBuilder) {
		b.newHandle = generator
	}
}

func defaultServiceBuilder(runtime Config) serviceBuilder {
	return serviceBuilder{
		runtimeConfig:   runtime,
		metricsRecorder: NopMetricsRecorder{},
		configProvider:  NewCfgxConfigProvider(nil),
		optionsResolver: GoOptionsResolver{},
		clock:           defaultClock,
		newHandle:       NewHandle,
	}
}

// NewHandle returns a random 128-bit handle in canonical UUID form.
func NewHandle() string {
	return uuid.NewString()
}

func defaultClock() time.Time {
	return time.Now().UTC()
}

type StaticRawConfigLoader struct {
	Values map[string]any
}

func (l StaticRawConfigLoader) LoadRaw(context.Context) (map[string]any, error) {
	if len(l.Values) == 0 {
		return map[string]any{}, nil
	}
	out := make(map[string]any, len(l.Values))
	for key, value := range l.Values {
		out[key] = value
	}
	return out, nil
}

type CfgxConfigProvider struct {
	Loader RawConfigLoader
}

func NewCfgxConfigProvider(loader RawConfigLoader) *CfgxConfigProvider {
	return &CfgxConfigProvider{Loader: loader}
}

func (p *CfgxConfigProvider) Load(ctx context.Context, defaults Config) (Config, error) {
	if p == nil {
		return defaults, nil
	}
	loader := p.Loader
	if loader == nil {
		loader = StaticRawConfigLoader{}
	}
	raw, err := loader.LoadRaw(ctx)
	if err != nil {
		return Config{}, err
	}
	cfg, err := cfgx.Build[Config](raw,
		cfgx.WithDefaults(defaults),
		cfgx.WithValidator[Config]((*Config).Validate),
	)
	if err != nil {
		return Config{}, err
	}
	return cfg, nil
}

type GoOptionsResolver struct{}

func (GoOptionsResolver) Resolve(defaults Config, loaded Config, runtime Config) (Config, error) {
	defaultLayer := ConfigToLayerMap(defaults, true)
	loadedLayer := ConfigToLayerMap(loaded, false)
	runtimeLayer := ConfigToLayerMap(runtime, false)

	stack, err := opts.NewStack(
		opts.NewLayer(
			opts.NewScope("defaults", 0),
			defaultLayer,
			opts.WithSnapshotID[map[string]any]("defaults"),
		),
		opts.NewLayer(
			opts.NewScope("config", 10),
			loadedLayer,
			opts.WithSnapshotID[map[string]any]("config"),
		),
		opts.NewLayer(
			opts.NewScope("runtime", 20),
			runtimeLayer,
			opts.WithSnapshotID[map[string]any]("runtime"),
		),
	)
	if err != nil {
		return Config{}, fmt.Errorf("core: options stack build failed: %w", err)
	}
	merged, err := stack.Merge()
	if err != nil {
		return Config{}, fmt.Errorf("core: options merge failed: %w", err)
	}
	resolved, err := cfgx.Build[Config](merged.Value,
		cfgx.WithDefaults(defaults),
		cfgx.WithValidator[Config]((*Config).Validate),
	)
	if err != nil {
		return Config{}, err
	}
	if err := resolved.Validate(); err != nil {
		return Config{}, err
	}
	return resolved, nil
}

// ConfigToLayerMap flattens cfg into the nested map shape decoded by cfgx.
// With includeZero unset, only fields that carry a value are emitted so the
// layer does not mask lower-priority layers.
func ConfigToLayerMap(cfg Config, includeZero bool) map[string]any {
	layer := map[string]any{}
	if includeZero || strings.TrimSpace(cfg.ServiceName) != "" {
		layer["service_name"] = cfg.ServiceName
	}

	auth := map[string]any{}
	putString(auth, "token", cfg.Auth.Token, includeZero)
	putSection(layer, "auth", auth)

	workflow := map[string]any{}
	putString(workflow, "url", cfg.Workflow.URL, includeZero)
	putString(workflow, "api_key", cfg.Workflow.APIKey, includeZero)
	putDuration(workflow, "timeout", cfg.Workflow.Timeout, includeZero)
	putSection(layer, "workflow", workflow)

	negotiation := map[string]any{}
	putString(negotiation, "webhook_url", cfg.Negotiation.WebhookURL, includeZero)
	putString(negotiation, "api_key", cfg.Negotiation.APIKey, includeZero)
	if includeZero || cfg.Negotiation.MaxRounds != 0 {
		negotiation["max_rounds"] = cfg.Negotiation.MaxRounds
	}
	if includeZero || cfg.Negotiation.ReopenOnStart {
		negotiation["reopen_on_start"] = cfg.Negotiation.ReopenOnStart
	}
	if includeZero || cfg.Negotiation.PropagateDispatchErrors {
		negotiation["propagate_dispatch_errors"] = cfg.Negotiation.PropagateDispatchErrors
	}
	putSection(layer, "negotiation", negotiation)

	carrier := map[string]any{}
	putString(carrier, "base_url", cfg.Carrier.BaseURL, includeZero)
	putString(carrier, "api_key", cfg.Carrier.APIKey, includeZero)
	putSection(layer, "carrier", carrier)

	retention := map[string]any{}
	putDuration(retention, "terminal_ttl", cfg.Retention.TerminalTTL, includeZero)
	putDuration(retention, "pending_ttl", cfg.Retention.PendingTTL, includeZero)
	putDuration(retention, "sweep_interval", cfg.Retention.SweepInterval, includeZero)
	putSection(layer, "retention", retention)
	return layer
}

func putString(section map[string]any, key string, value string, includeZero bool) {
	if includeZero || strings.TrimSpace(value) != "" {
		section[key] = value
	}
}

func putDuration(section map[string]any, key string, value time.Duration, includeZero bool) {
	if includeZero || value != 0 {
		section[key] = value
	}
}

func putSection(layer map[string]any, key string, section map[string]any) {
	if len(section) > 0 {
		layer[key] = section
	}
}
