package core

import (
	"context"
	"strings"
	"time"

	glog "github.com/goliatone/go-logger/glog"
)

// Service is the request orchestrator. It is the only writer of the job and
// session stores.
type Service struct {
	config          Config
	logger          Logger
	loggerProvider  LoggerProvider
	metricsRecorder MetricsRecorder
	configProvider  ConfigProvider
	optionsResolver OptionsResolver
	loadRepository  LoadRepository
	matcher         *Matcher
	jobStore        JobStore
	sessionStore    SessionStore
	ledger          NegotiationLedger
	eventRecorder   EventRecorder
	relay           Relay
	clock           Clock
	newHandle       HandleGenerator
}

type ServiceDependencies struct {
	Logger            Logger
	LoggerProvider    LoggerProvider
	MetricsRecorder   MetricsRecorder
	ConfigProvider    ConfigProvider
	OptionsResolver   OptionsResolver
	LoadRepository    LoadRepository
	JobStore          JobStore
	SessionStore      SessionStore
	NegotiationLedger NegotiationLedger
	EventRecorder     EventRecorder
	Relay             Relay
}

func NewService(cfg Config, opts ...Option) (*Service, error) {
	builder := defaultServiceBuilder(cfg)
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(&builder)
	}

	provider, logger := glog.Resolve("loadrelay", builder.loggerProvider, builder.logger)
	logger = glog.Ensure(logger)
	if provider != nil && builder.logger == nil {
		if named := provider.GetLogger("loadrelay"); named != nil {
			logger = glog.Ensure(named)
		}
	}

	if builder.metricsRecorder == nil {
		builder.metricsRecorder = NopMetricsRecorder{}
	}
	if builder.configProvider == nil {
		builder.configProvider = NewCfgxConfigProvider(nil)
	}
	if builder.optionsResolver == nil {
		builder.optionsResolver = GoOptionsResolver{}
	}
	if builder.loadRepository == nil {
		builder.loadRepository = NewMemoryLoadRepository()
	}
	if builder.jobStore == nil {
		builder.jobStore = NewMemoryJobStore()
	}
	if builder.sessionStore == nil {
		builder.sessionStore = NewMemorySessionStore()
	}
	if builder.relay == nil {
		builder.relay = unconfiguredRelay{}
	}
	if builder.clock == nil {
		builder.clock = defaultClock
	}
	if builder.newHandle == nil {
		builder.newHandle = NewHandle
	}

	defaults := DefaultConfig()
	loaded, err := builder.configProvider.Load(context.Background(), defaults)
	if err != nil {
		return nil, MapError(err)
	}
	finalConfig, err := builder.optionsResolver.Resolve(defaults, loaded, builder.runtimeConfig)
	if err != nil {
		return nil, MapError(err)
	}

	return &Service{
		config:          finalConfig.withFallbacks(),
		logger:          logger,
		loggerProvider:  provider,
		metricsRecorder: builder.metricsRecorder,
		configProvider:  builder.configProvider,
		optionsResolver: builder.optionsResolver,
		loadRepository:  builder.loadRepository,
		matcher:         NewMatcher(builder.loadRepository, logger),
		jobStore:        builder.jobStore,
		sessionStore:    builder.sessionStore,
		ledger:          builder.ledger,
		eventRecorder:   builder.eventRecorder,
		relay:           builder.relay,
		clock:           builder.clock,
		newHandle:       builder.newHandle,
	}, nil
}

func (s *Service) Config() Config {
	if s == nil {
		return Config{}
	}
	return s.config
}

func (s *Service) Dependencies() ServiceDependencies {
	if s == nil {
		return ServiceDependencies{}
	}
	return ServiceDependencies{
		Logger:            s.logger,
		LoggerProvider:    s.loggerProvider,
		MetricsRecorder:   s.metricsRecorder,
		ConfigProvider:    s.configProvider,
		OptionsResolver:   s.optionsResolver,
		LoadRepository:    s.loadRepository,
		JobStore:          s.jobStore,
		SessionStore:      s.sessionStore,
		NegotiationLedger: s.ledger,
		EventRecorder:     s.eventRecorder,
		Relay:             s.relay,
	}
}

// Sweeper returns a retention sweeper bound to the service stores and the
// resolved retention settings.
func (s *Service) Sweeper() *Sweeper {
	if s == nil {
		return nil
	}
	return &Sweeper{
		Jobs:     s.jobStore,
		Sessions: s.sessionStore,
		Policy:   s.config.RetentionPolicy(),
		Interval: s.config.Retention.SweepInterval,
		Logger:   s.logger,
	}
}

func (s *Service) now() time.Time {
	if s == nil || s.clock == nil {
		return defaultClock()
	}
	return s.clock().UTC()
}

func (s *Service) handle(candidate string) string {
	if candidate = strings.TrimSpace(candidate); candidate != "" {
		return candidate
	}
	return s.newHandle()
}

// recordEvent writes an analytics row. Failures are logged and dropped.
func (s *Service) recordEvent(ctx context.Context, event Event) {
	if s == nil || s.eventRecorder == nil {
		return
	}
	if strings.TrimSpace(event.ID) == "" {
		event.ID = s.newHandle()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = s.now()
	}
	if err := s.eventRecorder.Record(ctx, event); err != nil {
		s.logWarn(ctx, "event record failed", map[string]any{
			"event_name": event.Name,
			"error":      err.Error(),
		})
	}
}

type unconfiguredRelay struct{}

func (unconfiguredRelay) Deliver(context.Context, DeliveryRequest) DeliveryResult {
	return DeliveryResult{Err: errRelayNotConfigured}
}
