package relay

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	loadrelay "github.com/goliatone/go-loadrelay"
	"github.com/goliatone/go-loadrelay/adapters/gocommand"
	"github.com/goliatone/go-loadrelay/adapters/gologger"
	"github.com/goliatone/go-loadrelay/core"
	"github.com/goliatone/go-loadrelay/inbound"
	sqlstore "github.com/goliatone/go-loadrelay/store/sql"
	"github.com/goliatone/go-loadrelay/transport"
	glog "github.com/goliatone/go-logger/glog"
	repositorycache "github.com/goliatone/go-repository-cache/cache"
)

// Config holds relay command configuration.
type Config struct {
	Addr     string `env:"ADDR" envDefault:":8000"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	IncomingToken string `env:"INCOMING_TOKEN"`

	WebhookURL      string        `env:"WEBHOOK_URL"`
	APIKey          string        `env:"API_KEY"`
	WorkflowTimeout time.Duration `env:"LOADRELAY_WORKFLOW_TIMEOUT" envDefault:"10s"`

	NegotiationWebhookURL   string `env:"NEGOTIATION_WEBHOOK_URL"`
	NegotiationAPIKey       string `env:"NEGOTIATION_API_KEY"`
	MaxRounds               int    `env:"LOADRELAY_MAX_ROUNDS" envDefault:"3"`
	ReopenOnStart           bool   `env:"LOADRELAY_REOPEN_ON_START"`
	PropagateDispatchErrors bool   `env:"LOADRELAY_PROPAGATE_DISPATCH_ERRORS"`

	CarrierAPIKey  string `env:"FMCSA_API_KEY"`
	CarrierBaseURL string `env:"FMCSA_BASE_URL"`

	DatabaseURL    string `env:"DATABASE_URL" envDefault:"file:loadrelay.db?cache=shared&_foreign_keys=on"`
	DatabaseDriver string `env:"DATABASE_DRIVER"`
	DatabaseDebug  bool   `env:"DATABASE_DEBUG"`
	Migrate        bool   `env:"LOADRELAY_MIGRATE" envDefault:"true"`

	LoadCacheTTL time.Duration `env:"LOADRELAY_LOAD_CACHE_TTL" envDefault:"30s"`
	MaxBodyBytes int64         `env:"LOADRELAY_MAX_BODY_BYTES" envDefault:"1048576"`

	TerminalTTL   time.Duration `env:"LOADRELAY_TERMINAL_TTL" envDefault:"24h"`
	PendingTTL    time.Duration `env:"LOADRELAY_PENDING_TTL"`
	SweepInterval time.Duration `env:"LOADRELAY_SWEEP_INTERVAL" envDefault:"1m"`

	ShutdownTimeout time.Duration `env:"LOADRELAY_SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

// ParseConfig reads the environment, then lets flags override it.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	fs.StringVar(&cfg.Addr, "addr", cfg.Addr, "HTTP listen address")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level (trace, debug, info, warn, error)")
	fs.StringVar(&cfg.DatabaseURL, "database-url", cfg.DatabaseURL, "Database DSN (postgres:// or sqlite file)")
	fs.StringVar(&cfg.DatabaseDriver, "database-driver", cfg.DatabaseDriver, "Database driver, inferred from the DSN when empty")
	fs.BoolVar(&cfg.Migrate, "migrate", cfg.Migrate, "Apply embedded migrations on start")
	fs.IntVar(&cfg.MaxRounds, "max-rounds", cfg.MaxRounds, "Default negotiation round cap")
	fs.BoolVar(&cfg.ReopenOnStart, "reopen-on-start", cfg.ReopenOnStart, "Reopen completed sessions when a new round starts")
	fs.DurationVar(&cfg.LoadCacheTTL, "load-cache-ttl", cfg.LoadCacheTTL, "Load read cache TTL, 0 disables the cache")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// RawConfig renders cfg into the nested layout decoded by the core config
// provider.
func (c Config) RawConfig() map[string]any {
	return core.ConfigToLayerMap(core.Config{
		Auth: core.AuthConfig{Token: strings.TrimSpace(c.IncomingToken)},
		Workflow: core.WorkflowConfig{
			URL:     strings.TrimSpace(c.WebhookURL),
			APIKey:  c.APIKey,
			Timeout: c.WorkflowTimeout,
		},
		Negotiation: core.NegotiationConfig{
			WebhookURL:              strings.TrimSpace(c.NegotiationWebhookURL),
			APIKey:                  c.NegotiationAPIKey,
			MaxRounds:               c.MaxRounds,
			ReopenOnStart:           c.ReopenOnStart,
			PropagateDispatchErrors: c.PropagateDispatchErrors,
		},
		Carrier: core.CarrierConfig{
			BaseURL: strings.TrimSpace(c.CarrierBaseURL),
			APIKey:  c.CarrierAPIKey,
		},
		Retention: core.RetentionConfig{
			TerminalTTL:   c.TerminalTTL,
			PendingTTL:    c.PendingTTL,
			SweepInterval: c.SweepInterval,
		},
	}, false)
}

// App is a fully wired relay: service, HTTP handler and the resources that
// must be released on exit.
type App struct {
	Service *loadrelay.Service
	Facade  *loadrelay.Facade
	Handler http.Handler
	Logger  glog.Logger

	subscriptions gocommand.Subscriptions
	closers       []io.Closer
}

// Build opens storage and wires every component without listening.
func Build(ctx context.Context, cfg Config, logOutput io.Writer) (*App, error) {
	if logOutput == nil {
		logOutput = os.Stderr
	}
	provider := gologger.NewProvider(gologger.NewJSONLogger(logOutput, cfg.LogLevel))
	logger := provider.GetLogger("relay")

	client, err := sqlstore.Open(ctx, sqlstore.OpenConfig{
		Driver:  cfg.DatabaseDriver,
		DSN:     cfg.DatabaseURL,
		Debug:   cfg.DatabaseDebug,
		Migrate: cfg.Migrate,
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	app := &App{Logger: logger, closers: []io.Closer{client}}

	factory, err := sqlstore.NewRepositoryFactoryFromPersistence(client)
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("build stores: %w", err)
	}

	loads := factory.LoadRepository()
	if cfg.LoadCacheTTL > 0 {
		cacheConfig := repositorycache.DefaultConfig()
		cacheConfig.TTL = cfg.LoadCacheTTL
		cacheService, err := repositorycache.NewCacheService(cacheConfig)
		if err != nil {
			app.Close()
			return nil, fmt.Errorf("load cache: %w", err)
		}
		cached, err := sqlstore.NewCachedLoadRepository(loads, cacheService)
		if err != nil {
			app.Close()
			return nil, fmt.Errorf("load cache: %w", err)
		}
		loads = cached
	}

	service, err := loadrelay.NewService(loadrelay.Config{},
		loadrelay.WithLoggerProvider(provider),
		loadrelay.WithConfigProvider(core.NewCfgxConfigProvider(core.StaticRawConfigLoader{Values: cfg.RawConfig()})),
		loadrelay.WithLoadRepository(loads),
		loadrelay.WithNegotiationLedger(factory.NegotiationLedger()),
		loadrelay.WithEventRecorder(factory.EventRecorder()),
		loadrelay.WithRelay(transport.NewRESTAdapter(&http.Client{})),
	)
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("new service: %w", err)
	}
	app.Service = service

	facade, err := loadrelay.NewFacade(service)
	if err != nil {
		app.Close()
		return nil, err
	}
	app.Facade = facade

	subs, err := facade.Bind(gocommand.NewRegistryAdapter(nil))
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("bind commands: %w", err)
	}
	app.subscriptions = subs

	handler, err := inbound.NewHandler(facade,
		inbound.WithVerifier(inbound.NewBearerVerifier(service.Config().Auth.Token)),
		inbound.WithLogger(provider.GetLogger("inbound")),
		inbound.WithMaxBodyBytes(cfg.MaxBodyBytes),
	)
	if err != nil {
		app.Close()
		return nil, err
	}
	app.Handler = handler
	return app, nil
}

// Close releases subscriptions and storage. It is safe to call twice.
func (a *App) Close() error {
	if a == nil {
		return nil
	}
	a.subscriptions.Unsubscribe()
	a.subscriptions = nil
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

// Run serves the relay until ctx is cancelled.
func Run(ctx context.Context, cfg Config) error {
	app, err := Build(ctx, cfg, os.Stderr)
	if err != nil {
		return err
	}
	defer app.Close()

	if app.Service.Config().Auth.Token == "" {
		app.Logger.Warn("incoming token not set, secured routes are open")
	}

	sweeper := app.Service.Sweeper()
	go func() {
		if err := sweeper.Run(ctx); err != nil {
			app.Logger.Error("retention sweeper stopped", "error", err)
		}
	}()

	server := inbound.NewServer(inbound.ServerConfig{
		Addr:            cfg.Addr,
		ShutdownTimeout: cfg.ShutdownTimeout,
	}, app.Handler, app.Logger)
	app.Logger.Info("relay listening", "addr", server.Addr())
	return server.Run(ctx)
}
