package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/goliatone/go-loadrelay/migrations"
	persistence "github.com/goliatone/go-persistence-bun"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite3"

	defaultPingTimeout = 5 * time.Second
)

// OpenConfig describes the database behind the load board and the ledgers.
// It satisfies the go-persistence-bun configuration contract.
type OpenConfig struct {
	Driver      string
	DSN         string
	Debug       bool
	PingTimeout time.Duration
	Migrate     bool
}

func (c OpenConfig) GetDebug() bool {
	return c.Debug
}

func (c OpenConfig) GetDriver() string {
	return ResolveDriver(c.Driver, c.DSN)
}

func (c OpenConfig) GetServer() string {
	return c.DSN
}

func (c OpenConfig) GetPingTimeout() time.Duration {
	if c.PingTimeout <= 0 {
		return defaultPingTimeout
	}
	return c.PingTimeout
}

func (c OpenConfig) GetOtelIdentifier() string {
	return "go-loadrelay"
}

// ResolveDriver maps driver aliases to a registered database/sql driver. An
// empty driver is inferred from the DSN scheme and falls back to sqlite.
func ResolveDriver(driver string, dsn string) string {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case "postgres", "postgresql", "pg":
		return DriverPostgres
	case "sqlite", "sqlite3":
		return DriverSQLite
	case "":
		lowered := strings.ToLower(strings.TrimSpace(dsn))
		if strings.HasPrefix(lowered, "postgres://") || strings.HasPrefix(lowered, "postgresql://") {
			return DriverPostgres
		}
		return DriverSQLite
	default:
		return strings.TrimSpace(driver)
	}
}

// Open connects the persistence client and, when requested, applies the
// embedded migrations for the resolved dialect.
func Open(ctx context.Context, cfg OpenConfig) (*persistence.Client, error) {
	if strings.TrimSpace(cfg.DSN) == "" {
		return nil, fmt.Errorf("sqlstore: database dsn is required")
	}
	driver := cfg.GetDriver()

	var migrationDialect string
	switch driver {
	case DriverPostgres:
		migrationDialect = migrations.DialectPostgres
	case DriverSQLite:
		migrationDialect = migrations.DialectSQLite
	default:
		return nil, fmt.Errorf("sqlstore: unsupported database driver %q", driver)
	}

	sqlDriver := driver
	if driver == DriverSQLite {
		RegisterSQLiteDriver()
		sqlDriver = SQLiteDriverName
	}
	sqlDB, err := sql.Open(sqlDriver, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: open %s: %w", driver, err)
	}

	var client *persistence.Client
	if driver == DriverPostgres {
		client, err = persistence.New(cfg, sqlDB, pgdialect.New())
	} else {
		sqlDB.SetMaxOpenConns(1)
		client, err = persistence.New(cfg, sqlDB, sqlitedialect.New())
	}
	if err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("sqlstore: new persistence client: %w", err)
	}
	if !cfg.Migrate {
		return client, nil
	}

	err = migrations.Register(ctx, migrations.ForDialect(migrationDialect, func(fsys fs.FS) {
		client.RegisterSQLMigrations(fsys)
	}), migrationDialect)
	if err != nil {
		_ = client.Close()
		return nil, err
	}
	if err := client.Migrate(ctx); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("sqlstore: migrate: %w", err)
	}
	return client, nil
}
