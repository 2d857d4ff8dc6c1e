package migrations

import (
	"context"
	"fmt"
	"io/fs"
	"slices"
	"strings"

	loadrelay "github.com/goliatone/go-loadrelay"
)

const (
	DialectPostgres = "postgres"
	DialectSQLite   = "sqlite"

	rootDir = "data/sql/migrations"
)

// Source is the migration directory of one dialect inside the embedded FS.
type Source struct {
	Dialect string
	Dir     string
	FS      fs.FS
}

// RegisterFunc receives the migration filesystem of one dialect.
type RegisterFunc func(ctx context.Context, dialect string, fsys fs.FS) error

// ForDialect adapts a single-dialect registrar, such as the
// go-persistence-bun client's RegisterSQLMigrations.
// Other dialects are skipped.
func ForDialect(dialect string, register func(fsys fs.FS)) RegisterFunc {
	target := normalizeDialect(dialect)
	return func(_ context.Context, candidate string, fsys fs.FS) error {
		if register == nil {
			return fmt.Errorf("migrations: registrar for %s is nil", target)
		}
		if candidate == target {
			register(fsys)
		}
		return nil
	}
}

// Sources resolves the postgres and sqlite directories and checks each one
// carries at least one up migration.
func Sources() ([]Source, error) {
	root, err := fs.Sub(loadrelay.GetMigrationsFS(), rootDir)
	if err != nil {
		return nil, fmt.Errorf("migrations: resolve %s: %w", rootDir, err)
	}
	sqliteFS, err := fs.Sub(root, "sqlite")
	if err != nil {
		return nil, fmt.Errorf("migrations: resolve sqlite directory: %w", err)
	}
	sources := []Source{
		{Dialect: DialectPostgres, Dir: rootDir, FS: root},
		{Dialect: DialectSQLite, Dir: rootDir + "/sqlite", FS: sqliteFS},
	}
	for _, source := range sources {
		names, err := upMigrations(source)
		if err != nil {
			return nil, err
		}
		if len(names) == 0 {
			return nil, fmt.Errorf("migrations: %s directory %q has no *.up.sql files", source.Dialect, source.Dir)
		}
	}
	return sources, nil
}

// Names lists the up migrations of a dialect in apply order.
func Names(dialect string) ([]string, error) {
	source, err := sourceFor(dialect)
	if err != nil {
		return nil, err
	}
	return upMigrations(source)
}

// Register hands the filesystem of each listed dialect to registerFn. No
// dialects means all of them.
func Register(ctx context.Context, registerFn RegisterFunc, dialects ...string) error {
	if registerFn == nil {
		return fmt.Errorf("migrations: register function is required")
	}
	sources, err := Sources()
	if err != nil {
		return err
	}
	targets := make([]string, 0, len(dialects))
	for _, dialect := range dialects {
		if normalized := normalizeDialect(dialect); normalized != "" && !slices.Contains(targets, normalized) {
			targets = append(targets, normalized)
		}
	}
	for _, target := range targets {
		if !slices.ContainsFunc(sources, func(s Source) bool { return s.Dialect == target }) {
			return fmt.Errorf("migrations: unknown dialect %q", target)
		}
	}

	for _, source := range sources {
		if len(targets) > 0 && !slices.Contains(targets, source.Dialect) {
			continue
		}
		if err := registerFn(ctx, source.Dialect, source.FS); err != nil {
			return fmt.Errorf("migrations: register %s (%s): %w", source.Dialect, source.Dir, err)
		}
	}
	return nil
}

func sourceFor(dialect string) (Source, error) {
	sources, err := Sources()
	if err != nil {
		return Source{}, err
	}
	target := normalizeDialect(dialect)
	for _, source := range sources {
		if source.Dialect == target {
			return source, nil
		}
	}
	return Source{}, fmt.Errorf("migrations: unknown dialect %q", dialect)
}

func upMigrations(source Source) ([]string, error) {
	names, err := fs.Glob(source.FS, "*.up.sql")
	if err != nil {
		return nil, fmt.Errorf("migrations: glob %s: %w", source.Dir, err)
	}
	slices.Sort(names)
	return names, nil
}

func normalizeDialect(dialect string) string {
	return strings.ToLower(strings.TrimSpace(dialect))
}
