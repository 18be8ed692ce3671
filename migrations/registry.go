// Package migrations locates the embedded preference store schema for each
// supported SQL dialect and hands it to a migration runner.
package migrations

import (
	"context"
	"fmt"
	"io/fs"
	"strings"

	innovate "github.com/innovatetogether/go-innovate"
)

const (
	DialectPostgres = "postgres"
	DialectSQLite   = "sqlite"

	// SourceLabel identifies this module's migrations to the runner.
	SourceLabel = "go-innovate"

	rootPath = "data/sql/migrations"
)

// DialectForDriver maps a database/sql driver name to its migration dialect.
func DialectForDriver(driver string) (string, error) {
	switch strings.TrimSpace(strings.ToLower(driver)) {
	case "sqlite3", "sqlite":
		return DialectSQLite, nil
	case "postgres", "pq", "pgx":
		return DialectPostgres, nil
	default:
		return "", fmt.Errorf("migrations: unsupported driver %q", driver)
	}
}

// Source is the migration directory of one dialect. Postgres files live at
// the root, sqlite files in the sqlite/ subdirectory.
type Source struct {
	Dialect string
	Path    string
	FS      fs.FS
}

// RegisterFunc receives each selected source. go-persistence-bun callers
// pass client.RegisterSQLMigrations through it.
type RegisterFunc func(ctx context.Context, source Source) error

type registerOptions struct {
	root     fs.FS
	dialects []string
}

type Option func(*registerOptions)

// WithDialects limits registration to the named dialects.
func WithDialects(dialects ...string) Option {
	return func(o *registerOptions) {
		o.dialects = nil
		for _, dialect := range dialects {
			dialect = strings.TrimSpace(strings.ToLower(dialect))
			if dialect != "" && !containsString(o.dialects, dialect) {
				o.dialects = append(o.dialects, dialect)
			}
		}
	}
}

// WithRoot reads migrations from root instead of the embedded tree.
func WithRoot(root fs.FS) Option {
	return func(o *registerOptions) {
		if root != nil {
			o.root = root
		}
	}
}

// Sources returns the postgres and sqlite sources found under root, or under
// the embedded tree when root is nil. Each must hold at least one *.up.sql.
func Sources(root fs.FS) ([]Source, error) {
	if root == nil {
		root = innovate.GetMigrationsFS()
	}
	base, basePath, err := resolveRoot(root)
	if err != nil {
		return nil, err
	}
	sqliteFS, err := fs.Sub(base, "sqlite")
	if err != nil {
		return nil, fmt.Errorf("migrations: resolve sqlite directory: %w", err)
	}
	sources := []Source{
		{Dialect: DialectPostgres, Path: basePath, FS: base},
		{Dialect: DialectSQLite, Path: joinPath(basePath, "sqlite"), FS: sqliteFS},
	}
	for _, source := range sources {
		matches, err := fs.Glob(source.FS, "*.up.sql")
		if err != nil {
			return nil, fmt.Errorf("migrations: glob %s: %w", source.Path, err)
		}
		if len(matches) == 0 {
			return nil, fmt.Errorf("migrations: no %s migrations in %q", source.Dialect, source.Path)
		}
	}
	return sources, nil
}

// Register calls fn once per selected dialect and returns the sources it
// registered. All dialects are selected unless WithDialects narrows them.
func Register(ctx context.Context, fn RegisterFunc, opts ...Option) ([]Source, error) {
	if fn == nil {
		return nil, fmt.Errorf("migrations: register function is required")
	}
	options := registerOptions{dialects: []string{DialectPostgres, DialectSQLite}}
	for _, opt := range opts {
		if opt != nil {
			opt(&options)
		}
	}
	if len(options.dialects) == 0 {
		return nil, fmt.Errorf("migrations: at least one dialect is required")
	}
	sources, err := Sources(options.root)
	if err != nil {
		return nil, err
	}

	var registered []Source
	for _, dialect := range options.dialects {
		source, ok := findSource(sources, dialect)
		if !ok {
			return registered, fmt.Errorf("migrations: unsupported dialect %q", dialect)
		}
		if err := fn(ctx, source); err != nil {
			return registered, fmt.Errorf("migrations: register %s: %w", dialect, err)
		}
		registered = append(registered, source)
	}
	return registered, nil
}

func resolveRoot(root fs.FS) (fs.FS, string, error) {
	if _, err := fs.Stat(root, rootPath); err == nil {
		sub, err := fs.Sub(root, rootPath)
		if err != nil {
			return nil, "", fmt.Errorf("migrations: open %s: %w", rootPath, err)
		}
		return sub, rootPath, nil
	}
	// A tree that already is the migrations directory.
	if matches, err := fs.Glob(root, "*.sql"); err == nil && len(matches) > 0 {
		return root, ".", nil
	}
	return nil, "", fmt.Errorf("migrations: %s not found", rootPath)
}

func findSource(sources []Source, dialect string) (Source, bool) {
	for _, source := range sources {
		if source.Dialect == dialect {
			return source, true
		}
	}
	return Source{}, false
}

func containsString(values []string, target string) bool {
	for _, value := range values {
		if value == target {
			return true
		}
	}
	return false
}

func joinPath(base string, name string) string {
	if base == "." {
		return name
	}
	return strings.TrimSuffix(base, "/") + "/" + name
}
