package metastore

import (
	"context"
	"log/slog"
	"os"
	"regexp"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/npclaudiu/devenv/pkg/executor"
	"github.com/pkg/errors"
)

// Matches psql meta-commands that dbmate's pg_dump output may contain and
// that other SQL tooling (sqlc) rejects. Lines already commented out do not
// match, which keeps the patch idempotent.
var restrictDirective = regexp.MustCompile(`(?m)^([ \t]*)(\\(?:un)?restrict\b.*)$`)

type (
	// Runner executes dbmate and sqlc. Satisfied by *executor.Executor.
	Runner interface {
		Run(ctx context.Context, name string, args []string, opts executor.Options) (*executor.Result, error)
	}

	// Manager wraps the metastore's schema tooling.
	Manager struct {
		runner        Runner
		migrationsDir string
		schemaFile    string
		sqlcConfig    string
		logger        *slog.Logger
	}

	// ManagerConfig locates the metastore's files.
	ManagerConfig struct {
		Runner        Runner
		MigrationsDir string
		SchemaFile    string
		SqlcConfig    string
		Logger        *slog.Logger
	}
)

// NewManager creates a Manager.
func NewManager(cfg ManagerConfig) *Manager {
	m := &Manager{
		runner:        cfg.Runner,
		migrationsDir: cfg.MigrationsDir,
		schemaFile:    cfg.SchemaFile,
		sqlcConfig:    cfg.SqlcConfig,
		logger:        cfg.Logger,
	}

	if m.logger == nil {
		m.logger = slog.Default()
	}

	return m
}

// Migrate applies pending migrations with dbmate and patches the schema file
// it dumps. The DSN is only exposed to dbmate, via DATABASE_URL.
func (m *Manager) Migrate(ctx context.Context, dsn string) error {
	args := []string{"-d", m.migrationsDir, "-s", m.schemaFile, "up"}

	_, err := m.runner.Run(ctx, "dbmate", args, executor.Options{
		Check:  true,
		Stream: true,
		Env:    map[string]string{"DATABASE_URL": dsn},
	})
	if err != nil {
		return errors.Wrap(err, "migration failed")
	}

	return PatchSchema(m.schemaFile)
}

// Generate runs `sqlc generate` against the project's sqlc configuration.
func (m *Manager) Generate(ctx context.Context) error {
	_, err := m.runner.Run(ctx, "sqlc", []string{"generate", "-f", m.sqlcConfig}, executor.Options{
		Check:  true,
		Stream: true,
	})

	return errors.Wrap(err, "code generation failed")
}

// PatchSchema comments out \restrict and \unrestrict lines in the schema dump
// at path. Running it again on a patched file changes nothing.
func PatchSchema(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return errors.Wrapf(err, "failed to stat schema file %s", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrapf(err, "failed to read schema file %s", path)
	}

	patched := restrictDirective.ReplaceAll(data, []byte("${1}-- ${2}"))
	if string(patched) == string(data) {
		return nil
	}

	if err := os.WriteFile(path, patched, info.Mode().Perm()); err != nil {
		return errors.Wrapf(err, "failed to write schema file %s", path)
	}

	return nil
}

// Ping connects to the database at dsn and checks that it answers.
func Ping(ctx context.Context, dsn string) error {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return errors.Wrap(err, "failed to create database pool")
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		return errors.Wrap(err, "failed to ping database")
	}

	return nil
}
