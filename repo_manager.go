package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"log"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dbfixture"
	"github.com/uptrace/bun/dialect"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

// Supported database drivers
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// ErrUnknownDriver is returned by OpenDB for unsupported drivers
var ErrUnknownDriver = errors.New("unknown database driver")

// RepositoryManager exposes all repositories
type RepositoryManager interface {
	Validate() error
	MustValidate()
	RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error
	Migrate(ctx context.Context) error
	Seed(ctx context.Context, fsys fs.FS, names ...string) error
	Users() Users
}

type mngr struct {
	db     *bun.DB
	users  Users
	logger Logger
}

// RepositoryManagerOption configures the manager
type RepositoryManagerOption func(*mngr)

// WithRepositoryLogger sets the logger used for migrations and seeding
func WithRepositoryLogger(logger Logger) RepositoryManagerOption {
	return func(m *mngr) {
		if logger != nil {
			m.logger = componentLogger(logger, "auth.repository")
		}
	}
}

// NewRepositoryManager returns a RepositoryManager over db
func NewRepositoryManager(db *bun.DB, opts ...RepositoryManagerOption) RepositoryManager {
	db.RegisterModel((*User)(nil))

	m := &mngr{
		db:     db,
		users:  NewUsersRepository(db),
		logger: newDefLogger("auth.repository"),
	}

	for _, opt := range opts {
		if opt != nil {
			opt(m)
		}
	}

	return m
}

// OpenDB opens a bun database for driver ("sqlite" or "postgres").
func OpenDB(driver, dsn string) (*bun.DB, error) {
	switch driver {
	case DriverSQLite, "":
		sqldb, err := sql.Open(sqliteshim.ShimName, dsn)
		if err != nil {
			return nil, err
		}
		return bun.NewDB(sqldb, sqlitedialect.New()), nil
	case DriverPostgres:
		sqldb, err := sql.Open("pgx", dsn)
		if err != nil {
			return nil, err
		}
		return bun.NewDB(sqldb, pgdialect.New()), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, driver)
	}
}

func (m mngr) Validate() error {
	if m.db == nil {
		return errors.New("database should be initialized")
	}

	if m.users == nil {
		return errors.New("repository users should be initialized")
	}

	return nil
}

func (m mngr) MustValidate() {
	if err := m.Validate(); err != nil {
		log.Panic(err)
	}
}

func (m mngr) RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return m.db.RunInTx(ctx, opts, f)
	}
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// Migrate applies the embedded schema migrations.
func (m mngr) Migrate(ctx context.Context) error {
	gooseDialect := "sqlite3"
	if m.db.Dialect().Name() == dialect.PG {
		gooseDialect = "pgx"
	}

	goose.SetBaseFS(GetMigrationsFS())
	goose.SetLogger(gooseLogger{logger: m.logger})
	if err := goose.SetDialect(gooseDialect); err != nil {
		return err
	}

	if err := gooseUpContext(ctx, m.db.DB, "."); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}

// Seed loads user fixtures from fsys when the users table is empty.
func (m mngr) Seed(ctx context.Context, fsys fs.FS, names ...string) error {
	count, err := m.users.Count(ctx)
	if err != nil {
		return fmt.Errorf("count users: %w", err)
	}

	if count > 0 {
		m.logger.Info("skipping seed, users table is not empty", "count", count)
		return nil
	}

	fixture := dbfixture.New(m.db)
	if err := fixture.Load(ctx, fsys, names...); err != nil {
		return fmt.Errorf("load fixtures: %w", err)
	}

	m.logger.Info("seeded users", "files", names)
	return nil
}

func (m mngr) Users() Users {
	return m.users
}

type gooseLogger struct {
	logger Logger
}

func (g gooseLogger) Printf(format string, v ...any) {
	g.logger.Info(fmt.Sprintf(format, v...))
}

func (g gooseLogger) Fatalf(format string, v ...any) {
	g.logger.Error(fmt.Sprintf(format, v...))
}
