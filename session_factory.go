package auth

import (
	"context"
	"database/sql"
	"strings"

	"github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/driver/sqliteshim"
)

// PoolMode is the pooling strategy selected from the DSN shape.
type PoolMode string

const (
	// PoolModeMemory keeps one always-open connection so concurrent
	// scopes observe the same in-memory database.
	PoolModeMemory PoolMode = "memory"
	// PoolModeFile keeps no idle connections; every scope gets a fresh
	// checkout so the single-writer lock is never held between scopes.
	PoolModeFile PoolMode = "file"
	// PoolModeNetwork uses the driver's standard pooling discipline.
	PoolModeNetwork PoolMode = "network"
)

// SessionFactory owns the database handle and produces the short-lived
// sessions every other component borrows. It is process-wide state with
// an explicit lifecycle: build it once from configuration at startup and
// Close it at shutdown.
type SessionFactory struct {
	db     *bun.DB
	mode   PoolMode
	logger Logger
}

type SessionFactoryOption func(*SessionFactory)

func WithSessionFactoryLogger(l Logger) SessionFactoryOption {
	return func(f *SessionFactory) {
		if l != nil {
			f.logger = l
		}
	}
}

// NewSessionFactory opens the store behind dsn and configures the pool
// for its shape. SQLite DSNs go through sqliteshim, postgres DSNs through
// pgdriver.
func NewSessionFactory(dsn string, opts ...SessionFactoryOption) (*SessionFactory, error) {
	mode := resolvePoolMode(dsn)

	var sqldb *sql.DB
	var db *bun.DB
	var err error

	if mode == PoolModeNetwork {
		sqldb = sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
		db = bun.NewDB(sqldb, pgdialect.New())
	} else {
		sqldb, err = sql.Open(sqliteshim.ShimName, dsn)
		if err != nil {
			return nil, errors.Wrap(err, errors.CategoryInternal, "failed to open database")
		}
		db = bun.NewDB(sqldb, sqlitedialect.New())
	}

	switch mode {
	case PoolModeMemory:
		// A second connection would see an empty database; everything
		// shares the one slot and the narrow-session discipline keeps the
		// serialization bearable.
		sqldb.SetMaxOpenConns(1)
		sqldb.SetMaxIdleConns(1)
		sqldb.SetConnMaxLifetime(0)
		sqldb.SetConnMaxIdleTime(0)
	case PoolModeFile:
		sqldb.SetMaxIdleConns(0)
	}

	f := &SessionFactory{
		db:     db,
		mode:   mode,
		logger: defLogger{},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(f)
		}
	}

	return f, nil
}

func resolvePoolMode(dsn string) PoolMode {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		return PoolModeNetwork
	}
	if strings.Contains(dsn, ":memory:") || strings.Contains(dsn, "mode=memory") || dsn == "" {
		return PoolModeMemory
	}
	return PoolModeFile
}

// Mode returns the pooling strategy in effect.
func (f *SessionFactory) Mode() PoolMode {
	return f.mode
}

// DB exposes the underlying handle for schema setup and repositories.
func (f *SessionFactory) DB() *bun.DB {
	return f.db
}

// Close releases the pool. Safe to call once at shutdown.
func (f *SessionFactory) Close() error {
	return f.db.Close()
}

// RunInSession checks a single connection out of the pool, runs fn with
// it, and returns it on every exit path. Values loaded inside fn must be
// copied out if they are needed afterwards; nothing read through the
// session stays bound to it.
func (f *SessionFactory) RunInSession(ctx context.Context, fn func(ctx context.Context, session bun.IDB) error) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	conn, err := f.db.Conn(ctx)
	if err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "failed to check out session")
	}
	defer func() {
		if cerr := conn.Close(); cerr != nil {
			f.logger.Warn("session close error", "error", cerr)
		}
	}()

	return fn(ctx, conn)
}

// RunInTx runs fn inside a transaction; pending writes roll back when fn
// errors.
func (f *SessionFactory) RunInTx(ctx context.Context, opts *sql.TxOptions, fn func(ctx context.Context, tx bun.Tx) error) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return f.db.RunInTx(ctx, opts, fn)
	}
}

var (
	_ SessionRunner     = (*SessionFactory)(nil)
	_ TransactionRunner = (*SessionFactory)(nil)
)
