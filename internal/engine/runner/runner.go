// Package runner executes a schema diff against a database in a single
// transaction.
package runner

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hlop3z/schemasync/internal/alerr"
	"github.com/hlop3z/schemasync/internal/dialect"
	"github.com/hlop3z/schemasync/internal/schema"
)

// Migrator applies diffs to one database.
type Migrator struct {
	db         *sql.DB
	dialect    dialect.Dialect
	logger     *slog.Logger
	hooks      []Hook
	invalidate func()
}

// Option configures a Migrator.
type Option func(*Migrator)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(m *Migrator) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithHooks appends hooks, called in order.
func WithHooks(hooks ...Hook) Option {
	return func(m *Migrator) {
		for _, h := range hooks {
			if h != nil {
				m.hooks = append(m.hooks, h)
			}
		}
	}
}

// WithInvalidator sets a function called after every committed run, so
// schema caches of the database can be dropped.
func WithInvalidator(fn func()) Option {
	return func(m *Migrator) {
		m.invalidate = fn
	}
}

// New creates a Migrator for db. db may be nil when only dry runs are made.
func New(db *sql.DB, d dialect.Dialect, opts ...Option) *Migrator {
	m := &Migrator{db: db, dialect: d, logger: slog.Default()}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// batch is an open migration session: a pinned connection with the
// dialect's session settings and the batch transaction.
type batch struct {
	conn    *sql.Conn
	restore func(context.Context) error
	tx      *sql.Tx
}

// Migrate applies diff. With dryRun the statements are only rendered; the
// result lists the same SQL a real run executes. A real run executes every
// statement in one transaction and either commits all of them or none.
//
// Cancelling ctx after the batch has started does not interrupt it; the
// batch always commits or rolls back as a whole.
func (m *Migrator) Migrate(ctx context.Context, diff *schema.Diff, dryRun bool) *schema.MigrationResult {
	if diff == nil {
		diff = &schema.Diff{}
	}
	start := time.Now()
	res := &schema.MigrationResult{DryRun: dryRun, SQLExecuted: []string{}}
	mc := &Context{
		Diff:       diff,
		DryRun:     dryRun,
		DB:         m.db,
		Properties: make(map[string]any),
		RunID:      uuid.New(),
		StartedAt:  start,
	}
	log := m.logger.With("run_id", mc.RunID.String(), "dry_run", dryRun)

	var b *batch
	if !dryRun && diff.HasChanges() {
		var err error
		if b, err = m.begin(context.WithoutCancel(ctx)); err != nil {
			res.AddError(err)
			log.Error("could not start migration", "error", err)
		} else {
			mc.Tx = b.tx
		}
	}

	m.before(ctx, mc, res, log)

	if len(res.Errors) == 0 {
		switch {
		case !diff.HasChanges():
			res.Success = true
		case dryRun:
			res.SQLExecuted = append(res.SQLExecuted, diff.Statements()...)
			res.Success = true
		default:
			m.execute(context.WithoutCancel(ctx), b, diff, res, log)
		}
	}

	if b != nil {
		mc.Tx = nil
		if err := b.close(context.WithoutCancel(ctx)); err != nil {
			res.AddWarning("could not restore session settings: %v", err)
			log.Warn("could not restore session settings", "error", err)
		}
	}

	res.Duration = time.Since(start)
	m.after(ctx, mc, res, log)

	log.Info("migration finished",
		"success", res.Success,
		"operations", len(diff.Operations),
		"statements", len(res.SQLExecuted),
		"duration", res.Duration)
	return res
}

func (m *Migrator) begin(ctx context.Context) (*batch, error) {
	if m.db == nil {
		return nil, alerr.New(alerr.ErrSQLConnection, "no database connection")
	}
	if m.dialect == nil {
		return nil, alerr.New(alerr.EUnsupportedDialect, "no dialect configured")
	}

	conn, err := m.db.Conn(ctx)
	if err != nil {
		return nil, alerr.Wrap(alerr.ErrSQLConnection, err, "failed to acquire connection")
	}

	restore, err := m.dialect.BeginSession(ctx, conn)
	if err != nil {
		conn.Close()
		return nil, err
	}

	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		_ = restore(ctx)
		conn.Close()
		return nil, alerr.Wrap(alerr.ErrSQLTransaction, err, "failed to begin transaction")
	}

	return &batch{conn: conn, restore: restore, tx: tx}, nil
}

// close rolls back an unfinished transaction, restores the session and
// returns the connection to the pool.
func (b *batch) close(ctx context.Context) error {
	if b.tx != nil {
		_ = b.tx.Rollback()
	}
	return errors.Join(b.restore(ctx), b.conn.Close())
}

func (m *Migrator) execute(ctx context.Context, b *batch, diff *schema.Diff, res *schema.MigrationResult, log *slog.Logger) {
	log.Info("applying migration", "operations", len(diff.Operations))

	for _, op := range diff.Operations {
		log.Info("applying operation", "kind", op.Kind().String(), "table", op.Table(), "description", op.Description())
		for _, stmt := range op.SQL() {
			log.Debug("executing statement", "sql", stmt)
			if _, err := b.tx.ExecContext(ctx, stmt); err != nil {
				m.rollback(b, res, log, alerr.Wrap(alerr.ErrMigrationFailed, err, "statement failed; migration rolled back").
					WithTable(op.Table()).
					WithSQL(stmt).
					With("operation", op.Description()))
				return
			}
			res.SQLExecuted = append(res.SQLExecuted, stmt)
		}
	}

	if rebuilt := rebuiltTables(diff); len(rebuilt) > 0 {
		if err := m.dialect.Verify(ctx, b.tx, rebuilt); err != nil {
			m.rollback(b, res, log, err)
			return
		}
	}

	if err := b.tx.Commit(); err != nil {
		b.tx = nil
		res.AddError(alerr.Wrap(alerr.ErrSQLTransaction, err, "failed to commit migration"))
		log.Error("commit failed", "error", err)
		return
	}
	b.tx = nil
	res.Success = true

	if m.invalidate != nil {
		m.invalidate()
	}
}

// rebuiltTables returns the tables that received foreign keys, once each.
func rebuiltTables(diff *schema.Diff) []string {
	var tables []string
	seen := make(map[string]bool)
	for _, op := range diff.Operations {
		if op.Kind() != schema.OpAddForeignKey {
			continue
		}
		key := strings.ToLower(op.Table())
		if !seen[key] {
			seen[key] = true
			tables = append(tables, op.Table())
		}
	}
	return tables
}

func (m *Migrator) rollback(b *batch, res *schema.MigrationResult, log *slog.Logger, cause error) {
	res.AddError(cause)
	if err := b.tx.Rollback(); err != nil {
		res.AddError(alerr.Wrap(alerr.ErrSQLTransaction, err, "rollback failed"))
	}
	b.tx = nil
	log.Error("migration rolled back", "error", cause, "executed", len(res.SQLExecuted))
}

// -----------------------------------------------------------------------------
// Hooks
// -----------------------------------------------------------------------------

func (m *Migrator) before(ctx context.Context, mc *Context, res *schema.MigrationResult, log *slog.Logger) {
	for i, h := range m.hooks {
		if err := callHook(func() error { return h.OnBeforeMigration(ctx, mc) }); err != nil {
			res.AddWarning("hook %d: OnBeforeMigration: %v", i, err)
			log.Warn("migration hook failed", "hook", i, "phase", "before", "error", err)
		}
	}
}

func (m *Migrator) after(ctx context.Context, mc *Context, res *schema.MigrationResult, log *slog.Logger) {
	for i, h := range m.hooks {
		if err := callHook(func() error { return h.OnAfterMigration(ctx, mc, res) }); err != nil {
			res.AddWarning("hook %d: OnAfterMigration: %v", i, err)
			log.Warn("migration hook failed", "hook", i, "phase", "after", "error", err)
		}
	}
}

// callHook runs fn, turning a panic into an error.
func callHook(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = alerr.New(alerr.ErrHookFailed, fmt.Sprintf("hook panicked: %v", r))
		}
	}()
	return fn()
}
