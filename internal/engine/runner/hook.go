package runner

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/hlop3z/schemasync/internal/schema"
)

// Context describes one migration run to hooks.
type Context struct {
	// Diff is the batch being applied.
	Diff *schema.Diff

	// DryRun is true when the SQL is only rendered.
	DryRun bool

	// DB is the database the run targets. Nil-safe for dry runs.
	DB *sql.DB

	// Tx is the batch transaction while the run is executing; nil for dry
	// runs and once the transaction has finished.
	Tx *sql.Tx

	// Properties carries state between a hook's before and after calls.
	Properties map[string]any

	// RunID correlates the log lines and hook calls of one run.
	RunID uuid.UUID

	StartedAt time.Time
}

// Hook observes migration runs. OnBeforeMigration is called once before the
// first statement and OnAfterMigration once after the run ends, successful
// or not. Errors and panics from hooks become warnings on the result; they
// never fail the migration.
type Hook interface {
	OnBeforeMigration(ctx context.Context, mc *Context) error
	OnAfterMigration(ctx context.Context, mc *Context, result *schema.MigrationResult) error
}

// HookFuncs adapts a pair of functions to Hook. Nil functions are skipped.
type HookFuncs struct {
	Before func(ctx context.Context, mc *Context) error
	After  func(ctx context.Context, mc *Context, result *schema.MigrationResult) error
}

func (h HookFuncs) OnBeforeMigration(ctx context.Context, mc *Context) error {
	if h.Before == nil {
		return nil
	}
	return h.Before(ctx, mc)
}

func (h HookFuncs) OnAfterMigration(ctx context.Context, mc *Context, result *schema.MigrationResult) error {
	if h.After == nil {
		return nil
	}
	return h.After(ctx, mc, result)
}
