package schemasync

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/hlop3z/schemasync/internal/alerr"
	"github.com/hlop3z/schemasync/internal/dialect"
	"github.com/hlop3z/schemasync/internal/drift"
	"github.com/hlop3z/schemasync/internal/engine"
	"github.com/hlop3z/schemasync/internal/engine/runner"
	"github.com/hlop3z/schemasync/internal/model"
	"github.com/hlop3z/schemasync/internal/reader"
	"github.com/hlop3z/schemasync/internal/schema"
	"github.com/hlop3z/schemasync/internal/snapshot"
	"github.com/hlop3z/schemasync/internal/validate"
)

// Engine runs read, validate, compare and migrate against one database.
// The hosting application owns db; the Engine never opens or closes it.
//
// An Engine is not safe for concurrent Sync calls on the same database.
type Engine struct {
	db       *sql.DB
	dialect  dialect.Dialect
	config   *Config
	logger   *slog.Logger
	live     *reader.Live
	migrator *runner.Migrator
}

// New creates an Engine for db. db may be nil for engines that only plan
// against snapshots; operations that need the database then fail with
// ErrNoDatabase.
func New(db *sql.DB, opts ...Option) (*Engine, error) {
	cfg := &Config{
		Options: schema.DefaultOptions(),
		Dialect: "sqlite",
	}
	for _, opt := range opts {
		opt(cfg)
	}

	d := dialect.Get(cfg.Dialect)
	if d == nil {
		return nil, alerr.New(alerr.EUnsupportedDialect, "unsupported dialect").
			With("dialect", cfg.Dialect).
			WithHelp(alerr.SuggestSimilar(cfg.Dialect, dialect.Names())).
			WithHelp("supported dialects: " + strings.Join(dialect.Names(), ", "))
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	e := &Engine{
		db:      db,
		dialect: d,
		config:  cfg,
		logger:  logger,
	}

	runnerOpts := []runner.Option{runner.WithLogger(logger), runner.WithHooks(cfg.Hooks...)}
	if db != nil {
		e.live = reader.NewLive(db, d, cfg.Options, nil)
		if cache := e.live.Cache(); cache != nil {
			runnerOpts = append(runnerOpts, runner.WithInvalidator(cache.Invalidate))
		}
	}
	e.migrator = runner.New(db, d, runnerOpts...)

	return e, nil
}

// Config returns a copy of the engine configuration.
func (e *Engine) Config() Config {
	return *e.config
}

// Dialect returns the database dialect name.
func (e *Engine) Dialect() string {
	return e.dialect.Name()
}

// Current returns the live catalog reader, or nil without a database.
func (e *Engine) Current() Reader {
	if e.live == nil {
		return nil
	}
	return e.live
}

// FromModel returns a reader deriving the expected schema from src.
func (e *Engine) FromModel(src model.Source) Reader {
	return reader.FromModel(src, e.config.Options)
}

// FromSchema returns a reader serving s as the expected schema.
func (e *Engine) FromSchema(s *schema.Schema) Reader {
	return reader.NewStatic(s, e.config.Options)
}

// FromFile loads a JSON snapshot as the expected schema.
func (e *Engine) FromFile(path string) (Reader, error) {
	s, err := snapshot.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return e.FromSchema(s), nil
}

// ReadCurrent reads the live database schema.
func (e *Engine) ReadCurrent(ctx context.Context) (*schema.Schema, error) {
	if e.live == nil {
		return nil, alerr.Wrap(alerr.ErrSQLConnection, ErrNoDatabase, "cannot read the database schema")
	}
	start := time.Now()
	s, err := e.live.ReadSchema(ctx)
	if err != nil {
		return nil, err
	}
	e.logger.Info("read current schema", "tables", s.Len(), "duration", time.Since(start))
	return s, nil
}

// Export writes the live database schema to path as a JSON snapshot.
func (e *Engine) Export(ctx context.Context, path string) (*schema.Schema, error) {
	s, err := e.ReadCurrent(ctx)
	if err != nil {
		return nil, err
	}
	if err := snapshot.WriteFile(path, s); err != nil {
		return nil, err
	}
	e.logger.Info("exported schema snapshot", "path", path, "tables", s.Len())
	return s, nil
}

// Validate checks s with the engine's dialect.
func (e *Engine) Validate(s *schema.Schema) *schema.ValidationResult {
	return validate.New(e.dialect).Validate(s)
}

// Plan is the outcome of the read, validate and compare phases.
type Plan struct {
	Current    *schema.Schema
	Expected   *schema.Schema
	Validation *schema.ValidationResult
	Diff       *schema.Diff
}

// Blocked reports whether validation errors prevent migrating the plan.
func (p *Plan) Blocked(opts schema.Options) bool {
	return opts.ValidateBeforeMigration && !p.Validation.IsValid()
}

// Plan reads the current and expected schemas, validates the expected one
// and computes the diff. Read errors are returned; validation errors are
// reported in the plan. ctx is checked between phases.
func (e *Engine) Plan(ctx context.Context, expected Reader) (*Plan, error) {
	if expected == nil {
		return nil, alerr.New(alerr.ErrModelInvalid, "no expected schema source")
	}

	current, err := e.ReadCurrent(ctx)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	want, err := expected.ReadSchema(ctx)
	if err != nil {
		return nil, err
	}
	e.logger.Info("read expected schema", "tables", want.Len())
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	validation := e.Validate(want)
	e.logger.Info("validated expected schema",
		"errors", len(validation.Errors),
		"warnings", len(validation.Warnings))
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	diff := engine.Compare(current, want, e.dialect)
	e.logger.Info("compared schemas",
		"operations", len(diff.Operations),
		"warnings", len(diff.Warnings))
	for _, w := range diff.Warnings {
		e.logger.Warn("comparer warning", "warning", w)
	}

	return &Plan{
		Current:    current,
		Expected:   want,
		Validation: validation,
		Diff:       diff,
	}, nil
}

// Sync converges the database on the expected schema. With dryRun the SQL is
// only rendered. Read errors and cancellation before the batch starts are
// returned as errors; validation and execution failures are reported in the
// result. Comparer warnings are carried in the result's warnings.
func (e *Engine) Sync(ctx context.Context, expected Reader, dryRun bool) (*schema.MigrationResult, error) {
	plan, err := e.Plan(ctx, expected)
	if err != nil {
		return nil, err
	}
	return e.Apply(ctx, plan, dryRun)
}

// Apply migrates a plan computed by Plan.
func (e *Engine) Apply(ctx context.Context, plan *Plan, dryRun bool) (*schema.MigrationResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if plan.Blocked(e.config.Options) {
		res := &schema.MigrationResult{DryRun: dryRun, SQLExecuted: []string{}}
		res.AddError(alerr.New(alerr.ErrMigrationBlocked,
			fmt.Sprintf("expected schema has %d validation errors; migration not started", len(plan.Validation.Errors))).
			With("errors", strings.Join(plan.Validation.Errors, "; ")))
		res.Warnings = append(res.Warnings, plan.Diff.Warnings...)
		e.logger.Error("migration blocked by validation", "errors", len(plan.Validation.Errors))
		return res, nil
	}

	res := e.migrator.Migrate(ctx, plan.Diff, dryRun)
	res.Warnings = append(append([]string{}, plan.Diff.Warnings...), res.Warnings...)
	return res, nil
}

// Check reports drift between the database and the expected schema without
// migrating.
func (e *Engine) Check(ctx context.Context, expected Reader) (*drift.Result, error) {
	if expected == nil {
		return nil, alerr.New(alerr.ErrModelInvalid, "no expected schema source")
	}
	if e.live == nil {
		return nil, alerr.Wrap(alerr.ErrSQLConnection, ErrNoDatabase, "cannot check drift")
	}

	want, err := expected.ReadSchema(ctx)
	if err != nil {
		return nil, err
	}
	result, err := drift.NewDetector(e.live).Detect(ctx, want)
	if err != nil {
		return nil, err
	}
	e.logger.Info("checked drift",
		"drift", result.HasDrift,
		"expected_hash", result.ExpectedHash,
		"actual_hash", result.ActualHash)
	return result, nil
}
