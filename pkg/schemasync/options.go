package schemasync

import (
	"log/slog"

	"github.com/hlop3z/schemasync/internal/engine/runner"
	"github.com/hlop3z/schemasync/internal/schema"
)

// Config holds all configuration of an Engine.
type Config struct {
	// Options filters the schemas and controls validation and caching.
	// Default: schema.DefaultOptions() (validation on, caching off).
	Options schema.Options

	// Dialect names the database dialect. Default: "sqlite".
	Dialect string

	// Logger receives phase and statement logs. Default: slog.Default().
	Logger *slog.Logger

	// Hooks observe every migration run, in order.
	Hooks []runner.Hook
}

// Option is a functional option for configuring the Engine.
type Option func(*Config)

// WithOptions replaces the schema options.
func WithOptions(o schema.Options) Option {
	return func(c *Config) {
		c.Options = o
	}
}

// WithIgnoredTables excludes tables from reading and comparison.
func WithIgnoredTables(tables ...string) Option {
	return func(c *Config) {
		c.Options.IgnoredTables = append(c.Options.IgnoredTables, tables...)
	}
}

// WithIgnoredColumns excludes columns, given as "Table.Column" or as
// "Column" for every table.
func WithIgnoredColumns(columns ...string) Option {
	return func(c *Config) {
		c.Options.IgnoredColumns = append(c.Options.IgnoredColumns, columns...)
	}
}

// WithValidateBeforeMigration sets whether validation errors in the expected
// schema block Sync.
func WithValidateBeforeMigration(enabled bool) Option {
	return func(c *Config) {
		c.Options.ValidateBeforeMigration = enabled
	}
}

// WithCaching sets whether the live reader reuses its snapshot while the
// database schema is unchanged.
func WithCaching(enabled bool) Option {
	return func(c *Config) {
		c.Options.EnableCaching = enabled
	}
}

// WithHooks appends migration hooks.
func WithHooks(hooks ...runner.Hook) Option {
	return func(c *Config) {
		c.Hooks = append(c.Hooks, hooks...)
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Config) {
		c.Logger = l
	}
}

// WithDialect explicitly sets the database dialect.
// Valid values: "sqlite"
func WithDialect(name string) Option {
	return func(c *Config) {
		c.Dialect = name
	}
}
