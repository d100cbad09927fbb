package main

import (
	"context"
	"database/sql"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/hlop3z/schemasync/internal/alerr"
	"github.com/hlop3z/schemasync/pkg/schemasync"
)

// app is the state shared by the commands of one invocation.
type app struct {
	flags  flagValues
	cfg    *Config
	logger *slog.Logger
}

// newLogger writes text logs to w; verbose lowers the level to debug.
func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func (a *app) load(cmd *cobra.Command) error {
	cfg, err := loadConfig(&a.flags)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.logger = newLogger(cmd.ErrOrStderr(), a.flags.verbose)
	return nil
}

// openDatabase opens the configured SQLite file.
func (a *app) openDatabase(ctx context.Context) (*sql.DB, error) {
	if a.cfg.Database == "" {
		return nil, alerr.New(alerr.ErrSQLConnection, "no database configured").
			WithHelp("pass --database, set SCHEMASYNC_DATABASE, or add 'database:' to schemasync.yaml")
	}
	db, err := sql.Open("sqlite", a.cfg.Database)
	if err != nil {
		return nil, alerr.Wrap(alerr.ErrSQLConnection, err, "failed to open database").
			With("database", a.cfg.Database)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, alerr.Wrap(alerr.ErrSQLConnection, err, "failed to connect to database").
			With("database", a.cfg.Database)
	}
	return db, nil
}

// engine returns an Engine on the configured database; close releases it.
func (a *app) engine(ctx context.Context) (e *schemasync.Engine, closeFn func(), err error) {
	db, err := a.openDatabase(ctx)
	if err != nil {
		return nil, nil, err
	}
	e, err = a.newEngine(db)
	if err != nil {
		db.Close()
		return nil, nil, err
	}
	return e, func() { db.Close() }, nil
}

func (a *app) newEngine(db *sql.DB) (*schemasync.Engine, error) {
	return schemasync.New(db,
		schemasync.WithOptions(a.cfg.Options),
		schemasync.WithDialect(a.cfg.Dialect),
		schemasync.WithLogger(a.logger),
	)
}
