package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/hlop3z/schemasync/internal/alerr"
	"github.com/hlop3z/schemasync/internal/cli"
)

// diffCmd shows the operations a migration would run.
func diffCmd(a *app) *cobra.Command {
	var watch bool

	cmd := &cobra.Command{
		Use:   "diff",
		Short: "Show the operations a migration would run",
		Long:  `Compares the database with the expected schema and prints each operation with its SQL. With --watch the plan is printed again whenever the snapshot file changes.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			out := cmd.OutOrStdout()

			if !watch {
				return a.printPlan(ctx, out)
			}

			ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()

			if err := a.printPlan(ctx, out); err != nil {
				fmt.Fprint(cmd.ErrOrStderr(), cli.FormatError(err))
			}
			fmt.Fprintln(out, cli.Dim("Watching "+a.cfg.Expected+" (Ctrl+C to stop)"))

			return watchExpected(ctx, a.cfg.Expected, func() {
				fmt.Fprintln(out)
				if err := a.printPlan(ctx, out); err != nil {
					fmt.Fprint(cmd.ErrOrStderr(), cli.FormatError(err))
				}
			})
		},
	}

	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "Re-plan whenever the expected snapshot changes")
	return cmd
}

// printPlan computes and renders one plan.
func (a *app) printPlan(ctx context.Context, out io.Writer) error {
	e, closeDB, err := a.engine(ctx)
	if err != nil {
		return err
	}
	defer closeDB()

	expected, err := e.FromFile(a.cfg.Expected)
	if err != nil {
		return err
	}
	plan, err := e.Plan(ctx, expected)
	if err != nil {
		return err
	}

	if !plan.Validation.IsValid() || len(plan.Validation.Warnings) > 0 {
		fmt.Fprint(out, cli.RenderValidation(plan.Validation, a.flags.verbose))
	}
	fmt.Fprint(out, cli.RenderDiff(plan.Diff))

	if plan.Blocked(e.Config().Options) {
		return alerr.New(alerr.ErrMigrationBlocked, "expected schema is invalid; migrate would not run").
			With("errors", len(plan.Validation.Errors))
	}
	return nil
}

// watchDebounce collapses the burst of events editors emit on save.
const watchDebounce = 100 * time.Millisecond

// watchExpected calls onChange after path is written, created or replaced,
// until ctx is done. The parent directory is watched so that editors which
// save through a rename are still observed.
func watchExpected(ctx context.Context, path string, onChange func()) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to start file watcher: %w", err)
	}
	defer watcher.Close()

	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(abs), err)
	}

	var pending <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != abs {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				pending = time.After(watchDebounce)
			}
		case <-pending:
			pending = nil
			onChange()
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("file watcher: %w", err)
		}
	}
}
