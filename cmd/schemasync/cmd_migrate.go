package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hlop3z/schemasync/internal/alerr"
	"github.com/hlop3z/schemasync/internal/cli"
)

// migrateCmd converges the database on the expected schema.
func migrateCmd(a *app) *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply the missing tables, columns, indexes and foreign keys",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			e, closeDB, err := a.engine(ctx)
			if err != nil {
				return err
			}
			defer closeDB()

			expected, err := e.FromFile(a.cfg.Expected)
			if err != nil {
				return err
			}
			res, err := e.Sync(ctx, expected, dryRun)
			if err != nil {
				return err
			}

			fmt.Fprint(cmd.OutOrStdout(), cli.RenderResult(res))
			if !res.Success {
				return alerr.New(alerr.ErrMigrationFailed, "migration did not complete").
					With("errors", len(res.Errors))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Print the SQL without executing it")
	return cmd
}
