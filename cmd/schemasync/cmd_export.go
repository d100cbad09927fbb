package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hlop3z/schemasync/internal/cli"
	"github.com/hlop3z/schemasync/internal/snapshot"
)

// exportCmd writes the database schema as a JSON snapshot.
func exportCmd(a *app) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the database schema to a JSON snapshot",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			e, closeDB, err := a.engine(ctx)
			if err != nil {
				return err
			}
			defer closeDB()

			if output == "-" {
				s, err := e.ReadCurrent(ctx)
				if err != nil {
					return err
				}
				data, err := snapshot.ToJSON(s)
				if err != nil {
					return err
				}
				_, err = cmd.OutOrStdout().Write(data)
				return err
			}

			path := output
			if path == "" {
				path = a.cfg.Expected
			}
			s, err := e.Export(ctx, path)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("wrote %s to %s",
				cli.FormatCount(s.Len(), "table", "tables"), path)))
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file, or - for stdout (default: the expected snapshot path)")
	return cmd
}
