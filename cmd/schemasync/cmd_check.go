package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hlop3z/schemasync/internal/alerr"
	"github.com/hlop3z/schemasync/internal/cli"
)

// checkCmd validates the expected schema snapshot. It needs no database.
func checkCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Validate the expected schema snapshot",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := a.newEngine(nil)
			if err != nil {
				return err
			}
			expected, err := e.FromFile(a.cfg.Expected)
			if err != nil {
				return err
			}
			s, err := expected.ReadSchema(cmd.Context())
			if err != nil {
				return err
			}

			result := e.Validate(s)
			fmt.Fprint(cmd.OutOrStdout(), cli.RenderValidation(result, a.flags.verbose))
			if !result.IsValid() {
				return alerr.New(alerr.ErrSchemaInvalid, fmt.Sprintf("%s is invalid", a.cfg.Expected)).
					With("errors", len(result.Errors))
			}
			return nil
		},
	}
}
