package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/hlop3z/schemasync/internal/drift"
)

// statusCmd reports drift between the database and the expected schema.
func statusCmd(a *app) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Report drift between the database and the expected schema",
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
			result, err := e.Check(ctx, expected)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			switch format {
			case "text":
				fmt.Fprint(out, drift.FormatResult(result))
			case "yaml":
				data, err := yaml.Marshal(drift.Summarize(result))
				if err != nil {
					return fmt.Errorf("failed to encode status: %w", err)
				}
				_, err = out.Write(data)
				return err
			case "json":
				data, err := json.MarshalIndent(drift.Summarize(result), "", "  ")
				if err != nil {
					return fmt.Errorf("failed to encode status: %w", err)
				}
				fmt.Fprintln(out, string(data))
			default:
				return fmt.Errorf("unknown format %q (valid: text, yaml, json)", format)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "text", "Output format: text, yaml, json")
	return cmd
}
