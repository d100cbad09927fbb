// Package main provides the schemasync command. It converges a SQLite
// database on the schema recorded in a JSON snapshot, without a migration
// history.
//
// Usage:
//
//	schemasync check             # Validate the expected schema snapshot
//	schemasync diff [--watch]    # Show the operations a migration would run
//	schemasync migrate [--dry-run]
//	schemasync export -o FILE    # Write the database schema as a snapshot
//	schemasync status            # Report drift between database and snapshot
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/hlop3z/schemasync/internal/cli"

	// Database driver
	_ "modernc.org/sqlite"
)

// version is set via ldflags during build: -ldflags="-X main.version=v1.0.0"
var version = "dev"

func newRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:           "schemasync",
		Short:         "Converge a SQLite database on an expected schema",
		Long:          `schemasync compares a live SQLite database with an expected schema snapshot and applies the missing tables, columns, indexes and foreign keys in one transaction. Nothing is ever dropped.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if a.flags.noColor {
				cli.SetDefault(&cli.Config{Mode: cli.ModePlain, Writer: cmd.OutOrStdout()})
			}
			return a.load(cmd)
		},
	}

	addGlobalFlags(rootCmd.PersistentFlags(), &a.flags)

	rootCmd.AddCommand(
		checkCmd(a),
		diffCmd(a),
		migrateCmd(a),
		exportCmd(a),
		statusCmd(a),
	)
	return rootCmd
}

// addGlobalFlags registers the flags shared by every command.
func addGlobalFlags(fs *pflag.FlagSet, f *flagValues) {
	fs.StringVarP(&f.configFile, "config", "c", "schemasync.yaml", "Path to config file")
	fs.StringVarP(&f.database, "database", "d", "", "SQLite database file (env SCHEMASYNC_DATABASE)")
	fs.StringVarP(&f.expected, "expected", "e", "", "Expected schema snapshot (default: schema.json)")
	fs.BoolVarP(&f.verbose, "verbose", "v", false, "Log every phase and statement")
	fs.BoolVar(&f.noColor, "no-color", false, "Disable colored output")
	fs.SortFlags = false
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprint(os.Stderr, cli.FormatError(err))
		os.Exit(1)
	}
}
