package main

import (
	"path/filepath"
	"reflect"
	"testing"

	"github.com/spf13/pflag"

	"github.com/hlop3z/schemasync/internal/testutil"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("SCHEMASYNC_DATABASE", "")
	t.Setenv("SCHEMASYNC_EXPECTED", "")

	cfg, err := loadConfig(&flagValues{configFile: filepath.Join(t.TempDir(), "missing.yaml")})
	testutil.AssertNoError(t, err)

	if !reflect.DeepEqual(cfg, defaultConfig()) {
		t.Errorf("loadConfig() = %+v, want defaults", cfg)
	}
	if !cfg.Options.ValidateBeforeMigration {
		t.Error("validation should be on by default")
	}
}

func TestLoadConfig_File(t *testing.T) {
	t.Setenv("SCHEMASYNC_DATABASE", "")
	t.Setenv("SCHEMASYNC_EXPECTED", "")
	t.Setenv("DATA_DIR", "/var/lib/app")

	path := filepath.Join(t.TempDir(), "schemasync.yaml")
	testutil.WriteFile(t, path, `
database: ${DATA_DIR}/app.db
expected: schema/expected.json
options:
  ignored_tables: [Audit]
  ignored_columns: [Users.Legacy]
  enable_caching: true
`)

	cfg, err := loadConfig(&flagValues{configFile: path})
	testutil.AssertNoError(t, err)

	testutil.AssertEqual(t, cfg.Database, "/var/lib/app/app.db")
	testutil.AssertEqual(t, cfg.Expected, "schema/expected.json")
	testutil.AssertEqual(t, cfg.Dialect, "sqlite")
	if !reflect.DeepEqual(cfg.Options.IgnoredTables, []string{"Audit"}) {
		t.Errorf("IgnoredTables = %v", cfg.Options.IgnoredTables)
	}
	if !reflect.DeepEqual(cfg.Options.IgnoredColumns, []string{"Users.Legacy"}) {
		t.Errorf("IgnoredColumns = %v", cfg.Options.IgnoredColumns)
	}
	if !cfg.Options.EnableCaching {
		t.Error("EnableCaching should be read from the file")
	}
	// Keys absent from the file keep their defaults.
	if !cfg.Options.ValidateBeforeMigration {
		t.Error("ValidateBeforeMigration should keep its default")
	}
}

func TestLoadConfig_Precedence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "schemasync.yaml")
	testutil.WriteFile(t, path, "database: file.db\nexpected: file.json\n")

	tests := []struct {
		name         string
		env          map[string]string
		flags        flagValues
		wantDatabase string
		wantExpected string
	}{
		{
			name:         "file",
			wantDatabase: "file.db",
			wantExpected: "file.json",
		},
		{
			name:         "env overrides file",
			env:          map[string]string{"SCHEMASYNC_DATABASE": "env.db", "SCHEMASYNC_EXPECTED": "env.json"},
			wantDatabase: "env.db",
			wantExpected: "env.json",
		},
		{
			name:         "flags override env",
			env:          map[string]string{"SCHEMASYNC_DATABASE": "env.db", "SCHEMASYNC_EXPECTED": "env.json"},
			flags:        flagValues{database: "flag.db", expected: "flag.json"},
			wantDatabase: "flag.db",
			wantExpected: "flag.json",
		},
		{
			name:         "flags override file field by field",
			flags:        flagValues{database: "flag.db"},
			wantDatabase: "flag.db",
			wantExpected: "file.json",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("SCHEMASYNC_DATABASE", "")
			t.Setenv("SCHEMASYNC_EXPECTED", "")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			flags := tt.flags
			flags.configFile = path
			cfg, err := loadConfig(&flags)
			testutil.AssertNoError(t, err)
			testutil.AssertEqual(t, cfg.Database, tt.wantDatabase)
			testutil.AssertEqual(t, cfg.Expected, tt.wantExpected)
		})
	}
}

func TestLoadConfig_InvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "schemasync.yaml")
	testutil.WriteFile(t, path, "database: [unterminated\n")

	_, err := loadConfig(&flagValues{configFile: path})
	testutil.AssertErrorContains(t, err, "failed to parse config file")
}

func TestLoadConfig_UnreadableFile(t *testing.T) {
	// A directory in place of the file is a read error, not "not found".
	_, err := loadConfig(&flagValues{configFile: t.TempDir()})
	testutil.AssertErrorContains(t, err, "failed to read config file")
}

func TestAddGlobalFlags(t *testing.T) {
	var f flagValues
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	addGlobalFlags(fs, &f)

	err := fs.Parse([]string{"-d", "app.db", "--expected=want.json", "-v", "--no-color"})
	testutil.AssertNoError(t, err)

	testutil.AssertEqual(t, f.configFile, "schemasync.yaml")
	testutil.AssertEqual(t, f.database, "app.db")
	testutil.AssertEqual(t, f.expected, "want.json")
	testutil.AssertEqual(t, f.verbose, true)
	testutil.AssertEqual(t, f.noColor, true)
}
