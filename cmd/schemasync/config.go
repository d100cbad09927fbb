package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/hlop3z/schemasync/internal/schema"
)

// Config represents the schemasync.yaml configuration file.
type Config struct {
	// Database is the path of the SQLite database file.
	Database string `yaml:"database"`

	// Expected is the JSON snapshot holding the expected schema.
	Expected string `yaml:"expected"`

	Dialect string         `yaml:"dialect"`
	Options schema.Options `yaml:"options"`
}

// flagValues are the global flags of the root command.
type flagValues struct {
	configFile string
	database   string
	expected   string
	verbose    bool
	noColor    bool
}

func defaultConfig() *Config {
	return &Config{
		Expected: "schema.json",
		Dialect:  "sqlite",
		Options:  schema.DefaultOptions(),
	}
}

// loadConfig loads configuration from file, env vars, and CLI flags.
// Precedence: CLI flags > env vars > config file > defaults
func loadConfig(flags *flagValues) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(flags.configFile)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", flags.configFile, err)
		}
		cfg.Database = expandEnvVars(cfg.Database)
		cfg.Expected = expandEnvVars(cfg.Expected)
	case !os.IsNotExist(err):
		return nil, fmt.Errorf("failed to read config file %s: %w", flags.configFile, err)
	}

	if env := os.Getenv("SCHEMASYNC_DATABASE"); env != "" {
		cfg.Database = env
	}
	if env := os.Getenv("SCHEMASYNC_EXPECTED"); env != "" {
		cfg.Expected = env
	}

	if flags.database != "" {
		cfg.Database = flags.database
	}
	if flags.expected != "" {
		cfg.Expected = flags.expected
	}

	return cfg, nil
}

// expandEnvVars expands ${VAR} patterns in a string.
func expandEnvVars(s string) string {
	return os.Expand(s, os.Getenv)
}
