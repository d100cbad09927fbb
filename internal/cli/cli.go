// Package cli provides Cargo/rustc-style terminal output for the schemasync
// command: colored diagnostics, operation lists and migration reports.
package cli

import (
	"io"
	"os"

	"github.com/mattn/go-isatty"
)

// OutputMode determines how output is formatted.
type OutputMode int

const (
	// ModeTTY enables colored output for interactive terminals.
	ModeTTY OutputMode = iota
	// ModePlain outputs plain text without colors (for pipes/CI).
	ModePlain
)

// Config holds output configuration. It is auto-detected.
type Config struct {
	Mode   OutputMode
	Writer io.Writer
}

// DefaultConfig returns the auto-detected configuration:
//   - stdout is a TTY and NO_COLOR is unset -> ModeTTY
//   - otherwise, or with TERM=dumb -> ModePlain
func DefaultConfig() *Config {
	return detect(os.Stdout)
}

func detect(f *os.File) *Config {
	mode := ModePlain
	if isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd()) {
		mode = ModeTTY
	}
	if os.Getenv("NO_COLOR") != "" || os.Getenv("TERM") == "dumb" {
		mode = ModePlain
	}
	return &Config{Mode: mode, Writer: f}
}

// IsTTY returns true if running in interactive terminal mode.
func (c *Config) IsTTY() bool {
	return c.Mode == ModeTTY
}

// IsPlain returns true if running in plain text mode.
func (c *Config) IsPlain() bool {
	return c.Mode == ModePlain
}

// Global default config, initialized lazily.
var defaultCfg *Config

// Default returns the global default configuration.
func Default() *Config {
	if defaultCfg == nil {
		defaultCfg = DefaultConfig()
	}
	return defaultCfg
}

// SetDefault sets the global default configuration.
// Used for testing or when --no-color is passed.
func SetDefault(cfg *Config) {
	defaultCfg = cfg
}

// EnableColors returns true if colors should be used.
func EnableColors() bool {
	return Default().IsTTY()
}
