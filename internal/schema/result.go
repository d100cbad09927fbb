package schema

import (
	"fmt"
	"time"
)

// ValidationResult collects the findings of a validation pass.
// Only Errors make a schema invalid.
type ValidationResult struct {
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
	Info     []string `json:"info"`
}

// IsValid reports whether no hard error was found.
func (r *ValidationResult) IsValid() bool {
	return r == nil || len(r.Errors) == 0
}

// AddError records a hard error.
func (r *ValidationResult) AddError(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

// AddWarning records a non-blocking warning.
func (r *ValidationResult) AddWarning(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

// AddInfo records an informational note.
func (r *ValidationResult) AddInfo(format string, args ...any) {
	r.Info = append(r.Info, fmt.Sprintf(format, args...))
}

// MigrationResult reports the outcome of executing (or simulating) a Diff.
type MigrationResult struct {
	Success     bool          `json:"success"`
	DryRun      bool          `json:"dry_run"`
	SQLExecuted []string      `json:"sql_executed"`
	Errors      []string      `json:"errors"`
	Warnings    []string      `json:"warnings"`
	Duration    time.Duration `json:"duration"`
}

// AddError records an error and marks the result failed.
func (r *MigrationResult) AddError(err error) {
	r.Success = false
	r.Errors = append(r.Errors, err.Error())
}

// AddWarning records a warning.
func (r *MigrationResult) AddWarning(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}
