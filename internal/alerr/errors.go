// Package alerr provides standardized error handling for schemasync.
// All errors have stable, machine-readable codes, structured context, and proper wrapping.
package alerr

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Code represents a stable, machine-readable error code.
// Format: E{category}{number} where category is 1-9 and number is 001-999.
type Code string

// Error codes organized by category.
const (
	// Schema errors (E1xxx) - problems with schema definitions
	ErrSchemaInvalid     Code = "E1001" // Schema definition is malformed
	ErrSchemaNotFound    Code = "E1002" // Referenced table or column does not exist
	ErrSchemaDuplicate   Code = "E1003" // Name used twice where it must be unique
	ErrSchemaCircularRef Code = "E1004" // Foreign keys form a cycle across tables

	// Validation errors (E2xxx) - problems found by the validator
	ErrInvalidIdentifier Code = "E2001" // Identifier is empty or too long
	ErrInvalidType       Code = "E2005" // Column type is not known to the dialect
	ErrInvalidReference  Code = "E2003" // Reference to non-existent entity

	// Migration errors (E3xxx) - problems during migration operations
	ErrMigrationFailed  Code = "E3001" // Migration batch failed and was rolled back
	ErrMigrationBlocked Code = "E3002" // Validation errors prevented the migration
	ErrHookFailed       Code = "E3003" // A migration hook returned an error or panicked

	// SQL errors (E4xxx) - problems with database operations
	ErrSQLExecution   Code = "E4001" // SQL statement failed to execute
	ErrSQLConnection  Code = "E4002" // Database connection failed
	ErrSQLTransaction Code = "E4003" // Transaction operation failed

	// Read errors (E6xxx) - problems reading a schema source
	ErrIntrospection    Code = "E6001" // Database catalog could not be read
	ErrModelInvalid     Code = "E6002" // Model metadata could not be mapped
	EUnsupportedDialect Code = "E6003" // Dialect not supported for operation

	// Cache errors (E8xxx)
	ErrCacheRead Code = "E8002" // Cache version probe failed

	// Serialization and internal errors (E9xxx)
	ErrSerialization Code = "E9002" // Snapshot could not be encoded or decoded
	EInternalError   Code = "E9001" // Internal error
)

// Error is the standard error type for schemasync.
// It provides structured error information with codes, context, and wrapping support.
type Error struct {
	code    Code           // Machine-readable error code
	message string         // Human-readable error message
	context map[string]any // Structured context data
	cause   error          // Wrapped underlying error
}

// Error returns the formatted error string.
// Format:
//
//	[E4001] failed to execute statement
//	  sql: ALTER TABLE "users" ADD COLUMN "email" TEXT
//	  cause: duplicate column name: email
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("[%s] %s", e.code, e.message))

	// Context in sorted order for deterministic output
	if len(e.context) > 0 {
		keys := make([]string, 0, len(e.context))
		for k := range e.context {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		for _, k := range keys {
			b.WriteString(fmt.Sprintf("\n  %s: %v", k, e.context[k]))
		}
	}

	if e.cause != nil {
		b.WriteString(fmt.Sprintf("\n  cause: %v", e.cause))
	}

	return b.String()
}

// Unwrap returns the underlying cause error for errors.Unwrap compatibility.
func (e *Error) Unwrap() error {
	return e.cause
}

// Is reports whether the target is an *Error with the same code.
func (e *Error) Is(target error) bool {
	if target == nil {
		return false
	}

	var targetErr *Error
	if errors.As(target, &targetErr) {
		return e.code == targetErr.code
	}

	return false
}

// GetCode returns the error code.
func (e *Error) GetCode() Code {
	return e.code
}

// GetMessage returns the error message.
func (e *Error) GetMessage() string {
	return e.message
}

// GetContext returns the error context map.
func (e *Error) GetContext() map[string]any {
	return e.context
}

// GetCause returns the underlying cause error.
func (e *Error) GetCause() error {
	return e.cause
}

// With adds a key-value pair to the error context.
// Returns the error for method chaining.
func (e *Error) With(key string, value any) *Error {
	if e.context == nil {
		e.context = make(map[string]any)
	}
	e.context[key] = value
	return e
}

// WithTable adds table context to the error.
func (e *Error) WithTable(table string) *Error {
	return e.With("table", table)
}

// WithColumn adds column context to the error.
func (e *Error) WithColumn(name string) *Error {
	return e.With("column", name)
}

// WithSQL adds SQL statement context to the error.
func (e *Error) WithSQL(sql string) *Error {
	return e.With("sql", sql)
}

// WithHelp adds a help suggestion to the error (displayed as "helps: [...]").
func (e *Error) WithHelp(help string) *Error {
	if help == "" {
		return e
	}
	helps, _ := e.context["helps"].([]string)
	helps = append(helps, help)
	return e.With("helps", helps)
}

// Helps returns all help suggestions attached to this error.
func (e *Error) Helps() []string {
	helps, _ := e.context["helps"].([]string)
	return helps
}

// New creates a new Error with the given code and message.
func New(code Code, msg string) *Error {
	return &Error{
		code:    code,
		message: msg,
		context: make(map[string]any),
	}
}

// Newf creates a new Error with the given code and formatted message.
func Newf(code Code, format string, args ...any) *Error {
	return New(code, fmt.Sprintf(format, args...))
}

// Wrap creates a new Error that wraps an existing error.
func Wrap(code Code, err error, msg string) *Error {
	e := New(code, msg)
	e.cause = err
	return e
}

// Wrapf creates a new Error that wraps an existing error with a formatted message.
func Wrapf(code Code, err error, format string, args ...any) *Error {
	return Wrap(code, err, fmt.Sprintf(format, args...))
}

// GetErrorCode extracts the error code from an error chain.
// Returns empty string if no code is found.
func GetErrorCode(err error) Code {
	if err == nil {
		return ""
	}

	var e *Error
	if errors.As(err, &e) {
		return e.code
	}

	return ""
}

// Is checks if an error has the specified code.
func Is(err error, code Code) bool {
	return GetErrorCode(err) == code
}

// WrapSQL creates an ErrSQLExecution error with table context.
// Example: WrapSQL(err, "read columns", "users")
func WrapSQL(err error, op string, table string) *Error {
	e := Wrap(ErrSQLExecution, err, "failed to "+op)
	if table != "" {
		e.WithTable(table)
	}
	return e
}

// WrapRead creates an ErrIntrospection error for catalog read failures.
func WrapRead(err error, op string, table string) *Error {
	e := Wrap(ErrIntrospection, err, "failed to "+op)
	if table != "" {
		e.WithTable(table)
	}
	return e
}
