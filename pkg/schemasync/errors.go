// Package schemasync converges a live SQLite database on the schema an
// application expects, without a migration history. An Engine reads the
// current schema, validates the expected one, computes the missing
// operations and applies them in a single transaction.
//
// Example:
//
//	engine, err := schemasync.New(db)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	res, err := engine.Sync(ctx, engine.FromModel(registry), false)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if !res.Success {
//	    log.Fatal(res.Errors)
//	}
package schemasync

import (
	"errors"

	"github.com/hlop3z/schemasync/internal/alerr"
)

// Error codes carried by errors and migration results.
const (
	CodeMigrationFailed  = alerr.ErrMigrationFailed
	CodeMigrationBlocked = alerr.ErrMigrationBlocked
	CodeReadFailed       = alerr.ErrIntrospection
	CodeModelInvalid     = alerr.ErrModelInvalid
	CodeSerialization    = alerr.ErrSerialization
	CodeNoConnection     = alerr.ErrSQLConnection
	CodeUnsupported      = alerr.EUnsupportedDialect
)

// ErrorCode returns the code of err, or "" when err carries none.
func ErrorCode(err error) string {
	return string(alerr.GetErrorCode(err))
}

// IsCode reports whether err carries code.
func IsCode(err error, code alerr.Code) bool {
	return alerr.Is(err, code)
}

// ErrNoDatabase is returned by operations that need the live database when
// the Engine was created without one.
var ErrNoDatabase = errors.New("schemasync: no database connection")
