// Package dialect provides database-specific SQL generation.
// A dialect renders the DDL for each migration operation kind, quotes
// identifiers, knows its column type catalog, and guards the connection
// session a migration batch runs in.
package dialect

import (
	"context"
	"database/sql"
	"strings"

	"github.com/hlop3z/schemasync/internal/schema"
)

// Dialect defines the interface for database-specific SQL generation.
// The only implementation is SQLite.
type Dialect interface {
	// Name returns the dialect name (sqlite).
	Name() string

	// -------------------------------------------------------------------------
	// Identifiers and types
	// -------------------------------------------------------------------------

	// QuoteIdent quotes an identifier (table/column/index name).
	QuoteIdent(name string) string

	// MaxIdentifierLength is the longest name the validator accepts.
	MaxIdentifierLength() int

	// KnownType reports whether a declared column type is part of the
	// dialect's type catalog. Unknown types are tolerated with a warning.
	KnownType(typ string) bool

	// -------------------------------------------------------------------------
	// SQL generation for operations
	// -------------------------------------------------------------------------

	// CreateTableSQL generates CREATE TABLE for t, with its foreign keys
	// inline, followed by one CREATE INDEX per index.
	CreateTableSQL(t *schema.Table) ([]string, error)

	// AddColumnSQL generates ALTER TABLE ADD COLUMN.
	AddColumnSQL(table string, col schema.Column) (string, error)

	// CreateIndexSQL generates CREATE INDEX.
	CreateIndexSQL(idx schema.Index) (string, error)

	// AddForeignKeySQL generates the statements adding fks to an existing
	// table. Rebuild describes the table as it will be when the statements
	// run (columns added earlier in the batch, indexes to restore).
	AddForeignKeySQL(rb Rebuild, fks []schema.ForeignKey) ([]string, error)

	// -------------------------------------------------------------------------
	// Migration session
	// -------------------------------------------------------------------------

	// BeginSession prepares a pinned connection for a migration batch and
	// returns a function restoring the previous session state.
	BeginSession(ctx context.Context, conn *sql.Conn) (restore func(context.Context) error, err error)

	// Verify runs integrity checks on tables inside the migration
	// transaction before commit.
	Verify(ctx context.Context, tx *sql.Tx, tables []string) error
}

// Rebuild describes the state of an existing table at the point in a batch
// where foreign keys are added to it.
type Rebuild struct {
	// Current is the table as read from the database.
	Current *schema.Table

	// AddedColumns were added to the table earlier in the batch.
	AddedColumns []schema.Column

	// AddedIndexes were created on the table earlier in the batch.
	AddedIndexes []schema.Index
}

// Get returns the dialect implementation for the given name.
// Valid names: "sqlite", "sqlite3". Returns nil if the dialect is not supported.
func Get(name string) Dialect {
	switch strings.ToLower(name) {
	case "sqlite", "sqlite3":
		return SQLite()
	default:
		return nil
	}
}

// Names returns the list of supported dialect names.
func Names() []string {
	return []string{"sqlite"}
}
