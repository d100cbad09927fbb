package dialect

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/hlop3z/schemasync/internal/alerr"
	"github.com/hlop3z/schemasync/internal/schema"
)

// rebuildPrefix names the temporary table used by the rebuild procedure.
const rebuildPrefix = "_schemasync_rebuild_"

// sqlite implements the Dialect interface for SQLite.
type sqlite struct{}

// SQLite returns the SQLite dialect implementation.
func SQLite() Dialect {
	return &sqlite{}
}

func (d *sqlite) Name() string {
	return "sqlite"
}

// -----------------------------------------------------------------------------
// Identifiers and types
// SQLite has dynamic typing with type affinities: TEXT, INTEGER, REAL, BLOB,
// NUMERIC. Declared names are free-form; the catalog below lists the names
// applications commonly declare.
// -----------------------------------------------------------------------------

func (d *sqlite) QuoteIdent(name string) string {
	return quoteIdentDoubleQuote(name)
}

// MaxIdentifierLength is not a hard SQLite limit. SQLite accepts names of any
// length; 128 keeps names portable and readable in diagnostics.
func (d *sqlite) MaxIdentifierLength() int {
	return 128
}

var sqliteTypes = map[string]bool{
	"INTEGER": true, "INT": true, "TINYINT": true, "SMALLINT": true,
	"MEDIUMINT": true, "BIGINT": true, "INT2": true, "INT8": true,
	"TEXT": true, "CHARACTER": true, "VARCHAR": true, "NCHAR": true,
	"NVARCHAR": true, "CHAR": true, "CLOB": true,
	"REAL": true, "DOUBLE": true, "DOUBLE PRECISION": true, "FLOAT": true,
	"NUMERIC": true, "DECIMAL": true, "BOOLEAN": true,
	"DATE": true, "TIME": true, "DATETIME": true, "TIMESTAMP": true,
	"BLOB": true,
}

func (d *sqlite) KnownType(typ string) bool {
	base := strings.ToUpper(strings.TrimSpace(typ))
	if i := strings.IndexByte(base, '('); i >= 0 {
		base = strings.TrimSpace(base[:i])
	}
	return sqliteTypes[base]
}

// zeroDefault returns the zero value literal for a declared type, following
// SQLite's affinity rules. Used for NOT NULL columns added without a default,
// which SQLite otherwise rejects.
func zeroDefault(typ string) string {
	t := strings.ToUpper(typ)
	switch {
	case strings.Contains(t, "INT"):
		return "0"
	case strings.Contains(t, "CHAR"), strings.Contains(t, "CLOB"), strings.Contains(t, "TEXT"):
		return "''"
	case t == "" || strings.Contains(t, "BLOB"):
		return "X''"
	case strings.Contains(t, "REAL"), strings.Contains(t, "FLOA"), strings.Contains(t, "DOUB"):
		return "0.0"
	default:
		return "0"
	}
}

// -----------------------------------------------------------------------------
// SQL generation
// -----------------------------------------------------------------------------

func (d *sqlite) CreateTableSQL(t *schema.Table) ([]string, error) {
	if t == nil || t.Name == "" {
		return nil, alerr.New(alerr.ErrSchemaInvalid, "table definition has no name")
	}
	if len(t.Columns) == 0 {
		return nil, alerr.New(alerr.ErrSchemaInvalid, "table must have at least one column").
			WithTable(t.Name)
	}

	stmts := []string{buildCreateTableSQL(t.Name, t, t.ForeignKeys, d.QuoteIdent)}
	for _, idx := range t.Indexes {
		if idx.Table == "" {
			idx.Table = t.Name
		}
		stmts = append(stmts, buildCreateIndexSQL(idx, d.QuoteIdent))
	}
	return stmts, nil
}

func (d *sqlite) AddColumnSQL(table string, col schema.Column) (string, error) {
	// SQLite cannot add a PRIMARY KEY column to an existing table.
	// See: https://sqlite.org/lang_altertable.html#altertabaddcol
	if col.PrimaryKey {
		return "", alerr.New(alerr.ErrSQLExecution, "SQLite does not support adding a PRIMARY KEY column; use table recreation pattern").
			WithTable(table).
			WithColumn(col.Name)
	}
	return buildAddColumnSQL(table, col, ColumnDefConfig{
		QuoteIdent:      d.QuoteIdent,
		ImplicitDefault: zeroDefault,
	}), nil
}

func (d *sqlite) CreateIndexSQL(idx schema.Index) (string, error) {
	if idx.Name == "" || idx.Table == "" || len(idx.Columns) == 0 {
		return "", alerr.New(alerr.ErrSchemaInvalid, "index requires a name, a table and at least one column").
			With("index", idx.Name).
			WithTable(idx.Table)
	}
	return buildCreateIndexSQL(idx, d.QuoteIdent), nil
}

// AddForeignKeySQL renders the table recreation procedure, since SQLite has no
// ALTER TABLE ADD CONSTRAINT:
//
//  1. CREATE TABLE _schemasync_rebuild_<t> with the new constraints
//  2. INSERT INTO _schemasync_rebuild_<t> SELECT ... FROM <t>
//  3. DROP TABLE <t>
//  4. ALTER TABLE _schemasync_rebuild_<t> RENAME TO <t>
//  5. recreate the table's indexes and triggers
//
// See: https://sqlite.org/lang_altertable.html#otheralter
func (d *sqlite) AddForeignKeySQL(rb Rebuild, fks []schema.ForeignKey) ([]string, error) {
	cur := rb.Current
	if cur == nil || cur.Name == "" {
		return nil, alerr.New(alerr.ErrSchemaNotFound, "foreign key target table is not in the current schema")
	}
	if len(fks) == 0 {
		return nil, nil
	}

	tmp := rebuildPrefix + cur.Name
	q := d.QuoteIdent

	var create, copyRows string
	if cur.SQL != "" {
		var err error
		create, err = d.spliceCreateTable(cur, tmp, rb.AddedColumns, fks)
		if err != nil {
			return nil, err
		}
		copyRows = "INSERT INTO " + q(tmp) + " SELECT * FROM " + q(cur.Name)
	} else {
		def := &schema.Table{
			Name:    cur.Name,
			Columns: append(append([]schema.Column(nil), cur.Columns...), rb.AddedColumns...),
		}
		all := append(append([]schema.ForeignKey(nil), cur.ForeignKeys...), fks...)
		create = buildCreateTableSQL(tmp, def, all, q)

		var cols strings.Builder
		writeQuotedList(&cols, def.ColumnNames(), q)
		copyRows = fmt.Sprintf("INSERT INTO %s (%s) SELECT %s FROM %s", q(tmp), cols.String(), cols.String(), q(cur.Name))
	}

	stmts := []string{
		create,
		copyRows,
		"DROP TABLE " + q(cur.Name),
		"ALTER TABLE " + q(tmp) + " RENAME TO " + q(cur.Name),
	}

	for _, idx := range cur.Indexes {
		if idx.SQL != "" {
			stmts = append(stmts, idx.SQL)
			continue
		}
		idx.Table = cur.Name
		stmts = append(stmts, buildCreateIndexSQL(idx, q))
	}
	for _, idx := range rb.AddedIndexes {
		idx.Table = cur.Name
		stmts = append(stmts, buildCreateIndexSQL(idx, q))
	}
	stmts = append(stmts, cur.Triggers...)

	return stmts, nil
}

// spliceCreateTable rewrites the stored CREATE TABLE text of cur under the
// temporary name, inserting the added columns after the last column
// definition and the new foreign keys after the existing constraints.
func (d *sqlite) spliceCreateTable(cur *schema.Table, tmp string, added []schema.Column, fks []schema.ForeignKey) (string, error) {
	def, err := parseCreateTable(cur.SQL)
	if err != nil {
		return "", alerr.Wrap(alerr.ErrSchemaInvalid, err, "cannot parse stored table definition").
			WithTable(cur.Name).
			WithSQL(cur.SQL)
	}

	// Columns hidden by ignore options would not survive a rebuild that only
	// knows the visible ones.
	if len(def.Columns) != len(cur.Columns) {
		return "", alerr.New(alerr.ErrMigrationBlocked, "table has columns hidden by ignore options; cannot rebuild it to add a foreign key").
			WithTable(cur.Name).
			With("stored_columns", len(def.Columns)).
			With("visible_columns", len(cur.Columns))
	}

	cfg := ColumnDefConfig{QuoteIdent: d.QuoteIdent, ImplicitDefault: zeroDefault}
	for _, col := range added {
		def.Columns = append(def.Columns, buildColumnDefSQL(col, cfg))
	}
	for _, fk := range fks {
		def.Constraints = append(def.Constraints, buildForeignKeyConstraintSQL(fk, d.QuoteIdent))
	}

	return def.render(d.QuoteIdent(tmp)), nil
}

// -----------------------------------------------------------------------------
// Migration session
// -----------------------------------------------------------------------------

// BeginSession turns foreign key enforcement off for the batch (a rebuild
// drops and recreates referenced tables) and enables legacy ALTER TABLE so
// renaming the rebuilt table does not rewrite references held by others.
// Both pragmas are no-ops inside a transaction, so they run before it.
func (d *sqlite) BeginSession(ctx context.Context, conn *sql.Conn) (func(context.Context) error, error) {
	var fk, legacy int
	if err := conn.QueryRowContext(ctx, "PRAGMA foreign_keys").Scan(&fk); err != nil {
		return nil, alerr.WrapSQL(err, "read foreign_keys pragma", "")
	}
	if err := conn.QueryRowContext(ctx, "PRAGMA legacy_alter_table").Scan(&legacy); err != nil {
		return nil, alerr.WrapSQL(err, "read legacy_alter_table pragma", "")
	}

	restore := func(ctx context.Context) error {
		return errors.Join(
			execPragma(ctx, conn, "foreign_keys", fk),
			execPragma(ctx, conn, "legacy_alter_table", legacy),
		)
	}

	if err := errors.Join(
		execPragma(ctx, conn, "foreign_keys", 0),
		execPragma(ctx, conn, "legacy_alter_table", 1),
	); err != nil {
		_ = restore(ctx)
		return nil, err
	}

	return restore, nil
}

func execPragma(ctx context.Context, conn *sql.Conn, name string, value int) error {
	if _, err := conn.ExecContext(ctx, fmt.Sprintf("PRAGMA %s = %d", name, value)); err != nil {
		return alerr.WrapSQL(err, "set "+name+" pragma", "")
	}
	return nil
}

// Verify fails when one of tables holds rows violating a foreign key. Only
// the tables a batch rebuilt need checking; other tables are left as found.
func (d *sqlite) Verify(ctx context.Context, tx *sql.Tx, tables []string) error {
	var violations []string
	for _, table := range tables {
		found, err := d.foreignKeyViolations(ctx, tx, table)
		if err != nil {
			return err
		}
		violations = append(violations, found...)
	}

	if len(violations) > 0 {
		return alerr.New(alerr.ErrMigrationFailed, "foreign key violations after migration").
			With("violations", strings.Join(violations, ", "))
	}
	return nil
}

func (d *sqlite) foreignKeyViolations(ctx context.Context, tx *sql.Tx, table string) ([]string, error) {
	// Returns: table, rowid, parent, fkid
	rows, err := tx.QueryContext(ctx, fmt.Sprintf("PRAGMA foreign_key_check(%s)", d.QuoteIdent(table)))
	if err != nil {
		return nil, alerr.WrapSQL(err, "check foreign keys", table)
	}
	defer rows.Close()

	var violations []string
	for rows.Next() {
		var (
			child, parent string
			rowid         sql.NullInt64
			fkid          int
		)
		if err := rows.Scan(&child, &rowid, &parent, &fkid); err != nil {
			return nil, alerr.WrapSQL(err, "scan foreign key check", table)
		}
		violations = append(violations, fmt.Sprintf("%s(rowid=%d) -> %s", child, rowid.Int64, parent))
	}
	if err := rows.Err(); err != nil {
		return nil, alerr.WrapSQL(err, "check foreign keys", table)
	}
	return violations, nil
}
