package reader

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hlop3z/schemasync/internal/alerr"
	"github.com/hlop3z/schemasync/internal/dialect"
	"github.com/hlop3z/schemasync/internal/schema"
)

// Live reads the schema of a SQLite database from its catalog: sqlite_master
// plus PRAGMA table_info, index_list, index_info and foreign_key_list.
type Live struct {
	db      *sql.DB
	dialect dialect.Dialect
	opts    schema.Options
	cache   *Cache
}

// NewLive returns a catalog reader for db. When opts.EnableCaching is set
// the reader keeps its snapshot in cache, creating one if cache is nil.
func NewLive(db *sql.DB, d dialect.Dialect, opts schema.Options, cache *Cache) *Live {
	if opts.EnableCaching && cache == nil {
		cache = NewCache()
	}
	if !opts.EnableCaching {
		cache = nil
	}
	return &Live{db: db, dialect: d, opts: opts, cache: cache}
}

// Cache returns the reader's cache, or nil when caching is disabled.
func (l *Live) Cache() *Cache {
	return l.cache
}

// ReadSchema reads every user table. With caching on, the snapshot is reused
// while PRAGMA schema_version is unchanged; any DDL on the database bumps it.
func (l *Live) ReadSchema(ctx context.Context) (*schema.Schema, error) {
	if l.dialect == nil || l.dialect.Name() != "sqlite" {
		name := "<nil>"
		if l.dialect != nil {
			name = l.dialect.Name()
		}
		return nil, alerr.New(alerr.EUnsupportedDialect, "live catalog reading is only implemented for sqlite").
			With("dialect", name)
	}

	var version int64
	if l.cache != nil {
		if err := l.db.QueryRowContext(ctx, "PRAGMA schema_version").Scan(&version); err != nil {
			return nil, alerr.Wrap(alerr.ErrCacheRead, err, "failed to read schema version")
		}
		if s, ok := l.cache.Get(version); ok {
			return s, nil
		}
	}

	s, err := l.read(ctx)
	if err != nil {
		return nil, err
	}

	if l.cache != nil {
		l.cache.Put(version, s)
	}
	return s, nil
}

func (l *Live) read(ctx context.Context) (*schema.Schema, error) {
	tables, err := l.listTables(ctx)
	if err != nil {
		return nil, err
	}

	s := &schema.Schema{Tables: make(map[string]*schema.Table, len(tables))}
	for _, t := range tables {
		if l.opts.IsTableIgnored(t.Name) {
			continue
		}
		if err := l.readTable(ctx, t); err != nil {
			return nil, err
		}
		s.Tables[t.Name] = t
	}
	if err := l.resolveImplicitReferences(ctx, s, schema.New(tables...)); err != nil {
		return nil, err
	}

	return l.opts.Apply(s), nil
}

// resolveImplicitReferences fills RefColumn for keys declared as
// REFERENCES parent without a column list, which target the parent's
// primary key. Parents are looked up in all, which includes ignored tables;
// their columns are read on demand.
func (l *Live) resolveImplicitReferences(ctx context.Context, s, all *schema.Schema) error {
	for _, name := range s.TableNames() {
		t := s.Tables[name]
		for i, fk := range t.ForeignKeys {
			if fk.RefColumn != "" {
				continue
			}
			parent, ok := all.Table(fk.RefTable)
			if !ok {
				continue
			}
			if parent.Columns == nil {
				cols, err := l.readColumns(ctx, parent.Name)
				if err != nil {
					return err
				}
				parent.Columns = cols
			}
			if pk := parent.PrimaryKey(); len(pk) == 1 {
				t.ForeignKeys[i].RefColumn = pk[0]
			}
		}
	}
	return nil
}

// listTables returns the user tables with their stored CREATE statements.
func (l *Live) listTables(ctx context.Context) ([]*schema.Table, error) {
	query := `
		SELECT name, sql FROM sqlite_master
		WHERE type = 'table' AND name NOT LIKE 'sqlite_%'
		ORDER BY name
	`

	rows, err := l.db.QueryContext(ctx, query)
	if err != nil {
		return nil, alerr.WrapRead(err, "list tables", "")
	}
	defer rows.Close()

	var tables []*schema.Table
	for rows.Next() {
		var name string
		var stmt sql.NullString
		if err := rows.Scan(&name, &stmt); err != nil {
			return nil, alerr.WrapRead(err, "scan table name", "")
		}
		tables = append(tables, &schema.Table{Name: name, SQL: stmt.String})
	}
	if err := rows.Err(); err != nil {
		return nil, alerr.WrapRead(err, "list tables", "")
	}

	return tables, nil
}

func (l *Live) readTable(ctx context.Context, t *schema.Table) error {
	var err error
	if t.Columns, err = l.readColumns(ctx, t.Name); err != nil {
		return err
	}
	if t.Indexes, err = l.readIndexes(ctx, t.Name); err != nil {
		return err
	}
	if t.ForeignKeys, err = l.readForeignKeys(ctx, t.Name); err != nil {
		return err
	}
	if t.Triggers, err = l.readTriggers(ctx, t.Name); err != nil {
		return err
	}
	return nil
}

func (l *Live) readTriggers(ctx context.Context, table string) ([]string, error) {
	query := `
		SELECT sql FROM sqlite_master
		WHERE type = 'trigger' AND tbl_name = ? AND sql IS NOT NULL
		ORDER BY name
	`

	rows, err := l.db.QueryContext(ctx, query, table)
	if err != nil {
		return nil, alerr.WrapRead(err, "read triggers", table)
	}
	defer rows.Close()

	var triggers []string
	for rows.Next() {
		var stmt string
		if err := rows.Scan(&stmt); err != nil {
			return nil, alerr.WrapRead(err, "scan trigger", table)
		}
		triggers = append(triggers, stmt)
	}

	return triggers, rows.Err()
}

func (l *Live) readColumns(ctx context.Context, table string) ([]schema.Column, error) {
	// Returns: cid, name, type, notnull, dflt_value, pk
	query := fmt.Sprintf("PRAGMA table_info(%s)", l.dialect.QuoteIdent(table))

	rows, err := l.db.QueryContext(ctx, query)
	if err != nil {
		return nil, alerr.WrapRead(err, "read columns", table)
	}
	defer rows.Close()

	var columns []schema.Column
	for rows.Next() {
		var (
			cid, notNull, pk int
			name, dataType   string
			defaultVal       sql.NullString
		)
		if err := rows.Scan(&cid, &name, &dataType, &notNull, &defaultVal, &pk); err != nil {
			return nil, alerr.WrapRead(err, "scan column", table)
		}

		col := schema.Column{
			Name:       name,
			Type:       dataType,
			Nullable:   notNull == 0 && pk == 0, // PK columns are never nullable
			PrimaryKey: pk > 0,
			Position:   cid,
		}
		if defaultVal.Valid {
			d := defaultVal.String
			col.Default = &d
		}
		columns = append(columns, col)
	}
	if err := rows.Err(); err != nil {
		return nil, alerr.WrapRead(err, "read columns", table)
	}

	return columns, nil
}

// readIndexes returns the explicitly created indexes of table. Indexes
// SQLite creates for PRIMARY KEY and UNIQUE constraints have no stored SQL
// and belong to the table definition instead.
func (l *Live) readIndexes(ctx context.Context, table string) ([]schema.Index, error) {
	// Collect the list first and close the rows before issuing the
	// per-index PRAGMA queries.
	query := `
		SELECT name, sql FROM sqlite_master
		WHERE type = 'index' AND tbl_name = ? AND sql IS NOT NULL
		ORDER BY name
	`

	rows, err := l.db.QueryContext(ctx, query, table)
	if err != nil {
		return nil, alerr.WrapRead(err, "read indexes", table)
	}

	var indexes []schema.Index
	for rows.Next() {
		var idx schema.Index
		if err := rows.Scan(&idx.Name, &idx.SQL); err != nil {
			rows.Close()
			return nil, alerr.WrapRead(err, "scan index", table)
		}
		idx.Table = table
		indexes = append(indexes, idx)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, alerr.WrapRead(err, "read indexes", table)
	}
	rows.Close()

	unique, err := l.uniqueIndexes(ctx, table)
	if err != nil {
		return nil, err
	}

	for i := range indexes {
		indexes[i].Unique = unique[indexes[i].Name]
		if indexes[i].Columns, err = l.indexColumns(ctx, indexes[i].Name); err != nil {
			return nil, err
		}
	}

	return indexes, nil
}

func (l *Live) uniqueIndexes(ctx context.Context, table string) (map[string]bool, error) {
	// Returns: seq, name, unique, origin, partial
	query := fmt.Sprintf("PRAGMA index_list(%s)", l.dialect.QuoteIdent(table))

	rows, err := l.db.QueryContext(ctx, query)
	if err != nil {
		return nil, alerr.WrapRead(err, "read index list", table)
	}
	defer rows.Close()

	unique := make(map[string]bool)
	for rows.Next() {
		var (
			seq, isUnique, partial int
			name, origin           string
		)
		if err := rows.Scan(&seq, &name, &isUnique, &origin, &partial); err != nil {
			return nil, alerr.WrapRead(err, "scan index list", table)
		}
		unique[name] = isUnique == 1
	}

	return unique, rows.Err()
}

func (l *Live) indexColumns(ctx context.Context, index string) ([]string, error) {
	// Returns: seqno, cid, name (NULL for expression columns)
	query := fmt.Sprintf("PRAGMA index_info(%s)", l.dialect.QuoteIdent(index))

	rows, err := l.db.QueryContext(ctx, query)
	if err != nil {
		return nil, alerr.WrapRead(err, "read index columns", "").With("index", index)
	}
	defer rows.Close()

	var columns []string
	for rows.Next() {
		var seqno, cid int
		var name sql.NullString
		if err := rows.Scan(&seqno, &cid, &name); err != nil {
			return nil, alerr.WrapRead(err, "scan index column", "").With("index", index)
		}
		if name.Valid {
			columns = append(columns, name.String)
		}
	}

	return columns, rows.Err()
}

// readForeignKeys returns one ForeignKey per referencing column. Composite
// keys are reported column by column; the stored table SQL keeps their
// original form for rebuilds.
func (l *Live) readForeignKeys(ctx context.Context, table string) ([]schema.ForeignKey, error) {
	// Returns: id, seq, table, from, to, on_update, on_delete, match
	query := fmt.Sprintf("PRAGMA foreign_key_list(%s)", l.dialect.QuoteIdent(table))

	rows, err := l.db.QueryContext(ctx, query)
	if err != nil {
		return nil, alerr.WrapRead(err, "read foreign keys", table)
	}
	defer rows.Close()

	var fks []schema.ForeignKey
	for rows.Next() {
		var (
			id, seq                               int
			refTable, from, onUpdate, onDelete, m string
			to                                    sql.NullString
		)
		if err := rows.Scan(&id, &seq, &refTable, &from, &to, &onUpdate, &onDelete, &m); err != nil {
			return nil, alerr.WrapRead(err, "scan foreign key", table)
		}

		fks = append(fks, schema.ForeignKey{
			Column:    from,
			RefTable:  refTable,
			RefColumn: to.String, // NULL when the key references the parent's primary key implicitly
			OnDelete:  schema.NormalizeAction(onDelete),
			OnUpdate:  schema.NormalizeAction(onUpdate),
		})
	}

	return fks, rows.Err()
}
