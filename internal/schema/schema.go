// Package schema defines the value types describing a database structure:
// tables, columns, indexes and foreign keys, plus the diff operations and
// result types produced while converging a live database onto an expected one.
//
// A Schema is built once by a reader and treated as an immutable snapshot.
package schema

import (
	"sort"
	"strings"
)

// Schema maps table names to table definitions.
type Schema struct {
	Tables map[string]*Table `json:"tables"`
}

// New creates a Schema holding the given tables, keyed by their names.
func New(tables ...*Table) *Schema {
	s := &Schema{Tables: make(map[string]*Table, len(tables))}
	for _, t := range tables {
		s.Tables[t.Name] = t
	}
	return s
}

// TableNames returns the table names in sorted order.
func (s *Schema) TableNames() []string {
	if s == nil {
		return nil
	}
	names := make([]string, 0, len(s.Tables))
	for name := range s.Tables {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Table looks a table up by name. Exact matches win; otherwise the lookup
// falls back to a case-insensitive match.
func (s *Schema) Table(name string) (*Table, bool) {
	if s == nil {
		return nil, false
	}
	if t, ok := s.Tables[name]; ok {
		return t, true
	}
	for _, key := range s.TableNames() {
		if strings.EqualFold(key, name) {
			return s.Tables[key], true
		}
	}
	return nil, false
}

// Len returns the number of tables.
func (s *Schema) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Tables)
}

// Table describes one table. Columns are ordered by Position.
type Table struct {
	Name        string       `json:"name"`
	Columns     []Column     `json:"columns"`
	Indexes     []Index      `json:"indexes"`
	ForeignKeys []ForeignKey `json:"foreign_keys"`

	// SQL is the raw CREATE TABLE text as stored by the database.
	// Empty for tables that did not come from a live catalog.
	SQL string `json:"sql,omitempty"`

	// Triggers holds the stored CREATE TRIGGER text of the triggers on the
	// table, in name order. Dropping a table drops its triggers, so a
	// rebuild re-creates them from here.
	Triggers []string `json:"triggers,omitempty"`
}

// Column returns the column with the given name (case-insensitive).
func (t *Table) Column(name string) (Column, bool) {
	for _, c := range t.Columns {
		if strings.EqualFold(c.Name, name) {
			return c, true
		}
	}
	return Column{}, false
}

// HasColumn reports whether the table has the named column.
func (t *Table) HasColumn(name string) bool {
	_, ok := t.Column(name)
	return ok
}

// Index returns the index with the given name (case-insensitive).
func (t *Table) Index(name string) (Index, bool) {
	for _, idx := range t.Indexes {
		if strings.EqualFold(idx.Name, name) {
			return idx, true
		}
	}
	return Index{}, false
}

// ForeignKey returns the foreign key matching fk's column and target.
func (t *Table) ForeignKey(fk ForeignKey) (ForeignKey, bool) {
	for _, existing := range t.ForeignKeys {
		if existing.SameTarget(fk) {
			return existing, true
		}
	}
	return ForeignKey{}, false
}

// PrimaryKey returns the names of the primary-key columns in position order.
func (t *Table) PrimaryKey() []string {
	var pk []string
	for _, c := range t.Columns {
		if c.PrimaryKey {
			pk = append(pk, c.Name)
		}
	}
	return pk
}

// ColumnNames returns the column names in position order.
func (t *Table) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// Column describes one column.
type Column struct {
	Name       string  `json:"name"`
	Type       string  `json:"type"`
	Nullable   bool    `json:"nullable"`
	PrimaryKey bool    `json:"primary_key"`
	Default    *string `json:"default"`
	Position   int     `json:"position"`
}

// HasDefault reports whether the column declares a default value.
func (c Column) HasDefault() bool {
	return c.Default != nil
}

// Index describes one index on a table.
type Index struct {
	Name    string   `json:"name"`
	Table   string   `json:"table"`
	Columns []string `json:"columns"`
	Unique  bool     `json:"unique"`

	// SQL is the raw CREATE INDEX text, kept so partial or expression
	// indexes survive a table rebuild unchanged.
	SQL string `json:"sql,omitempty"`
}

// Covers reports whether the index's leading column is col.
func (i Index) Covers(col string) bool {
	return len(i.Columns) > 0 && strings.EqualFold(i.Columns[0], col)
}

// Referential actions for ON DELETE / ON UPDATE.
const (
	ActionNoAction   = "NO ACTION"
	ActionRestrict   = "RESTRICT"
	ActionCascade    = "CASCADE"
	ActionSetNull    = "SET NULL"
	ActionSetDefault = "SET DEFAULT"
)

// ForeignKey describes a single-column foreign key owned by a table.
type ForeignKey struct {
	Column    string `json:"column"`
	RefTable  string `json:"ref_table"`
	RefColumn string `json:"ref_column"`
	OnDelete  string `json:"on_delete"`
	OnUpdate  string `json:"on_update"`
}

// SameTarget reports whether two foreign keys link the same column to the
// same referenced column. Actions are not compared.
func (fk ForeignKey) SameTarget(other ForeignKey) bool {
	return strings.EqualFold(fk.Column, other.Column) &&
		strings.EqualFold(fk.RefTable, other.RefTable) &&
		strings.EqualFold(fk.RefColumn, other.RefColumn)
}

// SelfReference reports whether the key references its owning table.
func (fk ForeignKey) SelfReference(owner string) bool {
	return strings.EqualFold(fk.RefTable, owner)
}

// NormalizeAction upper-cases a referential action and maps the empty
// string to NO ACTION, which is what SQLite reports for unspecified actions.
func NormalizeAction(action string) string {
	a := strings.ToUpper(strings.TrimSpace(action))
	if a == "" {
		return ActionNoAction
	}
	return a
}
