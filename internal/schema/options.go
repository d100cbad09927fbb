package schema

import "strings"

// Options controls which parts of a database are considered and how a run
// behaves.
type Options struct {
	// IgnoredTables are excluded from every reader's output.
	IgnoredTables []string `yaml:"ignored_tables" json:"ignored_tables"`

	// IgnoredColumns are excluded from every reader's output. Entries are
	// either "Table.Column" for one table or "Column" for every table.
	IgnoredColumns []string `yaml:"ignored_columns" json:"ignored_columns"`

	// ValidateBeforeMigration blocks the migration when the expected schema
	// has validation errors.
	ValidateBeforeMigration bool `yaml:"validate_before_migration" json:"validate_before_migration"`

	// EnableCaching lets the live reader reuse its last snapshot while the
	// database schema version is unchanged.
	EnableCaching bool `yaml:"enable_caching" json:"enable_caching"`
}

// DefaultOptions returns the options used when none are given.
func DefaultOptions() Options {
	return Options{ValidateBeforeMigration: true}
}

// IsTableIgnored reports whether table is listed in IgnoredTables.
func (o Options) IsTableIgnored(table string) bool {
	for _, t := range o.IgnoredTables {
		if strings.EqualFold(t, table) {
			return true
		}
	}
	return false
}

// IsColumnIgnored reports whether table.column matches an IgnoredColumns entry.
func (o Options) IsColumnIgnored(table, column string) bool {
	for _, entry := range o.IgnoredColumns {
		tbl, col, qualified := strings.Cut(entry, ".")
		if !qualified {
			if strings.EqualFold(entry, column) {
				return true
			}
			continue
		}
		if strings.EqualFold(tbl, table) && strings.EqualFold(col, column) {
			return true
		}
	}
	return false
}

// Apply returns a copy of s without ignored tables and columns. Indexes and
// foreign keys that touch an ignored column are dropped with it.
func (o Options) Apply(s *Schema) *Schema {
	out := &Schema{Tables: make(map[string]*Table)}
	if s == nil {
		return out
	}
	for name, t := range s.Tables {
		if o.IsTableIgnored(name) {
			continue
		}
		out.Tables[name] = o.applyTable(t)
	}
	return out
}

func (o Options) applyTable(t *Table) *Table {
	if len(o.IgnoredColumns) == 0 {
		return t
	}

	out := &Table{Name: t.Name, SQL: t.SQL, Triggers: t.Triggers}
	for _, c := range t.Columns {
		if !o.IsColumnIgnored(t.Name, c.Name) {
			out.Columns = append(out.Columns, c)
		}
	}

	for _, idx := range t.Indexes {
		keep := true
		for _, col := range idx.Columns {
			if o.IsColumnIgnored(t.Name, col) {
				keep = false
				break
			}
		}
		if keep {
			out.Indexes = append(out.Indexes, idx)
		}
	}

	for _, fk := range t.ForeignKeys {
		if o.IsColumnIgnored(t.Name, fk.Column) || o.IsColumnIgnored(fk.RefTable, fk.RefColumn) {
			continue
		}
		out.ForeignKeys = append(out.ForeignKeys, fk)
	}

	return out
}
