// Package engine computes the operations that converge a current schema onto
// an expected one.
package engine

import (
	"errors"
	"fmt"
	"strings"

	"github.com/hlop3z/schemasync/internal/dialect"
	"github.com/hlop3z/schemasync/internal/schema"
)

// Compare returns the operations that bring current up to expected, ordered
// CreateTable (referenced tables first), AddColumn, CreateIndex,
// AddForeignKey. Nothing is ever dropped or altered in place: removed
// columns and changed attributes only produce warnings. Anomalies that make
// an operation impossible to render are reported as warnings and the
// operation is left out.
//
// Compare is deterministic: equal inputs give equal operation lists.
func Compare(current, expected *schema.Schema, d dialect.Dialect) *schema.Diff {
	if d == nil {
		d = dialect.SQLite()
	}
	c := &comparer{
		current:      current,
		expected:     expected,
		dialect:      d,
		diff:         &schema.Diff{},
		addedColumns: make(map[string][]schema.Column),
		addedIndexes: make(map[string][]schema.Index),
	}
	c.run()
	return c.diff
}

type comparer struct {
	current  *schema.Schema
	expected *schema.Schema
	dialect  dialect.Dialect
	diff     *schema.Diff

	creates  []schema.Operation
	columns  []schema.Operation
	indexes  []schema.Operation
	foreigns []schema.Operation

	// Per existing table, keyed by the table's current name.
	addedColumns map[string][]schema.Column
	addedIndexes map[string][]schema.Index
	pendingFKs   []pendingFK
}

type pendingFK struct {
	table *schema.Table
	fk    schema.ForeignKey
}

func (c *comparer) run() {
	var missing []*schema.Table
	for _, name := range c.expected.TableNames() {
		et := c.expected.Tables[name]
		if et == nil {
			continue
		}
		if ct, ok := c.current.Table(et.Name); ok {
			c.compareTable(ct, et)
		} else {
			missing = append(missing, et)
		}
	}

	c.createTables(missing)
	c.addForeignKeys()

	ops := make([]schema.Operation, 0, len(c.creates)+len(c.columns)+len(c.indexes)+len(c.foreigns))
	ops = append(ops, c.creates...)
	ops = append(ops, c.columns...)
	ops = append(ops, c.indexes...)
	ops = append(ops, c.foreigns...)
	c.diff.Operations = ops
}

func (c *comparer) warn(format string, args ...any) {
	c.diff.Warnings = append(c.diff.Warnings, fmt.Sprintf(format, args...))
}

// -----------------------------------------------------------------------------
// New tables
// -----------------------------------------------------------------------------

// tableNode orders new tables by the tables their foreign keys reference.
type tableNode struct {
	table *schema.Table
}

func (n tableNode) ID() string { return strings.ToLower(n.table.Name) }

func (n tableNode) Dependencies() []string {
	deps := make([]string, 0, len(n.table.ForeignKeys))
	for _, fk := range n.table.ForeignKeys {
		deps = append(deps, strings.ToLower(fk.RefTable))
	}
	return deps
}

func (c *comparer) createTables(tables []*schema.Table) {
	if len(tables) == 0 {
		return
	}

	nodes := make([]tableNode, len(tables))
	for i, t := range tables {
		nodes[i] = tableNode{table: t}
	}
	sorted, err := TopoSort(nodes)
	switch {
	case errors.Is(err, ErrCircularDependency):
		c.warn("foreign keys between new tables form a cycle; creating them in name order")
		sorted = nodes
	case len(sorted) != len(nodes):
		// Names differing only in case collapse into one node.
		sorted = nodes
	}

	for _, n := range sorted {
		def := c.withResolvableKeys(n.table)
		stmts, err := c.dialect.CreateTableSQL(def)
		if err != nil {
			c.warn("table %q: cannot create table: %v", def.Name, err)
			continue
		}
		c.creates = append(c.creates, schema.NewCreateTable(def, stmts))
	}
}

// withResolvableKeys returns t without the foreign keys whose target cannot
// be found, warning about each one.
func (c *comparer) withResolvableKeys(t *schema.Table) *schema.Table {
	keep := make([]schema.ForeignKey, 0, len(t.ForeignKeys))
	for _, fk := range t.ForeignKeys {
		if c.resolvable(t, fk) {
			keep = append(keep, fk)
		}
	}
	if len(keep) == len(t.ForeignKeys) {
		return t
	}

	def := *t
	def.ForeignKeys = keep
	return &def
}

// resolvable reports whether fk's target table and column exist in the
// expected or the current schema. A self-reference resolves against t.
func (c *comparer) resolvable(t *schema.Table, fk schema.ForeignKey) bool {
	if fk.SelfReference(t.Name) {
		if t.HasColumn(fk.RefColumn) {
			return true
		}
	} else {
		for _, s := range []*schema.Schema{c.expected, c.current} {
			if ref, ok := s.Table(fk.RefTable); ok && ref.HasColumn(fk.RefColumn) {
				return true
			}
		}
	}
	c.warn("table %q: foreign key %q references %s.%s, which does not exist; skipped",
		t.Name, fk.Column, fk.RefTable, fk.RefColumn)
	return false
}

// -----------------------------------------------------------------------------
// Existing tables
// -----------------------------------------------------------------------------

func (c *comparer) compareTable(ct, et *schema.Table) {
	c.compareColumns(ct, et)
	c.compareIndexes(ct, et)
	c.compareForeignKeys(ct, et)
}

func (c *comparer) compareColumns(ct, et *schema.Table) {
	for _, ec := range et.Columns {
		cc, ok := ct.Column(ec.Name)
		if ok {
			c.compareAttributes(ct.Name, cc, ec)
			continue
		}

		stmt, err := c.dialect.AddColumnSQL(ct.Name, ec)
		if err != nil {
			c.warn("table %q: cannot add column %q: %v", ct.Name, ec.Name, err)
			continue
		}
		c.columns = append(c.columns, schema.NewAddColumn(ct.Name, ec, []string{stmt}))
		c.addedColumns[ct.Name] = append(c.addedColumns[ct.Name], ec)
	}

	for _, cc := range ct.Columns {
		if !et.HasColumn(cc.Name) {
			c.warn("table %q: column %q is not in the expected schema; it is kept", ct.Name, cc.Name)
		}
	}
}

func (c *comparer) compareAttributes(table string, cur, exp schema.Column) {
	if !strings.EqualFold(strings.TrimSpace(cur.Type), strings.TrimSpace(exp.Type)) {
		c.warn("table %q: column %q has type %s, expected %s; not altered", table, cur.Name, cur.Type, exp.Type)
	}
	if cur.Nullable != exp.Nullable {
		c.warn("table %q: column %q nullability is %s, expected %s; not altered",
			table, cur.Name, nullability(cur.Nullable), nullability(exp.Nullable))
	}
	if cur.PrimaryKey != exp.PrimaryKey {
		c.warn("table %q: column %q primary key flag is %t, expected %t; not altered",
			table, cur.Name, cur.PrimaryKey, exp.PrimaryKey)
	}
}

func nullability(nullable bool) string {
	if nullable {
		return "NULL"
	}
	return "NOT NULL"
}

func (c *comparer) compareIndexes(ct, et *schema.Table) {
	for _, ei := range et.Indexes {
		if ci, ok := ct.Index(ei.Name); ok {
			if ci.Unique != ei.Unique || !sameColumns(ci.Columns, ei.Columns) {
				c.warn("table %q: index %q differs from the expected definition; not recreated", ct.Name, ei.Name)
			}
			continue
		}

		if col, ok := c.missingColumn(ct, ei.Columns); !ok {
			c.warn("table %q: index %q needs column %q, which is not available; skipped", ct.Name, ei.Name, col)
			continue
		}

		ei.Table = ct.Name
		stmt, err := c.dialect.CreateIndexSQL(ei)
		if err != nil {
			c.warn("table %q: cannot create index %q: %v", ct.Name, ei.Name, err)
			continue
		}
		c.indexes = append(c.indexes, schema.NewCreateIndex(ei, []string{stmt}))
		c.addedIndexes[ct.Name] = append(c.addedIndexes[ct.Name], ei)
	}
}

// missingColumn returns the first of cols that ct neither has nor gains in
// this diff.
func (c *comparer) missingColumn(ct *schema.Table, cols []string) (string, bool) {
	for _, col := range cols {
		if ct.HasColumn(col) || c.added(ct.Name, col) {
			continue
		}
		return col, false
	}
	return "", true
}

func (c *comparer) added(table, column string) bool {
	for _, col := range c.addedColumns[table] {
		if strings.EqualFold(col.Name, column) {
			return true
		}
	}
	return false
}

func sameColumns(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !strings.EqualFold(a[i], b[i]) {
			return false
		}
	}
	return true
}

func (c *comparer) compareForeignKeys(ct, et *schema.Table) {
	for _, efk := range et.ForeignKeys {
		if cfk, ok := ct.ForeignKey(efk); ok {
			if schema.NormalizeAction(cfk.OnDelete) != schema.NormalizeAction(efk.OnDelete) ||
				schema.NormalizeAction(cfk.OnUpdate) != schema.NormalizeAction(efk.OnUpdate) {
				c.warn("table %q: foreign key %q actions differ (ON DELETE %s, expected %s); not altered",
					ct.Name, efk.Column, schema.NormalizeAction(cfk.OnDelete), schema.NormalizeAction(efk.OnDelete))
			}
			continue
		}

		if col, ok := c.missingColumn(ct, []string{efk.Column}); !ok {
			c.warn("table %q: foreign key needs column %q, which is not available; skipped", ct.Name, col)
			continue
		}
		if !c.resolvable(ct, efk) {
			continue
		}
		c.pendingFKs = append(c.pendingFKs, pendingFK{table: ct, fk: efk})
	}
}

// addForeignKeys renders the pending foreign keys. Each operation on a table
// carries every key added to it so far, so the operations stay correct when
// the dialect rebuilds the table from its current definition.
func (c *comparer) addForeignKeys() {
	var (
		table  *schema.Table
		keys   []schema.ForeignKey
		failed bool
	)
	for _, p := range c.pendingFKs {
		if p.table != table {
			table, keys, failed = p.table, nil, false
		}
		if failed {
			continue
		}
		keys = append(keys, p.fk)

		rb := dialect.Rebuild{
			Current:      table,
			AddedColumns: c.addedColumns[table.Name],
			AddedIndexes: c.addedIndexes[table.Name],
		}
		stmts, err := c.dialect.AddForeignKeySQL(rb, keys)
		if err != nil {
			c.warn("table %q: cannot add foreign key %q: %v", table.Name, p.fk.Column, err)
			failed = true
			continue
		}
		c.foreigns = append(c.foreigns, schema.NewAddForeignKey(table.Name, p.fk, stmts))
	}
}
