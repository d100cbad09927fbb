// Package validate checks a schema definition for structural soundness:
// names, types, index and foreign key columns, and foreign key cycles that
// span distinct tables. Validation is pure; it performs no I/O.
package validate

import (
	"sort"
	"strings"

	"github.com/hlop3z/schemasync/internal/alerr"
	"github.com/hlop3z/schemasync/internal/dialect"
	"github.com/hlop3z/schemasync/internal/schema"
)

// Validator validates schemas against a dialect's naming limits and type
// catalog.
type Validator struct {
	dialect dialect.Dialect
}

// New returns a Validator for d.
func New(d dialect.Dialect) *Validator {
	return &Validator{dialect: d}
}

// Validate checks s. Only hard errors make the result invalid; unknown types
// and dangling references are warnings, reserved words and missing primary
// keys are informational.
func (v *Validator) Validate(s *schema.Schema) *schema.ValidationResult {
	res := &schema.ValidationResult{}
	if s == nil {
		res.AddError("schema is nil")
		return res
	}

	seenTables := make(map[string]string)
	seenIndexes := make(map[string]string) // index names are schema-wide in SQLite

	for _, key := range s.TableNames() {
		t := s.Tables[key]
		if t == nil {
			res.AddError("table %q has no definition", key)
			continue
		}

		if !v.checkName(res, "table", t.Name, "") {
			continue
		}
		if key != t.Name {
			res.AddError("table %q is registered under a different name %q", t.Name, key)
		}
		if prev, dup := seenTables[strings.ToLower(t.Name)]; dup {
			res.AddError("table %q duplicates table %q (names are case-insensitive)", t.Name, prev)
		}
		seenTables[strings.ToLower(t.Name)] = t.Name

		v.checkColumns(res, t)
		v.checkIndexes(res, t, seenIndexes)
		v.checkForeignKeys(res, s, t)
	}

	checkCycles(res, s)
	return res
}

// checkName validates an identifier and reports whether it is usable.
func (v *Validator) checkName(res *schema.ValidationResult, kind, name, table string) bool {
	where := kind
	if table != "" {
		where = "table " + quote(table) + ": " + kind
	}

	if strings.TrimSpace(name) == "" {
		res.AddError("%s name cannot be empty", where)
		return false
	}
	if limit := v.maxLength(); len(name) > limit {
		res.AddError("%s %q exceeds maximum length of %d characters", where, name, limit)
	}
	if IsReservedWord(name) {
		res.AddInfo("%s %q is a SQL reserved word and will always be quoted", where, name)
	}
	return true
}

func (v *Validator) checkColumns(res *schema.ValidationResult, t *schema.Table) {
	if len(t.Columns) == 0 {
		res.AddError("table %q has no columns", t.Name)
		return
	}

	seen := make(map[string]bool, len(t.Columns))
	for i, c := range t.Columns {
		if !v.checkName(res, "column", c.Name, t.Name) {
			continue
		}
		if seen[strings.ToLower(c.Name)] {
			res.AddError("table %q: column %q is declared more than once", t.Name, c.Name)
		}
		seen[strings.ToLower(c.Name)] = true

		if i > 0 && c.Position <= t.Columns[i-1].Position {
			res.AddError("table %q: column %q position %d does not follow %d", t.Name, c.Name, c.Position, t.Columns[i-1].Position)
		}
		if v.dialect != nil && !v.dialect.KnownType(c.Type) {
			res.AddWarning("table %q: column %q has unknown type %q", t.Name, c.Name, c.Type)
		}
	}

	if len(t.PrimaryKey()) == 0 {
		res.AddInfo("table %q has no primary key", t.Name)
	}
}

func (v *Validator) checkIndexes(res *schema.ValidationResult, t *schema.Table, seen map[string]string) {
	for _, idx := range t.Indexes {
		if !v.checkName(res, "index", idx.Name, t.Name) {
			continue
		}

		if owner, dup := seen[strings.ToLower(idx.Name)]; dup {
			if strings.EqualFold(owner, t.Name) {
				res.AddError("table %q: duplicate index name %q", t.Name, idx.Name)
			} else {
				res.AddError("table %q: index name %q is already used by table %q", t.Name, idx.Name, owner)
			}
		}
		seen[strings.ToLower(idx.Name)] = t.Name

		if idx.Table != "" && !strings.EqualFold(idx.Table, t.Name) {
			res.AddError("table %q: index %q belongs to table %q", t.Name, idx.Name, idx.Table)
		}
		if len(idx.Columns) == 0 && idx.SQL == "" {
			res.AddError("table %q: index %q has no columns", t.Name, idx.Name)
		}
		for _, col := range idx.Columns {
			if !t.HasColumn(col) {
				res.AddError("table %q: index %q references unknown column %q%s",
					t.Name, idx.Name, col, help(alerr.SuggestColumn(col, t.ColumnNames())))
			}
		}
	}
}

func (v *Validator) checkForeignKeys(res *schema.ValidationResult, s *schema.Schema, t *schema.Table) {
	for _, fk := range t.ForeignKeys {
		if !t.HasColumn(fk.Column) {
			res.AddError("table %q: foreign key on unknown column %q%s",
				t.Name, fk.Column, help(alerr.SuggestColumn(fk.Column, t.ColumnNames())))
			continue
		}

		ref, ok := s.Table(fk.RefTable)
		if !ok {
			res.AddWarning("table %q: foreign key %q references unknown table %q%s",
				t.Name, fk.Column, fk.RefTable, help(alerr.SuggestTable(fk.RefTable, s.TableNames())))
			continue
		}
		if !ref.HasColumn(fk.RefColumn) {
			res.AddWarning("table %q: foreign key %q references unknown column %q.%q%s",
				t.Name, fk.Column, ref.Name, fk.RefColumn, help(alerr.SuggestColumn(fk.RefColumn, ref.ColumnNames())))
		}
	}
}

// checkCycles reports every foreign key cycle spanning two or more distinct
// tables. A search from each table marks the table visited before following
// its edges, so a table referencing itself never counts as a cycle.
func checkCycles(res *schema.ValidationResult, s *schema.Schema) {
	graph := make(map[string][]string)
	names := make(map[string]string) // lower-cased -> declared
	for _, key := range s.TableNames() {
		t := s.Tables[key]
		if t == nil {
			continue
		}
		from := strings.ToLower(t.Name)
		names[from] = t.Name

		targets := make(map[string]bool)
		for _, fk := range t.ForeignKeys {
			to := strings.ToLower(fk.RefTable)
			if to == from || targets[to] {
				continue
			}
			targets[to] = true
			graph[from] = append(graph[from], to)
		}
		sort.Strings(graph[from])
	}

	const (
		unvisited = iota
		onPath
		done
	)
	state := make(map[string]int)
	reported := make(map[string]bool)
	var path []string

	var visit func(node string)
	visit = func(node string) {
		state[node] = onPath
		path = append(path, node)

		for _, next := range graph[node] {
			if _, exists := names[next]; !exists {
				continue // dangling, reported as a warning
			}
			switch state[next] {
			case onPath:
				cycle := cycleFrom(path, next)
				if key := cycleKey(cycle); !reported[key] {
					reported[key] = true
					res.AddError("foreign key cycle between tables: %s", formatCycle(cycle, names))
				}
			case unvisited:
				visit(next)
			}
		}

		path = path[:len(path)-1]
		state[node] = done
	}

	starts := make([]string, 0, len(names))
	for lower := range names {
		starts = append(starts, lower)
	}
	sort.Strings(starts)
	for _, start := range starts {
		if state[start] == unvisited {
			visit(start)
		}
	}
}

// cycleFrom returns the part of path starting at node.
func cycleFrom(path []string, node string) []string {
	for i, n := range path {
		if n == node {
			return append([]string(nil), path[i:]...)
		}
	}
	return nil
}

// cycleKey identifies a cycle independently of its starting table.
func cycleKey(cycle []string) string {
	lo := 0
	for i := range cycle {
		if cycle[i] < cycle[lo] {
			lo = i
		}
	}
	rotated := append(append([]string(nil), cycle[lo:]...), cycle[:lo]...)
	return strings.Join(rotated, "\x00")
}

func formatCycle(cycle []string, names map[string]string) string {
	parts := make([]string, 0, len(cycle)+1)
	for _, n := range cycle {
		parts = append(parts, names[n])
	}
	parts = append(parts, names[cycle[0]])
	return strings.Join(parts, " -> ")
}

func (v *Validator) maxLength() int {
	if v.dialect == nil {
		return 128
	}
	return v.dialect.MaxIdentifierLength()
}

func help(hint string) string {
	if hint == "" {
		return ""
	}
	return " (" + hint + ")"
}

func quote(s string) string {
	return `"` + s + `"`
}
