package schema

import "fmt"

// OpKind identifies the kind of a migration operation. The numeric order is
// the execution order of the phases.
type OpKind int

const (
	OpCreateTable OpKind = iota + 1
	OpAddColumn
	OpCreateIndex
	OpAddForeignKey
)

// String returns the operation kind name.
func (k OpKind) String() string {
	switch k {
	case OpCreateTable:
		return "CreateTable"
	case OpAddColumn:
		return "AddColumn"
	case OpCreateIndex:
		return "CreateIndex"
	case OpAddForeignKey:
		return "AddForeignKey"
	default:
		return fmt.Sprintf("OpKind(%d)", int(k))
	}
}

// Operation is a single step of a Diff. Concrete types are CreateTable,
// AddColumn, CreateIndex and AddForeignKey.
type Operation interface {
	// Kind returns the operation tag.
	Kind() OpKind

	// Table returns the target table name.
	Table() string

	// SQL returns the statements that apply the operation, in order.
	SQL() []string

	// Description returns a human-readable summary.
	Description() string
}

// opBase carries the fields shared by every operation.
type opBase struct {
	Target     string
	Statements []string
}

func (o opBase) Table() string { return o.Target }
func (o opBase) SQL() []string { return o.Statements }

// CreateTable creates a missing table with all its columns, indexes and
// foreign keys.
type CreateTable struct {
	opBase
	Def *Table
}

// NewCreateTable returns a CreateTable operation for def.
func NewCreateTable(def *Table, statements []string) *CreateTable {
	return &CreateTable{opBase: opBase{Target: def.Name, Statements: statements}, Def: def}
}

func (op *CreateTable) Kind() OpKind { return OpCreateTable }
func (op *CreateTable) Description() string {
	return fmt.Sprintf("create table %s (%d columns)", op.Target, len(op.Def.Columns))
}

// AddColumn adds a column to an existing table.
type AddColumn struct {
	opBase
	Column Column
}

// NewAddColumn returns an AddColumn operation.
func NewAddColumn(table string, col Column, statements []string) *AddColumn {
	return &AddColumn{opBase: opBase{Target: table, Statements: statements}, Column: col}
}

func (op *AddColumn) Kind() OpKind { return OpAddColumn }
func (op *AddColumn) Description() string {
	return fmt.Sprintf("add column %s.%s %s", op.Target, op.Column.Name, op.Column.Type)
}

// CreateIndex creates a missing index.
type CreateIndex struct {
	opBase
	Index Index
}

// NewCreateIndex returns a CreateIndex operation.
func NewCreateIndex(idx Index, statements []string) *CreateIndex {
	return &CreateIndex{opBase: opBase{Target: idx.Table, Statements: statements}, Index: idx}
}

func (op *CreateIndex) Kind() OpKind { return OpCreateIndex }
func (op *CreateIndex) Description() string {
	kind := "index"
	if op.Index.Unique {
		kind = "unique index"
	}
	return fmt.Sprintf("create %s %s on %s", kind, op.Index.Name, op.Target)
}

// AddForeignKey adds a foreign key to an existing table.
type AddForeignKey struct {
	opBase
	ForeignKey ForeignKey
}

// NewAddForeignKey returns an AddForeignKey operation.
func NewAddForeignKey(table string, fk ForeignKey, statements []string) *AddForeignKey {
	return &AddForeignKey{opBase: opBase{Target: table, Statements: statements}, ForeignKey: fk}
}

func (op *AddForeignKey) Kind() OpKind { return OpAddForeignKey }
func (op *AddForeignKey) Description() string {
	return fmt.Sprintf("add foreign key %s.%s -> %s.%s",
		op.Target, op.ForeignKey.Column, op.ForeignKey.RefTable, op.ForeignKey.RefColumn)
}

// Diff is a dependency-ordered list of operations plus comparer warnings.
type Diff struct {
	Operations []Operation
	Warnings   []string
}

// HasChanges reports whether the diff contains any operation.
func (d *Diff) HasChanges() bool {
	return d != nil && len(d.Operations) > 0
}

// Statements flattens the SQL of every operation in order.
func (d *Diff) Statements() []string {
	if d == nil {
		return nil
	}
	var out []string
	for _, op := range d.Operations {
		out = append(out, op.SQL()...)
	}
	return out
}

// Count returns the number of operations of the given kind.
func (d *Diff) Count(kind OpKind) int {
	if d == nil {
		return 0
	}
	n := 0
	for _, op := range d.Operations {
		if op.Kind() == kind {
			n++
		}
	}
	return n
}
