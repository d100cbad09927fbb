// Package dialect provides database-specific SQL generation.
// This file contains shared helper functions used by dialect implementations.
package dialect

import (
	"strings"

	"github.com/hlop3z/schemasync/internal/schema"
)

// QuoteIdentFunc is a function that quotes an identifier.
type QuoteIdentFunc func(name string) string

// quoteIdentDoubleQuote wraps name in double quotes, doubling embedded ones.
func quoteIdentDoubleQuote(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// writeQuotedList writes comma-separated quoted identifiers to the builder.
// This is a DRY helper used by FK constraints, indexes, and key lists.
func writeQuotedList(b *strings.Builder, items []string, quote QuoteIdentFunc) {
	for i, item := range items {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(quote(item))
	}
}

// ColumnDefConfig holds the callbacks for buildColumnDefSQL.
type ColumnDefConfig struct {
	QuoteIdent QuoteIdentFunc

	// InlinePrimaryKey writes PRIMARY KEY on the column itself. False for
	// composite keys, which are rendered as a table constraint.
	InlinePrimaryKey bool

	// ImplicitDefault returns a default for NOT NULL columns that have none.
	// Nil means no implicit default.
	ImplicitDefault func(typ string) string
}

// buildColumnDefSQL generates the SQL for a column definition.
// Order: name, type, PRIMARY KEY, NOT NULL, DEFAULT.
func buildColumnDefSQL(col schema.Column, cfg ColumnDefConfig) string {
	var b strings.Builder

	b.WriteString(cfg.QuoteIdent(col.Name))
	if col.Type != "" {
		b.WriteString(" ")
		b.WriteString(col.Type)
	}

	if col.PrimaryKey && cfg.InlinePrimaryKey {
		b.WriteString(" PRIMARY KEY")
	}
	if !col.Nullable && !col.PrimaryKey {
		b.WriteString(" NOT NULL")
	}

	switch {
	case col.Default != nil:
		b.WriteString(" DEFAULT ")
		b.WriteString(*col.Default)
	case !col.Nullable && !col.PrimaryKey && cfg.ImplicitDefault != nil:
		b.WriteString(" DEFAULT ")
		b.WriteString(cfg.ImplicitDefault(col.Type))
	}

	return b.String()
}

// buildForeignKeyConstraintSQL generates a FOREIGN KEY table constraint.
// NO ACTION is the default and is left implicit.
func buildForeignKeyConstraintSQL(fk schema.ForeignKey, quoteIdent QuoteIdentFunc) string {
	var b strings.Builder

	b.WriteString("FOREIGN KEY (")
	b.WriteString(quoteIdent(fk.Column))
	b.WriteString(") REFERENCES ")
	b.WriteString(quoteIdent(fk.RefTable))
	b.WriteString(" (")
	b.WriteString(quoteIdent(fk.RefColumn))
	b.WriteString(")")

	if a := schema.NormalizeAction(fk.OnDelete); a != schema.ActionNoAction {
		b.WriteString(" ON DELETE ")
		b.WriteString(a)
	}
	if a := schema.NormalizeAction(fk.OnUpdate); a != schema.ActionNoAction {
		b.WriteString(" ON UPDATE ")
		b.WriteString(a)
	}

	return b.String()
}

// buildCreateTableSQL generates CREATE TABLE SQL under the given name.
// The name is separate from t.Name so the rebuild path can render the
// definition under a temporary name.
func buildCreateTableSQL(name string, t *schema.Table, fks []schema.ForeignKey, quoteIdent QuoteIdentFunc) string {
	var b strings.Builder

	pk := t.PrimaryKey()
	cfg := ColumnDefConfig{QuoteIdent: quoteIdent, InlinePrimaryKey: len(pk) == 1}

	b.WriteString("CREATE TABLE ")
	b.WriteString(quoteIdent(name))
	b.WriteString(" (\n")

	for i, col := range t.Columns {
		if i > 0 {
			b.WriteString(",\n")
		}
		b.WriteString("  ")
		b.WriteString(buildColumnDefSQL(col, cfg))
	}

	if len(pk) > 1 {
		b.WriteString(",\n  PRIMARY KEY (")
		writeQuotedList(&b, pk, quoteIdent)
		b.WriteString(")")
	}

	for _, fk := range fks {
		b.WriteString(",\n  ")
		b.WriteString(buildForeignKeyConstraintSQL(fk, quoteIdent))
	}

	b.WriteString("\n)")
	return b.String()
}

// buildAddColumnSQL generates ALTER TABLE ADD COLUMN SQL.
func buildAddColumnSQL(table string, col schema.Column, cfg ColumnDefConfig) string {
	var b strings.Builder
	b.WriteString("ALTER TABLE ")
	b.WriteString(cfg.QuoteIdent(table))
	b.WriteString(" ADD COLUMN ")
	b.WriteString(buildColumnDefSQL(col, cfg))
	return b.String()
}

// buildCreateIndexSQL generates CREATE INDEX SQL.
func buildCreateIndexSQL(idx schema.Index, quoteIdent QuoteIdentFunc) string {
	var b strings.Builder

	b.WriteString("CREATE ")
	if idx.Unique {
		b.WriteString("UNIQUE ")
	}
	b.WriteString("INDEX ")
	b.WriteString(quoteIdent(idx.Name))
	b.WriteString(" ON ")
	b.WriteString(quoteIdent(idx.Table))
	b.WriteString(" (")
	writeQuotedList(&b, idx.Columns, quoteIdent)
	b.WriteString(")")

	return b.String()
}

// IndexName returns the conventional index name IX_<table>_<col1>_<col2>.
func IndexName(table string, cols ...string) string {
	return "IX_" + table + "_" + strings.Join(cols, "_")
}
