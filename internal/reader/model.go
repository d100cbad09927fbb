package reader

import (
	"context"
	"strings"

	"github.com/hlop3z/schemasync/internal/alerr"
	"github.com/hlop3z/schemasync/internal/dialect"
	"github.com/hlop3z/schemasync/internal/model"
	"github.com/hlop3z/schemasync/internal/schema"
)

// columnTypes maps logical property types to SQLite column types.
// Date-times are stored as ISO 8601 text.
var columnTypes = map[model.PropertyType]string{
	model.Text:       "TEXT",
	model.Integer:    "INTEGER",
	model.Identifier: "TEXT",
	model.Boolean:    "INTEGER",
	model.DateTime:   "TEXT",
	model.Real:       "REAL",
	model.Decimal:    "TEXT",
	model.Binary:     "BLOB",
}

// ColumnType returns the column type for a logical property type. Types
// outside the lookup table pass through upper-cased, so custom types reach
// the validator as unknown-type warnings rather than failing the read.
func ColumnType(t model.PropertyType) string {
	if typ, ok := columnTypes[t]; ok {
		return typ
	}
	return strings.ToUpper(string(t))
}

// OnDeleteAction maps a relationship delete behavior to a referential
// action. ClientSetNull is enforced by the application only, so the
// database gets NO ACTION.
func OnDeleteAction(b model.DeleteBehavior) string {
	switch b {
	case model.Cascade:
		return schema.ActionCascade
	case model.SetNull:
		return schema.ActionSetNull
	case model.Restrict:
		return schema.ActionRestrict
	default:
		return schema.ActionNoAction
	}
}

// Model synthesizes the expected schema from model descriptors.
type Model struct {
	src  model.Source
	opts schema.Options
}

// FromModel returns a Reader deriving a schema from src.
func FromModel(src model.Source, opts schema.Options) *Model {
	return &Model{src: src, opts: opts}
}

func (r *Model) ReadSchema(ctx context.Context) (*schema.Schema, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if r.src == nil {
		return nil, alerr.New(alerr.ErrModelInvalid, "no model source")
	}

	entities := r.src.Entities()
	byName := make(map[string]model.Entity, len(entities))
	names := make([]string, 0, len(entities))
	for _, e := range entities {
		byName[strings.ToLower(e.Name)] = e
		names = append(names, e.Name)
	}

	s := &schema.Schema{Tables: make(map[string]*schema.Table, len(entities))}
	for _, e := range entities {
		t, err := buildTable(e, byName, names)
		if err != nil {
			return nil, err
		}
		if _, exists := s.Tables[t.Name]; exists {
			return nil, alerr.New(alerr.ErrSchemaDuplicate, "two entities map to the same table").
				WithTable(t.Name).
				With("entity", e.Name)
		}
		s.Tables[t.Name] = t
	}

	return r.opts.Apply(s), nil
}

func buildTable(e model.Entity, byName map[string]model.Entity, names []string) (*schema.Table, error) {
	t := &schema.Table{Name: e.TableName()}

	for i, p := range e.Properties {
		t.Columns = append(t.Columns, schema.Column{
			Name:       p.ColumnName(),
			Type:       ColumnType(p.Type),
			Nullable:   p.Nullable && !p.Key,
			PrimaryKey: p.Key,
			Default:    p.Default,
			Position:   i,
		})
	}

	for _, idx := range e.Indexes {
		cols, err := columnsOf(e, idx.Properties)
		if err != nil {
			return nil, err
		}
		name := idx.Name
		if name == "" {
			name = dialect.IndexName(t.Name, cols...)
		}
		t.Indexes = append(t.Indexes, schema.Index{Name: name, Table: t.Name, Columns: cols, Unique: idx.Unique})
	}

	for _, rel := range e.Relationships {
		fk, err := buildForeignKey(e, rel, byName, names)
		if err != nil {
			return nil, err
		}
		t.ForeignKeys = append(t.ForeignKeys, fk)
		addConventionalIndex(t, fk.Column)
	}

	return t, nil
}

func columnsOf(e model.Entity, props []string) ([]string, error) {
	cols := make([]string, 0, len(props))
	for _, name := range props {
		p, ok := e.Property(name)
		if !ok {
			return nil, unknownProperty(e, name)
		}
		cols = append(cols, p.ColumnName())
	}
	return cols, nil
}

func buildForeignKey(e model.Entity, rel model.Relationship, byName map[string]model.Entity, names []string) (schema.ForeignKey, error) {
	dep, ok := e.Property(rel.ForeignKey)
	if !ok {
		return schema.ForeignKey{}, unknownProperty(e, rel.ForeignKey).With("navigation", rel.Navigation)
	}

	principal, ok := byName[strings.ToLower(rel.Principal)]
	if !ok {
		return schema.ForeignKey{}, alerr.New(alerr.ErrInvalidReference, "relationship references an unknown entity").
			With("entity", e.Name).
			With("navigation", rel.Navigation).
			With("principal", rel.Principal).
			WithHelp(alerr.Suggest(alerr.KindTable, rel.Principal, names))
	}

	var key model.Property
	if rel.PrincipalKey != "" {
		if key, ok = principal.Property(rel.PrincipalKey); !ok {
			return schema.ForeignKey{}, unknownProperty(principal, rel.PrincipalKey).With("navigation", rel.Navigation)
		}
	} else {
		keys := principal.Keys()
		if len(keys) != 1 {
			return schema.ForeignKey{}, alerr.New(alerr.ErrModelInvalid, "principal must have exactly one key property or name a principal key").
				With("entity", e.Name).
				With("navigation", rel.Navigation).
				With("principal", principal.Name).
				With("keys", len(keys))
		}
		key = keys[0]
	}

	return schema.ForeignKey{
		Column:    dep.ColumnName(),
		RefTable:  principal.TableName(),
		RefColumn: key.ColumnName(),
		OnDelete:  OnDeleteAction(rel.OnDelete),
		OnUpdate:  schema.ActionNoAction,
	}, nil
}

// addConventionalIndex indexes a foreign key column unless an index already
// leads with it or it is the table's single-column primary key.
func addConventionalIndex(t *schema.Table, column string) {
	for _, idx := range t.Indexes {
		if idx.Covers(column) {
			return
		}
	}
	if pk := t.PrimaryKey(); len(pk) == 1 && strings.EqualFold(pk[0], column) {
		return
	}
	t.Indexes = append(t.Indexes, schema.Index{
		Name:    dialect.IndexName(t.Name, column),
		Table:   t.Name,
		Columns: []string{column},
	})
}

func unknownProperty(e model.Entity, name string) *alerr.Error {
	props := make([]string, 0, len(e.Properties))
	for _, p := range e.Properties {
		props = append(props, p.Name)
	}
	return alerr.New(alerr.ErrModelInvalid, "unknown property").
		With("entity", e.Name).
		With("property", name).
		WithHelp(alerr.Suggest(alerr.KindColumn, name, props))
}
