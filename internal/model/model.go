// Package model describes an application's object-relational model through
// statically typed descriptors: entities, their scalar properties and their
// relationships. Descriptors are registered once, deterministically, and
// consumed by the model-derived schema reader through the Source interface.
package model

import (
	"fmt"
	"strings"
)

// PropertyType is the logical type of a scalar property.
type PropertyType string

const (
	Text       PropertyType = "text"
	Integer    PropertyType = "integer"
	Identifier PropertyType = "identifier"
	Boolean    PropertyType = "boolean"
	DateTime   PropertyType = "datetime"
	Real       PropertyType = "real"
	Decimal    PropertyType = "decimal"
	Binary     PropertyType = "binary"
)

// DeleteBehavior is the declared behavior of a relationship when the
// principal row is deleted.
type DeleteBehavior int

const (
	// ClientSetNull nulls the dependent in the application only; the
	// database enforces nothing.
	ClientSetNull DeleteBehavior = iota
	Cascade
	SetNull
	Restrict
	NoAction
)

// String returns the behavior name.
func (b DeleteBehavior) String() string {
	switch b {
	case ClientSetNull:
		return "ClientSetNull"
	case Cascade:
		return "Cascade"
	case SetNull:
		return "SetNull"
	case Restrict:
		return "Restrict"
	case NoAction:
		return "NoAction"
	default:
		return fmt.Sprintf("DeleteBehavior(%d)", int(b))
	}
}

// Property describes a scalar property mapped to one column.
type Property struct {
	Name     string
	Type     PropertyType
	Nullable bool
	Key      bool

	// Column overrides the column name; defaults to Name.
	Column string

	// Default is a raw SQL default expression, if any.
	Default *string
}

// ColumnName returns the column the property maps to.
func (p Property) ColumnName() string {
	if p.Column != "" {
		return p.Column
	}
	return p.Name
}

// Relationship describes a reference from the owning (dependent) entity to a
// principal entity.
type Relationship struct {
	// Navigation is the navigation property name, used in diagnostics.
	Navigation string

	// ForeignKey names the dependent property holding the reference.
	ForeignKey string

	// Principal names the referenced entity.
	Principal string

	// PrincipalKey names the referenced property; defaults to the
	// principal's single key property.
	PrincipalKey string

	OnDelete DeleteBehavior
}

// Index describes an index declared on an entity, by property names.
type Index struct {
	Name       string
	Properties []string
	Unique     bool
}

// Entity describes one mapped entity type.
type Entity struct {
	Name string

	// Table overrides the table name; defaults to Name.
	Table string

	Properties    []Property
	Relationships []Relationship
	Indexes       []Index
}

// TableName returns the table the entity maps to.
func (e Entity) TableName() string {
	if e.Table != "" {
		return e.Table
	}
	return e.Name
}

// Property returns the property with the given name.
func (e Entity) Property(name string) (Property, bool) {
	for _, p := range e.Properties {
		if strings.EqualFold(p.Name, name) {
			return p, true
		}
	}
	return Property{}, false
}

// Keys returns the key properties in declaration order.
func (e Entity) Keys() []Property {
	var keys []Property
	for _, p := range e.Properties {
		if p.Key {
			keys = append(keys, p)
		}
	}
	return keys
}

// Source is the read-only view of a model consumed by the model reader.
type Source interface {
	// Entities returns every entity in a stable order.
	Entities() []Entity
}
