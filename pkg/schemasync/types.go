package schemasync

import (
	"github.com/hlop3z/schemasync/internal/engine/runner"
	"github.com/hlop3z/schemasync/internal/model"
	"github.com/hlop3z/schemasync/internal/reader"
	"github.com/hlop3z/schemasync/internal/schema"
)

// Schema model.
type (
	Schema           = schema.Schema
	Table            = schema.Table
	Column           = schema.Column
	Index            = schema.Index
	ForeignKey       = schema.ForeignKey
	Diff             = schema.Diff
	Operation        = schema.Operation
	ValidationResult = schema.ValidationResult
	MigrationResult  = schema.MigrationResult
	Options          = schema.Options
)

// Hooks.
type (
	Hook             = runner.Hook
	HookFuncs        = runner.HookFuncs
	MigrationContext = runner.Context
)

// Reader produces a schema from a source.
type Reader = reader.Reader

// Model descriptors for the model-derived reader.
type (
	Entity         = model.Entity
	Property       = model.Property
	Relationship   = model.Relationship
	ModelIndex     = model.Index
	PropertyType   = model.PropertyType
	DeleteBehavior = model.DeleteBehavior
	ModelSource    = model.Source
	Registry       = model.Registry
)

const (
	Text       = model.Text
	Integer    = model.Integer
	Identifier = model.Identifier
	Boolean    = model.Boolean
	DateTime   = model.DateTime
	Real       = model.Real
	Decimal    = model.Decimal
	Binary     = model.Binary
)

const (
	ClientSetNull = model.ClientSetNull
	Cascade       = model.Cascade
	SetNull       = model.SetNull
	Restrict      = model.Restrict
	NoAction      = model.NoAction
)

// NewRegistry returns an empty model registry.
func NewRegistry() *Registry {
	return model.NewRegistry()
}

// DefaultOptions returns the options used when none are given.
func DefaultOptions() Options {
	return schema.DefaultOptions()
}
