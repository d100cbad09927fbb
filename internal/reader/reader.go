// Package reader produces schema definitions from a source: the live SQLite
// catalog, an in-memory object-relational model, or a ready snapshot.
// Every reader honors the ignored tables and columns of its options and has
// no write side effects.
package reader

import (
	"context"

	"github.com/hlop3z/schemasync/internal/schema"
)

// Reader produces a schema definition from its source.
type Reader interface {
	// ReadSchema returns a fresh snapshot. Failures to reach or parse the
	// source are returned as errors with code ErrIntrospection or
	// ErrModelInvalid.
	ReadSchema(ctx context.Context) (*schema.Schema, error)
}

// Static is a Reader over an already built schema, such as one loaded from a
// JSON snapshot.
type Static struct {
	s    *schema.Schema
	opts schema.Options
}

// NewStatic returns a Reader serving s filtered by opts.
func NewStatic(s *schema.Schema, opts schema.Options) *Static {
	return &Static{s: s, opts: opts}
}

func (r *Static) ReadSchema(ctx context.Context) (*schema.Schema, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return r.opts.Apply(r.s), nil
}
