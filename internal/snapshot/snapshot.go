// Package snapshot serializes schemas to pretty-printed JSON for version
// control and reads them back.
//
// Map keys are written in sorted order, so equal schemas produce byte-equal
// files.
package snapshot

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/hlop3z/schemasync/internal/alerr"
	"github.com/hlop3z/schemasync/internal/schema"
)

// ToJSON encodes s as indented JSON with a trailing newline.
func ToJSON(s *schema.Schema) ([]byte, error) {
	if s == nil {
		s = schema.New()
	}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, alerr.Wrap(alerr.ErrSerialization, err, "failed to encode schema")
	}
	return append(data, '\n'), nil
}

// FromJSON decodes a schema written by ToJSON. Unknown fields are rejected.
func FromJSON(data []byte) (*schema.Schema, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()

	var s schema.Schema
	if err := dec.Decode(&s); err != nil {
		return nil, alerr.Wrap(alerr.ErrSerialization, err, "failed to decode schema")
	}
	if s.Tables == nil {
		s.Tables = make(map[string]*schema.Table)
	}
	for name, t := range s.Tables {
		if t == nil {
			return nil, alerr.New(alerr.ErrSerialization, "table entry is null").WithTable(name)
		}
	}
	return &s, nil
}

// WriteFile writes s to path, creating the parent directory if needed.
func WriteFile(path string, s *schema.Schema) error {
	data, err := ToJSON(s)
	if err != nil {
		return err
	}

	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return alerr.Wrap(alerr.ErrSerialization, err, "failed to create snapshot directory").
				With("path", path)
		}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return alerr.Wrap(alerr.ErrSerialization, err, "failed to write snapshot").
			With("path", path)
	}
	return nil
}

// ReadFile reads a schema snapshot from path.
func ReadFile(path string) (*schema.Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, alerr.Wrap(alerr.ErrSerialization, err, "failed to read snapshot").
			With("path", path)
	}
	s, err := FromJSON(data)
	if err != nil {
		if e, ok := err.(*alerr.Error); ok {
			e.With("path", path)
		}
		return nil, err
	}
	return s, nil
}
