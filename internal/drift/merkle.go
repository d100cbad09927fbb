// Package drift fingerprints schemas with merkle trees and reports how a
// database schema has drifted from the expected one.
//
// Names are hashed case-insensitively, matching how SQLite resolves
// identifiers. Column order and stored creation SQL are not part of a
// fingerprint.
package drift

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"

	"github.com/cbergoon/merkletree"

	"github.com/hlop3z/schemasync/internal/alerr"
	"github.com/hlop3z/schemasync/internal/schema"
)

// SchemaHash is the merkle root of a schema plus the hashes it was built from.
type SchemaHash struct {
	Root   string                `json:"root" yaml:"root"`
	Tables map[string]*TableHash `json:"tables" yaml:"tables"` // lowercase table name -> hash
}

// TableHash is the hash of one table and of its parts.
type TableHash struct {
	Name    string            `json:"name" yaml:"name"`
	Hash    string            `json:"hash" yaml:"hash"`
	Columns map[string]string `json:"columns" yaml:"columns"`
	Indexes map[string]string `json:"indexes" yaml:"indexes"`
	FKs     map[string]string `json:"foreign_keys" yaml:"foreign_keys"`
}

// tableContent implements merkletree.Content for table-level hashing.
type tableContent struct {
	name string
	hash string
}

func (t tableContent) CalculateHash() ([]byte, error) {
	h := sha256.Sum256([]byte(t.name + ":" + t.hash))
	return h[:], nil
}

func (t tableContent) Equals(other merkletree.Content) (bool, error) {
	o, ok := other.(tableContent)
	if !ok {
		return false, nil
	}
	return t.name == o.name && t.hash == o.hash, nil
}

// ComputeSchemaHash computes the merkle fingerprint of s. Equal schemas have
// equal roots; a nil or empty schema has a fixed root.
func ComputeSchemaHash(s *schema.Schema) (*SchemaHash, error) {
	result := &SchemaHash{Tables: make(map[string]*TableHash)}
	if s.Len() == 0 {
		result.Root = emptyHash()
		return result, nil
	}

	byKey := make(map[string]*TableHash, s.Len())
	for _, name := range s.TableNames() {
		th := computeTableHash(s.Tables[name])
		key := strings.ToLower(name)
		if _, dup := byKey[key]; dup {
			return nil, alerr.New(alerr.ErrSchemaDuplicate, "table names differ only in case").
				WithTable(name)
		}
		byKey[key] = th
	}

	keys := make([]string, 0, len(byKey))
	for k := range byKey {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	contents := make([]merkletree.Content, 0, len(keys))
	for _, k := range keys {
		result.Tables[k] = byKey[k]
		contents = append(contents, tableContent{name: k, hash: byKey[k].Hash})
	}

	tree, err := merkletree.NewTree(contents)
	if err != nil {
		return nil, alerr.Wrap(alerr.EInternalError, err, "failed to build merkle tree")
	}
	result.Root = hex.EncodeToString(tree.MerkleRoot())
	return result, nil
}

func computeTableHash(t *schema.Table) *TableHash {
	th := &TableHash{
		Name:    t.Name,
		Columns: make(map[string]string, len(t.Columns)),
		Indexes: make(map[string]string, len(t.Indexes)),
		FKs:     make(map[string]string, len(t.ForeignKeys)),
	}

	for _, col := range t.Columns {
		th.Columns[strings.ToLower(col.Name)] = computeColumnHash(col)
	}
	for _, idx := range t.Indexes {
		th.Indexes[strings.ToLower(idx.Name)] = computeIndexHash(idx)
	}
	for _, fk := range t.ForeignKeys {
		th.FKs[fkKey(fk)] = computeFKHash(fk)
	}

	th.Hash = hashString(fmt.Sprintf("table:%s|columns:[%s]|indexes:[%s]|fks:[%s]",
		strings.ToLower(t.Name),
		joinSorted(th.Columns),
		joinSorted(th.Indexes),
		joinSorted(th.FKs),
	))
	return th
}

func computeColumnHash(col schema.Column) string {
	data := fmt.Sprintf("name:%s|type:%s|nullable:%v|pk:%v",
		strings.ToLower(col.Name),
		strings.ToUpper(strings.TrimSpace(col.Type)),
		col.Nullable,
		col.PrimaryKey,
	)
	if col.Default != nil {
		data += "|default:" + *col.Default
	}
	return hashString(data)
}

func computeIndexHash(idx schema.Index) string {
	cols := make([]string, len(idx.Columns))
	for i, c := range idx.Columns {
		cols[i] = strings.ToLower(c)
	}
	return hashString(fmt.Sprintf("name:%s|columns:[%s]|unique:%v",
		strings.ToLower(idx.Name),
		strings.Join(cols, ","),
		idx.Unique,
	))
}

func computeFKHash(fk schema.ForeignKey) string {
	return hashString(fmt.Sprintf("%s|on_delete:%s|on_update:%s",
		fkKey(fk),
		schema.NormalizeAction(fk.OnDelete),
		schema.NormalizeAction(fk.OnUpdate),
	))
}

// fkKey names a foreign key by its endpoints; SQLite keys have no names.
func fkKey(fk schema.ForeignKey) string {
	return strings.ToLower(fmt.Sprintf("%s->%s.%s", fk.Column, fk.RefTable, fk.RefColumn))
}

// joinSorted renders name:hash pairs in name order.
func joinSorted(m map[string]string) string {
	names := make([]string, 0, len(m))
	for n := range m {
		names = append(names, n)
	}
	sort.Strings(names)
	parts := make([]string, len(names))
	for i, n := range names {
		parts[i] = n + ":" + m[n]
	}
	return strings.Join(parts, ",")
}

func hashString(s string) string {
	h := sha256.Sum256([]byte(s))
	return hex.EncodeToString(h[:])
}

func emptyHash() string {
	return hashString("empty_schema")
}

// CompareHashes compares two fingerprints and lists what differs.
func CompareHashes(expected, actual *SchemaHash) *HashComparison {
	result := &HashComparison{
		Match:         expected.Root == actual.Root,
		ExpectedRoot:  expected.Root,
		ActualRoot:    actual.Root,
		TableDiffs:    make(map[string]*TableDiff),
		MissingTables: []string{},
		ExtraTables:   []string{},
	}
	if result.Match {
		return result
	}

	for key, et := range expected.Tables {
		at, ok := actual.Tables[key]
		switch {
		case !ok:
			result.MissingTables = append(result.MissingTables, et.Name)
		case et.Hash != at.Hash:
			result.TableDiffs[et.Name] = compareTableHashes(et, at)
		}
	}
	for key, at := range actual.Tables {
		if _, ok := expected.Tables[key]; !ok {
			result.ExtraTables = append(result.ExtraTables, at.Name)
		}
	}
	sort.Strings(result.MissingTables)
	sort.Strings(result.ExtraTables)
	return result
}

// HashComparison is the result of comparing two schema fingerprints.
type HashComparison struct {
	Match         bool                  `json:"match" yaml:"match"`
	ExpectedRoot  string                `json:"expected_root" yaml:"expected_root"`
	ActualRoot    string                `json:"actual_root" yaml:"actual_root"`
	TableDiffs    map[string]*TableDiff `json:"table_diffs" yaml:"table_diffs"`       // keyed by expected table name
	MissingTables []string              `json:"missing_tables" yaml:"missing_tables"` // expected but not in the database
	ExtraTables   []string              `json:"extra_tables" yaml:"extra_tables"`     // in the database only
}

// TableDiff lists the differing parts of one table.
type TableDiff struct {
	Name            string   `json:"name" yaml:"name"`
	MissingColumns  []string `json:"missing_columns,omitempty" yaml:"missing_columns,omitempty"`
	ExtraColumns    []string `json:"extra_columns,omitempty" yaml:"extra_columns,omitempty"`
	ModifiedColumns []string `json:"modified_columns,omitempty" yaml:"modified_columns,omitempty"`
	MissingIndexes  []string `json:"missing_indexes,omitempty" yaml:"missing_indexes,omitempty"`
	ExtraIndexes    []string `json:"extra_indexes,omitempty" yaml:"extra_indexes,omitempty"`
	ModifiedIndexes []string `json:"modified_indexes,omitempty" yaml:"modified_indexes,omitempty"`
	MissingFKs      []string `json:"missing_foreign_keys,omitempty" yaml:"missing_foreign_keys,omitempty"`
	ExtraFKs        []string `json:"extra_foreign_keys,omitempty" yaml:"extra_foreign_keys,omitempty"`
	ModifiedFKs     []string `json:"modified_foreign_keys,omitempty" yaml:"modified_foreign_keys,omitempty"`
}

// HasDifferences reports whether any part of the table differs.
func (d *TableDiff) HasDifferences() bool {
	return len(d.MissingColumns) > 0 ||
		len(d.ExtraColumns) > 0 ||
		len(d.ModifiedColumns) > 0 ||
		len(d.MissingIndexes) > 0 ||
		len(d.ExtraIndexes) > 0 ||
		len(d.ModifiedIndexes) > 0 ||
		len(d.MissingFKs) > 0 ||
		len(d.ExtraFKs) > 0 ||
		len(d.ModifiedFKs) > 0
}

func compareTableHashes(expected, actual *TableHash) *TableDiff {
	diff := &TableDiff{Name: expected.Name}
	diff.MissingColumns, diff.ExtraColumns, diff.ModifiedColumns = compareParts(expected.Columns, actual.Columns)
	diff.MissingIndexes, diff.ExtraIndexes, diff.ModifiedIndexes = compareParts(expected.Indexes, actual.Indexes)
	diff.MissingFKs, diff.ExtraFKs, diff.ModifiedFKs = compareParts(expected.FKs, actual.FKs)
	return diff
}

// compareParts returns the sorted keys missing from actual, only in actual,
// and present in both with different hashes.
func compareParts(expected, actual map[string]string) (missing, extra, modified []string) {
	for name, hash := range expected {
		ah, ok := actual[name]
		if !ok {
			missing = append(missing, name)
		} else if hash != ah {
			modified = append(modified, name)
		}
	}
	for name := range actual {
		if _, ok := expected[name]; !ok {
			extra = append(extra, name)
		}
	}
	sort.Strings(missing)
	sort.Strings(extra)
	sort.Strings(modified)
	return missing, extra, modified
}
