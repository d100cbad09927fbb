package drift

import (
	"context"
	"sort"

	"github.com/hlop3z/schemasync/internal/alerr"
	"github.com/hlop3z/schemasync/internal/reader"
	"github.com/hlop3z/schemasync/internal/schema"
)

// Detector checks a database, seen through a reader, against an expected
// schema.
type Detector struct {
	actual reader.Reader
}

// NewDetector creates a detector reading the actual schema from r.
func NewDetector(r reader.Reader) *Detector {
	return &Detector{actual: r}
}

// Result is the outcome of a drift check.
type Result struct {
	// HasDrift is true if any differences were found
	HasDrift bool

	// ExpectedHash is the merkle root of the expected schema
	ExpectedHash string

	// ActualHash is the merkle root of the database schema
	ActualHash string

	// Comparison contains the per-table differences
	Comparison *HashComparison

	ExpectedSchema *schema.Schema
	ActualSchema   *schema.Schema
}

// Detect reads the actual schema and compares it against expected.
func (d *Detector) Detect(ctx context.Context, expected *schema.Schema) (*Result, error) {
	if d.actual == nil {
		return nil, alerr.New(alerr.ErrIntrospection, "no schema reader configured")
	}
	actual, err := d.actual.ReadSchema(ctx)
	if err != nil {
		return nil, err
	}
	return Detect(expected, actual)
}

// withoutUndeclaredDefaults returns actual with the defaults of columns whose
// expected counterpart has no default removed. Tables and columns are
// matched by name, ignoring case. actual is not modified.
func withoutUndeclaredDefaults(expected, actual *schema.Schema) *schema.Schema {
	if actual == nil {
		return nil
	}
	out := &schema.Schema{Tables: make(map[string]*schema.Table, len(actual.Tables))}
	for name, t := range actual.Tables {
		out.Tables[name] = t
		et, ok := expected.Table(t.Name)
		if !ok {
			continue
		}

		var cols []schema.Column
		for i, col := range t.Columns {
			if col.Default == nil {
				continue
			}
			if ec, ok := et.Column(col.Name); !ok || ec.Default != nil {
				continue
			}
			if cols == nil {
				cols = append([]schema.Column(nil), t.Columns...)
			}
			cols[i].Default = nil
		}
		if cols != nil {
			copied := *t
			copied.Columns = cols
			out.Tables[name] = &copied
		}
	}
	return out
}

// QuickCheck reports whether the database matches expected, comparing only
// root hashes.
func (d *Detector) QuickCheck(ctx context.Context, expected *schema.Schema) (bool, error) {
	result, err := d.Detect(ctx, expected)
	if err != nil {
		return false, err
	}
	return !result.HasDrift, nil
}

// Detect fingerprints both schemas and lists the tables that are missing
// from actual, only in actual, or different. A column default present in
// actual but not declared by expected is not drift: migrations give added
// NOT NULL columns a zero default the expected schema never states.
func Detect(expected, actual *schema.Schema) (*Result, error) {
	expectedHash, err := ComputeSchemaHash(expected)
	if err != nil {
		return nil, alerr.Wrap(alerr.EInternalError, err, "failed to compute expected schema hash")
	}
	actualHash, err := ComputeSchemaHash(withoutUndeclaredDefaults(expected, actual))
	if err != nil {
		return nil, alerr.Wrap(alerr.EInternalError, err, "failed to compute actual schema hash")
	}

	comparison := CompareHashes(expectedHash, actualHash)
	return &Result{
		HasDrift:       !comparison.Match,
		ExpectedHash:   expectedHash.Root,
		ActualHash:     actualHash.Root,
		Comparison:     comparison,
		ExpectedSchema: expected,
		ActualSchema:   actual,
	}, nil
}

// Summary is a compact view of a Result, suitable for YAML or JSON output.
type Summary struct {
	Tables         int            `json:"tables" yaml:"tables"`
	MissingTables  int            `json:"missing_tables" yaml:"missing_tables"`
	ExtraTables    int            `json:"extra_tables" yaml:"extra_tables"`
	ModifiedTables int            `json:"modified_tables" yaml:"modified_tables"`
	ExpectedHash   string         `json:"expected_hash" yaml:"expected_hash"`
	ActualHash     string         `json:"actual_hash" yaml:"actual_hash"`
	Details        []TableSummary `json:"details" yaml:"details"`
}

// TableSummary summarizes drift for a single table.
type TableSummary struct {
	Name        string `json:"name" yaml:"name"`
	Status      string `json:"status" yaml:"status"` // "missing", "extra", "modified"
	Columns     Counts `json:"columns" yaml:"columns"`
	Indexes     Counts `json:"indexes" yaml:"indexes"`
	ForeignKeys Counts `json:"foreign_keys" yaml:"foreign_keys"`
}

// Counts tracks missing/extra/modified counts.
type Counts struct {
	Missing  int `json:"missing" yaml:"missing"`
	Extra    int `json:"extra" yaml:"extra"`
	Modified int `json:"modified" yaml:"modified"`
}

// Summarize builds a Summary; details are ordered missing, extra, modified
// and by name within each group.
func Summarize(result *Result) *Summary {
	if result == nil || result.Comparison == nil {
		return &Summary{Details: []TableSummary{}}
	}
	comp := result.Comparison

	summary := &Summary{
		Tables:         result.ExpectedSchema.Len(),
		MissingTables:  len(comp.MissingTables),
		ExtraTables:    len(comp.ExtraTables),
		ModifiedTables: len(comp.TableDiffs),
		ExpectedHash:   result.ExpectedHash,
		ActualHash:     result.ActualHash,
		Details:        []TableSummary{},
	}

	for _, name := range comp.MissingTables {
		summary.Details = append(summary.Details, TableSummary{Name: name, Status: "missing"})
	}
	for _, name := range comp.ExtraTables {
		summary.Details = append(summary.Details, TableSummary{Name: name, Status: "extra"})
	}
	for _, name := range modifiedNames(comp) {
		diff := comp.TableDiffs[name]
		summary.Details = append(summary.Details, TableSummary{
			Name:   name,
			Status: "modified",
			Columns: Counts{
				Missing:  len(diff.MissingColumns),
				Extra:    len(diff.ExtraColumns),
				Modified: len(diff.ModifiedColumns),
			},
			Indexes: Counts{
				Missing:  len(diff.MissingIndexes),
				Extra:    len(diff.ExtraIndexes),
				Modified: len(diff.ModifiedIndexes),
			},
			ForeignKeys: Counts{
				Missing:  len(diff.MissingFKs),
				Extra:    len(diff.ExtraFKs),
				Modified: len(diff.ModifiedFKs),
			},
		})
	}
	return summary
}

func modifiedNames(comp *HashComparison) []string {
	names := make([]string, 0, len(comp.TableDiffs))
	for name := range comp.TableDiffs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
