package drift

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/hlop3z/schemasync/internal/dialect"
	"github.com/hlop3z/schemasync/internal/reader"
	"github.com/hlop3z/schemasync/internal/schema"
	"github.com/hlop3z/schemasync/internal/testutil"
)

func TestDetect(t *testing.T) {
	expected := schema.New(usersTable(), postsTable())

	changed := usersTable()
	changed.Columns = changed.Columns[:2]
	actual := schema.New(changed)

	result, err := Detect(expected, actual)
	testutil.AssertNoError(t, err)
	if !result.HasDrift {
		t.Fatal("expected drift")
	}
	if result.ExpectedHash == result.ActualHash {
		t.Error("hashes should differ")
	}

	summary := Summarize(result)
	if summary.Tables != 2 || summary.MissingTables != 1 || summary.ModifiedTables != 1 || summary.ExtraTables != 0 {
		t.Errorf("summary = %+v", summary)
	}
	if len(summary.Details) != 2 {
		t.Fatalf("details = %+v", summary.Details)
	}
	if d := summary.Details[0]; d.Name != "Posts" || d.Status != "missing" {
		t.Errorf("details[0] = %+v", d)
	}
	if d := summary.Details[1]; d.Name != "Users" || d.Status != "modified" || d.Columns.Missing != 1 {
		t.Errorf("details[1] = %+v", d)
	}
	testutil.AssertEqual(t, FormatSummary(summary), "Drift detected: 1 missing, 1 modified")
}

func TestDetect_NoDrift(t *testing.T) {
	result, err := Detect(schema.New(usersTable()), schema.New(usersTable()))
	testutil.AssertNoError(t, err)
	if result.HasDrift {
		t.Error("unexpected drift")
	}
	testutil.AssertEqual(t, FormatSummary(Summarize(result)), "No drift detected. 1 tables in sync.")
}

func TestDetect_UndeclaredDefaults(t *testing.T) {
	tests := []struct {
		name      string
		expected  *string
		actual    *string
		wantDrift bool
	}{
		{"zero default added by migration", nil, strPtr("''"), false},
		{"both declare the same default", strPtr("'x'"), strPtr("'x'"), false},
		{"declared default differs", strPtr("'x'"), strPtr("''"), true},
		{"declared default missing from database", strPtr("'x'"), nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			exp := usersTable()
			exp.Columns[1] = schema.Column{Name: "Email", Type: "TEXT", Default: tt.expected, Position: 1}
			act := usersTable()
			act.Columns[1] = schema.Column{Name: "email", Type: "TEXT", Default: tt.actual, Position: 1}
			actual := schema.New(act)

			result, err := Detect(schema.New(exp), actual)
			testutil.AssertNoError(t, err)
			testutil.AssertEqual(t, result.HasDrift, tt.wantDrift)

			// The actual schema is reported as read.
			if got := result.ActualSchema.Tables["Users"].Columns[1].Default; got != tt.actual {
				t.Errorf("ActualSchema default changed: %v", got)
			}
		})
	}
}

func TestDetector_Live(t *testing.T) {
	db := testutil.SetupSQLite(t)
	testutil.ExecAll(t, db,
		`CREATE TABLE "Users" ("Id" INTEGER PRIMARY KEY, "Name" TEXT NOT NULL)`,
	)
	ctx := context.Background()
	live := reader.NewLive(db, dialect.SQLite(), schema.DefaultOptions(), nil)

	current, err := live.ReadSchema(ctx)
	testutil.AssertNoError(t, err)

	d := NewDetector(live)
	ok, err := d.QuickCheck(ctx, current)
	testutil.AssertNoError(t, err)
	if !ok {
		t.Error("a database should match its own schema")
	}

	expected := schema.New(current.Tables["Users"], &schema.Table{
		Name:    "Tags",
		Columns: []schema.Column{{Name: "Id", Type: "INTEGER", PrimaryKey: true}},
	})
	result, err := d.Detect(ctx, expected)
	testutil.AssertNoError(t, err)
	if !result.HasDrift || len(result.Comparison.MissingTables) != 1 || result.Comparison.MissingTables[0] != "Tags" {
		t.Errorf("comparison = %+v", result.Comparison)
	}
}

type failingReader struct{ err error }

func (r failingReader) ReadSchema(context.Context) (*schema.Schema, error) { return nil, r.err }

func TestDetector_ReadError(t *testing.T) {
	want := errors.New("database is locked")
	_, err := NewDetector(failingReader{err: want}).Detect(context.Background(), schema.New())
	if !errors.Is(err, want) {
		t.Errorf("err = %v, want %v", err, want)
	}

	_, err = NewDetector(nil).Detect(context.Background(), schema.New())
	testutil.AssertErrorContains(t, err, "no schema reader")
}

func TestFormatResult(t *testing.T) {
	expected := schema.New(usersTable(), postsTable())
	actual := schema.New(usersTable(), &schema.Table{Name: "Audit"})

	result, err := Detect(expected, actual)
	testutil.AssertNoError(t, err)
	out := FormatResult(result)

	for _, want := range []string{
		"Schema drift detected",
		"Missing tables (expected but not in database):\n    - Posts",
		"Extra tables (in database only):\n    + Audit",
		"schemasync migrate",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}

	clean, err := Detect(expected, expected)
	testutil.AssertNoError(t, err)
	if out := FormatResult(clean); !strings.Contains(out, "Schema check passed") || !strings.Contains(out, "Tables:       2") {
		t.Errorf("unexpected output:\n%s", out)
	}

	testutil.AssertEqual(t, FormatResult(nil), "No drift detection result available.")
}

func TestFormatQuickStatus(t *testing.T) {
	root := strings.Repeat("a", 64)
	testutil.AssertEqual(t, FormatQuickStatus(false, root, root), "OK  aaaaaaaaaaaa")
	testutil.AssertEqual(t, FormatQuickStatus(true, "abc", "def"), "DRIFT  expected: abc  actual: def")
}
