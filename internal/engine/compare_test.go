package engine

import (
	"fmt"
	"math/rand"
	"reflect"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/hlop3z/schemasync/internal/dialect"
	"github.com/hlop3z/schemasync/internal/schema"
	"github.com/hlop3z/schemasync/internal/testutil"
)

// -----------------------------------------------------------------------------
// Fixtures
// -----------------------------------------------------------------------------

func idColumn() schema.Column {
	return schema.Column{Name: "Id", Type: "INTEGER", PrimaryKey: true, Position: 0}
}

func usersTable(extra ...schema.Column) *schema.Table {
	t := &schema.Table{
		Name:    "Users",
		Columns: []schema.Column{idColumn(), {Name: "Name", Type: "TEXT", Position: 1}},
	}
	t.Columns = append(t.Columns, extra...)
	return t
}

func postsTable() *schema.Table {
	return &schema.Table{
		Name: "Posts",
		Columns: []schema.Column{
			idColumn(),
			{Name: "AuthorId", Type: "INTEGER", Position: 1},
		},
		Indexes:     []schema.Index{{Name: "IX_Posts_AuthorId", Table: "Posts", Columns: []string{"AuthorId"}}},
		ForeignKeys: []schema.ForeignKey{{Column: "AuthorId", RefTable: "Users", RefColumn: "Id", OnDelete: "CASCADE", OnUpdate: "NO ACTION"}},
	}
}

func kinds(d *schema.Diff) []schema.OpKind {
	out := make([]schema.OpKind, len(d.Operations))
	for i, op := range d.Operations {
		out[i] = op.Kind()
	}
	return out
}

func tables(d *schema.Diff) []string {
	out := make([]string, len(d.Operations))
	for i, op := range d.Operations {
		out[i] = op.Table()
	}
	return out
}

// -----------------------------------------------------------------------------
// Compare Tests
// -----------------------------------------------------------------------------

func TestCompare_AddColumnAndIndex(t *testing.T) {
	current := schema.New(usersTable())

	expected := usersTable(schema.Column{Name: "Email", Type: "TEXT", Nullable: true, Position: 2})
	expected.Indexes = []schema.Index{{Name: "IX_Users_Email", Table: "Users", Columns: []string{"Email"}, Unique: true}}

	diff := Compare(current, schema.New(expected), dialect.SQLite())

	if !diff.HasChanges() {
		t.Fatal("HasChanges() = false")
	}
	if got := kinds(diff); !reflect.DeepEqual(got, []schema.OpKind{schema.OpAddColumn, schema.OpCreateIndex}) {
		t.Fatalf("operations = %v", got)
	}
	testutil.AssertStatements(t, diff.Statements(), []string{
		`ALTER TABLE "Users" ADD COLUMN "Email" TEXT`,
		`CREATE UNIQUE INDEX "IX_Users_Email" ON "Users" ("Email")`,
	})
	if len(diff.Warnings) != 0 {
		t.Errorf("Warnings = %v", diff.Warnings)
	}
}

func TestCompare_NoChanges(t *testing.T) {
	s := schema.New(usersTable(), postsTable())

	diff := Compare(s, s, dialect.SQLite())
	if diff.HasChanges() || len(diff.Operations) != 0 {
		t.Errorf("Operations = %v", diff.Operations)
	}
	if len(diff.Warnings) != 0 {
		t.Errorf("Warnings = %v", diff.Warnings)
	}
}

func TestCompare_CaseInsensitiveMatching(t *testing.T) {
	current := schema.New(&schema.Table{
		Name:    "users",
		Columns: []schema.Column{{Name: "id", Type: "integer", PrimaryKey: true}, {Name: "name", Type: "text", Position: 1}},
	})

	diff := Compare(current, schema.New(usersTable()), dialect.SQLite())
	if diff.HasChanges() {
		t.Errorf("Operations = %v", diff.Operations)
	}
}

func TestCompare_CreateTablesInDependencyOrder(t *testing.T) {
	comments := &schema.Table{
		Name:        "Comments",
		Columns:     []schema.Column{idColumn(), {Name: "PostId", Type: "INTEGER", Position: 1}},
		ForeignKeys: []schema.ForeignKey{{Column: "PostId", RefTable: "Posts", RefColumn: "Id"}},
	}
	expected := schema.New(comments, postsTable(), usersTable())

	diff := Compare(schema.New(), expected, dialect.SQLite())

	if got := tables(diff); !reflect.DeepEqual(got, []string{"Users", "Posts", "Comments"}) {
		t.Fatalf("creation order = %v", got)
	}
	if diff.Count(schema.OpCreateTable) != 3 {
		t.Errorf("kinds = %v", kinds(diff))
	}

	// A new table's indexes travel with its CreateTable operation.
	posts := diff.Operations[1].SQL()
	if len(posts) != 2 {
		t.Fatalf("Posts statements = %q", posts)
	}
	testutil.AssertSQLContains(t, posts[0], `FOREIGN KEY ("AuthorId") REFERENCES "Users" ("Id") ON DELETE CASCADE`)
	testutil.AssertSQL(t, posts[1], `CREATE INDEX "IX_Posts_AuthorId" ON "Posts" ("AuthorId")`)
}

func TestCompare_SelfReferenceDoesNotBlockCreation(t *testing.T) {
	categories := &schema.Table{
		Name:        "Categories",
		Columns:     []schema.Column{idColumn(), {Name: "ParentId", Type: "INTEGER", Nullable: true, Position: 1}},
		ForeignKeys: []schema.ForeignKey{{Column: "ParentId", RefTable: "Categories", RefColumn: "Id", OnDelete: "SET NULL"}},
	}

	diff := Compare(schema.New(), schema.New(categories), dialect.SQLite())
	if diff.Count(schema.OpCreateTable) != 1 || len(diff.Warnings) != 0 {
		t.Fatalf("diff = %v, warnings = %v", kinds(diff), diff.Warnings)
	}
	testutil.AssertSQLContains(t, diff.Operations[0].SQL()[0], `REFERENCES "Categories" ("Id") ON DELETE SET NULL`)
}

func TestCompare_CycleBetweenNewTablesFallsBackToNameOrder(t *testing.T) {
	a := &schema.Table{
		Name:        "A",
		Columns:     []schema.Column{idColumn(), {Name: "BId", Type: "INTEGER", Nullable: true, Position: 1}},
		ForeignKeys: []schema.ForeignKey{{Column: "BId", RefTable: "B", RefColumn: "Id"}},
	}
	b := &schema.Table{
		Name:        "B",
		Columns:     []schema.Column{idColumn(), {Name: "AId", Type: "INTEGER", Nullable: true, Position: 1}},
		ForeignKeys: []schema.ForeignKey{{Column: "AId", RefTable: "A", RefColumn: "Id"}},
	}

	diff := Compare(schema.New(), schema.New(b, a), dialect.SQLite())
	if got := tables(diff); !reflect.DeepEqual(got, []string{"A", "B"}) {
		t.Errorf("creation order = %v", got)
	}
	testutil.AssertContains(t, diff.Warnings, "form a cycle")
}

func TestCompare_PhaseOrdering(t *testing.T) {
	current := schema.New(
		usersTable(),
		&schema.Table{
			Name:    "Posts",
			Columns: []schema.Column{idColumn()},
			SQL:     `CREATE TABLE "Posts" ("Id" INTEGER PRIMARY KEY)`,
		},
	)

	tags := &schema.Table{
		Name:        "Tags",
		Columns:     []schema.Column{idColumn(), {Name: "OwnerId", Type: "INTEGER", Nullable: true, Position: 1}},
		ForeignKeys: []schema.ForeignKey{{Column: "OwnerId", RefTable: "Users", RefColumn: "Id"}},
	}
	expected := schema.New(usersTable(), postsTable(), tags)

	diff := Compare(current, expected, dialect.SQLite())

	want := []schema.OpKind{schema.OpCreateTable, schema.OpAddColumn, schema.OpCreateIndex, schema.OpAddForeignKey}
	if got := kinds(diff); !reflect.DeepEqual(got, want) {
		t.Fatalf("kinds = %v, want %v", got, want)
	}

	fk := diff.Operations[3].(*schema.AddForeignKey)
	if fk.Table() != "Posts" || fk.ForeignKey.RefTable != "Users" {
		t.Errorf("AddForeignKey = %+v", fk)
	}
	stmts := fk.SQL()
	testutil.AssertSQLContains(t, stmts[0], `"AuthorId" INTEGER NOT NULL DEFAULT 0`)
	testutil.AssertSQLContains(t, stmts[0], `FOREIGN KEY ("AuthorId") REFERENCES "Users" ("Id") ON DELETE CASCADE`)
	// The index created earlier in the batch is restored after the rebuild.
	testutil.AssertSQL(t, stmts[len(stmts)-1], `CREATE INDEX "IX_Posts_AuthorId" ON "Posts" ("AuthorId")`)
}

func TestCompare_ForeignKeysOnOneTableAreCumulative(t *testing.T) {
	current := schema.New(
		usersTable(),
		&schema.Table{
			Name: "Posts",
			Columns: []schema.Column{
				idColumn(),
				{Name: "AuthorId", Type: "INTEGER", Position: 1},
				{Name: "EditorId", Type: "INTEGER", Nullable: true, Position: 2},
			},
			SQL: `CREATE TABLE "Posts" ("Id" INTEGER PRIMARY KEY, "AuthorId" INTEGER NOT NULL, "EditorId" INTEGER)`,
		},
	)
	expectedPosts := postsTable()
	expectedPosts.Indexes = nil
	expectedPosts.Columns = current.Tables["Posts"].Columns
	expectedPosts.ForeignKeys = append(expectedPosts.ForeignKeys,
		schema.ForeignKey{Column: "EditorId", RefTable: "Users", RefColumn: "Id"})

	diff := Compare(current, schema.New(usersTable(), expectedPosts), dialect.SQLite())
	if diff.Count(schema.OpAddForeignKey) != 2 {
		t.Fatalf("kinds = %v, warnings = %v", kinds(diff), diff.Warnings)
	}

	second := diff.Operations[1].SQL()[0]
	testutil.AssertSQLContains(t, second, `FOREIGN KEY ("AuthorId")`)
	testutil.AssertSQLContains(t, second, `FOREIGN KEY ("EditorId")`)
}

func TestCompare_Warnings(t *testing.T) {
	tests := []struct {
		name     string
		current  *schema.Schema
		expected *schema.Schema
		want     string
	}{
		{
			name:     "removed column is kept",
			current:  schema.New(usersTable(schema.Column{Name: "Legacy", Type: "TEXT", Nullable: true, Position: 2})),
			expected: schema.New(usersTable()),
			want:     `column "Legacy" is not in the expected schema; it is kept`,
		},
		{
			name:     "type change",
			current:  schema.New(usersTable()),
			expected: schema.New(&schema.Table{Name: "Users", Columns: []schema.Column{idColumn(), {Name: "Name", Type: "BLOB", Position: 1}}}),
			want:     `column "Name" has type TEXT, expected BLOB; not altered`,
		},
		{
			name:     "nullability change",
			current:  schema.New(usersTable()),
			expected: schema.New(&schema.Table{Name: "Users", Columns: []schema.Column{idColumn(), {Name: "Name", Type: "TEXT", Nullable: true, Position: 1}}}),
			want:     `nullability is NOT NULL, expected NULL`,
		},
		{
			name:    "primary key column cannot be added",
			current: schema.New(&schema.Table{Name: "Users", Columns: []schema.Column{{Name: "Name", Type: "TEXT"}}}),
			expected: schema.New(&schema.Table{Name: "Users", Columns: []schema.Column{
				{Name: "Name", Type: "TEXT"}, {Name: "Id", Type: "INTEGER", PrimaryKey: true, Position: 1},
			}}),
			want: `cannot add column "Id"`,
		},
		{
			name:    "dangling reference",
			current: schema.New(),
			expected: schema.New(&schema.Table{
				Name:        "Posts",
				Columns:     []schema.Column{idColumn(), {Name: "AuthorId", Type: "INTEGER", Position: 1}},
				ForeignKeys: []schema.ForeignKey{{Column: "AuthorId", RefTable: "Authors", RefColumn: "Id"}},
			}),
			want: `foreign key "AuthorId" references Authors.Id, which does not exist; skipped`,
		},
		{
			name:     "foreign key action change",
			current:  schema.New(usersTable(), postsTable()),
			expected: schema.New(usersTable(), withOnDelete(postsTable(), "RESTRICT")),
			want:     `actions differ (ON DELETE CASCADE, expected RESTRICT)`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			diff := Compare(tt.current, tt.expected, dialect.SQLite())
			testutil.AssertContains(t, diff.Warnings, tt.want)
		})
	}
}

func withOnDelete(t *schema.Table, action string) *schema.Table {
	t.ForeignKeys[0].OnDelete = action
	return t
}

func TestCompare_DanglingReferenceIsLeftOutOfCreateTable(t *testing.T) {
	posts := &schema.Table{
		Name:        "Posts",
		Columns:     []schema.Column{idColumn(), {Name: "AuthorId", Type: "INTEGER", Position: 1}},
		ForeignKeys: []schema.ForeignKey{{Column: "AuthorId", RefTable: "Authors", RefColumn: "Id"}},
	}

	diff := Compare(schema.New(), schema.New(posts), dialect.SQLite())
	if diff.Count(schema.OpCreateTable) != 1 {
		t.Fatalf("kinds = %v", kinds(diff))
	}
	if strings.Contains(diff.Operations[0].SQL()[0], "FOREIGN KEY") {
		t.Errorf("dangling key rendered: %s", diff.Operations[0].SQL()[0])
	}
	if len(posts.ForeignKeys) != 1 {
		t.Error("Compare must not modify its input")
	}
}

func TestCompare_IgnoredTableProducesNoOperation(t *testing.T) {
	opts := schema.Options{IgnoredTables: []string{"Posts"}}

	diff := Compare(opts.Apply(schema.New(usersTable())), opts.Apply(schema.New(usersTable(), postsTable())), dialect.SQLite())
	if diff.HasChanges() {
		t.Errorf("Operations = %v", kinds(diff))
	}
}

func TestCompare_NilSchemas(t *testing.T) {
	diff := Compare(nil, schema.New(usersTable()), nil)
	if diff.Count(schema.OpCreateTable) != 1 {
		t.Errorf("kinds = %v", kinds(diff))
	}
	if Compare(schema.New(usersTable()), nil, nil).HasChanges() {
		t.Error("nil expected schema should produce no operations")
	}
}

// -----------------------------------------------------------------------------
// Properties
// -----------------------------------------------------------------------------

// randomSchemas builds an expected schema whose tables only reference
// earlier tables, and a current schema holding a random part of it.
func randomSchemas(seed int64, n int) (current, expected *schema.Schema) {
	r := rand.New(rand.NewSource(seed))
	current, expected = schema.New(), schema.New()

	for i := 0; i < n; i++ {
		name := fmt.Sprintf("T%02d", r.Intn(100))
		if _, dup := expected.Tables[name]; dup {
			continue
		}
		t := &schema.Table{Name: name, Columns: []schema.Column{idColumn()}}
		for c := 1; c <= 1+r.Intn(4); c++ {
			t.Columns = append(t.Columns, schema.Column{Name: fmt.Sprintf("C%d", c), Type: "TEXT", Nullable: r.Intn(2) == 0, Position: c})
		}
		for _, ref := range expected.TableNames() {
			if r.Intn(3) == 0 {
				col := "Ref" + ref
				t.Columns = append(t.Columns, schema.Column{Name: col, Type: "INTEGER", Nullable: true, Position: len(t.Columns)})
				t.ForeignKeys = append(t.ForeignKeys, schema.ForeignKey{Column: col, RefTable: ref, RefColumn: "Id"})
				t.Indexes = append(t.Indexes, schema.Index{Name: dialect.IndexName(name, col), Table: name, Columns: []string{col}})
			}
		}
		expected.Tables[name] = t

		switch r.Intn(3) {
		case 0: // missing entirely
		case 1:
			current.Tables[name] = t
		default:
			partial := &schema.Table{Name: name, Columns: t.Columns[:1+r.Intn(len(t.Columns))]}
			current.Tables[name] = partial
		}
	}
	return current, expected
}

func describe(d *schema.Diff) []string {
	var out []string
	for _, op := range d.Operations {
		out = append(out, op.Kind().String()+" "+op.Description()+" "+strings.Join(op.SQL(), ";"))
	}
	return append(out, d.Warnings...)
}

func TestProperty_CompareIsDeterministic(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("equal inputs give equal operation lists", prop.ForAll(
		func(seed int64, n int) bool {
			current, expected := randomSchemas(seed, n)
			a := Compare(current, expected, dialect.SQLite())
			b := Compare(current, expected, dialect.SQLite())
			return reflect.DeepEqual(describe(a), describe(b))
		},
		gen.Int64(),
		gen.IntRange(0, 12),
	))

	properties.Property("phases never interleave", prop.ForAll(
		func(seed int64, n int) bool {
			current, expected := randomSchemas(seed, n)
			ks := kinds(Compare(current, expected, dialect.SQLite()))
			for i := 1; i < len(ks); i++ {
				if ks[i] < ks[i-1] {
					return false
				}
			}
			return true
		},
		gen.Int64(),
		gen.IntRange(0, 12),
	))

	properties.Property("referenced tables are created first", prop.ForAll(
		func(seed int64, n int) bool {
			current, expected := randomSchemas(seed, n)
			created := make(map[string]bool)
			for _, op := range Compare(current, expected, dialect.SQLite()).Operations {
				ct, ok := op.(*schema.CreateTable)
				if !ok {
					continue
				}
				for _, fk := range ct.Def.ForeignKeys {
					if _, exists := current.Tables[fk.RefTable]; !exists && !created[fk.RefTable] {
						return false
					}
				}
				created[ct.Def.Name] = true
			}
			return true
		},
		gen.Int64(),
		gen.IntRange(0, 12),
	))

	properties.TestingRun(t)
}
