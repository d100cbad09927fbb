package snapshot

import (
	"bytes"
	"fmt"
	"math/rand"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/hlop3z/schemasync/internal/alerr"
	"github.com/hlop3z/schemasync/internal/schema"
	"github.com/hlop3z/schemasync/internal/testutil"
)

func strPtr(s string) *string { return &s }

func blogSchema() *schema.Schema {
	return schema.New(
		&schema.Table{
			Name: "Users",
			Columns: []schema.Column{
				{Name: "Id", Type: "INTEGER", PrimaryKey: true},
				{Name: "Email", Type: "TEXT", Nullable: true, Position: 1},
				{Name: "Role", Type: "TEXT", Default: strPtr("'member'"), Position: 2},
			},
			Indexes: []schema.Index{{Name: "IX_Users_Email", Table: "Users", Columns: []string{"Email"}, Unique: true}},
			SQL:     `CREATE TABLE "Users" ("Id" INTEGER PRIMARY KEY, "Email" TEXT, "Role" TEXT NOT NULL DEFAULT 'member')`,
		},
		&schema.Table{
			Name: "Posts",
			Columns: []schema.Column{
				{Name: "Id", Type: "INTEGER", PrimaryKey: true},
				{Name: "AuthorId", Type: "INTEGER", Position: 1},
			},
			ForeignKeys: []schema.ForeignKey{{Column: "AuthorId", RefTable: "Users", RefColumn: "Id", OnDelete: "CASCADE", OnUpdate: "NO ACTION"}},
		},
	)
}

func TestToJSON_Format(t *testing.T) {
	data, err := ToJSON(blogSchema())
	testutil.AssertNoError(t, err)

	out := string(data)
	if !strings.HasSuffix(out, "}\n") {
		t.Error("output should end with a newline")
	}
	if !strings.Contains(out, "\n  \"tables\": {\n    \"Posts\": {") {
		t.Errorf("output is not indented with sorted keys:\n%s", out)
	}
	if strings.Index(out, `"Posts"`) > strings.Index(out, `"Users"`) {
		t.Error("tables should be written in name order")
	}
	// Tables without a stored definition omit it.
	if strings.Count(out, `"sql":`) != 1 {
		t.Errorf("expected only the Users definition:\n%s", out)
	}

	again, err := ToJSON(blogSchema())
	testutil.AssertNoError(t, err)
	if !bytes.Equal(data, again) {
		t.Error("encoding is not stable")
	}
}

func TestFromJSON_RoundTrip(t *testing.T) {
	want := blogSchema()

	data, err := ToJSON(want)
	testutil.AssertNoError(t, err)
	got, err := FromJSON(data)
	testutil.AssertNoError(t, err)

	if !reflect.DeepEqual(got, want) {
		t.Errorf("round trip mismatch\ngot:  %+v\nwant: %+v", got.Tables, want.Tables)
	}
}

func TestFromJSON_Errors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"invalid json", `{"tables": `},
		{"unknown field", `{"tables": {}, "version": 2}`},
		{"wrong type", `{"tables": []}`},
		{"null table", `{"tables": {"Users": null}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FromJSON([]byte(tt.data))
			testutil.AssertError(t, err, alerr.ErrSerialization)
		})
	}
}

func TestFromJSON_EmptyTables(t *testing.T) {
	s, err := FromJSON([]byte(`{}`))
	testutil.AssertNoError(t, err)
	if s.Tables == nil || s.Len() != 0 {
		t.Errorf("FromJSON({}) = %+v", s)
	}
}

func TestWriteReadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "schema", "current.json")

	testutil.AssertNoError(t, WriteFile(path, blogSchema()))
	got, err := ReadFile(path)
	testutil.AssertNoError(t, err)
	if !reflect.DeepEqual(got, blogSchema()) {
		t.Error("file round trip mismatch")
	}
}

func TestReadFile_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := ReadFile(filepath.Join(dir, "missing.json"))
	testutil.AssertError(t, err, alerr.ErrSerialization)

	bad := filepath.Join(dir, "bad.json")
	testutil.WriteFile(t, bad, "not json")
	_, err = ReadFile(bad)
	testutil.AssertError(t, err, alerr.ErrSerialization)
	testutil.AssertErrorContains(t, err, bad)
}

// randomSchema builds a schema from seed covering every field kind.
func randomSchema(seed int64) *schema.Schema {
	r := rand.New(rand.NewSource(seed))
	s := schema.New()
	types := []string{"INTEGER", "TEXT", "REAL", "BLOB", "NUMERIC(10,2)"}
	actions := []string{"NO ACTION", "CASCADE", "SET NULL", "RESTRICT"}

	for i := 0; i < r.Intn(6); i++ {
		t := &schema.Table{Name: fmt.Sprintf("Table%d", i)}
		for c := 0; c < 1+r.Intn(5); c++ {
			col := schema.Column{
				Name:       fmt.Sprintf("Col%d", c),
				Type:       types[r.Intn(len(types))],
				Nullable:   r.Intn(2) == 0,
				PrimaryKey: c == 0,
				Position:   c,
			}
			if r.Intn(3) == 0 {
				col.Default = strPtr(fmt.Sprintf("'%d'", r.Intn(100)))
			}
			t.Columns = append(t.Columns, col)
		}
		if r.Intn(2) == 0 {
			t.Indexes = append(t.Indexes, schema.Index{
				Name: fmt.Sprintf("IX_Table%d_Col0", i), Table: t.Name, Columns: []string{"Col0"}, Unique: r.Intn(2) == 0,
			})
		}
		if i > 0 && r.Intn(2) == 0 {
			t.ForeignKeys = append(t.ForeignKeys, schema.ForeignKey{
				Column: "Col0", RefTable: fmt.Sprintf("Table%d", r.Intn(i)), RefColumn: "Col0",
				OnDelete: actions[r.Intn(len(actions))], OnUpdate: actions[r.Intn(len(actions))],
			})
		}
		if r.Intn(2) == 0 {
			t.SQL = fmt.Sprintf(`CREATE TABLE "%s" ("Col0" INTEGER PRIMARY KEY) STRICT`, t.Name)
		}
		s.Tables[t.Name] = t
	}
	return s
}

func TestProperty_RoundTrip(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("FromJSON(ToJSON(s)) equals s", prop.ForAll(
		func(seed int64) bool {
			want := randomSchema(seed)
			data, err := ToJSON(want)
			if err != nil {
				return false
			}
			got, err := FromJSON(data)
			if err != nil {
				return false
			}
			return reflect.DeepEqual(got, want)
		},
		gen.Int64(),
	))

	properties.Property("encoding is stable", prop.ForAll(
		func(seed int64) bool {
			a, errA := ToJSON(randomSchema(seed))
			b, errB := ToJSON(randomSchema(seed))
			return errA == nil && errB == nil && bytes.Equal(a, b)
		},
		gen.Int64(),
	))

	properties.TestingRun(t)
}
