package cli

import (
	"testing"
)

func TestTable(t *testing.T) {
	tbl := NewTable("TABLE", "STATUS")
	tbl.AddRow("Users", "ok")
	tbl.AddRow("Comments")

	want := "TABLE     STATUS\n" +
		"────────  ──────\n" +
		"Users     ok    \n" +
		"Comments        \n"
	if got := tbl.String(); got != want {
		t.Errorf("Table.String() =\n%q\nwant:\n%q", got, want)
	}

	if got := NewTable().String(); got != "" {
		t.Errorf("empty table = %q", got)
	}
}

func TestList(t *testing.T) {
	l := NewList()
	l.Add("plain")
	l.AddSuccess("done")
	l.AddError("failed")
	l.AddWarning("careful")
	l.AddInfo("fyi")

	want := "  • plain\n  ✓ done\n  ✗ failed\n  ! careful\n  → fyi\n"
	if got := l.String(); got != want {
		t.Errorf("List.String() = %q, want %q", got, want)
	}
	if l.Len() != 5 {
		t.Errorf("Len() = %d", l.Len())
	}
}

func TestSectionAndIndent(t *testing.T) {
	if got := Section("Plan", "body\n"); got != "Plan\n────\nbody\n" {
		t.Errorf("Section() = %q", got)
	}
	if got := Indent("a\n\nb", 2); got != "  a\n\n  b" {
		t.Errorf("Indent() = %q", got)
	}
}

func TestFormatCount(t *testing.T) {
	tests := []struct {
		n    int
		want string
	}{
		{0, "0 tables"},
		{1, "1 table"},
		{2, "2 tables"},
	}
	for _, tt := range tests {
		if got := FormatCount(tt.n, "table", "tables"); got != tt.want {
			t.Errorf("FormatCount(%d) = %q, want %q", tt.n, got, tt.want)
		}
	}
}
