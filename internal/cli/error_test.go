package cli

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/hlop3z/schemasync/internal/alerr"
)

func TestFormatError_Coded(t *testing.T) {
	err := alerr.Wrap(alerr.ErrMigrationFailed, errors.New("no such table: Missing"), "statement failed; migration rolled back").
		WithTable("Missing").
		WithSQL(`ALTER TABLE "Missing" ADD COLUMN "X" TEXT`).
		WithHelp("check the expected schema")

	got := FormatError(err)
	want := "error[E3001]: statement failed; migration rolled back\n" +
		"   |\n" +
		"   | sql: ALTER TABLE \"Missing\" ADD COLUMN \"X\" TEXT\n" +
		"   | table: Missing\n" +
		"help: check the expected schema\n" +
		"   |\n" +
		"cause: no such table: Missing\n"
	if got != want {
		t.Errorf("FormatError() =\n%s\nwant:\n%s", got, want)
	}
}

func TestFormatError_Wrapped(t *testing.T) {
	inner := alerr.New(alerr.ErrSQLConnection, "no database connection")
	got := FormatError(fmt.Errorf("sync: %w", inner))
	if !strings.HasPrefix(got, "error[E4002]: no database connection\n") {
		t.Errorf("FormatError() = %q", got)
	}
}

func TestFormatError_Generic(t *testing.T) {
	if got := FormatError(errors.New("boom")); got != "error: boom\n" {
		t.Errorf("FormatError() = %q", got)
	}
	if got := FormatError(nil); got != "" {
		t.Errorf("FormatError(nil) = %q", got)
	}
}

func TestFormatMessages(t *testing.T) {
	tests := []struct {
		got, want string
	}{
		{FormatWarning("w"), "warning: w\n"},
		{FormatNote("n"), "note: n\n"},
		{FormatHelp("h"), "help: h\n"},
		{FormatSuccess("s"), "success: s\n"},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("got %q, want %q", tt.got, tt.want)
		}
	}
}
