package testutil

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/hlop3z/schemasync/internal/alerr"
)

// -----------------------------------------------------------------------------
// SQL Assertions
// -----------------------------------------------------------------------------

var whitespace = regexp.MustCompile(`\s+`)

// NormalizeSQL normalizes a SQL string for comparison.
// It collapses multiple whitespace characters into a single space,
// trims leading/trailing whitespace, and converts to uppercase.
func NormalizeSQL(sql string) string {
	sql = whitespace.ReplaceAllString(sql, " ")
	sql = strings.TrimSpace(sql)
	return strings.ToUpper(sql)
}

// AssertSQL compares two SQL strings after normalizing them.
func AssertSQL(t *testing.T, got, want string) {
	t.Helper()

	gotNorm := NormalizeSQL(got)
	wantNorm := NormalizeSQL(want)

	if gotNorm != wantNorm {
		t.Errorf("SQL mismatch:\ngot:  %s\nwant: %s\n\noriginal got:\n%s\n\noriginal want:\n%s",
			gotNorm, wantNorm, got, want)
	}
}

// AssertSQLContains checks if a SQL string contains a substring.
// Both strings are normalized before comparison.
func AssertSQLContains(t *testing.T, sql, substr string) {
	t.Helper()

	sqlNorm := NormalizeSQL(sql)
	substrNorm := NormalizeSQL(substr)

	if !strings.Contains(sqlNorm, substrNorm) {
		t.Errorf("SQL does not contain expected substring:\nsql:    %s\nsubstr: %s\n\noriginal sql:\n%s",
			sqlNorm, substrNorm, sql)
	}
}

// AssertStatements compares two statement lists element by element after
// normalizing each.
func AssertStatements(t *testing.T, got, want []string) {
	t.Helper()

	if len(got) != len(want) {
		t.Fatalf("statement count = %d, want %d\ngot:\n%s", len(got), len(want), strings.Join(got, ";\n"))
	}
	for i := range want {
		if NormalizeSQL(got[i]) != NormalizeSQL(want[i]) {
			t.Errorf("statement %d mismatch:\ngot:  %s\nwant: %s", i, NormalizeSQL(got[i]), NormalizeSQL(want[i]))
		}
	}
}

// -----------------------------------------------------------------------------
// Error Assertions
// -----------------------------------------------------------------------------

// AssertError checks that an error has the expected error code.
// If err is nil or doesn't have the expected code, the test fails.
func AssertError(t *testing.T, err error, code alerr.Code) {
	t.Helper()

	if err == nil {
		t.Errorf("expected error with code %s, got nil", code)
		return
	}

	gotCode := alerr.GetErrorCode(err)
	if gotCode != code {
		t.Errorf("expected error code %s, got %s\nerror: %v", code, gotCode, err)
	}
}

// AssertNoError checks that an error is nil.
func AssertNoError(t *testing.T, err error) {
	t.Helper()

	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
}

// AssertErrorContains checks that an error message contains a substring.
// If err is nil, the test fails.
func AssertErrorContains(t *testing.T, err error, substr string) {
	t.Helper()

	if err == nil {
		t.Errorf("expected error containing %q, got nil", substr)
		return
	}

	if !strings.Contains(err.Error(), substr) {
		t.Errorf("error message does not contain %q\ngot: %v", substr, err)
	}
}

// AssertContains checks that one of the messages contains substr.
func AssertContains(t *testing.T, messages []string, substr string) {
	t.Helper()

	for _, m := range messages {
		if strings.Contains(m, substr) {
			return
		}
	}
	t.Errorf("no message contains %q\nmessages: %q", substr, messages)
}

// -----------------------------------------------------------------------------
// Test Helpers
// -----------------------------------------------------------------------------

// WriteFile writes content to a file, creating parent directories as needed.
func WriteFile(t *testing.T, path, content string) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("failed to create parent directories: %v", err)
	}

	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}
}

// AssertEqual is a generic equality check for testing.
func AssertEqual[T comparable](t *testing.T, got, want T) {
	t.Helper()

	if got != want {
		t.Errorf("values not equal:\ngot:  %v\nwant: %v", got, want)
	}
}
