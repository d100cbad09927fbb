package testutil

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	_ "modernc.org/sqlite"
)

// SetupSQLite creates a file-backed SQLite database in a temporary directory
// with foreign key enforcement on. A file is used instead of :memory: so that
// every pooled connection, including one pinned by the migrator, sees the
// same database. The connection is closed when the test completes.
func SetupSQLite(t *testing.T) *sql.DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.db")
	db, err := sql.Open("sqlite", "file:"+path+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)")
	if err != nil {
		t.Fatalf("failed to open sqlite file: %v", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		t.Fatalf("failed to ping sqlite: %v", err)
	}

	t.Cleanup(func() {
		db.Close()
	})

	return db
}

// ExecAll executes each statement in order and fails the test on error.
func ExecAll(t *testing.T, db *sql.DB, stmts ...string) {
	t.Helper()

	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			t.Fatalf("failed to execute SQL:\n%s\nerror: %v", stmt, err)
		}
	}
}

// ExecWithoutForeignKeys executes stmts on one connection with foreign key
// enforcement off, so tests can seed rows that violate a key.
func ExecWithoutForeignKeys(t *testing.T, db *sql.DB, stmts ...string) {
	t.Helper()
	ctx := context.Background()

	conn, err := db.Conn(ctx)
	if err != nil {
		t.Fatalf("failed to acquire connection: %v", err)
	}
	defer conn.Close()

	stmts = append(append([]string{"PRAGMA foreign_keys = OFF"}, stmts...), "PRAGMA foreign_keys = ON")
	for _, stmt := range stmts {
		if _, err := conn.ExecContext(ctx, stmt); err != nil {
			t.Fatalf("failed to execute SQL:\n%s\nerror: %v", stmt, err)
		}
	}
}

// AssertTableExists checks that a table exists in the SQLite database.
func AssertTableExists(t *testing.T, db *sql.DB, table string) {
	t.Helper()

	if !objectExists(t, db, "table", table) {
		t.Errorf("expected table %q to exist, but it does not", table)
	}
}

// AssertTableNotExists checks that a table does not exist in the SQLite database.
func AssertTableNotExists(t *testing.T, db *sql.DB, table string) {
	t.Helper()

	if objectExists(t, db, "table", table) {
		t.Errorf("expected table %q to not exist, but it does", table)
	}
}

// AssertIndexExists checks that an index exists in the SQLite database.
func AssertIndexExists(t *testing.T, db *sql.DB, index string) {
	t.Helper()

	if !objectExists(t, db, "index", index) {
		t.Errorf("expected index %q to exist, but it does not", index)
	}
}

func objectExists(t *testing.T, db *sql.DB, typ, name string) bool {
	t.Helper()

	var n int
	err := db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type = ? AND name = ?`, typ, name).Scan(&n)
	if err != nil {
		t.Fatalf("failed to check if %s %q exists: %v", typ, name, err)
	}
	return n > 0
}

// AssertColumnExists checks that a column exists in a SQLite table.
func AssertColumnExists(t *testing.T, db *sql.DB, table, column string) {
	t.Helper()

	var n int
	err := db.QueryRow(`SELECT COUNT(*) FROM pragma_table_info(?) WHERE name = ?`, table, column).Scan(&n)
	if err != nil {
		t.Fatalf("failed to get table info: %v", err)
	}
	if n == 0 {
		t.Errorf("expected column %q to exist in table %q, but it does not", column, table)
	}
}

// AssertRowCount checks that a table has the expected number of rows.
func AssertRowCount(t *testing.T, db *sql.DB, table string, expected int) {
	t.Helper()

	var count int
	err := db.QueryRow(`SELECT COUNT(*) FROM "` + table + `"`).Scan(&count)
	if err != nil {
		t.Fatalf("failed to count rows in %s: %v", table, err)
	}

	if count != expected {
		t.Errorf("expected %d rows in %s, got %d", expected, table, count)
	}
}
