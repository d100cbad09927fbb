// Package testutil provides test helpers for the schemasync packages.
//
// This package includes:
//   - SQLite database setup on temporary files (modernc.org/sqlite)
//   - Catalog assertions (tables, columns, indexes, row counts)
//   - SQL assertion helpers for comparing and validating SQL statements
//   - Error assertion helpers for checking error codes
//
// # Example Usage
//
//	func TestMyFeature(t *testing.T) {
//	    db := testutil.SetupSQLite(t)
//	    testutil.ExecAll(t, db,
//	        `CREATE TABLE "Users" ("Id" INTEGER PRIMARY KEY, "Name" TEXT NOT NULL)`,
//	    )
//	    // run the reader or migrator against db
//	    testutil.AssertColumnExists(t, db, "Users", "Name")
//	}
package testutil
