// Package testing provides a throwaway PostgreSQL database for integration
// tests. Tests using it are skipped unless PANTRY_TEST_DATABASE_URL names a
// server the tests may create databases on.
package testing

import (
	"context"
	"fmt"
	"os"
	"testing"

	"github.com/eleven-am/pantry/internal/database"
	"github.com/eleven-am/pantry/internal/schema"
	"github.com/jmoiron/sqlx"
)

// EnvDatabaseURL names the server used by integration tests.
const EnvDatabaseURL = "PANTRY_TEST_DATABASE_URL"

// TestDB is a database created for one test and dropped when it ends.
type TestDB struct {
	DB *sqlx.DB
	t  *testing.T
}

// NewTestDB creates an empty database, or skips the test when no server is
// configured or -short is set.
func NewTestDB(t *testing.T) *TestDB {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping database test in short mode")
	}
	url := os.Getenv(EnvDatabaseURL)
	if url == "" {
		t.Skipf("%s not set", EnvDatabaseURL)
	}

	db, cleanup, err := database.TempDB(context.Background(), database.NewConfig(url), "pantry_test")
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}
	t.Cleanup(cleanup)

	return &TestDB{DB: db, t: t}
}

// Migrate creates every table in catalog.
func (tdb *TestDB) Migrate(catalog *schema.Catalog) {
	tdb.t.Helper()

	statements, err := catalog.CreateStatements()
	if err != nil {
		tdb.t.Fatalf("Failed to generate schema: %v", err)
	}
	for _, stmt := range statements {
		if _, err := tdb.DB.Exec(stmt); err != nil {
			tdb.t.Fatalf("Failed to execute SQL: %v\nStatement: %s", err, stmt)
		}
	}
}

// TableExists checks if a table exists
func (tdb *TestDB) TableExists(tableName string) (bool, error) {
	var exists bool
	query := `
		SELECT EXISTS (
			SELECT 1
			FROM information_schema.tables
			WHERE table_schema = 'public'
			AND table_name = $1
		)
	`
	err := tdb.DB.QueryRow(query, tableName).Scan(&exists)
	return exists, err
}

// Count returns the number of rows in table.
func (tdb *TestDB) Count(table string) int {
	tdb.t.Helper()

	var n int
	if err := tdb.DB.Get(&n, fmt.Sprintf("SELECT COUNT(*) FROM %s", schema.Quote(table))); err != nil {
		tdb.t.Fatalf("Failed to count %s: %v", table, err)
	}
	return n
}
