package storage

import (
	"database/sql"
	"fmt"
	"strings"
	"testing"

	_ "modernc.org/sqlite"
)

// openTestDB gives each test an in-memory database. One connection only:
// every new connection to :memory: is a fresh empty database.
func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	return db
}

// createTable materializes one target table with its natural-key constraint.
// Columns are typeless; the writer binds everything as text anyway.
func createTable(t *testing.T, db *sql.DB, ts TableSchema) {
	t.Helper()
	columns := append(append([]string{}, ts.Columns...), OwnerColumn)
	create := fmt.Sprintf("CREATE TABLE %s (%s)",
		quoteIdent(ts.Name), strings.Join(quoteAll(columns), ", "))
	if _, err := db.Exec(create); err != nil {
		t.Fatalf("creating %s: %v", ts.Name, err)
	}

	key := append(append([]string{}, ts.UniqueKey...), OwnerColumn)
	index := fmt.Sprintf("CREATE UNIQUE INDEX %s ON %s (%s)",
		quoteIdent("ux_"+ts.Name), quoteIdent(ts.Name), strings.Join(quoteAll(key), ", "))
	if _, err := db.Exec(index); err != nil {
		t.Fatalf("indexing %s: %v", ts.Name, err)
	}
}

func countRows(t *testing.T, db *sql.DB, table string) int {
	t.Helper()
	var n int
	if err := db.QueryRow("SELECT COUNT(*) FROM " + quoteIdent(table)).Scan(&n); err != nil {
		t.Fatalf("counting %s: %v", table, err)
	}
	return n
}
