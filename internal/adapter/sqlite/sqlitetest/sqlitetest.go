// Package sqlitetest opens throwaway SQLite stores for tests.
package sqlitetest

import (
	"database/sql"
	"testing"

	"github.com/user/equipment-scraper/internal/adapter/sqlite"
)

// Open opens an in-memory database and closes it on cleanup.
func Open(t testing.TB) *sql.DB {
	t.Helper()
	db, err := sqlite.Open(":memory:")
	if err != nil {
		t.Fatalf("sqlitetest.Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}
