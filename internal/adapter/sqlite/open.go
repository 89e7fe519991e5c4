// Package sqlite implements the store repositories on a single SQLite file
// using the pure-Go modernc.org/sqlite driver.
package sqlite

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	sqlitedrv "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/user/equipment-scraper/internal/repository"
	"github.com/user/equipment-scraper/internal/schema"
)

const busyTimeoutMS = 10_000

// Open opens (creating when missing) the SQLite database at path and applies
// the WAL, busy_timeout, synchronous and foreign_keys pragmas.
//
// The pool is limited to one connection: pragmas are per connection and a
// single writer avoids SQLITE_BUSY between schema changes and inserts.
func Open(path string) (*sql.DB, error) {
	if path != ":memory:" {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("failed to create database directory: %w", err)
			}
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		fmt.Sprintf("PRAGMA busy_timeout = %d", busyTimeoutMS),
		"PRAGMA synchronous = NORMAL",
		"PRAGMA foreign_keys = ON",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to apply %q: %w", p, err)
		}
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping sqlite database: %w", err)
	}
	return db, nil
}

// unavailableCodes are primary result codes after which the store cannot be
// trusted for further statements.
var unavailableCodes = map[int]bool{
	sqlite3.SQLITE_IOERR:    true,
	sqlite3.SQLITE_CORRUPT:  true,
	sqlite3.SQLITE_FULL:     true,
	sqlite3.SQLITE_CANTOPEN: true,
	sqlite3.SQLITE_NOTADB:   true,
	sqlite3.SQLITE_READONLY: true,
}

func isUnavailable(err error) bool {
	if errors.Is(err, sql.ErrConnDone) || errors.Is(err, driver.ErrBadConn) {
		return true
	}
	var se *sqlitedrv.Error
	if errors.As(err, &se) {
		return unavailableCodes[se.Code()&0xff]
	}
	return strings.Contains(err.Error(), "database is closed")
}

func isNoSuchTable(err error) bool {
	return err != nil && strings.Contains(err.Error(), "no such table")
}

// classify wraps a driver error with repository.ErrStoreUnavailable when the
// store is unusable and with fallback otherwise. Context errors pass through
// untouched. A nil fallback wraps the cause only.
func classify(err error, op string, fallback error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	if isUnavailable(err) {
		return fmt.Errorf("%w: sqlite %s: %w", repository.ErrStoreUnavailable, op, err)
	}
	if fallback != nil {
		return fmt.Errorf("%w: sqlite %s: %w", fallback, op, err)
	}
	return fmt.Errorf("sqlite %s: %w", op, err)
}

func checkIdent(names ...string) error {
	for _, n := range names {
		if !schema.ValidIdentifier(n) {
			return fmt.Errorf("%w: %q", repository.ErrInvalidIdentifier, n)
		}
	}
	return nil
}
