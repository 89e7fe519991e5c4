// Package postgres implements the store repositories on PostgreSQL through
// a pgx connection pool, for deployments where several scraper processes
// share one store.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/user/equipment-scraper/internal/repository"
	"github.com/user/equipment-scraper/internal/schema"
)

// SQLSTATE codes handled explicitly.
const (
	codeDuplicateColumn = "42701"
	codeDuplicateTable  = "42P07"
	codeUndefinedTable  = "42P01"
	codeUniqueViolation = "23505"
)

func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// isUnavailable reports connection loss, shutdown and resource exhaustion.
// Anything that is not a server-side statement error means the pool could
// not deliver the statement at all.
func isUnavailable(err error) bool {
	code := pgCode(err)
	if code == "" {
		return true
	}
	return strings.HasPrefix(code, "08") || // connection exception
		strings.HasPrefix(code, "57P0") || // admin/crash shutdown
		strings.HasPrefix(code, "53") // insufficient resources
}

// classify mirrors the SQLite adapter: context errors pass through, store
// failures wrap repository.ErrStoreUnavailable, the rest wrap fallback.
func classify(err error, op string, fallback error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	if isUnavailable(err) {
		return fmt.Errorf("%w: postgres %s: %w", repository.ErrStoreUnavailable, op, err)
	}
	if fallback != nil {
		return fmt.Errorf("%w: postgres %s: %w", fallback, op, err)
	}
	return fmt.Errorf("postgres %s: %w", op, err)
}

func checkIdent(names ...string) error {
	for _, n := range names {
		if !schema.ValidIdentifier(n) {
			return fmt.Errorf("%w: %q", repository.ErrInvalidIdentifier, n)
		}
	}
	return nil
}
