package repository

import "context"

// TableLocker serializes schema mutation per table.
type TableLocker interface {
	// Lock blocks until the table lock is held or ctx is done.
	// The returned function releases the lock.
	Lock(ctx context.Context, table string) (func(), error)
}
