package repository

import "errors"

var (
	// ErrTableNotFound is returned when a table does not exist in the store.
	ErrTableNotFound = errors.New("table not found")
	// ErrInvalidIdentifier is returned for table or column names that are not
	// normalized identifiers. Adapters never render such names into SQL,
	// except the read-only CatalogRepository.Stats on names the store listed.
	ErrInvalidIdentifier = errors.New("invalid identifier")
	// ErrWriteRejected wraps a backend refusal of a single statement
	// (constraint, type mismatch, ...). The store itself is still usable.
	ErrWriteRejected = errors.New("write rejected by store")
	// ErrStoreUnavailable wraps failures that make the store unusable
	// (closed handle, lost connection, I/O fault). Runs abort on it.
	ErrStoreUnavailable = errors.New("store unavailable")
)
