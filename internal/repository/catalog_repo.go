package repository

import (
	"context"

	"github.com/user/equipment-scraper/internal/entity"
)

// CatalogRepository defines out-of-band maintenance over the shared store.
type CatalogRepository interface {
	// Tables lists the dataset tables in the store, sorted by name.
	Tables(ctx context.Context) ([]string, error)
	// Stats counts the columns and rows of a table. Any name returned by
	// Tables is accepted, normalized or not.
	Stats(ctx context.Context, table string) (entity.TableSummary, error)
	// DropTable removes a table. Dropping a missing table is not an error.
	DropTable(ctx context.Context, table string) error
	// Ping verifies the store is reachable.
	Ping(ctx context.Context) error
}
