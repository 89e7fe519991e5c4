package repository

import (
	"context"

	"github.com/user/equipment-scraper/internal/entity"
)

// RowRepository defines the interface for appending and reading dataset rows.
type RowRepository interface {
	// Insert appends exactly one row and returns its surrogate id.
	// columns and values are positional; a nil value is stored as NULL.
	Insert(ctx context.Context, table string, columns []string, values []*string) (int64, error)
	// Count returns the number of rows in the table.
	Count(ctx context.Context, table string) (int64, error)
	// Select reads rows ordered by surrogate id. limit <= 0 reads all rows.
	Select(ctx context.Context, table string, limit, offset int) (*entity.TableData, error)
}
