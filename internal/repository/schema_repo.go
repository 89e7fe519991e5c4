package repository

import (
	"context"

	"github.com/user/equipment-scraper/internal/entity"
)

// SchemaRepository defines the schema-mutation primitives the reconciler relies on.
type SchemaRepository interface {
	// Columns returns the table's columns in table order, or ErrTableNotFound.
	Columns(ctx context.Context, table string) ([]entity.Column, error)
	// CreateTable creates the table if it does not exist yet.
	CreateTable(ctx context.Context, table string, columns []entity.Column) error
	// AddColumn adds a nullable column. Adding an existing column is a no-op.
	AddColumn(ctx context.Context, table string, column entity.Column) error
}
