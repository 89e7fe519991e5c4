package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/user/equipment-scraper/internal/entity"
	"github.com/user/equipment-scraper/internal/repository"
	"github.com/user/equipment-scraper/internal/schema"
)

// SchemaRepoImpl provides a concrete implementation for the SchemaRepository interface using SQLite.
type SchemaRepoImpl struct {
	db *sql.DB
}

// NewSchemaRepo creates a new instance of SchemaRepoImpl.
func NewSchemaRepo(db *sql.DB) *SchemaRepoImpl {
	return &SchemaRepoImpl{db: db}
}

// Columns reads the table's columns in declaration order.
func (r *SchemaRepoImpl) Columns(ctx context.Context, table string) ([]entity.Column, error) {
	if err := checkIdent(table); err != nil {
		return nil, err
	}
	return tableColumns(ctx, r.db, table)
}

// CreateTable creates the table with the given columns unless it already exists.
func (r *SchemaRepoImpl) CreateTable(ctx context.Context, table string, columns []entity.Column) error {
	if err := checkIdent(table); err != nil {
		return err
	}
	defs := make([]string, 0, len(columns))
	for _, c := range columns {
		if err := checkIdent(c.Name); err != nil {
			return err
		}
		defs = append(defs, columnDef(c))
	}
	query := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", schema.QuoteIdent(table), strings.Join(defs, ", "))
	_, err := r.db.ExecContext(ctx, query)
	return classify(err, "create table", nil)
}

// AddColumn adds a nullable column. A "duplicate column name" failure means
// another reconciliation got there first and is treated as success.
func (r *SchemaRepoImpl) AddColumn(ctx context.Context, table string, column entity.Column) error {
	if err := checkIdent(table, column.Name); err != nil {
		return err
	}
	query := fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s", schema.QuoteIdent(table), columnDef(column))
	_, err := r.db.ExecContext(ctx, query)
	switch {
	case err == nil:
		return nil
	case strings.Contains(err.Error(), "duplicate column name"):
		return nil
	case isNoSuchTable(err):
		return fmt.Errorf("%w: %s", repository.ErrTableNotFound, table)
	}
	return classify(err, "add column", nil)
}

func columnDef(c entity.Column) string {
	if c.IsSurrogateKey() {
		return schema.QuoteIdent(c.Name) + " INTEGER PRIMARY KEY AUTOINCREMENT"
	}
	return schema.QuoteIdent(c.Name) + " TEXT"
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// tableColumns returns repository.ErrTableNotFound when pragma_table_info
// yields nothing.
func tableColumns(ctx context.Context, q queryer, table string) ([]entity.Column, error) {
	rows, err := q.QueryContext(ctx, "SELECT name, pk FROM pragma_table_info(?) ORDER BY cid", table)
	if err != nil {
		return nil, classify(err, "table info", nil)
	}
	defer rows.Close()

	var cols []entity.Column
	for rows.Next() {
		var (
			name string
			pk   int
		)
		if err := rows.Scan(&name, &pk); err != nil {
			return nil, classify(err, "table info", nil)
		}
		if pk > 0 && name == entity.SurrogateKeyName {
			cols = append(cols, entity.SurrogateKey())
			continue
		}
		cols = append(cols, entity.TextColumn(name))
	}
	if err := rows.Err(); err != nil {
		return nil, classify(err, "table info", nil)
	}
	if len(cols) == 0 {
		return nil, fmt.Errorf("%w: %s", repository.ErrTableNotFound, table)
	}
	return cols, nil
}
