package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/user/equipment-scraper/internal/entity"
	"github.com/user/equipment-scraper/internal/repository"
	"github.com/user/equipment-scraper/internal/schema"
)

// SchemaRepoImpl provides a concrete implementation for the SchemaRepository interface using PostgreSQL.
type SchemaRepoImpl struct {
	db *pgxpool.Pool
}

// NewSchemaRepo creates a new instance of SchemaRepoImpl.
func NewSchemaRepo(db *pgxpool.Pool) *SchemaRepoImpl {
	return &SchemaRepoImpl{db: db}
}

// Columns reads the table's columns from information_schema in ordinal order.
func (r *SchemaRepoImpl) Columns(ctx context.Context, table string) ([]entity.Column, error) {
	if err := checkIdent(table); err != nil {
		return nil, err
	}
	return tableColumns(ctx, r.db, table)
}

// CreateTable creates the table unless it already exists. Two sessions racing
// on CREATE TABLE IF NOT EXISTS can still collide in pg_type; that collision
// means the table is there and is not reported.
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
	_, err := r.db.Exec(ctx, query)
	switch pgCode(err) {
	case codeDuplicateTable, codeUniqueViolation:
		return nil
	}
	return classify(err, "create table", nil)
}

// AddColumn adds a nullable TEXT column if it is missing.
func (r *SchemaRepoImpl) AddColumn(ctx context.Context, table string, column entity.Column) error {
	if err := checkIdent(table, column.Name); err != nil {
		return err
	}
	query := fmt.Sprintf("ALTER TABLE %s ADD COLUMN IF NOT EXISTS %s", schema.QuoteIdent(table), columnDef(column))
	_, err := r.db.Exec(ctx, query)
	switch pgCode(err) {
	case codeDuplicateColumn:
		return nil
	case codeUndefinedTable:
		return fmt.Errorf("%w: %s", repository.ErrTableNotFound, table)
	}
	return classify(err, "add column", nil)
}

func columnDef(c entity.Column) string {
	if c.IsSurrogateKey() {
		return schema.QuoteIdent(c.Name) + " BIGINT GENERATED BY DEFAULT AS IDENTITY PRIMARY KEY"
	}
	return schema.QuoteIdent(c.Name) + " TEXT"
}

func tableColumns(ctx context.Context, db *pgxpool.Pool, table string) ([]entity.Column, error) {
	query := `
		SELECT column_name, is_identity
		FROM information_schema.columns
		WHERE table_schema = current_schema() AND table_name = $1
		ORDER BY ordinal_position;
	`
	rows, err := db.Query(ctx, query, table)
	if err != nil {
		return nil, classify(err, "table info", nil)
	}
	defer rows.Close()

	var cols []entity.Column
	for rows.Next() {
		var name, identity string
		if err := rows.Scan(&name, &identity); err != nil {
			return nil, classify(err, "table info", nil)
		}
		if identity == "YES" && name == entity.SurrogateKeyName {
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
