package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/user/equipment-scraper/internal/entity"
	"github.com/user/equipment-scraper/internal/schema"
)

// CatalogRepoImpl provides a concrete implementation for the CatalogRepository interface using PostgreSQL.
type CatalogRepoImpl struct {
	db *pgxpool.Pool
}

// NewCatalogRepo creates a new instance of CatalogRepoImpl.
func NewCatalogRepo(db *pgxpool.Pool) *CatalogRepoImpl {
	return &CatalogRepoImpl{db: db}
}

// Tables lists the base tables of the current schema.
func (r *CatalogRepoImpl) Tables(ctx context.Context) ([]string, error) {
	query := `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = current_schema() AND table_type = 'BASE TABLE'
		ORDER BY table_name;
	`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, classify(err, "list tables", nil)
	}
	defer rows.Close()

	tables := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, classify(err, "list tables", nil)
		}
		tables = append(tables, name)
	}
	return tables, classify(rows.Err(), "list tables", nil)
}

// Stats counts columns and rows of any listed table, quoting its name.
func (r *CatalogRepoImpl) Stats(ctx context.Context, table string) (entity.TableSummary, error) {
	cols, err := tableColumns(ctx, r.db, table)
	if err != nil {
		return entity.TableSummary{}, err
	}
	var n int64
	if err := r.db.QueryRow(ctx, "SELECT COUNT(*) FROM "+schema.QuoteIdent(table)).Scan(&n); err != nil {
		return entity.TableSummary{}, classify(err, "count", nil)
	}
	return entity.TableSummary{
		Name:        table,
		ColumnCount: len(cols),
		RowCount:    n,
		Foreign:     !schema.ValidIdentifier(table),
	}, nil
}

// DropTable removes the table if it exists.
func (r *CatalogRepoImpl) DropTable(ctx context.Context, table string) error {
	if err := checkIdent(table); err != nil {
		return err
	}
	_, err := r.db.Exec(ctx, "DROP TABLE IF EXISTS "+schema.QuoteIdent(table))
	return classify(err, "drop table", nil)
}

// Ping verifies a pooled connection can reach the server.
func (r *CatalogRepoImpl) Ping(ctx context.Context) error {
	return classify(r.db.Ping(ctx), "ping", nil)
}
