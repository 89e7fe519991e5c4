package sqlite

import (
	"context"
	"database/sql"

	"github.com/user/equipment-scraper/internal/entity"
	"github.com/user/equipment-scraper/internal/schema"
)

// CatalogRepoImpl provides a concrete implementation for the CatalogRepository interface using SQLite.
type CatalogRepoImpl struct {
	db *sql.DB
}

// NewCatalogRepo creates a new instance of CatalogRepoImpl.
func NewCatalogRepo(db *sql.DB) *CatalogRepoImpl {
	return &CatalogRepoImpl{db: db}
}

// Tables lists user tables; SQLite's own sqlite_* tables are excluded.
func (r *CatalogRepoImpl) Tables(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite\_%' ESCAPE '\' ORDER BY name`)
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

// Stats counts columns and rows; foreign names are escaped by quoting.
func (r *CatalogRepoImpl) Stats(ctx context.Context, table string) (entity.TableSummary, error) {
	cols, err := tableColumns(ctx, r.db, table)
	if err != nil {
		return entity.TableSummary{}, err
	}
	var n int64
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+schema.QuoteIdent(table)).Scan(&n); err != nil {
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
	_, err := r.db.ExecContext(ctx, "DROP TABLE IF EXISTS "+schema.QuoteIdent(table))
	return classify(err, "drop table", nil)
}

// Ping verifies the database handle is still usable.
func (r *CatalogRepoImpl) Ping(ctx context.Context) error {
	return classify(r.db.PingContext(ctx), "ping", nil)
}
