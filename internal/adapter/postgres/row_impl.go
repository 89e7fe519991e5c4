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

// RowRepoImpl provides a concrete implementation for the RowRepository interface using PostgreSQL.
type RowRepoImpl struct {
	db *pgxpool.Pool
}

// NewRowRepo creates a new instance of RowRepoImpl.
func NewRowRepo(db *pgxpool.Pool) *RowRepoImpl {
	return &RowRepoImpl{db: db}
}

// Insert appends one row and returns the generated id.
func (r *RowRepoImpl) Insert(ctx context.Context, table string, columns []string, values []*string) (int64, error) {
	if len(columns) != len(values) {
		return 0, fmt.Errorf("%w: %d columns but %d values", repository.ErrWriteRejected, len(columns), len(values))
	}
	if err := checkIdent(table); err != nil {
		return 0, err
	}
	if err := checkIdent(columns...); err != nil {
		return 0, err
	}

	var query string
	if len(columns) == 0 {
		query = fmt.Sprintf("INSERT INTO %s DEFAULT VALUES RETURNING %s",
			schema.QuoteIdent(table), schema.QuoteIdent(entity.SurrogateKeyName))
	} else {
		quoted := make([]string, len(columns))
		params := make([]string, len(columns))
		for i, c := range columns {
			quoted[i] = schema.QuoteIdent(c)
			params[i] = fmt.Sprintf("$%d", i+1)
		}
		query = fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) RETURNING %s",
			schema.QuoteIdent(table),
			strings.Join(quoted, ", "),
			strings.Join(params, ", "),
			schema.QuoteIdent(entity.SurrogateKeyName),
		)
	}

	args := make([]any, len(values))
	for i, v := range values {
		if v != nil {
			args[i] = *v
		}
	}

	var id int64
	if err := r.db.QueryRow(ctx, query, args...).Scan(&id); err != nil {
		return 0, classify(err, "insert", repository.ErrWriteRejected)
	}
	return id, nil
}

// Count returns the number of rows in the table.
func (r *RowRepoImpl) Count(ctx context.Context, table string) (int64, error) {
	if err := checkIdent(table); err != nil {
		return 0, err
	}
	var n int64
	err := r.db.QueryRow(ctx, "SELECT COUNT(*) FROM "+schema.QuoteIdent(table)).Scan(&n)
	if pgCode(err) == codeUndefinedTable {
		return 0, fmt.Errorf("%w: %s", repository.ErrTableNotFound, table)
	}
	if err != nil {
		return 0, classify(err, "count", nil)
	}
	return n, nil
}

// Select reads rows ordered by id. A limit <= 0 reads every row.
func (r *RowRepoImpl) Select(ctx context.Context, table string, limit, offset int) (*entity.TableData, error) {
	if err := checkIdent(table); err != nil {
		return nil, err
	}
	cols, err := tableColumns(ctx, r.db, table)
	if err != nil {
		return nil, err
	}

	names := make([]string, len(cols))
	exprs := make([]string, len(cols))
	order := "ctid"
	for i, c := range cols {
		names[i] = c.Name
		exprs[i] = fmt.Sprintf("CAST(%s AS TEXT)", schema.QuoteIdent(c.Name))
		if c.IsSurrogateKey() {
			order = schema.QuoteIdent(c.Name)
		}
	}

	// LIMIT NULL means no limit.
	var lim any
	if limit > 0 {
		lim = limit
	}
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf("SELECT %s FROM %s ORDER BY %s LIMIT $1 OFFSET $2",
		strings.Join(exprs, ", "), schema.QuoteIdent(table), order)
	rows, err := r.db.Query(ctx, query, lim, offset)
	if err != nil {
		return nil, classify(err, "select", nil)
	}
	defer rows.Close()

	data := &entity.TableData{Table: table, Columns: names, Rows: [][]*string{}}
	for rows.Next() {
		row := make([]*string, len(cols))
		dest := make([]any, len(cols))
		for i := range row {
			dest[i] = &row[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, classify(err, "select", nil)
		}
		data.Rows = append(data.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(err, "select", nil)
	}
	return data, nil
}
