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

// RowRepoImpl provides a concrete implementation for the RowRepository interface using SQLite.
type RowRepoImpl struct {
	db *sql.DB
}

// NewRowRepo creates a new instance of RowRepoImpl.
func NewRowRepo(db *sql.DB) *RowRepoImpl {
	return &RowRepoImpl{db: db}
}

// Insert appends one row. Every value is a bind parameter; nil becomes NULL.
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
		query = fmt.Sprintf("INSERT INTO %s DEFAULT VALUES", schema.QuoteIdent(table))
	} else {
		quoted := make([]string, len(columns))
		for i, c := range columns {
			quoted[i] = schema.QuoteIdent(c)
		}
		query = fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
			schema.QuoteIdent(table),
			strings.Join(quoted, ", "),
			strings.TrimSuffix(strings.Repeat("?, ", len(columns)), ", "),
		)
	}

	args := make([]any, len(values))
	for i, v := range values {
		if v != nil {
			args[i] = *v
		}
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, classify(err, "insert", repository.ErrWriteRejected)
	}
	id, err := res.LastInsertId()
	if err != nil {
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
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+schema.QuoteIdent(table)).Scan(&n)
	if isNoSuchTable(err) {
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
	quoted := make([]string, len(cols))
	order := "rowid"
	for i, c := range cols {
		names[i] = c.Name
		quoted[i] = schema.QuoteIdent(c.Name)
		if c.IsSurrogateKey() {
			order = quoted[i]
		}
	}
	if limit <= 0 {
		limit = -1
	}
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf("SELECT %s FROM %s ORDER BY %s LIMIT ? OFFSET ?",
		strings.Join(quoted, ", "), schema.QuoteIdent(table), order)
	rows, err := r.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, classify(err, "select", nil)
	}
	defer rows.Close()

	data := &entity.TableData{Table: table, Columns: names, Rows: [][]*string{}}
	for rows.Next() {
		cells := make([]sql.NullString, len(cols))
		dest := make([]any, len(cols))
		for i := range cells {
			dest[i] = &cells[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, classify(err, "select", nil)
		}
		row := make([]*string, len(cols))
		for i, c := range cells {
			if c.Valid {
				v := c.String
				row[i] = &v
			}
		}
		data.Rows = append(data.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(err, "select", nil)
	}
	return data, nil
}
