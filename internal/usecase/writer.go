package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/user/equipment-scraper/internal/entity"
	"github.com/user/equipment-scraper/internal/repository"
)

// RowWriter appends one reconciled record as one row.
type RowWriter interface {
	// Write inserts the record's columns in table order. Every other column
	// is left to its default, which is NULL for the columns this tool creates.
	Write(ctx context.Context, ts *entity.TableSchema, mapped []entity.FieldColumn) (int64, error)
}

type rowWriterUseCase struct {
	rowRepo repository.RowRepository
}

// NewRowWriter creates a new RowWriter use case.
func NewRowWriter(rowRepo repository.RowRepository) RowWriter {
	return &rowWriterUseCase{rowRepo: rowRepo}
}

func (uc *rowWriterUseCase) Write(ctx context.Context, ts *entity.TableSchema, mapped []entity.FieldColumn) (int64, error) {
	type bound struct {
		pos int
		fc  entity.FieldColumn
	}
	cells := make([]bound, 0, len(mapped))
	for _, fc := range mapped {
		pos := ts.Index(fc.Column)
		if pos < 0 {
			return 0, fmt.Errorf("%w: column %s is not in table %s", repository.ErrWriteRejected, fc.Column, ts.Table)
		}
		cells = append(cells, bound{pos: pos, fc: fc})
	}
	sort.SliceStable(cells, func(i, j int) bool { return cells[i].pos < cells[j].pos })

	columns := make([]string, len(cells))
	args := make([]*string, len(cells))
	for i, c := range cells {
		columns[i] = c.fc.Column
		args[i] = c.fc.Value
	}

	id, err := uc.rowRepo.Insert(ctx, ts.Table, columns, args)
	if errors.Is(err, repository.ErrInvalidIdentifier) {
		return 0, fmt.Errorf("%w: %w", repository.ErrWriteRejected, err)
	}
	return id, err
}
