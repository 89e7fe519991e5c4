package usecase

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/user/equipment-scraper/internal/entity"
	"github.com/user/equipment-scraper/internal/repository"
	"github.com/user/equipment-scraper/internal/schema"
)

// Reconciliation is the outcome of reconciling one record against a table.
type Reconciliation struct {
	Schema  *entity.TableSchema
	Mapped  []entity.FieldColumn
	Added   []string
	Created bool
}

// SchemaReconciler makes sure a table has a column for every field of a record.
type SchemaReconciler interface {
	// Reconcile creates the table when missing and adds every column the
	// record needs. table must already be normalized; identity lists the
	// raw identity field names a new table starts with.
	Reconcile(ctx context.Context, table string, identity []string, rec *entity.Record) (*Reconciliation, error)
}

type schemaReconcilerUseCase struct {
	schemaRepo repository.SchemaRepository
	locker     repository.TableLocker
	logger     *zap.Logger
}

// NewSchemaReconciler creates a new SchemaReconciler use case.
func NewSchemaReconciler(schemaRepo repository.SchemaRepository, locker repository.TableLocker, logger *zap.Logger) SchemaReconciler {
	return &schemaReconcilerUseCase{
		schemaRepo: schemaRepo,
		locker:     locker,
		logger:     logger,
	}
}

func (uc *schemaReconcilerUseCase) Reconcile(ctx context.Context, table string, identity []string, rec *entity.Record) (*Reconciliation, error) {
	mapped := schema.MapRecord(rec, entity.SurrogateKeyName)

	unlock, err := uc.locker.Lock(ctx, table)
	if err != nil {
		return nil, fmt.Errorf("failed to lock table %s: %w", table, err)
	}
	defer unlock()

	out := &Reconciliation{Mapped: mapped}

	cols, err := uc.schemaRepo.Columns(ctx, table)
	if errors.Is(err, repository.ErrTableNotFound) {
		initial := initialColumns(identity, mapped)
		if err := uc.schemaRepo.CreateTable(ctx, table, initial); err != nil {
			return nil, fmt.Errorf("failed to create table %s: %w", table, err)
		}
		// Re-read: a concurrent creator may have won with a different layout.
		cols, err = uc.schemaRepo.Columns(ctx, table)
		if err == nil {
			out.Created = true
			uc.logger.Info("created table", zap.String("table", table), zap.Int("columns", len(initial)))
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read columns of %s: %w", table, err)
	}

	ts := &entity.TableSchema{Table: table, Columns: cols}
	var missing []string
	for _, fc := range mapped {
		if !ts.Has(fc.Column) {
			missing = append(missing, fc.Column)
		}
	}
	if len(missing) > 0 {
		for _, name := range missing {
			if err := uc.schemaRepo.AddColumn(ctx, table, entity.TextColumn(name)); err != nil {
				return nil, fmt.Errorf("failed to add column %s to %s: %w", name, table, err)
			}
		}
		// Re-read: an add is a no-op when the backend already has the column
		// under a name that differs only in case.
		cols, err = uc.schemaRepo.Columns(ctx, table)
		if err != nil {
			return nil, fmt.Errorf("failed to read columns of %s: %w", table, err)
		}
		ts.Columns = cols
		for _, name := range missing {
			if ts.Has(name) {
				out.Added = append(out.Added, name)
			}
		}
	}
	if len(out.Added) > 0 {
		uc.logger.Info("added columns", zap.String("table", table), zap.Strings("columns", out.Added))
	}

	out.Schema = ts
	return out, nil
}

// initialColumns is the surrogate key, then the identity columns, then the
// record's own columns in field order.
func initialColumns(identity []string, mapped []entity.FieldColumn) []entity.Column {
	cols := []entity.Column{entity.SurrogateKey()}
	seen := map[string]bool{entity.SurrogateKeyName: true}
	for _, f := range identity {
		name := schema.Normalize(f)
		if seen[name] {
			continue
		}
		seen[name] = true
		cols = append(cols, entity.TextColumn(name))
	}
	for _, fc := range mapped {
		if seen[fc.Column] {
			continue
		}
		seen[fc.Column] = true
		cols = append(cols, entity.TextColumn(fc.Column))
	}
	return cols
}
