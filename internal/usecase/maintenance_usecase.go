package usecase

import (
	"context"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/user/equipment-scraper/internal/entity"
	"github.com/user/equipment-scraper/internal/export"
	"github.com/user/equipment-scraper/internal/repository"
	"github.com/user/equipment-scraper/internal/schema"
)

// Maintenance holds the out-of-band operations on the shared store.
type Maintenance interface {
	ListTables(ctx context.Context) ([]entity.TableSummary, error)
	Describe(ctx context.Context, table string) (*entity.TableSchema, error)
	Rows(ctx context.Context, table string, limit, offset int) (*entity.TableData, error)
	Drop(ctx context.Context, table string) error
	DropAll(ctx context.Context) ([]string, error)
	Export(ctx context.Context, table string, format export.Format, w io.Writer) error
	Ping(ctx context.Context) error
}

type maintenanceUseCase struct {
	schemaRepo  repository.SchemaRepository
	rowRepo     repository.RowRepository
	catalogRepo repository.CatalogRepository
	logger      *zap.Logger
}

// NewMaintenance creates a new Maintenance use case.
func NewMaintenance(
	schemaRepo repository.SchemaRepository,
	rowRepo repository.RowRepository,
	catalogRepo repository.CatalogRepository,
	logger *zap.Logger,
) Maintenance {
	return &maintenanceUseCase{
		schemaRepo:  schemaRepo,
		rowRepo:     rowRepo,
		catalogRepo: catalogRepo,
		logger:      logger,
	}
}

func (uc *maintenanceUseCase) ListTables(ctx context.Context) ([]entity.TableSummary, error) {
	names, err := uc.catalogRepo.Tables(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}
	out := make([]entity.TableSummary, 0, len(names))
	for _, name := range names {
		ts, err := uc.catalogRepo.Stats(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("failed to describe %s: %w", name, err)
		}
		out = append(out, ts)
	}
	return out, nil
}

func (uc *maintenanceUseCase) Describe(ctx context.Context, table string) (*entity.TableSchema, error) {
	name, err := schema.NormalizeTable(table)
	if err != nil {
		return nil, err
	}
	cols, err := uc.schemaRepo.Columns(ctx, name)
	if err != nil {
		return nil, err
	}
	return &entity.TableSchema{Table: name, Columns: cols}, nil
}

func (uc *maintenanceUseCase) Rows(ctx context.Context, table string, limit, offset int) (*entity.TableData, error) {
	name, err := schema.NormalizeTable(table)
	if err != nil {
		return nil, err
	}
	return uc.rowRepo.Select(ctx, name, limit, offset)
}

func (uc *maintenanceUseCase) Drop(ctx context.Context, table string) error {
	name, err := schema.NormalizeTable(table)
	if err != nil {
		return err
	}
	if err := uc.catalogRepo.DropTable(ctx, name); err != nil {
		return fmt.Errorf("failed to drop %s: %w", name, err)
	}
	uc.logger.Info("dropped table", zap.String("table", name))
	return nil
}

// DropAll drops every addressable table and returns the dropped names.
func (uc *maintenanceUseCase) DropAll(ctx context.Context) ([]string, error) {
	names, err := uc.catalogRepo.Tables(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}
	dropped := make([]string, 0, len(names))
	for _, name := range names {
		if !schema.ValidIdentifier(name) {
			uc.logger.Warn("leaving table with a foreign name", zap.String("table", name))
			continue
		}
		if err := uc.catalogRepo.DropTable(ctx, name); err != nil {
			return dropped, fmt.Errorf("failed to drop %s: %w", name, err)
		}
		dropped = append(dropped, name)
	}
	uc.logger.Info("dropped all tables", zap.Int("count", len(dropped)))
	return dropped, nil
}

func (uc *maintenanceUseCase) Export(ctx context.Context, table string, format export.Format, w io.Writer) error {
	data, err := uc.Rows(ctx, table, 0, 0)
	if err != nil {
		return err
	}
	return export.Write(w, format, data)
}

func (uc *maintenanceUseCase) Ping(ctx context.Context) error {
	return uc.catalogRepo.Ping(ctx)
}
