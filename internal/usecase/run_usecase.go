package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/user/equipment-scraper/internal/entity"
	"github.com/user/equipment-scraper/internal/repository"
	"github.com/user/equipment-scraper/internal/schema"
	"github.com/user/equipment-scraper/pkg/metrics"
)

// ErrDatasetNotFound is returned for a dataset name that is not configured.
var ErrDatasetNotFound = errors.New("dataset not found")

// Run statuses used as the status label of runs_total.
const (
	RunCompleted = "completed"
	RunAborted   = "aborted"
)

// ExtractorFactory builds the extractor for a dataset source.
type ExtractorFactory func(src entity.SourceConfig) (repository.Extractor, error)

// Runner drives extraction and persistence for configured datasets.
type Runner interface {
	// Run extracts one dataset and persists every record it produces.
	// Skipped, duplicate and rejected records are counted; a store failure,
	// an extraction failure or cancellation aborts the run.
	Run(ctx context.Context, name string) (*entity.RunStats, error)
	// RunAll runs the named datasets, or all of them in configuration order,
	// and stops at the first aborted run.
	RunAll(ctx context.Context, names ...string) ([]*entity.RunStats, error)
	Datasets() []entity.Dataset
}

type runUseCase struct {
	datasets  []entity.Dataset
	persister Persister
	factory   ExtractorFactory
	metrics   *metrics.Metrics
	logger    *zap.Logger
}

// NewRunner creates a new Runner use case.
func NewRunner(datasets []entity.Dataset, persister Persister, factory ExtractorFactory, m *metrics.Metrics, logger *zap.Logger) Runner {
	return &runUseCase{
		datasets:  datasets,
		persister: persister,
		factory:   factory,
		metrics:   m,
		logger:    logger,
	}
}

func (uc *runUseCase) Datasets() []entity.Dataset {
	return uc.datasets
}

func (uc *runUseCase) find(name string) (entity.Dataset, bool) {
	for _, ds := range uc.datasets {
		if ds.Name == name {
			return ds, true
		}
	}
	return entity.Dataset{}, false
}

func (uc *runUseCase) Run(ctx context.Context, name string) (*entity.RunStats, error) {
	ds, ok := uc.find(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrDatasetNotFound, name)
	}
	table, err := schema.NormalizeTable(ds.Table)
	if err != nil {
		return nil, fmt.Errorf("dataset %s: %w", name, err)
	}
	ex, err := uc.factory(ds.Source)
	if err != nil {
		return nil, fmt.Errorf("dataset %s: %w", name, err)
	}

	stats := &entity.RunStats{
		RunID:     uuid.NewString(),
		Dataset:   ds.Name,
		Table:     table,
		StartedAt: time.Now().UTC(),
	}
	log := uc.logger.With(zap.String("run_id", stats.RunID), zap.String("dataset", ds.Name), zap.String("table", table))
	log.Info("run started")

	err = ex.Extract(ctx, func(ctx context.Context, rec *entity.Record) error {
		_, err := uc.persister.Persist(ctx, ds, rec)
		switch {
		case err == nil:
			stats.Written++
			return nil
		case errors.Is(err, repository.ErrStoreUnavailable):
			return err
		case errors.Is(err, ErrMalformedRecord):
			stats.Skipped++
			log.Warn("skipping malformed record", zap.Error(err))
			return nil
		case errors.Is(err, ErrDuplicateRecord):
			stats.Duplicates++
			return nil
		case errors.Is(err, repository.ErrWriteRejected):
			stats.Failed++
			log.Error("record rejected by store", zap.Error(err))
			return nil
		}
		return err
	})

	stats.FinishedAt = time.Now().UTC()
	fields := []zap.Field{
		zap.Int("written", stats.Written),
		zap.Int("skipped", stats.Skipped),
		zap.Int("duplicates", stats.Duplicates),
		zap.Int("failed", stats.Failed),
		zap.Duration("elapsed", stats.FinishedAt.Sub(stats.StartedAt)),
	}
	if err != nil {
		stats.Aborted = true
		stats.Error = err.Error()
		uc.metrics.IncRun(ds.Name, RunAborted)
		log.Error("run aborted", append(fields, zap.Error(err))...)
		return stats, fmt.Errorf("run of %s aborted: %w", ds.Name, err)
	}
	uc.metrics.IncRun(ds.Name, RunCompleted)
	log.Info("run completed", fields...)
	return stats, nil
}

func (uc *runUseCase) RunAll(ctx context.Context, names ...string) ([]*entity.RunStats, error) {
	if len(names) == 0 {
		for _, ds := range uc.datasets {
			names = append(names, ds.Name)
		}
	}
	results := make([]*entity.RunStats, 0, len(names))
	for _, name := range names {
		stats, err := uc.Run(ctx, name)
		if stats != nil {
			results = append(results, stats)
		}
		if err != nil {
			return results, err
		}
	}
	return results, nil
}
