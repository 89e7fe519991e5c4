package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/user/equipment-scraper/internal/entity"
	"github.com/user/equipment-scraper/internal/repository"
	"github.com/user/equipment-scraper/internal/schema"
	"github.com/user/equipment-scraper/pkg/metrics"
	"github.com/user/equipment-scraper/pkg/utils"
)

var (
	// ErrMalformedRecord is returned for a record missing an identity field.
	ErrMalformedRecord = errors.New("record is missing a required identity field")
	// ErrDuplicateRecord is returned when the dedup window already holds an
	// identical record for the table.
	ErrDuplicateRecord = errors.New("identical record written recently")
)

// nullMarker stands in for NULL inside fingerprints; it cannot come out of
// a scraped text value.
const nullMarker = "\x00null"

// PersistResult describes one written row.
type PersistResult struct {
	ID           int64
	Table        string
	AddedColumns []string
	Created      bool
}

// Persister reconciles and writes records, one row per call.
type Persister interface {
	Persist(ctx context.Context, ds entity.Dataset, rec *entity.Record) (*PersistResult, error)
}

// DedupConfig enables the optional duplicate window. A nil Seen or a zero
// TTL keeps writes append-only.
type DedupConfig struct {
	Seen repository.SeenRepository
	TTL  time.Duration
}

type persistUseCase struct {
	reconciler SchemaReconciler
	writer     RowWriter
	dedup      DedupConfig
	metrics    *metrics.Metrics
	logger     *zap.Logger
}

// NewPersister creates a new Persister use case.
func NewPersister(reconciler SchemaReconciler, writer RowWriter, dedup DedupConfig, m *metrics.Metrics, logger *zap.Logger) Persister {
	return &persistUseCase{
		reconciler: reconciler,
		writer:     writer,
		dedup:      dedup,
		metrics:    m,
		logger:     logger,
	}
}

func (uc *persistUseCase) dedupEnabled() bool {
	return uc.dedup.Seen != nil && uc.dedup.TTL > 0
}

func (uc *persistUseCase) Persist(ctx context.Context, ds entity.Dataset, rec *entity.Record) (*PersistResult, error) {
	table, err := schema.NormalizeTable(ds.Table)
	if err != nil {
		return nil, err
	}
	identity := ds.IdentityFields()

	if err := checkIdentity(rec, identity); err != nil {
		uc.metrics.IncRecord(table, metrics.StatusSkipped)
		return nil, err
	}

	var fp string
	if uc.dedupEnabled() {
		fp = fingerprint(table, rec)
		seen, err := uc.dedup.Seen.IsSeen(ctx, fp)
		if err != nil {
			uc.logger.Warn("dedup lookup failed, writing anyway", zap.String("table", table), zap.Error(err))
		}
		if seen {
			uc.metrics.IncRecord(table, metrics.StatusDuplicate)
			return nil, ErrDuplicateRecord
		}
	}

	start := time.Now()
	rc, err := uc.reconciler.Reconcile(ctx, table, identity, rec)
	if err != nil {
		uc.metrics.IncRecord(table, metrics.StatusFailed)
		return nil, err
	}
	uc.metrics.AddColumns(table, len(rc.Added))

	id, err := uc.writer.Write(ctx, rc.Schema, rc.Mapped)
	if err != nil {
		uc.metrics.IncRecord(table, metrics.StatusFailed)
		return nil, fmt.Errorf("failed to write record to %s: %w", table, err)
	}
	uc.metrics.ObservePersist(table, time.Since(start))
	uc.metrics.IncRecord(table, metrics.StatusWritten)

	if fp != "" {
		if err := uc.dedup.Seen.MarkSeen(ctx, fp, uc.dedup.TTL); err != nil {
			// The row is written; a missing mark only weakens dedup.
			uc.logger.Warn("failed to mark record as seen", zap.String("table", table), zap.Error(err))
		}
	}

	return &PersistResult{ID: id, Table: table, AddedColumns: rc.Added, Created: rc.Created}, nil
}

// checkIdentity requires a non-blank value for every identity field, matched
// by normalized name.
func checkIdentity(rec *entity.Record, identity []string) error {
	mapped := schema.MapRecord(rec, entity.SurrogateKeyName)
	for _, f := range identity {
		fc, ok := schema.Lookup(mapped, schema.Normalize(f))
		if !ok || fc.Value == nil || strings.TrimSpace(*fc.Value) == "" {
			return fmt.Errorf("%w: %s", ErrMalformedRecord, f)
		}
	}
	return nil
}

func fingerprint(table string, rec *entity.Record) string {
	parts := make([]string, 0, 1+2*rec.Len())
	parts = append(parts, table)
	for _, fc := range schema.MapRecord(rec, entity.SurrogateKeyName) {
		v := nullMarker
		if fc.Value != nil {
			v = *fc.Value
		}
		parts = append(parts, fc.Column, v)
	}
	return utils.Fingerprint(parts...)
}
