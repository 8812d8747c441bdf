package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/lorrc/atendimento-dashboard/internal/core/domain"
	apperrors "github.com/lorrc/atendimento-dashboard/internal/core/errors"
	"github.com/lorrc/atendimento-dashboard/internal/core/ports"
)

// RecordDatasetSource turns a record lister into a DatasetSource by computing the
// full-dataset KPIs and histograms on every load.
type RecordDatasetSource struct {
	lister ports.RecordLister
	clock  func() time.Time
}

var _ ports.DatasetSource = (*RecordDatasetSource)(nil)

// NewRecordDatasetSource creates a dataset source. clock stamps ultima_atualizacao.
func NewRecordDatasetSource(lister ports.RecordLister, clock func() time.Time) *RecordDatasetSource {
	if clock == nil {
		clock = time.Now
	}
	return &RecordDatasetSource{lister: lister, clock: clock}
}

func (s *RecordDatasetSource) Load(ctx context.Context) (domain.Dataset, error) {
	records, err := s.lister.ListRecords(ctx)
	if err != nil {
		return domain.Dataset{}, err
	}
	return BuildDataset(records, s.clock()), nil
}

// SyncingLister reads from a primary lister and mirrors the result into a
// repository, so the repository always holds the last good import.
type SyncingLister struct {
	from   ports.RecordLister
	to     ports.RecordRepository
	logger *slog.Logger
}

var _ ports.RecordLister = (*SyncingLister)(nil)

// NewSyncingLister creates a lister that imports from into to on every read.
func NewSyncingLister(from ports.RecordLister, to ports.RecordRepository, logger *slog.Logger) *SyncingLister {
	return &SyncingLister{from: from, to: to, logger: logger.With("component", "record_sync")}
}

// ListRecords returns the primary's records. A failed mirror write is logged
// and does not fail the read. When the primary fails, the repository's copy is
// served; an empty or unreadable copy is never a stand-in for the primary, so
// the primary's error is returned wrapped in ErrDatasetUnavailable.
func (l *SyncingLister) ListRecords(ctx context.Context) ([]domain.Record, error) {
	records, err := l.from.ListRecords(ctx)
	if err != nil {
		stored, storeErr := l.to.ListRecords(ctx)
		if storeErr != nil || len(stored) == 0 {
			l.logger.WarnContext(ctx, "primary record source failed and no stored copy is available",
				"error", err,
				"store_error", storeErr,
			)
			return nil, fmt.Errorf("%w: %w", apperrors.ErrDatasetUnavailable, err)
		}
		l.logger.WarnContext(ctx, "primary record source failed, serving stored copy",
			"error", err,
			"records", len(stored),
		)
		return stored, nil
	}
	if err := l.to.ReplaceRecords(ctx, records); err != nil {
		l.logger.WarnContext(ctx, "failed to store imported records", "error", err)
	}
	return records, nil
}
