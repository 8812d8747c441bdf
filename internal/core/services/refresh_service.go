package services

import (
	"context"
	"fmt"
	"log/slog"

	apperrors "github.com/lorrc/atendimento-dashboard/internal/core/errors"
	"github.com/lorrc/atendimento-dashboard/internal/core/ports"
	"golang.org/x/sync/singleflight"
)

// RefreshService reloads the dataset from its source and hands it to the
// dashboard. Concurrent refreshes share one load. A failed load leaves the
// current dataset in place.
type RefreshService struct {
	source    ports.DatasetSource
	dashboard ports.DashboardService
	group     singleflight.Group
	logger    *slog.Logger
}

var _ ports.RefreshService = (*RefreshService)(nil)

// NewRefreshService creates a new refresh service.
func NewRefreshService(source ports.DatasetSource, dashboard ports.DashboardService, logger *slog.Logger) *RefreshService {
	return &RefreshService{
		source:    source,
		dashboard: dashboard,
		logger:    logger.With("service", "refresh"),
	}
}

// Refresh loads a new dataset and replaces the canonical one.
func (s *RefreshService) Refresh(ctx context.Context) error {
	_, err, shared := s.group.Do("refresh", func() (any, error) {
		dataset, err := s.source.Load(ctx)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", apperrors.ErrDatasetUnavailable, err)
		}
		s.dashboard.ReplaceDataset(ctx, dataset)
		return nil, nil
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "dataset refresh failed", "error", err)
		return err
	}
	s.logger.DebugContext(ctx, "dataset refreshed", "shared", shared)
	return nil
}
