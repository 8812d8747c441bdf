// Package snapshot loads the dataset compiled into the binary. It is the
// startup dataset before any remote refresh succeeds.
package snapshot

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"log/slog"
	"time"

	"github.com/lorrc/atendimento-dashboard/internal/core/domain"
	apperrors "github.com/lorrc/atendimento-dashboard/internal/core/errors"
	"github.com/lorrc/atendimento-dashboard/internal/core/ports"
)

//go:embed data
var embedded embed.FS

// DefaultPath is the location of the snapshot inside the embedded filesystem.
const DefaultPath = "data/atendimentos.json"

// Source reads a dataset snapshot from a filesystem. It never fails: a missing
// or malformed snapshot yields an empty dataset and a warning.
type Source struct {
	fsys   fs.FS
	path   string
	clock  func() time.Time
	logger *slog.Logger
}

var _ ports.DatasetSource = (*Source)(nil)

// NewEmbedded returns a Source over the snapshot compiled into the binary.
func NewEmbedded(clock func() time.Time, logger *slog.Logger) *Source {
	return New(embedded, DefaultPath, clock, logger)
}

// New returns a Source reading path from fsys.
func New(fsys fs.FS, path string, clock func() time.Time, logger *slog.Logger) *Source {
	if clock == nil {
		clock = time.Now
	}
	return &Source{
		fsys:   fsys,
		path:   path,
		clock:  clock,
		logger: logger.With("component", "snapshot"),
	}
}

func (s *Source) Load(ctx context.Context) (domain.Dataset, error) {
	dataset, err := s.read()
	if err != nil {
		s.logger.WarnContext(ctx, "snapshot unavailable, starting with an empty dataset",
			"path", s.path,
			"error", err,
		)
		return domain.EmptyDataset(s.clock()), nil
	}

	s.logger.InfoContext(ctx, "snapshot loaded",
		"path", s.path,
		"records", len(dataset.Records),
	)
	return dataset, nil
}

func (s *Source) read() (domain.Dataset, error) {
	data, err := fs.ReadFile(s.fsys, s.path)
	if err != nil {
		return domain.Dataset{}, err
	}

	var dataset domain.Dataset
	if err := json.Unmarshal(data, &dataset); err != nil {
		return domain.Dataset{}, fmt.Errorf("%w: %w", apperrors.ErrMalformedDataset, err)
	}
	if dataset.Records == nil {
		return domain.Dataset{}, fmt.Errorf("%w: missing registros", apperrors.ErrMalformedDataset)
	}

	// Older snapshots may omit histograms; renderers expect every facet.
	empty := domain.EmptyDataset(s.clock())
	if dataset.Charts == nil {
		dataset.Charts = empty.Charts
	}
	for _, f := range domain.Facets {
		if _, ok := dataset.Charts[f]; !ok {
			dataset.Charts[f] = domain.EmptyHistogram()
		}
	}
	if dataset.LastUpdated == "" {
		dataset.LastUpdated = empty.LastUpdated
	}
	return dataset, nil
}
