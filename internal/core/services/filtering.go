package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/lorrc/atendimento-dashboard/internal/core/domain"
)

// FilterEngine selects the records matching a filter snapshot.
//
// A record passes when, for every active facet, its value is one of the selected
// values (OR within a facet, AND across facets) and, when a period is set, its
// timestamp lies inside the period. The period check fails open: an unparsable
// bound disables the period filter and an unparsable record timestamp keeps the
// record.
type FilterEngine struct {
	loc    *time.Location
	logger *slog.Logger
}

// NewFilterEngine creates an engine that reads naive timestamps in loc.
func NewFilterEngine(loc *time.Location, logger *slog.Logger) *FilterEngine {
	if loc == nil {
		loc = time.Local
	}
	return &FilterEngine{
		loc:    loc,
		logger: logger.With("component", "filter_engine"),
	}
}

// Location returns the zone used for naive timestamps and period bounds.
func (e *FilterEngine) Location() *time.Location {
	return e.loc
}

// Apply returns the matching records in dataset order. With an empty snapshot the
// input slice is returned as is.
func (e *FilterEngine) Apply(ctx context.Context, records []domain.Record, filters domain.FilterSnapshot) []domain.Record {
	if filters.IsEmpty() {
		return records
	}

	facets := filters.ActiveFacets()
	start, end, windowed := e.window(ctx, filters)

	out := make([]domain.Record, 0, len(records))
	unparsable := 0
	for _, r := range records {
		if !matchesFacets(r, filters, facets) {
			continue
		}
		if windowed {
			t, ok := domain.ParseTimestamp(r.Timestamp, e.loc)
			if !ok {
				unparsable++
			} else if t.Before(start) || t.After(end) {
				continue
			}
		}
		out = append(out, r)
	}

	if unparsable > 0 {
		e.logger.DebugContext(ctx, "kept records with unparsable timestamp", "count", unparsable)
	}
	return out
}

func matchesFacets(r domain.Record, filters domain.FilterSnapshot, facets []domain.FacetName) bool {
	for _, f := range facets {
		if !filters.Accepts(f, r.FacetValue(f)) {
			return false
		}
	}
	return true
}

// window resolves the period to [start of start day, end of end day].
func (e *FilterEngine) window(ctx context.Context, filters domain.FilterSnapshot) (time.Time, time.Time, bool) {
	period, ok := filters.Period()
	if !ok {
		return time.Time{}, time.Time{}, false
	}
	start, okStart := domain.ParseTimestamp(period.Start, e.loc)
	end, okEnd := domain.ParseTimestamp(period.End, e.loc)
	if !okStart || !okEnd {
		e.logger.DebugContext(ctx, "period ignored: unparsable bound",
			"start", period.Start,
			"end", period.End,
		)
		return time.Time{}, time.Time{}, false
	}
	return domain.StartOfDay(start), domain.EndOfDay(end), true
}
