package services

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/lorrc/atendimento-dashboard/internal/core/domain"
	"github.com/lorrc/atendimento-dashboard/internal/core/ports"
)

// DashboardService owns the FilterState and the canonical dataset of one
// dashboard session and keeps the filtered view in sync with them.
//
// Every command runs to completion in a turn: the state change, the
// filterChanged publish, the recomputation and the datasetUpdated publish all
// happen before the next command starts. A command issued from inside a turn
// (for example by a datasetUpdated subscriber) is queued and run after the
// current one, within the same turn.
type DashboardService struct {
	bus    ports.EventBus
	engine *FilterEngine
	clock  func() time.Time
	logger *slog.Logger

	turnMu  sync.Mutex
	queueMu sync.Mutex
	active  bool
	pending []func(context.Context)

	// written only inside a turn
	filters *domain.FilterState
	dataset domain.Dataset

	viewMu sync.RWMutex
	view   ports.DashboardView

	unsubscribe []func()
}

type turnKey struct{}

var _ ports.DashboardService = (*DashboardService)(nil)

// NewDashboardService creates the session with the default period applied and
// computes the initial view. It subscribes the recompute handler to the bus.
func NewDashboardService(
	bus ports.EventBus,
	engine *FilterEngine,
	initial domain.Dataset,
	clock func() time.Time,
	logger *slog.Logger,
) *DashboardService {
	if clock == nil {
		clock = time.Now
	}
	s := &DashboardService{
		bus:     bus,
		engine:  engine,
		clock:   clock,
		logger:  logger.With("service", "dashboard"),
		filters: domain.NewFilterState(),
		dataset: initial,
	}
	s.filters.ResetPeriod(s.now())

	s.recompute(context.Background(), domain.Recompute{
		Filters: s.filters.Snapshot(),
		Dataset: s.dataset,
	})

	s.unsubscribe = append(s.unsubscribe,
		bus.Subscribe(domain.EventFilterChanged, s.handleRecompute),
		bus.Subscribe(domain.EventDatasetReplaced, s.handleRecompute),
	)
	return s
}

// Close detaches the service from the bus.
func (s *DashboardService) Close() {
	for _, unsubscribe := range s.unsubscribe {
		unsubscribe()
	}
	s.unsubscribe = nil
}

// Toggle adds or removes value from the facet's selection.
func (s *DashboardService) Toggle(ctx context.Context, facet domain.FacetName, value string) {
	s.run(ctx, func(ctx context.Context) {
		s.filters.Toggle(facet, value)
		s.logger.DebugContext(ctx, "filter toggled", "facet", facet, "value", value)
		s.publishFilters(ctx)
	})
}

// SetPeriod replaces the period.
func (s *DashboardService) SetPeriod(ctx context.Context, start, end string) {
	s.run(ctx, func(ctx context.Context) {
		s.filters.SetPeriod(start, end)
		s.logger.DebugContext(ctx, "period set", "start", start, "end", end)
		s.publishFilters(ctx)
	})
}

// ResetPeriod restores the default period and keeps facet selections.
func (s *DashboardService) ResetPeriod(ctx context.Context) {
	s.run(ctx, func(ctx context.Context) {
		s.filters.ResetPeriod(s.now())
		s.publishFilters(ctx)
	})
}

// Clear removes all facet selections and restores the default period.
func (s *DashboardService) Clear(ctx context.Context) {
	s.run(ctx, func(ctx context.Context) {
		s.filters.Clear(s.now())
		s.logger.DebugContext(ctx, "filters cleared")
		s.publishFilters(ctx)
	})
}

// ReplaceDataset swaps the canonical dataset and recomputes against the
// current filters.
func (s *DashboardService) ReplaceDataset(ctx context.Context, dataset domain.Dataset) {
	s.run(ctx, func(ctx context.Context) {
		if dataset.Records == nil {
			dataset.Records = []domain.Record{}
		}
		s.dataset = dataset
		s.logger.InfoContext(ctx, "dataset replaced",
			"records", len(dataset.Records),
			"last_updated", dataset.LastUpdated,
		)
		s.bus.Publish(ctx, domain.Event{
			Type:    domain.EventDatasetReplaced,
			Payload: domain.Recompute{Filters: s.filters.Snapshot(), Dataset: s.dataset},
		})
	})
}

// Current returns the latest computed view.
func (s *DashboardService) Current(_ context.Context) ports.DashboardView {
	s.viewMu.RLock()
	defer s.viewMu.RUnlock()
	return s.view
}

func (s *DashboardService) publishFilters(ctx context.Context) {
	s.bus.Publish(ctx, domain.Event{
		Type:    domain.EventFilterChanged,
		Payload: domain.Recompute{Filters: s.filters.Snapshot(), Dataset: s.dataset},
	})
}

// handleRecompute recomputes the view from the inputs captured in the event and
// announces the result.
func (s *DashboardService) handleRecompute(ctx context.Context, event domain.Event) {
	req, ok := event.Payload.(domain.Recompute)
	if !ok {
		s.logger.WarnContext(ctx, "unexpected payload", "event", event.Type)
		return
	}
	update := s.recompute(ctx, req)
	s.bus.Publish(ctx, domain.Event{Type: domain.EventDatasetUpdated, Payload: update})
}

func (s *DashboardService) recompute(ctx context.Context, req domain.Recompute) domain.DashboardUpdate {
	records := s.engine.Apply(ctx, req.Dataset.Records, req.Filters)
	update := domain.NewDashboardUpdate(ComputeAll(records), req.Dataset.LastUpdated)

	s.viewMu.Lock()
	s.view = ports.DashboardView{Filters: req.Filters, Update: update}
	s.viewMu.Unlock()

	s.logger.DebugContext(ctx, "dashboard recomputed",
		"records", len(records),
		"total", len(req.Dataset.Records),
	)
	return update
}

// run executes op in a turn, or queues it when called from inside one. Only
// the turn's own context marks a call as nested; a subscriber that issues a
// command with a fresh context blocks its own turn, which lockWatched logs.
func (s *DashboardService) run(ctx context.Context, op func(context.Context)) {
	if ctx.Value(turnKey{}) == s && s.enqueue(op) {
		return
	}

	lockWatched(ctx, &s.turnMu, stallWarnAfter, s.logger, "dashboard command")
	defer s.turnMu.Unlock()

	s.setActive(true)
	defer s.setActive(false)

	ctx = context.WithValue(ctx, turnKey{}, s)
	op(ctx)
	for {
		next, ok := s.nextPending()
		if !ok {
			return
		}
		next(ctx)
	}
}

func (s *DashboardService) enqueue(op func(context.Context)) bool {
	s.queueMu.Lock()
	defer s.queueMu.Unlock()
	if !s.active {
		return false
	}
	s.pending = append(s.pending, op)
	return true
}

func (s *DashboardService) nextPending() (func(context.Context), bool) {
	s.queueMu.Lock()
	defer s.queueMu.Unlock()
	if len(s.pending) == 0 {
		return nil, false
	}
	next := s.pending[0]
	s.pending = s.pending[1:]
	return next, true
}

func (s *DashboardService) setActive(v bool) {
	s.queueMu.Lock()
	s.active = v
	s.queueMu.Unlock()
}

func (s *DashboardService) now() time.Time {
	return s.clock().In(s.engine.Location())
}
