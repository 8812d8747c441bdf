package services_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/lorrc/atendimento-dashboard/internal/core/domain"
	"github.com/lorrc/atendimento-dashboard/internal/core/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2024, 1, 20, 15, 30, 0, 0, time.UTC)

func newDashboard(t *testing.T, records []domain.Record) (*services.DashboardService, *services.EventBus) {
	t.Helper()
	bus := services.NewEventBus(discardLogger())
	engine := services.NewFilterEngine(time.UTC, discardLogger())
	dataset := services.BuildDataset(records, testNow)
	svc := services.NewDashboardService(bus, engine, dataset, fixedClock(testNow), discardLogger())
	t.Cleanup(svc.Close)
	return svc, bus
}

func TestDashboardService_StartsWithDefaultPeriod(t *testing.T) {
	svc, _ := newDashboard(t, scenarioRecords())

	view := svc.Current(context.Background())

	period, ok := view.Filters.Period()
	require.True(t, ok)
	assert.Equal(t, domain.DefaultPeriod(testNow), period)
	assert.Empty(t, view.Filters.ActiveFacets())
	// Only January records fall in [2024-01-01, 2024-01-20].
	assert.Equal(t, 2, view.Update.KPIs.Total)
	assert.Equal(t, testNow.Format(domain.LastUpdatedLayout), view.Update.LastUpdated)
}

func TestDashboardService_CommandsPublishFilterChangedThenUpdate(t *testing.T) {
	svc, bus := newDashboard(t, scenarioRecords())
	var events []domain.EventType

	bus.Subscribe(domain.EventFilterChanged, func(ctx context.Context, e domain.Event) {
		events = append(events, e.Type)
	})
	bus.Subscribe(domain.EventDatasetUpdated, func(ctx context.Context, e domain.Event) {
		events = append(events, e.Type)
	})

	ctx := context.Background()
	svc.Toggle(ctx, domain.FacetEmployee, "Bruno")
	svc.SetPeriod(ctx, "2024-01-01", "2024-02-28")

	assert.Equal(t, []domain.EventType{
		domain.EventFilterChanged, domain.EventDatasetUpdated,
		domain.EventFilterChanged, domain.EventDatasetUpdated,
	}, events)

	view := svc.Current(ctx)
	assert.Equal(t, 1, view.Update.KPIs.Total)
	assert.Equal(t, "Bruno", view.Update.Records[0].Employee)
}

func TestDashboardService_UpdatePayload(t *testing.T) {
	svc, bus := newDashboard(t, scenarioRecords())
	var got domain.DashboardUpdate

	bus.Subscribe(domain.EventDatasetUpdated, func(ctx context.Context, e domain.Event) {
		got = e.Payload.(domain.DashboardUpdate)
	})

	svc.SetPeriod(context.Background(), "2024-01-01", "2024-01-31")

	assert.Equal(t, domain.KPISet{Total: 2, Completed: 1, Pending: 1, CompletionRate: 50}, got.KPIs)
	assert.Equal(t, []string{"Ana"}, got.Charts[domain.FacetEmployee].Labels)
	assert.Equal(t, []int{2}, got.Charts[domain.FacetEmployee].Values)
}

func TestDashboardService_ClearRestoresDefaultPeriod(t *testing.T) {
	svc, _ := newDashboard(t, scenarioRecords())
	ctx := context.Background()

	svc.Toggle(ctx, domain.FacetStatus, string(domain.StatusPending))
	svc.SetPeriod(ctx, "2023-01-01", "2023-12-31")
	svc.Clear(ctx)

	view := svc.Current(ctx)
	period, ok := view.Filters.Period()
	require.True(t, ok)
	assert.Equal(t, domain.DefaultPeriod(testNow), period)
	assert.Empty(t, view.Filters.ActiveFacets())
}

func TestDashboardService_ResetPeriodKeepsFacets(t *testing.T) {
	svc, _ := newDashboard(t, scenarioRecords())
	ctx := context.Background()

	svc.Toggle(ctx, domain.FacetEmployee, "Ana")
	svc.SetPeriod(ctx, "2023-01-01", "2023-12-31")
	svc.ResetPeriod(ctx)

	view := svc.Current(ctx)
	period, _ := view.Filters.Period()
	assert.Equal(t, domain.DefaultPeriod(testNow), period)
	assert.Equal(t, []string{"Ana"}, view.Filters.Values(domain.FacetEmployee))
}

func TestDashboardService_ReplaceDataset(t *testing.T) {
	svc, bus := newDashboard(t, nil)
	ctx := context.Background()
	var filterEvents int
	var updates []domain.DashboardUpdate

	bus.Subscribe(domain.EventFilterChanged, func(ctx context.Context, e domain.Event) {
		filterEvents++
	})
	bus.Subscribe(domain.EventDatasetUpdated, func(ctx context.Context, e domain.Event) {
		updates = append(updates, e.Payload.(domain.DashboardUpdate))
	})

	svc.Toggle(ctx, domain.FacetEmployee, "Ana")
	require.Len(t, updates, 1)
	assert.Equal(t, 0, updates[0].KPIs.Total)
	assert.NotNil(t, updates[0].Records)

	later := testNow.Add(time.Hour)
	svc.ReplaceDataset(ctx, services.BuildDataset(scenarioRecords(), later))

	require.Len(t, updates, 2)
	assert.Equal(t, 1, filterEvents)
	assert.Equal(t, 2, updates[1].KPIs.Total)
	assert.Equal(t, later.Format(domain.LastUpdatedLayout), updates[1].LastUpdated)
}

func TestDashboardService_CommandFromSubscriberIsQueued(t *testing.T) {
	svc, bus := newDashboard(t, scenarioRecords())
	ctx := context.Background()
	var trace []string
	reacted := false

	bus.Subscribe(domain.EventDatasetUpdated, func(ctx context.Context, e domain.Event) {
		update := e.Payload.(domain.DashboardUpdate)
		trace = append(trace, "update:"+string(rune('0'+update.KPIs.Total)))
		if !reacted {
			reacted = true
			svc.Toggle(ctx, domain.FacetEmployee, "Bruno")
			trace = append(trace, "toggle returned")
		}
	})

	svc.SetPeriod(ctx, "2024-01-01", "2024-02-28")

	// The nested toggle runs only after the first update reached every subscriber.
	assert.Equal(t, []string{"update:3", "toggle returned", "update:1"}, trace)
	assert.Equal(t, []string{"Bruno"}, svc.Current(ctx).Filters.Values(domain.FacetEmployee))
}

func TestDashboardService_ToggleInvolution(t *testing.T) {
	svc, _ := newDashboard(t, scenarioRecords())
	ctx := context.Background()
	before := svc.Current(ctx)

	svc.Toggle(ctx, domain.FacetClient, "ACME")
	svc.Toggle(ctx, domain.FacetClient, "ACME")

	after := svc.Current(ctx)
	assert.Equal(t, before.Filters, after.Filters)
	assert.Equal(t, before.Update.KPIs, after.Update.KPIs)
}

func TestDashboardService_ConcurrentCommands(t *testing.T) {
	svc, bus := newDashboard(t, scenarioRecords())
	ctx := context.Background()
	var mu sync.Mutex
	updates := 0

	bus.Subscribe(domain.EventDatasetUpdated, func(ctx context.Context, e domain.Event) {
		mu.Lock()
		updates++
		mu.Unlock()
	})

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			svc.Toggle(ctx, domain.FacetChannel, "Telefone")
			_ = svc.Current(ctx)
		}()
	}
	wg.Wait()

	assert.Equal(t, 10, updates)
	// An even number of toggles leaves the facet inactive.
	assert.Empty(t, svc.Current(ctx).Filters.ActiveFacets())
}
