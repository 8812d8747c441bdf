package ports

import (
	"context"

	"github.com/lorrc/atendimento-dashboard/internal/core/domain"
)

// EventHandler receives events published on a bus channel. The context is the
// dispatching context; commands issued with it are queued, not re-entered.
type EventHandler func(ctx context.Context, event domain.Event)

// EventBus is a synchronous publish/subscribe channel.
type EventBus interface {
	Subscribe(eventType domain.EventType, handler EventHandler) (unsubscribe func())
	Publish(ctx context.Context, event domain.Event)
}

// DashboardView is the state exposed to renderers and the HTTP API.
type DashboardView struct {
	Filters domain.FilterSnapshot
	Update  domain.DashboardUpdate
}

// DashboardService owns the FilterState and the canonical dataset of one session.
type DashboardService interface {
	Toggle(ctx context.Context, facet domain.FacetName, value string)
	SetPeriod(ctx context.Context, start, end string)
	ResetPeriod(ctx context.Context)
	Clear(ctx context.Context)
	ReplaceDataset(ctx context.Context, dataset domain.Dataset)
	Current(ctx context.Context) DashboardView
}

// RefreshService reloads the canonical dataset from its source.
type RefreshService interface {
	Refresh(ctx context.Context) error
}

// AuthService authenticates the dashboard operator.
type AuthService interface {
	Login(ctx context.Context, password string) (string, error)
}
