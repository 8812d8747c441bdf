package services_test

import (
	"log/slog"
	"time"

	"github.com/lorrc/atendimento-dashboard/internal/core/domain"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func snapshotOf(mutate func(s *domain.FilterState)) domain.FilterSnapshot {
	state := domain.NewFilterState()
	if mutate != nil {
		mutate(state)
	}
	return state.Snapshot()
}

// scenarioRecords is the three-record dataset used across the engine tests.
func scenarioRecords() []domain.Record {
	return []domain.Record{
		{Timestamp: "2024-01-05T10:00:00", Status: domain.StatusCompleted, Employee: "Ana"},
		{Timestamp: "2024-01-10T09:00:00", Status: domain.StatusPending, Employee: "Ana"},
		{Timestamp: "2024-02-01T09:00:00", Status: domain.StatusCompleted, Employee: "Bruno"},
	}
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}
