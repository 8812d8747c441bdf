package ports

import (
	"context"

	"github.com/lorrc/atendimento-dashboard/internal/core/domain"
)

// DatasetSource produces a complete dataset in the GET /api/data shape.
type DatasetSource interface {
	Load(ctx context.Context) (domain.Dataset, error)
}

// RecordLister reads every known service ticket, in source order.
type RecordLister interface {
	ListRecords(ctx context.Context) ([]domain.Record, error)
}

// RecordRepository is the persistent store of ingested service tickets.
type RecordRepository interface {
	RecordLister
	// ReplaceRecords swaps the stored set for records atomically.
	ReplaceRecords(ctx context.Context, records []domain.Record) error
}

// TokenIssuer signs session tokens.
type TokenIssuer interface {
	GenerateToken(subject string) (string, error)
}
