package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/lorrc/atendimento-dashboard/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func truncateRecords(t *testing.T) {
	t.Helper()
	_, err := testPool.Exec(context.Background(), "TRUNCATE atendimentos RESTART IDENTITY")
	require.NoError(t, err)
}

func sampleRecords() []domain.Record {
	return []domain.Record{
		{
			Timestamp:   "2024-01-15T10:00:00",
			Client:      "Acme",
			Employee:    "Ana",
			Status:      domain.StatusCompleted,
			Type:        "Suporte",
			System:      "ERP",
			Channel:     "Telefone",
			Description: "Erro ao emitir nota",
			Requester:   "João",
			StartTime:   "10:00",
			EndTime:     "10:30",
		},
		{
			Timestamp: "2024-01-16T09:00:00",
			Client:    "Beta",
			Status:    domain.StatusPending,
			Channel:   "Email",
		},
	}
}

func TestRecordRepository_ReplaceAndList(t *testing.T) {
	truncateRecords(t)
	repo := NewRecordRepository(testPool)
	ctx := context.Background()

	require.NoError(t, repo.ReplaceRecords(ctx, sampleRecords()))

	got, err := repo.ListRecords(ctx)
	require.NoError(t, err)
	assert.Equal(t, sampleRecords(), got)
}

func TestRecordRepository_ReplaceDiscardsPreviousRows(t *testing.T) {
	truncateRecords(t)
	repo := NewRecordRepository(testPool)
	ctx := context.Background()

	require.NoError(t, repo.ReplaceRecords(ctx, sampleRecords()))
	require.NoError(t, repo.ReplaceRecords(ctx, sampleRecords()[1:]))

	got, err := repo.ListRecords(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Beta", got[0].Client)
}

func TestRecordRepository_EmptyTable(t *testing.T) {
	truncateRecords(t)
	repo := NewRecordRepository(testPool)

	got, err := repo.ListRecords(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestRecordRepository_NullColumnsReadAsEmpty(t *testing.T) {
	truncateRecords(t)
	repo := NewRecordRepository(testPool)
	ctx := context.Background()

	_, err := testPool.Exec(ctx, "INSERT INTO atendimentos (cliente) VALUES ('Gama')")
	require.NoError(t, err)

	got, err := repo.ListRecords(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, domain.Record{Client: "Gama"}, got[0])
}

func TestTransactionManager_RollbackKeepsRows(t *testing.T) {
	truncateRecords(t)
	repo := NewRecordRepository(testPool)
	ctx := context.Background()
	require.NoError(t, repo.ReplaceRecords(ctx, sampleRecords()))

	boom := errors.New("boom")
	err := NewTransactionManager(testPool).WithTransaction(ctx, func(ctx context.Context) error {
		if _, err := GetDBTX(ctx, testPool).Exec(ctx, "DELETE FROM atendimentos"); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	got, err := repo.ListRecords(ctx)
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestRecordRepository_ReplaceJoinsOuterTransaction(t *testing.T) {
	truncateRecords(t)
	repo := NewRecordRepository(testPool)
	ctx := context.Background()
	require.NoError(t, repo.ReplaceRecords(ctx, sampleRecords()))

	boom := errors.New("boom")
	err := NewTransactionManager(testPool).WithTransaction(ctx, func(ctx context.Context) error {
		if err := repo.ReplaceRecords(ctx, []domain.Record{{Client: "Delta"}}); err != nil {
			return err
		}

		inside, err := repo.ListRecords(ctx)
		if err != nil {
			return err
		}
		assert.Equal(t, []domain.Record{{Client: "Delta"}}, inside)
		return boom
	})
	require.ErrorIs(t, err, boom)

	got, err := repo.ListRecords(ctx)
	require.NoError(t, err)
	assert.Equal(t, sampleRecords(), got)
}

func TestRecordRepository_Ping(t *testing.T) {
	assert.NoError(t, NewRecordRepository(testPool).Ping(context.Background()))
}
