package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lorrc/atendimento-dashboard/internal/core/domain"
	"github.com/lorrc/atendimento-dashboard/internal/core/ports"
	"github.com/lorrc/atendimento-dashboard/internal/core/utils"
)

const recordsTable = "atendimentos"

// recordColumns is the column order used by both reads and COPY.
var recordColumns = []string{
	"data_hora",
	"cliente",
	"funcionario",
	"status_atendimento",
	"tipo_atendimento",
	"sistema",
	"canal_atendimento",
	"descricao_atendimento",
	"solicitacao_cliente",
	"solicitante",
	"start_time",
	"end_time",
}

// RecordRepository is the secondary adapter for service ticket persistence.
type RecordRepository struct {
	pool *pgxpool.Pool
	tx   *TransactionManager
}

// Ensure RecordRepository implements the ports.RecordRepository interface.
var _ ports.RecordRepository = (*RecordRepository)(nil)

// NewRecordRepository creates a new record repository.
func NewRecordRepository(pool *pgxpool.Pool) *RecordRepository {
	return &RecordRepository{
		pool: pool,
		tx:   NewTransactionManager(pool),
	}
}

// ListRecords returns every stored record in ingestion order. NULL columns
// come back as empty strings.
func (r *RecordRepository) ListRecords(ctx context.Context) ([]domain.Record, error) {
	const query = `
SELECT data_hora, cliente, funcionario, status_atendimento, tipo_atendimento, sistema,
       canal_atendimento, descricao_atendimento, solicitacao_cliente, solicitante,
       start_time, end_time
FROM atendimentos
ORDER BY id
`

	records := make([]domain.Record, 0)
	err := r.tx.WithReadOnlyTransaction(ctx, func(ctx context.Context) error {
		rows, err := GetDBTX(ctx, r.pool).Query(ctx, query)
		if err != nil {
			return fmt.Errorf("query records: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			var cols [12]pgtype.Text
			dest := make([]any, len(cols))
			for i := range cols {
				dest[i] = &cols[i]
			}
			if err := rows.Scan(dest...); err != nil {
				return fmt.Errorf("scan record: %w", err)
			}
			records = append(records, mapRowToRecord(cols))
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}

	return records, nil
}

// ReplaceRecords deletes the stored records and copies records in, in one
// transaction. It joins a transaction already carried by ctx.
func (r *RecordRepository) ReplaceRecords(ctx context.Context, records []domain.Record) error {
	return r.tx.WithTransaction(ctx, func(ctx context.Context) error {
		db := GetDBTX(ctx, r.pool)
		if _, err := db.Exec(ctx, "DELETE FROM "+recordsTable); err != nil {
			return fmt.Errorf("clear records: %w", err)
		}

		rows := make([][]any, 0, len(records))
		for _, rec := range records {
			rows = append(rows, mapRecordToRow(rec))
		}

		n, err := db.CopyFrom(ctx, pgx.Identifier{recordsTable}, recordColumns, pgx.CopyFromRows(rows))
		if err != nil {
			return fmt.Errorf("copy records: %w", err)
		}
		if int(n) != len(records) {
			return fmt.Errorf("copy records: wrote %d of %d rows", n, len(records))
		}
		return nil
	})
}

// Ping checks the database connection.
func (r *RecordRepository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

func mapRowToRecord(cols [12]pgtype.Text) domain.Record {
	return domain.Record{
		Timestamp:   utils.FromString(cols[0]),
		Client:      utils.FromString(cols[1]),
		Employee:    utils.FromString(cols[2]),
		Status:      domain.RecordStatus(utils.FromString(cols[3])),
		Type:        utils.FromString(cols[4]),
		System:      utils.FromString(cols[5]),
		Channel:     utils.FromString(cols[6]),
		Description: utils.FromString(cols[7]),
		Request:     utils.FromString(cols[8]),
		Requester:   utils.FromString(cols[9]),
		StartTime:   utils.FromString(cols[10]),
		EndTime:     utils.FromString(cols[11]),
	}
}

func mapRecordToRow(r domain.Record) []any {
	return []any{
		utils.ToString(r.Timestamp),
		utils.ToString(r.Client),
		utils.ToString(r.Employee),
		utils.ToString(string(r.Status)),
		utils.ToString(r.Type),
		utils.ToString(r.System),
		utils.ToString(r.Channel),
		utils.ToString(r.Description),
		utils.ToString(r.Request),
		utils.ToString(r.Requester),
		utils.ToString(r.StartTime),
		utils.ToString(r.EndTime),
	}
}
