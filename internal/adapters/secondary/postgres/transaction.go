package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// TransactionManager scopes record table work to one transaction.
//
// The record table is only ever replaced as a whole, so a sheet import is a
// DELETE followed by a COPY that must land together, and a dashboard load must
// read one consistent table. The transaction travels in the context; repository
// code reaches it through GetDBTX. A call made while ctx already carries a
// transaction joins it instead of opening another, so callers can group a
// replace with their own statements.
type TransactionManager struct {
	pool *pgxpool.Pool
}

// NewTransactionManager creates a new transaction manager
func NewTransactionManager(pool *pgxpool.Pool) *TransactionManager {
	return &TransactionManager{pool: pool}
}

// WithTransaction runs fn in a read-write transaction, committing when fn
// returns nil and rolling back otherwise.
func (tm *TransactionManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return tm.run(ctx, pgx.TxOptions{}, "transaction", fn)
}

// WithReadOnlyTransaction runs fn against a repeatable-read snapshot, so a
// full-table read never mixes rows from before and after a concurrent replace.
func (tm *TransactionManager) WithReadOnlyTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return tm.run(ctx, pgx.TxOptions{
		IsoLevel:   pgx.RepeatableRead,
		AccessMode: pgx.ReadOnly,
	}, "read-only transaction", fn)
}

func (tm *TransactionManager) run(ctx context.Context, opts pgx.TxOptions, kind string, fn func(ctx context.Context) error) error {
	if _, ok := TxFromContext(ctx); ok {
		return fn(ctx)
	}

	tx, err := tm.pool.BeginTx(ctx, opts)
	if err != nil {
		return fmt.Errorf("failed to begin %s: %w", kind, err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(ctx)
			panic(p)
		}
	}()

	if err := fn(ContextWithTx(ctx, tx)); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			return fmt.Errorf("%s failed: %v, rollback failed: %w", kind, err, rbErr)
		}
		return err
	}

	// Read-only transactions are committed too, to release the snapshot.
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit %s: %w", kind, err)
	}
	return nil
}

type txContextKey struct{}

// ContextWithTx returns a new context carrying tx.
func ContextWithTx(ctx context.Context, tx pgx.Tx) context.Context {
	return context.WithValue(ctx, txContextKey{}, tx)
}

// TxFromContext retrieves a transaction from the context
func TxFromContext(ctx context.Context) (pgx.Tx, bool) {
	tx, ok := ctx.Value(txContextKey{}).(pgx.Tx)
	return tx, ok
}

// DBTX is the part of *pgxpool.Pool and pgx.Tx the record repository uses.
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error)
}

// GetDBTX returns the transaction carried by ctx, or the pool outside one.
func GetDBTX(ctx context.Context, pool *pgxpool.Pool) DBTX {
	if tx, ok := TxFromContext(ctx); ok {
		return tx
	}
	return pool
}
