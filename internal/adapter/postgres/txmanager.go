package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const serializableAttempts = 3

// TxManager runs functions inside a transaction carried by the context.
// RunInTx does not nest: an inner call opens a second, independent transaction.
type TxManager struct {
	pool     *pgxpool.Pool
	opts     pgx.TxOptions
	attempts int
}

// NewTxManager creates a TxManager using Read Committed isolation.
func NewTxManager(pool *pgxpool.Pool) *TxManager {
	return &TxManager{pool: pool, attempts: 1}
}

// NewSerializableTxManager creates a TxManager whose transactions are
// serializable. A transaction aborted by a serialization failure or a
// deadlock is rerun from scratch, so fn must not have side effects outside
// the transaction. The corpus import uses it so two concurrent imports
// cannot interleave their category replacements.
func NewSerializableTxManager(pool *pgxpool.Pool) *TxManager {
	return &TxManager{
		pool:     pool,
		opts:     pgx.TxOptions{IsoLevel: pgx.Serializable},
		attempts: serializableAttempts,
	}
}

// RunInTx commits when fn returns nil and rolls back on error. If fn
// panics the transaction is rolled back and the panic continues.
func (m *TxManager) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	var err error
	for range m.attempts {
		err = m.runOnce(ctx, fn)
		if err == nil || !retryable(err) || ctx.Err() != nil {
			return err
		}
	}
	return fmt.Errorf("transaction gave up after %d attempts: %w", m.attempts, err)
}

func (m *TxManager) runOnce(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	tx, err := m.pool.BeginTx(ctx, m.opts)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	defer func() {
		if r := recover(); r != nil {
			_ = tx.Rollback(ctx)
			panic(r)
		}
	}()

	if err := fn(withTx(ctx, tx)); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			return errors.Join(err, fmt.Errorf("rollback: %w", rbErr))
		}
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// retryable reports serialization_failure and deadlock_detected.
func retryable(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == "40001" || pgErr.Code == "40P01"
}
