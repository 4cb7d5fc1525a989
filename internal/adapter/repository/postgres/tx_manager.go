package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iho/stockledger/internal/usecase"
)

type pgxPool interface {
	Begin(context.Context) (pgx.Tx, error)
}

// TxManager opens the transactions a movement is applied in.
type TxManager struct {
	pool pgxPool
	// lockTimeout bounds the wait for a product row lock. Zero waits forever.
	lockTimeout time.Duration
}

type TxManagerOption func(*TxManager)

// WithLockTimeout makes a transaction give up waiting for a row lock after d,
// failing with lock_not_available so the retrier can replay it.
func WithLockTimeout(d time.Duration) TxManagerOption {
	return func(m *TxManager) {
		m.lockTimeout = d
	}
}

func NewTxManager(pool *pgxpool.Pool, opts ...TxManagerOption) *TxManager {
	return newTxManagerWithPool(pool, opts...)
}

func newTxManagerWithPool(pool pgxPool, opts ...TxManagerOption) *TxManager {
	m := &TxManager{pool: pool}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *TxManager) Begin(ctx context.Context) (usecase.Transaction, error) {
	tx, err := m.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}

	if m.lockTimeout > 0 {
		stmt := fmt.Sprintf("SET LOCAL lock_timeout = %d", m.lockTimeout.Milliseconds())
		if _, err := tx.Exec(ctx, stmt); err != nil {
			_ = tx.Rollback(ctx)
			return nil, fmt.Errorf("set lock timeout: %w", err)
		}
	}

	return &Tx{tx: tx}, nil
}

// Tx wraps a pgx transaction. Nested transactions are savepoints, which is how
// one failed line of a sale is undone without losing the lines before it.
type Tx struct {
	tx pgx.Tx
}

func (t *Tx) Begin(ctx context.Context) (usecase.Transaction, error) {
	nested, err := t.tx.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin savepoint: %w", err)
	}

	return &Tx{tx: nested}, nil
}

func (t *Tx) Commit(ctx context.Context) error {
	return t.tx.Commit(ctx)
}

// Rollback is a no-op on a transaction that already finished.
func (t *Tx) Rollback(ctx context.Context) error {
	err := t.tx.Rollback(ctx)
	if errors.Is(err, pgx.ErrTxClosed) {
		return nil
	}

	return err
}

func (t *Tx) PgxTx() pgx.Tx {
	return t.tx
}
