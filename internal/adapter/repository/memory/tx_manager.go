package memory

import (
	"context"
	"errors"
	"sync"

	"github.com/iho/stockledger/internal/usecase"
)

// ErrTxClosed is returned when a finished transaction is used again.
var ErrTxClosed = errors.New("memory: transaction already closed")

// TxManager implements usecase.TransactionManager.
type TxManager struct {
	store *Store
}

// NewTxManager creates a new TxManager.
func NewTxManager(store *Store) *TxManager {
	return &TxManager{store: store}
}

// Begin starts a new transaction.
func (m *TxManager) Begin(ctx context.Context) (usecase.Transaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return &Tx{store: m.store, held: make(map[string]bool)}, nil
}

// Tx buffers writes until commit. A Tx with a parent is a savepoint: its
// writes move to the parent on commit and are dropped on rollback.
type Tx struct {
	mu       sync.Mutex
	store    *Store
	parent   *Tx
	ops      []func(*Store)
	held     map[string]bool
	reserved []string
	closed   bool
}

// Begin starts a savepoint.
func (t *Tx) Begin(ctx context.Context) (usecase.Transaction, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return nil, ErrTxClosed
	}

	return &Tx{store: t.store, parent: t, held: t.root().held}, nil
}

// Commit applies buffered writes. Committing a savepoint releases it into
// the enclosing transaction.
func (t *Tx) Commit(ctx context.Context) error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return ErrTxClosed
	}
	t.closed = true
	ops, reserved := t.ops, t.reserved
	t.mu.Unlock()

	if t.parent != nil {
		t.parent.mu.Lock()
		defer t.parent.mu.Unlock()
		t.parent.ops = append(t.parent.ops, ops...)
		t.parent.reserved = append(t.parent.reserved, reserved...)
		return nil
	}

	t.store.apply(ops)
	t.releaseReservations(reserved, false)
	t.releaseLocks()

	return nil
}

// Rollback drops buffered writes. Rolling back a finished transaction is a no-op.
func (t *Tx) Rollback(ctx context.Context) error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil
	}
	t.closed = true
	reserved := t.reserved
	t.ops = nil
	t.mu.Unlock()

	t.releaseReservations(reserved, true)

	if t.parent == nil {
		t.releaseLocks()
	}

	return nil
}

func (t *Tx) root() *Tx {
	for t.parent != nil {
		t = t.parent
	}
	return t
}

func (t *Tx) record(op func(*Store)) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return ErrTxClosed
	}

	t.ops = append(t.ops, op)
	return nil
}

func (t *Tx) lockProduct(ctx context.Context, id string) error {
	root := t.root()

	root.mu.Lock()
	already := root.held[id]
	root.mu.Unlock()

	if already {
		return nil
	}

	if err := t.store.lock(ctx, id); err != nil {
		return err
	}

	root.mu.Lock()
	root.held[id] = true
	root.mu.Unlock()

	return nil
}

func (t *Tx) releaseLocks() {
	t.mu.Lock()
	held := t.held
	t.held = map[string]bool{}
	t.mu.Unlock()

	for id := range held {
		t.store.unlock(id)
	}
}

// releaseReservations frees SKUs reserved by Create. On commit the SKUs are
// already owned by the stored products.
func (t *Tx) releaseReservations(skus []string, rollback bool) {
	if !rollback || len(skus) == 0 {
		return
	}

	t.store.mu.Lock()
	defer t.store.mu.Unlock()

	for _, sku := range skus {
		id := t.store.skus[sku]
		if _, stored := t.store.products[id]; !stored {
			delete(t.store.skus, sku)
		}
	}
}

func asTx(tx usecase.Transaction) (*Tx, error) {
	if tx == nil {
		return nil, nil
	}

	memTx, ok := tx.(*Tx)
	if !ok {
		return nil, errors.New("memory: foreign transaction")
	}

	return memTx, nil
}
