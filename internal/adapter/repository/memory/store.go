// Package memory implements the repository contracts in process memory.
//
// Writes made inside a transaction are buffered and applied atomically on
// commit. Reads always observe committed state. Product locks taken by the
// ForUpdate reads are held until the owning transaction ends, which gives the
// same serialization as SELECT ... FOR UPDATE.
package memory

import (
	"context"
	"sync"

	"github.com/iho/stockledger/internal/domain"
)

// Store holds the committed state shared by the repositories.
type Store struct {
	mu       sync.RWMutex
	products map[string]*domain.Product
	skus     map[string]string
	entries  []*domain.LedgerEntry
	outbox   []*domain.OutboxEvent

	locksMu sync.Mutex
	locks   map[string]chan struct{}
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{
		products: make(map[string]*domain.Product),
		skus:     make(map[string]string),
		locks:    make(map[string]chan struct{}),
	}
}

func (s *Store) productLock(id string) chan struct{} {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()

	l, ok := s.locks[id]
	if !ok {
		l = make(chan struct{}, 1)
		s.locks[id] = l
	}
	return l
}

func (s *Store) lock(ctx context.Context, id string) error {
	select {
	case s.productLock(id) <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Store) unlock(id string) {
	<-s.productLock(id)
}

func (s *Store) apply(ops []func(*Store)) {
	if len(ops) == 0 {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, op := range ops {
		op(s)
	}
}

func copyProduct(p *domain.Product) *domain.Product {
	c := *p
	return &c
}

func copyEntry(e *domain.LedgerEntry) *domain.LedgerEntry {
	c := *e
	if e.UnitPrice != nil {
		price := *e.UnitPrice
		c.UnitPrice = &price
	}
	return &c
}

func copyEvent(e *domain.OutboxEvent) *domain.OutboxEvent {
	c := *e
	c.Payload = make(map[string]any, len(e.Payload))
	for k, v := range e.Payload {
		c.Payload[k] = v
	}
	return &c
}
