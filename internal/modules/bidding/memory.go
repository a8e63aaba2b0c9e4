// README: In-memory bid store bridging to the order memstore for atomic acceptance.
package bidding

import (
	"context"
	"sync"
	"time"

	"homely/internal/modules/order"
	"homely/internal/types"
)

// MemStore holds bids behind one mutex and delegates the order-side
// compare-and-swap to the order memstore. Acceptances serialize on the bid
// mutex, so the one-winner outcome is deterministic under concurrency.
type MemStore struct {
	mu     sync.Mutex
	bids   map[types.ID]*Bid
	orders *order.MemStore
}

func NewMemStore(orders *order.MemStore) *MemStore {
	return &MemStore{bids: make(map[types.ID]*Bid), orders: orders}
}

func (s *MemStore) Create(_ context.Context, b *Bid) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *b
	s.bids[b.ID] = &cp
	return nil
}

func (s *MemStore) Get(_ context.Context, id types.ID) (*Bid, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bids[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *b
	return &cp, nil
}

func (s *MemStore) ListByOrder(_ context.Context, orderID types.ID) ([]Bid, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Bid
	for _, b := range s.bids {
		if b.OrderID == orderID {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (s *MemStore) AcceptBid(ctx context.Context, orderID, bidID, providerID types.ID, price types.Money) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bids[bidID]
	if !ok || b.Status != StatusPending {
		return false, nil
	}
	won, err := s.orders.AcceptForBid(ctx, orderID, providerID, price)
	if err != nil || !won {
		return false, err
	}
	now := time.Now()
	b.Status = StatusAccepted
	b.ResolvedAt = &now
	for _, other := range s.bids {
		if other.OrderID == orderID && other.ID != bidID && other.Status == StatusPending {
			other.Status = StatusRejected
			at := now
			other.ResolvedAt = &at
		}
	}
	return true, nil
}
