// README: In-memory order store with the same conditional-update semantics as Postgres.
package order

import (
	"context"
	"sync"
	"time"

	"homely/internal/types"
)

// MemStore keeps orders in a map behind one mutex. Each conditional method
// replays the PG WHERE clause (status + version match) so the optimistic
// concurrency behaviour is identical; unit tests run against it directly.
type MemStore struct {
	mu     sync.Mutex
	orders map[types.ID]*Order
	events []Event
}

func NewMemStore() *MemStore {
	return &MemStore{orders: make(map[types.ID]*Order)}
}

func (s *MemStore) Create(_ context.Context, o *Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *o
	s.orders[o.ID] = &cp
	return nil
}

func (s *MemStore) Get(_ context.Context, id types.ID) (*Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *o
	return &cp, nil
}

func (s *MemStore) UpdateStatus(_ context.Context, id types.ID, from, to Status, version int, providerID *types.ID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok || o.Status != from || o.StatusVersion != version {
		return false, nil
	}
	o.Status = to
	o.StatusVersion++
	if providerID != nil {
		v := *providerID
		o.ProviderID = &v
	}
	now := time.Now()
	switch to {
	case StatusAccepted:
		o.AcceptedAt = &now
	case StatusOnWay:
		o.OnWayAt = &now
	case StatusInProgress:
		o.StartedAt = &now
	case StatusPendingReview:
		o.CompletedAt = &now
	}
	return true, nil
}

func (s *MemStore) Accept(_ context.Context, id types.ID, version int, acc Acceptance) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok || o.Status != StatusPending || o.ProviderID != nil || o.StatusVersion != version {
		return false, nil
	}
	pid := acc.ProviderID
	o.Status = StatusAccepted
	o.StatusVersion++
	o.ProviderID = &pid
	o.DistanceFee = acc.DistanceFee
	o.ExtraDistanceKm = acc.ExtraDistanceKm
	o.DistanceKnown = acc.DistanceKnown
	o.RadiusKm = acc.RadiusKm
	o.PricePerExtraKm = acc.PricePerExtraKm
	o.Total = acc.Total
	at := acc.At
	o.AcceptedAt = &at
	return true, nil
}

func (s *MemStore) Cancel(_ context.Context, id types.ID, from Status, version int, fee types.Money, reason string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok || o.Status != from || o.StatusVersion != version {
		return false, nil
	}
	now := time.Now()
	o.Status = StatusCancelled
	o.StatusVersion++
	o.ClientCancelFee = fee
	o.CancelReason = &reason
	o.CancelledAt = &now
	return true, nil
}

func (s *MemStore) RevertToPending(_ context.Context, id types.ID, from Status, version int, rc ProviderCancellation) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok || o.Status != from || o.StatusVersion != version {
		return false, nil
	}
	o.Status = StatusPending
	o.StatusVersion++
	o.ProviderID = nil
	o.AcceptedAt = nil
	o.OnWayAt = nil
	o.ProviderCancelled = true
	reason := rc.Reason
	o.ProviderCancelReason = &reason
	o.ProviderCancelFee = rc.Fee
	at := rc.At
	o.ProviderCancelledAt = &at
	prev := rc.PreviousProviderID
	o.PreviousProviderID = &prev
	return true, nil
}

func (s *MemStore) Finalize(_ context.Context, id types.ID, version int, fin Finalization) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok || o.Status != StatusPendingReview || o.StatusVersion != version {
		return false, nil
	}
	o.Status = StatusCompleted
	o.StatusVersion++
	o.Tip = fin.Tip
	o.Total = fin.Total
	o.CommissionAmount = fin.Commission
	o.ProviderAmount = fin.ProviderAmount
	o.PaymentStatus = PaymentPaid
	at := fin.At
	o.FinalizedAt = &at
	return true, nil
}

func (s *MemStore) AppendEvent(_ context.Context, e *Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e.ID = int64(len(s.events) + 1)
	s.events = append(s.events, *e)
	return nil
}

// Events returns a copy of the appended event log, oldest first.
func (s *MemStore) Events() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Event, len(s.events))
	copy(out, s.events)
	return out
}

// AcceptForBid is the order-side half of the atomic bid acceptance: a
// compare-and-swap from pending to accepted that also writes the winning
// price. The bidding memstore calls it under its own lock.
func (s *MemStore) AcceptForBid(_ context.Context, id types.ID, providerID types.ID, price types.Money) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok || o.Status != StatusPending || o.ProviderID != nil {
		return false, nil
	}
	now := time.Now()
	o.Status = StatusAccepted
	o.StatusVersion++
	o.ProviderID = &providerID
	o.Total = price
	o.AcceptedAt = &now
	return true, nil
}
