// README: Bid placement and accept-one-wins tests against the in-memory stores.
package bidding

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"homely/internal/modules/order"
	"homely/internal/types"
)

func TestPlaceAndAcceptResolvesAuction(t *testing.T) {
	env := newBidEnv(t)
	ctx := context.Background()

	orderID := env.seedBiddingOrder(t, time.Now().Add(24*time.Hour))

	var bidIDs []types.ID
	for i, price := range []int64{90_00, 80_00, 110_00} {
		id, err := env.svc.Place(ctx, PlaceCommand{
			OrderID:                 orderID,
			ProviderID:              types.ID(fmt.Sprintf("p%d", i+1)),
			ProposedPrice:           types.Cents(price),
			EstimatedArrivalMinutes: 30,
			Message:                 "can do it",
		})
		if err != nil {
			t.Fatalf("place bid %d: %v", i, err)
		}
		bidIDs = append(bidIDs, id)
	}

	// Client picks the middle bid, not the cheapest; the choice is theirs.
	if err := env.svc.Accept(ctx, AcceptCommand{BidID: bidIDs[1], ClientID: "c1"}); err != nil {
		t.Fatalf("accept: %v", err)
	}

	o, err := env.orders.Get(ctx, orderID)
	if err != nil {
		t.Fatalf("get order: %v", err)
	}
	if o.Status != order.StatusAccepted {
		t.Fatalf("order status = %s, want accepted", o.Status)
	}
	if o.ProviderID == nil || *o.ProviderID != "p2" {
		t.Fatal("winning provider should be attached to the order")
	}
	if o.Total.Amount != 80_00 {
		t.Errorf("order total = %d, want the winning bid price 8000", o.Total.Amount)
	}

	bids, err := env.svc.ListByOrder(ctx, orderID)
	if err != nil {
		t.Fatalf("list bids: %v", err)
	}
	counts := map[Status]int{}
	for _, b := range bids {
		counts[b.Status]++
		if b.Status != StatusPending && b.ResolvedAt == nil {
			t.Errorf("bid %s resolved without a timestamp", b.ID)
		}
	}
	if counts[StatusAccepted] != 1 || counts[StatusRejected] != 2 {
		t.Fatalf("bid statuses = %v, want 1 accepted and 2 rejected", counts)
	}
	if env.recorder.count() != 1 {
		t.Errorf("acceptance recorded %d times, want 1", env.recorder.count())
	}

	// Losing bids cannot be accepted afterwards.
	if err := env.svc.Accept(ctx, AcceptCommand{BidID: bidIDs[0], ClientID: "c1"}); err != ErrBidResolved {
		t.Fatalf("accepting a rejected bid: expected ErrBidResolved, got %v", err)
	}
}

func TestConcurrentAcceptOneWinner(t *testing.T) {
	env := newBidEnv(t)
	ctx := context.Background()

	orderID := env.seedBiddingOrder(t, time.Now().Add(24*time.Hour))

	const bids = 8
	ids := make([]types.ID, bids)
	for i := 0; i < bids; i++ {
		id, err := env.svc.Place(ctx, PlaceCommand{
			OrderID:       orderID,
			ProviderID:    types.ID(fmt.Sprintf("p%d", i+1)),
			ProposedPrice: types.Cents(int64(70_00 + i*100)),
		})
		if err != nil {
			t.Fatalf("place bid %d: %v", i, err)
		}
		ids[i] = id
	}

	var wg sync.WaitGroup
	errs := make(chan error, bids)
	for _, bidID := range ids {
		wg.Add(1)
		go func(id types.ID) {
			defer wg.Done()
			errs <- env.svc.Accept(ctx, AcceptCommand{BidID: id, ClientID: "c1"})
		}(bidID)
	}
	wg.Wait()
	close(errs)

	success := 0
	for err := range errs {
		if err == nil {
			success++
		} else if err != ErrBidResolved {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if success != 1 {
		t.Fatalf("expected exactly 1 winning acceptance, got %d", success)
	}

	all, _ := env.store.ListByOrder(ctx, orderID)
	accepted := 0
	for _, b := range all {
		if b.Status == StatusAccepted {
			accepted++
		}
		if b.Status == StatusPending {
			t.Errorf("bid %s left pending after resolution", b.ID)
		}
	}
	if accepted != 1 {
		t.Fatalf("expected exactly 1 accepted bid, got %d", accepted)
	}
	if env.recorder.count() != 1 {
		t.Errorf("acceptance recorded %d times, want 1", env.recorder.count())
	}
}

func TestPlaceGuards(t *testing.T) {
	env := newBidEnv(t)
	ctx := context.Background()

	orderID := env.seedBiddingOrder(t, time.Now().Add(24*time.Hour))

	if _, err := env.svc.Place(ctx, PlaceCommand{OrderID: orderID, ProposedPrice: types.Cents(50_00)}); err != ErrBadRequest {
		t.Errorf("missing provider: expected ErrBadRequest, got %v", err)
	}
	if _, err := env.svc.Place(ctx, PlaceCommand{OrderID: orderID, ProviderID: "p1"}); err != ErrBadRequest {
		t.Errorf("zero price: expected ErrBadRequest, got %v", err)
	}

	// Fixed-price orders take no bids.
	fixed := &order.Order{ID: "fx1", ClientID: "c1", PricingMode: order.ModeFixed, Status: order.StatusPending}
	if err := env.orders.Create(ctx, fixed); err != nil {
		t.Fatal(err)
	}
	if _, err := env.svc.Place(ctx, PlaceCommand{OrderID: "fx1", ProviderID: "p1", ProposedPrice: types.Cents(50_00)}); err != ErrBadRequest {
		t.Errorf("fixed order: expected ErrBadRequest, got %v", err)
	}

	// A resolved auction is closed.
	bidID, err := env.svc.Place(ctx, PlaceCommand{OrderID: orderID, ProviderID: "p1", ProposedPrice: types.Cents(50_00)})
	if err != nil {
		t.Fatal(err)
	}
	if err := env.svc.Accept(ctx, AcceptCommand{BidID: bidID, ClientID: "c1"}); err != nil {
		t.Fatal(err)
	}
	if _, err := env.svc.Place(ctx, PlaceCommand{OrderID: orderID, ProviderID: "p2", ProposedPrice: types.Cents(60_00)}); err != ErrBiddingClosed {
		t.Errorf("resolved auction: expected ErrBiddingClosed, got %v", err)
	}
}

func TestExpiredAuction(t *testing.T) {
	env := newBidEnv(t)
	ctx := context.Background()

	orderID := env.seedBiddingOrder(t, time.Now().Add(time.Minute))
	bidID, err := env.svc.Place(ctx, PlaceCommand{OrderID: orderID, ProviderID: "p1", ProposedPrice: types.Cents(50_00)})
	if err != nil {
		t.Fatal(err)
	}

	env.expireOrder(t, orderID)

	if _, err := env.svc.Place(ctx, PlaceCommand{OrderID: orderID, ProviderID: "p2", ProposedPrice: types.Cents(60_00)}); err != ErrBiddingExpired {
		t.Errorf("place on expired auction: expected ErrBiddingExpired, got %v", err)
	}
	if err := env.svc.Accept(ctx, AcceptCommand{BidID: bidID, ClientID: "c1"}); err != ErrBiddingExpired {
		t.Errorf("accept on expired auction: expected ErrBiddingExpired, got %v", err)
	}
	if _, err := env.svc.ListByOrder(ctx, orderID); err != ErrBiddingExpired {
		t.Errorf("list on expired auction: expected ErrBiddingExpired, got %v", err)
	}

	o, _ := env.orders.Get(ctx, orderID)
	if o.Status != order.StatusPending {
		t.Errorf("expiry must not mutate the order, got status %s", o.Status)
	}
}

// --- test environment -------------------------------------------------------

type bidEnv struct {
	svc      *Service
	store    *MemStore
	orders   *order.MemStore
	recorder *countingRecorder
}

func newBidEnv(t *testing.T) *bidEnv {
	t.Helper()
	orders := order.NewMemStore()
	store := NewMemStore(orders)
	recorder := &countingRecorder{}
	return &bidEnv{
		svc:      NewService(store, orders, recorder),
		store:    store,
		orders:   orders,
		recorder: recorder,
	}
}

func (e *bidEnv) seedBiddingOrder(t *testing.T, expiry time.Time) types.ID {
	t.Helper()
	proposed := types.Cents(100_00)
	id := types.ID(fmt.Sprintf("ord-%d", time.Now().UnixNano()))
	o := &order.Order{
		ID:                id,
		ServiceID:         "svc1",
		ClientID:          "c1",
		City:              "lyon",
		ScheduledAt:       time.Now().Add(72 * time.Hour),
		PricingMode:       order.ModeBidding,
		Status:            order.StatusPending,
		BasePrice:         types.Cents(150_00),
		UserProposedPrice: &proposed,
		BidExpiryTime:     &expiry,
		CreatedAt:         time.Now(),
	}
	if err := e.orders.Create(context.Background(), o); err != nil {
		t.Fatalf("seed order: %v", err)
	}
	return id
}

// expireOrder rewrites the stored expiry into the past; expiry is lazy, a
// data condition rather than a background job.
func (e *bidEnv) expireOrder(t *testing.T, id types.ID) {
	t.Helper()
	ctx := context.Background()
	o, err := e.orders.Get(ctx, id)
	if err != nil {
		t.Fatalf("get order: %v", err)
	}
	past := time.Now().Add(-time.Minute)
	o.BidExpiryTime = &past
	if err := e.orders.Create(ctx, o); err != nil {
		t.Fatalf("rewrite order: %v", err)
	}
}

type countingRecorder struct {
	mu sync.Mutex
	n  int
}

func (r *countingRecorder) RecordBidAcceptance(context.Context, types.ID, types.ID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.n++
}

func (r *countingRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.n
}
