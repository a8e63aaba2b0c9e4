// README: Bidding service; bid placement and the accept-one-wins resolution.
package bidding

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"time"

	"homely/internal/modules/order"
	"homely/internal/types"
)

var (
	ErrBadRequest     = errors.New("bad request")
	ErrNotFound       = errors.New("bid not found")
	ErrBiddingClosed  = errors.New("bidding closed for this order")
	ErrBiddingExpired = errors.New("bidding window expired")
	ErrBidResolved    = errors.New("bid already resolved")
)

// Orders is the read surface the bidding service needs from the order module.
type Orders interface {
	Get(ctx context.Context, id types.ID) (*order.Order, error)
}

// Recorder appends transition events on the winning acceptance; the order
// service owns the implementation.
type Recorder interface {
	RecordBidAcceptance(ctx context.Context, orderID, clientID types.ID)
}

type Service struct {
	store    Store
	orders   Orders
	recorder Recorder
}

func NewService(store Store, orders Orders, recorder Recorder) *Service {
	return &Service{store: store, orders: orders, recorder: recorder}
}

type PlaceCommand struct {
	OrderID                 types.ID
	ProviderID              types.ID
	ProposedPrice           types.Money
	EstimatedArrivalMinutes int
	Message                 string
}

type AcceptCommand struct {
	BidID    types.ID
	ClientID types.ID
}

// Place submits a competing bid. Expiry is a data condition checked here on
// every read; there is no background sweep.
func (s *Service) Place(ctx context.Context, cmd PlaceCommand) (types.ID, error) {
	if cmd.ProviderID == "" || cmd.ProposedPrice.Amount <= 0 {
		return "", ErrBadRequest
	}
	o, err := s.orders.Get(ctx, cmd.OrderID)
	if err != nil {
		return "", err
	}
	if o.PricingMode != order.ModeBidding {
		return "", ErrBadRequest
	}
	if o.Status != order.StatusPending {
		return "", ErrBiddingClosed
	}
	if o.BidExpiryTime == nil || !time.Now().Before(*o.BidExpiryTime) {
		return "", ErrBiddingExpired
	}

	b := &Bid{
		ID:                      newID(),
		OrderID:                 cmd.OrderID,
		ProviderID:              cmd.ProviderID,
		ProposedPrice:           cmd.ProposedPrice,
		EstimatedArrivalMinutes: cmd.EstimatedArrivalMinutes,
		Message:                 cmd.Message,
		Status:                  StatusPending,
		CreatedAt:               time.Now(),
	}
	if err := s.store.Create(ctx, b); err != nil {
		return "", err
	}
	return b.ID, nil
}

// Accept resolves the auction. The store call is atomic: the order flips to
// accepted with the winning provider and price, the winning bid to accepted,
// and every other pending bid to rejected. If another acceptance won the
// race, nothing changes and the caller sees ErrBidResolved.
func (s *Service) Accept(ctx context.Context, cmd AcceptCommand) error {
	b, err := s.store.Get(ctx, cmd.BidID)
	if err != nil {
		return err
	}
	if b.Status != StatusPending {
		return ErrBidResolved
	}
	o, err := s.orders.Get(ctx, b.OrderID)
	if err != nil {
		return err
	}
	if cmd.ClientID != "" && o.ClientID != cmd.ClientID {
		return ErrBadRequest
	}
	if o.Status != order.StatusPending {
		return ErrBidResolved
	}
	if o.BidExpiryTime != nil && !time.Now().Before(*o.BidExpiryTime) {
		return ErrBiddingExpired
	}

	won, err := s.store.AcceptBid(ctx, b.OrderID, b.ID, b.ProviderID, b.ProposedPrice)
	if err != nil {
		return err
	}
	if !won {
		return ErrBidResolved
	}
	if s.recorder != nil {
		s.recorder.RecordBidAcceptance(ctx, b.OrderID, cmd.ClientID)
	}
	return nil
}

// ListByOrder returns the bids for client review. Past the expiry with no
// accepted bid the auction reports expired.
func (s *Service) ListByOrder(ctx context.Context, orderID types.ID) ([]Bid, error) {
	o, err := s.orders.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	bids, err := s.store.ListByOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.Status == order.StatusPending && o.BidExpiryTime != nil && !time.Now().Before(*o.BidExpiryTime) {
		return bids, ErrBiddingExpired
	}
	return bids, nil
}

func newID() types.ID {
	var b [16]byte
	_, _ = rand.Read(b[:])
	return types.ID(hex.EncodeToString(b[:]))
}
