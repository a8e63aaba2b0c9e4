// README: Order service implements the lifecycle state machine and cancellation fees.
package order

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"time"

	"go.uber.org/zap"

	"homely/internal/config"
	"homely/internal/geo"
	"homely/internal/modules/catalog"
	"homely/internal/modules/pricing"
	"homely/internal/modules/provider"
	"homely/internal/notify"
	"homely/internal/types"
)

var (
	ErrBadRequest   = errors.New("bad request")
	ErrNotFound     = errors.New("order not found")
	ErrInvalidState = errors.New("invalid state transition")
	ErrConflict     = errors.New("order state conflict")
	ErrForbidden    = errors.New("actor not allowed for this transition")
)

// Collaborator surfaces the service needs, declared here so tests can stub
// them without a database.
type Catalog interface {
	Get(ctx context.Context, id types.ID) (catalog.Service, error)
}

type Providers interface {
	Get(ctx context.Context, id types.ID) (provider.Provider, error)
	IncrementCancellations(ctx context.Context, id types.ID) error
}

type Rates interface {
	RatesForCity(ctx context.Context, city string) (pricing.CityRates, error)
}

type Deps struct {
	Catalog   Catalog
	Providers Providers
	Rates     Rates
	Geo       geo.Resolver
	Notifier  notify.Notifier
	Cancel    config.CancelPolicy
	Log       *zap.Logger
}

type Service struct {
	store     Store
	catalog   Catalog
	providers Providers
	rates     Rates
	geo       geo.Resolver
	notifier  notify.Notifier
	cancel    config.CancelPolicy
	log       *zap.Logger
}

func NewService(store Store, deps Deps) *Service {
	if deps.Notifier == nil {
		deps.Notifier = notify.NopNotifier{}
	}
	if deps.Log == nil {
		deps.Log = zap.NewNop()
	}
	if deps.Cancel.FreeBeforeHours == 0 {
		deps.Cancel.FreeBeforeHours = 4
	}
	return &Service{
		store:     store,
		catalog:   deps.Catalog,
		providers: deps.Providers,
		rates:     deps.Rates,
		geo:       deps.Geo,
		notifier:  deps.Notifier,
		cancel:    deps.Cancel,
		log:       deps.Log,
	}
}

type CreateCommand struct {
	ClientID      types.ID
	ServiceID     types.ID
	City          string
	Location      types.Point
	ScheduledAt   time.Time
	Formula       pricing.Formula
	PaymentMethod string
}

type CreateBiddingCommand struct {
	ClientID      types.ID
	ServiceID     types.ID
	City          string
	Location      types.Point
	ScheduledAt   time.Time
	Formula       pricing.Formula
	ProposedPrice types.Money
	ExpiryHours   int
	PaymentMethod string
}

type AcceptCommand struct {
	OrderID    types.ID
	ProviderID types.ID
}

type DepartCommand struct {
	OrderID    types.ID
	ProviderID types.ID
}

type ConfirmArrivalCommand struct {
	OrderID  types.ID
	ClientID types.ID
}

type CompleteWorkCommand struct {
	OrderID    types.ID
	ProviderID types.ID
}

type FinalizeCommand struct {
	OrderID  types.ID
	ClientID types.ID
	Tip      types.Money
}

type ClientCancelCommand struct {
	OrderID  types.ID
	ClientID types.ID
	Reason   string
}

type ProviderCancelCommand struct {
	OrderID    types.ID
	ProviderID types.ID
	Reason     string
}

// Create books a fixed-price order. The provider is not chosen yet, so the
// travel term starts unknown; it is resolved when a provider accepts. City
// rates are snapshotted onto the order and never re-read.
func (s *Service) Create(ctx context.Context, cmd CreateCommand) (types.ID, error) {
	if cmd.ClientID == "" || cmd.ServiceID == "" || cmd.ScheduledAt.IsZero() {
		return "", ErrBadRequest
	}
	if !pricing.ValidFormula(cmd.Formula) {
		return "", pricing.ErrInvalidFormula
	}
	svc, err := s.catalog.Get(ctx, cmd.ServiceID)
	if err != nil {
		return "", err
	}
	rates, err := s.rates.RatesForCity(ctx, cmd.City)
	if err != nil {
		return "", err
	}
	if !rates.IsActive {
		return "", ErrBadRequest
	}

	quote, err := pricing.Quote(pricing.QuoteInput{
		BasePrice:       svc.BasePrice,
		Formula:         cmd.Formula,
		RadiusKm:        rates.DefaultRadiusKm,
		PricePerExtraKm: rates.DefaultPerKm,
		DistanceKnown:   false,
		ScheduledAt:     cmd.ScheduledAt,
		Duration:        time.Duration(svc.DurationMinutes) * time.Minute,
	})
	if err != nil {
		return "", err
	}

	id := newID()
	now := time.Now()
	o := &Order{
		ID:              id,
		ServiceID:       cmd.ServiceID,
		ClientID:        cmd.ClientID,
		City:            cmd.City,
		ClientLocation:  cmd.Location,
		ScheduledAt:     cmd.ScheduledAt,
		DurationMinutes: svc.DurationMinutes,
		PricingMode:     ModeFixed,
		Formula:         cmd.Formula,
		Status:          StatusPending,
		BasePrice:       quote.BasePrice,
		FormulaFee:      quote.FormulaFee,
		NightFee:        quote.NightFee,
		NightsCount:     quote.NightsCount,
		DistanceFee:     quote.DistanceFee,
		DistanceKnown:   false,
		RadiusKm:        rates.DefaultRadiusKm,
		PricePerExtraKm: rates.DefaultPerKm,
		Total:           quote.Total,
		PaymentMethod:   cmd.PaymentMethod,
		PaymentStatus:   PaymentPending,
		CreatedAt:       now,
	}
	if err := s.store.Create(ctx, o); err != nil {
		return "", err
	}
	s.recordTransition(ctx, id, StatusNone, StatusPending, "client", &cmd.ClientID)
	return id, nil
}

// Valid bid windows a client may pick, in hours.
var biddingExpiryChoices = map[int]bool{12: true, 24: true, 48: true, 72: true}

func (s *Service) CreateBidding(ctx context.Context, cmd CreateBiddingCommand) (types.ID, error) {
	if cmd.ClientID == "" || cmd.ServiceID == "" || cmd.ScheduledAt.IsZero() {
		return "", ErrBadRequest
	}
	if !pricing.ValidFormula(cmd.Formula) {
		return "", pricing.ErrInvalidFormula
	}
	if !biddingExpiryChoices[cmd.ExpiryHours] {
		return "", ErrBadRequest
	}
	if cmd.ProposedPrice.Amount <= 0 {
		return "", ErrBadRequest
	}
	svc, err := s.catalog.Get(ctx, cmd.ServiceID)
	if err != nil {
		return "", err
	}
	if !svc.AllowBidding {
		return "", ErrBadRequest
	}
	if svc.MinSuggestedPrice.Amount > 0 && cmd.ProposedPrice.Amount < svc.MinSuggestedPrice.Amount {
		return "", ErrBadRequest
	}
	if svc.MaxSuggestedPrice.Amount > 0 && cmd.ProposedPrice.Amount > svc.MaxSuggestedPrice.Amount {
		return "", ErrBadRequest
	}
	rates, err := s.rates.RatesForCity(ctx, cmd.City)
	if err != nil {
		return "", err
	}
	if !rates.IsActive {
		return "", ErrBadRequest
	}

	id := newID()
	now := time.Now()
	expiry := now.Add(time.Duration(cmd.ExpiryHours) * time.Hour)
	proposed := cmd.ProposedPrice
	o := &Order{
		ID:                id,
		ServiceID:         cmd.ServiceID,
		ClientID:          cmd.ClientID,
		City:              cmd.City,
		ClientLocation:    cmd.Location,
		ScheduledAt:       cmd.ScheduledAt,
		DurationMinutes:   svc.DurationMinutes,
		PricingMode:       ModeBidding,
		Formula:           cmd.Formula,
		Status:            StatusPending,
		BasePrice:         svc.BasePrice,
		RadiusKm:          rates.DefaultRadiusKm,
		PricePerExtraKm:   rates.DefaultPerKm,
		PaymentMethod:     cmd.PaymentMethod,
		PaymentStatus:     PaymentPending,
		UserProposedPrice: &proposed,
		BidExpiryTime:     &expiry,
		CreatedAt:         now,
	}
	if err := s.store.Create(ctx, o); err != nil {
		return "", err
	}
	s.recordTransition(ctx, id, StatusNone, StatusPending, "client", &cmd.ClientID)
	return id, nil
}

// Accept attaches a provider to a pending fixed-price order. The travel term
// is resolved here, once the provider's base location is known; a dead
// geolocation collaborator degrades to an unknown distance instead of
// failing the acceptance.
func (s *Service) Accept(ctx context.Context, cmd AcceptCommand) error {
	if cmd.ProviderID == "" {
		return ErrBadRequest
	}
	o, err := s.store.Get(ctx, cmd.OrderID)
	if err != nil {
		return err
	}
	if o.PricingMode != ModeFixed {
		// Bidding orders are only won through an accepted bid.
		return ErrBadRequest
	}
	if !CanTransition(o.Status, StatusAccepted) {
		return ErrInvalidState
	}
	if o.ProviderID != nil {
		return ErrConflict
	}
	p, err := s.providers.Get(ctx, cmd.ProviderID)
	if err != nil {
		return err
	}

	radius := o.RadiusKm
	if p.InterventionRadiusKm > 0 {
		radius = p.InterventionRadiusKm
	}
	perKm := o.PricePerExtraKm
	if p.PricePerExtraKm.Amount > 0 {
		perKm = p.PricePerExtraKm
	}

	distanceKnown := false
	var distanceKm float64
	if s.geo != nil {
		if d, err := s.geo.DistanceKm(ctx, p.Location, o.ClientLocation); err == nil {
			distanceKm = d
			distanceKnown = true
		} else {
			s.log.Warn("distance resolution failed, booking with unknown distance",
				zap.Error(err), zap.String("order_id", string(o.ID)))
		}
	}
	distanceFee, extraKm := pricing.TravelFee(radius, perKm, distanceKm, distanceKnown)
	total := o.BasePrice.Add(o.FormulaFee).Add(o.NightFee).Add(distanceFee)

	ok, err := s.store.Accept(ctx, o.ID, o.StatusVersion, Acceptance{
		ProviderID:      cmd.ProviderID,
		DistanceFee:     distanceFee,
		ExtraDistanceKm: extraKm,
		DistanceKnown:   distanceKnown,
		RadiusKm:        radius,
		PricePerExtraKm: perKm,
		Total:           total,
		At:              time.Now(),
	})
	if err != nil {
		return err
	}
	if !ok {
		return ErrConflict
	}
	s.recordTransition(ctx, o.ID, StatusPending, StatusAccepted, "provider", &cmd.ProviderID)
	return nil
}

func (s *Service) Depart(ctx context.Context, cmd DepartCommand) error {
	o, err := s.store.Get(ctx, cmd.OrderID)
	if err != nil {
		return err
	}
	if o.ProviderID == nil || *o.ProviderID != cmd.ProviderID {
		return ErrForbidden
	}
	if !CanTransition(o.Status, StatusOnWay) || o.Status != StatusAccepted {
		return ErrInvalidState
	}
	ok, err := s.store.UpdateStatus(ctx, o.ID, o.Status, StatusOnWay, o.StatusVersion, nil)
	if err != nil {
		return err
	}
	if !ok {
		return ErrConflict
	}
	s.recordTransition(ctx, o.ID, StatusAccepted, StatusOnWay, "provider", &cmd.ProviderID)
	return nil
}

// ConfirmArrival is the one transition gated by the opposite party: the
// client, not the provider, moves the order into in_progress, so a provider
// cannot self-declare that service has started.
func (s *Service) ConfirmArrival(ctx context.Context, cmd ConfirmArrivalCommand) error {
	o, err := s.store.Get(ctx, cmd.OrderID)
	if err != nil {
		return err
	}
	if o.ClientID != cmd.ClientID {
		return ErrForbidden
	}
	if o.Status != StatusOnWay {
		return ErrInvalidState
	}
	ok, err := s.store.UpdateStatus(ctx, o.ID, StatusOnWay, StatusInProgress, o.StatusVersion, nil)
	if err != nil {
		return err
	}
	if !ok {
		return ErrConflict
	}
	s.recordTransition(ctx, o.ID, StatusOnWay, StatusInProgress, "client", &cmd.ClientID)
	return nil
}

func (s *Service) CompleteWork(ctx context.Context, cmd CompleteWorkCommand) error {
	o, err := s.store.Get(ctx, cmd.OrderID)
	if err != nil {
		return err
	}
	if o.ProviderID == nil || *o.ProviderID != cmd.ProviderID {
		return ErrForbidden
	}
	if o.Status != StatusInProgress {
		return ErrInvalidState
	}
	ok, err := s.store.UpdateStatus(ctx, o.ID, StatusInProgress, StatusPendingReview, o.StatusVersion, nil)
	if err != nil {
		return err
	}
	if !ok {
		return ErrConflict
	}
	s.recordTransition(ctx, o.ID, StatusInProgress, StatusPendingReview, "provider", &cmd.ProviderID)
	return nil
}

// Finalize closes the order on the client's sign-off. The commission split
// runs here, on the final total including any tip, not on the original quote.
func (s *Service) Finalize(ctx context.Context, cmd FinalizeCommand) error {
	if cmd.Tip.Amount < 0 {
		return ErrBadRequest
	}
	o, err := s.store.Get(ctx, cmd.OrderID)
	if err != nil {
		return err
	}
	if o.ClientID != cmd.ClientID {
		return ErrForbidden
	}
	if o.Status != StatusPendingReview {
		return ErrInvalidState
	}

	finalTotal := o.Total.Add(cmd.Tip)
	commission, providerAmount := pricing.SplitCommission(finalTotal)
	ok, err := s.store.Finalize(ctx, o.ID, o.StatusVersion, Finalization{
		Tip:            cmd.Tip,
		Total:          finalTotal,
		Commission:     commission,
		ProviderAmount: providerAmount,
		At:             time.Now(),
	})
	if err != nil {
		return err
	}
	if !ok {
		return ErrConflict
	}
	s.recordTransition(ctx, o.ID, StatusPendingReview, StatusCompleted, "client", &cmd.ClientID)
	return nil
}

// CancelByClient cancels from pending, accepted or on_way. Before the free
// window closes (scheduled_at minus the configured hours) there is no
// charge; past it the configured late fee applies.
func (s *Service) CancelByClient(ctx context.Context, cmd ClientCancelCommand) error {
	o, err := s.store.Get(ctx, cmd.OrderID)
	if err != nil {
		return err
	}
	if o.ClientID != cmd.ClientID {
		return ErrForbidden
	}
	switch o.Status {
	case StatusPending, StatusAccepted, StatusOnWay:
	default:
		return ErrInvalidState
	}

	fee := types.Cents(0)
	deadline := o.ScheduledAt.Add(-time.Duration(s.cancel.FreeBeforeHours * float64(time.Hour)))
	if !time.Now().Before(deadline) {
		fee = s.cancel.LateFee
	}
	ok, err := s.store.Cancel(ctx, o.ID, o.Status, o.StatusVersion, fee, cmd.Reason)
	if err != nil {
		return err
	}
	if !ok {
		return ErrConflict
	}
	s.recordTransition(ctx, o.ID, o.Status, StatusCancelled, "client", &cmd.ClientID)
	return nil
}

// CancelByProvider re-opens the order rather than cancelling it: the order
// drops back to pending with the provider cleared, and the tiered fee is
// held against the provider's future payout. The client is never charged.
func (s *Service) CancelByProvider(ctx context.Context, cmd ProviderCancelCommand) error {
	o, err := s.store.Get(ctx, cmd.OrderID)
	if err != nil {
		return err
	}
	if o.ProviderID == nil || *o.ProviderID != cmd.ProviderID {
		return ErrForbidden
	}
	switch o.Status {
	case StatusAccepted, StatusOnWay:
	default:
		return ErrInvalidState
	}

	now := time.Now()
	fee := ProviderCancelFee(o.ScheduledAt.Sub(now).Hours())
	ok, err := s.store.RevertToPending(ctx, o.ID, o.Status, o.StatusVersion, ProviderCancellation{
		PreviousProviderID: cmd.ProviderID,
		Reason:             cmd.Reason,
		Fee:                fee,
		At:                 now,
	})
	if err != nil {
		return err
	}
	if !ok {
		return ErrConflict
	}
	if err := s.providers.IncrementCancellations(ctx, cmd.ProviderID); err != nil {
		s.log.Error("increment provider cancellations",
			zap.Error(err), zap.String("provider_id", string(cmd.ProviderID)))
	}
	s.recordTransition(ctx, o.ID, o.Status, StatusPending, "provider", &cmd.ProviderID)
	return nil
}

func (s *Service) Get(ctx context.Context, id types.ID) (*Order, error) {
	return s.store.Get(ctx, id)
}

// RecordBidAcceptance logs the pending->accepted transition produced by an
// accepted bid. The bidding store already committed the state change; this
// only appends the audit event and fires the notification.
func (s *Service) RecordBidAcceptance(ctx context.Context, orderID, clientID types.ID) {
	var actor *types.ID
	if clientID != "" {
		actor = &clientID
	}
	s.recordTransition(ctx, orderID, StatusPending, StatusAccepted, "client", actor)
}

// ProviderCancelFee maps hours-until-service to the payout deduction:
// more than 2h free, then 20, 50, and 100 for a no-show.
func ProviderCancelFee(hoursUntil float64) types.Money {
	switch {
	case hoursUntil > 2:
		return types.Cents(0)
	case hoursUntil > 1:
		return types.Cents(20_00)
	case hoursUntil > 0:
		return types.Cents(50_00)
	default:
		return types.Cents(100_00)
	}
}

// recordTransition appends the audit event and fires the notification. Both
// run after the store commit and neither can undo the transition.
func (s *Service) recordTransition(ctx context.Context, id types.ID, from, to Status, actorType string, actorID *types.ID) {
	now := time.Now()
	_ = s.store.AppendEvent(ctx, &Event{
		OrderID:    id,
		FromStatus: from,
		ToStatus:   to,
		ActorType:  actorType,
		ActorID:    actorID,
		CreatedAt:  now,
	})
	ev := notify.Event{
		OrderID:    id,
		FromStatus: string(from),
		ToStatus:   string(to),
		ActorType:  actorType,
		OccurredAt: now,
	}
	if actorID != nil {
		ev.ActorID = string(*actorID)
	}
	s.notifier.OrderEvent(ctx, ev)
}

func newID() types.ID {
	var b [16]byte
	_, _ = rand.Read(b[:])
	return types.ID(hex.EncodeToString(b[:]))
}
