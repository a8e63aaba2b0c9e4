// README: Order aggregate, status definitions and the transition table.
package order

import (
	"time"

	"homely/internal/modules/pricing"
	"homely/internal/types"
)

type Status string

const (
	StatusNone          Status = "none"
	StatusPending       Status = "pending"
	StatusAccepted      Status = "accepted"
	StatusOnWay         Status = "on_way"
	StatusInProgress    Status = "in_progress"
	StatusPendingReview Status = "completed_pending_review"
	StatusCompleted     Status = "completed"
	StatusCancelled     Status = "cancelled"
)

type Mode string

const (
	ModeFixed   Mode = "fixed"
	ModeBidding Mode = "bidding"
)

type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentPaid    PaymentStatus = "paid"
)

type Order struct {
	ID         types.ID
	ServiceID  types.ID
	ClientID   types.ID
	ProviderID *types.ID

	City            string
	ClientLocation  types.Point
	ScheduledAt     time.Time
	DurationMinutes int

	PricingMode Mode
	Formula     pricing.Formula

	Status        Status
	StatusVersion int

	// Price breakdown, snapshotted at booking (fixed mode) or at bid
	// acceptance (bidding mode). Rate fields are immutable per order so a
	// later provider-config change never rewrites history.
	BasePrice       types.Money
	FormulaFee      types.Money
	NightFee        types.Money
	NightsCount     int
	DistanceFee     types.Money
	ExtraDistanceKm float64
	DistanceKnown   bool
	RadiusKm        float64
	PricePerExtraKm types.Money
	Total           types.Money
	Tip             types.Money

	CommissionAmount types.Money
	ProviderAmount   types.Money

	PaymentMethod string
	PaymentStatus PaymentStatus

	// Bidding mode only.
	UserProposedPrice *types.Money
	BidExpiryTime     *time.Time

	// Provider cancellation bookkeeping; the order itself reverts to pending.
	ProviderCancelled    bool
	ProviderCancelReason *string
	ProviderCancelFee    types.Money
	ProviderCancelledAt  *time.Time
	PreviousProviderID   *types.ID

	ClientCancelFee types.Money

	CreatedAt    time.Time
	AcceptedAt   *time.Time
	OnWayAt      *time.Time
	StartedAt    *time.Time
	CompletedAt  *time.Time
	FinalizedAt  *time.Time
	CancelledAt  *time.Time
	CancelReason *string
}

type Event struct {
	ID         int64
	OrderID    types.ID
	FromStatus Status
	ToStatus   Status
	ActorType  string
	ActorID    *types.ID
	CreatedAt  time.Time
}

// AllowedTransitions represents the order state flow as code. The
// pending <- accepted/on_way back-edges are provider cancellations, which
// re-open the order instead of killing it.
var AllowedTransitions = map[Status][]Status{
	StatusPending:       {StatusAccepted, StatusCancelled},
	StatusAccepted:      {StatusOnWay, StatusPending, StatusCancelled},
	StatusOnWay:         {StatusInProgress, StatusPending, StatusCancelled},
	StatusInProgress:    {StatusPendingReview},
	StatusPendingReview: {StatusCompleted},
	// Terminal: completed and cancelled have no outgoing transitions.
	StatusCompleted: {},
	StatusCancelled: {},
}

func CanTransition(from, to Status) bool {
	next, ok := AllowedTransitions[from]
	if !ok {
		return false
	}
	for _, s := range next {
		if s == to {
			return true
		}
	}
	return false
}
