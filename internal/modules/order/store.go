// README: Order store contract plus the PostgreSQL implementation.
package order

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"homely/internal/types"
)

// ProviderCancellation bundles the fields written when a provider backs out
// and the order re-opens.
type ProviderCancellation struct {
	PreviousProviderID types.ID
	Reason             string
	Fee                types.Money
	At                 time.Time
}

// Acceptance carries everything written when a provider takes a pending
// fixed-price order: the provider link plus the travel term resolved against
// that provider's base location.
type Acceptance struct {
	ProviderID      types.ID
	DistanceFee     types.Money
	ExtraDistanceKm float64
	DistanceKnown   bool
	RadiusKm        float64
	PricePerExtraKm types.Money
	Total           types.Money
	At              time.Time
}

// Finalization is written exactly once, when the client signs off and the
// commission split locks in.
type Finalization struct {
	Tip            types.Money
	Total          types.Money
	Commission     types.Money
	ProviderAmount types.Money
	At             time.Time
}

// Story of every conditional method: the WHERE clause re-checks the status
// and version the caller observed, and the bool result is RowsAffected==1.
// A false return with a nil error means another actor won the race.
type Store interface {
	Create(ctx context.Context, o *Order) error
	Get(ctx context.Context, id types.ID) (*Order, error)
	UpdateStatus(ctx context.Context, id types.ID, from, to Status, version int, providerID *types.ID) (bool, error)
	Accept(ctx context.Context, id types.ID, version int, acc Acceptance) (bool, error)
	Cancel(ctx context.Context, id types.ID, from Status, version int, fee types.Money, reason string) (bool, error)
	RevertToPending(ctx context.Context, id types.ID, from Status, version int, rc ProviderCancellation) (bool, error)
	Finalize(ctx context.Context, id types.ID, version int, fin Finalization) (bool, error)
	AppendEvent(ctx context.Context, e *Event) error
}

type PGStore struct {
	db *pgxpool.Pool
}

func NewPGStore(db *pgxpool.Pool) *PGStore {
	return &PGStore{db: db}
}

func (s *PGStore) Create(ctx context.Context, o *Order) error {
	_, err := s.db.Exec(ctx, `
        INSERT INTO orders (
            id, service_id, client_id, provider_id, city,
            client_lat, client_lng, scheduled_at, duration_minutes,
            pricing_mode, formula, status, status_version,
            base_price, formula_fee, night_fee, nights_count,
            distance_fee, extra_distance_km, distance_known,
            radius_km, price_per_extra_km, total, currency,
            payment_method, payment_status,
            user_proposed_price, bid_expiry_time, created_at
        ) VALUES (
            $1, $2, $3, $4, $5,
            $6, $7, $8, $9,
            $10, $11, $12, $13,
            $14, $15, $16, $17,
            $18, $19, $20,
            $21, $22, $23, $24,
            $25, $26,
            $27, $28, $29
        )`,
		string(o.ID), string(o.ServiceID), string(o.ClientID), idPtr(o.ProviderID), o.City,
		o.ClientLocation.Lat, o.ClientLocation.Lng, o.ScheduledAt, o.DurationMinutes,
		string(o.PricingMode), string(o.Formula), string(o.Status), o.StatusVersion,
		o.BasePrice.Amount, o.FormulaFee.Amount, o.NightFee.Amount, o.NightsCount,
		o.DistanceFee.Amount, o.ExtraDistanceKm, o.DistanceKnown,
		o.RadiusKm, o.PricePerExtraKm.Amount, o.Total.Amount, o.Total.Currency,
		o.PaymentMethod, string(o.PaymentStatus),
		moneyPtr(o.UserProposedPrice), o.BidExpiryTime, o.CreatedAt,
	)
	return err
}

func (s *PGStore) Get(ctx context.Context, id types.ID) (*Order, error) {
	row := s.db.QueryRow(ctx, `
        SELECT id, service_id, client_id, provider_id, city,
               client_lat, client_lng, scheduled_at, duration_minutes,
               pricing_mode, formula, status, status_version,
               base_price, formula_fee, night_fee, nights_count,
               distance_fee, extra_distance_km, distance_known,
               radius_km, price_per_extra_km, total, currency, tip,
               commission_amount, provider_amount,
               payment_method, payment_status,
               user_proposed_price, bid_expiry_time,
               provider_cancelled, provider_cancel_reason, provider_cancel_fee,
               provider_cancelled_at, previous_provider_id, client_cancel_fee,
               created_at, accepted_at, on_way_at, started_at, completed_at,
               finalized_at, cancelled_at, cancel_reason
        FROM orders
        WHERE id = $1`, string(id),
	)

	var o Order
	var providerID, prevProviderID, providerCancelReason, cancelReason sql.NullString
	var proposed sql.NullInt64
	var bidExpiry sql.NullTime
	var acceptedAt, onWayAt, startedAt, completedAt, finalizedAt, cancelledAt, providerCancelledAt sql.NullTime
	var currency string
	var base, formulaFee, nightFee, distanceFee, perKm, total, tip, commission, providerAmount, providerCancelFee, clientCancelFee int64

	err := row.Scan(
		&o.ID, &o.ServiceID, &o.ClientID, &providerID, &o.City,
		&o.ClientLocation.Lat, &o.ClientLocation.Lng, &o.ScheduledAt, &o.DurationMinutes,
		&o.PricingMode, &o.Formula, &o.Status, &o.StatusVersion,
		&base, &formulaFee, &nightFee, &o.NightsCount,
		&distanceFee, &o.ExtraDistanceKm, &o.DistanceKnown,
		&o.RadiusKm, &perKm, &total, &currency, &tip,
		&commission, &providerAmount,
		&o.PaymentMethod, &o.PaymentStatus,
		&proposed, &bidExpiry,
		&o.ProviderCancelled, &providerCancelReason, &providerCancelFee,
		&providerCancelledAt, &prevProviderID, &clientCancelFee,
		&o.CreatedAt, &acceptedAt, &onWayAt, &startedAt, &completedAt,
		&finalizedAt, &cancelledAt, &cancelReason,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if currency == "" {
		currency = types.DefaultCurrency
	}
	o.BasePrice = types.Money{Amount: base, Currency: currency}
	o.FormulaFee = types.Money{Amount: formulaFee, Currency: currency}
	o.NightFee = types.Money{Amount: nightFee, Currency: currency}
	o.DistanceFee = types.Money{Amount: distanceFee, Currency: currency}
	o.PricePerExtraKm = types.Money{Amount: perKm, Currency: currency}
	o.Total = types.Money{Amount: total, Currency: currency}
	o.Tip = types.Money{Amount: tip, Currency: currency}
	o.CommissionAmount = types.Money{Amount: commission, Currency: currency}
	o.ProviderAmount = types.Money{Amount: providerAmount, Currency: currency}
	o.ProviderCancelFee = types.Money{Amount: providerCancelFee, Currency: currency}
	o.ClientCancelFee = types.Money{Amount: clientCancelFee, Currency: currency}

	if providerID.Valid {
		v := types.ID(providerID.String)
		o.ProviderID = &v
	}
	if prevProviderID.Valid {
		v := types.ID(prevProviderID.String)
		o.PreviousProviderID = &v
	}
	if providerCancelReason.Valid {
		o.ProviderCancelReason = &providerCancelReason.String
	}
	if cancelReason.Valid {
		o.CancelReason = &cancelReason.String
	}
	if proposed.Valid {
		v := types.Money{Amount: proposed.Int64, Currency: currency}
		o.UserProposedPrice = &v
	}
	o.BidExpiryTime = timePtr(bidExpiry)
	o.AcceptedAt = timePtr(acceptedAt)
	o.OnWayAt = timePtr(onWayAt)
	o.StartedAt = timePtr(startedAt)
	o.CompletedAt = timePtr(completedAt)
	o.FinalizedAt = timePtr(finalizedAt)
	o.CancelledAt = timePtr(cancelledAt)
	o.ProviderCancelledAt = timePtr(providerCancelledAt)
	return &o, nil
}

func (s *PGStore) UpdateStatus(ctx context.Context, id types.ID, from, to Status, version int, providerID *types.ID) (bool, error) {
	tag, err := s.db.Exec(ctx, `
        UPDATE orders
        SET status = $1,
            status_version = status_version + 1,
            provider_id = COALESCE($2, provider_id),
            accepted_at = CASE WHEN $1 = 'accepted' THEN NOW() ELSE accepted_at END,
            on_way_at = CASE WHEN $1 = 'on_way' THEN NOW() ELSE on_way_at END,
            started_at = CASE WHEN $1 = 'in_progress' THEN NOW() ELSE started_at END,
            completed_at = CASE WHEN $1 = 'completed_pending_review' THEN NOW() ELSE completed_at END
        WHERE id = $3 AND status = $4 AND status_version = $5`,
		string(to), idPtr(providerID), string(id), string(from), version,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (s *PGStore) Accept(ctx context.Context, id types.ID, version int, acc Acceptance) (bool, error) {
	tag, err := s.db.Exec(ctx, `
        UPDATE orders
        SET status = 'accepted',
            status_version = status_version + 1,
            provider_id = $1,
            distance_fee = $2,
            extra_distance_km = $3,
            distance_known = $4,
            radius_km = $5,
            price_per_extra_km = $6,
            total = $7,
            accepted_at = $8
        WHERE id = $9 AND status = 'pending' AND provider_id IS NULL AND status_version = $10`,
		string(acc.ProviderID), acc.DistanceFee.Amount, acc.ExtraDistanceKm, acc.DistanceKnown,
		acc.RadiusKm, acc.PricePerExtraKm.Amount, acc.Total.Amount, acc.At,
		string(id), version,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (s *PGStore) Cancel(ctx context.Context, id types.ID, from Status, version int, fee types.Money, reason string) (bool, error) {
	tag, err := s.db.Exec(ctx, `
        UPDATE orders
        SET status = 'cancelled',
            status_version = status_version + 1,
            client_cancel_fee = $1,
            cancel_reason = $2,
            cancelled_at = NOW()
        WHERE id = $3 AND status = $4 AND status_version = $5`,
		fee.Amount, reason, string(id), string(from), version,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (s *PGStore) RevertToPending(ctx context.Context, id types.ID, from Status, version int, rc ProviderCancellation) (bool, error) {
	tag, err := s.db.Exec(ctx, `
        UPDATE orders
        SET status = 'pending',
            status_version = status_version + 1,
            provider_id = NULL,
            accepted_at = NULL,
            on_way_at = NULL,
            provider_cancelled = TRUE,
            provider_cancel_reason = $1,
            provider_cancel_fee = $2,
            provider_cancelled_at = $3,
            previous_provider_id = $4
        WHERE id = $5 AND status = $6 AND status_version = $7`,
		rc.Reason, rc.Fee.Amount, rc.At, string(rc.PreviousProviderID),
		string(id), string(from), version,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (s *PGStore) Finalize(ctx context.Context, id types.ID, version int, fin Finalization) (bool, error) {
	tag, err := s.db.Exec(ctx, `
        UPDATE orders
        SET status = 'completed',
            status_version = status_version + 1,
            tip = $1,
            total = $2,
            commission_amount = $3,
            provider_amount = $4,
            payment_status = 'paid',
            finalized_at = $5
        WHERE id = $6 AND status = 'completed_pending_review' AND status_version = $7`,
		fin.Tip.Amount, fin.Total.Amount, fin.Commission.Amount, fin.ProviderAmount.Amount,
		fin.At, string(id), version,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (s *PGStore) AppendEvent(ctx context.Context, e *Event) error {
	_, err := s.db.Exec(ctx, `
        INSERT INTO order_state_events (
            order_id, from_status, to_status, actor_type, actor_id, created_at
        ) VALUES ($1, $2, $3, $4, $5, $6)`,
		string(e.OrderID), string(e.FromStatus), string(e.ToStatus),
		e.ActorType, idPtr(e.ActorID), e.CreatedAt,
	)
	return err
}

func idPtr(v *types.ID) *string {
	if v == nil {
		return nil
	}
	s := string(*v)
	return &s
}

func moneyPtr(v *types.Money) *int64 {
	if v == nil {
		return nil
	}
	n := v.Amount
	return &n
}

func timePtr(v sql.NullTime) *time.Time {
	if !v.Valid {
		return nil
	}
	t := v.Time
	return &t
}
