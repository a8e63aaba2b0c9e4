// README: Bid store contract plus the PostgreSQL implementation.
package bidding

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"homely/internal/types"
)

// Store persists bids. AcceptBid is the whole accept-one-wins invariant in
// one atomic operation: it must flip the order to accepted, the winning bid
// to accepted and every other pending bid on the order to rejected, or do
// nothing at all.
type Store interface {
	Create(ctx context.Context, b *Bid) error
	Get(ctx context.Context, id types.ID) (*Bid, error)
	ListByOrder(ctx context.Context, orderID types.ID) ([]Bid, error)
	AcceptBid(ctx context.Context, orderID, bidID, providerID types.ID, price types.Money) (bool, error)
}

type PGStore struct {
	db *pgxpool.Pool
}

func NewPGStore(db *pgxpool.Pool) *PGStore {
	return &PGStore{db: db}
}

func (s *PGStore) Create(ctx context.Context, b *Bid) error {
	_, err := s.db.Exec(ctx, `
        INSERT INTO bids (
            id, order_id, provider_id, proposed_price, currency,
            estimated_arrival_minutes, message, status, created_at
        ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		string(b.ID), string(b.OrderID), string(b.ProviderID),
		b.ProposedPrice.Amount, b.ProposedPrice.Currency,
		b.EstimatedArrivalMinutes, b.Message, string(b.Status), b.CreatedAt,
	)
	return err
}

func (s *PGStore) Get(ctx context.Context, id types.ID) (*Bid, error) {
	row := s.db.QueryRow(ctx, `
        SELECT id, order_id, provider_id, proposed_price, currency,
               estimated_arrival_minutes, message, status, created_at, resolved_at
        FROM bids
        WHERE id = $1`, string(id),
	)
	b, err := scanBid(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return b, nil
}

func (s *PGStore) ListByOrder(ctx context.Context, orderID types.ID) ([]Bid, error) {
	rows, err := s.db.Query(ctx, `
        SELECT id, order_id, provider_id, proposed_price, currency,
               estimated_arrival_minutes, message, status, created_at, resolved_at
        FROM bids
        WHERE order_id = $1
        ORDER BY created_at`, string(orderID),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Bid
	for rows.Next() {
		b, err := scanBid(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *b)
	}
	return out, rows.Err()
}

// AcceptBid runs the whole resolution in one transaction. The order-side
// UPDATE carries the pending/provider-null guard; if another acceptance got
// there first it touches zero rows and the transaction rolls back untouched.
func (s *PGStore) AcceptBid(ctx context.Context, orderID, bidID, providerID types.ID, price types.Money) (bool, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return false, err
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
        UPDATE orders
        SET status = 'accepted',
            status_version = status_version + 1,
            provider_id = $1,
            total = $2,
            accepted_at = NOW()
        WHERE id = $3 AND status = 'pending' AND provider_id IS NULL`,
		string(providerID), price.Amount, string(orderID),
	)
	if err != nil {
		return false, err
	}
	if tag.RowsAffected() != 1 {
		return false, nil
	}

	tag, err = tx.Exec(ctx, `
        UPDATE bids
        SET status = 'accepted', resolved_at = NOW()
        WHERE id = $1 AND status = 'pending'`, string(bidID),
	)
	if err != nil {
		return false, err
	}
	if tag.RowsAffected() != 1 {
		return false, nil
	}

	_, err = tx.Exec(ctx, `
        UPDATE bids
        SET status = 'rejected', resolved_at = NOW()
        WHERE order_id = $1 AND status = 'pending' AND id <> $2`,
		string(orderID), string(bidID),
	)
	if err != nil {
		return false, err
	}
	if err := tx.Commit(ctx); err != nil {
		return false, err
	}
	return true, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBid(row rowScanner) (*Bid, error) {
	var b Bid
	var price int64
	var currency string
	var resolvedAt sql.NullTime
	err := row.Scan(&b.ID, &b.OrderID, &b.ProviderID, &price, &currency,
		&b.EstimatedArrivalMinutes, &b.Message, &b.Status, &b.CreatedAt, &resolvedAt)
	if err != nil {
		return nil, err
	}
	if currency == "" {
		currency = types.DefaultCurrency
	}
	b.ProposedPrice = types.Money{Amount: price, Currency: currency}
	if resolvedAt.Valid {
		t := resolvedAt.Time
		b.ResolvedAt = &t
	}
	return &b, nil
}
