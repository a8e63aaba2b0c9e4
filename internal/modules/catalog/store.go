// README: Catalog store backed by PostgreSQL.
package catalog

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"homely/internal/types"
)

var ErrNotFound = errors.New("service not found")

type Store interface {
	Get(ctx context.Context, id types.ID) (Service, error)
}

type PGStore struct {
	db *pgxpool.Pool
}

func NewPGStore(db *pgxpool.Pool) *PGStore {
	return &PGStore{db: db}
}

func (s *PGStore) Get(ctx context.Context, id types.ID) (Service, error) {
	row := s.db.QueryRow(ctx, `
        SELECT id, name, base_price, duration_minutes, allow_bidding,
               min_suggested_price, max_suggested_price
        FROM services
        WHERE id = $1`, string(id),
	)
	var svc Service
	var base, minP, maxP int64
	err := row.Scan(&svc.ID, &svc.Name, &base, &svc.DurationMinutes, &svc.AllowBidding, &minP, &maxP)
	if errors.Is(err, pgx.ErrNoRows) {
		return Service{}, ErrNotFound
	}
	if err != nil {
		return Service{}, err
	}
	svc.BasePrice = types.Cents(base)
	svc.MinSuggestedPrice = types.Cents(minP)
	svc.MaxSuggestedPrice = types.Cents(maxP)
	return svc, nil
}
