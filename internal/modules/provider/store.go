// README: Provider store: PostgreSQL profile rows plus a Redis GEO availability index.
package provider

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"homely/internal/types"
)

var ErrNotFound = errors.New("provider not found")

const availableGeoKey = "providers:available"

type Store interface {
	Get(ctx context.Context, id types.ID) (Provider, error)
	SetAvailability(ctx context.Context, id types.ID, available bool) error
	IncrementCancellations(ctx context.Context, id types.ID) error
	NearbyAvailable(ctx context.Context, p types.Point, radiusKm float64) ([]types.ID, error)
}

type PGStore struct {
	db    *pgxpool.Pool
	redis *redis.Client
}

func NewPGStore(db *pgxpool.Pool, redisClient *redis.Client) *PGStore {
	return &PGStore{db: db, redis: redisClient}
}

func (s *PGStore) Get(ctx context.Context, id types.ID) (Provider, error) {
	row := s.db.QueryRow(ctx, `
        SELECT id, intervention_radius_km, price_per_extra_km, lat, lng, city,
               is_available, cancellation_count
        FROM providers
        WHERE id = $1`, string(id),
	)
	var p Provider
	var perKm int64
	err := row.Scan(&p.ID, &p.InterventionRadiusKm, &perKm,
		&p.Location.Lat, &p.Location.Lng, &p.City, &p.IsAvailable, &p.CancellationCount)
	if errors.Is(err, pgx.ErrNoRows) {
		return Provider{}, ErrNotFound
	}
	if err != nil {
		return Provider{}, err
	}
	p.PricePerExtraKm = types.Cents(perKm)
	return p, nil
}

// SetAvailability flips the flag in Postgres and keeps the Redis GEO index
// in step so bidding-mode broadcasts can find candidates nearby. The index
// is advisory; Postgres stays the source of truth.
func (s *PGStore) SetAvailability(ctx context.Context, id types.ID, available bool) error {
	var lat, lng float64
	row := s.db.QueryRow(ctx, `
        UPDATE providers SET is_available = $1 WHERE id = $2
        RETURNING lat, lng`, available, string(id),
	)
	if err := row.Scan(&lat, &lng); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}
	if s.redis == nil {
		return nil
	}
	if available {
		return s.redis.GeoAdd(ctx, availableGeoKey, &redis.GeoLocation{
			Name:      string(id),
			Longitude: lng,
			Latitude:  lat,
		}).Err()
	}
	return s.redis.ZRem(ctx, availableGeoKey, string(id)).Err()
}

func (s *PGStore) IncrementCancellations(ctx context.Context, id types.ID) error {
	tag, err := s.db.Exec(ctx, `
        UPDATE providers SET cancellation_count = cancellation_count + 1
        WHERE id = $1`, string(id),
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PGStore) NearbyAvailable(ctx context.Context, p types.Point, radiusKm float64) ([]types.ID, error) {
	if s.redis == nil {
		return nil, nil
	}
	results, err := s.redis.GeoSearch(ctx, availableGeoKey, &redis.GeoSearchQuery{
		Longitude:  p.Lng,
		Latitude:   p.Lat,
		Radius:     radiusKm,
		RadiusUnit: "km",
		Sort:       "ASC",
	}).Result()
	if err != nil {
		return nil, err
	}
	ids := make([]types.ID, len(results))
	for i, r := range results {
		ids[i] = types.ID(r)
	}
	return ids, nil
}
