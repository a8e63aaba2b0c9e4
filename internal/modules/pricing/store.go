// README: City rate settings store backed by PostgreSQL.
package pricing

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"homely/internal/types"
)

// Platform-wide fallbacks when a city has no settings row.
const (
	fallbackRadiusKm  = 10.0
	fallbackPerKm     = 5_00
	fallbackMaxRadius = 50.0
)

type RatesStore interface {
	RatesForCity(ctx context.Context, city string) (CityRates, error)
}

type PGStore struct {
	db *pgxpool.Pool
}

func NewPGStore(db *pgxpool.Pool) *PGStore {
	return &PGStore{db: db}
}

// RatesForCity returns the per-city booking defaults, falling back to the
// platform defaults when the city is unknown. Inactive cities keep their
// stored rates; activation is enforced at order creation.
func (s *PGStore) RatesForCity(ctx context.Context, city string) (CityRates, error) {
	row := s.db.QueryRow(ctx, `
        SELECT city, default_radius_km, default_price_per_km, max_radius_km, is_active
        FROM city_settings
        WHERE city = $1`, city,
	)
	var r CityRates
	var perKm int64
	err := row.Scan(&r.City, &r.DefaultRadiusKm, &perKm, &r.MaxRadiusKm, &r.IsActive)
	if errors.Is(err, pgx.ErrNoRows) {
		return DefaultRates(city), nil
	}
	if err != nil {
		return CityRates{}, err
	}
	r.DefaultPerKm = types.Cents(perKm)
	return r, nil
}

// DefaultRates are the platform defaults used when no city row exists.
func DefaultRates(city string) CityRates {
	return CityRates{
		City:            city,
		DefaultRadiusKm: fallbackRadiusKm,
		DefaultPerKm:    types.Cents(fallbackPerKm),
		MaxRadiusKm:     fallbackMaxRadius,
		IsActive:        true,
	}
}
