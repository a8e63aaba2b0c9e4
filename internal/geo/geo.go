// README: Distance resolution between provider base and client address.
package geo

import (
	"context"
	"errors"
	"math"

	"homely/internal/types"
)

// ErrUnavailable signals that the geolocation collaborator could not produce
// a distance. Callers degrade to an unknown-distance booking; they never block.
var ErrUnavailable = errors.New("geolocation unavailable")

// Resolver turns two coordinates into a road-ish distance in kilometres.
type Resolver interface {
	DistanceKm(ctx context.Context, from, to types.Point) (float64, error)
}

const earthRadiusKm = 6371.0

// HaversineResolver computes great-circle distance locally. It is the
// fallback when no Maps API key is configured and the workhorse in tests.
type HaversineResolver struct{}

func (HaversineResolver) DistanceKm(_ context.Context, from, to types.Point) (float64, error) {
	if from.IsZero() || to.IsZero() {
		return 0, ErrUnavailable
	}
	return haversineKm(from.Lat, from.Lng, to.Lat, to.Lng), nil
}

// haversineKm returns the great-circle distance in kilometres between two
// points specified in decimal degrees.
func haversineKm(lat1, lng1, lat2, lng2 float64) float64 {
	dLat := degreesToRadians(lat2 - lat1)
	dLng := degreesToRadians(lng2 - lng1)

	rLat1 := degreesToRadians(lat1)
	rLat2 := degreesToRadians(lat2)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(rLat1)*math.Cos(rLat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusKm * c
}

func degreesToRadians(deg float64) float64 {
	return deg * math.Pi / 180.0
}
