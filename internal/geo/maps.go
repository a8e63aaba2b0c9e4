// README: Google Maps backed distance resolver.
package geo

import (
	"context"
	"fmt"

	"googlemaps.github.io/maps"

	"homely/internal/types"
)

// MapsResolver resolves driving distance via the Distance Matrix API.
type MapsResolver struct {
	client *maps.Client
}

func NewMapsResolver(apiKey string) (*MapsResolver, error) {
	client, err := maps.NewClient(maps.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("create maps client: %w", err)
	}
	return &MapsResolver{client: client}, nil
}

func (r *MapsResolver) DistanceKm(ctx context.Context, from, to types.Point) (float64, error) {
	if from.IsZero() || to.IsZero() {
		return 0, ErrUnavailable
	}
	resp, err := r.client.DistanceMatrix(ctx, &maps.DistanceMatrixRequest{
		Origins:      []string{fmt.Sprintf("%f,%f", from.Lat, from.Lng)},
		Destinations: []string{fmt.Sprintf("%f,%f", to.Lat, to.Lng)},
		Mode:         maps.TravelModeDriving,
	})
	if err != nil {
		return 0, ErrUnavailable
	}
	if len(resp.Rows) == 0 || len(resp.Rows[0].Elements) == 0 {
		return 0, ErrUnavailable
	}
	el := resp.Rows[0].Elements[0]
	if el.Status != "OK" {
		return 0, ErrUnavailable
	}
	return float64(el.Distance.Meters) / 1000.0, nil
}
