package geo

import (
	"context"
	"math"
	"testing"

	"homely/internal/types"
)

func TestHaversineKnownDistances(t *testing.T) {
	cases := []struct {
		name     string
		from, to types.Point
		wantKm   float64
		tolKm    float64
	}{
		{
			name:   "paris to lyon",
			from:   types.Point{Lat: 48.8566, Lng: 2.3522},
			to:     types.Point{Lat: 45.7640, Lng: 4.8357},
			wantKm: 392,
			tolKm:  5,
		},
		{
			name:   "same point",
			from:   types.Point{Lat: 45.75, Lng: 4.85},
			to:     types.Point{Lat: 45.75, Lng: 4.85},
			wantKm: 0,
			tolKm:  0.001,
		},
		{
			name:   "one degree of latitude",
			from:   types.Point{Lat: 45, Lng: 4},
			to:     types.Point{Lat: 46, Lng: 4},
			wantKm: 111.2,
			tolKm:  0.5,
		},
	}
	r := HaversineResolver{}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := r.DistanceKm(context.Background(), tc.from, tc.to)
			if err != nil {
				t.Fatalf("DistanceKm: %v", err)
			}
			if math.Abs(got-tc.wantKm) > tc.tolKm {
				t.Errorf("distance = %.2f km, want %.2f +/- %.2f", got, tc.wantKm, tc.tolKm)
			}
		})
	}
}

func TestHaversineRejectsZeroPoints(t *testing.T) {
	r := HaversineResolver{}
	if _, err := r.DistanceKm(context.Background(), types.Point{}, types.Point{Lat: 45, Lng: 4}); err != ErrUnavailable {
		t.Fatalf("expected ErrUnavailable for zero origin, got %v", err)
	}
	if _, err := r.DistanceKm(context.Background(), types.Point{Lat: 45, Lng: 4}, types.Point{}); err != ErrUnavailable {
		t.Fatalf("expected ErrUnavailable for zero destination, got %v", err)
	}
}
