// README: Travel fee resolver tests.
package pricing

import (
	"testing"

	"homely/internal/types"
)

func TestTravelFee(t *testing.T) {
	perKm := types.Cents(5_00)
	tests := []struct {
		name      string
		radius    float64
		distance  float64
		known     bool
		wantFee   int64
		wantExtra float64
	}{
		{"inside radius", 10, 7, true, 0, 0},
		{"at radius boundary", 10, 10, true, 0, 0},
		{"5km beyond", 10, 15, true, 25_00, 5},
		{"fractional extra rounds to cent", 10, 10.5, true, 2_50, 0.5},
		{"unknown distance", 10, 40, false, 0, 0},
		{"zero radius charges everything", 0, 4, true, 20_00, 4},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			fee, extra := TravelFee(tc.radius, perKm, tc.distance, tc.known)
			if fee.Amount != tc.wantFee {
				t.Errorf("fee = %d, want %d", fee.Amount, tc.wantFee)
			}
			if extra != tc.wantExtra {
				t.Errorf("extra = %f, want %f", extra, tc.wantExtra)
			}
		})
	}
}
