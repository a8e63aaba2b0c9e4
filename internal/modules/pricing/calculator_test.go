// README: Calculator tests (formula table + combined scenarios).
package pricing

import (
	"testing"
	"time"

	"homely/internal/types"
)

// Daytime slot well clear of the night window.
var daySlot = time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC)

func TestFormulaTotals(t *testing.T) {
	// base 150.00: standard 150, recurring 135, premium 195, urgent 200, night 180.
	tests := []struct {
		formula   Formula
		wantTotal int64
	}{
		{FormulaStandard, 150_00},
		{FormulaRecurring, 135_00},
		{FormulaPremium, 195_00},
		{FormulaUrgent, 200_00},
		{FormulaNight, 180_00},
	}
	for _, tc := range tests {
		t.Run(string(tc.formula), func(t *testing.T) {
			b, err := Quote(QuoteInput{
				BasePrice:     types.Cents(150_00),
				Formula:       tc.formula,
				RadiusKm:      10,
				DistanceKnown: true,
				DistanceKm:    5,
				ScheduledAt:   daySlot,
				Duration:      2 * time.Hour,
			})
			if err != nil {
				t.Fatalf("quote: %v", err)
			}
			if b.Total.Amount != tc.wantTotal {
				t.Errorf("total = %d, want %d", b.Total.Amount, tc.wantTotal)
			}
		})
	}
}

func TestQuoteUrgentWithTravel(t *testing.T) {
	// base 150, urgent +50, 15km against a 10km radius at 5.00/km -> 25.
	b, err := Quote(QuoteInput{
		BasePrice:       types.Cents(150_00),
		Formula:         FormulaUrgent,
		RadiusKm:        10,
		PricePerExtraKm: types.Cents(5_00),
		DistanceKm:      15,
		DistanceKnown:   true,
		ScheduledAt:     daySlot,
		Duration:        2 * time.Hour,
	})
	if err != nil {
		t.Fatalf("quote: %v", err)
	}
	if b.DistanceFee.Amount != 25_00 {
		t.Errorf("distance fee = %d, want 2500", b.DistanceFee.Amount)
	}
	if b.Total.Amount != 225_00 {
		t.Errorf("total = %d, want 22500", b.Total.Amount)
	}
	commission, provider := SplitCommission(b.Total)
	if commission.Amount != 45_00 || provider.Amount != 180_00 {
		t.Errorf("split = %d/%d, want 4500/18000", commission.Amount, provider.Amount)
	}
}

func TestQuoteNightFormulaZeroesNightFee(t *testing.T) {
	// 23:00 start overlaps one night window; under the night formula the
	// flat formula term replaces the surcharge but the count is still reported.
	nightSlot := time.Date(2026, 3, 10, 23, 0, 0, 0, time.UTC)
	b, err := Quote(QuoteInput{
		BasePrice:     types.Cents(100_00),
		Formula:       FormulaNight,
		RadiusKm:      10,
		DistanceKnown: true,
		DistanceKm:    3,
		ScheduledAt:   nightSlot,
		Duration:      2 * time.Hour,
	})
	if err != nil {
		t.Fatalf("quote: %v", err)
	}
	if b.NightsCount != 1 {
		t.Errorf("nights = %d, want 1", b.NightsCount)
	}
	if b.NightFee.Amount != 0 {
		t.Errorf("night fee = %d, want 0 under night formula", b.NightFee.Amount)
	}
	if b.Total.Amount != 130_00 {
		t.Errorf("total = %d, want 13000", b.Total.Amount)
	}
}

func TestQuoteStandardAddsNightSurcharge(t *testing.T) {
	nightSlot := time.Date(2026, 3, 10, 23, 0, 0, 0, time.UTC)
	b, err := Quote(QuoteInput{
		BasePrice:     types.Cents(100_00),
		Formula:       FormulaStandard,
		RadiusKm:      10,
		DistanceKnown: true,
		DistanceKm:    3,
		ScheduledAt:   nightSlot,
		Duration:      2 * time.Hour,
	})
	if err != nil {
		t.Fatalf("quote: %v", err)
	}
	if b.NightFee.Amount != 30_00 {
		t.Errorf("night fee = %d, want 3000", b.NightFee.Amount)
	}
	if b.Total.Amount != 130_00 {
		t.Errorf("total = %d, want 13000", b.Total.Amount)
	}
}

func TestQuoteUnknownDistance(t *testing.T) {
	b, err := Quote(QuoteInput{
		BasePrice:     types.Cents(80_00),
		Formula:       FormulaStandard,
		RadiusKm:      10,
		DistanceKm:    0,
		DistanceKnown: false,
		ScheduledAt:   daySlot,
		Duration:      time.Hour,
	})
	if err != nil {
		t.Fatalf("quote: %v", err)
	}
	if b.DistanceFee.Amount != 0 || b.ExtraDistanceKm != 0 {
		t.Errorf("unknown distance should zero the travel term, got fee=%d extra=%f",
			b.DistanceFee.Amount, b.ExtraDistanceKm)
	}
	if b.DistanceKnown {
		t.Error("breakdown should flag distance as unknown")
	}
}

func TestQuoteRejectsBadInput(t *testing.T) {
	if _, err := Quote(QuoteInput{BasePrice: types.Cents(0), Formula: FormulaStandard}); err != ErrInvalidBasePrice {
		t.Errorf("zero base: expected ErrInvalidBasePrice, got %v", err)
	}
	if _, err := Quote(QuoteInput{BasePrice: types.Cents(-100), Formula: FormulaStandard}); err != ErrInvalidBasePrice {
		t.Errorf("negative base: expected ErrInvalidBasePrice, got %v", err)
	}
	if _, err := Quote(QuoteInput{BasePrice: types.Cents(100_00), Formula: Formula("vip")}); err != ErrInvalidFormula {
		t.Errorf("unknown formula: expected ErrInvalidFormula, got %v", err)
	}
}
