// README: Pure price calculator combining formula, travel and night terms.
package pricing

import (
	"errors"

	"homely/internal/types"
)

var (
	ErrInvalidFormula   = errors.New("unknown pricing formula")
	ErrInvalidBasePrice = errors.New("base price must be positive")
)

// Flat surcharges in cents.
const (
	urgentFlatFee = 50_00
	nightFlatFee  = 30_00
)

// FormulaFee returns the formula term for the given base price. Percentage
// formulas apply to the base price; urgent and night are flat amounts.
func FormulaFee(base types.Money, f Formula) (types.Money, error) {
	switch f {
	case FormulaStandard:
		return types.Money{Amount: 0, Currency: base.Currency}, nil
	case FormulaRecurring:
		fee := base.Percent(10)
		fee.Amount = -fee.Amount
		return fee, nil
	case FormulaPremium:
		return base.Percent(30), nil
	case FormulaUrgent:
		return types.Money{Amount: urgentFlatFee, Currency: base.Currency}, nil
	case FormulaNight:
		return types.Money{Amount: nightFlatFee, Currency: base.Currency}, nil
	}
	return types.Money{}, ErrInvalidFormula
}

// Quote computes the full price breakdown. It is a pure function: no store,
// no clock, no side effects. The night resolver always runs so nights_count
// can be displayed, but its fee is zeroed under the night formula because
// the flat formula term already covers it.
func Quote(in QuoteInput) (Breakdown, error) {
	if in.BasePrice.Amount <= 0 {
		return Breakdown{}, ErrInvalidBasePrice
	}
	formulaFee, err := FormulaFee(in.BasePrice, in.Formula)
	if err != nil {
		return Breakdown{}, err
	}

	distanceFee, extraKm := TravelFee(in.RadiusKm, in.PricePerExtraKm, in.DistanceKm, in.DistanceKnown)
	nightFee, nights := NightFee(in.ScheduledAt, in.Duration)
	nightFee.Currency = in.BasePrice.Currency

	appliedNight := nightFee
	if in.Formula == FormulaNight {
		appliedNight = types.Money{Amount: 0, Currency: in.BasePrice.Currency}
	}

	total := in.BasePrice.Add(formulaFee).Add(distanceFee).Add(appliedNight)
	return Breakdown{
		BasePrice:       in.BasePrice,
		FormulaFee:      formulaFee,
		NightFee:        appliedNight,
		NightsCount:     nights,
		DistanceFee:     distanceFee,
		ExtraDistanceKm: extraKm,
		DistanceKnown:   in.DistanceKnown,
		Total:           total,
	}, nil
}
