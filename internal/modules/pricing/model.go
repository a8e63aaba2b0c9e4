// README: Pricing formulas, quote input and breakdown definitions.
package pricing

import (
	"time"

	"homely/internal/types"
)

// Formula is the named pricing preset chosen at booking time.
type Formula string

const (
	FormulaStandard  Formula = "standard"
	FormulaRecurring Formula = "recurring"
	FormulaPremium   Formula = "premium"
	FormulaUrgent    Formula = "urgent"
	FormulaNight     Formula = "night"
)

func ValidFormula(f Formula) bool {
	switch f {
	case FormulaStandard, FormulaRecurring, FormulaPremium, FormulaUrgent, FormulaNight:
		return true
	}
	return false
}

// QuoteInput carries everything the calculator needs. Distance is resolved
// by the geolocation collaborator before quoting; DistanceKnown=false means
// the collaborator was unreachable and the travel fee degrades to zero.
type QuoteInput struct {
	BasePrice       types.Money
	Formula         Formula
	RadiusKm        float64
	PricePerExtraKm types.Money
	DistanceKm      float64
	DistanceKnown   bool
	ScheduledAt     time.Time
	Duration        time.Duration
}

// Breakdown is the immutable price snapshot stored on the order.
type Breakdown struct {
	BasePrice       types.Money
	FormulaFee      types.Money
	NightFee        types.Money
	NightsCount     int
	DistanceFee     types.Money
	ExtraDistanceKm float64
	DistanceKnown   bool
	Total           types.Money
}

// CityRates are the per-city booking defaults. They replace the original
// per-provider fallback chain with an explicit, typed lookup.
type CityRates struct {
	City            string
	DefaultRadiusKm float64
	DefaultPerKm    types.Money
	MaxRadiusKm     float64
	IsActive        bool
}
