// README: Provider profile with travel rates and availability.
package provider

import "homely/internal/types"

type Provider struct {
	ID types.ID
	// InterventionRadiusKm is the free-travel radius around Location; zero
	// means "use the city default" resolved at booking time.
	InterventionRadiusKm float64
	PricePerExtraKm      types.Money
	Location             types.Point
	City                 string
	IsAvailable          bool
	CancellationCount    int
}
