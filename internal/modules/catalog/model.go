// README: Service catalog entries (what clients can book).
package catalog

import "homely/internal/types"

type Service struct {
	ID              types.ID
	Name            string
	BasePrice       types.Money
	DurationMinutes int
	AllowBidding    bool
	// Suggested bounds for client-proposed prices in bidding mode.
	// Zero means unbounded on that side.
	MinSuggestedPrice types.Money
	MaxSuggestedPrice types.Money
}
