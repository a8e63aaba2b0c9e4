// README: Bid entity for competitive-bidding orders.
package bidding

import (
	"time"

	"homely/internal/types"
)

type Status string

const (
	StatusPending  Status = "pending"
	StatusAccepted Status = "accepted"
	StatusRejected Status = "rejected"
)

type Bid struct {
	ID                      types.ID
	OrderID                 types.ID
	ProviderID              types.ID
	ProposedPrice           types.Money
	EstimatedArrivalMinutes int
	Message                 string
	Status                  Status
	CreatedAt               time.Time
	ResolvedAt              *time.Time
}
