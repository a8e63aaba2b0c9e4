// README: Bid handlers for competitive-bidding orders.
package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"homely/internal/modules/bidding"
	"homely/internal/types"
)

type BidHandler struct {
	bids *bidding.Service
}

func NewBidHandler(svc *bidding.Service) *BidHandler {
	return &BidHandler{bids: svc}
}

type placeBidReq struct {
	ProviderID         string `json:"provider_id"`
	ProposedPriceCents int64  `json:"proposed_price_cents"`
	EtaMinutes         int    `json:"eta_minutes"`
	Message            string `json:"message"`
}

func (h *BidHandler) Place(c *gin.Context) {
	var req placeBidReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	id, err := h.bids.Place(c.Request.Context(), bidding.PlaceCommand{
		OrderID:                 types.ID(c.Param("id")),
		ProviderID:              types.ID(req.ProviderID),
		ProposedPrice:           types.Cents(req.ProposedPriceCents),
		EstimatedArrivalMinutes: req.EtaMinutes,
		Message:                 req.Message,
	})
	if err != nil {
		writeDomainError(c, err)
		return
	}
	writeJSON(c, http.StatusCreated, gin.H{"bid_id": id, "status": bidding.StatusPending})
}

func (h *BidHandler) ListByOrder(c *gin.Context) {
	bids, err := h.bids.ListByOrder(c.Request.Context(), types.ID(c.Param("id")))
	if err != nil && !errors.Is(err, bidding.ErrBiddingExpired) {
		writeDomainError(c, err)
		return
	}
	out := make([]gin.H, 0, len(bids))
	for _, b := range bids {
		entry := gin.H{
			"bid_id":         b.ID,
			"provider_id":    b.ProviderID,
			"proposed_price": money(b.ProposedPrice),
			"eta_minutes":    b.EstimatedArrivalMinutes,
			"message":        b.Message,
			"status":         b.Status,
			"created_at":     b.CreatedAt.Format(time.RFC3339),
		}
		out = append(out, entry)
	}
	resp := gin.H{"bids": out}
	if errors.Is(err, bidding.ErrBiddingExpired) {
		resp["expired"] = true
	}
	writeJSON(c, http.StatusOK, resp)
}

type acceptBidReq struct {
	ClientID string `json:"client_id"`
}

func (h *BidHandler) Accept(c *gin.Context) {
	var req acceptBidReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	err := h.bids.Accept(c.Request.Context(), bidding.AcceptCommand{
		BidID:    types.ID(c.Param("id")),
		ClientID: types.ID(req.ClientID),
	})
	if err != nil {
		writeDomainError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"status": bidding.StatusAccepted})
}
