// README: Order handlers: booking, lifecycle transitions, cancellation.
package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"homely/internal/modules/order"
	"homely/internal/modules/pricing"
	"homely/internal/types"
)

type OrderHandler struct {
	order *order.Service
}

func NewOrderHandler(svc *order.Service) *OrderHandler {
	return &OrderHandler{order: svc}
}

type createOrderReq struct {
	ClientID      string  `json:"client_id"`
	ServiceID     string  `json:"service_id"`
	City          string  `json:"city"`
	Lat           float64 `json:"lat"`
	Lng           float64 `json:"lng"`
	ScheduledAt   string  `json:"scheduled_at"`
	Formula       string  `json:"formula"`
	PaymentMethod string  `json:"payment_method"`

	// Bidding mode only.
	ProposedPriceCents int64 `json:"proposed_price_cents"`
	BidExpiryHours     int   `json:"bid_expiry_hours"`
}

func (h *OrderHandler) Create(c *gin.Context) {
	var req createOrderReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	scheduledAt, err := time.Parse(time.RFC3339, req.ScheduledAt)
	if err != nil {
		writeError(c, http.StatusBadRequest, "scheduled_at must be RFC3339")
		return
	}
	id, err := h.order.Create(c.Request.Context(), order.CreateCommand{
		ClientID:      types.ID(req.ClientID),
		ServiceID:     types.ID(req.ServiceID),
		City:          req.City,
		Location:      types.Point{Lat: req.Lat, Lng: req.Lng},
		ScheduledAt:   scheduledAt,
		Formula:       pricing.Formula(req.Formula),
		PaymentMethod: req.PaymentMethod,
	})
	if err != nil {
		writeDomainError(c, err)
		return
	}
	writeJSON(c, http.StatusCreated, gin.H{"order_id": id, "status": order.StatusPending})
}

func (h *OrderHandler) CreateBidding(c *gin.Context) {
	var req createOrderReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	scheduledAt, err := time.Parse(time.RFC3339, req.ScheduledAt)
	if err != nil {
		writeError(c, http.StatusBadRequest, "scheduled_at must be RFC3339")
		return
	}
	id, err := h.order.CreateBidding(c.Request.Context(), order.CreateBiddingCommand{
		ClientID:      types.ID(req.ClientID),
		ServiceID:     types.ID(req.ServiceID),
		City:          req.City,
		Location:      types.Point{Lat: req.Lat, Lng: req.Lng},
		ScheduledAt:   scheduledAt,
		Formula:       pricing.Formula(req.Formula),
		ProposedPrice: types.Cents(req.ProposedPriceCents),
		ExpiryHours:   req.BidExpiryHours,
		PaymentMethod: req.PaymentMethod,
	})
	if err != nil {
		writeDomainError(c, err)
		return
	}
	writeJSON(c, http.StatusCreated, gin.H{"order_id": id, "status": order.StatusPending})
}

func (h *OrderHandler) Get(c *gin.Context) {
	o, err := h.order.Get(c.Request.Context(), types.ID(c.Param("id")))
	if err != nil {
		writeDomainError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, orderJSON(o))
}

type actorReq struct {
	ClientID   string `json:"client_id"`
	ProviderID string `json:"provider_id"`
	Reason     string `json:"reason"`
	TipCents   int64  `json:"tip_cents"`
}

func (h *OrderHandler) Accept(c *gin.Context) {
	var req actorReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	err := h.order.Accept(c.Request.Context(), order.AcceptCommand{
		OrderID:    types.ID(c.Param("id")),
		ProviderID: types.ID(req.ProviderID),
	})
	if err != nil {
		writeDomainError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"status": order.StatusAccepted})
}

func (h *OrderHandler) Depart(c *gin.Context) {
	var req actorReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	err := h.order.Depart(c.Request.Context(), order.DepartCommand{
		OrderID:    types.ID(c.Param("id")),
		ProviderID: types.ID(req.ProviderID),
	})
	if err != nil {
		writeDomainError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"status": order.StatusOnWay})
}

func (h *OrderHandler) ConfirmArrival(c *gin.Context) {
	var req actorReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	err := h.order.ConfirmArrival(c.Request.Context(), order.ConfirmArrivalCommand{
		OrderID:  types.ID(c.Param("id")),
		ClientID: types.ID(req.ClientID),
	})
	if err != nil {
		writeDomainError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"status": order.StatusInProgress})
}

func (h *OrderHandler) CompleteWork(c *gin.Context) {
	var req actorReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	err := h.order.CompleteWork(c.Request.Context(), order.CompleteWorkCommand{
		OrderID:    types.ID(c.Param("id")),
		ProviderID: types.ID(req.ProviderID),
	})
	if err != nil {
		writeDomainError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"status": order.StatusPendingReview})
}

func (h *OrderHandler) Finalize(c *gin.Context) {
	var req actorReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	err := h.order.Finalize(c.Request.Context(), order.FinalizeCommand{
		OrderID:  types.ID(c.Param("id")),
		ClientID: types.ID(req.ClientID),
		Tip:      types.Cents(req.TipCents),
	})
	if err != nil {
		writeDomainError(c, err)
		return
	}
	o, err := h.order.Get(c.Request.Context(), types.ID(c.Param("id")))
	if err != nil {
		writeDomainError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{
		"status":          o.Status,
		"total":           money(o.Total),
		"commission":      money(o.CommissionAmount),
		"provider_amount": money(o.ProviderAmount),
	})
}

func (h *OrderHandler) CancelByClient(c *gin.Context) {
	var req actorReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	err := h.order.CancelByClient(c.Request.Context(), order.ClientCancelCommand{
		OrderID:  types.ID(c.Param("id")),
		ClientID: types.ID(req.ClientID),
		Reason:   req.Reason,
	})
	if err != nil {
		writeDomainError(c, err)
		return
	}
	o, err := h.order.Get(c.Request.Context(), types.ID(c.Param("id")))
	if err != nil {
		writeDomainError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{
		"status":     order.StatusCancelled,
		"cancel_fee": money(o.ClientCancelFee),
	})
}

func (h *OrderHandler) CancelByProvider(c *gin.Context) {
	var req actorReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	err := h.order.CancelByProvider(c.Request.Context(), order.ProviderCancelCommand{
		OrderID:    types.ID(c.Param("id")),
		ProviderID: types.ID(req.ProviderID),
		Reason:     req.Reason,
	})
	if err != nil {
		writeDomainError(c, err)
		return
	}
	o, err := h.order.Get(c.Request.Context(), types.ID(c.Param("id")))
	if err != nil {
		writeDomainError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{
		"status":     order.StatusPending,
		"cancel_fee": money(o.ProviderCancelFee),
	})
}

func orderJSON(o *order.Order) gin.H {
	out := gin.H{
		"order_id":         o.ID,
		"service_id":       o.ServiceID,
		"client_id":        o.ClientID,
		"city":             o.City,
		"scheduled_at":     o.ScheduledAt.Format(time.RFC3339),
		"duration_minutes": o.DurationMinutes,
		"pricing_mode":     o.PricingMode,
		"formula":          o.Formula,
		"status":           o.Status,
		"payment_status":   o.PaymentStatus,
		"breakdown": gin.H{
			"base_price":        money(o.BasePrice),
			"formula_fee":       money(o.FormulaFee),
			"night_fee":         money(o.NightFee),
			"nights_count":      o.NightsCount,
			"distance_fee":      money(o.DistanceFee),
			"extra_distance_km": o.ExtraDistanceKm,
			"distance_known":    o.DistanceKnown,
			"total":             money(o.Total),
		},
	}
	if o.ProviderID != nil {
		out["provider_id"] = *o.ProviderID
	}
	if o.PricingMode == order.ModeBidding {
		bid := gin.H{}
		if o.UserProposedPrice != nil {
			bid["proposed_price"] = money(*o.UserProposedPrice)
		}
		if o.BidExpiryTime != nil {
			bid["expiry_time"] = o.BidExpiryTime.Format(time.RFC3339)
		}
		out["bidding"] = bid
	}
	if o.Status == order.StatusCompleted {
		out["tip"] = money(o.Tip)
		out["commission"] = money(o.CommissionAmount)
		out["provider_amount"] = money(o.ProviderAmount)
	}
	if o.ProviderCancelled {
		out["provider_cancelled"] = true
		out["provider_cancel_fee"] = money(o.ProviderCancelFee)
	}
	return out
}
