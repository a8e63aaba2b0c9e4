// README: Quote preview handler; prices a booking without persisting it.
package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"homely/internal/modules/pricing"
	"homely/internal/types"
)

type QuoteHandler struct {
	pricing *pricing.Service
}

func NewQuoteHandler(svc *pricing.Service) *QuoteHandler {
	return &QuoteHandler{pricing: svc}
}

type quoteReq struct {
	City            string  `json:"city"`
	BasePriceCents  int64   `json:"base_price_cents"`
	Formula         string  `json:"formula"`
	ScheduledAt     string  `json:"scheduled_at"`
	DurationMinutes int     `json:"duration_minutes"`
	DistanceKm      float64 `json:"distance_km"`
	DistanceKnown   bool    `json:"distance_known"`
}

func (h *QuoteHandler) Preview(c *gin.Context) {
	var req quoteReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	scheduledAt, err := time.Parse(time.RFC3339, req.ScheduledAt)
	if err != nil {
		writeError(c, http.StatusBadRequest, "scheduled_at must be RFC3339")
		return
	}
	b, err := h.pricing.Preview(c.Request.Context(), req.City, pricing.QuoteInput{
		BasePrice:     types.Cents(req.BasePriceCents),
		Formula:       pricing.Formula(req.Formula),
		DistanceKm:    req.DistanceKm,
		DistanceKnown: req.DistanceKnown,
		ScheduledAt:   scheduledAt,
		Duration:      time.Duration(req.DurationMinutes) * time.Minute,
	})
	if err != nil {
		writeDomainError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{
		"base_price":        money(b.BasePrice),
		"formula_fee":       money(b.FormulaFee),
		"night_fee":         money(b.NightFee),
		"nights_count":      b.NightsCount,
		"distance_fee":      money(b.DistanceFee),
		"extra_distance_km": b.ExtraDistanceKm,
		"distance_known":    b.DistanceKnown,
		"total":             money(b.Total),
	})
}
