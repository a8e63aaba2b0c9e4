// README: Base handler utilities (JSON helpers, error mapping).
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"homely/internal/modules/bidding"
	"homely/internal/modules/catalog"
	"homely/internal/modules/order"
	"homely/internal/modules/pricing"
	"homely/internal/modules/provider"
	"homely/internal/types"
)

type errorResponse struct {
	Error string `json:"error"`
}

type moneyJSON struct {
	Cents    int64  `json:"cents"`
	Currency string `json:"currency"`
}

func money(m types.Money) moneyJSON {
	cur := m.Currency
	if cur == "" {
		cur = types.DefaultCurrency
	}
	return moneyJSON{Cents: m.Amount, Currency: cur}
}

func writeJSON(c *gin.Context, status int, v any) {
	c.JSON(status, v)
}

func writeError(c *gin.Context, status int, msg string) {
	writeJSON(c, status, errorResponse{Error: msg})
}

// writeDomainError maps module sentinel errors onto HTTP statuses. Conflicts
// (lost races, bad states) are 409 so clients can distinguish them from
// plain bad input.
func writeDomainError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, order.ErrBadRequest),
		errors.Is(err, bidding.ErrBadRequest),
		errors.Is(err, pricing.ErrInvalidFormula),
		errors.Is(err, pricing.ErrInvalidBasePrice):
		writeError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, order.ErrNotFound),
		errors.Is(err, bidding.ErrNotFound),
		errors.Is(err, catalog.ErrNotFound),
		errors.Is(err, provider.ErrNotFound):
		writeError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, order.ErrForbidden):
		writeError(c, http.StatusForbidden, err.Error())
	case errors.Is(err, order.ErrInvalidState),
		errors.Is(err, order.ErrConflict),
		errors.Is(err, bidding.ErrBiddingClosed),
		errors.Is(err, bidding.ErrBiddingExpired),
		errors.Is(err, bidding.ErrBidResolved):
		writeError(c, http.StatusConflict, err.Error())
	default:
		writeError(c, http.StatusInternalServerError, "internal error")
	}
}
