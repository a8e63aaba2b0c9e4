// README: Provider handlers: profile lookup and availability toggling.
package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"homely/internal/modules/provider"
	"homely/internal/types"
)

type ProviderHandler struct {
	providers provider.Store
}

func NewProviderHandler(store provider.Store) *ProviderHandler {
	return &ProviderHandler{providers: store}
}

func (h *ProviderHandler) Get(c *gin.Context) {
	p, err := h.providers.Get(c.Request.Context(), types.ID(c.Param("id")))
	if err != nil {
		writeDomainError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{
		"provider_id":            p.ID,
		"city":                   p.City,
		"intervention_radius_km": p.InterventionRadiusKm,
		"price_per_extra_km":     money(p.PricePerExtraKm),
		"is_available":           p.IsAvailable,
		"cancellation_count":     p.CancellationCount,
	})
}

// Nearby lists available providers around a point, served from the Redis
// GEO index. Used by clients scouting coverage before posting a bidding order.
func (h *ProviderHandler) Nearby(c *gin.Context) {
	lat, err1 := strconv.ParseFloat(c.Query("lat"), 64)
	lng, err2 := strconv.ParseFloat(c.Query("lng"), 64)
	if err1 != nil || err2 != nil {
		writeError(c, http.StatusBadRequest, "lat and lng are required")
		return
	}
	radiusKm := 10.0
	if v := c.Query("radius_km"); v != "" {
		r, err := strconv.ParseFloat(v, 64)
		if err != nil || r <= 0 {
			writeError(c, http.StatusBadRequest, "invalid radius_km")
			return
		}
		radiusKm = r
	}
	ids, err := h.providers.NearbyAvailable(c.Request.Context(), types.Point{Lat: lat, Lng: lng}, radiusKm)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	if ids == nil {
		ids = []types.ID{}
	}
	writeJSON(c, http.StatusOK, gin.H{"provider_ids": ids})
}

type availabilityReq struct {
	Available bool `json:"available"`
}

func (h *ProviderHandler) SetAvailability(c *gin.Context) {
	var req availabilityReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	if err := h.providers.SetAvailability(c.Request.Context(), types.ID(c.Param("id")), req.Available); err != nil {
		writeDomainError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"is_available": req.Available})
}
