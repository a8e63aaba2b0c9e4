// README: HTTP router registration.
package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"homely/internal/http/handlers"
	"homely/internal/http/middleware"
	"homely/internal/modules/bidding"
	"homely/internal/modules/order"
	"homely/internal/modules/pricing"
	"homely/internal/modules/provider"
)

type RouterDeps struct {
	Order     *order.Service
	Bidding   *bidding.Service
	Pricing   *pricing.Service
	Providers provider.Store
	Log       *zap.Logger
}

func NewRouter(deps RouterDeps) http.Handler {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(middleware.Recovery(deps.Log), middleware.Logging(deps.Log), middleware.Auth())

	orderHandler := handlers.NewOrderHandler(deps.Order)
	orders := r.Group("/api/orders")
	orders.POST("", orderHandler.Create)
	orders.POST("/bidding", orderHandler.CreateBidding)
	orders.GET("/:id", orderHandler.Get)
	orders.POST("/:id/accept", orderHandler.Accept)
	orders.POST("/:id/depart", orderHandler.Depart)
	orders.POST("/:id/arrive", orderHandler.ConfirmArrival)
	orders.POST("/:id/complete", orderHandler.CompleteWork)
	orders.POST("/:id/finalize", orderHandler.Finalize)
	orders.POST("/:id/cancel", orderHandler.CancelByClient)
	orders.POST("/:id/provider-cancel", orderHandler.CancelByProvider)

	bidHandler := handlers.NewBidHandler(deps.Bidding)
	orders.POST("/:id/bids", bidHandler.Place)
	orders.GET("/:id/bids", bidHandler.ListByOrder)
	r.POST("/api/bids/:id/accept", bidHandler.Accept)

	quoteHandler := handlers.NewQuoteHandler(deps.Pricing)
	r.POST("/api/quotes", quoteHandler.Preview)

	providerHandler := handlers.NewProviderHandler(deps.Providers)
	r.GET("/api/providers/nearby", providerHandler.Nearby)
	r.GET("/api/providers/:id", providerHandler.Get)
	r.PUT("/api/providers/:id/availability", providerHandler.SetAvailability)

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})

	return r
}
