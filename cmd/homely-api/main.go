// README: Entry point; loads config, wires module services, starts the HTTP server.
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"homely/internal/config"
	"homely/internal/geo"
	httptransport "homely/internal/http"
	"homely/internal/infra"
	"homely/internal/modules/bidding"
	"homely/internal/modules/catalog"
	"homely/internal/modules/order"
	"homely/internal/modules/pricing"
	"homely/internal/modules/provider"
	"homely/internal/notify"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	logger, err := infra.NewLogger(cfg.Log.Level)
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbPool, err := infra.NewDB(ctx, cfg.DB.DSN)
	if err != nil {
		logger.Fatal("connect postgres", zap.Error(err))
	}
	defer dbPool.Close()

	if err := infra.EnsureSchema(ctx, dbPool); err != nil {
		logger.Fatal("ensure schema", zap.Error(err))
	}

	redisClient := infra.NewRedis(cfg.Redis.Addr)

	var resolver geo.Resolver = geo.HaversineResolver{}
	if cfg.Maps.APIKey != "" {
		mapsResolver, err := geo.NewMapsResolver(cfg.Maps.APIKey)
		if err != nil {
			logger.Fatal("maps client", zap.Error(err))
		}
		resolver = mapsResolver
	}

	notifier := notify.NewRedisNotifier(redisClient, logger)

	pricingStore := pricing.NewPGStore(dbPool)
	pricingSvc := pricing.NewService(pricingStore)

	catalogStore := catalog.NewPGStore(dbPool)
	providerStore := provider.NewPGStore(dbPool, redisClient)

	orderStore := order.NewPGStore(dbPool)
	orderSvc := order.NewService(orderStore, order.Deps{
		Catalog:   catalogStore,
		Providers: providerStore,
		Rates:     pricingStore,
		Geo:       resolver,
		Notifier:  notifier,
		Cancel:    cfg.Cancel,
		Log:       logger,
	})

	bidStore := bidding.NewPGStore(dbPool)
	biddingSvc := bidding.NewService(bidStore, orderSvc, orderSvc)

	handler := httptransport.NewRouter(httptransport.RouterDeps{
		Order:     orderSvc,
		Bidding:   biddingSvc,
		Pricing:   pricingSvc,
		Providers: providerStore,
		Log:       logger,
	})

	server := &http.Server{Addr: cfg.HTTP.Addr, Handler: handler}

	go func() {
		<-ctx.Done()
		_ = server.Shutdown(context.Background())
	}()

	logger.Info("listening", zap.String("addr", cfg.HTTP.Addr))
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatal("http server", zap.Error(err))
	}
}
