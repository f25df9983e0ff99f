package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/urbanedge/storefront-api/internal/api"
	"github.com/urbanedge/storefront-api/internal/cart"
	"github.com/urbanedge/storefront-api/internal/catalog"
	"github.com/urbanedge/storefront-api/internal/config"
	"github.com/urbanedge/storefront-api/internal/mailer"
	"github.com/urbanedge/storefront-api/internal/payment"
	"github.com/urbanedge/storefront-api/internal/pricing"
	"github.com/urbanedge/storefront-api/internal/repository/postgres"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	var logger *zap.Logger
	if cfg.Environment == "production" {
		logger, _ = zap.NewProduction()
	} else {
		logger, _ = zap.NewDevelopment()
	}
	defer logger.Sync()

	logger.Info("Service configuration",
		zap.String("port", cfg.Port),
		zap.String("environment", cfg.Environment),
		zap.String("currency", cfg.Store.Currency))

	db, err := postgres.NewConnection(cfg.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	if err := postgres.RunMigrations(db, cfg.Database.MigrationsPath); err != nil {
		logger.Fatal("Failed to run migrations", zap.Error(err))
	}

	cartStore, err := cart.NewFileStorage(cfg.Store.CartDir)
	if err != nil {
		logger.Fatal("Failed to initialize cart storage", zap.Error(err))
	}

	cat := catalog.New()
	pricer := pricing.NewEngine(
		cfg.Store.TaxRate,
		cfg.Store.FreeShippingThreshold,
		cfg.Store.ShippingRate,
		cat.Coupons(),
	)

	router := api.NewRouter(api.Deps{
		Config:    cfg,
		Catalog:   cat,
		Pricer:    pricer,
		CartStore: cartStore,
		Repos:     postgres.NewRepositories(db, logger),
		Gateway:   payment.NewClient(cfg.Payment, logger),
		Mailer:    mailer.NewClient(cfg.Email, logger),
	}, logger)

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		logger.Info("Starting server", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Forced shutdown", zap.Error(err))
	}
	logger.Info("Server stopped")
}
