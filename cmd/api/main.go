package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	cartcontrollers "github.com/jdazavala/puntoventa-backend/api/controllers/carts"
	"github.com/jdazavala/puntoventa-backend/api/routes"
	"github.com/jdazavala/puntoventa-backend/internal/carts"
	"github.com/jdazavala/puntoventa-backend/internal/catalog"
	"github.com/jdazavala/puntoventa-backend/internal/customers"
	"github.com/jdazavala/puntoventa-backend/internal/rates"
	"github.com/jdazavala/puntoventa-backend/internal/sales"
	"github.com/jdazavala/puntoventa-backend/pkg/config"
	"github.com/jdazavala/puntoventa-backend/pkg/db"
	"github.com/jdazavala/puntoventa-backend/pkg/logger"
	"github.com/jdazavala/puntoventa-backend/pkg/metrics"
	"github.com/jdazavala/puntoventa-backend/pkg/migrate"
	"github.com/jdazavala/puntoventa-backend/pkg/redis"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	engineMetrics := metrics.NewEngineMetrics(prometheus.DefaultRegisterer)

	ratesService, err := rates.NewService(cfg.Rates, logg, engineMetrics)
	if err != nil {
		logg.Error(context.Background(), "failed to create rates service", err)
		os.Exit(1)
	}

	cartStore, err := carts.NewStore(cfg.Carts, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create cart store", err)
		os.Exit(1)
	}
	if err := cartStore.Restore(context.Background(), redisClient, cfg.Carts.RegisterName); err != nil {
		logg.Error(context.Background(), "failed to restore cart snapshot", err)
		os.Exit(1)
	}

	catalogService, err := catalog.NewService(catalog.NewRepository(dbClient.DB()))
	if err != nil {
		logg.Error(context.Background(), "failed to create catalog service", err)
		os.Exit(1)
	}

	customerService, err := customers.NewService(customers.NewRepository(dbClient.DB()))
	if err != nil {
		logg.Error(context.Background(), "failed to create customer service", err)
		os.Exit(1)
	}

	salesRepo := sales.NewRepository(dbClient.DB())
	salesStore, err := sales.NewTxStore(dbClient, salesRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create sales store", err)
		os.Exit(1)
	}
	salesService, err := sales.NewService(salesStore, cartStore, salesRepo, cfg.Sales, logg, engineMetrics)
	if err != nil {
		logg.Error(context.Background(), "failed to create sales service", err)
		os.Exit(1)
	}

	cartController, err := cartcontrollers.NewController(
		cartStore,
		ratesService,
		catalogService,
		customerService,
		salesService,
		redisClient,
		cfg.Carts.RegisterName,
		logg,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create carts controller", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ratesService.Start(ctx)

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx = logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"register": cfg.Carts.RegisterName,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(
			cfg,
			logg,
			cartController,
			catalogService,
			customerService,
			salesService,
			ratesService,
			dbClient,
			redisClient,
		),
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		logg.Info(ctx, "shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logg.Error(shutdownCtx, "error shutting down server", err)
	}
	if err := cartStore.Save(shutdownCtx, redisClient, cfg.Carts.RegisterName); err != nil {
		logg.Error(shutdownCtx, "error saving cart snapshot", err)
	}
}
