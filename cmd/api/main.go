package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/safar/go-order-engine/internal/api"
	"github.com/safar/go-order-engine/internal/config"
	"github.com/safar/go-order-engine/internal/database"
	"github.com/safar/go-order-engine/internal/logger"
	"github.com/safar/go-order-engine/internal/manager"
	"github.com/safar/go-order-engine/internal/metrics"
	"github.com/safar/go-order-engine/internal/notify"
	"github.com/safar/go-order-engine/internal/reconcile"
	"github.com/safar/go-order-engine/internal/store"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 15 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Load config: %v", err)
	}

	if err := logger.Initialize(cfg.LogLevel); err != nil {
		log.Fatalf("Initialize logger: %v", err)
	}
	defer zap.L().Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		zap.L().Fatal("server stopped", zap.Error(err))
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	db, err := database.NewConnection(ctx, &cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	zap.L().Info("connected to database")

	var notifier notify.Notifier = notify.Nop{}
	if cfg.Notify.URL != "" {
		amqp, err := notify.Dial(cfg.Notify.URL, cfg.Notify.Exchange)
		if err != nil {
			return err
		}
		defer amqp.Close()
		notifier = amqp
		zap.L().Info("publishing order updates", zap.String("exchange", cfg.Notify.Exchange))
	}

	m := metrics.New(prometheus.DefaultRegisterer)

	restaurants := store.NewRestaurants(db)
	products := store.NewProducts(db)

	orders := manager.NewOrders(
		restaurants,
		products,
		store.NewOrders(db),
		store.NewTokens(db),
		notifier,
		manager.Options{
			Location:        cfg.Orders.Location(),
			ConfirmationTTL: cfg.Orders.ConfirmationTTL,
			NotifyFailures:  m.NotifyFailures,
		},
	)
	catalog := manager.NewCatalog(restaurants, products)

	uow := store.NewUnitOfWork(db)
	sweeper := reconcile.NewSweeper(reconcile.UnitOfWorkFunc(func(ctx context.Context, fn func(reconcile.Scope) error) error {
		return uow.Do(ctx, func(s *store.Scope) error { return fn(s) })
	}), notifier, m.NotifyFailures)
	runner := reconcile.NewRunner(sweeper.Jobs(), m)

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      api.NewRouter(orders, catalog, m, prometheus.DefaultGatherer),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		zap.L().Info("server starting", zap.String("port", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		zap.L().Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	g.Go(func() error {
		return runner.Run(gctx)
	})

	return g.Wait()
}
