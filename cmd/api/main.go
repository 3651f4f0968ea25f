package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/velvetcharms/storefront-backend/api/controllers"
	"github.com/velvetcharms/storefront-backend/api/routes"
	"github.com/velvetcharms/storefront-backend/internal/catalogue"
	"github.com/velvetcharms/storefront-backend/internal/contact"
	"github.com/velvetcharms/storefront-backend/internal/orders"
	"github.com/velvetcharms/storefront-backend/internal/uploads"
	"github.com/velvetcharms/storefront-backend/pkg/config"
	"github.com/velvetcharms/storefront-backend/pkg/db"
	"github.com/velvetcharms/storefront-backend/pkg/logger"
	"github.com/velvetcharms/storefront-backend/pkg/metrics"
	"github.com/velvetcharms/storefront-backend/pkg/migrate"
	"github.com/velvetcharms/storefront-backend/pkg/paypal"
	"github.com/velvetcharms/storefront-backend/pkg/redis"
	"github.com/velvetcharms/storefront-backend/pkg/storage"
)

const shutdownTimeout = 15 * time.Second

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
		Level:       cfg.App.LogLevel,
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if cfg.DB.AutoMigrate {
		sqlDB, err := dbClient.SQL()
		if err == nil {
			err = migrate.Up(ctx, sqlDB, cfg.DB.Driver)
		}
		if err != nil {
			logg.Error(ctx, "failed to run migrations", err)
			os.Exit(1)
		}
	}

	readiness := map[string]controllers.Pinger{"db": dbClient}
	deps := routes.Dependencies{Config: cfg, Logger: logg, Readiness: readiness}

	if cfg.Redis.Enabled() {
		redisClient, err := redis.New(ctx, cfg.Redis, logg)
		if err != nil {
			logg.Error(ctx, "failed to bootstrap redis", err)
			os.Exit(1)
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				logg.Error(context.Background(), "error closing redis", err)
			}
		}()
		readiness["redis"] = redisClient
		deps.Idempotency = redisClient
		deps.Sessions = func(sessionID string) (storage.Backend, error) {
			return storage.NewSession(redisClient, sessionID, cfg.Redis.SessionTTL)
		}
	} else {
		logg.Warn(ctx, "redis not configured; session cart and wishlist routes disabled")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	deps.Gatherer = registry

	switch {
	case cfg.App.IsProd() && !cfg.PayPal.IsLive():
		logg.Warn(ctx, "production app is using the paypal sandbox; no real payments will be taken")
	case cfg.App.IsDev() && cfg.PayPal.IsLive():
		logg.Warn(ctx, "dev app is using live paypal; real funds will move")
	}

	provider, err := paypal.NewClient(ctx, cfg.PayPal, logg)
	if err != nil {
		logg.Error(ctx, "failed to create paypal client", err)
		os.Exit(1)
	}
	deps.Orders, err = orders.NewService(orders.ServiceParams{
		Provider: provider,
		Logger:   logg,
		Metrics:  metrics.NewPaymentMetrics(registry),
	})
	if err != nil {
		logg.Error(ctx, "failed to create order service", err)
		os.Exit(1)
	}
	deps.Builder, err = orders.NewBuilder(cfg.PayPal)
	if err != nil {
		logg.Error(ctx, "failed to create order builder", err)
		os.Exit(1)
	}

	loader := catalogue.NewLoader(cfg.Catalogue.Sources, catalogue.Options{
		Fetcher:  catalogue.NewFetcher(cfg.Catalogue.Timeout, cfg.Catalogue.Dir),
		Logger:   logg,
		Recorder: metrics.NewCatalogueMetrics(registry),
	})
	if _, report := loader.Get(ctx); report.Err != nil {
		logg.Warn(logg.WithField(ctx, "failed_sources", report.Failed), "catalogue loaded partially")
	}
	deps.Catalogue = loader
	go reloadOnHangup(ctx, loader, logg)

	deps.Contact, err = contact.NewService(contact.NewRepository(dbClient.DB()), logg)
	if err != nil {
		logg.Error(ctx, "failed to create contact service", err)
		os.Exit(1)
	}
	deps.Uploads, err = uploads.NewService(uploads.NewRepository(dbClient.DB()), cfg.Upload, logg)
	if err != nil {
		logg.Error(ctx, "failed to create upload service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"addr":        addr,
		"paypal_env":  cfg.PayPal.Environment(),
		"redis_ready": cfg.Redis.Enabled(),
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:              addr,
		Handler:           routes.NewRouter(deps),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serverErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		logg.Info(context.Background(), "shutting down api server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(shutdownCtx, "graceful shutdown failed", err)
		}
	}
}

// reloadOnHangup refetches every catalogue source when the process gets SIGHUP.
func reloadOnHangup(ctx context.Context, loader *catalogue.Loader, logg *logger.Logger) {
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)
	for {
		select {
		case <-ctx.Done():
			return
		case <-hup:
			_, report := loader.Reload(ctx)
			logg.Info(logg.WithFields(ctx, map[string]any{
				"products":       report.Products,
				"failed_sources": report.Failed,
			}), "catalogue reloaded")
		}
	}
}
