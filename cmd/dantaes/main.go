package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/luphoeux/dantaes/internal/amqp"
	"github.com/luphoeux/dantaes/internal/cache"
	"github.com/luphoeux/dantaes/internal/config"
	"github.com/luphoeux/dantaes/internal/farms"
	apphttp "github.com/luphoeux/dantaes/internal/http"
	"github.com/luphoeux/dantaes/internal/ledger"
	applog "github.com/luphoeux/dantaes/internal/log"
	"github.com/luphoeux/dantaes/internal/pricing"
	"github.com/luphoeux/dantaes/internal/sheet"
	gsheet "github.com/luphoeux/dantaes/internal/sheet/google"
	"github.com/luphoeux/dantaes/internal/store"
	"github.com/luphoeux/dantaes/internal/worker"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := applog.New(applog.Config{
		Level:     applog.ParseLevel(os.Getenv("LOG_LEVEL")),
		Component: applog.ComponentApp,
		JSON:      os.Getenv("LOG_FORMAT") == "json",
	})
	applog.SetDefault(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	kv, err := store.NewKV(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to open local store", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer kv.Close()

	controller := ledger.NewController(store.NewOverrideStore(kv))
	if err := controller.Restore(context.Background()); err != nil {
		logger.Error("Failed to restore local entries", "error", err)
		os.Exit(1)
	}

	// Feed sources: published TSV export by default, Sheets API when
	// configured.
	var feed, farmsFeed sheet.Source
	switch cfg.SheetBackend {
	case "google":
		cli, err := gsheet.NewFromEnv(context.Background())
		if err != nil {
			logger.Error("Failed to initialize Google Sheets client", "error", err)
			os.Exit(1)
		}
		feed = cli
		farmsFeed = cli.FarmsSource()
		logger.Info("Initialized Google Sheets backend")
	default:
		feed = sheet.NewFetcher(cfg.SheetURL)
		if cfg.FarmsSheetURL != "" {
			farmsFeed = sheet.NewFetcher(cfg.FarmsSheetURL)
		}
		logger.Info("Initialized TSV feed backend", "url", cfg.SheetURL)
	}

	priceSvc := pricing.NewService(pricing.NewClient(cfg.PriceProxyURL), kv)
	catalog := farms.NewCatalog(priceSvc)

	sweeper := cache.NewManager(30 * time.Minute)
	for _, c := range priceSvc.Caches() {
		sweeper.Register(c)
	}
	sweeper.Start(10 * time.Minute)
	defer sweeper.Stop()

	refresher := worker.NewRefreshWorker(feed, farmsFeed, store.NewSourceCache(kv),
		controller, catalog, priceSvc, cfg.QuietHoursStart, cfg.QuietHoursEnd)

	// Warm start: serve the last good feed (flagged stale) until the
	// first live fetch lands.
	if err := refresher.SeedFromCache(context.Background()); err != nil {
		logger.Warn("Feed cache seed failed", "error", err)
	}

	// Entry write-back is optional; without a broker manual entries stay
	// local-only.
	var publisher apphttp.EntryPublisher
	if cfg.AMQPURL != "" {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", "error", err)
			os.Exit(1)
		}
		defer amqpClient.Close()
		publisher = amqpClient
		logger.Info("Entry write-back enabled", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	} else {
		logger.Info("Entry write-back disabled - no AMQP_URL provided")
	}

	srv := apphttp.NewServer(":"+cfg.Port, controller, priceSvc, catalog, refresher, publisher)
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 10 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		if err := refresher.Run(ctx, cfg.FeedRefreshInterval, cfg.PriceRefreshInterval); err != nil && err != context.Canceled {
			logger.Error("Refresh worker stopped", "error", err)
		}
	}()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		cancel()
	}()

	logger.Info("Starting dantaes server", "port", cfg.Port, "backend", cfg.SheetBackend)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("Server stopped gracefully")
}
