package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/luphoeux/dantaes/internal/amqp"
	"github.com/luphoeux/dantaes/internal/config"
	applog "github.com/luphoeux/dantaes/internal/log"
	gsheet "github.com/luphoeux/dantaes/internal/sheet/google"
	"github.com/luphoeux/dantaes/internal/worker"
)

// The worker drains the entry-sync queue and appends accepted manual
// entries back into the shared spreadsheet.
func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := applog.New(applog.Config{
		Level:     applog.ParseLevel(os.Getenv("LOG_LEVEL")),
		Component: applog.ComponentWorker,
		JSON:      os.Getenv("LOG_FORMAT") == "json",
	})
	applog.SetDefault(logger)

	logger.Info("Starting dantaes-worker")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}
	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the sync worker")
		os.Exit(1)
	}

	sheetsClient, err := gsheet.NewFromEnv(context.Background())
	if err != nil {
		logger.Error("Failed to initialize Google Sheets client", "error", err)
		os.Exit(1)
	}

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())
		cancel()
	}()

	syncWorker := worker.NewSyncWorker(sheetsClient)

	logger.Info("Consuming entry-sync messages", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	if err := amqpClient.ConsumeEntrySync(ctx, syncWorker.HandleEntrySync); err != nil && err != context.Canceled {
		logger.Error("Message consumption failed", "error", err)
		os.Exit(1)
	}

	logger.Info("Worker stopped gracefully")
}
