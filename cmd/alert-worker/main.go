package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"budgetwise/internal/amqp"
	"budgetwise/internal/cli"
	"budgetwise/internal/export"
	"budgetwise/internal/log"
	"budgetwise/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(log.ComponentWorker)

	logger.Info("Starting alert-worker")

	cfg := cli.LoadAndValidateConfig(logger)

	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the alert worker")
		os.Exit(1)
	}

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	// Google Sheets mirroring is optional; without credentials the worker
	// only writes the notification feed.
	var mirror worker.LedgerMirror
	if cfg.GoogleSpreadsheetID != "" {
		sink, err := export.NewSheetsSinkFromEnv(context.Background())
		if err != nil {
			logger.Error("Failed to initialize Google Sheets sink", "error", err)
			os.Exit(1)
		}
		mirror = sink
		logger.Info("Google Sheets mirroring enabled")
	} else {
		logger.Info("Google Sheets mirroring disabled, no GOOGLE_SPREADSHEET_ID provided")
	}

	alertWorker := worker.NewAlertWorker(cfg.NotificationFeedPath, mirror)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		if err := amqpClient.Consume(ctx, alertWorker); err != nil {
			if err != context.Canceled {
				logger.Error("Message consumption failed", "error", err)
			}
			cancel()
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Info("Shutdown signal received", "signal", sig.String())
	case <-ctx.Done():
		logger.Info("Context cancelled")
	}

	logger.Info("Shutting down alert-worker")
	cancel()

	// Give the consumer a moment to finish the in-flight delivery.
	time.Sleep(2 * time.Second)

	handled, alerted, mirrored := alertWorker.Stats()
	logger.Info("Alert-worker shutdown complete",
		"events_handled", handled,
		"alerts_delivered", alerted,
		"entries_mirrored", mirrored)
}
