package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"budgetwise/internal/amqp"
	"budgetwise/internal/cli"
	"budgetwise/internal/export"
	apphttp "budgetwise/internal/http"
	"budgetwise/internal/insights"
	"budgetwise/internal/log"
	"budgetwise/internal/services"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(log.ComponentApp)

	logger.Info("Starting budgetwise")

	cfg := cli.LoadAndValidateConfig(logger)

	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	defer repo.Close()

	// AMQP is optional. Without a broker the app runs standalone; events
	// simply are not published and no worker delivers notifications.
	var publisher services.EventPublisher
	if cfg.AMQPURL != "" {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, continuing without notifications", "error", err)
		} else {
			defer amqpClient.Close()
			publisher = amqpClient
			logger.Info("AMQP client initialized", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
		}
	} else {
		logger.Info("AMQP disabled, notifications will not be delivered")
	}

	budgetService := services.NewBudgetService(repo)
	transactionService := services.NewTransactionService(repo, budgetService, publisher)
	categoryService := services.NewCategoryService(repo)
	recurringService := services.NewRecurringService(repo)
	summaryService := services.NewSummaryService(repo)
	engine := services.NewRecurringEngine(repo, publisher, cfg.CatchUpAll)

	exporter := export.NewExporter(repo, budgetService)

	var insightsService *insights.Service
	if cfg.AIAPIKey != "" {
		client := insights.NewClient(insights.Config{
			Provider: insights.Provider(cfg.AIProvider),
			APIKey:   cfg.AIAPIKey,
			Model:    cfg.AIModel,
			BaseURL:  cfg.AIBaseURL,
		})
		insightsService = insights.NewService(client, repo, cfg.CurrencySymbol)
		logger.Info("AI insights enabled", "provider", cfg.AIProvider)
	} else {
		logger.Info("AI insights disabled, no AI_API_KEY provided")
	}

	srv := apphttp.NewServer(":"+cfg.Port, apphttp.Deps{
		Transactions: transactionService,
		Categories:   categoryService,
		Budgets:      budgetService,
		Recurring:    recurringService,
		Summary:      summaryService,
		Engine:       engine,
		Exporter:     exporter,
		Insights:     insightsService,
		Currency:     cfg.CurrencySymbol,
	})

	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 10 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Catch up on arrears accumulated while the process was down before
	// taking requests.
	logger.Info("Running startup catch-up pass")
	if count, err := engine.ProcessDueSchedules(ctx, time.Now()); err != nil {
		logger.Error("Startup catch-up finished with failures", "processed", count, "error", err)
	} else {
		logger.Info("Startup catch-up complete", "processed", count)
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Starting HTTP server", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		ticker := time.NewTicker(cfg.CatchUpInterval)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case now := <-ticker.C:
				count, err := engine.ProcessDueSchedules(gctx, now)
				if err != nil {
					logger.Error("Periodic catch-up finished with failures", "processed", count, "error", err)
				} else if count > 0 {
					logger.Info("Periodic catch-up complete", "processed", count)
				}
			}
		}
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		logger.Info("Shutting down HTTP server")
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server error", "error", err)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}
