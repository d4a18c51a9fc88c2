package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/ledgerline/ledgerline/internal/accounts"
	"github.com/ledgerline/ledgerline/internal/app"
	"github.com/ledgerline/ledgerline/internal/invoices"
	"github.com/ledgerline/ledgerline/internal/ledger"
	"github.com/ledgerline/ledgerline/internal/observability"
	"github.com/ledgerline/ledgerline/internal/platform/cache"
	"github.com/ledgerline/ledgerline/internal/platform/db"
	"github.com/ledgerline/ledgerline/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	dbpool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	accountsRepo := accounts.NewRepository(dbpool)
	accountsService := accounts.NewService(accountsRepo)
	accountsHandler := accounts.NewHandler(logger, accountsService)

	invoicesRepo := invoices.NewRepository(dbpool)
	invoicesService := invoices.NewService(invoicesRepo)
	invoicesHandler := invoices.NewHandler(logger, invoicesService)

	metrics := observability.NewMetrics()

	ledgerRepo := ledger.NewRepository(dbpool)
	ledgerCache := ledger.NewCache(redisClient, cfg.LedgerCacheTTL)
	ledgerService := ledger.NewService(ledgerRepo, ledgerCache, logger)
	ledgerService.SetMetrics(metrics)
	ledgerHandler := ledger.NewHandler(logger, ledgerService)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:          logger,
		Config:          cfg,
		AccountsHandler: accountsHandler,
		InvoicesHandler: invoicesHandler,
		LedgerHandler:   ledgerHandler,
		JobHandler:      jobHandler,
		Metrics:         metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
