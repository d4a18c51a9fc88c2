package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"
	"github.com/shopspring/decimal"

	"github.com/ledgerline/ledgerline/internal/app"
	"github.com/ledgerline/ledgerline/internal/ledger"
	"github.com/ledgerline/ledgerline/internal/platform/cache"
	"github.com/ledgerline/ledgerline/internal/platform/db"
	"github.com/ledgerline/ledgerline/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
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

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

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

	threshold, err := decimal.NewFromString(cfg.OverdueReminderThreshold)
	if err != nil {
		logger.Error("parse overdue threshold", slog.Any("error", err))
		os.Exit(1)
	}

	ledgerRepo := ledger.NewRepository(pool)
	ledgerCache := ledger.NewCache(redisClient, cfg.LedgerCacheTTL)
	ledgerService := ledger.NewService(ledgerRepo, ledgerCache, logger)

	client, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Error("init asynq client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := client.Close(); err != nil {
			logger.Warn("asynq client close", slog.Any("error", err))
		}
	}()

	scanJob := jobs.NewOverdueScanJob(pool, ledgerService, client, logger, cfg.CollectionsEmail, threshold)

	scanTask, err := jobs.NewOverdueScanTask(jobs.OverdueScanPayload{})
	if err != nil {
		logger.Error("build overdue scan task", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskLedgerOverdueScan, Handler: scanJob.Handle},
		},
		Cron: []jobs.CronRegistration{
			{Spec: "0 6 * * *", Task: scanTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	if err := worker.Run(ctx); err != nil && err != context.Canceled {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
