package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/stockpilot-wms/stockpilot/internal/app"
	"github.com/stockpilot-wms/stockpilot/internal/catalog"
	"github.com/stockpilot-wms/stockpilot/internal/movements"
	"github.com/stockpilot-wms/stockpilot/internal/platform/cache"
	"github.com/stockpilot-wms/stockpilot/internal/platform/db"
	"github.com/stockpilot-wms/stockpilot/internal/shared"
	"github.com/stockpilot-wms/stockpilot/jobs"
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
		logger.Error("connect postgres", slog.Any("error", err))
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

	auditLogger := shared.NewAuditLogger(pool)
	idempotencyStore := shared.NewIdempotencyStore(pool)

	catalogRepo := catalog.NewRepository(pool)
	catalogService := catalog.NewService(logger, catalogRepo, redisClient)

	moneyFormat, err := movements.NewMoneyFormat(cfg.MoneyLocale, cfg.MoneyCurrency)
	if err != nil {
		logger.Error("init money format", slog.Any("error", err))
		os.Exit(1)
	}

	// The worker posts compensating entries only, so no integration handler.
	movementsRepo := movements.NewRepository(pool)
	movementsService := movements.NewService(
		movementsRepo,
		catalogService,
		auditLogger,
		idempotencyStore,
		movements.NewValidator(moneyFormat),
		movements.NewBuilder(nil, nil, moneyFormat),
		nil,
	)

	compensator := jobs.NewCompensator(logger, movementsService, catalogService)

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskTransferCompensate, Handler: compensator.HandleTransferCompensate},
			{Type: jobs.TaskIdempotencyCleanup, Handler: jobs.NewIdempotencyCleanupHandler(idempotencyStore, 30*24*time.Hour)},
		},
		Cron: []jobs.CronRegistration{
			{Spec: "0 3 * * *", Task: jobs.NewIdempotencyCleanupTask(), Options: []asynq.Option{asynq.MaxRetry(3)}},
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
