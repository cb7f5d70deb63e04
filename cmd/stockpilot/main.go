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

	"github.com/stockpilot-wms/stockpilot/internal/app"
	"github.com/stockpilot-wms/stockpilot/internal/auth"
	"github.com/stockpilot-wms/stockpilot/internal/catalog"
	"github.com/stockpilot-wms/stockpilot/internal/movements"
	"github.com/stockpilot-wms/stockpilot/internal/observability"
	"github.com/stockpilot-wms/stockpilot/internal/platform/cache"
	"github.com/stockpilot-wms/stockpilot/internal/platform/db"
	"github.com/stockpilot-wms/stockpilot/internal/shared"
	"github.com/stockpilot-wms/stockpilot/jobs"
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

	sessionManager := shared.NewSessionManager(redisClient, cfg.SessionTTL)
	auditLogger := shared.NewAuditLogger(pool)
	idempotencyStore := shared.NewIdempotencyStore(pool)

	authRepo := auth.NewRepository(pool)
	authService := auth.NewService(authRepo, sessionManager)
	authHandler := auth.NewHandler(logger, authService)

	catalogRepo := catalog.NewRepository(pool)
	catalogService := catalog.NewService(logger, catalogRepo, redisClient)
	catalogHandler := catalog.NewHandler(logger, catalogService)

	moneyFormat, err := movements.NewMoneyFormat(cfg.MoneyLocale, cfg.MoneyCurrency)
	if err != nil {
		logger.Error("init money format", slog.Any("error", err))
		os.Exit(1)
	}

	jobsClient, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Error("init jobs client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := jobsClient.Close(); err != nil {
			logger.Warn("jobs client close", slog.Any("error", err))
		}
	}()

	movementsRepo := movements.NewRepository(pool)
	movementsService := movements.NewService(
		movementsRepo,
		catalogService,
		auditLogger,
		idempotencyStore,
		movements.NewValidator(moneyFormat),
		movements.NewBuilder(nil, nil, moneyFormat),
		jobs.NewDispatcher(jobsClient),
	)
	metrics := observability.NewMetrics()
	movementsHandler := movements.NewHandler(logger, movementsService, metrics)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:           logger,
		Config:           cfg,
		SessionManager:   sessionManager,
		AuthHandler:      authHandler,
		CatalogHandler:   catalogHandler,
		MovementsHandler: movementsHandler,
		JobHandler:       jobHandler,
		Metrics:          metrics,
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
