package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/andes-erp/andes-erp/internal/app"
	"github.com/andes-erp/andes-erp/internal/observability"
	"github.com/andes-erp/andes-erp/internal/platform/db"
	"github.com/andes-erp/andes-erp/internal/quota"
	"github.com/andes-erp/andes-erp/jobs"
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

	metrics := observability.NewMetrics()
	quotaRepo := quota.NewRepository(pool)
	rollHandler := jobs.NewQuotaRollHandler(quotaRepo, logger, metrics)

	rollTask, err := jobs.NewQuotaRollTask(jobs.QuotaRollPayload{})
	if err != nil {
		logger.Error("build quota roll task", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskTypeQuotaRollPeriod, Handler: rollHandler},
		},
		Cron: []jobs.CronRegistration{
			// First day of the month, shortly after the period boundary.
			{Spec: "10 0 1 * *", Task: rollTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
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
