package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/shopledger/shopledger/internal/app"
	"github.com/shopledger/shopledger/internal/customers"
	"github.com/shopledger/shopledger/internal/ledger"
	"github.com/shopledger/shopledger/internal/platform/db"
	"github.com/shopledger/shopledger/internal/sales"
	"github.com/shopledger/shopledger/internal/shared"
	"github.com/shopledger/shopledger/jobs"
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

	salesRepo := sales.NewRepository(pool)
	customersRepo := customers.NewRepository(pool)
	ledgerRepo := ledger.NewRepository(pool)
	ledgerService := ledger.NewService(ledgerRepo, salesRepo)
	ledgerTasks := jobs.NewLedgerTasks(ledgerService, customersRepo, logger)
	maintenanceTasks := jobs.NewMaintenanceTasks(shared.NewIdempotencyStore(pool), logger)

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers:  append(ledgerTasks.Handlers(), maintenanceTasks.Handlers()...),
		Cron: []jobs.CronRegistration{
			{Spec: "45 1 * * *", Task: jobs.NewLedgerRebuildAllTask(), Options: []asynq.Option{asynq.MaxRetry(3)}},
			{Spec: "30 2 * * *", Task: jobs.NewIdempotencyCleanupTask()},
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
