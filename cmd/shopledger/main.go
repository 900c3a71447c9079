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

	"github.com/shopledger/shopledger/internal/app"
	"github.com/shopledger/shopledger/internal/customers"
	"github.com/shopledger/shopledger/internal/inventory"
	"github.com/shopledger/shopledger/internal/ledger"
	ledgerexport "github.com/shopledger/shopledger/internal/ledger/export"
	"github.com/shopledger/shopledger/internal/listcache"
	"github.com/shopledger/shopledger/internal/platform/cache"
	"github.com/shopledger/shopledger/internal/platform/db"
	"github.com/shopledger/shopledger/internal/sales"
	"github.com/shopledger/shopledger/internal/shared"
	"github.com/shopledger/shopledger/jobs"
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
		logger.Warn("redis ping", slog.Any("error", err))
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	jobClient, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Error("init job client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()

	idempotencyStore := shared.NewIdempotencyStore(pool)

	inventoryRepo := inventory.NewRepository(pool)
	inventoryCache := listcache.New(redisClient, "inventory", cfg.ListCacheTTL)
	inventoryService := inventory.NewService(inventoryRepo, inventoryCache, cfg.PageSize)
	inventoryHandler := inventory.NewHandler(logger, inventoryService)

	customersRepo := customers.NewRepository(pool)
	customersCache := listcache.New(redisClient, "customers", cfg.ListCacheTTL)
	customersService := customers.NewService(customersRepo, customersCache, cfg.PageSize)
	customersHandler := customers.NewHandler(logger, customersService)

	salesRepo := sales.NewRepository(pool)
	salesCache := listcache.New(redisClient, "sales", cfg.ListCacheTTL)
	salesService := sales.NewService(salesRepo, customersRepo, salesCache, jobClient, logger, cfg.PageSize)
	salesHandler := sales.NewHandler(logger, salesService, idempotencyStore)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobsHandler := jobs.NewHandler(inspector, logger)

	ledgerRepo := ledger.NewRepository(pool)
	ledgerService := ledger.NewService(ledgerRepo, salesRepo)
	pdfExporter := &ledgerexport.PDFExporter{Endpoint: cfg.GotenbergURL, Client: http.DefaultClient}
	ledgerHandler := ledger.NewHandler(logger, ledgerService, customersRepo, pdfExporter)

	router := app.NewRouter(app.RouterParams{
		Logger:           logger,
		Config:           cfg,
		InventoryHandler: inventoryHandler,
		CustomersHandler: customersHandler,
		SalesHandler:     salesHandler,
		LedgerHandler:    ledgerHandler,
		JobsHandler:      jobsHandler,
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
