package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/spf13/cobra"

	"github.com/nabeeghrb/netsuite-rb/cmd/hookd/cli"
	"github.com/nabeeghrb/netsuite-rb/internal/accounting/transactions"
	"github.com/nabeeghrb/netsuite-rb/internal/app"
	"github.com/nabeeghrb/netsuite-rb/internal/hooks"
	"github.com/nabeeghrb/netsuite-rb/internal/inventory"
	"github.com/nabeeghrb/netsuite-rb/internal/messages"
	"github.com/nabeeghrb/netsuite-rb/internal/observability"
	"github.com/nabeeghrb/netsuite-rb/internal/platform/cache"
	"github.com/nabeeghrb/netsuite-rb/internal/platform/db"
	"github.com/nabeeghrb/netsuite-rb/internal/sales/orders"
	"github.com/nabeeghrb/netsuite-rb/internal/shared"
	"github.com/nabeeghrb/netsuite-rb/jobs"
)

func main() {
	root := &cobra.Command{
		Use:           "hookd",
		Short:         "Record hook decision service",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve()
		},
	}
	root.AddCommand(cli.NewHashTokenCommand())
	root.AddCommand(cli.NewAssignBinCommand())
	root.AddCommand(cli.NewQueueStatsCommand())

	if err := root.Execute(); err != nil {
		slog.Default().Error("hookd", slog.Any("error", err))
		os.Exit(1)
	}
}

func serve() error {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		return err
	}

	logger := app.NewLogger(cfg)

	dbpool, err := db.New(ctx, cfg.PGDSN, db.Options{})
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		return err
	}
	defer dbpool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Warn("redis ping", slog.Any("error", err))
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	auditLogger := shared.NewAuditLogger(dbpool)
	metrics := observability.NewMetrics()

	inventoryService := inventory.NewService(
		inventory.NewRepository(dbpool),
		inventory.NewCache(redisClient, cfg.ItemCacheTTL),
		logger,
	)

	orderService := orders.NewService(orders.NewRepository(dbpool), inventoryService, auditLogger, orders.ServiceConfig{
		SplitLocationID:   cfg.SplitLocationID,
		SplitCustomerID:   cfg.SplitCustomerID,
		SplitShipMethodID: cfg.SplitShipMethodID,
		LookupConcurrency: cfg.SplitLookupConcurrency,
		POScope:           cfg.PODuplicateScope,
	}, logger)

	redisOpts := asynq.RedisClientOpt{Addr: cfg.RedisAddr}
	jobClient, err := jobs.NewClient(redisOpts)
	if err != nil {
		logger.Error("init job client", slog.Any("error", err))
		return err
	}
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()

	inspector := asynq.NewInspector(redisOpts)
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()

	hookHandler := hooks.NewHandler(logger, hooks.Deps{
		Orders:       orderService,
		Queue:        jobClient,
		Transactions: transactions.NewService(transactions.NewRepository(dbpool), logger),
		Messages:     messages.NewService(cfg.ReplyAllStripEmails, cfg.ProformaTemplateIDs, logger),
		Items:        inventoryService,
		Metrics:      metrics,
		Tokens:       shared.NewTokenVerifier(cfg.HookTokenHash),
	})

	router := app.NewRouter(app.RouterParams{
		Logger:      logger,
		Config:      cfg,
		HookHandler: hookHandler,
		JobHandler:  jobs.NewHandler(inspector, logger),
		Metrics:     metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
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
	return nil
}
