// Scheduler is a non-HTTP long-running process that sweeps due standing
// orders and direct debits on a cron schedule.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/upbank/core-banking/internal/config"
	"github.com/upbank/core-banking/internal/logging"
	"github.com/upbank/core-banking/internal/repository"
	"github.com/upbank/core-banking/internal/scheduler"
	"github.com/upbank/core-banking/internal/service/mandate"
	"github.com/upbank/core-banking/internal/service/transfer"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logging.Init("upbank-scheduler", cfg.LogLevel, cfg.AppEnv)

	ctx := context.Background()
	pool, err := repository.NewPostgresDB(ctx, cfg.DatabaseURL, repository.PoolConfig{
		MaxOpenConns:     cfg.DBMaxOpenConns,
		MaxIdleConns:     cfg.DBMaxIdleConns,
		ConnMaxLifetimeS: cfg.DBConnMaxLifetimeS,
		ConnMaxIdleTimeS: cfg.DBConnMaxIdleTimeS,
	})
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	system, err := repository.ResolveSystemAccounts(ctx, pool)
	if err != nil {
		slog.Error("failed to resolve system accounts", "error", err)
		os.Exit(1)
	}

	db := repository.NewDB(pool)
	accounts := repository.NewAccountRepository(pool)
	transfers := repository.NewTransferRepository(pool)
	standingOrders := repository.NewStandingOrderRepository(pool)
	directDebits := repository.NewDirectDebitRepository(pool)
	telcos := repository.NewTelcoProviderRepository(pool)

	engine := transfer.NewService(
		accounts, transfers, standingOrders, telcos,
		db, system, time.Duration(cfg.LockTimeoutMs)*time.Millisecond,
	)
	mandates := mandate.NewService(standingOrders, directDebits, engine, db)

	sched := scheduler.New(mandates, cfg.MandateRunSchedule, slog.Default())
	if err := sched.Start(); err != nil {
		slog.Error("failed to start scheduler", "error", err)
		os.Exit(1)
	}
	slog.Info("scheduler started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutdown signal received, stopping scheduler")
	<-sched.Stop().Done()
	slog.Info("scheduler stopped")
}
