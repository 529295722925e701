package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/upbank/core-banking/internal/config"
	"github.com/upbank/core-banking/internal/domain"
	"github.com/upbank/core-banking/internal/handler"
	"github.com/upbank/core-banking/internal/logging"
	"github.com/upbank/core-banking/internal/middleware"
	"github.com/upbank/core-banking/internal/repository"
	"github.com/upbank/core-banking/internal/service/account"
	"github.com/upbank/core-banking/internal/service/mandate"
	"github.com/upbank/core-banking/internal/service/transfer"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logging.Init("upbank-api", cfg.LogLevel, cfg.AppEnv)

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
	users := repository.NewUserRepository(pool)
	cards := repository.NewCardRepository(pool)
	idempotency := repository.NewIdempotencyRepository(pool)

	transferSvc := transfer.NewService(
		accounts, transfers, standingOrders, telcos,
		db, system, time.Duration(cfg.LockTimeoutMs)*time.Millisecond,
	)
	welcome := func(ctx context.Context, tx *sql.Tx, receiverID, amount int64) (*domain.Transfer, error) {
		return transferSvc.ExecuteTx(ctx, tx, transfer.ExecuteRequest{
			SenderID:   system.WelcomeGrant,
			ReceiverID: receiverID,
			Amount:     amount,
			Metadata:   domain.TransferMetadata{Type: domain.TransferTypeWelcome},
		})
	}
	accountSvc := account.NewService(accounts, users, cards, db, cfg.WelcomeGrantAmount, welcome)
	mandateSvc := mandate.NewService(standingOrders, directDebits, transferSvc, db)

	accountHandler := handler.NewAccountHandler(accountSvc, cfg.JWTSecret)
	transferHandler := handler.NewTransferHandler(transferSvc, transfers)
	mandateHandler := handler.NewMandateHandler(transferSvc, mandateSvc)
	telcoHandler := handler.NewTelcoHandler(telcos)
	healthHandler := handler.NewHealthHandler(pool)

	authn := middleware.Auth(cfg.JWTSecret)
	idem := middleware.Idempotency(idempotency)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health/live", healthHandler.Liveness)
	mux.HandleFunc("GET /health/ready", healthHandler.Readiness)

	mux.HandleFunc("POST /api/v1/accounts", accountHandler.Create)
	mux.HandleFunc("POST /api/v1/auth/login", accountHandler.Login)

	mux.Handle("GET /api/v1/accounts/me", authn(http.HandlerFunc(accountHandler.Me)))
	mux.Handle("DELETE /api/v1/accounts/me", authn(http.HandlerFunc(accountHandler.Close)))
	mux.Handle("GET /api/v1/cards", authn(http.HandlerFunc(accountHandler.Cards)))

	mux.Handle("GET /api/v1/transfers", authn(http.HandlerFunc(transferHandler.History)))
	mux.Handle("POST /api/v1/transfers/peer", authn(idem(http.HandlerFunc(transferHandler.Peer))))
	mux.Handle("POST /api/v1/transfers/bank", authn(idem(http.HandlerFunc(transferHandler.Bank))))
	mux.Handle("POST /api/v1/payments/services", authn(idem(http.HandlerFunc(transferHandler.ServicePayment))))
	mux.Handle("POST /api/v1/payments/government", authn(idem(http.HandlerFunc(transferHandler.GovernmentPayment))))
	mux.Handle("POST /api/v1/payments/telco", authn(idem(http.HandlerFunc(transferHandler.TelcoPayment))))

	mux.Handle("GET /api/v1/telco-providers", authn(http.HandlerFunc(telcoHandler.List)))

	mux.Handle("POST /api/v1/standing-orders", authn(http.HandlerFunc(mandateHandler.CreateStandingOrder)))
	mux.Handle("GET /api/v1/standing-orders", authn(http.HandlerFunc(mandateHandler.ListStandingOrders)))
	mux.Handle("DELETE /api/v1/standing-orders/{id}", authn(http.HandlerFunc(mandateHandler.DeleteStandingOrder)))
	mux.Handle("GET /api/v1/direct-debits", authn(http.HandlerFunc(mandateHandler.ListDirectDebits)))
	mux.Handle("PATCH /api/v1/direct-debits/{id}", authn(http.HandlerFunc(mandateHandler.SetDirectDebitActive)))

	root := middleware.Tracing(middleware.Logging(middleware.Recovery(mux)))

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           root,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		slog.Info("server started", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}
