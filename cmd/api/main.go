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

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/josh-kwaku/bank-ledger/internal/auth"
	"github.com/josh-kwaku/bank-ledger/internal/config"
	"github.com/josh-kwaku/bank-ledger/internal/handler"
	"github.com/josh-kwaku/bank-ledger/internal/logging"
	"github.com/josh-kwaku/bank-ledger/internal/metrics"
	"github.com/josh-kwaku/bank-ledger/internal/repository"
	"github.com/josh-kwaku/bank-ledger/internal/repository/memory"
	"github.com/josh-kwaku/bank-ledger/internal/router"
	"github.com/josh-kwaku/bank-ledger/internal/service"
	"github.com/josh-kwaku/bank-ledger/migrations"
)

type customerStore interface {
	service.CustomerStore
	PingContext(ctx context.Context) error
}

type idempotencyStore interface {
	router.IdempotencyStore
	CleanExpired(ctx context.Context) (int64, error)
}

type stores struct {
	customers   customerStore
	idempotency idempotencyStore
	close       func() error
}

func main() {
	// A missing .env file is fine; the environment may already be set.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := logging.Init(os.Stdout, "ledger-api", cfg.LogLevel, cfg.AppEnv)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := openStores(ctx, cfg)
	if err != nil {
		slog.Error("failed to open store", "driver", cfg.StoreDriver, "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := st.close(); err != nil {
			slog.Error("failed to close store", "error", err)
		}
	}()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	collector := metrics.NewCollector(registry)

	creds := auth.NewCredentials(cfg.JWTSecret, cfg.JWTExpiry, cfg.BcryptCost)
	customers := service.NewCustomerService(st.customers, creds, collector, cfg.MovementMaxAttempts)
	authSvc := service.NewAuthService(customers, st.customers, creds, collector, cfg.AuthHideUnknownEmail)

	sweeper := service.NewIdempotencySweeper(st.idempotency, logger, cfg.IdempotencySweepInterval)
	go sweeper.Start(ctx)

	h := router.New(router.Deps{
		Auth:           handler.NewAuthHandler(authSvc),
		Customers:      handler.NewCustomerHandler(customers),
		Health:         handler.NewHealthHandler(st.customers),
		Tokens:         creds,
		Idempotency:    st.idempotency,
		IdempotencyTTL: cfg.IdempotencyTTL,
		Metrics:        collector,
		AllowedOrigins: cfg.CORSAllowedOrigins,
	})

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		slog.Info("server started", "addr", addr, "store", cfg.StoreDriver)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()

	slog.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}

func openStores(ctx context.Context, cfg *config.Config) (*stores, error) {
	if cfg.StoreDriver == config.StoreDriverMemory {
		slog.Warn("using in-memory store, data is lost on restart")
		return &stores{
			customers:   memory.NewCustomerRepository(),
			idempotency: memory.NewIdempotencyRepository(),
			close:       func() error { return nil },
		}, nil
	}

	db, err := repository.NewPostgresDB(ctx, cfg.DatabaseURL, repository.PoolConfig{
		MaxOpenConns:     cfg.DBMaxOpenConns,
		MaxIdleConns:     cfg.DBMaxIdleConns,
		ConnMaxLifetimeS: cfg.DBConnMaxLifetimeS,
		ConnMaxIdleTimeS: cfg.DBConnMaxIdleTimeS,
	})
	if err != nil {
		return nil, fmt.Errorf("openStores: %w", err)
	}

	if cfg.MigrateOnStart {
		if err := repository.Migrate(ctx, db, migrations.FS); err != nil {
			db.Close()
			return nil, fmt.Errorf("openStores: %w", err)
		}
	}

	return postgresStores(db), nil
}

func postgresStores(db *sql.DB) *stores {
	return &stores{
		customers:   repository.NewCustomerRepository(db),
		idempotency: repository.NewIdempotencyRepository(db),
		close:       db.Close,
	}
}
