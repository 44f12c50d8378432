package router

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/google/uuid"

	"github.com/josh-kwaku/bank-ledger/api"
	"github.com/josh-kwaku/bank-ledger/internal/auth"
	"github.com/josh-kwaku/bank-ledger/internal/handler"
	"github.com/josh-kwaku/bank-ledger/internal/metrics"
	"github.com/josh-kwaku/bank-ledger/internal/middleware"
	"github.com/josh-kwaku/bank-ledger/internal/repository"
)

type IdempotencyStore interface {
	Get(ctx context.Context, key string, customerID uuid.UUID) (*repository.IdempotencyCacheEntry, error)
	Reserve(ctx context.Context, entry *repository.IdempotencyCacheEntry) (bool, error)
	Complete(ctx context.Context, entry *repository.IdempotencyCacheEntry) error
	Release(ctx context.Context, key string, customerID uuid.UUID) error
}

type Deps struct {
	Auth           *handler.AuthHandler
	Customers      *handler.CustomerHandler
	Health         *handler.HealthHandler
	Tokens         *auth.Credentials
	Idempotency    IdempotencyStore
	IdempotencyTTL time.Duration
	Metrics        *metrics.Collector
	AllowedOrigins []string
}

func New(d Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Tracing)
	r.Use(middleware.Recovery)
	r.Use(middleware.Logging)
	r.Use(middleware.Metrics(d.Metrics))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   d.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Idempotency-Key", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID", "X-Idempotent-Replayed"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/health", d.Health.Liveness)
	r.Get("/health/ready", d.Health.Readiness)
	r.Method(http.MethodGet, "/metrics", d.Metrics.Handler())
	r.Get("/docs", handler.ServeDocs())
	r.Get("/docs/openapi.yaml", handler.ServeSpec(api.OpenAPI))

	r.Post("/auth/signup", d.Auth.Signup)
	r.Post("/auth/login", d.Auth.Login)

	r.Route("/customers", func(r chi.Router) {
		r.Use(middleware.Auth(d.Tokens))

		r.Get("/", d.Customers.List)
		r.Post("/", d.Customers.Create)
		r.Get("/{id}", d.Customers.Get)
		r.With(middleware.Idempotency(d.Idempotency, d.IdempotencyTTL)).
			Post("/{id}/movements", d.Customers.AddMovement)
		r.Get("/{id}/movements", d.Customers.ListMovements)
		r.Get("/{id}/reports", d.Customers.Reports)
	})

	return r
}
