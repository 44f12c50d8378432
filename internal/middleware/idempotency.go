package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/josh-kwaku/bank-ledger/internal/auth"
	"github.com/josh-kwaku/bank-ledger/internal/handler"
	"github.com/josh-kwaku/bank-ledger/internal/logging"
	"github.com/josh-kwaku/bank-ledger/internal/repository"
)

const (
	idempotencyHeader    = "Idempotency-Key"
	replayedHeader       = "X-Idempotent-Replayed"
	maxIdempotencyKeyLen = 255
)

// pendingLease bounds how long a reservation blocks its key when the request
// that holds it never finishes.
const pendingLease = time.Minute

type idempotencyRepository interface {
	Get(ctx context.Context, key string, customerID uuid.UUID) (*repository.IdempotencyCacheEntry, error)
	Reserve(ctx context.Context, entry *repository.IdempotencyCacheEntry) (bool, error)
	Complete(ctx context.Context, entry *repository.IdempotencyCacheEntry) error
	Release(ctx context.Context, key string, customerID uuid.UUID) error
}

// Idempotency replays the stored response for a repeated Idempotency-Key from
// the same caller. Requests without the header pass through untouched. The
// key is reserved before the handler runs, so concurrent requests sharing it
// execute at most once; the others get 409 while it is in flight. Only 2xx
// responses are kept, so a rejected or failed request can be retried under
// the same key.
func Idempotency(repo idempotencyRepository, ttl time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.Header.Get(idempotencyHeader)
			if key == "" || r.Method == http.MethodGet || r.Method == http.MethodHead || r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}
			if len(key) > maxIdempotencyKeyLen {
				handler.RespondAppError(w, handler.ErrInvalidIdempotencyKey, nil)
				return
			}

			customerID, ok := auth.CustomerIDFromContext(r.Context())
			if !ok {
				handler.RespondAppError(w, handler.ErrUnauthorized, nil)
				return
			}

			log := logging.FromContext(r.Context())

			body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, handler.MaxBodyBytes))
			if err != nil {
				handler.RespondAppError(w, handler.ErrInvalidRequest, nil)
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))

			reqHash := computeHash(r.Method, r.URL.Path, body)
			now := time.Now().UTC()

			reserved, err := repo.Reserve(r.Context(), &repository.IdempotencyCacheEntry{
				Key:         key,
				CustomerID:  customerID,
				RequestHash: reqHash,
				CreatedAt:   now,
				ExpiresAt:   now.Add(pendingLease),
			})
			if err != nil {
				log.Error("idempotency reservation failed", "error", err, "idempotency_key", key)
				handler.RespondAppError(w, handler.ErrInternalError, nil)
				return
			}
			if !reserved {
				replay(w, r, repo, key, customerID, reqHash)
				return
			}

			// The reservation must not outlive a failed or panicking request.
			storeCtx := context.WithoutCancel(r.Context())
			var completed bool
			defer func() {
				if completed {
					return
				}
				if err := repo.Release(storeCtx, key, customerID); err != nil {
					log.Error("idempotency release failed", "error", err, "idempotency_key", key)
				}
			}()

			rec := &responseRecorder{ResponseWriter: w, body: &bytes.Buffer{}, statusCode: http.StatusOK}
			next.ServeHTTP(rec, r)

			if rec.statusCode < 200 || rec.statusCode >= 300 {
				return
			}
			// A 2xx means the mutation happened; if storing it fails, the
			// pending lease keeps the key blocked rather than letting a retry
			// apply it twice.
			completed = true

			err = repo.Complete(storeCtx, &repository.IdempotencyCacheEntry{
				Key:          key,
				CustomerID:   customerID,
				StatusCode:   rec.statusCode,
				ResponseBody: rec.body.Bytes(),
				ExpiresAt:    time.Now().UTC().Add(ttl),
			})
			if err != nil {
				log.Error("idempotency cache store failed", "error", err, "idempotency_key", key)
			}
		})
	}
}

func replay(w http.ResponseWriter, r *http.Request, repo idempotencyRepository, key string, customerID uuid.UUID, reqHash string) {
	log := logging.FromContext(r.Context())

	cached, err := repo.Get(r.Context(), key, customerID)
	if err != nil {
		log.Error("idempotency cache lookup failed", "error", err, "idempotency_key", key)
		handler.RespondAppError(w, handler.ErrInternalError, nil)
		return
	}

	switch {
	case cached == nil:
		// released or expired between Reserve and Get
		handler.RespondAppError(w, handler.ErrIdempotencyInProgress, nil)
	case cached.RequestHash != reqHash:
		handler.RespondAppError(w, handler.ErrIdempotencyConflict, nil)
	case cached.Pending():
		handler.RespondAppError(w, handler.ErrIdempotencyInProgress, nil)
	default:
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set(replayedHeader, "true")
		w.WriteHeader(cached.StatusCode)
		if _, err := w.Write(cached.ResponseBody); err != nil {
			log.Error("failed to write idempotent replay", "error", err, "idempotency_key", key)
		}
	}
}

func computeHash(method, path string, body []byte) string {
	h := sha256.New()
	h.Write([]byte(method))
	h.Write([]byte(path))
	h.Write(body)
	return hex.EncodeToString(h.Sum(nil))
}

type responseRecorder struct {
	http.ResponseWriter
	statusCode int
	body       *bytes.Buffer
}

func (r *responseRecorder) WriteHeader(code int) {
	r.statusCode = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *responseRecorder) Write(b []byte) (int, error) {
	r.body.Write(b)
	return r.ResponseWriter.Write(b)
}
