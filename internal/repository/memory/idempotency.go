package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/josh-kwaku/bank-ledger/internal/repository"
)

type idempotencyKey struct {
	key        string
	customerID uuid.UUID
}

type IdempotencyRepository struct {
	mu      sync.Mutex
	entries map[idempotencyKey]repository.IdempotencyCacheEntry
	now     func() time.Time
}

func NewIdempotencyRepository() *IdempotencyRepository {
	return &IdempotencyRepository{
		entries: make(map[idempotencyKey]repository.IdempotencyCacheEntry),
		now:     time.Now,
	}
}

// Get returns nil without an error when no live entry exists.
func (r *IdempotencyRepository) Get(ctx context.Context, key string, customerID uuid.UUID) (*repository.IdempotencyCacheEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[idempotencyKey{key, customerID}]
	if !ok || !e.ExpiresAt.After(r.now()) {
		return nil, nil
	}
	e.ResponseBody = append([]byte(nil), e.ResponseBody...)
	return &e, nil
}

func (r *IdempotencyRepository) Reserve(ctx context.Context, entry *repository.IdempotencyCacheEntry) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	k := idempotencyKey{entry.Key, entry.CustomerID}
	if existing, ok := r.entries[k]; ok && existing.ExpiresAt.After(r.now()) {
		return false, nil
	}
	e := *entry
	e.StatusCode = repository.StatusPending
	e.ResponseBody = nil
	r.entries[k] = e
	return true, nil
}

func (r *IdempotencyRepository) Complete(ctx context.Context, entry *repository.IdempotencyCacheEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	k := idempotencyKey{entry.Key, entry.CustomerID}
	existing, ok := r.entries[k]
	if !ok || !existing.Pending() {
		return nil
	}
	existing.StatusCode = entry.StatusCode
	existing.ResponseBody = append([]byte(nil), entry.ResponseBody...)
	existing.ExpiresAt = entry.ExpiresAt
	r.entries[k] = existing
	return nil
}

func (r *IdempotencyRepository) Release(ctx context.Context, key string, customerID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	k := idempotencyKey{key, customerID}
	if existing, ok := r.entries[k]; ok && existing.Pending() {
		delete(r.entries, k)
	}
	return nil
}

func (r *IdempotencyRepository) CleanExpired(ctx context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var n int64
	now := r.now()
	for k, e := range r.entries {
		if !e.ExpiresAt.After(now) {
			delete(r.entries, k)
			n++
		}
	}
	return n, nil
}
