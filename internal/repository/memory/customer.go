package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/josh-kwaku/bank-ledger/internal/domain"
	"github.com/josh-kwaku/bank-ledger/internal/ledger"
)

type CustomerRepository struct {
	mu        sync.RWMutex
	customers map[uuid.UUID]*domain.Customer
	byEmail   map[string]uuid.UUID
	order     []uuid.UUID
}

func NewCustomerRepository() *CustomerRepository {
	return &CustomerRepository{
		customers: make(map[uuid.UUID]*domain.Customer),
		byEmail:   make(map[string]uuid.UUID),
	}
}

func (r *CustomerRepository) PingContext(ctx context.Context) error {
	return ctx.Err()
}

func (r *CustomerRepository) Create(ctx context.Context, c *domain.Customer) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byEmail[c.Email]; exists {
		return fmt.Errorf("Create: %w", domain.ErrEmailTaken)
	}
	if _, exists := r.customers[c.ID]; exists {
		return fmt.Errorf("Create: duplicate id %s", c.ID)
	}

	stored := clone(c)
	r.customers[c.ID] = stored
	r.byEmail[c.Email] = c.ID
	r.order = append(r.order, c.ID)
	return nil
}

func (r *CustomerRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Customer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.customers[id]
	if !ok {
		return nil, fmt.Errorf("GetByID: %w", domain.ErrNotFound)
	}
	return clone(c), nil
}

// GetByEmail returns nil without an error when no customer has the email.
func (r *CustomerRepository) GetByEmail(ctx context.Context, email string) (*domain.Customer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byEmail[email]
	if !ok {
		return nil, nil
	}
	return clone(r.customers[id]), nil
}

func (r *CustomerRepository) List(ctx context.Context) ([]domain.Customer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.Customer, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, *clone(r.customers[id]))
	}
	return out, nil
}

func (r *CustomerRepository) CompareAndSwapAccount(ctx context.Context, customerID uuid.UUID, expectedVersion int64, account domain.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.customers[customerID]
	if !ok {
		return fmt.Errorf("CompareAndSwapAccount: %w", domain.ErrNotFound)
	}
	if c.Account.Version != expectedVersion || len(account.Movements) < len(c.Account.Movements) {
		return fmt.Errorf("CompareAndSwapAccount: %w", domain.ErrVersionConflict)
	}

	next := account.Clone()
	next.Name = c.Account.Name
	next.Type = c.Account.Type
	next.Version = expectedVersion + 1
	c.Account = next
	return nil
}

func (r *CustomerRepository) MovementTotals(ctx context.Context, customerID uuid.UUID) ([]domain.MovementTotal, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.customers[customerID]
	if !ok {
		return nil, fmt.Errorf("MovementTotals: %w", domain.ErrNotFound)
	}
	return ledger.Report(c.Account.Movements), nil
}

func clone(c *domain.Customer) *domain.Customer {
	cp := *c
	cp.Account = c.Account.Clone()
	return &cp
}
