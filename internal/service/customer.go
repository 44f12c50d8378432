package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/bank-ledger/internal/domain"
	"github.com/josh-kwaku/bank-ledger/internal/ledger"
	"github.com/josh-kwaku/bank-ledger/internal/logging"
)

type CreateCustomerRequest struct {
	Name        string
	Email       string
	Password    string
	AccountName string
	AccountType domain.AccountType
}

type CustomerService struct {
	customers   CustomerStore
	hasher      passwordHasher
	metrics     movementRecorder
	maxAttempts int
	now         func() time.Time
}

func NewCustomerService(customers CustomerStore, hasher passwordHasher, metrics movementRecorder, maxAttempts int) *CustomerService {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &CustomerService{
		customers:   customers,
		hasher:      hasher,
		metrics:     metrics,
		maxAttempts: maxAttempts,
		now:         time.Now,
	}
}

// NormalizeEmail is applied to every email before it is stored or looked up.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *CustomerService) Create(ctx context.Context, req CreateCustomerRequest) (*domain.Customer, error) {
	log := logging.FromContext(ctx)

	if !req.AccountType.IsValid() {
		return nil, fmt.Errorf("Create: account type %q: %w", req.AccountType, domain.ErrInvalidRequest)
	}

	hash, err := s.hasher.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("Create: %w", err)
	}

	c := &domain.Customer{
		ID:           uuid.New(),
		Name:         strings.TrimSpace(req.Name),
		Email:        NormalizeEmail(req.Email),
		PasswordHash: hash,
		Account:      domain.NewAccount(strings.TrimSpace(req.AccountName), req.AccountType),
		CreatedAt:    s.timestamp(),
	}

	if err := s.customers.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("Create: %w", err)
	}

	log.Info("customer created", "customer_id", c.ID)
	return c, nil
}

func (s *CustomerService) List(ctx context.Context) ([]domain.Customer, error) {
	customers, err := s.customers.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("List: %w", err)
	}
	return customers, nil
}

func (s *CustomerService) GetByID(ctx context.Context, id uuid.UUID) (*domain.Customer, error) {
	c, err := s.customers.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("GetByID: %w", err)
	}
	return c, nil
}

// AddMovement validates the movement, applies it to the customer's account
// and writes the account back with a compare-and-swap on its version. A
// concurrent writer causes a re-read and another attempt; after maxAttempts
// the conflict is returned.
func (s *CustomerService) AddMovement(ctx context.Context, customerID uuid.UUID, t domain.MovementType, amount decimal.Decimal) (*domain.Movement, error) {
	log := logging.FromContext(ctx)

	if err := ledger.Validate(t, amount); err != nil {
		return nil, fmt.Errorf("AddMovement: %w", err)
	}

	for attempt := 1; ; attempt++ {
		c, err := s.customers.GetByID(ctx, customerID)
		if err != nil {
			return nil, fmt.Errorf("AddMovement: %w", err)
		}

		account := c.Account.Clone()
		m, err := ledger.Apply(&account, t, amount, s.timestamp())
		if err != nil {
			return nil, fmt.Errorf("AddMovement: %w", err)
		}

		err = s.customers.CompareAndSwapAccount(ctx, customerID, c.Account.Version, account)
		if err == nil {
			s.metrics.MovementAdded(t)
			log.Info("movement added",
				"customer_id", customerID,
				"type", t,
				"amount", amount.String(),
				"balance", m.Balance.String(),
				"attempt", attempt,
			)
			return &m, nil
		}
		if !errors.Is(err, domain.ErrVersionConflict) {
			return nil, fmt.Errorf("AddMovement: %w", err)
		}

		s.metrics.MovementConflict()
		if attempt >= s.maxAttempts {
			log.Warn("movement conflict retries exhausted", "customer_id", customerID, "attempts", attempt)
			return nil, fmt.Errorf("AddMovement: after %d attempts: %w", attempt, err)
		}
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("AddMovement: %w", err)
		}
		log.Debug("movement conflict, retrying", "customer_id", customerID, "attempt", attempt)
	}
}

func (s *CustomerService) ListMovements(ctx context.Context, customerID uuid.UUID) ([]domain.Movement, error) {
	c, err := s.customers.GetByID(ctx, customerID)
	if err != nil {
		return nil, fmt.Errorf("ListMovements: %w", err)
	}
	return c.Account.Movements, nil
}

func (s *CustomerService) Reports(ctx context.Context, customerID uuid.UUID) ([]domain.MovementTotal, error) {
	totals, err := s.customers.MovementTotals(ctx, customerID)
	if err != nil {
		return nil, fmt.Errorf("Reports: %w", err)
	}
	return totals, nil
}

// Postgres keeps microseconds; truncating here makes the value returned to
// the caller identical to what a later read yields.
func (s *CustomerService) timestamp() time.Time {
	return s.now().UTC().Truncate(time.Microsecond)
}
