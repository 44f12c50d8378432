package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/josh-kwaku/bank-ledger/internal/auth"
	"github.com/josh-kwaku/bank-ledger/internal/domain"
)

// CustomerStore persists customers with their embedded account. Writes to an
// existing account go through CompareAndSwapAccount only, which must apply
// the new account state and its appended movements atomically or not at all.
type CustomerStore interface {
	Create(ctx context.Context, c *domain.Customer) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Customer, error)
	GetByEmail(ctx context.Context, email string) (*domain.Customer, error)
	List(ctx context.Context) ([]domain.Customer, error)
	CompareAndSwapAccount(ctx context.Context, customerID uuid.UUID, expectedVersion int64, account domain.Account) error
	MovementTotals(ctx context.Context, customerID uuid.UUID) ([]domain.MovementTotal, error)
}

type passwordHasher interface {
	HashPassword(password string) (string, error)
}

type credentialService interface {
	ComparePassword(hash, password string) error
	IssueToken(customerID uuid.UUID, username string) (string, error)
}

type movementRecorder interface {
	MovementAdded(t domain.MovementType)
	MovementConflict()
}

type loginRecorder interface {
	LoginAttempt(outcome string)
}

var (
	_ passwordHasher    = (*auth.Credentials)(nil)
	_ credentialService = (*auth.Credentials)(nil)
)
