package memory

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/josh-kwaku/bank-ledger/internal/domain"
	"github.com/josh-kwaku/bank-ledger/internal/ledger"
)

func newCustomer(email string) *domain.Customer {
	return &domain.Customer{
		ID:           uuid.New(),
		Name:         "customer's name",
		Email:        email,
		PasswordHash: "hash",
		Account:      domain.NewAccount("Customer's account", domain.AccountTypePrivate),
		CreatedAt:    time.Now().UTC(),
	}
}

func TestCustomerRepository_CreateAndGet(t *testing.T) {
	repo := NewCustomerRepository()
	ctx := context.Background()
	c := newCustomer("customer@gmail.com")

	require.NoError(t, repo.Create(ctx, c))

	got, err := repo.GetByID(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, c, got)

	byEmail, err := repo.GetByEmail(ctx, "customer@gmail.com")
	require.NoError(t, err)
	require.NotNil(t, byEmail)
	assert.Equal(t, c.ID, byEmail.ID)
}

func TestCustomerRepository_Lookups(t *testing.T) {
	repo := NewCustomerRepository()
	ctx := context.Background()

	_, err := repo.GetByID(ctx, uuid.New())
	require.ErrorIs(t, err, domain.ErrNotFound)

	got, err := repo.GetByEmail(ctx, "nobody@example.com")
	require.NoError(t, err)
	assert.Nil(t, got)

	_, err = repo.MovementTotals(ctx, uuid.New())
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCustomerRepository_DuplicateEmail(t *testing.T) {
	repo := NewCustomerRepository()
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, newCustomer("dup@example.com")))
	err := repo.Create(ctx, newCustomer("dup@example.com"))
	require.ErrorIs(t, err, domain.ErrEmailTaken)
}

func TestCustomerRepository_ListKeepsCreationOrder(t *testing.T) {
	repo := NewCustomerRepository()
	ctx := context.Background()

	emails := []string{"c@example.com", "a@example.com", "b@example.com"}
	for _, e := range emails {
		require.NoError(t, repo.Create(ctx, newCustomer(e)))
	}

	list, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	for i, e := range emails {
		assert.Equal(t, e, list[i].Email)
	}
}

func TestCustomerRepository_ReturnsCopies(t *testing.T) {
	repo := NewCustomerRepository()
	ctx := context.Background()
	c := newCustomer("copy@example.com")
	require.NoError(t, repo.Create(ctx, c))

	got, err := repo.GetByID(ctx, c.ID)
	require.NoError(t, err)
	_, err = ledger.Apply(&got.Account, domain.MovementTypeDeposit, decimal.NewFromInt(5), time.Now())
	require.NoError(t, err)

	again, err := repo.GetByID(ctx, c.ID)
	require.NoError(t, err)
	assert.Empty(t, again.Account.Movements)
	assert.True(t, again.Account.Balance.IsZero())
}

func TestCustomerRepository_CompareAndSwapAccount(t *testing.T) {
	repo := NewCustomerRepository()
	ctx := context.Background()
	c := newCustomer("cas@example.com")
	require.NoError(t, repo.Create(ctx, c))

	first, err := repo.GetByID(ctx, c.ID)
	require.NoError(t, err)
	second, err := repo.GetByID(ctx, c.ID)
	require.NoError(t, err)

	_, err = ledger.Apply(&first.Account, domain.MovementTypeDeposit, decimal.NewFromInt(100), time.Now())
	require.NoError(t, err)
	require.NoError(t, repo.CompareAndSwapAccount(ctx, c.ID, first.Account.Version, first.Account))

	_, err = ledger.Apply(&second.Account, domain.MovementTypeDeposit, decimal.NewFromInt(50), time.Now())
	require.NoError(t, err)
	err = repo.CompareAndSwapAccount(ctx, c.ID, second.Account.Version, second.Account)
	require.ErrorIs(t, err, domain.ErrVersionConflict)

	stored, err := repo.GetByID(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stored.Account.Version)
	assert.True(t, stored.Account.Balance.Equal(decimal.NewFromInt(100)))
	require.Len(t, stored.Account.Movements, 1)

	err = repo.CompareAndSwapAccount(ctx, uuid.New(), 0, stored.Account)
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCustomerRepository_MovementTotals(t *testing.T) {
	repo := NewCustomerRepository()
	ctx := context.Background()
	c := newCustomer("totals@example.com")
	for _, a := range []int64{200, 357, -7777777} {
		typ := domain.MovementTypeDeposit
		if a < 0 {
			typ = domain.MovementTypeWithdrawal
		}
		_, err := ledger.Apply(&c.Account, typ, decimal.NewFromInt(a), time.Now())
		require.NoError(t, err)
	}
	require.NoError(t, repo.Create(ctx, c))

	totals, err := repo.MovementTotals(ctx, c.ID)
	require.NoError(t, err)
	require.Len(t, totals, 2)

	got := map[domain.MovementType]decimal.Decimal{}
	for _, tt := range totals {
		got[tt.Type] = tt.Total
	}
	assert.True(t, got[domain.MovementTypeDeposit].Equal(decimal.NewFromInt(557)))
	assert.True(t, got[domain.MovementTypeWithdrawal].Equal(decimal.NewFromInt(-7777777)))
}
