package repository_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/josh-kwaku/bank-ledger/internal/auth"
	"github.com/josh-kwaku/bank-ledger/internal/domain"
	"github.com/josh-kwaku/bank-ledger/internal/ledger"
	"github.com/josh-kwaku/bank-ledger/internal/metrics"
	"github.com/josh-kwaku/bank-ledger/internal/repository"
	"github.com/josh-kwaku/bank-ledger/internal/service"
	"github.com/josh-kwaku/bank-ledger/internal/testutil"
)

func TestCustomerRepository_Postgres(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewCustomerRepository(db)
	ctx := context.Background()

	t.Run("create and read back", func(t *testing.T) {
		c := testutil.NewCustomer(t, "create@example.com")
		require.NoError(t, repo.Create(ctx, c))

		got, err := repo.GetByID(ctx, c.ID)
		require.NoError(t, err)
		assert.Equal(t, c.Email, got.Email)
		assert.True(t, got.Account.Balance.IsZero())
		assert.NotNil(t, got.Account.Movements)
		assert.Empty(t, got.Account.Movements)
		assert.True(t, c.CreatedAt.Equal(got.CreatedAt))

		byEmail, err := repo.GetByEmail(ctx, c.Email)
		require.NoError(t, err)
		assert.Equal(t, c.ID, byEmail.ID)

		missing, err := repo.GetByEmail(ctx, "nobody@example.com")
		require.NoError(t, err)
		assert.Nil(t, missing)

		_, err = repo.GetByID(ctx, uuid.New())
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("duplicate email", func(t *testing.T) {
		testutil.SeedCustomer(t, db, "dup@example.com")
		err := repo.Create(ctx, testutil.NewCustomer(t, "dup@example.com"))
		assert.ErrorIs(t, err, domain.ErrEmailTaken)
	})

	t.Run("compare and swap round trip", func(t *testing.T) {
		c := testutil.SeedCustomer(t, db, "cas@example.com")
		now := time.Now().UTC().Truncate(time.Microsecond)

		account := c.Account.Clone()
		for _, amt := range []string{"200", "357.1234"} {
			_, err := ledger.Apply(&account, domain.MovementTypeDeposit, decimal.RequireFromString(amt), now)
			require.NoError(t, err)
		}
		_, err := ledger.Apply(&account, domain.MovementTypeWithdrawal, decimal.RequireFromString("-7777777"), now)
		require.NoError(t, err)

		require.NoError(t, repo.CompareAndSwapAccount(ctx, c.ID, 0, account))

		got, err := repo.GetByID(ctx, c.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(1), got.Account.Version)
		assert.True(t, got.Account.Balance.Equal(account.Balance))
		require.Len(t, got.Account.Movements, 3)
		for i, m := range got.Account.Movements {
			assert.Equal(t, account.Movements[i].Type, m.Type)
			assert.True(t, account.Movements[i].Amount.Equal(m.Amount), "amount %d", i)
			assert.True(t, account.Movements[i].Balance.Equal(m.Balance), "balance %d", i)
		}
		assert.True(t, ledger.Balanced(got.Account))

		err = repo.CompareAndSwapAccount(ctx, c.ID, 0, account)
		assert.ErrorIs(t, err, domain.ErrVersionConflict)
		assert.Equal(t, 3, testutil.CountMovements(t, db, c.ID))

		err = repo.CompareAndSwapAccount(ctx, uuid.New(), 0, account)
		assert.ErrorIs(t, err, domain.ErrNotFound)

		totals, err := repo.MovementTotals(ctx, c.ID)
		require.NoError(t, err)
		require.Len(t, totals, 2)
		assert.Equal(t, domain.MovementTypeDeposit, totals[0].Type)
		assert.True(t, totals[0].Total.Equal(decimal.RequireFromString("557.1234")))
		assert.Equal(t, domain.MovementTypeWithdrawal, totals[1].Type)
		assert.True(t, totals[1].Total.Equal(decimal.RequireFromString("-7777777")))
	})

	t.Run("totals for unknown customer", func(t *testing.T) {
		_, err := repo.MovementTotals(ctx, uuid.New())
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("list in creation order", func(t *testing.T) {
		customers, err := repo.List(ctx)
		require.NoError(t, err)
		require.NotEmpty(t, customers)
		for i := 1; i < len(customers); i++ {
			assert.False(t, customers[i].CreatedAt.Before(customers[i-1].CreatedAt))
		}
	})
}

func TestCustomerService_ConcurrentMovementsPostgres(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewCustomerRepository(db)
	creds := auth.NewCredentials("secret", time.Hour, bcrypt.MinCost)
	svc := service.NewCustomerService(repo, creds, metrics.NewCollector(prometheus.NewRegistry()), 50)

	c := testutil.SeedCustomer(t, db, "concurrent@example.com")

	const writers = 10
	var wg sync.WaitGroup
	errs := make(chan error, writers)
	for range writers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.AddMovement(context.Background(), c.ID, domain.MovementTypeDeposit, decimal.NewFromInt(10))
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}

	assert.True(t, testutil.GetBalance(t, db, c.ID).Equal(decimal.NewFromInt(100)))
	assert.Equal(t, writers, testutil.CountMovements(t, db, c.ID))

	got, err := repo.GetByID(context.Background(), c.ID)
	require.NoError(t, err)
	assert.True(t, ledger.Balanced(got.Account))
}

func TestIdempotencyRepository_Postgres(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewIdempotencyRepository(db)
	ctx := context.Background()
	c := testutil.SeedCustomer(t, db, "idem@example.com")

	now := time.Now().UTC()
	entry := &repository.IdempotencyCacheEntry{
		Key:         "k1",
		CustomerID:  c.ID,
		RequestHash: "hash-1",
		CreatedAt:   now,
		ExpiresAt:   now.Add(time.Minute),
	}
	ok, err := repo.Reserve(ctx, entry)
	require.NoError(t, err)
	require.True(t, ok)

	second := *entry
	second.RequestHash = "hash-2"
	ok, err = repo.Reserve(ctx, &second)
	require.NoError(t, err)
	assert.False(t, ok)

	pending, err := repo.Get(ctx, "k1", c.ID)
	require.NoError(t, err)
	require.NotNil(t, pending)
	assert.True(t, pending.Pending())
	assert.Equal(t, "hash-1", pending.RequestHash)

	done := *entry
	done.StatusCode = 201
	done.ResponseBody = []byte(`{"ok":true}`)
	done.ExpiresAt = now.Add(time.Hour)
	require.NoError(t, repo.Complete(ctx, &done))
	require.NoError(t, repo.Release(ctx, "k1", c.ID))

	got, err := repo.Get(ctx, "k1", c.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.False(t, got.Pending())
	assert.Equal(t, 201, got.StatusCode)
	assert.Equal(t, []byte(`{"ok":true}`), got.ResponseBody)

	none, err := repo.Get(ctx, "k1", uuid.New())
	require.NoError(t, err)
	assert.Nil(t, none)

	released := *entry
	released.Key = "k2"
	ok, err = repo.Reserve(ctx, &released)
	require.NoError(t, err)
	require.True(t, ok)
	require.NoError(t, repo.Release(ctx, "k2", c.ID))
	ok, err = repo.Reserve(ctx, &released)
	require.NoError(t, err)
	assert.True(t, ok, "a released key can be reserved again")

	expired := *entry
	expired.Key = "old"
	expired.ExpiresAt = now.Add(-time.Minute)
	ok, err = repo.Reserve(ctx, &expired)
	require.NoError(t, err)
	require.True(t, ok)

	n, err := repo.CleanExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestIdempotencyRepository_ConcurrentReservePostgres(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewIdempotencyRepository(db)
	c := testutil.SeedCustomer(t, db, "race@example.com")
	now := time.Now().UTC()

	const callers = 8
	var wg sync.WaitGroup
	results := make(chan bool, callers)
	for range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := repo.Reserve(context.Background(), &repository.IdempotencyCacheEntry{
				Key: "shared", CustomerID: c.ID, RequestHash: "h", CreatedAt: now, ExpiresAt: now.Add(time.Minute),
			})
			assert.NoError(t, err)
			results <- ok
		}()
	}
	wg.Wait()
	close(results)

	winners := 0
	for ok := range results {
		if ok {
			winners++
		}
	}
	assert.Equal(t, 1, winners)
}
