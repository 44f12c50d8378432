package testutil

import (
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"github.com/josh-kwaku/bank-ledger/internal/domain"
)

const TestPassword = "Sup3r$ecret"

// NewCustomer builds an unsaved customer with an empty Private account.
func NewCustomer(t *testing.T, email string) *domain.Customer {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(TestPassword), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	return &domain.Customer{
		ID:           uuid.New(),
		Name:         "Test Customer",
		Email:        email,
		PasswordHash: string(hash),
		Account:      domain.NewAccount("Main", domain.AccountTypePrivate),
		CreatedAt:    time.Now().UTC().Truncate(time.Microsecond),
	}
}

func SeedCustomer(t *testing.T, db *sql.DB, email string) *domain.Customer {
	t.Helper()

	c := NewCustomer(t, email)
	_, err := db.Exec(
		`INSERT INTO customers (id, name, email, password_hash, account_name, account_type, balance, version, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		c.ID, c.Name, c.Email, c.PasswordHash, c.Account.Name, c.Account.Type, c.Account.Balance, c.Account.Version, c.CreatedAt,
	)
	if err != nil {
		t.Fatalf("seed customer %s: %v", email, err)
	}
	return c
}

func GetBalance(t *testing.T, db *sql.DB, customerID uuid.UUID) decimal.Decimal {
	t.Helper()

	var balance decimal.Decimal
	err := db.QueryRow(`SELECT balance FROM customers WHERE id = $1`, customerID).Scan(&balance)
	if err != nil {
		t.Fatalf("get balance %s: %v", customerID, err)
	}
	return balance
}

func CountMovements(t *testing.T, db *sql.DB, customerID uuid.UUID) int {
	t.Helper()

	var count int
	err := db.QueryRow(`SELECT COUNT(*) FROM movements WHERE customer_id = $1`, customerID).Scan(&count)
	if err != nil {
		t.Fatalf("count movements for %s: %v", customerID, err)
	}
	return count
}
