package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/josh-kwaku/bank-ledger/internal/domain"
)

const customerColumns = `id, name, email, password_hash, account_name, account_type,
	balance, version, created_at`

const movementColumns = `customer_id, type, amount, balance, created_at`

type CustomerRepository struct {
	db *sql.DB
}

func NewCustomerRepository(db *sql.DB) *CustomerRepository {
	return &CustomerRepository{db: db}
}

func (r *CustomerRepository) PingContext(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *CustomerRepository) Create(ctx context.Context, c *domain.Customer) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("Create: begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO customers (
			id, name, email, password_hash, account_name, account_type,
			balance, version, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		c.ID, c.Name, c.Email, c.PasswordHash, c.Account.Name, c.Account.Type,
		c.Account.Balance, c.Account.Version, c.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("Create: %w", domain.ErrEmailTaken)
		}
		return fmt.Errorf("Create: %w", err)
	}

	if err := insertMovements(ctx, tx, c.ID, c.Account.Movements, 0); err != nil {
		return fmt.Errorf("Create: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("Create: commit: %w", err)
	}
	return nil
}

func (r *CustomerRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Customer, error) {
	c, err := r.getOne(ctx, `SELECT `+customerColumns+` FROM customers WHERE id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("GetByID: %w", err)
	}
	if c == nil {
		return nil, fmt.Errorf("GetByID: %w", domain.ErrNotFound)
	}
	return c, nil
}

// GetByEmail returns nil without an error when no customer has the email.
func (r *CustomerRepository) GetByEmail(ctx context.Context, email string) (*domain.Customer, error) {
	c, err := r.getOne(ctx, `SELECT `+customerColumns+` FROM customers WHERE email = $1`, email)
	if err != nil {
		return nil, fmt.Errorf("GetByEmail: %w", err)
	}
	return c, nil
}

func (r *CustomerRepository) List(ctx context.Context) ([]domain.Customer, error) {
	tx, err := r.beginRead(ctx)
	if err != nil {
		return nil, fmt.Errorf("List: %w", err)
	}
	defer tx.Rollback()

	rows, err := tx.QueryContext(ctx,
		`SELECT `+customerColumns+` FROM customers ORDER BY created_at, id`,
	)
	if err != nil {
		return nil, fmt.Errorf("List: %w", err)
	}
	defer rows.Close()

	customers := []domain.Customer{}
	index := make(map[uuid.UUID]int)
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, fmt.Errorf("List: scan: %w", err)
		}
		index[c.ID] = len(customers)
		customers = append(customers, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("List: rows: %w", err)
	}

	mrows, err := tx.QueryContext(ctx,
		`SELECT `+movementColumns+` FROM movements ORDER BY customer_id, seq`,
	)
	if err != nil {
		return nil, fmt.Errorf("List: movements: %w", err)
	}
	defer mrows.Close()

	for mrows.Next() {
		customerID, m, err := scanMovement(mrows)
		if err != nil {
			return nil, fmt.Errorf("List: scan movement: %w", err)
		}
		if i, ok := index[customerID]; ok {
			customers[i].Account.Movements = append(customers[i].Account.Movements, *m)
		}
	}
	if err := mrows.Err(); err != nil {
		return nil, fmt.Errorf("List: movement rows: %w", err)
	}

	return customers, nil
}

// CompareAndSwapAccount stores account as the new state of the customer's
// account if its version is still expectedVersion. Movements beyond the ones
// already stored are appended in the same transaction. A stale version
// yields domain.ErrVersionConflict and writes nothing.
func (r *CustomerRepository) CompareAndSwapAccount(ctx context.Context, customerID uuid.UUID, expectedVersion int64, account domain.Account) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("CompareAndSwapAccount: begin tx: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE customers SET balance = $1, version = version + 1
		WHERE id = $2 AND version = $3`,
		account.Balance, customerID, expectedVersion,
	)
	if isNumericOverflow(err) {
		return fmt.Errorf("CompareAndSwapAccount: %w", domain.ErrBalanceOutOfRange)
	}
	if err != nil {
		return fmt.Errorf("CompareAndSwapAccount: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("CompareAndSwapAccount: rows affected: %w", err)
	}
	if n == 0 {
		var exists bool
		if err := tx.QueryRowContext(ctx,
			`SELECT EXISTS (SELECT 1 FROM customers WHERE id = $1)`, customerID,
		).Scan(&exists); err != nil {
			return fmt.Errorf("CompareAndSwapAccount: exists: %w", err)
		}
		if !exists {
			return fmt.Errorf("CompareAndSwapAccount: %w", domain.ErrNotFound)
		}
		return fmt.Errorf("CompareAndSwapAccount: %w", domain.ErrVersionConflict)
	}

	var stored int
	if err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM movements WHERE customer_id = $1`, customerID,
	).Scan(&stored); err != nil {
		return fmt.Errorf("CompareAndSwapAccount: count: %w", err)
	}
	if stored > len(account.Movements) {
		return fmt.Errorf("CompareAndSwapAccount: account holds %d movements, %d stored: %w",
			len(account.Movements), stored, domain.ErrVersionConflict)
	}

	if err := insertMovements(ctx, tx, customerID, account.Movements[stored:], stored); err != nil {
		return fmt.Errorf("CompareAndSwapAccount: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("CompareAndSwapAccount: commit: %w", err)
	}
	return nil
}

func (r *CustomerRepository) MovementTotals(ctx context.Context, customerID uuid.UUID) ([]domain.MovementTotal, error) {
	tx, err := r.beginRead(ctx)
	if err != nil {
		return nil, fmt.Errorf("MovementTotals: %w", err)
	}
	defer tx.Rollback()

	var exists bool
	if err := tx.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM customers WHERE id = $1)`, customerID,
	).Scan(&exists); err != nil {
		return nil, fmt.Errorf("MovementTotals: exists: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("MovementTotals: %w", domain.ErrNotFound)
	}

	rows, err := tx.QueryContext(ctx,
		`SELECT type, SUM(amount) FROM movements
		WHERE customer_id = $1
		GROUP BY type ORDER BY MIN(seq)`, customerID,
	)
	if err != nil {
		return nil, fmt.Errorf("MovementTotals: %w", err)
	}
	defer rows.Close()

	totals := []domain.MovementTotal{}
	for rows.Next() {
		var t domain.MovementTotal
		if err := rows.Scan(&t.Type, &t.Total); err != nil {
			return nil, fmt.Errorf("MovementTotals: scan: %w", err)
		}
		totals = append(totals, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("MovementTotals: rows: %w", err)
	}
	return totals, nil
}

// getOne reads a customer and its movements from one snapshot. It returns
// nil, nil when the query matches no customer.
func (r *CustomerRepository) getOne(ctx context.Context, query string, arg any) (*domain.Customer, error) {
	tx, err := r.beginRead(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	c, err := scanCustomer(tx.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	movements, err := loadMovements(ctx, tx, c.ID)
	if err != nil {
		return nil, err
	}
	c.Account.Movements = movements
	return c, nil
}

func (r *CustomerRepository) beginRead(ctx context.Context) (*sql.Tx, error) {
	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true})
	if err != nil {
		return nil, fmt.Errorf("begin read tx: %w", err)
	}
	return tx, nil
}

func loadMovements(ctx context.Context, tx *sql.Tx, customerID uuid.UUID) ([]domain.Movement, error) {
	rows, err := tx.QueryContext(ctx,
		`SELECT `+movementColumns+` FROM movements WHERE customer_id = $1 ORDER BY seq`, customerID,
	)
	if err != nil {
		return nil, fmt.Errorf("loadMovements: %w", err)
	}
	defer rows.Close()

	movements := []domain.Movement{}
	for rows.Next() {
		_, m, err := scanMovement(rows)
		if err != nil {
			return nil, fmt.Errorf("loadMovements: scan: %w", err)
		}
		movements = append(movements, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("loadMovements: rows: %w", err)
	}
	return movements, nil
}

func insertMovements(ctx context.Context, tx *sql.Tx, customerID uuid.UUID, movements []domain.Movement, firstSeq int) error {
	for i, m := range movements {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO movements (customer_id, seq, type, amount, balance, created_at)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			customerID, firstSeq+i, m.Type, m.Amount, m.Balance, m.CreatedAt,
		)
		if err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("insertMovements: seq %d: %w", firstSeq+i, domain.ErrVersionConflict)
			}
			if isNumericOverflow(err) {
				return fmt.Errorf("insertMovements: seq %d: %w", firstSeq+i, domain.ErrAmountOutOfRange)
			}
			return fmt.Errorf("insertMovements: seq %d: %w", firstSeq+i, err)
		}
	}
	return nil
}

func scanCustomer(s scanner) (*domain.Customer, error) {
	var c domain.Customer
	err := s.Scan(
		&c.ID, &c.Name, &c.Email, &c.PasswordHash,
		&c.Account.Name, &c.Account.Type,
		&c.Account.Balance, &c.Account.Version, &c.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	c.CreatedAt = c.CreatedAt.UTC()
	c.Account.Movements = []domain.Movement{}
	return &c, nil
}

func scanMovement(s scanner) (uuid.UUID, *domain.Movement, error) {
	var (
		customerID uuid.UUID
		m          domain.Movement
	)
	if err := s.Scan(&customerID, &m.Type, &m.Amount, &m.Balance, &m.CreatedAt); err != nil {
		return uuid.Nil, nil, err
	}
	m.CreatedAt = m.CreatedAt.UTC()
	return customerID, &m, nil
}
