// Package ledger holds the movement rules for a single customer account:
// sign validation, applying a movement with its running balance, and
// per-type totals.
package ledger

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/bank-ledger/internal/domain"
)

// MaxAmountScale is the number of fractional digits an amount may carry.
// It matches the NUMERIC(20,4) columns in the customers schema.
const MaxAmountScale = 4

// Bounds of NUMERIC(20,4): sixteen integer digits. The exponent and
// coefficient limits reject absurd values before any arithmetic on them:
// rescaling 1e-10000000 or expanding 1e10000000 costs time and memory
// proportional to the exponent.
const (
	maxIntegerDigits   = 16
	maxExponent        = maxIntegerDigits
	minExponent        = -(MaxAmountScale + 20)
	maxCoefficientBits = 160
)

var amountLimit = decimal.New(1, maxIntegerDigits)

// InRange reports whether d fits the stored column: fewer than sixteen
// integer digits. Fractional digits are not checked here; see HasValidScale.
func InRange(d decimal.Decimal) bool {
	exp := d.Exponent()
	if exp > maxExponent || exp < minExponent || d.Coefficient().BitLen() > maxCoefficientBits {
		return false
	}
	return d.Abs().LessThan(amountLimit)
}

// HasValidScale reports whether d has at most MaxAmountScale significant
// fractional digits. It must only be called on values accepted by InRange.
func HasValidScale(d decimal.Decimal) bool {
	return d.Equal(d.Truncate(MaxAmountScale))
}

// Validate reports whether amount has the sign required by t. Deposits must
// be strictly positive and withdrawals strictly negative. Amounts outside the
// stored range or with too many fractional digits are ErrAmountOutOfRange.
func Validate(t domain.MovementType, amount decimal.Decimal) error {
	if !InRange(amount) || !HasValidScale(amount) {
		return fmt.Errorf("Validate: %s: %w", amount, domain.ErrAmountOutOfRange)
	}

	switch {
	case t == domain.MovementTypeDeposit && amount.IsPositive():
		return nil
	case t == domain.MovementTypeWithdrawal && amount.IsNegative():
		return nil
	default:
		return fmt.Errorf("Validate: %s %s: %w", t, amount, domain.ErrInvalidMovement)
	}
}

// Apply appends a movement to account and moves the balance with it. The
// account is left untouched when the movement is invalid or the new balance
// would leave the stored range.
func Apply(account *domain.Account, t domain.MovementType, amount decimal.Decimal, now time.Time) (domain.Movement, error) {
	if err := Validate(t, amount); err != nil {
		return domain.Movement{}, fmt.Errorf("Apply: %w", err)
	}

	newBalance := account.Balance.Add(amount)
	if !InRange(newBalance) {
		return domain.Movement{}, fmt.Errorf("Apply: balance %s: %w", newBalance, domain.ErrBalanceOutOfRange)
	}

	m := domain.Movement{
		Type:      t,
		Amount:    amount,
		Balance:   newBalance,
		CreatedAt: now.UTC(),
	}

	account.Balance = newBalance
	account.Movements = append(account.Movements, m)
	return m, nil
}

// Balanced checks that the balance equals the sum of all movement amounts.
func Balanced(account domain.Account) bool {
	sum := decimal.Zero
	for _, m := range account.Movements {
		sum = sum.Add(m.Amount)
	}
	return sum.Equal(account.Balance)
}

// Report sums movement amounts per type. Types without movements are
// omitted; entries come out in order of first appearance.
func Report(movements []domain.Movement) []domain.MovementTotal {
	totals := make([]domain.MovementTotal, 0, 2)
	index := make(map[domain.MovementType]int, 2)

	for _, m := range movements {
		i, ok := index[m.Type]
		if !ok {
			index[m.Type] = len(totals)
			totals = append(totals, domain.MovementTotal{Type: m.Type, Total: m.Amount})
			continue
		}
		totals[i].Total = totals[i].Total.Add(m.Amount)
	}
	return totals
}
