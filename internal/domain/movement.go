package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type MovementType string

const (
	MovementTypeDeposit    MovementType = "Deposit"
	MovementTypeWithdrawal MovementType = "Withdrawal"
)

func (t MovementType) IsValid() bool {
	switch t {
	case MovementTypeDeposit, MovementTypeWithdrawal:
		return true
	default:
		return false
	}
}

// Movement is immutable once committed. Balance is the account balance
// immediately after this movement was applied.
type Movement struct {
	Type      MovementType
	Amount    decimal.Decimal
	Balance   decimal.Decimal
	CreatedAt time.Time
}

type MovementTotal struct {
	Type  MovementType
	Total decimal.Decimal
}
