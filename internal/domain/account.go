package domain

import (
	"github.com/shopspring/decimal"
)

type AccountType string

const (
	AccountTypePrivate AccountType = "Private"
)

func (t AccountType) IsValid() bool {
	return t == AccountTypePrivate
}

// Account is embedded in exactly one Customer. Balance always equals the sum
// of the movement amounts; Version increments on every committed movement.
type Account struct {
	Name      string
	Type      AccountType
	Balance   decimal.Decimal
	Movements []Movement
	Version   int64
}

func NewAccount(name string, accountType AccountType) Account {
	return Account{
		Name:      name,
		Type:      accountType,
		Balance:   decimal.Zero,
		Movements: []Movement{},
	}
}

// Clone returns a copy whose movement slice does not alias the receiver's.
func (a Account) Clone() Account {
	c := a
	c.Movements = make([]Movement, len(a.Movements))
	copy(c.Movements, a.Movements)
	return c
}
