package ledger

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/josh-kwaku/bank-ledger/internal/domain"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		typ     domain.MovementType
		amount  string
		wantErr bool
	}{
		{name: "positive deposit", typ: domain.MovementTypeDeposit, amount: "200"},
		{name: "fractional deposit", typ: domain.MovementTypeDeposit, amount: "0.01"},
		{name: "negative withdrawal", typ: domain.MovementTypeWithdrawal, amount: "-200"},
		{name: "negative deposit", typ: domain.MovementTypeDeposit, amount: "-5", wantErr: true},
		{name: "zero deposit", typ: domain.MovementTypeDeposit, amount: "0", wantErr: true},
		{name: "positive withdrawal", typ: domain.MovementTypeWithdrawal, amount: "5", wantErr: true},
		{name: "zero withdrawal", typ: domain.MovementTypeWithdrawal, amount: "0", wantErr: true},
		{name: "unknown type", typ: domain.MovementType("Transfer"), amount: "5", wantErr: true},
		{name: "empty type", typ: "", amount: "-5", wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := Validate(tc.typ, dec(tc.amount))
			if tc.wantErr {
				require.ErrorIs(t, err, domain.ErrInvalidMovement)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestValidate_AmountRange(t *testing.T) {
	tests := []struct {
		name   string
		typ    domain.MovementType
		amount string
		ok     bool
	}{
		{"largest deposit", domain.MovementTypeDeposit, "9999999999999999.9999", true},
		{"largest withdrawal", domain.MovementTypeWithdrawal, "-9999999999999999.9999", true},
		{"trailing zeros beyond scale", domain.MovementTypeDeposit, "1.000000", true},
		{"column limit", domain.MovementTypeDeposit, "10000000000000000", false},
		{"thirty digits", domain.MovementTypeDeposit, "123456789012345678901234567890", false},
		{"huge exponent", domain.MovementTypeDeposit, "1e10000000", false},
		{"tiny exponent", domain.MovementTypeDeposit, "1e-10000000", false},
		{"huge negative withdrawal", domain.MovementTypeWithdrawal, "-1e2000000", false},
		{"five decimals", domain.MovementTypeDeposit, "1.00001", false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			start := time.Now()
			err := Validate(tc.typ, dec(tc.amount))
			assert.Less(t, time.Since(start), 100*time.Millisecond)
			if tc.ok {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, domain.ErrAmountOutOfRange)
		})
	}
}

func TestApply(t *testing.T) {
	account := domain.NewAccount("Customer's account", domain.AccountTypePrivate)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	m, err := Apply(&account, domain.MovementTypeDeposit, dec("200"), now)
	require.NoError(t, err)
	assert.Equal(t, domain.MovementTypeDeposit, m.Type)
	assert.True(t, m.Amount.Equal(dec("200")))
	assert.True(t, m.Balance.Equal(dec("200")))
	assert.Equal(t, now, m.CreatedAt)

	m, err = Apply(&account, domain.MovementTypeWithdrawal, dec("-50.25"), now.Add(time.Minute))
	require.NoError(t, err)
	assert.True(t, m.Balance.Equal(dec("149.75")), "got %s", m.Balance)

	require.Len(t, account.Movements, 2)
	assert.True(t, account.Balance.Equal(dec("149.75")))
	assert.Equal(t, domain.MovementTypeDeposit, account.Movements[0].Type)
	assert.Equal(t, domain.MovementTypeWithdrawal, account.Movements[1].Type)
	assert.True(t, Balanced(account))
}

func TestApply_InvalidLeavesAccountUntouched(t *testing.T) {
	account := domain.NewAccount("acct", domain.AccountTypePrivate)
	_, err := Apply(&account, domain.MovementTypeDeposit, dec("100"), time.Now())
	require.NoError(t, err)

	_, err = Apply(&account, domain.MovementTypeDeposit, dec("-5"), time.Now())
	require.ErrorIs(t, err, domain.ErrInvalidMovement)

	assert.Len(t, account.Movements, 1)
	assert.True(t, account.Balance.Equal(dec("100")))
}

func TestApply_RejectsBalanceOverflow(t *testing.T) {
	account := domain.NewAccount("acct", domain.AccountTypePrivate)
	_, err := Apply(&account, domain.MovementTypeDeposit, dec("9999999999999999.9999"), time.Now())
	require.NoError(t, err)

	_, err = Apply(&account, domain.MovementTypeDeposit, dec("0.0001"), time.Now())
	require.ErrorIs(t, err, domain.ErrBalanceOutOfRange)

	assert.Len(t, account.Movements, 1)
	assert.True(t, account.Balance.Equal(dec("9999999999999999.9999")))

	_, err = Apply(&account, domain.MovementTypeWithdrawal, dec("-1"), time.Now())
	require.NoError(t, err)
}

func TestApply_KeepsBalanceInvariant(t *testing.T) {
	amounts := []string{"10", "-3.5", "0.0001", "-0.0001", "999999.9999", "-1", "42", "-7777777", "357"}

	account := domain.NewAccount("acct", domain.AccountTypePrivate)
	running := decimal.Zero
	for _, a := range amounts {
		amount := dec(a)
		typ := domain.MovementTypeDeposit
		if amount.IsNegative() {
			typ = domain.MovementTypeWithdrawal
		}

		m, err := Apply(&account, typ, amount, time.Now())
		require.NoError(t, err)

		running = running.Add(amount)
		assert.True(t, m.Balance.Equal(running), "snapshot %s, want %s", m.Balance, running)
		assert.True(t, Balanced(account))
	}
	assert.Len(t, account.Movements, len(amounts))
}

func TestBalanced_DetectsDrift(t *testing.T) {
	account := domain.NewAccount("acct", domain.AccountTypePrivate)
	_, err := Apply(&account, domain.MovementTypeDeposit, dec("10"), time.Now())
	require.NoError(t, err)

	account.Balance = dec("11")
	assert.False(t, Balanced(account))
}

func TestReport(t *testing.T) {
	tests := []struct {
		name      string
		movements []domain.Movement
		want      map[domain.MovementType]string
	}{
		{
			name: "deposits and withdrawal",
			movements: []domain.Movement{
				{Type: domain.MovementTypeDeposit, Amount: dec("200")},
				{Type: domain.MovementTypeDeposit, Amount: dec("357")},
				{Type: domain.MovementTypeWithdrawal, Amount: dec("-7777777")},
			},
			want: map[domain.MovementType]string{
				domain.MovementTypeDeposit:    "557",
				domain.MovementTypeWithdrawal: "-7777777",
			},
		},
		{
			name: "only withdrawals",
			movements: []domain.Movement{
				{Type: domain.MovementTypeWithdrawal, Amount: dec("-1.10")},
				{Type: domain.MovementTypeWithdrawal, Amount: dec("-2.20")},
			},
			want: map[domain.MovementType]string{
				domain.MovementTypeWithdrawal: "-3.3",
			},
		},
		{
			name:      "no movements",
			movements: nil,
			want:      map[domain.MovementType]string{},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := Report(tc.movements)
			require.Len(t, got, len(tc.want))
			for _, total := range got {
				want, ok := tc.want[total.Type]
				require.True(t, ok, "unexpected type %s", total.Type)
				assert.True(t, total.Total.Equal(dec(want)), "%s: got %s, want %s", total.Type, total.Total, want)
			}
		})
	}
}

func TestReport_NoFloatDrift(t *testing.T) {
	movements := make([]domain.Movement, 1000)
	for i := range movements {
		movements[i] = domain.Movement{Type: domain.MovementTypeDeposit, Amount: dec("0.1")}
	}

	got := Report(movements)
	require.Len(t, got, 1)
	assert.True(t, got[0].Total.Equal(dec("100")), "got %s", got[0].Total)
}
