package service

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/josh-kwaku/bank-ledger/internal/auth"
	"github.com/josh-kwaku/bank-ledger/internal/domain"
	"github.com/josh-kwaku/bank-ledger/internal/metrics"
	"github.com/josh-kwaku/bank-ledger/internal/repository/memory"
)

func newAuthService(t *testing.T, hideUnknownEmail bool) (*AuthService, *auth.Credentials) {
	t.Helper()
	store := memory.NewCustomerRepository()
	creds := newCredentials()
	collector := metrics.NewCollector(prometheus.NewRegistry())
	customers := NewCustomerService(store, creds, collector, 3)
	return NewAuthService(customers, store, creds, collector, hideUnknownEmail), creds
}

func signupRequest(email string) CreateCustomerRequest {
	return CreateCustomerRequest{
		Name:        "customer's name",
		Email:       email,
		Password:    testPassword,
		AccountName: "Customer's account",
		AccountType: domain.AccountTypePrivate,
	}
}

func TestAuthService_SignupAndLogin(t *testing.T) {
	svc, creds := newAuthService(t, false)
	ctx := context.Background()

	c, err := svc.Signup(ctx, signupRequest("customer@gmail.com"))
	require.NoError(t, err)

	token, err := svc.Login(ctx, "Customer@gmail.com", testPassword)
	require.NoError(t, err)

	claims, err := creds.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, c.ID, claims.CustomerID)
	assert.Equal(t, "customer's name", claims.Username)
}

func TestAuthService_LoginFailures(t *testing.T) {
	tests := []struct {
		name             string
		hideUnknownEmail bool
		email            string
		password         string
		wantErr          error
	}{
		{
			name:     "unknown email is not found",
			email:    "nobody@example.com",
			password: testPassword,
			wantErr:  domain.ErrNotFound,
		},
		{
			name:     "wrong password is invalid credentials",
			email:    "customer@gmail.com",
			password: "wrong",
			wantErr:  domain.ErrInvalidCredentials,
		},
		{
			name:             "unknown email hidden as invalid credentials",
			hideUnknownEmail: true,
			email:            "nobody@example.com",
			password:         testPassword,
			wantErr:          domain.ErrInvalidCredentials,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			svc, _ := newAuthService(t, tc.hideUnknownEmail)
			_, err := svc.Signup(context.Background(), signupRequest("customer@gmail.com"))
			require.NoError(t, err)

			token, err := svc.Login(context.Background(), tc.email, tc.password)
			require.ErrorIs(t, err, tc.wantErr)
			assert.Empty(t, token)
		})
	}
}
