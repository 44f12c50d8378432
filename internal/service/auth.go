package service

import (
	"context"
	"fmt"

	"github.com/josh-kwaku/bank-ledger/internal/domain"
	"github.com/josh-kwaku/bank-ledger/internal/logging"
)

const (
	LoginSucceeded    = "success"
	LoginUnknownEmail = "unknown_email"
	LoginBadPassword  = "bad_password"
)

type customerCreator interface {
	Create(ctx context.Context, req CreateCustomerRequest) (*domain.Customer, error)
}

type emailLookup interface {
	GetByEmail(ctx context.Context, email string) (*domain.Customer, error)
}

type AuthService struct {
	customers        customerCreator
	lookup           emailLookup
	credentials      credentialService
	metrics          loginRecorder
	hideUnknownEmail bool
}

func NewAuthService(customers customerCreator, lookup emailLookup, credentials credentialService, metrics loginRecorder, hideUnknownEmail bool) *AuthService {
	return &AuthService{
		customers:        customers,
		lookup:           lookup,
		credentials:      credentials,
		metrics:          metrics,
		hideUnknownEmail: hideUnknownEmail,
	}
}

func (s *AuthService) Signup(ctx context.Context, req CreateCustomerRequest) (*domain.Customer, error) {
	c, err := s.customers.Create(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("Signup: %w", err)
	}
	return c, nil
}

// Login returns a signed bearer token for the customer. An unknown email is
// domain.ErrNotFound unless hideUnknownEmail is set, in which case it is
// indistinguishable from a wrong password.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, error) {
	log := logging.FromContext(ctx)

	c, err := s.lookup.GetByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		return "", fmt.Errorf("Login: %w", err)
	}
	if c == nil {
		s.metrics.LoginAttempt(LoginUnknownEmail)
		if s.hideUnknownEmail {
			return "", fmt.Errorf("Login: %w", domain.ErrInvalidCredentials)
		}
		return "", fmt.Errorf("Login: no customer with this email: %w", domain.ErrNotFound)
	}

	if err := s.credentials.ComparePassword(c.PasswordHash, password); err != nil {
		s.metrics.LoginAttempt(LoginBadPassword)
		log.Info("login rejected", "customer_id", c.ID)
		return "", fmt.Errorf("Login: %w", domain.ErrInvalidCredentials)
	}

	token, err := s.credentials.IssueToken(c.ID, c.Name)
	if err != nil {
		return "", fmt.Errorf("Login: %w", err)
	}

	s.metrics.LoginAttempt(LoginSucceeded)
	log.Info("customer logged in", "customer_id", c.ID)
	return token, nil
}
