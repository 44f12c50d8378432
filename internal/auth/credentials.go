package auth

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// Credentials hashes passwords and signs bearer tokens with a fixed secret,
// expiry and bcrypt cost.
type Credentials struct {
	secret string
	expiry time.Duration
	cost   int
}

func NewCredentials(secret string, expiry time.Duration, cost int) *Credentials {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &Credentials{secret: secret, expiry: expiry, cost: cost}
}

func (c *Credentials) HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), c.cost)
	if err != nil {
		return "", fmt.Errorf("HashPassword: %w", err)
	}
	return string(hash), nil
}

// ComparePassword returns nil only when password matches hash.
func (c *Credentials) ComparePassword(hash, password string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return fmt.Errorf("ComparePassword: %w", err)
	}
	return nil
}

func (c *Credentials) IssueToken(customerID uuid.UUID, username string) (string, error) {
	return GenerateToken(customerID, username, c.secret, c.expiry)
}

func (c *Credentials) ValidateToken(token string) (*Claims, error) {
	return ValidateToken(token, c.secret)
}
