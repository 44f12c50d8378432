package handler

import (
	"encoding/json"
	"net/mail"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/bank-ledger/internal/domain"
	"github.com/josh-kwaku/bank-ledger/internal/ledger"
)

const (
	minPasswordLength = 8
	maxNameLength     = 255
	maxAmountLiteral  = 64

	amountRangeMessage = "must be less than 10^16 in magnitude"
)

func validateRequired(field, value string) *FieldError {
	if strings.TrimSpace(value) == "" {
		return &FieldError{Field: field, Message: "required"}
	}
	if len(value) > maxNameLength {
		return &FieldError{Field: field, Message: "too long"}
	}
	return nil
}

// validateEmail accepts a bare address only; display-name forms such as
// "Ann <ann@example.com>" are rejected.
func validateEmail(field, value string) *FieldError {
	if value == "" {
		return &FieldError{Field: field, Message: "required"}
	}
	addr, err := mail.ParseAddress(value)
	if err != nil || addr.Address != strings.TrimSpace(value) {
		return &FieldError{Field: field, Message: "must be a valid email address"}
	}
	return nil
}

// validatePassword requires at least eight characters with a lowercase
// letter, an uppercase letter, a digit and a symbol.
func validatePassword(field, value string) *FieldError {
	if value == "" {
		return &FieldError{Field: field, Message: "required"}
	}

	var lower, upper, digit, symbol bool
	for _, r := range value {
		switch {
		case unicode.IsLower(r):
			lower = true
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsDigit(r):
			digit = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			symbol = true
		}
	}

	if len([]rune(value)) < minPasswordLength || !lower || !upper || !digit || !symbol {
		return &FieldError{
			Field:   field,
			Message: "must be at least 8 characters and contain a lowercase letter, an uppercase letter, a number and a symbol",
		}
	}
	return nil
}

func validateAccountType(field, value string) *FieldError {
	if value == "" {
		return &FieldError{Field: field, Message: "required"}
	}
	if !domain.AccountType(value).IsValid() {
		return &FieldError{Field: field, Message: "must be Private"}
	}
	return nil
}

func validateMovementType(field, value string) *FieldError {
	if value == "" {
		return &FieldError{Field: field, Message: "required"}
	}
	if !domain.MovementType(value).IsValid() {
		return &FieldError{Field: field, Message: "must be Deposit or Withdrawal"}
	}
	return nil
}

// parseAmount checks the raw literal before handing it to decimal, whose
// parser is superlinear in the number of digits.
func parseAmount(field string, raw json.Number) (decimal.Decimal, *FieldError) {
	if raw == "" {
		return decimal.Zero, &FieldError{Field: field, Message: "required"}
	}
	if len(raw) > maxAmountLiteral {
		return decimal.Zero, &FieldError{Field: field, Message: amountRangeMessage}
	}
	d, err := decimal.NewFromString(string(raw))
	if err != nil {
		return decimal.Zero, &FieldError{Field: field, Message: "must be a number"}
	}
	if !ledger.InRange(d) {
		return decimal.Zero, &FieldError{Field: field, Message: amountRangeMessage}
	}
	if !ledger.HasValidScale(d) {
		return decimal.Zero, &FieldError{Field: field, Message: "must have at most 4 decimal places"}
	}
	return d, nil
}

func collect(errs ...*FieldError) []FieldError {
	var out []FieldError
	for _, e := range errs {
		if e != nil {
			out = append(out, *e)
		}
	}
	return out
}
