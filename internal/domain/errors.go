package domain

import "errors"

var (
	ErrNotFound           = errors.New("not found")
	ErrInvalidMovement    = errors.New("invalid movement type and amount combination")
	ErrInvalidRequest     = errors.New("invalid request")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailTaken         = errors.New("email already registered")
	ErrVersionConflict    = errors.New("optimistic lock conflict")
	ErrAmountOutOfRange   = errors.New("amount out of range")
	ErrBalanceOutOfRange  = errors.New("balance out of range")
)
