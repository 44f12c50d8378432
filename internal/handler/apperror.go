package handler

import "net/http"

type AppError struct {
	Status  int
	Code    string
	Message string
}

func (e *AppError) Error() string { return e.Message }

var (
	ErrUnauthorized     = &AppError{http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized"}
	ErrInvalidRequest   = &AppError{http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body"}
	ErrValidationFailed = &AppError{http.StatusBadRequest, "VALIDATION_FAILED", "Validation failed"}
	ErrInvalidID        = &AppError{http.StatusBadRequest, "INVALID_ID", "Invalid customer id"}
	ErrInvalidMovement  = &AppError{http.StatusBadRequest, "INVALID_MOVEMENT", "Invalid movement type and amount combination"}
	ErrAmountOutOfRange = &AppError{http.StatusBadRequest, "AMOUNT_OUT_OF_RANGE", "Amount is outside the supported range"}
	ErrBalanceOverflow  = &AppError{http.StatusBadRequest, "BALANCE_OUT_OF_RANGE", "Movement would take the balance outside the supported range"}
	ErrResourceNotFound = &AppError{http.StatusNotFound, "RESOURCE_NOT_FOUND", "Resource not found"}
	ErrCustomerNotFound = &AppError{http.StatusNotFound, "CUSTOMER_NOT_FOUND", "Customer not found"}
	ErrUnknownEmail     = &AppError{http.StatusNotFound, "USER_NOT_FOUND", "No user exists with the given email"}
	ErrEmailTaken       = &AppError{http.StatusConflict, "EMAIL_TAKEN", "Email is already registered"}
	ErrVersionConflict  = &AppError{http.StatusConflict, "VERSION_CONFLICT", "Resource was modified concurrently, please retry"}
	ErrInternalError    = &AppError{http.StatusInternalServerError, "INTERNAL_ERROR", "An unexpected error occurred"}

	ErrInvalidIdempotencyKey = &AppError{http.StatusBadRequest, "INVALID_IDEMPOTENCY_KEY", "Idempotency-Key must be at most 255 characters"}
	ErrIdempotencyConflict   = &AppError{http.StatusConflict, "IDEMPOTENCY_CONFLICT", "Idempotency key already used with a different request"}
	ErrIdempotencyInProgress = &AppError{http.StatusConflict, "IDEMPOTENCY_IN_PROGRESS", "A request with this idempotency key is still being processed"}
)
