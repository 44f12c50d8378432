package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/josh-kwaku/bank-ledger/internal/domain"
	"github.com/josh-kwaku/bank-ledger/internal/service"
)

type authService interface {
	Signup(ctx context.Context, req service.CreateCustomerRequest) (*domain.Customer, error)
	Login(ctx context.Context, email, password string) (string, error)
}

type AuthHandler struct {
	auth authService
}

func NewAuthHandler(auth authService) *AuthHandler {
	return &AuthHandler{auth: auth}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r loginRequest) Validate() []FieldError {
	var errs []FieldError
	if r.Email == "" {
		errs = append(errs, FieldError{Field: "email", Message: "required"})
	}
	if r.Password == "" {
		errs = append(errs, FieldError{Field: "password", Message: "required"})
	}
	return errs
}

type loginResponse struct {
	AccessToken string `json:"access_token"`
}

func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeCreateCustomer(w, r)
	if !ok {
		return
	}

	c, err := h.auth.Signup(r.Context(), req.toService())
	if err != nil {
		RespondDomainError(w, err)
		return
	}

	RespondJSON(w, http.StatusCreated, toCustomerDTO(c))
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}

	if fields := req.Validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	token, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			RespondAppError(w, ErrUnknownEmail, nil)
			return
		}
		RespondDomainError(w, err)
		return
	}

	RespondJSON(w, http.StatusOK, loginResponse{AccessToken: token})
}
