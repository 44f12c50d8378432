package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/bank-ledger/internal/domain"
	"github.com/josh-kwaku/bank-ledger/internal/ledger"
	"github.com/josh-kwaku/bank-ledger/internal/service"
)

type customerService interface {
	Create(ctx context.Context, req service.CreateCustomerRequest) (*domain.Customer, error)
	List(ctx context.Context) ([]domain.Customer, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Customer, error)
	AddMovement(ctx context.Context, customerID uuid.UUID, t domain.MovementType, amount decimal.Decimal) (*domain.Movement, error)
	ListMovements(ctx context.Context, customerID uuid.UUID) ([]domain.Movement, error)
	Reports(ctx context.Context, customerID uuid.UUID) ([]domain.MovementTotal, error)
}

type CustomerHandler struct {
	customers customerService
}

func NewCustomerHandler(customers customerService) *CustomerHandler {
	return &CustomerHandler{customers: customers}
}

type accountRequest struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// createCustomerRequest is shared by signup and POST /customers. Any balance
// or movements sent by the client are ignored: a new account always starts
// empty.
type createCustomerRequest struct {
	Name     string         `json:"name"`
	Email    string         `json:"email"`
	Password string         `json:"password"`
	Account  accountRequest `json:"account"`
}

func (r createCustomerRequest) Validate() []FieldError {
	return collect(
		validateRequired("name", r.Name),
		validateEmail("email", r.Email),
		validatePassword("password", r.Password),
		validateRequired("account.name", r.Account.Name),
		validateAccountType("account.type", r.Account.Type),
	)
}

func (r createCustomerRequest) toService() service.CreateCustomerRequest {
	return service.CreateCustomerRequest{
		Name:        r.Name,
		Email:       r.Email,
		Password:    r.Password,
		AccountName: r.Account.Name,
		AccountType: domain.AccountType(r.Account.Type),
	}
}

type addMovementRequest struct {
	Type   string      `json:"type"`
	Amount json.Number `json:"amount"`
}

func (r addMovementRequest) Validate() (decimal.Decimal, []FieldError) {
	amount, amountErr := parseAmount("amount", r.Amount)
	return amount, collect(
		validateMovementType("type", r.Type),
		amountErr,
	)
}

func decodeCreateCustomer(w http.ResponseWriter, r *http.Request) (createCustomerRequest, bool) {
	var req createCustomerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return req, false
	}
	if fields := req.Validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return req, false
	}
	return req, true
}

func (h *CustomerHandler) Create(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeCreateCustomer(w, r)
	if !ok {
		return
	}

	c, err := h.customers.Create(r.Context(), req.toService())
	if err != nil {
		RespondDomainError(w, err)
		return
	}

	RespondJSON(w, http.StatusCreated, toCustomerDTO(c))
}

func (h *CustomerHandler) List(w http.ResponseWriter, r *http.Request) {
	customers, err := h.customers.List(r.Context())
	if err != nil {
		RespondDomainError(w, err)
		return
	}

	dtos := make([]customerDTO, len(customers))
	for i := range customers {
		dtos[i] = toCustomerDTO(&customers[i])
	}
	RespondJSON(w, http.StatusOK, dtos)
}

func (h *CustomerHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := customerIDFromPath(w, r)
	if !ok {
		return
	}

	c, err := h.customers.GetByID(r.Context(), id)
	if err != nil {
		RespondDomainError(w, err)
		return
	}

	RespondJSON(w, http.StatusOK, toCustomerDTO(c))
}

// AddMovement runs the structural checks on the body, then the sign rule,
// and only then touches the account.
func (h *CustomerHandler) AddMovement(w http.ResponseWriter, r *http.Request) {
	id, ok := customerIDFromPath(w, r)
	if !ok {
		return
	}

	var req addMovementRequest
	if err := decodeJSON(w, r, &req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}
	amount, fields := req.Validate()
	if len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	t := domain.MovementType(req.Type)
	if err := ledger.Validate(t, amount); err != nil {
		RespondDomainError(w, err)
		return
	}

	m, err := h.customers.AddMovement(r.Context(), id, t, amount)
	if err != nil {
		RespondDomainError(w, err)
		return
	}

	RespondJSON(w, http.StatusCreated, toMovementDTO(m))
}

func (h *CustomerHandler) ListMovements(w http.ResponseWriter, r *http.Request) {
	id, ok := customerIDFromPath(w, r)
	if !ok {
		return
	}

	movements, err := h.customers.ListMovements(r.Context(), id)
	if err != nil {
		RespondDomainError(w, err)
		return
	}

	RespondJSON(w, http.StatusOK, toMovementDTOs(movements))
}

func (h *CustomerHandler) Reports(w http.ResponseWriter, r *http.Request) {
	id, ok := customerIDFromPath(w, r)
	if !ok {
		return
	}

	totals, err := h.customers.Reports(r.Context(), id)
	if err != nil {
		RespondDomainError(w, err)
		return
	}

	RespondJSON(w, http.StatusOK, toReportDTOs(totals))
}
