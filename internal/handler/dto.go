package handler

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/bank-ledger/internal/domain"
)

// Outward representations. None of them has a password field.

type customerDTO struct {
	ID        uuid.UUID  `json:"id"`
	Name      string     `json:"name"`
	Email     string     `json:"email"`
	Account   accountDTO `json:"account"`
	CreatedAt time.Time  `json:"createdAt"`
}

type accountDTO struct {
	Name      string        `json:"name"`
	Type      string        `json:"type"`
	Balance   json.Number   `json:"balance"`
	Movements []movementDTO `json:"movements"`
}

type movementDTO struct {
	Type      string      `json:"type"`
	Amount    json.Number `json:"amount"`
	Balance   json.Number `json:"balance"`
	CreatedAt time.Time   `json:"createdAt"`
}

type reportDTO struct {
	Type  string      `json:"type"`
	Total json.Number `json:"total"`
}

func number(d decimal.Decimal) json.Number {
	return json.Number(d.String())
}

func toMovementDTO(m *domain.Movement) movementDTO {
	return movementDTO{
		Type:      string(m.Type),
		Amount:    number(m.Amount),
		Balance:   number(m.Balance),
		CreatedAt: m.CreatedAt,
	}
}

func toMovementDTOs(movements []domain.Movement) []movementDTO {
	dtos := make([]movementDTO, len(movements))
	for i := range movements {
		dtos[i] = toMovementDTO(&movements[i])
	}
	return dtos
}

func toCustomerDTO(c *domain.Customer) customerDTO {
	return customerDTO{
		ID:    c.ID,
		Name:  c.Name,
		Email: c.Email,
		Account: accountDTO{
			Name:      c.Account.Name,
			Type:      string(c.Account.Type),
			Balance:   number(c.Account.Balance),
			Movements: toMovementDTOs(c.Account.Movements),
		},
		CreatedAt: c.CreatedAt,
	}
}

func toReportDTOs(totals []domain.MovementTotal) []reportDTO {
	dtos := make([]reportDTO, len(totals))
	for i, t := range totals {
		dtos[i] = reportDTO{Type: string(t.Type), Total: number(t.Total)}
	}
	return dtos
}
