package dto

import (
	"github.com/mycelium/receivables/internal/domain"
	"github.com/mycelium/receivables/internal/usecase"
)

// CreateEntryRequest represents a manual ledger entry posted from the
// ledger screen. Amount is the operator-entered magnitude except for
// adjustments, which carry their sign.
type CreateEntryRequest struct {
	TransactionDate string `json:"transaction_date"`
	Type            string `json:"transaction_type"`
	Amount          int64  `json:"amount"`
	Description     string `json:"description,omitempty"`
}

// ToUseCaseInput converts to use case input for the given customer.
func (r *CreateEntryRequest) ToUseCaseInput(customerID string) (usecase.CreateEntryInput, error) {
	date, err := domain.ParseDate(r.TransactionDate)
	if err != nil {
		return usecase.CreateEntryInput{}, err
	}

	return usecase.CreateEntryInput{
		CustomerID:  customerID,
		Type:        domain.EntryType(r.Type),
		Date:        date,
		Amount:      r.Amount,
		Description: r.Description,
		Actor:       domain.ActorManual,
	}, nil
}

// WorkflowEntryRequest represents an entry posted by the sales order
// workflow. ReferenceID ties the entry back to the originating order.
type WorkflowEntryRequest struct {
	CustomerID      string `json:"customer_id"`
	TransactionDate string `json:"transaction_date"`
	Type            string `json:"transaction_type"`
	Amount          int64  `json:"amount"`
	ReferenceID     string `json:"reference_id"`
	Description     string `json:"description,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *WorkflowEntryRequest) ToUseCaseInput() (usecase.CreateEntryInput, error) {
	date, err := domain.ParseDate(r.TransactionDate)
	if err != nil {
		return usecase.CreateEntryInput{}, err
	}

	return usecase.CreateEntryInput{
		CustomerID:  r.CustomerID,
		Type:        domain.EntryType(r.Type),
		Date:        date,
		Amount:      r.Amount,
		Description: r.Description,
		ReferenceID: r.ReferenceID,
		Actor:       domain.ActorSalesWorkflow,
	}, nil
}

// UpdateEntryRequest represents a patch to an existing entry. Absent
// fields are left unchanged.
type UpdateEntryRequest struct {
	TransactionDate *string `json:"transaction_date,omitempty"`
	Type            *string `json:"transaction_type,omitempty"`
	Amount          *int64  `json:"amount,omitempty"`
	Description     *string `json:"description,omitempty"`
}

// ToUseCaseInput converts to use case input for the given entry and actor.
func (r *UpdateEntryRequest) ToUseCaseInput(entryID string, actor domain.Actor) (usecase.UpdateEntryInput, error) {
	input := usecase.UpdateEntryInput{
		EntryID:     entryID,
		Amount:      r.Amount,
		Description: r.Description,
		Actor:       actor,
	}

	if r.TransactionDate != nil {
		date, err := domain.ParseDate(*r.TransactionDate)
		if err != nil {
			return usecase.UpdateEntryInput{}, err
		}
		input.Date = &date
	}

	if r.Type != nil {
		t := domain.EntryType(*r.Type)
		input.Type = &t
	}

	return input, nil
}
