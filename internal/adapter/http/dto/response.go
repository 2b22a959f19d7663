package dto

import (
	"time"

	"github.com/mycelium/receivables/internal/domain"
)

// EntryResponse represents a ledger entry in API responses. Amount is the
// stored signed effect on the balance; RunningBalance is what the customer
// owed after this entry, in canonical ledger order.
type EntryResponse struct {
	ID              string    `json:"id"`
	CustomerID      string    `json:"customer_id"`
	TransactionDate string    `json:"transaction_date"`
	Type            string    `json:"transaction_type"`
	Amount          int64     `json:"amount"`
	Description     string    `json:"description,omitempty"`
	ReferenceID     string    `json:"reference_id,omitempty"`
	RunningBalance  int64     `json:"running_balance"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// EntryFromView converts a domain entry view to a response.
func EntryFromView(v *domain.EntryView) *EntryResponse {
	return &EntryResponse{
		ID:              v.ID,
		CustomerID:      v.CustomerID,
		TransactionDate: v.TransactionDate.Format(domain.DateLayout),
		Type:            string(v.Type),
		Amount:          v.Amount,
		Description:     v.Description,
		ReferenceID:     v.ReferenceID,
		RunningBalance:  v.RunningBalance,
		CreatedAt:       v.CreatedAt,
		UpdatedAt:       v.UpdatedAt,
	}
}

// EntriesFromViews converts domain entry views to responses.
func EntriesFromViews(views []*domain.EntryView) []*EntryResponse {
	result := make([]*EntryResponse, len(views))
	for i, v := range views {
		result[i] = EntryFromView(v)
	}
	return result
}

// BalanceResponse represents a customer's current balance.
type BalanceResponse struct {
	CustomerID     string `json:"customer_id"`
	CurrentBalance int64  `json:"current_balance"`
}

// ErrorResponse represents an error in API responses.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
