package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mycelium/receivables/internal/infrastructure/metrics"
	"github.com/mycelium/receivables/internal/usecase"
)

// DebtorHandler serves the debtor list screen.
type DebtorHandler struct {
	debtorSvc *usecase.DebtorService
	metrics   *metrics.Metrics
}

// NewDebtorHandler creates a new DebtorHandler.
func NewDebtorHandler(debtorSvc *usecase.DebtorService, m *metrics.Metrics) *DebtorHandler {
	return &DebtorHandler{debtorSvc: debtorSvc, metrics: m}
}

// List returns customers with nonzero balances, largest first.
// ?rebuild=true rewrites every projection from the entry table first.
func (h *DebtorHandler) List(w http.ResponseWriter, r *http.Request) {
	input := usecase.ListDebtorsInput{
		Limit:   parseIntQuery(r, "limit", 0),
		Offset:  parseIntQuery(r, "offset", 0),
		Rebuild: r.URL.Query().Get("rebuild") == "true",
	}

	debtors, err := h.debtorSvc.ListDebtors(r.Context(), input)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	source := "projection"
	if input.Rebuild {
		source = "rebuild"
	}
	h.metrics.DebtorListRequests.WithLabelValues(source).Inc()

	writeJSON(w, http.StatusOK, debtors)
}

// CheckConsistency compares one customer's projection against the sum of
// their stored entries.
func (h *DebtorHandler) CheckConsistency(w http.ResponseWriter, r *http.Request) {
	customerID := chi.URLParam(r, "id")

	result, err := h.debtorSvc.CheckConsistency(r.Context(), customerID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}
