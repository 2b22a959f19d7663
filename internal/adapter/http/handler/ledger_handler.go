package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mycelium/receivables/internal/adapter/http/dto"
	"github.com/mycelium/receivables/internal/domain"
	"github.com/mycelium/receivables/internal/infrastructure/metrics"
	"github.com/mycelium/receivables/internal/usecase"
)

// LedgerHandler handles the manual ledger surface: reading a customer's
// ledger and posting corrections from the ledger screen.
type LedgerHandler struct {
	ledgerSvc *usecase.LedgerService
	metrics   *metrics.Metrics
}

// NewLedgerHandler creates a new LedgerHandler.
func NewLedgerHandler(ledgerSvc *usecase.LedgerService, m *metrics.Metrics) *LedgerHandler {
	return &LedgerHandler{ledgerSvc: ledgerSvc, metrics: m}
}

// GetLedger returns a customer's entries, most recent first, with running
// balances attached. Optional from/to query params filter the returned
// window without changing the balances.
func (h *LedgerHandler) GetLedger(w http.ResponseWriter, r *http.Request) {
	customerID := chi.URLParam(r, "id")

	input := usecase.GetLedgerInput{CustomerID: customerID}

	if fromStr := r.URL.Query().Get("from"); fromStr != "" {
		from, err := domain.ParseDate(fromStr)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		input.From = &from
	}
	if toStr := r.URL.Query().Get("to"); toStr != "" {
		to, err := domain.ParseDate(toStr)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		input.To = &to
	}

	views, err := h.ledgerSvc.GetLedger(r.Context(), input)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.EntriesFromViews(views))
}

// GetBalance returns a customer's projected current balance.
func (h *LedgerHandler) GetBalance(w http.ResponseWriter, r *http.Request) {
	customerID := chi.URLParam(r, "id")

	balance, err := h.ledgerSvc.GetBalance(r.Context(), customerID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.BalanceResponse{
		CustomerID:     customerID,
		CurrentBalance: balance,
	})
}

// CreateEntry posts a manual entry to a customer's ledger.
func (h *LedgerHandler) CreateEntry(w http.ResponseWriter, r *http.Request) {
	customerID := chi.URLParam(r, "id")

	var req dto.CreateEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	input, err := req.ToUseCaseInput(customerID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	view, err := h.ledgerSvc.CreateEntry(r.Context(), input)
	if err != nil {
		h.countError(err)
		writeDomainError(w, err)
		return
	}

	h.metrics.EntriesCreated.WithLabelValues(string(view.Type)).Inc()
	h.metrics.EntryAmount.Observe(absFloat(view.Amount))
	writeJSON(w, http.StatusCreated, dto.EntryFromView(view))
}

// UpdateEntry patches a manual entry. System-originated rows reject the
// edit with 409.
func (h *LedgerHandler) UpdateEntry(w http.ResponseWriter, r *http.Request) {
	entryID := chi.URLParam(r, "id")

	var req dto.UpdateEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	input, err := req.ToUseCaseInput(entryID, domain.ActorManual)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	view, err := h.ledgerSvc.UpdateEntry(r.Context(), input)
	if err != nil {
		h.countError(err)
		writeDomainError(w, err)
		return
	}

	h.metrics.EntriesUpdated.Inc()
	writeJSON(w, http.StatusOK, dto.EntryFromView(view))
}

// DeleteEntry removes a manual entry.
func (h *LedgerHandler) DeleteEntry(w http.ResponseWriter, r *http.Request) {
	entryID := chi.URLParam(r, "id")

	if err := h.ledgerSvc.DeleteEntry(r.Context(), entryID, domain.ActorManual); err != nil {
		h.countError(err)
		writeDomainError(w, err)
		return
	}

	h.metrics.EntriesDeleted.Inc()
	w.WriteHeader(http.StatusNoContent)
}

// RebuildProjection recomputes one customer's cached balance from the
// entry table.
func (h *LedgerHandler) RebuildProjection(w http.ResponseWriter, r *http.Request) {
	customerID := chi.URLParam(r, "id")

	balance, err := h.ledgerSvc.RebuildProjection(r.Context(), customerID, domain.ActorManual)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	h.metrics.ProjectionRebuilds.Inc()
	writeJSON(w, http.StatusOK, dto.BalanceResponse{
		CustomerID:     customerID,
		CurrentBalance: balance,
	})
}

func (h *LedgerHandler) countError(err error) {
	status := mapDomainError(err)
	switch status {
	case http.StatusConflict:
		h.metrics.EntryErrors.WithLabelValues("immutable").Inc()
	case http.StatusBadRequest:
		h.metrics.EntryErrors.WithLabelValues("invalid").Inc()
	case http.StatusNotFound:
		h.metrics.EntryErrors.WithLabelValues("not_found").Inc()
	case http.StatusServiceUnavailable:
		h.metrics.EntryErrors.WithLabelValues("storage").Inc()
	default:
		h.metrics.EntryErrors.WithLabelValues("internal").Inc()
	}
}

func absFloat(v int64) float64 {
	if v < 0 {
		v = -v
	}
	return float64(v)
}
