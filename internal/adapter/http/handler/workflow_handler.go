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

// WorkflowHandler is the posting surface for the sales order workflow.
// Entries posted here carry a reference id and may use the
// system-originated transaction types.
type WorkflowHandler struct {
	ledgerSvc *usecase.LedgerService
	metrics   *metrics.Metrics
}

// NewWorkflowHandler creates a new WorkflowHandler.
func NewWorkflowHandler(ledgerSvc *usecase.LedgerService, m *metrics.Metrics) *WorkflowHandler {
	return &WorkflowHandler{ledgerSvc: ledgerSvc, metrics: m}
}

// CreateEntry posts a workflow-originated entry.
func (h *WorkflowHandler) CreateEntry(w http.ResponseWriter, r *http.Request) {
	var req dto.WorkflowEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if req.CustomerID == "" {
		writeError(w, http.StatusBadRequest, "missing customer_id", "")
		return
	}
	if req.ReferenceID == "" {
		writeError(w, http.StatusBadRequest, "missing reference_id", "")
		return
	}

	input, err := req.ToUseCaseInput()
	if err != nil {
		writeDomainError(w, err)
		return
	}

	view, err := h.ledgerSvc.CreateEntry(r.Context(), input)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	h.metrics.EntriesCreated.WithLabelValues(string(view.Type)).Inc()
	writeJSON(w, http.StatusCreated, dto.EntryFromView(view))
}

// UpdateEntry patches a workflow-originated entry. The workflow actor may
// touch its own sale and return rows, which manual callers cannot.
func (h *WorkflowHandler) UpdateEntry(w http.ResponseWriter, r *http.Request) {
	entryID := chi.URLParam(r, "id")

	var req dto.UpdateEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	input, err := req.ToUseCaseInput(entryID, domain.ActorSalesWorkflow)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	view, err := h.ledgerSvc.UpdateEntry(r.Context(), input)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	h.metrics.EntriesUpdated.Inc()
	writeJSON(w, http.StatusOK, dto.EntryFromView(view))
}
