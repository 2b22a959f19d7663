package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mycelium/receivables/internal/adapter/http/dto"
	"github.com/mycelium/receivables/tests/testutil"
)

func TestLedgerFlow(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	ctx := context.Background()

	testDB := testutil.NewTestDB(t)
	defer testDB.Cleanup()

	router := newTestServer(t, testDB)

	postManual := func(t *testing.T, customerID string, req dto.CreateEntryRequest) dto.EntryResponse {
		t.Helper()
		body, _ := json.Marshal(req)
		r := httptest.NewRequest(http.MethodPost, "/api/v1/customers/"+customerID+"/ledger", bytes.NewReader(body))
		r.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, r)
		if w.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
		}
		var resp dto.EntryResponse
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("failed to parse response: %v", err)
		}
		return resp
	}

	postWorkflow := func(t *testing.T, req dto.WorkflowEntryRequest) dto.EntryResponse {
		t.Helper()
		body, _ := json.Marshal(req)
		r := httptest.NewRequest(http.MethodPost, "/api/v1/workflows/sales/entries/", bytes.NewReader(body))
		r.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, r)
		if w.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
		}
		var resp dto.EntryResponse
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("failed to parse response: %v", err)
		}
		return resp
	}

	getLedger := func(t *testing.T, customerID, query string) []dto.EntryResponse {
		t.Helper()
		r := httptest.NewRequest(http.MethodGet, "/api/v1/customers/"+customerID+"/ledger"+query, nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, r)
		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
		}
		var views []dto.EntryResponse
		if err := json.Unmarshal(w.Body.Bytes(), &views); err != nil {
			t.Fatalf("failed to parse response: %v", err)
		}
		return views
	}

	t.Run("running balances across a month of activity", func(t *testing.T) {
		testDB.TruncateAll(ctx)

		postManual(t, "cust-1", dto.CreateEntryRequest{
			TransactionDate: "2025-01-01", Type: "carryover", Amount: 50000,
		})
		postWorkflow(t, dto.WorkflowEntryRequest{
			CustomerID: "cust-1", TransactionDate: "2025-01-10",
			Type: "sale", Amount: 10000, ReferenceID: "ORD-1",
		})
		postManual(t, "cust-1", dto.CreateEntryRequest{
			TransactionDate: "2025-01-20", Type: "payment", Amount: 20000,
		})

		views := getLedger(t, "cust-1", "")
		if len(views) != 3 {
			t.Fatalf("expected 3 entries, got %d", len(views))
		}
		wantBalances := []int64{40000, 60000, 50000}
		for i, want := range wantBalances {
			if views[i].RunningBalance != want {
				t.Fatalf("views[%d].RunningBalance = %d, want %d", i, views[i].RunningBalance, want)
			}
		}

		if got := testDB.ProjectedBalance(ctx, "cust-1"); got != 40000 {
			t.Fatalf("projected balance = %d, want 40000", got)
		}
	})

	t.Run("backdated entry reorders the sequence", func(t *testing.T) {
		testDB.TruncateAll(ctx)

		postManual(t, "cust-2", dto.CreateEntryRequest{
			TransactionDate: "2025-02-01", Type: "carryover", Amount: 10000,
		})
		postManual(t, "cust-2", dto.CreateEntryRequest{
			TransactionDate: "2025-02-20", Type: "payment", Amount: 4000,
		})
		backdated := postManual(t, "cust-2", dto.CreateEntryRequest{
			TransactionDate: "2025-02-10", Type: "adjustment", Amount: 500,
		})

		if backdated.RunningBalance != 10500 {
			t.Fatalf("backdated running balance = %d, want 10500", backdated.RunningBalance)
		}
		if got := testDB.ProjectedBalance(ctx, "cust-2"); got != 6500 {
			t.Fatalf("projected balance = %d, want 6500", got)
		}
	})

	t.Run("date window keeps true balances", func(t *testing.T) {
		testDB.TruncateAll(ctx)

		postManual(t, "cust-3", dto.CreateEntryRequest{
			TransactionDate: "2025-01-01", Type: "carryover", Amount: 50000,
		})
		postManual(t, "cust-3", dto.CreateEntryRequest{
			TransactionDate: "2025-01-20", Type: "payment", Amount: 20000,
		})

		views := getLedger(t, "cust-3", "?from=2025-01-10&to=2025-01-31")
		if len(views) != 1 {
			t.Fatalf("expected 1 entry in window, got %d", len(views))
		}
		if views[0].RunningBalance != 30000 {
			t.Fatalf("windowed running balance = %d, want 30000", views[0].RunningBalance)
		}
	})

	t.Run("manual edit of workflow sale conflicts", func(t *testing.T) {
		testDB.TruncateAll(ctx)

		sale := postWorkflow(t, dto.WorkflowEntryRequest{
			CustomerID: "cust-4", TransactionDate: "2025-02-01",
			Type: "sale", Amount: 5000, ReferenceID: "ORD-9",
		})

		amount := int64(1)
		body, _ := json.Marshal(dto.UpdateEntryRequest{Amount: &amount})
		r := httptest.NewRequest(http.MethodPut, "/api/v1/ledger/entries/"+sale.ID, bytes.NewReader(body))
		r.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, r)

		if w.Code != http.StatusConflict {
			t.Fatalf("expected 409, got %d: %s", w.Code, w.Body.String())
		}

		// The workflow surface can revise its own sale.
		amount = int64(4500)
		body, _ = json.Marshal(dto.UpdateEntryRequest{Amount: &amount})
		r = httptest.NewRequest(http.MethodPut, "/api/v1/workflows/sales/entries/"+sale.ID, bytes.NewReader(body))
		r.Header.Set("Content-Type", "application/json")
		w = httptest.NewRecorder()
		router.ServeHTTP(w, r)

		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
		}
		if got := testDB.ProjectedBalance(ctx, "cust-4"); got != 4500 {
			t.Fatalf("projected balance = %d, want 4500", got)
		}
	})

	t.Run("delete recomputes and zeroes projection", func(t *testing.T) {
		testDB.TruncateAll(ctx)

		entry := postManual(t, "cust-5", dto.CreateEntryRequest{
			TransactionDate: "2025-03-01", Type: "carryover", Amount: 7000,
		})

		r := httptest.NewRequest(http.MethodDelete, "/api/v1/ledger/entries/"+entry.ID, nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, r)

		if w.Code != http.StatusNoContent {
			t.Fatalf("expected 204, got %d", w.Code)
		}
		if got := testDB.ProjectedBalance(ctx, "cust-5"); got != 0 {
			t.Fatalf("projected balance = %d, want 0", got)
		}
	})

	t.Run("rebuild repairs a corrupted projection", func(t *testing.T) {
		testDB.TruncateAll(ctx)

		postManual(t, "cust-6", dto.CreateEntryRequest{
			TransactionDate: "2025-03-01", Type: "carryover", Amount: 8000,
		})

		_, err := testDB.Pool.Exec(ctx,
			`UPDATE customer_balances SET current_balance = 999 WHERE customer_id = 'cust-6'`)
		if err != nil {
			t.Fatalf("failed to corrupt projection: %v", err)
		}

		r := httptest.NewRequest(http.MethodPost, "/api/v1/ledger/projections/cust-6/rebuild", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, r)

		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
		}
		if got := testDB.ProjectedBalance(ctx, "cust-6"); got != 8000 {
			t.Fatalf("projected balance = %d, want 8000", got)
		}
	})

	t.Run("debtor list reflects nonzero balances", func(t *testing.T) {
		testDB.TruncateAll(ctx)

		postManual(t, "debtor-a", dto.CreateEntryRequest{
			TransactionDate: "2025-03-01", Type: "carryover", Amount: 9000,
		})
		postManual(t, "paid-up", dto.CreateEntryRequest{
			TransactionDate: "2025-03-01", Type: "carryover", Amount: 100,
		})
		postManual(t, "paid-up", dto.CreateEntryRequest{
			TransactionDate: "2025-03-02", Type: "payment", Amount: 100,
		})

		r := httptest.NewRequest(http.MethodGet, "/api/v1/ledger/debtors?rebuild=true", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, r)

		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
		}

		var debtors []struct {
			CustomerID     string `json:"customer_id"`
			CurrentBalance int64  `json:"current_balance"`
		}
		if err := json.Unmarshal(w.Body.Bytes(), &debtors); err != nil {
			t.Fatalf("failed to parse response: %v", err)
		}
		if len(debtors) != 1 || debtors[0].CustomerID != "debtor-a" || debtors[0].CurrentBalance != 9000 {
			t.Fatalf("expected only debtor-a with 9000, got %+v", debtors)
		}
	})

	t.Run("idempotency key replays the first response", func(t *testing.T) {
		testDB.TruncateAll(ctx)

		body, _ := json.Marshal(dto.CreateEntryRequest{
			TransactionDate: "2025-03-01", Type: "payment", Amount: 500,
		})

		r := httptest.NewRequest(http.MethodPost, "/api/v1/customers/cust-7/ledger", bytes.NewReader(body))
		r.Header.Set("Content-Type", "application/json")
		r.Header.Set("Idempotency-Key", "replay-test-cust-7")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, r)
		if w.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
		}
		first := w.Body.String()

		r = httptest.NewRequest(http.MethodPost, "/api/v1/customers/cust-7/ledger", bytes.NewReader(body))
		r.Header.Set("Content-Type", "application/json")
		r.Header.Set("Idempotency-Key", "replay-test-cust-7")
		w = httptest.NewRecorder()
		router.ServeHTTP(w, r)

		if w.Header().Get("X-Idempotency-Replay") != "true" {
			t.Fatalf("expected replay header on duplicate request")
		}
		if w.Body.String() != first {
			t.Fatalf("expected replayed body to match first response")
		}
		if got := testDB.ProjectedBalance(ctx, "cust-7"); got != -500 {
			t.Fatalf("duplicate must not double-post: balance = %d, want -500", got)
		}
	})
}
