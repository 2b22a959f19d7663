package dto

import (
	"testing"
	"time"

	"github.com/mycelium/receivables/internal/domain"
)

func TestEntryFromView(t *testing.T) {
	now := time.Now().UTC()
	view := &domain.EntryView{
		Entry: domain.Entry{
			ID:              "e1",
			CustomerID:      "cust-1",
			TransactionDate: time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC),
			Type:            domain.EntryTypePayment,
			Amount:          -5000,
			Description:     "bank transfer",
			ReferenceID:     "",
			CreatedAt:       now,
			UpdatedAt:       now,
		},
		RunningBalance: 45000,
	}

	resp := EntryFromView(view)

	if resp.ID != "e1" || resp.CustomerID != "cust-1" {
		t.Fatalf("identity fields mismatch: %+v", resp)
	}
	if resp.TransactionDate != "2025-03-10" {
		t.Fatalf("transaction date = %q, want 2025-03-10", resp.TransactionDate)
	}
	if resp.Amount != -5000 {
		t.Fatalf("amount = %d, want -5000", resp.Amount)
	}
	if resp.RunningBalance != 45000 {
		t.Fatalf("running balance = %d, want 45000", resp.RunningBalance)
	}
}

func TestEntriesFromViews_PreservesOrder(t *testing.T) {
	views := []*domain.EntryView{
		{Entry: domain.Entry{ID: "e3"}, RunningBalance: 30},
		{Entry: domain.Entry{ID: "e2"}, RunningBalance: 20},
		{Entry: domain.Entry{ID: "e1"}, RunningBalance: 10},
	}

	resps := EntriesFromViews(views)

	if len(resps) != 3 {
		t.Fatalf("expected 3 responses, got %d", len(resps))
	}
	for i, want := range []string{"e3", "e2", "e1"} {
		if resps[i].ID != want {
			t.Fatalf("resps[%d].ID = %q, want %q", i, resps[i].ID, want)
		}
	}
}
