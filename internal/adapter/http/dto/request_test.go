package dto

import (
	"errors"
	"testing"
	"time"

	"github.com/mycelium/receivables/internal/domain"
)

func TestCreateEntryRequest_ToUseCaseInput(t *testing.T) {
	req := &CreateEntryRequest{
		TransactionDate: "2025-03-10",
		Type:            "payment",
		Amount:          5000,
		Description:     "bank transfer",
	}

	got, err := req.ToUseCaseInput("cust-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got.CustomerID != "cust-1" {
		t.Fatalf("customer id = %q, want cust-1", got.CustomerID)
	}
	if got.Type != domain.EntryTypePayment {
		t.Fatalf("type = %q, want payment", got.Type)
	}
	if got.Actor != domain.ActorManual {
		t.Fatalf("manual surface must post as the manual actor, got %q", got.Actor)
	}
	want := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	if !got.Date.Equal(want) {
		t.Fatalf("date = %v, want %v", got.Date, want)
	}
	if got.ReferenceID != "" {
		t.Fatalf("manual entries must not carry a reference id, got %q", got.ReferenceID)
	}
}

func TestCreateEntryRequest_BadDate(t *testing.T) {
	req := &CreateEntryRequest{
		TransactionDate: "10.03.2025",
		Type:            "payment",
		Amount:          5000,
	}

	if _, err := req.ToUseCaseInput("cust-1"); !errors.Is(err, domain.ErrInvalidDate) {
		t.Fatalf("expected ErrInvalidDate, got %v", err)
	}
}

func TestWorkflowEntryRequest_ToUseCaseInput(t *testing.T) {
	req := &WorkflowEntryRequest{
		CustomerID:      "cust-1",
		TransactionDate: "2025-02-01",
		Type:            "sale",
		Amount:          9900,
		ReferenceID:     "ORD-42",
	}

	got, err := req.ToUseCaseInput()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got.Actor != domain.ActorSalesWorkflow {
		t.Fatalf("workflow surface must post as the workflow actor, got %q", got.Actor)
	}
	if got.ReferenceID != "ORD-42" {
		t.Fatalf("reference id = %q, want ORD-42", got.ReferenceID)
	}
}

func TestUpdateEntryRequest_ToUseCaseInput(t *testing.T) {
	dateStr := "2025-04-01"
	typeStr := "adjustment"
	amount := int64(-250)

	req := &UpdateEntryRequest{
		TransactionDate: &dateStr,
		Type:            &typeStr,
		Amount:          &amount,
	}

	got, err := req.ToUseCaseInput("entry-1", domain.ActorManual)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got.EntryID != "entry-1" {
		t.Fatalf("entry id = %q, want entry-1", got.EntryID)
	}
	if got.Date == nil || !got.Date.Equal(time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("date = %v, want 2025-04-01", got.Date)
	}
	if got.Type == nil || *got.Type != domain.EntryTypeAdjustment {
		t.Fatalf("type = %v, want adjustment", got.Type)
	}
	if got.Amount == nil || *got.Amount != -250 {
		t.Fatalf("amount = %v, want -250", got.Amount)
	}
}

func TestUpdateEntryRequest_AbsentFieldsStayNil(t *testing.T) {
	req := &UpdateEntryRequest{}

	got, err := req.ToUseCaseInput("entry-1", domain.ActorManual)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got.Date != nil || got.Type != nil || got.Amount != nil || got.Description != nil {
		t.Fatalf("expected all patch fields nil, got %+v", got)
	}
}

func TestUpdateEntryRequest_BadDate(t *testing.T) {
	dateStr := "soon"
	req := &UpdateEntryRequest{TransactionDate: &dateStr}

	if _, err := req.ToUseCaseInput("entry-1", domain.ActorManual); !errors.Is(err, domain.ErrInvalidDate) {
		t.Fatalf("expected ErrInvalidDate, got %v", err)
	}
}
