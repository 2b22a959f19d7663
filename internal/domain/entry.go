package domain

import (
	"time"
)

// EntryType identifies the kind of ledger entry.
type EntryType string

const (
	EntryTypeCarryover        EntryType = "carryover"
	EntryTypeSale             EntryType = "sale"
	EntryTypeReturn           EntryType = "return"
	EntryTypePayment          EntryType = "payment"
	EntryTypeAdjustment       EntryType = "adjustment"
	EntryTypeSaleRevision     EntryType = "sale_revision"
	EntryTypeSaleCancellation EntryType = "sale_cancellation"
)

// Valid reports whether t is a recognized entry type.
func (t EntryType) Valid() bool {
	switch t {
	case EntryTypeCarryover, EntryTypeSale, EntryTypeReturn, EntryTypePayment,
		EntryTypeAdjustment, EntryTypeSaleRevision, EntryTypeSaleCancellation:
		return true
	}
	return false
}

// Signed reports whether the caller supplies the stored sign directly.
// Adjustments are corrections entered with their sign; sale revisions are
// signed deltas posted by the sales workflow.
func (t EntryType) Signed() bool {
	return t == EntryTypeAdjustment || t == EntryTypeSaleRevision
}

// SystemOriginated reports whether entries of this type are produced by the
// sales workflow rather than the manual ledger screen.
func (t EntryType) SystemOriginated() bool {
	switch t {
	case EntryTypeSale, EntryTypeReturn, EntryTypeSaleRevision, EntryTypeSaleCancellation:
		return true
	}
	return false
}

// Actor identifies who issued a ledger mutation.
type Actor string

const (
	ActorManual        Actor = "manual"
	ActorSalesWorkflow Actor = "sales_workflow"
)

// Entry is a single signed movement on a customer's receivables ledger.
// Amount is the effect on the balance in the smallest currency unit, sign
// already applied (a payment of 10,000 is stored as -10000).
type Entry struct {
	ID              string
	CustomerID      string
	TransactionDate time.Time
	Type            EntryType
	Amount          int64
	Description     string
	ReferenceID     string
	CreatedSequence int64
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// EntryView is an entry plus its running balance, attached at read time.
type EntryView struct {
	Entry
	RunningBalance int64
}

// ApplySign converts an operator-entered amount into the stored signed
// effect on the balance for the given entry type. Payments, returns and
// cancellations always reduce what the customer owes; carryovers and sales
// always increase it; signed types pass through untouched.
func ApplySign(t EntryType, amount int64) int64 {
	if t.Signed() {
		return amount
	}
	abs := amount
	if abs < 0 {
		abs = -abs
	}
	switch t {
	case EntryTypePayment, EntryTypeReturn, EntryTypeSaleCancellation:
		return -abs
	default:
		// carryover, sale
		return abs
	}
}

// MutableBy reports whether the given actor may update or delete this
// entry in place. Workflow-originated sale and return rows keep their
// audit history: only the sales workflow may touch them, and it amends
// orders by posting revision or cancellation entries instead.
func (e *Entry) MutableBy(actor Actor) bool {
	if e.ReferenceID == "" {
		return true
	}
	if e.Type != EntryTypeSale && e.Type != EntryTypeReturn {
		return true
	}
	return actor == ActorSalesWorkflow
}
