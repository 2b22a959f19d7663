package domain

import "time"

// CustomerBalance is the denormalized current balance kept per customer
// for fast debtor listing. It is a cache over the entry sequence, never a
// source of truth: it can always be rebuilt by recomputing the ledger.
type CustomerBalance struct {
	CustomerID     string
	CurrentBalance int64
	UpdatedAt      time.Time
}
