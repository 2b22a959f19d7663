package usecase

import "time"

const (
	// DefaultTransactionTimeout is the maximum duration for a database transaction
	// This prevents long-running transactions from blocking tables
	DefaultTransactionTimeout = 10 * time.Second

	// DebtorCacheTTL is how long the debtor list is served from cache
	// before falling back to the projection table.
	DebtorCacheTTL = 30 * time.Second

	// DebtorCacheKey is the cache key for the debtor list.
	DebtorCacheKey = "debtors"

	// IdempotencyKeyTTL is how long idempotency keys are cached
	IdempotencyKeyTTL = 24 * time.Hour
)
