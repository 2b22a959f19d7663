package usecase

import (
	"context"
	"time"

	"github.com/mycelium/receivables/internal/domain"
)

// EntryRepository defines data access for ledger entries. It is a dumb
// keyed store: ordering and balance math belong to the domain layer.
type EntryRepository interface {
	// Put persists a new entry and fills in its CreatedSequence.
	Put(ctx context.Context, tx Transaction, entry *domain.Entry) error
	Get(ctx context.Context, id string) (*domain.Entry, error)
	GetTx(ctx context.Context, tx Transaction, id string) (*domain.Entry, error)
	ListByCustomer(ctx context.Context, customerID string) ([]*domain.Entry, error)
	ListByCustomerTx(ctx context.Context, tx Transaction, customerID string) ([]*domain.Entry, error)
	Update(ctx context.Context, tx Transaction, entry *domain.Entry) error
	Delete(ctx context.Context, tx Transaction, id string) error
	// ListCustomerIDs returns every customer with at least one entry.
	ListCustomerIDs(ctx context.Context) ([]string, error)
}

// CustomerBalanceRepository defines data access for the current-balance
// projection.
type CustomerBalanceRepository interface {
	Get(ctx context.Context, customerID string) (*domain.CustomerBalance, error)
	// GetForUpdate locks the customer's projection row inside tx,
	// inserting a zero row first if none exists. Every mutation against a
	// customer takes this lock, which serializes same-customer writes.
	GetForUpdate(ctx context.Context, tx Transaction, customerID string) (*domain.CustomerBalance, error)
	Set(ctx context.Context, tx Transaction, customerID string, balance int64, updatedAt time.Time) error
	ListDebtors(ctx context.Context, limit, offset int) ([]*domain.CustomerBalance, error)
	// RebuildAll rewrites every customer's projection from the entry
	// table and returns the number of customers touched.
	RebuildAll(ctx context.Context) (int64, error)
}

// OutboxRepository defines data access for outbox events.
type OutboxRepository interface {
	Create(ctx context.Context, tx Transaction, event *domain.OutboxEvent) error
	GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error)
	MarkPublished(ctx context.Context, id string, publishedAt time.Time) error
	DeletePublished(ctx context.Context, before time.Time) error
}

// AuditRepository defines data access for audit logs.
type AuditRepository interface {
	Create(ctx context.Context, tx Transaction, log *domain.AuditLog) error
	List(ctx context.Context, filter domain.AuditFilter) ([]*domain.AuditLog, error)
	GetByEntry(ctx context.Context, entryID string) ([]*domain.AuditLog, error)
}

// Transaction represents a database transaction.
type Transaction interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// TransactionManager handles transaction lifecycle.
type TransactionManager interface {
	Begin(ctx context.Context) (Transaction, error)
}

// IDGenerator generates unique IDs.
type IDGenerator interface {
	Generate() string
}

// Retrier retries an operation on transient storage errors. The operation
// is the whole logical mutation; it is never resumed mid-way.
type Retrier interface {
	Retry(ctx context.Context, operation func() error) error
}

// Cache defines caching operations.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// IdempotencyStore handles idempotency key storage.
type IdempotencyStore interface {
	// CheckAndSet atomically checks if key exists, sets if not.
	// Returns (exists, existingValue, error).
	CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	// Update updates an existing key with the final response.
	Update(ctx context.Context, key string, response []byte, ttl time.Duration) error
}
