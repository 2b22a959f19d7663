package mocks

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/mycelium/receivables/internal/domain"
	"github.com/mycelium/receivables/internal/usecase"
)

// FakeEntryRepository is an in-memory mock implementation of
// EntryRepository. Retrieval order is deliberately map-random so tests
// exercise the canonical re-sort in the balance engine.
type FakeEntryRepository struct {
	mu      sync.RWMutex
	entries map[string]*domain.Entry
	seq     int64

	PutFunc            func(ctx context.Context, tx usecase.Transaction, entry *domain.Entry) error
	GetFunc            func(ctx context.Context, id string) (*domain.Entry, error)
	ListByCustomerFunc func(ctx context.Context, customerID string) ([]*domain.Entry, error)
	UpdateFunc         func(ctx context.Context, tx usecase.Transaction, entry *domain.Entry) error
	DeleteFunc         func(ctx context.Context, tx usecase.Transaction, id string) error
}

func NewFakeEntryRepository() *FakeEntryRepository {
	return &FakeEntryRepository{
		entries: make(map[string]*domain.Entry),
	}
}

func (m *FakeEntryRepository) Put(ctx context.Context, tx usecase.Transaction, entry *domain.Entry) error {
	if m.PutFunc != nil {
		return m.PutFunc(ctx, tx, entry)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	entry.CreatedSequence = m.seq
	clone := *entry
	m.entries[entry.ID] = &clone
	return nil
}

func (m *FakeEntryRepository) Get(ctx context.Context, id string) (*domain.Entry, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, id)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if e, ok := m.entries[id]; ok {
		clone := *e
		return &clone, nil
	}
	return nil, domain.ErrEntryNotFound
}

func (m *FakeEntryRepository) GetTx(ctx context.Context, tx usecase.Transaction, id string) (*domain.Entry, error) {
	return m.Get(ctx, id)
}

func (m *FakeEntryRepository) ListByCustomer(ctx context.Context, customerID string) ([]*domain.Entry, error) {
	if m.ListByCustomerFunc != nil {
		return m.ListByCustomerFunc(ctx, customerID)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var entries []*domain.Entry
	for _, e := range m.entries {
		if e.CustomerID == customerID {
			clone := *e
			entries = append(entries, &clone)
		}
	}
	return entries, nil
}

func (m *FakeEntryRepository) ListByCustomerTx(ctx context.Context, tx usecase.Transaction, customerID string) ([]*domain.Entry, error) {
	return m.ListByCustomer(ctx, customerID)
}

func (m *FakeEntryRepository) Update(ctx context.Context, tx usecase.Transaction, entry *domain.Entry) error {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, tx, entry)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.entries[entry.ID]; !ok {
		return domain.ErrEntryNotFound
	}
	clone := *entry
	m.entries[entry.ID] = &clone
	return nil
}

func (m *FakeEntryRepository) Delete(ctx context.Context, tx usecase.Transaction, id string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, tx, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.entries[id]; !ok {
		return domain.ErrEntryNotFound
	}
	delete(m.entries, id)
	return nil
}

func (m *FakeEntryRepository) ListCustomerIDs(ctx context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	seen := make(map[string]bool)
	var ids []string
	for _, e := range m.entries {
		if !seen[e.CustomerID] {
			seen[e.CustomerID] = true
			ids = append(ids, e.CustomerID)
		}
	}
	return ids, nil
}

// FakeCustomerBalanceRepository is an in-memory mock of the projection.
type FakeCustomerBalanceRepository struct {
	mu       sync.RWMutex
	balances map[string]int64

	GetFunc          func(ctx context.Context, customerID string) (*domain.CustomerBalance, error)
	GetForUpdateFunc func(ctx context.Context, tx usecase.Transaction, customerID string) (*domain.CustomerBalance, error)
	SetFunc          func(ctx context.Context, tx usecase.Transaction, customerID string, balance int64, updatedAt time.Time) error
	ListDebtorsFunc  func(ctx context.Context, limit, offset int) ([]*domain.CustomerBalance, error)
	RebuildAllFunc   func(ctx context.Context) (int64, error)
}

func NewFakeCustomerBalanceRepository() *FakeCustomerBalanceRepository {
	return &FakeCustomerBalanceRepository{
		balances: make(map[string]int64),
	}
}

func (m *FakeCustomerBalanceRepository) Get(ctx context.Context, customerID string) (*domain.CustomerBalance, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, customerID)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	bal, ok := m.balances[customerID]
	if !ok {
		return nil, domain.ErrEntryNotFound
	}
	return &domain.CustomerBalance{CustomerID: customerID, CurrentBalance: bal}, nil
}

func (m *FakeCustomerBalanceRepository) GetForUpdate(ctx context.Context, tx usecase.Transaction, customerID string) (*domain.CustomerBalance, error) {
	if m.GetForUpdateFunc != nil {
		return m.GetForUpdateFunc(ctx, tx, customerID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	bal := m.balances[customerID]
	m.balances[customerID] = bal
	return &domain.CustomerBalance{CustomerID: customerID, CurrentBalance: bal}, nil
}

func (m *FakeCustomerBalanceRepository) Set(ctx context.Context, tx usecase.Transaction, customerID string, balance int64, updatedAt time.Time) error {
	if m.SetFunc != nil {
		return m.SetFunc(ctx, tx, customerID, balance, updatedAt)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.balances[customerID] = balance
	return nil
}

func (m *FakeCustomerBalanceRepository) ListDebtors(ctx context.Context, limit, offset int) ([]*domain.CustomerBalance, error) {
	if m.ListDebtorsFunc != nil {
		return m.ListDebtorsFunc(ctx, limit, offset)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.CustomerBalance
	for id, bal := range m.balances {
		if bal != 0 {
			out = append(out, &domain.CustomerBalance{CustomerID: id, CurrentBalance: bal})
		}
	}
	return out, nil
}

func (m *FakeCustomerBalanceRepository) RebuildAll(ctx context.Context) (int64, error) {
	if m.RebuildAllFunc != nil {
		return m.RebuildAllFunc(ctx)
	}
	return int64(len(m.balances)), nil
}

// Balance returns the stored projection value for assertions.
func (m *FakeCustomerBalanceRepository) Balance(customerID string) int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.balances[customerID]
}

// FakeOutboxRepository collects outbox events in memory.
type FakeOutboxRepository struct {
	mu     sync.Mutex
	Events []*domain.OutboxEvent

	CreateFunc func(ctx context.Context, tx usecase.Transaction, event *domain.OutboxEvent) error
}

func NewFakeOutboxRepository() *FakeOutboxRepository {
	return &FakeOutboxRepository{}
}

func (m *FakeOutboxRepository) Create(ctx context.Context, tx usecase.Transaction, event *domain.OutboxEvent) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tx, event)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Events = append(m.Events, event)
	return nil
}

func (m *FakeOutboxRepository) GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.OutboxEvent
	for _, e := range m.Events {
		if !e.Published {
			out = append(out, e)
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (m *FakeOutboxRepository) MarkPublished(ctx context.Context, id string, publishedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.Events {
		if e.ID == id {
			e.Published = true
			e.PublishedAt = &publishedAt
			return nil
		}
	}
	return domain.ErrEntryNotFound
}

func (m *FakeOutboxRepository) DeletePublished(ctx context.Context, before time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.Events[:0]
	for _, e := range m.Events {
		if !e.Published || e.CreatedAt.After(before) {
			kept = append(kept, e)
		}
	}
	m.Events = kept
	return nil
}

// FakeAuditRepository collects audit logs in memory.
type FakeAuditRepository struct {
	mu   sync.Mutex
	Logs []*domain.AuditLog
}

func NewFakeAuditRepository() *FakeAuditRepository {
	return &FakeAuditRepository{}
}

func (m *FakeAuditRepository) Create(ctx context.Context, tx usecase.Transaction, log *domain.AuditLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Logs = append(m.Logs, log)
	return nil
}

func (m *FakeAuditRepository) List(ctx context.Context, filter domain.AuditFilter) ([]*domain.AuditLog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*domain.AuditLog(nil), m.Logs...), nil
}

func (m *FakeAuditRepository) GetByEntry(ctx context.Context, entryID string) ([]*domain.AuditLog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.AuditLog
	for _, l := range m.Logs {
		if l.EntryID == entryID {
			out = append(out, l)
		}
	}
	return out, nil
}

// FakeTransaction is a no-op transaction.
type FakeTransaction struct {
	CommitFunc   func(ctx context.Context) error
	RollbackFunc func(ctx context.Context) error

	Committed  bool
	RolledBack bool
}

func (t *FakeTransaction) Commit(ctx context.Context) error {
	if t.CommitFunc != nil {
		return t.CommitFunc(ctx)
	}
	t.Committed = true
	return nil
}

func (t *FakeTransaction) Rollback(ctx context.Context) error {
	if t.RollbackFunc != nil {
		return t.RollbackFunc(ctx)
	}
	t.RolledBack = true
	return nil
}

// FakeTransactionManager hands out no-op transactions.
type FakeTransactionManager struct {
	BeginFunc func(ctx context.Context) (usecase.Transaction, error)
}

func NewFakeTransactionManager() *FakeTransactionManager {
	return &FakeTransactionManager{}
}

func (m *FakeTransactionManager) Begin(ctx context.Context) (usecase.Transaction, error) {
	if m.BeginFunc != nil {
		return m.BeginFunc(ctx)
	}
	return &FakeTransaction{}, nil
}

// FakeIDGenerator generates deterministic sequential IDs.
type FakeIDGenerator struct {
	mu           sync.Mutex
	counter      int
	GenerateFunc func() string
}

func NewFakeIDGenerator() *FakeIDGenerator {
	return &FakeIDGenerator{}
}

func (m *FakeIDGenerator) Generate() string {
	if m.GenerateFunc != nil {
		return m.GenerateFunc()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counter++
	return fmt.Sprintf("id-%04d", m.counter)
}

// FakeRetrier runs the operation once without retrying.
type FakeRetrier struct {
	RetryFunc func(ctx context.Context, operation func() error) error
}

func NewFakeRetrier() *FakeRetrier {
	return &FakeRetrier{}
}

func (m *FakeRetrier) Retry(ctx context.Context, operation func() error) error {
	if m.RetryFunc != nil {
		return m.RetryFunc(ctx, operation)
	}
	return operation()
}

// FakeCache is an in-memory cache without TTL handling.
type FakeCache struct {
	mu    sync.Mutex
	store map[string][]byte

	GetFunc    func(ctx context.Context, key string) ([]byte, error)
	SetFunc    func(ctx context.Context, key string, value []byte, ttl time.Duration) error
	DeleteFunc func(ctx context.Context, key string) error
}

func NewFakeCache() *FakeCache {
	return &FakeCache{store: make(map[string][]byte)}
}

func (m *FakeCache) Get(ctx context.Context, key string) ([]byte, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, key)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if v, ok := m.store[key]; ok {
		return v, nil
	}
	return nil, fmt.Errorf("cache miss: %s", key)
}

func (m *FakeCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if m.SetFunc != nil {
		return m.SetFunc(ctx, key, value, ttl)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.store[key] = value
	return nil
}

func (m *FakeCache) Delete(ctx context.Context, key string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, key)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.store, key)
	return nil
}
