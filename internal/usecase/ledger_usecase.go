package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/mycelium/receivables/internal/domain"
)

// LedgerService orchestrates mutations of a customer's receivables
// ledger. Every mutation runs as one transaction: lock the customer's
// projection row, mutate the entry set, recompute running balances over
// the full sequence, write the terminal balance back into the projection.
type LedgerService struct {
	txManager   TransactionManager
	entryRepo   EntryRepository
	balanceRepo CustomerBalanceRepository
	outboxRepo  OutboxRepository
	auditRepo   AuditRepository
	idGen       IDGenerator
	retrier     Retrier
	cache       Cache
	logger      zerolog.Logger
}

// LedgerServiceConfig holds dependencies for LedgerService. OutboxRepo,
// AuditRepo and Cache are optional; a nil value disables that side effect.
type LedgerServiceConfig struct {
	TxManager   TransactionManager
	EntryRepo   EntryRepository
	BalanceRepo CustomerBalanceRepository
	OutboxRepo  OutboxRepository
	AuditRepo   AuditRepository
	IDGen       IDGenerator
	Retrier     Retrier
	Cache       Cache
	Logger      zerolog.Logger
}

// NewLedgerService creates a new LedgerService.
func NewLedgerService(cfg LedgerServiceConfig) *LedgerService {
	return &LedgerService{
		txManager:   cfg.TxManager,
		entryRepo:   cfg.EntryRepo,
		balanceRepo: cfg.BalanceRepo,
		outboxRepo:  cfg.OutboxRepo,
		auditRepo:   cfg.AuditRepo,
		idGen:       cfg.IDGen,
		retrier:     cfg.Retrier,
		cache:       cfg.Cache,
		logger:      cfg.Logger,
	}
}

// CreateEntryInput represents input for creating a ledger entry. Amount is
// the operator-entered magnitude for sign-coerced types, or the signed
// value for adjustments and sale revisions.
type CreateEntryInput struct {
	CustomerID  string
	Type        domain.EntryType
	Date        time.Time
	Amount      int64
	Description string
	ReferenceID string
	Actor       domain.Actor
}

// UpdateEntryInput represents a patch for an existing entry. Nil fields
// are left unchanged.
type UpdateEntryInput struct {
	EntryID     string
	Date        *time.Time
	Type        *domain.EntryType
	Amount      *int64
	Description *string
	Actor       domain.Actor
}

// GetLedgerInput represents input for reading a customer's ledger.
type GetLedgerInput struct {
	CustomerID string
	From       *time.Time
	To         *time.Time
}

// CreateEntry validates, persists and recomputes a new ledger entry,
// returning its view with a fresh running balance.
func (s *LedgerService) CreateEntry(ctx context.Context, input CreateEntryInput) (*domain.EntryView, error) {
	if input.CustomerID == "" {
		return nil, fmt.Errorf("%w: missing customer id", domain.ErrEntryNotFound)
	}
	if err := domain.ValidateType(input.Type); err != nil {
		return nil, err
	}
	if err := domain.ValidateAmount(input.Amount); err != nil {
		return nil, err
	}
	if err := domain.ValidateDescription(input.Description); err != nil {
		return nil, err
	}
	if input.Actor != domain.ActorSalesWorkflow {
		if input.Type.SystemOriginated() {
			return nil, fmt.Errorf("%w: %s entries are posted by the sales workflow", domain.ErrInvalidType, input.Type)
		}
		if input.ReferenceID != "" {
			return nil, fmt.Errorf("%w: reference ids are reserved for workflow entries", domain.ErrInvalidType)
		}
	}

	now := time.Now().UTC()
	entry := &domain.Entry{
		ID:              s.idGen.Generate(),
		CustomerID:      input.CustomerID,
		TransactionDate: input.Date,
		Type:            input.Type,
		Amount:          domain.ApplySign(input.Type, input.Amount),
		Description:     input.Description,
		ReferenceID:     input.ReferenceID,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	var view *domain.EntryView
	err := s.mutate(ctx, input.CustomerID, func(ctx context.Context, tx Transaction) error {
		if err := s.entryRepo.Put(ctx, tx, entry); err != nil {
			return err
		}

		views, balance, err := s.recompute(ctx, tx, input.CustomerID, now)
		if err != nil {
			return err
		}
		view = findView(views, entry.ID)
		if view == nil {
			return fmt.Errorf("created entry %s missing from recomputed sequence", entry.ID)
		}

		if err := s.appendOutbox(ctx, tx, domain.EventTypeEntryCreated, entry, balance, now); err != nil {
			return err
		}

		return s.appendAudit(ctx, tx, &domain.AuditLog{
			Actor:      input.Actor,
			Action:     domain.AuditActionEntryCreate,
			CustomerID: entry.CustomerID,
			EntryID:    entry.ID,
			AfterState: domain.MarshalState(entry),
			CreatedAt:  now,
		})
	})
	if err != nil {
		return nil, err
	}

	s.invalidateDebtors(ctx)
	s.logger.Info().
		Str("entry_id", entry.ID).
		Str("customer_id", entry.CustomerID).
		Str("type", string(entry.Type)).
		Int64("amount", entry.Amount).
		Int64("running_balance", view.RunningBalance).
		Msg("ledger entry created")

	return view, nil
}

// UpdateEntry applies a patch to an entry and recomputes the whole
// customer sequence. Date changes can reorder the sequence, so no suffix
// optimization is attempted.
func (s *LedgerService) UpdateEntry(ctx context.Context, input UpdateEntryInput) (*domain.EntryView, error) {
	if input.Type != nil {
		if err := domain.ValidateType(*input.Type); err != nil {
			return nil, err
		}
		if input.Actor != domain.ActorSalesWorkflow && input.Type.SystemOriginated() {
			return nil, fmt.Errorf("%w: %s entries are posted by the sales workflow", domain.ErrInvalidType, *input.Type)
		}
	}
	if input.Amount != nil {
		if err := domain.ValidateAmount(*input.Amount); err != nil {
			return nil, err
		}
	}
	if input.Description != nil {
		if err := domain.ValidateDescription(*input.Description); err != nil {
			return nil, err
		}
	}

	now := time.Now().UTC()

	var view *domain.EntryView
	err := s.mutateByEntry(ctx, input.EntryID, func(ctx context.Context, tx Transaction, entry *domain.Entry) error {
		if !entry.MutableBy(input.Actor) {
			return domain.ErrImmutableEntry
		}

		before := *entry

		if input.Date != nil {
			entry.TransactionDate = *input.Date
		}
		if input.Type != nil {
			entry.Type = *input.Type
		}
		if input.Amount != nil {
			entry.Amount = domain.ApplySign(entry.Type, *input.Amount)
		} else if input.Type != nil {
			// Type changed without a new amount: re-apply the sign
			// convention of the new type to the stored magnitude.
			entry.Amount = domain.ApplySign(entry.Type, entry.Amount)
		}
		if input.Description != nil {
			entry.Description = *input.Description
		}
		entry.UpdatedAt = now

		if err := s.entryRepo.Update(ctx, tx, entry); err != nil {
			return err
		}

		views, balance, err := s.recompute(ctx, tx, entry.CustomerID, now)
		if err != nil {
			return err
		}
		view = findView(views, entry.ID)
		if view == nil {
			return fmt.Errorf("updated entry %s missing from recomputed sequence", entry.ID)
		}

		if err := s.appendOutbox(ctx, tx, domain.EventTypeEntryUpdated, entry, balance, now); err != nil {
			return err
		}

		return s.appendAudit(ctx, tx, &domain.AuditLog{
			Actor:       input.Actor,
			Action:      domain.AuditActionEntryUpdate,
			CustomerID:  entry.CustomerID,
			EntryID:     entry.ID,
			BeforeState: domain.MarshalState(&before),
			AfterState:  domain.MarshalState(entry),
			CreatedAt:   now,
		})
	})
	if err != nil {
		return nil, err
	}

	s.invalidateDebtors(ctx)
	s.logger.Info().
		Str("entry_id", input.EntryID).
		Int64("running_balance", view.RunningBalance).
		Msg("ledger entry updated")

	return view, nil
}

// DeleteEntry removes an entry and recomputes the remaining sequence. A
// nonexistent id returns ErrEntryNotFound; callers racing a concurrent
// delete treat that as a no-op.
func (s *LedgerService) DeleteEntry(ctx context.Context, id string, actor domain.Actor) error {
	now := time.Now().UTC()

	err := s.mutateByEntry(ctx, id, func(ctx context.Context, tx Transaction, entry *domain.Entry) error {
		if !entry.MutableBy(actor) {
			return domain.ErrImmutableEntry
		}

		if err := s.entryRepo.Delete(ctx, tx, entry.ID); err != nil {
			return err
		}

		_, balance, err := s.recompute(ctx, tx, entry.CustomerID, now)
		if err != nil {
			return err
		}

		if err := s.appendOutbox(ctx, tx, domain.EventTypeEntryDeleted, entry, balance, now); err != nil {
			return err
		}

		return s.appendAudit(ctx, tx, &domain.AuditLog{
			Actor:       actor,
			Action:      domain.AuditActionEntryDelete,
			CustomerID:  entry.CustomerID,
			EntryID:     entry.ID,
			BeforeState: domain.MarshalState(entry),
			CreatedAt:   now,
		})
	})
	if err != nil {
		return err
	}

	s.invalidateDebtors(ctx)
	s.logger.Info().Str("entry_id", id).Msg("ledger entry deleted")

	return nil
}

// GetLedger returns the customer's entries in descending date order with
// running balances attached. Balances are always recomputed over the full
// stored sequence; the optional date range only filters the returned
// views, so a windowed read still shows true running balances.
func (s *LedgerService) GetLedger(ctx context.Context, input GetLedgerInput) ([]*domain.EntryView, error) {
	if err := domain.ValidateDateRange(input.From, input.To); err != nil {
		return nil, err
	}

	entries, err := s.entryRepo.ListByCustomer(ctx, input.CustomerID)
	if err != nil {
		return nil, s.wrapStorage(err)
	}

	views := domain.Recompute(entries)
	if input.From == nil && input.To == nil {
		return views, nil
	}

	filtered := make([]*domain.EntryView, 0, len(views))
	for _, v := range views {
		if input.From != nil && v.TransactionDate.Before(*input.From) {
			continue
		}
		if input.To != nil && v.TransactionDate.After(*input.To) {
			continue
		}
		filtered = append(filtered, v)
	}

	return filtered, nil
}

// GetBalance returns the customer's cached current balance, 0 if the
// customer has no projection row.
func (s *LedgerService) GetBalance(ctx context.Context, customerID string) (int64, error) {
	bal, err := s.balanceRepo.Get(ctx, customerID)
	if err != nil {
		if errors.Is(err, domain.ErrEntryNotFound) {
			return 0, nil
		}
		return 0, s.wrapStorage(err)
	}
	return bal.CurrentBalance, nil
}

// RebuildProjection recomputes one customer's projection from the entry
// table. It is the explicit repair path for a diverged cache.
func (s *LedgerService) RebuildProjection(ctx context.Context, customerID string, actor domain.Actor) (int64, error) {
	now := time.Now().UTC()

	var balance int64
	err := s.mutate(ctx, customerID, func(ctx context.Context, tx Transaction) error {
		var err error
		_, balance, err = s.recompute(ctx, tx, customerID, now)
		if err != nil {
			return err
		}

		if s.outboxRepo != nil {
			event := &domain.OutboxEvent{
				ID:            s.idGen.Generate(),
				AggregateID:   customerID,
				AggregateType: domain.AggregateTypeCustomer,
				EventType:     domain.EventTypeProjectionRebuilt,
				Payload: map[string]any{
					"customer_id":     customerID,
					"current_balance": balance,
				},
				CreatedAt: now,
			}
			if err := s.outboxRepo.Create(ctx, tx, event); err != nil {
				return err
			}
		}

		return s.appendAudit(ctx, tx, &domain.AuditLog{
			Actor:      actor,
			Action:     domain.AuditActionProjectionRebuild,
			CustomerID: customerID,
			AfterState: domain.JSON{"current_balance": balance},
			CreatedAt:  now,
		})
	})
	if err != nil {
		return 0, err
	}

	s.invalidateDebtors(ctx)
	s.logger.Info().
		Str("customer_id", customerID).
		Int64("current_balance", balance).
		Msg("projection rebuilt")

	return balance, nil
}

// mutate runs fn as one retryable transaction serialized on the
// customer's projection row lock.
func (s *LedgerService) mutate(ctx context.Context, customerID string, fn func(ctx context.Context, tx Transaction) error) error {
	op := func() error {
		opCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
		defer cancel()

		tx, err := s.txManager.Begin(opCtx)
		if err != nil {
			return err
		}
		defer tx.Rollback(opCtx)

		if _, err := s.balanceRepo.GetForUpdate(opCtx, tx, customerID); err != nil {
			return err
		}

		if err := fn(opCtx, tx); err != nil {
			return err
		}

		return tx.Commit(opCtx)
	}

	var err error
	if s.retrier != nil {
		err = s.retrier.Retry(ctx, op)
	} else {
		err = op()
	}

	return s.wrapStorage(err)
}

// mutateByEntry resolves the entry first to learn its customer, then runs
// the mutation under that customer's lock, re-reading the entry inside
// the transaction so a racing delete surfaces as ErrEntryNotFound.
func (s *LedgerService) mutateByEntry(ctx context.Context, entryID string, fn func(ctx context.Context, tx Transaction, entry *domain.Entry) error) error {
	current, err := s.entryRepo.Get(ctx, entryID)
	if err != nil {
		return s.wrapStorage(err)
	}

	return s.mutate(ctx, current.CustomerID, func(ctx context.Context, tx Transaction) error {
		entry, err := s.entryRepo.GetTx(ctx, tx, entryID)
		if err != nil {
			return err
		}
		return fn(ctx, tx, entry)
	})
}

// recompute reloads the customer's full sequence inside tx, derives
// running balances and writes the terminal balance into the projection.
func (s *LedgerService) recompute(ctx context.Context, tx Transaction, customerID string, now time.Time) ([]*domain.EntryView, int64, error) {
	entries, err := s.entryRepo.ListByCustomerTx(ctx, tx, customerID)
	if err != nil {
		return nil, 0, err
	}

	views := domain.Recompute(entries)
	balance := int64(0)
	if len(views) > 0 {
		balance = views[0].RunningBalance
	}

	if err := s.balanceRepo.Set(ctx, tx, customerID, balance, now); err != nil {
		return nil, 0, err
	}

	return views, balance, nil
}

func (s *LedgerService) appendOutbox(ctx context.Context, tx Transaction, eventType string, entry *domain.Entry, balance int64, now time.Time) error {
	if s.outboxRepo == nil {
		return nil
	}

	event := &domain.OutboxEvent{
		ID:            s.idGen.Generate(),
		AggregateID:   entry.CustomerID,
		AggregateType: domain.AggregateTypeCustomer,
		EventType:     eventType,
		Payload: map[string]any{
			"entry_id":         entry.ID,
			"customer_id":      entry.CustomerID,
			"transaction_type": string(entry.Type),
			"amount":           entry.Amount,
			"reference_id":     entry.ReferenceID,
			"current_balance":  balance,
		},
		CreatedAt: now,
	}

	return s.outboxRepo.Create(ctx, tx, event)
}

func (s *LedgerService) appendAudit(ctx context.Context, tx Transaction, log *domain.AuditLog) error {
	if s.auditRepo == nil {
		return nil
	}
	return s.auditRepo.Create(ctx, tx, log)
}

// invalidateDebtors drops the cached debtor list after a committed
// mutation. Best effort: a stale cache self-expires on its TTL.
func (s *LedgerService) invalidateDebtors(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, DebtorCacheKey); err != nil {
		s.logger.Warn().Err(err).Msg("failed to invalidate debtor cache")
	}
}

// wrapStorage surfaces non-domain storage failures as the retryable
// ErrStorageUnavailable condition. Domain errors pass through untouched.
func (s *LedgerService) wrapStorage(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, domain.ErrEntryNotFound),
		errors.Is(err, domain.ErrImmutableEntry),
		errors.Is(err, domain.ErrInvalidAmount),
		errors.Is(err, domain.ErrInvalidType),
		errors.Is(err, domain.ErrInvalidDate),
		errors.Is(err, domain.ErrStorageUnavailable):
		return err
	case errors.Is(err, context.Canceled):
		return err
	default:
		return fmt.Errorf("%w: %v", domain.ErrStorageUnavailable, err)
	}
}

func findView(views []*domain.EntryView, id string) *domain.EntryView {
	for _, v := range views {
		if v.ID == id {
			return v
		}
	}
	return nil
}
