package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/mycelium/receivables/internal/domain"
)

// DebtorService serves the debtor list screen. Reads come from the
// customer balance projection fronted by a short-TTL cache; the
// projection itself can always be rebuilt from the entry table, so
// neither layer is ever the source of truth.
type DebtorService struct {
	balanceRepo CustomerBalanceRepository
	entryRepo   EntryRepository
	cache       Cache
	logger      zerolog.Logger
}

// NewDebtorService creates a new DebtorService.
func NewDebtorService(balanceRepo CustomerBalanceRepository, entryRepo EntryRepository, cache Cache, logger zerolog.Logger) *DebtorService {
	return &DebtorService{
		balanceRepo: balanceRepo,
		entryRepo:   entryRepo,
		cache:       cache,
		logger:      logger,
	}
}

// ListDebtorsInput represents input for listing debtors.
type ListDebtorsInput struct {
	Limit  int
	Offset int
	// Rebuild forces a self-healing pass: every customer's projection is
	// rewritten from the entry table before listing.
	Rebuild bool
}

// Debtor is one row of the debtor list.
type Debtor struct {
	CustomerID     string `json:"customer_id"`
	CurrentBalance int64  `json:"current_balance"`
}

// ListDebtors returns customers with a nonzero current balance, largest
// balance first.
func (s *DebtorService) ListDebtors(ctx context.Context, input ListDebtorsInput) ([]*Debtor, error) {
	limit, offset := domain.ValidatePagination(input.Limit, input.Offset)

	if input.Rebuild {
		touched, err := s.balanceRepo.RebuildAll(ctx)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrStorageUnavailable, err)
		}
		s.invalidate(ctx)
		s.logger.Info().Int64("customers", touched).Msg("projections rebuilt before debtor listing")
	}

	// Only the first page is cached; it is the one the picker renders.
	cacheable := s.cache != nil && offset == 0 && !input.Rebuild
	if cacheable {
		if debtors, ok := s.fromCache(ctx, limit); ok {
			return debtors, nil
		}
	}

	balances, err := s.balanceRepo.ListDebtors(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStorageUnavailable, err)
	}

	debtors := make([]*Debtor, 0, len(balances))
	for _, b := range balances {
		debtors = append(debtors, &Debtor{
			CustomerID:     b.CustomerID,
			CurrentBalance: b.CurrentBalance,
		})
	}

	if cacheable {
		s.toCache(ctx, debtors)
	}

	return debtors, nil
}

func (s *DebtorService) fromCache(ctx context.Context, limit int) ([]*Debtor, bool) {
	data, err := s.cache.Get(ctx, DebtorCacheKey)
	if err != nil {
		return nil, false
	}

	var debtors []*Debtor
	if err := json.Unmarshal(data, &debtors); err != nil {
		s.logger.Warn().Err(err).Msg("corrupt debtor cache entry, dropping")
		_ = s.cache.Delete(ctx, DebtorCacheKey)
		return nil, false
	}

	if len(debtors) > limit {
		debtors = debtors[:limit]
	}

	return debtors, true
}

func (s *DebtorService) toCache(ctx context.Context, debtors []*Debtor) {
	data, err := json.Marshal(debtors)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, DebtorCacheKey, data, DebtorCacheTTL); err != nil {
		s.logger.Warn().Err(err).Msg("failed to cache debtor list")
	}
}

func (s *DebtorService) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, DebtorCacheKey); err != nil && !errors.Is(err, context.Canceled) {
		s.logger.Warn().Err(err).Msg("failed to invalidate debtor cache")
	}
}

// ConsistencyResult compares one customer's projection against the sum of
// their stored entries. A divergence means the projection needs a rebuild.
type ConsistencyResult struct {
	CustomerID        string    `json:"customer_id"`
	ProjectedBalance  int64     `json:"projected_balance"`
	CalculatedBalance int64     `json:"calculated_balance"`
	Consistent        bool      `json:"consistent"`
	CheckedAt         time.Time `json:"checked_at"`
}

// CheckConsistency verifies projection-vs-ledger agreement for a customer.
func (s *DebtorService) CheckConsistency(ctx context.Context, customerID string) (*ConsistencyResult, error) {
	entries, err := s.entryRepo.ListByCustomer(ctx, customerID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStorageUnavailable, err)
	}

	calculated := domain.CurrentBalance(entries)

	projected := int64(0)
	if bal, err := s.balanceRepo.Get(ctx, customerID); err == nil {
		projected = bal.CurrentBalance
	} else if !errors.Is(err, domain.ErrEntryNotFound) {
		return nil, fmt.Errorf("%w: %v", domain.ErrStorageUnavailable, err)
	}

	return &ConsistencyResult{
		CustomerID:        customerID,
		ProjectedBalance:  projected,
		CalculatedBalance: calculated,
		Consistent:        projected == calculated,
		CheckedAt:         time.Now().UTC(),
	}, nil
}
