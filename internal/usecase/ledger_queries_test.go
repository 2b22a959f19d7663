package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"go.uber.org/mock/gomock"

	"github.com/mycelium/receivables/internal/domain"
	"github.com/mycelium/receivables/internal/usecase"
	"github.com/mycelium/receivables/internal/usecase/mocks"
)

func TestLedgerService_GetBalance_ReadsProjection(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	balanceRepo := mocks.NewMockCustomerBalanceRepository(ctrl)
	balanceRepo.EXPECT().Get(gomock.Any(), "cust-1").Return(&domain.CustomerBalance{
		CustomerID:     "cust-1",
		CurrentBalance: 150000,
		UpdatedAt:      time.Now(),
	}, nil)

	svc := usecase.NewLedgerService(usecase.LedgerServiceConfig{
		BalanceRepo: balanceRepo,
		Logger:      zerolog.Nop(),
	})

	balance, err := svc.GetBalance(context.Background(), "cust-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if balance != 150000 {
		t.Errorf("expected balance 150000, got %d", balance)
	}
}

func TestLedgerService_GetBalance_ProjectionFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	balanceRepo := mocks.NewMockCustomerBalanceRepository(ctrl)
	balanceRepo.EXPECT().Get(gomock.Any(), "cust-1").Return(nil, errors.New("connection refused"))

	svc := usecase.NewLedgerService(usecase.LedgerServiceConfig{
		BalanceRepo: balanceRepo,
		Logger:      zerolog.Nop(),
	})

	_, err := svc.GetBalance(context.Background(), "cust-1")
	if !errors.Is(err, domain.ErrStorageUnavailable) {
		t.Errorf("expected ErrStorageUnavailable, got %v", err)
	}
}

func TestLedgerService_GetLedger_SingleListQuery(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	date := time.Date(2025, 1, 5, 0, 0, 0, 0, time.UTC)
	entryRepo := mocks.NewMockEntryRepository(ctrl)
	entryRepo.EXPECT().ListByCustomer(gomock.Any(), "cust-1").Return([]*domain.Entry{
		{ID: "e1", CustomerID: "cust-1", TransactionDate: date, Type: domain.EntryTypeCarryover, Amount: 2000, CreatedSequence: 1},
	}, nil)

	svc := usecase.NewLedgerService(usecase.LedgerServiceConfig{
		EntryRepo: entryRepo,
		Logger:    zerolog.Nop(),
	})

	views, err := svc.GetLedger(context.Background(), usecase.GetLedgerInput{CustomerID: "cust-1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(views) != 1 {
		t.Fatalf("expected 1 view, got %d", len(views))
	}
	if views[0].RunningBalance != 2000 {
		t.Errorf("expected running balance 2000, got %d", views[0].RunningBalance)
	}
}
