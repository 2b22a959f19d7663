package integration

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/mycelium/receivables/internal/adapter/repository/postgres"
	"github.com/mycelium/receivables/internal/domain"
	"github.com/mycelium/receivables/internal/usecase"
	"github.com/mycelium/receivables/tests/testutil"
)

func TestConcurrentEntryPosting(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	ctx := context.Background()

	testDB := testutil.NewTestDB(t)
	defer testDB.Cleanup()

	pool := testDB.Pool
	svc := usecase.NewLedgerService(usecase.LedgerServiceConfig{
		TxManager:   postgres.NewTxManager(pool),
		EntryRepo:   postgres.NewEntryRepository(pool),
		BalanceRepo: postgres.NewCustomerBalanceRepository(pool),
		IDGen:       postgres.NewULIDGenerator(),
		Retrier:     postgres.NewRetrier(),
		Logger:      zerolog.Nop(),
	})

	date := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)

	t.Run("100 concurrent payments converge on one balance", func(t *testing.T) {
		testDB.TruncateAll(ctx)

		_, err := svc.CreateEntry(ctx, usecase.CreateEntryInput{
			CustomerID: "hot-customer",
			Type:       domain.EntryTypeCarryover,
			Date:       date,
			Amount:     100000,
			Actor:      domain.ActorManual,
		})
		if err != nil {
			t.Fatalf("failed to seed carryover: %v", err)
		}

		numEntries := 100

		var (
			wg           sync.WaitGroup
			successCount atomic.Int32
			errorCount   atomic.Int32
		)

		wg.Add(numEntries)

		for i := range numEntries {
			go func() {
				defer wg.Done()

				_, err := svc.CreateEntry(ctx, usecase.CreateEntryInput{
					CustomerID: "hot-customer",
					Type:       domain.EntryTypePayment,
					Date:       date.AddDate(0, 0, 1+i%28),
					Amount:     100,
					Actor:      domain.ActorManual,
				})
				if err != nil {
					errorCount.Add(1)
				} else {
					successCount.Add(1)
				}
			}()
		}

		wg.Wait()

		if successCount.Load() != int32(numEntries) {
			t.Errorf("expected %d successful entries, got %d (errors: %d)",
				numEntries, successCount.Load(), errorCount.Load())
		}

		// 100000 - 100*100 = 90000
		if got := testDB.ProjectedBalance(ctx, "hot-customer"); got != 90000 {
			t.Errorf("projected balance = %d, want 90000", got)
		}

		views, err := svc.GetLedger(ctx, usecase.GetLedgerInput{CustomerID: "hot-customer"})
		if err != nil {
			t.Fatalf("failed to read ledger: %v", err)
		}
		if len(views) != numEntries+1 {
			t.Fatalf("expected %d entries, got %d", numEntries+1, len(views))
		}
		if views[0].RunningBalance != 90000 {
			t.Errorf("newest running balance = %d, want 90000", views[0].RunningBalance)
		}
		// Walking from oldest to newest, each running balance must equal
		// the previous one plus the signed amount.
		for i := len(views) - 2; i >= 0; i-- {
			want := views[i+1].RunningBalance + views[i].Amount
			if views[i].RunningBalance != want {
				t.Fatalf("views[%d].RunningBalance = %d, want %d", i, views[i].RunningBalance, want)
			}
		}
	})

	t.Run("concurrent updates to the same entry stay consistent", func(t *testing.T) {
		testDB.TruncateAll(ctx)

		entry, err := svc.CreateEntry(ctx, usecase.CreateEntryInput{
			CustomerID: "contended",
			Type:       domain.EntryTypeAdjustment,
			Date:       date,
			Amount:     1000,
			Actor:      domain.ActorManual,
		})
		if err != nil {
			t.Fatalf("failed to create entry: %v", err)
		}

		amounts := []int64{100, 200, 300, 400, 500}

		var wg sync.WaitGroup
		wg.Add(len(amounts))

		for _, amount := range amounts {
			go func() {
				defer wg.Done()

				if _, err := svc.UpdateEntry(ctx, usecase.UpdateEntryInput{
					EntryID: entry.ID,
					Amount:  &amount,
					Actor:   domain.ActorManual,
				}); err != nil {
					t.Errorf("update failed: %v", err)
				}
			}()
		}

		wg.Wait()

		// Whichever update landed last, projection and ledger must agree.
		views, err := svc.GetLedger(ctx, usecase.GetLedgerInput{CustomerID: "contended"})
		if err != nil {
			t.Fatalf("failed to read ledger: %v", err)
		}
		if len(views) != 1 {
			t.Fatalf("expected 1 entry, got %d", len(views))
		}
		if got := testDB.ProjectedBalance(ctx, "contended"); got != views[0].RunningBalance {
			t.Errorf("projection %d disagrees with ledger %d", got, views[0].RunningBalance)
		}
	})
}
