package integration

import (
	"context"
	"net/http"
	"os"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	adaptershttp "github.com/mycelium/receivables/internal/adapter/http"
	"github.com/mycelium/receivables/internal/adapter/http/handler"
	"github.com/mycelium/receivables/internal/adapter/repository/postgres"
	redisrepo "github.com/mycelium/receivables/internal/adapter/repository/redis"
	"github.com/mycelium/receivables/internal/infrastructure/metrics"
	infraredis "github.com/mycelium/receivables/internal/infrastructure/redis"
	"github.com/mycelium/receivables/internal/usecase"
	"github.com/mycelium/receivables/tests/testutil"
)

var (
	metricsOnce sync.Once
	testMetrics *metrics.Metrics
)

func sharedMetrics() *metrics.Metrics {
	metricsOnce.Do(func() {
		testMetrics = metrics.New()
	})
	return testMetrics
}

// newTestServer wires the full stack against real Postgres and Redis.
func newTestServer(t *testing.T, testDB *testutil.TestDB) http.Handler {
	t.Helper()

	ctx := context.Background()
	pool := testDB.Pool

	redisURL := os.Getenv("REDIS_URL")
	if redisURL == "" {
		redisURL = "redis://localhost:6379"
	}
	redisClient, err := infraredis.NewClient(ctx, redisURL)
	if err != nil {
		t.Fatalf("failed to connect to redis: %v", err)
	}
	t.Cleanup(func() { _ = redisClient.Close() })

	txManager := postgres.NewTxManager(pool)
	entryRepo := postgres.NewEntryRepository(pool)
	balanceRepo := postgres.NewCustomerBalanceRepository(pool)
	outboxRepo := postgres.NewOutboxRepository(pool)
	auditRepo := postgres.NewAuditRepository(pool)
	cache := redisrepo.NewCache(redisClient)

	ledgerSvc := usecase.NewLedgerService(usecase.LedgerServiceConfig{
		TxManager:   txManager,
		EntryRepo:   entryRepo,
		BalanceRepo: balanceRepo,
		OutboxRepo:  outboxRepo,
		AuditRepo:   auditRepo,
		IDGen:       postgres.NewULIDGenerator(),
		Retrier:     postgres.NewRetrier(),
		Cache:       cache,
		Logger:      zerolog.Nop(),
	})
	debtorSvc := usecase.NewDebtorService(balanceRepo, entryRepo, cache, zerolog.Nop())

	m := sharedMetrics()
	return adaptershttp.NewRouter(adaptershttp.RouterConfig{
		LedgerHandler:    handler.NewLedgerHandler(ledgerSvc, m),
		WorkflowHandler:  handler.NewWorkflowHandler(ledgerSvc, m),
		DebtorHandler:    handler.NewDebtorHandler(debtorSvc, m),
		HealthHandler:    handler.NewHealthHandler(pool, redisClient),
		IdempotencyStore: redisrepo.NewIdempotencyStore(redisClient),
	})
}
