package integration

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/mycelium/receivables/internal/adapter/repository/postgres"
	"github.com/mycelium/receivables/internal/domain"
	"github.com/mycelium/receivables/internal/infrastructure/eventpublisher"
	"github.com/mycelium/receivables/internal/usecase"
	"github.com/mycelium/receivables/tests/testutil"
)

func newOutboxLedgerService(pool *pgxpool.Pool) (*usecase.LedgerService, *postgres.OutboxRepository) {
	outboxRepo := postgres.NewOutboxRepository(pool)
	svc := usecase.NewLedgerService(usecase.LedgerServiceConfig{
		TxManager:   postgres.NewTxManager(pool),
		EntryRepo:   postgres.NewEntryRepository(pool),
		BalanceRepo: postgres.NewCustomerBalanceRepository(pool),
		OutboxRepo:  outboxRepo,
		AuditRepo:   postgres.NewAuditRepository(pool),
		IDGen:       postgres.NewULIDGenerator(),
		Retrier:     postgres.NewRetrier(),
		Logger:      zerolog.Nop(),
	})
	return svc, outboxRepo
}

func TestOutboxEventCreation(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	ctx := context.Background()
	testDB := testutil.NewTestDB(t)
	defer testDB.Cleanup()
	testDB.TruncateAll(ctx)

	svc, outboxRepo := newOutboxLedgerService(testDB.Pool)

	entry, err := svc.CreateEntry(ctx, usecase.CreateEntryInput{
		CustomerID: "cust-outbox",
		Type:       domain.EntryTypePayment,
		Date:       time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC),
		Amount:     2500,
		Actor:      domain.ActorManual,
	})
	if err != nil {
		t.Fatalf("failed to create entry: %v", err)
	}

	events, err := outboxRepo.GetUnpublished(ctx, 10)
	if err != nil {
		t.Fatalf("failed to get unpublished events: %v", err)
	}
	if len(events) == 0 {
		t.Fatal("expected at least one unpublished event")
	}

	var created *domain.OutboxEvent
	for _, event := range events {
		if event.EventType == domain.EventTypeEntryCreated && event.AggregateID == "cust-outbox" {
			created = event
			break
		}
	}
	if created == nil {
		t.Fatal("entry created event not found in outbox")
	}

	if created.AggregateType != domain.AggregateTypeCustomer {
		t.Errorf("expected aggregate type %s, got %s", domain.AggregateTypeCustomer, created.AggregateType)
	}
	if created.Published {
		t.Error("event should not be published yet")
	}
	if created.Payload == nil {
		t.Fatal("event payload is nil")
	}
	if created.Payload["entry_id"] != entry.ID {
		t.Errorf("payload entry_id mismatch: expected %s, got %v", entry.ID, created.Payload["entry_id"])
	}
	if created.Payload["customer_id"] != "cust-outbox" {
		t.Errorf("payload customer_id mismatch: got %v", created.Payload["customer_id"])
	}
	if created.Payload["transaction_type"] != string(domain.EntryTypePayment) {
		t.Errorf("payload transaction_type mismatch: got %v", created.Payload["transaction_type"])
	}
}

func TestEventPublisher(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	ctx := context.Background()
	testDB := testutil.NewTestDB(t)
	defer testDB.Cleanup()
	testDB.TruncateAll(ctx)

	svc, outboxRepo := newOutboxLedgerService(testDB.Pool)

	if _, err := svc.CreateEntry(ctx, usecase.CreateEntryInput{
		CustomerID: "cust-publish",
		Type:       domain.EntryTypeCarryover,
		Date:       time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC),
		Amount:     12000,
		Actor:      domain.ActorManual,
	}); err != nil {
		t.Fatalf("failed to create entry: %v", err)
	}

	capturing := &capturingPublisher{}
	publisher := eventpublisher.NewEventPublisher(eventpublisher.Config{
		OutboxRepo: outboxRepo,
		Publisher:  capturing,
		BatchSize:  10,
	})

	publisherCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	go publisher.Start(publisherCtx)

	time.Sleep(100 * time.Millisecond)

	published := capturing.Published()
	if len(published) == 0 {
		t.Fatal("no events were published")
	}

	unpublished, err := outboxRepo.GetUnpublished(ctx, 10)
	if err != nil {
		t.Fatalf("failed to get unpublished events: %v", err)
	}
	if len(unpublished) > 0 {
		t.Errorf("expected 0 unpublished events after publishing, got %d", len(unpublished))
	}
}

type capturingPublisher struct {
	mu        sync.Mutex
	published []*domain.OutboxEvent
}

func (c *capturingPublisher) Publish(ctx context.Context, event *domain.OutboxEvent) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.published = append(c.published, event)
	return nil
}

func (c *capturingPublisher) Published() []*domain.OutboxEvent {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*domain.OutboxEvent{}, c.published...)
}
