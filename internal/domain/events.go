package domain

import "time"

// Event types
const (
	EventTypeEntryCreated      = "ledger.entry.created"
	EventTypeEntryUpdated      = "ledger.entry.updated"
	EventTypeEntryDeleted      = "ledger.entry.deleted"
	EventTypeProjectionRebuilt = "ledger.projection.rebuilt"
)

// Aggregate types
const (
	AggregateTypeCustomer = "customer"
)

// OutboxEvent represents an event to be published
type OutboxEvent struct {
	ID            string
	AggregateID   string
	AggregateType string
	EventType     string
	Payload       map[string]any
	CreatedAt     time.Time
	PublishedAt   *time.Time
	Published     bool
}
