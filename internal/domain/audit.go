package domain

import (
	"encoding/json"
	"time"
)

// AuditLog records an accepted ledger mutation. The immutability rule on
// workflow-originated rows exists to preserve audit history; the audit
// trail is what makes every manual correction reconstructible.
type AuditLog struct {
	ID          string
	Actor       Actor  // Who performed the action
	Action      string // entry.create, entry.update, entry.delete, projection.rebuild
	CustomerID  string
	EntryID     string
	BeforeState JSON // Entry state before the action
	AfterState  JSON // Entry state after the action
	CreatedAt   time.Time
}

// JSON is a type alias for JSON data
type JSON map[string]any

// Audit actions
const (
	AuditActionEntryCreate       = "entry.create"
	AuditActionEntryUpdate       = "entry.update"
	AuditActionEntryDelete       = "entry.delete"
	AuditActionProjectionRebuild = "projection.rebuild"
)

// MarshalState converts a domain object to JSON for audit logging
func MarshalState(v any) JSON {
	if v == nil {
		return nil
	}

	data, err := json.Marshal(v)
	if err != nil {
		return JSON{"error": "failed to marshal state"}
	}

	var result JSON
	if err := json.Unmarshal(data, &result); err != nil {
		return JSON{"error": "failed to unmarshal state"}
	}

	return result
}

// AuditFilter defines filters for querying audit logs
type AuditFilter struct {
	Actor      Actor
	Action     string
	CustomerID string
	EntryID    string
	StartDate  *time.Time
	EndDate    *time.Time
	Limit      int
	Offset     int
}
