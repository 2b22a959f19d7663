package domain

import "errors"

var (
	// Entry errors
	ErrInvalidAmount = errors.New("amount must be nonzero")
	ErrInvalidType   = errors.New("unrecognized transaction type")
	ErrInvalidDate   = errors.New("invalid transaction date")
	ErrEntryNotFound = errors.New("ledger entry not found")

	// ErrImmutableEntry is returned on a direct edit or delete of a
	// workflow-originated sale or return row.
	ErrImmutableEntry = errors.New("entry is system-originated and cannot be edited directly")

	// ErrStorageUnavailable marks a transient persistence failure. The
	// whole logical operation must be retried from the start; no partial
	// step is resumable.
	ErrStorageUnavailable = errors.New("storage unavailable")
)
