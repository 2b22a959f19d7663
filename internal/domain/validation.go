package domain

import (
	"fmt"
	"strings"
	"time"
)

// Validation constants
const (
	MaxDescriptionLength = 500
	// MaxEntryAmount bounds a single entry's magnitude so that prefix
	// sums over any realistic ledger stay far from int64 overflow.
	MaxEntryAmount = int64(1_000_000_000_000)

	// DateLayout is the calendar-date wire format for transaction dates.
	DateLayout = "2006-01-02"
)

// ValidateAmount checks an operator-entered amount before sign
// application. Zero is rejected: an entry with no effect on the balance is
// always a data-entry mistake.
func ValidateAmount(amount int64) error {
	if amount == 0 {
		return ErrInvalidAmount
	}
	if amount > MaxEntryAmount || amount < -MaxEntryAmount {
		return fmt.Errorf("%w: magnitude exceeds %d", ErrInvalidAmount, MaxEntryAmount)
	}
	return nil
}

// ValidateType checks that t is part of the closed entry type enum.
func ValidateType(t EntryType) error {
	if !t.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidType, string(t))
	}
	return nil
}

// ValidateDescription bounds free-text descriptions.
func ValidateDescription(desc string) error {
	if len(desc) > MaxDescriptionLength {
		return fmt.Errorf("description exceeds %d characters", MaxDescriptionLength)
	}
	return nil
}

// ParseDate parses a calendar date in YYYY-MM-DD form, truncating any time
// component. Transaction dates carry no time of day; ties within a day are
// ordered by created_sequence instead.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return t, nil
}

// ValidateDateRange checks an optional from/to filter pair.
func ValidateDateRange(from, to *time.Time) error {
	if from != nil && to != nil && to.Before(*from) {
		return fmt.Errorf("%w: range end precedes start", ErrInvalidDate)
	}
	return nil
}

// ValidatePagination validates and limits pagination parameters.
func ValidatePagination(limit, offset int) (int, int) {
	const maxPageSize = 1000
	const defaultPageSize = 50

	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	if offset < 0 {
		offset = 0
	}

	return limit, offset
}
