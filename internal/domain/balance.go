package domain

import "sort"

// Recompute derives running balances for a customer's full entry sequence.
//
// Entries are sorted ascending by (transaction_date, created_sequence) so
// that recomputation never depends on storage retrieval order, then the
// signed amounts are prefix-summed. The returned views are in descending
// order (most recent first) for display; the balances always come from the
// ascending pass, never from the display order.
func Recompute(entries []*Entry) []*EntryView {
	sorted := make([]*Entry, len(entries))
	copy(sorted, entries)

	sort.SliceStable(sorted, func(i, j int) bool {
		if !sorted[i].TransactionDate.Equal(sorted[j].TransactionDate) {
			return sorted[i].TransactionDate.Before(sorted[j].TransactionDate)
		}
		return sorted[i].CreatedSequence < sorted[j].CreatedSequence
	})

	views := make([]*EntryView, len(sorted))
	var sum int64
	for i, e := range sorted {
		sum += e.Amount
		views[i] = &EntryView{Entry: *e, RunningBalance: sum}
	}

	// Reverse into display order.
	for i, j := 0, len(views)-1; i < j; i, j = i+1, j-1 {
		views[i], views[j] = views[j], views[i]
	}

	return views
}

// CurrentBalance returns the terminal running balance for an entry
// sequence, or 0 if the sequence is empty. This is the value the customer
// balance projection caches.
func CurrentBalance(entries []*Entry) int64 {
	var sum int64
	for _, e := range entries {
		sum += e.Amount
	}
	return sum
}
