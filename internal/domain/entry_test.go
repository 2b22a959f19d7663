package domain

import "testing"

func TestApplySign(t *testing.T) {
	tests := []struct {
		name   string
		typ    EntryType
		amount int64
		want   int64
	}{
		{"carryover positive", EntryTypeCarryover, 50000, 50000},
		{"carryover entered negative", EntryTypeCarryover, -50000, 50000},
		{"sale positive", EntryTypeSale, 10000, 10000},
		{"payment coerced negative", EntryTypePayment, 20000, -20000},
		{"payment already negative", EntryTypePayment, -20000, -20000},
		{"return coerced negative", EntryTypeReturn, 3000, -3000},
		{"cancellation coerced negative", EntryTypeSaleCancellation, 10000, -10000},
		{"adjustment keeps negative sign", EntryTypeAdjustment, -5000, -5000},
		{"adjustment keeps positive sign", EntryTypeAdjustment, 5000, 5000},
		{"sale revision keeps signed delta", EntryTypeSaleRevision, -2500, -2500},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ApplySign(tt.typ, tt.amount); got != tt.want {
				t.Errorf("ApplySign(%s, %d) = %d, want %d", tt.typ, tt.amount, got, tt.want)
			}
		})
	}
}

func TestEntryTypeValid(t *testing.T) {
	for _, typ := range []EntryType{
		EntryTypeCarryover, EntryTypeSale, EntryTypeReturn, EntryTypePayment,
		EntryTypeAdjustment, EntryTypeSaleRevision, EntryTypeSaleCancellation,
	} {
		if !typ.Valid() {
			t.Errorf("expected %s to be valid", typ)
		}
	}

	for _, typ := range []EntryType{"", "refund", "SALE", "sale "} {
		if typ.Valid() {
			t.Errorf("expected %q to be invalid", typ)
		}
	}
}

func TestMutableBy(t *testing.T) {
	tests := []struct {
		name  string
		entry Entry
		actor Actor
		want  bool
	}{
		{
			name:  "manual entry editable by manual actor",
			entry: Entry{Type: EntryTypePayment},
			actor: ActorManual,
			want:  true,
		},
		{
			name:  "workflow sale locked against manual actor",
			entry: Entry{Type: EntryTypeSale, ReferenceID: "order-1"},
			actor: ActorManual,
			want:  false,
		},
		{
			name:  "workflow return locked against manual actor",
			entry: Entry{Type: EntryTypeReturn, ReferenceID: "order-2"},
			actor: ActorManual,
			want:  false,
		},
		{
			name:  "workflow sale editable by workflow",
			entry: Entry{Type: EntryTypeSale, ReferenceID: "order-1"},
			actor: ActorSalesWorkflow,
			want:  true,
		},
		{
			name:  "sale without reference stays editable",
			entry: Entry{Type: EntryTypeSale},
			actor: ActorManual,
			want:  true,
		},
		{
			name:  "referenced adjustment stays editable",
			entry: Entry{Type: EntryTypeAdjustment, ReferenceID: "order-3"},
			actor: ActorManual,
			want:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.entry.MutableBy(tt.actor); got != tt.want {
				t.Errorf("MutableBy(%s) = %v, want %v", tt.actor, got, tt.want)
			}
		})
	}
}

func TestSystemOriginated(t *testing.T) {
	system := []EntryType{EntryTypeSale, EntryTypeReturn, EntryTypeSaleRevision, EntryTypeSaleCancellation}
	for _, typ := range system {
		if !typ.SystemOriginated() {
			t.Errorf("expected %s to be system-originated", typ)
		}
	}

	manual := []EntryType{EntryTypeCarryover, EntryTypePayment, EntryTypeAdjustment}
	for _, typ := range manual {
		if typ.SystemOriginated() {
			t.Errorf("expected %s to be manually postable", typ)
		}
	}
}
