package model

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestValidate(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name string
		rec  *FamilyRecord
		want bool
	}{
		{"nil record", nil, false},
		{"default record", DefaultRecord(now), true},
		{
			"nil transactions",
			&FamilyRecord{
				PendingTransactions: []Transaction{},
				Chores:              []Chore{},
				Settings:            Settings{ParentPassword: "pw"},
			},
			false,
		},
		{
			"nil pending transactions",
			&FamilyRecord{
				Transactions: []Transaction{},
				Chores:       []Chore{},
				Settings:     Settings{ParentPassword: "pw"},
			},
			false,
		},
		{
			"missing parent password",
			&FamilyRecord{
				Transactions:        []Transaction{},
				PendingTransactions: []Transaction{},
				Chores:              []Chore{},
			},
			false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Validate(tt.rec); got != tt.want {
				t.Errorf("Validate() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDecodeRejectsGarbage(t *testing.T) {
	for _, input := range []string{"", "not json", `{"balance": "x"}`, `{"balance": "1.00"}`} {
		if rec, ok := Decode([]byte(input)); ok {
			t.Errorf("Decode(%q) accepted %+v, want reject", input, rec)
		}
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	rec := DefaultRecord(time.Now())

	data, err := Encode(rec)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	got, ok := Decode(data)
	if !ok {
		t.Fatal("decode rejected encoded record")
	}
	if !Equal(rec, got) {
		t.Error("round-tripped record differs from original")
	}
}

func TestCloneIsDeep(t *testing.T) {
	now := time.Now()
	rec := DefaultRecord(now)
	rec.Settings.LastInterestPaid = &now

	clone := rec.Clone()
	if !Equal(rec, clone) {
		t.Fatal("clone differs from original")
	}

	// Mutating the clone must not leak into the original.
	clone.Balance = decimal.NewFromFloat(1.00)
	clone.Transactions[0].Reason = "changed"
	clone.Chores[0].Pending = true
	*clone.Settings.LastInterestPaid = now.Add(time.Hour)

	if rec.Balance.Equal(clone.Balance) {
		t.Error("balance mutation leaked into original")
	}
	if rec.Transactions[0].Reason == "changed" {
		t.Error("transaction mutation leaked into original")
	}
	if rec.Chores[0].Pending {
		t.Error("chore mutation leaked into original")
	}
	if rec.Settings.LastInterestPaid.Equal(now.Add(time.Hour)) {
		t.Error("LastInterestPaid shares memory with original")
	}
}

func TestDefaultRecordSeed(t *testing.T) {
	rec := DefaultRecord(time.Now())

	if !Validate(rec) {
		t.Fatal("default record fails validation")
	}
	want := decimal.NewFromFloat(385.80)
	if !rec.Balance.Equal(want) {
		t.Errorf("default balance = %s, want %s", rec.Balance, want)
	}
	if len(rec.PendingTransactions) != 0 {
		t.Errorf("default record has %d pending transactions, want 0", len(rec.PendingTransactions))
	}
	if rec.DataVersion != DataVersion {
		t.Errorf("data version = %d, want %d", rec.DataVersion, DataVersion)
	}
}
