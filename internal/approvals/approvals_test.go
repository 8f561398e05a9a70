package approvals

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/okeanos/obol/internal/model"
)

func TestMergeOrdersNewestFirst(t *testing.T) {
	base := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)
	choreDone := base.Add(2 * time.Hour)

	rec := &model.FamilyRecord{
		Transactions: []model.Transaction{},
		PendingTransactions: []model.Transaction{
			{
				ID:      "tx-old",
				Type:    model.TxWithdrawal,
				Amount:  decimal.NewFromFloat(5.00),
				Date:    base,
				Reason:  "toy",
				Pending: true,
			},
			{
				ID:      "tx-new",
				Type:    model.TxDeposit,
				Amount:  decimal.NewFromFloat(10.00),
				Date:    base.Add(3 * time.Hour),
				Reason:  "birthday money",
				Pending: true,
			},
		},
		Chores: []model.Chore{
			{
				ID:            "chore-1",
				Name:          "Dishes",
				Value:         decimal.NewFromFloat(2.50),
				Pending:       true,
				Completed:     true,
				EventCount:    3,
				CompletedDate: &choreDone,
			},
			{ID: "chore-idle", Name: "Laundry", Value: decimal.NewFromFloat(1.00)},
		},
		Settings: model.Settings{ParentPassword: "pw"},
	}

	items := Merge(rec)

	if len(items) != 3 {
		t.Fatalf("got %d items, want 3 (idle chore excluded)", len(items))
	}

	wantOrder := []string{"tx-new", "chore-1", "tx-old"}
	for i, id := range wantOrder {
		if items[i].ID != id {
			t.Errorf("items[%d].ID = %s, want %s", i, items[i].ID, id)
		}
	}

	if items[1].Type != TypeChore {
		t.Errorf("chore item type = %s, want chore", items[1].Type)
	}
	// 2.50 × 3
	if !items[1].Amount.Equal(decimal.NewFromFloat(7.50)) {
		t.Errorf("chore payout = %s, want 7.50", items[1].Amount)
	}
	if items[1].EventCount != 3 {
		t.Errorf("event count = %d, want 3", items[1].EventCount)
	}
}

func TestMergeZeroDateSortsOldest(t *testing.T) {
	now := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)

	rec := &model.FamilyRecord{
		Transactions: []model.Transaction{},
		PendingTransactions: []model.Transaction{
			{ID: "dated", Type: model.TxDeposit, Amount: decimal.NewFromFloat(1.00), Date: now, Pending: true},
		},
		Chores: []model.Chore{
			// Pending chore with no completion date: zero date, sorts last.
			{ID: "undated", Name: "Mystery", Value: decimal.NewFromFloat(1.00), Pending: true, EventCount: 1},
		},
		Settings: model.Settings{ParentPassword: "pw"},
	}

	items := Merge(rec)
	if len(items) != 2 {
		t.Fatalf("got %d items, want 2", len(items))
	}
	if items[0].ID != "dated" || items[1].ID != "undated" {
		t.Errorf("order = [%s, %s], want [dated, undated]", items[0].ID, items[1].ID)
	}
}

func TestMergeEmpty(t *testing.T) {
	rec := &model.FamilyRecord{
		Transactions:        []model.Transaction{},
		PendingTransactions: []model.Transaction{},
		Chores:              []model.Chore{},
		Settings:            model.Settings{ParentPassword: "pw"},
	}

	if items := Merge(rec); len(items) != 0 {
		t.Errorf("got %d items from empty record, want 0", len(items))
	}
}
