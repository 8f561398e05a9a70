package approvals

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/okeanos/obol/internal/model"
)

// Type tags which kind of item is awaiting approval.
type Type string

const (
	TypeTransaction Type = "transaction"
	TypeChore       Type = "chore"
)

// Item is one entry in the parent's approval queue: either a pending
// transaction or a chore completion waiting for payout.
type Item struct {
	Type   Type            `json:"approval_type"`
	ID     string          `json:"id"`
	Name   string          `json:"name"`
	Amount decimal.Decimal `json:"amount"`
	Date   time.Time       `json:"date"`

	// EventCount is set for chore items only.
	EventCount int `json:"event_count,omitempty"`
}

// Merge builds the combined approval queue from a record: pending
// transactions plus chores with a submitted completion, newest first.
// Items with a zero date sort as oldest. The sort is stable so equal dates
// keep transaction-before-chore insertion order.
func Merge(rec *model.FamilyRecord) []Item {
	items := make([]Item, 0, len(rec.PendingTransactions))

	for _, tx := range rec.PendingTransactions {
		items = append(items, Item{
			Type:   TypeTransaction,
			ID:     tx.ID,
			Name:   tx.Reason,
			Amount: tx.Amount,
			Date:   tx.Date,
		})
	}

	for _, c := range rec.Chores {
		if !c.Pending {
			continue
		}
		item := Item{
			Type:       TypeChore,
			ID:         c.ID,
			Name:       c.Name,
			Amount:     c.Value.Mul(decimal.NewFromInt(int64(c.EventCount))).Round(2),
			EventCount: c.EventCount,
		}
		if c.CompletedDate != nil {
			item.Date = *c.CompletedDate
		}
		items = append(items, item)
	}

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Date.After(items[j].Date)
	})
	return items
}
