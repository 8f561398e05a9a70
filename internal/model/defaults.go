package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DefaultParentPassword is the password seeded into a brand-new family.
const DefaultParentPassword = "olympus"

// DefaultRecord builds the compiled-in seed family used when neither the
// local nor the remote store has anything usable. Adopting it can never
// fail, which is what lets bootstrap guarantee a usable record.
func DefaultRecord(now time.Time) *FamilyRecord {
	opening := Transaction{
		ID:     uuid.NewString(),
		Type:   TxSystem,
		Amount: decimal.NewFromFloat(385.80),
		Date:   now.AddDate(0, 0, -7),
		Reason: "Opening balance",
	}

	return &FamilyRecord{
		Balance:             decimal.NewFromFloat(385.80),
		Transactions:        []Transaction{opening},
		PendingTransactions: []Transaction{},
		Chores: []Chore{
			{
				ID:        uuid.NewString(),
				Name:      "Make your bed",
				Value:     decimal.NewFromFloat(1.00),
				Frequency: FreqDay,
			},
			{
				ID:        uuid.NewString(),
				Name:      "Take out the trash",
				Value:     decimal.NewFromFloat(2.50),
				Frequency: FreqOccurrence,
			},
			{
				ID:        uuid.NewString(),
				Name:      "Mow the lawn",
				Value:     decimal.NewFromFloat(10.00),
				Frequency: FreqWeek,
			},
		},
		Goals: []Goal{
			{
				ID:            uuid.NewString(),
				Name:          "New bicycle",
				TargetAmount:  decimal.NewFromFloat(150.00),
				CurrentAmount: decimal.Zero,
				Icon:          "bike",
				CreatedDate:   now,
			},
		},
		Settings: Settings{
			ParentPassword: DefaultParentPassword,
			InterestRate:   0.02,
		},
		DataVersion: DataVersion,
	}
}
