package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType classifies how a balance change came about.
type TransactionType string

const (
	TxDeposit    TransactionType = "deposit"
	TxWithdrawal TransactionType = "withdrawal"
	TxChore      TransactionType = "chore"
	TxGoal       TransactionType = "goal"
	TxInterest   TransactionType = "interest"
	TxSystem     TransactionType = "system"
)

// ValidTransactionType reports whether t is one of the known types.
func ValidTransactionType(t TransactionType) bool {
	switch t {
	case TxDeposit, TxWithdrawal, TxChore, TxGoal, TxInterest, TxSystem:
		return true
	}
	return false
}

// Transaction is a single balance event. A transaction lives in exactly one
// of the record's two lists: Transactions once applied, or
// PendingTransactions while awaiting parent approval.
type Transaction struct {
	ID           string          `json:"id"`
	Type         TransactionType `json:"type"`
	Amount       decimal.Decimal `json:"amount"`
	Date         time.Time       `json:"date"`
	Reason       string          `json:"reason,omitempty"`
	Pending      bool            `json:"pending,omitempty"`
	ApprovedDate *time.Time      `json:"approved_date,omitempty"`
}

func (t Transaction) clone() Transaction {
	c := t
	c.ApprovedDate = cloneTime(t.ApprovedDate)
	return c
}
