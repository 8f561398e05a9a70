package family

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/okeanos/obol/internal/model"
)

// Balance returns the current shared balance.
func (s *Service) Balance() (decimal.Decimal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.rec == nil {
		return decimal.Zero, ErrNotInitialized
	}
	return s.rec.Balance, nil
}

// Transactions returns applied transactions newest first. limit <= 0 means
// all; typeFilter "" means every type.
func (s *Service) Transactions(limit int, typeFilter model.TransactionType) ([]model.Transaction, error) {
	rec, err := s.snapshot()
	if err != nil {
		return nil, err
	}

	out := make([]model.Transaction, 0, len(rec.Transactions))
	for _, tx := range rec.Transactions {
		if typeFilter != "" && tx.Type != typeFilter {
			continue
		}
		out = append(out, tx)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

// PendingTransactions returns the approval queue, newest first.
func (s *Service) PendingTransactions() ([]model.Transaction, error) {
	rec, err := s.snapshot()
	if err != nil {
		return nil, err
	}
	return rec.PendingTransactions, nil
}

// AddTransaction validates and records a transaction. A pending
// transaction joins the approval queue with no balance effect; anything
// else applies to the balance immediately. Missing id and date are filled
// in. Returns the stored transaction.
func (s *Service) AddTransaction(tx model.Transaction) (model.Transaction, error) {
	if err := validateTransaction(tx); err != nil {
		return model.Transaction{}, err
	}

	if tx.ID == "" {
		tx.ID = uuid.NewString()
	}
	if tx.Date.IsZero() {
		tx.Date = s.now()
	}
	tx.Amount = tx.Amount.Round(2)

	err := s.mutate(func(rec *model.FamilyRecord) error {
		if tx.Pending {
			rec.PendingTransactions = append([]model.Transaction{tx}, rec.PendingTransactions...)
			return nil
		}
		delta, err := balanceDelta(tx)
		if err != nil {
			return err
		}
		if rec.Balance.Add(delta).IsNegative() {
			return fmt.Errorf("%w: balance cannot go negative", ErrInsufficientFunds)
		}
		rec.Balance = rec.Balance.Add(delta)
		rec.Transactions = append([]model.Transaction{tx}, rec.Transactions...)
		return nil
	})
	if err != nil {
		return model.Transaction{}, err
	}
	return tx, nil
}

// AddPendingTransaction queues a transaction for parent approval.
func (s *Service) AddPendingTransaction(tx model.Transaction) (model.Transaction, error) {
	tx.Pending = true
	return s.AddTransaction(tx)
}

// ApprovePendingTransaction moves a queued transaction into the applied
// list, stamps the approval time, and applies its balance effect.
func (s *Service) ApprovePendingTransaction(id string) error {
	return s.mutate(func(rec *model.FamilyRecord) error {
		idx := pendingIndex(rec, id)
		if idx < 0 {
			return fmt.Errorf("%w: pending transaction %s", ErrNotFound, id)
		}

		tx := rec.PendingTransactions[idx]
		delta, err := balanceDelta(tx)
		if err != nil {
			return err
		}
		if rec.Balance.Add(delta).IsNegative() {
			return fmt.Errorf("%w: approving would overdraw the balance", ErrInsufficientFunds)
		}

		now := s.now()
		tx.Pending = false
		tx.ApprovedDate = &now

		rec.PendingTransactions = append(rec.PendingTransactions[:idx], rec.PendingTransactions[idx+1:]...)
		rec.Balance = rec.Balance.Add(delta)
		rec.Transactions = append([]model.Transaction{tx}, rec.Transactions...)
		return nil
	})
}

// RejectPendingTransaction drops a queued transaction with no balance
// effect.
func (s *Service) RejectPendingTransaction(id string) error {
	return s.mutate(func(rec *model.FamilyRecord) error {
		idx := pendingIndex(rec, id)
		if idx < 0 {
			return fmt.Errorf("%w: pending transaction %s", ErrNotFound, id)
		}
		rec.PendingTransactions = append(rec.PendingTransactions[:idx], rec.PendingTransactions[idx+1:]...)
		return nil
	})
}

// ClearTransactions replaces the history with a single marker entry. The
// balance is untouched.
func (s *Service) ClearTransactions() error {
	return s.mutate(func(rec *model.FamilyRecord) error {
		rec.Transactions = []model.Transaction{{
			ID:     uuid.NewString(),
			Type:   model.TxSystem,
			Amount: rec.Balance,
			Date:   s.now(),
			Reason: "Transaction history cleared",
		}}
		return nil
	})
}

func validateTransaction(tx model.Transaction) error {
	if !model.ValidTransactionType(tx.Type) {
		return fmt.Errorf("%w: unknown transaction type %q", ErrValidation, tx.Type)
	}
	if !tx.Amount.IsPositive() {
		return fmt.Errorf("%w: amount must be positive", ErrValidation)
	}
	if tx.Type == model.TxDeposit || tx.Type == model.TxWithdrawal {
		if strings.TrimSpace(tx.Reason) == "" {
			return fmt.Errorf("%w: reason required for %s", ErrValidation, tx.Type)
		}
	}
	return nil
}

// balanceDelta maps a transaction to its balance effect when applied.
func balanceDelta(tx model.Transaction) (decimal.Decimal, error) {
	switch tx.Type {
	case model.TxDeposit, model.TxChore, model.TxInterest:
		return tx.Amount, nil
	case model.TxWithdrawal, model.TxGoal:
		return tx.Amount.Neg(), nil
	case model.TxSystem:
		return decimal.Zero, nil
	default:
		return decimal.Zero, fmt.Errorf("%w: unknown transaction type %q", ErrValidation, tx.Type)
	}
}

// pendingIndex finds a transaction in the pending queue, or -1.
func pendingIndex(rec *model.FamilyRecord, id string) int {
	for i, tx := range rec.PendingTransactions {
		if tx.ID == id {
			return i
		}
	}
	return -1
}
