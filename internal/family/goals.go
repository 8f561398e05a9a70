package family

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/okeanos/obol/internal/approvals"
	"github.com/okeanos/obol/internal/model"
)

// Goals returns the family's savings goals.
func (s *Service) Goals() ([]model.Goal, error) {
	rec, err := s.snapshot()
	if err != nil {
		return nil, err
	}
	return rec.Goals, nil
}

// PendingApprovals returns the merged parent approval queue: pending
// transactions and submitted chore completions, newest first.
func (s *Service) PendingApprovals() ([]approvals.Item, error) {
	rec, err := s.snapshot()
	if err != nil {
		return nil, err
	}
	return approvals.Merge(rec), nil
}

// AddGoal creates a savings goal.
func (s *Service) AddGoal(name string, target decimal.Decimal, icon string) (model.Goal, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return model.Goal{}, fmt.Errorf("%w: goal name required", ErrValidation)
	}
	if !target.IsPositive() {
		return model.Goal{}, fmt.Errorf("%w: target amount must be positive", ErrValidation)
	}

	goal := model.Goal{
		ID:            uuid.NewString(),
		Name:          name,
		TargetAmount:  target.Round(2),
		CurrentAmount: decimal.Zero,
		Icon:          icon,
		CreatedDate:   s.now(),
	}
	err := s.mutate(func(rec *model.FamilyRecord) error {
		rec.Goals = append(rec.Goals, goal)
		return nil
	})
	if err != nil {
		return model.Goal{}, err
	}
	return goal, nil
}

// ContributeToGoal moves money from the balance into a goal. Reaching the
// target flips the goal to completed and stamps the completion date.
func (s *Service) ContributeToGoal(id string, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return fmt.Errorf("%w: contribution must be positive", ErrValidation)
	}
	amount = amount.Round(2)

	return s.mutate(func(rec *model.FamilyRecord) error {
		g := findGoal(rec, id)
		if g == nil {
			return fmt.Errorf("%w: goal %s", ErrNotFound, id)
		}
		if amount.GreaterThan(rec.Balance) {
			return fmt.Errorf("%w: contribution %s exceeds balance %s", ErrInsufficientFunds, amount, rec.Balance)
		}

		tx := model.Transaction{
			ID:     uuid.NewString(),
			Type:   model.TxGoal,
			Amount: amount,
			Date:   s.now(),
			Reason: fmt.Sprintf("Saved for %s", g.Name),
		}
		rec.Transactions = append([]model.Transaction{tx}, rec.Transactions...)
		rec.Balance = rec.Balance.Sub(amount)
		g.CurrentAmount = g.CurrentAmount.Add(amount).Round(2)

		if !g.Completed && g.CurrentAmount.GreaterThanOrEqual(g.TargetAmount) {
			now := s.now()
			g.Completed = true
			g.CompletedDate = &now
		}
		return nil
	})
}

// DeleteGoal removes a goal, refunding any saved amount back to the
// balance through a system transaction first.
func (s *Service) DeleteGoal(id string) error {
	return s.mutate(func(rec *model.FamilyRecord) error {
		for i := range rec.Goals {
			g := &rec.Goals[i]
			if g.ID != id {
				continue
			}
			if g.CurrentAmount.IsPositive() {
				tx := model.Transaction{
					ID:     uuid.NewString(),
					Type:   model.TxDeposit,
					Amount: g.CurrentAmount,
					Date:   s.now(),
					Reason: fmt.Sprintf("Refund from goal %s", g.Name),
				}
				rec.Transactions = append([]model.Transaction{tx}, rec.Transactions...)
				rec.Balance = rec.Balance.Add(g.CurrentAmount)
			}
			rec.Goals = append(rec.Goals[:i], rec.Goals[i+1:]...)
			return nil
		}
		return fmt.Errorf("%w: goal %s", ErrNotFound, id)
	})
}

func findGoal(rec *model.FamilyRecord, id string) *model.Goal {
	for i := range rec.Goals {
		if rec.Goals[i].ID == id {
			return &rec.Goals[i]
		}
	}
	return nil
}
