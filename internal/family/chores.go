package family

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/okeanos/obol/internal/model"
)

// Chores returns the family's chores.
func (s *Service) Chores() ([]model.Chore, error) {
	rec, err := s.snapshot()
	if err != nil {
		return nil, err
	}
	return rec.Chores, nil
}

// AddChore creates a new reward slot.
func (s *Service) AddChore(name string, value decimal.Decimal, frequency model.ChoreFrequency) (model.Chore, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return model.Chore{}, fmt.Errorf("%w: chore name required", ErrValidation)
	}
	if !value.IsPositive() {
		return model.Chore{}, fmt.Errorf("%w: chore value must be positive", ErrValidation)
	}
	if !model.ValidChoreFrequency(frequency) {
		return model.Chore{}, fmt.Errorf("%w: unknown frequency %q", ErrValidation, frequency)
	}

	chore := model.Chore{
		ID:        uuid.NewString(),
		Name:      name,
		Value:     value.Round(2),
		Frequency: frequency,
	}
	err := s.mutate(func(rec *model.FamilyRecord) error {
		rec.Chores = append(rec.Chores, chore)
		return nil
	})
	if err != nil {
		return model.Chore{}, err
	}
	return chore, nil
}

// CompleteChore submits a chore completion for approval. eventCount is how
// many times the chore was done since the last payout; values below 1
// count as 1. Frequency is not enforced — nothing stops a weekly chore
// from being submitted twice in a day.
func (s *Service) CompleteChore(id string, eventCount int) error {
	if eventCount < 1 {
		eventCount = 1
	}
	return s.mutate(func(rec *model.FamilyRecord) error {
		c := findChore(rec, id)
		if c == nil {
			return fmt.Errorf("%w: chore %s", ErrNotFound, id)
		}
		now := s.now()
		c.Completed = true
		c.Pending = true
		c.EventCount = eventCount
		c.CompletedDate = &now
		return nil
	})
}

// ApproveChore pays out value × eventCount as a chore transaction and
// resets the slot so it can be earned again. Chores are recurring rewards,
// not one-off tasks: approval always reopens them.
func (s *Service) ApproveChore(id string) error {
	return s.mutate(func(rec *model.FamilyRecord) error {
		c := findChore(rec, id)
		if c == nil {
			return fmt.Errorf("%w: chore %s", ErrNotFound, id)
		}
		if !c.Pending {
			return fmt.Errorf("%w: chore %s has no pending completion", ErrNotFound, id)
		}

		count := c.EventCount
		if count < 1 {
			count = 1
		}
		reward := c.Value.Mul(decimal.NewFromInt(int64(count))).Round(2)

		tx := model.Transaction{
			ID:     uuid.NewString(),
			Type:   model.TxChore,
			Amount: reward,
			Date:   s.now(),
			Reason: fmt.Sprintf("%s (x%d)", c.Name, count),
		}
		rec.Transactions = append([]model.Transaction{tx}, rec.Transactions...)
		rec.Balance = rec.Balance.Add(reward)

		c.Completed = false
		c.Pending = false
		c.EventCount = 0
		c.CompletedDate = nil
		return nil
	})
}

// RejectChore discards a pending completion without paying out.
func (s *Service) RejectChore(id string) error {
	return s.resetChore(id, true)
}

// ResetChore clears a chore's completion state, pending or not.
func (s *Service) ResetChore(id string) error {
	return s.resetChore(id, false)
}

func (s *Service) resetChore(id string, requirePending bool) error {
	return s.mutate(func(rec *model.FamilyRecord) error {
		c := findChore(rec, id)
		if c == nil {
			return fmt.Errorf("%w: chore %s", ErrNotFound, id)
		}
		if requirePending && !c.Pending {
			return fmt.Errorf("%w: chore %s has no pending completion", ErrNotFound, id)
		}
		c.Completed = false
		c.Pending = false
		c.EventCount = 0
		c.CompletedDate = nil
		return nil
	})
}

// DeleteChore removes a chore entirely. Any unapproved completion is
// discarded with it.
func (s *Service) DeleteChore(id string) error {
	return s.mutate(func(rec *model.FamilyRecord) error {
		for i, c := range rec.Chores {
			if c.ID == id {
				rec.Chores = append(rec.Chores[:i], rec.Chores[i+1:]...)
				return nil
			}
		}
		return fmt.Errorf("%w: chore %s", ErrNotFound, id)
	})
}

func findChore(rec *model.FamilyRecord, id string) *model.Chore {
	for i := range rec.Chores {
		if rec.Chores[i].ID == id {
			return &rec.Chores[i]
		}
	}
	return nil
}
