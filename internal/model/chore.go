package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// ChoreFrequency describes how often a chore is meant to be done. It is
// display metadata only — nothing throttles how often a chore can actually
// be completed.
type ChoreFrequency string

const (
	FreqOccurrence ChoreFrequency = "occurrence"
	FreqDay        ChoreFrequency = "day"
	FreqWeek       ChoreFrequency = "week"
)

// ValidChoreFrequency reports whether f is one of the known frequencies.
func ValidChoreFrequency(f ChoreFrequency) bool {
	switch f {
	case FreqOccurrence, FreqDay, FreqWeek:
		return true
	}
	return false
}

// Chore is a recurring reward slot. The child submits a completion
// (Completed + Pending set, EventCount recorded); parent approval pays out
// Value × EventCount and resets the chore so it can be earned again.
type Chore struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	Value         decimal.Decimal `json:"value"`
	Frequency     ChoreFrequency  `json:"frequency"`
	Completed     bool            `json:"completed"`
	Pending       bool            `json:"pending"`
	EventCount    int             `json:"event_count"`
	CompletedDate *time.Time      `json:"completed_date,omitempty"`
}

func (c Chore) clone() Chore {
	out := c
	out.CompletedDate = cloneTime(c.CompletedDate)
	return out
}
