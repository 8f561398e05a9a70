package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Goal is a savings target funded by transfers from the shared balance.
// CurrentAmount only ever grows through contributions, and the goal flips
// to Completed the moment CurrentAmount reaches TargetAmount.
type Goal struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	TargetAmount  decimal.Decimal `json:"target_amount"`
	CurrentAmount decimal.Decimal `json:"current_amount"`
	Icon          string          `json:"icon,omitempty"`
	Completed     bool            `json:"completed"`
	CreatedDate   time.Time       `json:"created_date"`
	CompletedDate *time.Time      `json:"completed_date,omitempty"`
}

func (g Goal) clone() Goal {
	out := g
	out.CompletedDate = cloneTime(g.CompletedDate)
	return out
}
