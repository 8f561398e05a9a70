package reconcile

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/okeanos/obol/internal/model"
)

// interestPeriodDays is how many whole days must elapse before a monthly
// interest payment is due.
const interestPeriodDays = 30

var minInterest = decimal.NewFromFloat(0.01)

// AccrueInterest applies monthly interest to the record in place and
// reports whether anything changed (and therefore needs saving).
//
// A record that has never accrued gets LastInterestPaid stamped to now and
// no backdated payment. Once 30 whole days have elapsed, one month of
// interest (balance × annual rate / 12, rounded to cents) is credited with
// an interest transaction — unless it rounds below a cent, in which case
// the period still advances so tiny balances do not accrue forever.
func AccrueInterest(rec *model.FamilyRecord, now time.Time) bool {
	last := rec.Settings.LastInterestPaid
	if last == nil {
		stamp := now
		rec.Settings.LastInterestPaid = &stamp
		return true
	}

	days := int(now.Sub(*last).Hours() / 24)
	if days < interestPeriodDays {
		return false
	}

	interest := rec.Balance.
		Mul(decimal.NewFromFloat(rec.Settings.InterestRate / 12)).
		Round(2)

	if interest.GreaterThanOrEqual(minInterest) {
		tx := model.Transaction{
			ID:     uuid.NewString(),
			Type:   model.TxInterest,
			Amount: interest,
			Date:   now,
			Reason: "Monthly interest",
		}
		rec.Transactions = append([]model.Transaction{tx}, rec.Transactions...)
		rec.Balance = rec.Balance.Add(interest).Round(2)
	}

	stamp := now
	rec.Settings.LastInterestPaid = &stamp
	return true
}
