package model

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// DataVersion is the schema version stamped on every saved record.
// Migrations are additive; see reconcile.Migrate.
const DataVersion = 1

// FamilyRecord is the root document for one family: the shared balance,
// transaction history, approval queues, chores, and savings goals. The
// family service owns the single live copy; stores only ever hold
// serialized snapshots of it.
type FamilyRecord struct {
	Balance             decimal.Decimal `json:"balance"`
	Transactions        []Transaction   `json:"transactions"`
	PendingTransactions []Transaction   `json:"pending_transactions"`
	Chores              []Chore         `json:"chores"`
	Goals               []Goal          `json:"goals"`
	Settings            Settings        `json:"settings"`
	DataVersion         int             `json:"data_version"`
}

// Settings holds family-wide configuration. The parent password is stored
// and compared in plaintext to stay compatible with existing records.
type Settings struct {
	ParentPassword   string     `json:"parent_password"`
	InterestRate     float64    `json:"interest_rate"`
	LastInterestPaid *time.Time `json:"last_interest_paid"`
}

// Validate reports whether a record is structurally sound enough to adopt
// as the live state. It is the gate for every data source (local row,
// remote document, import), so it never panics or returns an error —
// callers fall back to the next source on false.
func Validate(rec *FamilyRecord) bool {
	if rec == nil {
		return false
	}
	if rec.Transactions == nil || rec.PendingTransactions == nil || rec.Chores == nil {
		return false
	}
	if rec.Settings.ParentPassword == "" {
		return false
	}
	return true
}

// Clone returns a structural deep copy. Slices are reallocated and pointer
// fields re-pointed so the copy shares no mutable memory with the original.
func (r *FamilyRecord) Clone() *FamilyRecord {
	if r == nil {
		return nil
	}
	out := &FamilyRecord{
		Balance:     r.Balance,
		Settings:    r.Settings,
		DataVersion: r.DataVersion,
	}
	out.Settings.LastInterestPaid = cloneTime(r.Settings.LastInterestPaid)

	out.Transactions = make([]Transaction, len(r.Transactions))
	for i, tx := range r.Transactions {
		out.Transactions[i] = tx.clone()
	}
	out.PendingTransactions = make([]Transaction, len(r.PendingTransactions))
	for i, tx := range r.PendingTransactions {
		out.PendingTransactions[i] = tx.clone()
	}
	out.Chores = make([]Chore, len(r.Chores))
	for i, c := range r.Chores {
		out.Chores[i] = c.clone()
	}
	out.Goals = make([]Goal, len(r.Goals))
	for i, g := range r.Goals {
		out.Goals[i] = g.clone()
	}
	return out
}

// Encode serializes a record for storage or export.
func Encode(rec *FamilyRecord) ([]byte, error) {
	return json.MarshalIndent(rec, "", "  ")
}

// Decode parses a serialized record and validates it. The boolean is false
// for unparseable or structurally invalid input; decode failures are never
// surfaced as errors because every caller treats them as "absent".
func Decode(data []byte) (*FamilyRecord, bool) {
	var rec FamilyRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, false
	}
	if !Validate(&rec) {
		return nil, false
	}
	return &rec, true
}

// Equal reports whether two records are structurally identical. Used by the
// live-update path to decide whether a remote snapshot should be adopted.
func Equal(a, b *FamilyRecord) bool {
	da, err := json.Marshal(a)
	if err != nil {
		return false
	}
	db, err := json.Marshal(b)
	if err != nil {
		return false
	}
	return string(da) == string(db)
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}
