package store

import (
	"database/sql"
	"fmt"

	"github.com/okeanos/obol/internal/model"
)

// legacyFamilyID is the shared row older builds wrote the current family's
// record to before records were scoped per family. Save keeps mirroring it
// so a downgrade still finds data; Load falls back to it for upgrades.
const legacyFamilyID = "_legacy"

// RecordStore persists serialized family records in SQLite, one row per
// family id. It is the durable single-device side of the sync pair: writes
// here never depend on the remote store being reachable.
type RecordStore struct {
	db *sql.DB
}

func NewRecordStore(db *sql.DB) *RecordStore {
	return &RecordStore{db: db}
}

// Save writes the record under the family-scoped row and mirrors it to the
// legacy shared row in the same transaction.
func (s *RecordStore) Save(familyID string, rec *model.FamilyRecord) error {
	data, err := model.Encode(rec)
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	const upsert = `
		INSERT INTO records (family_id, data, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(family_id) DO UPDATE SET data = excluded.data, updated_at = CURRENT_TIMESTAMP`

	if _, err := tx.Exec(upsert, familyID, string(data)); err != nil {
		return fmt.Errorf("save record: %w", err)
	}
	if _, err := tx.Exec(upsert, legacyFamilyID, string(data)); err != nil {
		return fmt.Errorf("mirror legacy record: %w", err)
	}
	return tx.Commit()
}

// Load reads the record for a family. A missing row is not an error: it
// falls back to the legacy shared row (back-filling the scoped row when
// found there) and finally returns (nil, nil) for "absent". A row holding
// unparseable or structurally invalid data is also treated as absent so
// corruption never blocks startup.
func (s *RecordStore) Load(familyID string) (*model.FamilyRecord, error) {
	rec, found, err := s.loadRow(familyID)
	if err != nil {
		return nil, err
	}
	if rec != nil {
		return rec, nil
	}
	if found {
		// Row exists but is corrupt — do not bother with the legacy
		// fallback, it mirrors the same data.
		return nil, nil
	}

	rec, _, err = s.loadRow(legacyFamilyID)
	if err != nil || rec == nil {
		return nil, err
	}

	// Back-fill the scoped row so future loads skip the fallback.
	if err := s.Save(familyID, rec); err != nil {
		return nil, fmt.Errorf("backfill record: %w", err)
	}
	return rec, nil
}

// loadRow returns the decoded record, whether a row existed at all, and any
// database error. Decode failures yield (nil, true, nil).
func (s *RecordStore) loadRow(familyID string) (*model.FamilyRecord, bool, error) {
	var data string
	err := s.db.QueryRow(`SELECT data FROM records WHERE family_id = ?`, familyID).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("load record: %w", err)
	}

	rec, ok := model.Decode([]byte(data))
	if !ok {
		return nil, true, nil
	}
	return rec, true, nil
}

// Delete removes the scoped row for a family. The legacy mirror is left in
// place; the next Save overwrites it.
func (s *RecordStore) Delete(familyID string) error {
	if _, err := s.db.Exec(`DELETE FROM records WHERE family_id = ?`, familyID); err != nil {
		return fmt.Errorf("delete record: %w", err)
	}
	return nil
}
