package family

import (
	"fmt"

	"github.com/okeanos/obol/internal/model"
	"github.com/okeanos/obol/internal/reconcile"
)

// VerifyParentPassword checks a candidate against the stored password and,
// on success, caches the parent role in app state for the HTTP layer's
// approval gate. Comparison is plaintext equality; hashing would
// invalidate every password already stored in existing family records.
func (s *Service) VerifyParentPassword(candidate string) bool {
	s.mu.Lock()
	ok := s.rec != nil && s.rec.Settings.ParentPassword == candidate
	s.mu.Unlock()

	if ok {
		if err := s.appState.SetAuthState("parent", s.now()); err != nil {
			s.logger.Warn("cache auth state", "error", err)
		}
	}
	return ok
}

// ChangeParentPassword replaces the parent password after verifying the
// current one.
func (s *Service) ChangeParentPassword(current, next string) error {
	if next == "" {
		return fmt.Errorf("%w: new password required", ErrValidation)
	}
	return s.mutate(func(rec *model.FamilyRecord) error {
		if rec.Settings.ParentPassword != current {
			return ErrIncorrectPassword
		}
		rec.Settings.ParentPassword = next
		return nil
	})
}

// InterestRate returns the configured annual rate.
func (s *Service) InterestRate() (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.rec == nil {
		return 0, ErrNotInitialized
	}
	return s.rec.Settings.InterestRate, nil
}

// SetInterestRate updates the annual interest rate. Negative rates are
// rejected; zero disables interest.
func (s *Service) SetInterestRate(rate float64) error {
	if rate < 0 {
		return fmt.Errorf("%w: interest rate cannot be negative", ErrValidation)
	}
	return s.mutate(func(rec *model.FamilyRecord) error {
		rec.Settings.InterestRate = rate
		return nil
	})
}

// ExportData serializes the full record for backup or transfer.
func (s *Service) ExportData() ([]byte, error) {
	rec, err := s.snapshot()
	if err != nil {
		return nil, err
	}
	return model.Encode(rec)
}

// ImportData replaces the live record with an exported snapshot. The
// snapshot passes through the same structural validation as any other
// data source before being adopted.
func (s *Service) ImportData(data []byte) error {
	rec, ok := model.Decode(data)
	if !ok {
		return fmt.Errorf("%w: snapshot failed validation", ErrValidation)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.rec = reconcile.Migrate(rec)
	return s.saveLocked()
}
