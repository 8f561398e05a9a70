package store

import (
	"database/sql"
	"fmt"
	"time"
)

const (
	keyActiveFamily   = "active_family_id"
	keyAuthRole       = "auth_role"
	keyAuthVerifiedAt = "auth_verified_at"
	keyConnectivity   = "remote_connected"
)

// AppStateStore holds small device-local flags outside the family record:
// the active family id, the cached auth role, and the last known remote
// connectivity state. These never sync — they describe this device.
type AppStateStore struct {
	db *sql.DB
}

func NewAppStateStore(db *sql.DB) *AppStateStore {
	return &AppStateStore{db: db}
}

// Get returns the value for key, or "" when the key has never been set.
func (s *AppStateStore) Get(key string) (string, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM app_state WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get app state %q: %w", key, err)
	}
	return value, nil
}

// Set upserts a key-value pair.
func (s *AppStateStore) Set(key, value string) error {
	_, err := s.db.Exec(`
		INSERT INTO app_state (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP`,
		key, value)
	if err != nil {
		return fmt.Errorf("set app state %q: %w", key, err)
	}
	return nil
}

func (s *AppStateStore) Delete(key string) error {
	if _, err := s.db.Exec(`DELETE FROM app_state WHERE key = ?`, key); err != nil {
		return fmt.Errorf("delete app state %q: %w", key, err)
	}
	return nil
}

// ActiveFamilyID returns the family this device last switched to.
func (s *AppStateStore) ActiveFamilyID() (string, error) {
	return s.Get(keyActiveFamily)
}

func (s *AppStateStore) SetActiveFamilyID(id string) error {
	return s.Set(keyActiveFamily, id)
}

// AuthState returns the cached role and when it was verified. Role is ""
// when nothing is cached.
func (s *AppStateStore) AuthState() (role string, verifiedAt time.Time, err error) {
	role, err = s.Get(keyAuthRole)
	if err != nil || role == "" {
		return "", time.Time{}, err
	}
	raw, err := s.Get(keyAuthVerifiedAt)
	if err != nil {
		return "", time.Time{}, err
	}
	ts, perr := time.Parse(time.RFC3339, raw)
	if perr != nil {
		// Stale or corrupt timestamp invalidates the cached role.
		return "", time.Time{}, nil
	}
	return role, ts, nil
}

func (s *AppStateStore) SetAuthState(role string, verifiedAt time.Time) error {
	if err := s.Set(keyAuthRole, role); err != nil {
		return err
	}
	return s.Set(keyAuthVerifiedAt, verifiedAt.UTC().Format(time.RFC3339))
}

func (s *AppStateStore) ClearAuthState() error {
	if err := s.Delete(keyAuthRole); err != nil {
		return err
	}
	return s.Delete(keyAuthVerifiedAt)
}

// Connectivity returns the last recorded remote reachability. Display-only:
// the reconciler always probes for itself.
func (s *AppStateStore) Connectivity() (bool, error) {
	v, err := s.Get(keyConnectivity)
	return v == "true", err
}

func (s *AppStateStore) SetConnectivity(connected bool) error {
	if connected {
		return s.Set(keyConnectivity, "true")
	}
	return s.Set(keyConnectivity, "false")
}
