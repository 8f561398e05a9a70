package family

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okeanos/obol/internal/model"
	"github.com/okeanos/obol/internal/notify"
	"github.com/okeanos/obol/internal/reconcile"
	"github.com/okeanos/obol/internal/store"
)

// Service is the single owner of the live family record. Every read hands
// out copies and every mutation completes its local save before returning;
// the remote push rides on the next sync pass so a hung network call never
// blocks a local operation.
type Service struct {
	mu       sync.Mutex
	familyID string
	rec      *model.FamilyRecord
	lastGood *model.FamilyRecord

	local    *store.RecordStore
	appState *store.AppStateStore
	remote   reconcile.RemoteStore
	rc       *reconcile.Reconciler
	hub      *notify.Hub
	logger   *slog.Logger

	// saving is set while this service's own write is propagating to the
	// remote store, so the live-update path does not re-adopt data we just
	// wrote and oscillate.
	saving atomic.Bool

	now func() time.Time
}

func NewService(familyID string, local *store.RecordStore, appState *store.AppStateStore, remote reconcile.RemoteStore, hub *notify.Hub, logger *slog.Logger) *Service {
	return &Service{
		familyID: familyID,
		local:    local,
		appState: appState,
		remote:   remote,
		rc:       reconcile.New(local, remote, logger.With("component", "reconcile")),
		hub:      hub,
		logger:   logger,
		now:      time.Now,
	}
}

// Init bootstraps the record through the reconciler's precedence chain and
// runs the startup interest accrual. It never leaves the service without a
// usable record.
func (s *Service) Init(ctx context.Context, forceReset bool) error {
	rec, src, err := s.rc.Bootstrap(ctx, s.familyID, forceReset)
	if err != nil {
		return fmt.Errorf("bootstrap: %w", err)
	}
	s.logger.Info("record adopted", "family_id", s.familyID, "source", src)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.rec = rec

	if reconcile.AccrueInterest(s.rec, s.now()) {
		if err := s.saveLocked(); err != nil {
			return err
		}
		return nil
	}
	s.lastGood = s.rec.Clone()
	return nil
}

// FamilyID returns the family this service is bound to.
func (s *Service) FamilyID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.familyID
}

// SetFamilyID switches the active family and re-bootstraps for the new id.
func (s *Service) SetFamilyID(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("%w: family id required", ErrValidation)
	}

	s.mu.Lock()
	s.familyID = id
	s.rec = nil
	s.lastGood = nil
	s.mu.Unlock()

	if err := s.appState.SetActiveFamilyID(id); err != nil {
		return err
	}
	return s.Init(ctx, false)
}

// Subscribe registers an observer for data-changed events.
func (s *Service) Subscribe(fn func(notify.Event)) {
	s.hub.Subscribe(fn)
}

// mutate runs fn against the live record under the lock, rounds the
// balance, and persists. fn must validate everything before touching the
// record so a returned error leaves no partial change behind.
func (s *Service) mutate(fn func(rec *model.FamilyRecord) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.rec == nil {
		return ErrNotInitialized
	}
	if err := fn(s.rec); err != nil {
		return err
	}
	s.rec.Balance = s.rec.Balance.Round(2)
	return s.saveLocked()
}

// saveLocked persists the current record locally, refreshes the crash
// recovery snapshot, and broadcasts data-changed. On a failed save the
// in-memory record rolls back to the last good snapshot so memory and disk
// cannot drift apart. Callers must hold s.mu.
func (s *Service) saveLocked() error {
	if err := s.local.Save(s.familyID, s.rec); err != nil {
		if s.lastGood != nil {
			s.rec = s.lastGood.Clone()
		}
		return fmt.Errorf("save record: %w", err)
	}
	s.lastGood = s.rec.Clone()
	// Broadcast off the lock: in-process subscribers are allowed to call
	// back into the service.
	ev := notify.DataChanged(s.familyID, s.rec.DataVersion)
	go s.hub.Broadcast(ev)
	return nil
}

// snapshot returns a deep copy of the live record for read operations.
func (s *Service) snapshot() (*model.FamilyRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.rec == nil {
		return nil, ErrNotInitialized
	}
	return s.rec.Clone(), nil
}

// SyncPass runs one full synchronization: save local, push to remote, pull
// remote, adopt a differing remote snapshot. Remote failures downgrade the
// pass to local-only; the scheduler simply tries again next tick.
func (s *Service) SyncPass(ctx context.Context) {
	s.mu.Lock()
	if s.rec == nil {
		s.mu.Unlock()
		return
	}
	if err := s.saveLocked(); err != nil {
		s.logger.Error("sync pass local save", "error", err)
		s.mu.Unlock()
		return
	}
	rec := s.rec.Clone()
	familyID := s.familyID
	s.mu.Unlock()

	if !s.remote.Available() {
		return
	}

	s.saving.Store(true)
	err := s.remote.Put(ctx, familyID, rec)
	s.saving.Store(false)
	if err != nil {
		s.logger.Info("sync pass remote push failed", "family_id", familyID)
		return
	}

	remoteRec, err := s.remote.Fetch(ctx, familyID)
	if err != nil || remoteRec == nil {
		return
	}
	s.AdoptSnapshot(remoteRec)
}

// AdoptSnapshot installs a remote record as authoritative when it differs
// from the live one. Whole-record last-writer-wins: no merging. The saving
// guard drops snapshots that race with our own in-flight write.
func (s *Service) AdoptSnapshot(remoteRec *model.FamilyRecord) bool {
	if remoteRec == nil || !model.Validate(remoteRec) {
		return false
	}
	if s.saving.Load() {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.rec == nil || model.Equal(s.rec, remoteRec) {
		return false
	}

	s.rec = reconcile.Migrate(remoteRec.Clone())
	if err := s.saveLocked(); err != nil {
		s.logger.Error("adopt snapshot save", "error", err)
		return false
	}
	return true
}

// ReloadLocal re-reads the local row and adopts it when it differs, the
// sibling-instance answer to a data-changed event: no remote round trip
// needed because the writer already pushed.
func (s *Service) ReloadLocal() bool {
	s.mu.Lock()
	familyID := s.familyID
	s.mu.Unlock()

	rec, err := s.local.Load(familyID)
	if err != nil || rec == nil {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.rec == nil || model.Equal(s.rec, rec) {
		return false
	}
	s.rec = reconcile.Migrate(rec)
	s.lastGood = s.rec.Clone()
	return true
}

// ManualSync pulls the remote document and unconditionally overwrites
// local state when it is reachable and valid, even if this device has
// unsaved divergence — the documented force-sync tradeoff. Returns whether
// a remote document was applied; an unreachable remote is reported as
// ErrRemoteUnreachable, a missing or unconfigured one as (false, nil).
func (s *Service) ManualSync(ctx context.Context) (bool, error) {
	s.mu.Lock()
	familyID := s.familyID
	s.mu.Unlock()

	if !s.remote.Available() {
		return false, nil
	}

	remoteRec, err := s.remote.Fetch(ctx, familyID)
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrRemoteUnreachable, err)
	}
	if remoteRec == nil {
		return false, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.rec = reconcile.Migrate(remoteRec.Clone())
	if err := s.saveLocked(); err != nil {
		s.logger.Error("manual sync save", "error", err)
		return false, err
	}
	return true, nil
}

// AccrueInterest runs the periodic interest check against the live record.
// Saves only when the accrual actually changed something.
func (s *Service) AccrueInterest() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.rec == nil {
		return ErrNotInitialized
	}
	if !reconcile.AccrueInterest(s.rec, s.now()) {
		return nil
	}
	s.rec.Balance = s.rec.Balance.Round(2)
	return s.saveLocked()
}
