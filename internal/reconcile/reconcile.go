package reconcile

import (
	"context"
	"log/slog"
	"time"

	"github.com/okeanos/obol/internal/model"
	"github.com/okeanos/obol/internal/store"
)

// RemoteStore is the slice of the remote document store the reconciler
// needs. *remote.Store satisfies it; tests substitute fakes.
type RemoteStore interface {
	Available() bool
	Fetch(ctx context.Context, familyID string) (*model.FamilyRecord, error)
	Put(ctx context.Context, familyID string, rec *model.FamilyRecord) error
}

// Source names where the adopted record came from.
type Source string

const (
	SourceRemote  Source = "remote"
	SourceLocal   Source = "local"
	SourceDefault Source = "default"
)

// Reconciler chooses one authoritative record from whatever sources are
// usable. Precedence is fixed: a valid remote document wins, then the local
// row, then the compiled-in defaults. Divergence between sources is not
// merged — the chosen record replaces the rest wholesale (last writer
// wins), which is the documented consistency model.
type Reconciler struct {
	local  *store.RecordStore
	remote RemoteStore
	logger *slog.Logger

	now func() time.Time
}

func New(local *store.RecordStore, remote RemoteStore, logger *slog.Logger) *Reconciler {
	return &Reconciler{
		local:  local,
		remote: remote,
		logger: logger,
		now:    time.Now,
	}
}

// Bootstrap produces the authoritative record for a family. It cannot fail
// outright: exhausting remote and local sources lands on the default
// record, which always validates. The returned source is which rung of the
// precedence ladder supplied the record.
func (r *Reconciler) Bootstrap(ctx context.Context, familyID string, forceReset bool) (*model.FamilyRecord, Source, error) {
	if forceReset {
		rec := r.freshDefault()
		r.persist(ctx, familyID, rec)
		return rec, SourceDefault, nil
	}

	fetchFailed := false
	if r.remote.Available() {
		rec, err := r.remote.Fetch(ctx, familyID)
		if err != nil {
			fetchFailed = true
			r.logger.Info("remote fetch failed, falling back to local", "family_id", familyID)
		} else if rec != nil {
			rec = Migrate(rec)
			if err := r.local.Save(familyID, rec); err != nil {
				return nil, "", err
			}
			return rec, SourceRemote, nil
		}
	}

	rec, err := r.local.Load(familyID)
	if err != nil {
		return nil, "", err
	}
	if rec != nil {
		rec = Migrate(rec)
		// Push the local copy up as the new remote baseline — but only when
		// the remote answered (reachable, no document). After a failed fetch
		// the remote is known down; the next sync pass retries instead.
		if r.remote.Available() && !fetchFailed {
			if err := r.remote.Put(ctx, familyID, rec); err != nil {
				r.logger.Info("baseline push failed", "family_id", familyID)
			}
		}
		return rec, SourceLocal, nil
	}

	rec = r.freshDefault()
	if err := r.local.Save(familyID, rec); err != nil {
		r.logger.Error("save default record", "family_id", familyID, "error", err)
	}
	if r.remote.Available() && !fetchFailed {
		if err := r.remote.Put(ctx, familyID, rec); err != nil {
			r.logger.Info("push default record failed", "family_id", familyID)
		}
	}
	return rec, SourceDefault, nil
}

func (r *Reconciler) freshDefault() *model.FamilyRecord {
	now := r.now()
	rec := model.DefaultRecord(now)
	// No backdated interest for a brand-new family.
	rec.Settings.LastInterestPaid = &now
	return rec
}

// persist best-effort saves a freshly adopted default record to both
// stores. Local failure is logged, not fatal: the in-memory record is still
// usable and the next mutation saves again.
func (r *Reconciler) persist(ctx context.Context, familyID string, rec *model.FamilyRecord) {
	if err := r.local.Save(familyID, rec); err != nil {
		r.logger.Error("save default record", "family_id", familyID, "error", err)
	}
	if r.remote.Available() {
		if err := r.remote.Put(ctx, familyID, rec); err != nil {
			r.logger.Info("push default record failed", "family_id", familyID)
		}
	}
}

// Migrate upgrades a record to the current schema version. Version 1 is an
// identity migration that only stamps the version. Future migrations must
// stay additive and must not discard fields they do not understand.
func Migrate(rec *model.FamilyRecord) *model.FamilyRecord {
	if rec.Goals == nil {
		rec.Goals = []model.Goal{}
	}
	rec.DataVersion = model.DataVersion
	return rec
}
