package reconcile

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/okeanos/obol/internal/database"
	"github.com/okeanos/obol/internal/model"
	"github.com/okeanos/obol/internal/store"
)

// fakeRemote implements RemoteStore in memory.
type fakeRemote struct {
	available bool
	reachable bool
	docs      map[string]*model.FamilyRecord

	// putAttempts counts every Put call, successful or not.
	putAttempts int
}

func newFakeRemote(available, reachable bool) *fakeRemote {
	return &fakeRemote{
		available: available,
		reachable: reachable,
		docs:      make(map[string]*model.FamilyRecord),
	}
}

func (f *fakeRemote) Available() bool { return f.available }

func (f *fakeRemote) Fetch(ctx context.Context, familyID string) (*model.FamilyRecord, error) {
	if !f.available || !f.reachable {
		return nil, errors.New("remote store unavailable")
	}
	rec, ok := f.docs[familyID]
	if !ok {
		return nil, nil
	}
	return rec.Clone(), nil
}

func (f *fakeRemote) Put(ctx context.Context, familyID string, rec *model.FamilyRecord) error {
	f.putAttempts++
	if !f.available || !f.reachable {
		return errors.New("remote store unavailable")
	}
	f.docs[familyID] = rec.Clone()
	return nil
}

func setupReconciler(t *testing.T, rem *fakeRemote) (*Reconciler, *store.RecordStore, *sql.DB) {
	t.Helper()
	db, err := database.OpenMemory()
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	local := store.NewRecordStore(db)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(local, rem, logger), local, db
}

func TestBootstrapPrefersRemote(t *testing.T) {
	rem := newFakeRemote(true, true)
	r, local, _ := setupReconciler(t, rem)

	remoteRec := model.DefaultRecord(time.Now())
	remoteRec.Balance = decimal.NewFromFloat(99.99)
	rem.docs["fam-1"] = remoteRec

	localRec := model.DefaultRecord(time.Now())
	localRec.Balance = decimal.NewFromFloat(11.11)
	if err := local.Save("fam-1", localRec); err != nil {
		t.Fatalf("seed local: %v", err)
	}

	rec, src, err := r.Bootstrap(context.Background(), "fam-1", false)
	if err != nil {
		t.Fatalf("bootstrap: %v", err)
	}
	if src != SourceRemote {
		t.Errorf("source = %s, want remote", src)
	}
	if !rec.Balance.Equal(remoteRec.Balance) {
		t.Errorf("balance = %s, want %s (remote wins)", rec.Balance, remoteRec.Balance)
	}

	// The adopted remote copy replaces the local row.
	reloaded, err := local.Load("fam-1")
	if err != nil || reloaded == nil {
		t.Fatalf("reload local: rec=%v err=%v", reloaded, err)
	}
	if !reloaded.Balance.Equal(remoteRec.Balance) {
		t.Errorf("local balance after adopt = %s, want %s", reloaded.Balance, remoteRec.Balance)
	}
}

func TestBootstrapFallsBackToLocal(t *testing.T) {
	// Remote configured but unreachable: local record wins and no push is
	// attempted.
	rem := newFakeRemote(true, false)
	r, local, _ := setupReconciler(t, rem)

	localRec := model.DefaultRecord(time.Now())
	localRec.Balance = decimal.NewFromFloat(123.45)
	if err := local.Save("fam-1", localRec); err != nil {
		t.Fatalf("seed local: %v", err)
	}

	rec, src, err := r.Bootstrap(context.Background(), "fam-1", false)
	if err != nil {
		t.Fatalf("bootstrap: %v", err)
	}
	if src != SourceLocal {
		t.Errorf("source = %s, want local", src)
	}
	if !rec.Balance.Equal(localRec.Balance) {
		t.Errorf("balance = %s, want %s", rec.Balance, localRec.Balance)
	}
	if rem.putAttempts != 0 {
		t.Errorf("put attempts = %d, want 0 (remote just failed the fetch)", rem.putAttempts)
	}
}

func TestBootstrapNoDefaultPushAfterFailedFetch(t *testing.T) {
	// No local row either: the default record is adopted, but the remote
	// already failed this bootstrap, so it is not pushed.
	rem := newFakeRemote(true, false)
	r, _, _ := setupReconciler(t, rem)

	_, src, err := r.Bootstrap(context.Background(), "fam-1", false)
	if err != nil {
		t.Fatalf("bootstrap: %v", err)
	}
	if src != SourceDefault {
		t.Errorf("source = %s, want default", src)
	}
	if rem.putAttempts != 0 {
		t.Errorf("put attempts = %d, want 0 (remote just failed the fetch)", rem.putAttempts)
	}
}

func TestBootstrapPushesLocalBaseline(t *testing.T) {
	// Remote reachable but holds no document: the local record becomes the
	// new remote baseline.
	rem := newFakeRemote(true, true)
	r, local, _ := setupReconciler(t, rem)

	localRec := model.DefaultRecord(time.Now())
	if err := local.Save("fam-1", localRec); err != nil {
		t.Fatalf("seed local: %v", err)
	}

	_, src, err := r.Bootstrap(context.Background(), "fam-1", false)
	if err != nil {
		t.Fatalf("bootstrap: %v", err)
	}
	if src != SourceLocal {
		t.Errorf("source = %s, want local", src)
	}
	if rem.docs["fam-1"] == nil {
		t.Error("local record was not pushed as remote baseline")
	}
}

func TestBootstrapDefaultsWhenEmpty(t *testing.T) {
	rem := newFakeRemote(false, false)
	r, _, _ := setupReconciler(t, rem)

	rec, src, err := r.Bootstrap(context.Background(), "fam-1", false)
	if err != nil {
		t.Fatalf("bootstrap: %v", err)
	}
	if src != SourceDefault {
		t.Errorf("source = %s, want default", src)
	}
	if rec.Settings.LastInterestPaid == nil {
		t.Error("LastInterestPaid not stamped on default adoption")
	}
	if !rec.Balance.Equal(decimal.NewFromFloat(385.80)) {
		t.Errorf("balance = %s, want 385.80", rec.Balance)
	}
}

func TestBootstrapCorruptLocalFallsToDefault(t *testing.T) {
	rem := newFakeRemote(false, false)
	r, _, db := setupReconciler(t, rem)

	if _, err := db.Exec(`INSERT INTO records (family_id, data) VALUES (?, ?)`,
		"fam-1", "garbage"); err != nil {
		t.Fatalf("insert corrupt row: %v", err)
	}

	rec, src, err := r.Bootstrap(context.Background(), "fam-1", false)
	if err != nil {
		t.Fatalf("bootstrap: %v", err)
	}
	if src != SourceDefault {
		t.Errorf("source = %s, want default", src)
	}
	if rec.Settings.LastInterestPaid == nil {
		t.Error("LastInterestPaid not stamped after corruption recovery")
	}
}

func TestBootstrapIdempotent(t *testing.T) {
	rem := newFakeRemote(true, true)
	r, _, _ := setupReconciler(t, rem)

	first, _, err := r.Bootstrap(context.Background(), "fam-1", false)
	if err != nil {
		t.Fatalf("first bootstrap: %v", err)
	}
	second, _, err := r.Bootstrap(context.Background(), "fam-1", false)
	if err != nil {
		t.Fatalf("second bootstrap: %v", err)
	}
	if !model.Equal(first, second) {
		t.Error("second bootstrap produced a different record")
	}
}

func TestBootstrapForceReset(t *testing.T) {
	rem := newFakeRemote(true, true)
	r, local, _ := setupReconciler(t, rem)

	existing := model.DefaultRecord(time.Now())
	existing.Balance = decimal.NewFromFloat(1000.00)
	if err := local.Save("fam-1", existing); err != nil {
		t.Fatalf("seed local: %v", err)
	}
	rem.docs["fam-1"] = existing

	rec, src, err := r.Bootstrap(context.Background(), "fam-1", true)
	if err != nil {
		t.Fatalf("bootstrap: %v", err)
	}
	if src != SourceDefault {
		t.Errorf("source = %s, want default", src)
	}
	if !rec.Balance.Equal(decimal.NewFromFloat(385.80)) {
		t.Errorf("balance = %s, want fresh default 385.80", rec.Balance)
	}
}

func TestMigrateStampsVersionAndGoals(t *testing.T) {
	rec := model.DefaultRecord(time.Now())
	rec.DataVersion = 0
	rec.Goals = nil

	out := Migrate(rec)
	if out.DataVersion != model.DataVersion {
		t.Errorf("data version = %d, want %d", out.DataVersion, model.DataVersion)
	}
	if out.Goals == nil {
		t.Error("nil goals slice not normalized")
	}
}

func TestAccrueInterest(t *testing.T) {
	now := time.Date(2025, 7, 1, 9, 0, 0, 0, time.UTC)

	t.Run("first run stamps without paying", func(t *testing.T) {
		rec := model.DefaultRecord(now)
		before := rec.Balance

		if !AccrueInterest(rec, now) {
			t.Fatal("first accrual reported no change")
		}
		if !rec.Balance.Equal(before) {
			t.Errorf("balance changed on first run: %s -> %s", before, rec.Balance)
		}
		if rec.Settings.LastInterestPaid == nil || !rec.Settings.LastInterestPaid.Equal(now) {
			t.Errorf("LastInterestPaid = %v, want %v", rec.Settings.LastInterestPaid, now)
		}
	})

	t.Run("under 30 days is a no-op", func(t *testing.T) {
		rec := model.DefaultRecord(now)
		last := now.AddDate(0, 0, -29)
		rec.Settings.LastInterestPaid = &last

		if AccrueInterest(rec, now) {
			t.Error("accrual before 30 days reported a change")
		}
	})

	t.Run("pays one month of interest", func(t *testing.T) {
		rec := model.DefaultRecord(now)
		rec.Balance = decimal.NewFromFloat(600.00)
		rec.Settings.InterestRate = 0.02
		last := now.AddDate(0, 0, -31)
		rec.Settings.LastInterestPaid = &last

		if !AccrueInterest(rec, now) {
			t.Fatal("due accrual reported no change")
		}
		// 600 * 0.02/12 = 1.00
		want := decimal.NewFromFloat(601.00)
		if !rec.Balance.Equal(want) {
			t.Errorf("balance = %s, want %s", rec.Balance, want)
		}
		if rec.Transactions[0].Type != model.TxInterest {
			t.Errorf("newest transaction type = %s, want interest", rec.Transactions[0].Type)
		}
		if !rec.Transactions[0].Amount.Equal(decimal.NewFromFloat(1.00)) {
			t.Errorf("interest amount = %s, want 1.00", rec.Transactions[0].Amount)
		}
		if !rec.Settings.LastInterestPaid.Equal(now) {
			t.Error("LastInterestPaid not advanced")
		}
	})

	t.Run("sub-cent interest advances without paying", func(t *testing.T) {
		rec := model.DefaultRecord(now)
		rec.Balance = decimal.NewFromFloat(1.00)
		rec.Settings.InterestRate = 0.02
		last := now.AddDate(0, 0, -31)
		rec.Settings.LastInterestPaid = &last
		txCount := len(rec.Transactions)

		if !AccrueInterest(rec, now) {
			t.Fatal("threshold crossing reported no change")
		}
		if len(rec.Transactions) != txCount {
			t.Error("sub-cent interest created a transaction")
		}
		if !rec.Balance.Equal(decimal.NewFromFloat(1.00)) {
			t.Errorf("balance = %s, want unchanged 1.00", rec.Balance)
		}
		if !rec.Settings.LastInterestPaid.Equal(now) {
			t.Error("LastInterestPaid not advanced past sub-cent period")
		}
	})
}
