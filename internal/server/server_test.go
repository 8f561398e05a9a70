package server

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/okeanos/obol/internal/database"
	"github.com/okeanos/obol/internal/family"
	"github.com/okeanos/obol/internal/model"
	"github.com/okeanos/obol/internal/notify"
	"github.com/okeanos/obol/internal/store"
)

type stubScheduler struct{}

func (stubScheduler) Wake() {}

func (stubScheduler) ForceSync(ctx context.Context) (bool, error) { return false, nil }

type offlineRemote struct{}

func (offlineRemote) Available() bool { return false }
func (offlineRemote) Fetch(ctx context.Context, familyID string) (*model.FamilyRecord, error) {
	return nil, nil
}
func (offlineRemote) Put(ctx context.Context, familyID string, rec *model.FamilyRecord) error {
	return nil
}

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	db, err := database.OpenMemory()
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	appState := store.NewAppStateStore(db)
	hub := notify.NewHub(logger)
	svc := family.NewService("fam-router",
		store.NewRecordStore(db),
		appState,
		offlineRemote{},
		hub,
		logger)
	if err := svc.Init(context.Background(), false); err != nil {
		t.Fatalf("init: %v", err)
	}

	return New(svc, stubScheduler{}, appState, hub, logger).Router()
}

func TestHealthEndpoint(t *testing.T) {
	router := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var body map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("status field = %q, want ok", body["status"])
	}
}

func TestParentRoutesGated(t *testing.T) {
	router := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/parent/approvals", nil))
	if rec.Code != http.StatusForbidden {
		t.Fatalf("unverified status = %d, want 403", rec.Code)
	}

	// Verify with the seeded password, then the gate opens.
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/auth/verify",
		strings.NewReader(`{"password":"`+model.DefaultParentPassword+`"}`)))
	if rec.Code != http.StatusOK {
		t.Fatalf("verify status = %d: %s", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/parent/approvals", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("verified status = %d, want 200", rec.Code)
	}
}

func TestChildRoutesOpen(t *testing.T) {
	router := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/balance", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("balance status = %d, want 200", rec.Code)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/chores", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("chores status = %d, want 200", rec.Code)
	}
}
