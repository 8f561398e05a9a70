package handler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/okeanos/obol/internal/family"
	"github.com/okeanos/obol/internal/store"
)

// Scheduler is the part of the sync loop the HTTP surface needs.
type Scheduler interface {
	Wake()
	ForceSync(ctx context.Context) (bool, error)
}

// SyncHandler exposes sync control, family switching, and data export.
type SyncHandler struct {
	svc      *family.Service
	sched    Scheduler
	appState *store.AppStateStore
	logger   *slog.Logger
}

func NewSyncHandler(svc *family.Service, sched Scheduler, appState *store.AppStateStore, logger *slog.Logger) *SyncHandler {
	return &SyncHandler{svc: svc, sched: sched, appState: appState, logger: logger.With("component", "sync_handler")}
}

func (h *SyncHandler) Status(w http.ResponseWriter, r *http.Request) {
	connected, err := h.appState.Connectivity()
	if err != nil {
		h.logger.Error("read connectivity", "error", err)
	}
	rate, err := h.svc.InterestRate()
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"family_id":     h.svc.FamilyID(),
		"connected":     connected,
		"interest_rate": rate,
	})
}

// SyncNow forces an immediate pull-and-overwrite from the remote store.
func (h *SyncHandler) SyncNow(w http.ResponseWriter, r *http.Request) {
	applied, err := h.sched.ForceSync(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if !applied {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no remote document to sync from"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "synced"})
}

func (h *SyncHandler) SwitchFamily(w http.ResponseWriter, r *http.Request) {
	var req struct {
		FamilyID string `json:"family_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}
	id := strings.TrimSpace(req.FamilyID)
	if id == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "family_id is required"})
		return
	}

	// SetFamilyID persists the active family id itself.
	if err := h.svc.SetFamilyID(r.Context(), id); err != nil {
		writeServiceError(w, err)
		return
	}
	h.sched.Wake()
	writeJSON(w, http.StatusOK, map[string]string{"family_id": id})
}

// Reset discards local and remote state for the family and reseeds defaults.
func (h *SyncHandler) Reset(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Init(r.Context(), true); err != nil {
		writeServiceError(w, err)
		return
	}
	h.sched.Wake()
	writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

func (h *SyncHandler) SetInterestRate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Rate float64 `json:"rate"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}
	if err := h.svc.SetInterestRate(req.Rate); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

func (h *SyncHandler) Export(w http.ResponseWriter, r *http.Request) {
	data, err := h.svc.ExportData()
	if err != nil {
		writeServiceError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="obol-export.json"`)
	w.Write(data)
}

func (h *SyncHandler) Import(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 1<<20))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "failed to read body"})
		return
	}
	if err := h.svc.ImportData(data); err != nil {
		writeServiceError(w, err)
		return
	}
	h.sched.Wake()
	writeJSON(w, http.StatusOK, map[string]string{"status": "imported"})
}
