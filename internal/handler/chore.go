package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/okeanos/obol/internal/family"
	"github.com/okeanos/obol/internal/model"
)

type ChoreHandler struct {
	svc    *family.Service
	logger *slog.Logger
}

func NewChoreHandler(svc *family.Service, logger *slog.Logger) *ChoreHandler {
	return &ChoreHandler{svc: svc, logger: logger.With("component", "chore_handler")}
}

func (h *ChoreHandler) List(w http.ResponseWriter, r *http.Request) {
	chores, err := h.svc.Chores()
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if chores == nil {
		chores = []model.Chore{}
	}
	writeJSON(w, http.StatusOK, chores)
}

type choreRequest struct {
	Name      string `json:"name"`
	Value     string `json:"value"`
	Frequency string `json:"frequency"`
}

func (h *ChoreHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req choreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}
	value, err := decimal.NewFromString(strings.TrimSpace(req.Value))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid value"})
		return
	}

	chore, err := h.svc.AddChore(req.Name, value, model.ChoreFrequency(req.Frequency))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, chore)
}

func (h *ChoreHandler) Complete(w http.ResponseWriter, r *http.Request) {
	var req struct {
		EventCount int `json:"event_count"`
	}
	json.NewDecoder(r.Body).Decode(&req)

	if err := h.svc.CompleteChore(r.PathValue("id"), req.EventCount); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "completed"})
}

func (h *ChoreHandler) Approve(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.ApproveChore(r.PathValue("id")); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "approved"})
}

func (h *ChoreHandler) Reject(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.RejectChore(r.PathValue("id")); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "rejected"})
}

func (h *ChoreHandler) Reset(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.ResetChore(r.PathValue("id")); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

func (h *ChoreHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteChore(r.PathValue("id")); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
