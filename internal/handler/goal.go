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

type GoalHandler struct {
	svc    *family.Service
	logger *slog.Logger
}

func NewGoalHandler(svc *family.Service, logger *slog.Logger) *GoalHandler {
	return &GoalHandler{svc: svc, logger: logger.With("component", "goal_handler")}
}

func (h *GoalHandler) List(w http.ResponseWriter, r *http.Request) {
	goals, err := h.svc.Goals()
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if goals == nil {
		goals = []model.Goal{}
	}
	writeJSON(w, http.StatusOK, goals)
}

type goalRequest struct {
	Name   string `json:"name"`
	Target string `json:"target"`
	Icon   string `json:"icon"`
}

func (h *GoalHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req goalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}
	target, err := decimal.NewFromString(strings.TrimSpace(req.Target))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid target"})
		return
	}

	goal, err := h.svc.AddGoal(req.Name, target, req.Icon)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, goal)
}

func (h *GoalHandler) Contribute(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Amount string `json:"amount"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}
	amount, err := decimal.NewFromString(strings.TrimSpace(req.Amount))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid amount"})
		return
	}

	if err := h.svc.ContributeToGoal(r.PathValue("id"), amount); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "contributed"})
}

func (h *GoalHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteGoal(r.PathValue("id")); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
