package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/okeanos/obol/internal/family"
	"github.com/okeanos/obol/internal/store"
)

// AuthHandler verifies the parent password and manages the cached
// verification used by the parent-only route gate.
type AuthHandler struct {
	svc      *family.Service
	appState *store.AppStateStore
	logger   *slog.Logger
}

func NewAuthHandler(svc *family.Service, appState *store.AppStateStore, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{svc: svc, appState: appState, logger: logger.With("component", "auth_handler")}
}

func (h *AuthHandler) Verify(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}

	if !h.svc.VerifyParentPassword(req.Password) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "incorrect password"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "verified"})
}

func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Current string `json:"current"`
		Next    string `json:"next"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}

	if err := h.svc.ChangeParentPassword(req.Current, req.Next); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "changed"})
}

// Logout drops the cached parent verification for this device.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.appState.ClearAuthState(); err != nil {
		h.logger.Error("clear auth state", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
