package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/okeanos/obol/internal/approvals"
	"github.com/okeanos/obol/internal/family"
	"github.com/okeanos/obol/internal/model"
)

// AccountHandler serves the balance and transaction ledger.
type AccountHandler struct {
	svc    *family.Service
	logger *slog.Logger
}

func NewAccountHandler(svc *family.Service, logger *slog.Logger) *AccountHandler {
	return &AccountHandler{svc: svc, logger: logger.With("component", "account_handler")}
}

func (h *AccountHandler) Balance(w http.ResponseWriter, r *http.Request) {
	bal, err := h.svc.Balance()
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"balance": bal.StringFixed(2)})
}

func (h *AccountHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid limit"})
			return
		}
		limit = n
	}
	typeFilter := model.TransactionType(r.URL.Query().Get("type"))
	if typeFilter != "" && !model.ValidTransactionType(typeFilter) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid type"})
		return
	}

	txs, err := h.svc.Transactions(limit, typeFilter)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if txs == nil {
		txs = []model.Transaction{}
	}
	writeJSON(w, http.StatusOK, txs)
}

type transactionRequest struct {
	Type    string `json:"type"`
	Amount  string `json:"amount"`
	Reason  string `json:"reason"`
	Pending bool   `json:"pending"`
}

func (h *AccountHandler) AddTransaction(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}
	amount, err := decimal.NewFromString(strings.TrimSpace(req.Amount))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid amount"})
		return
	}

	tx := model.Transaction{
		Type:   model.TransactionType(req.Type),
		Amount: amount,
		Reason: strings.TrimSpace(req.Reason),
	}

	var created model.Transaction
	if req.Pending {
		created, err = h.svc.AddPendingTransaction(tx)
	} else {
		created, err = h.svc.AddTransaction(tx)
	}
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *AccountHandler) ListPending(w http.ResponseWriter, r *http.Request) {
	txs, err := h.svc.PendingTransactions()
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if txs == nil {
		txs = []model.Transaction{}
	}
	writeJSON(w, http.StatusOK, txs)
}

func (h *AccountHandler) ApprovePending(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.ApprovePendingTransaction(r.PathValue("id")); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "approved"})
}

func (h *AccountHandler) RejectPending(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.RejectPendingTransaction(r.PathValue("id")); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "rejected"})
}

func (h *AccountHandler) ClearTransactions(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.ClearTransactions(); err != nil {
		h.logger.Error("clear transactions", "error", err)
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AccountHandler) ListApprovals(w http.ResponseWriter, r *http.Request) {
	items, err := h.svc.PendingApprovals()
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if items == nil {
		items = []approvals.Item{}
	}
	writeJSON(w, http.StatusOK, items)
}
