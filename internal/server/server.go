package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/okeanos/obol/internal/family"
	"github.com/okeanos/obol/internal/handler"
	"github.com/okeanos/obol/internal/middleware"
	"github.com/okeanos/obol/internal/notify"
	"github.com/okeanos/obol/internal/store"
)

type Server struct {
	hub         *notify.Hub
	accountH    *handler.AccountHandler
	choreH      *handler.ChoreHandler
	goalH       *handler.GoalHandler
	authH       *handler.AuthHandler
	syncH       *handler.SyncHandler
	appState    *store.AppStateStore
	rateLimiter *middleware.RateLimiter
	logger      *slog.Logger
}

func New(svc *family.Service, sched handler.Scheduler, appState *store.AppStateStore, hub *notify.Hub, logger *slog.Logger) *Server {
	return &Server{
		hub:         hub,
		accountH:    handler.NewAccountHandler(svc, logger),
		choreH:      handler.NewChoreHandler(svc, logger),
		goalH:       handler.NewGoalHandler(svc, logger),
		authH:       handler.NewAuthHandler(svc, appState, logger),
		syncH:       handler.NewSyncHandler(svc, sched, appState, logger),
		appState:    appState,
		rateLimiter: middleware.NewRateLimiter(),
		logger:      logger,
	}
}

// RateLimiter is exposed for the periodic cleanup task.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()

	// Open routes: anything a child can see or do.
	mux.HandleFunc("GET /health", s.healthHandler)
	mux.HandleFunc("GET /api/balance", s.accountH.Balance)
	mux.HandleFunc("GET /api/transactions", s.accountH.ListTransactions)
	mux.HandleFunc("POST /api/transactions", s.accountH.AddTransaction)
	mux.HandleFunc("GET /api/pending", s.accountH.ListPending)
	mux.HandleFunc("GET /api/chores", s.choreH.List)
	mux.HandleFunc("POST /api/chores/{id}/complete", s.choreH.Complete)
	mux.HandleFunc("GET /api/goals", s.goalH.List)
	mux.HandleFunc("POST /api/goals", s.goalH.Create)
	mux.HandleFunc("POST /api/goals/{id}/contribute", s.goalH.Contribute)
	mux.HandleFunc("GET /api/status", s.syncH.Status)
	mux.HandleFunc("POST /api/sync", s.syncH.SyncNow)
	mux.HandleFunc("GET /api/export", s.syncH.Export)

	// Password verification is rate limited per client IP.
	verifyLimit := middleware.RateLimitByIP(s.rateLimiter, 10, time.Minute)
	mux.Handle("POST /api/auth/verify", verifyLimit(http.HandlerFunc(s.authH.Verify)))
	mux.HandleFunc("POST /api/auth/logout", s.authH.Logout)

	// Parent-only routes sit behind the cached-verification gate.
	parentMux := http.NewServeMux()
	s.registerParentRoutes(parentMux)
	requireParent := middleware.RequireParent(s.appState)
	mux.Handle("/api/parent/", http.StripPrefix("/api/parent", requireParent(parentMux)))

	// WebSocket
	mux.HandleFunc("GET /ws", notify.Handler(s.hub, s.logger.With("component", "websocket")))

	return middleware.RequestLogger(s.logger.With("component", "http"))(mux)
}

func (s *Server) registerParentRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /approvals", s.accountH.ListApprovals)
	mux.HandleFunc("POST /pending/{id}/approve", s.accountH.ApprovePending)
	mux.HandleFunc("POST /pending/{id}/reject", s.accountH.RejectPending)
	mux.HandleFunc("DELETE /transactions", s.accountH.ClearTransactions)

	mux.HandleFunc("POST /chores", s.choreH.Create)
	mux.HandleFunc("POST /chores/{id}/approve", s.choreH.Approve)
	mux.HandleFunc("POST /chores/{id}/reject", s.choreH.Reject)
	mux.HandleFunc("POST /chores/{id}/reset", s.choreH.Reset)
	mux.HandleFunc("DELETE /chores/{id}", s.choreH.Delete)

	mux.HandleFunc("DELETE /goals/{id}", s.goalH.Delete)

	mux.HandleFunc("POST /auth/password", s.authH.ChangePassword)
	mux.HandleFunc("POST /family/switch", s.syncH.SwitchFamily)
	mux.HandleFunc("POST /family/reset", s.syncH.Reset)
	mux.HandleFunc("PUT /settings/interest-rate", s.syncH.SetInterestRate)
	mux.HandleFunc("POST /import", s.syncH.Import)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
