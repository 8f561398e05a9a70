package middleware

import (
	"net/http"
	"time"

	"github.com/okeanos/obol/internal/store"
)

// parentGrace is how long a successful password check stays valid before
// the client has to verify again.
const parentGrace = 15 * time.Minute

// RequireParent gates parent-only routes on the cached verification in
// app state. The cache is written by the verify endpoint; an expired or
// missing entry gets a 403 and the client re-prompts for the password.
func RequireParent(appState *store.AppStateStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role, verifiedAt, err := appState.AuthState()
			if err != nil {
				http.Error(w, "Internal server error", http.StatusInternalServerError)
				return
			}
			if role != "parent" || time.Since(verifiedAt) > parentGrace {
				http.Error(w, "Parent verification required", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
