package middleware

import (
	"context"
	"encoding/json"
	"net/http"

	"adwin-rewards/dashboard"
)

// SessionLookup finds the live dashboard session of a user.
type SessionLookup interface {
	Get(userID string) (*dashboard.Session, bool)
}

// Dashboard requires an open dashboard session for the signed-in user and
// stores it on the context. It must run after Auth.
func Dashboard(sessions SessionLookup) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			s, ok := sessions.Get(UserID(r.Context()))
			if !ok || s.Closed() {
				writeError(w, http.StatusNotFound, "No open dashboard session")
				return
			}
			ctx := context.WithValue(r.Context(), dashboardKey, s)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Session returns the dashboard session stored by Dashboard.
func Session(ctx context.Context) *dashboard.Session {
	s, _ := ctx.Value(dashboardKey).(*dashboard.Session)
	return s
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success": false,
		"message": message,
	})
}
