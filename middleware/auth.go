package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gorilla/sessions"
)

// SessionName is the cookie holding the signed-in user.
const SessionName = "adwin_session"

type ctxKey int

const (
	userIDKey ctxKey = iota
	dashboardKey
)

// UserID returns the signed-in user stored by Auth.
func UserID(ctx context.Context) string {
	id, _ := ctx.Value(userIDKey).(string)
	return id
}

// WithUserID returns ctx carrying uid.
func WithUserID(ctx context.Context, uid string) context.Context {
	return context.WithValue(ctx, userIDKey, uid)
}

// Auth accepts either the session cookie or an app bearer token and puts
// the user id on the request context.
func Auth(store sessions.Store, tokenKey []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Session first
			session, _ := store.Get(r, SessionName)
			if uid, ok := session.Values["user_id"].(string); ok && uid != "" {
				next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), uid)))
				return
			}

			// Then bearer token
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				writeError(w, http.StatusUnauthorized, "Unauthorized")
				return
			}
			scheme, raw, ok := strings.Cut(authHeader, " ")
			if !ok || scheme != "Bearer" {
				writeError(w, http.StatusUnauthorized, "Invalid token format")
				return
			}

			claims, err := ParseToken(tokenKey, raw)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "Invalid token")
				return
			}
			next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), claims.Subject)))
		})
	}
}
