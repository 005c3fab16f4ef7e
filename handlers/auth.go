package handlers

import (
	"net/http"
	"time"

	"github.com/gorilla/sessions"

	"adwin-rewards/middleware"
	"adwin-rewards/models"
)

type SignInRequest struct {
	IDToken string `json:"id_token"`
}

type SignInResponse struct {
	Success   bool        `json:"success"`
	Message   string      `json:"message,omitempty"`
	Token     string      `json:"token,omitempty"`
	ExpiresAt time.Time   `json:"expires_at,omitempty"`
	Created   bool        `json:"created"`
	User      models.User `json:"user"`
}

// SignIn verifies an identity token, bootstraps the profile on first sign-in
// and starts a cookie session.
func SignIn(env *Env) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req SignInRequest
		if err := decode(r, &req); err != nil || req.IDToken == "" {
			writeError(w, http.StatusBadRequest, "Invalid request")
			return
		}

		identity, err := middleware.ParseIdentity([]byte(env.Auth.IdentitySecret), req.IDToken)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "Sign-in failed")
			return
		}

		user, created, err := env.Users.Bootstrap(r.Context(), identity, env.Rewards.StartingCoins)
		if err != nil {
			env.Logger.Error("failed to bootstrap user", "user_id", identity.UID, "error", err)
			writeError(w, http.StatusInternalServerError, "Could not load your profile")
			return
		}

		token, expires, err := middleware.IssueToken(env.Keys.Token, user.UID, env.Auth.TokenTTL)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Could not create token")
			return
		}

		session, _ := env.Store.Get(r, middleware.SessionName)
		session.Values["user_id"] = user.UID
		session.Options = sessionOptions(env, env.Auth.SessionMaxAge)
		if err := session.Save(r, w); err != nil {
			env.Logger.Error("failed to save session", "user_id", user.UID, "error", err)
			writeError(w, http.StatusInternalServerError, "Could not start session")
			return
		}

		env.Logger.Info("user signed in", "user_id", user.UID, "created", created)
		writeJSON(w, http.StatusOK, SignInResponse{
			Success:   true,
			Token:     token,
			ExpiresAt: expires,
			Created:   created,
			User:      user,
		})
	}
}

// SignOut tears down the dashboard session and clears the cookie.
func SignOut(env *Env) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid := middleware.UserID(r.Context())
		env.Registry.Close(uid)

		session, _ := env.Store.Get(r, middleware.SessionName)
		delete(session.Values, "user_id")
		session.Options = sessionOptions(env, -1)
		session.Save(r, w)

		env.Logger.Info("user signed out", "user_id", uid)
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"success": true,
			"message": "Signed out",
		})
	}
}

// RefreshToken issues a new bearer token for the signed-in user.
func RefreshToken(env *Env) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token, expires, err := middleware.IssueToken(env.Keys.Token, middleware.UserID(r.Context()), env.Auth.TokenTTL)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Could not create token")
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"success":    true,
			"token":      token,
			"expires_at": expires,
		})
	}
}

func sessionOptions(env *Env, maxAge int) *sessions.Options {
	return &sessions.Options{
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   env.Auth.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	}
}
