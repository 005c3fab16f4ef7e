// Package handlers serves the rewards dashboard HTTP API.
package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/gorilla/sessions"

	"adwin-rewards/config"
	"adwin-rewards/dashboard"
	"adwin-rewards/models"
	"adwin-rewards/notify"
)

// UserStore reads and bootstraps user records.
type UserStore interface {
	Bootstrap(ctx context.Context, id models.Identity, startingCoins int) (models.User, bool, error)
	Get(ctx context.Context, uid string) (models.User, error)
}

// AudioPrefs holds the background audio preference of each user.
type AudioPrefs interface {
	AudioEnabled(ctx context.Context, uid string) (bool, error)
	SetAudio(ctx context.Context, uid string, enabled bool) error
}

// Env carries the dependencies shared by every handler.
type Env struct {
	Users    UserStore
	Audio    AudioPrefs
	Registry *dashboard.Registry
	Hub      *notify.Hub
	Store    sessions.Store
	Keys     config.Keys
	Auth     config.AuthConfig
	Rewards  config.RewardsConfig
	// AllowedOrigins limits websocket upgrades. Empty means same origin only.
	AllowedOrigins []string
	Logger         *slog.Logger
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]interface{}{
		"success": false,
		"message": message,
	})
}

func decode(r *http.Request, v interface{}) error {
	return json.NewDecoder(http.MaxBytesReader(nil, r.Body, 1<<20)).Decode(v)
}
