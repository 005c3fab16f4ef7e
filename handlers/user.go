package handlers

import (
	"errors"
	"net/http"

	"adwin-rewards/database"
	"adwin-rewards/middleware"
)

// GetUser returns the profile of the signed-in user.
func GetUser(env *Env) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, err := env.Users.Get(r.Context(), middleware.UserID(r.Context()))
		if errors.Is(err, database.ErrUserNotFound) {
			writeError(w, http.StatusNotFound, "User not found")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Could not load your profile")
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"success": true,
			"user":    user,
		})
	}
}

type AudioRequest struct {
	Enabled *bool `json:"enabled"`
}

// GetAudio returns the background audio preference.
func GetAudio(env *Env) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		enabled, err := env.Audio.AudioEnabled(r.Context(), middleware.UserID(r.Context()))
		if err != nil {
			writeAudioError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"success": true,
			"enabled": enabled,
		})
	}
}

// SetAudio stores the background audio preference.
func SetAudio(env *Env) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req AudioRequest
		if err := decode(r, &req); err != nil || req.Enabled == nil {
			writeError(w, http.StatusBadRequest, "Invalid request")
			return
		}
		if err := env.Audio.SetAudio(r.Context(), middleware.UserID(r.Context()), *req.Enabled); err != nil {
			writeAudioError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"success": true,
			"enabled": *req.Enabled,
		})
	}
}

func writeAudioError(w http.ResponseWriter, err error) {
	if errors.Is(err, database.ErrUserNotFound) {
		writeError(w, http.StatusNotFound, "User not found")
		return
	}
	writeError(w, http.StatusInternalServerError, "Could not update settings")
}

// Link is a navigation or participation target.
type Link struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Href  string `json:"href"`
}

var navLinks = []Link{
	{ID: "home", Label: "Home", Href: "/dashboard"},
	{ID: "redeem", Label: "Redeem", Href: "/redeem"},
	{ID: "refer", Label: "Refer", Href: "/refer"},
	{ID: "history", Label: "History", Href: "/history"},
	{ID: "settings", Label: "Settings", Href: "/settings"},
}

var participateLinks = []Link{
	{ID: "surveys", Label: "Surveys", Href: "/surveys"},
	{ID: "offerwalls", Label: "OfferWalls", Href: "/offerwalls"},
	{ID: "quiz", Label: "Quiz", Href: "/quiz"},
	{ID: "refer", Label: "Refer & Earn", Href: "/refer"},
}

// Nav lists the navigation destinations.
func Nav() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"success": true,
			"links":   navLinks,
		})
	}
}
