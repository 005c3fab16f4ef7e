package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"adwin-rewards/middleware"
)

// NewRouter wires every route of the API.
func NewRouter(env *Env, staticDir string) *mux.Router {
	r := mux.NewRouter()
	r.Use(middleware.Logger(env.Logger))

	// Static files
	if staticDir != "" {
		r.PathPrefix("/static/").Handler(http.StripPrefix("/static/", http.FileServer(http.Dir(staticDir))))
	}

	r.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{"success": true})
	}).Methods("GET")

	api := r.PathPrefix("/api").Subrouter()

	// Public API endpoints
	api.HandleFunc("/auth/signin", SignIn(env)).Methods("POST", "OPTIONS")
	api.HandleFunc("/nav", Nav()).Methods("GET")

	// Protected API endpoints
	protected := api.NewRoute().Subrouter()
	protected.Use(middleware.Auth(env.Store, env.Keys.Token))

	protected.HandleFunc("/auth/signout", SignOut(env)).Methods("POST", "OPTIONS")
	protected.HandleFunc("/auth/refresh", RefreshToken(env)).Methods("POST", "OPTIONS")
	protected.HandleFunc("/user", GetUser(env)).Methods("GET")
	protected.HandleFunc("/user/audio", GetAudio(env)).Methods("GET")
	protected.HandleFunc("/user/audio", SetAudio(env)).Methods("PUT")
	protected.HandleFunc("/dashboard/session", OpenDashboard(env)).Methods("POST")
	protected.HandleFunc("/dashboard/session", CloseDashboard(env)).Methods("DELETE")
	protected.HandleFunc("/ws/notices", Notices(env)).Methods("GET")

	// Endpoints that need an open dashboard session
	dash := protected.PathPrefix("/dashboard").Subrouter()
	dash.Use(middleware.Dashboard(env.Registry))

	dash.HandleFunc("", GetDashboard()).Methods("GET")
	dash.HandleFunc("/widgets/{widget}/engage", Engage()).Methods("POST")
	dash.HandleFunc("/checkin/confirm", ConfirmCheckIn()).Methods("POST")
	dash.HandleFunc("/checkin/dismiss", DismissCheckIn()).Methods("POST")
	dash.HandleFunc("/checkin/{day:-?[0-9]+}", SelectDay()).Methods("POST")
	dash.HandleFunc("/ad/watch", WatchAd()).Methods("POST")
	dash.HandleFunc("/quiz", GetQuiz()).Methods("GET")
	dash.HandleFunc("/quiz/answer", AnswerQuiz()).Methods("POST")
	dash.HandleFunc("/layout/optimize", OptimizeLayout()).Methods("POST")

	return r
}
