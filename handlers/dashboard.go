package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"adwin-rewards/dashboard"
	"adwin-rewards/ledger"
	"adwin-rewards/middleware"
)

type DashboardResponse struct {
	Success     bool           `json:"success"`
	Dashboard   dashboard.View `json:"dashboard"`
	Participate []Link         `json:"participate"`
}

// OpenDashboard starts a fresh dashboard session, replacing any previous one.
func OpenDashboard(env *Env) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s := env.Registry.Open(middleware.UserID(r.Context()))
		writeJSON(w, http.StatusCreated, DashboardResponse{
			Success:     true,
			Dashboard:   s.View(),
			Participate: participateLinks,
		})
	}
}

// CloseDashboard tears down the dashboard session.
func CloseDashboard(env *Env) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !env.Registry.Close(middleware.UserID(r.Context())) {
			writeError(w, http.StatusNotFound, "No open dashboard session")
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"success": true,
			"message": "Dashboard closed",
		})
	}
}

// GetDashboard renders the session state.
func GetDashboard() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, DashboardResponse{
			Success:     true,
			Dashboard:   middleware.Session(r.Context()).View(),
			Participate: participateLinks,
		})
	}
}

// Engage records an interaction with a widget.
func Engage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		widget, err := dashboard.ParseWidget(mux.Vars(r)["widget"])
		if err != nil {
			writeDashboardError(w, err)
			return
		}
		snap, err := middleware.Session(r.Context()).Engage(widget)
		if err != nil {
			writeDashboardError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"success":    true,
			"engagement": snap.Strings(),
		})
	}
}

// SelectDay opens the confirmation prompt for a check-in day.
func SelectDay() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		day, err := strconv.Atoi(mux.Vars(r)["day"])
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid day")
			return
		}
		s := middleware.Session(r.Context())
		selected, err := s.SelectDay(day)
		if err != nil {
			writeDashboardError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"success": true,
			"day":     selected,
			"checkin": s.CheckIn.State(),
		})
	}
}

// ConfirmCheckIn starts the claim for the selected day.
func ConfirmCheckIn() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s := middleware.Session(r.Context())
		day, err := s.ConfirmCheckIn()
		if err != nil {
			writeDashboardError(w, err)
			return
		}
		writeJSON(w, http.StatusAccepted, map[string]interface{}{
			"success": true,
			"message": "You will be rewarded shortly for checking in.",
			"day":     day,
		})
	}
}

// DismissCheckIn closes the confirmation prompt.
func DismissCheckIn() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s := middleware.Session(r.Context())
		s.CheckIn.Dismiss()
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"success": true,
			"checkin": s.CheckIn.State(),
		})
	}
}

// WatchAd starts a simulated ad view.
func WatchAd() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s := middleware.Session(r.Context())
		if err := s.WatchAd(); err != nil {
			writeDashboardError(w, err)
			return
		}
		writeJSON(w, http.StatusAccepted, map[string]interface{}{
			"success": true,
			"message": "You will be rewarded shortly.",
			"reward":  s.Ad.Reward(),
		})
	}
}

// GetQuiz returns the outstanding quiz question.
func GetQuiz() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s := middleware.Session(r.Context())
		q, err := s.OpenQuiz()
		if err != nil {
			writeDashboardError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"success":  true,
			"question": q,
			"reward":   s.Quiz.Reward(),
		})
	}
}

type QuizAnswerRequest struct {
	Answer *int `json:"answer"`
}

// AnswerQuiz checks an answer to the outstanding question.
func AnswerQuiz() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req QuizAnswerRequest
		if err := decode(r, &req); err != nil || req.Answer == nil {
			writeError(w, http.StatusBadRequest, "Invalid request")
			return
		}
		s := middleware.Session(r.Context())
		correct, err := s.AnswerQuiz(r.Context(), *req.Answer)
		if err != nil {
			writeDashboardError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"success":  true,
			"correct":  correct,
			"question": s.Quiz.Question(),
		})
	}
}

// OptimizeLayout asks the recommender for a new widget order.
func OptimizeLayout() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, err := middleware.Session(r.Context()).Optimize(r.Context())
		if err != nil {
			writeDashboardError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"success":   true,
			"order":     res.Order.Strings(),
			"reasoning": res.Reasoning,
		})
	}
}

// writeDashboardError maps the dashboard error taxonomy to responses.
// Sequencing violations are ordinary outcomes, not failures.
func writeDashboardError(w http.ResponseWriter, err error) {
	var recErr *dashboard.RecommendationError
	var writeErr *ledger.RemoteWriteError

	switch {
	case errors.Is(err, dashboard.ErrUnknownWidget), errors.Is(err, dashboard.ErrInvalidDay):
		writeError(w, http.StatusBadRequest, err.Error())
	case dashboard.IsSequencing(err):
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"success": false,
			"message": err.Error(),
			"reason":  sequencingReason(err),
		})
	case errors.Is(err, dashboard.ErrTaskPending),
		errors.Is(err, dashboard.ErrOptimizeInFlight),
		errors.Is(err, dashboard.ErrNoSelection):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, dashboard.ErrSessionClosed):
		writeError(w, http.StatusNotFound, "No open dashboard session")
	case errors.As(err, &recErr):
		writeError(w, http.StatusBadGateway, recErr.Message)
	case errors.Is(err, dashboard.ErrInvalidLayout):
		writeError(w, http.StatusBadGateway, "The suggested layout was invalid. Your current layout was kept.")
	case errors.As(err, &writeErr):
		writeError(w, http.StatusBadGateway, "Failed to update your coin balance.")
	default:
		writeError(w, http.StatusInternalServerError, "Something went wrong")
	}
}

func sequencingReason(err error) string {
	switch {
	case errors.Is(err, dashboard.ErrAlreadyClaimed):
		return "already_claimed"
	case errors.Is(err, dashboard.ErrOutOfOrder):
		return "out_of_order"
	}
	return "sequencing"
}
