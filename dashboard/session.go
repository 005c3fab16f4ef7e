package dashboard

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"log/slog"
	mrand "math/rand/v2"
	"sync"
	"time"

	"github.com/sourcegraph/conc"
)

// Deps are the collaborators a session talks to.
type Deps struct {
	Ledger      Ledger
	Recommender Recommender
	Publisher   Publisher
	Logger      *slog.Logger
}

// Options configure rewards and timing.
type Options struct {
	CheckInRewards []int
	AdReward       int
	QuizReward     int
	TaskDelay      time.Duration
	// Clock drives reward delays. Nil selects the wall clock.
	Clock Clock
	// Rand generates quiz questions. Nil seeds a new generator per session.
	Rand func() *mrand.Rand
}

// DefaultOptions mirrors the stock reward table.
func DefaultOptions() Options {
	return Options{
		CheckInRewards: []int{10, 15, 20, 25, 30},
		AdReward:       5,
		QuizReward:     5,
		TaskDelay:      3 * time.Second,
	}
}

// View is the render state of a session.
type View struct {
	SessionID  string         `json:"session_id"`
	Order      []string       `json:"order"`
	Engagement map[string]int `json:"engagement"`
	CheckIn    CheckInState   `json:"checkin"`
	AdWatching bool           `json:"ad_watching"`
	AdReward   int            `json:"ad_reward"`
	Quiz       QuizView       `json:"quiz"`
	Optimizing bool           `json:"optimizing"`
	Reasoning  string         `json:"reasoning,omitempty"`
	OpenedAt   time.Time      `json:"opened_at"`
}

// QuizView is the render state of the quiz card.
type QuizView struct {
	Question string `json:"question"`
	Reward   int    `json:"reward"`
}

// Session is one user's dashboard.
type Session struct {
	ID       string
	UserID   string
	OpenedAt time.Time

	Tracker   *Tracker
	CheckIn   *CheckIn
	Ad        *AdWatch
	Quiz      *Quiz
	Optimizer *Optimizer

	ctx       context.Context
	cancel    context.CancelFunc
	wg        *conc.WaitGroup
	tasks     []*TimedTask
	closeOnce sync.Once
	log       *slog.Logger
}

// NewSession builds a session for userID.
func NewSession(userID string, deps Deps, opts Options) *Session {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "dashboard", "user_id", userID)

	ctx, cancel := context.WithCancel(context.Background())
	wg := conc.NewWaitGroup()
	r := rewarder{userID: userID, ledger: deps.Ledger, pub: deps.Publisher, log: logger}

	checkInTask := NewTimedTask(opts.TaskDelay, opts.Clock, wg)
	adTask := NewTimedTask(opts.TaskDelay, opts.Clock, wg)

	rng := newRand()
	if opts.Rand != nil {
		rng = opts.Rand()
	}

	tracker := NewTracker()
	s := &Session{
		ID:        newSessionID(),
		UserID:    userID,
		OpenedAt:  time.Now(),
		Tracker:   tracker,
		CheckIn:   NewCheckIn(opts.CheckInRewards, checkInTask, r),
		Ad:        NewAdWatch(opts.AdReward, adTask, r),
		Quiz:      NewQuiz(opts.QuizReward, rng, r),
		Optimizer: NewOptimizer(tracker, deps.Recommender, r),
		ctx:       ctx,
		cancel:    cancel,
		wg:        wg,
		tasks:     []*TimedTask{checkInTask, adTask},
		log:       logger,
	}
	logger.Debug("dashboard session opened", "session_id", s.ID)
	return s
}

// Engage records a plain interaction with w.
func (s *Session) Engage(w WidgetID) (Snapshot, error) {
	if s.Closed() {
		return nil, ErrSessionClosed
	}
	return s.Tracker.Record(w)
}

// SelectDay records a daily-card interaction and selects day.
func (s *Session) SelectDay(day int) (Day, error) {
	if _, err := s.Engage(WidgetDaily); err != nil {
		return Day{}, err
	}
	return s.CheckIn.Select(day)
}

// ConfirmCheckIn starts the claim for the selected day.
func (s *Session) ConfirmCheckIn() (Day, error) {
	if s.Closed() {
		return Day{}, ErrSessionClosed
	}
	return s.CheckIn.Confirm(s.ctx)
}

// WatchAd records an ad-card interaction and starts an ad view.
func (s *Session) WatchAd() error {
	if _, err := s.Engage(WidgetAd); err != nil {
		return err
	}
	return s.Ad.Watch(s.ctx)
}

// OpenQuiz records a quiz-card interaction and returns the question.
func (s *Session) OpenQuiz() (Question, error) {
	if _, err := s.Engage(WidgetQuiz); err != nil {
		return Question{}, err
	}
	return s.Quiz.Question(), nil
}

// AnswerQuiz submits an answer for the outstanding question.
func (s *Session) AnswerQuiz(ctx context.Context, n int) (bool, error) {
	if s.Closed() {
		return false, ErrSessionClosed
	}
	return s.Quiz.Answer(ctx, n)
}

// Optimize requests a new layout. The request is bound to both ctx and the
// session lifetime.
func (s *Session) Optimize(ctx context.Context) (LayoutResult, error) {
	if s.Closed() {
		return LayoutResult{}, ErrSessionClosed
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(s.ctx, cancel)
	defer stop()
	return s.Optimizer.Optimize(ctx)
}

// View returns the render state.
func (s *Session) View() View {
	return View{
		SessionID:  s.ID,
		Order:      s.Optimizer.Order().Strings(),
		Engagement: s.Tracker.Snapshot().Strings(),
		CheckIn:    s.CheckIn.State(),
		AdWatching: s.Ad.Watching(),
		AdReward:   s.Ad.Reward(),
		Quiz: QuizView{
			Question: s.Quiz.Question().Text,
			Reward:   s.Quiz.Reward(),
		},
		Optimizing: s.Optimizer.InFlight(),
		Reasoning:  s.Optimizer.Reasoning(),
		OpenedAt:   s.OpenedAt,
	}
}

// Closed reports whether the session was torn down.
func (s *Session) Closed() bool {
	return s.ctx.Err() != nil
}

// Close tears the session down: scheduled grants are dropped, outstanding
// layout requests are abandoned, and Close waits for grants that already
// began.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		for _, t := range s.tasks {
			t.Close()
		}
		s.Optimizer.close()
		s.cancel()
		s.wg.Wait()
		s.log.Debug("dashboard session closed", "session_id", s.ID)
	})
}

func newSessionID() string {
	b := make([]byte, 12)
	if _, err := rand.Read(b); err != nil {
		return time.Now().Format("20060102150405.000000000")
	}
	return hex.EncodeToString(b)
}

func newRand() *mrand.Rand {
	return mrand.New(mrand.NewPCG(mrand.Uint64(), mrand.Uint64()))
}
