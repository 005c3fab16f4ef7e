package dashboard

import (
	"context"
	"sync"
	"time"

	"adwin-rewards/models"
	"adwin-rewards/recommender"
)

const (
	defaultReasoning   = "No reasoning provided."
	defaultOptimizeErr = "Could not optimize the layout."
)

// LayoutResult is the outcome of a successful optimization.
type LayoutResult struct {
	Order     Order  `json:"order"`
	Reasoning string `json:"reasoning"`
}

// Optimizer owns the displayed widget order and replaces it with the
// recommender's suggestion on request. One request may be in flight at a
// time; the order only ever changes to a validated permutation.
type Optimizer struct {
	tracker *Tracker
	rec     Recommender
	reward  rewarder

	mu        sync.Mutex
	order     Order
	reasoning string
	inFlight  bool
	closed    bool
}

// NewOptimizer creates an optimizer starting from the default order.
func NewOptimizer(tracker *Tracker, rec Recommender, r rewarder) *Optimizer {
	return &Optimizer{
		tracker: tracker,
		rec:     rec,
		reward:  r,
		order:   DefaultOrder(),
	}
}

// Order returns the displayed order.
func (o *Optimizer) Order() Order {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.order.Clone()
}

// Reasoning returns the reasoning of the last applied suggestion.
func (o *Optimizer) Reasoning() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.reasoning
}

// InFlight reports whether a request is outstanding.
func (o *Optimizer) InFlight() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.inFlight
}

// Optimize sends the engagement snapshot and current order to the
// recommender exactly once. On failure or an invalid suggestion the order is
// left untouched.
func (o *Optimizer) Optimize(ctx context.Context) (LayoutResult, error) {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return LayoutResult{}, ErrSessionClosed
	}
	if o.inFlight {
		o.mu.Unlock()
		return LayoutResult{}, ErrOptimizeInFlight
	}
	o.inFlight = true
	current := o.order.Clone()
	o.mu.Unlock()

	defer func() {
		o.mu.Lock()
		o.inFlight = false
		o.mu.Unlock()
	}()

	req := recommender.Request{
		Engagement:    o.tracker.Snapshot().Strings(),
		CurrentLayout: current.Describe(),
	}
	resp, err := o.rec.Recommend(ctx, req)
	// A session torn down mid-request is abandoned without a notice.
	if o.isClosed() {
		return LayoutResult{}, ErrSessionClosed
	}
	if err != nil {
		return LayoutResult{}, o.fail(&RecommendationError{Message: defaultOptimizeErr, Err: err})
	}
	if !resp.Success {
		msg := resp.Error
		if msg == "" {
			msg = defaultOptimizeErr
		}
		return LayoutResult{}, o.fail(&RecommendationError{Message: msg})
	}

	next, err := ParseOrder(resp.Layout)
	if err != nil {
		o.reward.log.Warn("discarding invalid layout suggestion",
			"user_id", o.reward.userID, "layout", resp.Layout, "error", err)
		o.reward.notice(models.NoticeError, "Optimization Failed",
			"The suggested layout was invalid. Your current layout was kept.")
		return LayoutResult{}, err
	}

	reasoning := resp.Reasoning
	if reasoning == "" {
		reasoning = defaultReasoning
	}

	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return LayoutResult{}, ErrSessionClosed
	}
	o.order = next
	o.reasoning = reasoning
	o.mu.Unlock()

	o.reward.pub.Publish(models.Event{
		Type:   models.EventLayout,
		UserID: o.reward.userID,
		Order:  next.Strings(),
		SentAt: time.Now(),
	})
	o.reward.notice(models.NoticeSuccess, "Layout Optimized!",
		"The layout has been updated based on your activity.")
	return LayoutResult{Order: next.Clone(), Reasoning: reasoning}, nil
}

func (o *Optimizer) fail(err *RecommendationError) error {
	o.reward.log.Warn("layout recommendation failed",
		"user_id", o.reward.userID, "error", err)
	o.reward.notice(models.NoticeError, "Optimization Failed", err.Message)
	return err
}

func (o *Optimizer) isClosed() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.closed
}

func (o *Optimizer) close() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.closed = true
}
