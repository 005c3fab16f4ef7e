package dashboard

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"adwin-rewards/models"
	"adwin-rewards/recommender"
)

func TestOrderValidate(t *testing.T) {
	tests := []struct {
		name  string
		order Order
		ok    bool
	}{
		{"default", DefaultOrder(), true},
		{"permutation", Order{WidgetQuiz, WidgetDaily, WidgetAd}, true},
		{"duplicate", Order{WidgetAd, WidgetAd, WidgetQuiz}, false},
		{"omission", Order{WidgetAd, WidgetQuiz}, false},
		{"unknown", Order{WidgetAd, WidgetQuiz, "banner"}, false},
		{"extra", Order{WidgetAd, WidgetQuiz, WidgetDaily, WidgetAd}, false},
		{"empty", Order{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.order.Validate()
			if tt.ok && err != nil {
				t.Errorf("Validate() = %v, want nil", err)
			}
			if !tt.ok && !errors.Is(err, ErrInvalidLayout) {
				t.Errorf("Validate() = %v, want ErrInvalidLayout", err)
			}
		})
	}
}

func TestOrderDescribe(t *testing.T) {
	got := DefaultOrder().Describe()
	want := "The current layout is: daily, ad, quiz."
	if got != want {
		t.Errorf("Describe() = %q, want %q", got, want)
	}
}

func TestOptimizeScenario(t *testing.T) {
	h := newHarness(t)
	for i := 0; i < 3; i++ {
		_, _ = h.session.Engage(WidgetDaily)
	}
	_, _ = h.session.Engage(WidgetAd)

	h.rec.resp = recommender.Response{
		Success:   true,
		Layout:    []string{"ad", "daily", "quiz"},
		Reasoning: "You watch ads often.",
	}

	res, err := h.session.Optimize(context.Background())
	if err != nil {
		t.Fatalf("Optimize() error = %v", err)
	}

	calls := h.rec.Calls()
	if len(calls) != 1 {
		t.Fatalf("recommender called %d times, want 1", len(calls))
	}
	wantSnap := map[string]int{"daily": 3, "ad": 1, "quiz": 0}
	if !reflect.DeepEqual(calls[0].Engagement, wantSnap) {
		t.Errorf("engagement sent = %v, want %v", calls[0].Engagement, wantSnap)
	}
	if calls[0].CurrentLayout != "The current layout is: daily, ad, quiz." {
		t.Errorf("description sent = %q", calls[0].CurrentLayout)
	}

	want := Order{WidgetAd, WidgetDaily, WidgetQuiz}
	if !reflect.DeepEqual(res.Order, want) {
		t.Errorf("result order = %v, want %v", res.Order, want)
	}
	if got := h.session.Optimizer.Order(); !reflect.DeepEqual(got, want) {
		t.Errorf("displayed order = %v, want %v", got, want)
	}
	if got := h.session.View().Reasoning; got != "You watch ads often." {
		t.Errorf("reasoning = %q", got)
	}
	if h.pub.Count(models.EventLayout) != 1 {
		t.Error("layout event not published")
	}
	if !h.pub.HasNotice("Layout Optimized!") {
		t.Error("missing success notice")
	}
}

func TestOptimizeEmptyReasoning(t *testing.T) {
	h := newHarness(t)
	h.rec.resp = recommender.Response{Success: true, Layout: []string{"quiz", "ad", "daily"}}

	res, err := h.session.Optimize(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if res.Reasoning != "No reasoning provided." {
		t.Errorf("Reasoning = %q", res.Reasoning)
	}
}

func TestOptimizeFailuresKeepOrder(t *testing.T) {
	tests := []struct {
		name    string
		resp    recommender.Response
		err     error
		wantErr error
	}{
		{
			name:    "transport error",
			err:     errors.New("connection refused"),
			wantErr: &RecommendationError{},
		},
		{
			name:    "failure answer",
			resp:    recommender.Response{Success: false, Error: "quota exceeded"},
			wantErr: &RecommendationError{},
		},
		{
			name:    "duplicate widget",
			resp:    recommender.Response{Success: true, Layout: []string{"ad", "ad", "quiz"}},
			wantErr: ErrInvalidLayout,
		},
		{
			name:    "missing widget",
			resp:    recommender.Response{Success: true, Layout: []string{"ad", "quiz"}},
			wantErr: ErrInvalidLayout,
		},
		{
			name:    "unknown widget",
			resp:    recommender.Response{Success: true, Layout: []string{"ad", "quiz", "offers"}},
			wantErr: ErrInvalidLayout,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			h.rec.resp = tt.resp
			h.rec.err = tt.err
			before := h.session.Optimizer.Order()

			_, err := h.session.Optimize(context.Background())
			switch want := tt.wantErr.(type) {
			case *RecommendationError:
				var re *RecommendationError
				if !errors.As(err, &re) {
					t.Fatalf("Optimize() error = %v, want RecommendationError", err)
				}
			default:
				if !errors.Is(err, want) {
					t.Fatalf("Optimize() error = %v, want %v", err, want)
				}
			}

			if got := h.session.Optimizer.Order(); !reflect.DeepEqual(got, before) {
				t.Errorf("order changed to %v after failure", got)
			}
			if !h.pub.HasNotice("Optimization Failed") {
				t.Error("missing failure notice")
			}
			if h.pub.Count(models.EventLayout) != 0 {
				t.Error("layout event published after failure")
			}
		})
	}
}

func TestOptimizeFailureMessage(t *testing.T) {
	h := newHarness(t)
	h.rec.resp = recommender.Response{Success: false}

	_, err := h.session.Optimize(context.Background())
	var re *RecommendationError
	if !errors.As(err, &re) {
		t.Fatalf("error = %v", err)
	}
	if re.Message != "Could not optimize the layout." {
		t.Errorf("Message = %q", re.Message)
	}
}

func TestOptimizeSingleFlight(t *testing.T) {
	h := newHarness(t)
	h.rec.started = make(chan struct{}, 1)
	h.rec.release = make(chan struct{})
	h.rec.resp = recommender.Response{Success: true, Layout: []string{"quiz", "daily", "ad"}}

	done := make(chan error, 1)
	go func() {
		_, err := h.session.Optimize(context.Background())
		done <- err
	}()
	<-h.rec.started

	if !h.session.View().Optimizing {
		t.Error("View().Optimizing = false while request in flight")
	}
	if _, err := h.session.Optimize(context.Background()); !errors.Is(err, ErrOptimizeInFlight) {
		t.Fatalf("concurrent Optimize() error = %v, want ErrOptimizeInFlight", err)
	}

	// Engagement recorded meanwhile is kept.
	_, _ = h.session.Engage(WidgetQuiz)

	close(h.rec.release)
	if err := <-done; err != nil {
		t.Fatalf("first Optimize() error = %v", err)
	}
	if n := len(h.rec.Calls()); n != 1 {
		t.Errorf("recommender called %d times, want 1", n)
	}
	if h.session.Tracker.Snapshot()[WidgetQuiz] != 1 {
		t.Error("engagement lost during optimization")
	}
	if h.session.View().Optimizing {
		t.Error("Optimizing still set after completion")
	}
}

func TestOptimizeAbandonedOnClose(t *testing.T) {
	h := newHarness(t)
	h.rec.started = make(chan struct{}, 1)
	h.rec.release = make(chan struct{})
	h.rec.resp = recommender.Response{Success: true, Layout: []string{"quiz", "daily", "ad"}}

	done := make(chan error, 1)
	go func() {
		_, err := h.session.Optimize(context.Background())
		done <- err
	}()
	<-h.rec.started

	h.session.Close()
	if err := <-done; !errors.Is(err, ErrSessionClosed) {
		t.Fatalf("Optimize() error = %v, want ErrSessionClosed", err)
	}
	if got := h.session.Optimizer.Order(); !reflect.DeepEqual(got, DefaultOrder()) {
		t.Errorf("order = %v after close, want default", got)
	}
	if h.pub.HasNotice("Optimization Failed") || h.pub.HasNotice("Layout Optimized!") {
		t.Errorf("notices after close = %v, want none", h.pub.Notices())
	}
}

func TestOptimizeFailureAfterCloseIsSilent(t *testing.T) {
	h := newHarness(t)
	h.rec.started = make(chan struct{}, 1)
	h.rec.release = make(chan struct{})
	h.rec.resp = recommender.Response{Success: true, Layout: []string{"ad", "ad", "quiz"}}

	done := make(chan error, 1)
	go func() {
		// Detached from the session so the request outlives Close.
		_, err := h.session.Optimizer.Optimize(context.Background())
		done <- err
	}()
	<-h.rec.started

	h.session.Close()
	close(h.rec.release)
	if err := <-done; !errors.Is(err, ErrSessionClosed) {
		t.Fatalf("Optimize() error = %v, want ErrSessionClosed", err)
	}
	if len(h.pub.Notices()) != 0 {
		t.Errorf("notices = %v, want none", h.pub.Notices())
	}
}
